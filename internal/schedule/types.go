// Tandem - Relationship Coaching Personalization & Smart Scheduling
// Copyright 2026 Tandem Labs
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tandemlabs/tandem

// Package schedule places recommended activities onto a user's calendar
// and owns the scheduled-item lifecycle.
//
// A ScheduledItem starts pending and moves to exactly one terminal
// status: completed, declined, or expired. Terminal items never change
// again. Placement enforces two rules against the user's existing
// non-terminal items: time windows must not overlap (hard reject), and
// items of the same category must keep a minimum gap between them.
package schedule

import (
	"fmt"
	"time"
)

// Status is the lifecycle state of a scheduled item.
type Status string

// Scheduled item statuses. Pending is the only non-terminal status.
const (
	StatusPending   Status = "pending"
	StatusCompleted Status = "completed"
	StatusDeclined  Status = "declined"
	StatusExpired   Status = "expired"
)

// Valid reports whether s is a known status.
func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusCompleted, StatusDeclined, StatusExpired:
		return true
	}
	return false
}

// Terminal reports whether s is a final status.
func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusDeclined || s == StatusExpired
}

// CanTransition reports whether a transition from s to target is legal.
// Only pending items transition, and only to a terminal status.
func (s Status) CanTransition(target Status) bool {
	return s == StatusPending && target.Terminal()
}

// ScheduledItem is one activity placed on a user's calendar.
type ScheduledItem struct {
	ID         string    `json:"id"`
	UserID     string    `json:"user_id"`
	TemplateID string    `json:"template_id"`
	Category   string    `json:"category"`
	Title      string    `json:"title"`
	Status     Status    `json:"status"`
	Start      time.Time `json:"start"`
	End        time.Time `json:"end"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// Overlaps reports whether the item's [Start, End) window intersects
// the given window.
func (it *ScheduledItem) Overlaps(start, end time.Time) bool {
	return start.Before(it.End) && it.Start.Before(end)
}

// Key returns the item's composite document key. Start time is encoded
// as zero-padded Unix nanoseconds so a prefix scan over the user yields
// items in chronological order.
func (it *ScheduledItem) Key() string {
	return ItemKey(it.UserID, it.Start, it.ID)
}

// ItemKey builds the composite document key for a scheduled item.
func ItemKey(userID string, start time.Time, itemID string) string {
	return fmt.Sprintf("%s:%019d:%s", userID, start.UnixNano(), itemID)
}
