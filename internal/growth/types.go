// Tandem - Relationship Coaching Personalization & Smart Scheduling
// Copyright 2026 Tandem Labs
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tandemlabs/tandem

// Package growth owns the append-only outcome log.
//
// Every recorded outcome becomes an immutable GrowthEvent; events are
// never updated or deleted, so the log is the durable source of truth
// the derived profile can always be rebuilt from. The tracker closes
// the feedback loop by forwarding each outcome to the personalization
// engine through a narrow interface, keeping the packages decoupled.
package growth

import (
	"fmt"
	"time"
)

// GrowthEvent is one immutable entry in a user's outcome log.
type GrowthEvent struct {
	ID     string `json:"id"`
	UserID string `json:"user_id"`

	// ItemID links the event to a scheduled item; empty for events not
	// tied to one.
	ItemID string `json:"item_id,omitempty"`

	// Kind is the outcome or interaction kind: completed, declined,
	// expired, or a freeform kind such as "engaged".
	Kind string `json:"kind"`

	// Category is the preference category for freeform interaction
	// events. Empty for item-linked events, whose category lives on
	// the item.
	Category string `json:"category,omitempty"`

	// Signal is the observed preference signal in [0,1] for freeform
	// interaction events.
	Signal float64 `json:"signal,omitempty"`

	At time.Time `json:"at"`

	// Signals carries optional outcome measurements, such as trait
	// observations, in [0,1].
	Signals map[string]float64 `json:"signals,omitempty"`
}

// Key returns the event's composite document key. The timestamp is
// encoded as zero-padded Unix nanoseconds so a prefix scan over the
// user yields events in time order.
func (e *GrowthEvent) Key() string {
	return EventKey(e.UserID, e.At, e.ID)
}

// EventKey builds the composite document key for a growth event.
func EventKey(userID string, at time.Time, eventID string) string {
	return fmt.Sprintf("%s:%019d:%s", userID, at.UnixNano(), eventID)
}
