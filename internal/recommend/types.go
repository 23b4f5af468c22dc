// Tandem - Relationship Coaching Personalization & Smart Scheduling
// Copyright 2026 Tandem Labs
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tandemlabs/tandem

// Package recommend ranks catalog activity templates against a user's
// profile and produces fresh, schedulable recommendations.
//
// Ranking is deterministic: a score blend of the profile's category
// weight and trait affinity, sorted descending with ties broken by the
// lower template ID. Templates whose category was touched within the
// cooldown window, or that already have a pending scheduled item, are
// excluded before ranking. The engine never pads: when fewer candidates
// survive exclusion than were requested, it returns fewer.
package recommend

import "time"

// Recommendation is one ranked activity suggestion for a user.
type Recommendation struct {
	ID          string    `json:"id"`
	UserID      string    `json:"user_id"`
	TemplateID  string    `json:"template_id"`
	Category    string    `json:"category"`
	Title       string    `json:"title"`
	Score       float64   `json:"score"`
	GeneratedAt time.Time `json:"generated_at"`

	// ExpiresAt bounds the recommendation's freshness; stale
	// recommendations should be regenerated rather than scheduled.
	ExpiresAt time.Time `json:"expires_at"`
}

// Fresh reports whether the recommendation is still within its
// freshness window at the given time.
func (r *Recommendation) Fresh(now time.Time) bool {
	return now.Before(r.ExpiresAt)
}
