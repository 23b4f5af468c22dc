// Tandem - Relationship Coaching Personalization & Smart Scheduling
// Copyright 2026 Tandem Labs
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tandemlabs/tandem

// Package profile maintains the evolving per-user (or per-couple)
// relationship profile: preference category weights, derived traits, and
// a bounded window of recent interactions. The profile is a derived,
// rebuildable cache over the append-only growth event log: losing a
// profile write is acceptable, losing an event is not.
package profile

import (
	"time"
)

// UserProfile summarizes a user's preferences and traits.
//
// Every weight and trait value stays within [0,1] after any update;
// updates clamp, they never drift unbounded. Missing categories and
// traits read as the configured neutral midpoint.
type UserProfile struct {
	// UserID is the stable identity key.
	UserID string `json:"user_id"`

	// Weights maps preference categories to scores in [0,1].
	Weights map[string]float64 `json:"weights"`

	// Traits maps derived trait names (e.g. "responsiveness",
	// "initiative") to values in [0,1].
	Traits map[string]float64 `json:"traits"`

	// Recent is the bounded recent-interaction window,
	// most-recent-first, capped at the configured window size.
	Recent []InteractionSummary `json:"recent"`

	// UpdatedAt is the server timestamp of the last persisted update.
	UpdatedAt time.Time `json:"updated_at"`
}

// InteractionSummary is one entry in the recent-interaction window.
type InteractionSummary struct {
	// Category is the preference category the interaction touched.
	Category string `json:"category"`

	// Kind is the interaction kind (e.g. "completed", "declined",
	// "expired", "engaged").
	Kind string `json:"kind"`

	// Signal is the observed signal strength in [0,1].
	Signal float64 `json:"signal"`

	// At is when the interaction occurred.
	At time.Time `json:"at"`
}

// Event is one interaction or growth-event outcome consumed by
// UpdateProfile.
type Event struct {
	// Category is the preference category the event concerns.
	Category string `json:"category"`

	// Kind classifies the event (e.g. "completed", "declined",
	// "expired", "engaged").
	Kind string `json:"kind"`

	// Signal is the observed preference signal in [0,1]; values outside
	// the range are clamped on ingestion.
	Signal float64 `json:"signal"`

	// Traits carries observed trait signals in [0,1], clamped likewise.
	Traits map[string]float64 `json:"traits,omitempty"`

	// At is when the event occurred. Zero means "now".
	At time.Time `json:"at"`
}

// Weight returns the category weight, or neutral when unseen.
func (p *UserProfile) Weight(category string, neutral float64) float64 {
	if v, ok := p.Weights[category]; ok {
		return v
	}
	return neutral
}

// Trait returns the trait value, or neutral when unseen.
func (p *UserProfile) Trait(name string, neutral float64) float64 {
	if v, ok := p.Traits[name]; ok {
		return v
	}
	return neutral
}

// newDefault returns the profile used before any interaction exists.
func newDefault(userID string) *UserProfile {
	return &UserProfile{
		UserID:  userID,
		Weights: make(map[string]float64),
		Traits:  make(map[string]float64),
		Recent:  []InteractionSummary{},
	}
}

// clamp bounds v to [0,1].
func clamp(v float64) float64 {
	switch {
	case v < 0:
		return 0
	case v > 1:
		return 1
	default:
		return v
	}
}
