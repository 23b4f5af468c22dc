// Tandem - Relationship Coaching Personalization & Smart Scheduling
// Copyright 2026 Tandem Labs
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tandemlabs/tandem

// Package catalog provides the pool of activity templates available for
// recommendation. The catalog is an external, read-only collaborator that
// may be slow or unavailable; its failures are reported distinctly from
// store failures so callers can tell the two apart.
package catalog

import (
	"context"
	"errors"
	"fmt"
)

// ErrUnavailable indicates the catalog could not serve templates.
// Distinct from store errors: the catalog is an external dependency and
// its availability is not the engine's to guarantee.
var ErrUnavailable = errors.New("catalog unavailable")

// Template is one activity template: a suggestible activity, prompt, or
// check-in that the recommendation engine scores against a profile.
type Template struct {
	// ID uniquely identifies the template. Ranking tie-breaks use
	// lexicographic ID order for reproducibility.
	ID string `json:"id" koanf:"id"`

	// Category is the preference category the template belongs to
	// (e.g. "outdoor", "quiet", "conversation").
	Category string `json:"category" koanf:"category"`

	// Title is the short display name.
	Title string `json:"title" koanf:"title"`

	// Description explains the activity to the couple.
	Description string `json:"description,omitempty" koanf:"description"`

	// Traits maps trait names to the degree [0,1] this template
	// exercises them (e.g. {"initiative": 0.8}).
	Traits map[string]float64 `json:"traits,omitempty" koanf:"traits"`

	// DurationMinutes is the suggested activity length.
	DurationMinutes int `json:"duration_minutes,omitempty" koanf:"duration_minutes"`

	// Tags are free-form labels for display and analytics.
	Tags []string `json:"tags,omitempty" koanf:"tags"`
}

// Provider serves the template pool.
type Provider interface {
	// Templates returns all available activity templates.
	// Failures are reported as (or wrapping) ErrUnavailable.
	Templates(ctx context.Context) ([]Template, error)
}

// Static is a fixed in-memory Provider, used in tests and as a built-in
// default catalog.
type Static struct {
	templates []Template
}

// NewStatic creates a provider serving the given templates.
func NewStatic(templates []Template) *Static {
	return &Static{templates: templates}
}

// Templates returns a copy of the configured pool.
func (s *Static) Templates(ctx context.Context) ([]Template, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	out := make([]Template, len(s.templates))
	copy(out, s.templates)
	return out, nil
}
