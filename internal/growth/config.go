// Tandem - Relationship Coaching Personalization & Smart Scheduling
// Copyright 2026 Tandem Labs
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tandemlabs/tandem

package growth

import (
	"fmt"

	"github.com/tandemlabs/tandem/internal/store"
)

// Config contains the growth tracker's tunable parameters.
type Config struct {
	// MaxTimeline caps the number of events one timeline query returns.
	// Default: 100.
	MaxTimeline int `json:"max_timeline" koanf:"max_timeline"`

	// Retry bounds retries of transient store failures.
	Retry store.RetryPolicy `json:"retry" koanf:"retry"`
}

// DefaultConfig returns production defaults.
func DefaultConfig() Config {
	return Config{
		MaxTimeline: 100,
		Retry:       store.DefaultRetryPolicy(),
	}
}

// Validate checks the configuration for errors.
func (c Config) Validate() error {
	if c.MaxTimeline < 1 {
		return fmt.Errorf("max_timeline must be positive, got %d", c.MaxTimeline)
	}
	return nil
}
