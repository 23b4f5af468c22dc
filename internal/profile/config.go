// Tandem - Relationship Coaching Personalization & Smart Scheduling
// Copyright 2026 Tandem Labs
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tandemlabs/tandem

package profile

import (
	"fmt"

	"github.com/tandemlabs/tandem/internal/store"
)

// Config contains the personalization engine's tunable parameters.
// The decay factor and window size are configuration, not constants.
type Config struct {
	// Alpha is the exponential decay factor: each update computes
	// new = old*(1-alpha) + signal*alpha, so recent events weigh more
	// than historical ones. Must be in (0,1]. Default: 0.3.
	Alpha float64 `json:"alpha" koanf:"alpha"`

	// Neutral is the midpoint assigned to unseen weights and traits.
	// Must be in [0,1]. Default: 0.5.
	Neutral float64 `json:"neutral" koanf:"neutral"`

	// WindowSize caps the recent-interaction window. Default: 20.
	WindowSize int `json:"window_size" koanf:"window_size"`

	// Retry bounds retries of transient store failures.
	Retry store.RetryPolicy `json:"retry" koanf:"retry"`
}

// DefaultConfig returns production defaults.
func DefaultConfig() Config {
	return Config{
		Alpha:      0.3,
		Neutral:    0.5,
		WindowSize: 20,
		Retry:      store.DefaultRetryPolicy(),
	}
}

// Validate checks the configuration for errors.
func (c Config) Validate() error {
	if c.Alpha <= 0 || c.Alpha > 1 {
		return fmt.Errorf("alpha must be in (0,1], got %f", c.Alpha)
	}
	if c.Neutral < 0 || c.Neutral > 1 {
		return fmt.Errorf("neutral must be in [0,1], got %f", c.Neutral)
	}
	if c.WindowSize < 1 {
		return fmt.Errorf("window_size must be positive, got %d", c.WindowSize)
	}
	return nil
}
