// Tandem - Relationship Coaching Personalization & Smart Scheduling
// Copyright 2026 Tandem Labs
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tandemlabs/tandem

package schedule

import (
	"fmt"
	"time"

	"github.com/tandemlabs/tandem/internal/store"
)

// Config contains the scheduler's tunable parameters.
type Config struct {
	// CategoryGap is the minimum gap between two non-terminal items of
	// the same category. Default: 24h.
	CategoryGap time.Duration `json:"category_gap" koanf:"category_gap"`

	// MaxWindow caps the duration of a single item. Default: 8h.
	MaxWindow time.Duration `json:"max_window" koanf:"max_window"`

	// Retry bounds retries of transient store failures.
	Retry store.RetryPolicy `json:"retry" koanf:"retry"`
}

// DefaultConfig returns production defaults.
func DefaultConfig() Config {
	return Config{
		CategoryGap: 24 * time.Hour,
		MaxWindow:   8 * time.Hour,
		Retry:       store.DefaultRetryPolicy(),
	}
}

// Validate checks the configuration for errors.
func (c Config) Validate() error {
	if c.CategoryGap < 0 {
		return fmt.Errorf("category_gap must not be negative, got %s", c.CategoryGap)
	}
	if c.MaxWindow <= 0 {
		return fmt.Errorf("max_window must be positive, got %s", c.MaxWindow)
	}
	return nil
}
