// Tandem - Relationship Coaching Personalization & Smart Scheduling
// Copyright 2026 Tandem Labs
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tandemlabs/tandem

package recommend

import (
	"fmt"
	"time"
)

// Config contains the recommendation engine's tunable parameters.
type Config struct {
	// CategoryWeight scales the profile's category weight in the score
	// blend. Default: 0.7.
	CategoryWeight float64 `json:"category_weight" koanf:"category_weight"`

	// TraitWeight scales the trait-affinity term in the score blend.
	// Default: 0.3.
	TraitWeight float64 `json:"trait_weight" koanf:"trait_weight"`

	// Cooldown excludes templates whose category appears in the user's
	// recent interactions within this window. Default: 12h.
	Cooldown time.Duration `json:"cooldown" koanf:"cooldown"`

	// FreshnessTTL bounds how long a generated recommendation stays
	// valid. Default: 24h.
	FreshnessTTL time.Duration `json:"freshness_ttl" koanf:"freshness_ttl"`

	// CacheTTL caches a user's scored candidates for this long, trading
	// exclusion freshness for ranking cost. Zero disables caching.
	// Default: 0.
	CacheTTL time.Duration `json:"cache_ttl" koanf:"cache_ttl"`

	// DefaultCount is used when the caller requests no explicit count.
	// Default: 3.
	DefaultCount int `json:"default_count" koanf:"default_count"`

	// MaxCount caps any requested count. Default: 10.
	MaxCount int `json:"max_count" koanf:"max_count"`
}

// DefaultConfig returns production defaults.
func DefaultConfig() Config {
	return Config{
		CategoryWeight: 0.7,
		TraitWeight:    0.3,
		Cooldown:       12 * time.Hour,
		FreshnessTTL:   24 * time.Hour,
		DefaultCount:   3,
		MaxCount:       10,
	}
}

// Validate checks the configuration for errors.
func (c Config) Validate() error {
	if c.CategoryWeight < 0 || c.TraitWeight < 0 {
		return fmt.Errorf("score weights must not be negative, got %f/%f", c.CategoryWeight, c.TraitWeight)
	}
	if c.CategoryWeight+c.TraitWeight <= 0 {
		return fmt.Errorf("score weights must not both be zero")
	}
	if c.Cooldown < 0 {
		return fmt.Errorf("cooldown must not be negative, got %s", c.Cooldown)
	}
	if c.CacheTTL < 0 {
		return fmt.Errorf("cache_ttl must not be negative, got %s", c.CacheTTL)
	}
	if c.FreshnessTTL <= 0 {
		return fmt.Errorf("freshness_ttl must be positive, got %s", c.FreshnessTTL)
	}
	if c.DefaultCount < 1 {
		return fmt.Errorf("default_count must be positive, got %d", c.DefaultCount)
	}
	if c.MaxCount < c.DefaultCount {
		return fmt.Errorf("max_count (%d) must be at least default_count (%d)", c.MaxCount, c.DefaultCount)
	}
	return nil
}
