// Tandem - Relationship Coaching Personalization & Smart Scheduling
// Copyright 2026 Tandem Labs
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tandemlabs/tandem

package catalog

import (
	"context"
	"fmt"
	"time"

	"github.com/sony/gobreaker/v2"

	"github.com/tandemlabs/tandem/internal/logging"
)

// BreakerConfig tunes the circuit breaker around a catalog provider.
type BreakerConfig struct {
	// ConsecutiveFailures trips the breaker once reached. Default: 5.
	ConsecutiveFailures uint32 `json:"consecutive_failures" koanf:"consecutive_failures"`

	// OpenTimeout is how long the breaker stays open before probing
	// the provider again. Default: 30s.
	OpenTimeout time.Duration `json:"open_timeout" koanf:"open_timeout"`
}

// DefaultBreakerConfig returns production defaults.
func DefaultBreakerConfig() BreakerConfig {
	return BreakerConfig{
		ConsecutiveFailures: 5,
		OpenTimeout:         30 * time.Second,
	}
}

// Breaker wraps a Provider with a circuit breaker so a misbehaving
// catalog fails fast instead of stalling every recommendation request.
type Breaker struct {
	inner Provider
	cb    *gobreaker.CircuitBreaker[[]Template]
}

// NewBreaker wraps provider with a circuit breaker.
func NewBreaker(provider Provider, cfg BreakerConfig) *Breaker {
	if cfg.ConsecutiveFailures == 0 {
		cfg.ConsecutiveFailures = 5
	}
	if cfg.OpenTimeout <= 0 {
		cfg.OpenTimeout = 30 * time.Second
	}

	settings := gobreaker.Settings{
		Name:    "catalog",
		Timeout: cfg.OpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= cfg.ConsecutiveFailures
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logging.Warn().
				Str("breaker", name).
				Str("from", from.String()).
				Str("to", to.String()).
				Msg("catalog breaker state change")
		},
	}

	return &Breaker{
		inner: provider,
		cb:    gobreaker.NewCircuitBreaker[[]Template](settings),
	}
}

// Templates serves the pool through the breaker. An open breaker is
// reported as ErrUnavailable without touching the provider.
func (b *Breaker) Templates(ctx context.Context) ([]Template, error) {
	templates, err := b.cb.Execute(func() ([]Template, error) {
		return b.inner.Templates(ctx)
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return templates, nil
}
