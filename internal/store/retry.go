// Tandem - Relationship Coaching Personalization & Smart Scheduling
// Copyright 2026 Tandem Labs
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tandemlabs/tandem

package store

import (
	"context"
	"fmt"
	"time"

	"github.com/tandemlabs/tandem/internal/metrics"
)

// RetryPolicy bounds retries of transient store failures.
// Zero values fall back to the defaults below.
type RetryPolicy struct {
	// MaxAttempts is the total number of attempts (first try included).
	// Default: 3.
	MaxAttempts int `json:"max_attempts" koanf:"max_attempts"`

	// InitialBackoff is the delay before the first retry; it doubles
	// on each subsequent retry. Default: 100ms.
	InitialBackoff time.Duration `json:"initial_backoff" koanf:"initial_backoff"`

	// MaxBackoff caps the per-retry delay. Default: 2s.
	MaxBackoff time.Duration `json:"max_backoff" koanf:"max_backoff"`

	// Timeout bounds each individual attempt. Default: 5s.
	Timeout time.Duration `json:"timeout" koanf:"timeout"`
}

// DefaultRetryPolicy returns the production defaults.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxAttempts:    3,
		InitialBackoff: 100 * time.Millisecond,
		MaxBackoff:     2 * time.Second,
		Timeout:        5 * time.Second,
	}
}

// normalize applies defaults for zero values.
func (p RetryPolicy) normalize() RetryPolicy {
	if p.MaxAttempts <= 0 {
		p.MaxAttempts = 3
	}
	if p.InitialBackoff <= 0 {
		p.InitialBackoff = 100 * time.Millisecond
	}
	if p.MaxBackoff <= 0 {
		p.MaxBackoff = 2 * time.Second
	}
	if p.Timeout <= 0 {
		p.Timeout = 5 * time.Second
	}
	return p
}

// WithRetry runs fn, retrying transient failures per the policy.
//
// Each attempt runs under its own timeout. Only transient errors are
// retried; every other error returns immediately on first occurrence.
// After exhausting all attempts the last transient error is returned
// wrapped with the attempt count, still matching IsTransient.
func WithRetry(ctx context.Context, policy RetryPolicy, op string, fn func(ctx context.Context) error) error {
	policy = policy.normalize()

	backoff := policy.InitialBackoff
	var lastErr error

	for attempt := 1; attempt <= policy.MaxAttempts; attempt++ {
		attemptCtx, cancel := context.WithTimeout(ctx, policy.Timeout)
		err := fn(attemptCtx)
		cancel()

		if err == nil {
			return nil
		}
		if !IsTransient(err) {
			return err
		}
		lastErr = err

		if attempt == policy.MaxAttempts {
			break
		}
		metrics.StoreRetries.WithLabelValues(op).Inc()

		select {
		case <-ctx.Done():
			return Transient(op, ctx.Err())
		case <-time.After(backoff):
		}

		backoff *= 2
		if backoff > policy.MaxBackoff {
			backoff = policy.MaxBackoff
		}
	}

	return Transient(op, fmt.Errorf("retries exhausted after %d attempts: %w", policy.MaxAttempts, lastErr))
}
