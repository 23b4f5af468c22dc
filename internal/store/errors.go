// Tandem - Relationship Coaching Personalization & Smart Scheduling
// Copyright 2026 Tandem Labs
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tandemlabs/tandem

package store

import (
	"context"
	"errors"
	"fmt"
)

// Sentinel errors for document lookups.
var (
	// ErrNotFound indicates the referenced document does not exist.
	// Surfaced to the caller, never retried.
	ErrNotFound = errors.New("document not found")

	// ErrExists indicates a Create collided with an existing document ID.
	ErrExists = errors.New("document already exists")
)

// TransientError wraps an infrastructure failure (I/O, timeout) that is
// safe to retry with backoff. All store implementations wrap such
// failures in TransientError; everything else propagates unchanged.
type TransientError struct {
	// Op names the failing operation, e.g. "badger.get".
	Op string

	// Err is the underlying cause.
	Err error
}

// Error implements the error interface.
func (e *TransientError) Error() string {
	return fmt.Sprintf("transient store error in %s: %v", e.Op, e.Err)
}

// Unwrap returns the underlying cause.
func (e *TransientError) Unwrap() error { return e.Err }

// Transient wraps err in a TransientError for operation op.
// Returns nil if err is nil.
func Transient(op string, err error) error {
	if err == nil {
		return nil
	}
	return &TransientError{Op: op, Err: err}
}

// IsTransient reports whether err is retryable. Context deadline
// expiry counts as transient per the engine's timeout policy: a timed-out
// store call is never assumed to have succeeded, it is retried.
func IsTransient(err error) bool {
	var te *TransientError
	if errors.As(err, &te) {
		return true
	}
	return errors.Is(err, context.DeadlineExceeded)
}
