// Tandem - Relationship Coaching Personalization & Smart Scheduling
// Copyright 2026 Tandem Labs
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tandemlabs/tandem

package schedule

import (
	"errors"
	"fmt"
)

// ErrItemNotFound indicates the referenced scheduled item does not
// exist.
var ErrItemNotFound = errors.New("scheduled item not found")

// Conflict reasons reported by ConflictError.
const (
	// ConflictOverlap means the requested window intersects an existing
	// non-terminal item.
	ConflictOverlap = "overlap"

	// ConflictSpacing means the requested window sits too close to an
	// existing non-terminal item of the same category.
	ConflictSpacing = "spacing"
)

// ConflictError is a rejected placement. It is an expected rule
// outcome, not an infrastructure failure, and is never retried.
type ConflictError struct {
	// Reason is one of the Conflict* constants.
	Reason string

	// ExistingID identifies the item the request conflicted with.
	ExistingID string

	Msg string
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("schedule conflict (%s) with item %s: %s", e.Reason, e.ExistingID, e.Msg)
}

// IsConflict reports whether err is a placement conflict.
func IsConflict(err error) bool {
	var ce *ConflictError
	return errors.As(err, &ce)
}

// ValidationError is a malformed scheduling request.
type ValidationError struct {
	Field string
	Msg   string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid schedule request: %s: %s", e.Field, e.Msg)
}

// IsValidation reports whether err is a request validation failure.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// StateConflictError is an illegal lifecycle transition, such as
// recording an outcome against an item that is already terminal.
type StateConflictError struct {
	ItemID string
	From   Status
	To     Status
}

func (e *StateConflictError) Error() string {
	return fmt.Sprintf("item %s: illegal transition %s -> %s", e.ItemID, e.From, e.To)
}

// IsStateConflict reports whether err is an illegal lifecycle
// transition.
func IsStateConflict(err error) bool {
	var se *StateConflictError
	return errors.As(err, &se)
}
