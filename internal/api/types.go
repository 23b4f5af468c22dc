// Tandem - Relationship Coaching Personalization & Smart Scheduling
// Copyright 2026 Tandem Labs
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tandemlabs/tandem

// Package api provides the HTTP surface of the engine: Chi routing,
// request validation, and the JSON response envelope.
package api

import "time"

// APIResponse is the envelope every endpoint returns.
type APIResponse struct {
	Status   string    `json:"status"`
	Data     any       `json:"data,omitempty"`
	Error    *APIError `json:"error,omitempty"`
	Metadata Metadata  `json:"metadata"`
}

// APIError carries a machine-readable code and a human-readable
// message.
type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details string `json:"details,omitempty"`
}

// Metadata is attached to every response.
type Metadata struct {
	Timestamp time.Time `json:"timestamp"`
	RequestID string    `json:"request_id,omitempty"`
}

// EventRequest is the payload for posting an interaction event.
type EventRequest struct {
	Category string             `json:"category" validate:"required"`
	Kind     string             `json:"kind"`
	Signal   float64            `json:"signal" validate:"gte=0,lte=1"`
	Traits   map[string]float64 `json:"traits,omitempty" validate:"dive,gte=0,lte=1"`
	At       time.Time          `json:"at,omitempty"`
}

// OutcomeRequest is the payload for resolving a scheduled item.
type OutcomeRequest struct {
	Outcome string             `json:"outcome" validate:"required,oneof=completed declined"`
	Signals map[string]float64 `json:"signals,omitempty" validate:"dive,gte=0,lte=1"`
}

// ExpireResponse reports the result of an expiry sweep.
type ExpireResponse struct {
	Expired int `json:"expired"`
}
