// Tandem - Relationship Coaching Personalization & Smart Scheduling
// Copyright 2026 Tandem Labs
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tandemlabs/tandem

package api

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/goccy/go-json"

	"github.com/tandemlabs/tandem/internal/catalog"
	"github.com/tandemlabs/tandem/internal/logging"
	"github.com/tandemlabs/tandem/internal/profile"
	"github.com/tandemlabs/tandem/internal/schedule"
	"github.com/tandemlabs/tandem/internal/store"
)

// sanitizeLogValue replaces control characters so user-supplied values
// cannot forge log entries.
func sanitizeLogValue(s string) string {
	var result strings.Builder
	result.Grow(len(s))
	for _, r := range s {
		if r < 0x20 || r == 0x7F {
			result.WriteString(fmt.Sprintf("\\x%02x", r))
		} else {
			result.WriteRune(r)
		}
	}
	return result.String()
}

// respondJSON sends the response envelope with proper headers.
func respondJSON(w http.ResponseWriter, r *http.Request, status int, data any) {
	w.Header().Set("Content-Type", "application/json")

	body, err := json.Marshal(&APIResponse{
		Status: "success",
		Data:   data,
		Metadata: Metadata{
			Timestamp: time.Now().UTC(),
			RequestID: logging.RequestIDFromContext(r.Context()),
		},
	})
	if err != nil {
		logging.Error().Err(err).Msg("failed to marshal JSON response")
		w.WriteHeader(http.StatusInternalServerError)
		return
	}

	w.WriteHeader(status)
	if _, err := w.Write(body); err != nil {
		logging.Error().Err(err).Msg("failed to write JSON response")
	}
}

// respondError sends an error envelope.
func respondError(w http.ResponseWriter, r *http.Request, status int, code, message string, err error) {
	if err != nil {
		logger := logging.Ctx(r.Context())
		logger.Error().
			Str("code", code).
			Str("error", sanitizeLogValue(err.Error())).
			Msg("api error")
	}

	w.Header().Set("Content-Type", "application/json")

	body, mErr := json.Marshal(&APIResponse{
		Status: "error",
		Error:  &APIError{Code: code, Message: message},
		Metadata: Metadata{
			Timestamp: time.Now().UTC(),
			RequestID: logging.RequestIDFromContext(r.Context()),
		},
	})
	if mErr != nil {
		w.WriteHeader(http.StatusInternalServerError)
		return
	}
	w.WriteHeader(status)
	_, _ = w.Write(body)
}

// respondDomainError maps a domain error onto the HTTP surface.
//
// Validation failures are 400, missing entities 404, rule rejections
// (placement and lifecycle conflicts) 409, catalog outages and
// exhausted store retries 503. Anything unmapped is a 500.
func respondDomainError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case schedule.IsValidation(err), errors.Is(err, profile.ErrInvalidEvent):
		respondError(w, r, http.StatusBadRequest, "VALIDATION_ERROR", err.Error(), nil)
	case errors.Is(err, schedule.ErrItemNotFound), errors.Is(err, store.ErrNotFound):
		respondError(w, r, http.StatusNotFound, "NOT_FOUND", err.Error(), nil)
	case schedule.IsConflict(err):
		respondError(w, r, http.StatusConflict, "SCHEDULE_CONFLICT", err.Error(), nil)
	case schedule.IsStateConflict(err):
		respondError(w, r, http.StatusConflict, "STATE_CONFLICT", err.Error(), nil)
	case errors.Is(err, catalog.ErrUnavailable):
		respondError(w, r, http.StatusServiceUnavailable, "CATALOG_UNAVAILABLE", "activity catalog is unavailable", err)
	case store.IsTransient(err):
		respondError(w, r, http.StatusServiceUnavailable, "STORE_UNAVAILABLE", "document store is unavailable", err)
	default:
		respondError(w, r, http.StatusInternalServerError, "INTERNAL_ERROR", "internal server error", err)
	}
}
