// Tandem - Relationship Coaching Personalization & Smart Scheduling
// Copyright 2026 Tandem Labs
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tandemlabs/tandem

package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/goccy/go-json"

	"github.com/tandemlabs/tandem/internal/growth"
	"github.com/tandemlabs/tandem/internal/profile"
	"github.com/tandemlabs/tandem/internal/recommend"
	"github.com/tandemlabs/tandem/internal/schedule"
)

// Handlers holds the engine components the HTTP surface exposes.
type Handlers struct {
	profiles  *profile.Engine
	recommend *recommend.Engine
	scheduler *schedule.Scheduler
	tracker   *growth.Tracker
	validate  *validator.Validate
	timeout   time.Duration
}

// NewHandlers creates the handler set.
func NewHandlers(profiles *profile.Engine, rec *recommend.Engine, sched *schedule.Scheduler, tracker *growth.Tracker, timeout time.Duration) *Handlers {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Handlers{
		profiles:  profiles,
		recommend: rec,
		scheduler: sched,
		tracker:   tracker,
		validate:  validator.New(validator.WithRequiredStructEnabled()),
		timeout:   timeout,
	}
}

// Health handles GET /api/v1/health.
func (h *Handlers) Health(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, r, http.StatusOK, map[string]string{"status": "ok"})
}

// PostEvent handles POST /api/v1/profiles/{userID}/events. The event
// goes through the growth tracker so it lands in the append-only log
// before the profile merge.
func (h *Handlers) PostEvent(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userID")

	var req EventRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, r, http.StatusBadRequest, "INVALID_BODY", "malformed JSON body", err)
		return
	}
	if err := h.validate.Struct(&req); err != nil {
		respondError(w, r, http.StatusBadRequest, "VALIDATION_ERROR", err.Error(), nil)
		return
	}

	ctx, cancel := contextWithTimeout(r.Context(), h.timeout)
	defer cancel()

	p, err := h.tracker.RecordInteraction(ctx, userID, profile.Event{
		Category: req.Category,
		Kind:     req.Kind,
		Signal:   req.Signal,
		Traits:   req.Traits,
		At:       req.At,
	})
	if err != nil {
		respondDomainError(w, r, err)
		return
	}
	respondJSON(w, r, http.StatusOK, p)
}

// GetProfile handles GET /api/v1/profiles/{userID}.
func (h *Handlers) GetProfile(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := contextWithTimeout(r.Context(), h.timeout)
	defer cancel()

	p, err := h.profiles.GetProfile(ctx, chi.URLParam(r, "userID"))
	if err != nil {
		respondDomainError(w, r, err)
		return
	}
	respondJSON(w, r, http.StatusOK, p)
}

// GetRecommendations handles GET /api/v1/recommendations/{userID}.
func (h *Handlers) GetRecommendations(w http.ResponseWriter, r *http.Request) {
	count := 0
	if s := r.URL.Query().Get("count"); s != "" {
		parsed, err := strconv.Atoi(s)
		if err != nil || parsed < 1 {
			respondError(w, r, http.StatusBadRequest, "VALIDATION_ERROR", "count must be a positive integer", nil)
			return
		}
		count = parsed
	}

	ctx, cancel := contextWithTimeout(r.Context(), h.timeout)
	defer cancel()

	recs, err := h.recommend.Generate(ctx, chi.URLParam(r, "userID"), count)
	if err != nil {
		respondDomainError(w, r, err)
		return
	}
	respondJSON(w, r, http.StatusOK, recs)
}

// PostSchedule handles POST /api/v1/schedule.
func (h *Handlers) PostSchedule(w http.ResponseWriter, r *http.Request) {
	var req schedule.Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, r, http.StatusBadRequest, "INVALID_BODY", "malformed JSON body", err)
		return
	}
	if err := h.validate.Struct(&req); err != nil {
		respondError(w, r, http.StatusBadRequest, "VALIDATION_ERROR", err.Error(), nil)
		return
	}

	ctx, cancel := contextWithTimeout(r.Context(), h.timeout)
	defer cancel()

	item, err := h.scheduler.Schedule(ctx, req)
	if err != nil {
		respondDomainError(w, r, err)
		return
	}
	respondJSON(w, r, http.StatusCreated, item)
}

// PostExpire handles POST /api/v1/schedule/{userID}/expire.
func (h *Handlers) PostExpire(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := contextWithTimeout(r.Context(), h.timeout)
	defer cancel()

	n, err := h.scheduler.ExpireStale(ctx, chi.URLParam(r, "userID"), time.Now().UTC())
	if err != nil {
		respondDomainError(w, r, err)
		return
	}
	respondJSON(w, r, http.StatusOK, ExpireResponse{Expired: n})
}

// PostOutcome handles POST /api/v1/outcomes/{itemID}.
func (h *Handlers) PostOutcome(w http.ResponseWriter, r *http.Request) {
	var req OutcomeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, r, http.StatusBadRequest, "INVALID_BODY", "malformed JSON body", err)
		return
	}
	if err := h.validate.Struct(&req); err != nil {
		respondError(w, r, http.StatusBadRequest, "VALIDATION_ERROR", err.Error(), nil)
		return
	}

	ctx, cancel := contextWithTimeout(r.Context(), h.timeout)
	defer cancel()

	ev, err := h.tracker.RecordOutcome(ctx, chi.URLParam(r, "itemID"), schedule.Status(req.Outcome), req.Signals)
	if err != nil {
		respondDomainError(w, r, err)
		return
	}
	respondJSON(w, r, http.StatusOK, ev)
}

// GetTimeline handles GET /api/v1/timeline/{userID}.
func (h *Handlers) GetTimeline(w http.ResponseWriter, r *http.Request) {
	var from, to time.Time
	var err error
	if s := r.URL.Query().Get("from"); s != "" {
		if from, err = time.Parse(time.RFC3339, s); err != nil {
			respondError(w, r, http.StatusBadRequest, "VALIDATION_ERROR", "from must be RFC3339", nil)
			return
		}
	}
	if s := r.URL.Query().Get("to"); s != "" {
		if to, err = time.Parse(time.RFC3339, s); err != nil {
			respondError(w, r, http.StatusBadRequest, "VALIDATION_ERROR", "to must be RFC3339", nil)
			return
		}
	}
	limit := 0
	if s := r.URL.Query().Get("limit"); s != "" {
		parsed, err := strconv.Atoi(s)
		if err != nil || parsed < 1 {
			respondError(w, r, http.StatusBadRequest, "VALIDATION_ERROR", "limit must be a positive integer", nil)
			return
		}
		limit = parsed
	}

	ctx, cancel := contextWithTimeout(r.Context(), h.timeout)
	defer cancel()

	events, err := h.tracker.Timeline(ctx, chi.URLParam(r, "userID"), from, to, limit)
	if err != nil {
		respondDomainError(w, r, err)
		return
	}
	respondJSON(w, r, http.StatusOK, events)
}
