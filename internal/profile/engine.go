// Tandem - Relationship Coaching Personalization & Smart Scheduling
// Copyright 2026 Tandem Labs
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tandemlabs/tandem

package profile

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/goccy/go-json"
	"github.com/rs/zerolog"

	"github.com/tandemlabs/tandem/internal/logging"
	"github.com/tandemlabs/tandem/internal/metrics"
	"github.com/tandemlabs/tandem/internal/store"
)

// ErrInvalidEvent indicates a malformed event (missing user or
// category). Surfaced immediately; no store access is attempted.
var ErrInvalidEvent = errors.New("invalid profile event")

// Engine maintains UserProfile documents from raw interaction events.
// It is safe for concurrent use; concurrent updates for the same user
// resolve last-write-wins on the store's monotonic timestamps. That is
// an accepted weak-consistency tradeoff: the raw event is durably
// recorded in the growth log regardless of the profile merge outcome,
// so a lost profile write is always rebuildable.
type Engine struct {
	store  store.Store
	config Config
	logger zerolog.Logger
}

// NewEngine creates a personalization engine.
func NewEngine(st store.Store, cfg Config) (*Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return &Engine{
		store:  st,
		config: cfg,
		logger: logging.Logger().With().Str("component", "profile").Logger(),
	}, nil
}

// Config returns the engine configuration.
func (e *Engine) Config() Config { return e.config }

// GetProfile returns the user's current profile, or a default-initialized
// one when none exists yet. A missing profile is never an error.
func (e *Engine) GetProfile(ctx context.Context, userID string) (*UserProfile, error) {
	if userID == "" {
		return nil, fmt.Errorf("%w: empty user id", ErrInvalidEvent)
	}

	var doc store.Document
	err := store.WithRetry(ctx, e.config.Retry, "profile.get", func(ctx context.Context) error {
		var getErr error
		doc, getErr = e.store.Get(ctx, store.CollectionProfiles, userID)
		return getErr
	})
	if errors.Is(err, store.ErrNotFound) {
		return newDefault(userID), nil
	}
	if err != nil {
		return nil, fmt.Errorf("get profile %s: %w", userID, err)
	}

	var p UserProfile
	if err := json.Unmarshal(doc.Data, &p); err != nil {
		return nil, fmt.Errorf("decode profile %s: %w", userID, err)
	}
	if p.Weights == nil {
		p.Weights = make(map[string]float64)
	}
	if p.Traits == nil {
		p.Traits = make(map[string]float64)
	}
	p.UpdatedAt = doc.UpdatedAt
	return &p, nil
}

// UpdateProfile consumes one event: it applies the exponentially-weighted
// update to the touched category weight and trait values (clamped to
// [0,1]), appends the event to the bounded recent-interaction window,
// and persists the result. Transient store failures are retried with
// bounded backoff; after exhaustion the update is reported as failed.
func (e *Engine) UpdateProfile(ctx context.Context, userID string, ev Event) (*UserProfile, error) {
	if userID == "" {
		return nil, fmt.Errorf("%w: empty user id", ErrInvalidEvent)
	}
	if ev.Category == "" {
		return nil, fmt.Errorf("%w: empty category", ErrInvalidEvent)
	}
	if ev.At.IsZero() {
		ev.At = time.Now().UTC()
	}

	p, err := e.GetProfile(ctx, userID)
	if err != nil {
		return nil, err
	}

	e.apply(p, ev)

	data, err := json.Marshal(p)
	if err != nil {
		return nil, fmt.Errorf("encode profile %s: %w", userID, err)
	}

	var doc store.Document
	err = store.WithRetry(ctx, e.config.Retry, "profile.upsert", func(ctx context.Context) error {
		var upErr error
		doc, upErr = e.store.Upsert(ctx, store.CollectionProfiles, userID, data)
		return upErr
	})
	if err != nil {
		metrics.ProfileUpdateFailures.Inc()
		return nil, fmt.Errorf("persist profile %s: %w", userID, err)
	}

	p.UpdatedAt = doc.UpdatedAt
	metrics.ProfileUpdates.Inc()

	e.logger.Debug().
		Str("user_id", userID).
		Str("category", ev.Category).
		Str("kind", ev.Kind).
		Float64("weight", p.Weights[ev.Category]).
		Msg("profile updated")

	return p, nil
}

// apply mutates p with one event's EWMA updates and window append.
func (e *Engine) apply(p *UserProfile, ev Event) {
	alpha := e.config.Alpha
	signal := clamp(ev.Signal)

	old := p.Weight(ev.Category, e.config.Neutral)
	p.Weights[ev.Category] = clamp(old*(1-alpha) + signal*alpha)

	for trait, raw := range ev.Traits {
		oldTrait := p.Trait(trait, e.config.Neutral)
		p.Traits[trait] = clamp(oldTrait*(1-alpha) + clamp(raw)*alpha)
	}

	// Prepend to keep most-recent-first, evicting past capacity.
	p.Recent = append([]InteractionSummary{{
		Category: ev.Category,
		Kind:     ev.Kind,
		Signal:   signal,
		At:       ev.At,
	}}, p.Recent...)
	if len(p.Recent) > e.config.WindowSize {
		p.Recent = p.Recent[:e.config.WindowSize]
	}
}
