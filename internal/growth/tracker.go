// Tandem - Relationship Coaching Personalization & Smart Scheduling
// Copyright 2026 Tandem Labs
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tandemlabs/tandem

package growth

import (
	"context"
	"fmt"
	"time"

	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/tandemlabs/tandem/internal/logging"
	"github.com/tandemlabs/tandem/internal/metrics"
	"github.com/tandemlabs/tandem/internal/profile"
	"github.com/tandemlabs/tandem/internal/schedule"
	"github.com/tandemlabs/tandem/internal/store"
)

// ItemTransitioner moves scheduled items to terminal states.
// Implemented by *schedule.Scheduler.
type ItemTransitioner interface {
	Transition(ctx context.Context, itemID string, target schedule.Status) (*schedule.ScheduledItem, error)
}

// ProfileUpdater feeds events back into the personalization engine.
// Implemented by *profile.Engine.
type ProfileUpdater interface {
	GetProfile(ctx context.Context, userID string) (*profile.UserProfile, error)
	UpdateProfile(ctx context.Context, userID string, ev profile.Event) (*profile.UserProfile, error)
}

// Tracker records outcomes and serves timelines. Safe for concurrent
// use.
type Tracker struct {
	store    store.Store
	items    ItemTransitioner
	profiles ProfileUpdater
	config   Config
	logger   zerolog.Logger
}

// NewTracker creates a growth tracker.
func NewTracker(st store.Store, items ItemTransitioner, profiles ProfileUpdater, cfg Config) (*Tracker, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return &Tracker{
		store:    st,
		items:    items,
		profiles: profiles,
		config:   cfg,
		logger:   logging.Logger().With().Str("component", "growth").Logger(),
	}, nil
}

// RecordOutcome resolves a scheduled item as completed or declined,
// appends the outcome to the growth log, and feeds it back into the
// user's profile.
//
// The item transition is the gate: an item that is not pending rejects
// with a StateConflictError and nothing is recorded, so an outcome can
// be recorded at most once per item. The appended event is the durable
// record; a failed profile feedback write is logged and does not fail
// the outcome, since the profile is derived state rebuildable from the
// log.
func (t *Tracker) RecordOutcome(ctx context.Context, itemID string, outcome schedule.Status, signals map[string]float64) (*GrowthEvent, error) {
	if outcome != schedule.StatusCompleted && outcome != schedule.StatusDeclined {
		return nil, &schedule.ValidationError{Field: "outcome", Msg: fmt.Sprintf("%q is not a recordable outcome", outcome)}
	}

	item, err := t.items.Transition(ctx, itemID, outcome)
	if err != nil {
		return nil, err
	}

	ev := &GrowthEvent{
		ID:      uuid.NewString(),
		UserID:  item.UserID,
		ItemID:  item.ID,
		Kind:    string(outcome),
		At:      time.Now().UTC(),
		Signals: signals,
	}
	if err := t.append(ctx, ev); err != nil {
		return nil, err
	}
	metrics.OutcomesRecorded.WithLabelValues(string(outcome)).Inc()

	signal := 0.0
	if outcome == schedule.StatusCompleted {
		signal = 1.0
	}
	_, err = t.profiles.UpdateProfile(ctx, item.UserID, profile.Event{
		Category: item.Category,
		Kind:     string(outcome),
		Signal:   signal,
		Traits:   signals,
		At:       ev.At,
	})
	if err != nil {
		t.logger.Warn().Err(err).
			Str("user_id", item.UserID).
			Str("item_id", item.ID).
			Msg("outcome recorded but profile feedback failed")
	}

	t.logger.Info().
		Str("user_id", item.UserID).
		Str("item_id", item.ID).
		Str("outcome", string(outcome)).
		Msg("outcome recorded")

	return ev, nil
}

// RecordInteraction appends a freeform interaction event, one not tied
// to a scheduled item, to the growth log and folds it into the user's
// profile.
//
// The append is the durable write and happens first: the profile is
// derived state rebuildable from the log, so a failed merge is logged
// and the interaction still succeeds, returning the last persisted
// profile instead.
func (t *Tracker) RecordInteraction(ctx context.Context, userID string, pev profile.Event) (*profile.UserProfile, error) {
	if userID == "" {
		return nil, fmt.Errorf("%w: empty user id", profile.ErrInvalidEvent)
	}
	if pev.Category == "" {
		return nil, fmt.Errorf("%w: empty category", profile.ErrInvalidEvent)
	}
	if pev.At.IsZero() {
		pev.At = time.Now().UTC()
	}
	if pev.Kind == "" {
		pev.Kind = "interaction"
	}

	ev := &GrowthEvent{
		ID:       uuid.NewString(),
		UserID:   userID,
		Kind:     pev.Kind,
		Category: pev.Category,
		Signal:   pev.Signal,
		At:       pev.At.UTC(),
		Signals:  pev.Traits,
	}
	if err := t.append(ctx, ev); err != nil {
		return nil, err
	}
	// Kind is freeform caller input, so the metric label stays fixed.
	metrics.OutcomesRecorded.WithLabelValues("interaction").Inc()

	p, err := t.profiles.UpdateProfile(ctx, userID, pev)
	if err != nil {
		t.logger.Warn().Err(err).
			Str("user_id", userID).
			Str("kind", pev.Kind).
			Msg("interaction recorded but profile merge failed")
		return t.profiles.GetProfile(ctx, userID)
	}
	return p, nil
}

// AppendLifecycle records a scheduler lifecycle event, such as an
// expiry, in the growth log. Implements schedule.GrowthAppender.
func (t *Tracker) AppendLifecycle(ctx context.Context, userID, itemID, kind string, at time.Time) error {
	ev := &GrowthEvent{
		ID:     uuid.NewString(),
		UserID: userID,
		ItemID: itemID,
		Kind:   kind,
		At:     at.UTC(),
	}
	if err := t.append(ctx, ev); err != nil {
		return err
	}
	metrics.OutcomesRecorded.WithLabelValues(kind).Inc()
	return nil
}

// Timeline returns the user's growth events, most recent first,
// optionally bounded to [from, to). Zero bounds are open.
func (t *Tracker) Timeline(ctx context.Context, userID string, from, to time.Time, limit int) ([]GrowthEvent, error) {
	if userID == "" {
		return nil, &schedule.ValidationError{Field: "user_id", Msg: "must not be empty"}
	}
	if limit <= 0 || limit > t.config.MaxTimeline {
		limit = t.config.MaxTimeline
	}

	var docs []store.Document
	err := store.WithRetry(ctx, t.config.Retry, "growth.query", func(ctx context.Context) error {
		var qErr error
		docs, qErr = t.store.Query(ctx, store.CollectionEvents, store.Query{
			Prefix:     userID + ":",
			Descending: true,
		})
		return qErr
	})
	if err != nil {
		return nil, fmt.Errorf("query events for %s: %w", userID, err)
	}

	events := make([]GrowthEvent, 0, len(docs))
	for _, doc := range docs {
		var ev GrowthEvent
		if err := json.Unmarshal(doc.Data, &ev); err != nil {
			return nil, fmt.Errorf("decode event %s: %w", doc.ID, err)
		}
		if !from.IsZero() && ev.At.Before(from) {
			continue
		}
		if !to.IsZero() && !ev.At.Before(to) {
			continue
		}
		events = append(events, ev)
		if len(events) == limit {
			break
		}
	}
	return events, nil
}

// append writes one immutable event. Events are created, never
// updated.
func (t *Tracker) append(ctx context.Context, ev *GrowthEvent) error {
	data, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("encode event %s: %w", ev.ID, err)
	}
	err = store.WithRetry(ctx, t.config.Retry, "growth.append", func(ctx context.Context) error {
		_, cErr := t.store.Create(ctx, store.CollectionEvents, store.Document{ID: ev.Key(), Data: data})
		return cErr
	})
	if err != nil {
		return fmt.Errorf("append event %s: %w", ev.ID, err)
	}
	return nil
}
