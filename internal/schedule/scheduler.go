// Tandem - Relationship Coaching Personalization & Smart Scheduling
// Copyright 2026 Tandem Labs
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tandemlabs/tandem

package schedule

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/tandemlabs/tandem/internal/logging"
	"github.com/tandemlabs/tandem/internal/metrics"
	"github.com/tandemlabs/tandem/internal/store"
)

// GrowthAppender receives lifecycle events for the growth log. The
// scheduler depends on this narrow interface rather than the growth
// package so the two components stay decoupled.
type GrowthAppender interface {
	AppendLifecycle(ctx context.Context, userID, itemID, kind string, at time.Time) error
}

// Request asks for one activity to be placed on a user's calendar.
type Request struct {
	UserID     string    `json:"user_id" validate:"required"`
	TemplateID string    `json:"template_id" validate:"required"`
	Category   string    `json:"category" validate:"required"`
	Title      string    `json:"title"`
	Start      time.Time `json:"start" validate:"required"`
	End        time.Time `json:"end" validate:"required"`

	// ExpiresAt carries the recommendation's freshness deadline. A
	// request arriving after it is rejected as stale; zero skips the
	// check for items scheduled outside the recommendation flow.
	ExpiresAt time.Time `json:"expires_at,omitempty"`
}

// Scheduler places items and owns their lifecycle transitions. Safe for
// concurrent use.
type Scheduler struct {
	store    store.Store
	config   Config
	appender GrowthAppender
	logger   zerolog.Logger
}

// NewScheduler creates a scheduler.
func NewScheduler(st store.Store, cfg Config) (*Scheduler, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return &Scheduler{
		store:  st,
		config: cfg,
		logger: logging.Logger().With().Str("component", "schedule").Logger(),
	}, nil
}

// SetGrowthAppender wires the growth log sink. Must be called before
// the scheduler serves traffic; lifecycle events are dropped while nil.
func (s *Scheduler) SetGrowthAppender(a GrowthAppender) {
	s.appender = a
}

// Schedule validates the request against the user's existing
// non-terminal items and persists a new pending item.
//
// Placement is rejected with a ConflictError when the window overlaps
// any non-terminal item, or when a non-terminal item of the same
// category sits closer than the configured category gap. Conflicts are
// rule outcomes: they do not retry and do not mutate state.
func (s *Scheduler) Schedule(ctx context.Context, req Request) (*ScheduledItem, error) {
	if err := validateRequest(req, s.config.MaxWindow); err != nil {
		metrics.ScheduleRejections.WithLabelValues("validation").Inc()
		return nil, err
	}

	existing, err := s.ActiveItems(ctx, req.UserID)
	if err != nil {
		return nil, fmt.Errorf("list items for %s: %w", req.UserID, err)
	}

	for i := range existing {
		it := &existing[i]
		if it.Overlaps(req.Start, req.End) {
			metrics.ScheduleRejections.WithLabelValues("overlap").Inc()
			return nil, &ConflictError{
				Reason:     ConflictOverlap,
				ExistingID: it.ID,
				Msg:        fmt.Sprintf("window [%s, %s) overlaps [%s, %s)", req.Start.Format(time.RFC3339), req.End.Format(time.RFC3339), it.Start.Format(time.RFC3339), it.End.Format(time.RFC3339)),
			}
		}
		if it.Category == req.Category && windowGap(it, req.Start, req.End) < s.config.CategoryGap {
			metrics.ScheduleRejections.WithLabelValues("spacing").Inc()
			return nil, &ConflictError{
				Reason:     ConflictSpacing,
				ExistingID: it.ID,
				Msg:        fmt.Sprintf("category %q requires %s between items", req.Category, s.config.CategoryGap),
			}
		}
	}

	item := &ScheduledItem{
		ID:         uuid.NewString(),
		UserID:     req.UserID,
		TemplateID: req.TemplateID,
		Category:   req.Category,
		Title:      req.Title,
		Status:     StatusPending,
		Start:      req.Start.UTC(),
		End:        req.End.UTC(),
	}

	if err := s.persistNew(ctx, item); err != nil {
		return nil, err
	}

	metrics.ItemsScheduled.Inc()
	s.logger.Info().
		Str("user_id", item.UserID).
		Str("item_id", item.ID).
		Str("category", item.Category).
		Time("start", item.Start).
		Msg("item scheduled")

	return item, nil
}

// Get returns a scheduled item by its bare ID.
func (s *Scheduler) Get(ctx context.Context, itemID string) (*ScheduledItem, error) {
	if itemID == "" {
		return nil, &ValidationError{Field: "item_id", Msg: "must not be empty"}
	}

	var idxDoc store.Document
	err := store.WithRetry(ctx, s.config.Retry, "schedule.index.get", func(ctx context.Context) error {
		var getErr error
		idxDoc, getErr = s.store.Get(ctx, store.CollectionItemIndex, itemID)
		return getErr
	})
	if errors.Is(err, store.ErrNotFound) {
		return nil, fmt.Errorf("%w: %s", ErrItemNotFound, itemID)
	}
	if err != nil {
		return nil, fmt.Errorf("resolve item %s: %w", itemID, err)
	}

	key := string(idxDoc.Data)
	var doc store.Document
	err = store.WithRetry(ctx, s.config.Retry, "schedule.get", func(ctx context.Context) error {
		var getErr error
		doc, getErr = s.store.Get(ctx, store.CollectionItems, key)
		return getErr
	})
	if errors.Is(err, store.ErrNotFound) {
		return nil, fmt.Errorf("%w: %s", ErrItemNotFound, itemID)
	}
	if err != nil {
		return nil, fmt.Errorf("get item %s: %w", itemID, err)
	}

	return decodeItem(doc)
}

// Transition moves an item to a terminal status. Items that are not
// pending reject the transition with a StateConflictError and are left
// unchanged.
func (s *Scheduler) Transition(ctx context.Context, itemID string, target Status) (*ScheduledItem, error) {
	if !target.Terminal() {
		return nil, &ValidationError{Field: "status", Msg: fmt.Sprintf("%q is not a terminal status", target)}
	}

	item, err := s.Get(ctx, itemID)
	if err != nil {
		return nil, err
	}
	if !item.Status.CanTransition(target) {
		return nil, &StateConflictError{ItemID: itemID, From: item.Status, To: target}
	}

	item.Status = target
	if err := s.persistUpdate(ctx, item); err != nil {
		return nil, err
	}

	s.logger.Info().
		Str("user_id", item.UserID).
		Str("item_id", item.ID).
		Str("status", string(target)).
		Msg("item transitioned")

	return item, nil
}

// ActiveItems returns the user's non-terminal items in start-time
// order.
func (s *Scheduler) ActiveItems(ctx context.Context, userID string) ([]ScheduledItem, error) {
	items, err := s.UserItems(ctx, userID)
	if err != nil {
		return nil, err
	}

	active := items[:0]
	for _, it := range items {
		if !it.Status.Terminal() {
			active = append(active, it)
		}
	}
	return active, nil
}

// UserItems returns all of the user's items in start-time order.
func (s *Scheduler) UserItems(ctx context.Context, userID string) ([]ScheduledItem, error) {
	if userID == "" {
		return nil, &ValidationError{Field: "user_id", Msg: "must not be empty"}
	}

	var docs []store.Document
	err := store.WithRetry(ctx, s.config.Retry, "schedule.query", func(ctx context.Context) error {
		var qErr error
		docs, qErr = s.store.Query(ctx, store.CollectionItems, store.Query{Prefix: userID + ":"})
		return qErr
	})
	if err != nil {
		return nil, fmt.Errorf("query items for %s: %w", userID, err)
	}

	items := make([]ScheduledItem, 0, len(docs))
	for _, doc := range docs {
		it, err := decodeItem(doc)
		if err != nil {
			return nil, err
		}
		items = append(items, *it)
	}
	return items, nil
}

func (s *Scheduler) persistNew(ctx context.Context, item *ScheduledItem) error {
	data, err := json.Marshal(item)
	if err != nil {
		return fmt.Errorf("encode item %s: %w", item.ID, err)
	}

	key := item.Key()
	var doc store.Document
	err = store.WithRetry(ctx, s.config.Retry, "schedule.create", func(ctx context.Context) error {
		var cErr error
		doc, cErr = s.store.Create(ctx, store.CollectionItems, store.Document{ID: key, Data: data})
		return cErr
	})
	if err != nil {
		return fmt.Errorf("persist item %s: %w", item.ID, err)
	}
	item.CreatedAt = doc.UpdatedAt
	item.UpdatedAt = doc.UpdatedAt

	// The bare-ID index makes the item addressable without its user and
	// start time. Written second; a reader that races the gap simply
	// sees the item as not found yet.
	err = store.WithRetry(ctx, s.config.Retry, "schedule.index.create", func(ctx context.Context) error {
		_, cErr := s.store.Create(ctx, store.CollectionItemIndex, store.Document{ID: item.ID, Data: []byte(key)})
		return cErr
	})
	if err != nil {
		return fmt.Errorf("index item %s: %w", item.ID, err)
	}
	return nil
}

func (s *Scheduler) persistUpdate(ctx context.Context, item *ScheduledItem) error {
	data, err := json.Marshal(item)
	if err != nil {
		return fmt.Errorf("encode item %s: %w", item.ID, err)
	}

	var doc store.Document
	err = store.WithRetry(ctx, s.config.Retry, "schedule.update", func(ctx context.Context) error {
		var uErr error
		doc, uErr = s.store.Update(ctx, store.CollectionItems, item.Key(), data)
		return uErr
	})
	if err != nil {
		return fmt.Errorf("persist item %s: %w", item.ID, err)
	}
	item.UpdatedAt = doc.UpdatedAt
	return nil
}

func decodeItem(doc store.Document) (*ScheduledItem, error) {
	var it ScheduledItem
	if err := json.Unmarshal(doc.Data, &it); err != nil {
		return nil, fmt.Errorf("decode item %s: %w", doc.ID, err)
	}
	it.UpdatedAt = doc.UpdatedAt
	return &it, nil
}

func validateRequest(req Request, maxWindow time.Duration) error {
	if strings.TrimSpace(req.UserID) == "" {
		return &ValidationError{Field: "user_id", Msg: "must not be empty"}
	}
	if strings.TrimSpace(req.TemplateID) == "" {
		return &ValidationError{Field: "template_id", Msg: "must not be empty"}
	}
	if strings.TrimSpace(req.Category) == "" {
		return &ValidationError{Field: "category", Msg: "must not be empty"}
	}
	if req.Start.IsZero() || req.End.IsZero() {
		return &ValidationError{Field: "start", Msg: "start and end must be set"}
	}
	if !req.Start.Before(req.End) {
		return &ValidationError{Field: "end", Msg: "end must be after start"}
	}
	if req.End.Sub(req.Start) > maxWindow {
		return &ValidationError{Field: "end", Msg: fmt.Sprintf("window exceeds maximum of %s", maxWindow)}
	}
	if !req.ExpiresAt.IsZero() && time.Now().After(req.ExpiresAt) {
		return &ValidationError{Field: "expires_at", Msg: "recommendation has expired, generate a fresh one"}
	}
	return nil
}

// windowGap returns the distance between the item's window and
// [start, end). Zero when they touch or overlap.
func windowGap(it *ScheduledItem, start, end time.Time) time.Duration {
	if start.After(it.End) {
		return start.Sub(it.End)
	}
	if it.Start.After(end) {
		return it.Start.Sub(end)
	}
	return 0
}
