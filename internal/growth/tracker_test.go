// Tandem - Relationship Coaching Personalization & Smart Scheduling
// Copyright 2026 Tandem Labs
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tandemlabs/tandem

package growth

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/tandemlabs/tandem/internal/profile"
	"github.com/tandemlabs/tandem/internal/schedule"
	"github.com/tandemlabs/tandem/internal/store"
)

// newTestStack wires a tracker against real in-memory components, so
// tests exercise the whole outcome loop: transition, log append, and
// profile feedback.
func newTestStack(t *testing.T) (*Tracker, *schedule.Scheduler, *profile.Engine) {
	t.Helper()
	ms := store.NewMemoryStore()

	sched, err := schedule.NewScheduler(ms, schedule.DefaultConfig())
	if err != nil {
		t.Fatalf("NewScheduler() error = %v", err)
	}
	profiles, err := profile.NewEngine(ms, profile.DefaultConfig())
	if err != nil {
		t.Fatalf("profile.NewEngine() error = %v", err)
	}
	tracker, err := NewTracker(ms, sched, profiles, DefaultConfig())
	if err != nil {
		t.Fatalf("NewTracker() error = %v", err)
	}
	sched.SetGrowthAppender(tracker)
	return tracker, sched, profiles
}

func scheduleItem(t *testing.T, sched *schedule.Scheduler, userID, category string, start time.Time) *schedule.ScheduledItem {
	t.Helper()
	item, err := sched.Schedule(context.Background(), schedule.Request{
		UserID:     userID,
		TemplateID: "tmpl-" + category,
		Category:   category,
		Start:      start,
		End:        start.Add(time.Hour),
	})
	if err != nil {
		t.Fatalf("Schedule() error = %v", err)
	}
	return item
}

func TestRecordOutcome_Completed(t *testing.T) {
	tracker, sched, profiles := newTestStack(t)
	ctx := context.Background()

	item := scheduleItem(t, sched, "u1", "outdoor", time.Date(2026, 9, 1, 10, 0, 0, 0, time.UTC))

	ev, err := tracker.RecordOutcome(ctx, item.ID, schedule.StatusCompleted, map[string]float64{"initiative": 0.8})
	if err != nil {
		t.Fatalf("RecordOutcome() error = %v", err)
	}
	if ev.Kind != "completed" || ev.ItemID != item.ID || ev.UserID != "u1" {
		t.Errorf("event = %+v, want completed for item %s", ev, item.ID)
	}

	got, err := sched.Get(ctx, item.ID)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if got.Status != schedule.StatusCompleted {
		t.Errorf("item status = %s, want completed", got.Status)
	}

	// Feedback loop: a completion pushes the category weight above
	// neutral and the observed trait toward its signal.
	p, err := profiles.GetProfile(ctx, "u1")
	if err != nil {
		t.Fatalf("GetProfile() error = %v", err)
	}
	if p.Weights["outdoor"] <= 0.5 {
		t.Errorf("outdoor weight = %f, want above neutral after completion", p.Weights["outdoor"])
	}
	if _, ok := p.Traits["initiative"]; !ok {
		t.Error("trait signal was not fed back into the profile")
	}

	events, err := tracker.Timeline(ctx, "u1", time.Time{}, time.Time{}, 0)
	if err != nil {
		t.Fatalf("Timeline() error = %v", err)
	}
	if len(events) != 1 || events[0].ID != ev.ID {
		t.Errorf("timeline = %+v, want the single recorded event", events)
	}
}

func TestRecordOutcome_Declined(t *testing.T) {
	tracker, sched, profiles := newTestStack(t)
	ctx := context.Background()

	item := scheduleItem(t, sched, "u1", "quiet", time.Date(2026, 9, 1, 10, 0, 0, 0, time.UTC))

	if _, err := tracker.RecordOutcome(ctx, item.ID, schedule.StatusDeclined, nil); err != nil {
		t.Fatalf("RecordOutcome() error = %v", err)
	}

	p, err := profiles.GetProfile(ctx, "u1")
	if err != nil {
		t.Fatalf("GetProfile() error = %v", err)
	}
	if p.Weights["quiet"] >= 0.5 {
		t.Errorf("quiet weight = %f, want below neutral after decline", p.Weights["quiet"])
	}
}

func TestRecordOutcome_AtMostOnce(t *testing.T) {
	tracker, sched, _ := newTestStack(t)
	ctx := context.Background()

	item := scheduleItem(t, sched, "u1", "outdoor", time.Date(2026, 9, 1, 10, 0, 0, 0, time.UTC))

	if _, err := tracker.RecordOutcome(ctx, item.ID, schedule.StatusCompleted, nil); err != nil {
		t.Fatalf("first RecordOutcome() error = %v", err)
	}

	_, err := tracker.RecordOutcome(ctx, item.ID, schedule.StatusDeclined, nil)
	if !schedule.IsStateConflict(err) {
		t.Fatalf("second RecordOutcome() error = %v, want state conflict", err)
	}

	// The rejected second outcome must not have touched the item or
	// appended to the log.
	got, err := sched.Get(ctx, item.ID)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if got.Status != schedule.StatusCompleted {
		t.Errorf("item status = %s, want completed", got.Status)
	}
	events, err := tracker.Timeline(ctx, "u1", time.Time{}, time.Time{}, 0)
	if err != nil {
		t.Fatalf("Timeline() error = %v", err)
	}
	if len(events) != 1 {
		t.Errorf("timeline has %d events, want 1", len(events))
	}
}

func TestRecordOutcome_Invalid(t *testing.T) {
	tracker, sched, _ := newTestStack(t)
	ctx := context.Background()

	if _, err := tracker.RecordOutcome(ctx, "missing", schedule.StatusCompleted, nil); !errors.Is(err, schedule.ErrItemNotFound) {
		t.Errorf("RecordOutcome() error = %v, want ErrItemNotFound", err)
	}

	item := scheduleItem(t, sched, "u1", "outdoor", time.Date(2026, 9, 1, 10, 0, 0, 0, time.UTC))
	for _, outcome := range []schedule.Status{schedule.StatusPending, schedule.StatusExpired, "bogus"} {
		if _, err := tracker.RecordOutcome(ctx, item.ID, outcome, nil); !schedule.IsValidation(err) {
			t.Errorf("RecordOutcome(%s) error = %v, want validation error", outcome, err)
		}
	}
}

func TestRecordInteraction(t *testing.T) {
	tracker, _, _ := newTestStack(t)
	ctx := context.Background()

	p, err := tracker.RecordInteraction(ctx, "u1", profile.Event{
		Category: "outdoor",
		Kind:     "engaged",
		Signal:   1.0,
		Traits:   map[string]float64{"initiative": 0.7},
	})
	if err != nil {
		t.Fatalf("RecordInteraction() error = %v", err)
	}
	if w := p.Weight("outdoor", 0.5); w <= 0.5 {
		t.Errorf("outdoor weight = %v, want > 0.5", w)
	}

	// The interaction must reach the append-only log, not just the
	// derived profile.
	events, err := tracker.Timeline(ctx, "u1", time.Time{}, time.Time{}, 0)
	if err != nil {
		t.Fatalf("Timeline() error = %v", err)
	}
	if len(events) != 1 {
		t.Fatalf("timeline has %d events, want 1", len(events))
	}
	ev := events[0]
	if ev.Kind != "engaged" || ev.Category != "outdoor" || ev.Signal != 1.0 || ev.ItemID != "" {
		t.Errorf("event = %+v, want an engaged/outdoor interaction with no item", ev)
	}
	if ev.Signals["initiative"] != 0.7 {
		t.Errorf("Signals[initiative] = %v, want 0.7", ev.Signals["initiative"])
	}
}

func TestRecordInteraction_Invalid(t *testing.T) {
	tracker, _, _ := newTestStack(t)
	ctx := context.Background()

	if _, err := tracker.RecordInteraction(ctx, "", profile.Event{Category: "outdoor"}); !errors.Is(err, profile.ErrInvalidEvent) {
		t.Errorf("empty user id: error = %v, want ErrInvalidEvent", err)
	}
	if _, err := tracker.RecordInteraction(ctx, "u1", profile.Event{}); !errors.Is(err, profile.ErrInvalidEvent) {
		t.Errorf("empty category: error = %v, want ErrInvalidEvent", err)
	}

	events, err := tracker.Timeline(ctx, "u1", time.Time{}, time.Time{}, 0)
	if err != nil {
		t.Fatalf("Timeline() error = %v", err)
	}
	if len(events) != 0 {
		t.Errorf("timeline has %d events, want 0 after rejected interactions", len(events))
	}
}

// mergeFailProfiles serves reads but refuses every profile write.
type mergeFailProfiles struct {
	*profile.Engine
}

func (m *mergeFailProfiles) UpdateProfile(ctx context.Context, userID string, ev profile.Event) (*profile.UserProfile, error) {
	return nil, store.Transient("profile.upsert", errors.New("store down"))
}

func TestRecordInteraction_MergeFailureKeepsEvent(t *testing.T) {
	ms := store.NewMemoryStore()
	sched, err := schedule.NewScheduler(ms, schedule.DefaultConfig())
	if err != nil {
		t.Fatalf("NewScheduler() error = %v", err)
	}
	profiles, err := profile.NewEngine(ms, profile.DefaultConfig())
	if err != nil {
		t.Fatalf("profile.NewEngine() error = %v", err)
	}
	tracker, err := NewTracker(ms, sched, &mergeFailProfiles{profiles}, DefaultConfig())
	if err != nil {
		t.Fatalf("NewTracker() error = %v", err)
	}
	ctx := context.Background()

	p, err := tracker.RecordInteraction(ctx, "u1", profile.Event{Category: "outdoor", Kind: "engaged", Signal: 1.0})
	if err != nil {
		t.Fatalf("RecordInteraction() error = %v", err)
	}
	if w := p.Weight("outdoor", 0.5); w != 0.5 {
		t.Errorf("outdoor weight = %v, want neutral 0.5 after failed merge", w)
	}

	// The event is the durable record: it must survive a lost profile
	// write.
	events, err := tracker.Timeline(ctx, "u1", time.Time{}, time.Time{}, 0)
	if err != nil {
		t.Fatalf("Timeline() error = %v", err)
	}
	if len(events) != 1 || events[0].Kind != "engaged" {
		t.Errorf("timeline = %+v, want the engaged interaction", events)
	}
}

func TestExpiry_LandsInTimeline(t *testing.T) {
	tracker, sched, _ := newTestStack(t)
	ctx := context.Background()

	item := scheduleItem(t, sched, "u1", "outdoor", time.Date(2026, 9, 1, 8, 0, 0, 0, time.UTC))

	n, err := sched.ExpireStale(ctx, "u1", time.Date(2026, 9, 1, 12, 0, 0, 0, time.UTC))
	if err != nil {
		t.Fatalf("ExpireStale() error = %v", err)
	}
	if n != 1 {
		t.Fatalf("ExpireStale() = %d, want 1", n)
	}

	events, err := tracker.Timeline(ctx, "u1", time.Time{}, time.Time{}, 0)
	if err != nil {
		t.Fatalf("Timeline() error = %v", err)
	}
	if len(events) != 1 || events[0].Kind != "expired" || events[0].ItemID != item.ID {
		t.Errorf("timeline = %+v, want one expired event for %s", events, item.ID)
	}
}

func TestTimeline_OrderAndBounds(t *testing.T) {
	tracker, _, _ := newTestStack(t)
	ctx := context.Background()

	base := time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 5; i++ {
		if err := tracker.AppendLifecycle(ctx, "u1", "", "expired", base.Add(time.Duration(i)*time.Hour)); err != nil {
			t.Fatalf("AppendLifecycle() error = %v", err)
		}
	}
	if err := tracker.AppendLifecycle(ctx, "u2", "", "expired", base); err != nil {
		t.Fatalf("AppendLifecycle() error = %v", err)
	}

	events, err := tracker.Timeline(ctx, "u1", time.Time{}, time.Time{}, 0)
	if err != nil {
		t.Fatalf("Timeline() error = %v", err)
	}
	if len(events) != 5 {
		t.Fatalf("timeline has %d events, want 5 (user isolation)", len(events))
	}
	for i := 1; i < len(events); i++ {
		if events[i].At.After(events[i-1].At) {
			t.Fatalf("timeline not most-recent-first at index %d", i)
		}
	}

	// [base+1h, base+3h) keeps exactly hours 1 and 2.
	bounded, err := tracker.Timeline(ctx, "u1", base.Add(time.Hour), base.Add(3*time.Hour), 0)
	if err != nil {
		t.Fatalf("Timeline() error = %v", err)
	}
	if len(bounded) != 2 {
		t.Errorf("bounded timeline has %d events, want 2", len(bounded))
	}

	limited, err := tracker.Timeline(ctx, "u1", time.Time{}, time.Time{}, 2)
	if err != nil {
		t.Fatalf("Timeline() error = %v", err)
	}
	if len(limited) != 2 {
		t.Errorf("limited timeline has %d events, want 2", len(limited))
	}
	if !limited[0].At.Equal(base.Add(4 * time.Hour)) {
		t.Errorf("limit must keep the most recent events, got %v", limited[0].At)
	}
}
