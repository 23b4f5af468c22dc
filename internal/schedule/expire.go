// Tandem - Relationship Coaching Personalization & Smart Scheduling
// Copyright 2026 Tandem Labs
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tandemlabs/tandem

package schedule

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/tandemlabs/tandem/internal/metrics"
	"github.com/tandemlabs/tandem/internal/store"
)

// SweepExpired runs ExpireStale for every user that has items. Used by
// the background sweep service. Returns the total number of items
// expired.
func (s *Scheduler) SweepExpired(ctx context.Context, now time.Time) (int, error) {
	var docs []store.Document
	err := store.WithRetry(ctx, s.config.Retry, "schedule.sweep.query", func(ctx context.Context) error {
		var qErr error
		docs, qErr = s.store.Query(ctx, store.CollectionItems, store.Query{})
		return qErr
	})
	if err != nil {
		return 0, fmt.Errorf("enumerate items: %w", err)
	}

	users := make(map[string]bool)
	for _, doc := range docs {
		// Item keys are "<userID>:<startUnixNano>:<itemID>".
		if i := strings.IndexByte(doc.ID, ':'); i > 0 {
			users[doc.ID[:i]] = true
		}
	}

	total := 0
	for userID := range users {
		n, err := s.ExpireStale(ctx, userID, now)
		total += n
		if err != nil {
			return total, fmt.Errorf("sweep user %s: %w", userID, err)
		}
	}
	return total, nil
}

// ExpireStale expires every pending item of the user whose window ended
// before now. Each item is expired at most once: items already terminal
// are skipped, and the expiry is recorded in the growth log exactly
// when the status write succeeds. Returns the number of items expired.
func (s *Scheduler) ExpireStale(ctx context.Context, userID string, now time.Time) (int, error) {
	items, err := s.UserItems(ctx, userID)
	if err != nil {
		return 0, err
	}

	expired := 0
	for i := range items {
		it := &items[i]
		if it.Status != StatusPending || !it.End.Before(now) {
			continue
		}

		it.Status = StatusExpired
		if err := s.persistUpdate(ctx, it); err != nil {
			return expired, fmt.Errorf("expire item %s: %w", it.ID, err)
		}
		expired++
		metrics.ItemsExpired.Inc()

		if s.appender != nil {
			if err := s.appender.AppendLifecycle(ctx, it.UserID, it.ID, "expired", now); err != nil {
				// The item is already expired; the growth log entry is
				// best-effort and must not undo the transition.
				s.logger.Warn().Err(err).
					Str("item_id", it.ID).
					Msg("failed to record expiry in growth log")
			}
		}

		s.logger.Info().
			Str("user_id", it.UserID).
			Str("item_id", it.ID).
			Time("end", it.End).
			Msg("item expired")
	}

	return expired, nil
}
