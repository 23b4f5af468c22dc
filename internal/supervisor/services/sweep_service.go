// Tandem - Relationship Coaching Personalization & Smart Scheduling
// Copyright 2026 Tandem Labs
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tandemlabs/tandem

package services

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"

	"github.com/tandemlabs/tandem/internal/logging"
	"github.com/tandemlabs/tandem/internal/metrics"
)

// Sweeper expires stale pending items. Implemented by
// *schedule.Scheduler.
type Sweeper interface {
	SweepExpired(ctx context.Context, now time.Time) (int, error)
}

// SweepService periodically expires stale scheduled items so missed
// activities become terminal without user interaction.
type SweepService struct {
	sweeper  Sweeper
	interval time.Duration
	logger   zerolog.Logger
}

// NewSweepService creates the periodic expiry sweep.
func NewSweepService(sweeper Sweeper, interval time.Duration) *SweepService {
	if interval <= 0 {
		interval = 5 * time.Minute
	}
	return &SweepService{
		sweeper:  sweeper,
		interval: interval,
		logger:   logging.Logger().With().Str("service", "sweep").Logger(),
	}
}

// Serve implements suture.Service. One sweep runs immediately, then on
// every tick until the context is canceled.
func (s *SweepService) Serve(ctx context.Context) error {
	s.logger.Info().Dur("interval", s.interval).Msg("expiry sweep started")

	s.run(ctx)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logger.Info().Msg("expiry sweep stopping")
			return ctx.Err()
		case <-ticker.C:
			s.run(ctx)
		}
	}
}

func (s *SweepService) run(ctx context.Context) {
	timer := prometheus.NewTimer(metrics.SweepDuration)
	defer timer.ObserveDuration()

	n, err := s.sweeper.SweepExpired(ctx, time.Now().UTC())
	if err != nil {
		s.logger.Error().Err(err).Int("expired", n).Msg("expiry sweep failed")
		return
	}
	if n > 0 {
		s.logger.Info().Int("expired", n).Msg("expiry sweep completed")
	}
}

// String implements fmt.Stringer for suture's service naming.
func (s *SweepService) String() string { return "expiry-sweep" }
