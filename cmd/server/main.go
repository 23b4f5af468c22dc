// Tandem - Relationship Coaching Personalization & Smart Scheduling
// Copyright 2026 Tandem Labs
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tandemlabs/tandem

// Package main is the entry point for the Tandem engine server.
//
// Tandem personalizes relationship-coaching activity suggestions: it
// maintains per-user preference profiles from interaction events,
// ranks catalog activities against them, places accepted suggestions
// on a conflict-checked calendar, and records outcomes in an
// append-only growth log that feeds back into the profiles.
//
// The server initializes components in the following order:
//
//  1. Configuration: layered Koanf sources (defaults, YAML, TANDEM_* env)
//  2. Logging: global zerolog logger
//  3. Store: BadgerDB document store (or in-memory when store.path is empty)
//  4. Engines: profile, catalog, recommend, schedule, growth
//  5. Supervision: Suture tree running the expiry sweep and HTTP server
//
// The server handles graceful shutdown on SIGINT and SIGTERM: the
// supervision tree drains, then the store is closed.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/tandemlabs/tandem/internal/api"
	"github.com/tandemlabs/tandem/internal/catalog"
	"github.com/tandemlabs/tandem/internal/config"
	"github.com/tandemlabs/tandem/internal/growth"
	"github.com/tandemlabs/tandem/internal/logging"
	"github.com/tandemlabs/tandem/internal/profile"
	"github.com/tandemlabs/tandem/internal/recommend"
	"github.com/tandemlabs/tandem/internal/schedule"
	"github.com/tandemlabs/tandem/internal/store"
	"github.com/tandemlabs/tandem/internal/supervisor"
	"github.com/tandemlabs/tandem/internal/supervisor/services"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logging.Init(logging.DefaultConfig())
		logging.Fatal().Err(err).Msg("failed to load configuration")
	}

	logging.Init(logging.Config{
		Level:     cfg.Logging.Level,
		Format:    cfg.Logging.Format,
		Caller:    cfg.Logging.Caller,
		Timestamp: true,
	})
	logging.Info().Str("addr", cfg.Server.Addr()).Msg("tandem starting")

	st, err := openStore(cfg.Store)
	if err != nil {
		logging.Fatal().Err(err).Msg("failed to open document store")
	}
	defer func() {
		if err := st.Close(); err != nil {
			logging.Error().Err(err).Msg("failed to close store")
		}
	}()

	profiles, err := profile.NewEngine(st, cfg.Profile)
	if err != nil {
		logging.Fatal().Err(err).Msg("failed to create personalization engine")
	}
	scheduler, err := schedule.NewScheduler(st, cfg.Schedule)
	if err != nil {
		logging.Fatal().Err(err).Msg("failed to create scheduler")
	}
	tracker, err := growth.NewTracker(st, scheduler, profiles, cfg.Growth)
	if err != nil {
		logging.Fatal().Err(err).Msg("failed to create growth tracker")
	}
	scheduler.SetGrowthAppender(tracker)

	cat := catalog.NewBreaker(catalog.NewFile(cfg.Catalog.Path), cfg.Catalog.Breaker)
	recEngine, err := recommend.NewEngine(profiles, cat, scheduler, cfg.Recommend)
	if err != nil {
		logging.Fatal().Err(err).Msg("failed to create recommendation engine")
	}
	defer recEngine.Close()

	handlers := api.NewHandlers(profiles, recEngine, scheduler, tracker, cfg.Server.Timeout)
	router := api.NewRouter(handlers, api.RouterConfig{
		CORSOrigins:     cfg.Server.CORSOrigins,
		RateLimitReqs:   cfg.Server.RateLimitReqs,
		RateLimitWindow: cfg.Server.RateLimitWindow,
	})
	server := &http.Server{
		Addr:              cfg.Server.Addr(),
		Handler:           router,
		ReadHeaderTimeout: cfg.Server.Timeout,
	}

	tree := supervisor.NewTree(logging.NewSlogLogger(), supervisor.DefaultTreeConfig())
	tree.AddEngineService(services.NewSweepService(scheduler, cfg.Sweep.Interval))
	tree.AddAPIService(services.NewHTTPService(server, supervisor.DefaultTreeConfig().ShutdownTimeout))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logging.Info().Str("signal", sig.String()).Msg("received shutdown signal")
		cancel()
	}()

	logging.Info().Msg("starting supervision tree")
	errCh := tree.ServeBackground(ctx)

	for err := range errCh {
		if err != nil && !errors.Is(err, context.Canceled) {
			logging.Error().Err(err).Msg("supervision tree error")
		}
	}

	logging.Info().Msg("tandem stopped")
}

// openStore selects the store backend: BadgerDB when a path is
// configured, in-memory otherwise.
func openStore(cfg config.StoreConfig) (store.Store, error) {
	if cfg.Path == "" {
		logging.Warn().Msg("store.path is empty, using in-memory store (data is not persisted)")
		return store.NewMemoryStore(), nil
	}
	return store.OpenBadger(cfg.Path)
}
