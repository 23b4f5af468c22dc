// Tandem - Relationship Coaching Personalization & Smart Scheduling
// Copyright 2026 Tandem Labs
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tandemlabs/tandem

package api

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// RouterConfig tunes the HTTP middleware stack.
type RouterConfig struct {
	CORSOrigins     []string
	RateLimitReqs   int
	RateLimitWindow time.Duration
}

// NewRouter builds the HTTP handler: global middleware, health and
// metrics endpoints, and the versioned API surface.
func NewRouter(h *Handlers, cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	r.Use(RequestIDWithLogging())
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: cfg.CORSOrigins,
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Content-Type", "X-Request-ID"},
		MaxAge:         86400,
	}))

	r.Get("/api/v1/health", h.Health)
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		if cfg.RateLimitReqs > 0 {
			r.Use(httprate.LimitByRealIP(cfg.RateLimitReqs, cfg.RateLimitWindow))
		}
		r.Use(PrometheusMetrics)

		r.Route("/profiles/{userID}", func(r chi.Router) {
			r.Get("/", h.GetProfile)
			r.Post("/events", h.PostEvent)
		})
		r.Get("/recommendations/{userID}", h.GetRecommendations)
		r.Post("/schedule", h.PostSchedule)
		r.Post("/schedule/{userID}/expire", h.PostExpire)
		r.Post("/outcomes/{itemID}", h.PostOutcome)
		r.Get("/timeline/{userID}", h.GetTimeline)
	})

	return r
}

// contextWithTimeout bounds a handler's downstream work.
func contextWithTimeout(ctx context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if d <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, d)
}
