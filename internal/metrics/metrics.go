// Tandem - Relationship Coaching Personalization & Smart Scheduling
// Copyright 2026 Tandem Labs
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tandemlabs/tandem

// Package metrics provides Prometheus instrumentation for the engine:
// profile updates, recommendation generation, scheduling decisions,
// expiry sweeps, recorded outcomes, store retries, and the HTTP surface.
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Personalization metrics
	ProfileUpdates = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "tandem_profile_updates_total",
			Help: "Total number of successful profile updates",
		},
	)

	ProfileUpdateFailures = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "tandem_profile_update_failures_total",
			Help: "Total number of profile updates that failed after retry exhaustion",
		},
	)

	// Recommendation metrics
	RecommendationRequests = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "tandem_recommendation_requests_total",
			Help: "Total number of recommendation generation requests",
		},
	)

	RecommendationDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "tandem_recommendation_duration_seconds",
			Help:    "Recommendation generation latency in seconds",
			Buckets: prometheus.DefBuckets,
		},
	)

	RecommendationsReturned = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "tandem_recommendations_returned",
			Help:    "Number of recommendations returned per request",
			Buckets: []float64{0, 1, 2, 5, 10, 20, 50},
		},
	)

	CandidatesExcluded = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tandem_recommendation_candidates_excluded_total",
			Help: "Candidates excluded during generation, by reason",
		},
		[]string{"reason"}, // "cooldown", "pending"
	)

	// Scheduling metrics
	ItemsScheduled = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "tandem_items_scheduled_total",
			Help: "Total number of scheduled items created",
		},
	)

	ScheduleRejections = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tandem_schedule_rejections_total",
			Help: "Schedule placements rejected, by reason",
		},
		[]string{"reason"}, // "overlap", "spacing", "validation"
	)

	ItemsExpired = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "tandem_items_expired_total",
			Help: "Total number of pending items transitioned to expired",
		},
	)

	SweepDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "tandem_expiry_sweep_duration_seconds",
			Help:    "Duration of expiry sweep runs in seconds",
			Buckets: prometheus.DefBuckets,
		},
	)

	// Growth tracking metrics
	OutcomesRecorded = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tandem_outcomes_recorded_total",
			Help: "Total number of recorded outcomes, by terminal status",
		},
		[]string{"outcome"}, // "completed", "declined"
	)

	// Store metrics
	StoreRetries = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tandem_store_retries_total",
			Help: "Transient store failures that triggered a retry",
		},
		[]string{"operation"},
	)

	// API metrics
	APIRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tandem_api_requests_total",
			Help: "Total number of API requests",
		},
		[]string{"method", "endpoint", "status_code"},
	)

	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "tandem_api_request_duration_seconds",
			Help:    "API request duration in seconds",
			Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		},
		[]string{"method", "endpoint"},
	)
)

// ObserveAPIRequest records one completed API request.
func ObserveAPIRequest(method, endpoint string, status int, duration time.Duration) {
	APIRequestsTotal.WithLabelValues(method, endpoint, strconv.Itoa(status)).Inc()
	APIRequestDuration.WithLabelValues(method, endpoint).Observe(duration.Seconds())
}
