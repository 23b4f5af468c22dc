// Tandem - Relationship Coaching Personalization & Smart Scheduling
// Copyright 2026 Tandem Labs
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tandemlabs/tandem

package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/tandemlabs/tandem/internal/logging"
	"github.com/tandemlabs/tandem/internal/metrics"
)

// RequestIDWithLogging attaches a request ID to the context and the
// logging context, echoing it back in the X-Request-ID header.
func RequestIDWithLogging() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			requestID := r.Header.Get("X-Request-ID")
			if requestID == "" {
				requestID = logging.GenerateRequestID()
			}

			ctx := logging.ContextWithRequestID(r.Context(), requestID)
			w.Header().Set("X-Request-ID", requestID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// PrometheusMetrics records request counts and latency per route.
func PrometheusMetrics(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := chimiddleware.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r)

		// The route pattern keeps metric cardinality bounded; raw paths
		// embed user IDs.
		endpoint := r.URL.Path
		if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
			endpoint = rctx.RoutePattern()
		}
		metrics.ObserveAPIRequest(r.Method, endpoint, ww.Status(), time.Since(start))
	})
}
