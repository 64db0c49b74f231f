// Reelmap - Streaming Catalogue Sync and Country Coverage Planning
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reelmap

package api

import (
	"net/http"

	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"

	"github.com/tomtom215/reelmap/internal/config"
	"github.com/tomtom215/reelmap/internal/metrics"
	"github.com/tomtom215/reelmap/internal/middleware"
)

// corsMiddleware allows the configured origins to read the API and trigger
// syncs. It must wrap the whole router so OPTIONS preflights are answered
// before routing.
func corsMiddleware(sc config.ServerConfig) func(http.Handler) http.Handler {
	return cors.Handler(cors.Options{
		AllowedOrigins: sc.CORSOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Content-Type", middleware.RequestIDHeader},
		ExposedHeaders: []string{middleware.RequestIDHeader},
		MaxAge:         86400,
	})
}

// rateLimitMiddleware limits each client IP to sc.RateLimitReqs requests per
// window and answers excess requests with the JSON error envelope. A zero
// limit disables it.
func rateLimitMiddleware(sc config.ServerConfig) func(http.Handler) http.Handler {
	if sc.RateLimitReqs <= 0 || sc.RateLimitWindow <= 0 {
		return func(next http.Handler) http.Handler { return next }
	}
	return httprate.Limit(
		sc.RateLimitReqs,
		sc.RateLimitWindow,
		httprate.WithKeyFuncs(httprate.KeyByIP),
		httprate.WithLimitHandler(func(w http.ResponseWriter, _ *http.Request) {
			metrics.APIRateLimitHits.WithLabelValues("api").Inc()
			respondError(w, http.StatusTooManyRequests, ErrCodeRateLimited, "rate limit exceeded", nil)
		}),
	)
}
