// Reelmap - Streaming Catalogue Sync and Country Coverage Planning
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reelmap

/*
Package middleware provides HTTP middleware for the serve-mode API.

All middleware uses the standard func(http.Handler) http.Handler shape so it
plugs directly into chi's r.Use.

Available Middleware:
  - RequestID: assigns or propagates X-Request-ID and stores it in the
    logging context
  - PrometheusMetrics: records request count and latency per route pattern
  - AccessLog: structured zerolog access log with a slow-request warning

Usage Example:

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.AccessLog(500 * time.Millisecond))
	r.Use(middleware.PrometheusMetrics)

Route patterns (e.g. /api/v1/coverage) rather than raw paths are used as the
endpoint label, so query strings and unknown paths cannot inflate metric
cardinality.
*/
package middleware
