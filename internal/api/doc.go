// Reelmap - Streaming Catalogue Sync and Country Coverage Planning
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reelmap

/*
Package api provides the serve-mode HTTP API.

Routes:

	GET  /healthz              liveness check
	GET  /metrics              Prometheus metrics (promhttp)
	GET  /api/v1/status        scheduler state and last run summary
	GET  /api/v1/coverage      optimizer over the current catalogue (?home=US&max=3)
	GET  /api/v1/clusters      current country clusters
	POST /api/v1/sync          queue a run (?mode=shallow|deep), 202 or 409

Every /api/v1 response uses the models.APIResponse envelope:

	{"status":"success","data":{...},"metadata":{"timestamp":"..."}}
	{"status":"error","data":null,"error":{"code":"CONFLICT","message":"..."}}

Middleware Stack (in order):
  - middleware.RequestID: X-Request-ID in and out, added to the logging context
  - chi RealIP and Recoverer
  - go-chi/cors
  - middleware.AccessLog and middleware.PrometheusMetrics
  - go-chi/httprate per-IP limit and chi Compress on /api/v1

The catalogue and clusters are read from the files the sync manager writes.
Parsed files and optimizer results are kept in a cache.Cache that is cleared
whenever a run completes (Handler.InvalidateCache).
*/
package api
