// Reelmap - Streaming Catalogue Sync and Country Coverage Planning
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reelmap

package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/tomtom215/reelmap/internal/config"
	"github.com/tomtom215/reelmap/internal/middleware"
)

// slowRequestThreshold promotes access log lines to warn level.
const slowRequestThreshold = time.Second

// NewRouter configures all HTTP routes using Chi router.
func NewRouter(h *Handler, sc config.ServerConfig) http.Handler {
	r := chi.NewRouter()

	// ========================
	// Global Middleware Stack
	// ========================
	r.Use(middleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(corsMiddleware(sc))
	r.Use(middleware.AccessLog(slowRequestThreshold))
	r.Use(middleware.PrometheusMetrics)

	r.Get("/healthz", h.Health)
	r.Handle("/metrics", promhttp.Handler())

	// ========================
	// API Endpoints
	// ========================
	r.Route("/api/v1", func(r chi.Router) {
		r.Use(rateLimitMiddleware(sc))
		r.Use(chimiddleware.Compress(5, "application/json"))

		r.Get("/status", h.Status)
		r.Get("/coverage", h.Coverage)
		r.Get("/clusters", h.Clusters)
		r.Post("/sync", h.TriggerSync)
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		respondError(w, http.StatusNotFound, ErrCodeNotFound, "route not found", nil)
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		respondError(w, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "method not allowed", nil)
	})

	return r
}
