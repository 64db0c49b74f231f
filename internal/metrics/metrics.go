// Reelmap - Streaming Catalogue Sync and Country Coverage Planning
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reelmap

// Package metrics holds the Prometheus instrumentation for sync runs, the
// provider client, the page cache and the serve-mode HTTP API.
//
// All collectors register with the default registry through promauto. Serve
// mode exposes them via promhttp; one-shot CLI runs can dump them to a
// node-exporter textfile with WriteTextfile.
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Provider Metrics
	ProviderRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "reelmap_provider_requests_total",
			Help: "Total number of catalogue page requests by HTTP status",
		},
		[]string{"status_code"}, // "200", "429", "error"
	)

	ProviderRetries = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "reelmap_provider_retries_total",
			Help: "Total number of retried page requests by reason",
		},
		[]string{"reason"}, // "rate_limited", "server_error", "network", "circuit_open"
	)

	ProviderPageDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "reelmap_provider_page_duration_seconds",
			Help:    "Duration of a single catalogue page request in seconds",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		},
	)

	// Country Metrics
	CountryFilms = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "reelmap_country_films",
			Help: "Films returned by a country in its last fetch",
		},
		[]string{"country"},
	)

	CountryFetchErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "reelmap_country_fetch_errors_total",
			Help: "Total number of failed country fetches",
		},
		[]string{"country"},
	)

	// Catalogue Metrics
	MergeOutcome = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "reelmap_merge_films",
			Help: "Films per outcome in the last merge",
		},
		[]string{"outcome"}, // "added", "updated", "pruned", "dropped_empty", "untouched"
	)

	CatalogueSize = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "reelmap_catalogue_films",
			Help: "Films in the last merged catalogue",
		},
	)

	ValidationViolations = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "reelmap_validation_violations",
			Help: "Integrity violations reported by the last run",
		},
	)

	Clusters = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "reelmap_clusters",
			Help: "Catalogue clusters detected by the last deep run",
		},
	)

	// Sync Run Metrics
	SyncRuns = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "reelmap_sync_runs_total",
			Help: "Total number of sync runs by mode and status",
		},
		[]string{"mode", "status"}, // status: "success", "failed", "fatal"
	)

	SyncDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "reelmap_sync_duration_seconds",
			Help:    "Duration of sync runs in seconds",
			Buckets: []float64{10, 30, 60, 120, 300, 600, 1200, 1800, 3600}, // deep runs can take most of an hour
		},
		[]string{"mode"},
	)

	SyncLastSuccess = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "reelmap_sync_last_success_timestamp",
			Help: "Unix timestamp of the last successful sync run",
		},
		[]string{"mode"},
	)

	// Page Cache Metrics
	PageCacheHits = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "reelmap_page_cache_hits_total",
			Help: "Total number of catalogue page cache hits",
		},
	)

	PageCacheMisses = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "reelmap_page_cache_misses_total",
			Help: "Total number of catalogue page cache misses",
		},
	)

	// Enrichment Metrics
	EnrichLookups = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "reelmap_enrich_lookups_total",
			Help: "Total number of TMDB identifier lookups by outcome",
		},
		[]string{"outcome"}, // "matched", "unmatched", "error"
	)

	// Circuit Breaker Metrics
	CircuitBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "reelmap_circuit_breaker_state",
			Help: "Circuit breaker state (0=closed, 1=half-open, 2=open)",
		},
		[]string{"name"},
	)

	CircuitBreakerRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "reelmap_circuit_breaker_requests_total",
			Help: "Total number of requests through circuit breaker",
		},
		[]string{"name", "result"}, // result: "success", "failure", "rejected"
	)

	CircuitBreakerTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "reelmap_circuit_breaker_state_transitions_total",
			Help: "Total number of circuit breaker state transitions",
		},
		[]string{"name", "from_state", "to_state"},
	)

	// API Endpoint Metrics
	APIRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "reelmap_api_requests_total",
			Help: "Total number of API requests",
		},
		[]string{"method", "endpoint", "status_code"},
	)

	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "reelmap_api_request_duration_seconds",
			Help:    "API request duration in seconds",
			Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		},
		[]string{"method", "endpoint"},
	)

	APIRateLimitHits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "reelmap_api_rate_limit_hits_total",
			Help: "Total number of rate limit rejections",
		},
		[]string{"endpoint"},
	)
)

// RecordPageRequest records one provider page request.
func RecordPageRequest(statusCode int, duration time.Duration, err error) {
	label := "error"
	if err == nil || statusCode > 0 {
		label = strconv.Itoa(statusCode)
	}
	ProviderRequests.WithLabelValues(label).Inc()
	ProviderPageDuration.Observe(duration.Seconds())
}

// RecordRetry records a retried page request.
func RecordRetry(reason string) {
	ProviderRetries.WithLabelValues(reason).Inc()
}

// RecordCountryFetch records the outcome of one country's fetch.
func RecordCountryFetch(country string, films int, err error) {
	if err != nil {
		CountryFetchErrors.WithLabelValues(country).Inc()
		return
	}
	CountryFilms.WithLabelValues(country).Set(float64(films))
}

// RecordMerge publishes the outcome counts of a merge.
func RecordMerge(added, updated, pruned, droppedEmpty, untouched, total int) {
	MergeOutcome.WithLabelValues("added").Set(float64(added))
	MergeOutcome.WithLabelValues("updated").Set(float64(updated))
	MergeOutcome.WithLabelValues("pruned").Set(float64(pruned))
	MergeOutcome.WithLabelValues("dropped_empty").Set(float64(droppedEmpty))
	MergeOutcome.WithLabelValues("untouched").Set(float64(untouched))
	CatalogueSize.Set(float64(total))
}

// RecordEnrichLookup records one film lookup. outcome is "matched",
// "unmatched" or "error".
func RecordEnrichLookup(outcome string) {
	EnrichLookups.WithLabelValues(outcome).Inc()
}

// RecordSyncRun records a finished sync run. status is "success", "failed"
// or "fatal".
func RecordSyncRun(mode, status string, duration time.Duration, violations int) {
	SyncRuns.WithLabelValues(mode, status).Inc()
	SyncDuration.WithLabelValues(mode).Observe(duration.Seconds())
	ValidationViolations.Set(float64(violations))
	if status == "success" {
		SyncLastSuccess.WithLabelValues(mode).Set(float64(time.Now().Unix()))
	}
}

// RecordPageCache records a page cache lookup.
func RecordPageCache(hit bool) {
	if hit {
		PageCacheHits.Inc()
	} else {
		PageCacheMisses.Inc()
	}
}

// RecordAPIRequest records an API request metric.
func RecordAPIRequest(method, endpoint, statusCode string, duration time.Duration) {
	APIRequestsTotal.WithLabelValues(method, endpoint, statusCode).Inc()
	APIRequestDuration.WithLabelValues(method, endpoint).Observe(duration.Seconds())
}

// WriteTextfile writes every metric in the default gatherer to path in the
// node-exporter textfile format.
func WriteTextfile(path string) error {
	return prometheus.WriteToTextfile(path, prometheus.DefaultGatherer)
}
