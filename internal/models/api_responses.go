// Reelmap - Streaming Catalogue Sync and Country Coverage Planning
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reelmap

package models

import (
	"time"
)

// APIResponse is the envelope returned by every JSON endpoint of the serve-mode API.
//
// Status is "success" (see Data) or "error" (see Error).
//
//	{
//	  "status": "success",
//	  "data": {"countries": ["US", "DE"], "coverage_percent": 100},
//	  "metadata": {"timestamp": "2026-03-01T12:00:00Z"}
//	}
type APIResponse struct {
	Status   string      `json:"status"`
	Data     interface{} `json:"data"`
	Metadata Metadata    `json:"metadata"`
	Error    *APIError   `json:"error,omitempty"`
}

// Metadata contains response metadata.
type Metadata struct {
	Timestamp   time.Time `json:"timestamp"`
	QueryTimeMS int64     `json:"query_time_ms,omitempty"`
}

// APIError is the structured error body.
//
// Common codes: VALIDATION_ERROR, NOT_FOUND, CONFLICT, INTERNAL_ERROR,
// RATE_LIMIT_EXCEEDED.
type APIError struct {
	Code    string                 `json:"code"`
	Message string                 `json:"message"`
	Details map[string]interface{} `json:"details,omitempty"`
}

// CoverageResponse is the body of GET /api/v1/coverage.
type CoverageResponse struct {
	Home            string   `json:"home"`
	Countries       []string `json:"countries"`
	TotalFilms      int      `json:"total_films"`
	CoveredFilms    int      `json:"covered_films"`
	HomeFilms       int      `json:"home_films"`
	CoveragePercent float64  `json:"coverage_percent"`
}

// StatusResponse is the body of GET /api/v1/status.
type StatusResponse struct {
	Running     bool       `json:"running"`
	LastRun     *RunResult `json:"last_run,omitempty"`
	TotalFilms  int        `json:"total_films"`
	NextDeep    *time.Time `json:"next_deep,omitempty"`
	NextShallow *time.Time `json:"next_shallow,omitempty"`
}
