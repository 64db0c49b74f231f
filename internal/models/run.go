// Reelmap - Streaming Catalogue Sync and Country Coverage Planning
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reelmap

package models

import "time"

// CountryReport summarizes one country's fetch within a run.
type CountryReport struct {
	Country  string        `json:"country"`
	Films    int           `json:"films"`
	Pages    int           `json:"pages"`
	Duration time.Duration `json:"duration_ns"`
	Error    string        `json:"error,omitempty"`
}

// MergeStats counts what a merge pass did to the catalogue.
type MergeStats struct {
	Added        int `json:"added"`
	Updated      int `json:"updated"`
	Pruned       int `json:"pruned"`
	DroppedEmpty int `json:"dropped_empty"`
	Untouched    int `json:"untouched"`
}

// RunResult is the outcome of one sync run.
//
// Errors accumulates per-country fetch failures and integrity violations as
// human-readable strings. A run with any errors is failed even when its
// catalogue was written.
type RunResult struct {
	RunID      string          `json:"run_id"`
	Mode       SyncMode        `json:"mode"`
	StartedAt  time.Time       `json:"started_at"`
	FinishedAt time.Time       `json:"finished_at"`
	Catalogue  *Catalogue      `json:"-"`
	Clusters   []Cluster       `json:"clusters,omitempty"`
	Countries  []CountryReport `json:"countries"`
	Merge      MergeStats      `json:"merge"`
	Errors     []string        `json:"errors"`
	Written    bool            `json:"written"`
}

// Failed reports whether the run accumulated any errors.
func (r *RunResult) Failed() bool {
	return len(r.Errors) > 0
}

// TotalCount returns the number of films in the resulting catalogue.
func (r *RunResult) TotalCount() int {
	if r.Catalogue == nil {
		return 0
	}
	return len(r.Catalogue.Items)
}

// ExitCode maps the run to a process exit code: 0 on success, 1 otherwise.
func (r *RunResult) ExitCode() int {
	if r.Failed() {
		return 1
	}
	return 0
}
