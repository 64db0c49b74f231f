// Reelmap - Streaming Catalogue Sync and Country Coverage Planning
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reelmap

package metrics

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestRecordPageRequest(t *testing.T) {
	tests := []struct {
		name   string
		status int
		err    error
		label  string
	}{
		{"ok", 200, nil, "200"},
		{"rate limited", 429, nil, "429"},
		{"network error", 0, errors.New("connection reset"), "error"},
		{"server error with status", 503, errors.New("unavailable"), "503"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			before := testutil.ToFloat64(ProviderRequests.WithLabelValues(tt.label))
			RecordPageRequest(tt.status, 20*time.Millisecond, tt.err)
			after := testutil.ToFloat64(ProviderRequests.WithLabelValues(tt.label))
			if after != before+1 {
				t.Errorf("counter for %q: got %v, want %v", tt.label, after, before+1)
			}
		})
	}
}

func TestRecordCountryFetch(t *testing.T) {
	RecordCountryFetch("ZZ", 42, nil)
	if got := testutil.ToFloat64(CountryFilms.WithLabelValues("ZZ")); got != 42 {
		t.Errorf("country films = %v, want 42", got)
	}

	before := testutil.ToFloat64(CountryFetchErrors.WithLabelValues("ZZ"))
	RecordCountryFetch("ZZ", 0, errors.New("boom"))
	if got := testutil.ToFloat64(CountryFetchErrors.WithLabelValues("ZZ")); got != before+1 {
		t.Errorf("fetch errors = %v, want %v", got, before+1)
	}
	if got := testutil.ToFloat64(CountryFilms.WithLabelValues("ZZ")); got != 42 {
		t.Errorf("failed fetch must not reset the film gauge, got %v", got)
	}
}

func TestRecordMerge(t *testing.T) {
	RecordMerge(1, 2, 3, 4, 5, 100)

	want := map[string]float64{"added": 1, "updated": 2, "pruned": 3, "dropped_empty": 4, "untouched": 5}
	for outcome, v := range want {
		if got := testutil.ToFloat64(MergeOutcome.WithLabelValues(outcome)); got != v {
			t.Errorf("%s = %v, want %v", outcome, got, v)
		}
	}
	if got := testutil.ToFloat64(CatalogueSize); got != 100 {
		t.Errorf("catalogue size = %v, want 100", got)
	}
}

func TestRecordSyncRun(t *testing.T) {
	before := testutil.ToFloat64(SyncRuns.WithLabelValues("deep", "success"))
	RecordSyncRun("deep", "success", time.Minute, 0)
	if got := testutil.ToFloat64(SyncRuns.WithLabelValues("deep", "success")); got != before+1 {
		t.Errorf("runs = %v, want %v", got, before+1)
	}
	if testutil.ToFloat64(SyncLastSuccess.WithLabelValues("deep")) == 0 {
		t.Error("expected last success timestamp to be set")
	}

	RecordSyncRun("shallow", "failed", time.Second, 3)
	if got := testutil.ToFloat64(ValidationViolations); got != 3 {
		t.Errorf("violations = %v, want 3", got)
	}
}

func TestRecordPageCache(t *testing.T) {
	hits := testutil.ToFloat64(PageCacheHits)
	misses := testutil.ToFloat64(PageCacheMisses)

	RecordPageCache(true)
	RecordPageCache(false)
	RecordPageCache(false)

	if got := testutil.ToFloat64(PageCacheHits); got != hits+1 {
		t.Errorf("hits = %v, want %v", got, hits+1)
	}
	if got := testutil.ToFloat64(PageCacheMisses); got != misses+2 {
		t.Errorf("misses = %v, want %v", got, misses+2)
	}
}

func TestRecordEnrichLookup(t *testing.T) {
	for _, outcome := range []string{"matched", "unmatched", "error"} {
		before := testutil.ToFloat64(EnrichLookups.WithLabelValues(outcome))
		RecordEnrichLookup(outcome)
		if got := testutil.ToFloat64(EnrichLookups.WithLabelValues(outcome)); got != before+1 {
			t.Errorf("%s: got %v, want %v", outcome, got, before+1)
		}
	}
}

func TestWriteTextfile(t *testing.T) {
	RecordSyncRun("deep", "success", time.Second, 0)

	path := filepath.Join(t.TempDir(), "reelmap.prom")
	if err := WriteTextfile(path); err != nil {
		t.Fatalf("WriteTextfile: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), "reelmap_sync_runs_total") {
		t.Errorf("textfile missing sync run counter:\n%s", data)
	}
}
