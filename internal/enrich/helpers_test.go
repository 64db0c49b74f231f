// Reelmap - Streaming Catalogue Sync and Country Coverage Planning
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reelmap

package enrich

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/goccy/go-json"

	"github.com/tomtom215/reelmap/internal/config"
)

const testAPIKey = "secret-key"

// newTestClient builds a client against url whose retry sleeps are recorded
// instead of slept.
func newTestClient(t *testing.T, url string) (*Client, *[]time.Duration) {
	t.Helper()
	ec := config.Defaults().Enrich
	ec.BaseURL = url
	ec.APIKey = testAPIKey
	ec.RequestsPerMinute = 600000
	ec.Burst = 100

	fc := config.Defaults().Fetch
	fc.MaxAttempts = 3
	fc.BaseDelay = time.Millisecond
	fc.MaxDelay = 10 * time.Millisecond

	c := NewClient(ec, fc)
	var mu sync.Mutex
	var delays []time.Duration
	c.sleep = func(ctx context.Context, d time.Duration) error {
		mu.Lock()
		delays = append(delays, d)
		mu.Unlock()
		return ctx.Err()
	}
	return c, &delays
}

// fakeTMDB serves canned search and details responses. Searches are keyed
// by "query|year" with year "0" when absent.
type fakeTMDB struct {
	t *testing.T

	mu       sync.Mutex
	searches map[string][]searchResult
	movies   map[string]string
	keys     []string
	paths    []string
}

func newFakeTMDB(t *testing.T) (*fakeTMDB, *httptest.Server) {
	t.Helper()
	f := &fakeTMDB{t: t, searches: map[string][]searchResult{}, movies: map[string]string{}}
	srv := httptest.NewServer(f)
	t.Cleanup(srv.Close)
	return f, srv
}

func (f *fakeTMDB) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	f.mu.Lock()
	f.keys = append(f.keys, q.Get("api_key"))
	f.paths = append(f.paths, r.URL.Path)
	f.mu.Unlock()

	switch {
	case r.URL.Path == "/configuration":
		_, _ = w.Write([]byte(`{"images":{}}`))
	case r.URL.Path == "/search/movie":
		year := q.Get("year")
		if year == "" {
			year = "0"
		}
		f.mu.Lock()
		results := f.searches[q.Get("query")+"|"+year]
		f.mu.Unlock()
		if results == nil {
			results = []searchResult{}
		}
		body, err := json.Marshal(searchResponse{Results: results})
		if err != nil {
			f.t.Errorf("encode search: %v", err)
		}
		_, _ = w.Write(body)
	case strings.HasPrefix(r.URL.Path, "/movie/"):
		f.mu.Lock()
		body, ok := f.movies[strings.TrimPrefix(r.URL.Path, "/movie/")]
		f.mu.Unlock()
		if !ok {
			w.WriteHeader(http.StatusNotFound)
			_, _ = w.Write([]byte(`{"status_code":34}`))
			return
		}
		_, _ = w.Write([]byte(body))
	default:
		w.WriteHeader(http.StatusNotFound)
	}
}

func (f *fakeTMDB) search(query string, year int, results ...searchResult) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.searches[query+"|"+strconv.Itoa(year)] = results
}

func (f *fakeTMDB) movie(id int64, title, original, date string, runtime int, imdb string, directors ...string) {
	crew := make([]map[string]string, 0, len(directors)+1)
	crew = append(crew, map[string]string{"name": "Somebody Else", "job": "Producer"})
	for _, d := range directors {
		crew = append(crew, map[string]string{"name": d, "job": "Director"})
	}
	body, err := json.Marshal(map[string]any{
		"id":             id,
		"title":          title,
		"original_title": original,
		"release_date":   date,
		"runtime":        runtime,
		"credits":        map[string]any{"crew": crew},
		"external_ids":   map[string]any{"imdb_id": imdb},
	})
	if err != nil {
		f.t.Fatalf("encode movie: %v", err)
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.movies[strconv.FormatInt(id, 10)] = string(body)
}

func (f *fakeTMDB) keysSeen() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.keys...)
}

func (f *fakeTMDB) requests(path string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, p := range f.paths {
		if p == path {
			n++
		}
	}
	return n
}
