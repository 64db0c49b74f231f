// Reelmap - Streaming Catalogue Sync and Country Coverage Planning
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reelmap

package sync

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/goccy/go-json"

	"github.com/tomtom215/reelmap/internal/config"
	"github.com/tomtom215/reelmap/internal/models"
)

// testConfig returns defaults with every delay removed and outputs under a
// temp dir.
func testConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg := config.Defaults()
	dir := t.TempDir()

	cfg.Provider.RequestsPerMinute = 600000
	cfg.Provider.Burst = 100
	cfg.Provider.Timeout = 5 * time.Second

	cfg.Fetch.PageDelay = 0
	cfg.Fetch.JitterMax = 0
	cfg.Fetch.BaseDelay = time.Millisecond
	cfg.Fetch.MaxDelay = 10 * time.Millisecond
	cfg.Fetch.MaxAttempts = 3

	cfg.Sync.Output = filepath.Join(dir, "films.json")
	cfg.Sync.ClustersPath = filepath.Join(dir, "clusters.json")
	cfg.Sync.Countries = nil

	cfg.Validation.MinTotalFilms = 0
	cfg.Validation.CriticalCountries = nil
	return cfg
}

// newTestClient builds a client against url whose retry sleeps are recorded
// instead of slept.
func newTestClient(t *testing.T, cfg *config.Config, url string, cache PageCache) (*Client, *[]time.Duration) {
	t.Helper()
	pc := cfg.Provider
	pc.BaseURL = url
	c := NewClient(pc, cfg.Fetch, cache)

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

// wireFilm is the provider's JSON shape of one listing entry.
type wireFilm struct {
	ID              int64             `json:"id"`
	Title           string            `json:"title"`
	Year            *int              `json:"year"`
	Duration        *int              `json:"duration"`
	Genres          []string          `json:"genres"`
	Directors       []map[string]any  `json:"directors"`
	AverageRating   *float64          `json:"average_rating_out_of_ten,omitempty"`
	NumberOfRatings *int              `json:"number_of_ratings,omitempty"`
	Series          map[string]string `json:"series"`
}

func film(id int64) wireFilm {
	return wireFilm{
		ID:        id,
		Title:     fmt.Sprintf("Film %d", id),
		Year:      models.IntPtr(2000 + int(id%20)),
		Duration:  models.IntPtr(90),
		Genres:    []string{"Drama"},
		Directors: []map[string]any{{"name": "Director"}},
	}
}

func pageBody(t *testing.T, films []wireFilm, next int) []byte {
	t.Helper()
	resp := map[string]any{"films": films, "meta": map[string]any{"next_page": nil}}
	if next > 0 {
		resp["meta"] = map[string]any{"next_page": next}
	}
	body, err := json.Marshal(resp)
	if err != nil {
		t.Fatal(err)
	}
	return body
}

// fakeProvider serves paged listings keyed by the Client-Country header.
type fakeProvider struct {
	t        *testing.T
	pageSize int

	mu       sync.Mutex
	listings map[string][]int64
	status   map[string]int
	requests map[string]int
	headers  []http.Header
}

func newFakeProvider(t *testing.T, listings map[string][]int64) (*fakeProvider, *httptest.Server) {
	t.Helper()
	p := &fakeProvider{
		t:        t,
		pageSize: 2,
		listings: listings,
		status:   map[string]int{},
		requests: map[string]int{},
	}
	srv := httptest.NewServer(p)
	t.Cleanup(srv.Close)
	return p, srv
}

func (p *fakeProvider) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	country := r.Header.Get("Client-Country")
	page, _ := strconv.Atoi(r.URL.Query().Get("page"))

	p.mu.Lock()
	p.requests[country]++
	p.headers = append(p.headers, r.Header.Clone())
	status := p.status[country]
	ids := p.listings[country]
	p.mu.Unlock()

	if status != 0 {
		w.WriteHeader(status)
		_, _ = w.Write([]byte(`{"error":"nope"}`))
		return
	}

	start := (page - 1) * p.pageSize
	if start > len(ids) {
		start = len(ids)
	}
	end := start + p.pageSize
	if end > len(ids) {
		end = len(ids)
	}
	films := make([]wireFilm, 0, end-start)
	for _, id := range ids[start:end] {
		films = append(films, film(id))
	}
	next := 0
	if end < len(ids) {
		next = page + 1
	}
	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write(pageBody(p.t, films, next))
}

func (p *fakeProvider) setStatus(country string, status int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.status[country] = status
}

func (p *fakeProvider) firstHeader() http.Header {
	p.mu.Lock()
	defer p.mu.Unlock()
	if len(p.headers) == 0 {
		return http.Header{}
	}
	return p.headers[0]
}

func (p *fakeProvider) requestCount(country string) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.requests[country]
}

// fakeSource is an in-memory PageSource.
type fakeSource struct {
	mu     sync.Mutex
	pages  map[string][]*Page
	errs   map[string]error
	calls  map[string]int
	onCall func(country string, page int)
}

func newFakeSource() *fakeSource {
	return &fakeSource{
		pages: map[string][]*Page{},
		errs:  map[string]error{},
		calls: map[string]int{},
	}
}

// set registers a single-page listing of the given film IDs.
func (s *fakeSource) set(country string, ids ...int64) {
	films := make([]models.Film, 0, len(ids))
	for _, id := range ids {
		films = append(films, models.Film{
			MubiID:    id,
			Title:     fmt.Sprintf("Film %d", id),
			Year:      models.IntPtr(2001),
			Genres:    []string{},
			Directors: []string{},
		})
	}
	s.mu.Lock()
	s.pages[country] = []*Page{{Films: films}}
	s.mu.Unlock()
}

func (s *fakeSource) fail(country string, err error) {
	s.mu.Lock()
	s.errs[country] = err
	s.mu.Unlock()
}

func (s *fakeSource) FetchPage(_ context.Context, country string, page int) (*Page, error) {
	s.mu.Lock()
	s.calls[country]++
	err := s.errs[country]
	pages := s.pages[country]
	hook := s.onCall
	s.mu.Unlock()

	if hook != nil {
		hook(country, page)
	}
	if err != nil {
		return nil, err
	}
	if page-1 >= len(pages) {
		return &Page{}, nil
	}
	p := *pages[page-1]
	return &p, nil
}
