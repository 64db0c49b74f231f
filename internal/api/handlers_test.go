// Reelmap - Streaming Catalogue Sync and Country Coverage Planning
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reelmap

package api

import (
	"net/http"
	"net/http/httptest"
	"path/filepath"
	stdsync "sync"
	"testing"
	"time"

	"github.com/goccy/go-json"

	"github.com/tomtom215/reelmap/internal/cache"
	"github.com/tomtom215/reelmap/internal/catalogue"
	"github.com/tomtom215/reelmap/internal/config"
	"github.com/tomtom215/reelmap/internal/models"
	"github.com/tomtom215/reelmap/internal/sync"
)

type fakeController struct {
	mu        stdsync.Mutex
	triggered []models.SyncMode
	busy      bool
	status    models.StatusResponse
}

func (f *fakeController) TriggerSync(mode models.SyncMode) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.busy {
		return sync.ErrRunInProgress
	}
	f.triggered = append(f.triggered, mode)
	return nil
}

func (f *fakeController) Status() models.StatusResponse {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.status
}

type testEnv struct {
	cfg    *config.Config
	ctrl   *fakeController
	h      *Handler
	router http.Handler
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	dir := t.TempDir()
	cfg := config.Defaults()
	cfg.Sync.Output = filepath.Join(dir, "films.json")
	cfg.Sync.ClustersPath = filepath.Join(dir, "clusters.json")
	cfg.Server.RateLimitReqs = 0

	ctrl := &fakeController{}
	h := NewHandler(cfg, ctrl)
	return &testEnv{cfg: cfg, ctrl: ctrl, h: h, router: NewRouter(h, cfg.Server)}
}

func (e *testEnv) writeCatalogue(t *testing.T) {
	t.Helper()
	items := []models.Film{
		{MubiID: 1, Title: "A", Countries: []string{"GB", "US"}},
		{MubiID: 2, Title: "B", Countries: []string{"US"}},
		{MubiID: 3, Title: "C", Countries: []string{"DE"}},
		{MubiID: 4, Title: "D", Countries: []string{"DE", "FR"}},
	}
	cat := models.NewCatalogue(items, models.ModeDeep, time.Now())
	if err := catalogue.Save(e.cfg.Sync.Output, cat); err != nil {
		t.Fatalf("Save: %v", err)
	}
}

func (e *testEnv) do(t *testing.T, method, target string) (*httptest.ResponseRecorder, models.APIResponse) {
	t.Helper()
	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, httptest.NewRequest(method, target, nil))

	var resp models.APIResponse
	if rec.Header().Get("Content-Type") == "application/json" {
		if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
			t.Fatalf("decode %s: %v (%s)", target, err, rec.Body.String())
		}
	}
	return rec, resp
}

func decodeData(t *testing.T, resp models.APIResponse, v interface{}) {
	t.Helper()
	raw, err := json.Marshal(resp.Data)
	if err != nil {
		t.Fatalf("marshal data: %v", err)
	}
	if err := json.Unmarshal(raw, v); err != nil {
		t.Fatalf("unmarshal data: %v", err)
	}
}

func TestHealth(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	rec, resp := env.do(t, http.MethodGet, "/healthz")
	if rec.Code != http.StatusOK || resp.Status != "success" {
		t.Fatalf("got %d %+v", rec.Code, resp)
	}
	if rec.Header().Get("X-Request-ID") == "" {
		t.Error("missing X-Request-ID")
	}
}

func TestCoverage(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	env.writeCatalogue(t)

	rec, resp := env.do(t, http.MethodGet, "/api/v1/coverage?home=us")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
	}
	var got models.CoverageResponse
	decodeData(t, resp, &got)

	if got.Home != "US" || len(got.Countries) != 2 || got.Countries[0] != "US" || got.Countries[1] != "DE" {
		t.Errorf("countries = %v, want [US DE]", got.Countries)
	}
	if got.TotalFilms != 4 || got.CoveredFilms != 4 || got.HomeFilms != 2 || got.CoveragePercent != 100 {
		t.Errorf("unexpected stats: %+v", got)
	}
}

func TestCoverage_MaxCapsSelection(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	env.writeCatalogue(t)

	_, resp := env.do(t, http.MethodGet, "/api/v1/coverage?home=FR&max=1")
	var got models.CoverageResponse
	decodeData(t, resp, &got)
	if len(got.Countries) != 1 || got.Countries[0] != "FR" {
		t.Errorf("countries = %v, want [FR]", got.Countries)
	}
	if got.CoveragePercent != 25 {
		t.Errorf("coverage = %v, want 25", got.CoveragePercent)
	}
}

func TestCoverage_Validation(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	env.writeCatalogue(t)

	for _, target := range []string{
		"/api/v1/coverage?home=USA",
		"/api/v1/coverage?home=1x",
		"/api/v1/coverage?max=abc",
		"/api/v1/coverage?max=-1",
	} {
		rec, resp := env.do(t, http.MethodGet, target)
		if rec.Code != http.StatusBadRequest {
			t.Errorf("%s: status = %d, want 400", target, rec.Code)
			continue
		}
		if resp.Error == nil || resp.Error.Code != ErrCodeValidation {
			t.Errorf("%s: error = %+v", target, resp.Error)
		}
	}
}

func TestCoverage_NoCatalogue(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	rec, resp := env.do(t, http.MethodGet, "/api/v1/coverage")
	if rec.Code != http.StatusNotFound || resp.Error == nil || resp.Error.Code != ErrCodeNotFound {
		t.Errorf("got %d %+v", rec.Code, resp.Error)
	}
}

func TestCoverage_CacheInvalidation(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	env.writeCatalogue(t)
	env.do(t, http.MethodGet, "/api/v1/coverage?home=US")

	// Replace the catalogue: the cached answer survives until invalidated.
	cat := models.NewCatalogue([]models.Film{
		{MubiID: 9, Title: "Z", Countries: []string{"JP"}},
	}, models.ModeDeep, time.Now())
	if err := catalogue.Save(env.cfg.Sync.Output, cat); err != nil {
		t.Fatalf("Save: %v", err)
	}

	var got models.CoverageResponse
	_, resp := env.do(t, http.MethodGet, "/api/v1/coverage?home=US")
	decodeData(t, resp, &got)
	if got.TotalFilms != 4 {
		t.Errorf("expected cached total 4, got %d", got.TotalFilms)
	}

	env.h.InvalidateCache()
	_, resp = env.do(t, http.MethodGet, "/api/v1/coverage?home=US")
	decodeData(t, resp, &got)
	if got.TotalFilms != 1 || got.HomeFilms != 0 {
		t.Errorf("expected fresh stats, got %+v", got)
	}
}

func TestPruneCache(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	env.writeCatalogue(t)

	env.do(t, http.MethodGet, "/api/v1/coverage?home=US")
	if n := env.h.PruneCache(); n != 0 {
		t.Errorf("fresh entries pruned: %d", n)
	}

	env.h.cache = cache.New(time.Millisecond)
	env.do(t, http.MethodGet, "/api/v1/coverage?home=US")
	time.Sleep(5 * time.Millisecond)
	// The parsed catalogue and the optimizer result.
	if n := env.h.PruneCache(); n != 2 {
		t.Errorf("PruneCache = %d, want 2", n)
	}
	if keys := env.h.cache.GetStats().TotalKeys; keys != 0 {
		t.Errorf("TotalKeys = %d after prune", keys)
	}
}

func TestClusters(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)

	rec, resp := env.do(t, http.MethodGet, "/api/v1/clusters")
	var empty []models.Cluster
	decodeData(t, resp, &empty)
	if rec.Code != http.StatusOK || len(empty) != 0 {
		t.Fatalf("got %d %v", rec.Code, empty)
	}

	clusters := []models.Cluster{{Leader: "GB", Members: []string{"GB", "IE"}, Count: 10, Hash: "h"}}
	if err := catalogue.SaveClusters(env.cfg.Sync.ClustersPath, clusters); err != nil {
		t.Fatalf("SaveClusters: %v", err)
	}
	env.h.InvalidateCache()

	_, resp = env.do(t, http.MethodGet, "/api/v1/clusters")
	var got []models.Cluster
	decodeData(t, resp, &got)
	if len(got) != 1 || got[0].Leader != "GB" || len(got[0].Members) != 2 {
		t.Errorf("clusters = %+v", got)
	}
}

func TestTriggerSync(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)

	rec, _ := env.do(t, http.MethodPost, "/api/v1/sync")
	if rec.Code != http.StatusAccepted {
		t.Fatalf("status = %d, want 202", rec.Code)
	}
	rec, _ = env.do(t, http.MethodPost, "/api/v1/sync?mode=DEEP")
	if rec.Code != http.StatusAccepted {
		t.Fatalf("status = %d, want 202", rec.Code)
	}
	if len(env.ctrl.triggered) != 2 || env.ctrl.triggered[0] != models.ModeShallow || env.ctrl.triggered[1] != models.ModeDeep {
		t.Errorf("triggered = %v", env.ctrl.triggered)
	}

	rec, _ = env.do(t, http.MethodPost, "/api/v1/sync?mode=full")
	if rec.Code != http.StatusBadRequest {
		t.Errorf("invalid mode status = %d, want 400", rec.Code)
	}

	env.ctrl.busy = true
	rec, resp := env.do(t, http.MethodPost, "/api/v1/sync")
	if rec.Code != http.StatusConflict || resp.Error == nil || resp.Error.Code != ErrCodeConflict {
		t.Errorf("busy: got %d %+v", rec.Code, resp.Error)
	}
}

func TestStatus(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	env.writeCatalogue(t)
	next := time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC)
	env.ctrl.status = models.StatusResponse{Running: true, NextDeep: &next}

	rec, resp := env.do(t, http.MethodGet, "/api/v1/status")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var got models.StatusResponse
	decodeData(t, resp, &got)
	if !got.Running || got.TotalFilms != 4 || got.NextDeep == nil || !got.NextDeep.Equal(next) {
		t.Errorf("status = %+v", got)
	}
}

func TestRouting(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)

	rec, _ := env.do(t, http.MethodGet, "/nope")
	if rec.Code != http.StatusNotFound {
		t.Errorf("unknown route = %d, want 404", rec.Code)
	}
	rec, _ = env.do(t, http.MethodGet, "/api/v1/sync")
	if rec.Code != http.StatusMethodNotAllowed {
		t.Errorf("GET /sync = %d, want 405", rec.Code)
	}

	rec = httptest.NewRecorder()
	env.router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if rec.Code != http.StatusOK {
		t.Errorf("/metrics = %d", rec.Code)
	}
}

func TestRateLimit(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	env.cfg.Server.RateLimitReqs = 2
	env.cfg.Server.RateLimitWindow = time.Minute
	router := NewRouter(env.h, env.cfg.Server)

	var last int
	for i := 0; i < 3; i++ {
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/clusters", nil))
		last = rec.Code
	}
	if last != http.StatusTooManyRequests {
		t.Errorf("third request = %d, want 429", last)
	}
}

func TestSanitizeLogValue(t *testing.T) {
	t.Parallel()

	if got := sanitizeLogValue("a\nb"); got != `a\x0ab` {
		t.Errorf("got %q", got)
	}
}
