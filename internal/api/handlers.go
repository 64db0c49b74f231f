// Reelmap - Streaming Catalogue Sync and Country Coverage Planning
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reelmap

package api

import (
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/tomtom215/reelmap/internal/cache"
	"github.com/tomtom215/reelmap/internal/catalogue"
	"github.com/tomtom215/reelmap/internal/config"
	"github.com/tomtom215/reelmap/internal/countries"
	"github.com/tomtom215/reelmap/internal/coverage"
	"github.com/tomtom215/reelmap/internal/logging"
	"github.com/tomtom215/reelmap/internal/models"
	"github.com/tomtom215/reelmap/internal/sync"
	"github.com/tomtom215/reelmap/internal/validation"
)

// responseCacheTTL bounds how long a parsed file survives when it is
// rewritten by something other than this process (e.g. a CLI run).
const responseCacheTTL = 5 * time.Minute

const (
	catalogueCacheKey = "catalogue"
	clustersCacheKey  = "clusters"
)

// SyncController is the part of *sync.Scheduler the API drives.
type SyncController interface {
	TriggerSync(mode models.SyncMode) error
	Status() models.StatusResponse
}

// Handler serves the API endpoints.
type Handler struct {
	ctrl          SyncController
	cataloguePath string
	clustersPath  string
	defaultHome   string
	defaultMax    int
	table         *countries.Table
	cache         *cache.Cache
	startTime     time.Time
}

// NewHandler creates a Handler reading the files named in cfg.
func NewHandler(cfg *config.Config, ctrl SyncController) *Handler {
	return &Handler{
		ctrl:          ctrl,
		cataloguePath: cfg.Sync.Output,
		clustersPath:  cfg.Sync.ClustersPath,
		defaultHome:   cfg.Coverage.Home,
		defaultMax:    cfg.Coverage.MaxCountries,
		table:         countries.Default(),
		cache:         cache.New(responseCacheTTL),
		startTime:     time.Now(),
	}
}

// InvalidateCache drops every cached file and optimizer result. The
// supervisor wires it to the manager's run-completed callback.
func (h *Handler) InvalidateCache() {
	h.cache.Clear()
}

// PruneCache drops expired entries and returns how many were removed.
// Distinct coverage queries would otherwise accumulate until the next run.
func (h *Handler) PruneCache() int {
	return h.cache.Prune()
}

// Health reports liveness.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	respondSuccess(w, http.StatusOK, map[string]interface{}{
		"status":         "ok",
		"uptime_seconds": int64(time.Since(h.startTime).Seconds()),
	}, time.Now())
}

// Status reports the scheduler state and the last run.
func (h *Handler) Status(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	st := h.ctrl.Status()
	if st.LastRun == nil {
		if cat, err := h.loadCatalogue(); err == nil {
			st.TotalFilms = len(cat.Items)
		}
	}
	respondSuccess(w, http.StatusOK, st, start)
}

// coverageQuery holds the validated coverage parameters.
type coverageQuery struct {
	Home string `validate:"required,country"`
	Max  int    `validate:"gte=0,lte=250"`
}

// Coverage runs the optimizer over the current catalogue.
func (h *Handler) Coverage(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	q := coverageQuery{Home: h.defaultHome, Max: h.defaultMax}
	if raw := r.URL.Query().Get("home"); raw != "" {
		q.Home = strings.ToUpper(strings.TrimSpace(raw))
	}
	if raw := r.URL.Query().Get("max"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			respondError(w, http.StatusBadRequest, ErrCodeValidation, "max must be an integer", nil)
			return
		}
		q.Max = n
	}
	if verr := validation.ValidateStruct(&q); verr != nil {
		respondValidationError(w, verr)
		return
	}

	key := cache.GenerateKey("coverage", q)
	if cached, ok := h.cache.Get(key); ok {
		respondSuccess(w, http.StatusOK, cached, start)
		return
	}

	cat, err := h.loadCatalogue()
	if errors.Is(err, catalogue.ErrNotFound) {
		respondError(w, http.StatusNotFound, ErrCodeNotFound, "no catalogue has been written yet", nil)
		return
	}
	if err != nil {
		respondError(w, http.StatusInternalServerError, ErrCodeInternal, "failed to load catalogue", err)
		return
	}

	m := coverage.FromFilms(cat.Items)
	selected := coverage.SelectCountries(m, q.Home, coverage.Options{
		MaxCountries: q.Max,
		Tier:         h.table.Tier,
	})
	stats := coverage.ComputeStats(m, q.Home, selected)
	resp := models.CoverageResponse{
		Home:            q.Home,
		Countries:       selected,
		TotalFilms:      stats.TotalFilms,
		CoveredFilms:    stats.CoveredFilms,
		HomeFilms:       stats.HomeFilms,
		CoveragePercent: stats.CoveragePercent,
	}
	h.cache.Set(key, resp)

	logging.Ctx(r.Context()).Debug().
		Str("home", q.Home).
		Int("max", q.Max).
		Strs("countries", selected).
		Msg("Coverage computed")
	respondSuccess(w, http.StatusOK, resp, start)
}

// Clusters returns the current clusters. No clusters file yet is an empty
// list.
func (h *Handler) Clusters(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	if cached, ok := h.cache.Get(clustersCacheKey); ok {
		respondSuccess(w, http.StatusOK, cached, start)
		return
	}

	clusters, err := catalogue.LoadClusters(h.clustersPath)
	if errors.Is(err, catalogue.ErrNotFound) {
		clusters = []models.Cluster{}
	} else if err != nil {
		respondError(w, http.StatusInternalServerError, ErrCodeInternal, "failed to load clusters", err)
		return
	}
	if clusters == nil {
		clusters = []models.Cluster{}
	}
	h.cache.Set(clustersCacheKey, clusters)
	respondSuccess(w, http.StatusOK, clusters, start)
}

// TriggerSync queues a sync run. mode defaults to shallow.
func (h *Handler) TriggerSync(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	raw := r.URL.Query().Get("mode")
	if raw == "" {
		raw = string(models.ModeShallow)
	}
	mode, err := models.ParseSyncMode(raw)
	if err != nil {
		respondError(w, http.StatusBadRequest, ErrCodeValidation, err.Error(), nil)
		return
	}

	if err := h.ctrl.TriggerSync(mode); err != nil {
		if errors.Is(err, sync.ErrRunInProgress) {
			respondError(w, http.StatusConflict, ErrCodeConflict, err.Error(), nil)
			return
		}
		respondError(w, http.StatusInternalServerError, ErrCodeInternal, "failed to trigger sync", err)
		return
	}

	logging.Ctx(r.Context()).Info().Str("mode", mode.String()).Msg("Sync triggered via API")
	respondSuccess(w, http.StatusAccepted, map[string]string{
		"mode":   mode.String(),
		"status": "queued",
	}, start)
}

func (h *Handler) loadCatalogue() (*models.Catalogue, error) {
	if cached, ok := h.cache.Get(catalogueCacheKey); ok {
		return cached.(*models.Catalogue), nil
	}
	cat, err := catalogue.Load(h.cataloguePath)
	if err != nil {
		return nil, err
	}
	h.cache.Set(catalogueCacheKey, cat)
	return cat, nil
}
