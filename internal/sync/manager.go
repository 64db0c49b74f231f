// Reelmap - Streaming Catalogue Sync and Country Coverage Planning
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reelmap

/*
manager.go - Sync Run Orchestration

Manager runs one end-to-end sync:

 1. Load the previous catalogue and clusters (both optional)
 2. Plan the countries to query (deep: all, shallow: optimizer over leaders)
 3. Fetch every country through the bounded worker pool
 4. Merge all results in one pass (deep resets/prunes, shallow unions)
 5. Optional Bayesian ratings, then integrity validation
 6. Back up and atomically write the catalogue
 7. Deep only: recompute clusters unless a country failed
 8. Optional coverage index and DuckDB export

Thread Safety:
  - syncMu: at most one Run at a time; a concurrent Run gets ErrRunInProgress
  - mu: protects running and lastResult
*/

//nolint:staticcheck // File documentation, not package doc
package sync

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/tomtom215/reelmap/internal/catalogue"
	"github.com/tomtom215/reelmap/internal/clustering"
	"github.com/tomtom215/reelmap/internal/config"
	"github.com/tomtom215/reelmap/internal/countries"
	"github.com/tomtom215/reelmap/internal/logging"
	"github.com/tomtom215/reelmap/internal/metrics"
	"github.com/tomtom215/reelmap/internal/models"
	"github.com/tomtom215/reelmap/internal/ratings"
	"github.com/tomtom215/reelmap/internal/validation"
)

// Exporter receives the catalogue and clusters after a successful write.
type Exporter interface {
	Export(ctx context.Context, cat *models.Catalogue, clusters []models.Cluster) error
}

// RunOptions overrides configuration for a single run. Zero values fall
// back to the manager's config.
type RunOptions struct {
	Mode         models.SyncMode
	Output       string
	ClustersPath string
	CoveragePath string

	// InputPath is the previous catalogue. Defaults to Output.
	InputPath string

	Countries   []string
	Home        string
	MetricsFile string
}

// Manager orchestrates sync runs.
type Manager struct {
	cfg      *config.Config
	fetcher  *Fetcher
	table    *countries.Table
	exporter Exporter
	now      func() time.Time

	syncMu      sync.Mutex
	mu          sync.RWMutex
	running     bool
	lastResult  *models.RunResult
	onCompleted func(*models.RunResult)
}

// ManagerOption configures a Manager.
type ManagerOption func(*Manager)

// WithExporter exports every written catalogue.
func WithExporter(e Exporter) ManagerOption {
	return func(m *Manager) { m.exporter = e }
}

// WithCountryTable replaces the embedded country table.
func WithCountryTable(t *countries.Table) ManagerOption {
	return func(m *Manager) { m.table = t }
}

// WithClock sets the time source used for timestamps.
func WithClock(now func() time.Time) ManagerOption {
	return func(m *Manager) { m.now = now }
}

// NewManager creates a sync manager fetching through source.
func NewManager(cfg *config.Config, source PageSource, opts ...ManagerOption) *Manager {
	m := &Manager{
		cfg:     cfg,
		fetcher: NewFetcher(source, cfg.Fetch),
		table:   countries.Default(),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}

	logging.Info().
		Str("mode", cfg.Sync.Mode).
		Int("workers", cfg.Fetch.Workers).
		Int("max_pages", cfg.Fetch.MaxPages).
		Bool("drop_empty", cfg.Sync.DropEmpty).
		Bool("ratings", cfg.Ratings.Enabled).
		Msg("Sync manager config loaded")

	return m
}

// SetOnRunCompleted registers a callback invoked after every finished run,
// including failed ones.
func (m *Manager) SetOnRunCompleted(callback func(*models.RunResult)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.onCompleted = callback
}

// Running reports whether a run is in progress.
func (m *Manager) Running() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.running
}

// LastResult returns the most recent run result, or nil.
func (m *Manager) LastResult() *models.RunResult {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.lastResult
}

// Config returns the manager's configuration.
func (m *Manager) Config() *config.Config {
	return m.cfg
}

func (m *Manager) withDefaults(opts RunOptions) (RunOptions, error) {
	if opts.Mode == "" {
		mode, err := models.ParseSyncMode(m.cfg.Sync.Mode)
		if err != nil {
			return opts, err
		}
		opts.Mode = mode
	}
	if opts.Output == "" {
		opts.Output = m.cfg.Sync.Output
	}
	if opts.ClustersPath == "" {
		opts.ClustersPath = m.cfg.Sync.ClustersPath
	}
	if opts.CoveragePath == "" {
		opts.CoveragePath = m.cfg.Sync.CoveragePath
	}
	if opts.InputPath == "" {
		opts.InputPath = opts.Output
	}
	if len(opts.Countries) == 0 {
		opts.Countries = m.cfg.Sync.Countries
	}
	if opts.Home == "" {
		opts.Home = m.cfg.Coverage.Home
	}
	if opts.MetricsFile == "" {
		opts.MetricsFile = m.cfg.Metrics.TextfilePath
	}
	if opts.Output == "" {
		return opts, errors.New("no output path configured")
	}
	return opts, nil
}

// Run performs one sync. It returns ErrRunInProgress if another run holds
// the manager, and ErrNoFilms (with nothing written) if every country came
// back empty or failed. Any other outcome returns a RunResult whose Errors
// decide the exit status.
func (m *Manager) Run(ctx context.Context, opts RunOptions) (*models.RunResult, error) {
	if !m.syncMu.TryLock() {
		return nil, ErrRunInProgress
	}
	defer m.syncMu.Unlock()

	opts, err := m.withDefaults(opts)
	if err != nil {
		return nil, err
	}

	m.setRunning(true)
	defer m.setRunning(false)

	runID := logging.GenerateRunID()
	ctx = logging.ContextWithRunID(ctx, runID)
	log := logging.Ctx(ctx).With().Str("mode", opts.Mode.String()).Logger()

	res := &models.RunResult{
		RunID:     runID,
		Mode:      opts.Mode,
		StartedAt: m.now().UTC(),
		Errors:    []string{},
	}

	prev, err := loadPrevious(opts.InputPath)
	if err != nil {
		return m.finish(ctx, res, opts, "fatal", 0), err
	}
	prevClusters, err := catalogue.LoadClusters(opts.ClustersPath)
	if err != nil {
		if !errors.Is(err, catalogue.ErrNotFound) {
			log.Warn().Err(err).Str("path", opts.ClustersPath).Msg("Ignoring unreadable clusters file")
		}
		prevClusters = nil
	}

	plan := BuildPlan(PlanInput{
		Mode:         opts.Mode,
		Previous:     prev,
		Clusters:     prevClusters,
		Home:         opts.Home,
		Countries:    opts.Countries,
		MaxCountries: m.cfg.Sync.MaxShallowCountries,
		Table:        m.table,
	})
	for _, bad := range plan.Invalid {
		log.Warn().Str("country", bad).Msg("Dropping invalid country code from plan")
	}
	if len(plan.Countries) == 0 {
		return m.finish(ctx, res, opts, "fatal", 0), errors.New("no valid countries to query")
	}
	log.Info().
		Strs("countries", plan.Countries).
		Str("reason", plan.Reason).
		Int("leaders_with_followers", len(plan.Attribution)).
		Msg("Sync plan ready")

	results := m.fetcher.FetchAll(ctx, plan.Countries, m.cfg.Fetch.Workers)
	if err := ctx.Err(); err != nil {
		for i := range results {
			res.Countries = append(res.Countries, results[i].Report())
		}
		return m.finish(ctx, res, opts, "fatal", 0), fmt.Errorf("sync aborted: %w", err)
	}

	fetched := make(map[string][]models.Film, len(results))
	counts := make(map[string]int, len(results))
	failed, total := 0, 0
	for i := range results {
		r := &results[i]
		res.Countries = append(res.Countries, r.Report())
		if r.Err != nil {
			failed++
			res.Errors = append(res.Errors, (&CountryError{Country: r.Country, Err: r.Err}).Error())
			continue
		}
		fetched[r.Country] = r.Films
		counts[r.Country] = len(r.Films)
		total += len(r.Films)
	}

	if total == 0 {
		log.Error().Int("failed_countries", failed).Msg("No films fetched from any country, nothing written")
		return m.finish(ctx, res, opts, "fatal", 0), ErrNoFilms
	}

	var previousItems []models.Film
	if prev != nil {
		previousItems = prev.Items
	}
	merged := catalogue.Merge(previousItems, fetched, opts.Mode, catalogue.MergeOptions{
		DropEmpty:   m.cfg.Sync.DropEmpty,
		Attribution: plan.Attribution,
	})
	res.Merge = merged.Stats

	cat := models.NewCatalogue(merged.Films, opts.Mode, m.now())
	cat.Meta.RunID = runID
	cat.Meta.CountriesQueried = sortedCopy(plan.Countries)
	if prev != nil {
		cat.BayesStats = prev.BayesStats
	}
	metrics.RecordMerge(merged.Stats.Added, merged.Stats.Updated, merged.Stats.Pruned,
		merged.Stats.DroppedEmpty, merged.Stats.Untouched, len(cat.Items))
	log.Info().
		Int("added", merged.Stats.Added).
		Int("updated", merged.Stats.Updated).
		Int("pruned", merged.Stats.Pruned).
		Int("dropped_empty", merged.Stats.DroppedEmpty).
		Int("untouched", merged.Stats.Untouched).
		Int("total", len(cat.Items)).
		Msg("Catalogue merged")

	if m.cfg.Ratings.Enabled {
		m.applyRatings(ctx, cat)
	}

	violations := validation.Integrity(cat.Items, counts, plan.Countries, m.cfg.Validation)
	for _, v := range violations {
		log.Error().Str("violation", v).Msg("Integrity check failed")
	}
	res.Errors = append(res.Errors, violations...)

	if m.cfg.Sync.BackupDir != "" {
		if dest, err := catalogue.Backup(opts.Output, m.cfg.Sync.BackupDir, m.cfg.Sync.BackupKeep, m.now()); err != nil {
			log.Warn().Err(err).Msg("Catalogue backup failed")
		} else if dest != "" {
			log.Debug().Str("backup", dest).Msg("Previous catalogue backed up")
		}
	}
	if err := catalogue.Save(opts.Output, cat); err != nil {
		return m.finish(ctx, res, opts, "fatal", len(violations)), fmt.Errorf("save catalogue: %w", err)
	}
	res.Catalogue = cat
	res.Written = true
	log.Info().Str("path", opts.Output).Int("films", len(cat.Items)).Msg("Catalogue written")

	res.Clusters = prevClusters
	if opts.Mode == models.ModeDeep {
		if failed > 0 {
			log.Warn().Int("failed_countries", failed).Msg("Skipping clustering, incomplete deep data")
		} else {
			clusters, err := m.recluster(ctx, cat, prevClusters, opts.ClustersPath)
			if err != nil {
				res.Errors = append(res.Errors, err.Error())
			} else {
				res.Clusters = clusters
			}
		}
	}

	if opts.CoveragePath != "" {
		if err := catalogue.SaveCoverageIndex(opts.CoveragePath, cat); err != nil {
			res.Errors = append(res.Errors, fmt.Sprintf("coverage index: %v", err))
		}
	}

	if m.exporter != nil {
		if err := m.exporter.Export(ctx, cat, res.Clusters); err != nil {
			log.Error().Err(err).Msg("Export failed")
			res.Errors = append(res.Errors, fmt.Sprintf("export: %v", err))
		}
	}

	status := "success"
	if res.Failed() {
		status = "failed"
	}
	return m.finish(ctx, res, opts, status, len(violations)), nil
}

func (m *Manager) applyRatings(ctx context.Context, cat *models.Catalogue) {
	log := logging.Ctx(ctx)
	history, err := ratings.LoadHistory(m.cfg.Ratings.HistoryPath)
	if err != nil {
		log.Warn().Err(err).Str("path", m.cfg.Ratings.HistoryPath).Msg("Ignoring unreadable ratings history")
	}
	r := ratings.Apply(cat, ratings.Options{DefaultC: m.cfg.Ratings.DefaultC, History: history})
	log.Info().
		Bool("warm_start", r.WarmStart).
		Float64("C", r.Used.GlobalMeanC).
		Float64("m", r.Used.MubiConfidenceM).
		Int("rated", r.Rated).
		Int("unrated", r.Unrated).
		Msg("Bayesian ratings applied")
}

func (m *Manager) recluster(ctx context.Context, cat *models.Catalogue, previous []models.Cluster, path string) ([]models.Cluster, error) {
	log := logging.Ctx(ctx)
	clusters, err := clustering.Detect(catalogue.CountrySnapshots(cat.Items), clustering.Options{
		Threshold:        m.cfg.Clusters.Threshold,
		PreferredLeaders: m.table.Critical(),
	})
	if err != nil {
		return nil, fmt.Errorf("clustering: %w", err)
	}
	for _, c := range clustering.Diff(previous, clusters) {
		log.Info().Str("leader", c.Leader).Str("change", c.Kind).Msg("Cluster changed")
	}
	if err := catalogue.SaveClusters(path, clusters); err != nil {
		return nil, fmt.Errorf("save clusters: %w", err)
	}
	metrics.Clusters.Set(float64(len(clusters)))
	log.Info().Int("clusters", len(clusters)).Str("path", path).Msg("Clusters written")
	return clusters, nil
}

func (m *Manager) finish(ctx context.Context, res *models.RunResult, opts RunOptions, status string, violations int) *models.RunResult {
	res.FinishedAt = m.now().UTC()
	duration := res.FinishedAt.Sub(res.StartedAt)
	metrics.RecordSyncRun(res.Mode.String(), status, duration, violations)

	if opts.MetricsFile != "" {
		if err := metrics.WriteTextfile(opts.MetricsFile); err != nil {
			logging.Ctx(ctx).Warn().Err(err).Str("path", opts.MetricsFile).Msg("Failed to write metrics textfile")
		}
	}

	logging.Ctx(ctx).Info().
		Str("status", status).
		Int("films", res.TotalCount()).
		Int("errors", len(res.Errors)).
		Dur("duration", duration).
		Msg("Sync run finished")

	m.mu.Lock()
	m.lastResult = res
	callback := m.onCompleted
	m.mu.Unlock()
	if callback != nil {
		callback(res)
	}
	return res
}

func (m *Manager) setRunning(v bool) {
	m.mu.Lock()
	m.running = v
	m.mu.Unlock()
}

// loadPrevious returns nil for a missing catalogue. A present but unreadable
// catalogue is an error.
func loadPrevious(path string) (*models.Catalogue, error) {
	cat, err := catalogue.Load(path)
	if err != nil {
		if errors.Is(err, catalogue.ErrNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("load previous catalogue: %w", err)
	}
	return cat, nil
}

func sortedCopy(in []string) []string {
	out := append([]string(nil), in...)
	sort.Strings(out)
	return out
}
