// Reelmap - Streaming Catalogue Sync and Country Coverage Planning
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reelmap

// Package config loads Reelmap configuration.
//
// Configuration Loading Order (Koanf v2):
//  1. Defaults: built-in values from defaultConfig()
//  2. Config File: optional YAML file (CONFIG_PATH or DefaultConfigPaths)
//  3. Environment Variables: REELMAP_<SECTION>_<KEY>, e.g.
//     REELMAP_FETCH_MAX_ATTEMPTS -> fetch.max_attempts
//
// CLI flags are applied by cmd/reelmap after Load and before use.
//
// Example:
//
//	cfg, err := config.Load()
//	if err != nil {
//	    return err
//	}
//	client := sync.NewClient(cfg.Provider, cfg.Fetch, nil)
package config

import (
	"time"

	"github.com/tomtom215/reelmap/internal/validation"
)

// Config holds all application configuration.
type Config struct {
	Provider   ProviderConfig        `koanf:"provider"`
	Fetch      FetchConfig           `koanf:"fetch"`
	Sync       SyncConfig            `koanf:"sync"`
	Validation validation.Thresholds `koanf:"validation"`
	Clusters   ClustersConfig        `koanf:"clusters"`
	Coverage   CoverageConfig        `koanf:"coverage"`
	Cache      CacheConfig           `koanf:"cache"`
	Ratings    RatingsConfig         `koanf:"ratings"`
	Enrich     EnrichConfig          `koanf:"enrich"`
	Database   DatabaseConfig        `koanf:"database"`
	Server     ServerConfig          `koanf:"server"`
	Metrics    MetricsConfig         `koanf:"metrics"`
	Logging    LoggingConfig         `koanf:"logging"`
}

// ProviderConfig describes the upstream catalogue API.
type ProviderConfig struct {
	BaseURL   string        `koanf:"base_url" validate:"required,url"`
	UserAgent string        `koanf:"user_agent" validate:"required"`
	Timeout   time.Duration `koanf:"timeout" validate:"gt=0"`

	// RequestsPerMinute is shared by every fetch worker.
	RequestsPerMinute int `koanf:"requests_per_minute" validate:"gt=0"`
	Burst             int `koanf:"burst" validate:"gte=1"`
}

// FetchConfig controls per-country paging, retries and the circuit breaker.
type FetchConfig struct {
	Workers    int           `koanf:"workers" validate:"gte=1,lte=16"`
	MaxPages   int           `koanf:"max_pages" validate:"gte=1"`
	PageDelay  time.Duration `koanf:"page_delay" validate:"gte=0"`
	JitterMax  time.Duration `koanf:"jitter_max" validate:"gte=0"`
	PageSize   int           `koanf:"page_size" validate:"gte=0"`
	SortOrder  string        `koanf:"sort_order"`
	Playable   bool          `koanf:"playable"`
	SkipSeries bool          `koanf:"skip_series"`

	MaxAttempts int           `koanf:"max_attempts" validate:"gte=1,lte=20"`
	BaseDelay   time.Duration `koanf:"base_delay" validate:"gt=0"`
	Multiplier  float64       `koanf:"multiplier" validate:"gte=1"`
	MaxDelay    time.Duration `koanf:"max_delay" validate:"gt=0"`

	// RetryAfterCap bounds a provider's Retry-After on 429. It is separate
	// from MaxDelay so a requested pause is honoured in full.
	RetryAfterCap time.Duration `koanf:"retry_after_cap" validate:"gte=0"`

	BreakerMinRequests  uint32        `koanf:"breaker_min_requests"`
	BreakerFailureRatio float64       `koanf:"breaker_failure_ratio" validate:"gt=0,lte=1"`
	BreakerTimeout      time.Duration `koanf:"breaker_timeout" validate:"gt=0"`
	BreakerInterval     time.Duration `koanf:"breaker_interval" validate:"gte=0"`
}

// SyncConfig controls run planning, file locations and the serve-mode schedule.
type SyncConfig struct {
	Mode         string   `koanf:"mode" validate:"oneof=deep shallow"`
	Output       string   `koanf:"output" validate:"required"`
	ClustersPath string   `koanf:"clusters_path" validate:"required"`
	CoveragePath string   `koanf:"coverage_path"`
	Countries    []string `koanf:"countries" validate:"dive,country"`
	DropEmpty    bool     `koanf:"drop_empty"`

	// MaxShallowCountries caps the leader plan of a shallow run, home included.
	MaxShallowCountries int `koanf:"max_shallow_countries" validate:"gte=0"`

	BackupDir  string `koanf:"backup_dir"`
	BackupKeep int    `koanf:"backup_keep" validate:"gte=0"`

	DeepInterval    time.Duration `koanf:"deep_interval" validate:"gte=0"`
	ShallowInterval time.Duration `koanf:"shallow_interval" validate:"gte=0"`
	RunOnStart      bool          `koanf:"run_on_start"`
	RunTimeout      time.Duration `koanf:"run_timeout" validate:"gte=0"`
}

// ClustersConfig controls catalogue clustering on deep runs.
type ClustersConfig struct {
	Threshold float64 `koanf:"threshold" validate:"gt=0,lte=1"`
}

// CoverageConfig holds defaults for country selection.
type CoverageConfig struct {
	Home         string `koanf:"home" validate:"required,country"`
	MaxCountries int    `koanf:"max_countries" validate:"gte=0"`
}

// CacheConfig controls the badger page-response cache.
type CacheConfig struct {
	Enabled bool          `koanf:"enabled"`
	Dir     string        `koanf:"dir"`
	TTL     time.Duration `koanf:"ttl" validate:"gte=0"`
}

// RatingsConfig controls Bayesian rating post-processing after a sync.
type RatingsConfig struct {
	Enabled     bool    `koanf:"enabled"`
	HistoryPath string  `koanf:"history_path"`
	DefaultC    float64 `koanf:"default_c" validate:"gte=0,lte=10"`
}

// EnrichConfig controls IMDb/TMDB identifier lookups against TMDB. The
// enrich command refuses to run without an API key.
type EnrichConfig struct {
	APIKey  string        `koanf:"api_key"`
	BaseURL string        `koanf:"base_url" validate:"required,url"`
	Timeout time.Duration `koanf:"timeout" validate:"gt=0"`
	Workers int           `koanf:"workers" validate:"gte=1,lte=32"`

	RequestsPerMinute int `koanf:"requests_per_minute" validate:"gt=0"`
	Burst             int `koanf:"burst" validate:"gte=1"`

	// MinScore is the match confidence (0-100) a candidate needs.
	MinScore int `koanf:"min_score" validate:"gte=0,lte=100"`
}

// DatabaseConfig controls the DuckDB analytical export. An empty path
// disables the export.
type DatabaseConfig struct {
	Path      string `koanf:"path"`
	MaxMemory string `koanf:"max_memory"`
	Threads   int    `koanf:"threads" validate:"gte=0"`
}

// ServerConfig holds serve-mode HTTP settings.
type ServerConfig struct {
	Host            string        `koanf:"host"`
	Port            int           `koanf:"port"`
	ReadTimeout     time.Duration `koanf:"read_timeout" validate:"gt=0"`
	WriteTimeout    time.Duration `koanf:"write_timeout" validate:"gt=0"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout" validate:"gt=0"`
	CORSOrigins     []string      `koanf:"cors_origins"`
	RateLimitReqs   int           `koanf:"rate_limit_reqs" validate:"gte=0"`
	RateLimitWindow time.Duration `koanf:"rate_limit_window" validate:"gte=0"`
}

// MetricsConfig controls metric export for one-shot runs.
type MetricsConfig struct {
	TextfilePath string `koanf:"textfile_path"`
}

// LoggingConfig mirrors logging.Config.
type LoggingConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
	Caller bool   `koanf:"caller"`
}

// Load loads configuration from defaults, an optional YAML file and the
// environment. See LoadWithKoanf.
func Load() (*Config, error) {
	return LoadWithKoanf()
}
