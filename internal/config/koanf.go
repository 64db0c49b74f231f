// Reelmap - Streaming Catalogue Sync and Country Coverage Planning
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reelmap

package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"

	"github.com/tomtom215/reelmap/internal/countries"
	"github.com/tomtom215/reelmap/internal/validation"
)

// DefaultConfigPaths lists the paths where config files are searched in order of priority.
// The first file found will be used.
var DefaultConfigPaths = []string{
	"reelmap.yaml",
	"reelmap.yml",
	"/etc/reelmap/config.yaml",
	"/etc/reelmap/config.yml",
}

// ConfigPathEnvVar is the environment variable that can override the config file path.
const ConfigPathEnvVar = "CONFIG_PATH"

// EnvPrefix prefixes every environment variable read by Load.
const EnvPrefix = "REELMAP_"

// defaultConfig returns a Config struct with production defaults.
func defaultConfig() *Config {
	return &Config{
		Provider: ProviderConfig{
			BaseURL:           "https://api.mubi.com/v4",
			UserAgent:         "Mozilla/5.0 (Windows NT 10.0; Win64; x64; rv:125.0) Gecko/20100101 Firefox/125.0",
			Timeout:           15 * time.Second,
			RequestsPerMinute: 60,
			Burst:             1,
		},
		Fetch: FetchConfig{
			Workers:    2, // kept small to respect upstream throttling
			MaxPages:   500,
			PageDelay:  500 * time.Millisecond,
			JitterMax:  3 * time.Second,
			PageSize:   0, // provider default
			SortOrder:  "title",
			Playable:   true,
			SkipSeries: true,

			MaxAttempts: 8,
			BaseDelay:   time.Second,
			Multiplier:  2,
			MaxDelay:    time.Minute,

			RetryAfterCap: 15 * time.Minute,

			BreakerMinRequests:  10,
			BreakerFailureRatio: 0.6,
			BreakerTimeout:      2 * time.Minute,
			BreakerInterval:     time.Minute,
		},
		Sync: SyncConfig{
			Mode:                "deep",
			Output:              "films.json",
			ClustersPath:        "clusters.json",
			CoveragePath:        "",
			Countries:           []string{},
			DropEmpty:           true,
			MaxShallowCountries: 0,
			BackupDir:           "",
			BackupKeep:          7,
			DeepInterval:        7 * 24 * time.Hour,
			ShallowInterval:     24 * time.Hour,
			RunOnStart:          false,
			RunTimeout:          3 * time.Hour,
		},
		Validation: validation.Thresholds{
			MinTotalFilms:     500,
			MaxMissingPercent: 5.0,
			RequiredFields:    []string{"title", "year"},
			CriticalCountries: countries.Default().Critical(),
		},
		Clusters: ClustersConfig{
			Threshold: 0.98,
		},
		Coverage: CoverageConfig{
			Home:         "US",
			MaxCountries: 0,
		},
		Cache: CacheConfig{
			Enabled: false,
			Dir:     "cache",
			TTL:     6 * time.Hour,
		},
		Ratings: RatingsConfig{
			Enabled:     false,
			HistoryPath: "",
			DefaultC:    6.9,
		},
		Enrich: EnrichConfig{
			APIKey:            "",
			BaseURL:           "https://api.themoviedb.org/3",
			Timeout:           10 * time.Second,
			Workers:           10,
			RequestsPerMinute: 240,
			Burst:             10,
			MinScore:          80,
		},
		Database: DatabaseConfig{
			Path:      "",
			MaxMemory: "1GB",
			Threads:   0, // 0 = DuckDB default
		},
		Server: ServerConfig{
			Host:            "0.0.0.0",
			Port:            8642,
			ReadTimeout:     15 * time.Second,
			WriteTimeout:    30 * time.Second,
			ShutdownTimeout: 15 * time.Second,
			CORSOrigins:     []string{"*"},
			RateLimitReqs:   100,
			RateLimitWindow: time.Minute,
		},
		Metrics: MetricsConfig{
			TextfilePath: "",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Caller: false,
		},
	}
}

// Defaults returns the built-in configuration without reading files or the
// environment.
func Defaults() *Config {
	return defaultConfig()
}

// LoadWithKoanf loads configuration using Koanf v2 with layered sources:
//  1. Defaults: built-in values
//  2. Config File: optional YAML config file (if exists)
//  3. Environment Variables: REELMAP_* overrides
//
// Precedence is ENV > File > Defaults.
func LoadWithKoanf() (*Config, error) {
	return LoadFile(findConfigFile())
}

// LoadFile is LoadWithKoanf with an explicit config file. An empty path
// skips the file layer.
func LoadFile(configPath string) (*Config, error) {
	k := koanf.New(".")

	// Layer 1: Load defaults from struct
	if err := k.Load(structs.Provider(defaultConfig(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	// Layer 2: Load config file (optional)
	if configPath != "" {
		if err := k.Load(file.Provider(configPath), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", configPath, err)
		}
	}

	// Layer 3: Load environment variables (highest priority)
	if err := k.Load(env.Provider(EnvPrefix, ".", envTransformFunc), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	// Post-process slice fields from comma-separated strings
	if err := processSliceFields(k); err != nil {
		return nil, fmt.Errorf("failed to process slice fields: %w", err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}

	cfg.normalize()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// findConfigFile searches for a config file in the default paths.
// Returns the path to the first file found, or empty string if none found.
func findConfigFile() string {
	if envPath := os.Getenv(ConfigPathEnvVar); envPath != "" {
		if _, err := os.Stat(envPath); err == nil {
			return envPath
		}
	}

	for _, path := range DefaultConfigPaths {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}

	return ""
}

// sliceConfigPaths defines which config paths should be parsed as comma-separated slices
var sliceConfigPaths = []string{
	"sync.countries",
	"validation.required_fields",
	"validation.critical_countries",
	"server.cors_origins",
}

// processSliceFields converts comma-separated string values to slices for known slice fields.
// Env vars come in as strings, but the config expects slices.
func processSliceFields(k *koanf.Koanf) error {
	for _, path := range sliceConfigPaths {
		val := k.Get(path)
		if val == nil {
			continue
		}

		// If it's already a slice (from YAML file), skip
		if _, ok := val.([]interface{}); ok {
			continue
		}
		if _, ok := val.([]string); ok {
			continue
		}

		strVal, ok := val.(string)
		if !ok || strVal == "" {
			continue
		}
		parts := strings.Split(strVal, ",")
		trimmed := make([]string, 0, len(parts))
		for _, p := range parts {
			p = strings.TrimSpace(p)
			if p != "" {
				trimmed = append(trimmed, p)
			}
		}
		if len(trimmed) > 0 {
			if err := k.Set(path, trimmed); err != nil {
				return fmt.Errorf("failed to set %s: %w", path, err)
			}
		}
	}
	return nil
}

// envTransformFunc maps REELMAP_<SECTION>_<KEY> to section.key.
//
// Examples:
//   - REELMAP_FETCH_MAX_ATTEMPTS -> fetch.max_attempts
//   - REELMAP_SYNC_COUNTRIES -> sync.countries
//   - REELMAP_LOGGING_LEVEL -> logging.level
//
// Unknown sections map to "" so stray variables are ignored.
func envTransformFunc(key string) string {
	key = strings.ToLower(strings.TrimPrefix(key, EnvPrefix))
	section, rest, ok := strings.Cut(key, "_")
	if !ok || rest == "" {
		return ""
	}
	if !knownSections[section] {
		return ""
	}
	return section + "." + rest
}

var knownSections = map[string]bool{
	"provider":   true,
	"fetch":      true,
	"sync":       true,
	"validation": true,
	"clusters":   true,
	"coverage":   true,
	"cache":      true,
	"ratings":    true,
	"enrich":     true,
	"database":   true,
	"server":     true,
	"metrics":    true,
	"logging":    true,
}

// normalize upper-cases country codes so validation sees canonical values.
func (c *Config) normalize() {
	c.Sync.Countries = normalizeCodes(c.Sync.Countries)
	c.Validation.CriticalCountries = normalizeCodes(c.Validation.CriticalCountries)
	if code, ok := countries.Normalize(c.Coverage.Home); ok {
		c.Coverage.Home = code
	}
	c.Sync.Mode = strings.ToLower(strings.TrimSpace(c.Sync.Mode))
	c.Logging.Level = strings.ToLower(c.Logging.Level)
	c.Logging.Format = strings.ToLower(c.Logging.Format)
}

func normalizeCodes(codes []string) []string {
	out := make([]string, 0, len(codes))
	for _, raw := range codes {
		if code, ok := countries.Normalize(raw); ok {
			out = append(out, code)
		} else {
			// keep it so validation reports the bad value
			out = append(out, raw)
		}
	}
	return out
}
