// Reelmap - Streaming Catalogue Sync and Country Coverage Planning
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reelmap

package config

import (
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
	"time"
)

func TestDefaultConfigIsValid(t *testing.T) {
	cfg := defaultConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config should be valid: %v", err)
	}
	if cfg.Fetch.MaxAttempts != 8 || cfg.Fetch.BaseDelay != time.Second || cfg.Fetch.MaxDelay != time.Minute || cfg.Fetch.RetryAfterCap != 15*time.Minute {
		t.Errorf("unexpected retry defaults: %+v", cfg.Fetch)
	}
	if cfg.Clusters.Threshold != 0.98 {
		t.Errorf("threshold = %v, want 0.98", cfg.Clusters.Threshold)
	}
	if !cfg.Sync.DropEmpty {
		t.Error("drop_empty should default to true")
	}
}

func TestEnvTransformFunc(t *testing.T) {
	tests := []struct {
		key  string
		want string
	}{
		{"REELMAP_FETCH_MAX_ATTEMPTS", "fetch.max_attempts"},
		{"REELMAP_SYNC_COUNTRIES", "sync.countries"},
		{"REELMAP_LOGGING_LEVEL", "logging.level"},
		{"REELMAP_ENRICH_API_KEY", "enrich.api_key"},
		{"REELMAP_UNKNOWN_THING", ""},
		{"REELMAP_FETCH", ""},
	}
	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			if got := envTransformFunc(tt.key); got != tt.want {
				t.Errorf("envTransformFunc(%q) = %q, want %q", tt.key, got, tt.want)
			}
		})
	}
}

func TestLoadFile_EnvOverridesFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "reelmap.yaml")
	yaml := `
fetch:
  max_attempts: 4
  workers: 3
sync:
  mode: shallow
  countries: [us, gb]
coverage:
  home: de
`
	if err := os.WriteFile(path, []byte(yaml), 0o600); err != nil {
		t.Fatal(err)
	}

	t.Setenv("REELMAP_FETCH_MAX_ATTEMPTS", "6")
	t.Setenv("REELMAP_SERVER_CORS_ORIGINS", "https://a.example, https://b.example")
	t.Setenv("REELMAP_FETCH_PAGE_DELAY", "250ms")

	cfg, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile: %v", err)
	}

	if cfg.Fetch.MaxAttempts != 6 {
		t.Errorf("max_attempts = %d, want env value 6", cfg.Fetch.MaxAttempts)
	}
	if cfg.Fetch.Workers != 3 {
		t.Errorf("workers = %d, want file value 3", cfg.Fetch.Workers)
	}
	if cfg.Fetch.PageDelay != 250*time.Millisecond {
		t.Errorf("page_delay = %s, want 250ms", cfg.Fetch.PageDelay)
	}
	if cfg.Sync.Mode != "shallow" {
		t.Errorf("mode = %q", cfg.Sync.Mode)
	}
	if !reflect.DeepEqual(cfg.Sync.Countries, []string{"US", "GB"}) {
		t.Errorf("countries = %v, want normalized [US GB]", cfg.Sync.Countries)
	}
	if cfg.Coverage.Home != "DE" {
		t.Errorf("home = %q, want DE", cfg.Coverage.Home)
	}
	if !reflect.DeepEqual(cfg.Server.CORSOrigins, []string{"https://a.example", "https://b.example"}) {
		t.Errorf("cors origins = %v", cfg.Server.CORSOrigins)
	}
}

func TestLoadFile_Invalid(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
		want string
	}{
		{"bad mode", map[string]string{"REELMAP_SYNC_MODE": "medium"}, "Mode"},
		{"bad country", map[string]string{"REELMAP_SYNC_COUNTRIES": "US,U1"}, "country"},
		{"bad log level", map[string]string{"REELMAP_LOGGING_LEVEL": "loud"}, "logging.level"},
		{"bad port", map[string]string{"REELMAP_SERVER_PORT": "70000"}, "server.port"},
		{"delay bounds", map[string]string{"REELMAP_FETCH_MAX_DELAY": "100ms"}, "max_delay"},
		{"retry-after cap below max delay", map[string]string{"REELMAP_FETCH_RETRY_AFTER_CAP": "30s"}, "retry_after_cap"},
		{"cache without dir", map[string]string{"REELMAP_CACHE_ENABLED": "true", "REELMAP_CACHE_DIR": ""}, "cache.dir"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			_, err := LoadFile("")
			if err == nil {
				t.Fatal("expected an error")
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("error %q does not mention %q", err, tt.want)
			}
		})
	}
}

func TestFindConfigFile_EnvPath(t *testing.T) {
	path := filepath.Join(t.TempDir(), "custom.yaml")
	if err := os.WriteFile(path, []byte("logging:\n  level: debug\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Setenv(ConfigPathEnvVar, path)

	if got := findConfigFile(); got != path {
		t.Errorf("findConfigFile = %q, want %q", got, path)
	}

	cfg, err := LoadWithKoanf()
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Logging.Level != "debug" {
		t.Errorf("level = %q, want debug", cfg.Logging.Level)
	}
}

func TestValidateBaseURL(t *testing.T) {
	t.Parallel()

	tests := []struct {
		url     string
		wantErr bool
	}{
		{"https://api.mubi.com/v4", false},
		{"http://127.0.0.1:8080", false},
		{"ftp://example.com", true},
		{"https://", true},
		{"https://example.com/v4?x=1", true},
		{"https://example.com/v4#top", true},
		{"api.mubi.com", true},
	}
	for _, tt := range tests {
		err := validateBaseURL(tt.url)
		if (err != nil) != tt.wantErr {
			t.Errorf("validateBaseURL(%q) error = %v, wantErr %v", tt.url, err, tt.wantErr)
		}
	}
}
