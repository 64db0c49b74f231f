// Reelmap - Streaming Catalogue Sync and Country Coverage Planning
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reelmap

package logging

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"testing"

	"github.com/rs/zerolog"
)

func TestDefaultConfig(t *testing.T) {
	t.Parallel()

	cfg := DefaultConfig()
	if cfg.Level != "info" {
		t.Errorf("expected default level 'info', got '%s'", cfg.Level)
	}
	if cfg.Format != "json" {
		t.Errorf("expected default format 'json', got '%s'", cfg.Format)
	}
	if !cfg.Timestamp {
		t.Error("expected default timestamp to be true")
	}
}

func TestInit(t *testing.T) {
	var buf bytes.Buffer
	Init(Config{Level: "debug", Format: "json", Output: &buf})
	defer Init(DefaultConfig())

	Info().Str("country", "US").Msg("country fetched")

	output := buf.String()
	if !strings.Contains(output, "country fetched") {
		t.Errorf("expected message in output, got: %s", output)
	}
	if !strings.Contains(output, `"country":"US"`) {
		t.Errorf("expected country field in output, got: %s", output)
	}
	if !strings.Contains(output, `"level":"info"`) {
		t.Errorf("expected level field in output, got: %s", output)
	}
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		input    string
		expected zerolog.Level
	}{
		{"trace", zerolog.TraceLevel},
		{"debug", zerolog.DebugLevel},
		{"INFO", zerolog.InfoLevel},
		{"warning", zerolog.WarnLevel},
		{"error", zerolog.ErrorLevel},
		{"disabled", zerolog.Disabled},
		{"bogus", zerolog.InfoLevel},
		{"", zerolog.InfoLevel},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if got := parseLevel(tt.input); got != tt.expected {
				t.Errorf("parseLevel(%q) = %v, want %v", tt.input, got, tt.expected)
			}
		})
	}
}

func TestCtx_NoIDsReturnsBase(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	ctx := ContextWithLogger(context.Background(), NewTestLogger(&buf))
	Ctx(ctx).Info().Msg("plain")

	if strings.Contains(buf.String(), "run_id") || strings.Contains(buf.String(), "request_id") {
		t.Errorf("expected no ID fields, got: %s", buf.String())
	}
}

func TestCtx_AddsRunAndRequestIDs(t *testing.T) {
	var buf bytes.Buffer
	ctx := ContextWithLogger(context.Background(), NewTestLogger(&buf))
	ctx = ContextWithRunID(ctx, "abc12345")
	ctx = ContextWithRequestID(ctx, "req-1")

	Ctx(ctx).Info().Msg("merged")

	output := buf.String()
	if !strings.Contains(output, `"run_id":"abc12345"`) {
		t.Errorf("expected run_id in output, got: %s", output)
	}
	if !strings.Contains(output, `"request_id":"req-1"`) {
		t.Errorf("expected request_id in output, got: %s", output)
	}
}

func TestGenerateRunID(t *testing.T) {
	t.Parallel()

	a, b := GenerateRunID(), GenerateRunID()
	if len(a) != 8 {
		t.Errorf("expected 8-character run ID, got %q", a)
	}
	if a == b {
		t.Error("expected distinct run IDs")
	}
}

func TestSlogHandler(t *testing.T) {
	var buf bytes.Buffer
	SetLogger(NewTestLogger(&buf))
	defer Init(DefaultConfig())

	logger := NewSlogLogger().WithGroup("supervisor").With("service", "scheduler")
	logger.Warn("service restarted", slog.Int("attempt", 2), slog.Group("backoff", slog.Bool("active", true)))
	logger.Debug("below the default level")

	output := buf.String()
	for _, want := range []string{
		`"level":"warn"`,
		`"supervisor.service":"scheduler"`,
		`"supervisor.attempt":2`,
		`"message":"service restarted"`,
		`"supervisor.backoff.active":true`,
	} {
		if !strings.Contains(output, want) {
			t.Errorf("expected %s in output, got: %s", want, output)
		}
	}
	if strings.Contains(output, "below the default level") {
		t.Errorf("debug record should be filtered at info, got: %s", output)
	}
}
