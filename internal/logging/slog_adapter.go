// Reelmap - Streaming Catalogue Sync and Country Coverage Planning
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reelmap

package logging

import (
	"context"
	"log/slog"

	"github.com/rs/zerolog"
)

// SlogHandler is an slog.Handler writing through zerolog. sutureslog logs
// supervisor events with it so restarts land in the same stream as sync logs.
//
// Groups are flattened into dotted keys: WithGroup("supervisor") followed by
// an attribute "service" yields "supervisor.service".
type SlogHandler struct {
	logger zerolog.Logger
	group  string
}

// NewSlogHandler wraps the current global logger.
func NewSlogHandler() *SlogHandler {
	return &SlogHandler{logger: Logger()}
}

// NewSlogLogger returns an *slog.Logger over NewSlogHandler.
func NewSlogLogger() *slog.Logger {
	return slog.New(NewSlogHandler())
}

func (h *SlogHandler) Enabled(_ context.Context, level slog.Level) bool {
	lvl := zerologLevel(level)
	return lvl >= zerolog.GlobalLevel() && lvl >= h.logger.GetLevel()
}

//nolint:gocritic // slog.Handler passes records by value
func (h *SlogHandler) Handle(_ context.Context, record slog.Record) error {
	kv := make([]any, 0, 2*record.NumAttrs())
	record.Attrs(func(a slog.Attr) bool {
		kv = flatten(kv, h.group, a)
		return true
	})
	h.logger.WithLevel(zerologLevel(record.Level)).Fields(kv).Msg(record.Message)
	return nil
}

// WithAttrs bakes attrs into a child zerolog logger.
func (h *SlogHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	var kv []any
	for _, a := range attrs {
		kv = flatten(kv, h.group, a)
	}
	return &SlogHandler{logger: h.logger.With().Fields(kv).Logger(), group: h.group}
}

func (h *SlogHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	return &SlogHandler{logger: h.logger, group: h.group + name + "."}
}

// flatten appends a's key/value pairs to kv, expanding nested groups.
func flatten(kv []any, prefix string, a slog.Attr) []any {
	v := a.Value.Resolve()
	if v.Kind() != slog.KindGroup {
		if a.Key == "" {
			return kv
		}
		return append(kv, prefix+a.Key, v.Any())
	}
	if a.Key != "" {
		prefix += a.Key + "."
	}
	for _, ga := range v.Group() {
		kv = flatten(kv, prefix, ga)
	}
	return kv
}

func zerologLevel(level slog.Level) zerolog.Level {
	switch {
	case level >= slog.LevelError:
		return zerolog.ErrorLevel
	case level >= slog.LevelWarn:
		return zerolog.WarnLevel
	case level >= slog.LevelInfo:
		return zerolog.InfoLevel
	case level >= slog.LevelDebug:
		return zerolog.DebugLevel
	default:
		return zerolog.TraceLevel
	}
}
