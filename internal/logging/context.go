// Reelmap - Streaming Catalogue Sync and Country Coverage Planning
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reelmap

package logging

import (
	"context"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

type ctxKey int

const (
	runIDKey ctxKey = iota
	requestIDKey
	loggerKey
)

// GenerateRunID returns an 8-character sync run identifier.
func GenerateRunID() string {
	return uuid.NewString()[:8]
}

// GenerateRequestID returns a UUID for an API request.
func GenerateRequestID() string {
	return uuid.NewString()
}

func ContextWithRunID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, runIDKey, id)
}

func RunIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(runIDKey).(string)
	return id
}

func ContextWithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey, id)
}

func RequestIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey).(string)
	return id
}

// ContextWithLogger makes Ctx use logger instead of the global one.
//
//nolint:gocritic // zerolog.Logger is passed by value by design of the library
func ContextWithLogger(ctx context.Context, logger zerolog.Logger) context.Context {
	return context.WithValue(ctx, loggerKey, logger)
}

// Ctx returns the context's logger (or the global one) with run_id and
// request_id attached when present.
//
//	logging.Ctx(ctx).Info().Str("country", "FR").Msg("Fetching")
//	// {"level":"info","run_id":"3f2a91bc","country":"FR","message":"Fetching"}
func Ctx(ctx context.Context) *zerolog.Logger {
	base, ok := ctx.Value(loggerKey).(zerolog.Logger)
	if !ok {
		base = Logger()
	}

	runID, requestID := RunIDFromContext(ctx), RequestIDFromContext(ctx)
	if runID == "" && requestID == "" {
		return &base
	}

	zc := base.With()
	if runID != "" {
		zc = zc.Str("run_id", runID)
	}
	if requestID != "" {
		zc = zc.Str("request_id", requestID)
	}
	l := zc.Logger()
	return &l
}
