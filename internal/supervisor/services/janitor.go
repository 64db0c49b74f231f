// Reelmap - Streaming Catalogue Sync and Country Coverage Planning
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reelmap

package services

import (
	"context"
	"time"

	"github.com/tomtom215/reelmap/internal/logging"
)

// JanitorService calls sweep every interval until its context is cancelled.
// sweep reports how many items it removed.
//
//	tree.AddAPIService(services.NewJanitorService("api-cache-prune", time.Minute, handler.PruneCache))
type JanitorService struct {
	name     string
	interval time.Duration
	sweep    func() int
}

// NewJanitorService creates the service. A non-positive interval defaults
// to one minute.
func NewJanitorService(name string, interval time.Duration, sweep func() int) *JanitorService {
	if interval <= 0 {
		interval = time.Minute
	}
	return &JanitorService{name: name, interval: interval, sweep: sweep}
}

// Serve implements suture.Service.
func (j *JanitorService) Serve(ctx context.Context) error {
	ticker := time.NewTicker(j.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if n := j.sweep(); n > 0 {
				logging.Debug().Str("service", j.name).Int("removed", n).Msg("Janitor sweep")
			}
		}
	}
}

// String implements fmt.Stringer for suture's logs.
func (j *JanitorService) String() string {
	return j.name
}
