// Reelmap - Streaming Catalogue Sync and Country Coverage Planning
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reelmap

package sync

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/tomtom215/reelmap/internal/config"
	"github.com/tomtom215/reelmap/internal/logging"
	"github.com/tomtom215/reelmap/internal/models"
)

// Scheduler runs deep and shallow syncs on fixed intervals and accepts
// manual triggers. Runs never overlap: every run executes on the Serve
// goroutine. It implements suture.Service.
type Scheduler struct {
	manager *Manager

	deepInterval    time.Duration
	shallowInterval time.Duration
	runOnStart      bool
	startMode       models.SyncMode
	runTimeout      time.Duration

	triggers chan models.SyncMode

	mu          sync.RWMutex
	nextDeep    time.Time
	nextShallow time.Time
}

// NewScheduler creates a scheduler for m. A zero interval disables that
// periodic mode.
func NewScheduler(m *Manager, cfg config.SyncConfig) *Scheduler {
	mode, err := models.ParseSyncMode(cfg.Mode)
	if err != nil {
		mode = models.ModeDeep
	}
	return &Scheduler{
		manager:         m,
		deepInterval:    cfg.DeepInterval,
		shallowInterval: cfg.ShallowInterval,
		runOnStart:      cfg.RunOnStart,
		startMode:       mode,
		runTimeout:      cfg.RunTimeout,
		triggers:        make(chan models.SyncMode, 1),
	}
}

// String names the service in supervisor logs.
func (s *Scheduler) String() string {
	return "sync-scheduler"
}

// Serve runs until ctx is cancelled.
func (s *Scheduler) Serve(ctx context.Context) error {
	logging.Info().
		Dur("deep_interval", s.deepInterval).
		Dur("shallow_interval", s.shallowInterval).
		Bool("run_on_start", s.runOnStart).
		Msg("Sync scheduler started")

	deepC, stopDeep := s.ticker(s.deepInterval)
	defer stopDeep()
	shallowC, stopShallow := s.ticker(s.shallowInterval)
	defer stopShallow()

	now := time.Now()
	s.mu.Lock()
	if s.deepInterval > 0 {
		s.nextDeep = now.Add(s.deepInterval)
	}
	if s.shallowInterval > 0 {
		s.nextShallow = now.Add(s.shallowInterval)
	}
	s.mu.Unlock()

	if s.runOnStart {
		s.run(ctx, s.startMode)
	}

	for {
		select {
		case <-ctx.Done():
			logging.Info().Msg("Sync scheduler stopped")
			return ctx.Err()
		case t := <-deepC:
			s.mu.Lock()
			s.nextDeep = t.Add(s.deepInterval)
			s.mu.Unlock()
			s.run(ctx, models.ModeDeep)
		case t := <-shallowC:
			s.mu.Lock()
			s.nextShallow = t.Add(s.shallowInterval)
			s.mu.Unlock()
			s.run(ctx, models.ModeShallow)
		case mode := <-s.triggers:
			s.run(ctx, mode)
		}
	}
}

func (s *Scheduler) ticker(interval time.Duration) (<-chan time.Time, func()) {
	if interval <= 0 {
		return nil, func() {}
	}
	t := time.NewTicker(interval)
	return t.C, t.Stop
}

func (s *Scheduler) run(ctx context.Context, mode models.SyncMode) {
	if s.runTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.runTimeout)
		defer cancel()
	}
	res, err := s.manager.Run(ctx, RunOptions{Mode: mode})
	switch {
	case errors.Is(err, ErrRunInProgress):
		logging.Warn().Str("mode", mode.String()).Msg("Skipping scheduled sync, a run is in progress")
	case err != nil:
		logging.Error().Err(err).Str("mode", mode.String()).Msg("Scheduled sync failed")
	case res.Failed():
		logging.Warn().Str("mode", mode.String()).Int("errors", len(res.Errors)).Msg("Scheduled sync finished with errors")
	}
}

// TriggerSync queues a run. It returns ErrRunInProgress when a run is
// executing or another trigger is already queued.
func (s *Scheduler) TriggerSync(mode models.SyncMode) error {
	if s.manager.Running() {
		return ErrRunInProgress
	}
	select {
	case s.triggers <- mode:
		logging.Info().Str("mode", mode.String()).Msg("Sync triggered")
		return nil
	default:
		return ErrRunInProgress
	}
}

// LastResult returns the most recent run result, or nil.
func (s *Scheduler) LastResult() *models.RunResult {
	return s.manager.LastResult()
}

// Status summarizes the scheduler for the status endpoint.
func (s *Scheduler) Status() models.StatusResponse {
	last := s.manager.LastResult()
	st := models.StatusResponse{
		Running: s.manager.Running() || len(s.triggers) > 0,
		LastRun: last,
	}
	if last != nil {
		st.TotalFilms = last.TotalCount()
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.nextDeep.IsZero() {
		t := s.nextDeep
		st.NextDeep = &t
	}
	if !s.nextShallow.IsZero() {
		t := s.nextShallow
		st.NextShallow = &t
	}
	return st
}
