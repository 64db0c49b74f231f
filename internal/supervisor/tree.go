// Reelmap - Streaming Catalogue Sync and Country Coverage Planning
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reelmap

package supervisor

import (
	"cmp"
	"context"
	"log/slog"
	"time"

	"github.com/thejerf/suture/v4"
	"github.com/thejerf/sutureslog"
)

// TreeConfig tunes restart backoff for every supervisor in the tree. Zero
// fields take suture's defaults.
type TreeConfig struct {
	// FailureThreshold failures within the decay window trigger backoff.
	FailureThreshold float64

	// FailureDecay is the failure half-life in seconds.
	FailureDecay float64

	FailureBackoff time.Duration

	// ShutdownTimeout bounds how long each service may take to stop.
	ShutdownTimeout time.Duration
}

// DefaultTreeConfig returns suture's own defaults.
func DefaultTreeConfig() TreeConfig {
	return TreeConfig{
		FailureThreshold: 5,
		FailureDecay:     30,
		FailureBackoff:   15 * time.Second,
		ShutdownTimeout:  10 * time.Second,
	}
}

func (c TreeConfig) withDefaults() TreeConfig {
	d := DefaultTreeConfig()
	return TreeConfig{
		FailureThreshold: cmp.Or(c.FailureThreshold, d.FailureThreshold),
		FailureDecay:     cmp.Or(c.FailureDecay, d.FailureDecay),
		FailureBackoff:   cmp.Or(c.FailureBackoff, d.FailureBackoff),
		ShutdownTimeout:  cmp.Or(c.ShutdownTimeout, d.ShutdownTimeout),
	}
}

func (c TreeConfig) settings(hook suture.EventHook) suture.Spec {
	return suture.Spec{
		EventHook:        hook,
		FailureThreshold: c.FailureThreshold,
		FailureDecay:     c.FailureDecay,
		FailureBackoff:   c.FailureBackoff,
		Timeout:          c.ShutdownTimeout,
	}
}

// SupervisorTree is serve mode's process tree:
//
//	reelmap
//	├── sync-layer   (scheduler)
//	└── api-layer    (HTTP server)
//
// A crashing scheduler is restarted without dropping HTTP connections, and
// the reverse.
type SupervisorTree struct {
	root   *suture.Supervisor
	sync   *suture.Supervisor
	api    *suture.Supervisor
	config TreeConfig
}

// NewSupervisorTree builds the tree. Supervisor events are logged through logger.
func NewSupervisorTree(logger *slog.Logger, config TreeConfig) *SupervisorTree {
	config = config.withDefaults()

	// Layers added to root inherit its hook.
	root := suture.New("reelmap", config.settings((&sutureslog.Handler{Logger: logger}).MustHook()))
	t := &SupervisorTree{
		root:   root,
		sync:   suture.New("sync-layer", config.settings(nil)),
		api:    suture.New("api-layer", config.settings(nil)),
		config: config,
	}
	root.Add(t.sync)
	root.Add(t.api)
	return t
}

func (t *SupervisorTree) Root() *suture.Supervisor { return t.root }

func (t *SupervisorTree) AddSyncService(svc suture.Service) suture.ServiceToken {
	return t.sync.Add(svc)
}

func (t *SupervisorTree) AddAPIService(svc suture.Service) suture.ServiceToken {
	return t.api.Add(svc)
}

// Serve blocks until ctx is cancelled or the root supervisor gives up.
func (t *SupervisorTree) Serve(ctx context.Context) error {
	return t.root.Serve(ctx)
}

func (t *SupervisorTree) ServeBackground(ctx context.Context) <-chan error {
	return t.root.ServeBackground(ctx)
}

// UnstoppedServiceReport names services still running after their shutdown
// timeout.
func (t *SupervisorTree) UnstoppedServiceReport() ([]suture.UnstoppedService, error) {
	return t.root.UnstoppedServiceReport()
}
