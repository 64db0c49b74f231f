// Reelmap - Streaming Catalogue Sync and Country Coverage Planning
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reelmap

package supervisor

import (
	"context"
	"errors"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/tomtom215/reelmap/internal/api"
	"github.com/tomtom215/reelmap/internal/config"
	"github.com/tomtom215/reelmap/internal/logging"
	"github.com/tomtom215/reelmap/internal/models"
	"github.com/tomtom215/reelmap/internal/supervisor/services"
	"github.com/tomtom215/reelmap/internal/sync"
)

// cachePruneInterval is how often expired API responses are swept.
const cachePruneInterval = time.Minute

// App is the assembled serve-mode process.
type App struct {
	tree      *SupervisorTree
	scheduler *sync.Scheduler
	handler   *api.Handler
	http      *services.HTTPServerService
}

// NewApp builds the scheduler, the API and the supervisor tree around
// manager. The API's cache is cleared whenever a run completes.
func NewApp(cfg *config.Config, manager *sync.Manager) (*App, error) {
	if cfg == nil || manager == nil {
		return nil, errors.New("supervisor: config and manager are required")
	}

	scheduler := sync.NewScheduler(manager, cfg.Sync)
	handler := api.NewHandler(cfg, scheduler)
	manager.SetOnRunCompleted(func(res *models.RunResult) {
		handler.InvalidateCache()
	})

	server := &http.Server{
		Addr:              net.JoinHostPort(cfg.Server.Host, strconv.Itoa(cfg.Server.Port)),
		Handler:           api.NewRouter(handler, cfg.Server),
		ReadTimeout:       cfg.Server.ReadTimeout,
		ReadHeaderTimeout: cfg.Server.ReadTimeout,
		WriteTimeout:      cfg.Server.WriteTimeout,
	}
	httpSvc := services.NewHTTPServerService(server, cfg.Server.ShutdownTimeout)

	// Leave the HTTP service room to drain before suture gives up on it.
	tree := NewSupervisorTree(logging.NewSlogLogger(), TreeConfig{
		ShutdownTimeout: cfg.Server.ShutdownTimeout + 5*time.Second,
	})
	tree.AddSyncService(scheduler)
	tree.AddAPIService(httpSvc)
	tree.AddAPIService(services.NewJanitorService("api-cache-prune", cachePruneInterval, handler.PruneCache))

	return &App{
		tree:      tree,
		scheduler: scheduler,
		handler:   handler,
		http:      httpSvc,
	}, nil
}

// Scheduler returns the sync scheduler.
func (a *App) Scheduler() *sync.Scheduler {
	return a.scheduler
}

// Addr returns the HTTP listen address once the server is listening.
func (a *App) Addr() string {
	return a.http.Addr()
}

// Serve runs the tree until ctx is cancelled. A cancelled context is a clean
// shutdown and yields nil.
func (a *App) Serve(ctx context.Context) error {
	logging.Info().Str("addr", a.http.ConfiguredAddr()).Msg("Starting serve mode")
	err := a.tree.Serve(ctx)
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		err = nil
	}
	if report, rerr := a.tree.UnstoppedServiceReport(); rerr == nil && len(report) > 0 {
		for _, svc := range report {
			logging.Warn().Str("service", svc.Name).Msg("Service did not stop within the shutdown timeout")
		}
	}
	logging.Info().Msg("Serve mode stopped")
	return err
}
