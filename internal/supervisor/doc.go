// Reelmap - Streaming Catalogue Sync and Country Coverage Planning
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reelmap

/*
Package supervisor runs serve mode under a suture v4 supervisor tree.

# Overview

	RootSupervisor ("reelmap")
	├── SyncSupervisor ("sync-layer")
	│   └── sync.Scheduler ("sync-scheduler")
	└── APISupervisor ("api-layer")
	    └── services.HTTPServerService ("http-server")

A crash in the scheduler does not take down the API, and the reverse. Each
layer restarts its services with suture's backoff.

Supervisor events (start, stop, panic, backoff) are logged through sutureslog
into the same zerolog sink as the rest of the process, via
logging.NewSlogLogger.

# Usage Example

	manager := sync.NewManager(cfg, client, sync.WithExporter(db))
	app, err := supervisor.NewApp(cfg, manager)
	if err != nil {
	    return err
	}
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return app.Serve(ctx)

Serve returns when the context is cancelled, after the HTTP server has
drained and the scheduler has returned.
*/
package supervisor
