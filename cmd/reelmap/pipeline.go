// Reelmap - Streaming Catalogue Sync and Country Coverage Planning
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reelmap

package main

import (
	"errors"
	"fmt"

	"github.com/tomtom215/reelmap/internal/cache"
	"github.com/tomtom215/reelmap/internal/config"
	"github.com/tomtom215/reelmap/internal/database"
	"github.com/tomtom215/reelmap/internal/logging"
	"github.com/tomtom215/reelmap/internal/sync"
)

// pipeline is a sync manager together with the resources it owns.
type pipeline struct {
	manager *sync.Manager
	pages   *cache.PageStore
	db      *database.DB
}

// newPipeline wires the provider client, the optional page cache and the
// optional DuckDB exporter into a manager.
func newPipeline(cfg *config.Config) (*pipeline, error) {
	p := &pipeline{}

	var pageCache sync.PageCache
	if cfg.Cache.Enabled {
		store, err := cache.OpenPageStore(cfg.Cache.Dir, cfg.Cache.TTL)
		if err != nil {
			return nil, fmt.Errorf("open page cache: %w", err)
		}
		p.pages = store
		pageCache = store
	}

	var opts []sync.ManagerOption
	if cfg.Database.Path != "" {
		db, err := database.Open(cfg.Database)
		if err != nil {
			p.close()
			return nil, fmt.Errorf("open database: %w", err)
		}
		p.db = db
		opts = append(opts, sync.WithExporter(db))
	}

	client := sync.NewClient(cfg.Provider, cfg.Fetch, pageCache)
	p.manager = sync.NewManager(cfg, client, opts...)
	return p, nil
}

func (p *pipeline) close() {
	var errs []error
	if p.pages != nil {
		if err := p.pages.GC(); err != nil {
			logging.Warn().Err(err).Msg("Page cache GC failed")
		}
		errs = append(errs, p.pages.Close())
	}
	if p.db != nil {
		errs = append(errs, p.db.Close())
	}
	if err := errors.Join(errs...); err != nil {
		logging.Warn().Err(err).Msg("Error closing sync resources")
	}
}
