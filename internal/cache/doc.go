// Reelmap - Streaming Catalogue Sync and Country Coverage Planning
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reelmap

/*
Package cache provides the two caches used by Reelmap.

PageStore is a BadgerDB-backed cache of raw provider listing pages keyed
"page:{CC}:{N}". It implements sync.PageCache, so repeated runs inside the TTL
(6h by default) skip HTTP for pages they have already seen. Each value is an
8-byte big-endian stored-at timestamp followed by the body; badger's entry TTL
reclaims disk space.

Cache is a thread-safe in-memory TTL map used by the HTTP API for optimizer
results. It is cleared whenever a sync run finishes.

Usage Example:

	pages, err := cache.OpenPageStore(cfg.Cache.Dir, cfg.Cache.TTL)
	if err != nil {
	    return err
	}
	defer pages.Close()
	client := sync.NewClient(cfg.Provider, cfg.Fetch, pages)
*/
package cache
