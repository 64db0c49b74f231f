// Reelmap - Streaming Catalogue Sync and Country Coverage Planning
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reelmap

// Package database exports the film catalogue and its clusters into DuckDB
// for ad-hoc analysis.
//
// # Overview
//
// The JSON catalogue stays the source of truth. After a sync (or through the
// export command) the catalogue is copied into four tables that are dropped
// and recreated on every export:
//
//   - films: one row per film with its scalar fields and ratings
//   - film_countries: one row per (film, country) availability
//   - clusters: one row per cluster leader with size and content hash
//   - cluster_members: one row per (leader, member)
//
// The export runs in a single transaction, so readers see either the old or
// the new snapshot.
//
// # Usage
//
//	db, err := database.Open(cfg.Database)
//	if err != nil {
//	    return err
//	}
//	defer db.Close()
//
//	if err := db.Export(ctx, cat, clusters); err != nil {
//	    return err
//	}
//	rows, err := db.CountryCoverage(ctx)
//
// *DB satisfies sync.Exporter and can be passed to sync.WithExporter.
//
// # Thread Safety
//
// All methods are safe for concurrent use; database/sql pools connections and
// DuckDB serializes writers.
package database
