// Reelmap - Streaming Catalogue Sync and Country Coverage Planning
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reelmap

// Command reelmap keeps a merged, country-annotated film catalogue of a
// region-locked streaming service up to date and plans which countries a
// viewer needs to see the whole of it.
//
// # Commands
//
//	reelmap sync       fetch every (deep) or a planned subset (shallow) of countries
//	reelmap optimize   greedy country plan for a home country
//	reelmap clusters   recompute catalogue clusters offline
//	reelmap validate   run integrity checks against a catalogue file
//	reelmap ratings    recompute Bayesian ratings in place
//	reelmap export     load a catalogue into DuckDB and report coverage
//	reelmap serve      scheduled syncs plus the HTTP API under a supervisor
//
// # Configuration
//
// Configuration is loaded via Koanf v2 with layered sources (highest priority wins):
//   - Command-line flags
//   - Environment variables (REELMAP_<SECTION>_<KEY>)
//   - Config file (--config, CONFIG_PATH, or ./reelmap.yaml)
//   - Built-in defaults
//
// # Exit Codes
//
// sync and validate exit 1 when the run failed integrity checks, fetched no
// films, or accumulated per-country errors. Usage and I/O errors also exit 1.
package main
