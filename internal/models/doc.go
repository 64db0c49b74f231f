// Reelmap - Streaming Catalogue Sync and Country Coverage Planning
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reelmap

/*
Package models defines the data structures shared across Reelmap.

Key Components:

  - Film: one catalogue entry keyed by the provider film ID, with the set of
    countries where it is currently available. Unknown JSON fields written by
    downstream enrichment tools (imdb_id, tmdb_id, ...) round-trip untouched.
  - Catalogue: the persisted envelope {"meta", "items", "bayes_stats"}.
  - Cluster: a leader country plus the member countries whose catalogues are
    treated as equivalent, with a content hash for change detection.
  - RunResult: the outcome of one sync run (catalogue, per-country reports,
    accumulated error strings).
  - APIResponse: the JSON envelope returned by the HTTP API in serve mode.

Country codes are ISO-3166-1 alpha-2, upper-case, everywhere inside the
application. The compact coverage index written for the playback plugin is
the only place they are lower-cased.
*/
package models
