// Reelmap - Streaming Catalogue Sync and Country Coverage Planning
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reelmap

/*
Package enrich adds IMDb and TMDB identifiers to catalogue films by matching
them against TMDB.

Key Components:

  - Client: TMDB v3 HTTP client sharing the sync package's RetryPolicy and
    Breaker, behind its own rate limiter
  - TMDBMatcher: candidate search and scoring for one film
  - Enricher: bounded worker pool over every film missing an identifier

Matching:

Candidates come from a title search (original title first, then the display
title). Candidates more than three years from the film's year are dropped,
the three closest titles are fetched with credits and scored:

	director match      +50  (mismatch -20 when both sides list directors)
	title similarity    +30  (token-set similarity above 90)
	same year           +10
	runtime within 10m  +10  (off by more than 40m: -30)

Below MinScore the matcher retries with year-filtered searches for the
film's year and the years either side. A film without a match is left
unchanged. Existing identifiers are never overwritten.

Concurrency:

Workers only look up. Matches are applied to the catalogue by the caller's
goroutine as results arrive.
*/
package enrich
