// Reelmap - Streaming Catalogue Sync and Country Coverage Planning
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reelmap

/*
Package sync fetches per-country film listings from the catalogue provider and
turns them into a new catalogue.

Key Components:

  - Client: HTTP client for the provider browse endpoint with a shared rate
    limiter, retry policy, circuit breaker and optional page cache
  - Fetcher: pages through one country and runs a bounded worker pool over
    many countries
  - BuildPlan: decides which countries a deep or shallow run queries
  - Manager: one end-to-end run (fetch, merge, validate, write, cluster)
  - Scheduler: periodic deep and shallow runs for serve mode

Concurrency:

Workers only fetch. Each worker returns an isolated CountryResult; the manager
collects every result before merging them in a single pass, so no catalogue
state is shared between goroutines. One country's failure never cancels its
siblings.

Retries:

HTTP 429, 500, 502, 503 and 504, network errors and open-breaker rejections
are retried with exponential backoff (RetryPolicy). The status set can be
replaced through RetryPolicy.Retryable and WithRetryPolicy. On 429 a
Retry-After header replaces the computed delay, bounded only by
RetryAfterCap (15 minutes by default). Every other failure is permanent for
the country.

RetryPolicy and Breaker are also used by the enrich package for TMDB lookups.

Usage Example:

	client := sync.NewClient(cfg.Provider, cfg.Fetch, nil)
	manager := sync.NewManager(cfg, client)

	result, err := manager.Run(ctx, sync.RunOptions{Mode: models.ModeDeep})
	if errors.Is(err, sync.ErrNoFilms) {
	    // nothing was written
	}
	os.Exit(result.ExitCode())
*/
package sync
