// Reelmap - Streaming Catalogue Sync and Country Coverage Planning
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reelmap

package enrich

import (
	"context"
	"sync"
	"time"

	"github.com/tomtom215/reelmap/internal/logging"
	"github.com/tomtom215/reelmap/internal/metrics"
	"github.com/tomtom215/reelmap/internal/models"
)

// DefaultWorkers bounds concurrent lookups when none is configured.
const DefaultWorkers = 10

// progressEvery controls how often Run logs progress.
const progressEvery = 10

// Stats summarizes one enrichment pass.
type Stats struct {
	Films     int           `json:"films"`
	Pending   int           `json:"pending"`
	Matched   int           `json:"matched"`
	Updated   int           `json:"updated"`
	Unmatched int           `json:"unmatched"`
	Failed    int           `json:"failed"`
	Duration  time.Duration `json:"duration_ns"`
}

// Enricher looks up identifiers for every film missing one.
type Enricher struct {
	matcher Matcher
	workers int
}

// New creates an Enricher. workers < 1 uses DefaultWorkers.
func New(matcher Matcher, workers int) *Enricher {
	if workers < 1 {
		workers = DefaultWorkers
	}
	return &Enricher{matcher: matcher, workers: workers}
}

// NeedsLookup reports whether film lacks its IMDb or TMDB identifier.
func NeedsLookup(film *models.Film) bool {
	return film.ExternalID(models.ExternalIMDb) == "" || film.ExternalID(models.ExternalTMDB) == ""
}

type lookup struct {
	index int
	match *Match
	err   error
}

// Run enriches cat in place. Only missing identifiers are written. When ctx
// ends early the matches gathered so far are kept and ctx.Err() is returned.
func (e *Enricher) Run(ctx context.Context, cat *models.Catalogue) (Stats, error) {
	start := time.Now()
	log := logging.Ctx(ctx)

	var pending []int
	for i := range cat.Items {
		if NeedsLookup(&cat.Items[i]) {
			pending = append(pending, i)
		}
	}
	stats := Stats{Films: len(cat.Items), Pending: len(pending)}
	log.Info().Int("films", stats.Films).Int("pending", stats.Pending).Int("workers", e.workers).Msg("Starting enrichment")
	if len(pending) == 0 {
		return stats, nil
	}

	workers := min(e.workers, len(pending))
	jobs := make(chan int)
	results := make(chan lookup, workers)

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for idx := range jobs {
				match, err := e.matcher.Match(ctx, &cat.Items[idx])
				results <- lookup{index: idx, match: match, err: err}
			}
		}()
	}

	go func() {
		defer close(jobs)
		for _, idx := range pending {
			if ctx.Err() != nil {
				return
			}
			select {
			case jobs <- idx:
			case <-ctx.Done():
				return
			}
		}
	}()

	go func() {
		wg.Wait()
		close(results)
	}()

	done := 0
	for r := range results {
		done++
		film := &cat.Items[r.index]
		switch {
		case r.err != nil:
			stats.Failed++
			metrics.RecordEnrichLookup("error")
			if ctx.Err() == nil {
				log.Warn().Err(r.err).Int64("mubi_id", film.MubiID).Msg("Lookup failed")
			}
		case r.match == nil:
			stats.Unmatched++
			metrics.RecordEnrichLookup("unmatched")
		default:
			stats.Matched++
			metrics.RecordEnrichLookup("matched")
			if apply(film, r.match) {
				stats.Updated++
				log.Info().
					Str("film", film.String()).
					Str("imdb_id", r.match.IMDbID).
					Str("tmdb_id", r.match.TMDBID).
					Int("score", r.match.Score).
					Msg("Match found")
			}
		}
		if done%progressEvery == 0 || done == len(pending) {
			log.Info().Int("done", done).Int("pending", len(pending)).Msg("Enrichment progress")
		}
	}

	stats.Duration = time.Since(start)
	log.Info().
		Int("matched", stats.Matched).
		Int("updated", stats.Updated).
		Int("unmatched", stats.Unmatched).
		Int("failed", stats.Failed).
		Dur("duration", stats.Duration).
		Msg("Enrichment complete")
	return stats, ctx.Err()
}

// apply writes the identifiers film is missing and reports whether anything
// changed.
func apply(film *models.Film, m *Match) bool {
	changed := false
	if m.IMDbID != "" && film.ExternalID(models.ExternalIMDb) == "" {
		film.SetExternalID(models.ExternalIMDb, m.IMDbID)
		changed = true
	}
	if m.TMDBID != "" && film.ExternalID(models.ExternalTMDB) == "" {
		film.SetExternalID(models.ExternalTMDB, m.TMDBID)
		changed = true
	}
	return changed
}
