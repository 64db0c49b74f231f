// Reelmap - Streaming Catalogue Sync and Country Coverage Planning
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reelmap

package sync

import (
	"context"
	"fmt"
	"math/rand"
	"sort"
	"sync"
	"time"

	"github.com/tomtom215/reelmap/internal/config"
	"github.com/tomtom215/reelmap/internal/logging"
	"github.com/tomtom215/reelmap/internal/metrics"
	"github.com/tomtom215/reelmap/internal/models"
)

// CountryResult is the outcome of fetching one country's full listing.
// Films is nil whenever Err is set; partial listings are never returned.
type CountryResult struct {
	Country  string
	Films    []models.Film
	Pages    int
	Skipped  int
	Cached   int
	Duration time.Duration
	Err      error
}

// Report converts the result for the run summary.
func (r *CountryResult) Report() models.CountryReport {
	rep := models.CountryReport{
		Country:  r.Country,
		Films:    len(r.Films),
		Pages:    r.Pages,
		Duration: r.Duration,
	}
	if r.Err != nil {
		rep.Error = r.Err.Error()
	}
	return rep
}

// PageSource yields listing pages. *Client implements it.
type PageSource interface {
	FetchPage(ctx context.Context, country string, page int) (*Page, error)
}

// Fetcher pages through one country's listing at a time.
type Fetcher struct {
	source    PageSource
	maxPages  int
	pageDelay time.Duration
	jitterMax time.Duration

	mu  sync.Mutex
	rng *rand.Rand

	sleep func(ctx context.Context, d time.Duration) error
}

// NewFetcher creates a fetcher over a shared client.
func NewFetcher(source PageSource, fc config.FetchConfig) *Fetcher {
	maxPages := fc.MaxPages
	if maxPages <= 0 {
		maxPages = 500
	}
	return &Fetcher{
		source:    source,
		maxPages:  maxPages,
		pageDelay: fc.PageDelay,
		jitterMax: fc.JitterMax,
		rng:       rand.New(rand.NewSource(time.Now().UnixNano())), //nolint:gosec // jitter, not security
		sleep:     sleepCtx,
	}
}

func (f *Fetcher) jitter() time.Duration {
	if f.jitterMax <= 0 {
		return 0
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return time.Duration(f.rng.Int63n(int64(f.jitterMax)))
}

// FetchCountry returns every film the provider lists for country.
//
// It waits a random jitter before the first page and PageDelay between
// pages. Films repeated across pages are kept once. Any page failure fails
// the whole country.
func (f *Fetcher) FetchCountry(ctx context.Context, country string) CountryResult {
	start := time.Now()
	res := CountryResult{Country: country}
	log := logging.Ctx(ctx).With().Str("country", country).Logger()

	if err := f.sleep(ctx, f.jitter()); err != nil {
		res.Err = err
		res.Duration = time.Since(start)
		return res
	}

	seen := make(map[int64]int)
	var films []models.Film

	page := 1
	for {
		if res.Pages >= f.maxPages {
			res.Err = fmt.Errorf("%w: %d pages", ErrMaxPages, f.maxPages)
			break
		}

		p, err := f.source.FetchPage(ctx, country, page)
		if err != nil {
			res.Err = fmt.Errorf("page %d: %w", page, err)
			break
		}
		res.Pages++
		res.Skipped += p.Skipped
		if p.Cached {
			res.Cached++
		}

		for i := range p.Films {
			id := p.Films[i].MubiID
			if idx, dup := seen[id]; dup {
				films[idx] = p.Films[i]
				continue
			}
			seen[id] = len(films)
			films = append(films, p.Films[i])
		}

		log.Debug().Int("page", page).Int("films", len(p.Films)).Bool("cached", p.Cached).Msg("Page fetched")

		if p.NextPage == 0 {
			break
		}
		if p.NextPage <= page {
			res.Err = fmt.Errorf("provider returned non-advancing next page %d after %d", p.NextPage, page)
			break
		}
		page = p.NextPage

		if !p.Cached {
			if err := f.sleep(ctx, f.pageDelay); err != nil {
				res.Err = err
				break
			}
		}
	}

	res.Duration = time.Since(start)
	if res.Err == nil {
		res.Films = films
		if res.Films == nil {
			res.Films = []models.Film{}
		}
		log.Info().Int("films", len(res.Films)).Int("pages", res.Pages).Int("skipped", res.Skipped).Dur("duration", res.Duration).Msg("Country fetched")
	} else {
		log.Error().Err(res.Err).Int("pages", res.Pages).Msg("Country fetch failed")
	}
	metrics.RecordCountryFetch(country, len(res.Films), res.Err)
	return res
}

// FetchAll fetches every country with at most workers concurrent fetches.
// Results are collected only after each fetch completes; one country's
// failure does not cancel the others.
func (f *Fetcher) FetchAll(ctx context.Context, countries []string, workers int) []CountryResult {
	if workers < 1 {
		workers = 1
	}
	if workers > len(countries) {
		workers = len(countries)
	}

	jobs := make(chan string)
	results := make(chan CountryResult, len(countries))

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for country := range jobs {
				results <- f.FetchCountry(ctx, country)
			}
		}()
	}

	go func() {
		defer close(jobs)
		for _, c := range countries {
			select {
			case jobs <- c:
			case <-ctx.Done():
				return
			}
		}
	}()

	wg.Wait()
	close(results)

	out := make([]CountryResult, 0, len(countries))
	got := make(map[string]bool, len(countries))
	for r := range results {
		out = append(out, r)
		got[r.Country] = true
	}
	// Countries never dispatched because ctx ended still get a result.
	for _, c := range countries {
		if !got[c] {
			out = append(out, CountryResult{Country: c, Err: ctx.Err()})
		}
	}

	sort.Slice(out, func(i, j int) bool { return out[i].Country < out[j].Country })
	return out
}
