// Reelmap - Streaming Catalogue Sync and Country Coverage Planning
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reelmap

package enrich

import (
	"context"
	"errors"
	"sort"
	"strconv"
	"strings"

	"github.com/tomtom215/reelmap/internal/logging"
	"github.com/tomtom215/reelmap/internal/models"
	"github.com/tomtom215/reelmap/internal/sync"
)

// DefaultMinScore is the confidence a candidate needs to be accepted.
const DefaultMinScore = 80

const (
	yearWindow      = 3
	deepCandidates  = 3
	titleThreshold  = 90
	personThreshold = 85
)

// Match is a verified TMDB identification of one film.
type Match struct {
	TMDBID string
	IMDbID string
	Score  int
	Title  string
	Year   int
}

// Matcher finds a film's TMDB entry. It returns nil, nil when no candidate
// is confident enough.
type Matcher interface {
	Match(ctx context.Context, film *models.Film) (*Match, error)
}

// TMDBMatcher scores TMDB search candidates against a film.
type TMDBMatcher struct {
	client   *Client
	minScore int
}

// NewTMDBMatcher creates a matcher. minScore <= 0 uses DefaultMinScore.
func NewTMDBMatcher(client *Client, minScore int) *TMDBMatcher {
	if minScore <= 0 {
		minScore = DefaultMinScore
	}
	return &TMDBMatcher{client: client, minScore: minScore}
}

type scored struct {
	result searchResult
	year   int
	title  int
}

// Match implements Matcher.
func (m *TMDBMatcher) Match(ctx context.Context, film *models.Film) (*Match, error) {
	title := strings.TrimSpace(film.Title)
	original := strings.TrimSpace(film.OriginalTitle)
	year := 0
	if film.Year != nil {
		year = *film.Year
	}

	var candidates []searchResult
	var err error
	if original != "" {
		if candidates, err = m.client.search(ctx, original, 0); err != nil {
			return nil, err
		}
	}
	if len(candidates) == 0 && title != "" && title != original {
		if candidates, err = m.client.search(ctx, title, 0); err != nil {
			return nil, err
		}
	}
	if len(candidates) == 0 {
		return nil, nil
	}

	ranked := rankCandidates(film, candidates, year)
	if len(ranked) > deepCandidates {
		ranked = ranked[:deepCandidates]
	}
	best, bestScore, err := m.verify(ctx, film, ranked)
	if err != nil {
		return nil, err
	}

	if bestScore < m.minScore && year > 0 {
		seen := make(map[int64]struct{}, len(candidates))
		for _, c := range candidates {
			seen[c.ID] = struct{}{}
		}
		query := original
		if query == "" {
			query = title
		}

		var fallback []scored
		for _, fy := range []int{year, year + 1, year - 1} {
			results, err := m.client.search(ctx, query, fy)
			if err != nil {
				return nil, err
			}
			for _, r := range results {
				if _, dup := seen[r.ID]; dup {
					continue
				}
				seen[r.ID] = struct{}{}
				ry := releaseYear(r.ReleaseDate)
				if ry == 0 || abs(ry-year) > yearWindow {
					continue
				}
				fallback = append(fallback, scored{result: r, year: ry})
			}
		}
		if len(fallback) > 0 {
			fb, fbScore, err := m.verify(ctx, film, fallback)
			if err != nil {
				return nil, err
			}
			if fbScore > bestScore {
				logging.Ctx(ctx).Debug().
					Int64("mubi_id", film.MubiID).
					Int("from", bestScore).
					Int("to", fbScore).
					Msg("Year-filtered search improved match")
				best, bestScore = fb, fbScore
			}
		}
	}

	if best == nil || bestScore < m.minScore {
		return nil, nil
	}
	return &Match{
		TMDBID: strconv.FormatInt(best.ID, 10),
		IMDbID: best.ExternalIDs.IMDbID,
		Score:  bestScore,
		Title:  best.Title,
		Year:   releaseYear(best.ReleaseDate),
	}, nil
}

// rankCandidates drops candidates outside the year window and orders the
// rest by title similarity, best first.
func rankCandidates(film *models.Film, candidates []searchResult, year int) []scored {
	out := make([]scored, 0, len(candidates))
	for _, c := range candidates {
		cy := releaseYear(c.ReleaseDate)
		if cy > 0 && year > 0 && abs(cy-year) > yearWindow {
			continue
		}
		out = append(out, scored{
			result: c,
			year:   cy,
			title:  max(tokenSetRatio(film.Title, c.Title), tokenSetRatio(film.OriginalTitle, c.OriginalTitle)),
		})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].title > out[j].title })
	return out
}

// verify fetches details for each candidate and returns the best scorer.
// A candidate whose details cannot be fetched is skipped unless the breaker
// is open or ctx is done.
func (m *TMDBMatcher) verify(ctx context.Context, film *models.Film, candidates []scored) (*movieDetails, int, error) {
	var best *movieDetails
	bestScore := 0
	for _, c := range candidates {
		details, err := m.client.details(ctx, c.result.ID)
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, sync.ErrCircuitOpen) {
				return nil, 0, err
			}
			logging.Ctx(ctx).Debug().Err(err).Int64("tmdb_id", c.result.ID).Msg("Skipping candidate without details")
			continue
		}
		if s := score(film, details, c.year); s > bestScore {
			best, bestScore = details, s
		}
	}
	return best, bestScore, nil
}

// score rates how well details describe film.
func score(film *models.Film, details *movieDetails, candidateYear int) int {
	total := 0

	if theirs := details.directors(); len(film.Directors) > 0 && len(theirs) > 0 {
		if directorsMatch(film.Directors, theirs) {
			total += 50
		} else {
			total -= 20
		}
	}

	titleScore := max(
		tokenSetRatio(film.Title, details.Title),
		tokenSetRatio(film.OriginalTitle, details.OriginalTitle),
	)
	if titleScore > titleThreshold {
		total += 30
	}

	if film.Year != nil && candidateYear > 0 && *film.Year == candidateYear {
		total += 10
	}

	if film.Duration != nil && *film.Duration > 0 && details.Runtime > 0 {
		switch diff := abs(*film.Duration - details.Runtime); {
		case diff <= 10:
			total += 10
		case diff > 40:
			total -= 30
		}
	}
	return total
}

func directorsMatch(ours, theirs []string) bool {
	for _, a := range ours {
		for _, b := range theirs {
			if tokenSetRatio(a, b) > personThreshold {
				return true
			}
		}
	}
	return false
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}
