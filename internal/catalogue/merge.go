// Reelmap - Streaming Catalogue Sync and Country Coverage Planning
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reelmap

package catalogue

import (
	"sort"

	"github.com/tomtom215/reelmap/internal/countries"
	"github.com/tomtom215/reelmap/internal/models"
)

// MergeOptions tunes a merge pass.
type MergeOptions struct {
	// DropEmpty deletes films whose country set is empty after a DEEP reset.
	// It has no effect in SHALLOW mode, which never deletes.
	DropEmpty bool

	// Attribution maps a queried country to extra countries that receive its
	// films, e.g. a cluster leader to its followers. Only used in SHALLOW mode.
	Attribution map[string][]string
}

// MergeResult is the output of Merge.
type MergeResult struct {
	Films []models.Film
	Stats models.MergeStats
}

// sighting accumulates one film's state across every country of a run.
type sighting struct {
	film      models.Film
	countries map[string]struct{}
}

// Merge folds this run's per-country listings into the previous catalogue.
//
// DEEP: every film seen this run gets exactly the set of countries that
// returned it; films not seen at all are pruned.
// SHALLOW: seen films get the union of their previous and new countries;
// unseen films are kept unchanged.
//
// Countries are processed in code order so repeated merges of the same input
// produce the same output. fetched is not modified.
func Merge(previous []models.Film, fetched map[string][]models.Film, mode models.SyncMode, opts MergeOptions) MergeResult {
	seen := collectSightings(fetched, mode, opts)

	var stats models.MergeStats
	out := make([]models.Film, 0, len(previous)+len(seen))
	prevIDs := make(map[int64]struct{}, len(previous))

	for i := range previous {
		prev := &previous[i]
		prevIDs[prev.MubiID] = struct{}{}

		s, ok := seen[prev.MubiID]
		if !ok {
			if mode == models.ModeDeep {
				stats.Pruned++
				continue
			}
			stats.Untouched++
			out = append(out, prev.Clone())
			continue
		}

		merged := MergeFilmRecord(*prev, s.film)
		if mode == models.ModeDeep {
			merged.Countries = setToSorted(s.countries)
		} else {
			merged.Countries = unionSorted(prev.Countries, s.countries)
		}

		if mode == models.ModeDeep && len(merged.Countries) == 0 && opts.DropEmpty {
			stats.DroppedEmpty++
			continue
		}
		stats.Updated++
		out = append(out, merged)
	}

	for id, s := range seen {
		if _, existed := prevIDs[id]; existed {
			continue
		}
		film := s.film.Clone()
		film.Countries = setToSorted(s.countries)
		if mode == models.ModeDeep && len(film.Countries) == 0 && opts.DropEmpty {
			stats.DroppedEmpty++
			continue
		}
		stats.Added++
		out = append(out, film)
	}

	models.SortFilms(out)
	return MergeResult{Films: out, Stats: stats}
}

func collectSightings(fetched map[string][]models.Film, mode models.SyncMode, opts MergeOptions) map[int64]*sighting {
	keys := make([]string, 0, len(fetched))
	for k := range fetched {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	seen := make(map[int64]*sighting)
	for _, key := range keys {
		code, valid := countries.Normalize(key)

		targets := []string{}
		if valid {
			targets = append(targets, code)
			if mode == models.ModeShallow {
				for _, follower := range opts.Attribution[code] {
					if f, ok := countries.Normalize(follower); ok {
						targets = append(targets, f)
					}
				}
			}
		}

		for _, film := range fetched[key] {
			s, ok := seen[film.MubiID]
			if !ok {
				s = &sighting{film: film.Clone(), countries: make(map[string]struct{})}
				s.film.Countries = nil
				seen[film.MubiID] = s
			} else {
				s.film = MergeFilmRecord(s.film, film)
			}
			for _, t := range targets {
				s.countries[t] = struct{}{}
			}
		}
	}
	return seen
}

func setToSorted(set map[string]struct{}) []string {
	out := make([]string, 0, len(set))
	for c := range set {
		out = append(out, c)
	}
	sort.Strings(out)
	return out
}

func unionSorted(existing []string, added map[string]struct{}) []string {
	all := make([]string, 0, len(existing)+len(added))
	all = append(all, existing...)
	for c := range added {
		all = append(all, c)
	}
	return models.SortedSet(all)
}

// CountrySnapshots inverts films into country -> film IDs, the per-country
// view consumed by clustering and the coverage optimizer.
func CountrySnapshots(films []models.Film) map[string]map[int64]struct{} {
	index := make(map[string]map[int64]struct{})
	for i := range films {
		for _, code := range films[i].Countries {
			set, ok := index[code]
			if !ok {
				set = make(map[int64]struct{})
				index[code] = set
			}
			set[films[i].MubiID] = struct{}{}
		}
	}
	return index
}
