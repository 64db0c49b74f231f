// Reelmap - Streaming Catalogue Sync and Country Coverage Planning
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reelmap

// Package coverage selects the ordered list of countries to query (or to
// switch a VPN through) to reach full catalogue coverage.
package coverage

import (
	"sort"

	"github.com/tomtom215/reelmap/internal/countries"
	"github.com/tomtom215/reelmap/internal/models"
)

// Map maps a country code to the film IDs available there.
type Map map[string]map[int64]struct{}

// FromFilms builds a coverage map from catalogue items. Invalid country
// codes are skipped.
func FromFilms(films []models.Film) Map {
	m := make(Map)
	for i := range films {
		for _, raw := range films[i].Countries {
			code, ok := countries.Normalize(raw)
			if !ok {
				continue
			}
			set, exists := m[code]
			if !exists {
				set = make(map[int64]struct{})
				m[code] = set
			}
			set[films[i].MubiID] = struct{}{}
		}
	}
	return m
}

// Universe returns the union of every country's film set.
func (m Map) Universe() map[int64]struct{} {
	all := make(map[int64]struct{})
	for _, films := range m {
		for id := range films {
			all[id] = struct{}{}
		}
	}
	return all
}

// Restrict returns a map containing only the given codes.
func (m Map) Restrict(codes []string) Map {
	out := make(Map, len(codes))
	for _, c := range codes {
		if films, ok := m[c]; ok {
			out[c] = films
		}
	}
	return out
}

// TierFunc ranks a country for tie-breaking; lower wins.
type TierFunc func(code string) int

// Options configures SelectCountries.
type Options struct {
	// MaxCountries caps the selection length, home included. Zero means no cap.
	MaxCountries int

	// Tier breaks ties between countries adding the same number of films.
	// Nil means every country ranks equally and the code decides.
	Tier TierFunc
}

// SelectCountries runs greedy set cover over m starting from home.
//
// The home country is always first, whatever it covers. Each further step
// picks the country adding the most uncovered films; ties go to the lower
// tier, then the lower code. Selection stops when everything is covered, no
// country adds a film, or the cap is reached.
func SelectCountries(m Map, home string, opts Options) []string {
	if code, ok := countries.Normalize(home); ok {
		home = code
	}

	selected := []string{home}
	if opts.MaxCountries == 1 {
		return selected
	}

	universe := m.Universe()
	covered := make(map[int64]struct{}, len(universe))
	for id := range m[home] {
		covered[id] = struct{}{}
	}

	remaining := make([]string, 0, len(m))
	for code := range m {
		if code != home {
			remaining = append(remaining, code)
		}
	}
	sort.Strings(remaining)

	tier := opts.Tier
	if tier == nil {
		tier = func(string) int { return 0 }
	}

	for len(covered) < len(universe) && len(remaining) > 0 {
		if opts.MaxCountries > 0 && len(selected) >= opts.MaxCountries {
			break
		}

		bestIdx, bestGain, bestTier := -1, 0, 0
		for i, code := range remaining {
			gain := uncovered(m[code], covered)
			if gain == 0 {
				continue
			}
			t := tier(code)
			if gain > bestGain || (gain == bestGain && t < bestTier) {
				bestIdx, bestGain, bestTier = i, gain, t
			}
		}
		if bestIdx < 0 {
			break
		}

		best := remaining[bestIdx]
		for id := range m[best] {
			covered[id] = struct{}{}
		}
		selected = append(selected, best)
		remaining = append(remaining[:bestIdx], remaining[bestIdx+1:]...)
	}

	return selected
}

func uncovered(films, covered map[int64]struct{}) int {
	n := 0
	for id := range films {
		if _, ok := covered[id]; !ok {
			n++
		}
	}
	return n
}

// Stats summarizes a selection against a coverage map.
type Stats struct {
	TotalFilms         int      `json:"total_films"`
	CountriesAvailable int      `json:"total_countries_available"`
	Selected           []string `json:"optimal_countries"`
	SelectedCount      int      `json:"optimal_country_count"`
	HomeFilms          int      `json:"user_country_films"`
	CoveredFilms       int      `json:"covered_films"`
	CoveragePercent    float64  `json:"coverage_percent"`
}

// ComputeStats reports how much of m the selected countries cover.
func ComputeStats(m Map, home string, selected []string) Stats {
	if code, ok := countries.Normalize(home); ok {
		home = code
	}
	universe := m.Universe()
	covered := make(map[int64]struct{}, len(universe))
	for _, code := range selected {
		for id := range m[code] {
			covered[id] = struct{}{}
		}
	}

	s := Stats{
		TotalFilms:         len(universe),
		CountriesAvailable: len(m),
		Selected:           append([]string(nil), selected...),
		SelectedCount:      len(selected),
		HomeFilms:          len(m[home]),
		CoveredFilms:       len(covered),
		CoveragePercent:    100,
	}
	if len(universe) > 0 {
		s.CoveragePercent = float64(len(covered)) * 100 / float64(len(universe))
	}
	return s
}
