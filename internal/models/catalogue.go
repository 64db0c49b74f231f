// Reelmap - Streaming Catalogue Sync and Country Coverage Planning
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reelmap

package models

import (
	"fmt"
	"sort"
	"strings"
	"time"
)

// CatalogueVersion is the schema version written to meta.version.
const CatalogueVersion = 1

// SyncMode selects the merge policy of a sync run.
type SyncMode string

const (
	// ModeDeep queries every supported country; it resets availability and prunes absent films.
	ModeDeep SyncMode = "deep"

	// ModeShallow queries an optimizer-selected subset; it only ever adds availability.
	ModeShallow SyncMode = "shallow"
)

// ParseSyncMode parses "deep" or "shallow" (case-insensitive).
func ParseSyncMode(s string) (SyncMode, error) {
	switch SyncMode(strings.ToLower(strings.TrimSpace(s))) {
	case ModeDeep:
		return ModeDeep, nil
	case ModeShallow:
		return ModeShallow, nil
	default:
		return "", fmt.Errorf("invalid sync mode %q: must be deep or shallow", s)
	}
}

// String implements fmt.Stringer.
func (m SyncMode) String() string {
	return string(m)
}

// Meta is the catalogue header.
type Meta struct {
	GeneratedAt      time.Time `json:"generated_at"`
	Mode             SyncMode  `json:"mode"`
	TotalCount       int       `json:"total_count"`
	Version          int       `json:"version,omitempty"`
	RunID            string    `json:"run_id,omitempty"`
	CountriesQueried []string  `json:"countries_queried,omitempty"`
}

// BayesStats are the calibration constants carried between ratings runs.
type BayesStats struct {
	GlobalMeanC     float64 `json:"global_mean_C"`
	MubiConfidenceM float64 `json:"mubi_confidence_m"`
}

// Catalogue is the persisted film catalogue.
type Catalogue struct {
	Meta       Meta        `json:"meta"`
	Items      []Film      `json:"items"`
	BayesStats *BayesStats `json:"bayes_stats,omitempty"`
}

// NewCatalogue builds a catalogue from items, sorting them by film ID and
// filling in the header.
func NewCatalogue(items []Film, mode SyncMode, generatedAt time.Time) *Catalogue {
	SortFilms(items)
	return &Catalogue{
		Meta: Meta{
			GeneratedAt: generatedAt.UTC().Truncate(time.Second),
			Mode:        mode,
			TotalCount:  len(items),
			Version:     CatalogueVersion,
		},
		Items: items,
	}
}

// Index returns the items keyed by film ID.
func (c *Catalogue) Index() map[int64]*Film {
	index := make(map[int64]*Film, len(c.Items))
	for i := range c.Items {
		index[c.Items[i].MubiID] = &c.Items[i]
	}
	return index
}

// CountryCounts returns the number of films available in each country.
func (c *Catalogue) CountryCounts() map[string]int {
	counts := make(map[string]int)
	for i := range c.Items {
		for _, code := range c.Items[i].Countries {
			counts[code]++
		}
	}
	return counts
}

// SortFilms sorts films by ascending film ID.
func SortFilms(films []Film) {
	sort.Slice(films, func(i, j int) bool {
		return films[i].MubiID < films[j].MubiID
	})
}
