// Reelmap - Streaming Catalogue Sync and Country Coverage Planning
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reelmap

package validation

import (
	"fmt"
	"sort"
	"strings"

	"github.com/tomtom215/reelmap/internal/countries"
	"github.com/tomtom215/reelmap/internal/models"
)

// Message prefixes, one per independent check.
const (
	PrefixTotalCount      = "Total Count"
	PrefixFieldIntegrity  = "Field Integrity"
	PrefixCriticalCountry = "Critical Country"
	PrefixSchema          = "Schema"
)

// Thresholds configures the integrity checks.
type Thresholds struct {
	MinTotalFilms     int      `koanf:"min_total_films" validate:"gte=0"`
	MaxMissingPercent float64  `koanf:"max_missing_percent" validate:"gte=0,lte=100"`
	RequiredFields    []string `koanf:"required_fields"`
	CriticalCountries []string `koanf:"critical_countries" validate:"dive,country"`
}

// DefaultThresholds returns production thresholds.
func DefaultThresholds() Thresholds {
	return Thresholds{
		MinTotalFilms:     500,
		MaxMissingPercent: 5.0,
		RequiredFields:    []string{"title", "year"},
		CriticalCountries: countries.Default().Critical(),
	}
}

// fieldMissing reports whether a required field is absent on a film.
var fieldMissing = map[string]func(f *models.Film) bool{
	"title":          func(f *models.Film) bool { return strings.TrimSpace(f.Title) == "" },
	"original_title": func(f *models.Film) bool { return strings.TrimSpace(f.OriginalTitle) == "" },
	"year":           func(f *models.Film) bool { return f.Year == nil },
	"duration":       func(f *models.Film) bool { return f.Duration == nil },
	"genres":         func(f *models.Film) bool { return len(f.Genres) == 0 },
	"directors":      func(f *models.Film) bool { return len(f.Directors) == 0 },
	"short_synopsis": func(f *models.Film) bool { return strings.TrimSpace(f.ShortSynopsis) == "" },
	"countries":      func(f *models.Film) bool { return len(f.Countries) == 0 },
}

// Integrity runs every check against a merged catalogue and returns all
// violations; an empty result means the run can be trusted.
//
// countryCounts holds the number of films each successfully fetched country
// returned this run and queried lists the countries fetched. Critical
// countries that were not queried, or whose fetch failed (no entry in
// countryCounts), are not checked; failed fetches are reported by the run
// itself.
func Integrity(films []models.Film, countryCounts map[string]int, queried []string, th Thresholds) []string {
	var errs []string

	if len(films) < th.MinTotalFilms {
		errs = append(errs, fmt.Sprintf("%s: catalogue has %d films, below minimum of %d",
			PrefixTotalCount, len(films), th.MinTotalFilms))
	}

	errs = append(errs, checkFields(films, th)...)
	errs = append(errs, checkCritical(countryCounts, queried, th.CriticalCountries)...)

	if msg := checkSchema(films); msg != "" {
		errs = append(errs, msg)
	}
	return errs
}

func checkFields(films []models.Film, th Thresholds) []string {
	if len(films) == 0 {
		return nil
	}
	var errs []string
	for _, field := range th.RequiredFields {
		missing, ok := fieldMissing[field]
		if !ok {
			errs = append(errs, fmt.Sprintf("%s: unknown required field %q", PrefixFieldIntegrity, field))
			continue
		}
		n := 0
		for i := range films {
			if missing(&films[i]) {
				n++
			}
		}
		pct := float64(n) * 100 / float64(len(films))
		if pct > th.MaxMissingPercent {
			errs = append(errs, fmt.Sprintf("%s: %.1f%% of films missing %s (%d of %d, max %.1f%%)",
				PrefixFieldIntegrity, pct, field, n, len(films), th.MaxMissingPercent))
		}
	}
	return errs
}

func checkCritical(countryCounts map[string]int, queried, critical []string) []string {
	asked := make(map[string]struct{}, len(queried))
	for _, q := range queried {
		if code, ok := countries.Normalize(q); ok {
			asked[code] = struct{}{}
		}
	}

	codes, _ := countries.NormalizeAll(critical)
	sort.Strings(codes)

	var errs []string
	for _, code := range codes {
		if _, ok := asked[code]; !ok {
			continue
		}
		n, fetched := countryCounts[code]
		if !fetched {
			continue
		}
		if n == 0 {
			errs = append(errs, fmt.Sprintf("%s: %s returned 0 films", PrefixCriticalCountry, code))
		}
	}
	return errs
}

func checkSchema(films []models.Film) string {
	invalid := 0
	var first string
	for i := range films {
		if err := ValidateStruct(&films[i]); err != nil {
			if invalid == 0 {
				first = fmt.Sprintf("film %d: %s", films[i].MubiID, err.Error())
			}
			invalid++
		}
	}
	if invalid == 0 {
		return ""
	}
	return fmt.Sprintf("%s: %d invalid films (first: %s)", PrefixSchema, invalid, first)
}
