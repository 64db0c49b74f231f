// Reelmap - Streaming Catalogue Sync and Country Coverage Planning
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reelmap

package sync

import (
	"github.com/tomtom215/reelmap/internal/clustering"
	"github.com/tomtom215/reelmap/internal/countries"
	"github.com/tomtom215/reelmap/internal/coverage"
	"github.com/tomtom215/reelmap/internal/models"
)

// Plan reasons, reported in logs and run summaries.
const (
	PlanExplicit     = "explicit"
	PlanAllCountries = "all_countries"
	PlanColdStart    = "cold_start"
	PlanLeaders      = "cluster_leaders"
	PlanFullMap      = "full_coverage_map"
)

// PlanInput is everything needed to decide which countries a run queries.
type PlanInput struct {
	Mode models.SyncMode

	// Previous is the current catalogue; nil on a first run.
	Previous *models.Catalogue
	Clusters []models.Cluster

	Home string

	// Countries overrides the plan when non-empty.
	Countries []string

	// MaxCountries caps a shallow plan, home included. Zero means no cap.
	MaxCountries int

	Table *countries.Table
}

// Plan is the ordered list of countries to query.
type Plan struct {
	Mode      models.SyncMode
	Countries []string

	// Attribution maps a queried leader to its followers (shallow only).
	Attribution map[string][]string

	Reason  string
	Invalid []string
}

// BuildPlan decides the countries of a run.
//
// Deep runs query every country in the table unless an explicit list is
// given. Shallow runs query the home country first, then the cluster leaders
// the optimizer needs to cover the previous catalogue.
func BuildPlan(in PlanInput) Plan {
	table := in.Table
	if table == nil {
		table = countries.Default()
	}
	home, ok := countries.Normalize(in.Home)
	if !ok {
		home = "US"
	}

	p := Plan{Mode: in.Mode}

	if len(in.Countries) > 0 {
		valid, invalid := countries.NormalizeAll(in.Countries)
		p.Countries, p.Invalid, p.Reason = valid, invalid, PlanExplicit
		if in.Mode == models.ModeShallow {
			p.Attribution = clustering.Attribution(in.Clusters)
		}
		return p
	}

	if in.Mode == models.ModeDeep {
		p.Countries = table.Codes()
		p.Reason = PlanAllCountries
		return p
	}

	if in.Previous == nil || len(in.Previous.Items) == 0 {
		p.Countries = prependUnique(home, table.Critical())
		p.Reason = PlanColdStart
		return p
	}

	m := coverage.FromFilms(in.Previous.Items)
	p.Reason = PlanFullMap
	if len(in.Clusters) > 0 {
		m = m.Restrict(prependUnique(home, clustering.Leaders(in.Clusters)))
		p.Reason = PlanLeaders
		p.Attribution = clustering.Attribution(in.Clusters)
	}

	p.Countries = coverage.SelectCountries(m, home, coverage.Options{
		MaxCountries: in.MaxCountries,
		Tier:         table.Tier,
	})
	return p
}

// prependUnique returns first followed by rest without duplicates. rest
// keeps its order.
func prependUnique(first string, rest []string) []string {
	out := []string{first}
	seen := map[string]bool{first: true}
	for _, c := range rest {
		if !seen[c] {
			seen[c] = true
			out = append(out, c)
		}
	}
	return out
}
