// Reelmap - Streaming Catalogue Sync and Country Coverage Planning
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reelmap

package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/tomtom215/reelmap/internal/catalogue"
	"github.com/tomtom215/reelmap/internal/countries"
	"github.com/tomtom215/reelmap/internal/coverage"
	"github.com/tomtom215/reelmap/internal/models"
)

func (c *cli) newOptimizeCommand() *cobra.Command {
	var (
		path         string
		indexPath    string
		home         string
		maxCountries int
		asJSON       bool
	)

	cmd := &cobra.Command{
		Use:   "optimize",
		Short: "Plan the fewest countries covering the catalogue from a home country",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			films, err := c.loadPlanningFilms(path, indexPath)
			if err != nil {
				return err
			}

			if home == "" {
				home = c.cfg.Coverage.Home
			}
			code, ok := countries.Normalize(home)
			if !ok {
				return fmt.Errorf("invalid home country %q", home)
			}
			if !cmd.Flags().Changed("max") {
				maxCountries = c.cfg.Coverage.MaxCountries
			}
			if maxCountries < 0 {
				return fmt.Errorf("--max must be >= 0, got %d", maxCountries)
			}

			table := countries.Default()
			m := coverage.FromFilms(films)
			selected := coverage.SelectCountries(m, code, coverage.Options{
				MaxCountries: maxCountries,
				Tier:         table.Tier,
			})
			stats := coverage.ComputeStats(m, code, selected)

			out := cmd.OutOrStdout()
			if asJSON {
				return writeJSON(out, stats)
			}

			fmt.Fprintf(out, "Home country:      %s (%d films)\n", code, stats.HomeFilms)
			fmt.Fprintf(out, "Catalogue:         %d films in %d of %d countries\n",
				stats.TotalFilms, stats.CountriesAvailable, table.Len())
			fmt.Fprintf(out, "Plan:              %d countries\n", stats.SelectedCount)
			for i, cc := range stats.Selected {
				fmt.Fprintf(out, "  %2d. %s\n", i+1, cc)
			}
			fmt.Fprintf(out, "Coverage:          %d films (%.2f%%)\n", stats.CoveredFilms, stats.CoveragePercent)
			return nil
		},
	}

	cmd.Flags().StringVar(&path, "catalogue", "", "catalogue file (default from config)")
	cmd.Flags().StringVar(&indexPath, "index", "", "plan from a coverage index written by sync --coverage-out")
	cmd.Flags().StringVar(&home, "home", "", "home country code (default from config)")
	cmd.Flags().IntVar(&maxCountries, "max", 0, "maximum countries in the plan, home included; 0 = no cap")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the plan as JSON")
	return cmd
}

// loadPlanningFilms reads films from a coverage index when one is given and
// from the catalogue otherwise.
func (c *cli) loadPlanningFilms(cataloguePath, indexPath string) ([]models.Film, error) {
	if indexPath != "" {
		if cataloguePath != "" {
			return nil, errors.New("--catalogue and --index are mutually exclusive")
		}
		return catalogue.LoadCoverageIndex(indexPath)
	}
	cat, err := catalogue.Load(c.catalogueFlag(cataloguePath))
	if err != nil {
		return nil, err
	}
	return cat.Items, nil
}
