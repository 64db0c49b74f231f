// Reelmap - Streaming Catalogue Sync and Country Coverage Planning
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reelmap

package main

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"github.com/tomtom215/reelmap/internal/catalogue"
	"github.com/tomtom215/reelmap/internal/validation"
)

func (c *cli) newValidateCommand() *cobra.Command {
	var path string

	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Run integrity checks against a catalogue file",
		Long: `Run integrity checks against a catalogue file.

Country counts are taken from the films' availability, and critical
countries are checked only if the catalogue's last run queried them.
Exits 1 when any check fails.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			file := c.catalogueFlag(path)
			cat, err := catalogue.Load(file)
			if err != nil {
				return err
			}

			counts := make(map[string]int)
			for code, ids := range catalogue.CountrySnapshots(cat.Items) {
				counts[code] = len(ids)
			}
			queried := cat.Meta.CountriesQueried
			if len(queried) == 0 {
				queried = make([]string, 0, len(counts))
				for code := range counts {
					queried = append(queried, code)
				}
				sort.Strings(queried)
			}
			// A file records no fetch failures, so every queried country
			// counts as fetched, with zero films if none list it.
			for _, code := range queried {
				if _, ok := counts[code]; !ok {
					counts[code] = 0
				}
			}

			violations := validation.Integrity(cat.Items, counts, queried, c.cfg.Validation)
			out := cmd.OutOrStdout()
			if len(violations) == 0 {
				fmt.Fprintf(out, "%s: %d films, %d countries, no violations\n", file, len(cat.Items), len(counts))
				return nil
			}
			for _, v := range violations {
				fmt.Fprintln(out, v)
			}
			return &exitError{code: 1, err: fmt.Errorf("%s: %d integrity violation(s)", file, len(violations))}
		},
	}

	cmd.Flags().StringVar(&path, "catalogue", "", "catalogue file (default from config)")
	return cmd
}
