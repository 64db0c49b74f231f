// Reelmap - Streaming Catalogue Sync and Country Coverage Planning
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reelmap

package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/tomtom215/reelmap/internal/catalogue"
	"github.com/tomtom215/reelmap/internal/enrich"
	"github.com/tomtom215/reelmap/internal/logging"
)

// tmdbKeyEnv is read when enrich.api_key is unset.
const tmdbKeyEnv = "TMDB_API_KEY"

func (c *cli) newEnrichCommand() *cobra.Command {
	var (
		path     string
		output   string
		workers  int
		minScore int
	)

	cmd := &cobra.Command{
		Use:   "enrich",
		Short: "Add IMDb and TMDB identifiers to catalogue films",
		Long: `Add IMDb and TMDB identifiers to catalogue films.

Every film missing either identifier is searched on TMDB and the best
candidate is scored on director, title, year and runtime. Identifiers are
only written when the score reaches the minimum; existing ones are kept.
The API key comes from enrich.api_key or $TMDB_API_KEY.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ec := c.cfg.Enrich
			if ec.APIKey == "" {
				ec.APIKey = os.Getenv(tmdbKeyEnv)
			}
			if ec.APIKey == "" {
				return errors.New("no TMDB API key: set enrich.api_key or " + tmdbKeyEnv)
			}
			if cmd.Flags().Changed("workers") {
				ec.Workers = workers
			}
			if cmd.Flags().Changed("min-score") {
				if minScore < 0 || minScore > 100 {
					return fmt.Errorf("--min-score %d out of range [0,100]", minScore)
				}
				ec.MinScore = minScore
			}

			in := c.catalogueFlag(path)
			cat, err := catalogue.Load(in)
			if err != nil {
				return err
			}
			if output == "" {
				output = in
			}

			ctx := cmd.Context()
			client := enrich.NewClient(ec, c.cfg.Fetch)
			if err := client.Ping(ctx); err != nil {
				return fmt.Errorf("tmdb: %w", err)
			}

			stats, runErr := enrich.New(enrich.NewTMDBMatcher(client, ec.MinScore), ec.Workers).Run(ctx, cat)
			if runErr != nil && !errors.Is(runErr, context.Canceled) {
				return runErr
			}
			// Keep whatever was matched before an interrupt.
			if stats.Updated > 0 {
				if err := catalogue.Save(output, cat); err != nil {
					return err
				}
				logging.Info().Str("path", output).Int("updated", stats.Updated).Msg("Catalogue written")
			}
			if err := writeJSON(cmd.OutOrStdout(), stats); err != nil {
				return err
			}
			if runErr != nil {
				return &exitError{code: 1, err: runErr}
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&path, "catalogue", "", "catalogue file (default from config)")
	cmd.Flags().StringVar(&output, "output", "", "write the enriched catalogue here (default: in place)")
	cmd.Flags().IntVar(&workers, "workers", 0, "concurrent lookups (default enrich.workers)")
	cmd.Flags().IntVar(&minScore, "min-score", 0, "match confidence 0-100 (default enrich.min_score)")
	return cmd
}
