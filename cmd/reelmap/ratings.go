// Reelmap - Streaming Catalogue Sync and Country Coverage Planning
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reelmap

package main

import (
	"github.com/spf13/cobra"

	"github.com/tomtom215/reelmap/internal/catalogue"
	"github.com/tomtom215/reelmap/internal/logging"
	"github.com/tomtom215/reelmap/internal/ratings"
)

func (c *cli) newRatingsCommand() *cobra.Command {
	var (
		path    string
		history string
	)

	cmd := &cobra.Command{
		Use:   "ratings",
		Short: "Recompute Bayesian ratings of a catalogue in place",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			file := c.catalogueFlag(path)
			cat, err := catalogue.Load(file)
			if err != nil {
				return err
			}
			if history == "" {
				history = c.cfg.Ratings.HistoryPath
			}
			prior, err := ratings.LoadHistory(history)
			if err != nil {
				logging.Warn().Err(err).Str("path", history).Msg("Ignoring unreadable ratings history")
			}

			res := ratings.Apply(cat, ratings.Options{DefaultC: c.cfg.Ratings.DefaultC, History: prior})
			if err := catalogue.Save(file, cat); err != nil {
				return err
			}
			logging.Info().
				Str("path", file).
				Int("rated", res.Rated).
				Bool("warm_start", res.WarmStart).
				Msg("Bayesian ratings written")
			return writeJSON(cmd.OutOrStdout(), res)
		},
	}

	cmd.Flags().StringVar(&path, "catalogue", "", "catalogue file (default from config)")
	cmd.Flags().StringVar(&history, "history", "", "previous catalogue supplying warm-start constants")
	return cmd
}
