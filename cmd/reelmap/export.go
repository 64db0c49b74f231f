// Reelmap - Streaming Catalogue Sync and Country Coverage Planning
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reelmap

package main

import (
	"errors"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/tomtom215/reelmap/internal/catalogue"
	"github.com/tomtom215/reelmap/internal/database"
	"github.com/tomtom215/reelmap/internal/logging"
)

func (c *cli) newExportCommand() *cobra.Command {
	var (
		path     string
		clusters string
		dbPath   string
	)

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Load a catalogue into DuckDB and print per-country coverage",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cat, err := catalogue.Load(c.catalogueFlag(path))
			if err != nil {
				return err
			}
			if clusters == "" {
				clusters = c.cfg.Sync.ClustersPath
			}
			cl, err := catalogue.LoadClusters(clusters)
			if err != nil && !errors.Is(err, catalogue.ErrNotFound) {
				return err
			}

			dbCfg := c.cfg.Database
			if dbPath != "" {
				dbCfg.Path = dbPath
			}
			if dbCfg.Path == "" {
				return errors.New("no database path: pass --db or set database.path")
			}

			db, err := database.Open(dbCfg)
			if err != nil {
				return err
			}
			defer func() {
				if cerr := db.Close(); cerr != nil {
					logging.Warn().Err(cerr).Msg("Failed to close database")
				}
			}()

			ctx := cmd.Context()
			if err := db.Export(ctx, cat, cl); err != nil {
				return err
			}
			rows, err := db.CountryCoverage(ctx)
			if err != nil {
				return err
			}
			films, err := db.FilmCount(ctx)
			if err != nil {
				return err
			}
			if films != len(cat.Items) {
				logging.Warn().Int("catalogue", len(cat.Items)).Int("exported", films).
					Msg("Exported film count differs from the catalogue")
			}

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "COUNTRY\tFILMS\tEXCLUSIVE")
			for _, r := range rows {
				fmt.Fprintf(tw, "%s\t%d\t%d\n", r.Country, r.Films, r.Exclusive)
			}
			fmt.Fprintf(tw, "\n%d films, %d clusters exported to %s\n", films, len(cl), dbCfg.Path)
			return tw.Flush()
		},
	}

	cmd.Flags().StringVar(&path, "catalogue", "", "catalogue file (default from config)")
	cmd.Flags().StringVar(&clusters, "clusters", "", "cluster file (default from config)")
	cmd.Flags().StringVar(&dbPath, "db", "", "DuckDB file (default database.path)")
	return cmd
}
