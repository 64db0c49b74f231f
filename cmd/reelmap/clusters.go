// Reelmap - Streaming Catalogue Sync and Country Coverage Planning
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reelmap

package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/tomtom215/reelmap/internal/catalogue"
	"github.com/tomtom215/reelmap/internal/clustering"
	"github.com/tomtom215/reelmap/internal/countries"
	"github.com/tomtom215/reelmap/internal/logging"
)

func (c *cli) newClustersCommand() *cobra.Command {
	var (
		path      string
		output    string
		threshold float64
	)

	cmd := &cobra.Command{
		Use:   "clusters",
		Short: "Recompute catalogue clusters from an existing catalogue",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cat, err := catalogue.Load(c.catalogueFlag(path))
			if err != nil {
				return err
			}
			if output == "" {
				output = c.cfg.Sync.ClustersPath
			}
			if !cmd.Flags().Changed("threshold") {
				threshold = c.cfg.Clusters.Threshold
			} else if threshold <= 0 || threshold > 1 {
				return fmt.Errorf("--threshold %v out of range (0,1]", threshold)
			}

			clusters, err := clustering.Detect(catalogue.CountrySnapshots(cat.Items), clustering.Options{
				Threshold:        threshold,
				PreferredLeaders: countries.Default().Critical(),
			})
			if err != nil {
				return err
			}

			if previous, err := catalogue.LoadClusters(output); err == nil {
				for _, change := range clustering.Diff(previous, clusters) {
					logging.Info().Str("leader", change.Leader).Str("change", change.Kind).Msg("Cluster changed")
				}
			}
			if err := catalogue.SaveClusters(output, clusters); err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			for _, cl := range clusters {
				fmt.Fprintf(out, "%s  %5d films  %s\n", cl.Leader, cl.Count, strings.Join(cl.Members, ","))
			}
			fmt.Fprintf(out, "%d clusters written to %s\n", len(clusters), output)
			return nil
		},
	}

	cmd.Flags().StringVar(&path, "catalogue", "", "catalogue file (default from config)")
	cmd.Flags().StringVar(&output, "output", "", "cluster file to write (default from config)")
	cmd.Flags().Float64Var(&threshold, "threshold", clustering.DefaultThreshold, "Jaccard similarity threshold in (0,1] (default from config)")
	return cmd
}
