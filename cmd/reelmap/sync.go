// Reelmap - Streaming Catalogue Sync and Country Coverage Planning
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reelmap

package main

import (
	"errors"
	"fmt"
	"io"

	"github.com/goccy/go-json"
	"github.com/spf13/cobra"

	"github.com/tomtom215/reelmap/internal/models"
	"github.com/tomtom215/reelmap/internal/sync"
)

type syncFlags struct {
	mode        string
	output      string
	clusters    string
	input       string
	countries   []string
	home        string
	coverageOut string
	metricsFile string
	exportDB    string
}

func (c *cli) newSyncCommand() *cobra.Command {
	var f syncFlags

	cmd := &cobra.Command{
		Use:   "sync",
		Short: "Fetch country catalogues and merge them into the catalogue file",
		Long: `Fetch country catalogues and merge them into the catalogue file.

A deep sync queries every supported country, resets availability and prunes
films no country lists. A shallow sync queries the cluster leaders chosen by
the coverage optimizer and only ever adds availability.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return c.runSync(cmd, f)
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&f.mode, "mode", "", "sync mode: deep or shallow (default from config)")
	flags.StringVar(&f.output, "output", "", "catalogue output path")
	flags.StringVar(&f.clusters, "clusters", "", "cluster file path")
	flags.StringVar(&f.input, "input", "", "previous catalogue (defaults to --output)")
	flags.StringSliceVar(&f.countries, "countries", nil, "comma-separated country codes to fetch")
	flags.StringVar(&f.home, "home", "", "home country for shallow planning")
	flags.StringVar(&f.coverageOut, "coverage-out", "", "write a compact coverage index here")
	flags.StringVar(&f.metricsFile, "metrics-file", "", "write Prometheus textfile metrics here")
	flags.StringVar(&f.exportDB, "export-db", "", "export the result to this DuckDB file")
	return cmd
}

func (c *cli) runSync(cmd *cobra.Command, f syncFlags) error {
	opts := sync.RunOptions{
		Output:       f.output,
		ClustersPath: f.clusters,
		CoveragePath: f.coverageOut,
		InputPath:    f.input,
		Countries:    f.countries,
		Home:         f.home,
		MetricsFile:  f.metricsFile,
	}
	if f.mode != "" {
		mode, err := models.ParseSyncMode(f.mode)
		if err != nil {
			return err
		}
		opts.Mode = mode
	}

	cfg := *c.cfg
	if f.exportDB != "" {
		cfg.Database.Path = f.exportDB
	}

	p, err := newPipeline(&cfg)
	if err != nil {
		return err
	}
	defer p.close()

	res, err := p.manager.Run(cmd.Context(), opts)
	if err != nil {
		if errors.Is(err, sync.ErrNoFilms) {
			return &exitError{code: 1, err: err}
		}
		return err
	}

	if err := writeJSON(cmd.OutOrStdout(), runSummary(res)); err != nil {
		return err
	}
	if code := res.ExitCode(); code != 0 {
		return &exitError{code: code, err: fmt.Errorf("sync finished with %d error(s)", len(res.Errors))}
	}
	return nil
}

// syncSummary is the machine-readable result printed after a sync.
type syncSummary struct {
	RunID      string            `json:"run_id"`
	Mode       models.SyncMode   `json:"mode"`
	TotalCount int               `json:"total_count"`
	Written    bool              `json:"written"`
	Merge      models.MergeStats `json:"merge"`
	Clusters   int               `json:"clusters"`
	Errors     []string          `json:"errors"`
}

func runSummary(res *models.RunResult) syncSummary {
	errs := res.Errors
	if errs == nil {
		errs = []string{}
	}
	return syncSummary{
		RunID:      res.RunID,
		Mode:       res.Mode,
		TotalCount: res.TotalCount(),
		Written:    res.Written,
		Merge:      res.Merge,
		Clusters:   len(res.Clusters),
		Errors:     errs,
	}
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
