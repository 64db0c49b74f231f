// Reelmap - Streaming Catalogue Sync and Country Coverage Planning
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reelmap

package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/tomtom215/reelmap/internal/config"
	"github.com/tomtom215/reelmap/internal/logging"
)

// cli is the state shared by every subcommand once the root has run.
type cli struct {
	stdout io.Writer
	stderr io.Writer

	cfgFile   string
	logLevel  string
	logFormat string

	cfg *config.Config
}

func newRootCommand(stdout, stderr io.Writer) *cobra.Command {
	c := &cli{stdout: stdout, stderr: stderr}

	root := &cobra.Command{
		Use:           "reelmap",
		Short:         "Streaming catalogue sync and country coverage planning",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return c.init()
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmd.Help()
		},
	}
	root.SetOut(stdout)
	root.SetErr(stderr)

	root.PersistentFlags().StringVar(&c.cfgFile, "config", "",
		"config file (default is $CONFIG_PATH, ./reelmap.yaml or /etc/reelmap/config.yaml)")
	root.PersistentFlags().StringVar(&c.logLevel, "log-level", "", "log level: trace, debug, info, warn, error")
	root.PersistentFlags().StringVar(&c.logFormat, "log-format", "", "log format: json or console")

	root.AddCommand(
		c.newSyncCommand(),
		c.newOptimizeCommand(),
		c.newClustersCommand(),
		c.newValidateCommand(),
		c.newRatingsCommand(),
		c.newExportCommand(),
		c.newCacheCommand(),
		c.newEnrichCommand(),
		c.newServeCommand(),
	)
	return root
}

// init loads configuration and initializes logging. Flags win over the
// config file and environment.
func (c *cli) init() error {
	var (
		cfg *config.Config
		err error
	)
	if c.cfgFile != "" {
		cfg, err = config.LoadFile(c.cfgFile)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return err
	}

	if c.logLevel != "" {
		cfg.Logging.Level = strings.ToLower(c.logLevel)
	}
	if c.logFormat != "" {
		cfg.Logging.Format = strings.ToLower(c.logFormat)
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid flags: %w", err)
	}

	logging.Init(logging.Config{
		Level:     cfg.Logging.Level,
		Format:    cfg.Logging.Format,
		Caller:    cfg.Logging.Caller,
		Timestamp: true,
		Output:    c.stderr,
	})
	c.cfg = cfg
	return nil
}

// catalogueFlag defaults an empty --catalogue to the configured sync output.
func (c *cli) catalogueFlag(path string) string {
	if path != "" {
		return path
	}
	return c.cfg.Sync.Output
}
