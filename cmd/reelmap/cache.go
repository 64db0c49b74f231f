// Reelmap - Streaming Catalogue Sync and Country Coverage Planning
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reelmap

package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/tomtom215/reelmap/internal/cache"
	"github.com/tomtom215/reelmap/internal/logging"
)

func (c *cli) newCacheCommand() *cobra.Command {
	var dir string

	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Inspect or empty the on-disk listing page cache",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmd.Help()
		},
	}
	cmd.PersistentFlags().StringVar(&dir, "dir", "", "page cache directory (default cache.dir)")

	cmd.AddCommand(
		&cobra.Command{
			Use:   "stats",
			Short: "Print how many pages the cache holds",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				return c.withPageStore(dir, func(store *cache.PageStore) error {
					n, err := store.Count()
					if err != nil {
						return err
					}
					fmt.Fprintf(cmd.OutOrStdout(), "%d cached pages\n", n)
					return nil
				})
			},
		},
		&cobra.Command{
			Use:   "purge",
			Short: "Remove every cached page",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				return c.withPageStore(dir, func(store *cache.PageStore) error {
					n, err := store.Count()
					if err != nil {
						return err
					}
					if err := store.Purge(); err != nil {
						return err
					}
					logging.Info().Int("pages", n).Msg("Page cache purged")
					fmt.Fprintf(cmd.OutOrStdout(), "purged %d cached pages\n", n)
					return nil
				})
			},
		},
	)
	return cmd
}

// withPageStore opens the on-disk page store for fn and closes it after.
func (c *cli) withPageStore(dir string, fn func(*cache.PageStore) error) error {
	if dir == "" {
		dir = c.cfg.Cache.Dir
	}
	if dir == "" {
		return errors.New("no cache directory: pass --dir or set cache.dir")
	}
	store, err := cache.OpenPageStore(dir, c.cfg.Cache.TTL)
	if err != nil {
		return fmt.Errorf("open page cache: %w", err)
	}
	defer func() {
		if cerr := store.Close(); cerr != nil {
			logging.Warn().Err(cerr).Msg("Failed to close page cache")
		}
	}()
	return fn(store)
}
