// Reelmap - Streaming Catalogue Sync and Country Coverage Planning
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reelmap

package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/tomtom215/reelmap/internal/logging"
	"github.com/tomtom215/reelmap/internal/models"
)

// Export replaces the export tables with the given catalogue and clusters.
// clusters may be nil.
func (db *DB) Export(ctx context.Context, cat *models.Catalogue, clusters []models.Cluster) error {
	if cat == nil {
		return errors.New("export: nil catalogue")
	}
	start := time.Now()

	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin export: %w", err)
	}
	defer rollbackQuietly(tx)

	if err := dropSchema(ctx, tx); err != nil {
		return err
	}
	if err := createSchema(ctx, tx); err != nil {
		return err
	}

	exportedAt := cat.Meta.GeneratedAt
	if exportedAt.IsZero() {
		exportedAt = time.Now().UTC()
	}
	availability, err := insertFilms(ctx, tx, cat.Items, exportedAt)
	if err != nil {
		return err
	}
	if err := insertClusters(ctx, tx, clusters); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit export: %w", err)
	}

	logging.Ctx(ctx).Info().
		Int("films", len(cat.Items)).
		Int("availability_rows", availability).
		Int("clusters", len(clusters)).
		Dur("duration", time.Since(start)).
		Msg("Catalogue exported to DuckDB")
	return nil
}

func insertFilms(ctx context.Context, tx *sql.Tx, films []models.Film, exportedAt time.Time) (int, error) {
	filmStmt, err := tx.PrepareContext(ctx, `INSERT INTO films (
		mubi_id, title, original_title, year, duration, genres, directors,
		mubi_rating, mubi_voters, bayesian_rating, country_count, exported_at
	) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return 0, fmt.Errorf("prepare films insert: %w", err)
	}
	defer closeWithLog(filmStmt, "prepared statement")

	countryStmt, err := tx.PrepareContext(ctx, `INSERT INTO film_countries (mubi_id, country) VALUES (?, ?)`)
	if err != nil {
		return 0, fmt.Errorf("prepare film_countries insert: %w", err)
	}
	defer closeWithLog(countryStmt, "prepared statement")

	rows := 0
	for i := range films {
		f := &films[i]
		var mubiScore, mubiVoters, bayesScore any
		if r, ok := f.Rating(models.RatingSourceMubi); ok {
			mubiScore, mubiVoters = r.ScoreOverTen, r.Voters
		}
		if r, ok := f.Rating(models.RatingSourceBayesian); ok {
			bayesScore = r.ScoreOverTen
		}

		if _, err := filmStmt.ExecContext(ctx,
			f.MubiID,
			f.Title,
			nullString(f.OriginalTitle),
			nullInt(f.Year),
			nullInt(f.Duration),
			strings.Join(f.Genres, ", "),
			strings.Join(f.Directors, ", "),
			mubiScore,
			mubiVoters,
			bayesScore,
			len(f.Countries),
			exportedAt,
		); err != nil {
			return rows, fmt.Errorf("insert film %d: %w", f.MubiID, err)
		}

		for _, code := range models.SortedSet(f.Countries) {
			if _, err := countryStmt.ExecContext(ctx, f.MubiID, code); err != nil {
				return rows, fmt.Errorf("insert availability %d/%s: %w", f.MubiID, code, err)
			}
			rows++
		}
	}
	return rows, nil
}

func insertClusters(ctx context.Context, tx *sql.Tx, clusters []models.Cluster) error {
	for _, c := range clusters {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO clusters (leader, film_count, member_count, content_hash) VALUES (?, ?, ?, ?)`,
			c.Leader, c.Count, len(c.Members), nullString(c.Hash),
		); err != nil {
			return fmt.Errorf("insert cluster %s: %w", c.Leader, err)
		}
		for _, member := range models.SortedSet(c.Members) {
			if _, err := tx.ExecContext(ctx,
				`INSERT INTO cluster_members (leader, country) VALUES (?, ?)`,
				c.Leader, member,
			); err != nil {
				return fmt.Errorf("insert cluster member %s/%s: %w", c.Leader, member, err)
			}
		}
	}
	return nil
}

func nullInt(p *int) any {
	if p == nil {
		return nil
	}
	return int64(*p)
}

func nullString(s string) any {
	if s == "" {
		return nil
	}
	return s
}
