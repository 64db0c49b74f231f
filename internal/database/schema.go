// Reelmap - Streaming Catalogue Sync and Country Coverage Planning
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reelmap

package database

import (
	"context"
	"database/sql"
	"fmt"
)

// Tables in drop order (children first).
var exportTables = []string{"cluster_members", "clusters", "film_countries", "films"}

var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS films (
		mubi_id BIGINT PRIMARY KEY,
		title VARCHAR NOT NULL,
		original_title VARCHAR,
		year INTEGER,
		duration INTEGER,
		genres VARCHAR,
		directors VARCHAR,
		mubi_rating DOUBLE,
		mubi_voters INTEGER,
		bayesian_rating DOUBLE,
		country_count INTEGER NOT NULL,
		exported_at TIMESTAMP NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS film_countries (
		mubi_id BIGINT NOT NULL,
		country VARCHAR(2) NOT NULL,
		PRIMARY KEY (mubi_id, country)
	)`,
	`CREATE TABLE IF NOT EXISTS clusters (
		leader VARCHAR(2) PRIMARY KEY,
		film_count INTEGER NOT NULL,
		member_count INTEGER NOT NULL,
		content_hash VARCHAR
	)`,
	`CREATE TABLE IF NOT EXISTS cluster_members (
		leader VARCHAR(2) NOT NULL,
		country VARCHAR(2) NOT NULL,
		PRIMARY KEY (leader, country)
	)`,
	`CREATE INDEX IF NOT EXISTS idx_film_countries_country ON film_countries(country)`,
}

// execer is satisfied by *sql.DB and *sql.Tx.
type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func (db *DB) createTables(ctx context.Context) error {
	return createSchema(ctx, db.conn)
}

func createSchema(ctx context.Context, ex execer) error {
	for _, stmt := range schemaStatements {
		if _, err := ex.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("create schema: %w", err)
		}
	}
	return nil
}

// dropSchema removes every export table so the next createSchema starts
// from an empty snapshot.
func dropSchema(ctx context.Context, ex execer) error {
	for _, table := range exportTables {
		if _, err := ex.ExecContext(ctx, "DROP TABLE IF EXISTS "+table); err != nil {
			return fmt.Errorf("drop %s: %w", table, err)
		}
	}
	return nil
}
