// Reelmap - Streaming Catalogue Sync and Country Coverage Planning
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reelmap

package database

import (
	"context"
	"fmt"
)

// CountryCoverage is one row of the per-country coverage report.
type CountryCoverage struct {
	Country string `json:"country"`
	Films   int    `json:"films"`

	// Exclusive counts films available in this country and nowhere else.
	Exclusive int `json:"exclusive"`
}

const countryCoverageQuery = `
WITH film_spread AS (
	SELECT mubi_id, COUNT(*) AS n
	FROM film_countries
	GROUP BY mubi_id
)
SELECT
	fc.country,
	COUNT(*) AS films,
	COUNT(*) FILTER (WHERE fs.n = 1) AS exclusive
FROM film_countries fc
JOIN film_spread fs ON fs.mubi_id = fc.mubi_id
GROUP BY fc.country
ORDER BY films DESC, fc.country`

// CountryCoverage returns per-country film counts from the last export,
// largest catalogue first.
func (db *DB) CountryCoverage(ctx context.Context) ([]CountryCoverage, error) {
	rows, err := db.conn.QueryContext(ctx, countryCoverageQuery)
	if err != nil {
		return nil, fmt.Errorf("query country coverage: %w", err)
	}
	defer closeWithLog(rows, "rows")

	var out []CountryCoverage
	for rows.Next() {
		var c CountryCoverage
		if err := rows.Scan(&c.Country, &c.Films, &c.Exclusive); err != nil {
			return nil, fmt.Errorf("scan country coverage: %w", err)
		}
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate country coverage: %w", err)
	}
	return out, nil
}

// FilmCount returns the number of exported films.
func (db *DB) FilmCount(ctx context.Context) (int, error) {
	var n int
	if err := db.conn.QueryRowContext(ctx, "SELECT COUNT(*) FROM films").Scan(&n); err != nil {
		return 0, fmt.Errorf("count films: %w", err)
	}
	return n, nil
}
