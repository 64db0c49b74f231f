// Reelmap - Streaming Catalogue Sync and Country Coverage Planning
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reelmap

package enrich

import "testing"

func TestNormalizeTitle(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   string
		want string
	}{
		{"  Stalker ", "stalker"},
		{"Amélie: Le Fabuleux Destin!", "amelie le fabuleux destin"},
		{"Rashōmon", "rashomon"},
		{"Сталкер", "сталкер"},
		{"2001: A Space Odyssey", "2001 a space odyssey"},
		{"---", ""},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			if got := normalizeTitle(tt.in); got != tt.want {
				t.Errorf("normalizeTitle(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestRatio(t *testing.T) {
	t.Parallel()

	tests := []struct {
		a, b string
		want int
	}{
		{"stalker", "stalker", 100},
		{"kitten", "sitting", 62},
		{"", "stalker", 0},
		{"abc", "xyz", 0},
	}
	for _, tt := range tests {
		if got := ratio(tt.a, tt.b); got != tt.want {
			t.Errorf("ratio(%q, %q) = %d, want %d", tt.a, tt.b, got, tt.want)
		}
	}
}

func TestTokenSetRatio(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		a, b string
		min  int
		max  int
	}{
		{"reordered", "The Mirror", "Mirror, The", 100, 100},
		{"subset", "About Love", "About Love Story", 100, 100},
		{"accents", "Amélie", "AMELIE", 100, 100},
		{"initial", "A. Tarkovsky", "Andrei Tarkovsky", 86, 99},
		{"different", "Stalker", "Solaris", 0, 60},
		{"empty", "", "Solaris", 0, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tokenSetRatio(tt.a, tt.b)
			if got < tt.min || got > tt.max {
				t.Errorf("tokenSetRatio(%q, %q) = %d, want [%d,%d]", tt.a, tt.b, got, tt.min, tt.max)
			}
		})
	}
}
