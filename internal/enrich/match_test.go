// Reelmap - Streaming Catalogue Sync and Country Coverage Planning
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reelmap

package enrich

import (
	"context"
	"testing"

	"github.com/tomtom215/reelmap/internal/models"
)

func stalker() models.Film {
	return models.Film{
		MubiID:        42,
		Title:         "Stalker",
		OriginalTitle: "Сталкер",
		Year:          models.IntPtr(1979),
		Duration:      models.IntPtr(161),
		Directors:     []string{"Andrei Tarkovsky"},
	}
}

func TestTMDBMatcher_Match(t *testing.T) {
	t.Parallel()

	fake, srv := newFakeTMDB(t)
	fake.search("Сталкер", 0,
		searchResult{ID: 999, Title: "Stalker", OriginalTitle: "Stalker", ReleaseDate: "2010-01-01"},
		searchResult{ID: 1398, Title: "Stalker", OriginalTitle: "Сталкер", ReleaseDate: "1979-05-25"},
	)
	fake.movie(1398, "Stalker", "Сталкер", "1979-05-25", 162, "tt0079944", "Andrei Tarkovsky")

	client, _ := newTestClient(t, srv.URL)
	film := stalker()
	match, err := NewTMDBMatcher(client, 0).Match(context.Background(), &film)
	if err != nil {
		t.Fatal(err)
	}
	if match == nil {
		t.Fatal("expected a match")
	}
	if match.TMDBID != "1398" || match.IMDbID != "tt0079944" || match.Score != 100 || match.Year != 1979 {
		t.Errorf("match = %+v", match)
	}
	if fake.requests("/movie/999") != 0 {
		t.Error("a candidate outside the year window must not be verified")
	}
}

func TestTMDBMatcher_FallsBackToDisplayTitle(t *testing.T) {
	t.Parallel()

	fake, srv := newFakeTMDB(t)
	fake.search("Stalker", 0, searchResult{ID: 1398, Title: "Stalker", ReleaseDate: "1979-05-25"})
	fake.movie(1398, "Stalker", "Сталкер", "1979-05-25", 162, "tt0079944", "Andrei Tarkovsky")

	client, _ := newTestClient(t, srv.URL)
	film := stalker()
	match, err := NewTMDBMatcher(client, 0).Match(context.Background(), &film)
	if err != nil {
		t.Fatal(err)
	}
	if match == nil || match.TMDBID != "1398" {
		t.Errorf("match = %+v", match)
	}
}

func TestTMDBMatcher_LowConfidence(t *testing.T) {
	t.Parallel()

	fake, srv := newFakeTMDB(t)
	fake.search("Сталкер", 0, searchResult{ID: 7, Title: "Stalker", OriginalTitle: "Сталкер", ReleaseDate: "1979-01-01"})
	// Same title and year, wrong director and runtime.
	fake.movie(7, "Stalker", "Сталкер", "1979-01-01", 90, "tt7", "Someone Else")

	client, _ := newTestClient(t, srv.URL)
	film := stalker()
	match, err := NewTMDBMatcher(client, 0).Match(context.Background(), &film)
	if err != nil {
		t.Fatal(err)
	}
	if match != nil {
		t.Errorf("expected no match, got %+v", match)
	}
	if fake.requests("/search/movie") != 4 {
		t.Errorf("searches = %d, want 1 plus 3 year-filtered", fake.requests("/search/movie"))
	}
}

func TestTMDBMatcher_YearFallback(t *testing.T) {
	t.Parallel()

	fake, srv := newFakeTMDB(t)
	fake.search("About Love", 0, searchResult{ID: 5, Title: "About Love Story", ReleaseDate: "2013-02-01"})
	fake.movie(5, "About Love Story", "", "2013-02-01", 80, "tt5", "Other Person")
	fake.search("About Love", 2015, searchResult{ID: 6, Title: "About Love", ReleaseDate: "2015-03-01"})
	fake.search("About Love", 2014, searchResult{ID: 5, Title: "About Love Story", ReleaseDate: "2013-02-01"})
	fake.movie(6, "About Love", "", "2015-03-01", 108, "tt6", "Anna Melikian")

	client, _ := newTestClient(t, srv.URL)
	film := models.Film{
		MubiID:    7,
		Title:     "About Love",
		Year:      models.IntPtr(2015),
		Duration:  models.IntPtr(110),
		Directors: []string{"Anna Melikian"},
	}
	match, err := NewTMDBMatcher(client, 0).Match(context.Background(), &film)
	if err != nil {
		t.Fatal(err)
	}
	if match == nil || match.TMDBID != "6" || match.IMDbID != "tt6" {
		t.Errorf("match = %+v", match)
	}
	if fake.requests("/movie/5") != 1 {
		t.Errorf("candidate 5 verified %d times, want 1", fake.requests("/movie/5"))
	}
}

func TestTMDBMatcher_NoCandidates(t *testing.T) {
	t.Parallel()

	fake, srv := newFakeTMDB(t)
	client, _ := newTestClient(t, srv.URL)
	film := stalker()
	match, err := NewTMDBMatcher(client, 0).Match(context.Background(), &film)
	if err != nil || match != nil {
		t.Errorf("match = %+v, err = %v", match, err)
	}
	// Original title, then display title. No year fallback without candidates.
	if fake.requests("/search/movie") != 2 {
		t.Errorf("searches = %d, want 2", fake.requests("/search/movie"))
	}
}

func TestScore(t *testing.T) {
	t.Parallel()

	details := func(runtime int, directors ...string) *movieDetails {
		d := &movieDetails{Title: "Stalker", OriginalTitle: "Сталкер", Runtime: runtime}
		for _, name := range directors {
			d.Credits.Crew = append(d.Credits.Crew, struct {
				Name string `json:"name"`
				Job  string `json:"job"`
			}{Name: name, Job: "Director"})
		}
		return d
	}

	tests := []struct {
		name    string
		details *movieDetails
		year    int
		want    int
	}{
		{"everything agrees", details(162, "Andrei Tarkovsky"), 1979, 100},
		{"no directors listed", details(162), 1979, 50},
		{"wrong director", details(162, "Someone Else"), 1979, 30},
		{"year off by one", details(162, "Andrei Tarkovsky"), 1980, 90},
		{"runtime far off", details(90, "Andrei Tarkovsky"), 1979, 60},
		{"runtime unknown", details(0, "Andrei Tarkovsky"), 1979, 90},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			film := stalker()
			if got := score(&film, tt.details, tt.year); got != tt.want {
				t.Errorf("score = %d, want %d", got, tt.want)
			}
		})
	}
}
