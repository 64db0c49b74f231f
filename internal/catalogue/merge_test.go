// Reelmap - Streaming Catalogue Sync and Country Coverage Planning
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reelmap

package catalogue

import (
	"reflect"
	"testing"

	"github.com/goccy/go-json"

	"github.com/tomtom215/reelmap/internal/models"
)

func film(id int64, title string, countries ...string) models.Film {
	return models.Film{MubiID: id, Title: title, Countries: countries}
}

func countriesByID(films []models.Film) map[int64][]string {
	out := make(map[int64][]string, len(films))
	for _, f := range films {
		out[f.MubiID] = f.Countries
	}
	return out
}

func TestMerge_DeepResetsAndPrunes(t *testing.T) {
	t.Parallel()

	previous := []models.Film{
		film(1, "Kept", "US", "GB", "FR"),
		film(2, "Gone", "US"),
		{MubiID: 3, Title: "Enriched", Countries: []string{"DE"},
			Extra: map[string]json.RawMessage{"imdb_id": json.RawMessage(`"tt3"`)}},
	}
	fetched := map[string][]models.Film{
		"US": {film(1, "Kept (Restored)"), film(4, "New")},
		"DE": {film(1, ""), film(3, "Enriched")},
	}

	res := Merge(previous, fetched, models.ModeDeep, MergeOptions{DropEmpty: true})

	got := countriesByID(res.Films)
	want := map[int64][]string{
		1: {"DE", "US"},
		3: {"DE"},
		4: {"US"},
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("countries = %v, want %v", got, want)
	}
	if res.Films[0].Title != "Kept (Restored)" {
		t.Errorf("expected title from fetch, got %q", res.Films[0].Title)
	}
	if string(res.Films[1].Extra["imdb_id"]) != `"tt3"` {
		t.Errorf("expected enrichment preserved, got %v", res.Films[1].Extra)
	}

	wantStats := models.MergeStats{Added: 1, Updated: 2, Pruned: 1}
	if res.Stats != wantStats {
		t.Errorf("stats = %+v, want %+v", res.Stats, wantStats)
	}
}

func TestMerge_DeepEmptyCountryPolicy(t *testing.T) {
	t.Parallel()

	// A listing under an unusable country key still counts as a sighting but
	// contributes no availability.
	fetched := map[string][]models.Film{
		"??": {film(9, "Orphan")},
		"US": {film(1, "Listed")},
	}

	dropped := Merge(nil, fetched, models.ModeDeep, MergeOptions{DropEmpty: true})
	if len(dropped.Films) != 1 || dropped.Stats.DroppedEmpty != 1 {
		t.Errorf("DropEmpty=true: films=%v stats=%+v", dropped.Films, dropped.Stats)
	}

	kept := Merge(nil, fetched, models.ModeDeep, MergeOptions{DropEmpty: false})
	if len(kept.Films) != 2 {
		t.Fatalf("DropEmpty=false: expected 2 films, got %d", len(kept.Films))
	}
	if kept.Films[1].MubiID != 9 || len(kept.Films[1].Countries) != 0 {
		t.Errorf("expected film 9 retained with no countries, got %+v", kept.Films[1])
	}
}

func TestMerge_ShallowUnionsAndNeverPrunes(t *testing.T) {
	t.Parallel()

	previous := []models.Film{
		film(1, "A", "FR", "GB"),
		film(2, "B", "JP"),
	}
	fetched := map[string][]models.Film{
		"US": {film(1, "A"), film(5, "E")},
	}

	res := Merge(previous, fetched, models.ModeShallow, MergeOptions{DropEmpty: true})

	got := countriesByID(res.Films)
	want := map[int64][]string{
		1: {"FR", "GB", "US"},
		2: {"JP"},
		5: {"US"},
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("countries = %v, want %v", got, want)
	}
	wantStats := models.MergeStats{Added: 1, Updated: 1, Untouched: 1}
	if res.Stats != wantStats {
		t.Errorf("stats = %+v, want %+v", res.Stats, wantStats)
	}
}

func TestMerge_ShallowMonotonicUnion(t *testing.T) {
	t.Parallel()

	previous := []models.Film{film(1, "A", "AT", "DE"), film(2, "B", "US")}
	fetched := map[string][]models.Film{"DE": {film(2, "B")}}

	res := Merge(previous, fetched, models.ModeShallow, MergeOptions{})
	after := countriesByID(res.Films)

	for _, before := range previous {
		for _, c := range before.Countries {
			found := false
			for _, a := range after[before.MubiID] {
				if a == c {
					found = true
				}
			}
			if !found {
				t.Errorf("film %d lost country %s in shallow merge", before.MubiID, c)
			}
		}
	}
}

func TestMerge_ShallowIdempotentWithEmptyFetch(t *testing.T) {
	t.Parallel()

	previous := []models.Film{film(1, "A", "GB", "US"), film(2, "B", "DE")}
	first := Merge(previous, map[string][]models.Film{"US": {film(2, "B")}}, models.ModeShallow, MergeOptions{})
	second := Merge(first.Films, map[string][]models.Film{}, models.ModeShallow, MergeOptions{})

	if !reflect.DeepEqual(first.Films, second.Films) {
		t.Errorf("second shallow merge changed the catalogue:\nfirst  %+v\nsecond %+v", first.Films, second.Films)
	}
}

func TestMerge_ShallowAttributesLeaderFilmsToFollowers(t *testing.T) {
	t.Parallel()

	fetched := map[string][]models.Film{"DE": {film(1, "A")}}
	opts := MergeOptions{Attribution: map[string][]string{"DE": {"AT", "CH"}}}

	shallow := Merge(nil, fetched, models.ModeShallow, opts)
	if got := shallow.Films[0].Countries; !reflect.DeepEqual(got, []string{"AT", "CH", "DE"}) {
		t.Errorf("shallow countries = %v, want [AT CH DE]", got)
	}

	deep := Merge(nil, fetched, models.ModeDeep, opts)
	if got := deep.Films[0].Countries; !reflect.DeepEqual(got, []string{"DE"}) {
		t.Errorf("deep ignores attribution: countries = %v, want [DE]", got)
	}
}

func TestMerge_DuplicateSightingsAreUnioned(t *testing.T) {
	t.Parallel()

	fetched := map[string][]models.Film{
		"gb": {film(1, "A")},
		"US": {film(1, "A"), film(1, "A")},
	}
	res := Merge(nil, fetched, models.ModeDeep, MergeOptions{})

	if len(res.Films) != 1 {
		t.Fatalf("expected one film, got %d", len(res.Films))
	}
	if got := res.Films[0].Countries; !reflect.DeepEqual(got, []string{"GB", "US"}) {
		t.Errorf("countries = %v, want [GB US]", got)
	}
}

func TestCountrySnapshots(t *testing.T) {
	t.Parallel()

	idx := CountrySnapshots([]models.Film{film(1, "", "US", "GB"), film(2, "", "US")})
	if len(idx["US"]) != 2 || len(idx["GB"]) != 1 {
		t.Errorf("unexpected snapshots: %v", idx)
	}
}
