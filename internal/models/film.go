// Reelmap - Streaming Catalogue Sync and Country Coverage Planning
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reelmap

package models

import (
	"bytes"
	"fmt"
	"sort"

	"github.com/goccy/go-json"
)

// Rating sources written by Reelmap itself.
const (
	RatingSourceMubi     = "mubi"
	RatingSourceBayesian = "bayesian"
)

// Rating is one score for a film from one source.
type Rating struct {
	Source       string  `json:"source" validate:"required"`
	ScoreOverTen float64 `json:"score_over_10" validate:"gte=0,lte=10"`
	Voters       int     `json:"voters" validate:"gte=0"`
}

// Film is one catalogue entry.
//
// Year and Duration are pointers so that "absent" (null) can be told apart
// from zero when records are merged. Countries is owned by the merge policy
// and is always sorted and de-duplicated once persisted.
type Film struct {
	MubiID        int64    `json:"mubi_id" validate:"required,gt=0"`
	Title         string   `json:"title"`
	OriginalTitle string   `json:"original_title,omitempty"`
	Year          *int     `json:"year"`
	Duration      *int     `json:"duration"`
	Genres        []string `json:"genres"`
	Directors     []string `json:"directors"`
	ShortSynopsis string   `json:"short_synopsis,omitempty"`
	Ratings       []Rating `json:"ratings,omitempty" validate:"dive"`
	Countries     []string `json:"countries" validate:"dive,country"`

	// Extra holds JSON fields this package does not model, keyed by name.
	Extra map[string]json.RawMessage `json:"-"`
}

// filmJSON has Film's fields without its methods, so the custom
// (un)marshalers below can delegate to the default codec.
type filmJSON Film

// knownFilmFields lists the JSON keys decoded into typed fields.
var knownFilmFields = []string{
	"mubi_id", "title", "original_title", "year", "duration", "genres",
	"directors", "short_synopsis", "ratings", "countries",
}

// UnmarshalJSON decodes the typed fields and keeps every other key in Extra.
func (f *Film) UnmarshalJSON(data []byte) error {
	var typed filmJSON
	if err := json.Unmarshal(data, &typed); err != nil {
		return err
	}

	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	for _, key := range knownFilmFields {
		delete(raw, key)
	}

	*f = Film(typed)
	f.Extra = nil
	if len(raw) > 0 {
		f.Extra = raw
	}
	return nil
}

// MarshalJSON encodes the typed fields followed by Extra in key order.
// Nil genre, director and country lists are written as empty arrays.
func (f Film) MarshalJSON() ([]byte, error) {
	typed := filmJSON(f)
	if typed.Genres == nil {
		typed.Genres = []string{}
	}
	if typed.Directors == nil {
		typed.Directors = []string{}
	}
	if typed.Countries == nil {
		typed.Countries = []string{}
	}

	body, err := json.Marshal(typed)
	if err != nil {
		return nil, err
	}
	if len(f.Extra) == 0 {
		return body, nil
	}

	keys := make([]string, 0, len(f.Extra))
	for key := range f.Extra {
		if isKnownFilmField(key) {
			continue
		}
		keys = append(keys, key)
	}
	sort.Strings(keys)

	var buf bytes.Buffer
	buf.Grow(len(body) + 32*len(keys))
	buf.Write(body[:len(body)-1])
	for _, key := range keys {
		name, err := json.Marshal(key)
		if err != nil {
			return nil, err
		}
		value := f.Extra[key]
		if len(value) == 0 {
			value = json.RawMessage("null")
		}
		buf.WriteByte(',')
		buf.Write(name)
		buf.WriteByte(':')
		buf.Write(value)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

func isKnownFilmField(key string) bool {
	for _, known := range knownFilmFields {
		if key == known {
			return true
		}
	}
	return false
}

// Rating returns the rating from the given source, if present.
func (f *Film) Rating(source string) (Rating, bool) {
	for _, r := range f.Ratings {
		if r.Source == source {
			return r, true
		}
	}
	return Rating{}, false
}

// External identifier keys, carried in Extra.
const (
	ExternalIMDb = "imdb_id"
	ExternalTMDB = "tmdb_id"
)

// ExternalID returns the identifier stored under key as text, or "" when it
// is absent, null or neither a string nor a number.
func (f *Film) ExternalID(key string) string {
	raw, ok := f.Extra[key]
	if !ok {
		return ""
	}
	var id string
	if err := json.Unmarshal(raw, &id); err == nil {
		return id
	}
	var n json.Number
	if err := json.Unmarshal(raw, &n); err == nil {
		return n.String()
	}
	return ""
}

// SetExternalID stores id under key in Extra.
func (f *Film) SetExternalID(key, id string) {
	raw, err := json.Marshal(id)
	if err != nil {
		return
	}
	if f.Extra == nil {
		f.Extra = make(map[string]json.RawMessage, 2)
	}
	f.Extra[key] = raw
}

// Clone returns a deep copy of the film.
func (f *Film) Clone() Film {
	out := *f
	out.Year = cloneInt(f.Year)
	out.Duration = cloneInt(f.Duration)
	out.Genres = cloneStrings(f.Genres)
	out.Directors = cloneStrings(f.Directors)
	out.Countries = cloneStrings(f.Countries)
	if f.Ratings != nil {
		out.Ratings = append([]Rating(nil), f.Ratings...)
	}
	if f.Extra != nil {
		out.Extra = make(map[string]json.RawMessage, len(f.Extra))
		for k, v := range f.Extra {
			out.Extra[k] = append(json.RawMessage(nil), v...)
		}
	}
	return out
}

// String implements fmt.Stringer for log messages.
func (f *Film) String() string {
	if f.Year != nil {
		return fmt.Sprintf("%d %q (%d)", f.MubiID, f.Title, *f.Year)
	}
	return fmt.Sprintf("%d %q", f.MubiID, f.Title)
}

// IntPtr returns a pointer to v.
func IntPtr(v int) *int {
	return &v
}

func cloneInt(p *int) *int {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

func cloneStrings(s []string) []string {
	if s == nil {
		return nil
	}
	return append([]string(nil), s...)
}

// SortedSet returns the de-duplicated, sorted copy of codes.
func SortedSet(codes []string) []string {
	if len(codes) == 0 {
		return []string{}
	}
	seen := make(map[string]struct{}, len(codes))
	out := make([]string, 0, len(codes))
	for _, c := range codes {
		if _, ok := seen[c]; ok {
			continue
		}
		seen[c] = struct{}{}
		out = append(out, c)
	}
	sort.Strings(out)
	return out
}
