// Reelmap - Streaming Catalogue Sync and Country Coverage Planning
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reelmap

package catalogue

import (
	"github.com/goccy/go-json"

	"github.com/tomtom215/reelmap/internal/models"
)

// MergeFilmRecord folds a freshly fetched record into an existing one and
// returns the result. Neither argument is modified.
//
// Field policy ("last write wins, missing-field-preserves"):
//
//   - Title, OriginalTitle, ShortSynopsis: overwritten when the new value is non-empty.
//   - Year, Duration: overwritten when the new value is non-nil.
//   - Genres, Directors: overwritten when the new list is non-empty.
//   - Ratings: merged by source; a source present in the new record replaces
//     the old entry for that source, other sources are kept in their order.
//   - Extra: old keys kept, new keys overwrite per key.
//   - Countries: copied from old unchanged; the merge mode owns availability.
//
// The film ID of old is kept. Callers only merge records with equal IDs.
func MergeFilmRecord(old, fresh models.Film) models.Film {
	merged := old.Clone()

	if fresh.Title != "" {
		merged.Title = fresh.Title
	}
	if fresh.OriginalTitle != "" {
		merged.OriginalTitle = fresh.OriginalTitle
	}
	if fresh.ShortSynopsis != "" {
		merged.ShortSynopsis = fresh.ShortSynopsis
	}
	if fresh.Year != nil {
		y := *fresh.Year
		merged.Year = &y
	}
	if fresh.Duration != nil {
		d := *fresh.Duration
		merged.Duration = &d
	}
	if len(fresh.Genres) > 0 {
		merged.Genres = append([]string(nil), fresh.Genres...)
	}
	if len(fresh.Directors) > 0 {
		merged.Directors = append([]string(nil), fresh.Directors...)
	}

	merged.Ratings = mergeRatings(merged.Ratings, fresh.Ratings)

	if len(fresh.Extra) > 0 {
		if merged.Extra == nil {
			merged.Extra = make(map[string]json.RawMessage, len(fresh.Extra))
		}
		for k, v := range fresh.Extra {
			merged.Extra[k] = append(json.RawMessage(nil), v...)
		}
	}

	return merged
}

func mergeRatings(old, fresh []models.Rating) []models.Rating {
	if len(fresh) == 0 {
		return old
	}

	bySource := make(map[string]models.Rating, len(fresh))
	for _, r := range fresh {
		bySource[r.Source] = r
	}

	out := make([]models.Rating, 0, len(old)+len(fresh))
	for _, r := range old {
		if replacement, ok := bySource[r.Source]; ok {
			out = append(out, replacement)
			delete(bySource, r.Source)
			continue
		}
		out = append(out, r)
	}
	for _, r := range fresh {
		if _, pending := bySource[r.Source]; pending {
			out = append(out, r)
			delete(bySource, r.Source)
		}
	}
	return out
}
