// Reelmap - Streaming Catalogue Sync and Country Coverage Planning
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reelmap

// Package ratings computes the composite "bayesian" rating of each film.
//
//	W = (v/(v+m))*R + (m/(v+m))*C
//
// R is the vote-weighted mean of every non-bayesian source of a film and v
// their summed voters. C (global mean) and m (confidence threshold) are
// carried between runs in the catalogue's bayes_stats.
package ratings

import (
	"errors"
	"math"

	"github.com/tomtom215/reelmap/internal/catalogue"
	"github.com/tomtom215/reelmap/internal/models"
)

// DefaultC is the global mean used on a cold start.
const DefaultC = 6.9

// legacyFields are top-level keys written by older catalogue versions.
var legacyFields = []string{"bayesian_rating", "total_votes"}

// Options configures Apply.
type Options struct {
	// DefaultC replaces DefaultC when positive.
	DefaultC float64

	// History supplies warm-start constants when the catalogue has none.
	History *models.BayesStats
}

// Result summarizes an Apply pass.
type Result struct {
	// Used are the constants the scores were computed with.
	Used models.BayesStats `json:"used"`

	// Next are the constants stored for the following run.
	Next models.BayesStats `json:"next"`

	WarmStart bool `json:"warm_start"`
	Rated     int  `json:"rated"`
	Unrated   int  `json:"unrated"`
}

// Apply rewrites the bayesian rating of every item in cat and updates
// cat.BayesStats. Prior bayesian entries are stripped first so repeated
// runs do not count their voters twice.
func Apply(cat *models.Catalogue, opts Options) Result {
	defaultC := opts.DefaultC
	if defaultC <= 0 {
		defaultC = DefaultC
	}

	var res Result
	res.Used, res.WarmStart = constants(cat, opts.History, defaultC)
	c, m := res.Used.GlobalMeanC, res.Used.MubiConfidenceM

	for i := range cat.Items {
		item := &cat.Items[i]
		item.Ratings = stripBayesian(item.Ratings)
		for _, k := range legacyFields {
			delete(item.Extra, k)
		}

		r, v := RawMetrics(item.Ratings)
		if v == 0 {
			res.Unrated++
			continue
		}
		vf := float64(v)
		w := (vf/(vf+m))*r + (m/(vf+m))*c

		item.Ratings = append(item.Ratings, models.Rating{
			Source:       models.RatingSourceBayesian,
			ScoreOverTen: round(w, 1),
			Voters:       v,
		})
		res.Rated++
	}

	res.Next = nextConstants(cat.Items, defaultC)
	next := res.Next
	cat.BayesStats = &next
	return res
}

// constants returns the stored constants (warm start) or derives them from
// the current mubi voters (cold start).
func constants(cat *models.Catalogue, history *models.BayesStats, defaultC float64) (models.BayesStats, bool) {
	if cat.BayesStats != nil {
		return *cat.BayesStats, true
	}
	if history != nil {
		return *history, true
	}
	total, count := mubiVoters(cat.Items)
	m := 0.0
	if count > 0 {
		m = float64(total) / float64(count)
	}
	return models.BayesStats{GlobalMeanC: defaultC, MubiConfidenceM: m}, false
}

// nextConstants recalibrates C and m from the processed items.
func nextConstants(items []models.Film, defaultC float64) models.BayesStats {
	var sumR float64
	countR := 0
	for i := range items {
		r, _ := RawMetrics(items[i].Ratings)
		if r > 0 {
			sumR += r
			countR++
		}
	}
	c := defaultC
	if countR > 0 {
		c = sumR / float64(countR)
	}

	total, count := mubiVoters(items)
	m := 0.0
	if count > 0 {
		m = float64(total) / float64(count)
	}
	return models.BayesStats{GlobalMeanC: round(c, 2), MubiConfidenceM: round(m, 2)}
}

// RawMetrics returns the vote-weighted mean score R and total voters v over
// the non-bayesian sources with positive voters.
func RawMetrics(ratings []models.Rating) (float64, int) {
	var weighted float64
	votes := 0
	for _, r := range ratings {
		if r.Source == models.RatingSourceBayesian || r.Voters <= 0 {
			continue
		}
		weighted += r.ScoreOverTen * float64(r.Voters)
		votes += r.Voters
	}
	if votes == 0 {
		return 0, 0
	}
	return weighted / float64(votes), votes
}

func mubiVoters(items []models.Film) (total, count int) {
	for i := range items {
		if r, ok := items[i].Rating(models.RatingSourceMubi); ok {
			total += r.Voters
			count++
		}
	}
	return total, count
}

func stripBayesian(ratings []models.Rating) []models.Rating {
	out := ratings[:0:0]
	for _, r := range ratings {
		if r.Source != models.RatingSourceBayesian {
			out = append(out, r)
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

func round(v float64, places int) float64 {
	p := math.Pow(10, float64(places))
	return math.Round(v*p) / p
}

// LoadHistory reads warm-start constants from a previous catalogue file.
// A missing file or a file without bayes_stats yields nil and no error.
func LoadHistory(path string) (*models.BayesStats, error) {
	if path == "" {
		return nil, nil
	}
	cat, err := catalogue.Load(path)
	if err != nil {
		if errors.Is(err, catalogue.ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return cat.BayesStats, nil
}
