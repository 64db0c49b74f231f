// Reelmap - Streaming Catalogue Sync and Country Coverage Planning
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reelmap

// Package clustering groups countries whose catalogues are near-identical so
// that shallow syncs can query one leader per group.
package clustering

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/cespare/xxhash/v2"

	"github.com/tomtom215/reelmap/internal/models"
)

// DefaultThreshold is the Jaccard similarity at or above which two countries
// are considered equivalent.
const DefaultThreshold = 0.98

// Options configures Detect.
type Options struct {
	// Threshold is the minimum Jaccard similarity in (0,1]. The zero value
	// means DefaultThreshold; a zero threshold cannot be requested.
	Threshold float64

	// PreferredLeaders wins leader ties between countries of equal catalogue
	// size, ahead of the lexical fallback. Typically the critical countries.
	PreferredLeaders []string
}

// Snapshot maps a country code to the set of film IDs available there.
type Snapshot map[string]map[int64]struct{}

// Detect clusters the countries of snapshot.
//
// Countries are visited in descending catalogue size (ties: preferred, then
// code). Each unassigned country becomes a leader and absorbs every later
// unassigned country whose Jaccard similarity with it is >= threshold, or
// whose catalogue is a subset of the leader's. Clusters are returned by
// descending member count, then leader code.
func Detect(snapshot Snapshot, opts Options) ([]models.Cluster, error) {
	threshold := opts.Threshold
	if threshold == 0 {
		threshold = DefaultThreshold
	}
	if threshold < 0 || threshold > 1 {
		return nil, fmt.Errorf("similarity threshold %v out of range (0,1]", threshold)
	}

	preferred := make(map[string]bool, len(opts.PreferredLeaders))
	for _, c := range opts.PreferredLeaders {
		preferred[strings.ToUpper(c)] = true
	}

	order := make([]string, 0, len(snapshot))
	for code := range snapshot {
		order = append(order, code)
	}
	sort.Slice(order, func(i, j int) bool {
		a, b := order[i], order[j]
		if la, lb := len(snapshot[a]), len(snapshot[b]); la != lb {
			return la > lb
		}
		if preferred[a] != preferred[b] {
			return preferred[a]
		}
		return a < b
	})

	assigned := make(map[string]bool, len(order))
	var clusters []models.Cluster

	for i, leader := range order {
		if assigned[leader] {
			continue
		}
		assigned[leader] = true
		leaderSet := snapshot[leader]
		members := []string{leader}

		for _, candidate := range order[i+1:] {
			if assigned[candidate] {
				continue
			}
			candidateSet := snapshot[candidate]
			if Jaccard(leaderSet, candidateSet) >= threshold || IsSubset(candidateSet, leaderSet) {
				assigned[candidate] = true
				members = append(members, candidate)
			}
		}

		sort.Strings(members)
		clusters = append(clusters, models.Cluster{
			Leader:  leader,
			Members: members,
			Count:   len(leaderSet),
			Hash:    ContentHash(leaderSet),
		})
	}

	sort.SliceStable(clusters, func(i, j int) bool {
		if len(clusters[i].Members) != len(clusters[j].Members) {
			return len(clusters[i].Members) > len(clusters[j].Members)
		}
		return clusters[i].Leader < clusters[j].Leader
	})
	return clusters, nil
}

// Jaccard returns |a∩b| / |a∪b|. Two empty sets are identical (1.0).
func Jaccard(a, b map[int64]struct{}) float64 {
	if len(a) == 0 && len(b) == 0 {
		return 1.0
	}
	small, large := a, b
	if len(small) > len(large) {
		small, large = large, small
	}
	inter := 0
	for id := range small {
		if _, ok := large[id]; ok {
			inter++
		}
	}
	union := len(a) + len(b) - inter
	return float64(inter) / float64(union)
}

// IsSubset reports whether every element of sub is in super.
func IsSubset(sub, super map[int64]struct{}) bool {
	if len(sub) > len(super) {
		return false
	}
	for id := range sub {
		if _, ok := super[id]; !ok {
			return false
		}
	}
	return true
}

// ContentHash returns a stable 16-hex-digit hash of the sorted film IDs.
func ContentHash(ids map[int64]struct{}) string {
	sorted := make([]int64, 0, len(ids))
	for id := range ids {
		sorted = append(sorted, id)
	}
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })

	d := xxhash.New()
	buf := make([]byte, 0, 24)
	for i, id := range sorted {
		buf = buf[:0]
		if i > 0 {
			buf = append(buf, ',')
		}
		buf = strconv.AppendInt(buf, id, 10)
		_, _ = d.Write(buf)
	}
	return fmt.Sprintf("%016x", d.Sum64())
}

// Attribution maps each leader to its followers, the shape consumed by a
// shallow merge.
func Attribution(clusters []models.Cluster) map[string][]string {
	out := make(map[string][]string, len(clusters))
	for i := range clusters {
		if followers := clusters[i].Followers(); len(followers) > 0 {
			out[clusters[i].Leader] = followers
		}
	}
	return out
}

// Leaders returns the leader of every cluster, in cluster order.
func Leaders(clusters []models.Cluster) []string {
	out := make([]string, 0, len(clusters))
	for i := range clusters {
		out = append(out, clusters[i].Leader)
	}
	return out
}
