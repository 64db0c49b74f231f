// Reelmap - Streaming Catalogue Sync and Country Coverage Planning
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reelmap

package clustering

import (
	"sort"

	"github.com/tomtom215/reelmap/internal/models"
)

// Change kinds reported by Diff.
const (
	ChangeAdded   = "added"
	ChangeRemoved = "removed"
	ChangeContent = "content"
	ChangeMembers = "members"
)

// Change describes how one leader's cluster differs between two runs.
type Change struct {
	Leader string `json:"leader"`
	Kind   string `json:"kind"`
}

// Diff compares clusters from a previous deep run with the current ones,
// keyed by leader. Results are sorted by leader then kind.
func Diff(previous, current []models.Cluster) []Change {
	prev := make(map[string]models.Cluster, len(previous))
	for _, c := range previous {
		prev[c.Leader] = c
	}
	cur := make(map[string]models.Cluster, len(current))
	for _, c := range current {
		cur[c.Leader] = c
	}

	var changes []Change
	for leader, c := range cur {
		old, ok := prev[leader]
		if !ok {
			changes = append(changes, Change{Leader: leader, Kind: ChangeAdded})
			continue
		}
		if old.Hash != c.Hash {
			changes = append(changes, Change{Leader: leader, Kind: ChangeContent})
		}
		if !equalStrings(old.Members, c.Members) {
			changes = append(changes, Change{Leader: leader, Kind: ChangeMembers})
		}
	}
	for leader := range prev {
		if _, ok := cur[leader]; !ok {
			changes = append(changes, Change{Leader: leader, Kind: ChangeRemoved})
		}
	}

	sort.Slice(changes, func(i, j int) bool {
		if changes[i].Leader != changes[j].Leader {
			return changes[i].Leader < changes[j].Leader
		}
		return changes[i].Kind < changes[j].Kind
	})
	return changes
}

func equalStrings(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
