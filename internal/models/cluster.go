// Reelmap - Streaming Catalogue Sync and Country Coverage Planning
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reelmap

package models

// Cluster is a group of countries whose catalogues are treated as equivalent.
// Members is sorted and includes the leader; Count is the size of the
// leader's film set and Hash its content hash.
type Cluster struct {
	Leader  string   `json:"leader" validate:"required,country"`
	Members []string `json:"members" validate:"required,min=1,dive,country"`
	Count   int      `json:"count" validate:"gte=0"`
	Hash    string   `json:"hash"`
}

// Contains reports whether code is a member of the cluster.
func (c *Cluster) Contains(code string) bool {
	for _, m := range c.Members {
		if m == code {
			return true
		}
	}
	return false
}

// Followers returns the members other than the leader.
func (c *Cluster) Followers() []string {
	out := make([]string, 0, len(c.Members))
	for _, m := range c.Members {
		if m != c.Leader {
			out = append(out, m)
		}
	}
	return out
}
