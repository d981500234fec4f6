// Rankwatch - CTF Leaderboard Monitoring and Notification
// Copyright 2026 Caleb H. (calebh42)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/calebh42/rankwatch

// Package models defines the shared data types for Rankwatch: leaderboard
// snapshots, tasks, diff results, and the monitor's carried state.
package models

// RankEntry is one competitor's standing in one category at one point in
// time. Immutable once fetched; ID is the stable identity used for diffing.
type RankEntry struct {
	ID       int    `json:"ID"`
	Name     string `json:"Name"`
	Score    int    `json:"Score"`
	Identity int    `json:"Identity"`
}

// CategoryRank is the ranked entry list for one named category. Entries are
// ordered by descending score as delivered by the upstream; the order defines
// the top N.
type CategoryRank struct {
	Category string
	Entries  []RankEntry
}

// RankSnapshot is the full leaderboard at one poll cycle, one CategoryRank
// per configured category. The category set is determined by configuration,
// not by data, so it is stable across a run.
type RankSnapshot []CategoryRank

// Trunc returns a deep copy of the snapshot with each category's entry list
// capped to its first n entries. Trunc is idempotent and never mutates the
// receiver.
func (s RankSnapshot) Trunc(n int) RankSnapshot {
	if n < 0 {
		n = 0
	}
	out := make(RankSnapshot, len(s))
	for i, cat := range s {
		limit := n
		if limit > len(cat.Entries) {
			limit = len(cat.Entries)
		}
		entries := make([]RankEntry, limit)
		copy(entries, cat.Entries[:limit])
		out[i] = CategoryRank{Category: cat.Category, Entries: entries}
	}
	return out
}

// Category returns the CategoryRank for the given category name, or false if
// the snapshot does not contain it.
func (s RankSnapshot) Category(name string) (CategoryRank, bool) {
	for _, cat := range s {
		if cat.Category == name {
			return cat, true
		}
	}
	return CategoryRank{}, false
}

// Changes is the result of diffing two truncated category rankings.
// Entered and Left are disjoint by construction.
type Changes struct {
	Entered []RankEntry
	Left    []RankEntry
}

// Empty reports whether the diff found no membership changes.
func (c Changes) Empty() bool {
	return len(c.Entered) == 0 && len(c.Left) == 0
}
