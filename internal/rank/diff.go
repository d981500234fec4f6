// Rankwatch - CTF Leaderboard Monitoring and Notification
// Copyright 2026 Caleb H. (calebh42)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/calebh42/rankwatch

// Package rank implements the monitoring core: leaderboard membership
// diffing, the task-advanced predicate, and solve attribution. Everything in
// this package is a pure function over snapshot values.
package rank

import (
	"sort"

	"github.com/calebh42/rankwatch/internal/models"
)

// DiffCategory computes the membership difference between two category
// rankings. Entries are compared by ID only: a score or name change for an
// ID present in both inputs is not a change, which keeps in-leaderboard
// score churn from producing repeated notifications. Entered holds entries
// whose ID is in curr but not prev, Left the reverse. Both outputs are
// sorted by ID so the result is deterministic for any input order.
func DiffCategory(curr, prev []models.RankEntry) models.Changes {
	return models.Changes{
		Entered: missingFrom(curr, prev),
		Left:    missingFrom(prev, curr),
	}
}

// missingFrom returns the entries of a whose ID does not appear in b,
// sorted by ID.
func missingFrom(a, b []models.RankEntry) []models.RankEntry {
	seen := make(map[int]struct{}, len(b))
	for _, e := range b {
		seen[e.ID] = struct{}{}
	}

	var out []models.RankEntry
	for _, e := range a {
		if _, ok := seen[e.ID]; !ok {
			out = append(out, e)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// TaskAdvanced reports whether a tracked task's solve counter moved between
// two cycles. Any delta counts, including a decrease: the upstream is the
// source of truth and is not guaranteed monotonic from our point of view, so
// a declining counter is surfaced rather than silently dropped.
func TaskAdvanced(curr, prev models.Task) bool {
	return curr.SolveCount != prev.SolveCount
}
