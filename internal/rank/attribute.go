// Rankwatch - CTF Leaderboard Monitoring and Notification
// Copyright 2026 Caleb H. (calebh42)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/calebh42/rankwatch

package rank

import "github.com/calebh42/rankwatch/internal/models"

// Confidence describes how an attribution was reached.
type Confidence int

const (
	// Unknown means no user in the category gained score; the solver cannot
	// be named.
	Unknown Confidence = iota

	// Exact means a user's score delta matched the task score exactly.
	Exact

	// Nearest means no exact match existed and the user with the smallest
	// absolute distance between their positive delta and the task score was
	// chosen.
	Nearest
)

// String returns the confidence label used in logs and metrics.
func (c Confidence) String() string {
	switch c {
	case Exact:
		return "exact"
	case Nearest:
		return "nearest"
	default:
		return "unknown"
	}
}

// Attribution is the outcome of attributing a solve event to a user. Solver
// is only meaningful when Confidence is Exact or Nearest.
type Attribution struct {
	Confidence Confidence
	Solver     models.RankEntry
}

// Attribute determines which user most likely solved the given task, based
// on score movement between the previous and current ranking of the task's
// category. Both rankings must be full (untruncated) so users outside the
// top N remain attributable.
//
// For every user present in both rankings the score delta is computed. A
// delta exactly equal to the task score identifies the solver outright and
// stops the scan. Otherwise the user with the positive delta closest to the
// task score wins; ties go to the first such user in current ranking order.
// Score awards can be partial-credit or bonus-adjusted, which is why the
// nearest-delta fallback exists at all. With no positive delta the
// attribution is Unknown.
func Attribute(task models.Task, curr, prev models.CategoryRank) Attribution {
	prevScores := make(map[int]int, len(prev.Entries))
	for _, e := range prev.Entries {
		prevScores[e.ID] = e.Score
	}

	best := Attribution{Confidence: Unknown}
	bestDist := 0
	for _, user := range curr.Entries {
		prevScore, ok := prevScores[user.ID]
		if !ok {
			continue
		}
		offset := user.Score - prevScore
		if offset == task.Score {
			return Attribution{Confidence: Exact, Solver: user}
		}
		if offset <= 0 {
			continue
		}
		dist := offset - task.Score
		if dist < 0 {
			dist = -dist
		}
		if best.Confidence == Unknown || dist < bestDist {
			best = Attribution{Confidence: Nearest, Solver: user}
			bestDist = dist
		}
	}
	return best
}
