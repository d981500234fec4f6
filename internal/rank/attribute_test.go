// Rankwatch - CTF Leaderboard Monitoring and Notification
// Copyright 2026 Caleb H. (calebh42)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/calebh42/rankwatch

package rank

import (
	"testing"

	"github.com/calebh42/rankwatch/internal/models"
)

func category(entries ...models.RankEntry) models.CategoryRank {
	return models.CategoryRank{Category: "re", Entries: entries}
}

func TestAttributeExactMatchWinsOutright(t *testing.T) {
	task := models.Task{ID: 7, Name: "warmup", Category: "re", Score: 100}
	prev := category(
		models.RankEntry{ID: 1, Name: "alice", Score: 200},
		models.RankEntry{ID: 2, Name: "bob", Score: 300},
	)
	// bob gained 97, close but not exact; alice gained exactly 100.
	curr := category(
		models.RankEntry{ID: 2, Name: "bob", Score: 397},
		models.RankEntry{ID: 1, Name: "alice", Score: 300},
	)

	got := Attribute(task, curr, prev)
	if got.Confidence != Exact {
		t.Fatalf("Confidence = %v, want Exact", got.Confidence)
	}
	if got.Solver.ID != 1 {
		t.Errorf("Solver = %+v, want alice (id 1)", got.Solver)
	}
}

func TestAttributeNearestPositiveFallback(t *testing.T) {
	task := models.Task{ID: 7, Category: "re", Score: 100}
	prev := category(
		models.RankEntry{ID: 1, Name: "alice", Score: 500},
		models.RankEntry{ID: 2, Name: "bob", Score: 500},
	)
	// alice +80 (distance 20), bob +130 (distance 30): alice wins.
	curr := category(
		models.RankEntry{ID: 2, Name: "bob", Score: 630},
		models.RankEntry{ID: 1, Name: "alice", Score: 580},
	)

	got := Attribute(task, curr, prev)
	if got.Confidence != Nearest {
		t.Fatalf("Confidence = %v, want Nearest", got.Confidence)
	}
	if got.Solver.ID != 1 {
		t.Errorf("Solver = %+v, want alice (id 1)", got.Solver)
	}
}

func TestAttributeTieBreaksOnFirstEncountered(t *testing.T) {
	task := models.Task{ID: 7, Category: "re", Score: 100}
	prev := category(
		models.RankEntry{ID: 1, Name: "alice", Score: 500},
		models.RankEntry{ID: 2, Name: "bob", Score: 500},
	)
	// Both +90: equal distance, the first in current ranking order wins.
	curr := category(
		models.RankEntry{ID: 2, Name: "bob", Score: 590},
		models.RankEntry{ID: 1, Name: "alice", Score: 590},
	)

	got := Attribute(task, curr, prev)
	if got.Confidence != Nearest || got.Solver.ID != 2 {
		t.Errorf("got %+v, want bob (first encountered)", got)
	}
}

func TestAttributeUnknownWhenNoPositiveOffset(t *testing.T) {
	task := models.Task{ID: 7, Category: "re", Score: 100}
	prev := category(
		models.RankEntry{ID: 1, Name: "alice", Score: 500},
		models.RankEntry{ID: 2, Name: "bob", Score: 500},
	)
	curr := category(
		models.RankEntry{ID: 1, Name: "alice", Score: 500},
		models.RankEntry{ID: 2, Name: "bob", Score: 470},
	)

	if got := Attribute(task, curr, prev); got.Confidence != Unknown {
		t.Errorf("Confidence = %v, want Unknown", got.Confidence)
	}
}

func TestAttributeIgnoresUsersMissingFromEitherSnapshot(t *testing.T) {
	task := models.Task{ID: 7, Category: "re", Score: 100}
	prev := category(
		models.RankEntry{ID: 1, Name: "alice", Score: 500},
	)
	// bob is new this cycle; his apparent score is not a delta and must not
	// be attributed.
	curr := category(
		models.RankEntry{ID: 2, Name: "bob", Score: 100},
		models.RankEntry{ID: 1, Name: "alice", Score: 500},
	)

	if got := Attribute(task, curr, prev); got.Confidence != Unknown {
		t.Errorf("Confidence = %v, want Unknown (only bob moved and he is new)", got.Confidence)
	}
}

// Scenario: task worth 20, one user's score moved from 60 to 80.
func TestAttributeExactDeltaEndToEnd(t *testing.T) {
	task := models.Task{ID: 7, Name: "rev-baby", Category: "re", Score: 20}
	prev := category(models.RankEntry{ID: 1, Name: "alice", Score: 60})
	curr := category(models.RankEntry{ID: 1, Name: "alice", Score: 80})

	got := Attribute(task, curr, prev)
	if got.Confidence != Exact || got.Solver.ID != 1 {
		t.Errorf("got %+v, want exact attribution to alice", got)
	}
}

func TestAttributeEmptyCategories(t *testing.T) {
	task := models.Task{ID: 7, Category: "re", Score: 20}
	if got := Attribute(task, models.CategoryRank{}, models.CategoryRank{}); got.Confidence != Unknown {
		t.Errorf("empty categories should attribute to no one, got %+v", got)
	}
}

func TestConfidenceString(t *testing.T) {
	tests := []struct {
		c    Confidence
		want string
	}{
		{Exact, "exact"},
		{Nearest, "nearest"},
		{Unknown, "unknown"},
	}
	for _, tt := range tests {
		if got := tt.c.String(); got != tt.want {
			t.Errorf("%d.String() = %q, want %q", tt.c, got, tt.want)
		}
	}
}
