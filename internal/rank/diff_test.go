// Rankwatch - CTF Leaderboard Monitoring and Notification
// Copyright 2026 Caleb H. (calebh42)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/calebh42/rankwatch

package rank

import (
	"reflect"
	"testing"

	"github.com/calebh42/rankwatch/internal/models"
)

func entries(ids ...int) []models.RankEntry {
	out := make([]models.RankEntry, len(ids))
	for i, id := range ids {
		out[i] = models.RankEntry{ID: id, Name: "user", Score: 100 - i}
	}
	return out
}

func ids(es []models.RankEntry) []int {
	if len(es) == 0 {
		return nil
	}
	out := make([]int, len(es))
	for i, e := range es {
		out[i] = e.ID
	}
	return out
}

func TestDiffCategoryMembership(t *testing.T) {
	tests := []struct {
		name        string
		curr, prev  []models.RankEntry
		wantEntered []int
		wantLeft    []int
	}{
		{
			name: "no change",
			curr: entries(1, 2, 3),
			prev: entries(1, 2, 3),
		},
		{
			name:        "one in one out",
			curr:        entries(4, 1, 2),
			prev:        entries(1, 2, 3),
			wantEntered: []int{4},
			wantLeft:    []int{3},
		},
		{
			name:        "all new",
			curr:        entries(5, 6),
			prev:        entries(1, 2),
			wantEntered: []int{5, 6},
			wantLeft:    []int{1, 2},
		},
		{
			name:     "empty current",
			curr:     nil,
			prev:     entries(1),
			wantLeft: []int{1},
		},
		{
			name:        "empty previous",
			curr:        entries(2),
			prev:        nil,
			wantEntered: []int{2},
		},
		{
			name:        "output sorted by id regardless of rank order",
			curr:        entries(9, 3, 7),
			prev:        entries(3),
			wantEntered: []int{7, 9},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := DiffCategory(tt.curr, tt.prev)
			if !reflect.DeepEqual(ids(got.Entered), tt.wantEntered) {
				t.Errorf("Entered = %v, want %v", ids(got.Entered), tt.wantEntered)
			}
			if !reflect.DeepEqual(ids(got.Left), tt.wantLeft) {
				t.Errorf("Left = %v, want %v", ids(got.Left), tt.wantLeft)
			}
		})
	}
}

// Swapping the inputs must swap the roles of Entered and Left.
func TestDiffCategorySymmetry(t *testing.T) {
	a := entries(1, 2, 5, 9)
	b := entries(2, 3, 9, 11)

	ab := DiffCategory(a, b)
	ba := DiffCategory(b, a)

	if !reflect.DeepEqual(ab.Entered, ba.Left) {
		t.Errorf("diff(a,b).Entered != diff(b,a).Left: %v vs %v", ids(ab.Entered), ids(ba.Left))
	}
	if !reflect.DeepEqual(ab.Left, ba.Entered) {
		t.Errorf("diff(a,b).Left != diff(b,a).Entered: %v vs %v", ids(ab.Left), ids(ba.Entered))
	}
}

func TestDiffCategoryIdentityIsEmpty(t *testing.T) {
	a := entries(1, 2, 3, 4)
	if got := DiffCategory(a, a); !got.Empty() {
		t.Errorf("diff(a,a) should be empty, got %+v", got)
	}
}

// A score change without a membership change must not be reported: the diff
// is keyed by ID, not by full equality.
func TestDiffCategoryIgnoresScoreChurn(t *testing.T) {
	prev := []models.RankEntry{
		{ID: 1, Name: "alice", Score: 50},
		{ID: 2, Name: "bob", Score: 40},
	}
	curr := []models.RankEntry{
		{ID: 1, Name: "alice", Score: 80},
		{ID: 2, Name: "bob", Score: 40},
	}

	if got := DiffCategory(curr, prev); !got.Empty() {
		t.Errorf("score churn should produce no changes, got %+v", got)
	}
}

// Scenario from the recruit leaderboard: id 4 displaces id 3 from the top 3.
func TestDiffCategoryDisplacement(t *testing.T) {
	prev := []models.RankEntry{
		{ID: 1, Score: 50}, {ID: 2, Score: 40}, {ID: 3, Score: 30},
	}
	curr := []models.RankEntry{
		{ID: 4, Score: 55}, {ID: 1, Score: 50}, {ID: 2, Score: 40},
	}

	got := DiffCategory(curr, prev)
	if !reflect.DeepEqual(ids(got.Entered), []int{4}) {
		t.Errorf("Entered = %v, want [4]", ids(got.Entered))
	}
	if !reflect.DeepEqual(ids(got.Left), []int{3}) {
		t.Errorf("Left = %v, want [3]", ids(got.Left))
	}
}

func TestTaskAdvanced(t *testing.T) {
	tests := []struct {
		name       string
		curr, prev int
		want       bool
	}{
		{"unchanged", 5, 5, false},
		{"increase", 6, 5, true},
		{"multiple solves", 9, 5, true},
		// A declining counter is a data anomaly on the upstream's side, but
		// the predicate deliberately reports any delta, not just increases.
		{"decrease still reported", 4, 5, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			curr := models.Task{ID: 7, SolveCount: tt.curr}
			prev := models.Task{ID: 7, SolveCount: tt.prev}
			if got := TaskAdvanced(curr, prev); got != tt.want {
				t.Errorf("TaskAdvanced(%d, %d) = %v, want %v", tt.curr, tt.prev, got, tt.want)
			}
		})
	}
}
