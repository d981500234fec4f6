// Rankwatch - CTF Leaderboard Monitoring and Notification
// Copyright 2026 Caleb H. (calebh42)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/calebh42/rankwatch

package models

import (
	"reflect"
	"testing"
)

func sampleSnapshot() RankSnapshot {
	return RankSnapshot{
		{Category: "re", Entries: []RankEntry{
			{ID: 1, Name: "alice", Score: 50},
			{ID: 2, Name: "bob", Score: 40},
			{ID: 3, Name: "carol", Score: 30},
		}},
		{Category: "pwn", Entries: []RankEntry{
			{ID: 4, Name: "dave", Score: 70},
		}},
	}
}

func TestTruncCapsEachCategory(t *testing.T) {
	got := sampleSnapshot().Trunc(2)

	if len(got) != 2 {
		t.Fatalf("expected 2 categories, got %d", len(got))
	}
	if len(got[0].Entries) != 2 {
		t.Errorf("re should be capped to 2 entries, got %d", len(got[0].Entries))
	}
	if len(got[1].Entries) != 1 {
		t.Errorf("pwn has only 1 entry, got %d", len(got[1].Entries))
	}
	if got[0].Entries[0].ID != 1 || got[0].Entries[1].ID != 2 {
		t.Errorf("Trunc must keep the leading entries in order, got %+v", got[0].Entries)
	}
}

func TestTruncIdempotent(t *testing.T) {
	for _, n := range []int{0, 1, 2, 10} {
		once := sampleSnapshot().Trunc(n)
		twice := once.Trunc(n)
		if !reflect.DeepEqual(once, twice) {
			t.Errorf("Trunc(%d) is not idempotent: %+v vs %+v", n, once, twice)
		}
	}
}

func TestTruncDoesNotMutateReceiver(t *testing.T) {
	snap := sampleSnapshot()
	top := snap.Trunc(1)

	if len(snap[0].Entries) != 3 {
		t.Fatalf("Trunc mutated the receiver: %+v", snap[0].Entries)
	}

	// The copy must be deep: writing to the truncated snapshot must not leak
	// into the original.
	top[0].Entries[0].Name = "mallory"
	if snap[0].Entries[0].Name != "alice" {
		t.Errorf("Trunc shares entry storage with the receiver")
	}
}

func TestTruncNegativeN(t *testing.T) {
	got := sampleSnapshot().Trunc(-1)
	for _, cat := range got {
		if len(cat.Entries) != 0 {
			t.Errorf("negative n should cap to zero entries, got %+v", cat.Entries)
		}
	}
}

func TestCategoryLookup(t *testing.T) {
	snap := sampleSnapshot()

	cat, ok := snap.Category("pwn")
	if !ok || cat.Entries[0].Name != "dave" {
		t.Errorf("Category(pwn) = %+v, %v", cat, ok)
	}

	if _, ok := snap.Category("web"); ok {
		t.Errorf("Category(web) should not be found")
	}
}

func TestChangesEmpty(t *testing.T) {
	if !(Changes{}).Empty() {
		t.Error("zero Changes should be empty")
	}
	if (Changes{Entered: []RankEntry{{ID: 1}}}).Empty() {
		t.Error("Changes with an entered entry is not empty")
	}
	if (Changes{Left: []RankEntry{{ID: 1}}}).Empty() {
		t.Error("Changes with a left entry is not empty")
	}
}
