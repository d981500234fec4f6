// Rankwatch - CTF Leaderboard Monitoring and Notification
// Copyright 2026 Caleb H. (calebh42)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/calebh42/rankwatch

package models

// Task is one challenge on the upstream platform. SolveCount is reported by
// the upstream as monotonically non-decreasing, but Rankwatch does not rely
// on that: any observed delta is treated as a solve event.
type Task struct {
	ID         int64  `json:"id"`
	Name       string `json:"title"`
	SolveCount int    `json:"pass_number"`
	Category   string `json:"category"`
	Score      int    `json:"score"`
	FullScore  int    `json:"full_score"`
}

// TaskSnapshot maps tracked task id to its state at one poll cycle.
type TaskSnapshot map[int64]Task

// MonitorState is the state carried between monitor cycles. It is owned
// exclusively by the monitor loop and replaced wholesale at the end of each
// cycle, never partially mutated, so a failed cycle cannot corrupt it.
type MonitorState struct {
	// LastRank is the previous full (untruncated) leaderboard, used by the
	// attribution heuristic.
	LastRank RankSnapshot

	// LastRankTop is the previous top-N leaderboard, used for membership
	// diffing.
	LastRankTop RankSnapshot

	// LastTasks holds the previous state of every tracked task.
	LastTasks TaskSnapshot
}
