// Rankwatch - CTF Leaderboard Monitoring and Notification
// Copyright 2026 Caleb H. (calebh42)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/calebh42/rankwatch

package notify

import (
	"fmt"
	"strings"

	"github.com/calebh42/rankwatch/internal/models"
	"github.com/calebh42/rankwatch/internal/monitor"
	"github.com/calebh42/rankwatch/internal/rank"
)

const (
	subjectUpdate = "Rankwatch - Update"
	separator     = "----------------------------------------"
	timeLayout    = "2006-01-02 15:04:05"
)

// DisplayCategory maps an internal category name to its display form.
// Acronym categories keep their casing; everything else is capitalized.
func DisplayCategory(raw string) string {
	switch raw {
	case "re":
		return "RE"
	case "blockchain":
		return "BlockChain"
	case "sa":
		return "SA"
	case "":
		return ""
	}
	return strings.ToUpper(raw[:1]) + raw[1:]
}

// renderStandings writes one category's ranking with zero-padded positions:
//
//	RE:
//	  01  alice 300
//	  02  bob 200
func renderStandings(b *strings.Builder, cat models.CategoryRank) {
	fmt.Fprintf(b, "%s: \n", DisplayCategory(cat.Category))
	for i, entry := range cat.Entries {
		fmt.Fprintf(b, "  %02d  %s %d\n", i+1, entry.Name, entry.Score)
	}
}

// RenderRankChange renders the body of a top-N membership change
// notification: the current standings followed by who entered and who
// dropped out.
func RenderRankChange(ev monitor.RankEvent) string {
	var b strings.Builder

	renderStandings(&b, ev.Top)
	b.WriteString(separator + "\n")

	if len(ev.Changes.Entered) > 0 {
		fmt.Fprintf(&b, "%s entered the top %d.\n", joinNames(ev.Changes.Entered), ev.TopN)
	}
	if len(ev.Changes.Left) > 0 {
		fmt.Fprintf(&b, "%s dropped out of the top %d.\n", joinNames(ev.Changes.Left), ev.TopN)
	}
	if !ev.Changes.Empty() {
		b.WriteString(separator + "\n")
	}

	return b.String()
}

// RenderTaskSolve renders the body of a task solve notification. The solver
// line carries the attribution confidence so readers know when the name is a
// heuristic guess rather than an exact score match.
func RenderTaskSolve(ev monitor.TaskEvent) string {
	var solver string
	switch ev.Attribution.Confidence {
	case rank.Exact:
		solver = ev.Attribution.Solver.Name
	case rank.Nearest:
		solver = fmt.Sprintf("%s (closest score delta)", ev.Attribution.Solver.Name)
	default:
		solver = "unknown"
	}

	return fmt.Sprintf("passer: %s, task: %s, time %s\n",
		solver, ev.Task.Name, ev.At.Format(timeLayout))
}

// FormatSnapshot renders a whole truncated leaderboard, one category block
// after another. Used for the startup log of the initial standings.
func FormatSnapshot(snap models.RankSnapshot) string {
	var b strings.Builder
	for _, cat := range snap {
		renderStandings(&b, cat)
	}
	b.WriteString(separator)
	return b.String()
}

// wrapBody surrounds rendered content with the greeting and signature used
// on every notification email.
func wrapBody(intro, content string) string {
	return fmt.Sprintf("Hello,\n\n%s\n%s\nRegards,\nRankwatch\n", intro, content)
}

func joinNames(entries []models.RankEntry) string {
	names := make([]string, len(entries))
	for i, e := range entries {
		names[i] = e.Name
	}
	return strings.Join(names, ", ")
}
