// Rankwatch - CTF Leaderboard Monitoring and Notification
// Copyright 2026 Caleb H. (calebh42)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/calebh42/rankwatch

// Package monitor implements the poll loop: fetch the leaderboard and task
// list, diff against the previous cycle, and hand detected events to a sink.
//
// The loop is a suture service. A leaderboard fetch failure is terminal and
// surfaces as a service restart; a task list fetch failure only degrades that
// cycle. State is carried wholesale between cycles and swapped after all
// events for a cycle have been emitted, so a notification failure never
// causes a duplicate event.
package monitor

import (
	"context"
	"time"

	"github.com/calebh42/rankwatch/internal/config"
	"github.com/calebh42/rankwatch/internal/logging"
	"github.com/calebh42/rankwatch/internal/metrics"
	"github.com/calebh42/rankwatch/internal/models"
	"github.com/calebh42/rankwatch/internal/rank"
)

// Fetcher retrieves snapshots from the contest platform.
type Fetcher interface {
	FetchRank(ctx context.Context, token string, categories []string) (models.RankSnapshot, error)
	FetchTasks(ctx context.Context, token string, contest int64, categories []string) (models.TaskSnapshot, error)
}

// RankEvent is a top-N membership change in one category.
type RankEvent struct {
	Category string
	// Top is the current truncated ranking for the category, included so the
	// sink can render the standings as they are after the change.
	Top     models.CategoryRank
	Changes models.Changes
	TopN    int
	At      time.Time
}

// TaskEvent is a solve-count change on a tracked task, with the solver
// attribution derived from score deltas.
type TaskEvent struct {
	Task        models.Task
	Attribution rank.Attribution
	At          time.Time
}

// Sink receives detected events. Implementations must not block for long;
// the poll loop waits for each call to return before proceeding.
type Sink interface {
	// Primed is called once per service start with the initial truncated
	// leaderboard, before any diffing happens.
	Primed(ctx context.Context, top models.RankSnapshot)

	RankChanged(ctx context.Context, ev RankEvent)
	TaskSolved(ctx context.Context, ev TaskEvent)
}

// Monitor is the poll loop service. Configuration is re-read from the store
// at every cycle boundary, so admin mutations take effect on the next cycle.
type Monitor struct {
	store   *config.Store
	fetcher Fetcher
	sink    Sink
}

// New creates a monitor over the given live configuration, fetcher and sink.
func New(store *config.Store, fetcher Fetcher, sink Sink) *Monitor {
	return &Monitor{store: store, fetcher: fetcher, sink: sink}
}

// String names the service in the supervision tree.
func (m *Monitor) String() string {
	return "monitor"
}

// Serve implements suture.Service. It primes the carried state, then polls
// until the context is canceled or a leaderboard fetch fails. Returning an
// error makes the supervisor restart the loop, which re-primes from scratch.
func (m *Monitor) Serve(ctx context.Context) error {
	cfg := m.store.Snapshot()

	state, err := m.prime(ctx, cfg)
	if err != nil {
		return err
	}

	for {
		timer := time.NewTimer(cfg.Monitor.Interval())
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}

		cfg = m.store.Snapshot()
		next, err := m.cycle(ctx, cfg, state)
		if err != nil {
			return err
		}
		state = next
	}
}

// prime builds the initial carried state. The leaderboard must be fetchable;
// the task list degrades to empty, meaning every tracked task starts
// reporting from the next successful fetch.
func (m *Monitor) prime(ctx context.Context, cfg config.Config) (models.MonitorState, error) {
	currRank, err := m.fetcher.FetchRank(ctx, cfg.Monitor.Token, cfg.Monitor.Categories)
	if err != nil {
		metrics.FetchErrors.WithLabelValues("fullrank").Inc()
		return models.MonitorState{}, err
	}

	tasks := m.fetchTrackedTasks(ctx, cfg)

	top := currRank.Trunc(cfg.Monitor.TopN)
	m.sink.Primed(ctx, top)
	logging.Info().
		Int("categories", len(top)).
		Int("tracked_tasks", len(tasks)).
		Msg("Monitor primed")

	return models.MonitorState{LastRank: currRank, LastRankTop: top, LastTasks: tasks}, nil
}

// cycle runs one poll: fetch, detect task events, detect rank events, return
// the new carried state. Task events are checked before rank events so a
// solve notification precedes the membership change it may have caused.
func (m *Monitor) cycle(ctx context.Context, cfg config.Config, state models.MonitorState) (models.MonitorState, error) {
	start := time.Now()
	defer metrics.ObserveCycle(start)

	currRank, err := m.fetcher.FetchRank(ctx, cfg.Monitor.Token, cfg.Monitor.Categories)
	if err != nil {
		metrics.FetchErrors.WithLabelValues("fullrank").Inc()
		logging.Error().Err(err).Msg("Failed to fetch leaderboard")
		return state, err
	}

	currTasks := m.fetchTrackedTasks(ctx, cfg)

	now := time.Now()

	// Task solve events. Iterate the configured id list so event order is
	// deterministic. A task missing from either snapshot (untracked before,
	// or dropped by the upstream this cycle) cannot produce an event.
	for _, id := range cfg.Monitor.Tasks {
		curr, currOK := currTasks[id]
		prev, prevOK := state.LastTasks[id]
		if !currOK || !prevOK || !rank.TaskAdvanced(curr, prev) {
			continue
		}

		currCat, _ := currRank.Category(curr.Category)
		prevCat, _ := state.LastRank.Category(curr.Category)
		attribution := rank.Attribute(curr, currCat, prevCat)

		metrics.TaskSolveEvents.WithLabelValues(curr.Category).Inc()
		metrics.AttributionOutcomes.WithLabelValues(attribution.Confidence.String()).Inc()
		logging.Info().
			Int64("task_id", curr.ID).
			Str("task", curr.Name).
			Str("confidence", attribution.Confidence.String()).
			Str("solver", attribution.Solver.Name).
			Msg("Task solve detected")

		m.sink.TaskSolved(ctx, TaskEvent{Task: curr, Attribution: attribution, At: now})
	}

	// Top-N membership events, against the previous truncated snapshot.
	topN := cfg.Monitor.TopN
	currTop := currRank.Trunc(topN)
	for _, cat := range currTop {
		prevCat, ok := state.LastRankTop.Category(cat.Category)
		if !ok {
			// Category newly added by an admin mutation; nothing to diff
			// against until next cycle.
			continue
		}

		changes := rank.DiffCategory(cat.Entries, prevCat.Entries)
		if changes.Empty() {
			continue
		}

		metrics.RankChangeEvents.WithLabelValues(cat.Category).Inc()
		logging.Info().
			Str("category", cat.Category).
			Int("entered", len(changes.Entered)).
			Int("left", len(changes.Left)).
			Msg("Leaderboard change detected")

		m.sink.RankChanged(ctx, RankEvent{
			Category: cat.Category,
			Top:      cat,
			Changes:  changes,
			TopN:     topN,
			At:       now,
		})
	}

	return models.MonitorState{LastRank: currRank, LastRankTop: currTop, LastTasks: currTasks}, nil
}

// fetchTrackedTasks fetches the task list and keeps only tracked ids. Fetch
// failures degrade to an empty snapshot: tracked tasks simply produce no
// events this cycle.
func (m *Monitor) fetchTrackedTasks(ctx context.Context, cfg config.Config) models.TaskSnapshot {
	all, err := m.fetcher.FetchTasks(ctx, cfg.Monitor.Token, cfg.Monitor.Contest, cfg.Monitor.Categories)
	if err != nil {
		metrics.FetchErrors.WithLabelValues("tasks").Inc()
		logging.Warn().Err(err).Msg("Failed to fetch task list, degrading cycle")
		return models.TaskSnapshot{}
	}

	tracked := make(models.TaskSnapshot, len(cfg.Monitor.Tasks))
	for _, id := range cfg.Monitor.Tasks {
		if task, ok := all[id]; ok {
			tracked[id] = task
		}
	}
	return tracked
}
