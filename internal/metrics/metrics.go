// Rankwatch - CTF Leaderboard Monitoring and Notification
// Copyright 2026 Caleb H. (calebh42)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/calebh42/rankwatch

// Package metrics provides Prometheus instrumentation for the monitor loop,
// upstream fetches, notification delivery and the admin API. Metrics are
// exposed at /metrics in Prometheus text format.
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Monitor loop metrics
	MonitorCycles = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "monitor_cycles_total",
			Help: "Total number of completed poll cycles",
		},
	)

	MonitorCycleDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "monitor_cycle_duration_seconds",
			Help:    "Duration of one poll cycle (fetch, diff, notify) in seconds",
			Buckets: prometheus.DefBuckets,
		},
	)

	// Upstream fetch metrics
	FetchErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "upstream_fetch_errors_total",
			Help: "Total number of failed upstream fetches",
		},
		[]string{"endpoint"}, // "fullrank", "tasks"
	)

	// Event metrics
	RankChangeEvents = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "rank_change_events_total",
			Help: "Total number of top-N membership change events",
		},
		[]string{"category"},
	)

	TaskSolveEvents = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "task_solve_events_total",
			Help: "Total number of task solve events",
		},
		[]string{"category"},
	)

	AttributionOutcomes = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "solver_attribution_outcomes_total",
			Help: "Solver attribution results by confidence",
		},
		[]string{"confidence"}, // "exact", "nearest", "unknown"
	)

	// Notification delivery metrics
	NotificationsSent = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "notifications_sent_total",
			Help: "Total number of notification emails delivered",
		},
		[]string{"topic"}, // "rank_change", "task_solve"
	)

	NotificationsFailed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "notifications_failed_total",
			Help: "Total number of notification deliveries that failed",
		},
		[]string{"topic", "error_code"},
	)

	NotificationDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "notification_delivery_duration_seconds",
			Help:    "SMTP delivery duration in seconds",
			Buckets: []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		},
	)

	// Circuit breaker state: 0=closed, 1=open, 2=half-open
	CircuitBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "circuit_breaker_state",
			Help: "Current circuit breaker state (0=closed, 1=open, 2=half-open)",
		},
		[]string{"name"},
	)

	// Admin API metrics
	APIRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "api_requests_total",
			Help: "Total number of admin API requests",
		},
		[]string{"method", "endpoint", "status_code"},
	)

	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "api_request_duration_seconds",
			Help:    "Admin API request duration in seconds",
			Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		},
		[]string{"method", "endpoint"},
	)

	AuthFailures = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "admin_auth_failures_total",
			Help: "Total number of rejected admin password attempts",
		},
	)

	ConfigMutations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "config_mutations_total",
			Help: "Total number of admin configuration mutations",
		},
		[]string{"outcome"}, // "applied", "rejected", "noop"
	)
)

// ObserveCycle records one completed poll cycle.
func ObserveCycle(start time.Time) {
	MonitorCycles.Inc()
	MonitorCycleDuration.Observe(time.Since(start).Seconds())
}

// ObserveAPIRequest records one admin API request.
func ObserveAPIRequest(method, endpoint string, status int, duration time.Duration) {
	APIRequestsTotal.WithLabelValues(method, endpoint, strconv.Itoa(status)).Inc()
	APIRequestDuration.WithLabelValues(method, endpoint).Observe(duration.Seconds())
}
