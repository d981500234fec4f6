// Rankwatch - CTF Leaderboard Monitoring and Notification
// Copyright 2026 Caleb H. (calebh42)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/calebh42/rankwatch

// Package main is the entry point for the rankwatch server.
//
// Rankwatch polls a CTF platform's leaderboard and task endpoints, detects
// top-N displacements and task solves, attributes solves to players by score
// delta, and delivers email notifications. A password-gated admin API serves
// the live configuration and accepts runtime mutations, alongside the static
// dashboard and Prometheus metrics.
//
// # Application Architecture
//
// The server initializes components in the following order:
//
//  1. Configuration: layered load from defaults, config file and environment (Koanf v2)
//  2. Upstream client: rate-limited HTTP client for the rank and task endpoints
//  3. Notifier: SMTP delivery behind a circuit breaker
//  4. Monitor: the poll loop, wired to the notifier
//  5. HTTP server: admin API, health, metrics and the dashboard
//  6. Supervisor tree: monitor and HTTP server under suture with restart backoff
//
// # Configuration
//
// Configuration is loaded via Koanf v2 with layered sources (highest priority
// wins): environment variables, config file (config.yaml), built-in defaults.
// ADMIN_PASSWORD, MONITOR_TOKEN and the SMTP_* variables are the minimum a
// deployment needs; see config.example.yaml for the full surface.
//
// # Signal Handling
//
// The server handles graceful shutdown on SIGINT and SIGTERM: the supervisor
// tree winds down, the HTTP server drains in-flight requests, and the monitor
// loop stops at the next cycle boundary.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"

	"github.com/calebh42/rankwatch/internal/api"
	"github.com/calebh42/rankwatch/internal/config"
	"github.com/calebh42/rankwatch/internal/logging"
	"github.com/calebh42/rankwatch/internal/monitor"
	"github.com/calebh42/rankwatch/internal/notify"
	"github.com/calebh42/rankwatch/internal/supervisor"
	"github.com/calebh42/rankwatch/internal/upstream"
)

func main() {
	// Load configuration first to get logging settings.
	cfg, cfgPath, err := config.LoadWithKoanf()
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to load configuration")
	}

	logging.Init(logging.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Caller: cfg.Logging.Caller,
	})

	logging.Info().
		Str("config_file", cfgPath).
		Str("upstream", cfg.Monitor.ServerURL).
		Int64("contest", cfg.Monitor.Contest).
		Strs("categories", cfg.Monitor.Categories).
		Int64("interval_ms", cfg.Monitor.IntervalMs).
		Msg("Configuration loaded")

	if len(cfg.Notification.SMTP.Recipients) == 0 {
		logging.Warn().Msg("No notification recipients configured, changes will only be logged")
	}

	// The store is the single source of truth shared by the monitor loop and
	// the admin API. Accepted mutations are persisted back to the config file.
	store := config.NewStore(cfg, cfgPath)

	client := upstream.NewClient(cfg.Monitor.ServerURL, cfg.Server.Timeout)
	notifier := notify.NewNotifier(store, notify.NewEmailChannel())
	mon := monitor.New(store, client, notifier)

	router := api.NewRouter(store, cfg.Server.ResourcePath)
	httpServer := &http.Server{
		Addr:         cfg.Server.ListenAddr(),
		Handler:      router.Setup(),
		ReadTimeout:  cfg.Server.Timeout,
		WriteTimeout: cfg.Server.Timeout,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	treeCfg := supervisor.DefaultTreeConfig()
	tree := supervisor.NewTree(logging.NewSlogLogger(), treeCfg)
	tree.AddMonitorService(mon)
	tree.AddAPIService(supervisor.NewHTTPServerService(httpServer, treeCfg.ShutdownTimeout))

	logging.Info().Str("addr", httpServer.Addr).Msg("Starting rankwatch")

	if err := tree.Serve(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logging.Fatal().Err(err).Msg("Supervisor tree stopped")
	}

	if report, err := tree.UnstoppedServiceReport(); err == nil && len(report) > 0 {
		for _, svc := range report {
			logging.Warn().Str("service", fmt.Sprint(svc.Service)).Msg("Service did not stop in time")
		}
	}

	logging.Info().Msg("Shutdown complete")
}
