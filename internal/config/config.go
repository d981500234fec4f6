// Rankwatch - CTF Leaderboard Monitoring and Notification
// Copyright 2026 Caleb H. (calebh42)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/calebh42/rankwatch

// Package config provides configuration management for Rankwatch: layered
// loading via Koanf v2 (defaults, YAML file, environment variables), struct
// validation, and a lock-guarded live store that the admin API mutates and
// the monitor loop snapshots once per cycle.
package config

import (
	"fmt"
	"slices"
	"time"

	"github.com/calebh42/rankwatch/internal/validation"
)

// Config is the full configuration record. It mirrors the persisted YAML
// layout: the monitor group drives the poll loop, the server group the admin
// HTTP surface, and the notification group the email sink.
type Config struct {
	Monitor      MonitorConfig      `koanf:"monitor" json:"monitor"`
	Server       ServerConfig       `koanf:"server" json:"server"`
	Notification NotificationConfig `koanf:"notification" json:"notification"`
	Logging      LoggingConfig      `koanf:"logging" json:"logging"`
}

// MonitorConfig configures the poll loop and the upstream contest platform.
type MonitorConfig struct {
	// IntervalMs is the pause between poll cycles, in milliseconds.
	IntervalMs int64 `koanf:"interval_in_ms" json:"interval_in_ms" validate:"gt=0"`

	// ServerURL is the base URL of the contest platform.
	ServerURL string `koanf:"server" json:"server" validate:"required,url"`

	// Contest is the contest id used in the task-list endpoint path.
	Contest int64 `koanf:"contest" json:"contest" validate:"gt=0"`

	// Categories lists the competition tracks to monitor. The set must match
	// categories the upstream understands; it defines the snapshot shape.
	Categories []string `koanf:"types" json:"types" validate:"min=1,dive,required"`

	// Tasks is the set of task ids tracked for solve events.
	Tasks []int64 `koanf:"tasks" json:"tasks"`

	// Token is the bearer token sent to the upstream on every fetch.
	Token string `koanf:"token" json:"token"`

	// TopN is the leaderboard truncation depth for membership diffing.
	TopN int `koanf:"top_n" json:"top_n" validate:"gte=0"`
}

// Interval returns the poll interval as a duration.
func (m MonitorConfig) Interval() time.Duration {
	return time.Duration(m.IntervalMs) * time.Millisecond
}

// TrackedTask reports whether the given task id is tracked.
func (m MonitorConfig) TrackedTask(id int64) bool {
	return slices.Contains(m.Tasks, id)
}

// ServerConfig configures the admin HTTP surface.
type ServerConfig struct {
	Addr string `koanf:"addr" json:"addr" validate:"required"`
	Port int    `koanf:"port" json:"port" validate:"gt=0,lte=65535"`

	// AdminSecret gates every admin mutation; compared for equality.
	AdminSecret string `koanf:"admin_password" json:"admin_password" validate:"required"`

	// ResourcePath points at the static web resources (html/, js/, icon/).
	// Empty disables the static mounts.
	ResourcePath string `koanf:"resource_path" json:"resource_path"`

	// Timeout bounds request read/write on the admin server.
	Timeout time.Duration `koanf:"timeout" json:"timeout"`
}

// ListenAddr returns the host:port the admin server binds to.
func (s ServerConfig) ListenAddr() string {
	return fmt.Sprintf("%s:%d", s.Addr, s.Port)
}

// NotificationConfig groups the notification transports. SMTP is the only
// transport today; the group exists so the persisted layout can grow.
type NotificationConfig struct {
	SMTP SMTPConfig `koanf:"smtp" json:"smtp"`
}

// SMTPConfig configures email delivery.
type SMTPConfig struct {
	Host       string   `koanf:"server" json:"server" validate:"required"`
	Port       int      `koanf:"port" json:"port" validate:"gt=0,lte=65535"`
	UseTLS     bool     `koanf:"use_tls" json:"use_tls"`
	Username   string   `koanf:"username" json:"username"`
	Password   string   `koanf:"password" json:"password"`
	From       string   `koanf:"sender_email" json:"sender_email" validate:"required,email"`
	FromName   string   `koanf:"sender_name" json:"sender_name"`
	Recipients []string `koanf:"receiver_emails" json:"receiver_emails" validate:"dive,email"`
}

// LoggingConfig configures the zerolog pipeline.
type LoggingConfig struct {
	Level  string `koanf:"level" json:"level"`
	Format string `koanf:"format" json:"format"`
	Caller bool   `koanf:"caller" json:"caller"`
}

// Validate checks the whole record. Used both at startup and before
// committing an admin mutation, so a bad mutation can never reach the
// monitor loop.
func (c *Config) Validate() error {
	if err := validation.ValidateStruct(c); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	return nil
}

// deepCopy returns a copy of the record sharing no slice storage with the
// receiver. The live store hands these out so concurrent readers never
// observe a half-applied mutation.
func (c *Config) deepCopy() Config {
	out := *c
	out.Monitor.Categories = slices.Clone(c.Monitor.Categories)
	out.Monitor.Tasks = slices.Clone(c.Monitor.Tasks)
	out.Notification.SMTP.Recipients = slices.Clone(c.Notification.SMTP.Recipients)
	return out
}
