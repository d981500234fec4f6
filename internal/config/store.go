// Rankwatch - CTF Leaderboard Monitoring and Notification
// Copyright 2026 Caleb H. (calebh42)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/calebh42/rankwatch

package config

import (
	"slices"
	"sync"

	"github.com/calebh42/rankwatch/internal/logging"
)

// Store holds the live configuration shared between the admin API and the
// monitor loop. The monitor snapshots it once per poll cycle, so an admin
// mutation takes effect at the next cycle boundary and never mid-cycle.
type Store struct {
	mu   sync.RWMutex
	cfg  Config
	path string
}

// NewStore wraps an already-validated config. path is the file accepted
// mutations are persisted to; empty disables persistence.
func NewStore(cfg *Config, path string) *Store {
	return &Store{cfg: cfg.deepCopy(), path: path}
}

// Snapshot returns a copy of the current configuration. The copy shares no
// storage with the store, so callers can hold it across a poll cycle while
// admin mutations land.
func (s *Store) Snapshot() Config {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cfg.deepCopy()
}

// AdminSecret returns the current admin password without copying the rest of
// the record. Hot path for the request gate.
func (s *Store) AdminSecret() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cfg.Server.AdminSecret
}

// Mutation is a partial update to the live configuration. Nil fields are
// untouched; non-nil fields replace the current value. Field names follow the
// admin API parameter names.
type Mutation struct {
	Token      *string
	Categories *[]string
	Tasks      *[]int64
	IntervalMs *int64

	SMTPHost       *string
	SMTPUsername   *string
	SMTPPassword   *string
	SenderEmail    *string
	ReceiverEmails *[]string

	AdminSecret *string
}

// Update applies a mutation atomically. The candidate config is validated as
// a whole before commit; on any failure the previous configuration is
// retained untouched and the error describes every rejected field.
//
// Returns the admin-facing names of the fields that actually changed, in a
// fixed order. A mutation that only restates current values returns an empty
// list and no error.
func (s *Store) Update(mut Mutation) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	next := s.cfg.deepCopy()
	var changed []string

	setString := func(dst *string, v *string, name string) {
		if v != nil && *v != *dst {
			*dst = *v
			changed = append(changed, name)
		}
	}

	setString(&next.Monitor.Token, mut.Token, "monitor_token")
	if mut.Categories != nil && !slices.Equal(*mut.Categories, next.Monitor.Categories) {
		next.Monitor.Categories = slices.Clone(*mut.Categories)
		changed = append(changed, "monitor_types")
	}
	if mut.Tasks != nil && !slices.Equal(*mut.Tasks, next.Monitor.Tasks) {
		next.Monitor.Tasks = slices.Clone(*mut.Tasks)
		changed = append(changed, "monitor_tasks")
	}
	if mut.IntervalMs != nil && *mut.IntervalMs != next.Monitor.IntervalMs {
		next.Monitor.IntervalMs = *mut.IntervalMs
		changed = append(changed, "monitor_interval_in_ms")
	}

	setString(&next.Notification.SMTP.Host, mut.SMTPHost, "notification_smtp_server")
	setString(&next.Notification.SMTP.Username, mut.SMTPUsername, "notification_smtp_username")
	setString(&next.Notification.SMTP.Password, mut.SMTPPassword, "notification_smtp_password")
	setString(&next.Notification.SMTP.From, mut.SenderEmail, "notification_smtp_sender_email")
	if mut.ReceiverEmails != nil && !slices.Equal(*mut.ReceiverEmails, next.Notification.SMTP.Recipients) {
		next.Notification.SMTP.Recipients = slices.Clone(*mut.ReceiverEmails)
		changed = append(changed, "notification_smtp_receiver_emails")
	}

	setString(&next.Server.AdminSecret, mut.AdminSecret, "admin_password")

	if len(changed) == 0 {
		return nil, nil
	}

	if err := next.Validate(); err != nil {
		return nil, err
	}

	s.cfg = next

	// Persistence is best-effort: a read-only config volume must not make
	// the in-memory mutation fail.
	if s.path != "" {
		if err := SaveToFile(&next, s.path); err != nil {
			logging.Warn().Err(err).Str("path", s.path).Msg("Failed to persist configuration")
		} else {
			logging.Debug().Str("path", s.path).Msg("Configuration persisted")
		}
	}

	return changed, nil
}
