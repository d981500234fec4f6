// Rankwatch - CTF Leaderboard Monitoring and Notification
// Copyright 2026 Caleb H. (calebh42)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/calebh42/rankwatch

package models

// StatusResponse is the envelope for admin API calls that carry no payload.
// Status is "success" or "failed"; Message explains failures or lists the
// applied changes.
type StatusResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

// ConfigResponse is the envelope for the get_config admin call. Config holds
// the full live configuration record.
type ConfigResponse struct {
	Status string `json:"status"`
	Config any    `json:"config"`
}
