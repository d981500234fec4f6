// Rankwatch - CTF Leaderboard Monitoring and Notification
// Copyright 2026 Caleb H. (calebh42)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/calebh42/rankwatch

// Package api provides the admin HTTP surface: password-gated configuration
// endpoints, health, Prometheus metrics and the static dashboard.
//
// The admin endpoints keep the legacy wire contract the dashboard expects:
// GET with query parameters, HTTP 200 on every response, and a JSON envelope
// whose "status" field carries success or failure.
package api

import (
	"crypto/subtle"
	"net/http"
	"strconv"
	"strings"

	"github.com/goccy/go-json"

	"github.com/calebh42/rankwatch/internal/config"
	"github.com/calebh42/rankwatch/internal/logging"
	"github.com/calebh42/rankwatch/internal/metrics"
	"github.com/calebh42/rankwatch/internal/models"
)

// Handler implements the admin API endpoints.
type Handler struct {
	store *config.Store
}

// NewHandler creates the admin API handler over the live configuration.
func NewHandler(store *config.Store) *Handler {
	return &Handler{store: store}
}

// withAuth gates an endpoint behind the admin password query parameter.
// A missing parameter and a wrong one get distinct messages, matching what
// the dashboard displays. Responses are always HTTP 200.
func (h *Handler) withAuth(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !r.URL.Query().Has("admin_password") {
			metrics.AuthFailures.Inc()
			respondJSON(w, models.StatusResponse{Status: "failed", Message: "Permission denied"})
			return
		}

		given := r.URL.Query().Get("admin_password")
		want := h.store.AdminSecret()
		if subtle.ConstantTimeCompare([]byte(given), []byte(want)) != 1 {
			metrics.AuthFailures.Inc()
			logging.Warn().Str("remote", r.RemoteAddr).Msg("Rejected admin password attempt")
			respondJSON(w, models.StatusResponse{Status: "failed", Message: "Incorrect password"})
			return
		}

		next(w, r)
	}
}

// Login verifies the admin password. The gate does all the work.
func (h *Handler) Login(w http.ResponseWriter, _ *http.Request) {
	respondJSON(w, models.StatusResponse{Status: "success", Message: ""})
}

// GetConfig returns the full current configuration, credentials included;
// the endpoint is only reachable with the admin password.
func (h *Handler) GetConfig(w http.ResponseWriter, _ *http.Request) {
	cfg := h.store.Snapshot()
	respondJSON(w, models.ConfigResponse{Status: "success", Config: cfg})
}

// UpdateConfig applies a partial configuration mutation from query
// parameters. Any unparseable or invalid value rejects the whole mutation
// and the previous configuration stays in force.
func (h *Handler) UpdateConfig(w http.ResponseWriter, r *http.Request) {
	mut, err := mutationFromQuery(r)
	if err != nil {
		metrics.ConfigMutations.WithLabelValues("rejected").Inc()
		respondJSON(w, models.StatusResponse{Status: "failed", Message: err.Error()})
		return
	}

	changed, err := h.store.Update(mut)
	if err != nil {
		metrics.ConfigMutations.WithLabelValues("rejected").Inc()
		respondJSON(w, models.StatusResponse{Status: "failed", Message: err.Error()})
		return
	}

	if len(changed) == 0 {
		metrics.ConfigMutations.WithLabelValues("noop").Inc()
		respondJSON(w, models.StatusResponse{Status: "success", Message: "no changes"})
		return
	}

	metrics.ConfigMutations.WithLabelValues("applied").Inc()
	logging.Info().Strs("fields", changed).Msg("Configuration updated via admin API")
	respondJSON(w, models.StatusResponse{
		Status:  "success",
		Message: "updated: " + strings.Join(changed, ", "),
	})
}

// Health reports liveness. Unauthenticated by design so probes work.
func (h *Handler) Health(w http.ResponseWriter, _ *http.Request) {
	respondJSON(w, models.StatusResponse{Status: "success", Message: "ok"})
}

// mutationFromQuery builds a config.Mutation from the request's query
// parameters. Only parameters that are present produce a field; a parse
// failure on any of them fails the whole request.
func mutationFromQuery(r *http.Request) (config.Mutation, error) {
	q := r.URL.Query()
	var mut config.Mutation

	if q.Has("monitor_token") {
		v := q.Get("monitor_token")
		mut.Token = &v
	}
	if q.Has("monitor_types") {
		v := splitList(q.Get("monitor_types"))
		mut.Categories = &v
	}
	if q.Has("monitor_tasks") {
		raw := splitList(q.Get("monitor_tasks"))
		ids := make([]int64, 0, len(raw))
		for _, s := range raw {
			id, err := strconv.ParseInt(s, 10, 64)
			if err != nil {
				return config.Mutation{}, &paramError{"monitor_tasks", s}
			}
			ids = append(ids, id)
		}
		mut.Tasks = &ids
	}
	if q.Has("monitor_interval_in_ms") {
		s := q.Get("monitor_interval_in_ms")
		ms, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			return config.Mutation{}, &paramError{"monitor_interval_in_ms", s}
		}
		mut.IntervalMs = &ms
	}

	if q.Has("notification_smtp_server") {
		v := q.Get("notification_smtp_server")
		mut.SMTPHost = &v
	}
	if q.Has("notification_smtp_username") {
		v := q.Get("notification_smtp_username")
		mut.SMTPUsername = &v
	}
	if q.Has("notification_smtp_password") {
		v := q.Get("notification_smtp_password")
		mut.SMTPPassword = &v
	}
	if q.Has("notification_smtp_sender_email") {
		v := q.Get("notification_smtp_sender_email")
		mut.SenderEmail = &v
	}
	if q.Has("notification_smtp_receiver_emails") {
		v := splitList(q.Get("notification_smtp_receiver_emails"))
		mut.ReceiverEmails = &v
	}

	if q.Has("new_admin_password") {
		v := q.Get("new_admin_password")
		mut.AdminSecret = &v
	}

	return mut, nil
}

// paramError reports an unparseable query parameter value.
type paramError struct {
	param string
	value string
}

func (e *paramError) Error() string {
	return "invalid value " + strconv.Quote(e.value) + " for " + e.param
}

// splitList splits a comma-separated parameter, trimming whitespace and
// dropping empty elements.
func splitList(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

// respondJSON writes v as a JSON body. The admin contract is HTTP 200 for
// every answer, success and failure alike.
func respondJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logging.Error().Err(err).Msg("Failed to encode API response")
	}
}
