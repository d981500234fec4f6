// Rankwatch - CTF Leaderboard Monitoring and Notification
// Copyright 2026 Caleb H. (calebh42)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/calebh42/rankwatch

// Package upstream implements the HTTP client for the contest platform's
// read-only API. Two endpoints matter: the full leaderboard and the task
// list. Both return JSON objects keyed by category name.
package upstream

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/goccy/go-json"
	"golang.org/x/time/rate"

	"github.com/calebh42/rankwatch/internal/models"
)

// maxErrorBodySize limits how much of an error response body is read for
// diagnostics, preventing unbounded allocation on large error pages.
const maxErrorBodySize = 64 * 1024 // 64KB

var (
	// ErrUnexpectedStatus indicates a non-200 response from the upstream.
	ErrUnexpectedStatus = errors.New("unexpected upstream status")

	// ErrMissingCategory indicates the leaderboard payload lacks a configured
	// category. The snapshot shape is configuration-defined, so a missing
	// category makes the whole fetch unusable.
	ErrMissingCategory = errors.New("category missing from upstream payload")
)

// Client talks to the contest platform. The rate limiter protects the
// upstream when an admin dials the poll interval down aggressively.
//
// Thread safety: safe for concurrent use; each request builds its own
// http.Request.
type Client struct {
	baseURL    string
	httpClient *http.Client
	limiter    *rate.Limiter
}

// NewClient creates a contest platform client. baseURL is used as-is, with
// endpoint paths appended.
func NewClient(baseURL string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: timeout},
		// At most 5 req/s sustained, small burst for the rank+tasks pair
		// fetched back to back each cycle.
		limiter: rate.NewLimiter(rate.Limit(5), 2),
	}
}

// FetchRank retrieves the full leaderboard. The payload must contain every
// configured category; a missing one fails the whole fetch rather than
// returning a snapshot with a hole in it. Entry order within a category is
// preserved as delivered, which is descending score.
func (c *Client) FetchRank(ctx context.Context, token string, categories []string) (models.RankSnapshot, error) {
	var payload map[string][]models.RankEntry
	if err := c.getJSON(ctx, "/v1/fullrank", token, &payload); err != nil {
		return nil, err
	}

	snapshot := make(models.RankSnapshot, 0, len(categories))
	for _, cat := range categories {
		entries, ok := payload[cat]
		if !ok {
			return nil, fmt.Errorf("%w: %s", ErrMissingCategory, cat)
		}
		snapshot = append(snapshot, models.CategoryRank{Category: cat, Entries: entries})
	}
	return snapshot, nil
}

// FetchTasks retrieves the task list for the contest and flattens the
// configured categories into a snapshot keyed by task id. Categories absent
// from the payload contribute nothing; unlike the leaderboard, a partial
// task list is still usable.
func (c *Client) FetchTasks(ctx context.Context, token string, contest int64, categories []string) (models.TaskSnapshot, error) {
	var payload map[string][]models.Task
	if err := c.getJSON(ctx, fmt.Sprintf("/v1/tasks/%d", contest), token, &payload); err != nil {
		return nil, err
	}

	snapshot := make(models.TaskSnapshot)
	for _, cat := range categories {
		for _, task := range payload[cat] {
			snapshot[task.ID] = task
		}
	}
	return snapshot, nil
}

// getJSON performs an authenticated GET and decodes the JSON body into out.
func (c *Client) getJSON(ctx context.Context, path, token string, out any) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, http.NoBody)
	if err != nil {
		return fmt.Errorf("failed to create request for %s: %w", path, err)
	}
	req.Header.Set("token", token)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request to %s failed: %w", path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body := readBodyForError(resp.Body)
		return fmt.Errorf("%w: %s returned %d: %s", ErrUnexpectedStatus, path, resp.StatusCode, string(body))
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode %s response: %w", path, err)
	}
	return nil
}

// readBodyForError reads at most maxErrorBodySize bytes for error reporting.
func readBodyForError(r io.Reader) []byte {
	body, err := io.ReadAll(io.LimitReader(r, maxErrorBodySize))
	if err != nil {
		return []byte("(failed to read response body)")
	}
	if len(body) == maxErrorBodySize {
		return append(body, []byte("... (truncated)")...)
	}
	return body
}
