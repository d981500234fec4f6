// Rankwatch - CTF Leaderboard Monitoring and Notification
// Copyright 2026 Caleb H. (calebh42)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/calebh42/rankwatch

package notify

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/calebh42/rankwatch/internal/config"
	"github.com/calebh42/rankwatch/internal/models"
	"github.com/calebh42/rankwatch/internal/monitor"
	"github.com/calebh42/rankwatch/internal/rank"
)

// fakeChannel records every send and can be told to fail.
type fakeChannel struct {
	sent []SendParams
	fail bool
}

func (f *fakeChannel) Name() string { return "fake" }

func (f *fakeChannel) Send(_ context.Context, params *SendParams) (*DeliveryResult, error) {
	f.sent = append(f.sent, *params)
	if f.fail {
		return &DeliveryResult{
			Recipient:    params.To,
			ErrorMessage: "connection refused",
			ErrorCode:    ErrorCodeConnectionFailed,
			IsTransient:  true,
		}, nil
	}
	now := time.Now()
	return &DeliveryResult{Success: true, Recipient: params.To, DeliveredAt: &now}, nil
}

func notifierStore(t *testing.T, recipients ...string) *config.Store {
	t.Helper()
	cfg := &config.Config{
		Monitor: config.MonitorConfig{
			IntervalMs: 2000,
			ServerURL:  "https://recruit.example.org",
			Contest:    494,
			Categories: []string{"re"},
			TopN:       10,
		},
		Server: config.ServerConfig{Addr: "0.0.0.0", Port: 8080, AdminSecret: "pw"},
		Notification: config.NotificationConfig{
			SMTP: config.SMTPConfig{
				Host:       "smtp.example.org",
				Port:       465,
				From:       "monitor@example.org",
				FromName:   "Rankwatch",
				Recipients: recipients,
			},
		},
	}
	return config.NewStore(cfg, "")
}

func taskEvent() monitor.TaskEvent {
	return monitor.TaskEvent{
		Task:        models.Task{ID: 7, Name: "rev-baby", Category: "re", Score: 20},
		Attribution: rank.Attribution{Confidence: rank.Exact, Solver: models.RankEntry{ID: 1, Name: "alice"}},
		At:          time.Date(2026, 8, 28, 9, 0, 0, 0, time.UTC),
	}
}

func TestNotifierFansOutToAllRecipients(t *testing.T) {
	channel := &fakeChannel{}
	n := NewNotifier(notifierStore(t, "a@example.org", "b@example.org"), channel)

	n.TaskSolved(context.Background(), taskEvent())

	if len(channel.sent) != 2 {
		t.Fatalf("got %d sends, want 2", len(channel.sent))
	}
	if channel.sent[0].To != "a@example.org" || channel.sent[1].To != "b@example.org" {
		t.Errorf("recipients = %q, %q", channel.sent[0].To, channel.sent[1].To)
	}
	if channel.sent[0].DeliveryID == channel.sent[1].DeliveryID {
		t.Error("delivery ids not unique")
	}
	for _, params := range channel.sent {
		if params.Subject != subjectUpdate {
			t.Errorf("subject = %q", params.Subject)
		}
		if !strings.Contains(params.Body, "passer: alice, task: rev-baby") {
			t.Errorf("body missing solve line:\n%s", params.Body)
		}
		if !strings.HasPrefix(params.Body, "Hello,") {
			t.Errorf("body missing greeting:\n%s", params.Body)
		}
		if params.SMTP == nil || params.SMTP.Host != "smtp.example.org" {
			t.Errorf("SMTP config not snapshotted: %+v", params.SMTP)
		}
	}
}

func TestNotifierRankChangedBody(t *testing.T) {
	channel := &fakeChannel{}
	n := NewNotifier(notifierStore(t, "ops@example.org"), channel)

	n.RankChanged(context.Background(), monitor.RankEvent{
		Category: "re",
		Top: models.CategoryRank{Category: "re", Entries: []models.RankEntry{
			{ID: 4, Name: "dave", Score: 55},
		}},
		Changes: models.Changes{Entered: []models.RankEntry{{ID: 4, Name: "dave", Score: 55}}},
		TopN:    10,
		At:      time.Now(),
	})

	if len(channel.sent) != 1 {
		t.Fatalf("got %d sends, want 1", len(channel.sent))
	}
	body := channel.sent[0].Body
	for _, want := range []string{"The RE leaderboard has changed:", "dave entered the top 10."} {
		if !strings.Contains(body, want) {
			t.Errorf("body missing %q:\n%s", want, body)
		}
	}
}

func TestNotifierNoRecipientsDropsQuietly(t *testing.T) {
	channel := &fakeChannel{}
	n := NewNotifier(notifierStore(t), channel)

	n.TaskSolved(context.Background(), taskEvent())

	if len(channel.sent) != 0 {
		t.Errorf("got %d sends, want 0", len(channel.sent))
	}
}

// A failing recipient must not stop the fan-out.
func TestNotifierContinuesAfterFailure(t *testing.T) {
	channel := &fakeChannel{fail: true}
	n := NewNotifier(notifierStore(t, "a@example.org", "b@example.org"), channel)

	n.TaskSolved(context.Background(), taskEvent())

	if len(channel.sent) != 2 {
		t.Errorf("got %d send attempts, want 2", len(channel.sent))
	}
}

func TestNotifierPrimedDoesNotSend(t *testing.T) {
	channel := &fakeChannel{}
	n := NewNotifier(notifierStore(t, "ops@example.org"), channel)

	n.Primed(context.Background(), models.RankSnapshot{
		{Category: "re", Entries: []models.RankEntry{{ID: 1, Name: "alice", Score: 10}}},
	})

	if len(channel.sent) != 0 {
		t.Errorf("Primed sent %d emails, want 0", len(channel.sent))
	}
}

// After enough consecutive failures the breaker opens and deliveries are
// rejected without reaching the channel.
func TestNotifierBreakerOpens(t *testing.T) {
	channel := &fakeChannel{fail: true}
	n := NewNotifier(notifierStore(t, "a@example.org"), channel)

	// 5 consecutive failures trip the breaker.
	for i := 0; i < 5; i++ {
		n.TaskSolved(context.Background(), taskEvent())
	}
	attempts := len(channel.sent)

	n.TaskSolved(context.Background(), taskEvent())
	if len(channel.sent) != attempts {
		t.Errorf("open breaker still reached the channel (%d -> %d attempts)", attempts, len(channel.sent))
	}
}
