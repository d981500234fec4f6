// Rankwatch - CTF Leaderboard Monitoring and Notification
// Copyright 2026 Caleb H. (calebh42)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/calebh42/rankwatch

package notify

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/calebh42/rankwatch/internal/config"
	"github.com/calebh42/rankwatch/internal/logging"
	"github.com/calebh42/rankwatch/internal/metrics"
	"github.com/calebh42/rankwatch/internal/models"
	"github.com/calebh42/rankwatch/internal/monitor"
)

const breakerName = "smtp"

// Notifier implements monitor.Sink. Each event is rendered once and fanned
// out to every configured recipient; the SMTP configuration is snapshotted
// per event so an admin mutation mid-fan-out cannot mix transports.
//
// A circuit breaker wraps deliveries: when the SMTP server is down, the
// breaker opens and deliveries are dropped fast instead of stalling the
// monitor loop for a connection timeout per recipient per event.
type Notifier struct {
	store   *config.Store
	channel Channel
	breaker *gobreaker.CircuitBreaker[*DeliveryResult]
}

// NewNotifier creates a notifier delivering through the given channel.
func NewNotifier(store *config.Store, channel Channel) *Notifier {
	metrics.CircuitBreakerState.WithLabelValues(breakerName).Set(0)

	breaker := gobreaker.NewCircuitBreaker[*DeliveryResult](gobreaker.Settings{
		Name:        breakerName,
		MaxRequests: 1,
		Interval:    time.Minute,
		Timeout:     2 * time.Minute,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logging.Info().
				Str("breaker", name).
				Str("from", from.String()).
				Str("to", to.String()).
				Msg("Delivery circuit breaker state change")
			metrics.CircuitBreakerState.WithLabelValues(name).Set(stateToFloat(to))
		},
	})

	return &Notifier{store: store, channel: channel, breaker: breaker}
}

// Primed logs the initial standings. No email goes out at startup; the
// baseline is informational.
func (n *Notifier) Primed(_ context.Context, top models.RankSnapshot) {
	logging.Info().Msg("Initial standings:\n" + FormatSnapshot(top))
}

// RankChanged delivers a top-N membership change notification.
func (n *Notifier) RankChanged(ctx context.Context, ev monitor.RankEvent) {
	body := wrapBody(
		fmt.Sprintf("The %s leaderboard has changed:\n", DisplayCategory(ev.Category)),
		RenderRankChange(ev),
	)
	n.deliver(ctx, "rank_change", body)
}

// TaskSolved delivers a task solve notification.
func (n *Notifier) TaskSolved(ctx context.Context, ev monitor.TaskEvent) {
	body := wrapBody("A tracked task has been solved:\n", RenderTaskSolve(ev))
	n.deliver(ctx, "task_solve", body)
}

// deliver fans the rendered body out to every configured recipient. One
// failed recipient does not stop the rest.
func (n *Notifier) deliver(ctx context.Context, topic, body string) {
	cfg := n.store.Snapshot()
	smtpCfg := cfg.Notification.SMTP

	if len(smtpCfg.Recipients) == 0 {
		logging.Debug().Str("topic", topic).Msg("No recipients configured, dropping notification")
		return
	}

	for _, recipient := range smtpCfg.Recipients {
		n.sendOne(ctx, topic, recipient, body, &smtpCfg)
	}
}

func (n *Notifier) sendOne(ctx context.Context, topic, recipient, body string, smtpCfg *config.SMTPConfig) {
	params := &SendParams{
		To:         recipient,
		Subject:    subjectUpdate,
		Body:       body,
		DeliveryID: uuid.NewString(),
		SMTP:       smtpCfg,
	}

	start := time.Now()
	var last *DeliveryResult
	_, err := n.breaker.Execute(func() (*DeliveryResult, error) {
		result, err := n.channel.Send(ctx, params)
		if err != nil {
			return nil, err
		}
		last = result
		if !result.Success {
			return result, fmt.Errorf("%s: %s", result.ErrorCode, result.ErrorMessage)
		}
		return result, nil
	})
	metrics.NotificationDuration.Observe(time.Since(start).Seconds())

	if err == nil {
		metrics.NotificationsSent.WithLabelValues(topic).Inc()
		logging.Info().
			Str("topic", topic).
			Str("recipient", recipient).
			Str("delivery_id", params.DeliveryID).
			Msg("Notification delivered")
		return
	}

	code := ErrorCodeUnknown
	switch {
	case errors.Is(err, gobreaker.ErrOpenState), errors.Is(err, gobreaker.ErrTooManyRequests):
		code = "CIRCUIT_OPEN"
	case last != nil:
		code = last.ErrorCode
	}

	metrics.NotificationsFailed.WithLabelValues(topic, code).Inc()
	logging.Error().
		Err(err).
		Str("topic", topic).
		Str("recipient", recipient).
		Str("delivery_id", params.DeliveryID).
		Str("error_code", code).
		Msg("Notification delivery failed")
}

func stateToFloat(s gobreaker.State) float64 {
	switch s {
	case gobreaker.StateOpen:
		return 1
	case gobreaker.StateHalfOpen:
		return 2
	default:
		return 0
	}
}
