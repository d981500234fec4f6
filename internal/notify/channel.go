// Rankwatch - CTF Leaderboard Monitoring and Notification
// Copyright 2026 Caleb H. (calebh42)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/calebh42/rankwatch

// Package notify turns monitor events into human-readable notifications and
// delivers them. Email over SMTP is the only delivery channel; the Channel
// interface keeps the door open for others.
//
// Delivery failures are captured in DeliveryResult with a machine-readable
// error code rather than aborting the monitor loop; an SMTP outage must
// never stop event detection.
package notify

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/calebh42/rankwatch/internal/config"
)

// Channel is one way of delivering a rendered notification to a recipient.
type Channel interface {
	// Name returns the channel identifier.
	Name() string

	// Send delivers one notification. Errors that are a property of this
	// delivery (bad recipient, SMTP refusal) are reported in the result;
	// the error return is reserved for context cancellation.
	Send(ctx context.Context, params *SendParams) (*DeliveryResult, error)
}

// SendParams carries everything needed for one delivery.
type SendParams struct {
	// To is the recipient address.
	To string

	// ToName is the recipient display name. Defaults to To when empty.
	ToName string

	Subject string
	Body    string

	// DeliveryID uniquely identifies this delivery for tracing.
	DeliveryID string

	// SMTP is the transport configuration snapshotted at event time, so a
	// concurrent admin mutation cannot tear a delivery.
	SMTP *config.SMTPConfig
}

// DeliveryResult is the outcome of one delivery attempt.
type DeliveryResult struct {
	Success     bool
	Recipient   string
	DeliveredAt *time.Time

	ErrorMessage string
	ErrorCode    string

	// IsTransient indicates the failure may clear on its own and the same
	// delivery could be retried.
	IsTransient bool
}

// Error codes for delivery failures.
const (
	ErrorCodeInvalidConfig    = "INVALID_CONFIG"
	ErrorCodeInvalidRecipient = "INVALID_RECIPIENT"
	ErrorCodeConnectionFailed = "CONNECTION_FAILED"
	ErrorCodeAuthFailed       = "AUTH_FAILED"
	ErrorCodeRateLimited      = "RATE_LIMITED"
	ErrorCodeTimeout          = "TIMEOUT"
	ErrorCodeUnknown          = "UNKNOWN"
)

// ValidateEmail checks an address has the basic user@domain.tld shape.
func ValidateEmail(email string) error {
	if email == "" {
		return fmt.Errorf("email address is required")
	}
	parts := strings.Split(email, "@")
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return fmt.Errorf("invalid email address format: %s", email)
	}
	if !strings.Contains(parts[1], ".") {
		return fmt.Errorf("invalid email domain: %s", parts[1])
	}
	return nil
}

// classifyDeliveryError maps an SMTP error to a machine-readable code.
func classifyDeliveryError(err error) string {
	errStr := err.Error()

	switch {
	case strings.Contains(errStr, "authentication") || strings.Contains(errStr, "auth"):
		return ErrorCodeAuthFailed
	case strings.Contains(errStr, "connection") || strings.Contains(errStr, "connect"):
		return ErrorCodeConnectionFailed
	case strings.Contains(errStr, "timeout") || strings.Contains(errStr, "deadline"):
		return ErrorCodeTimeout
	case strings.Contains(errStr, "rate") || strings.Contains(errStr, "limit"):
		return ErrorCodeRateLimited
	default:
		return ErrorCodeUnknown
	}
}

// isTransientError reports whether a delivery with this code may be retried.
func isTransientError(code string) bool {
	switch code {
	case ErrorCodeConnectionFailed, ErrorCodeTimeout, ErrorCodeRateLimited:
		return true
	default:
		return false
	}
}
