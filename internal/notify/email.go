// Rankwatch - CTF Leaderboard Monitoring and Notification
// Copyright 2026 Caleb H. (calebh42)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/calebh42/rankwatch

package notify

import (
	"context"
	"crypto/tls"
	"fmt"
	"net"
	"net/smtp"
	"strings"
	"time"

	"github.com/calebh42/rankwatch/internal/config"
)

// EmailChannel delivers notifications over SMTP.
type EmailChannel struct {
	defaultTimeout time.Duration
}

// NewEmailChannel creates an email delivery channel.
func NewEmailChannel() *EmailChannel {
	return &EmailChannel{defaultTimeout: 30 * time.Second}
}

// Name returns the channel identifier.
func (c *EmailChannel) Name() string {
	return "email"
}

// Send delivers one notification email. Configuration and recipient problems
// are reported in the result, not as errors.
func (c *EmailChannel) Send(ctx context.Context, params *SendParams) (*DeliveryResult, error) {
	result := &DeliveryResult{Recipient: params.To}

	if err := ValidateEmail(params.To); err != nil {
		result.ErrorMessage = err.Error()
		result.ErrorCode = ErrorCodeInvalidRecipient
		return result, nil
	}
	if err := validateSMTPConfig(params.SMTP); err != nil {
		result.ErrorMessage = err.Error()
		result.ErrorCode = ErrorCodeInvalidConfig
		return result, nil
	}

	msg := c.buildMessage(params)

	if err := c.sendSMTP(ctx, params.SMTP, params.To, msg); err != nil {
		result.ErrorMessage = err.Error()
		result.ErrorCode = classifyDeliveryError(err)
		result.IsTransient = isTransientError(result.ErrorCode)
		return result, nil
	}

	now := time.Now()
	result.Success = true
	result.DeliveredAt = &now
	return result, nil
}

func validateSMTPConfig(cfg *config.SMTPConfig) error {
	if cfg == nil {
		return fmt.Errorf("SMTP configuration is required")
	}
	if cfg.Host == "" {
		return fmt.Errorf("SMTP host is required")
	}
	if cfg.Port <= 0 || cfg.Port > 65535 {
		return fmt.Errorf("invalid SMTP port: %d", cfg.Port)
	}
	if err := ValidateEmail(cfg.From); err != nil {
		return fmt.Errorf("invalid SMTP sender address: %w", err)
	}
	return nil
}

// buildMessage constructs the RFC 5322 message with headers.
func (c *EmailChannel) buildMessage(params *SendParams) string {
	var msg strings.Builder

	fromName := params.SMTP.FromName
	if fromName == "" {
		fromName = "Rankwatch"
	}
	toName := params.ToName
	if toName == "" {
		toName = params.To
	}

	msg.WriteString(fmt.Sprintf("From: %s <%s>\r\n", fromName, params.SMTP.From))
	msg.WriteString(fmt.Sprintf("To: %s <%s>\r\n", toName, params.To))
	msg.WriteString(fmt.Sprintf("Subject: %s\r\n", params.Subject))
	msg.WriteString("MIME-Version: 1.0\r\n")
	if params.DeliveryID != "" {
		msg.WriteString(fmt.Sprintf("X-Rankwatch-Delivery: %s\r\n", params.DeliveryID))
	}
	msg.WriteString("Content-Type: text/plain; charset=UTF-8\r\n")
	msg.WriteString("\r\n")
	msg.WriteString(params.Body)

	return msg.String()
}

// sendSMTP performs the SMTP conversation: dial, optional STARTTLS, optional
// auth, then MAIL/RCPT/DATA.
func (c *EmailChannel) sendSMTP(ctx context.Context, cfg *config.SMTPConfig, to, msg string) error {
	addr := fmt.Sprintf("%s:%d", cfg.Host, cfg.Port)

	dialer := &net.Dialer{Timeout: c.defaultTimeout}
	conn, err := dialer.DialContext(ctx, "tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to connect to SMTP server: %w", err)
	}
	defer func() { _ = conn.Close() }()

	client, err := smtp.NewClient(conn, cfg.Host)
	if err != nil {
		return fmt.Errorf("failed to create SMTP client: %w", err)
	}
	defer func() { _ = client.Close() }()

	if cfg.UseTLS {
		tlsConfig := &tls.Config{
			ServerName: cfg.Host,
			MinVersion: tls.VersionTLS12,
		}
		if err := client.StartTLS(tlsConfig); err != nil {
			return fmt.Errorf("failed to start TLS: %w", err)
		}
	}

	if cfg.Username != "" && cfg.Password != "" {
		auth := smtp.PlainAuth("", cfg.Username, cfg.Password, cfg.Host)
		if err := client.Auth(auth); err != nil {
			return fmt.Errorf("SMTP authentication failed: %w", err)
		}
	}

	if err := client.Mail(cfg.From); err != nil {
		return fmt.Errorf("failed to set sender: %w", err)
	}
	if err := client.Rcpt(to); err != nil {
		return fmt.Errorf("failed to set recipient: %w", err)
	}

	writer, err := client.Data()
	if err != nil {
		return fmt.Errorf("failed to start message: %w", err)
	}
	if _, err := writer.Write([]byte(msg)); err != nil {
		return fmt.Errorf("failed to write message: %w", err)
	}
	if err := writer.Close(); err != nil {
		return fmt.Errorf("failed to close message: %w", err)
	}

	// Quit failures after a completed DATA are harmless.
	_ = client.Quit()
	return nil
}
