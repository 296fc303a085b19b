// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package mailer sends newsletter lifecycle email over SMTP. Sending is
// best-effort: transient failures retry with backoff, permanent ones are
// logged and dropped. Subscription state never depends on a send landing.
package mailer

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"github.com/sethvargo/go-retry"
	"gopkg.in/gomail.v2"
)

// sendAttempts is how many times a message is tried before giving up.
const sendAttempts = 3

// Mailer sends double opt-in and unsubscribe mail. A nil *Mailer is valid
// and drops every message, so environments without SMTP still run.
type Mailer struct {
	dialer  *gomail.Dialer
	from    string
	baseURL string
	logger  *slog.Logger
}

// New creates a mailer. Returns nil when no SMTP host is configured.
func New(host string, port int, user, pass, from, baseURL string, logger *slog.Logger) *Mailer {
	if host == "" {
		return nil
	}
	return &Mailer{
		dialer:  gomail.NewDialer(host, port, user, pass),
		from:    from,
		baseURL: strings.TrimRight(baseURL, "/"),
		logger:  logger,
	}
}

// SendConfirmation mails the double opt-in link. The subscription stays
// pending until the link is followed.
func (m *Mailer) SendConfirmation(ctx context.Context, email, confirmToken string) {
	if m == nil {
		return
	}
	body := fmt.Sprintf(
		"Hi,\n\nConfirm your subscription by opening this link:\n\n%s\n\nThe link expires in 48 hours. If you did not subscribe, ignore this mail.\n",
		m.actionURL("/newsletter/confirm", confirmToken),
	)
	m.send(ctx, email, "Confirm your subscription", body)
}

// SendWelcome mails the reader their access token and unsubscribe link
// after a confirmed opt-in.
func (m *Mailer) SendWelcome(ctx context.Context, email, accessToken, unsubscribeToken string) {
	if m == nil {
		return
	}
	body := fmt.Sprintf(
		"Welcome aboard!\n\nYour reader access token:\n\n%s\n\nSend it as a Bearer token to read subscriber content.\n\nUnsubscribe any time:\n\n%s\n",
		accessToken,
		m.actionURL("/newsletter/unsubscribe", unsubscribeToken),
	)
	m.send(ctx, email, "Welcome to the newsletter", body)
}

// actionURL builds a public link carrying a token.
func (m *Mailer) actionURL(path, token string) string {
	return m.baseURL + path + "?token=" + url.QueryEscape(token)
}

// send delivers one message with retries. Failures are logged, never
// returned: callers fire and forget.
func (m *Mailer) send(ctx context.Context, to, subject, body string) {
	msg := gomail.NewMessage()
	msg.SetHeader("From", m.from)
	msg.SetHeader("To", to)
	msg.SetHeader("Subject", subject)
	msg.SetBody("text/plain", body)

	backoff := retry.WithMaxRetries(sendAttempts-1, retry.NewExponential(time.Second))
	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		if err := m.dialer.DialAndSend(msg); err != nil {
			return retry.RetryableError(err)
		}
		return nil
	})
	if err != nil {
		m.logger.Error("sending mail failed", "to", to, "subject", subject, "error", err)
		return
	}
	m.logger.Info("mail sent", "to", to, "subject", subject)
}
