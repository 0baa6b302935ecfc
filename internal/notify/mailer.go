// Package notify renders and delivers outbound ticket notifications.
package notify

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// Message is a rendered notification ready for delivery.
type Message struct {
	From      string   `json:"from"`
	To        []string `json:"to"`
	Subject   string   `json:"subject"`
	Body      string   `json:"body"`
	EventID   string   `json:"event_id"`
	EventType string   `json:"event_type"`
	TicketID  int64    `json:"ticket_id"`
}

// Mailer delivers messages over one channel.
type Mailer interface {
	Channel() string
	Send(ctx context.Context, msg Message) error
}

// LogMailer writes messages to the structured log. It stands in for SMTP delivery.
type LogMailer struct {
	logger *zap.Logger
}

// NewLogMailer builds a LogMailer.
func NewLogMailer(logger *zap.Logger) *LogMailer {
	return &LogMailer{logger: logger}
}

func (m *LogMailer) Channel() string { return "log" }

func (m *LogMailer) Send(_ context.Context, msg Message) error {
	m.logger.Info("notification",
		zap.String("from", msg.From),
		zap.Strings("to", msg.To),
		zap.String("subject", msg.Subject),
		zap.String("event_type", msg.EventType),
		zap.Int64("ticket_id", msg.TicketID))
	return nil
}

// WebhookMailer posts messages as JSON to an HTTP endpoint.
type WebhookMailer struct {
	url     string
	timeout time.Duration
}

// NewWebhookMailer builds a WebhookMailer.
func NewWebhookMailer(url string, timeout time.Duration) *WebhookMailer {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &WebhookMailer{url: strings.TrimSpace(url), timeout: timeout}
}

func (m *WebhookMailer) Channel() string { return "webhook" }

func (m *WebhookMailer) Send(ctx context.Context, msg Message) error {
	timeout := m.timeout
	if deadline, ok := ctx.Deadline(); ok {
		if remaining := time.Until(deadline); remaining < timeout {
			timeout = remaining
		}
	}
	if timeout <= 0 {
		return context.DeadlineExceeded
	}

	agent := fiber.Post(m.url).JSON(msg).Timeout(timeout)
	code, body, errs := agent.Bytes()
	if len(errs) > 0 {
		return errs[0]
	}
	if code < fiber.StatusOK || code >= fiber.StatusMultipleChoices {
		return &DeliveryError{StatusCode: code, Body: string(body)}
	}
	return nil
}

// DeliveryError reports a non-2xx webhook response.
type DeliveryError struct {
	StatusCode int
	Body       string
}

func (e *DeliveryError) Error() string {
	return fmt.Sprintf("webhook responded with status %d", e.StatusCode)
}
