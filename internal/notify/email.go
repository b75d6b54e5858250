package notify

import (
	"context"
	"errors"
	"fmt"
	"net/smtp"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

// EmailConfig holds SMTP connection details and the recipient list.
type EmailConfig struct {
	Host       string
	Port       int
	From       string
	Username   string
	Password   string
	Recipients []string
}

// EmailChannel sends notifications over SMTP.
type EmailChannel struct {
	cfg EmailConfig
}

// NewEmailChannel creates an EmailChannel from config.
func NewEmailChannel(cfg EmailConfig) *EmailChannel {
	return &EmailChannel{cfg: cfg}
}

func (c *EmailChannel) Name() string { return "email" }

func (c *EmailChannel) Deliver(ctx context.Context, n Notification) error {
	ctx, span := otel.Tracer("notifier").Start(ctx, "notify.email")
	defer span.End()

	if len(c.cfg.Recipients) == 0 {
		err := errors.New("email channel has no recipients configured")
		span.RecordError(err)
		span.SetStatus(codes.Error, "no recipients")
		return err
	}

	span.SetAttributes(
		attribute.Int("email.recipients", len(c.cfg.Recipients)),
		attribute.String("event.type", string(n.Event.Type)),
	)

	addr := fmt.Sprintf("%s:%d", c.cfg.Host, c.cfg.Port)
	msg := buildMIME(c.cfg.From, c.cfg.Recipients, n.Subject, n.Body)

	var auth smtp.Auth
	if c.cfg.Username != "" {
		auth = smtp.PlainAuth("", c.cfg.Username, c.cfg.Password, c.cfg.Host)
	}

	// Run the blocking SMTP call in a goroutine so we respect ctx cancellation.
	done := make(chan error, 1)
	go func() {
		done <- smtp.SendMail(addr, auth, c.cfg.From, c.cfg.Recipients, msg)
	}()

	select {
	case err := <-done:
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "smtp send failed")
			return fmt.Errorf("smtp send: %w", err)
		}
		return nil
	case <-ctx.Done():
		err := fmt.Errorf("email send timed out: %w", ctx.Err())
		span.RecordError(err)
		span.SetStatus(codes.Error, "timeout")
		return err
	}
}

func buildMIME(from string, to []string, subject, body string) []byte {
	msg := fmt.Sprintf(
		"From: %s\r\nTo: %s\r\nSubject: %s\r\nMIME-Version: 1.0\r\nContent-Type: text/plain; charset=UTF-8\r\n\r\n%s",
		from, strings.Join(to, ", "), subject, body,
	)
	return []byte(msg)
}
