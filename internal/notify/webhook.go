package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

// webhookBody is the JSON document POSTed to the configured endpoint.
type webhookBody struct {
	Subject string `json:"asunto"`
	Body    string `json:"cuerpo"`
	Event   any    `json:"evento"`
}

// WebhookChannel POSTs notifications to a fixed HTTP endpoint, for external
// integrations (Slack bridges, the client company's own systems).
type WebhookChannel struct {
	url    string
	secret string
	client *http.Client
}

// NewWebhookChannel creates a WebhookChannel targeting url. When secret is
// non-empty it is sent in the X-Hoff-Secret header so the receiver can
// authenticate the caller.
func NewWebhookChannel(url, secret string) *WebhookChannel {
	return &WebhookChannel{
		url:    url,
		secret: secret,
		client: &http.Client{Timeout: 15 * time.Second},
	}
}

func (c *WebhookChannel) Name() string { return "webhook" }

func (c *WebhookChannel) Deliver(ctx context.Context, n Notification) error {
	ctx, span := otel.Tracer("notifier").Start(ctx, "notify.webhook")
	defer span.End()

	span.SetAttributes(
		attribute.String("webhook.url", c.url),
		attribute.String("event.type", string(n.Event.Type)),
	)

	payload, err := json.Marshal(webhookBody{Subject: n.Subject, Body: n.Body, Event: n.Event})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "marshal failed")
		return fmt.Errorf("marshal webhook body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(payload))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "build request failed")
		return fmt.Errorf("build webhook request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.secret != "" {
		req.Header.Set("X-Hoff-Secret", c.secret)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "http call failed")
		return fmt.Errorf("webhook call to %s: %w", c.url, err)
	}
	defer resp.Body.Close()

	span.SetAttributes(attribute.Int("http.status_code", resp.StatusCode))
	if resp.StatusCode >= http.StatusBadRequest {
		err := fmt.Errorf("webhook %s returned status %d", c.url, resp.StatusCode)
		span.RecordError(err)
		span.SetStatus(codes.Error, "bad status code")
		return err
	}
	return nil
}
