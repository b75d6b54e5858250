// Package client is a Go SDK for the Hoff REST API. It validates form input
// before issuing any request, attaches the bearer token obtained from Login,
// and surfaces backend failures as typed domain errors. It never retries;
// the caller decides whether a failed submission is resubmitted.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/Alex2744-cyber/Hoff-AppV2/internal/domain"
)

// Client talks to one Hoff API instance. Safe for concurrent use once the
// token is set; SetToken and Login are not synchronized with in-flight calls.
type Client struct {
	baseURL string
	token   string
	http    *http.Client
}

type Option func(*Client)

// WithHTTPClient replaces the default HTTP client (10s timeout).
func WithHTTPClient(h *http.Client) Option { return func(c *Client) { c.http = h } }

// WithToken sets a pre-obtained bearer token, skipping Login.
func WithToken(token string) Option { return func(c *Client) { c.token = token } }

func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: baseURL,
		http:    &http.Client{Timeout: 10 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// SetToken replaces the bearer token used on subsequent requests.
func (c *Client) SetToken(token string) { c.token = token }

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   string          `json:"error"`
}

// do issues one JSON request and decodes the response envelope into out.
// Non-2xx responses come back as *domain.RequestFailure carrying the server
// error string when one was sent.
func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var reader *bytes.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(payload)
	} else {
		reader = bytes.NewReader(nil)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return &domain.RequestFailure{Message: err.Error()}
	}
	defer resp.Body.Close()

	var env envelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		if resp.StatusCode >= 400 {
			return &domain.RequestFailure{StatusCode: resp.StatusCode}
		}
		return fmt.Errorf("decode response: %w", err)
	}

	if resp.StatusCode >= 400 || !env.Success {
		return &domain.RequestFailure{StatusCode: resp.StatusCode, Message: env.Error}
	}
	if out != nil {
		if err := json.Unmarshal(env.Data, out); err != nil {
			return fmt.Errorf("decode response data: %w", err)
		}
	}
	return nil
}

// notFoundAs converts a 404 RequestFailure into a NotFoundError for the
// resource the caller asked about. Other errors pass through unchanged.
func notFoundAs(err error, kind string, id int) error {
	var rf *domain.RequestFailure
	if errors.As(err, &rf) && rf.StatusCode == http.StatusNotFound {
		return &domain.NotFoundError{Kind: kind, ID: id}
	}
	return err
}
