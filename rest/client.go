// Package rest talks to the controller's HTTP API. Every surface
// operation maps to one endpoint under /api; requests are retried with
// doubling backoff on network errors and server-side failures, while
// 4xx responses fail immediately.
package rest

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/flokli/deckctl/animation"
	"github.com/flokli/deckctl/button"
)

const (
	defaultTimeout    = 10 * time.Second
	defaultAttempts   = 3
	defaultRetryDelay = 250 * time.Millisecond
)

// Option adjusts a Client.
type Option func(*Client)

// WithHTTPClient swaps the underlying HTTP client, mainly for tests
// and for callers with their own transport settings.
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) {
		c.http = h
	}
}

// WithRetries sets how many attempts a request gets and the delay
// before the first retry. The delay doubles after every failure.
func WithRetries(attempts int, firstDelay time.Duration) Option {
	return func(c *Client) {
		if attempts > 0 {
			c.attempts = attempts
		}
		if firstDelay > 0 {
			c.delay = firstDelay
		}
	}
}

// Client is a controller HTTP API client. It is safe for concurrent
// use.
type Client struct {
	base     string
	http     *http.Client
	attempts int
	delay    time.Duration
}

var _ animation.StyleTransport = &Client{}

// New creates a client for the controller reachable at baseURL, for
// example "http://127.0.0.1:8888".
func New(baseURL string, opts ...Option) (*Client, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("unable to parse base URL %q: %w", baseURL, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("unsupported scheme %q in base URL %q", u.Scheme, baseURL)
	}
	c := &Client{
		base:     strings.TrimRight(baseURL, "/"),
		http:     &http.Client{Timeout: defaultTimeout},
		attempts: defaultAttempts,
		delay:    defaultRetryDelay,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Press pushes and releases the button at addr.
func (c *Client) Press(ctx context.Context, addr button.Address) error {
	return c.surface(ctx, addr, "press")
}

// Down pushes the button at addr without releasing it.
func (c *Client) Down(ctx context.Context, addr button.Address) error {
	return c.surface(ctx, addr, "down")
}

// Up releases the button at addr.
func (c *Client) Up(ctx context.Context, addr button.Address) error {
	return c.surface(ctx, addr, "up")
}

// RotateLeft turns the encoder at addr counterclockwise.
func (c *Client) RotateLeft(ctx context.Context, addr button.Address) error {
	return c.surface(ctx, addr, "rotate-left")
}

// RotateRight turns the encoder at addr clockwise.
func (c *Client) RotateRight(ctx context.Context, addr button.Address) error {
	return c.surface(ctx, addr, "rotate-right")
}

func (c *Client) surface(ctx context.Context, addr button.Address, action string) error {
	path := fmt.Sprintf("/api/location/%d/%d/%d/%s", addr.Page, addr.Row, addr.Column, action)
	_, err := c.send(ctx, http.MethodPost, path, "", nil)
	return err
}

// SetStyle applies the set fields of style to the button at addr.
func (c *Client) SetStyle(ctx context.Context, addr button.Address, style button.Style) error {
	if style.IsZero() {
		return nil
	}
	body, err := json.Marshal(style)
	if err != nil {
		return fmt.Errorf("unable to encode style for %s: %w", addr, err)
	}
	path := fmt.Sprintf("/api/location/%d/%d/%d/style", addr.Page, addr.Row, addr.Column)
	_, err = c.send(ctx, http.MethodPost, path, "application/json", body)
	return err
}

// SetCustomVariable assigns value to the named custom variable.
func (c *Client) SetCustomVariable(ctx context.Context, name, value string) error {
	path := "/api/custom-variable/" + url.PathEscape(name) + "/value"
	_, err := c.send(ctx, http.MethodPost, path, "text/plain", []byte(value))
	return err
}

// CustomVariable reads the current value of the named custom variable.
func (c *Client) CustomVariable(ctx context.Context, name string) (string, error) {
	path := "/api/custom-variable/" + url.PathEscape(name) + "/value"
	data, err := c.send(ctx, http.MethodGet, path, "", nil)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// ApplyStyles delivers an animation frame batch as sequential style
// posts. The controller API has no multi-button endpoint, so the batch
// unrolls here; the first failing update aborts the rest.
func (c *Client) ApplyStyles(ctx context.Context, updates []animation.StyleUpdate) error {
	for _, u := range updates {
		if err := c.SetStyle(ctx, u.Address, u.Style); err != nil {
			return fmt.Errorf("unable to style button %s: %w", u.Address, err)
		}
	}
	return nil
}

// Close releases idle connections.
func (c *Client) Close() error {
	c.http.CloseIdleConnections()
	return nil
}

// send performs one request with retries. Responses with a 4xx status
// are treated as permanent and returned without further attempts.
func (c *Client) send(ctx context.Context, method, path, contentType string, body []byte) ([]byte, error) {
	u := c.base + path
	delay := c.delay
	var lastErr error

	for attempt := 1; attempt <= c.attempts; attempt++ {
		if attempt > 1 {
			log.WithFields(log.Fields{
				"url":     u,
				"attempt": attempt,
			}).Debug("retrying controller request")
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(delay):
			}
			delay *= 2
		}

		req, err := http.NewRequestWithContext(ctx, method, u, bytes.NewReader(body))
		if err != nil {
			return nil, fmt.Errorf("unable to build request for %s: %w", u, err)
		}
		if contentType != "" {
			req.Header.Set("Content-Type", contentType)
		}

		resp, err := c.http.Do(req)
		if err != nil {
			lastErr = err
			continue
		}
		data, err := io.ReadAll(resp.Body)
		resp.Body.Close()
		if err != nil {
			lastErr = fmt.Errorf("unable to read response from %s: %w", u, err)
			continue
		}

		switch {
		case resp.StatusCode >= 200 && resp.StatusCode < 300:
			return data, nil
		case resp.StatusCode >= 400 && resp.StatusCode < 500:
			return nil, fmt.Errorf("%s %s: controller rejected the request with status %d: %s",
				method, u, resp.StatusCode, strings.TrimSpace(string(data)))
		default:
			lastErr = fmt.Errorf("status %d: %s", resp.StatusCode, strings.TrimSpace(string(data)))
		}
	}

	return nil, fmt.Errorf("%s %s failed after %d attempts: %w", method, u, c.attempts, lastErr)
}
