package webhook

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/Gobusters/ectologger"
)

const (
	// DefaultTimeout is the default trigger request timeout
	DefaultTimeout = 30 * time.Second

	// MaxRequestSize is the maximum encoded request body size (25MB). CSV
	// uploads dominate the body.
	MaxRequestSize = 25 * 1024 * 1024
)

// Config holds the trigger client configuration
type Config struct {
	URL     string
	Timeout time.Duration
}

// Client posts the job-trigger form to the configured endpoint.
type Client struct {
	url    string
	client *http.Client
	logger ectologger.Logger
}

// NewClient creates a new webhook client
func NewClient(cfg Config, logger ectologger.Logger) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	return &Client{
		url: cfg.URL,
		client: &http.Client{
			Timeout: timeout,
		},
		logger: logger,
	}
}

// Result reports the outcome of a trigger attempt. A failed trigger is a
// warning, never fatal to the submission that issued it.
type Result struct {
	Triggered  bool
	StatusCode int
	Err        error
}

// Trigger POSTs the payload's multipart form. Any 2xx status counts as
// triggered; every other status and any transport failure is reported in the
// Result rather than as an error.
func (c *Client) Trigger(ctx context.Context, payload *Payload) Result {
	var body bytes.Buffer
	contentType, err := payload.EncodeMultipart(&body)
	if err != nil {
		c.logger.WithContext(ctx).WithError(err).Error("Failed to encode webhook payload")
		return Result{Err: fmt.Errorf("failed to encode payload: %w", err)}
	}

	if body.Len() > MaxRequestSize {
		err := fmt.Errorf("request too large: %d bytes (max %d)", body.Len(), MaxRequestSize)
		c.logger.WithContext(ctx).WithError(err).Error("Webhook payload over size limit")
		return Result{Err: err}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, &body)
	if err != nil {
		return Result{Err: fmt.Errorf("failed to create request: %w", err)}
	}
	req.Header.Set("Content-Type", contentType)

	start := time.Now()
	resp, err := c.client.Do(req)
	if err != nil {
		c.logger.WithContext(ctx).WithError(err).Errorf("Webhook request failed: POST %s", c.url)
		return Result{Err: fmt.Errorf("request failed: %w", err)}
	}
	defer resp.Body.Close()

	// Drain so the connection can be reused
	_, _ = io.Copy(io.Discard, resp.Body)

	c.logger.WithContext(ctx).Debugf("Webhook POST %s -> %d (%s)", c.url, resp.StatusCode, time.Since(start))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		c.logger.WithContext(ctx).WithFields(map[string]any{
			"status_code": resp.StatusCode,
			"run_id":      payload.RunID,
		}).Warn("Webhook returned a non-2xx status")
		return Result{StatusCode: resp.StatusCode}
	}

	return Result{Triggered: true, StatusCode: resp.StatusCode}
}
