// Package fetch provides the retrying HTTP client every provider download
// goes through.
package fetch

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/couchcryptid/climate-dataset-etl/internal/observability"
)

// userAgent identifies the pipeline to providers; several of them reject
// default library agents.
const userAgent = "climate-dataset-etl/1.0 (+https://github.com/couchcryptid/climate-dataset-etl)"

// errBodySnippet caps how much of an error response body lands in logs.
const errBodySnippet = 200

// Kind hints at the payload a caller expects; it selects the Accept header.
type Kind int

const (
	KindJSON Kind = iota
	KindText
	KindBinary
)

func (k Kind) accept() string {
	switch k {
	case KindJSON:
		return "application/json"
	case KindText:
		return "text/csv, text/plain;q=0.9, */*;q=0.8"
	default:
		return "*/*"
	}
}

// Policy bounds the retry loop: at most MaxAttempts tries, pausing
// BaseDelay times the attempt number between them.
type Policy struct {
	MaxAttempts int
	BaseDelay   time.Duration
}

// delay is the linear backoff pause after the given failed attempt (1-based).
func (p Policy) delay(attempt int) time.Duration {
	return p.BaseDelay * time.Duration(attempt)
}

// FetchError reports a URL that stayed unreachable after every retry. Err
// holds the last attempt's failure.
type FetchError struct {
	URL      string
	Attempts int
	Err      error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("fetch %s failed after %d attempts: %v", e.URL, e.Attempts, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

// Client performs HTTP GETs with bounded retries. Responses are never
// cached: every call goes back to the provider.
type Client struct {
	httpClient *http.Client
	policy     Policy
	clock      clockwork.Clock
	metrics    *observability.Metrics
	logger     *slog.Logger
}

// NewClient builds a client whose individual attempts time out after the
// given duration.
func NewClient(timeout time.Duration, policy Policy, metrics *observability.Metrics, logger *slog.Logger) *Client {
	if policy.MaxAttempts < 1 {
		policy.MaxAttempts = 1
	}
	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		policy:     policy,
		clock:      clockwork.NewRealClock(),
		metrics:    metrics,
		logger:     logger,
	}
}

// Fetch GETs a URL, retrying transport errors and non-2xx statuses with
// linear backoff. It returns the raw body on the first success; callers own
// all payload interpretation.
func (c *Client) Fetch(ctx context.Context, url string, kind Kind) ([]byte, error) {
	start := time.Now()

	var lastErr error
	for attempt := 1; attempt <= c.policy.MaxAttempts; attempt++ {
		data, err := c.attempt(ctx, url, kind)
		if err == nil {
			c.metrics.FetchAttempts.WithLabelValues("success").Inc()
			c.metrics.FetchDuration.Observe(time.Since(start).Seconds())
			return data, nil
		}
		lastErr = err
		c.metrics.FetchAttempts.WithLabelValues("error").Inc()
		c.logger.Warn("fetch attempt failed",
			"url", url,
			"attempt", attempt,
			"max_attempts", c.policy.MaxAttempts,
			"error", err)

		if attempt == c.policy.MaxAttempts || ctx.Err() != nil {
			return nil, &FetchError{URL: url, Attempts: attempt, Err: lastErr}
		}
		if err := c.pause(ctx, c.policy.delay(attempt)); err != nil {
			return nil, &FetchError{URL: url, Attempts: attempt, Err: lastErr}
		}
	}
	return nil, &FetchError{URL: url, Attempts: c.policy.MaxAttempts, Err: lastErr}
}

func (c *Client) attempt(ctx context.Context, url string, kind Kind) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", kind.accept())
	req.Header.Set("Cache-Control", "no-store")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, errBodySnippet))
		return nil, fmt.Errorf("status %s: %s", resp.Status, bytes.TrimSpace(snippet))
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}
	return data, nil
}

// pause sleeps on the injected clock so tests can drive backoff without
// real waiting.
func (c *Client) pause(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-c.clock.After(d):
		return nil
	}
}
