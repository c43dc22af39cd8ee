// ABOUTME: Rate-limited HTTP request core shared by both provider clients
// ABOUTME: Capped retry loop with Retry-After compliance and proactive quota pauses
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

const (
	defaultTimeout    = 30 * time.Second
	defaultMaxRetries = 3
)

// AuthFunc applies provider credentials to an outgoing request.
type AuthFunc func(*http.Request)

// SleepFunc waits for the given duration or until the context is
// cancelled. Injectable so tests can record waits instead of sleeping.
type SleepFunc func(ctx context.Context, d time.Duration) error

// ClientOptions configures the shared request core.
type ClientOptions struct {
	BaseURL    string
	Auth       AuthFunc
	HTTPClient *http.Client
	MaxRetries int
	UserAgent  string

	// QuotaThreshold enables the proactive low-quota pause: when the
	// provider's remaining-quota header drops below it, the client
	// waits out the advertised reset before the next call. Zero
	// disables the check.
	QuotaThreshold int

	Sleep  SleepFunc
	Logger *slog.Logger
}

// Client wraps HTTP access to one provider. Callers never see HTTP
// status codes, only the taxonomy in errors.go.
//
// A Client is not safe for concurrent use; the sync engine serializes
// all calls, so pagination cursors stay causally ordered.
type Client struct {
	baseURL        string
	auth           AuthFunc
	httpClient     *http.Client
	maxRetries     int
	userAgent      string
	quotaThreshold int
	sleep          SleepFunc
	log            *slog.Logger

	// pauseUntil is set when remaining quota runs low; the next call
	// waits it out before hitting the wire.
	pauseUntil time.Time
}

// NewClient creates the shared request core for one provider.
func NewClient(opts ClientOptions) *Client {
	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: defaultTimeout}
	}
	maxRetries := opts.MaxRetries
	if maxRetries <= 0 {
		maxRetries = defaultMaxRetries
	}
	sleep := opts.Sleep
	if sleep == nil {
		sleep = sleepContext
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		baseURL:        strings.TrimRight(opts.BaseURL, "/"),
		auth:           opts.Auth,
		httpClient:     httpClient,
		maxRetries:     maxRetries,
		userAgent:      opts.UserAgent,
		quotaThreshold: opts.QuotaThreshold,
		sleep:          sleep,
		log:            logger,
	}
}

// Execute performs one request with retry, backoff, and rate-limit
// compliance, returning the raw response body on success.
func (c *Client) Execute(ctx context.Context, method, path string, query url.Values, body any) ([]byte, error) {
	var bodyBytes []byte
	if body != nil {
		var err error
		bodyBytes, err = json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to encode request body: %w", err)
		}
	}

	reqURL := c.baseURL + path
	if len(query) > 0 {
		reqURL += "?" + query.Encode()
	}

	// Honor a pending low-quota pause before touching the wire.
	if wait := time.Until(c.pauseUntil); wait > 0 {
		c.log.Warn("pausing for quota reset", slog.Duration("wait", wait))
		if err := c.sleep(ctx, wait); err != nil {
			return nil, err
		}
	}
	c.pauseUntil = time.Time{}

	var lastErr error
	for attempt := 0; attempt < c.maxRetries; attempt++ {
		req, err := http.NewRequestWithContext(ctx, method, reqURL, bytes.NewReader(bodyBytes))
		if err != nil {
			return nil, err
		}
		if body != nil {
			req.Header.Set("Content-Type", "application/json")
		}
		if c.userAgent != "" {
			req.Header.Set("User-Agent", c.userAgent)
		}
		if c.auth != nil {
			c.auth(req)
		}

		resp, err := c.httpClient.Do(req)
		if err != nil {
			lastErr = err
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			if attempt < c.maxRetries-1 {
				wait := backoffDelay(attempt)
				c.log.Warn("transport error, retrying",
					slog.String("url", reqURL),
					slog.Int("attempt", attempt+1),
					slog.Duration("wait", wait))
				if sleepErr := c.sleep(ctx, wait); sleepErr != nil {
					return nil, sleepErr
				}
				continue
			}
			return nil, &TransportError{Attempts: c.maxRetries, Err: lastErr}
		}

		respBody, readErr := io.ReadAll(resp.Body)
		_ = resp.Body.Close()
		if readErr != nil {
			lastErr = readErr
			if attempt < c.maxRetries-1 {
				if sleepErr := c.sleep(ctx, backoffDelay(attempt)); sleepErr != nil {
					return nil, sleepErr
				}
				continue
			}
			return nil, &TransportError{Attempts: c.maxRetries, Err: readErr}
		}

		switch {
		case resp.StatusCode == http.StatusTooManyRequests:
			wait := retryAfterDelay(resp.Header.Get("Retry-After"), attempt)
			if attempt < c.maxRetries-1 {
				c.log.Warn("rate limit hit, waiting",
					slog.String("url", reqURL),
					slog.Duration("wait", wait))
				if sleepErr := c.sleep(ctx, wait); sleepErr != nil {
					return nil, sleepErr
				}
				continue
			}
			return nil, &RateLimitError{RetryAfter: wait}

		case resp.StatusCode == http.StatusUnauthorized:
			return nil, ErrUnauthorized

		case resp.StatusCode == http.StatusNotFound:
			return nil, ErrNotFound

		case resp.StatusCode >= 400:
			return nil, &APIError{
				StatusCode: resp.StatusCode,
				Message:    extractErrorMessage(respBody),
			}
		}

		c.checkQuota(resp.Header)
		return respBody, nil
	}

	return nil, &TransportError{Attempts: c.maxRetries, Err: lastErr}
}

// checkQuota schedules a pause before the next call when the provider's
// remaining-quota header drops below the configured threshold. A
// read-side optimization, not a correctness requirement.
func (c *Client) checkQuota(header http.Header) {
	if c.quotaThreshold <= 0 {
		return
	}
	remaining, err := strconv.Atoi(header.Get("X-RateLimit-Remaining"))
	if err != nil || remaining >= c.quotaThreshold {
		return
	}
	reset, err := strconv.ParseInt(header.Get("X-RateLimit-Reset"), 10, 64)
	if err != nil {
		return
	}
	resetAt := time.Unix(reset, 0)
	if resetAt.After(time.Now()) {
		c.log.Warn("rate limit quota low",
			slog.Int("remaining", remaining),
			slog.Time("reset", resetAt))
		c.pauseUntil = resetAt
	}
}

// backoffDelay is the exponential fallback: 2^attempt seconds.
func backoffDelay(attempt int) time.Duration {
	return time.Duration(1<<uint(attempt)) * time.Second
}

// retryAfterDelay prefers the provider's advertised wait over the
// exponential fallback.
func retryAfterDelay(header string, attempt int) time.Duration {
	header = strings.TrimSpace(header)
	if header != "" {
		if seconds, err := strconv.Atoi(header); err == nil && seconds >= 0 {
			return time.Duration(seconds) * time.Second
		}
	}
	return backoffDelay(attempt)
}

// extractErrorMessage prefers a structured message field over the raw
// response body.
func extractErrorMessage(body []byte) string {
	var parsed struct {
		Message string `json:"message"`
	}
	if err := json.Unmarshal(body, &parsed); err == nil && strings.TrimSpace(parsed.Message) != "" {
		return parsed.Message
	}
	return strings.TrimSpace(string(body))
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
