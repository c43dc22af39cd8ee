// ABOUTME: Remote API error taxonomy shared by both provider clients
// ABOUTME: Sentinel errors plus typed errors carrying status and retry hints
package api

import (
	"errors"
	"fmt"
	"time"
)

var (
	// ErrUnauthorized means bad credentials. Never retried: retrying
	// cannot fix a bad token.
	ErrUnauthorized = errors.New("unauthorized")

	// ErrNotFound means the remote resource does not exist. Never
	// retried; most callers treat it as an empty result.
	ErrNotFound = errors.New("not found")

	// ErrRateLimited means retries were exhausted waiting on provider
	// backoff. Matched via errors.Is against RateLimitError.
	ErrRateLimited = errors.New("rate limited")
)

// RateLimitError is returned when the retry budget is spent on "too many
// requests" responses. RetryAfter carries the provider's last advertised
// wait so the caller can inform a human.
type RateLimitError struct {
	RetryAfter time.Duration
}

func (e *RateLimitError) Error() string {
	return fmt.Sprintf("rate limit exceeded, retry after %s", e.RetryAfter)
}

func (e *RateLimitError) Is(target error) bool {
	return target == ErrRateLimited
}

// TransportError is returned when a timeout or connection failure
// persists through all retry attempts.
type TransportError struct {
	Attempts int
	Err      error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("request failed after %d attempts: %v", e.Attempts, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// APIError is any other non-2xx response. Message is the provider's
// structured message field when the body parses as JSON, otherwise the
// raw body.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api error (%d): %s", e.StatusCode, e.Message)
}
