package ai

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// RateLimitError is returned by adapters when a vendor reports a 429 or an exhausted quota.
type RateLimitError struct {
	Provider   string
	RetryAfter time.Duration
	Message    string
	Cause      error
}

func (e *RateLimitError) Error() string {
	if e.RetryAfter > 0 {
		return fmt.Sprintf("provider %q rate limit exceeded (retry after %s): %s", e.Provider, e.RetryAfter, e.Message)
	}
	return fmt.Sprintf("provider %q rate limit exceeded: %s", e.Provider, e.Message)
}

func (e *RateLimitError) Unwrap() error {
	return e.Cause
}

// StatusError describes a non-success HTTP answer from a vendor that is not a rate limit.
type StatusError struct {
	Provider   string
	StatusCode int
	Message    string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("provider %q error (status %d): %s", e.Provider, e.StatusCode, e.Message)
}

var rateLimitMarkers = []string{"429", "rate_limit", "rate limit", "resource_exhausted", "quota"}

// IsRateLimit reports whether err signals a saturated provider rather than a broken request.
// Typed RateLimitError values are recognized first; other errors are classified by their text
// because several vendors only report quota exhaustion in the message.
func IsRateLimit(err error) bool {
	if err == nil {
		return false
	}

	var rl *RateLimitError
	if errors.As(err, &rl) {
		return true
	}

	msg := strings.ToLower(err.Error())
	for _, marker := range rateLimitMarkers {
		if strings.Contains(msg, marker) {
			return true
		}
	}

	return false
}

// IsModelUnavailable reports whether a rate-limit style error actually hides a missing model.
func IsModelUnavailable(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "404") || strings.Contains(msg, "not found")
}
