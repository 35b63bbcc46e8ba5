package ai

import (
	"errors"
	"fmt"
	"testing"
)

func TestIsRateLimit(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name   string
		err    error
		expect bool
	}{
		{name: "nil", err: nil, expect: false},
		{name: "typed", err: &RateLimitError{Provider: "groq", Message: "slow down"}, expect: true},
		{name: "wrapped typed", err: fmt.Errorf("call: %w", &RateLimitError{Provider: "groq"}), expect: true},
		{name: "status text", err: errors.New("HTTP 429 Too Many Requests"), expect: true},
		{name: "gemini status", err: errors.New("Error 429, Status: RESOURCE_EXHAUSTED"), expect: true},
		{name: "quota text", err: errors.New("You exceeded your current quota"), expect: true},
		{name: "rate_limit code", err: errors.New(`{"type":"rate_limit_error"}`), expect: true},
		{name: "bad request", err: &StatusError{Provider: "groq", StatusCode: 400, Message: "invalid model"}, expect: false},
		{name: "auth", err: errors.New("invalid api key"), expect: false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			if got := IsRateLimit(tc.err); got != tc.expect {
				t.Fatalf("IsRateLimit(%v) = %v, want %v", tc.err, got, tc.expect)
			}
		})
	}
}

func TestIsModelUnavailable(t *testing.T) {
	if !IsModelUnavailable(errors.New("model not found")) {
		t.Fatal("expected not found to be reported as unavailable")
	}
	if IsModelUnavailable(errors.New("quota exhausted")) {
		t.Fatal("quota errors must not be reported as unavailable")
	}
}
