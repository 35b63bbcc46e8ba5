package anthropic

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"go.uber.org/zap"

	"github.com/spigell/job-bot/internal/ai"
)

func TestCompleteJoinsTextBlocks(t *testing.T) {
	var got messagesRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/messages" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if r.Header.Get("x-api-key") != "secret" || r.Header.Get("anthropic-version") != apiVersion {
			t.Errorf("missing auth headers: %v", r.Header)
		}
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("decode request: %v", err)
		}
		_, _ = w.Write([]byte(`{"content":[{"type":"text","text":"{\"score\":"},{"type":"text","text":" 91}"}],"stop_reason":"end_turn"}`))
	}))
	defer srv.Close()

	client, err := New(srv.URL, "secret", "", zap.NewNop())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	out, err := client.Complete(context.Background(), ai.CompletionRequest{System: "sys", User: "user", Temperature: 0.1})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if out != `{"score": 91}` {
		t.Fatalf("unexpected output %q", out)
	}
	if got.Model != DefaultModel || got.System != "sys" || got.MaxTokens != defaultMaxTokens {
		t.Fatalf("unexpected request %+v", got)
	}
}

func TestCompleteOverloadedIsRateLimit(t *testing.T) {
	for _, status := range []int{http.StatusTooManyRequests, statusOverloaded} {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(status)
			_, _ = w.Write([]byte(`{"type":"error","error":{"type":"rate_limit_error","message":"slow down"}}`))
		}))

		client, _ := New(srv.URL, "secret", "", zap.NewNop())
		_, err := client.Complete(context.Background(), ai.CompletionRequest{User: "u"})
		srv.Close()

		var rl *ai.RateLimitError
		if !errors.As(err, &rl) {
			t.Fatalf("status %d: expected RateLimitError, got %v", status, err)
		}
	}
}

func TestCompleteUnauthorized(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"type":"error","error":{"type":"authentication_error","message":"invalid x-api-key"}}`))
	}))
	defer srv.Close()

	client, _ := New(srv.URL, "secret", "", zap.NewNop())
	_, err := client.Complete(context.Background(), ai.CompletionRequest{User: "u"})

	var statusErr *ai.StatusError
	if !errors.As(err, &statusErr) || statusErr.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected StatusError 401, got %v", err)
	}
	if ai.IsRateLimit(err) {
		t.Fatal("auth failure must not be a rate limit")
	}
}
