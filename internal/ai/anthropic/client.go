// Package anthropic implements a Completer over the Anthropic Messages API.
package anthropic

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/spigell/job-bot/internal/ai"
	"github.com/spigell/job-bot/internal/logger"
	"github.com/spigell/job-bot/internal/utils"
)

const (
	DefaultBaseURL   = "https://api.anthropic.com"
	DefaultModel     = "claude-3-5-sonnet-latest"
	apiVersion       = "2023-06-01"
	providerName     = "anthropic"
	defaultMaxTokens = 4096
	requestTimeout   = 120 * time.Second

	// Anthropic answers 529 when the API is overloaded; it is handled like a 429.
	statusOverloaded = 529
)

type messagesRequest struct {
	Model       string    `json:"model"`
	System      string    `json:"system,omitempty"`
	Messages    []message `json:"messages"`
	MaxTokens   int       `json:"max_tokens"`
	Temperature float64   `json:"temperature"`
}

type message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type messagesResponse struct {
	Content []struct {
		Type string `json:"type"`
		Text string `json:"text,omitempty"`
	} `json:"content"`
	StopReason string `json:"stop_reason"`
}

type errorResponse struct {
	Error struct {
		Type    string `json:"type"`
		Message string `json:"message"`
	} `json:"error"`
}

type Client struct {
	baseURL    string
	apiKey     string
	model      string
	logger     *zap.Logger
	HTTPClient *http.Client
}

func New(baseURL, apiKey, model string, log *zap.Logger) (*Client, error) {
	apiKey = strings.TrimSpace(apiKey)
	if apiKey == "" {
		return nil, fmt.Errorf("anthropic api key is required")
	}
	if baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/"); baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if model = strings.TrimSpace(model); model == "" {
		model = DefaultModel
	}

	return &Client{
		baseURL:    baseURL,
		apiKey:     apiKey,
		model:      model,
		logger:     logger.WithCommonFields(log, providerName, model),
		HTTPClient: &http.Client{Timeout: requestTimeout},
	}, nil
}

func (c *Client) Model() string { return c.model }

func (c *Client) Complete(ctx context.Context, req ai.CompletionRequest) (string, error) {
	maxTokens := req.MaxTokens
	if maxTokens <= 0 {
		maxTokens = defaultMaxTokens
	}

	body, err := json.Marshal(messagesRequest{
		Model:       c.model,
		System:      req.System,
		Messages:    []message{{Role: "user", Content: req.User}},
		MaxTokens:   maxTokens,
		Temperature: req.Temperature,
	})
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/messages", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("x-api-key", c.apiKey)
	httpReq.Header.Set("anthropic-version", apiVersion)

	c.logger.Debug("make request", zap.String("url", httpReq.URL.String()))

	resp, err := c.HTTPClient.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read response: %w", err)
	}

	switch {
	case resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode == statusOverloaded:
		seconds, _ := strconv.Atoi(resp.Header.Get("retry-after"))
		return "", &ai.RateLimitError{
			Provider:   providerName,
			RetryAfter: time.Duration(seconds) * time.Second,
			Message:    errorMessage(data),
		}
	case resp.StatusCode != http.StatusOK:
		return "", &ai.StatusError{Provider: providerName, StatusCode: resp.StatusCode, Message: errorMessage(data)}
	}

	var parsed messagesResponse
	if err := json.Unmarshal(data, &parsed); err != nil {
		return "", fmt.Errorf("decode anthropic response: %w", err)
	}

	var builder strings.Builder
	for _, block := range parsed.Content {
		if block.Type != "text" {
			continue
		}
		builder.WriteString(block.Text)
	}

	if builder.Len() == 0 {
		return "", fmt.Errorf("anthropic returned no text content (stop reason %q)", parsed.StopReason)
	}

	return builder.String(), nil
}

func errorMessage(data []byte) string {
	var parsed errorResponse
	if err := json.Unmarshal(data, &parsed); err == nil && parsed.Error.Message != "" {
		return fmt.Sprintf("%s: %s", parsed.Error.Type, parsed.Error.Message)
	}
	return utils.TruncateForLog(string(data), 300)
}
