// Package openai talks to any OpenAI-compatible chat completions endpoint
// (Groq, Cerebras, SambaNova, OpenRouter, Zhipu, Gemini's compatibility layer).
package openai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
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
	contentType    = "application/json"
	requestTimeout = 120 * time.Second
	maxErrorLength = 300
)

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
	MaxTokens   int           `json:"max_tokens,omitempty"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
	Error *apiError `json:"error,omitempty"`
}

type apiError struct {
	Message string `json:"message"`
	Type    string `json:"type"`
}

// Client is a Completer for one OpenAI-compatible provider.
type Client struct {
	provider   string
	baseURL    string
	apiKey     string
	model      string
	logger     *zap.Logger
	HTTPClient *http.Client
}

// New returns a client for the provider identified by provider (used in errors and logs).
func New(provider, baseURL, apiKey, model string, log *zap.Logger) (*Client, error) {
	apiKey = strings.TrimSpace(apiKey)
	if apiKey == "" {
		return nil, fmt.Errorf("%s api key is required", provider)
	}
	baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if baseURL == "" {
		return nil, fmt.Errorf("%s base url is required", provider)
	}
	if strings.TrimSpace(model) == "" {
		return nil, fmt.Errorf("%s model is required", provider)
	}

	return &Client{
		provider: provider,
		baseURL:  baseURL,
		apiKey:   apiKey,
		model:    model,
		logger:   logger.WithCommonFields(log, provider, model),
		HTTPClient: &http.Client{
			Timeout: requestTimeout,
		},
	}, nil
}

func (c *Client) Model() string { return c.model }

// Complete issues a chat completion with a system and a user message.
func (c *Client) Complete(ctx context.Context, req ai.CompletionRequest) (string, error) {
	body, err := json.Marshal(chatRequest{
		Model: c.model,
		Messages: []chatMessage{
			{Role: "system", Content: req.System},
			{Role: "user", Content: req.User},
		},
		Temperature: req.Temperature,
		MaxTokens:   req.MaxTokens,
	})
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", contentType)
	httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)

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

	if resp.StatusCode == http.StatusTooManyRequests {
		return "", &ai.RateLimitError{
			Provider:   c.provider,
			RetryAfter: retryAfter(resp.Header.Get("Retry-After")),
			Message:    errorMessage(data),
		}
	}

	if resp.StatusCode != http.StatusOK {
		return "", &ai.StatusError{Provider: c.provider, StatusCode: resp.StatusCode, Message: errorMessage(data)}
	}

	var parsed chatResponse
	if err := json.Unmarshal(data, &parsed); err != nil {
		return "", fmt.Errorf("decode %s response: %w", c.provider, err)
	}

	if parsed.Error != nil {
		return "", errors.New(parsed.Error.Message)
	}

	if len(parsed.Choices) == 0 {
		return "", fmt.Errorf("%s returned no choices", c.provider)
	}

	return parsed.Choices[0].Message.Content, nil
}

func errorMessage(data []byte) string {
	var parsed chatResponse
	if err := json.Unmarshal(data, &parsed); err == nil && parsed.Error != nil && parsed.Error.Message != "" {
		return parsed.Error.Message
	}
	return utils.TruncateForLog(string(data), maxErrorLength)
}

func retryAfter(header string) time.Duration {
	seconds, err := strconv.Atoi(strings.TrimSpace(header))
	if err != nil || seconds <= 0 {
		return 0
	}
	return time.Duration(seconds) * time.Second
}
