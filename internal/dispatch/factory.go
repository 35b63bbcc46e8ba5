package dispatch

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/spigell/job-bot/internal/ai"
	"github.com/spigell/job-bot/internal/ai/anthropic"
	"github.com/spigell/job-bot/internal/ai/gemini"
	"github.com/spigell/job-bot/internal/ai/openai"
)

// Factory builds the adapter for a provider with the given key.
type Factory func(ctx context.Context, p Provider, apiKey string) (ai.Completer, error)

// NewFactory returns the Factory backed by the real vendor adapters.
func NewFactory(logger *zap.Logger) Factory {
	return func(ctx context.Context, p Provider, apiKey string) (ai.Completer, error) {
		switch p.Kind {
		case KindAnthropic:
			return anthropic.New(p.BaseURL, apiKey, p.Model, logger)
		case KindGemini:
			return gemini.NewGenerator(ctx, apiKey, p.Model, logger)
		case KindOpenAI:
			return openai.New(p.ID, p.BaseURL, apiKey, p.Model, logger)
		default:
			return nil, fmt.Errorf("unknown provider kind: %s", p.Kind)
		}
	}
}
