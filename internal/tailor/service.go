// Package tailor scores and rewrites resumes against job postings through the provider dispatcher.
package tailor

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/spigell/job-bot/internal/ai"
	"github.com/spigell/job-bot/internal/ai/response"
	"github.com/spigell/job-bot/internal/dispatch"
	"github.com/spigell/job-bot/internal/logger"
	"github.com/spigell/job-bot/internal/utils"
)

const (
	OperationScore  = "score"
	OperationTailor = "tailor"

	scoreTemperature = 0.1
	scoreMaxTokens   = 1024
	tailorMaxTokens  = 4096

	DefaultTemperature = 0.3

	defaultMaxLogLength = 200
)

// ErrInvalidInput marks requests rejected before any provider is called.
var ErrInvalidInput = errors.New("invalid input")

// Invoker is the dispatcher capability the service depends on.
type Invoker interface {
	Invoke(ctx context.Context, s *dispatch.Session, preferred string, req dispatch.Request) (*dispatch.Result, error)
}

type ScoreRequest struct {
	Resume   string
	Job      string
	Provider string
}

type ScoreResult struct {
	Score    *ai.FitScore      `json:"score"`
	Label    string            `json:"label"`
	Provider dispatch.Provider `json:"provider"`
	Switched bool              `json:"switched"`
	Cached   bool              `json:"cached"`
}

type TailorRequest struct {
	Resume      string
	Job         string
	Temperature float64
	Provider    string
}

type TailorResult struct {
	Resume   *ai.TailoredResume `json:"resume"`
	Provider dispatch.Provider  `json:"provider"`
	Switched bool               `json:"switched"`
	Cached   bool               `json:"cached"`
}

type cachedResult struct {
	Provider dispatch.Provider `json:"provider"`
	Payload  json.RawMessage   `json:"payload"`
}

type Service struct {
	dispatcher Invoker
	cache      Cache
	logger     *zap.Logger
	maxLogLen  int
}

// New creates the service. A nil cache disables result caching.
func New(dispatcher Invoker, cache Cache, log *zap.Logger) *Service {
	return &Service{
		dispatcher: dispatcher,
		cache:      cache,
		logger:     logger.WithFields(log),
		maxLogLen:  defaultMaxLogLength,
	}
}

// Score estimates how well the resume fits the job.
func (s *Service) Score(ctx context.Context, session *dispatch.Session, req ScoreRequest) (*ScoreResult, error) {
	resume, job, err := validate(req.Resume, req.Job)
	if err != nil {
		return nil, err
	}

	key := cacheKey(OperationScore, resume, job, 0)
	if hit, ok := s.lookup(ctx, key); ok {
		score, err := response.DecodeScore(string(hit.Payload))
		if err == nil {
			return &ScoreResult{Score: score, Label: ScoreLabel(score.Score), Provider: hit.Provider, Cached: true}, nil
		}
		s.logger.Warn("ignoring unreadable cached score", zap.Error(err))
	}

	res, err := s.invoke(ctx, session, req.Provider, dispatch.Request{
		Operation: OperationScore,
		Completion: ai.CompletionRequest{
			System:      scoreSystemPrompt,
			User:        buildScorePrompt(resume, job),
			Temperature: scoreTemperature,
			MaxTokens:   scoreMaxTokens,
		},
	})
	if err != nil {
		return nil, err
	}

	score, err := response.DecodeScore(res.Text)
	if err != nil {
		return nil, err
	}

	s.store(ctx, key, res.Provider, score)

	return &ScoreResult{
		Score:    score,
		Label:    ScoreLabel(score.Score),
		Provider: res.Provider,
		Switched: res.Switched(),
	}, nil
}

// Tailor rewrites the resume for the job. Temperature controls how freely bullets are reworded.
func (s *Service) Tailor(ctx context.Context, session *dispatch.Session, req TailorRequest) (*TailorResult, error) {
	resume, job, err := validate(req.Resume, req.Job)
	if err != nil {
		return nil, err
	}
	if req.Temperature < 0 || req.Temperature > 1 {
		return nil, fmt.Errorf("%w: temperature must be between 0 and 1, got %.2f", ErrInvalidInput, req.Temperature)
	}

	key := cacheKey(OperationTailor, resume, job, req.Temperature)
	if hit, ok := s.lookup(ctx, key); ok {
		tailored, err := response.DecodeResume(string(hit.Payload))
		if err == nil {
			return &TailorResult{Resume: tailored, Provider: hit.Provider, Cached: true}, nil
		}
		s.logger.Warn("ignoring unreadable cached resume", zap.Error(err))
	}

	res, err := s.invoke(ctx, session, req.Provider, dispatch.Request{
		Operation: OperationTailor,
		Completion: ai.CompletionRequest{
			System:      tailorSystemPrompt,
			User:        buildTailorPrompt(resume, job, req.Temperature),
			Temperature: req.Temperature,
			MaxTokens:   tailorMaxTokens,
		},
	})
	if err != nil {
		return nil, err
	}

	tailored, err := response.DecodeResume(res.Text)
	if err != nil {
		return nil, err
	}

	s.store(ctx, key, res.Provider, tailored)

	return &TailorResult{
		Resume:   tailored,
		Provider: res.Provider,
		Switched: res.Switched(),
	}, nil
}

func validate(resume, job string) (string, string, error) {
	resume = strings.TrimSpace(resume)
	job = strings.TrimSpace(job)

	if resume == "" {
		return "", "", fmt.Errorf("%w: resume text is empty", ErrInvalidInput)
	}
	if job == "" {
		return "", "", fmt.Errorf("%w: job description is empty", ErrInvalidInput)
	}

	return resume, job, nil
}

func (s *Service) invoke(ctx context.Context, session *dispatch.Session, preferred string, req dispatch.Request) (*dispatch.Result, error) {
	s.logger.Debug("dispatching request",
		zap.String(logger.FieldOperation, req.Operation),
		zap.Int("prompt_length", utf8.RuneCountInString(req.Completion.User)),
		zap.String("prompt_preview", utils.TruncateForLog(req.Completion.User, s.maxLogLen)),
	)

	res, err := s.dispatcher.Invoke(ctx, session, preferred, req)
	if err != nil {
		return nil, err
	}

	s.logger.Debug("dispatch response",
		zap.String(logger.FieldOperation, req.Operation),
		zap.String(logger.FieldProvider, res.Provider.ID),
		zap.Bool("switched", res.Switched()),
		zap.Int("response_length", utf8.RuneCountInString(res.Text)),
		zap.String("response_preview", utils.TruncateForLog(res.Text, s.maxLogLen)),
	)

	return res, nil
}

func (s *Service) lookup(ctx context.Context, key string) (*cachedResult, bool) {
	if s.cache == nil {
		return nil, false
	}

	raw, ok, err := s.cache.Get(ctx, key)
	if err != nil {
		s.logger.Warn("result cache read failed", zap.Error(err))
		return nil, false
	}
	if !ok {
		return nil, false
	}

	var hit cachedResult
	if err := json.Unmarshal(raw, &hit); err != nil {
		s.logger.Warn("result cache entry is corrupt", zap.Error(err))
		return nil, false
	}

	return &hit, true
}

func (s *Service) store(ctx context.Context, key string, provider dispatch.Provider, payload any) {
	if s.cache == nil {
		return
	}

	encoded, err := json.Marshal(payload)
	if err != nil {
		s.logger.Warn("encode result for cache", zap.Error(err))
		return
	}

	raw, err := json.Marshal(cachedResult{Provider: provider, Payload: encoded})
	if err != nil {
		s.logger.Warn("encode cache entry", zap.Error(err))
		return
	}

	if err := s.cache.Set(ctx, key, raw); err != nil {
		s.logger.Warn("result cache write failed", zap.Error(err))
	}
}
