package tailor

import (
	"context"
	"fmt"
	"strings"

	"github.com/spigell/job-bot/internal/ai"
	"github.com/spigell/job-bot/internal/ai/response"
	"github.com/spigell/job-bot/internal/dispatch"
)

const (
	OperationQuestions = "interview_questions"
	OperationRate      = "interview_rate"

	DefaultQuestionCount = 3
	MaxQuestionCount     = 10

	questionsTemperature = 0.7
	questionsMaxTokens   = 1024
	rateTemperature      = 0.2
	rateMaxTokens        = 512

	// maxWebContext caps the researched interview text carried into the prompt.
	maxWebContext = 2000
)

type QuestionsRequest struct {
	Company string
	Role    string
	// Count defaults to DefaultQuestionCount when zero.
	Count int
	// WebContext is optional researched text about interviews for the role.
	WebContext string
	Provider   string
}

type QuestionsResult struct {
	Company   string            `json:"company"`
	Role      string            `json:"role"`
	Questions []string          `json:"questions"`
	Provider  dispatch.Provider `json:"provider"`
	Switched  bool              `json:"switched"`
}

type RateRequest struct {
	Company  string
	Role     string
	Question string
	Answer   string
	Provider string
}

type RateResult struct {
	Rating   *ai.AnswerRating  `json:"rating"`
	Label    string            `json:"label"`
	Provider dispatch.Provider `json:"provider"`
	Switched bool              `json:"switched"`
}

// Questions generates practice interview questions for a role. Results are never cached so
// asking again yields new questions.
func (s *Service) Questions(ctx context.Context, session *dispatch.Session, req QuestionsRequest) (*QuestionsResult, error) {
	company := strings.TrimSpace(req.Company)
	role := strings.TrimSpace(req.Role)
	if company == "" && role == "" {
		return nil, fmt.Errorf("%w: enter a company and/or role", ErrInvalidInput)
	}

	count := req.Count
	if count == 0 {
		count = DefaultQuestionCount
	}
	if count < 1 || count > MaxQuestionCount {
		return nil, fmt.Errorf("%w: question count must be between 1 and %d, got %d", ErrInvalidInput, MaxQuestionCount, count)
	}

	webContext := strings.TrimSpace(req.WebContext)
	if runes := []rune(webContext); len(runes) > maxWebContext {
		webContext = string(runes[:maxWebContext])
	}

	res, err := s.invoke(ctx, session, req.Provider, dispatch.Request{
		Operation: OperationQuestions,
		Completion: ai.CompletionRequest{
			System:      questionsSystemPrompt,
			User:        buildQuestionsPrompt(company, role, count, webContext),
			Temperature: questionsTemperature,
			MaxTokens:   questionsMaxTokens,
		},
	})
	if err != nil {
		return nil, err
	}

	questions, err := response.DecodeQuestions(res.Text)
	if err != nil {
		return nil, err
	}
	if len(questions) > count {
		questions = questions[:count]
	}

	return &QuestionsResult{
		Company:   company,
		Role:      role,
		Questions: questions,
		Provider:  res.Provider,
		Switched:  res.Switched(),
	}, nil
}

// Rate scores a practice answer to one interview question.
func (s *Service) Rate(ctx context.Context, session *dispatch.Session, req RateRequest) (*RateResult, error) {
	question := strings.TrimSpace(req.Question)
	answer := strings.TrimSpace(req.Answer)
	if question == "" {
		return nil, fmt.Errorf("%w: question is empty", ErrInvalidInput)
	}
	if answer == "" {
		return nil, fmt.Errorf("%w: answer is empty", ErrInvalidInput)
	}

	res, err := s.invoke(ctx, session, req.Provider, dispatch.Request{
		Operation: OperationRate,
		Completion: ai.CompletionRequest{
			System:      rateSystemPrompt,
			User:        buildRatePrompt(strings.TrimSpace(req.Company), strings.TrimSpace(req.Role), question, answer),
			Temperature: rateTemperature,
			MaxTokens:   rateMaxTokens,
		},
	})
	if err != nil {
		return nil, err
	}

	rating, err := response.DecodeRating(res.Text)
	if err != nil {
		return nil, err
	}

	return &RateResult{
		Rating:   rating,
		Label:    ScoreLabel(rating.Score),
		Provider: res.Provider,
		Switched: res.Switched(),
	}, nil
}
