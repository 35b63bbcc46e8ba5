package ai

import (
	"context"
)

// CompletionRequest is the vendor-neutral shape of a single completion call.
type CompletionRequest struct {
	System      string
	User        string
	Temperature float64
	MaxTokens   int
}

// Completer issues a completion against one vendor API and returns the raw text output.
type Completer interface {
	Complete(ctx context.Context, req CompletionRequest) (string, error)
	Model() string
}

// FitScore is the normalized result of a score request.
type FitScore struct {
	Score           int      `json:"score" mapstructure:"score"`
	Strengths       []string `json:"strengths" mapstructure:"strengths"`
	Gaps            []string `json:"gaps" mapstructure:"gaps"`
	KeywordsMissing []string `json:"keywords_missing" mapstructure:"keywords_missing"`
}

// AnswerRating is the coach's evaluation of a practice interview answer.
type AnswerRating struct {
	Score        int      `json:"score" mapstructure:"score"`
	Feedback     string   `json:"feedback" mapstructure:"feedback"`
	Strengths    []string `json:"strengths" mapstructure:"strengths"`
	Improvements []string `json:"improvements" mapstructure:"improvements"`
}

// TailoredResume is the structured resume returned by a tailor request.
type TailoredResume struct {
	Name           string       `json:"name" mapstructure:"name"`
	Email          string       `json:"email" mapstructure:"email"`
	Phone          string       `json:"phone" mapstructure:"phone"`
	Location       string       `json:"location" mapstructure:"location"`
	LinkedIn       string       `json:"linkedin" mapstructure:"linkedin"`
	Website        string       `json:"website" mapstructure:"website"`
	Summary        string       `json:"summary" mapstructure:"summary"`
	Experience     []Experience `json:"experience" mapstructure:"experience"`
	Education      []Education  `json:"education" mapstructure:"education"`
	Skills         []string     `json:"skills" mapstructure:"skills"`
	Certifications []string     `json:"certifications" mapstructure:"certifications"`
	KeywordsAdded  []string     `json:"keywords_added" mapstructure:"keywords_added"`
}

type Experience struct {
	Title    string   `json:"title" mapstructure:"title"`
	Company  string   `json:"company" mapstructure:"company"`
	Location string   `json:"location" mapstructure:"location"`
	Dates    string   `json:"dates" mapstructure:"dates"`
	Bullets  []string `json:"bullets" mapstructure:"bullets"`
}

type Education struct {
	Degree   string `json:"degree" mapstructure:"degree"`
	School   string `json:"school" mapstructure:"school"`
	Location string `json:"location" mapstructure:"location"`
	Dates    string `json:"dates" mapstructure:"dates"`
	Details  string `json:"details" mapstructure:"details"`
}
