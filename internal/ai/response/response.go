// Package response turns free-form model output into the structured results the service returns.
package response

import (
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/mitchellh/mapstructure"

	"github.com/spigell/job-bot/internal/ai"
	"github.com/spigell/job-bot/internal/utils"
)

const rawPreviewLength = 500

var thinkBlock = regexp.MustCompile(`(?s)<think>.*?</think>\s*`)

// DecodeError is returned when the cleaned model output is not the expected JSON object.
type DecodeError struct {
	Raw   string
	Cause error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("AI returned invalid JSON: %v (raw output: %s)", e.Cause, e.Raw)
}

func (e *DecodeError) Unwrap() error {
	return e.Cause
}

// Clean strips reasoning sections and markdown code fences around a JSON payload.
func Clean(raw string) string {
	cleaned := thinkBlock.ReplaceAllString(strings.TrimSpace(raw), "")
	cleaned = strings.TrimSpace(cleaned)

	if strings.HasPrefix(cleaned, "```") {
		cleaned = strings.TrimPrefix(cleaned, "```json")
		cleaned = strings.TrimPrefix(cleaned, "```JSON")
		cleaned = strings.TrimPrefix(cleaned, "```")
		cleaned = strings.TrimSpace(cleaned)
		if idx := strings.LastIndex(cleaned, "```"); idx != -1 {
			cleaned = cleaned[:idx]
		}
	}

	return strings.TrimSpace(cleaned)
}

// DecodeScore parses a score response. Missing fields fall back to zero values and the score
// is clamped to 0..100.
func DecodeScore(raw string) (*ai.FitScore, error) {
	var score ai.FitScore
	if err := decode(raw, &score); err != nil {
		return nil, err
	}

	score.Score = max(0, min(100, score.Score))
	score.Strengths = nonNil(score.Strengths)
	score.Gaps = nonNil(score.Gaps)
	score.KeywordsMissing = nonNil(score.KeywordsMissing)

	return &score, nil
}

// DecodeResume parses a tailoring response into a structured resume.
func DecodeResume(raw string) (*ai.TailoredResume, error) {
	var resume ai.TailoredResume
	if err := decode(raw, &resume); err != nil {
		return nil, err
	}

	resume.Skills = nonNil(resume.Skills)
	resume.Certifications = nonNil(resume.Certifications)
	resume.KeywordsAdded = nonNil(resume.KeywordsAdded)
	for i := range resume.Experience {
		resume.Experience[i].Bullets = nonNil(resume.Experience[i].Bullets)
	}

	return &resume, nil
}

// DecodeQuestions parses a JSON array of interview questions. Non-string items are coerced,
// blank ones dropped; an empty result is an error.
func DecodeQuestions(raw string) ([]string, error) {
	cleaned := Clean(raw)

	var items []any
	if err := json.Unmarshal([]byte(cleaned), &items); err != nil {
		return nil, &DecodeError{Raw: utils.TruncateForLog(cleaned, rawPreviewLength), Cause: err}
	}

	var questions []string
	if err := weakDecode(items, &questions); err != nil {
		return nil, &DecodeError{Raw: utils.TruncateForLog(cleaned, rawPreviewLength), Cause: err}
	}

	out := make([]string, 0, len(questions))
	for _, q := range questions {
		if q = strings.TrimSpace(q); q != "" {
			out = append(out, q)
		}
	}
	if len(out) == 0 {
		return nil, &DecodeError{Raw: utils.TruncateForLog(cleaned, rawPreviewLength), Cause: errors.New("no questions in the list")}
	}

	return out, nil
}

// DecodeRating parses an answer evaluation. The score is clamped to 0..100.
func DecodeRating(raw string) (*ai.AnswerRating, error) {
	var rating ai.AnswerRating
	if err := decode(raw, &rating); err != nil {
		return nil, err
	}

	rating.Score = max(0, min(100, rating.Score))
	rating.Strengths = nonNil(rating.Strengths)
	rating.Improvements = nonNil(rating.Improvements)

	return &rating, nil
}

func decode(raw string, target any) error {
	cleaned := Clean(raw)

	var data map[string]any
	if err := json.Unmarshal([]byte(cleaned), &data); err != nil {
		return &DecodeError{Raw: utils.TruncateForLog(cleaned, rawPreviewLength), Cause: err}
	}

	if err := weakDecode(data, target); err != nil {
		return &DecodeError{Raw: utils.TruncateForLog(cleaned, rawPreviewLength), Cause: err}
	}

	return nil
}

func weakDecode(input, target any) error {
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		WeaklyTypedInput: true,
		Result:           target,
	})
	if err != nil {
		return fmt.Errorf("create decoder: %w", err)
	}

	return decoder.Decode(input)
}

func nonNil(items []string) []string {
	if items == nil {
		return []string{}
	}
	return items
}
