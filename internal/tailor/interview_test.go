package tailor

import (
	"context"
	"errors"
	"strings"
	"testing"

	"go.uber.org/zap"

	"github.com/spigell/job-bot/internal/ai/response"
	"github.com/spigell/job-bot/internal/dispatch"
)

func TestQuestionsBuildsRequest(t *testing.T) {
	invoker := &fakeInvoker{
		text:     "```json\n[\"Walk me through a payment outage.\", \"Why Acme?\", \"How do you test Go services?\", \"Extra?\"]\n```",
		provider: dispatch.Provider{ID: "groq", Label: "Groq"},
	}
	svc := New(invoker, nil, zap.NewNop())

	res, err := svc.Questions(context.Background(), dispatch.NewSession("s", nil), QuestionsRequest{
		Company:    " Acme Corp ",
		Role:       "Senior Go Engineer",
		WebContext: strings.Repeat("x", maxWebContext+500),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(res.Questions) != DefaultQuestionCount || res.Questions[1] != "Why Acme?" {
		t.Fatalf("unexpected questions %q", res.Questions)
	}
	if res.Company != "Acme Corp" || res.Provider.ID != "groq" {
		t.Fatalf("unexpected result %+v", res)
	}

	req := invoker.requests[0]
	if req.Operation != OperationQuestions || req.Completion.Temperature != questionsTemperature || req.Completion.MaxTokens != questionsMaxTokens {
		t.Fatalf("unexpected request %+v", req)
	}
	user := req.Completion.User
	if !strings.Contains(user, "exactly 3 realistic interview questions for a Senior Go Engineer position at Acme Corp") {
		t.Fatalf("prompt is missing the role line: %q", user)
	}
	if strings.Contains(user, strings.Repeat("x", maxWebContext+1)) || !strings.Contains(user, strings.Repeat("x", maxWebContext)) {
		t.Fatal("web context must be capped")
	}
}

func TestQuestionsWithoutWebContext(t *testing.T) {
	invoker := &fakeInvoker{text: `["Q1?"]`}
	svc := New(invoker, nil, zap.NewNop())

	res, err := svc.Questions(context.Background(), dispatch.NewSession("s", nil), QuestionsRequest{Role: "SRE", Count: 5})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(res.Questions) != 1 {
		t.Fatalf("unexpected questions %q", res.Questions)
	}
	if strings.Contains(invoker.requests[0].Completion.User, "web content") {
		t.Fatal("no web context section expected")
	}
}

func TestQuestionsValidation(t *testing.T) {
	cases := map[string]QuestionsRequest{
		"no company or role": {Company: " ", Role: ""},
		"count too large":    {Role: "SRE", Count: MaxQuestionCount + 1},
		"negative count":     {Role: "SRE", Count: -1},
	}

	for name, req := range cases {
		t.Run(name, func(t *testing.T) {
			invoker := &fakeInvoker{}
			svc := New(invoker, nil, zap.NewNop())

			_, err := svc.Questions(context.Background(), dispatch.NewSession("s", nil), req)
			if !errors.Is(err, ErrInvalidInput) {
				t.Fatalf("expected ErrInvalidInput, got %v", err)
			}
			if len(invoker.requests) != 0 {
				t.Fatal("dispatcher must not be invoked for invalid input")
			}
		})
	}
}

func TestQuestionsMalformedReply(t *testing.T) {
	svc := New(&fakeInvoker{text: `{"questions": []}`}, nil, zap.NewNop())

	_, err := svc.Questions(context.Background(), dispatch.NewSession("s", nil), QuestionsRequest{Role: "SRE"})
	var decodeErr *response.DecodeError
	if !errors.As(err, &decodeErr) {
		t.Fatalf("expected *response.DecodeError, got %v", err)
	}
}

func TestRateBuildsRequest(t *testing.T) {
	invoker := &fakeInvoker{
		text:     `{"score": 78, "feedback": "Solid.", "strengths": ["Metrics"], "improvements": ["Shorter intro"]}`,
		provider: dispatch.Provider{ID: "gemini", Label: "Gemini"},
	}
	svc := New(invoker, nil, zap.NewNop())

	res, err := svc.Rate(context.Background(), dispatch.NewSession("s", nil), RateRequest{
		Company:  "Acme Corp",
		Role:     "Senior Go Engineer",
		Question: "Why Acme?",
		Answer:   "I built ledgers for five years.",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if res.Rating.Score != 78 || res.Label != "Strong" || res.Rating.Improvements[0] != "Shorter intro" {
		t.Fatalf("unexpected result %+v", res)
	}

	req := invoker.requests[0]
	if req.Operation != OperationRate || req.Completion.Temperature != rateTemperature || req.Completion.MaxTokens != rateMaxTokens {
		t.Fatalf("unexpected request %+v", req)
	}
	for _, want := range []string{"Role: Senior Go Engineer at Acme Corp", "Interview question: Why Acme?", "Candidate's answer: I built ledgers"} {
		if !strings.Contains(req.Completion.User, want) {
			t.Fatalf("prompt is missing %q", want)
		}
	}
}

func TestRateRejectsEmptyAnswer(t *testing.T) {
	invoker := &fakeInvoker{}
	svc := New(invoker, nil, zap.NewNop())

	for _, req := range []RateRequest{{Question: "Why?", Answer: " "}, {Question: "", Answer: "Because."}} {
		_, err := svc.Rate(context.Background(), dispatch.NewSession("s", nil), req)
		if !errors.Is(err, ErrInvalidInput) {
			t.Fatalf("expected ErrInvalidInput, got %v", err)
		}
	}
	if len(invoker.requests) != 0 {
		t.Fatal("dispatcher must not be invoked for invalid input")
	}
}
