package tailor

import (
	"fmt"
	"strconv"
	"strings"

	_ "embed"
)

var (
	//go:embed prompts/score_system.md
	scoreSystemPrompt string
	//go:embed prompts/score_user.md
	scoreUserTemplate string
	//go:embed prompts/tailor_system.md
	tailorSystemPrompt string
	//go:embed prompts/tailor_user.md
	tailorUserTemplate string
	//go:embed prompts/questions_system.md
	questionsSystemPrompt string
	//go:embed prompts/questions_user.md
	questionsUserTemplate string
	//go:embed prompts/rate_system.md
	rateSystemPrompt string
	//go:embed prompts/rate_user.md
	rateUserTemplate string
)

func buildScorePrompt(resume, job string) string {
	prompt := strings.ReplaceAll(scoreUserTemplate, "{{RESUME}}", resume)
	return strings.ReplaceAll(prompt, "{{JOB}}", job)
}

func buildTailorPrompt(resume, job string, temperature float64) string {
	prompt := strings.ReplaceAll(tailorUserTemplate, "{{RESUME}}", resume)
	prompt = strings.ReplaceAll(prompt, "{{JOB}}", job)
	prompt = strings.ReplaceAll(prompt, "{{TEMPERATURE}}", fmt.Sprintf("%.2f", temperature))
	return strings.ReplaceAll(prompt, "{{TONE}}", toneHint(temperature))
}

func toneHint(temperature float64) string {
	switch {
	case temperature < 0.4:
		return "be conservative, stay close to original language"
	case temperature > 0.6:
		return "be creative with rewording and verb choices"
	default:
		return "balanced rewording"
	}
}

func buildQuestionsPrompt(company, role string, count int, webContext string) string {
	context := ""
	if webContext != "" {
		context = "\nHere is some relevant web content about interviews for this role:\n" + webContext + "\n"
	}

	prompt := strings.ReplaceAll(questionsUserTemplate, "{{COUNT}}", strconv.Itoa(count))
	prompt = strings.ReplaceAll(prompt, "{{ROLE}}", orUnspecified(role, "professional"))
	prompt = strings.ReplaceAll(prompt, "{{COMPANY}}", orUnspecified(company, "a company in this field"))
	return strings.ReplaceAll(prompt, "{{CONTEXT}}", context)
}

func buildRatePrompt(company, role, question, answer string) string {
	prompt := strings.ReplaceAll(rateUserTemplate, "{{ROLE}}", orUnspecified(role, "Candidate"))
	prompt = strings.ReplaceAll(prompt, "{{COMPANY}}", orUnspecified(company, "an unnamed company"))
	prompt = strings.ReplaceAll(prompt, "{{QUESTION}}", question)
	return strings.ReplaceAll(prompt, "{{ANSWER}}", answer)
}

func orUnspecified(value, fallback string) string {
	if value == "" {
		return fallback
	}
	return value
}
