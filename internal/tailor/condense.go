package tailor

import (
	"regexp"
	"strings"

	"github.com/spigell/job-bot/internal/ai"
)

const (
	condensedSummarySentences = 2
	condensedRecentBullets    = 5
)

var sentenceBoundary = regexp.MustCompile(`[.!?]\s+`)

// Condense trims a tailored resume so it fits on one page: the summary keeps its first two
// sentences and the most recent job keeps five bullets. The input is not modified.
func Condense(resume *ai.TailoredResume) *ai.TailoredResume {
	if resume == nil {
		return nil
	}

	out := *resume
	out.Summary = firstSentences(strings.TrimSpace(resume.Summary), condensedSummarySentences)

	if len(resume.Experience) > 0 {
		out.Experience = make([]ai.Experience, len(resume.Experience))
		copy(out.Experience, resume.Experience)
		if bullets := out.Experience[0].Bullets; len(bullets) > condensedRecentBullets {
			out.Experience[0].Bullets = append([]string(nil), bullets[:condensedRecentBullets]...)
		}
	}

	return &out
}

func firstSentences(text string, n int) string {
	ends := sentenceBoundary.FindAllStringIndex(text, -1)
	if len(ends) < n {
		return text
	}
	// Keep the punctuation, drop the whitespace after it.
	return text[:ends[n-1][0]+1]
}

// ScoreLabel names a fit score bucket.
func ScoreLabel(score int) string {
	switch {
	case score >= 85:
		return "Excellent"
	case score >= 70:
		return "Strong"
	case score >= 55:
		return "Moderate"
	case score >= 40:
		return "Weak"
	default:
		return "Poor"
	}
}
