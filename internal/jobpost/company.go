package jobpost

import (
	"regexp"
	"strings"
	"unicode"
)

var noiseLines = toSet(
	"about the job", "job description", "about this role", "about the role",
	"position overview", "job summary", "about us", "job posting",
	"about this position", "overview", "basic qualifications",
	"preferred qualifications", "minimum qualifications",
	"key responsibilities", "responsibilities", "requirements",
	"what you'll do", "what you will do", "what we're looking for",
	"what we are looking for", "nice to have", "required skills",
	"preferred skills", "equal opportunity", "about the team",
	"who you are", "who we are", "the role", "the team",
)

// Words that start headings or job titles, never company names.
var skipWords = toSet(
	"about", "job", "description", "requirements", "responsibilities",
	"overview", "summary", "position", "role", "opportunity", "posting",
	"remote", "hybrid", "the", "a", "an", "this", "we", "our", "your",
	"what", "who", "how", "why", "when", "where", "which",
	"basic", "preferred", "minimum", "key", "required", "nice",
	"qualifications", "skills", "benefits", "compensation", "salary",
	"equal", "diversity", "inclusion", "apply", "note", "please",
	"must", "strong", "excellent", "experience", "ability", "knowledge",
	"senior", "junior", "staff", "principal", "lead", "associate",
	"engineer", "manager", "developer", "analyst", "designer", "director",
	"specialist", "coordinator", "consultant", "scientist", "architect",
	"recruiter", "product", "software", "data", "sales", "marketing",
	"operations", "finance", "full", "part", "time", "contract",
)

var aboutFiller = toSet(
	"the", "us", "this", "our", "you", "a", "an",
	"role", "team", "job", "position", "company", "opportunity", "department",
)

var (
	aboutHeader   = regexp.MustCompile(`^About\s+([A-Z][A-Za-z0-9&\- .,]{1,40}?)\s*$`)
	roleAtCompany = regexp.MustCompile(`\bat\s+([A-Z][A-Za-z0-9& .,\-]{1,35}?)(?:\s*[,|–\-]|\s+(?:is|are|was|has|have)\b|$)`)
	companyLabel  = regexp.MustCompile(`(?i)^(?:Company|Employer|Organization):\s*(.+)$`)
	companyIs     = regexp.MustCompile(`^([A-Z][A-Za-z0-9& .,\-]{1,35}?)\s+(?:is|are|was|has|have)\b`)
	cityState     = regexp.MustCompile(`,\s*[A-Z]{2}\b`)
	nonSlug       = regexp.MustCompile(`[^a-z0-9]`)
)

// CompanyName guesses the employer from the first lines of a posting. It returns "" when no
// candidate looks plausible.
func CompanyName(lines []string) string {
	clean := make([]string, 0, 40)
	for i, line := range lines {
		if i >= 40 {
			break
		}
		trimmed := strings.TrimSpace(line)
		if trimmed == "" || noiseLines[strings.ToLower(trimmed)] {
			continue
		}
		clean = append(clean, trimmed)
	}

	for _, line := range clean {
		if m := aboutHeader.FindStringSubmatch(line); m != nil {
			name := strings.TrimSpace(m[1])
			if !aboutFiller[firstWord(name)] {
				return name
			}
		}
	}

	for _, line := range head(clean, 5) {
		if m := roleAtCompany.FindStringSubmatch(line); m != nil {
			name := strings.TrimSpace(m[1])
			if len(name) >= 2 && !skipWords[firstWord(name)] {
				return name
			}
		}
	}

	for _, line := range head(clean, 25) {
		if m := companyLabel.FindStringSubmatch(line); m != nil {
			return strings.TrimSpace(m[1])
		}
	}

	for _, line := range head(clean, 15) {
		if m := companyIs.FindStringSubmatch(line); m != nil {
			candidate := strings.TrimSpace(m[1])
			words := strings.Fields(candidate)
			if len(words) >= 1 && len(words) <= 4 && !skipWords[strings.ToLower(words[0])] {
				return candidate
			}
		}
	}

	for _, line := range head(clean, 10) {
		words := strings.Fields(line)
		if len(words) < 1 || len(words) > 3 {
			continue
		}
		if first := []rune(words[0])[0]; !unicode.IsUpper(first) || skipWords[strings.ToLower(words[0])] {
			continue
		}
		if !cityState.MatchString(line) {
			return line
		}
	}

	return ""
}

// Slug makes a file-name safe token from a company name.
func Slug(name string) string {
	slug := nonSlug.ReplaceAllString(strings.ToLower(name), "")
	if slug == "" {
		return "company"
	}
	return slug
}

// SlugFromLines derives a slug from a posting, falling back to "tailored".
func SlugFromLines(lines []string) string {
	if name := CompanyName(lines); name != "" {
		return Slug(name)
	}
	return "tailored"
}

// Lines splits a posting into trimmed, non-empty lines.
func Lines(text string) []string {
	var lines []string
	for _, line := range strings.Split(text, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			lines = append(lines, line)
		}
	}
	return lines
}

func firstWord(s string) string {
	fields := strings.Fields(s)
	if len(fields) == 0 {
		return ""
	}
	return strings.ToLower(fields[0])
}

func head(lines []string, n int) []string {
	if len(lines) < n {
		return lines
	}
	return lines[:n]
}

func toSet(items ...string) map[string]bool {
	set := make(map[string]bool, len(items))
	for _, item := range items {
		set[item] = true
	}
	return set
}
