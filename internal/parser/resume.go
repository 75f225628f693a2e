package parser

import (
	"regexp"
	"strings"

	"github.com/jonathan/jobpilot/internal/types"
)

var (
	emailRe = regexp.MustCompile(`[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}`)
	phoneRe = regexp.MustCompile(`(\+?\d{1,3}[\s-]?)?\(?\d{3,5}\)?[\s-]?\d{3}[\s-]?\d{4}`)
)

// roleKeywords map resume phrases to canonical suited roles, ordered most
// specific first.
var roleKeywords = []struct {
	phrase string
	role   string
}{
	{"machine learning", "Machine Learning Engineer"},
	{"data engineer", "Data Engineer"},
	{"data scientist", "Data Scientist"},
	{"devops", "DevOps Engineer"},
	{"site reliability", "Site Reliability Engineer"},
	{"frontend", "Frontend Developer"},
	{"front-end", "Frontend Developer"},
	{"backend", "Backend Developer"},
	{"back-end", "Backend Developer"},
	{"full stack", "Full Stack Developer"},
	{"full-stack", "Full Stack Developer"},
	{"mobile", "Mobile Developer"},
	{"software engineer", "Software Engineer"},
	{"software developer", "Software Engineer"},
}

// ParseResume extracts contact details, skills and suited roles from raw
// resume text. Deterministic given identical input.
func ParseResume(text string) *types.ParsedResume {
	parsed := &types.ParsedResume{}

	if m := emailRe.FindString(text); m != "" {
		parsed.Email = m
	}
	if m := phoneRe.FindString(text); m != "" {
		parsed.Phone = strings.TrimSpace(m)
	}
	parsed.Name = extractName(text, parsed.Email)

	required, preferred := ExtractSkills(text)
	parsed.Skills = append(required, preferred...)

	lower := strings.ToLower(text)
	seen := make(map[string]struct{})
	for _, rk := range roleKeywords {
		if strings.Contains(lower, rk.phrase) {
			if _, ok := seen[rk.role]; !ok {
				seen[rk.role] = struct{}{}
				parsed.SuitedRoles = append(parsed.SuitedRoles, rk.role)
			}
		}
	}

	if first := firstParagraph(text); first != "" {
		parsed.Summary = first
	}
	return parsed
}

// extractName takes the first short line that looks like a person's name:
// two to four capitalized words, no digits or @.
func extractName(text, email string) string {
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.ContainsAny(line, "@0123456789") {
			continue
		}
		words := strings.Fields(line)
		if len(words) < 2 || len(words) > 4 {
			continue
		}
		ok := true
		for _, w := range words {
			if w[0] < 'A' || w[0] > 'Z' {
				ok = false
				break
			}
		}
		if ok {
			return line
		}
	}
	// Fallback: derive from the email local part, "john.doe" -> "John Doe".
	if at := strings.IndexByte(email, '@'); at > 0 {
		local := strings.NewReplacer(".", " ", "_", " ", "-", " ").Replace(email[:at])
		words := strings.Fields(local)
		for i, w := range words {
			words[i] = strings.ToUpper(w[:1]) + w[1:]
		}
		return strings.Join(words, " ")
	}
	return ""
}

// firstParagraph returns the first substantial paragraph, skipping contact
// blocks.
func firstParagraph(text string) string {
	for _, para := range splitParagraphs(text) {
		para = strings.TrimSpace(para)
		if len(para) > 40 && !strings.ContainsRune(para, '@') {
			return collapseWhitespace(para)
		}
	}
	return ""
}

var spaceRe = regexp.MustCompile(`\s+`)

func collapseWhitespace(s string) string {
	return spaceRe.ReplaceAllString(s, " ")
}
