package parser

import (
	"regexp"
	"strings"
)

// Sections holds the paragraphs identified for each known section header.
type Sections struct {
	Responsibilities string
	Requirements     string
	Benefits         string
	About            string
}

var sectionHeaders = []struct {
	name    string
	pattern *regexp.Regexp
}{
	{"responsibilities", regexp.MustCompile(`(?i)^\s*(key\s+)?(responsibilities|duties|what\s+you('|’)?ll\s+do|the\s+role)\b`)},
	{"requirements", regexp.MustCompile(`(?i)^\s*(requirements|qualifications|what\s+we('|’)?re\s+looking\s+for|must\s+have|skills?\s+(required|needed))\b`)},
	{"benefits", regexp.MustCompile(`(?i)^\s*(benefits|perks|what\s+we\s+offer|compensation\s+and\s+benefits)\b`)},
	{"about", regexp.MustCompile(`(?i)^\s*(about\s+(us|the\s+(company|team))|who\s+we\s+are|our\s+story)\b`)},
}

// IdentifySections splits the description on blank lines and, for each known
// section, takes the paragraph whose first line matches the header plus the
// next two paragraphs.
func IdentifySections(text string) Sections {
	paragraphs := splitParagraphs(text)
	var out Sections

	for i, para := range paragraphs {
		firstLine := para
		if idx := strings.IndexByte(para, '\n'); idx >= 0 {
			firstLine = para[:idx]
		}
		for _, header := range sectionHeaders {
			if !header.pattern.MatchString(firstLine) {
				continue
			}
			end := i + 3
			if end > len(paragraphs) {
				end = len(paragraphs)
			}
			section := strings.Join(paragraphs[i:end], "\n\n")
			switch header.name {
			case "responsibilities":
				if out.Responsibilities == "" {
					out.Responsibilities = section
				}
			case "requirements":
				if out.Requirements == "" {
					out.Requirements = section
				}
			case "benefits":
				if out.Benefits == "" {
					out.Benefits = section
				}
			case "about":
				if out.About == "" {
					out.About = section
				}
			}
		}
	}
	return out
}

func splitParagraphs(text string) []string {
	raw := regexp.MustCompile(`\n\s*\n`).Split(text, -1)
	var paragraphs []string
	for _, p := range raw {
		p = strings.TrimSpace(p)
		if p != "" {
			paragraphs = append(paragraphs, p)
		}
	}
	return paragraphs
}

var benefitKeywords = []string{
	"health insurance", "medical insurance", "dental", "vision",
	"401k", "retirement", "provident fund", "gratuity",
	"paid time off", "pto", "vacation", "parental leave", "maternity", "paternity",
	"stock options", "equity", "esop", "bonus",
	"flexible hours", "flexible working", "learning budget", "wellness",
	"gym membership", "free meals", "relocation",
}

// ExtractBenefits returns the benefit keywords found in the benefits section
// (or the whole text when no section was identified).
func ExtractBenefits(sections Sections, fullText string) []string {
	haystack := strings.ToLower(sections.Benefits)
	if haystack == "" {
		haystack = strings.ToLower(fullText)
	}
	var found []string
	for _, kw := range benefitKeywords {
		if strings.Contains(haystack, kw) {
			found = append(found, kw)
		}
	}
	return found
}
