package parser

import (
	"regexp"
	"strings"
)

// Curated skill vocabularies, grouped by family. Matching is case-insensitive
// on word boundaries.
var (
	programmingLanguages = []string{
		"python", "java", "javascript", "typescript", "go", "golang", "rust",
		"c++", "c#", "ruby", "php", "kotlin", "swift", "scala", "r", "sql",
	}
	frameworks = []string{
		"react", "angular", "vue", "django", "flask", "fastapi", "spring",
		"spring boot", "express", "node.js", "nodejs", "rails", ".net",
		"laravel", "next.js", "svelte",
	}
	cloudAndInfra = []string{
		"aws", "azure", "gcp", "google cloud", "kubernetes", "docker",
		"terraform", "ansible", "jenkins", "ci/cd", "linux",
	}
	databases = []string{
		"postgresql", "postgres", "mysql", "mongodb", "redis", "elasticsearch",
		"cassandra", "dynamodb", "oracle", "sqlite", "kafka",
	}
	toolsAndPractices = []string{
		"git", "jira", "agile", "scrum", "rest", "graphql", "grpc",
		"microservices", "tdd", "unit testing",
	}
	softSkills = []string{
		"communication", "leadership", "teamwork", "problem solving",
		"mentoring", "stakeholder management",
	}
	certifications = []string{
		"aws certified", "pmp", "cka", "ckad", "ocp", "cissp",
	}
)

// skillVocabulary is the flattened, order-stable union of all families.
var skillVocabulary = buildVocabulary()

func buildVocabulary() []string {
	var all []string
	for _, family := range [][]string{
		programmingLanguages, frameworks, cloudAndInfra,
		databases, toolsAndPractices, softSkills, certifications,
	} {
		all = append(all, family...)
	}
	return all
}

// preferredWindow is the number of characters scanned on each side of a skill
// hit when deciding required vs preferred.
const preferredWindow = 100

var preferredMarkers = []string{"preferred", "nice"}

// ExtractSkills tokenizes the text against the curated vocabularies. A hit
// whose surrounding ±100-character window contains "preferred" or "nice" is
// classified as preferred, otherwise required. Results preserve vocabulary
// order and are deduplicated.
func ExtractSkills(text string) (required, preferred []string) {
	lower := strings.ToLower(text)
	seen := make(map[string]bool)

	for _, skill := range skillVocabulary {
		if seen[skill] {
			continue
		}
		idx := findSkill(lower, skill)
		if idx < 0 {
			continue
		}
		seen[skill] = true

		start := idx - preferredWindow
		if start < 0 {
			start = 0
		}
		end := idx + len(skill) + preferredWindow
		if end > len(lower) {
			end = len(lower)
		}
		window := lower[start:end]

		isPreferred := false
		for _, marker := range preferredMarkers {
			if strings.Contains(window, marker) {
				isPreferred = true
				break
			}
		}
		if isPreferred {
			preferred = append(preferred, skill)
		} else {
			required = append(required, skill)
		}
	}
	return required, preferred
}

// findSkill locates skill in text on word boundaries, returning -1 when
// absent. Symbol-bearing skills (c++, c#, .net, ci/cd) fall back to a plain
// substring search since \b does not apply cleanly.
func findSkill(lowerText, skill string) int {
	if regexp.QuoteMeta(skill) != skill {
		return strings.Index(lowerText, skill)
	}
	re, err := regexp.Compile(`\b` + regexp.QuoteMeta(skill) + `\b`)
	if err != nil {
		return strings.Index(lowerText, skill)
	}
	loc := re.FindStringIndex(lowerText)
	if loc == nil {
		return -1
	}
	return loc[0]
}
