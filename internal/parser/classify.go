package parser

import "regexp"

// classRule pairs a compiled pattern with the label it assigns. Rules are
// evaluated in order; the first match wins.
type classRule struct {
	pattern *regexp.Regexp
	label   string
}

var jobTypeRules = []classRule{
	{regexp.MustCompile(`(?i)\bintern(ship)?\b`), "internship"},
	{regexp.MustCompile(`(?i)\b(contract|contractor|freelance)\b`), "contract"},
	{regexp.MustCompile(`(?i)\bpart[\s-]?time\b`), "part_time"},
	{regexp.MustCompile(`(?i)\bfull[\s-]?time\b`), "full_time"},
	{regexp.MustCompile(`(?i)\bpermanent\b`), "full_time"},
}

var employmentModeRules = []classRule{
	{regexp.MustCompile(`(?i)\bhybrid\b`), "hybrid"},
	{regexp.MustCompile(`(?i)\b(fully\s+)?remote\b`), "remote"},
	{regexp.MustCompile(`(?i)\bwork\s+from\s+home\b`), "remote"},
	{regexp.MustCompile(`(?i)\b(on[\s-]?site|in[\s-]?office)\b`), "onsite"},
}

var experienceLevelRules = []classRule{
	{regexp.MustCompile(`(?i)\b(principal|staff|architect)\b`), "principal"},
	{regexp.MustCompile(`(?i)\b(senior|sr\.?|lead)\b`), "senior"},
	{regexp.MustCompile(`(?i)\b(junior|jr\.?|entry[\s-]?level|graduate|fresher)\b`), "entry"},
	{regexp.MustCompile(`(?i)\bmid[\s-]?level\b`), "mid"},
	{regexp.MustCompile(`(?i)\b[3-7]\+?\s*years?\b`), "mid"},
}

var educationLevelRules = []classRule{
	{regexp.MustCompile(`(?i)\b(phd|doctorate)\b`), "doctorate"},
	{regexp.MustCompile(`(?i)\b(master'?s?|m\.?tech|mba|m\.?s\.?)\b`), "masters"},
	{regexp.MustCompile(`(?i)\b(bachelor'?s?|b\.?tech|b\.?e\.?|b\.?s\.?|undergraduate degree)\b`), "bachelors"},
	{regexp.MustCompile(`(?i)\bdiploma\b`), "diploma"},
}

func classify(text string, rules []classRule) string {
	for _, rule := range rules {
		if rule.pattern.MatchString(text) {
			return rule.label
		}
	}
	return ""
}

// ClassifyJobType returns full_time, part_time, contract or internship.
func ClassifyJobType(text string) string { return classify(text, jobTypeRules) }

// ClassifyEmploymentMode returns remote, hybrid or onsite.
func ClassifyEmploymentMode(text string) string { return classify(text, employmentModeRules) }

// ClassifyExperienceLevel returns entry, mid, senior or principal.
func ClassifyExperienceLevel(text string) string { return classify(text, experienceLevelRules) }

// ClassifyEducationLevel returns diploma, bachelors, masters or doctorate.
func ClassifyEducationLevel(text string) string { return classify(text, educationLevelRules) }

var experienceRangeRe = regexp.MustCompile(`(?i)(\d{1,2})\s*(?:-|to)\s*(\d{1,2})\s*\+?\s*years?`)
var experienceMinRe = regexp.MustCompile(`(?i)(\d{1,2})\s*\+?\s*years?`)

// ExtractExperienceRange pulls minimum and maximum years of experience from
// free text. Returns zeros when nothing matches.
func ExtractExperienceRange(text string) (min, max int) {
	if m := experienceRangeRe.FindStringSubmatch(text); m != nil {
		return atoiSafe(m[1]), atoiSafe(m[2])
	}
	if m := experienceMinRe.FindStringSubmatch(text); m != nil {
		return atoiSafe(m[1]), 0
	}
	return 0, 0
}

func atoiSafe(s string) int {
	n := 0
	for _, r := range s {
		if r < '0' || r > '9' {
			return n
		}
		n = n*10 + int(r-'0')
	}
	return n
}
