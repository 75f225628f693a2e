package parser

import "regexp"

var (
	seniorTitleRe = regexp.MustCompile(`(?i)\b(senior|lead|principal|staff|architect)\b`)
	juniorTitleRe = regexp.MustCompile(`(?i)\b(junior|entry|graduate|fresher)\b`)
	yearsRe       = regexp.MustCompile(`(?i)(\d{1,2})\s*\+?\s*years?`)
)

// SeniorityScore computes a 0-10 seniority estimate: base 5, +2 for senior
// title markers, -2 for junior markers, then adjusted by the largest years
// figure mentioned (+2 for ≥8, +1 for ≥5, -1 for ≤2).
func SeniorityScore(title, description string) float64 {
	score := 5.0
	combined := title + " " + description

	if seniorTitleRe.MatchString(combined) {
		score += 2
	}
	if juniorTitleRe.MatchString(combined) {
		score -= 2
	}

	maxYears := -1
	for _, m := range yearsRe.FindAllStringSubmatch(combined, -1) {
		if y := atoiSafe(m[1]); y > maxYears {
			maxYears = y
		}
	}
	switch {
	case maxYears >= 8:
		score += 2
	case maxYears >= 5:
		score += 1
	case maxYears >= 0 && maxYears <= 2:
		score -= 1
	}

	if score < 0 {
		score = 0
	}
	if score > 10 {
		score = 10
	}
	return score
}

// ExperienceLevelFor maps a seniority score to the coarse level buckets.
// The untouched base of 5 carries no signal and maps to empty.
func ExperienceLevelFor(score float64) string {
	switch {
	case score == 5:
		return ""
	case score >= 7:
		return "senior"
	case score <= 3:
		return "entry"
	default:
		return "mid"
	}
}
