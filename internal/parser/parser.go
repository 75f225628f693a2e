package parser

import (
	"time"

	"github.com/jonathan/jobpilot/internal/types"
)

// Parser turns RawJobs into canonical JobPostings. It is deterministic given
// identical input and safe for concurrent use.
type Parser struct{}

// New creates a Parser.
func New() *Parser {
	return &Parser{}
}

// Parse normalizes a RawJob into a JobPosting. Validation failures (missing
// title or company) return nil; the caller counts them as parse failures.
func (p *Parser) Parse(raw *types.RawJob) *types.JobPosting {
	if raw.Title == "" || raw.Company == "" {
		return nil
	}

	text := raw.Description
	posting := &types.JobPosting{
		Source:          raw.Source,
		ExternalID:      raw.ExternalID,
		Title:           raw.Title,
		Company:         raw.Company,
		CompanyLogo:     raw.CompanyLogo,
		Location:        raw.Location,
		Description:     text,
		SourceType:      types.SourceTypeScraped,
		ApplicationMode: types.ApplicationModeRedirect,
		PostedAt:        raw.PostedAt,
		ScrapedAt:       time.Now().UTC(),
		RawPayload:      raw.RawPayload,
		IsActive:        true,
	}

	// 1. URL canonicalization; apply_url defaults to url.
	posting.URL = CanonicalizeURL(raw.URL, raw.Company, raw.Title)
	if raw.ApplyURL != "" {
		posting.ApplyURL = CanonicalizeURL(raw.ApplyURL, raw.Company, raw.Title)
	} else {
		posting.ApplyURL = posting.URL
	}

	// 2. Classification, first match wins.
	combined := raw.Title + "\n" + text
	posting.JobType = ClassifyJobType(combined)
	posting.EmploymentMode = ClassifyEmploymentMode(combined)
	posting.ExperienceLevel = ClassifyExperienceLevel(combined)
	posting.ExperienceMin, posting.ExperienceMax = ExtractExperienceRange(text)

	// 3. Section identification.
	sections := IdentifySections(text)

	// 4. Skills, preferred vs required by surrounding window.
	posting.SkillsRequired, posting.SkillsPreferred = ExtractSkills(text)

	// 5. Salary.
	posting.Salary = ExtractSalary(text)

	posting.Benefits = ExtractBenefits(sections, text)

	// 6. Seniority estimate; fills the level when classification found none.
	posting.SeniorityScore = SeniorityScore(raw.Title, text)
	if posting.ExperienceLevel == "" {
		posting.ExperienceLevel = ExperienceLevelFor(posting.SeniorityScore)
	}

	// 7. Keyword extraction for search.
	posting.Keywords = ExtractKeywords(text)

	// ATS sources support the quick application mode.
	switch raw.Source {
	case "greenhouse", "lever", "workday":
		posting.ApplicationMode = types.ApplicationModeQuick
	}

	// 8. Parse confidence becomes the posting quality score.
	posting.QualityScore = parseConfidence(posting)

	return posting
}

// totalTrackedFields is the denominator for parse confidence.
const totalTrackedFields = 30

// criticalFieldBonus is the per-field contribution of the four critical
// fields (title, company, description, skills_required), worth 20% combined.
const criticalFieldBonus = 5.0

// parseConfidence scores how completely a posting was extracted:
// (filled / 30) * 100 plus a weighted bonus for the critical fields,
// clamped to 100.
func parseConfidence(p *types.JobPosting) float64 {
	filled := 0
	for _, ok := range []bool{
		p.Source != "", p.ExternalID != "", p.Title != "", p.Company != "",
		p.CompanyLogo != "", p.Location != "", p.URL != "", p.ApplyURL != "",
		p.SourceType != "", p.ApplicationMode != "", p.PostedAt != nil,
		!p.ScrapedAt.IsZero(), p.JobType != "", p.EmploymentMode != "",
		p.Description != "", len(p.SkillsRequired) > 0, len(p.SkillsPreferred) > 0,
		p.ExperienceLevel != "", p.ExperienceMin > 0, p.ExperienceMax > 0,
		p.Salary.Min > 0, p.Salary.Max > 0, p.Salary.Currency != "",
		p.Salary.CompensationType != "", len(p.Benefits) > 0, p.Industry != "",
		len(p.RawPayload) > 0, len(p.Keywords) > 0, p.SeniorityScore > 0,
	} {
		if ok {
			filled++
		}
	}

	score := float64(filled) / totalTrackedFields * 100

	for _, critical := range []bool{
		p.Title != "", p.Company != "", p.Description != "", len(p.SkillsRequired) > 0,
	} {
		if critical {
			score += criticalFieldBonus
		}
	}

	if score > 100 {
		score = 100
	}
	return score
}
