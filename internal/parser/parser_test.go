package parser

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/jobpilot/internal/types"
)

func TestParse_MissingTitleOrCompany(t *testing.T) {
	p := New()

	assert.Nil(t, p.Parse(&types.RawJob{Source: "indeed", Company: "Acme"}))
	assert.Nil(t, p.Parse(&types.RawJob{Source: "indeed", Title: "Engineer"}))
}

func TestParse_FullPosting(t *testing.T) {
	p := New()
	raw := &types.RawJob{
		Source:      "greenhouse",
		ExternalID:  "gh-123",
		Title:       "Senior Backend Engineer",
		Company:     "Acme",
		Location:    "Bangalore, India",
		URL:         "https://boards.greenhouse.io/acme/jobs/123",
		Description: "We need a senior engineer with deep Python and PostgreSQL experience building distributed services, 5-8 years experience required. Salary $120,000 - $150,000. Full-time, hybrid role. Kubernetes preferred.",
	}

	posting := p.Parse(raw)
	require.NotNil(t, posting)

	assert.Equal(t, "greenhouse", posting.Source)
	assert.Equal(t, types.ApplicationModeQuick, posting.ApplicationMode)
	assert.Equal(t, "full_time", posting.JobType)
	assert.Equal(t, "hybrid", posting.EmploymentMode)
	assert.Equal(t, "senior", posting.ExperienceLevel)
	assert.Equal(t, 5, posting.ExperienceMin)
	assert.Equal(t, 8, posting.ExperienceMax)
	assert.Contains(t, posting.SkillsRequired, "python")
	assert.Contains(t, posting.SkillsPreferred, "kubernetes")
	assert.Equal(t, 120000.0, posting.Salary.Min)
	assert.Equal(t, 150000.0, posting.Salary.Max)
	assert.True(t, posting.IsActive)
	assert.Greater(t, posting.QualityScore, 50.0)
	assert.Greater(t, posting.SeniorityScore, 5.0)
	assert.Contains(t, posting.Keywords, "python")
	assert.LessOrEqual(t, len(posting.Keywords), 20)
}

func TestParse_SeniorityFillsExperienceLevel(t *testing.T) {
	p := New()

	posting := p.Parse(&types.RawJob{
		Source:      "indeed",
		Title:       "Backend Engineer",
		Company:     "Acme",
		Description: "10 years of building payments infrastructure.",
	})
	require.NotNil(t, posting)
	assert.Equal(t, "senior", posting.ExperienceLevel)
	assert.Equal(t, 7.0, posting.SeniorityScore)

	// No seniority signal leaves the level empty.
	posting = p.Parse(&types.RawJob{
		Source:      "indeed",
		Title:       "Engineer",
		Company:     "Acme",
		Description: "Ship product.",
	})
	require.NotNil(t, posting)
	assert.Empty(t, posting.ExperienceLevel)
}

func TestParse_ScrapedSourceGetsRedirectMode(t *testing.T) {
	p := New()
	posting := p.Parse(&types.RawJob{
		Source:  "indeed",
		Title:   "Engineer",
		Company: "Acme",
	})
	require.NotNil(t, posting)
	assert.Equal(t, types.ApplicationModeRedirect, posting.ApplicationMode)
}

func TestParse_ApplyURLDefaultsToURL(t *testing.T) {
	p := New()
	posting := p.Parse(&types.RawJob{
		Source:  "indeed",
		Title:   "Engineer",
		Company: "Acme",
		URL:     "https://example.com/jobs/1",
	})
	require.NotNil(t, posting)
	assert.Equal(t, posting.URL, posting.ApplyURL)
}

func TestParse_Deterministic(t *testing.T) {
	p := New()
	raw := &types.RawJob{
		Source:      "lever",
		Title:       "Data Engineer",
		Company:     "Acme",
		Description: "Python, SQL and Kafka required. Airflow is nice to have.",
	}

	a := p.Parse(raw)
	b := p.Parse(raw)
	require.NotNil(t, a)
	require.NotNil(t, b)

	assert.Equal(t, a.SkillsRequired, b.SkillsRequired)
	assert.Equal(t, a.SkillsPreferred, b.SkillsPreferred)
	assert.Equal(t, a.Keywords, b.Keywords)
	assert.Equal(t, a.QualityScore, b.QualityScore)
}

func TestCanonicalizeURL(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"already canonical", "https://example.com/jobs/1", "https://example.com/jobs/1"},
		{"missing scheme", "example.com/jobs/1", "https://example.com/jobs/1"},
		{
			"dead careers host rewritten to search",
			"https://careers.amazonindia.com/jobs/1",
			"https://www.google.com/search?q=Acme+Engineer+jobs",
		},
		{"empty becomes search", "", "https://www.google.com/search?q=Acme+Engineer+jobs"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, CanonicalizeURL(tt.in, "Acme", "Engineer"))
		})
	}
}
