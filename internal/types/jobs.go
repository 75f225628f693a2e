// Package types defines the canonical domain types shared across the pipeline.
package types

import (
	"time"

	"github.com/google/uuid"
)

// SourceType distinguishes how a posting entered the system.
type SourceType string

const (
	SourceTypeScraped   SourceType = "scraped"
	SourceTypeRecruiter SourceType = "recruiter"
)

// ApplicationMode describes how a candidate applies to a posting.
type ApplicationMode string

const (
	ApplicationModeRedirect ApplicationMode = "redirect"
	ApplicationModeQuick    ApplicationMode = "quick"
)

// RawJob is the unnormalized record produced by a source adapter.
// Adapters do not normalize; all substantive normalization happens in the parser.
type RawJob struct {
	ExternalID  string     `json:"external_id,omitempty"`
	Title       string     `json:"title"`
	Company     string     `json:"company"`
	CompanyLogo string     `json:"company_logo,omitempty"`
	Location    string     `json:"location"`
	URL         string     `json:"url"`
	ApplyURL    string     `json:"apply_url,omitempty"`
	Description string     `json:"description"`
	HTML        string     `json:"-"`
	Source      string     `json:"source"`
	PostedAt    *time.Time `json:"posted_at,omitempty"`
	RawPayload  []byte     `json:"-"`
}

// Salary holds the extracted compensation range.
type Salary struct {
	Min              float64 `json:"min,omitempty"`
	Max              float64 `json:"max,omitempty"`
	Currency         string  `json:"currency,omitempty"`
	CompensationType string  `json:"compensation_type,omitempty"` // yearly, hourly
}

// JobPosting is the canonical posting record.
// Identity is (Source, ExternalID) when both are present; dedup otherwise
// falls back to case-insensitive (Title, Company, Location).
type JobPosting struct {
	ID              uuid.UUID       `json:"id"`
	Source          string          `json:"source"`
	ExternalID      string          `json:"external_id,omitempty"`
	Title           string          `json:"title"`
	Company         string          `json:"company"`
	CompanyLogo     string          `json:"company_logo,omitempty"`
	Location        string          `json:"location"`
	URL             string          `json:"url"`
	ApplyURL        string          `json:"apply_url"`
	SourceType      SourceType      `json:"source_type"`
	ApplicationMode ApplicationMode `json:"application_mode"`
	PostedAt        *time.Time      `json:"posted_at,omitempty"`
	ScrapedAt       time.Time       `json:"scraped_at"`

	JobType         string   `json:"job_type,omitempty"`         // full_time, part_time, contract, internship
	EmploymentMode  string   `json:"employment_mode,omitempty"`  // remote, hybrid, onsite
	Description     string   `json:"description"`
	SkillsRequired  []string `json:"skills_required,omitempty"`
	SkillsPreferred []string `json:"skills_preferred,omitempty"`
	ExperienceLevel string   `json:"experience_level,omitempty"`
	ExperienceMin   int      `json:"experience_min,omitempty"`
	ExperienceMax   int      `json:"experience_max,omitempty"`
	Salary          Salary   `json:"salary"`
	Benefits        []string `json:"benefits,omitempty"`
	Industry        string   `json:"industry,omitempty"`
	Keywords        []string `json:"keywords,omitempty"`
	SeniorityScore  float64  `json:"seniority_score,omitempty"` // 0-10

	RawPayload    []byte     `json:"-"`
	IsActive      bool       `json:"is_active"`
	DeactivatedAt *time.Time `json:"deactivated_at,omitempty"`
	QualityScore  float64    `json:"quality_score"` // parse confidence, 0-100
}

// HasExternalIdentity reports whether the posting carries a usable
// (source, external_id) dedup key.
func (p *JobPosting) HasExternalIdentity() bool {
	return p.Source != "" && p.ExternalID != ""
}

// SubmitURL returns the URL a submission should target: apply_url when set,
// otherwise the posting URL.
func (p *JobPosting) SubmitURL() string {
	if p.ApplyURL != "" {
		return p.ApplyURL
	}
	return p.URL
}
