package types

// SkillDetail is a single skill with self-reported proficiency.
type SkillDetail struct {
	Name       string `json:"name"`
	Years      int    `json:"years,omitempty"`
	Level      string `json:"level,omitempty"` // beginner, intermediate, advanced
}

// ResumeVariant is one stored resume flavor, tagged for selection.
type ResumeVariant struct {
	ID   string   `json:"id"`
	Name string   `json:"name"`
	Tags []string `json:"tags"`
	Text string   `json:"text"`
}

// UserProfile is the matching input. The matching engine treats it as
// immutable for the duration of a scoring call.
type UserProfile struct {
	UserID             int64           `json:"user_id"`
	Email              string          `json:"email"`
	FirstName          string          `json:"first_name"`
	LastName           string          `json:"last_name"`
	Phone              string          `json:"phone,omitempty"`
	SkillsDetailed     []SkillDetail   `json:"skills_detailed,omitempty"`
	PreferredRoles     []string        `json:"preferred_roles,omitempty"`
	SuitedRoles        []string        `json:"suited_roles_detailed,omitempty"`
	ExperienceYears    int             `json:"experience_years"`
	Locations          []string        `json:"locations,omitempty"`
	SalaryExpectation  float64         `json:"salary_expectation,omitempty"`
	ResumeVariants     []ResumeVariant `json:"resume_variants,omitempty"`
	ResumeText         string          `json:"resume_text,omitempty"`
	CustomAnswers      map[string]string `json:"custom_answers,omitempty"`

	AutomationEnabled     bool    `json:"automation_enabled"`
	MinScoreThreshold     float64 `json:"min_score_threshold"`
	DailyApplicationLimit int     `json:"daily_application_limit"`
	ApplyOnWeekends       bool    `json:"apply_on_weekends"`
	PreferredStrategy     string  `json:"preferred_strategy,omitempty"`
	EmailMonitoring       bool    `json:"email_monitoring_enabled"`
}

// Skills returns the flat skill names from SkillsDetailed.
func (u *UserProfile) Skills() []string {
	out := make([]string, 0, len(u.SkillsDetailed))
	for _, s := range u.SkillsDetailed {
		out = append(out, s.Name)
	}
	return out
}

// ParsedResume holds the fields extracted from an uploaded resume blob.
type ParsedResume struct {
	Name        string   `json:"name"`
	Email       string   `json:"email"`
	Phone       string   `json:"phone,omitempty"`
	Skills      []string `json:"skills,omitempty"`
	SuitedRoles []string `json:"suited_roles,omitempty"`
	Summary     string   `json:"summary,omitempty"`
}
