// Package matching computes deterministic (user, job) match scores and
// optionally enhances them with LLM-generated reasoning.
package matching

import (
	"strings"
	"time"

	"github.com/jonathan/jobpilot/internal/types"
)

// Component weights. They sum to 1.0; the weighted total is the score.
const (
	weightSkills     = 0.40
	weightRole       = 0.25
	weightLocation   = 0.15
	weightExperience = 0.10
	weightSalary     = 0.10
)

// neutralScore is used when a component has no signal on either side, so
// missing data never dominates the ranking in either direction.
const neutralScore = 50.0

// Engine scores users against postings. Score is pure for a fixed
// EngineVersion: identical inputs always produce identical output.
type Engine struct {
	Version string
}

// NewEngine creates an engine for the given version tag.
func NewEngine(version string) *Engine {
	return &Engine{Version: version}
}

// Score computes the deterministic match score for one (user, job) pair.
func (e *Engine) Score(user *types.UserProfile, job *types.JobPosting) *types.JobScore {
	components := map[string]float64{
		"skills":     scoreSkills(user, job),
		"role":       scoreRole(user, job),
		"location":   scoreLocation(user, job),
		"experience": scoreExperience(user, job),
		"salary":     scoreSalary(user, job),
	}

	total := components["skills"]*weightSkills +
		components["role"]*weightRole +
		components["location"]*weightLocation +
		components["experience"]*weightExperience +
		components["salary"]*weightSalary

	return &types.JobScore{
		UserID:          user.UserID,
		JobID:           job.ID,
		Score:           clamp(total),
		ComponentScores: components,
		ComputedAt:      time.Now().UTC(),
		EngineVersion:   e.Version,
	}
}

// scoreSkills measures overlap between the user's skills and the posting's
// required and preferred skills. Preferred skills carry half the weight of
// required ones.
func scoreSkills(user *types.UserProfile, job *types.JobPosting) float64 {
	required := job.SkillsRequired
	preferred := job.SkillsPreferred
	if len(required) == 0 && len(preferred) == 0 {
		return neutralScore
	}

	have := make(map[string]struct{}, len(user.SkillsDetailed))
	for _, s := range user.SkillsDetailed {
		have[strings.ToLower(s.Name)] = struct{}{}
	}

	var matched, total float64
	for _, s := range required {
		total++
		if _, ok := have[strings.ToLower(s)]; ok {
			matched++
		}
	}
	for _, s := range preferred {
		total += 0.5
		if _, ok := have[strings.ToLower(s)]; ok {
			matched += 0.5
		}
	}
	return clamp(matched / total * 100)
}

// scoreRole compares the posting title against the user's preferred and
// suited roles. A full containment match scores 100; otherwise token
// overlap is scored proportionally.
func scoreRole(user *types.UserProfile, job *types.JobPosting) float64 {
	roles := append(append([]string(nil), user.PreferredRoles...), user.SuitedRoles...)
	if len(roles) == 0 {
		return neutralScore
	}
	title := strings.ToLower(job.Title)

	best := 0.0
	for _, role := range roles {
		lower := strings.ToLower(strings.TrimSpace(role))
		if lower == "" {
			continue
		}
		if strings.Contains(title, lower) {
			return 100
		}
		tokens := strings.Fields(lower)
		hits := 0
		for _, tok := range tokens {
			if strings.Contains(title, tok) {
				hits++
			}
		}
		if len(tokens) > 0 {
			if s := float64(hits) / float64(len(tokens)) * 80; s > best {
				best = s
			}
		}
	}
	return clamp(best)
}

// scoreLocation checks the user's locations against the posting location.
// Remote postings match everyone.
func scoreLocation(user *types.UserProfile, job *types.JobPosting) float64 {
	jobLoc := strings.ToLower(job.Location)
	if job.EmploymentMode == "remote" || strings.Contains(jobLoc, "remote") {
		return 100
	}
	if len(user.Locations) == 0 {
		return neutralScore
	}
	for _, loc := range user.Locations {
		lower := strings.ToLower(strings.TrimSpace(loc))
		if lower == "" {
			continue
		}
		if strings.Contains(jobLoc, lower) || strings.Contains(lower, jobLoc) {
			return 100
		}
	}
	return 0
}

// scoreExperience compares the user's years against the posting's range.
func scoreExperience(user *types.UserProfile, job *types.JobPosting) float64 {
	if job.ExperienceMin == 0 && job.ExperienceMax == 0 {
		return neutralScore
	}
	years := user.ExperienceYears
	switch {
	case years >= job.ExperienceMin && (job.ExperienceMax == 0 || years <= job.ExperienceMax):
		return 100
	case years < job.ExperienceMin:
		// 25 points off per missing year.
		return clamp(100 - float64(job.ExperienceMin-years)*25)
	default:
		// Overqualification penalized gently.
		return clamp(100 - float64(years-job.ExperienceMax)*10)
	}
}

// scoreSalary compares the user's expectation against the posting range.
func scoreSalary(user *types.UserProfile, job *types.JobPosting) float64 {
	if user.SalaryExpectation == 0 || (job.Salary.Min == 0 && job.Salary.Max == 0) {
		return neutralScore
	}
	max := job.Salary.Max
	if max == 0 {
		max = job.Salary.Min
	}
	if user.SalaryExpectation <= max {
		return 100
	}
	// Expectation above range: score by how close the range comes.
	return clamp(max / user.SalaryExpectation * 100)
}

func clamp(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}
