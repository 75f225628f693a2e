// Package packets assembles application-ready artifact bundles for
// high-scoring (user, job) pairs: resume variant, cover letter, and custom
// answers.
package packets

import (
	"context"
	"fmt"
	"log"
	"strings"
	"text/template"
	"time"

	"github.com/google/uuid"

	"github.com/jonathan/jobpilot/internal/db"
	"github.com/jonathan/jobpilot/internal/llm"
	"github.com/jonathan/jobpilot/internal/types"
)

// coverLetterTemplate drives the generated letter. Top-3 matched skills are
// joined into MatchedSkills before execution.
var coverLetterTemplate = template.Must(template.New("cover").Parse(
	`Dear Hiring Team at {{.Company}},

I am writing to apply for the {{.Title}} position. My background in {{.MatchedSkills}} aligns closely with what you are looking for, and I am confident I can contribute from day one.

I would welcome the opportunity to discuss how my experience fits your team's needs.

Best regards,
{{.FirstName}} {{.LastName}}`))

// requiredAnswerKeys are the per-source questions that must be answered
// before a packet is submission-ready.
var requiredAnswerKeys = map[string][]string{
	"greenhouse": {"work_authorization"},
	"lever":      {"work_authorization"},
	"workday":    {"work_authorization", "notice_period"},
}

// Builder constructs PreparedJobs from stored scores.
type Builder struct {
	db  *db.DB
	llm llm.Client
}

// NewBuilder wires a builder. llmClient may be nil, which disables the
// AI customization notes.
func NewBuilder(database *db.DB, llmClient llm.Client) *Builder {
	return &Builder{db: database, llm: llmClient}
}

// BuildForUser builds and persists packets for the user's top-K scored jobs
// above minScore, skipping jobs already applied to. It returns the built
// packets best-score first.
func (b *Builder) BuildForUser(ctx context.Context, user *types.UserProfile, engineVersion string, topK int, minScore float64) ([]types.PreparedJob, error) {
	scores, err := b.db.ListTopScores(ctx, user.UserID, engineVersion, minScore, topK)
	if err != nil {
		return nil, fmt.Errorf("failed to list top scores: %w", err)
	}

	packets := make([]types.PreparedJob, 0, len(scores))
	for _, score := range scores {
		job, err := b.db.GetJobPosting(ctx, score.JobID)
		if err != nil {
			log.Printf("[packets] skipping job %s: %v", score.JobID, err)
			continue
		}
		packet := b.Build(user, job, &score)
		if err := b.db.SavePreparedJob(ctx, packet); err != nil {
			return nil, fmt.Errorf("failed to save packet for job %s: %w", job.ID, err)
		}
		packets = append(packets, *packet)
	}
	return packets, nil
}

// Build assembles one packet. It is deterministic except for the optional
// AI notes, which are additive.
func (b *Builder) Build(user *types.UserProfile, job *types.JobPosting, score *types.JobScore) *types.PreparedJob {
	packet := &types.PreparedJob{
		ID:        uuid.New(),
		UserID:    user.UserID,
		JobID:     job.ID,
		Priority:  priorityFor(score.Score),
		CreatedAt: time.Now().UTC(),
	}

	variant := SelectResumeVariant(user, job.SkillsRequired)
	if variant != nil {
		packet.ResumeVariantID = variant.ID
		packet.ResumeText = variant.Text
	} else {
		packet.ResumeText = user.ResumeText
	}

	matched := matchedSkills(user, job)
	letter, err := renderCoverLetter(user, job, matched)
	if err != nil {
		log.Printf("[packets] cover letter render failed for job %s: %v", job.ID, err)
	}
	packet.CoverLetterText = letter

	packet.CustomAnswers = map[string]string{}
	var missing []string
	for _, key := range requiredAnswerKeys[job.Source] {
		if v, ok := user.CustomAnswers[key]; ok && v != "" {
			packet.CustomAnswers[key] = v
		} else {
			missing = append(missing, key)
		}
	}

	switch {
	case packet.ResumeText == "":
		packet.NotReadyReason = "no resume text on profile"
	case packet.CoverLetterText == "":
		packet.NotReadyReason = "cover letter generation failed"
	case len(missing) > 0:
		packet.NotReadyReason = "missing required answers: " + strings.Join(missing, ", ")
	default:
		packet.PacketReady = true
	}

	if b.llm != nil && packet.PacketReady {
		packet.AINotes = b.customizationNotes(user, job, matched)
	}
	return packet
}

// SelectResumeVariant picks the variant whose tags best overlap the
// posting's required skills. Ties go to the earlier variant; zero overlap
// returns nil so the caller falls back to the base resume.
func SelectResumeVariant(user *types.UserProfile, skillsRequired []string) *types.ResumeVariant {
	required := make(map[string]struct{}, len(skillsRequired))
	for _, s := range skillsRequired {
		required[strings.ToLower(s)] = struct{}{}
	}

	var best *types.ResumeVariant
	bestOverlap := 0
	for i := range user.ResumeVariants {
		overlap := 0
		for _, tag := range user.ResumeVariants[i].Tags {
			if _, ok := required[strings.ToLower(tag)]; ok {
				overlap++
			}
		}
		if overlap > bestOverlap {
			bestOverlap = overlap
			best = &user.ResumeVariants[i]
		}
	}
	return best
}

// matchedSkills returns up to three of the user's skills that appear in the
// posting's required list, in the posting's order.
func matchedSkills(user *types.UserProfile, job *types.JobPosting) []string {
	have := make(map[string]struct{}, len(user.SkillsDetailed))
	for _, s := range user.SkillsDetailed {
		have[strings.ToLower(s.Name)] = struct{}{}
	}
	var matched []string
	for _, s := range job.SkillsRequired {
		if _, ok := have[strings.ToLower(s)]; ok {
			matched = append(matched, s)
			if len(matched) == 3 {
				break
			}
		}
	}
	return matched
}

func renderCoverLetter(user *types.UserProfile, job *types.JobPosting, matched []string) (string, error) {
	skills := strings.Join(matched, ", ")
	if skills == "" {
		skills = "software engineering"
	}
	var sb strings.Builder
	err := coverLetterTemplate.Execute(&sb, map[string]string{
		"Company":       job.Company,
		"Title":         job.Title,
		"MatchedSkills": skills,
		"FirstName":     user.FirstName,
		"LastName":      user.LastName,
	})
	if err != nil {
		return "", fmt.Errorf("failed to render cover letter: %w", err)
	}
	return sb.String(), nil
}

func priorityFor(score float64) types.PacketPriority {
	switch {
	case score >= 85:
		return types.PriorityHigh
	case score >= 70:
		return types.PriorityMedium
	default:
		return types.PriorityLow
	}
}

// customizationNotes asks the LLM for short tailoring suggestions. Failures
// leave the notes empty; the packet stays ready either way.
func (b *Builder) customizationNotes(user *types.UserProfile, job *types.JobPosting, matched []string) string {
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Second)
	defer cancel()

	prompt := fmt.Sprintf(
		"Suggest two short resume tailoring tips for a candidate applying to %q at %s. Candidate's matching skills: %s. Two bullet points, plain text.",
		job.Title, job.Company, strings.Join(matched, ", "))
	notes, err := b.llm.GenerateContent(ctx, prompt, llm.TierLite)
	if err != nil {
		log.Printf("[packets] customization notes failed for job %s: %v", job.ID, err)
		return ""
	}
	return notes
}
