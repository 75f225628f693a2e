package matching

import (
	"context"
	"fmt"
	"log"
	"sort"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/jonathan/jobpilot/internal/db"
	"github.com/jonathan/jobpilot/internal/llm"
	"github.com/jonathan/jobpilot/internal/types"
)

// defaultScoreWorkers bounds the parallel scoring pool.
const defaultScoreWorkers = 8

// enhanceTopN limits reasoning enhancement to the best-scoring jobs so a
// bulk run does not fan out into hundreds of API calls.
const enhanceTopN = 10

// Service wraps the engine with persistence and the optional async
// reasoning enhancer.
type Service struct {
	db      *db.DB
	engine  *Engine
	llm     llm.Client
	workers int
}

// NewService wires a matching service. llmClient may be nil, which disables
// reasoning enhancement.
func NewService(database *db.DB, engine *Engine, llmClient llm.Client) *Service {
	return &Service{
		db:      database,
		engine:  engine,
		llm:     llmClient,
		workers: defaultScoreWorkers,
	}
}

// Engine exposes the underlying deterministic engine.
func (s *Service) Engine() *Engine { return s.engine }

// ScoreJobs computes and persists scores for every job, in parallel with a
// bounded pool, and returns them sorted best first. Reasoning enhancement
// runs in the background after the deterministic scores are stored; its
// outcome never changes a stored score.
func (s *Service) ScoreJobs(ctx context.Context, user *types.UserProfile, jobs []types.JobPosting) ([]types.JobScore, error) {
	if len(jobs) == 0 {
		return nil, nil
	}

	scores := make([]types.JobScore, len(jobs))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.workers)
	for i := range jobs {
		g.Go(func() error {
			score := s.engine.Score(user, &jobs[i])
			if err := s.db.SaveJobScore(gctx, score); err != nil {
				return fmt.Errorf("failed to save score for job %s: %w", jobs[i].ID, err)
			}
			scores[i] = *score
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	sortScores(scores, jobs)

	if s.llm != nil {
		n := min(enhanceTopN, len(scores))
		enhanceScores := make([]types.JobScore, n)
		copy(enhanceScores, scores[:n])
		go s.enhance(context.WithoutCancel(ctx), user, enhanceScores, jobs)
	}
	return scores, nil
}

// RefreshUserScores scores every active posting the user has no current
// score for.
func (s *Service) RefreshUserScores(ctx context.Context, user *types.UserProfile, limit int) ([]types.JobScore, error) {
	jobs, err := s.db.ListUnscoredJobs(ctx, user.UserID, s.engine.Version, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list unscored jobs: %w", err)
	}
	return s.ScoreJobs(ctx, user, jobs)
}

// sortScores orders best first: score desc, then posting quality desc, then
// newer posted_at, then job id for a stable total order.
func sortScores(scores []types.JobScore, jobs []types.JobPosting) {
	byID := make(map[string]*types.JobPosting, len(jobs))
	for i := range jobs {
		byID[jobs[i].ID.String()] = &jobs[i]
	}
	sort.Slice(scores, func(i, j int) bool {
		if scores[i].Score != scores[j].Score {
			return scores[i].Score > scores[j].Score
		}
		ji, jj := byID[scores[i].JobID.String()], byID[scores[j].JobID.String()]
		if ji != nil && jj != nil {
			if ji.QualityScore != jj.QualityScore {
				return ji.QualityScore > jj.QualityScore
			}
			if ti, tj := postedAtOrZero(ji), postedAtOrZero(jj); !ti.Equal(tj) {
				return ti.After(tj)
			}
		}
		return scores[i].JobID.String() < scores[j].JobID.String()
	})
}

func postedAtOrZero(p *types.JobPosting) time.Time {
	if p.PostedAt != nil {
		return *p.PostedAt
	}
	return time.Time{}
}

// enhance writes LLM reasoning onto already-stored scores. Failures are
// logged and swallowed.
func (s *Service) enhance(ctx context.Context, user *types.UserProfile, scores []types.JobScore, jobs []types.JobPosting) {
	byID := make(map[string]*types.JobPosting, len(jobs))
	for i := range jobs {
		byID[jobs[i].ID.String()] = &jobs[i]
	}
	for _, score := range scores {
		job := byID[score.JobID.String()]
		if job == nil {
			continue
		}
		callCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
		reasoning, err := s.llm.GenerateContent(callCtx, reasoningPrompt(user, job, &score), llm.TierStandard)
		cancel()
		if err != nil {
			log.Printf("[matching] reasoning enhancement failed for job %s: %v", score.JobID, err)
			continue
		}
		if err := s.db.UpdateScoreReasoning(ctx, score.UserID, score.JobID, score.EngineVersion, reasoning); err != nil {
			log.Printf("[matching] failed to store reasoning for job %s: %v", score.JobID, err)
		}
	}
}

func reasoningPrompt(user *types.UserProfile, job *types.JobPosting, score *types.JobScore) string {
	var sb strings.Builder
	sb.WriteString("You are a career advisor. In 2-3 sentences, explain why this job matches the candidate.\n\n")
	fmt.Fprintf(&sb, "Job: %s at %s (%s)\n", job.Title, job.Company, job.Location)
	fmt.Fprintf(&sb, "Required skills: %s\n", strings.Join(job.SkillsRequired, ", "))
	fmt.Fprintf(&sb, "Candidate skills: %s\n", strings.Join(user.Skills(), ", "))
	fmt.Fprintf(&sb, "Candidate experience: %d years\n", user.ExperienceYears)
	fmt.Fprintf(&sb, "Computed match score: %.0f/100\n", score.Score)
	sb.WriteString("\nDo not mention the numeric score. Plain text only.")
	return sb.String()
}
