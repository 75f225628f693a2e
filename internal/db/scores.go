package db

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/jonathan/jobpilot/internal/types"
)

// SaveJobScore stores a match score. At most one row exists per
// (user, job, engine_version); recomputation replaces the previous row.
func (db *DB) SaveJobScore(ctx context.Context, score *types.JobScore) error {
	componentsJSON, err := json.Marshal(score.ComponentScores)
	if err != nil {
		return fmt.Errorf("failed to marshal component scores: %w", err)
	}

	_, err = db.pool.Exec(ctx,
		`INSERT INTO job_scores (user_id, job_id, engine_version, score, component_scores, reasoning, computed_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)
		 ON CONFLICT (user_id, job_id, engine_version)
		 DO UPDATE SET score = $4, component_scores = $5, reasoning = $6, computed_at = $7`,
		score.UserID, score.JobID, score.EngineVersion, score.Score,
		componentsJSON, score.Reasoning, score.ComputedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to save job score: %w", err)
	}
	return nil
}

// UpdateScoreReasoning attaches AI reasoning to an existing score. The
// numeric score is left untouched; enhancement can never invalidate it.
func (db *DB) UpdateScoreReasoning(ctx context.Context, userID int64, jobID uuid.UUID, engineVersion, reasoning string) error {
	_, err := db.pool.Exec(ctx,
		`UPDATE job_scores SET reasoning = $4
		 WHERE user_id = $1 AND job_id = $2 AND engine_version = $3`,
		userID, jobID, engineVersion, reasoning,
	)
	if err != nil {
		return fmt.Errorf("failed to update score reasoning: %w", err)
	}
	return nil
}

func scanJobScore(row pgx.Row) (*types.JobScore, error) {
	var s types.JobScore
	var componentsJSON []byte
	err := row.Scan(&s.UserID, &s.JobID, &s.EngineVersion, &s.Score, &componentsJSON, &s.Reasoning, &s.ComputedAt)
	if err != nil {
		return nil, err
	}
	if len(componentsJSON) > 0 {
		_ = json.Unmarshal(componentsJSON, &s.ComponentScores)
	}
	return &s, nil
}

// GetJobScore retrieves the score for (user, job, engine_version).
func (db *DB) GetJobScore(ctx context.Context, userID int64, jobID uuid.UUID, engineVersion string) (*types.JobScore, error) {
	s, err := scanJobScore(db.pool.QueryRow(ctx,
		`SELECT user_id, job_id, engine_version, score, component_scores, COALESCE(reasoning, ''), computed_at
		 FROM job_scores WHERE user_id = $1 AND job_id = $2 AND engine_version = $3`,
		userID, jobID, engineVersion))
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get job score: %w", err)
	}
	return s, nil
}

// ListTopScores retrieves a user's scores above minScore for the current
// engine version, highest first. Postings already applied to are excluded.
func (db *DB) ListTopScores(ctx context.Context, userID int64, engineVersion string, minScore float64, limit int) ([]types.JobScore, error) {
	if limit == 0 {
		limit = 50
	}
	rows, err := db.pool.Query(ctx,
		`SELECT s.user_id, s.job_id, s.engine_version, s.score, s.component_scores, COALESCE(s.reasoning, ''), s.computed_at
		 FROM job_scores s
		 JOIN job_postings p ON p.id = s.job_id AND p.is_active = true
		 WHERE s.user_id = $1 AND s.engine_version = $2 AND s.score >= $3
		   AND NOT EXISTS (SELECT 1 FROM applications a WHERE a.user_id = s.user_id AND a.job_id = s.job_id)
		 ORDER BY s.score DESC, p.quality_score DESC, p.posted_at DESC NULLS LAST
		 LIMIT $4`,
		userID, engineVersion, minScore, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list top scores: %w", err)
	}
	defer rows.Close()

	var scores []types.JobScore
	for rows.Next() {
		s, err := scanJobScore(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan job score: %w", err)
		}
		scores = append(scores, *s)
	}
	return scores, rows.Err()
}

// StaleScoreCutoff bounds how old a score may be before the orchestrator
// recomputes it.
const StaleScoreCutoff = 24 * time.Hour

// ListUnscoredJobs returns active postings with no fresh score for the user.
func (db *DB) ListUnscoredJobs(ctx context.Context, userID int64, engineVersion string, limit int) ([]types.JobPosting, error) {
	if limit == 0 {
		limit = 200
	}
	cutoff := time.Now().Add(-StaleScoreCutoff)
	rows, err := db.pool.Query(ctx,
		`SELECT `+jobPostingColumns+` FROM job_postings p
		 WHERE p.is_active = true
		   AND NOT EXISTS (
			SELECT 1 FROM job_scores s
			WHERE s.job_id = p.id AND s.user_id = $1 AND s.engine_version = $2 AND s.computed_at >= $3)
		 ORDER BY p.scraped_at DESC LIMIT $4`,
		userID, engineVersion, cutoff, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list unscored jobs: %w", err)
	}
	defer rows.Close()

	var postings []types.JobPosting
	for rows.Next() {
		p, err := scanJobPosting(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan job posting: %w", err)
		}
		postings = append(postings, *p)
	}
	return postings, rows.Err()
}
