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

// UpsertResult reports what the writer did with one posting.
type UpsertResult struct {
	ID      uuid.UUID
	Created bool // false means an existing row was refreshed
}

// UpsertJobPosting inserts a posting or refreshes the mutable fields of the
// existing row. Dedup key order: (source, external_id) when both are present,
// then the case-insensitive (title, company, location) fallback, which also
// catches the same posting arriving from two sources under different external
// ids. Identity fields are never mutated on rescrape. The earlier-scraped row
// wins a fallback-key collision; the later copy only refreshes the mutable
// fields.
func (db *DB) UpsertJobPosting(ctx context.Context, p *types.JobPosting) (*UpsertResult, error) {
	tx, err := db.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	var existingID uuid.UUID
	err = pgx.ErrNoRows
	if p.HasExternalIdentity() {
		err = tx.QueryRow(ctx,
			`SELECT id FROM job_postings WHERE source = $1 AND external_id = $2`,
			p.Source, p.ExternalID,
		).Scan(&existingID)
	}
	if err == pgx.ErrNoRows {
		err = tx.QueryRow(ctx,
			`SELECT id FROM job_postings
			 WHERE LOWER(title) = LOWER($1) AND LOWER(company) = LOWER($2) AND LOWER(location) = LOWER($3)
			 ORDER BY scraped_at ASC LIMIT 1`,
			p.Title, p.Company, p.Location,
		).Scan(&existingID)
	}

	switch {
	case err == pgx.ErrNoRows:
		id := uuid.New()
		_, err = tx.Exec(ctx,
			`INSERT INTO job_postings (
				id, source, external_id, title, company, company_logo, location,
				url, apply_url, source_type, application_mode, posted_at, scraped_at,
				job_type, employment_mode, description, skills_required, skills_preferred,
				experience_level, experience_min, experience_max,
				salary_min, salary_max, salary_currency, compensation_type,
				benefits, industry, keywords, seniority_score,
				raw_payload, is_active, quality_score)
			 VALUES ($1,$2,NULLIF($3,''),$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18,$19,$20,$21,$22,$23,$24,$25,$26,$27,$28,$29,$30,true,$31)`,
			id, p.Source, p.ExternalID, p.Title, p.Company, p.CompanyLogo, p.Location,
			p.URL, p.ApplyURL, p.SourceType, p.ApplicationMode, p.PostedAt, p.ScrapedAt,
			p.JobType, p.EmploymentMode, p.Description, p.SkillsRequired, p.SkillsPreferred,
			p.ExperienceLevel, p.ExperienceMin, p.ExperienceMax,
			p.Salary.Min, p.Salary.Max, p.Salary.Currency, p.Salary.CompensationType,
			p.Benefits, p.Industry, p.Keywords, p.SeniorityScore, p.RawPayload, p.QualityScore,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to insert job posting: %w", err)
		}
		if err := tx.Commit(ctx); err != nil {
			return nil, fmt.Errorf("failed to commit insert: %w", err)
		}
		return &UpsertResult{ID: id, Created: true}, nil

	case err != nil:
		return nil, fmt.Errorf("failed to check for existing posting: %w", err)
	}

	// Rescrape: refresh mutable fields only, never identity.
	_, err = tx.Exec(ctx,
		`UPDATE job_postings SET
			scraped_at = $2, quality_score = $3, description = $4,
			skills_required = $5, skills_preferred = $6, benefits = $7,
			salary_min = $8, salary_max = $9, salary_currency = $10, compensation_type = $11,
			job_type = $12, employment_mode = $13, experience_level = $14,
			apply_url = $15, company_logo = $16, keywords = $17, seniority_score = $18,
			is_active = true, deactivated_at = NULL
		 WHERE id = $1`,
		existingID, p.ScrapedAt, p.QualityScore, p.Description,
		p.SkillsRequired, p.SkillsPreferred, p.Benefits,
		p.Salary.Min, p.Salary.Max, p.Salary.Currency, p.Salary.CompensationType,
		p.JobType, p.EmploymentMode, p.ExperienceLevel,
		p.ApplyURL, p.CompanyLogo, p.Keywords, p.SeniorityScore,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to refresh job posting: %w", err)
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit refresh: %w", err)
	}
	return &UpsertResult{ID: existingID, Created: false}, nil
}

const jobPostingColumns = `id, source, COALESCE(external_id, ''), title, company,
	COALESCE(company_logo, ''), location, url, apply_url, source_type, application_mode,
	posted_at, scraped_at, COALESCE(job_type, ''), COALESCE(employment_mode, ''),
	description, skills_required, skills_preferred, COALESCE(experience_level, ''),
	COALESCE(experience_min, 0), COALESCE(experience_max, 0),
	COALESCE(salary_min, 0), COALESCE(salary_max, 0), COALESCE(salary_currency, ''),
	COALESCE(compensation_type, ''), benefits, COALESCE(industry, ''),
	keywords, COALESCE(seniority_score, 0),
	is_active, deactivated_at, quality_score`

func scanJobPosting(row pgx.Row) (*types.JobPosting, error) {
	var p types.JobPosting
	err := row.Scan(
		&p.ID, &p.Source, &p.ExternalID, &p.Title, &p.Company,
		&p.CompanyLogo, &p.Location, &p.URL, &p.ApplyURL, &p.SourceType, &p.ApplicationMode,
		&p.PostedAt, &p.ScrapedAt, &p.JobType, &p.EmploymentMode,
		&p.Description, &p.SkillsRequired, &p.SkillsPreferred, &p.ExperienceLevel,
		&p.ExperienceMin, &p.ExperienceMax,
		&p.Salary.Min, &p.Salary.Max, &p.Salary.Currency,
		&p.Salary.CompensationType, &p.Benefits, &p.Industry,
		&p.Keywords, &p.SeniorityScore,
		&p.IsActive, &p.DeactivatedAt, &p.QualityScore,
	)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// GetJobPosting retrieves a posting by ID. Returns nil when not found.
func (db *DB) GetJobPosting(ctx context.Context, id uuid.UUID) (*types.JobPosting, error) {
	p, err := scanJobPosting(db.pool.QueryRow(ctx,
		`SELECT `+jobPostingColumns+` FROM job_postings WHERE id = $1`, id))
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get job posting: %w", err)
	}
	return p, nil
}

// JobPostingFilters holds optional filters for listing postings.
type JobPostingFilters struct {
	Source     string
	Location   string
	ActiveOnly bool
	MinQuality float64
	Limit      int
}

// ListJobPostings retrieves postings with optional filters, newest first.
func (db *DB) ListJobPostings(ctx context.Context, filters JobPostingFilters) ([]types.JobPosting, error) {
	if filters.Limit == 0 {
		filters.Limit = 50
	}

	query := `SELECT ` + jobPostingColumns + ` FROM job_postings WHERE 1=1`
	args := []any{}
	argNum := 1

	if filters.Source != "" {
		query += fmt.Sprintf(" AND source = $%d", argNum)
		args = append(args, filters.Source)
		argNum++
	}
	if filters.Location != "" {
		query += fmt.Sprintf(" AND location ILIKE $%d", argNum)
		args = append(args, "%"+filters.Location+"%")
		argNum++
	}
	if filters.ActiveOnly {
		query += " AND is_active = true"
	}
	if filters.MinQuality > 0 {
		query += fmt.Sprintf(" AND quality_score >= $%d", argNum)
		args = append(args, filters.MinQuality)
		argNum++
	}

	query += fmt.Sprintf(" ORDER BY scraped_at DESC LIMIT $%d", argNum)
	args = append(args, filters.Limit)

	rows, err := db.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list job postings: %w", err)
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

// DeactivateStalePostings marks active postings not seen for the given number
// of days as inactive. Postings with applications are never deleted, only
// deactivated. Returns the number of rows affected.
func (db *DB) DeactivateStalePostings(ctx context.Context, olderThanDays int) (int64, error) {
	cutoff := time.Now().AddDate(0, 0, -olderThanDays)
	tag, err := db.pool.Exec(ctx,
		`UPDATE job_postings SET is_active = false, deactivated_at = NOW()
		 WHERE is_active = true AND scraped_at < $1`,
		cutoff,
	)
	if err != nil {
		return 0, fmt.Errorf("failed to deactivate stale postings: %w", err)
	}
	return tag.RowsAffected(), nil
}

// RawPayloadFor returns the stored raw payload for a posting as JSON.
func (db *DB) RawPayloadFor(ctx context.Context, id uuid.UUID) (json.RawMessage, error) {
	var payload []byte
	err := db.pool.QueryRow(ctx,
		`SELECT raw_payload FROM job_postings WHERE id = $1`, id,
	).Scan(&payload)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get raw payload: %w", err)
	}
	return payload, nil
}
