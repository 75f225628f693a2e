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

// ErrDuplicateApplication is returned when an application already exists for
// the (user, job) pair. Callers treat this as a non-error idempotency hit.
var ErrDuplicateApplication = fmt.Errorf("application already exists for user and job")

// CreateApplication inserts a new application row. The (user_id, job_id)
// unique constraint serializes concurrent submissions; on conflict the
// pre-existing row is returned along with ErrDuplicateApplication.
func (db *DB) CreateApplication(ctx context.Context, app *types.Application) (*types.Application, error) {
	logJSON, err := json.Marshal(app.AutomationLog)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal automation log: %w", err)
	}
	answersJSON, err := json.Marshal(app.CustomAnswers)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal custom answers: %w", err)
	}

	tag, err := db.pool.Exec(ctx,
		`INSERT INTO applications (
			id, user_id, job_id, status, application_method, external_application_id,
			application_url, resume_text, cover_letter_text, custom_answers,
			automation_log, ats_response, is_verified, verified_source,
			email_confirmed, applied_at, created_at, updated_at)
		 VALUES ($1,$2,$3,$4,$5,NULLIF($6,''),$7,$8,$9,$10,$11,$12,$13,NULLIF($14,''),$15,$16,NOW(),NOW())
		 ON CONFLICT (user_id, job_id) DO NOTHING`,
		app.ID, app.UserID, app.JobID, app.Status, app.Method, app.ExternalApplicationID,
		app.ApplicationURL, app.ResumeText, app.CoverLetterText, answersJSON,
		logJSON, app.ATSResponse, app.IsVerified, string(app.VerifiedSource),
		app.EmailConfirmed, app.AppliedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to insert application: %w", err)
	}

	if tag.RowsAffected() == 0 {
		existing, err := db.GetApplicationByUserAndJob(ctx, app.UserID, app.JobID)
		if err != nil {
			return nil, err
		}
		return existing, ErrDuplicateApplication
	}
	return db.GetApplication(ctx, app.ID)
}

const applicationColumns = `id, user_id, job_id, status, application_method,
	COALESCE(external_application_id, ''), COALESCE(application_url, ''),
	COALESCE(resume_text, ''), COALESCE(cover_letter_text, ''), custom_answers,
	automation_log, is_verified, COALESCE(verified_source, ''), email_confirmed,
	applied_at, created_at, updated_at`

func scanApplication(row pgx.Row) (*types.Application, error) {
	var a types.Application
	var answersJSON, logJSON []byte
	var status, method, verifiedSource string
	err := row.Scan(
		&a.ID, &a.UserID, &a.JobID, &status, &method,
		&a.ExternalApplicationID, &a.ApplicationURL,
		&a.ResumeText, &a.CoverLetterText, &answersJSON,
		&logJSON, &a.IsVerified, &verifiedSource, &a.EmailConfirmed,
		&a.AppliedAt, &a.CreatedAt, &a.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	a.Status = types.ApplicationStatus(status)
	a.Method = types.ApplicationMethod(method)
	a.VerifiedSource = types.VerifiedSource(verifiedSource)
	if len(answersJSON) > 0 {
		_ = json.Unmarshal(answersJSON, &a.CustomAnswers)
	}
	if len(logJSON) > 0 {
		_ = json.Unmarshal(logJSON, &a.AutomationLog)
	}
	return &a, nil
}

// GetApplication retrieves an application by ID. Returns nil when not found.
func (db *DB) GetApplication(ctx context.Context, id uuid.UUID) (*types.Application, error) {
	a, err := scanApplication(db.pool.QueryRow(ctx,
		`SELECT `+applicationColumns+` FROM applications WHERE id = $1`, id))
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get application: %w", err)
	}
	return a, nil
}

// GetApplicationByUserAndJob retrieves the application for a (user, job) pair.
func (db *DB) GetApplicationByUserAndJob(ctx context.Context, userID int64, jobID uuid.UUID) (*types.Application, error) {
	a, err := scanApplication(db.pool.QueryRow(ctx,
		`SELECT `+applicationColumns+` FROM applications WHERE user_id = $1 AND job_id = $2`,
		userID, jobID))
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get application by user and job: %w", err)
	}
	return a, nil
}

// UpdateApplicationStatus sets the status, stamping applied_at the first time
// the application enters applied.
func (db *DB) UpdateApplicationStatus(ctx context.Context, id uuid.UUID, status types.ApplicationStatus) error {
	query := `UPDATE applications SET status = $2, updated_at = NOW() WHERE id = $1`
	if status == types.StatusApplied {
		query = `UPDATE applications SET status = $2, updated_at = NOW(),
			applied_at = COALESCE(applied_at, NOW()) WHERE id = $1`
	}
	tag, err := db.pool.Exec(ctx, query, id, status)
	if err != nil {
		return fmt.Errorf("failed to update application status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("application not found: %s", id)
	}
	return nil
}

// AppendAutomationLog appends steps to an application's automation log. The
// log is append-only: the stored value is replaced with old || new, never
// edited in place.
func (db *DB) AppendAutomationLog(ctx context.Context, id uuid.UUID, steps []types.AutomationStep) error {
	stepsJSON, err := json.Marshal(steps)
	if err != nil {
		return fmt.Errorf("failed to marshal automation steps: %w", err)
	}
	_, err = db.pool.Exec(ctx,
		`UPDATE applications
		 SET automation_log = COALESCE(automation_log, '[]'::jsonb) || $2::jsonb, updated_at = NOW()
		 WHERE id = $1`,
		id, stepsJSON,
	)
	if err != nil {
		return fmt.Errorf("failed to append automation log: %w", err)
	}
	return nil
}

// MarkApplicationVerified records submission verification from a channel.
func (db *DB) MarkApplicationVerified(ctx context.Context, id uuid.UUID, source types.VerifiedSource) error {
	_, err := db.pool.Exec(ctx,
		`UPDATE applications SET is_verified = true, verified_source = $2,
			email_confirmed = email_confirmed OR $3, updated_at = NOW()
		 WHERE id = $1`,
		id, source, source == types.VerifiedByEmail,
	)
	if err != nil {
		return fmt.Errorf("failed to mark application verified: %w", err)
	}
	return nil
}

// SetExternalApplicationID records the ATS-issued id and response payload.
func (db *DB) SetExternalApplicationID(ctx context.Context, id uuid.UUID, externalID string, atsResponse []byte) error {
	_, err := db.pool.Exec(ctx,
		`UPDATE applications SET external_application_id = $2, ats_response = $3, updated_at = NOW()
		 WHERE id = $1`,
		id, externalID, atsResponse,
	)
	if err != nil {
		return fmt.Errorf("failed to set external application id: %w", err)
	}
	return nil
}

// ApplicationFilters holds optional filters for listing applications.
type ApplicationFilters struct {
	UserID   int64
	Statuses []types.ApplicationStatus
	Since    *time.Time
	Limit    int
}

// ListApplications retrieves applications with optional filters, newest first.
func (db *DB) ListApplications(ctx context.Context, filters ApplicationFilters) ([]types.Application, error) {
	if filters.Limit == 0 {
		filters.Limit = 100
	}

	query := `SELECT ` + applicationColumns + ` FROM applications WHERE 1=1`
	args := []any{}
	argNum := 1

	if filters.UserID != 0 {
		query += fmt.Sprintf(" AND user_id = $%d", argNum)
		args = append(args, filters.UserID)
		argNum++
	}
	if len(filters.Statuses) > 0 {
		statuses := make([]string, len(filters.Statuses))
		for i, s := range filters.Statuses {
			statuses[i] = string(s)
		}
		query += fmt.Sprintf(" AND status = ANY($%d)", argNum)
		args = append(args, statuses)
		argNum++
	}
	if filters.Since != nil {
		query += fmt.Sprintf(" AND updated_at >= $%d", argNum)
		args = append(args, *filters.Since)
		argNum++
	}

	query += fmt.Sprintf(" ORDER BY updated_at DESC LIMIT $%d", argNum)
	args = append(args, filters.Limit)

	rows, err := db.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list applications: %w", err)
	}
	defer rows.Close()

	var apps []types.Application
	for rows.Next() {
		a, err := scanApplication(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan application: %w", err)
		}
		apps = append(apps, *a)
	}
	return apps, rows.Err()
}

// CountApplicationsToday returns how many applications a user submitted since
// local midnight. Used for daily quota enforcement.
func (db *DB) CountApplicationsToday(ctx context.Context, userID int64) (int, error) {
	var count int
	err := db.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM applications
		 WHERE user_id = $1 AND applied_at >= date_trunc('day', NOW())`,
		userID,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count today's applications: %w", err)
	}
	return count, nil
}
