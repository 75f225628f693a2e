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

// CreateTracking enables monitoring for an application (1:1).
func (db *DB) CreateTracking(ctx context.Context, t *types.ApplicationTracking) error {
	dataJSON, err := json.Marshal(t.TrackingData)
	if err != nil {
		return fmt.Errorf("failed to marshal tracking data: %w", err)
	}

	_, err = db.pool.Exec(ctx,
		`INSERT INTO application_tracking (
			application_id, user_id, ats_system, external_tracking_id, tracking_url,
			check_frequency_minutes, email_monitoring_enabled, email_keywords, tracking_data)
		 VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
		 ON CONFLICT (application_id) DO NOTHING`,
		t.ApplicationID, t.UserID, t.ATSSystem, t.ExternalTrackingID, t.TrackingURL,
		t.CheckFrequencyMinutes, t.EmailMonitoringEnabled, t.EmailKeywords, dataJSON,
	)
	if err != nil {
		return fmt.Errorf("failed to create tracking: %w", err)
	}
	return nil
}

func scanTracking(row pgx.Row) (*types.ApplicationTracking, error) {
	var t types.ApplicationTracking
	var dataJSON []byte
	err := row.Scan(
		&t.ApplicationID, &t.UserID, &t.ATSSystem, &t.ExternalTrackingID, &t.TrackingURL,
		&t.LastChecked, &t.CheckFrequencyMinutes, &t.NextCheck,
		&t.EmailMonitoringEnabled, &t.EmailKeywords, &dataJSON,
	)
	if err != nil {
		return nil, err
	}
	if len(dataJSON) > 0 {
		_ = json.Unmarshal(dataJSON, &t.TrackingData)
	}
	return &t, nil
}

const trackingColumns = `application_id, user_id, COALESCE(ats_system, ''),
	COALESCE(external_tracking_id, ''), COALESCE(tracking_url, ''),
	last_checked, check_frequency_minutes, next_check,
	email_monitoring_enabled, email_keywords, tracking_data`

// GetTracking retrieves the monitor configuration for an application.
func (db *DB) GetTracking(ctx context.Context, applicationID uuid.UUID) (*types.ApplicationTracking, error) {
	t, err := scanTracking(db.pool.QueryRow(ctx,
		`SELECT `+trackingColumns+` FROM application_tracking WHERE application_id = $1`,
		applicationID))
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get tracking: %w", err)
	}
	return t, nil
}

// ListDueTracking returns monitors whose next_check has passed (or was never
// set), grouped per user by the caller. Only non-terminal applications are
// returned.
func (db *DB) ListDueTracking(ctx context.Context, userIDs []int64, limit int) ([]types.ApplicationTracking, error) {
	if limit == 0 {
		limit = 500
	}
	query := `SELECT ` + trackingColumns + ` FROM application_tracking t
		 JOIN applications a ON a.id = t.application_id
		 WHERE a.status NOT IN ('accepted','declined','rejected','withdrawn')
		   AND (t.next_check IS NULL OR t.next_check <= NOW())`
	args := []any{}
	argNum := 1
	if len(userIDs) > 0 {
		query += fmt.Sprintf(" AND t.user_id = ANY($%d)", argNum)
		args = append(args, userIDs)
		argNum++
	}
	query += fmt.Sprintf(" ORDER BY t.next_check ASC NULLS FIRST LIMIT $%d", argNum)
	args = append(args, limit)

	rows, err := db.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list due tracking: %w", err)
	}
	defer rows.Close()

	var monitors []types.ApplicationTracking
	for rows.Next() {
		t, err := scanTracking(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan tracking: %w", err)
		}
		monitors = append(monitors, *t)
	}
	return monitors, rows.Err()
}

// TouchTracking stamps last_checked and schedules the next check.
func (db *DB) TouchTracking(ctx context.Context, applicationID uuid.UUID, next time.Time) error {
	_, err := db.pool.Exec(ctx,
		`UPDATE application_tracking SET last_checked = NOW(), next_check = $2
		 WHERE application_id = $1`,
		applicationID, next,
	)
	if err != nil {
		return fmt.Errorf("failed to touch tracking: %w", err)
	}
	return nil
}

// AppendStatusHistory records an accepted delta in the monitor's history.
// History is append-only; the stored array is replaced, never edited.
func (db *DB) AppendStatusHistory(ctx context.Context, applicationID uuid.UUID, delta types.StatusDelta) error {
	deltaJSON, err := json.Marshal([]types.StatusDelta{delta})
	if err != nil {
		return fmt.Errorf("failed to marshal status delta: %w", err)
	}
	_, err = db.pool.Exec(ctx,
		`UPDATE application_tracking
		 SET status_history = COALESCE(status_history, '[]'::jsonb) || $2::jsonb
		 WHERE application_id = $1`,
		applicationID, deltaJSON,
	)
	if err != nil {
		return fmt.Errorf("failed to append status history: %w", err)
	}
	return nil
}
