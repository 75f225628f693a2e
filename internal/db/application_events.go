package db

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"

	"github.com/jonathan/jobpilot/internal/types"
)

// InsertApplicationEvent appends an immutable lifecycle entry for an
// application. Events are never updated or deleted.
func (db *DB) InsertApplicationEvent(ctx context.Context, ev *types.ApplicationEvent) error {
	metaJSON, err := json.Marshal(ev.Metadata)
	if err != nil {
		return fmt.Errorf("failed to marshal event metadata: %w", err)
	}

	_, err = db.pool.Exec(ctx,
		`INSERT INTO application_events (id, application_id, event_type, title, description, metadata, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, NOW())`,
		ev.ID, ev.ApplicationID, ev.Type, ev.Title, ev.Description, metaJSON,
	)
	if err != nil {
		return fmt.Errorf("failed to insert application event: %w", err)
	}
	return nil
}

// ListApplicationEvents retrieves the events for an application in
// persistence order (created_at ascending).
func (db *DB) ListApplicationEvents(ctx context.Context, applicationID uuid.UUID) ([]types.ApplicationEvent, error) {
	rows, err := db.pool.Query(ctx,
		`SELECT id, application_id, event_type, title, COALESCE(description, ''), metadata, created_at
		 FROM application_events
		 WHERE application_id = $1
		 ORDER BY created_at ASC, id ASC`,
		applicationID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list application events: %w", err)
	}
	defer rows.Close()

	var events []types.ApplicationEvent
	for rows.Next() {
		var ev types.ApplicationEvent
		var eventType string
		var metaJSON []byte
		if err := rows.Scan(&ev.ID, &ev.ApplicationID, &eventType, &ev.Title, &ev.Description, &metaJSON, &ev.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan application event: %w", err)
		}
		ev.Type = types.EventType(eventType)
		if len(metaJSON) > 0 {
			_ = json.Unmarshal(metaJSON, &ev.Metadata)
		}
		events = append(events, ev)
	}
	return events, rows.Err()
}

// CountEventsOfType returns how many events of one type exist for an
// application. Used to assert the exactly-one-applied-event invariant.
func (db *DB) CountEventsOfType(ctx context.Context, applicationID uuid.UUID, eventType types.EventType) (int, error) {
	var count int
	err := db.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM application_events WHERE application_id = $1 AND event_type = $2`,
		applicationID, eventType,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count application events: %w", err)
	}
	return count, nil
}
