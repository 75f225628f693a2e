package db

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/jonathan/jobpilot/internal/types"
)

// SavePreparedJob stores an application packet. One packet exists per
// (user, job); rebuilding replaces the previous packet wholesale.
func (db *DB) SavePreparedJob(ctx context.Context, p *types.PreparedJob) error {
	answersJSON, err := json.Marshal(p.CustomAnswers)
	if err != nil {
		return fmt.Errorf("failed to marshal custom answers: %w", err)
	}

	_, err = db.pool.Exec(ctx,
		`INSERT INTO prepared_jobs (
			id, user_id, job_id, resume_variant_id, resume_text, cover_letter_text,
			custom_answers, packet_ready, not_ready_reason, priority, ai_notes, created_at)
		 VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,NOW())
		 ON CONFLICT (user_id, job_id) DO UPDATE SET
			resume_variant_id = $4, resume_text = $5, cover_letter_text = $6,
			custom_answers = $7, packet_ready = $8, not_ready_reason = $9,
			priority = $10, ai_notes = $11, created_at = NOW()`,
		p.ID, p.UserID, p.JobID, p.ResumeVariantID, p.ResumeText, p.CoverLetterText,
		answersJSON, p.PacketReady, p.NotReadyReason, p.Priority, p.AINotes,
	)
	if err != nil {
		return fmt.Errorf("failed to save prepared job: %w", err)
	}
	return nil
}

// GetPreparedJob retrieves the packet for a (user, job) pair.
func (db *DB) GetPreparedJob(ctx context.Context, userID int64, jobID uuid.UUID) (*types.PreparedJob, error) {
	var p types.PreparedJob
	var answersJSON []byte
	var priority string
	err := db.pool.QueryRow(ctx,
		`SELECT id, user_id, job_id, COALESCE(resume_variant_id, ''), COALESCE(resume_text, ''),
			COALESCE(cover_letter_text, ''), custom_answers, packet_ready,
			COALESCE(not_ready_reason, ''), priority, COALESCE(ai_notes, ''), created_at
		 FROM prepared_jobs WHERE user_id = $1 AND job_id = $2`,
		userID, jobID,
	).Scan(&p.ID, &p.UserID, &p.JobID, &p.ResumeVariantID, &p.ResumeText,
		&p.CoverLetterText, &answersJSON, &p.PacketReady,
		&p.NotReadyReason, &priority, &p.AINotes, &p.CreatedAt)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get prepared job: %w", err)
	}
	p.Priority = types.PacketPriority(priority)
	if len(answersJSON) > 0 {
		_ = json.Unmarshal(answersJSON, &p.CustomAnswers)
	}
	return &p, nil
}
