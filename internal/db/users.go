package db

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/jonathan/jobpilot/internal/types"
)

// DBUser is the storage shape of a user account, including the password hash
// which is never exposed through API types.
type DBUser struct {
	types.User
	PasswordHash string
}

// CreateUser inserts a new user account and returns its id.
func (db *DB) CreateUser(ctx context.Context, firstName, lastName, email, phone, passwordHash string) (int64, error) {
	var id int64
	err := db.pool.QueryRow(ctx,
		`INSERT INTO users (first_name, last_name, email, phone, password_hash, created_at, updated_at)
		 VALUES ($1, $2, $3, NULLIF($4, ''), $5, NOW(), NOW())
		 RETURNING id`,
		firstName, lastName, email, phone, passwordHash,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("failed to create user: %w", err)
	}
	return id, nil
}

// GetUserByEmail retrieves a user by email. Returns nil when not found.
func (db *DB) GetUserByEmail(ctx context.Context, email string) (*DBUser, error) {
	var u DBUser
	err := db.pool.QueryRow(ctx,
		`SELECT id, first_name, last_name, email, COALESCE(phone, ''), password_hash, created_at, updated_at
		 FROM users WHERE email = $1`,
		email,
	).Scan(&u.ID, &u.FirstName, &u.LastName, &u.Email, &u.Phone, &u.PasswordHash, &u.CreatedAt, &u.UpdatedAt)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user by email: %w", err)
	}
	return &u, nil
}

// GetUserProfile loads the matching profile for a user. Returns nil when the
// user does not exist.
func (db *DB) GetUserProfile(ctx context.Context, userID int64) (*types.UserProfile, error) {
	var id int64
	var firstName, lastName, email, phone string
	var profileJSON []byte
	err := db.pool.QueryRow(ctx,
		`SELECT u.id, u.first_name, u.last_name, u.email, COALESCE(u.phone, ''), COALESCE(u.profile, '{}'::jsonb)
		 FROM users u WHERE u.id = $1`,
		userID,
	).Scan(&id, &firstName, &lastName, &email, &phone, &profileJSON)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user profile: %w", err)
	}

	var p types.UserProfile
	if len(profileJSON) > 0 {
		if err := json.Unmarshal(profileJSON, &p); err != nil {
			return nil, fmt.Errorf("failed to decode user profile: %w", err)
		}
	}
	// Identity columns win over anything stored in the profile document.
	p.UserID = id
	p.FirstName = firstName
	p.LastName = lastName
	p.Email = email
	p.Phone = phone
	return &p, nil
}

// SaveUserProfile replaces the stored profile document for a user.
func (db *DB) SaveUserProfile(ctx context.Context, profile *types.UserProfile) error {
	profileJSON, err := json.Marshal(profile)
	if err != nil {
		return fmt.Errorf("failed to marshal user profile: %w", err)
	}
	tag, err := db.pool.Exec(ctx,
		`UPDATE users SET profile = $2, updated_at = NOW() WHERE id = $1`,
		profile.UserID, profileJSON,
	)
	if err != nil {
		return fmt.Errorf("failed to save user profile: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("user not found: %d", profile.UserID)
	}
	return nil
}

// ListAutomationUsers returns the ids of users with automation enabled.
func (db *DB) ListAutomationUsers(ctx context.Context) ([]int64, error) {
	rows, err := db.pool.Query(ctx,
		`SELECT id FROM users WHERE COALESCE((profile->>'automation_enabled')::boolean, false)`,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list automation users: %w", err)
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan user id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}
