package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"focustimer/backend/internal/model"
)

type UserRepository struct {
	db *sql.DB
}

func NewUserRepository(db *sql.DB) *UserRepository {
	return &UserRepository{db: db}
}

func (r *UserRepository) Create(ctx context.Context, user *model.User) error {
	var email interface{}
	if user.Email != "" {
		email = user.Email
	}

	_, err := r.db.ExecContext(
		ctx,
		`INSERT INTO users (id, email, password_hash, is_anonymous, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		user.ID,
		email,
		user.PasswordHash,
		boolToInt(user.IsAnonymous),
		formatTime(user.CreatedAt),
		formatTime(user.UpdatedAt),
	)
	if err != nil {
		return fmt.Errorf("create user: %w", err)
	}
	return nil
}

func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	row := r.db.QueryRowContext(
		ctx,
		`SELECT id, email, password_hash, is_anonymous, created_at, updated_at
		 FROM users
		 WHERE email = ?`,
		email,
	)
	return scanUser(row)
}

func (r *UserRepository) GetByID(ctx context.Context, id string) (*model.User, error) {
	row := r.db.QueryRowContext(
		ctx,
		`SELECT id, email, password_hash, is_anonymous, created_at, updated_at
		 FROM users
		 WHERE id = ?`,
		id,
	)
	return scanUser(row)
}

// EnsureProfile creates the user's profile document if it is missing.
// Idempotent; not part of any recording transaction.
func (r *UserRepository) EnsureProfile(ctx context.Context, userID string) error {
	_, err := r.db.ExecContext(
		ctx,
		`INSERT OR IGNORE INTO user_profiles (user_id, created_at) VALUES (?, ?)`,
		userID,
		formatTime(time.Now()),
	)
	if err != nil {
		return fmt.Errorf("ensure profile: %w", err)
	}
	return nil
}

func (r *UserRepository) HasProfile(ctx context.Context, userID string) (bool, error) {
	var count int
	if err := r.db.QueryRowContext(
		ctx,
		`SELECT COUNT(1) FROM user_profiles WHERE user_id = ?`,
		userID,
	).Scan(&count); err != nil {
		return false, fmt.Errorf("check profile: %w", err)
	}
	return count > 0, nil
}

func scanUser(row *sql.Row) (*model.User, error) {
	var user model.User
	var email sql.NullString
	var isAnonymous int
	var createdAt, updatedAt string

	if err := row.Scan(&user.ID, &email, &user.PasswordHash, &isAnonymous, &createdAt, &updatedAt); err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("scan user: %w", err)
	}

	user.Email = email.String
	user.IsAnonymous = isAnonymous != 0

	parsedCreatedAt, err := parseTime(createdAt)
	if err != nil {
		return nil, fmt.Errorf("parse user created_at: %w", err)
	}
	parsedUpdatedAt, err := parseTime(updatedAt)
	if err != nil {
		return nil, fmt.Errorf("parse user updated_at: %w", err)
	}
	user.CreatedAt = parsedCreatedAt
	user.UpdatedAt = parsedUpdatedAt

	return &user, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
