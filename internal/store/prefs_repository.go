package store

import (
	"context"
	"database/sql"
	"fmt"

	"focustimer/backend/internal/model"
)

type PreferencesRepository struct {
	db *sql.DB
}

func NewPreferencesRepository(db *sql.DB) *PreferencesRepository {
	return &PreferencesRepository{db: db}
}

// Get returns the user's stored preferences, or ErrNotFound when no
// document exists yet. Callers fall back to model.DefaultPreferences.
func (r *PreferencesRepository) Get(ctx context.Context, userID string) (*model.Preferences, error) {
	row := r.db.QueryRowContext(
		ctx,
		`SELECT user_id, anti_burn_in, pomodoro_seconds, short_break_seconds,
		        long_break_seconds, week_starts_on, updated_at
		 FROM user_preferences
		 WHERE user_id = ?`,
		userID,
	)

	var prefs model.Preferences
	var antiBurnIn int
	var updatedAt string
	err := row.Scan(
		&prefs.UserID,
		&antiBurnIn,
		&prefs.PomodoroDurationSeconds,
		&prefs.ShortBreakDurationSeconds,
		&prefs.LongBreakDurationSeconds,
		&prefs.WeekStartsOn,
		&updatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("scan preferences: %w", err)
	}

	prefs.AntiBurnIn = antiBurnIn != 0

	parsedUpdatedAt, parseErr := parseTime(updatedAt)
	if parseErr != nil {
		return nil, fmt.Errorf("parse preferences updated_at: %w", parseErr)
	}
	prefs.UpdatedAt = parsedUpdatedAt
	return &prefs, nil
}

// Upsert merge-writes the full preference document.
func (r *PreferencesRepository) Upsert(ctx context.Context, prefs *model.Preferences) error {
	_, err := r.db.ExecContext(
		ctx,
		`INSERT INTO user_preferences (
			user_id, anti_burn_in, pomodoro_seconds, short_break_seconds,
			long_break_seconds, week_starts_on, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(user_id) DO UPDATE SET
			anti_burn_in = excluded.anti_burn_in,
			pomodoro_seconds = excluded.pomodoro_seconds,
			short_break_seconds = excluded.short_break_seconds,
			long_break_seconds = excluded.long_break_seconds,
			week_starts_on = excluded.week_starts_on,
			updated_at = excluded.updated_at`,
		prefs.UserID,
		boolToInt(prefs.AntiBurnIn),
		prefs.PomodoroDurationSeconds,
		prefs.ShortBreakDurationSeconds,
		prefs.LongBreakDurationSeconds,
		prefs.WeekStartsOn,
		formatTime(prefs.UpdatedAt),
	)
	if err != nil {
		return fmt.Errorf("upsert preferences: %w", err)
	}
	return nil
}
