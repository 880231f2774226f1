package store

import (
	"context"
	"database/sql"
	"fmt"

	"focustimer/backend/internal/model"
)

type RecordRepository struct {
	db *sql.DB
}

func NewRecordRepository(db *sql.DB) *RecordRepository {
	return &RecordRepository{db: db}
}

func (r *RecordRepository) DB() *sql.DB {
	return r.db
}

// GetRecordTx reads one day's aggregate inside a transaction, for the
// read-modify-write performed by the session recorder.
func (r *RecordRepository) GetRecordTx(ctx context.Context, tx *sql.Tx, userID, date string) (*model.FocusRecord, error) {
	row := tx.QueryRowContext(
		ctx,
		`SELECT user_id, date, total_focus_minutes, total_pomos, updated_at
		 FROM focus_records
		 WHERE user_id = ? AND date = ?`,
		userID,
		date,
	)
	record, err := scanFocusRecord(row)
	if err != nil {
		return nil, err
	}
	return record, nil
}

// UpsertRecordTx merge-writes the aggregate fields, creating the day's
// record on first session.
func (r *RecordRepository) UpsertRecordTx(ctx context.Context, tx *sql.Tx, record *model.FocusRecord) error {
	_, err := tx.ExecContext(
		ctx,
		`INSERT INTO focus_records (user_id, date, total_focus_minutes, total_pomos, updated_at)
		 VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT(user_id, date) DO UPDATE SET
		     total_focus_minutes = excluded.total_focus_minutes,
		     total_pomos = excluded.total_pomos,
		     updated_at = excluded.updated_at`,
		record.UserID,
		record.Date,
		record.TotalFocusMinutes,
		record.TotalPomos,
		formatTime(record.UpdatedAt),
	)
	if err != nil {
		return fmt.Errorf("upsert focus record: %w", err)
	}
	return nil
}

func (r *RecordRepository) InsertEntryTx(ctx context.Context, tx *sql.Tx, entry *model.SessionEntry) error {
	_, err := tx.ExecContext(
		ctx,
		`INSERT INTO session_entries (
			id, user_id, record_date, started_at, ended_at,
			duration_minutes, type, completed, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		entry.ID,
		entry.UserID,
		entry.RecordDate,
		formatTime(entry.StartTime),
		formatTime(entry.EndTime),
		entry.DurationMinutes,
		entry.Type,
		boolToInt(entry.Completed),
		formatTime(entry.CreatedAt),
	)
	if err != nil {
		return fmt.Errorf("insert session entry: %w", err)
	}
	return nil
}

// ListRecordsRange returns the records whose date falls within [from, to],
// both inclusive date strings. Days with no activity have no row.
func (r *RecordRepository) ListRecordsRange(ctx context.Context, userID, from, to string) ([]model.FocusRecord, error) {
	rows, err := r.db.QueryContext(
		ctx,
		`SELECT user_id, date, total_focus_minutes, total_pomos, updated_at
		 FROM focus_records
		 WHERE user_id = ? AND date >= ? AND date <= ?
		 ORDER BY date`,
		userID,
		from,
		to,
	)
	if err != nil {
		return nil, fmt.Errorf("list focus records: %w", err)
	}
	defer rows.Close()

	var records []model.FocusRecord
	for rows.Next() {
		record, scanErr := scanFocusRecord(rows)
		if scanErr != nil {
			return nil, scanErr
		}
		records = append(records, *record)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate focus records: %w", err)
	}
	return records, nil
}

// ListAllRecords returns every record for the user, for lifetime totals.
func (r *RecordRepository) ListAllRecords(ctx context.Context, userID string) ([]model.FocusRecord, error) {
	rows, err := r.db.QueryContext(
		ctx,
		`SELECT user_id, date, total_focus_minutes, total_pomos, updated_at
		 FROM focus_records
		 WHERE user_id = ?
		 ORDER BY date`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("list all focus records: %w", err)
	}
	defer rows.Close()

	var records []model.FocusRecord
	for rows.Next() {
		record, scanErr := scanFocusRecord(rows)
		if scanErr != nil {
			return nil, scanErr
		}
		records = append(records, *record)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate focus records: %w", err)
	}
	return records, nil
}

// ListEntriesByDate returns the day's session entries ordered by start time.
func (r *RecordRepository) ListEntriesByDate(ctx context.Context, userID, date string) ([]model.SessionEntry, error) {
	rows, err := r.db.QueryContext(
		ctx,
		`SELECT id, user_id, record_date, started_at, ended_at,
		        duration_minutes, type, completed, created_at
		 FROM session_entries
		 WHERE user_id = ? AND record_date = ?
		 ORDER BY started_at`,
		userID,
		date,
	)
	if err != nil {
		return nil, fmt.Errorf("list session entries: %w", err)
	}
	defer rows.Close()

	var entries []model.SessionEntry
	for rows.Next() {
		entry, scanErr := scanSessionEntry(rows)
		if scanErr != nil {
			return nil, scanErr
		}
		entries = append(entries, *entry)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate session entries: %w", err)
	}
	return entries, nil
}

type scanner interface {
	Scan(dest ...interface{}) error
}

func scanFocusRecord(s scanner) (*model.FocusRecord, error) {
	var record model.FocusRecord
	var updatedAt string

	err := s.Scan(
		&record.UserID,
		&record.Date,
		&record.TotalFocusMinutes,
		&record.TotalPomos,
		&updatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("scan focus record: %w", err)
	}

	parsedUpdatedAt, parseErr := parseTime(updatedAt)
	if parseErr != nil {
		return nil, fmt.Errorf("parse record updated_at: %w", parseErr)
	}
	record.UpdatedAt = parsedUpdatedAt
	return &record, nil
}

func scanSessionEntry(s scanner) (*model.SessionEntry, error) {
	var entry model.SessionEntry
	var startedAt, endedAt, createdAt string
	var completed int

	err := s.Scan(
		&entry.ID,
		&entry.UserID,
		&entry.RecordDate,
		&startedAt,
		&endedAt,
		&entry.DurationMinutes,
		&entry.Type,
		&completed,
		&createdAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("scan session entry: %w", err)
	}

	entry.Completed = completed != 0

	parsedStartedAt, parseErr := parseTime(startedAt)
	if parseErr != nil {
		return nil, fmt.Errorf("parse entry started_at: %w", parseErr)
	}
	entry.StartTime = parsedStartedAt

	parsedEndedAt, parseErr := parseTime(endedAt)
	if parseErr != nil {
		return nil, fmt.Errorf("parse entry ended_at: %w", parseErr)
	}
	entry.EndTime = parsedEndedAt

	parsedCreatedAt, parseErr := parseTime(createdAt)
	if parseErr != nil {
		return nil, fmt.Errorf("parse entry created_at: %w", parseErr)
	}
	entry.CreatedAt = parsedCreatedAt

	return &entry, nil
}
