// Package recorder turns finished timer runs into durable ledger writes:
// one merge-update of the day's aggregate plus one immutable session
// entry, applied in a single retried transaction.
package recorder

import (
	"context"
	"database/sql"
	"log/slog"
	"time"

	"github.com/google/uuid"

	apperrors "focustimer/backend/internal/errors"
	"focustimer/backend/internal/model"
	"focustimer/backend/internal/store"
)

// Gate answers whether a user may persist ledger data.
type Gate interface {
	IsRegistered(ctx context.Context, userID string) bool
}

type Recorder struct {
	records  *store.RecordRepository
	users    *store.UserRepository
	gate     Gate
	notifier *store.Notifier
	now      func() time.Time
}

func New(records *store.RecordRepository, users *store.UserRepository, gate Gate, notifier *store.Notifier) *Recorder {
	return &Recorder{
		records:  records,
		users:    users,
		gate:     gate,
		notifier: notifier,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// WithClock overrides the wall-clock source, for tests.
func (r *Recorder) WithClock(now func() time.Time) *Recorder {
	r.now = now
	return r
}

// RecordSession persists one run. Duration is raw wall-clock elapsed time
// between start and now: pausing does not stop this clock, so a run left
// paused records its full elapsed wall time. Returns false without side
// effects when the identity is not registered, start is nil, the mode is
// not pomodoro, or the elapsed time is below the recordable minimum. A failed
// transaction also returns false; the run is not retried.
func (r *Recorder) RecordSession(ctx context.Context, userID string, start *time.Time, mode string, completed bool) bool {
	if !r.gate.IsRegistered(ctx, userID) {
		return false
	}
	if start == nil {
		return false
	}
	if mode != model.ModePomodoro {
		return false
	}

	now := r.now()
	durationMinutes := now.Sub(*start).Minutes()
	if durationMinutes < model.MinRecordableMinutes {
		return false
	}

	date := now.Format(model.DateFormat)
	if err := r.writeSession(ctx, userID, date, *start, now, durationMinutes, mode, completed); err != nil {
		slog.Error("session recording failed", "userId", userID, "date", date, "error", err)
		return false
	}

	slog.Info("session recorded",
		"userId", userID,
		"date", date,
		"minutes", durationMinutes,
		"completed", completed,
	)
	r.notifier.Publish(store.Event{UserID: userID, Kind: store.ChangeRecords, Date: date})
	return true
}

// RecordManual persists a user-entered past session through the same
// transaction shape, first making sure the profile document exists.
func (r *Recorder) RecordManual(ctx context.Context, userID string, start time.Time, durationMinutes float64) *apperrors.APIError {
	if !r.gate.IsRegistered(ctx, userID) {
		return apperrors.RegistrationRequired()
	}
	if durationMinutes < model.ManualEntryMinMinutes || durationMinutes > model.ManualEntryMaxMinutes {
		return apperrors.BadRequest("invalid_duration", "duration must be between 1 and 1440 minutes")
	}

	now := r.now()
	end := start.Add(time.Duration(durationMinutes * float64(time.Minute)))
	if end.After(now) {
		return apperrors.BadRequest("future_session", "session end time must not be in the future")
	}

	if err := r.users.EnsureProfile(ctx, userID); err != nil {
		slog.Error("profile ensure failed", "userId", userID, "error", err)
		return apperrors.Internal("failed to prepare user profile")
	}

	date := start.UTC().Format(model.DateFormat)
	if err := r.writeSession(ctx, userID, date, start.UTC(), end.UTC(), durationMinutes, model.EntryTypeManual, true); err != nil {
		slog.Error("manual entry failed", "userId", userID, "date", date, "error", err)
		return apperrors.Internal("failed to record manual session")
	}

	r.notifier.Publish(store.Event{UserID: userID, Kind: store.ChangeRecords, Date: date})
	return nil
}

func (r *Recorder) writeSession(
	ctx context.Context,
	userID, date string,
	start, end time.Time,
	durationMinutes float64,
	entryType string,
	completed bool,
) error {
	return store.RunTransaction(ctx, r.records.DB(), func(tx *sql.Tx) error {
		record, err := r.records.GetRecordTx(ctx, tx, userID, date)
		if err == store.ErrNotFound {
			record = &model.FocusRecord{UserID: userID, Date: date}
		} else if err != nil {
			return err
		}

		record.TotalFocusMinutes += durationMinutes
		if completed {
			record.TotalPomos++
		}
		record.UpdatedAt = end

		if err := r.records.UpsertRecordTx(ctx, tx, record); err != nil {
			return err
		}

		entry := model.SessionEntry{
			ID:              uuid.NewString(),
			UserID:          userID,
			RecordDate:      date,
			StartTime:       start,
			EndTime:         end,
			DurationMinutes: durationMinutes,
			Type:            entryType,
			Completed:       completed,
			CreatedAt:       end,
		}
		return r.records.InsertEntryTx(ctx, tx, &entry)
	})
}
