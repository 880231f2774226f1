// Package prefs bridges the durable preference document and the in-memory
// timer configuration: remote changes flow into live engines, local edits
// flow out as non-blocking writes.
package prefs

import (
	"context"
	"log/slog"
	"time"

	apperrors "focustimer/backend/internal/errors"
	"focustimer/backend/internal/model"
	"focustimer/backend/internal/store"
	"focustimer/backend/internal/timer"
)

type Gate interface {
	IsRegistered(ctx context.Context, userID string) bool
}

type Service struct {
	repo     *store.PreferencesRepository
	gate     Gate
	notifier *store.Notifier
	timers   *timer.Manager
}

func NewService(repo *store.PreferencesRepository, gate Gate, notifier *store.Notifier, timers *timer.Manager) *Service {
	return &Service{
		repo:     repo,
		gate:     gate,
		notifier: notifier,
		timers:   timers,
	}
}

// Update is a partial preference change; nil fields are left untouched.
type Update struct {
	AntiBurnIn        *bool `json:"antiBurnIn"`
	PomodoroSeconds   *int  `json:"pomodoroSeconds"`
	ShortBreakSeconds *int  `json:"shortBreakSeconds"`
	LongBreakSeconds  *int  `json:"longBreakSeconds"`
	WeekStartsOn      *int  `json:"weekStartsOn"`
}

// Get returns stored preferences, falling back to defaults when the user
// has no document yet.
func (s *Service) Get(ctx context.Context, userID string) (model.Preferences, *apperrors.APIError) {
	stored, err := s.repo.Get(ctx, userID)
	if err == store.ErrNotFound {
		return model.DefaultPreferences(userID), nil
	}
	if err != nil {
		return model.Preferences{}, apperrors.Internal("failed to load preferences")
	}
	return *stored, nil
}

// Apply merges an update, reflects it into the user's live timer engine
// immediately, and persists it without making the caller wait: the write's
// outcome is delivered on the returned channel. Anonymous identities are
// refused before anything happens.
func (s *Service) Apply(ctx context.Context, userID string, update Update) (model.Preferences, <-chan error, *apperrors.APIError) {
	if !s.gate.IsRegistered(ctx, userID) {
		return model.Preferences{}, nil, apperrors.RegistrationRequired()
	}

	current, apiErr := s.Get(ctx, userID)
	if apiErr != nil {
		return model.Preferences{}, nil, apiErr
	}

	if update.AntiBurnIn != nil {
		current.AntiBurnIn = *update.AntiBurnIn
	}
	if update.PomodoroSeconds != nil && *update.PomodoroSeconds > 0 {
		current.PomodoroDurationSeconds = *update.PomodoroSeconds
	}
	if update.ShortBreakSeconds != nil && *update.ShortBreakSeconds > 0 {
		current.ShortBreakDurationSeconds = *update.ShortBreakSeconds
	}
	if update.LongBreakSeconds != nil && *update.LongBreakSeconds > 0 {
		current.LongBreakDurationSeconds = *update.LongBreakSeconds
	}
	if update.WeekStartsOn != nil && *update.WeekStartsOn >= 0 && *update.WeekStartsOn <= 6 {
		current.WeekStartsOn = *update.WeekStartsOn
	}
	current.UserID = userID
	current.UpdatedAt = time.Now().UTC()

	// Local state reflects the change before the write is confirmed.
	s.push(userID, current)

	result := make(chan error, 1)
	go func() {
		err := s.repo.Upsert(context.Background(), &current)
		if err != nil {
			slog.Error("preference write failed", "userId", userID, "error", err)
		} else {
			s.notifier.Publish(store.Event{UserID: userID, Kind: store.ChangePreferences})
		}
		result <- err
	}()

	return current, result, nil
}

// Subscribe emits the current preferences immediately and again on every
// stored change, pushing each snapshot into the user's live timer engine.
// The disposer tears the stream down.
func (s *Service) Subscribe(userID string) (<-chan model.Preferences, func()) {
	events, dispose := s.notifier.Subscribe(userID)
	out := make(chan model.Preferences, 4)

	go func() {
		defer close(out)

		emit := func() {
			snapshot, apiErr := s.Get(context.Background(), userID)
			if apiErr != nil {
				return
			}
			s.push(userID, snapshot)
			select {
			case out <- snapshot:
			default:
			}
		}

		emit()
		for event := range events {
			if event.Kind != store.ChangePreferences {
				continue
			}
			emit()
		}
	}()

	return out, dispose
}

// push applies a preference snapshot to the user's live engine, including
// mid-run; an active countdown keeps its remaining time but picks the new
// configuration up on its next reset.
func (s *Service) push(userID string, p model.Preferences) {
	if s.timers == nil {
		return
	}
	s.timers.ApplyPreferences(userID, timer.Durations{
		PomodoroSeconds:   p.PomodoroDurationSeconds,
		ShortBreakSeconds: p.ShortBreakDurationSeconds,
		LongBreakSeconds:  p.LongBreakDurationSeconds,
	}, p.AntiBurnIn)
}
