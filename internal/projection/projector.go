// Package projection folds the focus ledger into display-ready series:
// hourly buckets for a single day, dense gap-filled day series for a date
// range, and lifetime totals. Valid-but-empty queries yield zero-filled
// structures, never errors.
package projection

import (
	"context"
	"time"

	apperrors "focustimer/backend/internal/errors"
	"focustimer/backend/internal/model"
	"focustimer/backend/internal/store"
)

type Gate interface {
	IsRegistered(ctx context.Context, userID string) bool
}

type Projector struct {
	records  *store.RecordRepository
	gate     Gate
	notifier *store.Notifier
}

func New(records *store.RecordRepository, gate Gate, notifier *store.Notifier) *Projector {
	return &Projector{records: records, gate: gate, notifier: notifier}
}

// DayPoint is one bar of a range chart. Days with no record are zero.
type DayPoint struct {
	Date              string  `json:"date"`
	TotalFocusMinutes float64 `json:"totalFocusMinutes"`
	TotalPomos        int     `json:"totalPomos"`
}

// Totals aggregates across records.
type Totals struct {
	TotalFocusMinutes float64 `json:"totalFocusMinutes"`
	TotalPomos        int     `json:"totalPomos"`
	DaysActive        int     `json:"daysActive"`
}

// Hourly folds one day's session entries into 24 buckets of focus minutes
// keyed by the entry's start hour. The fold is commutative: delivery order
// of the underlying entries cannot change the result.
func (p *Projector) Hourly(ctx context.Context, userID, date string) ([]float64, *apperrors.APIError) {
	if !p.gate.IsRegistered(ctx, userID) {
		return nil, apperrors.RegistrationRequired()
	}
	if _, err := time.Parse(model.DateFormat, date); err != nil {
		return nil, apperrors.BadRequest("invalid_date", "date must be yyyy-mm-dd")
	}

	entries, err := p.records.ListEntriesByDate(ctx, userID, date)
	if err != nil {
		return nil, apperrors.Internal("failed to load session entries")
	}

	buckets := make([]float64, 24)
	for _, entry := range entries {
		buckets[entry.StartTime.UTC().Hour()] += entry.DurationMinutes
	}
	return buckets, nil
}

// Range produces a dense series covering every date in [from, to]
// inclusive, zero-filling days without a record.
func (p *Projector) Range(ctx context.Context, userID, from, to string) ([]DayPoint, *apperrors.APIError) {
	if !p.gate.IsRegistered(ctx, userID) {
		return nil, apperrors.RegistrationRequired()
	}

	start, err := time.Parse(model.DateFormat, from)
	if err != nil {
		return nil, apperrors.BadRequest("invalid_date", "from must be yyyy-mm-dd")
	}
	end, err := time.Parse(model.DateFormat, to)
	if err != nil {
		return nil, apperrors.BadRequest("invalid_date", "to must be yyyy-mm-dd")
	}
	if end.Before(start) {
		return nil, apperrors.BadRequest("invalid_range", "to must not precede from")
	}

	records, listErr := p.records.ListRecordsRange(ctx, userID, from, to)
	if listErr != nil {
		return nil, apperrors.Internal("failed to load focus records")
	}

	byDate := make(map[string]model.FocusRecord, len(records))
	for _, record := range records {
		byDate[record.Date] = record
	}

	var series []DayPoint
	for day := start; !day.After(end); day = day.AddDate(0, 0, 1) {
		date := day.Format(model.DateFormat)
		point := DayPoint{Date: date}
		if record, ok := byDate[date]; ok {
			point.TotalFocusMinutes = record.TotalFocusMinutes
			point.TotalPomos = record.TotalPomos
		}
		series = append(series, point)
	}
	return series, nil
}

// Overall sums focus minutes and pomodoros across all of the user's
// records, optionally restricted to a date interval.
func (p *Projector) Overall(ctx context.Context, userID, from, to string) (Totals, *apperrors.APIError) {
	if !p.gate.IsRegistered(ctx, userID) {
		return Totals{}, apperrors.RegistrationRequired()
	}

	var records []model.FocusRecord
	var err error
	if from != "" || to != "" {
		if from == "" || to == "" {
			return Totals{}, apperrors.BadRequest("invalid_range", "from and to must be supplied together")
		}
		if _, parseErr := time.Parse(model.DateFormat, from); parseErr != nil {
			return Totals{}, apperrors.BadRequest("invalid_date", "from must be yyyy-mm-dd")
		}
		if _, parseErr := time.Parse(model.DateFormat, to); parseErr != nil {
			return Totals{}, apperrors.BadRequest("invalid_date", "to must be yyyy-mm-dd")
		}
		records, err = p.records.ListRecordsRange(ctx, userID, from, to)
	} else {
		records, err = p.records.ListAllRecords(ctx, userID)
	}
	if err != nil {
		return Totals{}, apperrors.Internal("failed to load focus records")
	}

	var totals Totals
	for _, record := range records {
		totals.TotalFocusMinutes += record.TotalFocusMinutes
		totals.TotalPomos += record.TotalPomos
		totals.DaysActive++
	}
	return totals, nil
}

// Sessions lists the immutable entries for one day, for drill-down views.
func (p *Projector) Sessions(ctx context.Context, userID, date string) ([]model.SessionEntry, *apperrors.APIError) {
	if !p.gate.IsRegistered(ctx, userID) {
		return nil, apperrors.RegistrationRequired()
	}
	if _, err := time.Parse(model.DateFormat, date); err != nil {
		return nil, apperrors.BadRequest("invalid_date", "date must be yyyy-mm-dd")
	}

	entries, err := p.records.ListEntriesByDate(ctx, userID, date)
	if err != nil {
		return nil, apperrors.Internal("failed to load session entries")
	}
	if entries == nil {
		entries = []model.SessionEntry{}
	}
	return entries, nil
}

// WeekWindow returns the [from, to] date strings of the week containing t,
// honoring the user's week-start preference.
func WeekWindow(t time.Time, weekStartsOn int) (string, string) {
	if weekStartsOn < 0 || weekStartsOn > 6 {
		weekStartsOn = int(time.Monday)
	}

	offset := (int(t.Weekday()) - weekStartsOn + 7) % 7
	start := t.AddDate(0, 0, -offset)
	end := start.AddDate(0, 0, 6)
	return start.Format(model.DateFormat), end.Format(model.DateFormat)
}
