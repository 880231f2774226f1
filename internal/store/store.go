// Package store persists the per-user focus ledger: profile, per-day
// aggregate records, immutable session entries, and preferences. Writes
// that must be atomic go through RunTransaction; committed changes are
// announced on the Notifier so live projections can re-fold.
package store

import (
	"errors"
	"time"
)

var ErrNotFound = errors.New("not found")

func parseTime(raw string) (time.Time, error) {
	if raw == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse(time.RFC3339Nano, raw)
	if err == nil {
		return t.UTC(), nil
	}
	t, err = time.Parse(time.RFC3339, raw)
	if err == nil {
		return t.UTC(), nil
	}
	return time.Time{}, err
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}
