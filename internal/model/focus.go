package model

import "time"

const (
	ModePomodoro   = "pomodoro"
	ModeShortBreak = "short_break"
	ModeLongBreak  = "long_break"

	// EntryTypeManual marks session entries created through manual entry
	// rather than a live timer run.
	EntryTypeManual = "manual"
)

const (
	DefaultPomodoroDurationSeconds   = 25 * 60
	DefaultShortBreakDurationSeconds = 5 * 60
	DefaultLongBreakDurationSeconds  = 15 * 60

	// PomodorosPerCycle is how many completed pomodoros earn a long break.
	PomodorosPerCycle = 4

	// MinRecordableMinutes guards against recording trivial or aborted runs.
	MinRecordableMinutes = 0.1

	ManualEntryMinMinutes = 1
	ManualEntryMaxMinutes = 1440
)

// DateFormat is the calendar-day key used for focus records.
const DateFormat = "2006-01-02"

// FocusRecord is the per-day aggregate ledger entry for one user.
// It is created on the first session of the day and only ever grows.
type FocusRecord struct {
	UserID            string    `json:"userId"`
	Date              string    `json:"date"`
	TotalFocusMinutes float64   `json:"totalFocusMinutes"`
	TotalPomos        int       `json:"totalPomos"`
	UpdatedAt         time.Time `json:"updatedAt"`
}

// SessionEntry is an immutable record of one specific run, child of the
// day's FocusRecord. Never mutated after creation.
type SessionEntry struct {
	ID              string    `json:"id"`
	UserID          string    `json:"userId"`
	RecordDate      string    `json:"recordDate"`
	StartTime       time.Time `json:"startTime"`
	EndTime         time.Time `json:"endTime"`
	DurationMinutes float64   `json:"durationMinutes"`
	Type            string    `json:"type"`
	Completed       bool      `json:"completed"`
	CreatedAt       time.Time `json:"createdAt"`
}

// Preferences is the singleton per-user preference document. Absent fields
// fall back to the defaults below.
type Preferences struct {
	UserID                    string    `json:"userId"`
	AntiBurnIn                bool      `json:"antiBurnIn"`
	PomodoroDurationSeconds   int       `json:"pomodoroDurationSeconds"`
	ShortBreakDurationSeconds int       `json:"shortBreakDurationSeconds"`
	LongBreakDurationSeconds  int       `json:"longBreakDurationSeconds"`
	WeekStartsOn              int       `json:"weekStartsOn"`
	UpdatedAt                 time.Time `json:"updatedAt"`
}

// DefaultPreferences returns the client-side defaults used when no
// preference document exists yet for the user.
func DefaultPreferences(userID string) Preferences {
	return Preferences{
		UserID:                    userID,
		AntiBurnIn:                false,
		PomodoroDurationSeconds:   DefaultPomodoroDurationSeconds,
		ShortBreakDurationSeconds: DefaultShortBreakDurationSeconds,
		LongBreakDurationSeconds:  DefaultLongBreakDurationSeconds,
		WeekStartsOn:              int(time.Monday),
	}
}

// IsValidMode reports whether mode names one of the three timer modes.
func IsValidMode(mode string) bool {
	return mode == ModePomodoro || mode == ModeShortBreak || mode == ModeLongBreak
}
