// Package timer holds the countdown state machine and the tick loop that
// drives it. The engine is pure state transitions; all timing comes from
// the Runner, all persistence from the caller.
package timer

import (
	"sync"
	"time"

	"focustimer/backend/internal/model"
)

type Durations struct {
	PomodoroSeconds   int `json:"pomodoroSeconds"`
	ShortBreakSeconds int `json:"shortBreakSeconds"`
	LongBreakSeconds  int `json:"longBreakSeconds"`
}

func DefaultDurations() Durations {
	return Durations{
		PomodoroSeconds:   model.DefaultPomodoroDurationSeconds,
		ShortBreakSeconds: model.DefaultShortBreakDurationSeconds,
		LongBreakSeconds:  model.DefaultLongBreakDurationSeconds,
	}
}

// Snapshot is the full observable timer state.
type Snapshot struct {
	Mode                      string     `json:"mode"`
	TimeLeftSeconds           int        `json:"timeLeftSeconds"`
	SessionDurationSeconds    int        `json:"sessionDurationSeconds"`
	IsActive                  bool       `json:"isActive"`
	SessionStart              *time.Time `json:"sessionStart,omitempty"`
	PomodorosCompletedInCycle int        `json:"pomodorosCompletedInCycle"`
	Durations                 Durations  `json:"durations"`
	AntiBurnIn                bool       `json:"antiBurnIn"`
	IsSaving                  bool       `json:"isSaving"`
}

// Engine owns one user's countdown state. Every operation is a total
// function: no call can fail, and TimeLeftSeconds never goes negative.
type Engine struct {
	mu sync.Mutex
	s  Snapshot
}

func NewEngine(durations Durations) *Engine {
	return &Engine{
		s: Snapshot{
			Mode:                   model.ModePomodoro,
			TimeLeftSeconds:        durations.PomodoroSeconds,
			SessionDurationSeconds: durations.PomodoroSeconds,
			Durations:              durations,
		},
	}
}

// Snapshot returns a copy of the current state.
func (e *Engine) Snapshot() Snapshot {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.copyState()
}

func (e *Engine) copyState() Snapshot {
	s := e.s
	if e.s.SessionStart != nil {
		start := *e.s.SessionStart
		s.SessionStart = &start
	}
	return s
}

// SetMode switches to a new mode and resets the countdown to that mode's
// configured duration. Mode changes while running are ignored; switching
// modes on a live countdown is the caller's bug, and silently resetting
// the clock underneath a run would be worse than refusing.
func (e *Engine) SetMode(mode string) bool {
	if !model.IsValidMode(mode) {
		return false
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if e.s.IsActive {
		return false
	}

	e.s.Mode = mode
	duration := e.durationFor(mode)
	e.s.TimeLeftSeconds = duration
	e.s.SessionDurationSeconds = duration
	e.s.SessionStart = nil
	return true
}

// Start begins or resumes the countdown. The session start time is set only
// if it is currently nil: resuming a paused run must keep the original
// start, since recorded duration is derived from wall-clock elapsed time.
func (e *Engine) Start(now time.Time) {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.s.IsActive = true
	if e.s.SessionStart == nil {
		start := now
		e.s.SessionStart = &start
	}
}

// Pause stops the countdown without ending the run; the session start time
// is kept so the run stays resumable.
func (e *Engine) Pause() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.s.IsActive = false
}

// Tick advances the countdown by elapsedSeconds, floored at zero, and
// returns the remaining seconds. Idle engines do not tick.
func (e *Engine) Tick(elapsedSeconds int) int {
	e.mu.Lock()
	defer e.mu.Unlock()

	if !e.s.IsActive || elapsedSeconds <= 0 {
		return e.s.TimeLeftSeconds
	}

	e.s.TimeLeftSeconds -= elapsedSeconds
	if e.s.TimeLeftSeconds < 0 {
		e.s.TimeLeftSeconds = 0
	}
	return e.s.TimeLeftSeconds
}

// AddTime extends both the remaining time and the session duration so the
// elapsed = duration - timeLeft relationship keeps holding.
func (e *Engine) AddTime(deltaSeconds int) {
	if deltaSeconds <= 0 {
		return
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	e.s.TimeLeftSeconds += deltaSeconds
	e.s.SessionDurationSeconds += deltaSeconds
}

// SubtractTime shortens both the remaining time and the session duration,
// each floored at zero independently.
func (e *Engine) SubtractTime(deltaSeconds int) {
	if deltaSeconds <= 0 {
		return
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	e.s.TimeLeftSeconds -= deltaSeconds
	if e.s.TimeLeftSeconds < 0 {
		e.s.TimeLeftSeconds = 0
	}
	e.s.SessionDurationSeconds -= deltaSeconds
	if e.s.SessionDurationSeconds < 0 {
		e.s.SessionDurationSeconds = 0
	}
}

// CompleteCycle transitions out of a finished run. A completed pomodoro
// increments the cycle counter and earns a long break every fourth time; a
// finished break returns to pomodoro. The new mode always starts idle.
func (e *Engine) CompleteCycle() Snapshot {
	e.mu.Lock()
	defer e.mu.Unlock()

	var next string
	if e.s.Mode == model.ModePomodoro {
		e.s.PomodorosCompletedInCycle++
		if e.s.PomodorosCompletedInCycle%model.PomodorosPerCycle == 0 {
			next = model.ModeLongBreak
		} else {
			next = model.ModeShortBreak
		}
	} else {
		next = model.ModePomodoro
	}

	e.s.Mode = next
	duration := e.durationFor(next)
	e.s.TimeLeftSeconds = duration
	e.s.SessionDurationSeconds = duration
	e.s.IsActive = false
	e.s.SessionStart = nil
	return e.copyState()
}

// EndSession resets to the idle state for the current mode without touching
// the cycle counter. The caller must record the partial session first:
// this clears the session start time, the only source of elapsed time.
func (e *Engine) EndSession() {
	e.mu.Lock()
	defer e.mu.Unlock()

	duration := e.durationFor(e.s.Mode)
	e.s.TimeLeftSeconds = duration
	e.s.SessionDurationSeconds = duration
	e.s.IsActive = false
	e.s.SessionStart = nil
}

// SetDurations updates the configured durations. Zero fields are left
// unchanged. When idle, the current mode's countdown is re-derived
// immediately so the change is visible without a mode switch.
func (e *Engine) SetDurations(d Durations) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if d.PomodoroSeconds > 0 {
		e.s.Durations.PomodoroSeconds = d.PomodoroSeconds
	}
	if d.ShortBreakSeconds > 0 {
		e.s.Durations.ShortBreakSeconds = d.ShortBreakSeconds
	}
	if d.LongBreakSeconds > 0 {
		e.s.Durations.LongBreakSeconds = d.LongBreakSeconds
	}

	if !e.s.IsActive {
		duration := e.durationFor(e.s.Mode)
		e.s.TimeLeftSeconds = duration
		e.s.SessionDurationSeconds = duration
	}
}

// SetVisuals updates display preferences that ride along with timer state.
func (e *Engine) SetVisuals(antiBurnIn bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.s.AntiBurnIn = antiBurnIn
}

// SetSaving flags an in-flight session-recording transaction.
func (e *Engine) SetSaving(saving bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.s.IsSaving = saving
}

func (e *Engine) durationFor(mode string) int {
	switch mode {
	case model.ModeShortBreak:
		return e.s.Durations.ShortBreakSeconds
	case model.ModeLongBreak:
		return e.s.Durations.LongBreakSeconds
	default:
		return e.s.Durations.PomodoroSeconds
	}
}
