package timer

import (
	"context"
	"sync"
	"time"
)

// RecordFunc persists one finished or abandoned run. It reports whether the
// session was durably recorded; the manager does not retry on false.
type RecordFunc func(ctx context.Context, userID string, start *time.Time, mode string, completed bool) bool

// DurationsFunc supplies the configured durations for a user, typically
// from their stored preferences.
type DurationsFunc func(userID string) Durations

type managed struct {
	engine *Engine
	runner *Runner
}

// Manager owns one engine per user for the lifetime of the process and
// wires countdown completion into session recording.
type Manager struct {
	mu        sync.Mutex
	users     map[string]*managed
	interval  time.Duration
	record    RecordFunc
	durations DurationsFunc
}

func NewManager(interval time.Duration, record RecordFunc, durations DurationsFunc) *Manager {
	return &Manager{
		users:     make(map[string]*managed),
		interval:  interval,
		record:    record,
		durations: durations,
	}
}

func (m *Manager) engineFor(userID string) *Engine {
	m.mu.Lock()
	if entry, ok := m.users[userID]; ok {
		m.mu.Unlock()
		return entry.engine
	}
	m.mu.Unlock()

	// The durations lookup may hit the database; it must not run under
	// the lock that every timer operation takes.
	d := DefaultDurations()
	if m.durations != nil {
		d = m.durations(userID)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	// A concurrent caller may have created the engine while the lock was
	// released; their engine wins.
	if entry, ok := m.users[userID]; ok {
		return entry.engine
	}

	engine := NewEngine(d)
	runner := NewRunner(engine, m.interval, func(start *time.Time, mode string) {
		if m.record != nil {
			m.record(context.Background(), userID, start, mode, true)
		}
	})
	m.users[userID] = &managed{engine: engine, runner: runner}
	go runner.Run()
	return engine
}

func (m *Manager) State(userID string) Snapshot {
	return m.engineFor(userID).Snapshot()
}

func (m *Manager) Start(userID string, now time.Time) Snapshot {
	engine := m.engineFor(userID)
	engine.Start(now)
	return engine.Snapshot()
}

func (m *Manager) Pause(userID string) Snapshot {
	engine := m.engineFor(userID)
	engine.Pause()
	return engine.Snapshot()
}

func (m *Manager) SetMode(userID, mode string) (Snapshot, bool) {
	engine := m.engineFor(userID)
	ok := engine.SetMode(mode)
	return engine.Snapshot(), ok
}

func (m *Manager) AddTime(userID string, deltaSeconds int) Snapshot {
	engine := m.engineFor(userID)
	engine.AddTime(deltaSeconds)
	return engine.Snapshot()
}

func (m *Manager) SubtractTime(userID string, deltaSeconds int) Snapshot {
	engine := m.engineFor(userID)
	engine.SubtractTime(deltaSeconds)
	return engine.Snapshot()
}

// Finish ends the current run early, recording the partial session before
// the engine resets. Recording failure still resets local state; a lost
// recording is accepted as best effort.
func (m *Manager) Finish(ctx context.Context, userID string) (Snapshot, bool) {
	engine := m.engineFor(userID)
	snap := engine.Snapshot()

	recorded := false
	if m.record != nil {
		engine.SetSaving(true)
		recorded = m.record(ctx, userID, snap.SessionStart, snap.Mode, false)
		engine.SetSaving(false)
	}

	engine.EndSession()
	return engine.Snapshot(), recorded
}

// Cancel discards the in-memory run without recording anything. This is
// the silent-discard path, distinct from Finish.
func (m *Manager) Cancel(userID string) Snapshot {
	engine := m.engineFor(userID)
	engine.EndSession()
	return engine.Snapshot()
}

// ApplyPreferences pushes stored preference changes into a live engine.
// Users without an engine are skipped; their engine picks the stored
// durations up on creation.
func (m *Manager) ApplyPreferences(userID string, d Durations, antiBurnIn bool) {
	m.mu.Lock()
	entry, ok := m.users[userID]
	m.mu.Unlock()
	if !ok {
		return
	}
	entry.engine.SetDurations(d)
	entry.engine.SetVisuals(antiBurnIn)
}

// StopAll tears down every runner. Engines are left intact for inspection
// but no longer tick.
func (m *Manager) StopAll() {
	m.mu.Lock()
	entries := make([]*managed, 0, len(m.users))
	for _, entry := range m.users {
		entries = append(entries, entry)
	}
	m.mu.Unlock()

	for _, entry := range entries {
		entry.runner.Stop()
	}
}
