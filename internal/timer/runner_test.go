package timer

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"focustimer/backend/internal/model"
)

func TestRunner_CompletesCountdownAndReportsRun(t *testing.T) {
	engine := NewEngine(Durations{PomodoroSeconds: 1, ShortBreakSeconds: 300, LongBreakSeconds: 900})

	var mu sync.Mutex
	var gotStart *time.Time
	var gotMode string
	completed := make(chan struct{})

	runner := NewRunner(engine, 10*time.Millisecond, func(start *time.Time, mode string) {
		mu.Lock()
		gotStart = start
		gotMode = mode
		mu.Unlock()
		close(completed)
	})
	go runner.Run()
	defer runner.Stop()

	startedAt := time.Now()
	engine.Start(startedAt)

	select {
	case <-completed:
	case <-time.After(5 * time.Second):
		t.Fatal("countdown did not complete")
	}

	mu.Lock()
	defer mu.Unlock()
	require.NotNil(t, gotStart)
	assert.Equal(t, startedAt, *gotStart, "completion reports the original start time")
	assert.Equal(t, model.ModePomodoro, gotMode)

	snap := engine.Snapshot()
	assert.Equal(t, model.ModeShortBreak, snap.Mode)
	assert.Equal(t, 1, snap.PomodorosCompletedInCycle)
	assert.False(t, snap.IsActive)
}

func TestRunner_DoesNotTickIdleEngine(t *testing.T) {
	engine := NewEngine(testDurations())
	runner := NewRunner(engine, 10*time.Millisecond, nil)
	go runner.Run()

	time.Sleep(100 * time.Millisecond)
	runner.Stop()

	assert.Equal(t, 1500, engine.Snapshot().TimeLeftSeconds)
}

func TestRunner_StopIsIdempotent(t *testing.T) {
	engine := NewEngine(testDurations())
	runner := NewRunner(engine, 10*time.Millisecond, nil)
	go runner.Run()

	runner.Stop()
	runner.Stop()
}

func TestManager_FinishRecordsBeforeReset(t *testing.T) {
	var mu sync.Mutex
	var recordedStart *time.Time
	var recordedMode string
	var recordedCompleted bool
	calls := 0

	manager := NewManager(time.Hour, func(ctx context.Context, userID string, start *time.Time, mode string, completed bool) bool {
		mu.Lock()
		defer mu.Unlock()
		calls++
		recordedStart = start
		recordedMode = mode
		recordedCompleted = completed
		return true
	}, nil)
	defer manager.StopAll()

	startedAt := time.Now().Add(-10 * time.Minute)
	manager.Start("u1", startedAt)

	snap, recorded := manager.Finish(context.Background(), "u1")
	assert.True(t, recorded)

	mu.Lock()
	assert.Equal(t, 1, calls)
	require.NotNil(t, recordedStart, "recording sees the start time before the reset clears it")
	assert.Equal(t, startedAt, *recordedStart)
	assert.Equal(t, model.ModePomodoro, recordedMode)
	assert.False(t, recordedCompleted)
	mu.Unlock()

	assert.Nil(t, snap.SessionStart)
	assert.False(t, snap.IsActive)
}

func TestManager_CancelDiscardsSilently(t *testing.T) {
	calls := 0
	manager := NewManager(time.Hour, func(ctx context.Context, userID string, start *time.Time, mode string, completed bool) bool {
		calls++
		return true
	}, nil)
	defer manager.StopAll()

	manager.Start("u1", time.Now().Add(-5*time.Minute))
	snap := manager.Cancel("u1")

	assert.Zero(t, calls, "cancel must not invoke the recorder")
	assert.Nil(t, snap.SessionStart)
	assert.False(t, snap.IsActive)
}

func TestManager_EngineCreatedWithStoredDurations(t *testing.T) {
	manager := NewManager(time.Hour, nil, func(userID string) Durations {
		return Durations{PomodoroSeconds: 600, ShortBreakSeconds: 120, LongBreakSeconds: 240}
	})
	defer manager.StopAll()

	snap := manager.State("u1")
	assert.Equal(t, 600, snap.TimeLeftSeconds)
	assert.Equal(t, 600, snap.SessionDurationSeconds)
}

func TestManager_SlowDurationsLookupDoesNotBlockOtherUsers(t *testing.T) {
	release := make(chan struct{})
	manager := NewManager(time.Hour, nil, func(userID string) Durations {
		if userID == "slow" {
			<-release
		}
		return testDurations()
	})
	defer manager.StopAll()

	slowDone := make(chan struct{})
	go func() {
		manager.State("slow")
		close(slowDone)
	}()

	fastDone := make(chan struct{})
	go func() {
		manager.State("fast")
		close(fastDone)
	}()

	select {
	case <-fastDone:
	case <-time.After(2 * time.Second):
		t.Fatal("one user's durations lookup stalled another user's timer")
	}

	close(release)
	select {
	case <-slowDone:
	case <-time.After(2 * time.Second):
		t.Fatal("slow lookup never completed")
	}
}

func TestManager_ConcurrentStateCreatesOneEngine(t *testing.T) {
	manager := NewManager(time.Hour, nil, func(userID string) Durations {
		return testDurations()
	})
	defer manager.StopAll()

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			manager.State("u1")
		}()
	}
	wg.Wait()

	manager.mu.Lock()
	engines := len(manager.users)
	manager.mu.Unlock()
	assert.Equal(t, 1, engines)
}

func TestManager_ApplyPreferencesOnlyTouchesLiveEngines(t *testing.T) {
	manager := NewManager(time.Hour, nil, nil)
	defer manager.StopAll()

	// No engine yet: nothing to apply, and no engine should appear.
	manager.ApplyPreferences("ghost", Durations{PomodoroSeconds: 60}, false)
	manager.mu.Lock()
	_, ghostExists := manager.users["ghost"]
	manager.mu.Unlock()
	assert.False(t, ghostExists)

	manager.State("u1")
	manager.ApplyPreferences("u1", Durations{PomodoroSeconds: 60}, true)

	snap := manager.State("u1")
	assert.Equal(t, 60, snap.TimeLeftSeconds)
	assert.True(t, snap.AntiBurnIn)
}
