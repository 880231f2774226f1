package prefs_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"focustimer/backend/internal/model"
	"focustimer/backend/internal/prefs"
	"focustimer/backend/internal/store"
	"focustimer/backend/internal/testutil"
	"focustimer/backend/internal/timer"
)

type stubGate struct {
	registered bool
}

func (g stubGate) IsRegistered(ctx context.Context, userID string) bool {
	return g.registered
}

func intPtr(v int) *int    { return &v }
func boolPtr(v bool) *bool { return &v }

func newService(t *testing.T, registered bool) (*prefs.Service, *timer.Manager, *store.Notifier, string) {
	t.Helper()

	database := testutil.NewTestDB(t)
	repo := store.NewPreferencesRepository(database)
	notifier := store.NewNotifier()
	timers := timer.NewManager(time.Hour, nil, nil)
	t.Cleanup(timers.StopAll)

	service := prefs.NewService(repo, stubGate{registered: registered}, notifier, timers)
	userID := testutil.CreateUser(t, database, "prefs@example.com")
	return service, timers, notifier, userID
}

func TestGet_DefaultsWhenMissing(t *testing.T) {
	service, _, _, userID := newService(t, true)

	preferences, apiErr := service.Get(context.Background(), userID)
	require.Nil(t, apiErr)
	assert.Equal(t, model.DefaultPomodoroDurationSeconds, preferences.PomodoroDurationSeconds)
	assert.Equal(t, model.DefaultShortBreakDurationSeconds, preferences.ShortBreakDurationSeconds)
	assert.Equal(t, int(time.Monday), preferences.WeekStartsOn)
	assert.False(t, preferences.AntiBurnIn)
}

func TestApply_RefusedForAnonymous(t *testing.T) {
	service, _, _, userID := newService(t, false)

	_, _, apiErr := service.Apply(context.Background(), userID, prefs.Update{
		PomodoroSeconds: intPtr(3000),
	})
	require.NotNil(t, apiErr)
	assert.Equal(t, "registration_required", apiErr.Code)
}

func TestApply_MergesPersistsAndPushesIntoEngine(t *testing.T) {
	service, timers, _, userID := newService(t, true)
	ctx := context.Background()

	// Materialize a live engine so the push has a target.
	timers.State(userID)

	merged, result, apiErr := service.Apply(ctx, userID, prefs.Update{
		PomodoroSeconds: intPtr(3000),
		AntiBurnIn:      boolPtr(true),
	})
	require.Nil(t, apiErr)
	assert.Equal(t, 3000, merged.PomodoroDurationSeconds)
	assert.Equal(t, model.DefaultShortBreakDurationSeconds, merged.ShortBreakDurationSeconds)
	assert.True(t, merged.AntiBurnIn)

	// The write settles on the result channel.
	select {
	case err := <-result:
		require.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("durable write did not settle")
	}

	stored, apiErr := service.Get(ctx, userID)
	require.Nil(t, apiErr)
	assert.Equal(t, 3000, stored.PomodoroDurationSeconds)
	assert.True(t, stored.AntiBurnIn)

	// The idle engine re-derived its countdown from the new duration.
	snap := timers.State(userID)
	assert.Equal(t, 3000, snap.TimeLeftSeconds)
	assert.True(t, snap.AntiBurnIn)
}

func TestApply_IgnoresInvalidFields(t *testing.T) {
	service, _, _, userID := newService(t, true)
	ctx := context.Background()

	merged, result, apiErr := service.Apply(ctx, userID, prefs.Update{
		PomodoroSeconds: intPtr(-5),
		WeekStartsOn:    intPtr(9),
	})
	require.Nil(t, apiErr)
	<-result

	assert.Equal(t, model.DefaultPomodoroDurationSeconds, merged.PomodoroDurationSeconds)
	assert.Equal(t, int(time.Monday), merged.WeekStartsOn)
}

func TestSubscribe_EmitsInitialSnapshotAndChanges(t *testing.T) {
	service, _, _, userID := newService(t, true)
	ctx := context.Background()

	snapshots, dispose := service.Subscribe(userID)
	defer dispose()

	select {
	case snapshot := <-snapshots:
		assert.Equal(t, model.DefaultPomodoroDurationSeconds, snapshot.PomodoroDurationSeconds)
	case <-time.After(time.Second):
		t.Fatal("no initial preference snapshot")
	}

	_, result, apiErr := service.Apply(ctx, userID, prefs.Update{PomodoroSeconds: intPtr(1800)})
	require.Nil(t, apiErr)
	require.NoError(t, <-result)

	select {
	case snapshot := <-snapshots:
		assert.Equal(t, 1800, snapshot.PomodoroDurationSeconds)
	case <-time.After(time.Second):
		t.Fatal("no snapshot after preference change")
	}
}

func TestSubscribe_DisposeEndsStream(t *testing.T) {
	service, _, _, userID := newService(t, true)

	snapshots, dispose := service.Subscribe(userID)

	select {
	case <-snapshots:
	case <-time.After(time.Second):
		t.Fatal("no initial preference snapshot")
	}

	dispose()
	select {
	case _, open := <-snapshots:
		assert.False(t, open)
	case <-time.After(time.Second):
		t.Fatal("stream did not close after dispose")
	}
}
