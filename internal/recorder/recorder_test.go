package recorder_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"focustimer/backend/internal/model"
	"focustimer/backend/internal/recorder"
	"focustimer/backend/internal/store"
	"focustimer/backend/internal/testutil"
)

type stubGate struct {
	registered bool
}

func (g stubGate) IsRegistered(ctx context.Context, userID string) bool {
	return g.registered
}

type fixture struct {
	recorder *recorder.Recorder
	records  *store.RecordRepository
	notifier *store.Notifier
	userID   string
	now      time.Time
}

func newFixture(t *testing.T, registered bool) fixture {
	t.Helper()

	database := testutil.NewTestDB(t)
	records := store.NewRecordRepository(database)
	users := store.NewUserRepository(database)
	notifier := store.NewNotifier()

	now := time.Date(2026, 8, 3, 14, 30, 0, 0, time.UTC)
	rec := recorder.New(records, users, stubGate{registered: registered}, notifier).
		WithClock(func() time.Time { return now })

	return fixture{
		recorder: rec,
		records:  records,
		notifier: notifier,
		userID:   testutil.CreateUser(t, database, "worker@example.com"),
		now:      now,
	}
}

func TestRecordSession_RejectsWithoutWriting(t *testing.T) {
	ctx := context.Background()

	t.Run("anonymous identity", func(t *testing.T) {
		f := newFixture(t, false)
		start := f.now.Add(-25 * time.Minute)
		assert.False(t, f.recorder.RecordSession(ctx, f.userID, &start, model.ModePomodoro, true))
		assertNoEntries(t, f)
	})

	t.Run("nil start time", func(t *testing.T) {
		f := newFixture(t, true)
		assert.False(t, f.recorder.RecordSession(ctx, f.userID, nil, model.ModePomodoro, true))
		assertNoEntries(t, f)
	})

	t.Run("break mode", func(t *testing.T) {
		f := newFixture(t, true)
		start := f.now.Add(-5 * time.Minute)
		assert.False(t, f.recorder.RecordSession(ctx, f.userID, &start, model.ModeShortBreak, true))
		assert.False(t, f.recorder.RecordSession(ctx, f.userID, &start, model.ModeLongBreak, false))
		assertNoEntries(t, f)
	})

	t.Run("trivial duration", func(t *testing.T) {
		f := newFixture(t, true)
		start := f.now.Add(-5 * time.Second)
		assert.False(t, f.recorder.RecordSession(ctx, f.userID, &start, model.ModePomodoro, false))
		assertNoEntries(t, f)
	})
}

func TestRecordSession_WritesAggregateAndEntry(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, true)

	events, dispose := f.notifier.Subscribe(f.userID)
	defer dispose()

	start := f.now.Add(-25 * time.Minute)
	require.True(t, f.recorder.RecordSession(ctx, f.userID, &start, model.ModePomodoro, true))

	date := f.now.Format(model.DateFormat)
	records, err := f.records.ListRecordsRange(ctx, f.userID, date, date)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.InDelta(t, 25.0, records[0].TotalFocusMinutes, 0.001)
	assert.Equal(t, 1, records[0].TotalPomos)

	entries, err := f.records.ListEntriesByDate(ctx, f.userID, date)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, start, entries[0].StartTime)
	assert.Equal(t, f.now, entries[0].EndTime)
	assert.Equal(t, model.ModePomodoro, entries[0].Type)
	assert.True(t, entries[0].Completed)

	select {
	case event := <-events:
		assert.Equal(t, store.ChangeRecords, event.Kind)
		assert.Equal(t, date, event.Date)
	case <-time.After(time.Second):
		t.Fatal("no change event published after recording")
	}
}

func TestRecordSession_AbandonedRunDoesNotCountPomo(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, true)

	start := f.now.Add(-10 * time.Minute)
	require.True(t, f.recorder.RecordSession(ctx, f.userID, &start, model.ModePomodoro, false))

	date := f.now.Format(model.DateFormat)
	records, err := f.records.ListRecordsRange(ctx, f.userID, date, date)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, 0, records[0].TotalPomos)
	assert.InDelta(t, 10.0, records[0].TotalFocusMinutes, 0.001)
}

func TestRecordSession_ConcurrentWritesMergeIntoAggregate(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, true)

	start5 := f.now.Add(-5 * time.Minute)
	start75 := f.now.Add(-7*time.Minute - 30*time.Second)

	var wg sync.WaitGroup
	results := make([]bool, 2)
	wg.Add(2)
	go func() {
		defer wg.Done()
		results[0] = f.recorder.RecordSession(ctx, f.userID, &start5, model.ModePomodoro, true)
	}()
	go func() {
		defer wg.Done()
		results[1] = f.recorder.RecordSession(ctx, f.userID, &start75, model.ModePomodoro, true)
	}()
	wg.Wait()

	assert.True(t, results[0])
	assert.True(t, results[1])

	date := f.now.Format(model.DateFormat)
	records, err := f.records.ListRecordsRange(ctx, f.userID, date, date)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.InDelta(t, 12.5, records[0].TotalFocusMinutes, 0.001)
	assert.Equal(t, 2, records[0].TotalPomos)

	entries, err := f.records.ListEntriesByDate(ctx, f.userID, date)
	require.NoError(t, err)
	assert.Len(t, entries, 2)
}

func TestRecordManual_Validation(t *testing.T) {
	ctx := context.Background()

	t.Run("anonymous identity", func(t *testing.T) {
		f := newFixture(t, false)
		apiErr := f.recorder.RecordManual(ctx, f.userID, f.now.Add(-2*time.Hour), 60)
		require.NotNil(t, apiErr)
		assert.Equal(t, "registration_required", apiErr.Code)
	})

	t.Run("duration out of range", func(t *testing.T) {
		f := newFixture(t, true)
		apiErr := f.recorder.RecordManual(ctx, f.userID, f.now.Add(-2*time.Hour), 0.5)
		require.NotNil(t, apiErr)
		assert.Equal(t, "invalid_duration", apiErr.Code)

		apiErr = f.recorder.RecordManual(ctx, f.userID, f.now.Add(-48*time.Hour), 1441)
		require.NotNil(t, apiErr)
		assert.Equal(t, "invalid_duration", apiErr.Code)
	})

	t.Run("end in the future", func(t *testing.T) {
		f := newFixture(t, true)
		apiErr := f.recorder.RecordManual(ctx, f.userID, f.now.Add(-10*time.Minute), 30)
		require.NotNil(t, apiErr)
		assert.Equal(t, "future_session", apiErr.Code)
	})
}

func TestRecordManual_WritesEntryWithManualType(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, true)

	start := f.now.Add(-3 * time.Hour)
	require.Nil(t, f.recorder.RecordManual(ctx, f.userID, start, 90))

	date := start.Format(model.DateFormat)
	entries, err := f.records.ListEntriesByDate(ctx, f.userID, date)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, model.EntryTypeManual, entries[0].Type)
	assert.True(t, entries[0].Completed)
	assert.InDelta(t, 90.0, entries[0].DurationMinutes, 0.001)

	records, err := f.records.ListRecordsRange(ctx, f.userID, date, date)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.InDelta(t, 90.0, records[0].TotalFocusMinutes, 0.001)
}

func assertNoEntries(t *testing.T, f fixture) {
	t.Helper()
	date := f.now.Format(model.DateFormat)
	entries, err := f.records.ListEntriesByDate(context.Background(), f.userID, date)
	require.NoError(t, err)
	assert.Empty(t, entries)
}
