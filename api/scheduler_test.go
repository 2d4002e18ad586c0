package api

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/productivity-engine/attribution"
	"github.com/warp/productivity-engine/generic"
	"github.com/warp/productivity-engine/store/memory"
)

// Wednesday of the third scenario week
var schedulerNow = time.Date(2025, 3, 19, 9, 30, 0, 0, time.UTC)

func newTestScheduler(t *testing.T, source attribution.Store, runs attribution.RunStore) *ReportScheduler {
	t.Helper()
	cfg := attribution.DefaultConfig()
	cfg.Logger = quietLogger()
	engine := attribution.NewEngine(source, nil, cfg)
	return NewReportScheduler(engine, runs, quietLogger()).WithClock(func() time.Time { return schedulerNow })
}

type failingSource struct {
	*memory.Store
}

func (failingSource) ListWorkers(context.Context) ([]attribution.Worker, error) {
	return nil, errors.New("connection refused")
}

func TestLastClosedWeek(t *testing.T) {
	tests := []struct {
		name string
		now  time.Time
		want generic.Period
	}{
		{
			name: "midweek",
			now:  schedulerNow,
			want: generic.Period{Start: generic.MustParseDate("2025-03-10"), End: generic.MustParseDate("2025-03-16")},
		},
		{
			name: "monday",
			now:  time.Date(2025, 3, 17, 0, 5, 0, 0, time.UTC),
			want: generic.Period{Start: generic.MustParseDate("2025-03-10"), End: generic.MustParseDate("2025-03-16")},
		},
		{
			name: "sunday",
			now:  time.Date(2025, 3, 16, 23, 0, 0, 0, time.UTC),
			want: generic.Period{Start: generic.MustParseDate("2025-03-03"), End: generic.MustParseDate("2025-03-09")},
		},
		{
			name: "across a year boundary",
			now:  time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC),
			want: generic.Period{Start: generic.MustParseDate("2024-12-23"), End: generic.MustParseDate("2024-12-29")},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := LastClosedWeek(tt.now)
			assert.True(t, tt.want.Start.Equal(got.Start), "start: got %s", got.Start)
			assert.True(t, tt.want.End.Equal(got.End), "end: got %s", got.End)
		})
	}
}

func TestScheduler_RunNowRecordsClosedWeekOnce(t *testing.T) {
	// GIVEN: The status-change demo data and a clock in the third week
	// WHEN: RunNow is called twice
	// THEN: One completed run for 2025-03-10..16, the second call is a no-op

	ctx := context.Background()
	store := memory.New()
	require.NoError(t, LoadScenario(ctx, store, "status-change"))
	scheduler := newTestScheduler(t, store, store)

	run, err := scheduler.RunNow(ctx)
	require.NoError(t, err)
	require.NotNil(t, run)
	assert.Equal(t, attribution.RunCompleted, run.Status)
	assert.Equal(t, "2025-03-10", run.Window.Start.String())
	assert.Equal(t, "2025-03-16", run.Window.End.String())
	assert.Equal(t, 1, run.Users)
	assert.Equal(t, 1, run.Rows)
	assert.True(t, decimal.NewFromInt(100).Equal(run.AvgPerformance), run.AvgPerformance.String())
	require.NotNil(t, run.FinishedAt)

	again, err := scheduler.RunNow(ctx)
	require.NoError(t, err)
	assert.Nil(t, again)

	runs, err := store.ListReportRuns(ctx, 10)
	require.NoError(t, err)
	assert.Len(t, runs, 1)
}

func TestScheduler_FailedRunIsRetried(t *testing.T) {
	// GIVEN: A store whose worker listing fails
	// WHEN: RunNow runs, then runs again against a healthy store
	// THEN: The failure is recorded and the retry reuses the run id

	ctx := context.Background()
	store := memory.New()

	failing := newTestScheduler(t, failingSource{store}, store)
	run, err := failing.RunNow(ctx)
	require.Error(t, err)
	require.NotNil(t, run)
	assert.Equal(t, attribution.RunFailed, run.Status)
	assert.Contains(t, run.Error, "connection refused")

	healthy := newTestScheduler(t, store, store)
	retried, err := healthy.RunNow(ctx)
	require.NoError(t, err)
	require.NotNil(t, retried)
	assert.Equal(t, run.ID, retried.ID)
	assert.Equal(t, attribution.RunCompleted, retried.Status)
	assert.Empty(t, retried.Error)
}

func TestScheduler_StartStop(t *testing.T) {
	store := memory.New()
	scheduler := newTestScheduler(t, store, store)
	scheduler.CheckInterval = time.Hour

	scheduler.Start()
	scheduler.Stop()
	// second Stop is a no-op
	scheduler.Stop()

	assert.Equal(t, schedulerNow.Add(time.Hour), scheduler.NextRunTime())
}

func TestScheduler_RestartAfterStop(t *testing.T) {
	// GIVEN: A scheduler that was started and stopped once
	// WHEN: It is started again a week later
	// THEN: The new loop snapshots the next closed week, and Stop still returns

	ctx := context.Background()
	store := memory.New()
	scheduler := newTestScheduler(t, store, store)
	scheduler.CheckInterval = time.Hour

	countRuns := func() int {
		runs, err := store.ListReportRuns(ctx, 0)
		require.NoError(t, err)
		return len(runs)
	}

	scheduler.Start()
	require.Eventually(t, func() bool { return countRuns() == 1 }, time.Second, 10*time.Millisecond)
	scheduler.Stop()

	scheduler.WithClock(func() time.Time { return schedulerNow.AddDate(0, 0, 7) })
	scheduler.Start()
	require.Eventually(t, func() bool { return countRuns() == 2 }, time.Second, 10*time.Millisecond)
	scheduler.Stop()
	scheduler.Stop()
}

func TestScheduler_Disabled(t *testing.T) {
	store := memory.New()
	scheduler := newTestScheduler(t, store, store)
	scheduler.Enabled = false

	scheduler.Start()
	scheduler.Stop()

	runs, err := store.ListReportRuns(context.Background(), 0)
	require.NoError(t, err)
	assert.Empty(t, runs)
}
