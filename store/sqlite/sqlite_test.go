package sqlite_test

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/productivity-engine/attribution"
	"github.com/warp/productivity-engine/generic"
	"github.com/warp/productivity-engine/store/sqlite"
)

var clock = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

func newStore(t *testing.T) *sqlite.Store {
	t.Helper()
	store, err := sqlite.New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store.WithClock(func() time.Time { return clock })
}

func date(s string) generic.TimePoint { return generic.MustParseDate(s) }

func saveWorker(t *testing.T, store *sqlite.Store, id string) {
	t.Helper()
	hire := date("2024-01-08")
	require.NoError(t, store.SaveWorker(context.Background(), attribution.Worker{
		ID:         id,
		Name:       "Worker " + id,
		Email:      " " + id + "@Example.com",
		WorkStatus: "Full-time",
		RegionID:   "emea",
		HireDate:   &hire,
	}))
}

func TestSQLiteStore_Workers(t *testing.T) {
	store := newStore(t)
	ctx := context.Background()

	saveWorker(t, store, "w2")
	saveWorker(t, store, "w1")

	w, err := store.GetWorker(ctx, "w1")
	require.NoError(t, err)
	assert.Equal(t, attribution.StatusFullTime, w.WorkStatus)
	assert.Equal(t, "w1@example.com", w.Email)
	require.NotNil(t, w.HireDate)
	assert.Equal(t, date("2024-01-08"), *w.HireDate)
	assert.Nil(t, w.EndDate)

	workers, err := store.ListWorkers(ctx)
	require.NoError(t, err)
	require.Len(t, workers, 2)
	assert.Equal(t, "w1", workers[0].ID)
	assert.Equal(t, "w2", workers[1].ID)

	_, err = store.GetWorker(ctx, "missing")
	assert.ErrorIs(t, err, generic.ErrEntityNotFound)
}

func TestSQLiteStore_SaveWorkerRejectsUnknownStatus(t *testing.T) {
	store := newStore(t)

	err := store.SaveWorker(context.Background(), attribution.Worker{ID: "w1", WorkStatus: "contractor"})

	assert.ErrorIs(t, err, generic.ErrInvalidInput)
}

func TestSQLiteStore_AppendChange(t *testing.T) {
	// GIVEN: A full-time worker in emea
	// WHEN: A past region change and a future status change are appended
	// THEN: Both are logged, only the past one moves the current state

	store := newStore(t)
	ctx := context.Background()
	saveWorker(t, store, "w1")

	past, err := store.AppendChange(ctx, attribution.ChangeRecord{
		WorkerID:      "w1",
		Field:         attribution.FieldRegion,
		NewValue:      "apac",
		EffectiveDate: date("2025-03-17"),
		Reason:        "relocation",
	})
	require.NoError(t, err)
	assert.NotEmpty(t, past.ID)
	assert.Equal(t, "emea", past.OldValue)

	_, err = store.AppendChange(ctx, attribution.ChangeRecord{
		WorkerID:      "w1",
		Field:         attribution.FieldWorkStatus,
		NewValue:      "PT",
		EffectiveDate: date("2025-09-01"),
	})
	require.NoError(t, err)

	w, err := store.GetWorker(ctx, "w1")
	require.NoError(t, err)
	assert.Equal(t, "apac", w.RegionID)
	assert.Equal(t, attribution.StatusFullTime, w.WorkStatus)

	regions, err := store.ChangeRecords(ctx, "w1", attribution.FieldRegion)
	require.NoError(t, err)
	require.Len(t, regions, 1)
	assert.Equal(t, date("2025-03-17"), regions[0].EffectiveDate)
	assert.Equal(t, "relocation", regions[0].Reason)
	assert.Equal(t, "apac", regions[0].NewValue)

	statuses, err := store.ChangeRecords(ctx, "w1", attribution.FieldWorkStatus)
	require.NoError(t, err)
	require.Len(t, statuses, 1)
	assert.Equal(t, "part_time", statuses[0].NewValue)
	assert.Equal(t, "full_time", statuses[0].OldValue)
}

func TestSQLiteStore_AppendChangeOutOfOrder(t *testing.T) {
	// GIVEN: A worker created in emea, moved to apac effective 2025-05-05
	// WHEN: A latam change effective 2025-03-03 is appended afterwards
	// THEN: January still resolves to emea and the current region stays apac

	store := newStore(t)
	ctx := context.Background()
	saveWorker(t, store, "w1")

	_, err := store.AppendChange(ctx, attribution.ChangeRecord{
		WorkerID:      "w1",
		Field:         attribution.FieldRegion,
		NewValue:      "apac",
		EffectiveDate: date("2025-05-05"),
	})
	require.NoError(t, err)

	backdated, err := store.AppendChange(ctx, attribution.ChangeRecord{
		WorkerID:      "w1",
		Field:         attribution.FieldRegion,
		NewValue:      "latam",
		EffectiveDate: date("2025-03-03"),
	})
	require.NoError(t, err)
	assert.Equal(t, "emea", backdated.OldValue)

	w, err := store.GetWorker(ctx, "w1")
	require.NoError(t, err)
	assert.Equal(t, "apac", w.RegionID)

	records, err := store.ChangeRecords(ctx, "w1", attribution.FieldRegion)
	require.NoError(t, err)
	require.Len(t, records, 2)

	january := generic.Period{Start: date("2025-01-06"), End: date("2025-01-26")}
	result, err := attribution.ResolveHistory(w, attribution.FieldRegion, january, records)
	require.NoError(t, err)
	require.Len(t, result.Periods, 1)
	assert.Equal(t, "emea", result.Periods[0].Value)
}

func TestSQLiteStore_AppendChangeUnknownWorker(t *testing.T) {
	store := newStore(t)

	_, err := store.AppendChange(context.Background(), attribution.ChangeRecord{
		WorkerID:      "ghost",
		Field:         attribution.FieldRegion,
		NewValue:      "apac",
		EffectiveDate: date("2025-03-17"),
	})

	assert.ErrorIs(t, err, generic.ErrEntityNotFound)
}

func TestSQLiteStore_ChangeRecordsOrderedByEffectiveDate(t *testing.T) {
	store := newStore(t)
	ctx := context.Background()
	saveWorker(t, store, "w1")

	for _, effective := range []string{"2025-04-07", "2025-02-03", "2025-03-03"} {
		_, err := store.AppendChange(ctx, attribution.ChangeRecord{
			WorkerID:      "w1",
			Field:         attribution.FieldRegion,
			NewValue:      "r-" + effective,
			EffectiveDate: date(effective),
		})
		require.NoError(t, err)
	}

	records, err := store.ChangeRecords(ctx, "w1", attribution.FieldRegion)
	require.NoError(t, err)
	require.Len(t, records, 3)
	assert.Equal(t, date("2025-02-03"), records[0].EffectiveDate)
	assert.Equal(t, date("2025-03-03"), records[1].EffectiveDate)
	assert.Equal(t, date("2025-04-07"), records[2].EffectiveDate)
}

func TestSQLiteStore_Overrides(t *testing.T) {
	store := newStore(t)
	ctx := context.Background()
	saveWorker(t, store, "w1")

	to := date("2025-06-29")
	saved, err := store.SaveOverride(ctx, attribution.TargetOverride{
		WorkerID:      "w1",
		WorkStatus:    "FT",
		WeeklyHours:   decimal.RequireFromString("37.5"),
		EffectiveFrom: date("2025-01-06"),
		EffectiveTo:   &to,
	})
	require.NoError(t, err)
	assert.NotEmpty(t, saved.ID)

	overrides, err := store.TargetOverrides(ctx, "w1")
	require.NoError(t, err)
	require.Len(t, overrides, 1)
	assert.Equal(t, attribution.StatusFullTime, overrides[0].WorkStatus)
	assert.Equal(t, "37.5", overrides[0].WeeklyHours.String())
	require.NotNil(t, overrides[0].EffectiveTo)
	assert.Equal(t, to, *overrides[0].EffectiveTo)

	// Same ID replaces
	saved.WeeklyHours = decimal.NewFromInt(40)
	_, err = store.SaveOverride(ctx, saved)
	require.NoError(t, err)

	overrides, err = store.TargetOverrides(ctx, "w1")
	require.NoError(t, err)
	require.Len(t, overrides, 1)
	assert.Equal(t, "40", overrides[0].WeeklyHours.String())
}

func TestSQLiteStore_DailySummaries(t *testing.T) {
	store := newStore(t)
	ctx := context.Background()

	days := []attribution.DailySummary{
		{WorkerID: "w1", Date: date("2025-03-04"), Billable: decimal.RequireFromString("6.5"), NonBillable: decimal.NewFromInt(1), EntryCount: 3,
			Categories: []attribution.CategoryHours{
				{ID: "dev", Name: "Development", Hours: decimal.NewFromInt(5)},
				{ID: "mtg", Name: "Meetings", Hours: decimal.RequireFromString("2.5")},
			}},
		{WorkerID: "w1", Date: date("2025-03-03"), Billable: decimal.NewFromInt(7), NonBillable: decimal.Zero, EntryCount: 2},
		{WorkerID: "w1", Date: date("2025-03-10"), Billable: decimal.NewFromInt(8), NonBillable: decimal.Zero, EntryCount: 1},
		{WorkerID: "w2", Date: date("2025-03-04"), Billable: decimal.NewFromInt(4), NonBillable: decimal.Zero, EntryCount: 1},
	}
	for _, ds := range days {
		require.NoError(t, store.SaveDailySummary(ctx, ds))
	}

	got, err := store.DailySummaries(ctx, "w1", date("2025-03-03"), date("2025-03-09"))
	require.NoError(t, err)
	require.Len(t, got, 2)

	assert.Equal(t, date("2025-03-03"), got[0].Date)
	assert.Empty(t, got[0].Categories)

	assert.Equal(t, date("2025-03-04"), got[1].Date)
	assert.Equal(t, "6.5", got[1].Billable.String())
	assert.Equal(t, 3, got[1].EntryCount)
	require.Len(t, got[1].Categories, 2)
	assert.Equal(t, "dev", got[1].Categories[0].ID)
	assert.Equal(t, "2.5", got[1].Categories[1].Hours.String())
}

func TestSQLiteStore_SaveDailySummaryReplacesDay(t *testing.T) {
	store := newStore(t)
	ctx := context.Background()

	first := attribution.DailySummary{WorkerID: "w1", Date: date("2025-03-04"), Billable: decimal.NewFromInt(3),
		Categories: []attribution.CategoryHours{{ID: "dev", Hours: decimal.NewFromInt(3)}}}
	second := attribution.DailySummary{WorkerID: "w1", Date: date("2025-03-04"), Billable: decimal.NewFromInt(5),
		Categories: []attribution.CategoryHours{
			{ID: "ops", Hours: decimal.NewFromInt(2)},
			{ID: "ops", Hours: decimal.NewFromInt(3)},
		}}
	require.NoError(t, store.SaveDailySummary(ctx, first))
	require.NoError(t, store.SaveDailySummary(ctx, second))

	got, err := store.DailySummaries(ctx, "w1", date("2025-03-04"), date("2025-03-04"))
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "5", got[0].Billable.String())
	require.Len(t, got[0].Categories, 1)
	assert.Equal(t, "ops", got[0].Categories[0].ID)
	assert.Equal(t, "5", got[0].Categories[0].Hours.String())
}

func TestSQLiteStore_ReportRuns(t *testing.T) {
	store := newStore(t)
	ctx := context.Background()

	week := generic.Period{Start: date("2025-03-03"), End: date("2025-03-09")}
	run := attribution.ReportRun{
		ID:        "run-1",
		Window:    week,
		Mode:      attribution.ModeWeekly,
		GroupBy:   attribution.GroupByRegion,
		Status:    attribution.RunRunning,
		StartedAt: clock,
	}
	require.NoError(t, store.SaveReportRun(ctx, run))

	found, err := store.FindReportRun(ctx, week, attribution.ModeWeekly, attribution.GroupByRegion)
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, attribution.RunRunning, found.Status)
	assert.Nil(t, found.FinishedAt)

	finished := clock.Add(time.Minute)
	run.Status = attribution.RunCompleted
	run.FinishedAt = &finished
	run.Users = 4
	run.AvgPerformance = decimal.RequireFromString("97.25")
	run.LeaveDegraded = true
	require.NoError(t, store.SaveReportRun(ctx, run))

	found, err = store.FindReportRun(ctx, week, attribution.ModeWeekly, attribution.GroupByRegion)
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, attribution.RunCompleted, found.Status)
	require.NotNil(t, found.FinishedAt)
	assert.True(t, finished.Equal(*found.FinishedAt))
	assert.Equal(t, 4, found.Users)
	assert.Equal(t, "97.25", found.AvgPerformance.String())
	assert.True(t, found.LeaveDegraded)

	missing, err := store.FindReportRun(ctx, week, attribution.ModeWeekly, attribution.GroupByOverall)
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestSQLiteStore_ListReportRunsNewestFirst(t *testing.T) {
	store := newStore(t)
	ctx := context.Background()

	start := date("2025-03-03")
	for i := 0; i < 3; i++ {
		week := generic.Period{Start: start.AddDays(7 * i), End: start.AddDays(7*i + 6)}
		require.NoError(t, store.SaveReportRun(ctx, attribution.ReportRun{
			ID:        week.Start.String(),
			Window:    week,
			Mode:      attribution.ModeWeekly,
			GroupBy:   attribution.GroupByRegion,
			Status:    attribution.RunCompleted,
			StartedAt: clock.Add(time.Duration(i) * time.Hour),
		}))
	}

	runs, err := store.ListReportRuns(ctx, 2)
	require.NoError(t, err)
	require.Len(t, runs, 2)
	assert.Equal(t, "2025-03-17", runs[0].ID)
	assert.Equal(t, "2025-03-10", runs[1].ID)

	all, err := store.ListReportRuns(ctx, 0)
	require.NoError(t, err)
	assert.Len(t, all, 3)
}

func TestSQLiteStore_DrivesEngine(t *testing.T) {
	// GIVEN: A worker who moved from part-time to full-time mid-window,
	//        persisted in SQLite
	// WHEN: A weekly report is generated from the store
	// THEN: Two rows split at the change date

	store := newStore(t)
	ctx := context.Background()
	require.NoError(t, store.SaveWorker(ctx, attribution.Worker{
		ID: "w1", Email: "w1@example.com", WorkStatus: attribution.StatusPartTime, RegionID: "emea",
	}))
	_, err := store.AppendChange(ctx, attribution.ChangeRecord{
		WorkerID:      "w1",
		Field:         attribution.FieldWorkStatus,
		OldValue:      "part_time",
		NewValue:      "full_time",
		EffectiveDate: date("2025-03-17"),
	})
	require.NoError(t, err)

	cfg := attribution.DefaultConfig()
	engine := attribution.NewEngine(store, nil, cfg)

	report, err := engine.Report(ctx, attribution.ReportRequest{
		Window:  generic.Period{Start: date("2025-03-03"), End: date("2025-03-30")},
		Mode:    attribution.ModeWeekly,
		GroupBy: attribution.GroupByRegion,
	})
	require.NoError(t, err)
	require.Len(t, report.Rows, 2)
	assert.Equal(t, "part_time", string(report.Rows[0].WorkStatus))
	assert.True(t, decimal.NewFromInt(40).Equal(report.Rows[0].TargetTotal), "got %s", report.Rows[0].TargetTotal)
	assert.Equal(t, "full_time", string(report.Rows[1].WorkStatus))
	assert.True(t, decimal.NewFromInt(70).Equal(report.Rows[1].TargetTotal), "got %s", report.Rows[1].TargetTotal)
}
