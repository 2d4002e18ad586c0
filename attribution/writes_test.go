package attribution_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/productivity-engine/attribution"
	"github.com/warp/productivity-engine/generic"
)

var writeClock = time.Date(2025, time.June, 15, 9, 0, 0, 0, time.UTC)

func fixedID(id string) func() string { return func() string { return id } }

func regionChange(newValue, effective string) attribution.ChangeRecord {
	return attribution.ChangeRecord{WorkerID: "w1", Field: attribution.FieldRegion, NewValue: newValue, EffectiveDate: d(effective)}
}

func TestPrepareChange_FillsDefaultsAndMovesCurrent(t *testing.T) {
	rec, worker, applied, err := attribution.PrepareChange(historyWorker(), nil, regionChange("apac", "2025-06-02"), writeClock, fixedID("c1"))
	require.NoError(t, err)

	assert.True(t, applied)
	assert.Equal(t, "c1", rec.ID)
	assert.Equal(t, "emea", rec.OldValue)
	assert.Equal(t, writeClock, rec.CreatedAt)
	assert.Equal(t, "apac", worker.RegionID)
}

func TestPrepareChange_FutureChange_KeepsCurrent(t *testing.T) {
	_, worker, applied, err := attribution.PrepareChange(historyWorker(), nil, regionChange("apac", "2025-07-01"), writeClock, fixedID("c1"))
	require.NoError(t, err)

	assert.False(t, applied)
	assert.Equal(t, "emea", worker.RegionID)
}

func TestPrepareChange_BackdatedBehindLaterChange(t *testing.T) {
	// GIVEN: A worker moved emea -> apac effective 2025-06-02
	// WHEN: A latam change effective 2025-03-03 is appended afterwards
	// THEN: Its old value is emea and the current region stays apac

	worker := historyWorker()
	first, worker, applied, err := attribution.PrepareChange(worker, nil, regionChange("apac", "2025-06-02"), writeClock, fixedID("c1"))
	require.NoError(t, err)
	require.True(t, applied)

	existing := []attribution.ChangeRecord{first}
	second, worker, applied, err := attribution.PrepareChange(worker, existing, regionChange("latam", "2025-03-03"),
		writeClock.Add(time.Minute), fixedID("c2"))
	require.NoError(t, err)

	assert.False(t, applied)
	assert.Equal(t, "emea", second.OldValue)
	assert.Equal(t, "apac", worker.RegionID)

	result, err := attribution.ResolveHistory(worker, attribution.FieldRegion,
		period("2025-01-06", "2025-01-12"), append(existing, second))
	require.NoError(t, err)
	require.Len(t, result.Periods, 1)
	assert.Equal(t, "emea", result.Periods[0].Value)
}

func TestPrepareChange_InsertedBetweenChanges_TakesValueBefore(t *testing.T) {
	// GIVEN: emea -> apac on 2025-02-03 and apac -> latam on 2025-05-05
	// WHEN: A change effective 2025-04-07 is appended without an old value
	// THEN: Its old value is apac, the value in force on 2025-04-06

	worker := historyWorker()
	worker.RegionID = "latam"
	existing := []attribution.ChangeRecord{
		{ID: "c2", WorkerID: "w1", Field: attribution.FieldRegion, OldValue: "apac", NewValue: "latam", EffectiveDate: d("2025-05-05")},
		{ID: "c1", WorkerID: "w1", Field: attribution.FieldRegion, OldValue: "emea", NewValue: "apac", EffectiveDate: d("2025-02-03")},
	}

	rec, worker, applied, err := attribution.PrepareChange(worker, existing, regionChange("amer", "2025-04-07"), writeClock, fixedID("c3"))
	require.NoError(t, err)

	assert.False(t, applied)
	assert.Equal(t, "apac", rec.OldValue)
	assert.Equal(t, "latam", worker.RegionID)
}

func TestPrepareChange_SameDayAsExisting_LatestWins(t *testing.T) {
	worker := historyWorker()
	worker.RegionID = "apac"
	existing := []attribution.ChangeRecord{{
		ID: "c1", WorkerID: "w1", Field: attribution.FieldRegion, OldValue: "emea", NewValue: "apac",
		EffectiveDate: d("2025-06-02"), CreatedAt: writeClock.Add(-time.Hour),
	}}

	rec, worker, applied, err := attribution.PrepareChange(worker, existing, regionChange("latam", "2025-06-02"), writeClock, fixedID("c2"))
	require.NoError(t, err)

	assert.True(t, applied)
	assert.Equal(t, "apac", rec.OldValue)
	assert.Equal(t, "latam", worker.RegionID)
}

func TestPrepareChange_InvalidInput(t *testing.T) {
	tests := []struct {
		name string
		rec  attribution.ChangeRecord
	}{
		{"unknown field", attribution.ChangeRecord{Field: "team", NewValue: "x", EffectiveDate: d("2025-03-03")}},
		{"no new value", attribution.ChangeRecord{Field: attribution.FieldRegion, EffectiveDate: d("2025-03-03")}},
		{"no effective date", attribution.ChangeRecord{Field: attribution.FieldRegion, NewValue: "apac"}},
		{"unknown status", attribution.ChangeRecord{Field: attribution.FieldWorkStatus, NewValue: "contractor", EffectiveDate: d("2025-03-03")}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, _, err := attribution.PrepareChange(historyWorker(), nil, tt.rec, writeClock, fixedID("c1"))
			assert.ErrorIs(t, err, generic.ErrInvalidInput)
		})
	}
}
