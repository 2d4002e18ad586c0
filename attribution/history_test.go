package attribution_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/productivity-engine/attribution"
	"github.com/warp/productivity-engine/generic"
)

var march = period("2025-03-03", "2025-03-30")

func historyWorker() attribution.Worker {
	return attribution.Worker{ID: "w1", WorkStatus: attribution.StatusFullTime, RegionID: "emea"}
}

func statusChange(id, oldValue, newValue, effective string) attribution.ChangeRecord {
	return attribution.ChangeRecord{
		ID:            id,
		WorkerID:      "w1",
		Field:         attribution.FieldWorkStatus,
		OldValue:      oldValue,
		NewValue:      newValue,
		EffectiveDate: d(effective),
	}
}

func TestResolveHistory_NoRecords_SinglePeriodWithCurrentValue(t *testing.T) {
	// GIVEN: A worker with no change records
	// WHEN: Resolving work status over March
	// THEN: One period covering the window with the current value

	result, err := attribution.ResolveHistory(historyWorker(), attribution.FieldWorkStatus, march, nil)
	require.NoError(t, err)

	require.Len(t, result.Periods, 1)
	assert.Equal(t, "full_time", result.Periods[0].Value)
	assert.Equal(t, march, result.Periods[0].Period)
	assert.Empty(t, result.Gaps)
}

func TestResolveHistory_ChangeInsideWindow_SplitsAtEffectiveDate(t *testing.T) {
	// GIVEN: part_time -> full_time effective 2025-03-17
	// WHEN: Resolving over 2025-03-03..2025-03-30
	// THEN: Two contiguous periods split the day before the change

	records := []attribution.ChangeRecord{statusChange("c1", "part_time", "full_time", "2025-03-17")}

	result, err := attribution.ResolveHistory(historyWorker(), attribution.FieldWorkStatus, march, records)
	require.NoError(t, err)

	require.Len(t, result.Periods, 2)
	assert.Equal(t, "part_time", result.Periods[0].Value)
	assert.Equal(t, period("2025-03-03", "2025-03-16"), result.Periods[0].Period)
	assert.Equal(t, "full_time", result.Periods[1].Value)
	assert.Equal(t, period("2025-03-17", "2025-03-30"), result.Periods[1].Period)
}

func TestResolveHistory_ChangeBeforeWindow_OnlyMovesBaseline(t *testing.T) {
	records := []attribution.ChangeRecord{statusChange("c1", "part_time", "full_time", "2025-01-06")}

	result, err := attribution.ResolveHistory(historyWorker(), attribution.FieldWorkStatus, march, records)
	require.NoError(t, err)

	require.Len(t, result.Periods, 1)
	assert.Equal(t, "full_time", result.Periods[0].Value)
}

func TestResolveHistory_ChangeOnWindowStart_NoEmptyLeadingPeriod(t *testing.T) {
	records := []attribution.ChangeRecord{statusChange("c1", "part_time", "full_time", "2025-03-03")}

	result, err := attribution.ResolveHistory(historyWorker(), attribution.FieldWorkStatus, march, records)
	require.NoError(t, err)

	require.Len(t, result.Periods, 1)
	assert.Equal(t, "full_time", result.Periods[0].Value)
	assert.Equal(t, march, result.Periods[0].Period)
}

func TestResolveHistory_ChangeAfterWindow_UsesHistoricalValue(t *testing.T) {
	// GIVEN: Worker is part-time today, but only since April
	// WHEN: Resolving March
	// THEN: March is full-time, not today's value

	worker := historyWorker()
	worker.WorkStatus = attribution.StatusPartTime
	records := []attribution.ChangeRecord{statusChange("c1", "full_time", "part_time", "2025-04-07")}

	result, err := attribution.ResolveHistory(worker, attribution.FieldWorkStatus, march, records)
	require.NoError(t, err)

	require.Len(t, result.Periods, 1)
	assert.Equal(t, "full_time", result.Periods[0].Value)
}

func TestResolveHistory_UnorderedRecordsAndOtherFields(t *testing.T) {
	records := []attribution.ChangeRecord{
		statusChange("c2", "part_time", "full_time", "2025-03-24"),
		{ID: "r1", WorkerID: "w1", Field: attribution.FieldRegion, OldValue: "emea", NewValue: "apac", EffectiveDate: d("2025-03-10")},
		statusChange("c1", "full_time", "part_time", "2025-03-10"),
	}

	result, err := attribution.ResolveHistory(historyWorker(), attribution.FieldWorkStatus, march, records)
	require.NoError(t, err)

	require.Len(t, result.Periods, 3)
	assert.Equal(t, []string{"full_time", "part_time", "full_time"},
		[]string{result.Periods[0].Value, result.Periods[1].Value, result.Periods[2].Value})
	assert.Equal(t, period("2025-03-10", "2025-03-23"), result.Periods[1].Period)
}

func TestResolveHistory_SameDayRecords_OrderedByCreatedAt(t *testing.T) {
	// GIVEN: Two corrections on the same effective date
	// THEN: The later-created record wins

	first := statusChange("b", "full_time", "part_time", "2025-03-17")
	first.CreatedAt = time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)
	second := statusChange("a", "part_time", "full_time", "2025-03-17")
	second.CreatedAt = time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)

	result, err := attribution.ResolveHistory(historyWorker(), attribution.FieldWorkStatus, march,
		[]attribution.ChangeRecord{second, first})
	require.NoError(t, err)

	require.Len(t, result.Periods, 1)
	assert.Equal(t, "full_time", result.Periods[0].Value)
}

func TestResolveHistory_AdjacentEqualValues_Merged(t *testing.T) {
	records := []attribution.ChangeRecord{statusChange("c1", "full_time", "full_time", "2025-03-17")}

	result, err := attribution.ResolveHistory(historyWorker(), attribution.FieldWorkStatus, march, records)
	require.NoError(t, err)

	require.Len(t, result.Periods, 1)
	assert.Equal(t, march, result.Periods[0].Period)
}

// =============================================================================
// DEGRADATION
// =============================================================================

func TestResolveHistory_RecordWithoutNewValue_SkippedAndReported(t *testing.T) {
	records := []attribution.ChangeRecord{statusChange("c1", "full_time", "", "2025-03-17")}

	result, err := attribution.ResolveHistory(historyWorker(), attribution.FieldWorkStatus, march, records)
	require.NoError(t, err)

	require.Len(t, result.Periods, 1)
	assert.Equal(t, "full_time", result.Periods[0].Value)
	require.Len(t, result.Gaps, 1)
	assert.ErrorIs(t, result.Gaps[0], generic.ErrDataGap)
}

func TestResolveHistory_UnknownBaseline_FilledWithCurrentValue(t *testing.T) {
	// GIVEN: The first record has no old value
	// WHEN: Resolving
	// THEN: The gap before it assumes the current value and is reported

	records := []attribution.ChangeRecord{statusChange("c1", "", "full_time", "2025-03-17")}

	result, err := attribution.ResolveHistory(historyWorker(), attribution.FieldWorkStatus, march, records)
	require.NoError(t, err)

	require.Len(t, result.Periods, 1)
	assert.Equal(t, march, result.Periods[0].Period)
	require.Len(t, result.Gaps, 1)
	assert.Equal(t, "full_time", result.Gaps[0].Assumed)
	assert.Equal(t, period("2025-03-03", "2025-03-16"), result.Gaps[0].Period)
}

func TestResolveHistory_NoValueAtAll_ReturnsDataGap(t *testing.T) {
	worker := historyWorker()
	worker.RegionID = ""

	_, err := attribution.ResolveHistory(worker, attribution.FieldRegion, march, nil)

	var gap *attribution.DataGapError
	require.ErrorAs(t, err, &gap)
	assert.ErrorIs(t, err, generic.ErrDataGap)
	assert.Equal(t, "w1", gap.WorkerID)
}

func TestResolveHistory_InvalidInputs(t *testing.T) {
	_, err := attribution.ResolveHistory(historyWorker(), attribution.Field("salary"), march, nil)
	assert.Error(t, err)

	_, err = attribution.ResolveHistory(historyWorker(), attribution.FieldRegion, period("2025-03-30", "2025-03-03"), nil)
	assert.ErrorIs(t, err, generic.ErrInvalidPeriod)
}

func TestClipPeriods(t *testing.T) {
	periods := []attribution.AttributePeriod{
		{Value: "emea", Period: period("2025-01-01", "2025-03-09")},
		{Value: "apac", Period: period("2025-03-10", "2025-12-31")},
	}

	clipped := attribution.ClipPeriods(periods, period("2025-03-03", "2025-03-16"))

	require.Len(t, clipped, 2)
	assert.Equal(t, period("2025-03-03", "2025-03-09"), clipped[0].Period)
	assert.Equal(t, period("2025-03-10", "2025-03-16"), clipped[1].Period)
	assert.Empty(t, attribution.ClipPeriods(periods, period("2026-01-05", "2026-01-11")))
}
