package attribution_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/productivity-engine/attribution"
)

func row(workerID string, status attribution.WorkStatus, billable, target string, categories ...attribution.CategoryHours) attribution.ReportRow {
	return attribution.ReportRow{
		WorkerID:    workerID,
		WorkStatus:  status,
		Billable:    dec(billable),
		NonBillable: dec("1"),
		TargetTotal: dec(target),
		NADCount:    dec("1"),
		NADHours:    dec("8"),
		Categories:  categories,
	}
}

func category(id, hours string) attribution.CategoryHours {
	return attribution.CategoryHours{ID: id, Name: "Category " + id, Hours: dec(hours)}
}

func TestSummarize_Totals(t *testing.T) {
	rows := []attribution.ReportRow{
		row("w1", attribution.StatusFullTime, "35", "35"),
		row("w2", attribution.StatusFullTime, "40", "35"),
		row("w3", attribution.StatusPartTime, "10", "20"),
	}

	summary := attribution.Summarize(rows, attribution.DefaultThresholds())

	assert.Equal(t, 3, summary.TotalUsers)
	assertDecimal(t, "85", summary.TotalBillable)
	assertDecimal(t, "3", summary.TotalNonBillable)
	assertDecimal(t, "90", summary.TotalTarget)
	assertDecimal(t, "3", summary.TotalNADCount)
	assertDecimal(t, "24", summary.TotalNADHours)
	assert.Equal(t, "94.44", summary.AvgPerformance.Round(2).String())
	assert.Equal(t, attribution.TierCounts{Exceeded: 1, Meet: 1, Below: 1}, summary.Breakdown)
}

func TestSummarize_ZeroTarget_AverageIsZero(t *testing.T) {
	// GIVEN: A group whose total target is zero
	// THEN: avg_performance is 0, never NaN or a division panic

	rows := []attribution.ReportRow{row("w1", attribution.WorkStatus("contractor"), "12", "0")}

	summary := attribution.Summarize(rows, attribution.DefaultThresholds())

	assertDecimal(t, "0", summary.AvgPerformance)
	assert.Equal(t, 1, summary.Breakdown.Below)
}

func TestSummarize_Empty(t *testing.T) {
	summary := attribution.Summarize(nil, attribution.DefaultThresholds())

	assert.Equal(t, 0, summary.TotalUsers)
	assertDecimal(t, "0", summary.AvgPerformance)
	assert.Equal(t, attribution.TierCounts{}, summary.Breakdown)
}

func TestSummarize_WorkerWithTwoRows_CountedOnce(t *testing.T) {
	// GIVEN: w1 has a part-time and a full-time row
	// THEN: one user, classified on 108/110 combined (98.2% -> BELOW),
	//       not once per row

	rows := []attribution.ReportRow{
		row("w1", attribution.StatusPartTime, "40", "40"),
		row("w1", attribution.StatusFullTime, "68", "70"),
	}

	summary := attribution.Summarize(rows, attribution.DefaultThresholds())

	assert.Equal(t, 1, summary.TotalUsers)
	assert.Equal(t, attribution.TierCounts{Below: 1}, summary.Breakdown)
}

func TestSplitByStatus(t *testing.T) {
	rows := []attribution.ReportRow{
		row("w1", attribution.StatusPartTime, "40", "40"),
		row("w1", attribution.StatusFullTime, "70", "70"),
		row("w2", attribution.StatusFullTime, "35", "35"),
		row("w3", attribution.WorkStatus("contractor"), "1", "0"),
	}

	fullTime, partTime := attribution.SplitByStatus(rows)

	assert.Len(t, fullTime, 2)
	assert.Len(t, partTime, 1)
	assert.Equal(t, 2, attribution.Summarize(fullTime, attribution.DefaultThresholds()).TotalUsers)
}

func TestSummarizeCategories_SortedWithPerUserAverage(t *testing.T) {
	rows := []attribution.ReportRow{
		row("w1", attribution.StatusFullTime, "35", "35", category("dev", "20"), category("ops", "10")),
		row("w2", attribution.StatusFullTime, "35", "35", category("dev", "10"), category("ops", "0")),
		row("w1", attribution.StatusFullTime, "35", "35", category("meet", "30")),
	}

	summary := attribution.SummarizeCategories(rows)

	require.Len(t, summary, 3)

	// dev and meet tie at 30, ordered by id
	assert.Equal(t, "dev", summary[0].ID)
	assert.Equal(t, 2, summary[0].Users)
	assertDecimal(t, "15", summary[0].AvgHours)

	assert.Equal(t, "meet", summary[1].ID)
	assert.Equal(t, 1, summary[1].Users)
	assertDecimal(t, "30", summary[1].AvgHours)

	// w2 logged zero ops hours and is not counted
	assert.Equal(t, "ops", summary[2].ID)
	assert.Equal(t, 1, summary[2].Users)
	assertDecimal(t, "10", summary[2].AvgHours)
}

func TestCategoryBreakdown_MergeSumsByID(t *testing.T) {
	a := attribution.CategoryBreakdown{"dev": category("dev", "5")}
	b := attribution.CategoryBreakdown{"dev": category("dev", "2.5"), "qa": category("qa", "1")}

	a.Merge(b)

	sorted := a.Sorted()
	require.Len(t, sorted, 2)
	assert.Equal(t, "dev", sorted[0].ID)
	assertDecimal(t, "7.5", sorted[0].Hours)
}
