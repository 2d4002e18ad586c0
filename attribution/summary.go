package attribution

import "github.com/shopspring/decimal"

// =============================================================================
// GROUP SUMMARY - Roll-up of report rows
// =============================================================================

// TierCounts counts workers per performance tier.
type TierCounts struct {
	Exceeded int
	Meet     int
	Below    int
}

func (tc *TierCounts) add(t Tier) {
	switch t {
	case TierExceeded:
		tc.Exceeded++
	case TierMeet:
		tc.Meet++
	default:
		tc.Below++
	}
}

// GroupSummary is the reduction of a set of rows. Totals are unrounded.
type GroupSummary struct {
	TotalUsers       int
	TotalBillable    decimal.Decimal
	TotalNonBillable decimal.Decimal
	TotalTarget      decimal.Decimal
	TotalNADCount    decimal.Decimal
	TotalNADHours    decimal.Decimal

	// AvgPerformance is sum(billable) / sum(target) * 100 over the group,
	// zero when the group has no target.
	AvgPerformance decimal.Decimal

	// Breakdown classifies each worker once, on the worker's own
	// sum(billable) / sum(target) across their rows in the group.
	Breakdown TierCounts
}

// Summarize reduces rows. A worker with two sub-period rows counts as one user.
func Summarize(rows []ReportRow, thresholds Thresholds) GroupSummary {
	summary := GroupSummary{
		TotalBillable:    decimal.Zero,
		TotalNonBillable: decimal.Zero,
		TotalTarget:      decimal.Zero,
		TotalNADCount:    decimal.Zero,
		TotalNADHours:    decimal.Zero,
		AvgPerformance:   decimal.Zero,
	}

	type workerTotals struct {
		billable decimal.Decimal
		target   decimal.Decimal
	}
	perWorker := make(map[string]*workerTotals)
	var order []string

	for _, r := range rows {
		summary.TotalBillable = summary.TotalBillable.Add(r.Billable)
		summary.TotalNonBillable = summary.TotalNonBillable.Add(r.NonBillable)
		summary.TotalTarget = summary.TotalTarget.Add(r.TargetTotal)
		summary.TotalNADCount = summary.TotalNADCount.Add(r.NADCount)
		summary.TotalNADHours = summary.TotalNADHours.Add(r.NADHours)

		wt, ok := perWorker[r.WorkerID]
		if !ok {
			wt = &workerTotals{billable: decimal.Zero, target: decimal.Zero}
			perWorker[r.WorkerID] = wt
			order = append(order, r.WorkerID)
		}
		wt.billable = wt.billable.Add(r.Billable)
		wt.target = wt.target.Add(r.TargetTotal)
	}

	summary.TotalUsers = len(order)
	for _, id := range order {
		wt := perWorker[id]
		summary.Breakdown.add(thresholds.Classify(wt.billable, wt.target).Tier)
	}
	summary.AvgPerformance = thresholds.Classify(summary.TotalBillable, summary.TotalTarget).Percentage
	return summary
}

// SplitByStatus splits rows into full-time and part-time cohorts by each
// row's own work status. Rows with an unrecognized status are in neither.
func SplitByStatus(rows []ReportRow) (fullTime, partTime []ReportRow) {
	for _, r := range rows {
		switch r.WorkStatus {
		case StatusFullTime:
			fullTime = append(fullTime, r)
		case StatusPartTime:
			partTime = append(partTime, r)
		}
	}
	return fullTime, partTime
}

// =============================================================================
// CATEGORY SUMMARY
// =============================================================================

// CategorySummary is one category's hours across a set of rows.
type CategorySummary struct {
	ID    string
	Name  string
	Hours decimal.Decimal
	Users int // workers with more than zero hours in the category

	// AvgHours is Hours / Users, zero when nobody logged time
	AvgHours decimal.Decimal
}

// SummarizeCategories reduces the row category lists, ordered by hours
// descending then id.
func SummarizeCategories(rows []ReportRow) []CategorySummary {
	totals := make(CategoryBreakdown)
	perWorker := make(map[string]CategoryBreakdown)

	for _, r := range rows {
		wb, ok := perWorker[r.WorkerID]
		if !ok {
			wb = make(CategoryBreakdown)
			perWorker[r.WorkerID] = wb
		}
		for _, c := range r.Categories {
			totals.add(c)
			wb.add(c)
		}
	}

	users := make(map[string]int)
	for _, wb := range perWorker {
		for id, c := range wb {
			if c.Hours.IsPositive() {
				users[id]++
			}
		}
	}

	sorted := totals.Sorted()
	out := make([]CategorySummary, 0, len(sorted))
	for _, c := range sorted {
		n := users[c.ID]
		avg := decimal.Zero
		if n > 0 {
			avg = c.Hours.Div(decimal.NewFromInt(int64(n)))
		}
		out = append(out, CategorySummary{ID: c.ID, Name: c.Name, Hours: c.Hours, Users: n, AvgHours: avg})
	}
	return out
}
