/*
row.go - One worker's report rows

PURPOSE:
  Composes the engine's pieces for a single worker and window:

    1. Resolve work-status history -> sub-periods, clipped to the
       days the worker was employed
    2. Resolve region history -> region label per sub-period
    3. Per sub-period: target hours, actual hours, NAD share, tier
    4. Merge the sub-period category breakdowns by category id

  A worker whose status never changed in the window gets exactly one row.
  A worker who changed status once gets two rows whose periods are
  contiguous and together cover the window (or the part of it between
  hire and end date). This is the point of the
  engine, not an edge case.

SEE ALSO:
  - engine.go: Runs Build for every worker concurrently
  - summary.go: Reduces rows into group totals
*/
package attribution

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/warp/productivity-engine/generic"
)

// ReportRow is one worker's figures for one work-status sub-period.
type ReportRow struct {
	WorkerID   string
	WorkerName string
	Email      string
	WorkStatus WorkStatus
	Region     string // predominant region inside Period
	Period     generic.Period
	Days       int

	Billable    decimal.Decimal
	NonBillable decimal.Decimal
	Total       decimal.Decimal
	EntryCount  int

	TargetTotal   decimal.Decimal
	TargetPerWeek decimal.Decimal
	PeriodWeeks   decimal.Decimal
	WeeklyTargets []WeeklyTarget

	NADCount decimal.Decimal
	NADHours decimal.Decimal

	Categories  []CategoryHours
	Performance Performance
}

// WorkerReport is everything Build produced for one worker.
type WorkerReport struct {
	Worker     Worker
	Region     string // predominant region over the whole window
	Rows       []ReportRow
	Categories CategoryBreakdown

	Gaps    []*DataGapError
	Missing []*ConfigurationMissingError
}

// RowBuilder builds report rows. All fields are required except Overrides.
type RowBuilder struct {
	History    HistorySource
	Overrides  OverrideSource
	Metrics    MetricsAggregator
	Rates      RateConfig
	Thresholds Thresholds
}

// Build computes worker's rows for window. leave may be nil (no leave data).
func (rb *RowBuilder) Build(ctx context.Context, worker Worker, window generic.Period, leave *LeaveResult) (*WorkerReport, error) {
	report := &WorkerReport{Worker: worker, Categories: make(CategoryBreakdown)}

	// 1. Work-status sub-periods
	statusRecords, err := rb.History.ChangeRecords(ctx, worker.ID, FieldWorkStatus)
	if err != nil {
		return nil, fmt.Errorf("loading work status history: %w", err)
	}
	statusHistory, err := ResolveHistory(worker, FieldWorkStatus, window, statusRecords)
	if err != nil {
		return nil, err
	}
	report.Gaps = append(report.Gaps, statusHistory.Gaps...)

	span, employed := worker.EmploymentSpan(window)
	if !employed {
		return report, nil
	}
	subPeriods := ClipPeriods(statusHistory.Periods, span)

	// 2. Region periods; a worker with no region at all is reported unassigned
	regionRecords, err := rb.History.ChangeRecords(ctx, worker.ID, FieldRegion)
	if err != nil {
		return nil, fmt.Errorf("loading region history: %w", err)
	}
	var regionPeriods []AttributePeriod
	regionHistory, err := ResolveHistory(worker, FieldRegion, window, regionRecords)
	if gap, ok := err.(*DataGapError); ok {
		report.Gaps = append(report.Gaps, gap)
	} else if err != nil {
		return nil, err
	} else {
		regionPeriods = regionHistory.Periods
		report.Gaps = append(report.Gaps, regionHistory.Gaps...)
	}
	report.Region, _ = Predominant(regionPeriods, span)

	var overrides []TargetOverride
	if rb.Overrides != nil {
		if overrides, err = rb.Overrides.TargetOverrides(ctx, worker.ID); err != nil {
			return nil, fmt.Errorf("loading target overrides: %w", err)
		}
	}
	targets := TargetCalculator{Rates: NewRateResolver(rb.Rates, worker.ID, overrides)}

	leaveCount := leave.CountFor(worker.Email)
	hourRate := decimal.Zero
	if leave != nil {
		hourRate = leave.HourRate
	}

	// 3. One row per sub-period
	for _, sub := range subPeriods {
		status, ok := ParseWorkStatus(sub.Value)
		if !ok {
			status = WorkStatus(sub.Value)
		}

		target := targets.Calculate(status, sub.Period)
		report.Missing = append(report.Missing, target.Missing...)

		metrics, categories, err := rb.Metrics.Aggregate(ctx, worker.ID, sub.Period)
		if err != nil {
			return nil, err
		}

		nad := AllocateNAD(leaveCount, hourRate, sub.Days(), span.Days())
		region, _ := Predominant(ClipPeriods(regionPeriods, sub.Period), sub.Period)

		report.Rows = append(report.Rows, ReportRow{
			WorkerID:      worker.ID,
			WorkerName:    worker.Name,
			Email:         worker.Email,
			WorkStatus:    status,
			Region:        region,
			Period:        sub.Period,
			Days:          sub.Days(),
			Billable:      metrics.Billable,
			NonBillable:   metrics.NonBillable,
			Total:         metrics.Total,
			EntryCount:    metrics.EntryCount,
			TargetTotal:   target.Total,
			TargetPerWeek: target.PerWeek,
			PeriodWeeks:   target.PeriodWeeks,
			WeeklyTargets: target.Weeks,
			NADCount:      nad.Count,
			NADHours:      nad.Hours,
			Categories:    categories.Sorted(),
			Performance:   rb.Thresholds.Classify(metrics.Billable, target.Total),
		})

		// 4. Merge by category id
		report.Categories.Merge(categories)
	}

	return report, nil
}
