package attribution

import (
	"context"
	"fmt"
	"sort"

	"github.com/shopspring/decimal"
	"github.com/warp/productivity-engine/generic"
)

// =============================================================================
// DAILY METRICS - Sums of upstream daily summaries over a range
// =============================================================================

// DailyMetrics is the actual time logged by a worker over a range.
type DailyMetrics struct {
	Billable    decimal.Decimal
	NonBillable decimal.Decimal
	Total       decimal.Decimal
	EntryCount  int
}

// CategoryBreakdown maps category id to the hours logged against it.
type CategoryBreakdown map[string]CategoryHours

// Merge adds other into cb, summing hours by category id.
func (cb CategoryBreakdown) Merge(other CategoryBreakdown) {
	for id, c := range other {
		cb.add(c.withID(id))
	}
}

func (cb CategoryBreakdown) add(c CategoryHours) {
	existing, ok := cb[c.ID]
	if !ok {
		cb[c.ID] = c
		return
	}
	existing.Hours = existing.Hours.Add(c.Hours)
	if existing.Name == "" {
		existing.Name = c.Name
	}
	cb[c.ID] = existing
}

func (c CategoryHours) withID(id string) CategoryHours {
	if c.ID == "" {
		c.ID = id
	}
	return c
}

// Sorted returns the categories ordered by hours descending, then id.
func (cb CategoryBreakdown) Sorted() []CategoryHours {
	out := make([]CategoryHours, 0, len(cb))
	for id, c := range cb {
		out = append(out, c.withID(id))
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].Hours.Equal(out[j].Hours) {
			return out[i].Hours.GreaterThan(out[j].Hours)
		}
		return out[i].ID < out[j].ID
	})
	return out
}

// MetricsAggregator reads daily summaries and sums them. It applies no
// business rules; days with no summary contribute zero.
type MetricsAggregator struct {
	Source DailySummarySource
}

// Aggregate sums the worker's summaries for every day of period.
func (ma MetricsAggregator) Aggregate(ctx context.Context, workerID string, period generic.Period) (DailyMetrics, CategoryBreakdown, error) {
	summaries, err := ma.Source.DailySummaries(ctx, workerID, period.Start, period.End)
	if err != nil {
		return DailyMetrics{}, nil, fmt.Errorf("loading daily summaries for %s %s: %w", workerID, period, err)
	}
	metrics, categories := SumDailySummaries(summaries, period)
	return metrics, categories, nil
}

// SumDailySummaries sums the summaries whose date falls inside period.
func SumDailySummaries(summaries []DailySummary, period generic.Period) (DailyMetrics, CategoryBreakdown) {
	metrics := DailyMetrics{
		Billable:    decimal.Zero,
		NonBillable: decimal.Zero,
		Total:       decimal.Zero,
	}
	categories := make(CategoryBreakdown)

	for _, s := range summaries {
		if !period.Contains(s.Date) {
			continue
		}
		metrics.Billable = metrics.Billable.Add(s.Billable)
		metrics.NonBillable = metrics.NonBillable.Add(s.NonBillable)
		metrics.EntryCount += s.EntryCount
		for _, c := range s.Categories {
			categories.add(c)
		}
	}
	metrics.Total = metrics.Billable.Add(metrics.NonBillable)
	return metrics, categories
}
