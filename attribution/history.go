/*
history.go - Point-in-time reconstruction of worker attributes

PURPOSE:
  A worker's region and work status change over time. Reports must use
  what was true on each day of the window, not today's value. The change
  log (append-only ChangeRecords) is replayed into AttributePeriods: an
  ordered, contiguous, non-overlapping cover of the window.

ALGORITHM:
  1. Keep records for the requested field, sort by effective date
  2. Baseline = first record's old value (worker's current value if there
     are no records at all)
  3. Records on or before the window start only move the baseline
  4. Each in-window record closes the running period the day before its
     effective date and opens a new one
  5. Records after the window end are ignored
  6. Adjacent periods with the same value are merged

EXAMPLE:
  Window 2025-03-03..2025-03-30, one record part_time -> full_time on
  2025-03-17:

    [2025-03-03, 2025-03-16] part_time
    [2025-03-17, 2025-03-30] full_time

DEGRADATION:
  Records with no new value are skipped, and a missing baseline is filled
  with the worker's current value. Both are reported as DataGapErrors in
  the result; neither aborts the report.

SEE ALSO:
  - predominance.go: Picks one value out of the periods
  - row.go: One report row per work-status period
*/
package attribution

import (
	"fmt"
	"sort"

	"github.com/warp/productivity-engine/generic"
)

// HistoryResult is the resolved cover of a window plus any gaps that were
// filled along the way.
type HistoryResult struct {
	Periods []AttributePeriod
	Gaps    []*DataGapError
}

// ResolveHistory replays records for field over window. records may contain
// other fields and may be unordered.
func ResolveHistory(worker Worker, field Field, window generic.Period, records []ChangeRecord) (HistoryResult, error) {
	if !field.Valid() {
		return HistoryResult{}, fmt.Errorf("unknown attribute field %q", field)
	}
	if err := window.Validate(); err != nil {
		return HistoryResult{}, err
	}

	var result HistoryResult
	current := worker.CurrentValue(field)

	// 1. Usable records for this field
	var changes []ChangeRecord
	for _, r := range records {
		if r.Field != field {
			continue
		}
		if r.NewValue == "" {
			result.Gaps = append(result.Gaps, &DataGapError{
				WorkerID: worker.ID,
				Field:    field,
				Period:   window,
				Assumed:  current,
				Detail:   fmt.Sprintf("change record %s on %s has no new value", r.ID, r.EffectiveDate),
			})
			continue
		}
		changes = append(changes, r)
	}

	sort.SliceStable(changes, func(i, j int) bool {
		a, b := changes[i], changes[j]
		if !a.EffectiveDate.Equal(b.EffectiveDate) {
			return a.EffectiveDate.Before(b.EffectiveDate)
		}
		if !a.CreatedAt.Equal(b.CreatedAt) {
			return a.CreatedAt.Before(b.CreatedAt)
		}
		return a.ID < b.ID
	})

	// 2. Baseline
	value := current
	if len(changes) > 0 {
		value = changes[0].OldValue
	}

	// 3-5. Replay
	var periods []AttributePeriod
	cursor := window.Start
	for _, c := range changes {
		if c.EffectiveDate.After(window.End) {
			break
		}
		if c.EffectiveDate.After(cursor) {
			periods = append(periods, AttributePeriod{
				WorkerID: worker.ID,
				Field:    field,
				Value:    value,
				Period:   generic.Period{Start: cursor, End: c.EffectiveDate.AddDays(-1)},
			})
			cursor = c.EffectiveDate
		}
		value = c.NewValue
	}
	periods = append(periods, AttributePeriod{
		WorkerID: worker.ID,
		Field:    field,
		Value:    value,
		Period:   generic.Period{Start: cursor, End: window.End},
	})

	// Fill unknown values with the current one
	for i := range periods {
		if periods[i].Value != "" {
			continue
		}
		if current == "" {
			return HistoryResult{}, &DataGapError{
				WorkerID: worker.ID,
				Field:    field,
				Period:   periods[i].Period,
				Detail:   "no recorded or current value",
			}
		}
		periods[i].Value = current
		result.Gaps = append(result.Gaps, &DataGapError{
			WorkerID: worker.ID,
			Field:    field,
			Period:   periods[i].Period,
			Assumed:  current,
			Detail:   "value before first change record is unknown",
		})
	}

	// 6. Merge
	result.Periods = mergeAdjacent(periods)
	return result, nil
}

func mergeAdjacent(periods []AttributePeriod) []AttributePeriod {
	merged := make([]AttributePeriod, 0, len(periods))
	for _, p := range periods {
		if n := len(merged); n > 0 && merged[n-1].Value == p.Value {
			merged[n-1].Period.End = p.Period.End
			continue
		}
		merged = append(merged, p)
	}
	return merged
}

// ClipPeriods returns the parts of periods that fall inside window.
func ClipPeriods(periods []AttributePeriod, window generic.Period) []AttributePeriod {
	var clipped []AttributePeriod
	for _, p := range periods {
		if overlap, ok := p.Period.Intersect(window); ok {
			p.Period = overlap
			clipped = append(clipped, p)
		}
	}
	return clipped
}
