package generic

import "iter"

// =============================================================================
// PERIOD - Inclusive date range, the unit every report is computed over
// =============================================================================

// Period is an inclusive calendar range [Start, End].
//
// Examples:
//   - One ISO week: Mon 2025-03-03 - Sun 2025-03-09
//   - A report window: 2025-01-06 - 2025-03-30
//   - A work-status sub-period inside that window
type Period struct {
	Start TimePoint `json:"start"`
	End   TimePoint `json:"end"`
}

// NewPeriod builds a period and rejects an end before the start.
func NewPeriod(start, end TimePoint) (Period, error) {
	p := Period{Start: start, End: end}
	if err := p.Validate(); err != nil {
		return Period{}, err
	}
	return p, nil
}

// Validate returns ErrInvalidPeriod when End is before Start.
func (p Period) Validate() error {
	if p.End.Before(p.Start) {
		return ErrInvalidPeriod
	}
	return nil
}

// Contains returns true if the time point is within the period [Start, End]
func (p Period) Contains(t TimePoint) bool {
	return t.AfterOrEqual(p.Start) && t.BeforeOrEqual(p.End)
}

// Days returns the number of calendar days in the period, both ends included.
// An inverted period has zero days.
func (p Period) Days() int {
	if p.End.Before(p.Start) {
		return 0
	}
	return DaysBetween(p.Start, p.End) + 1
}

// Dates returns every day in the period in order.
func (p Period) Dates() []TimePoint {
	var days []TimePoint
	for current := p.Start; current.BeforeOrEqual(p.End); current = current.AddDays(1) {
		days = append(days, current)
	}
	return days
}

// Overlaps reports whether the two periods share at least one day.
func (p Period) Overlaps(other Period) bool {
	return p.Start.BeforeOrEqual(other.End) && other.Start.BeforeOrEqual(p.End)
}

// Intersect returns the shared days of two periods; ok is false when they are disjoint.
func (p Period) Intersect(other Period) (Period, bool) {
	if !p.Overlaps(other) {
		return Period{}, false
	}
	return Period{Start: MaxTime(p.Start, other.Start), End: MinTime(p.End, other.End)}, true
}

// String returns a string representation of the period.
func (p Period) String() string {
	return "[" + p.Start.String() + ", " + p.End.String() + "]"
}

// =============================================================================
// WEEK ALIGNMENT
// =============================================================================

// Weeks yields the ISO Monday-Sunday weeks touched by the period, with the
// first and last week clipped to the period bounds. Ranging over the
// sequence again starts from the first week.
func (p Period) Weeks() iter.Seq[Period] {
	return func(yield func(Period) bool) {
		if p.End.Before(p.Start) {
			return
		}
		for weekStart := StartOfISOWeek(p.Start); weekStart.BeforeOrEqual(p.End); weekStart = weekStart.AddDays(7) {
			week := Period{
				Start: MaxTime(weekStart, p.Start),
				End:   MinTime(weekStart.AddDays(6), p.End),
			}
			if !yield(week) {
				return
			}
		}
	}
}

// IsWeekAligned reports whether the period starts on a Monday and ends on a Sunday.
func (p Period) IsWeekAligned() bool {
	return p.Start.IsMonday() && p.End.IsSunday()
}

// =============================================================================
// BUCKETS - Weekly / monthly / yearly splits of a window
// =============================================================================

// BucketType defines how a window is split for trend reporting.
type BucketType string

const (
	BucketWeek  BucketType = "week"  // ISO Monday - Sunday
	BucketMonth BucketType = "month" // calendar month
	BucketYear  BucketType = "year"  // calendar year
)

// Buckets splits the period into consecutive buckets clipped to the period.
// Unknown bucket types return the whole period as a single bucket.
func (p Period) Buckets(bt BucketType) []Period {
	if p.End.Before(p.Start) {
		return nil
	}

	var buckets []Period
	switch bt {
	case BucketWeek:
		for week := range p.Weeks() {
			buckets = append(buckets, week)
		}
	case BucketMonth:
		for start := p.Start; start.BeforeOrEqual(p.End); {
			end := MinTime(EndOfMonth(start.Year(), start.Month()), p.End)
			buckets = append(buckets, Period{Start: start, End: end})
			start = end.AddDays(1)
		}
	case BucketYear:
		for start := p.Start; start.BeforeOrEqual(p.End); {
			end := MinTime(EndOfYear(start.Year()), p.End)
			buckets = append(buckets, Period{Start: start, End: end})
			start = end.AddDays(1)
		}
	default:
		buckets = append(buckets, p)
	}
	return buckets
}
