/*
Package generic provides the domain-agnostic building blocks of the
productivity engine.

PURPOSE:
  Reports are always computed over calendar ranges, never at a point in
  time. This package holds the types every report component shares:
  day-granular dates, inclusive periods with ISO week alignment, and
  decimal quantities that keep full precision until presentation.

KEY CONCEPTS IN THIS FILE (types.go):
  - Decimal helpers: safe division, percentages, days to weeks
  - Rounding helpers used only at presentation boundaries

DESIGN PRINCIPLES:
  1. Precision: decimal.Decimal everywhere, no float accumulation
  2. Round late: aggregation keeps full precision, DTOs round
  3. Day granularity: a TimePoint is a calendar day in UTC

USAGE:
  weeks := generic.Weeks(period.Days())       // 3 days -> 0.428571...
  target := weekly.Mul(weeks)                 // 35h/week over 3 days = 15h
  pct := generic.Percent(billable, target)    // zero when target is zero

SEE ALSO:
  - period.go: Period, week alignment, buckets
  - time.go: TimePoint
  - errors.go: Sentinel errors
*/
package generic

import (
	"github.com/shopspring/decimal"
)

// =============================================================================
// DECIMAL HELPERS
// =============================================================================

var (
	seven   = decimal.NewFromInt(7)
	hundred = decimal.NewFromInt(100)
)

// SafeDiv divides a by b and returns zero instead of panicking on b == 0.
func SafeDiv(a, b decimal.Decimal) decimal.Decimal {
	if b.IsZero() {
		return decimal.Zero
	}
	return a.Div(b)
}

// Percent returns part/whole*100, zero when whole is zero.
func Percent(part, whole decimal.Decimal) decimal.Decimal {
	return SafeDiv(part, whole).Mul(hundred)
}

// Weeks converts a day count to fractional weeks.
func Weeks(days int) decimal.Decimal {
	return decimal.NewFromInt(int64(days)).Div(seven)
}

// =============================================================================
// PRESENTATION ROUNDING
// =============================================================================

// RoundHours rounds to two decimals and returns a float for JSON output.
func RoundHours(d decimal.Decimal) float64 {
	return d.Round(2).InexactFloat64()
}

// RoundPercent rounds to one decimal and returns a float for JSON output.
func RoundPercent(d decimal.Decimal) float64 {
	return d.Round(1).InexactFloat64()
}
