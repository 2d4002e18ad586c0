package attribution

import (
	"github.com/shopspring/decimal"
)

// =============================================================================
// NAD ALLOCATION - Window-level leave split across sub-periods by day weight
// =============================================================================
//
// The leave service answers with one count per worker for the whole report
// window, so there is no way to know which sub-period a leave day fell in.
// Each sub-period gets the share of the total proportional to its calendar
// days:
//
//   count = round(total * sub_days / window_days)             (nearest integer)
//   hours = round(total * hour_rate * sub_days / window_days, 2)
//
// decimal.Round rounds half away from zero, so for leave counts (never
// negative) half rounds up: 10 days over a 28-day window gives a 7-day
// sub-period round(2.5) = 3.

// NADShare is the leave allocated to one sub-period.
type NADShare struct {
	Count decimal.Decimal
	Hours decimal.Decimal
}

// AllocateNAD returns the share of a window-level leave total for a
// sub-period of subDays days in a window of windowDays days.
func AllocateNAD(totalCount, hourRate decimal.Decimal, subDays, windowDays int) NADShare {
	if windowDays == 0 || totalCount.IsZero() {
		return NADShare{Count: decimal.Zero, Hours: decimal.Zero}
	}

	sub := decimal.NewFromInt(int64(subDays))
	window := decimal.NewFromInt(int64(windowDays))

	count := totalCount.Mul(sub).Div(window)
	hours := totalCount.Mul(hourRate).Mul(sub).Div(window)

	return NADShare{
		Count: count.Round(0),
		Hours: hours.Round(2),
	}
}
