package attribution

import (
	"github.com/shopspring/decimal"
	"github.com/warp/productivity-engine/generic"
)

// =============================================================================
// TARGET HOURS - Weekly rates summed over one work-status sub-period
// =============================================================================

// WeeklyTarget is the target contributed by one (possibly clipped) ISO week.
type WeeklyTarget struct {
	Week  generic.Period
	Rate  Rate
	Hours decimal.Decimal // Rate.WeeklyHours * days in Week / 7
}

var daysPerWeek = decimal.NewFromInt(7)

// TargetHours is the target for one sub-period.
type TargetHours struct {
	Total       decimal.Decimal
	PerWeek     decimal.Decimal // Total / PeriodWeeks, zero for an empty period
	PeriodWeeks decimal.Decimal // days / 7, fractional
	Weeks       []WeeklyTarget

	// Statuses that fell back to hard-coded or missing rates
	Missing []*ConfigurationMissingError
}

// TargetCalculator computes targets for one worker.
//
// It must be run once per work-status sub-period: a status change in the
// middle of a window changes the weekly rate, so a single window-wide
// calculation would be wrong.
type TargetCalculator struct {
	Rates *RateResolver
}

// Calculate sums the weekly targets of status over period. Weeks clipped by
// the period bounds are pro-rated by calendar days.
func (tc TargetCalculator) Calculate(status WorkStatus, period generic.Period) TargetHours {
	result := TargetHours{
		Total:       decimal.Zero,
		PerWeek:     decimal.Zero,
		PeriodWeeks: generic.Weeks(period.Days()),
	}

	reported := make(map[RateSource]bool)
	for week := range period.Weeks() {
		rate := tc.Rates.WeeklyRate(status, week)
		hours := rate.WeeklyHours.Mul(decimal.NewFromInt(int64(week.Days()))).Div(daysPerWeek)

		result.Weeks = append(result.Weeks, WeeklyTarget{Week: week, Rate: rate, Hours: hours})
		result.Total = result.Total.Add(hours)

		if (rate.Source == RateFromFallback || rate.Source == RateMissing) && !reported[rate.Source] {
			reported[rate.Source] = true
			result.Missing = append(result.Missing, &ConfigurationMissingError{
				Status:   status,
				Fallback: rate.WeeklyHours.String() + "h/week",
			})
		}
	}

	// total * 7 / days keeps whole-week rates exact
	result.PerWeek = generic.SafeDiv(result.Total.Mul(daysPerWeek), decimal.NewFromInt(int64(period.Days())))
	return result
}
