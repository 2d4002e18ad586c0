package attribution

import (
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/warp/productivity-engine/generic"
)

// =============================================================================
// PERFORMANCE CLASSIFICATION
// =============================================================================

// Tier is the classification of actual-vs-target hours.
type Tier string

const (
	TierBelow    Tier = "BELOW"
	TierMeet     Tier = "MEET"
	TierExceeded Tier = "EXCEEDED"
)

// Thresholds are percentages: EXCEEDED at or above Exceeded, MEET at or
// above Meet, BELOW otherwise.
type Thresholds struct {
	Exceeded decimal.Decimal
	Meet     decimal.Decimal
}

// DefaultThresholds returns EXCEEDED >= 101%, MEET >= 99%.
func DefaultThresholds() Thresholds {
	return Thresholds{
		Exceeded: decimal.NewFromInt(101),
		Meet:     decimal.NewFromInt(99),
	}
}

func (t Thresholds) Validate() error {
	if t.Meet.IsNegative() {
		return fmt.Errorf("meet threshold must not be negative, got %s", t.Meet)
	}
	if t.Exceeded.LessThan(t.Meet) {
		return fmt.Errorf("exceeded threshold %s is below meet threshold %s", t.Exceeded, t.Meet)
	}
	return nil
}

// Performance is an unrounded percentage and its tier. Rounding to one
// decimal happens in the API layer.
type Performance struct {
	Percentage decimal.Decimal
	Tier       Tier
}

// Classify computes actual/target*100 (zero when target is zero) and the
// tier for it. The tier is decided on the unrounded percentage.
func (t Thresholds) Classify(actual, target decimal.Decimal) Performance {
	pct := generic.Percent(actual, target)
	return Performance{Percentage: pct, Tier: t.TierFor(pct)}
}

// TierFor maps a percentage to its tier.
func (t Thresholds) TierFor(pct decimal.Decimal) Tier {
	switch {
	case pct.GreaterThanOrEqual(t.Exceeded):
		return TierExceeded
	case pct.GreaterThanOrEqual(t.Meet):
		return TierMeet
	default:
		return TierBelow
	}
}
