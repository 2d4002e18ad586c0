/*
rates.go - Weekly hour targets per work status

PURPOSE:
  Every performance percentage divides actual hours by a target. The
  target for one week is resolved in a fixed order:

    1. A worker-specific override for that status, active on any day of
       the week
    2. The organization default for the status (RateConfig)
    3. The hard fallback: 35 hours full-time, 20 hours part-time

  The fallback values are part of the reporting contract and must not
  change: they decide the denominator of every percentage when
  configuration is missing.

OVERRIDES:
  A TargetOverride gives one worker a weekly target between effective
  dates. When two overrides cover the same week the one with the lowest
  ID wins.

SEE ALSO:
  - target.go: Sums weekly rates over a sub-period
  - factory/targets.go: JSON configuration for RateConfig and overrides
*/
package attribution

import (
	"sort"

	"github.com/shopspring/decimal"
	"github.com/warp/productivity-engine/generic"
)

// =============================================================================
// TARGET OVERRIDE - Worker-specific weekly target with effective dates
// =============================================================================

type TargetOverride struct {
	ID          string
	WorkerID    string
	WorkStatus  WorkStatus
	WeeklyHours decimal.Decimal

	// When this override is effective
	EffectiveFrom generic.TimePoint
	EffectiveTo   *generic.TimePoint // nil = still active
}

// IsActive returns true if the override is active at the given day.
func (o TargetOverride) IsActive(at generic.TimePoint) bool {
	if at.Before(o.EffectiveFrom) {
		return false
	}
	if o.EffectiveTo != nil && at.After(*o.EffectiveTo) {
		return false
	}
	return true
}

// ActiveDuring returns true if the override is active on any day of p.
func (o TargetOverride) ActiveDuring(p generic.Period) bool {
	if o.EffectiveFrom.After(p.End) {
		return false
	}
	if o.EffectiveTo != nil && o.EffectiveTo.Before(p.Start) {
		return false
	}
	return true
}

// =============================================================================
// RATE CONFIG - Organization defaults
// =============================================================================

// RateConfig maps a work status to its default weekly hours.
type RateConfig map[WorkStatus]decimal.Decimal

var (
	fallbackFullTime = decimal.NewFromInt(35)
	fallbackPartTime = decimal.NewFromInt(20)
)

// DefaultRateConfig returns the organization defaults used when nothing is
// configured (full-time 35, part-time 20).
func DefaultRateConfig() RateConfig {
	return RateConfig{
		StatusFullTime: fallbackFullTime,
		StatusPartTime: fallbackPartTime,
	}
}

// FallbackRate returns the hard-coded rate for a status.
func FallbackRate(status WorkStatus) (decimal.Decimal, bool) {
	switch status {
	case StatusFullTime:
		return fallbackFullTime, true
	case StatusPartTime:
		return fallbackPartTime, true
	}
	return decimal.Zero, false
}

// =============================================================================
// RATE RESOLVER
// =============================================================================

// RateSource records which rule produced a weekly rate.
type RateSource string

const (
	RateFromOverride RateSource = "override"
	RateFromConfig   RateSource = "config"
	RateFromFallback RateSource = "fallback"
	RateMissing      RateSource = "missing"
)

// Rate is a resolved weekly target.
type Rate struct {
	WeeklyHours decimal.Decimal
	Source      RateSource
	OverrideID  string // set when Source == RateFromOverride
}

// RateResolver resolves weekly targets for one worker.
type RateResolver struct {
	config    RateConfig
	overrides []TargetOverride // this worker only, ordered by ID
}

// NewRateResolver keeps the overrides that belong to workerID.
func NewRateResolver(config RateConfig, workerID string, overrides []TargetOverride) *RateResolver {
	var own []TargetOverride
	for _, o := range overrides {
		if o.WorkerID == workerID {
			own = append(own, o)
		}
	}
	sort.SliceStable(own, func(i, j int) bool { return own[i].ID < own[j].ID })
	return &RateResolver{config: config, overrides: own}
}

// WeeklyRate resolves the target for status during week.
func (r *RateResolver) WeeklyRate(status WorkStatus, week generic.Period) Rate {
	for _, o := range r.overrides {
		if o.WorkStatus == status && o.ActiveDuring(week) {
			return Rate{WeeklyHours: o.WeeklyHours, Source: RateFromOverride, OverrideID: o.ID}
		}
	}

	if hours, ok := r.config[status]; ok {
		return Rate{WeeklyHours: hours, Source: RateFromConfig}
	}

	if hours, ok := FallbackRate(status); ok {
		return Rate{WeeklyHours: hours, Source: RateFromFallback}
	}
	return Rate{WeeklyHours: decimal.Zero, Source: RateMissing}
}
