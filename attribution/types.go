// Package attribution implements the productivity attribution engine.
// It reconstructs what each worker's work status, region and hour target
// were on every day of a report window and turns pre-aggregated daily
// hours into per-sub-period report rows and group summaries.
package attribution

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/warp/productivity-engine/generic"
)

// =============================================================================
// WORK STATUS
// =============================================================================

// WorkStatus is the full-time / part-time classification of a worker.
type WorkStatus string

const (
	StatusFullTime WorkStatus = "full_time"
	StatusPartTime WorkStatus = "part_time"
)

// ParseWorkStatus accepts the spellings found in HR data
// ("full_time", "Full-time", "full time", "FT", ...).
func ParseWorkStatus(s string) (WorkStatus, bool) {
	normalized := strings.ToLower(strings.TrimSpace(s))
	normalized = strings.NewReplacer("-", "_", " ", "_").Replace(normalized)
	switch normalized {
	case "full_time", "fulltime", "ft":
		return StatusFullTime, true
	case "part_time", "parttime", "pt":
		return StatusPartTime, true
	}
	return "", false
}

// Label is the human-readable status used in report output.
func (s WorkStatus) Label() string {
	switch s {
	case StatusFullTime:
		return "Full-time"
	case StatusPartTime:
		return "Part-time"
	default:
		return string(s)
	}
}

// =============================================================================
// ATTRIBUTE FIELDS
// =============================================================================

// Field names a worker attribute that changes over time.
type Field string

const (
	FieldRegion     Field = "region"
	FieldWorkStatus Field = "work_status"
)

func (f Field) Valid() bool {
	return f == FieldRegion || f == FieldWorkStatus
}

// =============================================================================
// WORKER
// =============================================================================

// Worker is the current state of a tracked individual. Historical values
// are reconstructed from ChangeRecords, never read from here directly.
type Worker struct {
	ID         string
	Name       string
	Email      string
	WorkStatus WorkStatus
	RegionID   string
	HireDate   *generic.TimePoint // nil = unknown
	EndDate    *generic.TimePoint // nil = still employed
}

// CurrentValue returns the worker's present value for a field.
func (w Worker) CurrentValue(field Field) string {
	switch field {
	case FieldRegion:
		return w.RegionID
	case FieldWorkStatus:
		return string(w.WorkStatus)
	default:
		return ""
	}
}

// ActiveDuring returns true if the worker was employed on any day of p.
func (w Worker) ActiveDuring(p generic.Period) bool {
	if w.HireDate != nil && w.HireDate.After(p.End) {
		return false
	}
	if w.EndDate != nil && w.EndDate.Before(p.Start) {
		return false
	}
	return true
}

// EmploymentSpan clips p to the days between hire and end date. ok is false
// when w was not employed at all during p.
func (w Worker) EmploymentSpan(p generic.Period) (span generic.Period, ok bool) {
	span = p
	if w.HireDate != nil && w.HireDate.After(span.Start) {
		span.Start = *w.HireDate
	}
	if w.EndDate != nil && w.EndDate.Before(span.End) {
		span.End = *w.EndDate
	}
	return span, !span.Start.After(span.End)
}

// =============================================================================
// CHANGE LOG
// =============================================================================

// ChangeRecord is one append-only entry of a worker's attribute change log.
type ChangeRecord struct {
	ID            string
	WorkerID      string
	Field         Field
	OldValue      string
	NewValue      string
	EffectiveDate generic.TimePoint
	Reason        string
	CreatedAt     time.Time
}

// AttributePeriod is a maximal run of one attribute value. Derived, never stored.
type AttributePeriod struct {
	WorkerID string         `json:"worker_id"`
	Field    Field          `json:"field"`
	Value    string         `json:"value"`
	Period   generic.Period `json:"period"`
}

func (ap AttributePeriod) Days() int { return ap.Period.Days() }

// =============================================================================
// DAILY SUMMARIES
// =============================================================================

// CategoryHours is the time logged against one category.
type CategoryHours struct {
	ID    string
	Name  string
	Hours decimal.Decimal
}

// DailySummary is the upstream per-worker, per-day aggregate. Immutable once
// the day is closed by ingestion.
type DailySummary struct {
	WorkerID    string
	Date        generic.TimePoint
	Billable    decimal.Decimal
	NonBillable decimal.Decimal
	EntryCount  int
	Categories  []CategoryHours
}

// =============================================================================
// LEAVE
// =============================================================================

// LeaveResult is the leave service answer for one whole report window.
// It is not date-granular.
type LeaveResult struct {
	Counts   map[string]decimal.Decimal // keyed by NormalizeEmail
	HourRate decimal.Decimal            // hours per leave day
}

// CountFor returns the leave-day count for an email, zero when absent.
func (lr *LeaveResult) CountFor(email string) decimal.Decimal {
	if lr == nil {
		return decimal.Zero
	}
	return lr.Counts[NormalizeEmail(email)]
}

// NormalizeEmail lower-cases and trims an address for matching.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
