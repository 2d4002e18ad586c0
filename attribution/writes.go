package attribution

import (
	"fmt"
	"time"

	"github.com/warp/productivity-engine/generic"
)

// =============================================================================
// WRITE VALIDATION - Shared by every Writer implementation
// =============================================================================

// NormalizeWorker validates w and canonicalizes its work status.
func NormalizeWorker(w Worker) (Worker, error) {
	if w.ID == "" {
		return w, fmt.Errorf("%w: worker id is required", generic.ErrInvalidInput)
	}
	if w.WorkStatus != "" {
		status, ok := ParseWorkStatus(string(w.WorkStatus))
		if !ok {
			return w, fmt.Errorf("%w: unknown work status %q", generic.ErrInvalidInput, w.WorkStatus)
		}
		w.WorkStatus = status
	}
	if w.HireDate != nil && w.EndDate != nil && w.EndDate.Before(*w.HireDate) {
		return w, fmt.Errorf("%w: end date %s is before hire date %s", generic.ErrInvalidInput, w.EndDate, w.HireDate)
	}
	w.Email = NormalizeEmail(w.Email)
	return w, nil
}

// PrepareChange validates rec for worker and fills its defaults: an id from
// newID, CreatedAt from now, and OldValue from the value in force just
// before rec, replayed from existing (the worker's stored change log; other
// fields are ignored). The returned worker carries rec's value when rec is
// the latest change effective on or before today; applied reports whether
// it moved.
func PrepareChange(worker Worker, existing []ChangeRecord, rec ChangeRecord, now time.Time, newID func() string) (ChangeRecord, Worker, bool, error) {
	if !rec.Field.Valid() {
		return rec, worker, false, fmt.Errorf("%w: unknown field %q", generic.ErrInvalidInput, rec.Field)
	}
	if rec.NewValue == "" {
		return rec, worker, false, fmt.Errorf("%w: new value is required", generic.ErrInvalidInput)
	}
	if rec.EffectiveDate.IsZero() {
		return rec, worker, false, fmt.Errorf("%w: effective date is required", generic.ErrInvalidInput)
	}
	if rec.Field == FieldWorkStatus {
		status, ok := ParseWorkStatus(rec.NewValue)
		if !ok {
			return rec, worker, false, fmt.Errorf("%w: unknown work status %q", generic.ErrInvalidInput, rec.NewValue)
		}
		rec.NewValue = string(status)
		if old, ok := ParseWorkStatus(rec.OldValue); ok {
			rec.OldValue = string(old)
		}
	}

	rec.WorkerID = worker.ID
	if rec.ID == "" {
		rec.ID = newID()
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = now.UTC()
	}
	if rec.OldValue == "" {
		rec.OldValue = valueBefore(worker, rec.Field, rec.EffectiveDate, existing)
	}

	today := generic.FromTime(now)
	if rec.EffectiveDate.After(today) {
		return rec, worker, false, nil
	}
	for _, r := range existing {
		if r.Field != rec.Field || r.NewValue == "" {
			continue
		}
		// a later change already in force keeps the current value
		if r.EffectiveDate.After(rec.EffectiveDate) && !r.EffectiveDate.After(today) {
			return rec, worker, false, nil
		}
	}
	switch rec.Field {
	case FieldRegion:
		worker.RegionID = rec.NewValue
	case FieldWorkStatus:
		worker.WorkStatus = WorkStatus(rec.NewValue)
	}
	return rec, worker, true, nil
}

// valueBefore is the value of field a change effective on day replaces:
// the replay of existing through day, changes on day included since a new
// record sorts after them. Empty when nothing is known.
func valueBefore(worker Worker, field Field, day generic.TimePoint, existing []ChangeRecord) string {
	result, err := ResolveHistory(worker, field, generic.Period{Start: day, End: day}, existing)
	if err != nil || len(result.Periods) == 0 {
		return ""
	}
	return result.Periods[len(result.Periods)-1].Value
}

// NormalizeOverride validates an override and canonicalizes its status.
func NormalizeOverride(o TargetOverride) (TargetOverride, error) {
	if o.WorkerID == "" {
		return o, fmt.Errorf("%w: override worker id is required", generic.ErrInvalidInput)
	}
	status, ok := ParseWorkStatus(string(o.WorkStatus))
	if !ok {
		return o, fmt.Errorf("%w: unknown work status %q", generic.ErrInvalidInput, o.WorkStatus)
	}
	o.WorkStatus = status
	if o.WeeklyHours.IsNegative() {
		return o, fmt.Errorf("%w: weekly hours must not be negative", generic.ErrInvalidInput)
	}
	if o.EffectiveFrom.IsZero() {
		return o, fmt.Errorf("%w: effective from is required", generic.ErrInvalidInput)
	}
	if o.EffectiveTo != nil && o.EffectiveTo.Before(o.EffectiveFrom) {
		return o, fmt.Errorf("%w: effective to is before effective from", generic.ErrInvalidInput)
	}
	return o, nil
}

// ValidateDailySummary checks a summary before it is stored.
func ValidateDailySummary(s DailySummary) error {
	if s.WorkerID == "" || s.Date.IsZero() {
		return fmt.Errorf("%w: daily summary needs a worker id and a date", generic.ErrInvalidInput)
	}
	if s.Billable.IsNegative() || s.NonBillable.IsNegative() {
		return fmt.Errorf("%w: hours must not be negative", generic.ErrInvalidInput)
	}
	return nil
}
