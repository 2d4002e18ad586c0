package attribution

import (
	"fmt"

	"github.com/warp/productivity-engine/generic"
)

// =============================================================================
// STRUCTURED ERRORS - Carry report context, unwrap to generic sentinels
// =============================================================================

// DataGapError reports a part of the window a worker's history could not
// account for. The engine assumes the worker's current value and continues.
type DataGapError struct {
	WorkerID string
	Field    Field
	Period   generic.Period
	Assumed  string // value used to fill the gap
	Detail   string
}

func (e *DataGapError) Error() string {
	return fmt.Sprintf("history gap for worker %s (%s) over %s: %s; assuming %q",
		e.WorkerID, e.Field, e.Period, e.Detail, e.Assumed)
}

func (e *DataGapError) Unwrap() error { return generic.ErrDataGap }

// ConfigurationMissingError reports a work status with no configured weekly
// target. Fallback carries the hard-coded rate used instead.
type ConfigurationMissingError struct {
	Status   WorkStatus
	Fallback string
}

func (e *ConfigurationMissingError) Error() string {
	return fmt.Sprintf("no weekly target configured for %q, using %s", e.Status, e.Fallback)
}

func (e *ConfigurationMissingError) Unwrap() error { return generic.ErrConfigurationMissing }

// ExternalServiceError wraps a failing external call.
type ExternalServiceError struct {
	Service string
	Err     error
}

func (e *ExternalServiceError) Error() string {
	return fmt.Sprintf("%s: %v", e.Service, e.Err)
}

// Unwrap exposes both the sentinel and the underlying cause.
func (e *ExternalServiceError) Unwrap() []error {
	return []error{generic.ErrExternalService, e.Err}
}

// InvalidWindowError rejects a report request before any computation.
type InvalidWindowError struct {
	Window generic.Period
	Mode   Mode
	Reason string
}

func (e *InvalidWindowError) Error() string {
	return fmt.Sprintf("invalid %s window %s: %s", e.Mode, e.Window, e.Reason)
}

func (e *InvalidWindowError) Unwrap() error { return generic.ErrInvalidWindow }

// WorkerFailure records a worker that contributed no rows to a report.
type WorkerFailure struct {
	WorkerID string `json:"worker_id"`
	Error    string `json:"error"`
}
