/*
errors.go - Centralized sentinel errors for the engine

PURPOSE:
  All sentinel errors in one place for consistency and discoverability.
  The attribution package wraps these with report-specific context
  (worker id, field, window) in structured error types.

ERROR CATEGORIES:
  1. Window errors - Malformed or unsupported report windows (fail fast)
  2. Data errors - Gaps or corruption in a worker's history (degrade)
  3. Configuration errors - Missing target rates (fall back)
  4. External errors - Leave service or store failures

USAGE:
    if errors.Is(err, generic.ErrInvalidWindow) {
        // reject the request, nothing was computed
    }

SEE ALSO:
  - attribution/errors.go: Structured errors that unwrap to these
*/
package generic

import "errors"

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	// ErrInvalidPeriod is returned when a period is malformed (end before start).
	ErrInvalidPeriod = errors.New("invalid period: end before start")

	// ErrInvalidWindow is returned when a report window violates the
	// preconditions of the selected mode.
	ErrInvalidWindow = errors.New("invalid report window")

	// ErrDataGap is returned when a worker's attribute history cannot
	// account for part of a window.
	ErrDataGap = errors.New("attribute history gap")

	// ErrConfigurationMissing is returned when no target rate is configured
	// for a work status.
	ErrConfigurationMissing = errors.New("target configuration missing")

	// ErrExternalService is returned when an external collaborator (leave
	// service) fails or times out.
	ErrExternalService = errors.New("external service failure")

	// ErrEntityNotFound is returned when a referenced worker doesn't exist.
	ErrEntityNotFound = errors.New("entity not found")

	// ErrInvalidInput is returned when a write carries malformed data.
	ErrInvalidInput = errors.New("invalid input")
)

// =============================================================================
// ERROR HELPERS
// =============================================================================

// IsClientError returns true if the error is due to invalid client input.
func IsClientError(err error) bool {
	return errors.Is(err, ErrInvalidWindow) ||
		errors.Is(err, ErrInvalidPeriod) ||
		errors.Is(err, ErrInvalidInput)
}

// IsNotFound returns true if the error indicates a missing resource.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrEntityNotFound)
}

// IsDegradation returns true for errors the engine recovers from by
// falling back instead of failing the report.
func IsDegradation(err error) bool {
	return errors.Is(err, ErrDataGap) ||
		errors.Is(err, ErrConfigurationMissing) ||
		errors.Is(err, ErrExternalService)
}
