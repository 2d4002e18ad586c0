package leave

import "errors"

var (
	// ErrUnavailable indicates the leave service is unreachable.
	ErrUnavailable = errors.New("leave service unavailable")

	// ErrTimeout indicates the lookup exceeded the configured timeout.
	ErrTimeout = errors.New("leave lookup timed out")

	// ErrBadResponse indicates the service answered with a payload that
	// could not be decoded, or with a client error status.
	ErrBadResponse = errors.New("invalid leave service response")

	// ErrRetryExhausted indicates all retry attempts have been exhausted.
	ErrRetryExhausted = errors.New("leave lookup retry attempts exhausted")
)
