package instrument

import "errors"

// Domain-specific errors for instrument operations.
var (
	// ErrUnavailable is returned when the peripheral providing an operation
	// is not connected. Callers treat it as recoverable.
	ErrUnavailable = errors.New("instrument: peripheral unavailable")

	// ErrCommunication is returned when a connected peripheral fails to
	// answer or answers with an error.
	ErrCommunication = errors.New("instrument: communication failure")
)
