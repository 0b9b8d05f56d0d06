package state

import "errors"

// Domain-specific errors for parameter and status access.
// Use errors.Is() to check for these errors in calling code.
var (
	// ErrUnknownKey is returned when a parameter name is not in the key set.
	ErrUnknownKey = errors.New("state: unknown parameter")

	// ErrKindMismatch is returned when a value's kind does not match the
	// kind declared for its key.
	ErrKindMismatch = errors.New("state: value kind does not match parameter")

	// ErrInvalidValue is returned when an external value cannot be decoded.
	ErrInvalidValue = errors.New("state: invalid value")

	// ErrInvalidStatus is returned for a status outside the closed set.
	ErrInvalidStatus = errors.New("state: invalid status")
)
