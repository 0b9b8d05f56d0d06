package peripheral

import "errors"

// Domain-specific errors for peripheral operations.
var (
	// ErrUnknownPeripheral is returned for a name the unit does not declare.
	ErrUnknownPeripheral = errors.New("peripheral: not declared for this unit")

	// ErrServiceUnreachable is returned when the owning service is offline.
	ErrServiceUnreachable = errors.New("peripheral: service unreachable")

	// ErrNoMatchingDevice is returned when the service lists no device
	// matching the declared identifier.
	ErrNoMatchingDevice = errors.New("peripheral: no matching device")

	// ErrNotConnected is returned by Lookup for an orphaned peripheral.
	ErrNotConnected = errors.New("peripheral: not connected")
)
