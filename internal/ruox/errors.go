package ruox

import "errors"

// Domain-specific errors for RuOx conversion.
var (
	// ErrChannelOutOfRange is returned when the voltage list has no entry
	// for the configured thermometer channel.
	ErrChannelOutOfRange = errors.New("ruox: thermometer channel out of range")

	// ErrSwitchPosition is returned when the range switch position has no
	// entry in the scale factor table.
	ErrSwitchPosition = errors.New("ruox: switch position out of range")

	// ErrBadCoefficients is returned when a curve does not have exactly
	// three coefficients.
	ErrBadCoefficients = errors.New("ruox: calibration curve needs three coefficients")

	// ErrNonPhysical is returned when the reading does not map to a finite
	// temperature.
	ErrNonPhysical = errors.New("ruox: reading does not convert to a physical temperature")
)
