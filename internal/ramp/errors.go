package ramp

import "errors"

// ErrShortReading is returned when the temperature bridge reports fewer
// channels than the quench check needs.
var ErrShortReading = errors.New("ramp: temperature reading too short")
