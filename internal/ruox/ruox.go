package ruox

import (
	"fmt"
	"math"
)

// Calibration holds the constants needed to convert a bridge voltage.
type Calibration struct {
	// CoefsHighTemp are (a, b, c) for the curve used below Cutoff.
	CoefsHighTemp []float64

	// CoefsLowTemp are (a, b, c) for the curve used at or above Cutoff.
	CoefsLowTemp []float64

	// Cutoff is the resistance in ohms that separates the two regimes.
	Cutoff float64

	// VoltToRes holds one scale factor per range switch position.
	VoltToRes []float64

	// SwitchPosition is the 1-based range switch position.
	SwitchPosition int

	// Channel is the 0-based index of the thermometer in the voltage list.
	Channel int
}

// Reading is a converted thermometer reading.
type Reading struct {
	Temperature float64 // kelvin
	Resistance  float64 // ohms
}

// Convert turns the bridge voltages into a RuOx temperature and resistance.
//
// Parameters:
//   - volts: calibrated voltages from the temperature bridge, in channel order
//   - cal: calibration constants
//
// Returns:
//   - Reading: temperature and resistance
//   - error: ErrChannelOutOfRange, ErrSwitchPosition, ErrBadCoefficients or
//     ErrNonPhysical
func Convert(volts []float64, cal Calibration) (Reading, error) {
	if cal.Channel < 0 || cal.Channel >= len(volts) {
		return Reading{}, fmt.Errorf("%w: channel %d of %d", ErrChannelOutOfRange, cal.Channel, len(volts))
	}
	if cal.SwitchPosition < 1 || cal.SwitchPosition > len(cal.VoltToRes) {
		return Reading{}, fmt.Errorf("%w: position %d of %d", ErrSwitchPosition, cal.SwitchPosition, len(cal.VoltToRes))
	}

	scale := cal.VoltToRes[cal.SwitchPosition-1]
	if scale == 0 {
		return Reading{}, fmt.Errorf("%w: zero scale factor at position %d", ErrNonPhysical, cal.SwitchPosition)
	}
	r := volts[cal.Channel] / scale

	var (
		t   float64
		err error
	)
	if r < cal.Cutoff {
		t, err = highTemp(r, cal.CoefsHighTemp)
	} else {
		t, err = lowTemp(r, cal.CoefsLowTemp)
	}
	if err != nil {
		return Reading{}, err
	}
	if math.IsNaN(t) || math.IsInf(t, 0) {
		return Reading{}, fmt.Errorf("%w: R=%g ohm gives T=%g", ErrNonPhysical, r, t)
	}
	return Reading{Temperature: t, Resistance: r}, nil
}

func highTemp(r float64, p []float64) (float64, error) {
	if len(p) != 3 {
		return 0, fmt.Errorf("%w: high temperature curve has %d", ErrBadCoefficients, len(p))
	}
	return 1 / (p[0] + p[1]*r*r*math.Log(r) + p[2]*r*r*r), nil
}

func lowTemp(r float64, p []float64) (float64, error) {
	if len(p) != 3 {
		return 0, fmt.Errorf("%w: low temperature curve has %d", ErrBadCoefficients, len(p))
	}
	lnR := math.Log(r)
	return 1 / (p[0] + p[1]*r*lnR + p[2]*r*r*lnR), nil
}
