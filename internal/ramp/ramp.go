package ramp

import (
	"context"
	"fmt"
	"math"

	"github.com/nerrad567/adr-core/internal/instrument"
)

// Direction is the ramp direction.
type Direction int

// Ramp directions.
const (
	Up Direction = iota
	Down
)

func (d Direction) String() string {
	if d == Up {
		return "up"
	}
	return "down"
}

// Thresholds of the ramp checks.
const (
	// QuenchCurrent is the current (A) a quench needs to exceed. Below it
	// a warm stage is not treated as a quench.
	QuenchCurrent = 0.5

	// TargetEpsilon is how close (A) the current must get to the target
	// when ramping up.
	TargetEpsilon = 0.001

	// ZeroCurrent is the current (A) below which a down ramp is complete.
	ZeroCurrent = 0.01
)

// Channel assignments on the temperature bridge.
const (
	quenchStage       = 1
	interlockChannelA = 6
	interlockChannelB = 7
)

// Limits are the parameters a step is evaluated against.
type Limits struct {
	QuenchLimit     float64 // K
	TargetCurrent   float64 // A
	VoltageLimit    float64 // V
	VoltageStepUp   float64 // V
	VoltageStepDown float64 // V
}

// Result is the outcome of one step.
type Result struct {
	Quenched      bool
	TargetReached bool

	// Interlocked is set when an interlock channel was at or over the
	// voltage limit.
	Interlocked bool

	Current float64 // measured supply current
	Voltage float64 // supply voltage written by this step
}

// Step performs one ramp step in direction d.
//
// Parameters:
//   - ctx: bounds every instrument call
//   - f: instrument facade
//   - d: Up or Down
//   - lim: thresholds and step sizes
//
// Returns:
//   - Result: quench and target flags, measured current, written voltage
//   - error: a failed read or write; no voltage is written after a failed
//     read
func Step(ctx context.Context, f instrument.Facade, d Direction, lim Limits) (Result, error) {
	temps, err := f.ReadTemperatures(ctx)
	if err != nil {
		return Result{}, fmt.Errorf("reading temperatures: %w", err)
	}
	if len(temps) <= quenchStage {
		return Result{}, fmt.Errorf("%w: %d channels", ErrShortReading, len(temps))
	}
	volts, err := f.ReadVoltages(ctx)
	if err != nil {
		return Result{}, fmt.Errorf("reading voltages: %w", err)
	}
	current, err := f.ReadMagnetCurrent(ctx)
	if err != nil {
		return Result{}, fmt.Errorf("reading magnet current: %w", err)
	}
	voltage, err := f.ReadMagnetVoltage(ctx)
	if err != nil {
		return Result{}, fmt.Errorf("reading magnet voltage: %w", err)
	}

	res := Result{
		Quenched:      Quenched(temps[quenchStage], current, lim.QuenchLimit),
		TargetReached: TargetReached(d, current, lim.TargetCurrent),
		Interlocked:   !InterlockClear(volts, lim.VoltageLimit),
		Current:       current,
		Voltage:       voltage,
	}

	if !res.Quenched && !res.TargetReached && !res.Interlocked {
		if d == Up {
			res.Voltage += lim.VoltageStepUp
		} else {
			res.Voltage -= lim.VoltageStepDown
		}
	}

	if err := f.SetMagnetVoltage(ctx, res.Voltage); err != nil {
		return res, fmt.Errorf("setting magnet voltage: %w", err)
	}
	return res, nil
}

// Quenched reports whether the monitored stage temperature is over the
// quench limit while the supply carries more than QuenchCurrent.
func Quenched(stageTemp, current, quenchLimit float64) bool {
	return stageTemp > quenchLimit && current > QuenchCurrent
}

// TargetReached reports whether a ramp in direction d is complete.
func TargetReached(d Direction, current, target float64) bool {
	if d == Up {
		return target-current < TargetEpsilon
	}
	return current < ZeroCurrent
}

// InterlockClear reports whether both interlock channels are strictly
// inside the voltage limit. A reading without the interlock channels is
// not clear.
func InterlockClear(volts []float64, limit float64) bool {
	if len(volts) <= interlockChannelB {
		return false
	}
	return math.Abs(volts[interlockChannelA]) < limit && math.Abs(volts[interlockChannelB]) < limit
}
