package instrument

import (
	"context"
	"fmt"
	"sync"
)

// Fake is an in-memory Facade. Readings are whatever was last stored;
// writes are recorded in order and update the matching readings.
//
// Setting an error field makes the matching calls fail. Setting
// Unavailable makes every call fail with ErrUnavailable.
//
// Thread Safety:
//   - Safe for concurrent use.
type Fake struct {
	mu sync.Mutex

	Temperatures   []float64
	Voltages       []float64
	MagnetCurrent  float64
	MagnetVoltage  float64
	OutputOn       bool
	HeatSwitchOpen bool
	CompressorOn   bool
	Unavailable    bool
	TemperatureErr error
	VoltageErr     error
	MagnetErr      error

	calls []string
}

// NewFake creates a Fake with eight zeroed temperature and voltage channels.
func NewFake() *Fake {
	return &Fake{
		Temperatures: make([]float64, 8),
		Voltages:     make([]float64, 8),
	}
}

// Update runs fn with the fake locked, for changing readings mid-test.
func (f *Fake) Update(fn func(f *Fake)) {
	f.mu.Lock()
	defer f.mu.Unlock()
	fn(f)
}

// Calls returns the recorded write commands, oldest first.
func (f *Fake) Calls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.calls...)
}

// ResetCalls forgets the recorded write commands.
func (f *Fake) ResetCalls() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = nil
}

func (f *Fake) record(format string, args ...any) {
	f.calls = append(f.calls, fmt.Sprintf(format, args...))
}

// ReadTemperatures implements Facade.
func (f *Fake) ReadTemperatures(ctx context.Context) ([]float64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.check(ctx, f.TemperatureErr); err != nil {
		return nil, err
	}
	return append([]float64(nil), f.Temperatures...), nil
}

// ReadVoltages implements Facade.
func (f *Fake) ReadVoltages(ctx context.Context) ([]float64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.check(ctx, f.VoltageErr); err != nil {
		return nil, err
	}
	return append([]float64(nil), f.Voltages...), nil
}

// ReadMagnetCurrent implements Facade.
func (f *Fake) ReadMagnetCurrent(ctx context.Context) (float64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.check(ctx, f.MagnetErr); err != nil {
		return 0, err
	}
	return f.MagnetCurrent, nil
}

// ReadMagnetVoltage implements Facade.
func (f *Fake) ReadMagnetVoltage(ctx context.Context) (float64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.check(ctx, f.MagnetErr); err != nil {
		return 0, err
	}
	return f.MagnetVoltage, nil
}

// SetMagnetCurrent implements Facade.
func (f *Fake) SetMagnetCurrent(ctx context.Context, amps float64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.check(ctx, f.MagnetErr); err != nil {
		return err
	}
	f.record("current %g", amps)
	return nil
}

// SetMagnetVoltage implements Facade. The stored voltage follows the
// write, so a ramp observes its own steps.
func (f *Fake) SetMagnetVoltage(ctx context.Context, volts float64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.check(ctx, f.MagnetErr); err != nil {
		return err
	}
	f.MagnetVoltage = volts
	f.record("voltage %g", volts)
	return nil
}

// SetOutputState implements Facade.
func (f *Fake) SetOutputState(ctx context.Context, on bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.check(ctx, f.MagnetErr); err != nil {
		return err
	}
	f.OutputOn = on
	f.record("output %t", on)
	return nil
}

// OpenHeatSwitch implements Facade.
func (f *Fake) OpenHeatSwitch(ctx context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.check(ctx, nil); err != nil {
		return err
	}
	f.HeatSwitchOpen = true
	f.record("heatswitch open")
	return nil
}

// CloseHeatSwitch implements Facade.
func (f *Fake) CloseHeatSwitch(ctx context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.check(ctx, nil); err != nil {
		return err
	}
	f.HeatSwitchOpen = false
	f.record("heatswitch close")
	return nil
}

// StartCompressor implements Facade.
func (f *Fake) StartCompressor(ctx context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.check(ctx, nil); err != nil {
		return err
	}
	f.CompressorOn = true
	f.record("compressor start")
	return nil
}

// StopCompressor implements Facade.
func (f *Fake) StopCompressor(ctx context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.check(ctx, nil); err != nil {
		return err
	}
	f.CompressorOn = false
	f.record("compressor stop")
	return nil
}

// CompressorRunning implements Facade.
func (f *Fake) CompressorRunning(ctx context.Context) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.check(ctx, nil); err != nil {
		return false, err
	}
	return f.CompressorOn, nil
}

func (f *Fake) check(ctx context.Context, err error) error {
	if ctxErr := ctx.Err(); ctxErr != nil {
		return ctxErr
	}
	if f.Unavailable {
		return ErrUnavailable
	}
	return err
}
