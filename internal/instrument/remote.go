package instrument

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/nerrad567/adr-core/internal/infrastructure/mqtt"
	"github.com/nerrad567/adr-core/internal/peripheral"
)

// Wire method names understood by the instrument services.
const (
	MethodTemperatures = "temperatures"
	MethodVoltages     = "voltages"
	MethodCurrent      = "current"
	MethodVoltage      = "voltage"
	MethodSetCurrent   = "set_current"
	MethodSetVoltage   = "set_voltage"
	MethodOutputState  = "output_state"
	MethodOpen         = "open"
	MethodClose        = "close"
	MethodStart        = "start"
	MethodStop         = "stop"
	MethodStatus       = "status"
)

const (
	defaultCallTimeout = 5 * time.Second

	// compressorRunning is the status string of a running compressor.
	compressorRunning = "running"
)

// Resolver finds the live binding for a capability.
// *peripheral.Registry implements it.
type Resolver interface {
	Lookup(c peripheral.Capability) (peripheral.Binding, error)
}

// Caller performs one request/response exchange.
// *mqtt.Requester implements it.
type Caller interface {
	Call(ctx context.Context, service string, req mqtt.Request, out any) error
}

// Remote is the Facade backed by instrument services on the message bus.
//
// Every call resolves its peripheral at call time, so a peripheral bound
// by reconciliation becomes usable on the next call. Every call is
// bounded by the configured timeout on top of the caller's context.
//
// Thread Safety:
//   - Safe for concurrent use.
type Remote struct {
	resolver Resolver
	caller   Caller
	timeout  time.Duration
}

// NewRemote creates a Remote facade. A non-positive timeout selects the
// default of 5s.
func NewRemote(resolver Resolver, caller Caller, timeout time.Duration) *Remote {
	if timeout <= 0 {
		timeout = defaultCallTimeout
	}
	return &Remote{resolver: resolver, caller: caller, timeout: timeout}
}

// call sends method to the peripheral providing c and decodes into out.
func (r *Remote) call(ctx context.Context, c peripheral.Capability, method string, out any, args ...any) error {
	b, err := r.resolver.Lookup(c)
	if err != nil {
		return fmt.Errorf("%w: %s: %w", ErrUnavailable, c, err)
	}

	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	err = r.caller.Call(ctx, b.Service, mqtt.Request{
		Device:  b.Device,
		Context: b.Context,
		Method:  method,
		Args:    args,
	}, out)
	if err == nil {
		return nil
	}
	if errors.Is(err, context.Canceled) {
		return err
	}
	return fmt.Errorf("%w: %s %s: %w", ErrCommunication, b.Name, method, err)
}

// ReadTemperatures implements Facade.
func (r *Remote) ReadTemperatures(ctx context.Context) ([]float64, error) {
	var temps []float64
	if err := r.call(ctx, peripheral.TemperatureSource, MethodTemperatures, &temps); err != nil {
		return nil, err
	}
	return temps, nil
}

// ReadVoltages implements Facade.
func (r *Remote) ReadVoltages(ctx context.Context) ([]float64, error) {
	var volts []float64
	if err := r.call(ctx, peripheral.TemperatureSource, MethodVoltages, &volts); err != nil {
		return nil, err
	}
	return volts, nil
}

// ReadMagnetCurrent implements Facade.
func (r *Remote) ReadMagnetCurrent(ctx context.Context) (float64, error) {
	var amps float64
	if err := r.call(ctx, peripheral.MagnetSupply, MethodCurrent, &amps); err != nil {
		return 0, err
	}
	return amps, nil
}

// ReadMagnetVoltage implements Facade.
func (r *Remote) ReadMagnetVoltage(ctx context.Context) (float64, error) {
	var volts float64
	if err := r.call(ctx, peripheral.MagnetSupply, MethodVoltage, &volts); err != nil {
		return 0, err
	}
	return volts, nil
}

// SetMagnetCurrent implements Facade.
func (r *Remote) SetMagnetCurrent(ctx context.Context, amps float64) error {
	return r.call(ctx, peripheral.MagnetSupply, MethodSetCurrent, nil, amps)
}

// SetMagnetVoltage implements Facade.
func (r *Remote) SetMagnetVoltage(ctx context.Context, volts float64) error {
	return r.call(ctx, peripheral.MagnetSupply, MethodSetVoltage, nil, volts)
}

// SetOutputState implements Facade.
func (r *Remote) SetOutputState(ctx context.Context, on bool) error {
	return r.call(ctx, peripheral.MagnetSupply, MethodOutputState, nil, on)
}

// OpenHeatSwitch implements Facade.
func (r *Remote) OpenHeatSwitch(ctx context.Context) error {
	return r.call(ctx, peripheral.HeatSwitch, MethodOpen, nil)
}

// CloseHeatSwitch implements Facade.
func (r *Remote) CloseHeatSwitch(ctx context.Context) error {
	return r.call(ctx, peripheral.HeatSwitch, MethodClose, nil)
}

// StartCompressor implements Facade.
func (r *Remote) StartCompressor(ctx context.Context) error {
	return r.call(ctx, peripheral.Compressor, MethodStart, nil)
}

// StopCompressor implements Facade.
func (r *Remote) StopCompressor(ctx context.Context) error {
	return r.call(ctx, peripheral.Compressor, MethodStop, nil)
}

// CompressorRunning implements Facade. The service reports its state as a
// string; "running" means the compressor is on.
func (r *Remote) CompressorRunning(ctx context.Context) (bool, error) {
	var status string
	if err := r.call(ctx, peripheral.Compressor, MethodStatus, &status); err != nil {
		return false, err
	}
	return status == compressorRunning, nil
}
