package instrument

import (
	"context"
	"fmt"
	"strconv"
)

// HandsOff wraps a Facade for dry runs against live hardware. Reads go to
// the wrapped facade; every write is described to the log function and
// not sent.
type HandsOff struct {
	next Facade
	unit string
	logf func(msg string)
}

// NewHandsOff wraps next. logf receives one line per suppressed write.
func NewHandsOff(next Facade, unit string, logf func(msg string)) *HandsOff {
	return &HandsOff{next: next, unit: unit, logf: logf}
}

func (h *HandsOff) note(format string, args ...any) {
	h.logf(h.unit + " " + fmt.Sprintf(format, args...))
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'g', -1, 64)
}

// ReadTemperatures implements Facade.
func (h *HandsOff) ReadTemperatures(ctx context.Context) ([]float64, error) {
	return h.next.ReadTemperatures(ctx)
}

// ReadVoltages implements Facade.
func (h *HandsOff) ReadVoltages(ctx context.Context) ([]float64, error) {
	return h.next.ReadVoltages(ctx)
}

// ReadMagnetCurrent implements Facade.
func (h *HandsOff) ReadMagnetCurrent(ctx context.Context) (float64, error) {
	return h.next.ReadMagnetCurrent(ctx)
}

// ReadMagnetVoltage implements Facade.
func (h *HandsOff) ReadMagnetVoltage(ctx context.Context) (float64, error) {
	return h.next.ReadMagnetVoltage(ctx)
}

// CompressorRunning implements Facade.
func (h *HandsOff) CompressorRunning(ctx context.Context) (bool, error) {
	return h.next.CompressorRunning(ctx)
}

// SetMagnetCurrent implements Facade.
func (h *HandsOff) SetMagnetCurrent(_ context.Context, amps float64) error {
	h.note("magnet current -> %s", formatFloat(amps))
	return nil
}

// SetMagnetVoltage implements Facade.
func (h *HandsOff) SetMagnetVoltage(_ context.Context, volts float64) error {
	h.note("magnet voltage -> %s", formatFloat(volts))
	return nil
}

// SetOutputState implements Facade.
func (h *HandsOff) SetOutputState(_ context.Context, on bool) error {
	h.note("magnet output_state -> %t", on)
	return nil
}

// OpenHeatSwitch implements Facade.
func (h *HandsOff) OpenHeatSwitch(context.Context) error {
	h.note("heat switch -> open")
	return nil
}

// CloseHeatSwitch implements Facade.
func (h *HandsOff) CloseHeatSwitch(context.Context) error {
	h.note("heat switch -> close")
	return nil
}

// StartCompressor implements Facade.
func (h *HandsOff) StartCompressor(context.Context) error {
	h.note("compressor -> start")
	return nil
}

// StopCompressor implements Facade.
func (h *HandsOff) StopCompressor(context.Context) error {
	h.note("compressor -> stop")
	return nil
}
