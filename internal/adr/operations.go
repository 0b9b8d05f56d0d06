package adr

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/nerrad567/adr-core/internal/recording"
	"github.com/nerrad567/adr-core/internal/ruox"
	"github.com/nerrad567/adr-core/internal/state"
)

// Parameter returns the value of one parameter by name.
func (c *Controller) Parameter(name string) (state.Value, error) {
	k, err := state.ParseKey(name)
	if err != nil {
		return state.Value{}, err
	}
	return c.store.Get(k), nil
}

// SetParameter decodes raw as the kind declared for name and stores it.
// JSON null clears the parameter.
func (c *Controller) SetParameter(name string, raw json.RawMessage) error {
	k, err := state.ParseKey(name)
	if err != nil {
		return err
	}
	v, err := state.ParseValue(k, raw)
	if err != nil {
		return err
	}
	return c.store.Set(k, v)
}

// Parameters returns every set parameter keyed by name.
func (c *Controller) Parameters() map[string]state.Value {
	snap := c.store.Snapshot()
	out := make(map[string]state.Value, len(snap))
	for k, v := range snap {
		out[string(k)] = v
	}
	return out
}

// RevertDefaults re-reads the unit configuration and restores every
// revertible parameter to its configured default. Runtime state such as
// liveness, recording and the schedule is kept.
func (c *Controller) RevertDefaults(_ context.Context) error {
	if c.source == nil {
		return fmt.Errorf("reverting %s: no configuration source", c.name)
	}
	u, err := c.source.Unit(c.name)
	if err != nil {
		return fmt.Errorf("reverting %s: %w", c.name, err)
	}
	defaults := state.Defaults(u)
	for _, k := range state.Keys() {
		if !state.Revertible(k) {
			continue
		}
		if err := c.store.Set(k, defaults[k]); err != nil {
			return fmt.Errorf("reverting %s: %w", k, err)
		}
	}
	c.logf("Parameters reverted to defaults.")
	return nil
}

// Status returns the current cycle status.
func (c *Controller) Status() state.Status {
	return c.store.Status()
}

// Statuses returns the closed set of cycle statuses.
func (c *Controller) Statuses() []state.Status {
	return state.Statuses()
}

// SetStatus moves the cycle to the named status, running entry actions as
// the cycle itself would. Names outside the closed set are logged and
// rejected with state.ErrInvalidStatus.
//
// ctx only gates the request: once the status is accepted its entry
// actions run under the controller's own context and complete even if
// the caller goes away.
func (c *Controller) SetStatus(ctx context.Context, name string) error {
	s := state.Status(name)
	if !s.Valid() {
		c.logf(fmt.Sprintf("ERROR: status %s not in possible statuses", name))
		return fmt.Errorf("%w: %q", state.ErrInvalidStatus, name)
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	c.setStatus(c.ctx, s)
	return nil
}

// StartRecording starts a recording session.
func (c *Controller) StartRecording() error {
	return c.recorder.Start(c.ctx)
}

// StopRecording stops the active recording session.
func (c *Controller) StopRecording() error {
	return c.recorder.Stop()
}

// RecordingInfo describes the active recording session.
func (c *Controller) RecordingInfo() recording.Info {
	return c.recorder.Info()
}

// bridgeChannels is the channel count of the temperature bridge.
const bridgeChannels = 8

// Readings is one snapshot of the unit's instruments. A field whose
// instrument could not be read holds its zero value (eight zeroed
// channels for the bridge) and the failure is listed in Errors.
type Readings struct {
	Time              time.Time `json:"time"`
	Temperatures      []float64 `json:"temperatures"`
	Voltages          []float64 `json:"voltages"`
	MagnetCurrent     float64   `json:"magnet_current"`
	MagnetVoltage     float64   `json:"magnet_voltage"`
	CompressorRunning bool      `json:"compressor_running"`
	RuoxTemperature   float64   `json:"ruox_temperature"`
	RuoxResistance    float64   `json:"ruox_resistance"`
	Errors            []string  `json:"errors,omitempty"`
}

// Readings reads every instrument once.
func (c *Controller) Readings(ctx context.Context) Readings {
	r := Readings{
		Time:         c.now(),
		Temperatures: make([]float64, bridgeChannels),
		Voltages:     make([]float64, bridgeChannels),
	}

	if temps, err := c.facade.ReadTemperatures(ctx); err != nil {
		r.Errors = append(r.Errors, fmt.Sprintf("temperatures: %v", err))
	} else {
		r.Temperatures = temps
	}
	if volts, err := c.facade.ReadVoltages(ctx); err != nil {
		r.Errors = append(r.Errors, fmt.Sprintf("voltages: %v", err))
	} else {
		r.Voltages = volts
		r.RuoxTemperature, r.RuoxResistance = c.convertRuox(volts)
	}
	if amps, err := c.facade.ReadMagnetCurrent(ctx); err != nil {
		r.Errors = append(r.Errors, fmt.Sprintf("magnet current: %v", err))
	} else {
		r.MagnetCurrent = amps
	}
	if v, err := c.facade.ReadMagnetVoltage(ctx); err != nil {
		r.Errors = append(r.Errors, fmt.Sprintf("magnet voltage: %v", err))
	} else {
		r.MagnetVoltage = v
	}
	if on, err := c.facade.CompressorRunning(ctx); err != nil {
		r.Errors = append(r.Errors, fmt.Sprintf("compressor: %v", err))
	} else {
		r.CompressorRunning = on
	}
	return r
}

// RuoxStatus returns the RuOx temperature and resistance, or (0, 0) when
// the voltages cannot be read or converted.
func (c *Controller) RuoxStatus(ctx context.Context) (temperature, resistance float64) {
	volts, err := c.facade.ReadVoltages(ctx)
	if err != nil {
		c.logger.Warn("ruox voltages unavailable", "unit", c.name, "error", err)
		return 0, 0
	}
	return c.convertRuox(volts)
}

func (c *Controller) convertRuox(volts []float64) (float64, float64) {
	r, err := ruox.Convert(volts, c.calibration())
	if err != nil {
		c.logger.Warn("ruox conversion failed", "unit", c.name, "error", err)
		return 0, 0
	}
	return r.Temperature, r.Resistance
}

func (c *Controller) calibration() ruox.Calibration {
	return ruox.Calibration{
		CoefsHighTemp:  c.store.Floats(state.RuoxCoefsHighTemp),
		CoefsLowTemp:   c.store.Floats(state.RuoxCoefsLowTemp),
		Cutoff:         c.store.Float(state.ResistanceCutoff),
		VoltToRes:      c.store.Floats(state.VoltToResCalibs),
		SwitchPosition: int(c.store.Float(state.SwitchPosition)),
		Channel:        int(c.store.Float(state.RuoxChannel)),
	}
}

// OpenHeatSwitch opens the heat switch.
func (c *Controller) OpenHeatSwitch(ctx context.Context) error {
	if err := c.facade.OpenHeatSwitch(ctx); err != nil {
		return fmt.Errorf("opening heat switch of %s: %w", c.name, err)
	}
	c.logf("Heat switch opened.")
	return nil
}

// CloseHeatSwitch closes the heat switch.
func (c *Controller) CloseHeatSwitch(ctx context.Context) error {
	if err := c.facade.CloseHeatSwitch(ctx); err != nil {
		return fmt.Errorf("closing heat switch of %s: %w", c.name, err)
	}
	c.logf("Heat switch closed.")
	return nil
}

// StartCompressor starts the compressor.
func (c *Controller) StartCompressor(ctx context.Context) error {
	if err := c.facade.StartCompressor(ctx); err != nil {
		return fmt.Errorf("starting compressor of %s: %w", c.name, err)
	}
	c.logf("Compressor started.")
	return nil
}

// StopCompressor stops the compressor.
func (c *Controller) StopCompressor(ctx context.Context) error {
	if err := c.facade.StopCompressor(ctx); err != nil {
		return fmt.Errorf("stopping compressor of %s: %w", c.name, err)
	}
	c.logf("Compressor stopped.")
	return nil
}

// sample is the recording sampler. Temperature and voltage failures abort
// the sample; a magnet supply failure records zeros.
func (c *Controller) sample(ctx context.Context) (recording.Sample, error) {
	s := recording.Sample{At: c.now()}

	temps, err := c.facade.ReadTemperatures(ctx)
	if err != nil {
		return s, fmt.Errorf("reading temperatures: %w", err)
	}
	volts, err := c.facade.ReadVoltages(ctx)
	if err != nil {
		return s, fmt.Errorf("reading voltages: %w", err)
	}
	s.Temperatures = temps
	s.Voltages = volts
	s.RuoxTemp, s.RuoxRes = c.convertRuox(volts)

	if amps, err := c.facade.ReadMagnetCurrent(ctx); err == nil {
		s.MagnetCurrent = amps
	}
	if v, err := c.facade.ReadMagnetVoltage(ctx); err == nil {
		s.MagnetVoltage = v
	}
	return s, nil
}
