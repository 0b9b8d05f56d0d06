package adr

import (
	"context"
	"fmt"
	"runtime/debug"
	"time"

	"github.com/nerrad567/adr-core/internal/ramp"
	"github.com/nerrad567/adr-core/internal/recording"
	"github.com/nerrad567/adr-core/internal/state"
)

// Stage channels on the temperature bridge used by the at-base check.
const (
	stageA = 1
	stageB = 2
)

// supplyCeiling is the hard current limit (A) of the magnet supply.
const supplyCeiling = 9.0

// run is the cycle loop. It exits when alive is cleared or the controller
// is closed.
func (c *Controller) run() {
	defer c.wg.Done()
	defer close(c.done)

	for {
		wait := c.unit.SleepInterval
		if c.store.Status().Ramping() {
			wait = c.store.Interval(state.RampWaitTime)
			if wait <= 0 {
				wait = c.unit.Parameters.RampWaitTime
			}
		}

		t := time.NewTimer(wait)
		select {
		case <-c.ctx.Done():
			t.Stop()
			return
		case <-c.wake:
			t.Stop()
		case <-t.C:
		}

		if !c.store.Flag(state.Alive) {
			c.logf("Cycle stopped.")
			return
		}
		c.safeTick()
	}
}

// safeTick runs one tick and recovers a panic so the loop survives it.
func (c *Controller) safeTick() {
	defer func() {
		if r := recover(); r != nil {
			c.logger.Error("panic in cycle tick",
				"unit", c.name,
				"panic", r,
				"stack", string(debug.Stack()),
			)
		}
	}()
	c.tick(c.ctx)
}

// tick advances the state machine by one step.
func (c *Controller) tick(ctx context.Context) {
	c.metrics.Tick(c.name)

	status := c.store.Status()

	var (
		temps   []float64
		haveTmp bool
	)
	if needsTemperatures(status) || c.awaitingAutoRecord() {
		temps, haveTmp = c.readTemperatures(ctx)
	}
	c.maybeStartRecording(ctx, temps, haveTmp)

	switch status {
	case state.CoolingDown:
		if c.atBase(temps, haveTmp) {
			c.setStatus(ctx, state.Ready)
		}

	case state.Ready:
		// Both checks run every tick, in this order.
		if !c.atBase(temps, haveTmp) {
			c.setStatus(ctx, state.CoolingDown)
		}
		if c.store.Flag(state.SchedulingActive) {
			c.setStatus(ctx, state.WaitingToMagUp)
		}

	case state.WaitingToMagUp:
		if !c.store.Flag(state.SchedulingActive) {
			c.setStatus(ctx, state.Ready)
		}
		if !c.atBase(temps, haveTmp) {
			c.setStatus(ctx, state.CoolingDown)
		}
		if c.passed(state.ScheduledMagUpTime) && c.atBase(temps, haveTmp) {
			c.setStatus(ctx, state.MaggingUp)
		}

	case state.MaggingUp:
		c.store.Clear(state.TimeMaggedDown)
		c.store.Clear(state.ScheduledMagUpTime)
		c.magStep(ctx, ramp.Up)

	case state.WaitingAtField:
		if c.passed(state.ScheduledMagDownTime) {
			if c.store.Flag(state.SchedulingActive) {
				c.setStatus(ctx, state.MaggingDown)
			} else {
				c.setStatus(ctx, state.ReadyToMagDown)
			}
		} else {
			c.holdField(ctx)
		}

	case state.ReadyToMagDown:
		c.holdField(ctx)

	case state.MaggingDown:
		c.store.Clear(state.ScheduledMagDownTime)
		c.magStep(ctx, ramp.Down)
	}
}

// needsTemperatures reports whether the status decides on the at-base check.
func needsTemperatures(s state.Status) bool {
	switch s {
	case state.CoolingDown, state.Ready, state.WaitingToMagUp:
		return true
	}
	return false
}

func (c *Controller) awaitingAutoRecord() bool {
	return c.store.Flag(state.AutoRecord) && !c.recorder.Active()
}

// readTemperatures reads the bridge once. An absent bridge is not logged.
func (c *Controller) readTemperatures(ctx context.Context) ([]float64, bool) {
	temps, err := c.facade.ReadTemperatures(ctx)
	if err != nil {
		c.facadeError("reading temperatures", err)
		return nil, false
	}
	return temps, true
}

// atBase reports whether both stages are below the cooldown limit.
// Missing readings are never at base.
func (c *Controller) atBase(temps []float64, ok bool) bool {
	if !ok || len(temps) <= stageB {
		return false
	}
	limit := c.store.Float(state.CooldownLimit)
	return temps[stageA] < limit && temps[stageB] < limit
}

// passed reports whether now is after the time stored at k.
// An unset time has not passed.
func (c *Controller) passed(k state.Key) bool {
	at, ok := c.store.Timestamp(k)
	return ok && c.now().After(at)
}

func (c *Controller) maybeStartRecording(ctx context.Context, temps []float64, ok bool) {
	if !ok || !c.awaitingAutoRecord() {
		return
	}
	ch := int(c.store.Float(state.RecordingChannel))
	if ch < 0 || ch >= len(temps) {
		return
	}
	start := recording.ShouldStart(temps[ch], c.store.Float(state.RecordingStartTemp),
		c.recorder.Active(), c.store.Flag(state.AutoRecord))
	if !start {
		return
	}
	if err := c.recorder.Start(ctx); err != nil {
		c.logger.Debug("auto-record start skipped", "unit", c.name, "error", err)
	}
}

// magStep performs one ramp step and applies its outcome.
func (c *Controller) magStep(ctx context.Context, d ramp.Direction) {
	res, err := ramp.Step(ctx, c.facade, d, c.limits())
	if err != nil {
		c.facadeError(fmt.Sprintf("ramping %s", d), err)
		return
	}
	c.metrics.MagnetCurrent(c.name, res.Current)
	c.logger.Debug("mag step",
		"unit", c.name,
		"direction", d.String(),
		"quenched", res.Quenched,
		"target_reached", res.TargetReached,
		"interlocked", res.Interlocked,
		"current", res.Current,
		"voltage", res.Voltage,
	)

	if res.Quenched {
		c.logf(fmt.Sprintf("%s Quenched!", c.name))
		c.metrics.Quench(c.name)
		c.setStatus(ctx, state.CoolingDown)
		return
	}
	if !res.TargetReached {
		return
	}

	now := c.now()
	if d == ramp.Up {
		c.setStatus(ctx, state.WaitingAtField)
		c.holdField(ctx)
		c.setTime(state.TimeMaggedUp, now)
		c.setTime(state.ScheduledMagDownTime, magDownAt(now, c.store.Float(state.FieldWaitTime)))
		return
	}

	c.setStatus(ctx, state.Ready)
	c.setTime(state.TimeMaggedDown, now)
	c.outputOff(ctx)
}

func (c *Controller) limits() ramp.Limits {
	return ramp.Limits{
		QuenchLimit:     c.store.Float(state.QuenchLimit),
		TargetCurrent:   c.store.Float(state.TargetCurrent),
		VoltageLimit:    c.store.Float(state.VoltageLimit),
		VoltageStepUp:   c.store.Float(state.VoltageStepUp),
		VoltageStepDown: c.store.Float(state.VoltageStepDown),
	}
}

// magDownAt is the scheduled end of the field wait; fieldWait is in minutes.
func magDownAt(maggedUp time.Time, fieldWait float64) time.Time {
	return maggedUp.Add(time.Duration(fieldWait * float64(time.Minute)))
}

func (c *Controller) setTime(k state.Key, at time.Time) {
	_ = c.store.Set(k, state.TimeValue(at)) //nolint:errcheck // kind is fixed
}

// facadeError logs an instrument failure. An absent peripheral is part of
// normal operation and only counted.
func (c *Controller) facadeError(op string, err error) {
	c.metrics.FacadeError(c.name)
	if isUnavailable(err) {
		c.logger.Debug("peripheral unavailable", "unit", c.name, "op", op, "error", err)
		return
	}
	c.logf(fmt.Sprintf("Error %s: %v", op, err))
}
