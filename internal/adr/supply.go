package adr

import (
	"context"
	"errors"
	"fmt"
	"math"

	"github.com/nerrad567/adr-core/internal/instrument"
	"github.com/nerrad567/adr-core/internal/state"
)

func isUnavailable(err error) bool {
	return errors.Is(err, instrument.ErrUnavailable)
}

// setStatus moves the cycle to next. Entry actions and notifications run
// only when the status actually changes.
func (c *Controller) setStatus(ctx context.Context, next state.Status) {
	_, changed, err := c.store.SwapStatus(next)
	if err != nil {
		c.logf(fmt.Sprintf("ERROR: status %s not in possible statuses", string(next)))
		return
	}
	if !changed {
		return
	}

	switch next {
	case state.MaggingUp:
		if c.store.Flag(state.AutoControl) {
			c.driveHeatSwitch(ctx, c.store.Flag(state.HeatSwitchOpenOnMagUp))
		}
		c.outputOn(ctx)
	case state.MaggingDown:
		if c.store.Flag(state.AutoControl) {
			c.driveHeatSwitch(ctx, !c.store.Flag(state.HeatSwitchOpenOnMagUp))
		}
	}

	c.logf(fmt.Sprintf("ADR %s status is now: %s", c.name, next))
	c.metrics.SetStatus(c.name, string(next), state.StatusNames())
	at := c.now()
	for _, n := range c.notifiers {
		n.StatusChanged(c.name, next, at)
	}
}

// maxCurrent returns the supply current limit: maxCurrent capped at the
// supply ceiling, with a negative value meaning the ceiling.
func maxCurrent(configured float64) float64 {
	if configured < 0 {
		return supplyCeiling
	}
	return math.Min(supplyCeiling, configured)
}

// holdField re-asserts the maximum supply current.
func (c *Controller) holdField(ctx context.Context) {
	if err := c.facade.SetMagnetCurrent(ctx, maxCurrent(c.store.Float(state.MaxCurrent))); err != nil {
		c.facadeError("setting magnet current", err)
	}
}

// outputOn energises the supply at the maximum current.
func (c *Controller) outputOn(ctx context.Context) {
	if err := c.facade.SetMagnetCurrent(ctx, maxCurrent(c.store.Float(state.MaxCurrent))); err != nil {
		c.facadeError("setting magnet current", err)
		return
	}
	if err := c.facade.SetOutputState(ctx, true); err != nil {
		c.facadeError("switching magnet output on", err)
	}
}

// outputOff zeroes the supply, waits for it to settle and switches the
// output off.
func (c *Controller) outputOff(ctx context.Context) {
	if err := c.facade.SetMagnetVoltage(ctx, 0); err != nil {
		c.facadeError("setting magnet voltage", err)
		return
	}
	if err := c.facade.SetMagnetCurrent(ctx, 0); err != nil {
		c.facadeError("setting magnet current", err)
		return
	}
	if err := c.sleep(ctx, c.unit.OutputOffDelay); err != nil {
		return
	}
	if err := c.facade.SetOutputState(ctx, false); err != nil {
		c.facadeError("switching magnet output off", err)
	}
}

func (c *Controller) driveHeatSwitch(ctx context.Context, open bool) {
	var err error
	if open {
		err = c.facade.OpenHeatSwitch(ctx)
	} else {
		err = c.facade.CloseHeatSwitch(ctx)
	}
	if err != nil {
		c.facadeError("driving heat switch", err)
	}
}
