package adr

import (
	"errors"

	"github.com/nerrad567/adr-core/internal/recording"
	"github.com/nerrad567/adr-core/internal/state"
)

// registerHooks wires the derived updates that follow parameter writes.
// Hooks run in the writer's goroutine.
func (c *Controller) registerHooks() {
	s := c.store

	// Scheduling a mag up activates scheduling.
	s.OnChange(state.ScheduledMagUpTime, func(_ state.Key, _, v state.Value) {
		if v.Kind() == state.KindTime {
			_ = s.Set(state.SchedulingActive, state.BoolValue(true)) //nolint:errcheck // kind is fixed
		}
	})

	// A new field wait moves the pending mag down.
	s.OnChange(state.FieldWaitTime, func(_ state.Key, _, v state.Value) {
		up, ok := s.Timestamp(state.TimeMaggedUp)
		if !ok || s.Status() != state.WaitingAtField {
			return
		}
		c.setTime(state.ScheduledMagDownTime, magDownAt(up, v.Float64()))
	})

	// Resuming scheduling releases a held field.
	s.OnChange(state.SchedulingActive, func(_ state.Key, _, v state.Value) {
		if v.Bool() && s.Status() == state.ReadyToMagDown {
			c.setStatus(c.ctx, state.MaggingDown)
		}
	})

	s.OnChange(state.LogLimit, func(_ state.Key, _, v state.Value) {
		c.log.SetLimit(int(v.Float64()))
	})

	s.OnChange(state.RecordingActive, func(_ state.Key, _, v state.Value) {
		var err error
		if v.Bool() {
			err = c.recorder.Start(c.ctx)
		} else {
			err = c.recorder.Stop()
		}
		if err != nil && !errors.Is(err, recording.ErrAlreadyRecording) && !errors.Is(err, recording.ErrNotRecording) {
			c.logger.Warn("recording toggle failed", "unit", c.name, "error", err)
		}
	})

	s.OnChange(state.Alive, func(_ state.Key, _, v state.Value) {
		if v.Bool() {
			return
		}
		select {
		case c.wake <- struct{}{}:
		default:
		}
	})

	s.OnChange(state.LogFile, func(_ state.Key, _, v state.Value) {
		c.logFile.open(v.Text())
	})
}
