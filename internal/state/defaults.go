package state

import "github.com/nerrad567/adr-core/internal/infrastructure/config"

// Defaults builds the initial parameter set of a unit from its
// configuration. Scheduling timestamps and the dataset name start unset.
func Defaults(u config.UnitConfig) map[Key]Value {
	p := u.Parameters
	c := u.Calibration

	values := map[Key]Value{
		QuenchLimit:           NumberValue(p.QuenchLimit),
		CooldownLimit:         NumberValue(p.CooldownLimit),
		VoltageLimit:          NumberValue(p.VoltageLimit),
		VoltageStepUp:         NumberValue(p.VoltageStepUp),
		VoltageStepDown:       NumberValue(p.VoltageStepDown),
		TargetCurrent:         NumberValue(p.TargetCurrent),
		MaxCurrent:            NumberValue(p.MaxCurrent),
		RampWaitTime:          DurationValue(p.RampWaitTime),
		FieldWaitTime:         NumberValue(p.FieldWaitTime),
		SchedulingActive:      BoolValue(false),
		AutoControl:           BoolValue(p.AutoControl),
		HeatSwitchOpenOnMagUp: BoolValue(!p.InvertHeatSwitch),
		RuoxCoefsHighTemp:     VectorValue(c.CoefsHighTemp),
		RuoxCoefsLowTemp:      VectorValue(c.CoefsLowTemp),
		ResistanceCutoff:      NumberValue(c.ResistanceCutoff),
		VoltToResCalibs:       VectorValue(c.VoltToResCalibs),
		SwitchPosition:        NumberValue(float64(c.SwitchPosition)),
		RuoxChannel:           NumberValue(float64(c.RuoxChannel)),
		RecordingActive:       BoolValue(false),
		RecordingStartTemp:    NumberValue(p.RecordingStartTemp),
		RecordingStopTemp:     NumberValue(p.RecordingStopTemp),
		RecordingChannel:      NumberValue(float64(p.RecordingChannel)),
		RecordInterval:        DurationValue(p.RecordInterval),
		AutoRecord:            BoolValue(p.AutoRecord),
		LogLimit:              NumberValue(float64(p.LogLimit)),
		Alive:                 BoolValue(false),
	}
	if p.LogFile != "" {
		values[LogFile] = StringValue(p.LogFile)
	}
	return values
}

// Revertible reports whether k is restored by a revert to defaults.
// Runtime state (liveness, recording, completed timestamps) survives.
func Revertible(k Key) bool {
	switch k {
	case Alive, RecordingActive, DatasetName, TimeMaggedUp, TimeMaggedDown,
		ScheduledMagUpTime, ScheduledMagDownTime, SchedulingActive:
		return false
	}
	return true
}
