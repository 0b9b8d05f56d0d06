package state

import "fmt"

// Key names one controller parameter. The set is closed: every Key is
// declared below with the kind of value it holds.
type Key string

// Safety limits.
const (
	QuenchLimit   Key = "quenchLimit"
	CooldownLimit Key = "cooldownLimit"
	VoltageLimit  Key = "voltageLimit"
)

// Ramp settings.
const (
	VoltageStepUp   Key = "voltageStepUp"
	VoltageStepDown Key = "voltageStepDown"
	TargetCurrent   Key = "targetCurrent"
	MaxCurrent      Key = "maxCurrent"
	RampWaitTime    Key = "rampWaitTime"
)

// Scheduling.
const (
	ScheduledMagUpTime   Key = "scheduledMagUpTime"
	ScheduledMagDownTime Key = "scheduledMagDownTime"
	FieldWaitTime        Key = "fieldWaitTime"
	TimeMaggedUp         Key = "timeMaggedUp"
	TimeMaggedDown       Key = "timeMaggedDown"
	SchedulingActive     Key = "schedulingActive"
)

// Heat switch control.
const (
	AutoControl           Key = "autoControl"
	HeatSwitchOpenOnMagUp Key = "heatSwitchOpenOnMagUp"
)

// Thermometer calibration.
const (
	RuoxCoefsHighTemp Key = "ruoxCoefsHighTemp"
	RuoxCoefsLowTemp  Key = "ruoxCoefsLowTemp"
	ResistanceCutoff  Key = "resistanceCutoff"
	VoltToResCalibs   Key = "voltToResCalibs"
	SwitchPosition    Key = "switchPosition"
	RuoxChannel       Key = "ruoxChannel"
)

// Recording and log.
const (
	RecordingActive    Key = "recordingActive"
	RecordingStartTemp Key = "recordingStartTemp"
	RecordingStopTemp  Key = "recordingStopTemp"
	RecordingChannel   Key = "recordingChannel"
	RecordInterval     Key = "recordInterval"
	DatasetName        Key = "datasetName"
	AutoRecord         Key = "autoRecord"
	LogFile            Key = "logFile"
	LogLimit           Key = "logLimit"
)

// Liveness.
const (
	Alive Key = "alive"
)

// keyKinds declares every key in presentation order.
var keyKinds = []struct {
	key  Key
	kind Kind
}{
	{QuenchLimit, KindNumber},
	{CooldownLimit, KindNumber},
	{VoltageLimit, KindNumber},
	{VoltageStepUp, KindNumber},
	{VoltageStepDown, KindNumber},
	{TargetCurrent, KindNumber},
	{MaxCurrent, KindNumber},
	{RampWaitTime, KindDuration},
	{ScheduledMagUpTime, KindTime},
	{ScheduledMagDownTime, KindTime},
	{FieldWaitTime, KindNumber},
	{TimeMaggedUp, KindTime},
	{TimeMaggedDown, KindTime},
	{SchedulingActive, KindBool},
	{AutoControl, KindBool},
	{HeatSwitchOpenOnMagUp, KindBool},
	{RuoxCoefsHighTemp, KindVector},
	{RuoxCoefsLowTemp, KindVector},
	{ResistanceCutoff, KindNumber},
	{VoltToResCalibs, KindVector},
	{SwitchPosition, KindNumber},
	{RuoxChannel, KindNumber},
	{RecordingActive, KindBool},
	{RecordingStartTemp, KindNumber},
	{RecordingStopTemp, KindNumber},
	{RecordingChannel, KindNumber},
	{RecordInterval, KindDuration},
	{DatasetName, KindString},
	{AutoRecord, KindBool},
	{LogFile, KindString},
	{LogLimit, KindNumber},
	{Alive, KindBool},
}

var kindByKey = func() map[Key]Kind {
	m := make(map[Key]Kind, len(keyKinds))
	for _, kk := range keyKinds {
		m[kk.key] = kk.kind
	}
	return m
}()

// Keys returns every parameter key in presentation order.
func Keys() []Key {
	keys := make([]Key, len(keyKinds))
	for i, kk := range keyKinds {
		keys[i] = kk.key
	}
	return keys
}

// ParseKey resolves an external parameter name.
func ParseKey(name string) (Key, error) {
	k := Key(name)
	if _, ok := kindByKey[k]; !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownKey, name)
	}
	return k, nil
}

// Kind returns the declared kind of k, and false for undeclared keys.
func (k Key) Kind() (Kind, bool) {
	kind, ok := kindByKey[k]
	return kind, ok
}

func (k Key) String() string { return string(k) }
