package state

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/nerrad567/adr-core/internal/infrastructure/config"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	u := config.UnitConfig{
		Name:        "adr1",
		Parameters:  config.DefaultParameters(),
		Calibration: config.DefaultCalibration(),
	}
	s, err := NewStore(Defaults(u))
	if err != nil {
		t.Fatalf("NewStore() error = %v", err)
	}
	return s
}

func TestStore_Defaults(t *testing.T) {
	s := newTestStore(t)

	if got := s.Float(QuenchLimit); got != 4.0 {
		t.Errorf("quenchLimit = %v, want 4.0", got)
	}
	if got := s.Interval(RampWaitTime); got != 200*time.Millisecond {
		t.Errorf("rampWaitTime = %v, want 200ms", got)
	}
	if !s.Flag(HeatSwitchOpenOnMagUp) {
		t.Error("heatSwitchOpenOnMagUp = false, want true")
	}
	if got := s.Floats(VoltToResCalibs); len(got) != 6 {
		t.Errorf("voltToResCalibs = %v, want 6 entries", got)
	}
	if s.Status() != CoolingDown {
		t.Errorf("Status() = %q, want %q", s.Status(), CoolingDown)
	}
}

func TestStore_UnsetSentinel(t *testing.T) {
	s := newTestStore(t)

	v := s.Get(ScheduledMagUpTime)
	if !v.IsUnset() {
		t.Errorf("Get(scheduledMagUpTime) = %v, want unset", v)
	}
	if _, ok := s.Timestamp(ScheduledMagUpTime); ok {
		t.Error("Timestamp() reported an unset key as set")
	}

	at := time.Now()
	if err := s.Set(ScheduledMagUpTime, TimeValue(at)); err != nil {
		t.Fatalf("Set() error = %v", err)
	}
	if got, ok := s.Timestamp(ScheduledMagUpTime); !ok || !got.Equal(at) {
		t.Errorf("Timestamp() = %v, %v", got, ok)
	}

	s.Clear(ScheduledMagUpTime)
	if !s.Get(ScheduledMagUpTime).IsUnset() {
		t.Error("Clear() did not unset the key")
	}
	if _, present := s.Snapshot()[ScheduledMagUpTime]; present {
		t.Error("Snapshot() contains a cleared key")
	}
}

func TestStore_KindMismatch(t *testing.T) {
	s := newTestStore(t)

	err := s.Set(QuenchLimit, BoolValue(true))
	if !errors.Is(err, ErrKindMismatch) {
		t.Errorf("Set() error = %v, want ErrKindMismatch", err)
	}
	if got := s.Float(QuenchLimit); got != 4.0 {
		t.Errorf("quenchLimit changed to %v after rejected write", got)
	}

	if err := s.Set(Key("bogus"), NumberValue(1)); !errors.Is(err, ErrUnknownKey) {
		t.Errorf("Set(bogus) error = %v, want ErrUnknownKey", err)
	}

	if _, err := NewStore(map[Key]Value{Alive: NumberValue(1)}); !errors.Is(err, ErrKindMismatch) {
		t.Errorf("NewStore() error = %v, want ErrKindMismatch", err)
	}
}

func TestStore_Hooks(t *testing.T) {
	s := newTestStore(t)

	var calls []Value
	s.OnChange(FieldWaitTime, func(k Key, old, new Value) {
		if k != FieldWaitTime {
			t.Errorf("hook key = %s", k)
		}
		calls = append(calls, new)
	})

	if err := s.Set(FieldWaitTime, NumberValue(5)); err != nil {
		t.Fatalf("Set() error = %v", err)
	}
	// Same value again: no change, no hook.
	if err := s.Set(FieldWaitTime, NumberValue(5)); err != nil {
		t.Fatalf("Set() error = %v", err)
	}
	if err := s.Set(QuenchLimit, NumberValue(5)); err != nil {
		t.Fatalf("Set() error = %v", err)
	}

	if len(calls) != 1 || calls[0].Float64() != 5 {
		t.Errorf("hook calls = %v, want one call with 5", calls)
	}
}

func TestStore_HookMayWriteStore(t *testing.T) {
	s := newTestStore(t)
	s.OnChange(ScheduledMagUpTime, func(_ Key, _, new Value) {
		if !new.IsUnset() {
			_ = s.Set(SchedulingActive, BoolValue(true)) //nolint:errcheck // kind is correct
		}
	})

	if err := s.Set(ScheduledMagUpTime, TimeValue(time.Now())); err != nil {
		t.Fatalf("Set() error = %v", err)
	}
	if !s.Flag(SchedulingActive) {
		t.Error("hook write not visible")
	}
}

func TestStore_SwapStatus(t *testing.T) {
	s := newTestStore(t)

	prev, changed, err := s.SwapStatus(Ready)
	if err != nil || !changed || prev != CoolingDown {
		t.Errorf("SwapStatus(ready) = %q, %v, %v", prev, changed, err)
	}

	_, changed, err = s.SwapStatus(Ready)
	if err != nil || changed {
		t.Errorf("SwapStatus(ready) again changed = %v, err = %v", changed, err)
	}

	_, changed, err = s.SwapStatus(Status("warming up"))
	if !errors.Is(err, ErrInvalidStatus) || changed {
		t.Errorf("SwapStatus(invalid) = %v, %v", changed, err)
	}
	if s.Status() != Ready {
		t.Errorf("Status() = %q after invalid write, want ready", s.Status())
	}
}

func TestStore_PacingKeys(t *testing.T) {
	tests := []struct {
		name string
		key  Key
		v    Value
	}{
		{"ramp wait unset", RampWaitTime, Unset()},
		{"ramp wait zero", RampWaitTime, DurationValue(0)},
		{"ramp wait negative", RampWaitTime, DurationValue(-time.Second)},
		{"record interval unset", RecordInterval, Unset()},
		{"record interval zero", RecordInterval, DurationValue(0)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newTestStore(t)
			before := s.Interval(tt.key)

			if err := s.Set(tt.key, tt.v); !errors.Is(err, ErrInvalidValue) {
				t.Errorf("Set(%s, %v) error = %v, want ErrInvalidValue", tt.key, tt.v, err)
			}
			s.Clear(tt.key)
			if got := s.Interval(tt.key); got != before {
				t.Errorf("%s = %v after rejected writes, want %v", tt.key, got, before)
			}
		})
	}

	s := newTestStore(t)
	if err := s.Set(RampWaitTime, DurationValue(time.Second)); err != nil {
		t.Errorf("Set(positive) error = %v", err)
	}
	if _, err := NewStore(map[Key]Value{RampWaitTime: DurationValue(0)}); !errors.Is(err, ErrInvalidValue) {
		t.Errorf("NewStore() error = %v, want ErrInvalidValue", err)
	}
}

func TestStore_ConcurrentAccess(t *testing.T) {
	s := newTestStore(t)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(2)
		go func(i int) {
			defer wg.Done()
			for j := 0; j < 200; j++ {
				_ = s.Set(TargetCurrent, NumberValue(float64(i*j))) //nolint:errcheck // valid
			}
		}(i)
		go func() {
			defer wg.Done()
			for j := 0; j < 200; j++ {
				_ = s.Get(TargetCurrent)
				_ = s.Snapshot()
				_ = s.Status()
			}
		}()
	}
	wg.Wait()

	if s.Get(TargetCurrent).Kind() != KindNumber {
		t.Error("targetCurrent lost its kind under concurrent writes")
	}
}

func TestParseKeyAndStatus(t *testing.T) {
	if k, err := ParseKey("quenchLimit"); err != nil || k != QuenchLimit {
		t.Errorf("ParseKey(quenchLimit) = %q, %v", k, err)
	}
	if _, err := ParseKey("quench_limit"); !errors.Is(err, ErrUnknownKey) {
		t.Errorf("ParseKey(quench_limit) error = %v", err)
	}
	if len(Keys()) != len(kindByKey) {
		t.Errorf("Keys() has %d entries, declared %d", len(Keys()), len(kindByKey))
	}

	for _, name := range StatusNames() {
		if _, err := ParseStatus(name); err != nil {
			t.Errorf("ParseStatus(%q) error = %v", name, err)
		}
	}
	if _, err := ParseStatus("warming up"); !errors.Is(err, ErrInvalidStatus) {
		t.Errorf("ParseStatus(warming up) error = %v", err)
	}
	if !MaggingUp.Ramping() || Ready.Ramping() {
		t.Error("Ramping() misclassifies statuses")
	}
}

func TestRevertible(t *testing.T) {
	if Revertible(Alive) || Revertible(TimeMaggedUp) {
		t.Error("runtime keys must survive a revert")
	}
	if !Revertible(QuenchLimit) || !Revertible(RuoxCoefsHighTemp) {
		t.Error("configuration keys must be revertible")
	}
}
