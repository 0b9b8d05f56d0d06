package ramp

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/nerrad567/adr-core/internal/instrument"
)

func testLimits() Limits {
	return Limits{
		QuenchLimit:     4.0,
		TargetCurrent:   8,
		VoltageLimit:    0.28,
		VoltageStepUp:   0.004,
		VoltageStepDown: 0.003,
	}
}

func newFake(stageTemp, current, voltage float64) *instrument.Fake {
	f := instrument.NewFake()
	f.Temperatures = []float64{300, stageTemp, 3.5, 0, 0, 0, 0, 0}
	f.MagnetCurrent = current
	f.MagnetVoltage = voltage
	return f
}

func TestQuenched_Boundary(t *testing.T) {
	tests := []struct {
		name    string
		temp    float64
		current float64
		want    bool
	}{
		{"below threshold", 4.5, 0.4999, false},
		{"at threshold", 4.5, 0.5, false},
		{"above threshold", 4.5, 0.5001, true},
		{"large current", 4.5, 8, true},
		{"stage at limit", 4.0, 8, false},
		{"stage cold", 3.0, 8, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Quenched(tt.temp, tt.current, 4.0); got != tt.want {
				t.Errorf("Quenched(%v, %v) = %v, want %v", tt.temp, tt.current, got, tt.want)
			}
		})
	}
}

func TestTargetReached(t *testing.T) {
	tests := []struct {
		name    string
		d       Direction
		current float64
		want    bool
	}{
		{"up within epsilon", Up, 8 - 0.0005, true},
		{"up at target", Up, 8, true},
		{"up over target", Up, 8.2, true},
		{"up short", Up, 7.99, false},
		{"down near zero", Down, 0.005, true},
		{"down at threshold", Down, 0.01, false},
		{"down still energised", Down, 2, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := TargetReached(tt.d, tt.current, 8); got != tt.want {
				t.Errorf("TargetReached(%s, %v) = %v, want %v", tt.d, tt.current, got, tt.want)
			}
		})
	}
}

func TestStep_InterlockHoldsVoltage(t *testing.T) {
	tests := []struct {
		name     string
		chA      float64
		chB      float64
		wantMove bool
	}{
		{"both clear", 0.1, -0.1, true},
		{"A at limit", 0.28, 0, false},
		{"B at limit", 0, 0.28, false},
		{"A negative over", -0.3, 0, false},
		{"B negative at limit", 0, -0.28, false},
		{"just inside", 0.2799, -0.2799, true},
	}

	for _, d := range []Direction{Up, Down} {
		for _, tt := range tests {
			t.Run(d.String()+"/"+tt.name, func(t *testing.T) {
				f := newFake(3.0, 4, 0.5)
				f.Voltages[interlockChannelA] = tt.chA
				f.Voltages[interlockChannelB] = tt.chB

				res, err := Step(context.Background(), f, d, testLimits())
				if err != nil {
					t.Fatalf("Step() error = %v", err)
				}

				delta := res.Voltage - 0.5
				if !tt.wantMove {
					if delta != 0 {
						t.Errorf("voltage delta = %v with interlock tripped, want 0", delta)
					}
					if !res.Interlocked {
						t.Error("Interlocked = false")
					}
					return
				}
				want := 0.004
				if d == Down {
					want = -0.003
				}
				if math.Abs(delta-want) > 1e-12 {
					t.Errorf("voltage delta = %v, want %v", delta, want)
				}
			})
		}
	}
}

func TestStep(t *testing.T) {
	tests := []struct {
		name        string
		d           Direction
		stageTemp   float64
		current     float64
		wantQuench  bool
		wantTarget  bool
		wantVoltage float64
	}{
		{"ramping up", Up, 3.0, 4, false, false, 0.504},
		{"ramping down", Down, 3.0, 4, false, false, 0.497},
		{"quench holds voltage", Up, 4.5, 4, true, false, 0.5},
		{"target holds voltage", Up, 3.0, 8 - 0.0005, false, true, 0.5},
		{"down complete holds voltage", Down, 3.0, 0.001, false, true, 0.5},
		{"warm stage at zero current is no quench", Up, 4.5, 0.2, false, false, 0.504},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFake(tt.stageTemp, tt.current, 0.5)

			res, err := Step(context.Background(), f, tt.d, testLimits())
			if err != nil {
				t.Fatalf("Step() error = %v", err)
			}
			if res.Quenched != tt.wantQuench || res.TargetReached != tt.wantTarget {
				t.Errorf("Step() = quenched %v target %v, want %v %v",
					res.Quenched, res.TargetReached, tt.wantQuench, tt.wantTarget)
			}
			if math.Abs(res.Voltage-tt.wantVoltage) > 1e-12 {
				t.Errorf("Voltage = %v, want %v", res.Voltage, tt.wantVoltage)
			}
			if res.Current != tt.current {
				t.Errorf("Current = %v, want %v", res.Current, tt.current)
			}

			// The absolute voltage is always written, even when unchanged.
			calls := f.Calls()
			if len(calls) != 1 {
				t.Fatalf("writes = %v, want exactly one voltage write", calls)
			}
		})
	}
}

func TestStep_ReadFailureWritesNothing(t *testing.T) {
	tests := []struct {
		name  string
		setup func(f *instrument.Fake)
		want  error
	}{
		{"temperature bridge absent", func(f *instrument.Fake) { f.Unavailable = true }, instrument.ErrUnavailable},
		{"temperature read fails", func(f *instrument.Fake) { f.TemperatureErr = instrument.ErrCommunication }, instrument.ErrCommunication},
		{"supply read fails", func(f *instrument.Fake) { f.MagnetErr = instrument.ErrCommunication }, instrument.ErrCommunication},
		{"short temperature list", func(f *instrument.Fake) { f.Temperatures = []float64{300} }, ErrShortReading},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFake(3.0, 4, 0.5)
			tt.setup(f)

			_, err := Step(context.Background(), f, Up, testLimits())
			if !errors.Is(err, tt.want) {
				t.Errorf("Step() error = %v, want %v", err, tt.want)
			}
			if calls := f.Calls(); len(calls) != 0 {
				t.Errorf("writes after failed read: %v", calls)
			}
		})
	}
}

func TestInterlockClear_ShortReading(t *testing.T) {
	if InterlockClear([]float64{0, 0, 0}, 0.28) {
		t.Error("reading without interlock channels reported clear")
	}
}
