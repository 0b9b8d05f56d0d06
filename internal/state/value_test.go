package state

import (
	"encoding/json"
	"errors"
	"testing"
	"time"
)

func TestParseValue(t *testing.T) {
	at := time.Date(2026, 3, 1, 9, 30, 0, 0, time.UTC)

	tests := []struct {
		name    string
		key     Key
		raw     string
		want    Value
		wantErr error
	}{
		{"number", QuenchLimit, `4.2`, NumberValue(4.2), nil},
		{"bool", AutoControl, `true`, BoolValue(true), nil},
		{"timestamp string", ScheduledMagUpTime, `"2026-03-01T09:30:00Z"`, TimeValue(at), nil},
		{"timestamp unix seconds", ScheduledMagUpTime, `1772357400`, TimeValue(at), nil},
		{"duration seconds", RampWaitTime, `0.25`, DurationValue(250 * time.Millisecond), nil},
		{"duration string", RecordInterval, `"30s"`, DurationValue(30 * time.Second), nil},
		{"string", DatasetName, `"adr1 cooldown"`, StringValue("adr1 cooldown"), nil},
		{"vector", VoltToResCalibs, `[0.26, 26.03]`, VectorValue([]float64{0.26, 26.03}), nil},
		{"null is unset", ScheduledMagDownTime, `null`, Unset(), nil},
		{"null is unset for numbers too", QuenchLimit, ` null `, Unset(), nil},
		{"wrong kind", QuenchLimit, `"high"`, Value{}, ErrInvalidValue},
		{"bad timestamp", ScheduledMagUpTime, `"yesterday"`, Value{}, ErrInvalidValue},
		{"bad duration", RecordInterval, `"soon"`, Value{}, ErrInvalidValue},
		{"unknown key", Key("bogus"), `1`, Value{}, ErrUnknownKey},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseValue(tt.key, json.RawMessage(tt.raw))
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("ParseValue() error = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseValue() error = %v", err)
			}
			if !got.Equal(tt.want) {
				t.Errorf("ParseValue() = %v (%s), want %v (%s)", got, got.Kind(), tt.want, tt.want.Kind())
			}
		})
	}
}

func TestValue_MarshalJSON(t *testing.T) {
	at := time.Date(2026, 3, 1, 9, 30, 0, 0, time.UTC)

	tests := []struct {
		name string
		v    Value
		want string
	}{
		{"unset", Unset(), `null`},
		{"number", NumberValue(3.9), `3.9`},
		{"bool", BoolValue(false), `false`},
		{"timestamp", TimeValue(at), `"2026-03-01T09:30:00Z"`},
		{"duration", DurationValue(1500 * time.Millisecond), `1.5`},
		{"string", StringValue("x"), `"x"`},
		{"empty vector", VectorValue(nil), `[]`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b, err := json.Marshal(tt.v)
			if err != nil {
				t.Fatalf("Marshal() error = %v", err)
			}
			if string(b) != tt.want {
				t.Errorf("Marshal() = %s, want %s", b, tt.want)
			}
		})
	}
}

func TestValue_VectorIsCopied(t *testing.T) {
	src := []float64{1, 2, 3}
	v := VectorValue(src)
	src[0] = 99

	out := v.Vector()
	if out[0] != 1 {
		t.Errorf("Vector()[0] = %v, want 1 (constructor must copy)", out[0])
	}
	out[1] = 99
	if v.Vector()[1] != 2 {
		t.Error("Vector() must return a copy")
	}
}

func TestValue_Equal(t *testing.T) {
	if NumberValue(1).Equal(BoolValue(true)) {
		t.Error("different kinds compared equal")
	}
	if !Unset().Equal(Value{}) {
		t.Error("zero value should equal Unset()")
	}
	if VectorValue([]float64{1, 2}).Equal(VectorValue([]float64{1})) {
		t.Error("vectors of different length compared equal")
	}
}
