package state

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"time"
)

// Kind identifies which variant a Value holds.
type Kind uint8

// Value kinds.
const (
	KindUnset Kind = iota
	KindNumber
	KindBool
	KindTime
	KindDuration
	KindString
	KindVector
)

var kindNames = [...]string{
	KindUnset:    "unset",
	KindNumber:   "number",
	KindBool:     "bool",
	KindTime:     "timestamp",
	KindDuration: "duration",
	KindString:   "string",
	KindVector:   "vector",
}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return "kind(" + strconv.Itoa(int(k)) + ")"
}

// Value is a parameter value: exactly one of unset, number, bool,
// timestamp, duration, string or vector.
//
// The zero Value is unset. Values are immutable; vectors are copied on the
// way in and on the way out.
type Value struct {
	kind Kind
	num  float64
	flag bool
	at   time.Time
	dur  time.Duration
	text string
	vec  []float64
}

// Unset returns the unset sentinel.
func Unset() Value { return Value{} }

// NumberValue returns a number Value.
func NumberValue(f float64) Value { return Value{kind: KindNumber, num: f} }

// BoolValue returns a bool Value.
func BoolValue(b bool) Value { return Value{kind: KindBool, flag: b} }

// TimeValue returns a timestamp Value.
func TimeValue(t time.Time) Value { return Value{kind: KindTime, at: t} }

// DurationValue returns a duration Value.
func DurationValue(d time.Duration) Value { return Value{kind: KindDuration, dur: d} }

// StringValue returns a string Value.
func StringValue(s string) Value { return Value{kind: KindString, text: s} }

// VectorValue returns a vector Value holding a copy of v.
func VectorValue(v []float64) Value {
	return Value{kind: KindVector, vec: append([]float64(nil), v...)}
}

// Kind returns the variant held.
func (v Value) Kind() Kind { return v.kind }

// IsUnset reports whether v is the unset sentinel.
func (v Value) IsUnset() bool { return v.kind == KindUnset }

// Float64 returns the number, or 0 for other kinds.
func (v Value) Float64() float64 { return v.num }

// Bool returns the flag, or false for other kinds.
func (v Value) Bool() bool { return v.flag }

// Time returns the timestamp, or the zero time for other kinds.
func (v Value) Time() time.Time { return v.at }

// Duration returns the duration, or 0 for other kinds.
func (v Value) Duration() time.Duration { return v.dur }

// Text returns the string, or "" for other kinds.
func (v Value) Text() string { return v.text }

// Vector returns a copy of the vector, or nil for other kinds.
func (v Value) Vector() []float64 {
	if v.vec == nil {
		return nil
	}
	return append([]float64(nil), v.vec...)
}

// Equal reports whether two values hold the same variant and content.
func (v Value) Equal(o Value) bool {
	if v.kind != o.kind {
		return false
	}
	switch v.kind {
	case KindNumber:
		return v.num == o.num || (math.IsNaN(v.num) && math.IsNaN(o.num))
	case KindBool:
		return v.flag == o.flag
	case KindTime:
		return v.at.Equal(o.at)
	case KindDuration:
		return v.dur == o.dur
	case KindString:
		return v.text == o.text
	case KindVector:
		if len(v.vec) != len(o.vec) {
			return false
		}
		for i := range v.vec {
			if v.vec[i] != o.vec[i] {
				return false
			}
		}
	}
	return true
}

func (v Value) String() string {
	switch v.kind {
	case KindNumber:
		return strconv.FormatFloat(v.num, 'g', -1, 64)
	case KindBool:
		return strconv.FormatBool(v.flag)
	case KindTime:
		return v.at.Format(time.RFC3339)
	case KindDuration:
		return v.dur.String()
	case KindString:
		return v.text
	case KindVector:
		return fmt.Sprint(v.vec)
	}
	return "unset"
}

// MarshalJSON encodes unset as null, timestamps as RFC 3339 strings and
// durations as seconds.
func (v Value) MarshalJSON() ([]byte, error) {
	switch v.kind {
	case KindNumber:
		return json.Marshal(v.num)
	case KindBool:
		return json.Marshal(v.flag)
	case KindTime:
		return json.Marshal(v.at.Format(time.RFC3339Nano))
	case KindDuration:
		return json.Marshal(v.dur.Seconds())
	case KindString:
		return json.Marshal(v.text)
	case KindVector:
		if v.vec == nil {
			return []byte("[]"), nil
		}
		return json.Marshal(v.vec)
	}
	return []byte("null"), nil
}

// ParseValue decodes an external JSON value for key k.
//
// null decodes to unset for every key. Timestamps accept RFC 3339 strings
// or Unix seconds; durations accept seconds or Go duration strings such
// as "1.5s".
func ParseValue(k Key, raw json.RawMessage) (Value, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return Unset(), nil
	}

	kind, ok := k.Kind()
	if !ok {
		return Value{}, fmt.Errorf("%w: %q", ErrUnknownKey, string(k))
	}

	switch kind {
	case KindNumber:
		var f float64
		if err := json.Unmarshal(raw, &f); err != nil {
			return Value{}, invalid(k, kind, err)
		}
		return NumberValue(f), nil

	case KindBool:
		var b bool
		if err := json.Unmarshal(raw, &b); err != nil {
			return Value{}, invalid(k, kind, err)
		}
		return BoolValue(b), nil

	case KindTime:
		var s string
		if err := json.Unmarshal(raw, &s); err == nil {
			t, err := time.Parse(time.RFC3339, s)
			if err != nil {
				return Value{}, invalid(k, kind, err)
			}
			return TimeValue(t), nil
		}
		var secs float64
		if err := json.Unmarshal(raw, &secs); err != nil {
			return Value{}, invalid(k, kind, err)
		}
		whole, frac := math.Modf(secs)
		return TimeValue(time.Unix(int64(whole), int64(frac*1e9))), nil

	case KindDuration:
		var s string
		if err := json.Unmarshal(raw, &s); err == nil {
			d, err := time.ParseDuration(s)
			if err != nil {
				return Value{}, invalid(k, kind, err)
			}
			return DurationValue(d), nil
		}
		var secs float64
		if err := json.Unmarshal(raw, &secs); err != nil {
			return Value{}, invalid(k, kind, err)
		}
		return DurationValue(time.Duration(secs * float64(time.Second))), nil

	case KindString:
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return Value{}, invalid(k, kind, err)
		}
		return StringValue(s), nil

	case KindVector:
		var vec []float64
		if err := json.Unmarshal(raw, &vec); err != nil {
			return Value{}, invalid(k, kind, err)
		}
		return VectorValue(vec), nil
	}

	return Value{}, fmt.Errorf("%w: %q", ErrUnknownKey, string(k))
}

func invalid(k Key, kind Kind, err error) error {
	return fmt.Errorf("%w: %s expects a %s: %w", ErrInvalidValue, k, kind, err)
}
