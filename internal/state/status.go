package state

import "fmt"

// Status is the ADR cycle status. The set is closed.
type Status string

// Cycle statuses.
const (
	CoolingDown    Status = "cooling down"
	Ready          Status = "ready"
	WaitingToMagUp Status = "waiting to mag up"
	MaggingUp      Status = "magging up"
	WaitingAtField Status = "waiting at field"
	ReadyToMagDown Status = "ready to mag down"
	MaggingDown    Status = "magging down"
)

var statuses = []Status{
	CoolingDown,
	Ready,
	WaitingToMagUp,
	MaggingUp,
	WaitingAtField,
	ReadyToMagDown,
	MaggingDown,
}

// Statuses returns every status in cycle order.
func Statuses() []Status {
	return append([]Status(nil), statuses...)
}

// StatusNames returns every status as a string, in cycle order.
func StatusNames() []string {
	names := make([]string, len(statuses))
	for i, s := range statuses {
		names[i] = string(s)
	}
	return names
}

// Valid reports whether s is a member of the closed set.
func (s Status) Valid() bool {
	for _, known := range statuses {
		if s == known {
			return true
		}
	}
	return false
}

// ParseStatus resolves an external status name.
func ParseStatus(name string) (Status, error) {
	s := Status(name)
	if !s.Valid() {
		return "", fmt.Errorf("%w: %q", ErrInvalidStatus, name)
	}
	return s, nil
}

// Ramping reports whether the status drives the magnet voltage.
func (s Status) Ramping() bool {
	return s == MaggingUp || s == MaggingDown
}
