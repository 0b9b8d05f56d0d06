package state

import (
	"fmt"
	"sync"
	"time"
)

// Hook is called after a parameter write that changed the stored value.
// Hooks run outside the store lock and may read or write the store.
type Hook func(key Key, old, new Value)

// Store holds the parameter set and the cycle status of one ADR unit.
//
// Every read and write of a single key is atomic. There are no
// multi-key transactions: the cycle loop, the recording loop and API
// callers interleave freely and the last writer wins.
//
// Thread Safety:
//   - All methods are safe for concurrent use.
type Store struct {
	mu     sync.RWMutex
	values map[Key]Value
	status Status

	hookMu sync.RWMutex
	hooks  map[Key][]Hook
}

// NewStore creates a store holding initial, with status cooling down.
// Keys absent from initial read as unset.
func NewStore(initial map[Key]Value) (*Store, error) {
	s := &Store{
		values: make(map[Key]Value, len(keyKinds)),
		status: CoolingDown,
		hooks:  make(map[Key][]Hook),
	}
	for k, v := range initial {
		if err := check(k, v); err != nil {
			return nil, err
		}
		s.values[k] = v
	}
	return s, nil
}

func checkKind(k Key, v Value) error {
	kind, ok := k.Kind()
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownKey, string(k))
	}
	if !v.IsUnset() && v.Kind() != kind {
		return fmt.Errorf("%w: %s holds a %s, got %s", ErrKindMismatch, k, kind, v.Kind())
	}
	return nil
}

// pacingKeys hold loop periods. They must always be set and positive.
var pacingKeys = map[Key]bool{
	RampWaitTime:   true,
	RecordInterval: true,
}

func checkPacing(k Key, v Value) error {
	if !pacingKeys[k] {
		return nil
	}
	if v.IsUnset() || v.Duration() <= 0 {
		return fmt.Errorf("%w: %s must be a positive duration, got %s", ErrInvalidValue, k, v)
	}
	return nil
}

func check(k Key, v Value) error {
	if err := checkKind(k, v); err != nil {
		return err
	}
	return checkPacing(k, v)
}

// Get returns the value of k, or the unset sentinel.
func (s *Store) Get(k Key) Value {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.values[k]
}

// Set replaces the value of k. Unset is accepted for every key except
// the pacing keys (rampWaitTime, recordInterval), which only take
// positive durations. Hooks registered for k run when the stored value
// changed.
func (s *Store) Set(k Key, v Value) error {
	if err := check(k, v); err != nil {
		return err
	}

	s.mu.Lock()
	old := s.values[k]
	if v.IsUnset() {
		delete(s.values, k)
	} else {
		s.values[k] = v
	}
	s.mu.Unlock()

	if !old.Equal(v) {
		s.runHooks(k, old, v)
	}
	return nil
}

// Clear sets k to unset. Pacing keys are left untouched.
func (s *Store) Clear(k Key) {
	_ = s.Set(k, Unset()) //nolint:errcheck // unset always matches
}

// Snapshot returns a copy of every set value.
func (s *Store) Snapshot() map[Key]Value {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[Key]Value, len(s.values))
	for k, v := range s.values {
		out[k] = v
	}
	return out
}

// OnChange registers a hook for k.
func (s *Store) OnChange(k Key, h Hook) {
	s.hookMu.Lock()
	s.hooks[k] = append(s.hooks[k], h)
	s.hookMu.Unlock()
}

func (s *Store) runHooks(k Key, old, new Value) {
	s.hookMu.RLock()
	hooks := append([]Hook(nil), s.hooks[k]...)
	s.hookMu.RUnlock()
	for _, h := range hooks {
		h(k, old, new)
	}
}

// Status returns the current cycle status.
func (s *Store) Status() Status {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.status
}

// SwapStatus sets the status and reports the previous one and whether it
// changed. Values outside the closed set are rejected.
func (s *Store) SwapStatus(next Status) (prev Status, changed bool, err error) {
	if !next.Valid() {
		return s.Status(), false, fmt.Errorf("%w: %q", ErrInvalidStatus, string(next))
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	prev = s.status
	s.status = next
	return prev, prev != next, nil
}

// Float returns the number stored at k, or 0.
func (s *Store) Float(k Key) float64 { return s.Get(k).Float64() }

// Flag returns the bool stored at k, or false.
func (s *Store) Flag(k Key) bool { return s.Get(k).Bool() }

// Interval returns the duration stored at k, or 0.
func (s *Store) Interval(k Key) time.Duration { return s.Get(k).Duration() }

// Floats returns a copy of the vector stored at k, or nil.
func (s *Store) Floats(k Key) []float64 { return s.Get(k).Vector() }

// Text returns the string stored at k, or "".
func (s *Store) Text(k Key) string { return s.Get(k).Text() }

// Timestamp returns the time stored at k and whether it is set.
func (s *Store) Timestamp(k Key) (time.Time, bool) {
	v := s.Get(k)
	return v.Time(), v.Kind() == KindTime
}
