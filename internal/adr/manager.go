package adr

import (
	"context"
	"errors"
	"fmt"
	"sync"
)

// Manager holds the controllers of every configured unit.
//
// Thread Safety:
//   - Safe for concurrent use. Controllers are added before Start.
type Manager struct {
	mu    sync.RWMutex
	order []string
	units map[string]*Controller
}

// NewManager creates an empty Manager.
func NewManager() *Manager {
	return &Manager{units: make(map[string]*Controller)}
}

// Add registers c under its unit name.
func (m *Manager) Add(c *Controller) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, dup := m.units[c.Name()]; dup {
		return fmt.Errorf("adr: duplicate unit %q", c.Name())
	}
	m.units[c.Name()] = c
	m.order = append(m.order, c.Name())
	return nil
}

// Get returns the controller of the named unit.
func (m *Manager) Get(name string) (*Controller, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	c, ok := m.units[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownUnit, name)
	}
	return c, nil
}

// Names returns the unit names in configuration order.
func (m *Manager) Names() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]string(nil), m.order...)
}

// Controllers returns every controller in configuration order.
func (m *Manager) Controllers() []*Controller {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]*Controller, len(m.order))
	for i, name := range m.order {
		out[i] = m.units[name]
	}
	return out
}

// Start starts every controller. Controllers started before a failure
// keep running; call Close to stop them.
func (m *Manager) Start(ctx context.Context) error {
	for _, c := range m.Controllers() {
		if err := c.Start(ctx); err != nil {
			return fmt.Errorf("starting %s: %w", c.Name(), err)
		}
	}
	return nil
}

// TriggerReconcile asks every controller to retry its orphans.
func (m *Manager) TriggerReconcile() {
	for _, c := range m.Controllers() {
		c.TriggerReconcile()
	}
}

// Close closes every controller and joins their errors.
func (m *Manager) Close() error {
	var errs []error
	for _, c := range m.Controllers() {
		if err := c.Close(); err != nil {
			errs = append(errs, fmt.Errorf("closing %s: %w", c.Name(), err))
		}
	}
	return errors.Join(errs...)
}
