package peripheral

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/nerrad567/adr-core/internal/infrastructure/config"
)

// Logger defines the logging interface used by the Registry.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}

// Registry tracks the peripherals of one ADR unit.
//
// Declarations come from the configuration source and are re-read on
// every Refresh. Reachability and device lists come from the Directory.
//
// Thread Safety:
//   - All methods are safe for concurrent use. Reconciliation calls
//     (Refresh, Attempt, RetryOrphans) are serialised; readers never
//     wait on directory I/O.
type Registry struct {
	unit    string
	context string
	source  config.Source
	dir     Directory
	logger  Logger

	reconcileMu sync.Mutex

	mu        sync.RWMutex
	known     map[string]Declaration
	connected map[string]Binding
	orphaned  map[string]Declaration
}

// NewRegistry creates an empty registry for unit. Call Refresh to load
// the declared peripherals.
//
// The registry owns a fresh communication context: every binding it
// makes is scoped to it, so two units sharing a service never select
// devices for each other.
func NewRegistry(unit string, source config.Source, dir Directory) *Registry {
	return &Registry{
		unit:      unit,
		context:   uuid.NewString(),
		source:    source,
		dir:       dir,
		logger:    noopLogger{},
		known:     make(map[string]Declaration),
		connected: make(map[string]Binding),
		orphaned:  make(map[string]Declaration),
	}
}

// SetLogger sets the logger for the registry.
func (r *Registry) SetLogger(logger Logger) {
	r.logger = logger
}

// Context returns the registry's communication context.
func (r *Registry) Context() string {
	return r.context
}

// Refresh re-reads the declared peripherals, forgets every binding and
// attempts each declaration afresh.
//
// Declarations with a name that has no capability are skipped with a
// warning.
//
// Returns:
//   - error: only if the configuration source fails; the previous
//     collections are kept in that case
func (r *Registry) Refresh(ctx context.Context) error {
	r.reconcileMu.Lock()
	defer r.reconcileMu.Unlock()

	unit, err := r.source.Unit(r.unit)
	if err != nil {
		return fmt.Errorf("reading peripherals of %s: %w", r.unit, err)
	}

	known := make(map[string]Declaration, len(unit.Peripherals))
	for name, p := range unit.Peripherals {
		capability, ok := CapabilityFor(name)
		if !ok {
			r.logger.Warn("ignoring undeclared peripheral kind", "unit", r.unit, "peripheral", name)
			continue
		}
		known[name] = Declaration{
			Name:       name,
			Capability: capability,
			Service:    p.Service,
			Device:     p.Device,
		}
	}

	r.mu.Lock()
	r.known = known
	r.connected = make(map[string]Binding)
	r.orphaned = make(map[string]Declaration)
	r.mu.Unlock()

	for _, name := range sortedNames(known) {
		r.attempt(ctx, known[name])
	}

	r.logger.Info("peripherals refreshed", "unit", r.unit,
		"connected", len(r.Connected()), "orphaned", len(r.Orphans()))
	return nil
}

// Attempt tries to bind one declared peripheral. Attempting a peripheral
// that is already connected does nothing.
//
// Returns:
//   - bool: whether the peripheral is connected afterwards
//   - error: ErrUnknownPeripheral if the unit does not declare name
func (r *Registry) Attempt(ctx context.Context, name string) (bool, error) {
	r.reconcileMu.Lock()
	defer r.reconcileMu.Unlock()

	r.mu.RLock()
	decl, ok := r.known[name]
	_, isConnected := r.connected[name]
	r.mu.RUnlock()

	if !ok {
		return false, fmt.Errorf("%w: %s", ErrUnknownPeripheral, name)
	}
	if isConnected {
		return true, nil
	}
	return r.attempt(ctx, decl), nil
}

// RetryOrphans attempts every orphaned peripheral once. Connected
// peripherals are left untouched.
//
// Returns the number of peripherals that became connected.
func (r *Registry) RetryOrphans(ctx context.Context) int {
	r.reconcileMu.Lock()
	defer r.reconcileMu.Unlock()

	r.mu.RLock()
	orphans := make(map[string]Declaration, len(r.orphaned))
	for name, d := range r.orphaned {
		orphans[name] = d
	}
	r.mu.RUnlock()

	bound := 0
	for _, name := range sortedNames(orphans) {
		if r.attempt(ctx, orphans[name]) {
			bound++
		}
	}
	return bound
}

// attempt resolves d against the directory and records the outcome.
// Callers hold reconcileMu.
func (r *Registry) attempt(ctx context.Context, d Declaration) bool {
	if !r.dir.Reachable(ctx, d.Service) {
		r.logger.Warn("peripheral service unreachable", "unit", r.unit,
			"peripheral", d.Name, "service", d.Service)
		r.orphan(d)
		return false
	}

	devices, err := r.dir.ListDevices(ctx, d.Service)
	if err != nil {
		r.logger.Warn("listing devices failed", "unit", r.unit,
			"peripheral", d.Name, "service", d.Service, "error", err)
		r.orphan(d)
		return false
	}

	device, ok := matchDevice(d.Device, devices)
	if !ok {
		r.logger.Warn("service has no matching device", "unit", r.unit,
			"peripheral", d.Name, "service", d.Service, "device", d.Device)
		r.orphan(d)
		return false
	}

	if err := r.dir.Select(ctx, d.Service, device, r.context); err != nil {
		r.logger.Warn("selecting device failed", "unit", r.unit,
			"peripheral", d.Name, "device", device, "error", err)
		r.orphan(d)
		return false
	}

	r.mu.Lock()
	delete(r.orphaned, d.Name)
	r.connected[d.Name] = Binding{
		Name:       d.Name,
		Capability: d.Capability,
		Service:    d.Service,
		Device:     device,
		Context:    r.context,
	}
	r.mu.Unlock()

	r.logger.Info("peripheral connected", "unit", r.unit,
		"peripheral", d.Name, "service", d.Service, "device", device)
	return true
}

// orphan records d as orphaned. Re-orphaning is a no-op.
func (r *Registry) orphan(d Declaration) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.orphaned[d.Name]; ok {
		return
	}
	r.orphaned[d.Name] = d
}

// matchDevice returns the device equal to want, else the first device
// that starts with want.
func matchDevice(want string, devices []string) (string, bool) {
	for _, dev := range devices {
		if dev == want {
			return dev, true
		}
	}
	for _, dev := range devices {
		if strings.HasPrefix(dev, want) {
			return dev, true
		}
	}
	return "", false
}

// Known returns every declared peripheral, sorted by name.
func (r *Registry) Known() []Declaration {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Declaration, 0, len(r.known))
	for _, name := range sortedNames(r.known) {
		out = append(out, r.known[name])
	}
	return out
}

// Connected returns every live binding, sorted by name.
func (r *Registry) Connected() []Binding {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Binding, 0, len(r.connected))
	for _, name := range sortedNames(r.connected) {
		out = append(out, r.connected[name])
	}
	return out
}

// Orphans returns every orphaned declaration, sorted by name.
func (r *Registry) Orphans() []Declaration {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Declaration, 0, len(r.orphaned))
	for _, name := range sortedNames(r.orphaned) {
		out = append(out, r.orphaned[name])
	}
	return out
}

// Lookup returns the binding that provides c.
//
// Returns:
//   - Binding: the live binding
//   - error: ErrUnknownPeripheral if nothing declares c, ErrNotConnected
//     if the declaration is orphaned
func (r *Registry) Lookup(c Capability) (Binding, error) {
	name := c.Name()

	r.mu.RLock()
	defer r.mu.RUnlock()
	if b, ok := r.connected[name]; ok {
		return b, nil
	}
	if _, ok := r.known[name]; ok {
		return Binding{}, fmt.Errorf("%w: %s", ErrNotConnected, name)
	}
	return Binding{}, fmt.Errorf("%w: %s", ErrUnknownPeripheral, c)
}

func sortedNames[V any](m map[string]V) []string {
	names := make([]string, 0, len(m))
	for name := range m {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
