package peripheral

import (
	"context"
	"sort"
	"sync"
)

// Directory answers which instrument services are reachable and which
// devices they provide.
type Directory interface {
	// Reachable reports whether service is currently online.
	Reachable(ctx context.Context, service string) bool

	// ListDevices returns the device identifiers service reports.
	ListDevices(ctx context.Context, service string) ([]string, error)

	// Select binds device on service to the caller's communication
	// context, so later requests carrying that context address it.
	Select(ctx context.Context, service, device, commContext string) error
}

// StaticDirectory is a Directory backed by a fixed table.
//
// Thread Safety:
//   - Safe for concurrent use.
type StaticDirectory struct {
	mu       sync.RWMutex
	services map[string][]string
	selected map[string]string
}

// NewStaticDirectory creates a directory where each key of services is a
// reachable service listing the given devices.
func NewStaticDirectory(services map[string][]string) *StaticDirectory {
	d := &StaticDirectory{
		services: make(map[string][]string, len(services)),
		selected: make(map[string]string),
	}
	for name, devices := range services {
		d.services[name] = append([]string(nil), devices...)
	}
	return d
}

// SetService adds or replaces a reachable service.
func (d *StaticDirectory) SetService(service string, devices []string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.services[service] = append([]string(nil), devices...)
}

// RemoveService makes a service unreachable.
func (d *StaticDirectory) RemoveService(service string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	delete(d.services, service)
}

// Services returns the names of reachable services, sorted.
func (d *StaticDirectory) Services() []string {
	d.mu.RLock()
	defer d.mu.RUnlock()
	names := make([]string, 0, len(d.services))
	for name := range d.services {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Reachable implements Directory.
func (d *StaticDirectory) Reachable(_ context.Context, service string) bool {
	d.mu.RLock()
	defer d.mu.RUnlock()
	_, ok := d.services[service]
	return ok
}

// ListDevices implements Directory.
func (d *StaticDirectory) ListDevices(_ context.Context, service string) ([]string, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	devices, ok := d.services[service]
	if !ok {
		return nil, ErrServiceUnreachable
	}
	return append([]string(nil), devices...), nil
}

// Select implements Directory.
func (d *StaticDirectory) Select(_ context.Context, service, device, commContext string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if _, ok := d.services[service]; !ok {
		return ErrServiceUnreachable
	}
	d.selected[service+"|"+commContext] = device
	return nil
}

// Selected returns the device selected on service for commContext.
func (d *StaticDirectory) Selected(service, commContext string) string {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.selected[service+"|"+commContext]
}
