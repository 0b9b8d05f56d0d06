package peripheral

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/nerrad567/adr-core/internal/infrastructure/mqtt"
)

// Announcement is the retained payload a service publishes on its
// discovery topic when it starts, when its device list changes and (via
// its Last Will) when it goes away.
type Announcement struct {
	Online  bool     `json:"online"`
	Devices []string `json:"devices"`
}

// MethodSelectDevice is the request that binds a device to a context.
const MethodSelectDevice = "select_device"

// MQTTDirectory is a Directory fed by service announcements on the bus.
//
// Reachability and device lists are answered from the latest retained
// announcement without a round trip. Select is a request to the service.
//
// Thread Safety:
//   - Safe for concurrent use.
type MQTTDirectory struct {
	requester *mqtt.Requester
	logger    Logger

	mu       sync.RWMutex
	services map[string]Announcement

	cbMu       sync.RWMutex
	onAnnounce []func(service string)
}

// NewMQTTDirectory subscribes to every service announcement on bus.
//
// Parameters:
//   - bus: message bus carrying the discovery topics
//   - qos: subscription QoS
//   - requester: transport for select_device requests
func NewMQTTDirectory(bus mqtt.Bus, qos byte, requester *mqtt.Requester) (*MQTTDirectory, error) {
	d := &MQTTDirectory{
		requester: requester,
		logger:    noopLogger{},
		services:  make(map[string]Announcement),
	}
	if err := bus.Subscribe(mqtt.Topics{}.AllDiscovery(), qos, d.handleAnnouncement); err != nil {
		return nil, fmt.Errorf("subscribing to discovery: %w", err)
	}
	return d, nil
}

// SetLogger sets the logger for the directory.
func (d *MQTTDirectory) SetLogger(logger Logger) {
	d.logger = logger
}

// OnAnnounce registers a callback run after every announcement.
// Callbacks run on the bus delivery goroutine and must not block.
func (d *MQTTDirectory) OnAnnounce(cb func(service string)) {
	d.cbMu.Lock()
	d.onAnnounce = append(d.onAnnounce, cb)
	d.cbMu.Unlock()
}

func (d *MQTTDirectory) handleAnnouncement(topic string, payload []byte) error {
	service := mqtt.ServiceFromTopic(topic)
	if service == "" {
		return nil
	}

	var a Announcement
	if len(payload) > 0 {
		if err := json.Unmarshal(payload, &a); err != nil {
			return fmt.Errorf("decoding announcement of %s: %w", service, err)
		}
	}

	d.mu.Lock()
	if a.Online {
		d.services[service] = a
	} else {
		delete(d.services, service)
	}
	d.mu.Unlock()

	d.logger.Debug("service announcement", "service", service,
		"online", a.Online, "devices", len(a.Devices))

	d.cbMu.RLock()
	callbacks := append([]func(string){}, d.onAnnounce...)
	d.cbMu.RUnlock()
	for _, cb := range callbacks {
		cb(service)
	}
	return nil
}

// Reachable implements Directory.
func (d *MQTTDirectory) Reachable(_ context.Context, service string) bool {
	d.mu.RLock()
	defer d.mu.RUnlock()
	_, ok := d.services[service]
	return ok
}

// ListDevices implements Directory.
func (d *MQTTDirectory) ListDevices(_ context.Context, service string) ([]string, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	a, ok := d.services[service]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrServiceUnreachable, service)
	}
	return append([]string(nil), a.Devices...), nil
}

// Select implements Directory.
func (d *MQTTDirectory) Select(ctx context.Context, service, device, commContext string) error {
	err := d.requester.Call(ctx, service, mqtt.Request{
		Device:  device,
		Context: commContext,
		Method:  MethodSelectDevice,
	}, nil)
	if err != nil {
		return fmt.Errorf("selecting %s on %s: %w", device, service, err)
	}
	return nil
}
