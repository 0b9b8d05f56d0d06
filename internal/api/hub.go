package api

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/nerrad567/adr-core/internal/adr"
	"github.com/nerrad567/adr-core/internal/infrastructure/config"
	"github.com/nerrad567/adr-core/internal/infrastructure/logging"
	"github.com/nerrad567/adr-core/internal/state"
)

// Stream channels.
const (
	// ChannelStatus carries adr.StatusEvent payloads.
	ChannelStatus = "adr.status"

	// ChannelLog carries adr.LogEvent payloads.
	ChannelLog = "adr.log"
)

// Hub fans controller events out to the connected stream clients.
//
// Hub implements adr.Notifier, so it is handed to every controller and
// relays status changes and log entries to the clients whose
// subscription matches the channel and unit.
//
// Thread Safety:
//   - Safe for concurrent use. Publishing never blocks on a slow client;
//     a frame that does not fit a client's buffer is dropped for it.
type Hub struct {
	cfg    config.WebSocketConfig
	logger *logging.Logger

	mu       sync.RWMutex
	clients  map[*streamClient]struct{}
	snapshot func() []adr.StatusEvent
}

// NewHub creates a hub. Call Run to tie its lifetime to a context.
func NewHub(cfg config.WebSocketConfig, logger *logging.Logger) *Hub {
	return &Hub{
		cfg:     cfg,
		logger:  logger,
		clients: make(map[*streamClient]struct{}),
	}
}

// SetSnapshot sets the function that reports every unit's current status.
// A client subscribing to ChannelStatus is sent the snapshot first, so it
// does not wait for the next transition to learn where each unit is.
func (h *Hub) SetSnapshot(fn func() []adr.StatusEvent) {
	h.mu.Lock()
	h.snapshot = fn
	h.mu.Unlock()
}

func (h *Hub) statusSnapshot() []adr.StatusEvent {
	h.mu.RLock()
	fn := h.snapshot
	h.mu.RUnlock()
	if fn == nil {
		return nil
	}
	return fn()
}

// Run blocks until ctx is cancelled, then disconnects every client.
func (h *Hub) Run(ctx context.Context) {
	<-ctx.Done()

	h.mu.Lock()
	clients := h.clients
	h.clients = make(map[*streamClient]struct{})
	h.mu.Unlock()

	for c := range clients {
		c.close()
	}
}

func (h *Hub) add(c *streamClient) {
	h.mu.Lock()
	h.clients[c] = struct{}{}
	n := len(h.clients)
	h.mu.Unlock()
	h.logger.Debug("stream client connected", "subject", c.subject, "clients", n)
}

func (h *Hub) remove(c *streamClient) {
	h.mu.Lock()
	delete(h.clients, c)
	n := len(h.clients)
	h.mu.Unlock()
	c.close()
	h.logger.Debug("stream client disconnected", "subject", c.subject, "clients", n)
}

// ClientCount returns the number of connected clients.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// StatusChanged relays a unit status change on ChannelStatus.
func (h *Hub) StatusChanged(unit string, status state.Status, at time.Time) {
	h.publish(ChannelStatus, unit, adr.StatusEvent{Unit: unit, Status: status, Time: at})
}

// LogAppended relays a unit log entry on ChannelLog.
func (h *Hub) LogAppended(unit string, e state.Entry) {
	h.publish(ChannelLog, unit, adr.NewLogEvent(unit, e))
}

// publish encodes the event once and offers it to every matching client.
func (h *Hub) publish(channel, unit string, payload any) {
	data, err := json.Marshal(newEventFrame(channel, payload))
	if err != nil {
		h.logger.Error("encoding stream event", "channel", channel, "error", err)
		return
	}

	h.mu.RLock()
	targets := make([]*streamClient, 0, len(h.clients))
	for c := range h.clients {
		if c.wants(channel, unit) {
			targets = append(targets, c)
		}
	}
	h.mu.RUnlock()

	for _, c := range targets {
		if !c.offer(data) {
			h.logger.Warn("stream client too slow, event dropped",
				"channel", channel,
				"unit", unit,
				"subject", c.subject,
			)
		}
	}
}
