package mqtt

import (
	"strings"
	"sync"
)

// MemoryBus is an in-process Bus. It delivers every publish synchronously
// to matching subscribers and keeps retained messages for late subscribers.
// It backs tests and single-process simulations of instrument services.
type MemoryBus struct {
	mu       sync.RWMutex
	subs     map[string]MessageHandler
	retained map[string][]byte
}

// NewMemoryBus creates an empty MemoryBus.
func NewMemoryBus() *MemoryBus {
	return &MemoryBus{
		subs:     make(map[string]MessageHandler),
		retained: make(map[string][]byte),
	}
}

// Publish delivers payload to every subscriber whose filter matches topic.
func (b *MemoryBus) Publish(topic string, payload []byte, qos byte, retained bool) error {
	if topic == "" {
		return ErrInvalidTopic
	}
	if qos > maxQoS {
		return ErrInvalidQoS
	}

	b.mu.Lock()
	if retained {
		b.retained[topic] = append([]byte(nil), payload...)
	}
	var handlers []MessageHandler
	for filter, h := range b.subs {
		if MatchTopic(filter, topic) {
			handlers = append(handlers, h)
		}
	}
	b.mu.Unlock()

	for _, h := range handlers {
		_ = h(topic, payload) //nolint:errcheck // handler errors are the subscriber's concern
	}
	return nil
}

// Subscribe registers handler and replays matching retained messages.
func (b *MemoryBus) Subscribe(topic string, qos byte, handler MessageHandler) error {
	if topic == "" {
		return ErrInvalidTopic
	}
	if qos > maxQoS {
		return ErrInvalidQoS
	}

	b.mu.Lock()
	b.subs[topic] = handler
	replay := make(map[string][]byte)
	for t, p := range b.retained {
		if MatchTopic(topic, t) {
			replay[t] = p
		}
	}
	b.mu.Unlock()

	for t, p := range replay {
		_ = handler(t, p) //nolint:errcheck // see Publish
	}
	return nil
}

// MatchTopic reports whether an MQTT topic filter (with + and #
// wildcards) matches a concrete topic.
func MatchTopic(filter, topic string) bool {
	f := strings.Split(filter, "/")
	t := strings.Split(topic, "/")

	for i, seg := range f {
		if seg == "#" {
			return true
		}
		if i >= len(t) {
			return false
		}
		if seg != "+" && seg != t[i] {
			return false
		}
	}
	return len(f) == len(t)
}
