package mqtt

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"
)

// Request is the payload published to a service.
type Request struct {
	ID      string `json:"id"`
	Device  string `json:"device,omitempty"`
	Context string `json:"context,omitempty"`
	Method  string `json:"method"`
	Args    []any  `json:"args,omitempty"`
}

// Response is the payload a service publishes back.
type Response struct {
	ID     string          `json:"id"`
	Result json.RawMessage `json:"result,omitempty"`
	Error  string          `json:"error,omitempty"`
}

// Requester runs request/response exchanges with instrument services over
// the bus. Every request gets a fresh ID; responses are matched by ID, so
// concurrent requests to the same service never cross.
//
// Thread Safety:
//   - Safe for concurrent use. Call blocks until the response arrives or
//     the context ends.
type Requester struct {
	bus Bus
	qos byte

	mu      sync.Mutex
	pending map[string]chan Response
	closed  bool
}

// NewRequester creates a Requester and subscribes it to all responses.
func NewRequester(bus Bus, qos byte) (*Requester, error) {
	r := &Requester{
		bus:     bus,
		qos:     qos,
		pending: make(map[string]chan Response),
	}
	if err := bus.Subscribe(Topics{}.AllResponses(), qos, r.handleResponse); err != nil {
		return nil, fmt.Errorf("subscribing to responses: %w", err)
	}
	return r, nil
}

// Call sends method to device on service and decodes the result into out
// (which may be nil).
//
// Returns:
//   - ErrTimeout if ctx expires first
//   - ctx.Err() if ctx is cancelled
//   - ErrRemote wrapping the service's message if it reports an error
func (r *Requester) Call(ctx context.Context, service string, req Request, out any) error {
	req.ID = uuid.NewString()
	ch := make(chan Response, 1)

	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return ErrRequesterClosed
	}
	r.pending[req.ID] = ch
	r.mu.Unlock()

	defer func() {
		r.mu.Lock()
		delete(r.pending, req.ID)
		r.mu.Unlock()
	}()

	payload, err := json.Marshal(req)
	if err != nil {
		return fmt.Errorf("encoding request: %w", err)
	}
	if err := r.bus.Publish(Topics{}.Request(service, req.ID), payload, r.qos, false); err != nil {
		return err
	}

	select {
	case resp, ok := <-ch:
		if !ok {
			return ErrRequesterClosed
		}
		if resp.Error != "" {
			return fmt.Errorf("%w: %s %s: %s", ErrRemote, service, req.Method, resp.Error)
		}
		if out != nil && len(resp.Result) > 0 {
			if err := json.Unmarshal(resp.Result, out); err != nil {
				return fmt.Errorf("decoding %s result: %w", req.Method, err)
			}
		}
		return nil
	case <-ctx.Done():
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return fmt.Errorf("%w: %s %s", ErrTimeout, service, req.Method)
		}
		return ctx.Err()
	}
}

// Pending returns the number of requests awaiting a response.
func (r *Requester) Pending() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.pending)
}

// Close fails every pending request and rejects new ones.
func (r *Requester) Close() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return
	}
	r.closed = true
	for id, ch := range r.pending {
		close(ch)
		delete(r.pending, id)
	}
}

func (r *Requester) handleResponse(topic string, payload []byte) error {
	var resp Response
	if err := json.Unmarshal(payload, &resp); err != nil {
		return fmt.Errorf("decoding response on %s: %w", topic, err)
	}
	if resp.ID == "" {
		resp.ID = RequestIDFromTopic(topic)
	}

	r.mu.Lock()
	ch, ok := r.pending[resp.ID]
	if ok {
		delete(r.pending, resp.ID)
	}
	r.mu.Unlock()

	if ok {
		ch <- resp
	}
	return nil
}
