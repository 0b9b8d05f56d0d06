package api

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/nerrad567/adr-core/internal/infrastructure/config"
)

// Client request types.
const (
	RequestSubscribe   = "subscribe"
	RequestUnsubscribe = "unsubscribe"
	RequestPing        = "ping"
)

// Server frame types.
const (
	FrameEvent = "event"
	FrameAck   = "ack"
	FramePong  = "pong"
	FrameError = "error"
)

const (
	// streamBufferSize is the number of frames queued per client.
	streamBufferSize = 256

	defaultPingInterval = 30 * time.Second
	defaultPongTimeout  = 10 * time.Second
)

// StreamRequest is a frame sent by a stream client.
//
// Subscribe and unsubscribe name channels, and optionally units; a
// subscription without units follows every unit.
type StreamRequest struct {
	Type     string   `json:"type"`
	ID       string   `json:"id,omitempty"`
	Channels []string `json:"channels,omitempty"`
	Units    []string `json:"units,omitempty"`
}

// StreamFrame is a frame sent to a stream client.
type StreamFrame struct {
	Type    string    `json:"type"`
	ID      string    `json:"id,omitempty"`
	Channel string    `json:"channel,omitempty"`
	Time    time.Time `json:"time"`
	Payload any       `json:"payload,omitempty"`
}

func newEventFrame(channel string, payload any) StreamFrame {
	return StreamFrame{Type: FrameEvent, Channel: channel, Time: time.Now().UTC(), Payload: payload}
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// Origins are vetted by corsMiddleware.
	CheckOrigin: func(*http.Request) bool { return true },
}

// streamClient is one connected stream. The out queue is never closed;
// done signals the writer to stop.
type streamClient struct {
	hub     *Hub
	conn    *websocket.Conn
	subject string

	out       chan []byte
	done      chan struct{}
	closeOnce sync.Once

	mu       sync.RWMutex
	channels map[string]struct{}
	units    map[string]struct{}
}

func newStreamClient(hub *Hub, conn *websocket.Conn, subject string) *streamClient {
	return &streamClient{
		hub:      hub,
		conn:     conn,
		subject:  subject,
		out:      make(chan []byte, streamBufferSize),
		done:     make(chan struct{}),
		channels: make(map[string]struct{}),
		units:    make(map[string]struct{}),
	}
}

// handleStream upgrades the request to a WebSocket stream of controller
// events. Authentication has already happened in authMiddleware.
func (s *Server) handleStream(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("websocket upgrade failed", "error", err)
		return
	}

	subject, _ := r.Context().Value(ctxKeySubject).(string) //nolint:errcheck // empty when auth is disabled
	c := newStreamClient(s.hub, conn, subject)
	s.hub.add(c)

	go c.writeLoop(s.wsCfg)
	go c.readLoop(s.wsCfg)
}

// streamTimings returns the ping interval and pong timeout, defaulting
// unset values.
func streamTimings(pingSecs, pongSecs int) (ping, pong time.Duration) {
	ping, pong = defaultPingInterval, defaultPongTimeout
	if pingSecs > 0 {
		ping = time.Duration(pingSecs) * time.Second
	}
	if pongSecs > 0 {
		pong = time.Duration(pongSecs) * time.Second
	}
	return ping, pong
}

// readLoop handles client requests until the connection fails.
func (c *streamClient) readLoop(cfg config.WebSocketConfig) {
	defer c.hub.remove(c)

	ping, pong := streamTimings(cfg.PingInterval, cfg.PongTimeout)
	if cfg.MaxMessageSize > 0 {
		c.conn.SetReadLimit(int64(cfg.MaxMessageSize))
	}
	extend := func() error { return c.conn.SetReadDeadline(time.Now().Add(ping + pong)) }
	extend() //nolint:errcheck // a failed deadline surfaces as a read error
	c.conn.SetPongHandler(func(string) error { return extend() })

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.hub.logger.Warn("stream read failed", "subject", c.subject, "error", err)
			}
			return
		}
		extend() //nolint:errcheck // a failed deadline surfaces as a read error
		c.handle(data)
	}
}

// writeLoop drains the out queue and keeps the connection alive with
// pings until the client is closed.
func (c *streamClient) writeLoop(cfg config.WebSocketConfig) {
	ping, pong := streamTimings(cfg.PingInterval, cfg.PongTimeout)
	ticker := time.NewTicker(ping)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case data := <-c.out:
			c.conn.SetWriteDeadline(time.Now().Add(pong)) //nolint:errcheck // write error is checked
			if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(pong)) //nolint:errcheck // write error is checked
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case <-c.done:
			//nolint:errcheck // best effort on the way out
			c.conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseGoingAway, "server shutting down"),
				time.Now().Add(pong))
			return
		}
	}
}

// handle dispatches one client request.
func (c *streamClient) handle(data []byte) {
	var req StreamRequest
	if err := json.Unmarshal(data, &req); err != nil {
		c.reply(StreamFrame{Type: FrameError, Payload: map[string]string{"message": "invalid JSON request"}})
		return
	}

	switch req.Type {
	case RequestSubscribe:
		c.subscribe(req)
	case RequestUnsubscribe:
		c.unsubscribe(req)
	case RequestPing:
		c.reply(StreamFrame{Type: FramePong, ID: req.ID})
	default:
		c.reply(StreamFrame{Type: FrameError, ID: req.ID,
			Payload: map[string]string{"message": "unknown request type: " + req.Type}})
	}
}

func (c *streamClient) subscribe(req StreamRequest) {
	for _, ch := range req.Channels {
		if ch != ChannelStatus && ch != ChannelLog {
			c.reply(StreamFrame{Type: FrameError, ID: req.ID,
				Payload: map[string]string{"message": "unknown channel: " + ch}})
			return
		}
	}

	c.mu.Lock()
	for _, ch := range req.Channels {
		c.channels[ch] = struct{}{}
	}
	for _, u := range req.Units {
		c.units[u] = struct{}{}
	}
	c.mu.Unlock()

	c.reply(StreamFrame{Type: FrameAck, ID: req.ID, Payload: map[string]any{
		"channels": req.Channels,
		"units":    req.Units,
	}})

	for _, ch := range req.Channels {
		if ch != ChannelStatus {
			continue
		}
		for _, ev := range c.hub.statusSnapshot() {
			if c.wants(ChannelStatus, ev.Unit) {
				c.reply(newEventFrame(ChannelStatus, ev))
			}
		}
	}
}

func (c *streamClient) unsubscribe(req StreamRequest) {
	c.mu.Lock()
	for _, ch := range req.Channels {
		delete(c.channels, ch)
	}
	for _, u := range req.Units {
		delete(c.units, u)
	}
	c.mu.Unlock()

	c.reply(StreamFrame{Type: FrameAck, ID: req.ID, Payload: map[string]any{
		"channels": req.Channels,
		"units":    req.Units,
	}})
}

// wants reports whether the client's subscription covers an event.
func (c *streamClient) wants(channel, unit string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if _, ok := c.channels[channel]; !ok {
		return false
	}
	if len(c.units) == 0 {
		return true
	}
	_, ok := c.units[unit]
	return ok
}

// reply queues a frame for this client only.
func (c *streamClient) reply(f StreamFrame) {
	if f.Time.IsZero() {
		f.Time = time.Now().UTC()
	}
	data, err := json.Marshal(f)
	if err != nil {
		c.hub.logger.Error("encoding stream frame", "type", f.Type, "error", err)
		return
	}
	c.offer(data)
}

// offer queues data without blocking. It reports false when the queue is
// full; frames offered after close are discarded.
func (c *streamClient) offer(data []byte) bool {
	select {
	case <-c.done:
		return true
	default:
	}
	select {
	case c.out <- data:
		return true
	default:
		return false
	}
}

func (c *streamClient) close() {
	c.closeOnce.Do(func() { close(c.done) })
}
