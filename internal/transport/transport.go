// Package transport presents one logical send/receive surface for the
// assistant conversation. A persistent WebSocket channel is preferred;
// when it is down, sends go over the request/response REST channel
// instead. Channel-level failures never escape as errors — they are
// logged and reflected in State().
package transport

import (
	"context"
	"encoding/json"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/flymate/flymate-go/internal/results"
)

// Mode names the physical channel currently in use.
type Mode string

const (
	ModePersistent Mode = "persistent"
	ModeFallback   Mode = "fallback"
)

// State is a read-only snapshot of the transport.
type State struct {
	Mode      Mode
	Connected bool
	Pending   bool
}

// Fallback is the request/response channel used when the persistent
// channel is unavailable. Satisfied by api.Client.
type Fallback interface {
	SendMessage(ctx context.Context, message string, chatContext map[string]any) (json.RawMessage, error)
}

// Handler receives one inbound response event from the persistent channel.
type Handler func(raw json.RawMessage)

// Config configures a Manager.
type Config struct {
	SocketURL string // e.g. ws://localhost:5000/ws
	UserID    string
	Fallback  Fallback

	PingInterval time.Duration // zero means 30s
}

// envelope frames every event on the persistent channel.
type envelope struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}

// Manager owns the persistent channel lifecycle. It is an explicitly
// constructed service: the session context that creates it also decides
// when to Connect and Disconnect it.
type Manager struct {
	cfg Config

	mu        sync.Mutex
	wmu       sync.Mutex // serializes websocket writes
	conn      *websocket.Conn
	connected bool
	readGen   int // invalidates stale read loops after reconnect

	inflight []string // correlation IDs, oldest first

	handlers  map[int]Handler
	nextSubID int
}

// New creates a Manager. No connection is attempted until Connect.
func New(cfg Config) *Manager {
	if cfg.PingInterval == 0 {
		cfg.PingInterval = 30 * time.Second
	}
	return &Manager{
		cfg:      cfg,
		handlers: make(map[int]Handler),
	}
}

// Connect opens the persistent channel and performs the join handshake.
// Idempotent: an existing channel is torn down first. Returns whether the
// channel is up; failure is not an error — sends just use the fallback.
func (m *Manager) Connect(ctx context.Context) bool {
	m.Disconnect()

	if m.cfg.SocketURL == "" {
		return false
	}

	conn, _, err := websocket.DefaultDialer.DialContext(ctx, m.cfg.SocketURL, nil)
	if err != nil {
		log.Printf("[Transport] connect failed, using fallback: %v", err)
		return false
	}

	join, _ := json.Marshal(map[string]string{"user_id": m.cfg.UserID})
	if err := conn.WriteJSON(envelope{Event: "join", Data: join}); err != nil {
		log.Printf("[Transport] join failed, using fallback: %v", err)
		conn.Close()
		return false
	}

	m.mu.Lock()
	m.conn = conn
	m.connected = true
	m.readGen++
	gen := m.readGen
	m.mu.Unlock()

	log.Printf("[Transport] connected to %s", m.cfg.SocketURL)
	go m.readLoop(conn, gen)
	go m.pingLoop(conn, gen)
	return true
}

// Disconnect closes the persistent channel. Safe to call when already
// disconnected. Outstanding persistent-channel sends are dropped.
func (m *Manager) Disconnect() {
	m.mu.Lock()
	conn := m.conn
	m.conn = nil
	m.connected = false
	m.inflight = nil
	m.readGen++
	m.mu.Unlock()

	if conn != nil {
		conn.Close()
		log.Println("[Transport] disconnected")
	}
}

// Connected reports whether the persistent channel is up.
func (m *Manager) Connected() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.connected
}

// Pending reports whether any persistent-channel send still awaits its
// response.
func (m *Manager) Pending() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.inflight) > 0
}

// State returns a snapshot of the transport state.
func (m *Manager) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	mode := ModeFallback
	if m.connected {
		mode = ModePersistent
	}
	return State{Mode: mode, Connected: m.connected, Pending: len(m.inflight) > 0}
}

// Subscribe registers a handler for inbound response events and returns
// its subscription id.
func (m *Manager) Subscribe(h func(raw json.RawMessage)) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextSubID++
	m.handlers[m.nextSubID] = h
	return m.nextSubID
}

// Unsubscribe removes a handler by subscription id.
func (m *Manager) Unsubscribe(id int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.handlers, id)
}

// Send delivers a chat message. On the persistent channel it returns
// (nil, nil) immediately and the response arrives via Subscribe; each
// outbound message carries a correlation id so replies match their
// request even with several sends in flight. On the fallback channel the
// response is returned synchronously; fallback transport failures are
// returned to the caller as errors.
func (m *Manager) Send(ctx context.Context, message string, chatContext map[string]any) (json.RawMessage, error) {
	m.mu.Lock()
	conn := m.conn
	connected := m.connected
	m.mu.Unlock()

	if connected && conn != nil {
		cid := uuid.NewString()
		payload := map[string]any{
			"user_id":        m.cfg.UserID,
			"message":        message,
			"correlation_id": cid,
		}
		if chatContext != nil {
			payload["context"] = chatContext
		}
		data, _ := json.Marshal(payload)

		m.wmu.Lock()
		err := conn.WriteJSON(envelope{Event: "chat_message", Data: data})
		m.wmu.Unlock()
		if err != nil {
			// Channel errors never raise out of Send: drop to fallback.
			log.Printf("[Transport] write failed, falling back: %v", err)
			m.dropConn(conn)
			return m.sendFallback(ctx, message, chatContext)
		}

		m.mu.Lock()
		m.inflight = append(m.inflight, cid)
		m.mu.Unlock()
		return nil, nil
	}

	return m.sendFallback(ctx, message, chatContext)
}

func (m *Manager) sendFallback(ctx context.Context, message string, chatContext map[string]any) (json.RawMessage, error) {
	if m.cfg.Fallback == nil {
		return nil, &SendError{Reason: "no fallback channel configured"}
	}
	raw, err := m.cfg.Fallback.SendMessage(ctx, message, chatContext)
	if err != nil {
		return nil, &SendError{Reason: err.Error(), Err: err}
	}
	return raw, nil
}

// SendError is a fallback-channel delivery failure.
type SendError struct {
	Reason string
	Err    error
}

func (e *SendError) Error() string { return "transport: send failed: " + e.Reason }
func (e *SendError) Unwrap() error { return e.Err }

// dropConn marks the channel down if conn is still the active one.
func (m *Manager) dropConn(conn *websocket.Conn) {
	m.mu.Lock()
	if m.conn == conn {
		m.conn = nil
		m.connected = false
		m.inflight = nil
		m.readGen++
	}
	m.mu.Unlock()
	conn.Close()
}

func (m *Manager) readLoop(conn *websocket.Conn, gen int) {
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			m.mu.Lock()
			stale := gen != m.readGen
			m.mu.Unlock()
			if !stale {
				log.Printf("[Transport] read error: %v", err)
				m.dropConn(conn)
			}
			return
		}

		var env envelope
		if json.Unmarshal(data, &env) != nil {
			log.Printf("[Transport] dropping unparseable frame (%d bytes)", len(data))
			continue
		}

		switch env.Event {
		case "chat_response":
			m.resolveInflight(env.Data)
			m.dispatch(env.Data)
		case "error":
			log.Printf("[Transport] server error event: %s", string(env.Data))
		default:
			log.Printf("[Transport] ignoring event %q", env.Event)
		}
	}
}

// resolveInflight retires the in-flight record a response answers. A
// response that echoes correlation_id retires that exact record; one
// that does not retires the oldest, preserving compatibility with
// servers that match replies by arrival order.
func (m *Manager) resolveInflight(raw json.RawMessage) {
	echo := results.CorrelationID(raw)

	m.mu.Lock()
	defer m.mu.Unlock()

	if echo != "" {
		for i, cid := range m.inflight {
			if cid == echo {
				m.inflight = append(m.inflight[:i], m.inflight[i+1:]...)
				return
			}
		}
	}
	if len(m.inflight) > 0 {
		m.inflight = m.inflight[1:]
	}
}

func (m *Manager) dispatch(raw json.RawMessage) {
	m.mu.Lock()
	handlers := make([]Handler, 0, len(m.handlers))
	for _, h := range m.handlers {
		handlers = append(handlers, h)
	}
	m.mu.Unlock()

	for _, h := range handlers {
		h(raw)
	}
}

func (m *Manager) pingLoop(conn *websocket.Conn, gen int) {
	ticker := time.NewTicker(m.cfg.PingInterval)
	defer ticker.Stop()

	for range ticker.C {
		m.mu.Lock()
		stale := gen != m.readGen
		m.mu.Unlock()
		if stale {
			return
		}
		if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(5*time.Second)); err != nil {
			return
		}
	}
}
