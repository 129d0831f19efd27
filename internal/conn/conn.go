// Package conn owns the one long-lived websocket channel to the backend.
package conn

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/drawdash/drawdash-client/internal/wire"
)

// DefaultReconnectDelay is the fixed gap between reconnect attempts after an
// abnormal closure. Deliberately not exponential: the full-snapshot broadcast
// is the consistency backstop, so a constant cadence is enough.
const DefaultReconnectDelay = 3 * time.Second

var ErrNotConnected = errors.New("conn: channel not open")

// Handler receives every inbound frame in wire-arrival order, plus explicit
// connectivity transitions. Handlers are invoked synchronously, one frame at
// a time; a panicking handler is isolated from the others.
type Handler interface {
	OnMessage(msg wire.Msg)
	OnConnectivity(connected bool)
}

type connState int

const (
	stateDisconnected connState = iota
	stateConnecting
	stateConnected
)

// Manager is an explicitly constructed, owned connection object. Nothing
// dials at package load; the owner calls Connect and Disconnect.
type Manager struct {
	url   string
	log   zerolog.Logger
	delay time.Duration

	mu       sync.Mutex
	state    connState
	conn     *websocket.Conn
	gen      uint64
	waiters  []chan error
	handlers []Handler
	retry    *time.Timer

	writeMu sync.Mutex
}

func NewManager(wsURL string, log zerolog.Logger) *Manager {
	return &Manager{url: wsURL, log: log, delay: DefaultReconnectDelay}
}

// SetReconnectDelay overrides the fixed reconnect delay. Zero or negative
// values are ignored.
func (m *Manager) SetReconnectDelay(d time.Duration) {
	if d <= 0 {
		return
	}
	m.mu.Lock()
	m.delay = d
	m.mu.Unlock()
}

// Connect is idempotent: already open resolves immediately, and a call made
// while an attempt is in flight joins that attempt instead of racing a
// second dial.
func (m *Manager) Connect(ctx context.Context) error {
	m.mu.Lock()
	switch m.state {
	case stateConnected:
		m.mu.Unlock()
		return nil
	case stateConnecting:
		ch := make(chan error, 1)
		m.waiters = append(m.waiters, ch)
		m.mu.Unlock()
		select {
		case err := <-ch:
			return err
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	// A pending retry timer belongs to the generation this call supersedes;
	// left armed, its stale callback would strand the retry slot and block all
	// future reconnect scheduling.
	if m.retry != nil {
		m.retry.Stop()
		m.retry = nil
	}
	m.state = stateConnecting
	m.gen++
	gen := m.gen
	ch := make(chan error, 1)
	m.waiters = append(m.waiters, ch)
	m.mu.Unlock()

	go m.dial(ctx, gen)

	select {
	case err := <-ch:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Disconnect performs a graceful close and cancels any pending reconnect.
func (m *Manager) Disconnect(reason string) {
	m.mu.Lock()
	m.gen++
	if m.retry != nil {
		m.retry.Stop()
		m.retry = nil
	}
	c := m.conn
	m.conn = nil
	wasConnected := m.state == stateConnected
	m.state = stateDisconnected
	m.notifyWaitersLocked(errors.New("conn: disconnected: " + reason))
	m.mu.Unlock()

	if c != nil {
		deadline := time.Now().Add(time.Second)
		_ = c.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, reason), deadline)
		_ = c.Close()
	}
	if wasConnected {
		m.log.Info().Str("reason", reason).Msg("channel closed")
		m.notifyConnectivity(false)
	}
}

// Send is fire-and-forget. When the channel is not open the message is
// dropped with a warning; callers must not assume delivery.
func (m *Manager) Send(msg wire.ClientMsg) {
	m.mu.Lock()
	c := m.conn
	open := m.state == stateConnected
	m.mu.Unlock()

	if !open || c == nil {
		m.log.Warn().Str("kind", string(msg.Type)).Msg("send dropped: channel not open")
		return
	}

	m.writeMu.Lock()
	err := c.WriteJSON(msg)
	m.writeMu.Unlock()
	if err != nil {
		m.log.Warn().Err(err).Str("kind", string(msg.Type)).Msg("send failed")
	}
}

func (m *Manager) Connected() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state == stateConnected
}

func (m *Manager) Subscribe(h Handler) {
	if h == nil {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.handlers {
		if existing == h {
			return
		}
	}
	m.handlers = append(m.handlers, h)
}

func (m *Manager) Unsubscribe(h Handler) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, existing := range m.handlers {
		if existing == h {
			m.handlers = append(m.handlers[:i], m.handlers[i+1:]...)
			return
		}
	}
}

func (m *Manager) dial(ctx context.Context, gen uint64) {
	c, _, err := websocket.DefaultDialer.DialContext(ctx, m.url, nil)

	m.mu.Lock()
	if m.gen != gen {
		m.mu.Unlock()
		if c != nil {
			_ = c.Close()
		}
		return
	}
	if err != nil {
		m.state = stateDisconnected
		m.notifyWaitersLocked(err)
		m.mu.Unlock()
		m.log.Warn().Err(err).Msg("connect failed")
		return
	}
	m.conn = c
	m.state = stateConnected
	m.notifyWaitersLocked(nil)
	m.mu.Unlock()

	m.log.Info().Str("url", m.url).Msg("channel open")
	m.notifyConnectivity(true)

	go m.readLoop(gen, c)
}

func (m *Manager) readLoop(gen uint64, c *websocket.Conn) {
	for {
		_, data, err := c.ReadMessage()
		if err != nil {
			m.onClosed(gen, err)
			return
		}

		m.mu.Lock()
		stale := m.gen != gen
		m.mu.Unlock()
		if stale {
			return
		}

		msg, err := wire.Decode(data)
		if err != nil {
			// A malformed frame must never take down the dispatch loop.
			m.log.Error().Err(err).Msg("discarding malformed frame")
			continue
		}
		m.dispatch(msg)
	}
}

// onClosed handles a closure the local side did not ask for: exactly one
// reconnect is scheduled, no matter how many close signals race in.
func (m *Manager) onClosed(gen uint64, cause error) {
	m.mu.Lock()
	if m.gen != gen {
		m.mu.Unlock()
		return
	}
	if m.conn != nil {
		_ = m.conn.Close()
		m.conn = nil
	}
	m.state = stateDisconnected
	m.scheduleReconnectLocked()
	m.mu.Unlock()

	m.log.Warn().Err(cause).Msg("channel lost")
	m.notifyConnectivity(false)
}

func (m *Manager) scheduleReconnectLocked() {
	if m.retry != nil {
		return
	}
	m.gen++
	gen := m.gen
	delay := m.delay
	m.retry = time.AfterFunc(delay, func() { m.reconnect(gen) })
	m.log.Info().Dur("delay", delay).Msg("reconnect scheduled")
}

func (m *Manager) reconnect(gen uint64) {
	m.mu.Lock()
	if m.gen != gen {
		// Superseded. Whoever bumped the generation already cleared or
		// replaced m.retry; it never still points at this timer.
		m.mu.Unlock()
		return
	}
	m.retry = nil
	if m.state != stateDisconnected {
		m.mu.Unlock()
		return
	}
	m.state = stateConnecting
	m.mu.Unlock()

	c, _, err := websocket.DefaultDialer.Dial(m.url, nil)

	m.mu.Lock()
	if m.gen != gen {
		m.mu.Unlock()
		if c != nil {
			_ = c.Close()
		}
		return
	}
	if err != nil {
		// Re-arm the same fixed delay on every failed attempt.
		m.state = stateDisconnected
		m.scheduleReconnectLocked()
		m.mu.Unlock()
		m.log.Warn().Err(err).Msg("reconnect failed")
		return
	}
	m.conn = c
	m.state = stateConnected
	m.notifyWaitersLocked(nil)
	m.mu.Unlock()

	m.log.Info().Msg("channel reopened")
	m.notifyConnectivity(true)

	go m.readLoop(gen, c)
}

func (m *Manager) notifyWaitersLocked(err error) {
	for _, ch := range m.waiters {
		ch <- err
	}
	m.waiters = nil
}

func (m *Manager) snapshotHandlers() []Handler {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]Handler(nil), m.handlers...)
}

func (m *Manager) dispatch(msg wire.Msg) {
	for _, h := range m.snapshotHandlers() {
		m.deliver(func() { h.OnMessage(msg) })
	}
}

func (m *Manager) notifyConnectivity(connected bool) {
	for _, h := range m.snapshotHandlers() {
		m.deliver(func() { h.OnConnectivity(connected) })
	}
}

// deliver shields the dispatch loop and the remaining listeners from one
// listener's panic.
func (m *Manager) deliver(fn func()) {
	defer func() {
		if r := recover(); r != nil {
			m.log.Error().Interface("panic", r).Msg("listener panicked")
		}
	}()
	fn()
}
