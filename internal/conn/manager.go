// Package conn owns the websocket of one mounted context. There is never
// more than one live channel per Manager, and a lost channel is reported
// once and never redialed.
package conn

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"example.com/sgame-client/internal/protocol"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"golang.org/x/sync/errgroup"
)

var (
	ErrNotOpen    = errors.New("channel is not open")
	ErrSuperseded = errors.New("open superseded by a newer open or close")
)

type State int32

const (
	StateClosed State = iota
	StateConnecting
	StateOpen
)

func (s State) String() string {
	switch s {
	case StateConnecting:
		return "connecting"
	case StateOpen:
		return "open"
	default:
		return "closed"
	}
}

type Options struct {
	// BaseURL is the ws:// or wss:// origin, without path.
	BaseURL string
	// Header is sent with the handshake, typically the session cookie.
	Header http.Header

	HandshakeTimeout time.Duration
	WriteWait        time.Duration
	PingInterval     time.Duration
	SendBuffer       int
	ReadLimit        int64

	Logger *slog.Logger
}

func (o Options) withDefaults() Options {
	if o.HandshakeTimeout <= 0 {
		o.HandshakeTimeout = 10 * time.Second
	}
	if o.WriteWait <= 0 {
		o.WriteWait = 10 * time.Second
	}
	if o.PingInterval <= 0 {
		o.PingInterval = 25 * time.Second
	}
	if o.SendBuffer <= 0 {
		o.SendBuffer = 64
	}
	if o.ReadLimit <= 0 {
		o.ReadLimit = 1 << 20
	}
	if o.Logger == nil {
		o.Logger = slog.Default()
	}
	return o
}

// Manager opens, feeds and closes the channel of one context.
//
// onFrame runs on the reader goroutine for every text frame of the current
// channel, in arrival order. onDisconnect runs once per channel after both
// pumps have stopped, whoever closed it.
type Manager struct {
	opts         Options
	dialer       *websocket.Dialer
	onFrame      func([]byte)
	onDisconnect func(Endpoint)

	mu    sync.Mutex
	state State
	cur   *channel
	gen   uint64
}

func NewManager(opts Options, onFrame func([]byte), onDisconnect func(Endpoint)) *Manager {
	opts = opts.withDefaults()
	return &Manager{
		opts: opts,
		dialer: &websocket.Dialer{
			Proxy:            http.ProxyFromEnvironment,
			HandshakeTimeout: opts.HandshakeTimeout,
		},
		onFrame:      onFrame,
		onDisconnect: onDisconnect,
	}
}

func (m *Manager) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// Endpoint returns the context of the current channel.
func (m *Manager) Endpoint() (Endpoint, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.cur == nil {
		return Endpoint{}, false
	}
	return m.cur.ep, true
}

// Open dials ep. Opening the endpoint that is already open is a no-op;
// opening another one first closes the current channel and waits for its
// disconnect notification.
func (m *Manager) Open(ctx context.Context, ep Endpoint) error {
	m.mu.Lock()
	if m.cur != nil && m.cur.ep == ep && m.state == StateOpen {
		m.mu.Unlock()
		return nil
	}
	prev := m.cur
	m.cur = nil
	m.state = StateConnecting
	m.gen++
	gen := m.gen
	m.mu.Unlock()

	if prev != nil {
		prev.stop()
		<-prev.done
	}

	target := strings.TrimRight(m.opts.BaseURL, "/") + ep.Path()
	ws, resp, err := m.dialer.DialContext(ctx, target, m.opts.Header)
	if resp != nil && resp.Body != nil {
		_ = resp.Body.Close()
	}
	if err != nil {
		m.mu.Lock()
		if m.gen == gen {
			m.state = StateClosed
		}
		m.mu.Unlock()
		if resp != nil {
			return fmt.Errorf("dial %s: %w (status %d)", ep, err, resp.StatusCode)
		}
		return fmt.Errorf("dial %s: %w", ep, err)
	}

	ch := &channel{
		id:        uuid.NewString(),
		ep:        ep,
		ws:        ws,
		send:      make(chan []byte, m.opts.SendBuffer),
		quit:      make(chan struct{}),
		done:      make(chan struct{}),
		writeWait: m.opts.WriteWait,
	}

	m.mu.Lock()
	if m.gen != gen {
		m.mu.Unlock()
		_ = ws.Close()
		return ErrSuperseded
	}
	m.cur = ch
	m.state = StateOpen
	m.mu.Unlock()

	m.opts.Logger.Info("channel open", "endpoint", ep.String(), "conn_id", ch.id)
	go m.run(ch)
	return nil
}

// Send queues env on the current channel. It never blocks: with no open
// channel it returns ErrNotOpen, and a full queue drops the frame.
func (m *Manager) Send(env protocol.Envelope) error {
	m.mu.Lock()
	ch, state := m.cur, m.state
	m.mu.Unlock()
	if ch == nil || state != StateOpen {
		return ErrNotOpen
	}

	b, err := protocol.Encode(env)
	if err != nil {
		return fmt.Errorf("encode %s: %w", env.Event, err)
	}
	if !ch.enqueue(b) {
		m.opts.Logger.Warn("outbound frame dropped", "event", env.Event, "conn_id", ch.id)
	}
	return nil
}

// Close releases the current channel and returns once its disconnect
// notification has run. It is safe to call at any time, any number of times.
func (m *Manager) Close() {
	m.mu.Lock()
	ch := m.cur
	m.cur = nil
	m.state = StateClosed
	m.gen++
	m.mu.Unlock()

	if ch == nil {
		return
	}
	ch.stop()
	<-ch.done
}

// Done is closed when the current channel has stopped. With no channel it
// returns an already closed channel.
func (m *Manager) Done() <-chan struct{} {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.cur == nil {
		done := make(chan struct{})
		close(done)
		return done
	}
	return m.cur.done
}

func (m *Manager) run(ch *channel) {
	ch.ws.SetReadLimit(m.opts.ReadLimit)

	var g errgroup.Group
	g.Go(func() error { return ch.readPump(m.deliver) })
	g.Go(func() error { return ch.writePump(m.opts.PingInterval) })
	err := g.Wait()

	m.mu.Lock()
	if m.cur == ch {
		m.cur = nil
		m.state = StateClosed
	}
	m.mu.Unlock()

	if err != nil {
		m.opts.Logger.Info("channel closed", "endpoint", ch.ep.String(), "conn_id", ch.id, "err", err)
	} else {
		m.opts.Logger.Info("channel closed", "endpoint", ch.ep.String(), "conn_id", ch.id)
	}
	if m.onDisconnect != nil {
		m.onDisconnect(ch.ep)
	}
	close(ch.done)
}

func (m *Manager) deliver(ch *channel, frame []byte) {
	if ch.stopped() || m.onFrame == nil {
		return
	}
	m.onFrame(frame)
}
