package wstest

import (
	"encoding/json"
	"sync"
	"testing"
	"time"

	"example.com/sgame-client/internal/protocol"
	"github.com/gorilla/websocket"
)

// Peer is the server side of one client websocket.
type Peer struct {
	Path   string
	RoomID string
	User   protocol.User

	ws        *websocket.Conn
	writeMu   sync.Mutex
	closed    chan struct{}
	closeOnce sync.Once
}

func (p *Peer) Send(env protocol.Envelope) error {
	b, err := protocol.Encode(env)
	if err != nil {
		return err
	}
	return p.SendRaw(b)
}

// SendEvent marshals payload and sends it under event.
func (p *Peer) SendEvent(event protocol.Event, payload any) error {
	raw, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	return p.Send(protocol.Envelope{Event: event, Payload: raw})
}

// SendRaw writes frame as is, which lets tests send malformed input.
func (p *Peer) SendRaw(frame []byte) error {
	p.writeMu.Lock()
	defer p.writeMu.Unlock()
	_ = p.ws.SetWriteDeadline(time.Now().Add(Timeout))
	return p.ws.WriteMessage(websocket.TextMessage, frame)
}

// Close ends the connection from the server side with a normal close frame.
func (p *Peer) Close() {
	p.writeMu.Lock()
	msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "bye")
	_ = p.ws.WriteControl(websocket.CloseMessage, msg, time.Now().Add(time.Second))
	p.writeMu.Unlock()
	p.drop()
}

// Closed is closed once the connection is gone, whichever side ended it.
func (p *Peer) Closed() <-chan struct{} { return p.closed }

// WaitClosed fails the test if the client keeps the connection open.
func (p *Peer) WaitClosed(t testing.TB) {
	t.Helper()
	select {
	case <-p.closed:
	case <-time.After(Timeout):
		t.Fatalf("peer %s still connected after %s", p.Path, Timeout)
	}
}

func (p *Peer) drop() {
	p.closeOnce.Do(func() {
		close(p.closed)
		_ = p.ws.Close()
	})
}
