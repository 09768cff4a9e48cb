// Package session wires one mounted context together: a channel, its
// dispatcher and the state slices the dispatcher feeds. Each context owns
// its own channel and state; nothing is shared between contexts.
package session

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"example.com/sgame-client/internal/chat"
	"example.com/sgame-client/internal/conn"
	"example.com/sgame-client/internal/dispatch"
	"example.com/sgame-client/internal/protocol"
)

type NotificationKind int

const (
	// NotifyError is a transient application error sent by the server.
	NotifyError NotificationKind = iota
	// NotifyDisconnected is terminal: the channel is gone and is not redialed.
	NotifyDisconnected
)

type Notification struct {
	Kind    NotificationKind
	Message string
}

// Listener is told about state changes and notifications. Both methods run
// on the channel reader goroutine and must not block.
type Listener interface {
	Changed()
	Notify(Notification)
}

type nopListener struct{}

func (nopListener) Changed()            {}
func (nopListener) Notify(Notification) {}

// base is what both contexts share: the channel, chat and notifications.
type base struct {
	viewer   protocol.User
	chat     *chat.Stream
	mgr      *conn.Manager
	disp     *dispatch.Dispatcher
	listener Listener
	log      *slog.Logger
}

func newBase(viewer protocol.User, l Listener, log *slog.Logger) base {
	if l == nil {
		l = nopListener{}
	}
	if log == nil {
		log = slog.Default()
	}
	return base{viewer: viewer, chat: chat.NewStream(), listener: l, log: log}
}

func (b *base) connect(opts conn.Options) {
	if opts.Logger == nil {
		opts.Logger = b.log
	}
	b.mgr = conn.NewManager(opts, b.onFrame, b.onDisconnect)
}

func (b *base) onFrame(frame []byte) {
	// Drops are counted and logged by the dispatcher.
	_ = b.disp.Dispatch(frame)
}

func (b *base) onDisconnect(ep conn.Endpoint) {
	b.listener.Notify(Notification{Kind: NotifyDisconnected, Message: "disconnected from " + ep.String()})
}

func (b *base) Viewer() protocol.User { return b.viewer }

func (b *base) Chat() *chat.Stream { return b.chat }

// SendChat posts text to the context chat. Blank text is ignored. The
// message shows up once the server broadcasts it back.
func (b *base) SendChat(text string) error {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}
	return b.send(protocol.Chat(text))
}

// send is best effort: with the channel gone the intent is dropped.
func (b *base) send(env protocol.Envelope) error {
	err := b.mgr.Send(env)
	if errors.Is(err, conn.ErrNotOpen) {
		b.log.Debug("intent dropped", "event", env.Event, "err", err)
		return nil
	}
	return err
}

func (b *base) Send(env protocol.Envelope) error { return b.send(env) }

func (b *base) State() conn.State { return b.mgr.State() }

// Close releases the channel. The disconnect notification has run when it
// returns.
func (b *base) Close() { b.mgr.Close() }

// Done is closed when the channel stops.
func (b *base) Done() <-chan struct{} { return b.mgr.Done() }

func (b *base) Stats() dispatch.Stats { return b.disp.Stats() }

func (b *base) handleChat(m protocol.ChatMessage) {
	b.chat.Append(m)
	b.listener.Changed()
}

func (b *base) handleError(e protocol.ServerError) {
	b.listener.Notify(Notification{Kind: NotifyError, Message: e.Error})
}

func (b *base) open(ctx context.Context, ep conn.Endpoint) error {
	return b.mgr.Open(ctx, ep)
}
