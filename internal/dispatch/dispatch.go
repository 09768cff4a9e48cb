// Package dispatch routes decoded server events to the state owners of one
// context. Every inbound frame reaches at most one handler method.
package dispatch

import (
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"

	"example.com/sgame-client/internal/protocol"
)

// ErrWrongContext is returned for a well-formed event that belongs to the
// other context, e.g. a "room" snapshot arriving on the lobby channel.
var ErrWrongContext = errors.New("event not handled in this context")

// CommonHandler receives the events both contexts share.
type CommonHandler interface {
	HandleChat(protocol.ChatMessage)
	HandleError(protocol.ServerError)
}

type LobbyHandler interface {
	CommonHandler
	HandleLobbyRoom(protocol.LobbyRoom)
	HandleLobbyRoomDeleted(protocol.LobbyRoomDeleted)
}

type RoomHandler interface {
	CommonHandler
	HandleRoom(protocol.Room)
	HandleDeadline(protocol.Deadline)
	HandleAnswers(protocol.Answers)
}

// Stats counts what happened to inbound frames.
type Stats struct {
	Handled   uint64
	Malformed uint64
	Unknown   uint64
	Foreign   uint64
}

type Dispatcher struct {
	lobby LobbyHandler
	room  RoomHandler
	log   *slog.Logger

	handled   atomic.Uint64
	malformed atomic.Uint64
	unknown   atomic.Uint64
	foreign   atomic.Uint64
}

func NewLobby(h LobbyHandler, log *slog.Logger) *Dispatcher {
	return &Dispatcher{lobby: h, log: orDefault(log)}
}

func NewRoom(h RoomHandler, log *slog.Logger) *Dispatcher {
	return &Dispatcher{room: h, log: orDefault(log)}
}

func orDefault(l *slog.Logger) *slog.Logger {
	if l == nil {
		return slog.Default()
	}
	return l
}

// Dispatch decodes frame and hands it to the matching handler. A frame that
// fails to decode or belongs to the other context is dropped: the error is
// returned and logged at debug level, and no handler runs.
func (d *Dispatcher) Dispatch(frame []byte) error {
	in, err := protocol.DecodeInbound(frame)
	if err != nil {
		if errors.Is(err, protocol.ErrUnknownEvent) {
			d.unknown.Add(1)
		} else {
			d.malformed.Add(1)
		}
		d.log.Debug("inbound frame dropped", "err", err)
		return err
	}

	if err := d.route(in); err != nil {
		d.foreign.Add(1)
		d.log.Debug("inbound frame dropped", "event", protocol.EventOf(in), "err", err)
		return err
	}
	d.handled.Add(1)
	return nil
}

func (d *Dispatcher) route(in protocol.Inbound) error {
	common := d.common()
	switch ev := in.(type) {
	case protocol.ChatMessage:
		common.HandleChat(ev)
	case protocol.ServerError:
		common.HandleError(ev)

	case protocol.LobbyRoom:
		if d.lobby == nil {
			return wrongContext(in)
		}
		d.lobby.HandleLobbyRoom(ev)
	case protocol.LobbyRoomDeleted:
		if d.lobby == nil {
			return wrongContext(in)
		}
		d.lobby.HandleLobbyRoomDeleted(ev)

	case protocol.Room:
		if d.room == nil {
			return wrongContext(in)
		}
		d.room.HandleRoom(ev)
	case protocol.Deadline:
		if d.room == nil {
			return wrongContext(in)
		}
		d.room.HandleDeadline(ev)
	case protocol.Answers:
		if d.room == nil {
			return wrongContext(in)
		}
		d.room.HandleAnswers(ev)

	default:
		// DecodeInbound only produces the types above.
		panic(fmt.Sprintf("dispatch: unhandled inbound type %T", in))
	}
	return nil
}

func (d *Dispatcher) common() CommonHandler {
	if d.lobby != nil {
		return d.lobby
	}
	return d.room
}

func wrongContext(in protocol.Inbound) error {
	return fmt.Errorf("%w: %s", ErrWrongContext, protocol.EventOf(in))
}

func (d *Dispatcher) Stats() Stats {
	return Stats{
		Handled:   d.handled.Load(),
		Malformed: d.malformed.Load(),
		Unknown:   d.unknown.Load(),
		Foreign:   d.foreign.Load(),
	}
}
