package session

import (
	"context"
	"log/slog"

	"example.com/sgame-client/internal/conn"
	"example.com/sgame-client/internal/dispatch"
	"example.com/sgame-client/internal/protocol"
	"example.com/sgame-client/internal/room"
)

// Room is the context of one joined room.
type Room struct {
	base
	id   string
	game *room.Machine
}

// NewRoom starts from snapshot, the state returned when entering the room.
func NewRoom(viewer protocol.User, snapshot protocol.Room, opts conn.Options, l Listener, log *slog.Logger) *Room {
	s := &Room{base: newBase(viewer, l, log), id: snapshot.ID}
	s.log = s.log.With("room_id", snapshot.ID)
	s.disp = dispatch.NewRoom(roomHandler{s}, s.log)
	s.connect(opts)
	s.game = room.New(viewer, snapshot, &s.base)
	return s
}

func (s *Room) ID() string { return s.id }

func (s *Room) Open(ctx context.Context) error {
	return s.open(ctx, conn.RoomEndpoint(s.id))
}

// Game is the room state machine. Its intents write to this room's channel.
func (s *Room) Game() *room.Machine { return s.game }

type roomHandler struct{ s *Room }

func (h roomHandler) HandleChat(m protocol.ChatMessage)  { h.s.handleChat(m) }
func (h roomHandler) HandleError(e protocol.ServerError) { h.s.handleError(e) }

func (h roomHandler) HandleRoom(r protocol.Room) {
	h.s.game.Apply(r)
	h.s.listener.Changed()
}

func (h roomHandler) HandleDeadline(d protocol.Deadline) {
	h.s.game.SetDeadline(d.At)
	h.s.listener.Changed()
}

func (h roomHandler) HandleAnswers(a protocol.Answers) {
	h.s.game.SetAnswers(a.Answers)
	h.s.listener.Changed()
}
