package session

import (
	"context"
	"log/slog"

	"example.com/sgame-client/internal/conn"
	"example.com/sgame-client/internal/dispatch"
	"example.com/sgame-client/internal/lobby"
	"example.com/sgame-client/internal/protocol"
)

// Lobby is the lobby context: the room list, the lobby chat and the lobby
// channel.
type Lobby struct {
	base
	rooms *lobby.Reconciler
}

// NewLobby seeds the room list with initial, usually fetched over REST right
// before the channel is opened.
func NewLobby(viewer protocol.User, initial []protocol.LobbyRoom, opts conn.Options, l Listener, log *slog.Logger) *Lobby {
	s := &Lobby{base: newBase(viewer, l, log), rooms: lobby.New(initial)}
	s.disp = dispatch.NewLobby(lobbyHandler{s}, s.log)
	s.connect(opts)
	return s
}

func (s *Lobby) Open(ctx context.Context) error {
	return s.open(ctx, conn.LobbyEndpoint())
}

func (s *Lobby) Rooms() *lobby.Reconciler { return s.rooms }

func (s *Lobby) SetSearch(term string) {
	s.rooms.SetSearch(term)
	s.listener.Changed()
}

type lobbyHandler struct{ s *Lobby }

func (h lobbyHandler) HandleChat(m protocol.ChatMessage)  { h.s.handleChat(m) }
func (h lobbyHandler) HandleError(e protocol.ServerError) { h.s.handleError(e) }

func (h lobbyHandler) HandleLobbyRoom(r protocol.LobbyRoom) {
	h.s.rooms.Upsert(r)
	h.s.listener.Changed()
}

func (h lobbyHandler) HandleLobbyRoomDeleted(d protocol.LobbyRoomDeleted) {
	if h.s.rooms.Delete(d.ID) {
		h.s.listener.Changed()
	}
}
