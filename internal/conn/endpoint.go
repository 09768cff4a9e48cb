package conn

import (
	"net/url"
)

// Endpoint names the context a channel belongs to: the lobby, or one room.
type Endpoint struct {
	RoomID string
}

func LobbyEndpoint() Endpoint { return Endpoint{} }

func RoomEndpoint(id string) Endpoint { return Endpoint{RoomID: id} }

func (e Endpoint) IsLobby() bool { return e.RoomID == "" }

func (e Endpoint) Path() string {
	if e.IsLobby() {
		return "/ws/lobby"
	}
	return "/ws/room/" + url.PathEscape(e.RoomID)
}

func (e Endpoint) String() string {
	if e.IsLobby() {
		return "lobby"
	}
	return "room " + e.RoomID
}
