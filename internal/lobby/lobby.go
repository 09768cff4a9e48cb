// Package lobby keeps the list of rooms visible in the lobby.
package lobby

import (
	"strings"
	"sync"

	"example.com/sgame-client/internal/protocol"
)

// Reconciler holds the rooms in arrival order keyed by id. Updates replace
// an entry in place, so a room never moves once listed.
//
// The websocket reader goroutine writes and the UI reads, hence the lock.
type Reconciler struct {
	mu     sync.RWMutex
	rooms  []protocol.LobbyRoom
	index  map[string]int
	search string
}

// New seeds the collection with the initial list. Duplicate ids in initial
// collapse onto the first position with the last payload.
func New(initial []protocol.LobbyRoom) *Reconciler {
	r := &Reconciler{index: make(map[string]int, len(initial))}
	for _, room := range initial {
		r.upsert(room)
	}
	return r
}

// Upsert replaces the room with the same id or appends it.
func (r *Reconciler) Upsert(room protocol.LobbyRoom) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.upsert(room)
}

func (r *Reconciler) upsert(room protocol.LobbyRoom) {
	if i, ok := r.index[room.ID]; ok {
		r.rooms[i] = room
		return
	}
	r.index[room.ID] = len(r.rooms)
	r.rooms = append(r.rooms, room)
}

// Delete removes the room with id. It reports whether anything was removed.
func (r *Reconciler) Delete(id string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	i, ok := r.index[id]
	if !ok {
		return false
	}
	r.rooms = append(r.rooms[:i], r.rooms[i+1:]...)
	delete(r.index, id)
	for j := i; j < len(r.rooms); j++ {
		r.index[r.rooms[j].ID] = j
	}
	return true
}

func (r *Reconciler) Get(id string) (protocol.LobbyRoom, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	i, ok := r.index[id]
	if !ok {
		return protocol.LobbyRoom{}, false
	}
	return r.rooms[i], true
}

// Rooms returns a copy of the full collection.
func (r *Reconciler) Rooms() []protocol.LobbyRoom {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]protocol.LobbyRoom(nil), r.rooms...)
}

func (r *Reconciler) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.rooms)
}

func (r *Reconciler) SetSearch(term string) {
	r.mu.Lock()
	r.search = term
	r.mu.Unlock()
}

func (r *Reconciler) Search() string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.search
}

// Visible is the search projection of the current collection. It is
// recomputed on every call and never stored.
func (r *Reconciler) Visible() []protocol.LobbyRoom {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return Filter(r.rooms, r.search)
}

// Filter keeps rooms whose name contains term, ignoring case and the
// surrounding whitespace of term. An empty term keeps everything.
func Filter(rooms []protocol.LobbyRoom, term string) []protocol.LobbyRoom {
	needle := strings.ToLower(strings.TrimSpace(term))
	out := make([]protocol.LobbyRoom, 0, len(rooms))
	for _, room := range rooms {
		if strings.Contains(strings.ToLower(room.Name), needle) {
			out = append(out, room)
		}
	}
	return out
}
