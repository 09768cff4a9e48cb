// Package wstest runs an in-process backend that speaks the game's REST and
// websocket protocol. Tests script it: they seed rooms, wait for peers and
// push frames by hand.
package wstest

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"example.com/sgame-client/internal/auth"
	"example.com/sgame-client/internal/protocol"
	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"
)

// Timeout bounds every wait helper so a broken test fails instead of hanging.
const Timeout = 2 * time.Second

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// Frame is one envelope a client sent to the backend.
type Frame struct {
	Peer     *Peer
	Envelope protocol.Envelope
}

type Backend struct {
	t      testing.TB
	srv    *httptest.Server
	secret []byte

	mu        sync.Mutex
	sessions  map[string]protocol.User
	users     map[string]protocol.User
	lobby     []protocol.LobbyRoom
	rooms     map[string]protocol.Room
	passwords map[string]string
	peers     []*Peer

	peerCh  chan *Peer
	inbound chan Frame
}

// New starts a backend that is shut down when the test ends.
func New(t testing.TB) *Backend {
	t.Helper()
	b := &Backend{
		t:         t,
		secret:    []byte("wstest-secret"),
		sessions:  make(map[string]protocol.User),
		users:     make(map[string]protocol.User),
		rooms:     make(map[string]protocol.Room),
		passwords: make(map[string]string),
		peerCh:    make(chan *Peer, 16),
		inbound:   make(chan Frame, 256),
	}
	b.srv = httptest.NewServer(b.routes())
	t.Cleanup(func() {
		b.mu.Lock()
		peers := append([]*Peer(nil), b.peers...)
		b.mu.Unlock()
		for _, p := range peers {
			p.drop()
		}
		b.srv.Close()
	})
	return b
}

func (b *Backend) routes() http.Handler {
	r := chi.NewRouter()
	r.Use(b.authMiddleware)

	r.Get("/user", b.handleUser)
	r.Get("/rest/rooms", b.handleRooms)
	r.Patch("/rest/room/{id}", b.handleEnterRoom)
	r.Get("/ws/lobby", b.handleWS)
	r.Get("/ws/room/{id}", b.handleWS)
	return r
}

// URL is the http origin of the backend.
func (b *Backend) URL() string { return b.srv.URL }

// WSURL is the ws origin of the backend.
func (b *Backend) WSURL() string { return "ws" + strings.TrimPrefix(b.srv.URL, "http") }

// AddSession makes sessionID a valid cookie for u.
func (b *Backend) AddSession(sessionID string, u protocol.User) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.sessions[sessionID] = u
	b.users[u.ID] = u
}

// Token returns a bearer token for u that the backend accepts.
func (b *Backend) Token(u protocol.User) string {
	b.t.Helper()
	tok, err := auth.Sign(b.secret, u, time.Hour)
	if err != nil {
		b.t.Fatalf("sign token: %v", err)
	}
	b.mu.Lock()
	b.users[u.ID] = u
	b.mu.Unlock()
	return tok
}

// AddRoom lists lr in the lobby and serves r to whoever enters it. An empty
// password means anyone may enter.
func (b *Backend) AddRoom(lr protocol.LobbyRoom, r protocol.Room, password string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.lobby = append(b.lobby, lr)
	b.rooms[r.ID] = r
	if password != "" {
		b.passwords[r.ID] = password
	}
}

// WaitPeer returns the next client that completed a websocket handshake.
func (b *Backend) WaitPeer(t testing.TB) *Peer {
	t.Helper()
	select {
	case p := <-b.peerCh:
		return p
	case <-time.After(Timeout):
		t.Fatalf("no websocket client connected within %s", Timeout)
		return nil
	}
}

// NoPeer fails the test if a client connects within d.
func (b *Backend) NoPeer(t testing.TB, d time.Duration) {
	t.Helper()
	select {
	case p := <-b.peerCh:
		t.Fatalf("unexpected connection on %s", p.Path)
	case <-time.After(d):
	}
}

// NextFrame returns the next envelope any client sent.
func (b *Backend) NextFrame(t testing.TB) Frame {
	t.Helper()
	select {
	case f := <-b.inbound:
		return f
	case <-time.After(Timeout):
		t.Fatalf("no frame received within %s", Timeout)
		return Frame{}
	}
}

// NoFrame fails the test if a client sends anything within d.
func (b *Backend) NoFrame(t testing.TB, d time.Duration) {
	t.Helper()
	select {
	case f := <-b.inbound:
		t.Fatalf("unexpected frame %q", f.Envelope.Event)
	case <-time.After(d):
	}
}

// Broadcast sends env to every connected peer on path.
func (b *Backend) Broadcast(path string, env protocol.Envelope) {
	b.mu.Lock()
	peers := append([]*Peer(nil), b.peers...)
	b.mu.Unlock()
	for _, p := range peers {
		if p.Path == path {
			_ = p.Send(env)
		}
	}
}

func (b *Backend) handleUser(w http.ResponseWriter, r *http.Request) {
	u, _ := userFromContext(r.Context())
	writeJSON(w, http.StatusOK, u)
}

func (b *Backend) handleRooms(w http.ResponseWriter, r *http.Request) {
	b.mu.Lock()
	rooms := append([]protocol.LobbyRoom{}, b.lobby...)
	b.mu.Unlock()
	writeJSON(w, http.StatusOK, rooms)
}

func (b *Backend) handleEnterRoom(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	b.mu.Lock()
	room, ok := b.rooms[id]
	password, private := b.passwords[id]
	b.mu.Unlock()

	switch {
	case !ok:
		writeError(w, http.StatusNotFound, "room not found")
	case private && r.URL.Query().Get("password") != password:
		writeError(w, http.StatusForbidden, "wrong password")
	default:
		writeJSON(w, http.StatusOK, room)
	}
}

func (b *Backend) handleWS(w http.ResponseWriter, r *http.Request) {
	roomID := chi.URLParam(r, "id")
	if roomID != "" {
		b.mu.Lock()
		_, ok := b.rooms[roomID]
		b.mu.Unlock()
		if !ok {
			writeError(w, http.StatusNotFound, "room not found")
			return
		}
	}
	u, _ := userFromContext(r.Context())

	ws, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	p := &Peer{
		Path:   r.URL.Path,
		RoomID: roomID,
		User:   u,
		ws:     ws,
		closed: make(chan struct{}),
	}

	b.mu.Lock()
	b.peers = append(b.peers, p)
	b.mu.Unlock()
	b.peerCh <- p

	defer p.drop()
	for {
		_, data, err := ws.ReadMessage()
		if err != nil {
			return
		}
		var env protocol.Envelope
		if err := json.Unmarshal(data, &env); err != nil {
			continue
		}
		select {
		case b.inbound <- Frame{Peer: p, Envelope: env}:
		case <-p.closed:
			return
		}
	}
}

type ctxKey string

const userKey ctxKey = "user"

// authMiddleware accepts the session cookie or a bearer token signed with
// the backend secret.
func (b *Backend) authMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		u, ok := b.identify(r)
		if !ok {
			writeError(w, http.StatusUnauthorized, "unauthorized")
			return
		}
		ctx := context.WithValue(r.Context(), userKey, u)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (b *Backend) identify(r *http.Request) (protocol.User, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if c, err := r.Cookie(auth.SessionCookieName); err == nil {
		u, ok := b.sessions[c.Value]
		return u, ok
	}
	h := r.Header.Get("Authorization")
	if !strings.HasPrefix(h, "Bearer ") {
		return protocol.User{}, false
	}
	claims, err := auth.Verify(b.secret, strings.TrimPrefix(h, "Bearer "))
	if err != nil {
		return protocol.User{}, false
	}
	u, ok := b.users[claims.UserID]
	return u, ok
}

func userFromContext(ctx context.Context) (protocol.User, bool) {
	u, ok := ctx.Value(userKey).(protocol.User)
	return u, ok
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, code int, msg string) {
	writeJSON(w, code, protocol.ServerError{Error: msg})
}
