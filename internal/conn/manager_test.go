package conn

import (
	"context"
	"sync"
	"testing"
	"time"

	"example.com/sgame-client/internal/auth"
	"example.com/sgame-client/internal/protocol"
	"example.com/sgame-client/internal/wstest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var viewer = protocol.User{ID: "1", Name: "nikita"}

type harness struct {
	backend *wstest.Backend
	mgr     *Manager

	frames      chan []byte
	mu          sync.Mutex
	disconnects []Endpoint
	discCh      chan Endpoint
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	b := wstest.New(t)
	b.AddSession("sid", viewer)
	b.AddRoom(protocol.LobbyRoom{ID: "A"}, protocol.Room{ID: "A"}, "")
	b.AddRoom(protocol.LobbyRoom{ID: "B"}, protocol.Room{ID: "B"}, "")

	h := &harness{
		backend: b,
		frames:  make(chan []byte, 16),
		discCh:  make(chan Endpoint, 16),
	}
	h.mgr = NewManager(Options{
		BaseURL:      b.WSURL(),
		Header:       auth.Header(auth.SessionCookie("sid")),
		PingInterval: time.Second,
	}, func(f []byte) { h.frames <- f }, func(ep Endpoint) {
		h.mu.Lock()
		h.disconnects = append(h.disconnects, ep)
		h.mu.Unlock()
		h.discCh <- ep
	})
	t.Cleanup(h.mgr.Close)
	return h
}

func (h *harness) waitFrame(t *testing.T) []byte {
	t.Helper()
	select {
	case f := <-h.frames:
		return f
	case <-time.After(wstest.Timeout):
		t.Fatal("no frame delivered")
		return nil
	}
}

func (h *harness) waitDisconnect(t *testing.T) Endpoint {
	t.Helper()
	select {
	case ep := <-h.discCh:
		return ep
	case <-time.After(wstest.Timeout):
		t.Fatal("no disconnect notification")
		return Endpoint{}
	}
}

func (h *harness) disconnectCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.disconnects)
}

func TestManager(t *testing.T) {
	ctx := context.Background()

	cases := []struct {
		name string
		run  func(t *testing.T, h *harness)
	}{
		{
			name: "frames flow both ways",
			run: func(t *testing.T, h *harness) {
				require.NoError(t, h.mgr.Open(ctx, LobbyEndpoint()))
				assert.Equal(t, StateOpen, h.mgr.State())

				peer := h.backend.WaitPeer(t)
				assert.Equal(t, "/ws/lobby", peer.Path)
				assert.Equal(t, viewer, peer.User)

				require.NoError(t, peer.SendRaw([]byte(`{"event":"chat","payload":{"text":"hi"}}`)))
				assert.JSONEq(t, `{"event":"chat","payload":{"text":"hi"}}`, string(h.waitFrame(t)))

				require.NoError(t, h.mgr.Send(protocol.Chat("hello")))
				f := h.backend.NextFrame(t)
				assert.Equal(t, protocol.EventChat, f.Envelope.Event)
				assert.JSONEq(t, `{"text":"hello"}`, string(f.Envelope.Payload))
			},
		},
		{
			name: "frames keep their order",
			run: func(t *testing.T, h *harness) {
				require.NoError(t, h.mgr.Open(ctx, RoomEndpoint("A")))
				peer := h.backend.WaitPeer(t)
				for _, text := range []string{"1", "2", "3"} {
					require.NoError(t, peer.SendEvent(protocol.EventChat, map[string]string{"text": text}))
				}
				for _, text := range []string{"1", "2", "3"} {
					assert.JSONEq(t, `{"event":"chat","payload":{"text":"`+text+`"}}`, string(h.waitFrame(t)))
				}
			},
		},
		{
			name: "send without channel is dropped",
			run: func(t *testing.T, h *harness) {
				assert.ErrorIs(t, h.mgr.Send(protocol.Start()), ErrNotOpen)

				require.NoError(t, h.mgr.Open(ctx, LobbyEndpoint()))
				h.backend.WaitPeer(t)
				h.mgr.Close()

				assert.ErrorIs(t, h.mgr.Send(protocol.Start()), ErrNotOpen)
				h.backend.NoFrame(t, 100*time.Millisecond)
			},
		},
		{
			name: "open is idempotent per endpoint",
			run: func(t *testing.T, h *harness) {
				require.NoError(t, h.mgr.Open(ctx, RoomEndpoint("A")))
				h.backend.WaitPeer(t)
				require.NoError(t, h.mgr.Open(ctx, RoomEndpoint("A")))
				h.backend.NoPeer(t, 100*time.Millisecond)
				assert.Equal(t, 0, h.disconnectCount())
			},
		},
		{
			name: "switching rooms closes the previous channel first",
			run: func(t *testing.T, h *harness) {
				require.NoError(t, h.mgr.Open(ctx, RoomEndpoint("A")))
				first := h.backend.WaitPeer(t)
				assert.Equal(t, "A", first.RoomID)

				require.NoError(t, h.mgr.Open(ctx, RoomEndpoint("B")))
				first.WaitClosed(t)
				assert.Equal(t, RoomEndpoint("A"), h.waitDisconnect(t))

				second := h.backend.WaitPeer(t)
				assert.Equal(t, "B", second.RoomID)
				ep, ok := h.mgr.Endpoint()
				require.True(t, ok)
				assert.Equal(t, RoomEndpoint("B"), ep)
				assert.Equal(t, 1, h.disconnectCount())

				// frames from the old room never arrive
				require.NoError(t, second.SendEvent(protocol.EventChat, map[string]string{"text": "b"}))
				assert.Contains(t, string(h.waitFrame(t)), `"b"`)
			},
		},
		{
			name: "server close is reported once",
			run: func(t *testing.T, h *harness) {
				require.NoError(t, h.mgr.Open(ctx, LobbyEndpoint()))
				peer := h.backend.WaitPeer(t)
				done := h.mgr.Done()

				peer.Close()
				assert.Equal(t, LobbyEndpoint(), h.waitDisconnect(t))
				<-done
				assert.Equal(t, StateClosed, h.mgr.State())

				h.mgr.Close()
				time.Sleep(50 * time.Millisecond)
				assert.Equal(t, 1, h.disconnectCount())
				assert.ErrorIs(t, h.mgr.Send(protocol.Start()), ErrNotOpen)
			},
		},
		{
			name: "local close is reported once",
			run: func(t *testing.T, h *harness) {
				require.NoError(t, h.mgr.Open(ctx, LobbyEndpoint()))
				peer := h.backend.WaitPeer(t)

				h.mgr.Close()
				assert.Equal(t, 1, h.disconnectCount())
				peer.WaitClosed(t)
				h.mgr.Close()
				assert.Equal(t, 1, h.disconnectCount())
			},
		},
		{
			name: "failed dial leaves the manager closed",
			run: func(t *testing.T, h *harness) {
				err := h.mgr.Open(ctx, RoomEndpoint("missing"))
				require.Error(t, err)
				assert.Equal(t, StateClosed, h.mgr.State())
				assert.Equal(t, 0, h.disconnectCount())
			},
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			tc.run(t, newHarness(t))
		})
	}
}

func TestEndpoint(t *testing.T) {
	assert.Equal(t, "/ws/lobby", LobbyEndpoint().Path())
	assert.Equal(t, "/ws/room/123", RoomEndpoint("123").Path())
	assert.Equal(t, "/ws/room/a%2Fb", RoomEndpoint("a/b").Path())
	assert.True(t, LobbyEndpoint().IsLobby())
	assert.Equal(t, "room 123", RoomEndpoint("123").String())
}
