package app

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"example.com/sgame-client/internal/config"
	"example.com/sgame-client/internal/protocol"
	"example.com/sgame-client/internal/wstest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var me = protocol.User{ID: "1", Name: "nikita"}

func testConfig(b *wstest.Backend) config.Config {
	var c config.Config
	c.Env = "dev"
	c.Log.Format = "text"
	c.Log.Level = "info"
	c.Backend.Host = b.URL()[len("http://"):]
	c.Backend.HTTPTimeout = time.Second
	c.WS.HandshakeTimeout = time.Second
	c.WS.WriteWait = time.Second
	c.WS.PingInterval = time.Second
	c.WS.SendBuffer = 8
	c.WS.ReadLimit = 1 << 20
	return c
}

func newBackend(t *testing.T) *wstest.Backend {
	b := wstest.New(t)
	b.AddSession("sid", me)
	b.AddRoom(
		protocol.LobbyRoom{ID: "123", Name: "dungeon", Players: []protocol.User{}, MaxPlayers: 2, Type: protocol.Public, Status: "Idle"},
		protocol.Room{ID: "123", Name: "dungeon", Players: []protocol.Player{{User: me}}, AllowedToAnswer: []string{}},
		"",
	)
	return b
}

func TestNew_Identity(t *testing.T) {
	ctx := context.Background()
	b := newBackend(t)

	t.Run("session cookie asks the backend", func(t *testing.T) {
		cfg := testConfig(b)
		cfg.Auth.SessionID = "sid"
		a, err := New(ctx, cfg, nil)
		require.NoError(t, err)
		assert.Equal(t, me, a.Viewer())
	})

	t.Run("token carries the identity", func(t *testing.T) {
		cfg := testConfig(b)
		cfg.Auth.Token = b.Token(me)
		a, err := New(ctx, cfg, nil)
		require.NoError(t, err)
		assert.Equal(t, me, a.Viewer())
	})

	t.Run("bad session", func(t *testing.T) {
		cfg := testConfig(b)
		cfg.Auth.SessionID = "stale"
		_, err := New(ctx, cfg, nil)
		require.Error(t, err)
	})
}

func TestApp_Contexts(t *testing.T) {
	ctx := context.Background()
	b := newBackend(t)
	cfg := testConfig(b)
	cfg.Auth.SessionID = "sid"
	a, err := New(ctx, cfg, nil)
	require.NoError(t, err)

	lobby, err := a.Lobby(ctx, nil)
	require.NoError(t, err)
	defer lobby.Close()
	assert.Equal(t, "/ws/lobby", b.WaitPeer(t).Path)
	assert.Equal(t, 1, lobby.Rooms().Len())

	r, err := a.Room(ctx, "123", "", nil)
	require.NoError(t, err)
	defer r.Close()
	peer := b.WaitPeer(t)
	assert.Equal(t, "123", peer.RoomID)
	assert.Equal(t, "dungeon", r.Game().Room().Name)

	_, err = a.Room(ctx, "missing", "", nil)
	require.Error(t, err)
}

type fakeChannel struct {
	done   chan struct{}
	closed int
}

func (f *fakeChannel) Done() <-chan struct{} { return f.done }
func (f *fakeChannel) Close()                { f.closed++ }

func TestRun(t *testing.T) {
	boom := errors.New("boom")

	cases := []struct {
		name    string
		ui      func(ch *fakeChannel) func(ctx context.Context) error
		ctx     func() (context.Context, context.CancelFunc)
		wantErr error
	}{
		{
			name: "user leaves",
			ui: func(*fakeChannel) func(ctx context.Context) error {
				return func(ctx context.Context) error { return nil }
			},
		},
		{
			name: "ui fails",
			ui: func(*fakeChannel) func(ctx context.Context) error {
				return func(ctx context.Context) error { return boom }
			},
			wantErr: boom,
		},
		{
			name: "channel drops",
			ui: func(ch *fakeChannel) func(ctx context.Context) error {
				return func(ctx context.Context) error {
					close(ch.done)
					<-ctx.Done()
					return nil
				}
			},
			wantErr: ErrDisconnected,
		},
		{
			name: "cancelled",
			ui: func(*fakeChannel) func(ctx context.Context) error {
				return func(ctx context.Context) error {
					<-ctx.Done()
					return ctx.Err()
				}
			},
			ctx: func() (context.Context, context.CancelFunc) {
				return context.WithTimeout(context.Background(), 20*time.Millisecond)
			},
			wantErr: context.DeadlineExceeded,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			ctx, cancel := context.WithCancel(context.Background())
			if tc.ctx != nil {
				ctx, cancel = tc.ctx()
			}
			defer cancel()

			ch := &fakeChannel{done: make(chan struct{})}
			err := Run(ctx, ch, tc.ui(ch))
			if tc.wantErr != nil {
				require.ErrorIs(t, err, tc.wantErr)
			} else {
				require.NoError(t, err)
			}
			assert.Equal(t, 1, ch.closed)
		})
	}
}

func TestNewLogger(t *testing.T) {
	var buf bytes.Buffer
	log := NewLogger(&buf, "json", "debug")
	log.Debug("hello", "k", "v")
	assert.Contains(t, buf.String(), `"msg":"hello"`)

	buf.Reset()
	log = NewLogger(&buf, "text", "warn")
	log.Info("quiet")
	assert.Empty(t, buf.String())
}
