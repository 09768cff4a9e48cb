package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"example.com/sgame-client/internal/api"
	"example.com/sgame-client/internal/auth"
	"example.com/sgame-client/internal/config"
	"example.com/sgame-client/internal/conn"
	"example.com/sgame-client/internal/protocol"
	"example.com/sgame-client/internal/session"
	"golang.org/x/sync/errgroup"
)

// ErrDisconnected ends Run when the channel of the running context closes.
var ErrDisconnected = errors.New("disconnected")

type App struct {
	cfg    config.Config
	log    *slog.Logger
	creds  auth.Credentials
	api    *api.Client
	viewer protocol.User
}

// New resolves credentials and the local identity. A bearer token carries
// the identity in its claims; a session cookie needs a round trip to /user.
func New(ctx context.Context, cfg config.Config, log *slog.Logger) (*App, error) {
	if log == nil {
		log = slog.Default()
	}

	var creds auth.Credentials = auth.SessionCookie(cfg.Auth.SessionID)
	if cfg.Auth.Token != "" {
		creds = auth.BearerToken(cfg.Auth.Token)
	}
	client := api.New(cfg.HTTPBase(), creds, cfg.Backend.HTTPTimeout)

	var (
		viewer protocol.User
		err    error
	)
	if cfg.Auth.Token != "" {
		viewer, err = auth.IdentityFromToken(cfg.Auth.Token)
	} else {
		viewer, err = client.CurrentUser(ctx)
	}
	if err != nil {
		return nil, fmt.Errorf("identity: %w", err)
	}
	log.Info("signed in", "user_id", viewer.ID, "name", viewer.Name)

	return &App{cfg: cfg, log: log, creds: creds, api: client, viewer: viewer}, nil
}

func (a *App) Viewer() protocol.User { return a.viewer }

func (a *App) Logger() *slog.Logger { return a.log }

func (a *App) connOptions() conn.Options {
	return conn.Options{
		BaseURL:          a.cfg.WSBase(),
		Header:           auth.Header(a.creds),
		HandshakeTimeout: a.cfg.WS.HandshakeTimeout,
		WriteWait:        a.cfg.WS.WriteWait,
		PingInterval:     a.cfg.WS.PingInterval,
		SendBuffer:       a.cfg.WS.SendBuffer,
		ReadLimit:        a.cfg.WS.ReadLimit,
		Logger:           a.log,
	}
}

// Lobby fetches the room list and opens the lobby channel.
func (a *App) Lobby(ctx context.Context, l session.Listener) (*session.Lobby, error) {
	rooms, err := a.api.Rooms(ctx)
	if err != nil {
		return nil, err
	}
	s := session.NewLobby(a.viewer, rooms, a.connOptions(), l, a.log)
	if err := s.Open(ctx); err != nil {
		return nil, err
	}
	return s, nil
}

// Room enters room id and opens its channel.
func (a *App) Room(ctx context.Context, id, password string, l session.Listener) (*session.Room, error) {
	snapshot, err := a.api.EnterRoom(ctx, id, password)
	if err != nil {
		return nil, err
	}
	s := session.NewRoom(a.viewer, snapshot, a.connOptions(), l, a.log)
	if err := s.Open(ctx); err != nil {
		return nil, err
	}
	return s, nil
}

// Channel is the part of a session Run needs.
type Channel interface {
	Done() <-chan struct{}
	Close()
}

var errLeft = errors.New("left")

// Run drives ui until it returns, ctx is cancelled or ch disconnects. The
// channel is closed on every path. A ui that returns nil means the user left
// and Run returns nil.
func Run(ctx context.Context, ch Channel, ui func(ctx context.Context) error) error {
	defer ch.Close()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		select {
		case <-ch.Done():
			return ErrDisconnected
		case <-gctx.Done():
			return nil
		}
	})
	g.Go(func() error {
		if err := ui(gctx); err != nil {
			return err
		}
		return errLeft
	})

	err := g.Wait()
	switch {
	case errors.Is(err, errLeft):
		return nil
	case err != nil:
		return err
	default:
		return ctx.Err()
	}
}

// NewLogger builds the process logger from LOG_FORMAT and LOG_LEVEL.
func NewLogger(w io.Writer, format, level string) *slog.Logger {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		lvl = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{Level: lvl}
	if format == "json" {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}
