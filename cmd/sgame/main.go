package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"example.com/sgame-client/internal/app"
	"example.com/sgame-client/internal/config"
	"example.com/sgame-client/internal/tui"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:           "sgame",
	Short:         "Terminal client for the quiz game server",
	SilenceUsage:  true,
	SilenceErrors: true,
}

var lobbyCmd = &cobra.Command{
	Use:   "lobby",
	Short: "Browse rooms, chat and join a game",
	Args:  cobra.NoArgs,
	RunE:  runLobby,
}

var roomCmd = &cobra.Command{
	Use:   "room <id>",
	Short: "Enter a room directly",
	Args:  cobra.ExactArgs(1),
	RunE:  runRoom,
}

var (
	flagEnvFile   string
	flagHost      string
	flagTLS       bool
	flagSession   string
	flagToken     string
	flagLogFormat string
	flagLogLevel  string
	flagPassword  string
)

func init() {
	flags := rootCmd.PersistentFlags()
	flags.StringVar(&flagEnvFile, "env-file", ".env", "dotenv file read before the environment; variables already set win")
	flags.StringVar(&flagHost, "host", "", "backend host[:port], overrides BACKEND_HOST")
	flags.BoolVar(&flagTLS, "tls", false, "use https/wss, overrides BACKEND_TLS")
	flags.StringVar(&flagSession, "session", "", "sessionId cookie value, overrides SESSION_ID")
	flags.StringVar(&flagToken, "token", "", "bearer token, overrides AUTH_TOKEN")
	flags.StringVar(&flagLogFormat, "log-format", "", "text|json, overrides LOG_FORMAT")
	flags.StringVar(&flagLogLevel, "log-level", "", "debug|info|warn|error, overrides LOG_LEVEL")

	roomCmd.Flags().StringVar(&flagPassword, "password", "", "password of a private room")

	rootCmd.AddCommand(lobbyCmd, roomCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "sgame:", err)
		os.Exit(1)
	}
}

// loadConfig layers the flags that were set explicitly over the environment.
func loadConfig(cmd *cobra.Command) (config.Config, error) {
	flags := cmd.Flags()
	if err := godotenv.Load(flagEnvFile); err != nil {
		// the default file is optional, a named one is not
		if flags.Changed("env-file") || !errors.Is(err, fs.ErrNotExist) {
			return config.Config{}, fmt.Errorf("load %s: %w", flagEnvFile, err)
		}
	}

	c := config.FromEnv()
	if flags.Changed("host") {
		c.Backend.Host = flagHost
	}
	if flags.Changed("tls") {
		c.Backend.TLS = flagTLS
	}
	if flags.Changed("session") {
		c.Auth.SessionID = flagSession
	}
	if flags.Changed("token") {
		c.Auth.Token = flagToken
	}
	if flags.Changed("log-format") {
		c.Log.Format = flagLogFormat
	}
	if flags.Changed("log-level") {
		c.Log.Level = flagLogLevel
	}
	if err := c.Validate(); err != nil {
		return config.Config{}, fmt.Errorf("config: %w", err)
	}
	return c, nil
}

func setup(cmd *cobra.Command) (context.Context, context.CancelFunc, *app.App, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, nil, nil, err
	}
	log := app.NewLogger(os.Stderr, cfg.Log.Format, cfg.Log.Level)
	slog.SetDefault(log)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	a, err := app.New(ctx, cfg, log)
	if err != nil {
		stop()
		return nil, nil, nil, err
	}
	return ctx, stop, a, nil
}

func runLobby(cmd *cobra.Command, _ []string) error {
	ctx, stop, a, err := setup(cmd)
	if err != nil {
		return err
	}
	defer stop()

	sc := tui.NewScreen(os.Stdout)
	lines := tui.Lines(os.Stdin)
	for {
		lobby, err := a.Lobby(ctx, sc)
		if err != nil {
			return fmt.Errorf("open lobby: %w", err)
		}
		var join tui.Join
		err = app.Run(ctx, lobby, func(ctx context.Context) error {
			var err error
			join, err = tui.RunLobby(ctx, lines, sc, lobby)
			return err
		})
		if err != nil {
			return quiet(err)
		}
		if join.RoomID == "" {
			return nil
		}
		if err := playRoom(ctx, a, sc, lines, join.RoomID, join.Password); err != nil {
			if errors.Is(err, app.ErrDisconnected) || ctx.Err() != nil {
				return quiet(err)
			}
			sc.Printf("! %v\n", err)
		}
	}
}

func runRoom(cmd *cobra.Command, args []string) error {
	ctx, stop, a, err := setup(cmd)
	if err != nil {
		return err
	}
	defer stop()

	sc := tui.NewScreen(os.Stdout)
	return quiet(playRoom(ctx, a, sc, tui.Lines(os.Stdin), args[0], flagPassword))
}

func playRoom(ctx context.Context, a *app.App, sc *tui.Screen, lines <-chan string, id, password string) error {
	r, err := a.Room(ctx, id, password, sc)
	if err != nil {
		return fmt.Errorf("enter room %s: %w", id, err)
	}
	return app.Run(ctx, r, func(ctx context.Context) error {
		return tui.RunRoom(ctx, lines, sc, r)
	})
}

// quiet treats Ctrl-C as a normal exit.
func quiet(err error) error {
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}
