package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config describes all runtime settings of the client.
//
// Loaded once in main, validated, then passed down explicitly.
type Config struct {
	Env string // dev|stage|prod

	Log struct {
		Format string // text|json
		Level  string // debug|info|warn|error
	}

	Backend struct {
		Host        string // host[:port], no scheme
		TLS         bool
		HTTPTimeout time.Duration
	}

	Auth struct {
		SessionID string
		Token     string
	}

	WS struct {
		HandshakeTimeout time.Duration
		WriteWait        time.Duration
		PingInterval     time.Duration
		SendBuffer       int
		ReadLimit        int64
	}

	// envErr holds the variables that were set but did not parse.
	envErr error
}

// LoadFromEnv reads and validates the environment.
func LoadFromEnv() (Config, error) {
	c := FromEnv()
	if err := c.Validate(); err != nil {
		return Config{}, err
	}
	return c, nil
}

// FromEnv reads the environment without validating, so callers can layer
// flags on top first.
func FromEnv() Config {
	var (
		c   Config
		env envReader
	)

	c.Env = env.str("APP_ENV", "dev")
	c.Log.Format = env.str("LOG_FORMAT", "text")
	c.Log.Level = env.str("LOG_LEVEL", "info")

	c.Backend.Host = env.str("BACKEND_HOST", "localhost:8080")
	c.Backend.TLS = env.boolean("BACKEND_TLS", false)
	c.Backend.HTTPTimeout = env.duration("HTTP_TIMEOUT", 10*time.Second)

	c.Auth.SessionID = env.str("SESSION_ID", "")
	c.Auth.Token = env.str("AUTH_TOKEN", "")

	c.WS.HandshakeTimeout = env.duration("WS_HANDSHAKE_TIMEOUT", 10*time.Second)
	c.WS.WriteWait = env.duration("WS_WRITE_WAIT", 10*time.Second)
	c.WS.PingInterval = env.duration("WS_PING_INTERVAL", 25*time.Second)
	c.WS.SendBuffer = env.integer("WS_SEND_BUFFER", 64)
	c.WS.ReadLimit = int64(env.integer("WS_READ_LIMIT", 1<<20))

	c.envErr = env.err()
	return c
}

func (c Config) Validate() error {
	if c.envErr != nil {
		return c.envErr
	}
	if c.Backend.Host == "" {
		return errors.New("BACKEND_HOST is empty")
	}
	if strings.Contains(c.Backend.Host, "://") {
		return fmt.Errorf("BACKEND_HOST=%q must not carry a scheme (use BACKEND_TLS)", c.Backend.Host)
	}
	if c.Auth.SessionID == "" && c.Auth.Token == "" {
		return errors.New("one of SESSION_ID or AUTH_TOKEN is required")
	}
	if c.Env != "dev" && !c.Backend.TLS {
		return fmt.Errorf("refuse to send credentials without TLS in %s", c.Env)
	}
	if c.Log.Format != "text" && c.Log.Format != "json" {
		return fmt.Errorf("unsupported LOG_FORMAT=%q (want text|json)", c.Log.Format)
	}
	switch c.Log.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("unsupported LOG_LEVEL=%q (want debug|info|warn|error)", c.Log.Level)
	}
	if c.Backend.HTTPTimeout <= 0 {
		return errors.New("HTTP_TIMEOUT must be positive")
	}
	if c.WS.PingInterval <= 0 || c.WS.WriteWait <= 0 || c.WS.HandshakeTimeout <= 0 {
		return errors.New("websocket timeouts must be positive")
	}
	if c.WS.SendBuffer <= 0 {
		return errors.New("WS_SEND_BUFFER must be positive")
	}
	if c.WS.ReadLimit <= 0 {
		return errors.New("WS_READ_LIMIT must be positive")
	}
	return nil
}

// HTTPBase is the origin of the REST endpoints.
func (c Config) HTTPBase() string {
	return c.origin("http", "https")
}

// WSBase is the origin of the websocket endpoints.
func (c Config) WSBase() string {
	return c.origin("ws", "wss")
}

func (c Config) origin(plain, secure string) string {
	u := url.URL{Scheme: plain, Host: c.Backend.Host}
	if c.Backend.TLS {
		u.Scheme = secure
	}
	return u.String()
}

// envReader reads typed variables and remembers every value that was set but
// could not be parsed. Unset variables fall back to the default.
type envReader struct {
	errs []error
}

func (r *envReader) err() error { return errors.Join(r.errs...) }

func (r *envReader) fail(key, v string, err error) {
	r.errs = append(r.errs, fmt.Errorf("%s=%q: %w", key, v, err))
}

func (r *envReader) str(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func (r *envReader) duration(key string, def time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		r.fail(key, v, err)
		return def
	}
	return d
}

func (r *envReader) boolean(key string, def bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		r.fail(key, v, err)
		return def
	}
	return b
}

func (r *envReader) integer(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		r.fail(key, v, err)
		return def
	}
	return n
}
