package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadFromEnv_Defaults(t *testing.T) {
	t.Setenv("SESSION_ID", "abc")

	c, err := LoadFromEnv()
	require.NoError(t, err)
	assert.Equal(t, "dev", c.Env)
	assert.Equal(t, "localhost:8080", c.Backend.Host)
	assert.Equal(t, 10*time.Second, c.Backend.HTTPTimeout)
	assert.Equal(t, 25*time.Second, c.WS.PingInterval)
	assert.Equal(t, 64, c.WS.SendBuffer)
	assert.Equal(t, int64(1<<20), c.WS.ReadLimit)
	assert.Equal(t, "http://localhost:8080", c.HTTPBase())
	assert.Equal(t, "ws://localhost:8080", c.WSBase())
}

func TestLoadFromEnv_Overrides(t *testing.T) {
	t.Setenv("AUTH_TOKEN", "tok")
	t.Setenv("BACKEND_HOST", "quiz.example.com")
	t.Setenv("BACKEND_TLS", "true")
	t.Setenv("WS_PING_INTERVAL", "5s")
	t.Setenv("WS_SEND_BUFFER", "8")

	c, err := LoadFromEnv()
	require.NoError(t, err)
	assert.Equal(t, "https://quiz.example.com", c.HTTPBase())
	assert.Equal(t, "wss://quiz.example.com", c.WSBase())
	assert.Equal(t, 5*time.Second, c.WS.PingInterval)
	assert.Equal(t, 8, c.WS.SendBuffer)
}

func TestLoadFromEnv_Malformed(t *testing.T) {
	cases := []struct {
		key, value string
	}{
		{key: "WS_PING_INTERVAL", value: "soon"},
		{key: "WS_SEND_BUFFER", value: "not-a-number"},
		{key: "BACKEND_TLS", value: "maybe"},
		{key: "HTTP_TIMEOUT", value: "10"},
	}

	for _, tc := range cases {
		t.Run(tc.key, func(t *testing.T) {
			t.Setenv("SESSION_ID", "abc")
			t.Setenv(tc.key, tc.value)

			_, err := LoadFromEnv()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.key)

			// flags cannot paper over it either
			c := FromEnv()
			c.Auth.Token = "tok"
			require.Error(t, c.Validate())
		})
	}
}

func TestFromEnv_DoesNotValidate(t *testing.T) {
	t.Setenv("SESSION_ID", "")
	t.Setenv("AUTH_TOKEN", "")

	c := FromEnv()
	require.Error(t, c.Validate())

	c.Auth.SessionID = "from-flag"
	require.NoError(t, c.Validate())

	_, err := LoadFromEnv()
	require.Error(t, err)
}

func TestValidate(t *testing.T) {
	valid := func() Config {
		var c Config
		c.Env = "dev"
		c.Log.Format = "text"
		c.Log.Level = "info"
		c.Backend.Host = "localhost:8080"
		c.Backend.HTTPTimeout = time.Second
		c.Auth.SessionID = "abc"
		c.WS.HandshakeTimeout = time.Second
		c.WS.WriteWait = time.Second
		c.WS.PingInterval = time.Second
		c.WS.SendBuffer = 1
		c.WS.ReadLimit = 1
		return c
	}

	cases := []struct {
		name    string
		mutate  func(c *Config)
		wantErr bool
	}{
		{name: "valid", mutate: func(c *Config) {}},
		{name: "no credentials", mutate: func(c *Config) { c.Auth.SessionID = "" }, wantErr: true},
		{name: "scheme in host", mutate: func(c *Config) { c.Backend.Host = "http://x" }, wantErr: true},
		{name: "prod without tls", mutate: func(c *Config) { c.Env = "prod" }, wantErr: true},
		{name: "prod with tls", mutate: func(c *Config) { c.Env = "prod"; c.Backend.TLS = true }},
		{name: "bad log format", mutate: func(c *Config) { c.Log.Format = "xml" }, wantErr: true},
		{name: "bad log level", mutate: func(c *Config) { c.Log.Level = "loud" }, wantErr: true},
		{name: "zero ping", mutate: func(c *Config) { c.WS.PingInterval = 0 }, wantErr: true},
		{name: "zero buffer", mutate: func(c *Config) { c.WS.SendBuffer = 0 }, wantErr: true},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			c := valid()
			tc.mutate(&c)
			err := c.Validate()
			if tc.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
