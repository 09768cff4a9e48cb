package auth

import (
	"net/http"
	"testing"
	"time"

	"example.com/sgame-client/internal/protocol"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSignVerify(t *testing.T) {
	secret := []byte("test-secret")
	avatar := "https://cdn.example/a.png"
	u := protocol.User{ID: "42", Name: "nikita", Avatar: &avatar}

	tok, err := Sign(secret, u, time.Hour)
	require.NoError(t, err)

	claims, err := Verify(secret, tok)
	require.NoError(t, err)
	assert.Equal(t, u, claims.User())

	_, err = Verify([]byte("other"), tok)
	require.Error(t, err)
}

func TestIdentityFromToken(t *testing.T) {
	cases := []struct {
		name    string
		token   func(t *testing.T) string
		want    protocol.User
		wantErr bool
	}{
		{
			name: "valid",
			token: func(t *testing.T) string {
				tok, err := Sign([]byte("whatever"), protocol.User{ID: "7", Name: "danya"}, time.Hour)
				require.NoError(t, err)
				return tok
			},
			want: protocol.User{ID: "7", Name: "danya"},
		},
		{
			name: "expired",
			token: func(t *testing.T) string {
				tok, err := Sign([]byte("whatever"), protocol.User{ID: "7"}, -time.Minute)
				require.NoError(t, err)
				return tok
			},
			wantErr: true,
		},
		{
			name: "no user id",
			token: func(t *testing.T) string {
				tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"name": "x"}).SignedString([]byte("k"))
				require.NoError(t, err)
				return tok
			},
			wantErr: true,
		},
		{
			name:    "garbage",
			token:   func(t *testing.T) string { return "not-a-jwt" },
			wantErr: true,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := IdentityFromToken(tc.token(t))
			if tc.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestCredentials(t *testing.T) {
	h := Header(SessionCookie("abc"))
	r := &http.Request{Header: h}
	c, err := r.Cookie(SessionCookieName)
	require.NoError(t, err)
	assert.Equal(t, "abc", c.Value)

	h = Header(BearerToken("tok"))
	assert.Equal(t, "Bearer tok", h.Get("Authorization"))

	assert.Empty(t, Header(nil))
}
