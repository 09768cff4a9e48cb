package auth

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"example.com/sgame-client/internal/protocol"
	"github.com/golang-jwt/jwt/v5"
)

// SessionCookieName is the cookie the backend issues on login.
const SessionCookieName = "sessionId"

var ErrNoIdentity = errors.New("token carries no user id")

// Credentials decorate outgoing requests and websocket handshakes.
type Credentials interface {
	Apply(h http.Header)
}

type SessionCookie string

func (s SessionCookie) Apply(h http.Header) {
	c := http.Cookie{Name: SessionCookieName, Value: string(s)}
	h.Add("Cookie", c.String())
}

type BearerToken string

func (t BearerToken) Apply(h http.Header) {
	h.Set("Authorization", "Bearer "+string(t))
}

// Header returns a fresh header carrying creds.
func Header(creds Credentials) http.Header {
	h := http.Header{}
	if creds != nil {
		creds.Apply(h)
	}
	return h
}

type Claims struct {
	UserID string  `json:"uid"`
	Name   string  `json:"name"`
	Avatar *string `json:"avatar,omitempty"`
	jwt.RegisteredClaims
}

func (c Claims) User() protocol.User {
	return protocol.User{ID: c.UserID, Name: c.Name, Avatar: c.Avatar}
}

func Sign(secret []byte, u protocol.User, ttl time.Duration) (string, error) {
	claims := Claims{
		UserID: u.ID,
		Name:   u.Name,
		Avatar: u.Avatar,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	}

	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return t.SignedString(secret)
}

func Verify(secret []byte, token string) (*Claims, error) {
	t, err := jwt.ParseWithClaims(token, &Claims{}, func(t *jwt.Token) (any, error) {
		return secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return nil, err
	}

	claims, ok := t.Claims.(*Claims)
	if !ok || !t.Valid {
		return nil, jwt.ErrTokenInvalidClaims
	}
	return claims, nil
}

// IdentityFromToken reads the local user out of a bearer token. The client
// does not hold the signing secret, so the signature is left to the server
// and only the claims are parsed.
func IdentityFromToken(token string) (protocol.User, error) {
	var claims Claims
	if _, _, err := jwt.NewParser().ParseUnverified(token, &claims); err != nil {
		return protocol.User{}, fmt.Errorf("parse token: %w", err)
	}
	if claims.UserID == "" {
		return protocol.User{}, ErrNoIdentity
	}
	if exp := claims.ExpiresAt; exp != nil && exp.Before(time.Now()) {
		return protocol.User{}, fmt.Errorf("parse token: %w", jwt.ErrTokenExpired)
	}
	return claims.User(), nil
}
