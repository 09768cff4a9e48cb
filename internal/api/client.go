// Package api calls the backend's request/response endpoints that seed the
// live contexts: the lobby list, entering a room and the current user.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"example.com/sgame-client/internal/auth"
	"example.com/sgame-client/internal/protocol"
)

var (
	ErrNotFound     = errors.New("not found")
	ErrUnauthorized = errors.New("unauthorized")
	ErrForbidden    = errors.New("forbidden")
)

// APIError is a non-2xx answer. The backend reports problems as {"error": "..."}.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("backend: %d %s", e.Status, http.StatusText(e.Status))
	}
	return fmt.Sprintf("backend: %d: %s", e.Status, e.Message)
}

func (e *APIError) Unwrap() error {
	switch e.Status {
	case http.StatusNotFound:
		return ErrNotFound
	case http.StatusUnauthorized:
		return ErrUnauthorized
	case http.StatusForbidden:
		return ErrForbidden
	default:
		return nil
	}
}

type Client struct {
	base  string
	creds auth.Credentials
	http  *http.Client
}

// New builds a client for baseURL (http:// or https://). timeout bounds every
// request.
func New(baseURL string, creds auth.Credentials, timeout time.Duration) *Client {
	return &Client{
		base:  strings.TrimRight(baseURL, "/"),
		creds: creds,
		http:  &http.Client{Timeout: timeout},
	}
}

// Rooms returns the lobby list.
func (c *Client) Rooms(ctx context.Context) ([]protocol.LobbyRoom, error) {
	var rooms []protocol.LobbyRoom
	if err := c.do(ctx, http.MethodGet, "/rest/rooms", &rooms); err != nil {
		return nil, fmt.Errorf("list rooms: %w", err)
	}
	return rooms, nil
}

// EnterRoom joins room id and returns its snapshot. password is only
// checked by the backend for private rooms.
func (c *Client) EnterRoom(ctx context.Context, id, password string) (protocol.Room, error) {
	path := "/rest/room/" + url.PathEscape(id)
	if password != "" {
		path += "?" + url.Values{"password": {password}}.Encode()
	}
	var raw json.RawMessage
	if err := c.do(ctx, http.MethodPatch, path, &raw); err != nil {
		return protocol.Room{}, fmt.Errorf("enter room %s: %w", id, err)
	}
	r, err := protocol.DecodeRoom(raw)
	if err != nil {
		return protocol.Room{}, fmt.Errorf("enter room %s: %w", id, err)
	}
	return r, nil
}

func (c *Client) CurrentUser(ctx context.Context) (protocol.User, error) {
	var u protocol.User
	if err := c.do(ctx, http.MethodGet, "/user", &u); err != nil {
		return protocol.User{}, fmt.Errorf("current user: %w", err)
	}
	return u, nil
}

func (c *Client) do(ctx context.Context, method, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, method, c.base+path, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	if c.creds != nil {
		c.creds.Apply(req.Header)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 2<<20))
	if err != nil {
		return err
	}
	if resp.StatusCode/100 != 2 {
		apiErr := &APIError{Status: resp.StatusCode}
		var payload protocol.ServerError
		if json.Unmarshal(body, &payload) == nil && payload.Error != "" {
			apiErr.Message = payload.Error
		} else {
			apiErr.Message = strings.TrimSpace(string(body))
		}
		return apiErr
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
