// Package rest is the thin request/response collaborator for room lifecycle.
package rest

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/drawdash/drawdash-client/internal/wire"
)

type Client struct {
	baseURL string
	http    *http.Client
	log     zerolog.Logger
}

func NewClient(baseURL string, log zerolog.Logger) (*Client, error) {
	baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if _, err := url.Parse(baseURL); err != nil {
		return nil, err
	}
	return &Client{
		baseURL: baseURL,
		http:    &http.Client{Timeout: 5 * time.Second},
		log:     log,
	}, nil
}

// RoomResponse covers createRoom and joinRoom. Success=false carries the
// server's user-facing message; it is not a transport error.
type RoomResponse struct {
	Success bool         `json:"success"`
	Message string       `json:"message"`
	Room    *wire.Room   `json:"room"`
	Player  *wire.Player `json:"player"`
}

type LeaveResponse struct {
	Success bool         `json:"success"`
	Message string       `json:"message"`
	Player  *wire.Player `json:"player"`
}

type HealthResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

type createRoomRequest struct {
	Username      string `json:"username"`
	RoundDuration uint32 `json:"round_duration"`
}

type joinRoomRequest struct {
	RoomCode string `json:"room_code"`
	Username string `json:"username"`
}

type leaveRoomRequest struct {
	RoomCode string `json:"room_code"`
	PlayerID string `json:"player_id"`
}

func (c *Client) CreateRoom(ctx context.Context, username string, roundDuration uint32) (RoomResponse, error) {
	var out RoomResponse
	err := c.postJSON(ctx, "/api/createRoom", createRoomRequest{Username: username, RoundDuration: roundDuration}, &out)
	return out, err
}

func (c *Client) JoinRoom(ctx context.Context, roomCode, username string) (RoomResponse, error) {
	var out RoomResponse
	err := c.postJSON(ctx, "/api/joinRoom", joinRoomRequest{RoomCode: roomCode, Username: username}, &out)
	return out, err
}

func (c *Client) LeaveRoom(ctx context.Context, roomCode, playerID string) (LeaveResponse, error) {
	var out LeaveResponse
	err := c.postJSON(ctx, "/api/leaveRoom", leaveRoomRequest{RoomCode: roomCode, PlayerID: playerID}, &out)
	return out, err
}

func (c *Client) Health(ctx context.Context) (HealthResponse, error) {
	var out HealthResponse
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/api/health", nil)
	if err != nil {
		return out, err
	}
	err = c.do(req, &out)
	return out, err
}

func (c *Client) postJSON(ctx context.Context, path string, in, out any) error {
	b, err := json.Marshal(in)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(b))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	return c.do(req, out)
}

func (c *Client) do(req *http.Request, out any) error {
	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		c.log.Warn().Str("url", req.URL.String()).Str("status", resp.Status).Msg("api request failed")
		return fmt.Errorf("rest: %s returned %s", req.URL.Path, resp.Status)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("rest: decoding %s response: %w", req.URL.Path, err)
	}
	return nil
}
