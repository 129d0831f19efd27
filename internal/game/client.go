// Package game wires the channel, the reducer, the turn timers, the canvas
// and the session store into one owned client object.
package game

import (
	"context"
	"errors"
	"math/rand"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"github.com/drawdash/drawdash-client/internal/canvas"
	"github.com/drawdash/drawdash-client/internal/conn"
	"github.com/drawdash/drawdash-client/internal/rest"
	"github.com/drawdash/drawdash-client/internal/session"
	"github.com/drawdash/drawdash-client/internal/state"
	"github.com/drawdash/drawdash-client/internal/timer"
	"github.com/drawdash/drawdash-client/internal/wire"
)

// How long the end-of-round results overlay stays up before it is discarded.
const resultsDisplay = 8 * time.Second

var (
	ErrNotInRoom   = errors.New("game: not in a room")
	ErrJoinRefused = errors.New("game: join refused")
)

// Events are the client's outputs toward the presentation layer. All funcs
// are optional. Callbacks run on channel-reader or timer goroutines; they
// must not call back into the client synchronously while blocking.
type Events struct {
	OnRoomUpdate    func(view RoomView)
	OnConnectivity  func(connected bool)
	OnChat          func(entry ChatEntry)
	OnServerError   func(message string)
	OnRoundStart    func(drawer wire.Player, isSelf bool)
	OnWordOffer     func(options []string, seconds int)
	OnWordSelected  func(word string, masked bool)
	OnCorrectGuess  func(player wire.Player, word string)
	OnTurnTick      func(phase timer.Phase, remaining int)
	OnRoundResults  func(view ResultsView)
	OnResultsClear  func()
	OnLeftRoom      func(reason string)
	OnGameEnded     func(final ScoreboardView)
}

// Client is the client-side mirror of one game room. The room snapshot it
// holds is produced exclusively by the reducer; everything else reads it.
type Client struct {
	api    *rest.Client
	ch     *conn.Manager
	store  *session.Store
	turns  *timer.Controller
	pixels *canvas.Pipeline
	events Events
	log    zerolog.Logger

	mu       sync.Mutex
	reducer  *state.Reducer
	self     wire.Player
	room     *wire.Room
	inRoom   bool
	replayed bool
	tool     canvas.Tool

	results      *wire.RoundScores
	resultsTimer *time.Timer

	strokeLimiter *rate.Limiter
	chatLimiter   *rate.Limiter
}

type Config struct {
	// APIBase is the HTTP base URL, e.g. "http://localhost:3001".
	APIBase string
	// WSURL is the websocket endpoint, e.g. "ws://localhost:3001/ws".
	WSURL string
	// SessionPath overrides the session file location. Empty uses the default.
	SessionPath string
}

func NewClient(cfg Config, events Events, log zerolog.Logger) (*Client, error) {
	api, err := rest.NewClient(cfg.APIBase, log)
	if err != nil {
		return nil, err
	}
	sessPath := cfg.SessionPath
	if sessPath == "" {
		sessPath = session.DefaultPath()
	}

	c := &Client{
		api:    api,
		ch:     conn.NewManager(cfg.WSURL, log),
		store:  session.NewStore(sessPath, log),
		pixels: canvas.NewPipeline(),
		events: events,
		log:    log,
		tool:   canvas.DefaultTool(),
		// Live stroke points stream fast; chat is a human cadence.
		strokeLimiter: rate.NewLimiter(rate.Limit(60), 120),
		chatLimiter:   rate.NewLimiter(1, 5),
	}
	c.turns = timer.NewController(timer.Hooks{
		OnWordChosen:        c.wordChosen,
		OnTick:              c.turnTick,
		OnRoundTimerExpired: func() { log.Debug().Msg("round display timer expired, waiting on server") },
	}, rand.New(rand.NewSource(time.Now().UnixNano())), log)
	c.ch.Subscribe(c)
	return c, nil
}

// CreateRoom creates a room over HTTP, persists the session, and brings the
// channel up.
func (c *Client) CreateRoom(ctx context.Context, username string, roundDuration uint32) error {
	resp, err := c.api.CreateRoom(ctx, username, roundDuration)
	if err != nil {
		return err
	}
	if !resp.Success || resp.Player == nil || resp.Room == nil {
		return joinError(resp.Message)
	}
	return c.enterRoom(ctx, *resp.Player, resp.Room)
}

// JoinRoom joins an existing room by code.
func (c *Client) JoinRoom(ctx context.Context, roomCode, username string) error {
	resp, err := c.api.JoinRoom(ctx, strings.ToUpper(strings.TrimSpace(roomCode)), username)
	if err != nil {
		return err
	}
	if !resp.Success || resp.Player == nil || resp.Room == nil {
		return joinError(resp.Message)
	}
	return c.enterRoom(ctx, *resp.Player, resp.Room)
}

// Resume picks up a persisted session after a restart. Returns ErrNotInRoom
// when there is nothing to resume.
func (c *Client) Resume(ctx context.Context) error {
	sess, ok := c.store.Load()
	if !ok || sess.RoomCode == "" {
		return ErrNotInRoom
	}
	return c.JoinRoom(ctx, sess.RoomCode, sess.Username)
}

func (c *Client) enterRoom(ctx context.Context, self wire.Player, room *wire.Room) error {
	c.mu.Lock()
	c.self = self
	c.reducer = state.NewReducer(self.ID, c.log)
	c.room = nil
	c.inRoom = true
	c.replayed = false
	code := room.Code
	c.mu.Unlock()

	c.store.Save(session.Session{UserID: self.ID, Username: self.Username, RoomCode: code})

	if err := c.ch.Connect(ctx); err != nil {
		c.teardown("connect failed")
		return err
	}
	// Register this player's connection with the room; the backend answers
	// with PlayerJoined and a full filtered snapshot.
	c.ch.Send(wire.JoinRoomMsg(code, self.Username))

	// Seed the mirror from the HTTP response so the UI is not empty while
	// the first snapshot is in flight.
	c.apply(wire.GameStateUpdateMsg{Room: *room})
	return nil
}

// Leave exits the room deliberately: server first, then local teardown.
func (c *Client) Leave(ctx context.Context) error {
	c.mu.Lock()
	inRoom := c.inRoom
	code := ""
	if c.room != nil {
		code = c.room.Code
	}
	selfID := c.self.ID
	c.mu.Unlock()

	if !inRoom {
		return ErrNotInRoom
	}
	if code != "" {
		c.ch.Send(wire.LeaveRoomMsg(code, selfID))
		if _, err := c.api.LeaveRoom(ctx, code, selfID); err != nil {
			c.log.Warn().Err(err).Msg("leave room request failed")
		}
	}
	c.teardown("left room")
	return nil
}

// Close tears the client down without telling the server; used on shutdown.
func (c *Client) Close() {
	c.ch.Unsubscribe(c)
	c.turns.Reset()
	c.ch.Disconnect("client closed")
}

// Health checks the backend before the lobby is shown.
func (c *Client) Health(ctx context.Context) error {
	h, err := c.api.Health(ctx)
	if err != nil {
		return err
	}
	if h.Status != "ok" && !strings.EqualFold(h.Status, "healthy") {
		return errors.New("game: backend unhealthy: " + h.Status)
	}
	return nil
}

// Room returns the current mirror snapshot; nil outside a room. Callers must
// treat it as read-only.
func (c *Client) Room() *wire.Room {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.room
}

func (c *Client) Self() wire.Player {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.self
}

func (c *Client) Connected() bool { return c.ch.Connected() }

// Results returns the transient end-of-round overlay while it is displayed.
func (c *Client) Results() *wire.RoundScores {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.results
}

func (c *Client) TurnPhase() timer.Phase { return c.turns.Phase() }

// WordOptions returns the words currently offered to the local drawer.
func (c *Client) WordOptions() []string { return c.turns.Options() }

// View builds the presentation view of the current room; zero view when not
// in a room.
func (c *Client) View() RoomView {
	c.mu.Lock()
	room := c.room
	self := c.self.ID
	c.mu.Unlock()
	if room == nil {
		return RoomView{}
	}
	return roomView(room, self)
}

// IsDrawer reports whether the local player currently holds the brush.
func (c *Client) IsDrawer() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.isDrawerLocked()
}

func (c *Client) isDrawerLocked() bool {
	return c.room != nil && c.room.CurrentDrawer != nil && *c.room.CurrentDrawer == c.self.ID
}

func joinError(message string) error {
	if message == "" {
		return ErrJoinRefused
	}
	return errors.New("game: " + message)
}
