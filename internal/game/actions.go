package game

import (
	"strings"

	"github.com/drawdash/drawdash-client/internal/canvas"
	"github.com/drawdash/drawdash-client/internal/timer"
	"github.com/drawdash/drawdash-client/internal/wire"
)

// roomCode returns the current code or "" when not in a room.
func (c *Client) roomCode() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.room == nil {
		return ""
	}
	return c.room.Code
}

// StartGame asks the backend to start; only the host's request succeeds, and
// the backend answers failures with an Error frame.
func (c *Client) StartGame() {
	code := c.roomCode()
	if code == "" {
		return
	}
	c.ch.Send(wire.StartGameMsg(code))
}

// EndRound asks the backend to cut the current round short. The backend
// validates the requester; an ineligible request comes back as an Error frame.
func (c *Client) EndRound() {
	code := c.roomCode()
	if code == "" {
		return
	}
	c.ch.Send(wire.EndRoundMsg(code))
}

// SendChat sends a public chat line, which doubles as a guess during a
// round. Rate limited; excess lines are dropped locally.
func (c *Client) SendChat(text string) {
	text = strings.TrimSpace(text)
	code := c.roomCode()
	if code == "" || text == "" {
		return
	}
	if !c.chatLimiter.Allow() {
		c.log.Warn().Msg("chat dropped: rate limit")
		return
	}
	c.ch.Send(wire.ChatMsg(code, text))
}

// SendWinnersChat posts to the winners-only channel. The backend broadcasts
// it flagged; non-winners filter it out on display.
func (c *Client) SendWinnersChat(text string) {
	text = strings.TrimSpace(text)
	code := c.roomCode()
	if code == "" || text == "" {
		return
	}
	if !c.chatLimiter.Allow() {
		c.log.Warn().Msg("winners chat dropped: rate limit")
		return
	}
	c.ch.Send(wire.WinnersChatMsg(code, text))
}

// SendGuess submits an explicit guess.
func (c *Client) SendGuess(guess string) {
	guess = strings.TrimSpace(guess)
	code := c.roomCode()
	if code == "" || guess == "" {
		return
	}
	c.ch.Send(wire.GuessMsg(code, guess))
}

// SelectWord is the drawer's explicit pick from the offered options.
// Invalid picks and repeat picks are no-ops.
func (c *Client) SelectWord(word string) bool {
	// Duration 0: the round countdown is armed by the wordChosen hook once
	// the pick is committed, for both explicit and forced selection.
	return c.turns.Select(word, 0)
}

// UpdateSettings forwards a max-rounds change; the backend clamps it and
// confirms via the next full snapshot.
func (c *Client) UpdateSettings(maxRounds uint32) {
	code := c.roomCode()
	if code == "" {
		return
	}
	c.ch.Send(wire.UpdateSettingsMsg(code, maxRounds))
	c.store.SetRoomCode(code)
}

// SetTool changes the drawer's paint attributes for subsequent strokes.
func (c *Client) SetTool(tool canvas.Tool) {
	c.mu.Lock()
	c.tool = tool
	c.mu.Unlock()
}

// PointerDown begins a stroke. Allowed only when the local actor is the
// drawer, the channel is open, and a word has been selected.
func (c *Client) PointerDown(x, y float64) {
	if !c.ch.Connected() || c.turns.Phase() != timer.PhaseDrawing {
		return
	}

	c.mu.Lock()
	if !c.isDrawerLocked() {
		c.mu.Unlock()
		return
	}
	code := c.room.Code
	stroke, ok := c.pixels.PointerDown(x, y, c.tool)
	c.mu.Unlock()

	if ok {
		// The anchor always goes out so observers start from the right point.
		c.ch.Send(wire.DrawStrokeMsg(code, stroke))
	}
}

// PointerMove extends the stroke and streams the point live. Points beyond
// the rate limit still paint locally but are not transmitted; the pen-lift
// path record restores full fidelity for the authoritative mirror.
func (c *Client) PointerMove(x, y float64) {
	c.mu.Lock()
	if c.room == nil {
		c.mu.Unlock()
		return
	}
	code := c.room.Code
	stroke, ok := c.pixels.PointerMove(x, y)
	c.mu.Unlock()

	if !ok {
		return
	}
	if !c.strokeLimiter.Allow() {
		return
	}
	c.ch.Send(wire.DrawStrokeMsg(code, stroke))
}

// PointerUp commits the stroke locally, then transmits the pen-lift sentinel
// and the completed path as the durable record.
func (c *Client) PointerUp() {
	c.mu.Lock()
	if c.room == nil {
		c.mu.Unlock()
		return
	}
	code := c.room.Code
	lift, path, ok := c.pixels.PointerUp()
	c.mu.Unlock()

	if !ok {
		return
	}
	c.ch.Send(wire.DrawStrokeMsg(code, lift))
	c.ch.Send(wire.DrawUpdateMsg(code, path))
}

// Canvas exposes the pixel pipeline for rendering.
func (c *Client) Canvas() *canvas.Pipeline {
	return c.pixels
}
