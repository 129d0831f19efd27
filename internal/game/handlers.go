package game

import (
	"time"

	"github.com/drawdash/drawdash-client/internal/state"
	"github.com/drawdash/drawdash-client/internal/timer"
	"github.com/drawdash/drawdash-client/internal/wire"
)

// OnConnectivity implements conn.Handler. Reconnects re-register the player
// with the room, since the backend binds connections per socket.
func (c *Client) OnConnectivity(connected bool) {
	if connected {
		c.mu.Lock()
		inRoom := c.inRoom
		code := ""
		if c.room != nil {
			code = c.room.Code
		}
		username := c.self.Username
		c.mu.Unlock()
		if inRoom && code != "" {
			c.ch.Send(wire.JoinRoomMsg(code, username))
		}
	}
	if c.events.OnConnectivity != nil {
		c.events.OnConnectivity(connected)
	}
}

// OnMessage implements conn.Handler: one inbound frame, handled to
// completion before the next.
func (c *Client) OnMessage(msg wire.Msg) {
	// Live strokes bypass the reducer and feed the pixel pipeline directly.
	if s, ok := msg.(wire.DrawStrokeInMsg); ok {
		c.handleRemoteStroke(s)
		return
	}

	// The game-over transition drops the mirror; hold the last snapshot so
	// final scores can still be rendered.
	c.mu.Lock()
	prev := c.room
	c.mu.Unlock()

	next, effect := c.apply(msg)

	switch m := msg.(type) {
	case wire.ChatMessageMsg:
		c.handleChat(m.Message)
	case wire.ErrorMsg:
		if c.events.OnServerError != nil {
			c.events.OnServerError(m.Message)
		}
	case wire.CorrectGuessMsg:
		if c.events.OnCorrectGuess != nil {
			c.events.OnCorrectGuess(m.Player, m.Word)
		}
	case wire.RoundStartMsg:
		c.handleRoundStart(m.Drawer)
	case wire.GameStartedMsg:
		c.handleRoundStart(m.Drawer)
	case wire.WordSelectedInMsg:
		c.handleWordSelected(m.Word)
	case wire.RoundScoresMsg:
		c.handleRoundScores(m.Scores)
	case wire.RoundEndMsg:
		// Legacy shape: end the turn without the detailed overlay.
		c.turns.RoundEnded()
		c.pixels.Reset()
	case wire.GameStateUpdateMsg:
		c.handleSnapshot(next)
	}

	switch effect {
	case state.EffectLeaveRoom:
		c.teardown("removed from room")
		return
	case state.EffectGameOver:
		final, _ := msg.(wire.GameEndedMsg)
		c.handleGameOver(prev, final.FinalScores)
		return
	}

	c.notifyRoom(next)
}

// apply runs the reducer against the latest mirror under the lock, so a
// partial update can never merge into a stale copy of the room.
func (c *Client) apply(msg wire.Msg) (*wire.Room, state.Effect) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.reducer == nil {
		return nil, state.EffectNone
	}
	next, effect := c.reducer.Apply(c.room, msg)
	c.room = next
	return next, effect
}

func (c *Client) handleRemoteStroke(m wire.DrawStrokeInMsg) {
	c.mu.Lock()
	// The drawer already painted these points locally; replaying the echo
	// would double-apply translucent segments.
	if c.isDrawerLocked() {
		c.mu.Unlock()
		return
	}
	c.pixels.ApplyRemote(m.Stroke)
	c.mu.Unlock()
}

func (c *Client) handleChat(msg wire.ChatMessage) {
	c.mu.Lock()
	entry := chatEntry(msg, c.room, c.self.ID)
	c.mu.Unlock()
	if entry.Visible && c.events.OnChat != nil {
		c.events.OnChat(entry)
	}
}

// handleRoundStart resets turn-local state: blank canvas, timers idle, and
// the drawer enters word selection.
func (c *Client) handleRoundStart(drawer wire.Player) {
	c.turns.RoundEnded()
	c.clearResults()

	c.mu.Lock()
	c.pixels.Reset()
	isSelf := drawer.ID == c.self.ID
	c.mu.Unlock()

	if c.events.OnRoundStart != nil {
		c.events.OnRoundStart(drawer, isSelf)
	}
	if isSelf {
		c.beginSelection()
	}
}

// handleSnapshot reacts to state only a full snapshot can reveal: a
// mid-round join replays accumulated paths, and a snapshot that names the
// local player as drawer with no word chosen starts word selection.
func (c *Client) handleSnapshot(room *wire.Room) {
	if room == nil {
		return
	}

	c.mu.Lock()
	needsReplay := !c.replayed && room.GameState == wire.GamePlaying && len(room.DrawingPaths) > 0 && !c.isDrawerLocked()
	if needsReplay {
		for _, p := range room.DrawingPaths {
			c.pixels.ReplayPath(p)
		}
	}
	c.replayed = true
	shouldSelect := room.GameState == wire.GamePlaying &&
		room.Word == nil &&
		c.isDrawerLocked() &&
		c.turns.Phase() == timer.PhaseIdle
	c.mu.Unlock()

	if shouldSelect {
		c.beginSelection()
	}
}

func (c *Client) beginSelection() {
	options := c.turns.BeginSelection()
	if len(options) > 0 && c.events.OnWordOffer != nil {
		c.events.OnWordOffer(options, timer.WordSelectTicks)
	}
}

// handleWordSelected is the server's round-live signal. For observers it
// starts the visual countdown with the word masked unless revealed; for the
// drawer it confirms the local transition.
func (c *Client) handleWordSelected(word string) {
	c.mu.Lock()
	duration := uint32(0)
	if c.room != nil {
		duration = c.room.RoundDuration
	}
	c.mu.Unlock()

	c.turns.EnterDrawing(word, duration)
	if c.events.OnWordSelected != nil {
		c.events.OnWordSelected(word, word == "")
	}
}

// handleRoundScores ends the turn: timers cancelled, canvas cleared, and the
// results overlay shown for a fixed duration before being discarded.
func (c *Client) handleRoundScores(scores wire.RoundScores) {
	c.turns.RoundEnded()

	c.mu.Lock()
	c.pixels.Reset()
	sc := scores
	c.results = &sc
	if c.resultsTimer != nil {
		c.resultsTimer.Stop()
	}
	c.resultsTimer = time.AfterFunc(resultsDisplay, c.clearResults)
	room := c.room
	c.mu.Unlock()

	if c.events.OnRoundResults != nil {
		c.events.OnRoundResults(resultsView(scores, room))
	}
}

func (c *Client) clearResults() {
	c.mu.Lock()
	had := c.results != nil
	c.results = nil
	if c.resultsTimer != nil {
		c.resultsTimer.Stop()
		c.resultsTimer = nil
	}
	c.mu.Unlock()
	if had && c.events.OnResultsClear != nil {
		c.events.OnResultsClear()
	}
}

func (c *Client) handleGameOver(room *wire.Room, finalScores map[string]uint32) {
	c.mu.Lock()
	self := c.self.ID
	c.mu.Unlock()

	// The broadcast's score map is authoritative for the final board. Patch a
	// copy; snapshots handed out earlier stay immutable.
	if room != nil && len(finalScores) > 0 {
		patched := *room
		patched.Players = make(map[string]wire.Player, len(room.Players))
		for id, p := range room.Players {
			if score, ok := finalScores[id]; ok {
				p.Score = score
			}
			patched.Players[id] = p
		}
		room = &patched
	}

	if c.events.OnGameEnded != nil {
		c.events.OnGameEnded(scoreboard(room, self))
	}
	c.teardown("game ended")
}

// teardown is the fault boundary back to the lobby: session cleared, channel
// closed, mirror discarded, timers cancelled.
func (c *Client) teardown(reason string) {
	c.turns.Reset()
	c.clearResults()

	c.mu.Lock()
	c.pixels.Reset()
	c.room = nil
	c.inRoom = false
	c.replayed = false
	c.reducer = nil
	c.mu.Unlock()

	c.store.Clear()
	c.ch.Disconnect(reason)

	if c.events.OnLeftRoom != nil {
		c.events.OnLeftRoom(reason)
	}
}

// wordChosen is the turn controller's output: the picked (or force-picked)
// word goes to the backend once, then the visual round countdown starts.
func (c *Client) wordChosen(word string) {
	c.mu.Lock()
	code := ""
	duration := uint32(0)
	if c.room != nil {
		code = c.room.Code
		duration = c.room.RoundDuration
	}
	c.mu.Unlock()

	if code == "" {
		c.log.Warn().Msg("word chosen with no room, dropping")
		return
	}
	c.ch.Send(wire.WordSelectedMsg(code, word))
	c.turns.StartRoundCountdown(duration)
}

func (c *Client) turnTick(phase timer.Phase, remaining int) {
	if c.events.OnTurnTick != nil {
		c.events.OnTurnTick(phase, remaining)
	}
}

func (c *Client) notifyRoom(room *wire.Room) {
	if room == nil || c.events.OnRoomUpdate == nil {
		return
	}
	c.mu.Lock()
	self := c.self.ID
	c.mu.Unlock()
	c.events.OnRoomUpdate(roomView(room, self))
}
