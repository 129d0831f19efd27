// Package state maintains the local mirror of the authoritative room.
package state

import (
	"github.com/rs/zerolog"

	"github.com/drawdash/drawdash-client/internal/wire"
)

// The backend trims chat history between rounds; the mirror stays bounded
// too so a long session cannot grow without limit.
const maxChatHistory = 200

// Effect is a side effect the snapshot transition demands from the owner.
// The reducer itself never touches the session, the channel, or the canvas.
type Effect int

const (
	EffectNone Effect = iota
	// EffectLeaveRoom: the local player was removed (left or kicked).
	// Clear session, disconnect, return to the lobby.
	EffectLeaveRoom
	// EffectGameOver: game-ended broadcast. Same teardown as leaving, after
	// final scores are shown.
	EffectGameOver
)

// Reducer applies one inbound frame to the current snapshot and returns the
// next one. It is the only component that produces room snapshots; callers
// treat the result as immutable.
type Reducer struct {
	selfID string
	log    zerolog.Logger
}

func NewReducer(selfID string, log zerolog.Logger) *Reducer {
	return &Reducer{selfID: selfID, log: log}
}

// Apply never mutates cur: partial updates operate on a copy, so stale
// references held by views cannot observe half-applied state. Events that
// arrive with insufficient context degrade to a no-op.
func (r *Reducer) Apply(cur *wire.Room, msg wire.Msg) (*wire.Room, Effect) {
	switch m := msg.(type) {
	case wire.GameStateUpdateMsg:
		// The full snapshot is authoritative truth; it replaces everything,
		// including any partial mutations applied since the last one.
		room := cloneRoom(&m.Room)
		trimChat(room)
		return room, EffectNone

	case wire.PlayerJoinedMsg:
		if cur == nil {
			r.drop(msg, "no room snapshot yet")
			return nil, EffectNone
		}
		next := cloneRoom(cur)
		next.Players[m.Player.ID] = m.Player
		return next, EffectNone

	case wire.PlayerLeftMsg:
		return r.applyRemoval(cur, m.Player)

	case wire.PlayerKickedMsg:
		return r.applyRemoval(cur, m.Player)

	case wire.HostChangedMsg:
		// A host change is durable: it must survive later partial updates,
		// and it applies even before the first full snapshot arrives.
		next := cloneRoom(cur)
		if next == nil {
			next = &wire.Room{Players: map[string]wire.Player{}}
		}
		next.HostID = m.NewHost.ID
		if m.NewHost.ID != "" {
			next.Players[m.NewHost.ID] = m.NewHost
		}
		return next, EffectNone

	case wire.DrawUpdateInMsg:
		if cur == nil {
			r.drop(msg, "no room snapshot yet")
			return nil, EffectNone
		}
		// The local drawer renders its own strokes optimistically; applying
		// the echo would double-paint them.
		if m.Path.PlayerID == r.selfID {
			return cur, EffectNone
		}
		if !cur.HasPlayer(m.Path.PlayerID) {
			r.drop(msg, "path from unknown player")
			return cur, EffectNone
		}
		for _, p := range cur.DrawingPaths {
			if p.ID == m.Path.ID {
				return cur, EffectNone
			}
		}
		next := cloneRoom(cur)
		next.DrawingPaths = append(next.DrawingPaths, m.Path)
		return next, EffectNone

	case wire.ChatMessageMsg:
		if cur == nil {
			r.drop(msg, "no room snapshot yet")
			return nil, EffectNone
		}
		next := cloneRoom(cur)
		next.ChatMessages = append(next.ChatMessages, m.Message)
		trimChat(next)
		return next, EffectNone

	case wire.CorrectGuessMsg:
		if cur == nil {
			r.drop(msg, "no room snapshot yet")
			return nil, EffectNone
		}
		if !cur.HasPlayer(m.Player.ID) {
			r.drop(msg, "guess from unknown player")
			return cur, EffectNone
		}
		if cur.IsWinner(m.Player.ID) {
			return cur, EffectNone
		}
		next := cloneRoom(cur)
		next.Winners = append(next.Winners, m.Player.ID)
		next.Players[m.Player.ID] = m.Player
		return next, EffectNone

	case wire.RoundStartMsg:
		return r.applyRoundStart(cur, m.Drawer), EffectNone

	case wire.GameStartedMsg:
		// Legacy kind; same transition as RoundStart.
		return r.applyRoundStart(cur, m.Drawer), EffectNone

	case wire.WordSelectedInMsg:
		if cur == nil {
			r.drop(msg, "no room snapshot yet")
			return nil, EffectNone
		}
		if m.Word == "" {
			// Masked notification: the round is live but the word stays hidden.
			return cur, EffectNone
		}
		next := cloneRoom(cur)
		w := m.Word
		next.Word = &w
		return next, EffectNone

	case wire.RoundScoresMsg, wire.RoundEndMsg:
		// Transient results payload; rendered once by the owner, never merged.
		return cur, EffectNone

	case wire.GameEndedMsg:
		return nil, EffectGameOver

	case wire.DrawStrokeInMsg:
		// Live strokes feed the canvas pipeline, not the snapshot.
		return cur, EffectNone

	case wire.ErrorMsg:
		return cur, EffectNone

	default:
		r.drop(msg, "unhandled kind")
		return cur, EffectNone
	}
}

func (r *Reducer) applyRemoval(cur *wire.Room, p wire.Player) (*wire.Room, Effect) {
	if p.ID == r.selfID {
		// Terminal: we are no longer part of the room.
		return nil, EffectLeaveRoom
	}
	if cur == nil {
		r.drop(wire.PlayerLeftMsg{Player: p}, "no room snapshot yet")
		return nil, EffectNone
	}
	if !cur.HasPlayer(p.ID) {
		return cur, EffectNone
	}
	next := cloneRoom(cur)
	delete(next.Players, p.ID)
	return next, EffectNone
}

func (r *Reducer) applyRoundStart(cur *wire.Room, drawer wire.Player) *wire.Room {
	if cur == nil {
		r.drop(wire.RoundStartMsg{Drawer: drawer}, "no room snapshot yet")
		return nil
	}
	next := cloneRoom(cur)
	next.GameState = wire.GamePlaying
	id := drawer.ID
	next.CurrentDrawer = &id
	next.Players[drawer.ID] = drawer
	next.Word = nil
	// New turn: the canvas starts blank and only the artist counts as a
	// winner. Chat and scores carry over.
	next.DrawingPaths = nil
	next.Winners = []string{drawer.ID}
	return next
}

func (r *Reducer) drop(msg wire.Msg, reason string) {
	r.log.Debug().Str("kind", string(msg.MsgKind())).Str("reason", reason).Msg("event ignored")
}

func trimChat(room *wire.Room) {
	if n := len(room.ChatMessages); n > maxChatHistory {
		room.ChatMessages = append([]wire.ChatMessage(nil), room.ChatMessages[n-maxChatHistory:]...)
	}
}

// cloneRoom copies the snapshot deeply enough that mutating the copy can
// never alias the original's maps or slices.
func cloneRoom(room *wire.Room) *wire.Room {
	if room == nil {
		return nil
	}
	next := *room
	next.Players = make(map[string]wire.Player, len(room.Players))
	for id, p := range room.Players {
		next.Players[id] = p
	}
	next.DrawingPaths = append([]wire.DrawPath(nil), room.DrawingPaths...)
	next.ChatMessages = append([]wire.ChatMessage(nil), room.ChatMessages...)
	next.CurrentRoundGuesses = append([]wire.Guess(nil), room.CurrentRoundGuesses...)
	next.Winners = append([]string(nil), room.Winners...)
	if room.CurrentDrawer != nil {
		d := *room.CurrentDrawer
		next.CurrentDrawer = &d
	}
	if room.Word != nil {
		w := *room.Word
		next.Word = &w
	}
	if room.RoundStartTime != nil {
		t := *room.RoundStartTime
		next.RoundStartTime = &t
	}
	if room.RoundEndTime != nil {
		t := *room.RoundEndTime
		next.RoundEndTime = &t
	}
	return &next
}
