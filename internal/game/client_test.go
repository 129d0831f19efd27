package game

import (
	"context"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/drawdash/drawdash-client/internal/state"
	"github.com/drawdash/drawdash-client/internal/timer"
	"github.com/drawdash/drawdash-client/internal/wire"
)

// eventRecorder captures the client's event callbacks for assertions. The
// tests below drive OnMessage directly, so callbacks fire synchronously; the
// mutex covers timer goroutines.
type eventRecorder struct {
	mu           sync.Mutex
	chat         []ChatEntry
	serverErrors []string
	roundStarts  []bool // isSelf per round start
	wordOffers   [][]string
	wordsPicked  []string
	masked       []bool
	results      []ResultsView
	left         []string
	ended        []ScoreboardView
	roomUpdates  int
}

func (r *eventRecorder) events() Events {
	return Events{
		OnRoomUpdate: func(RoomView) {
			r.mu.Lock()
			r.roomUpdates++
			r.mu.Unlock()
		},
		OnChat: func(e ChatEntry) {
			r.mu.Lock()
			r.chat = append(r.chat, e)
			r.mu.Unlock()
		},
		OnServerError: func(msg string) {
			r.mu.Lock()
			r.serverErrors = append(r.serverErrors, msg)
			r.mu.Unlock()
		},
		OnRoundStart: func(_ wire.Player, isSelf bool) {
			r.mu.Lock()
			r.roundStarts = append(r.roundStarts, isSelf)
			r.mu.Unlock()
		},
		OnWordOffer: func(options []string, _ int) {
			r.mu.Lock()
			r.wordOffers = append(r.wordOffers, options)
			r.mu.Unlock()
		},
		OnWordSelected: func(word string, masked bool) {
			r.mu.Lock()
			r.wordsPicked = append(r.wordsPicked, word)
			r.masked = append(r.masked, masked)
			r.mu.Unlock()
		},
		OnRoundResults: func(v ResultsView) {
			r.mu.Lock()
			r.results = append(r.results, v)
			r.mu.Unlock()
		},
		OnLeftRoom: func(reason string) {
			r.mu.Lock()
			r.left = append(r.left, reason)
			r.mu.Unlock()
		},
		OnGameEnded: func(final ScoreboardView) {
			r.mu.Lock()
			r.ended = append(r.ended, final)
			r.mu.Unlock()
		},
	}
}

func (r *eventRecorder) locked(fn func()) {
	r.mu.Lock()
	defer r.mu.Unlock()
	fn()
}

// newTestClient builds a client with no live backend and seeds it as player
// "me" inside a room, the way enterRoom would after a join.
func newTestClient(t *testing.T) (*Client, *eventRecorder) {
	t.Helper()
	rec := &eventRecorder{}
	c, err := NewClient(Config{
		APIBase:     "http://127.0.0.1:1",
		WSURL:       "ws://127.0.0.1:1/ws",
		SessionPath: filepath.Join(t.TempDir(), "session.yaml"),
	}, rec.events(), zerolog.Nop())
	require.NoError(t, err)
	t.Cleanup(c.Close)

	c.mu.Lock()
	c.self = wire.Player{ID: "me", Username: "ada"}
	c.reducer = state.NewReducer("me", zerolog.Nop())
	c.inRoom = true
	c.mu.Unlock()
	return c, rec
}

func testRoomSnapshot(drawerID string, ids ...string) wire.Room {
	room := wire.Room{
		ID:            "room-1",
		Code:          "ABC123",
		Players:       map[string]wire.Player{},
		GameState:     wire.GameWaiting,
		RoundDuration: 60,
		MaxRounds:     3,
	}
	for i, id := range ids {
		room.Players[id] = wire.Player{
			ID: id, Username: "u-" + id, IsConnected: true,
			JoinedAt: time.Unix(int64(1700000000+i), 0),
		}
	}
	if len(ids) > 0 {
		room.HostID = ids[0]
	}
	if drawerID != "" {
		room.GameState = wire.GamePlaying
		room.CurrentDrawer = &drawerID
	}
	return room
}

func (c *Client) seed(t *testing.T, room wire.Room) {
	t.Helper()
	c.OnMessage(wire.GameStateUpdateMsg{Room: room})
	require.NotNil(t, c.Room(), "seed snapshot did not take")
}

func TestClient_SnapshotBuildsView(t *testing.T) {
	c, rec := newTestClient(t)
	c.seed(t, testRoomSnapshot("", "me", "p2"))

	view := c.View()
	assert.Equal(t, "ABC123", view.Code)
	assert.Equal(t, wire.GameWaiting, view.Phase)
	assert.Equal(t, "u-me", view.HostName)
	require.Len(t, view.Scoreboard.Rows, 2)
	// Ordered by join time, host joined first.
	assert.Equal(t, "me", view.Scoreboard.Rows[0].PlayerID)
	assert.True(t, view.Scoreboard.Rows[0].IsHost)
	assert.True(t, view.Scoreboard.Rows[0].IsSelf)

	rec.locked(func() { assert.Equal(t, 1, rec.roomUpdates) })
}

func TestClient_WinnersChatVisibility(t *testing.T) {
	c, rec := newTestClient(t)
	room := testRoomSnapshot("p2", "me", "p2", "p3")
	room.Winners = []string{"p2", "p3"}
	c.seed(t, room)

	public := wire.ChatMessage{ID: "m1", PlayerID: "p3", Username: "u-p3", Message: "hello"}
	hidden := wire.ChatMessage{ID: "m2", PlayerID: "p3", Username: "u-p3", Message: "the word is cat", IsWinnersOnly: true}
	c.OnMessage(wire.ChatMessageMsg{Message: public})
	c.OnMessage(wire.ChatMessageMsg{Message: hidden})

	rec.locked(func() {
		require.Len(t, rec.chat, 1, "winners-only line must not reach a non-winner")
		assert.Equal(t, "hello", rec.chat[0].Message)
	})

	// Once we are a winner, the filtered channel opens up.
	self := wire.Player{ID: "me", Username: "ada", Score: 150}
	c.OnMessage(wire.CorrectGuessMsg{Player: self, Word: "cat"})
	c.OnMessage(wire.ChatMessageMsg{Message: hidden})

	rec.locked(func() {
		require.Len(t, rec.chat, 2)
		assert.True(t, rec.chat[1].WinnersOnly)
	})
}

func TestClient_DrawerTurnFlow(t *testing.T) {
	c, rec := newTestClient(t)
	c.seed(t, testRoomSnapshot("", "me", "p2"))

	c.OnMessage(wire.RoundStartMsg{RoomCode: "ABC123", Drawer: wire.Player{ID: "me", Username: "ada"}})

	var offer []string
	rec.locked(func() {
		require.Equal(t, []bool{true}, rec.roundStarts)
		require.Len(t, rec.wordOffers, 1)
		offer = rec.wordOffers[0]
	})
	require.Len(t, offer, timer.WordOfferSize)
	assert.Equal(t, timer.PhaseWordSelecting, c.TurnPhase())
	assert.Equal(t, offer, c.WordOptions())

	assert.False(t, c.SelectWord("not-an-option"))
	require.True(t, c.SelectWord(offer[0]))
	assert.Equal(t, timer.PhaseDrawing, c.TurnPhase())
	assert.True(t, c.IsDrawer())

	// The server confirms; the drawer already transitioned.
	c.OnMessage(wire.WordSelectedInMsg{Word: offer[0]})
	rec.locked(func() {
		require.NotEmpty(t, rec.wordsPicked)
		assert.Equal(t, offer[0], rec.wordsPicked[0])
		assert.False(t, rec.masked[0])
	})

	// The revealed word shows up in the drawer's view.
	assert.Equal(t, offer[0], c.View().WordRevealed)
}

func TestClient_ObserverRoundIsMasked(t *testing.T) {
	c, rec := newTestClient(t)
	c.seed(t, testRoomSnapshot("", "me", "p2"))

	c.OnMessage(wire.RoundStartMsg{RoomCode: "ABC123", Drawer: wire.Player{ID: "p2", Username: "u-p2"}})
	rec.locked(func() {
		require.Equal(t, []bool{false}, rec.roundStarts)
		assert.Empty(t, rec.wordOffers, "observers get no word offer")
	})
	assert.Equal(t, timer.PhaseIdle, c.TurnPhase())

	c.OnMessage(wire.WordSelectedInMsg{Word: ""})
	assert.Equal(t, timer.PhaseDrawing, c.TurnPhase())
	rec.locked(func() {
		require.Equal(t, []bool{true}, rec.masked)
	})
	assert.Empty(t, c.View().WordRevealed, "masked word must stay hidden from guessers")
}

func TestClient_RoundScoresShowResultsAndGoIdle(t *testing.T) {
	c, rec := newTestClient(t)
	c.seed(t, testRoomSnapshot("p2", "me", "p2"))
	c.OnMessage(wire.WordSelectedInMsg{Word: ""})
	require.Equal(t, timer.PhaseDrawing, c.TurnPhase())

	scores := wire.RoundScores{
		RoundNumber:   1,
		Word:          "cat",
		GuesserScores: map[string]uint32{"me": 180, "p2": 0},
		ArtistScore:   120,
		ArtistStreak:  2,
	}
	c.OnMessage(wire.RoundScoresMsg{Scores: scores})

	assert.Equal(t, timer.PhaseIdle, c.TurnPhase())
	require.NotNil(t, c.Results())
	assert.Equal(t, "cat", c.Results().Word)

	rec.locked(func() {
		require.Len(t, rec.results, 1)
		v := rec.results[0]
		assert.Equal(t, "cat", v.Word)
		require.Len(t, v.Guessers, 2)
		// Sorted by points, best first, names resolved from the mirror.
		assert.Equal(t, "u-me", v.Guessers[0].Username)
		assert.Equal(t, uint32(180), v.Guessers[0].Points)
	})
}

func TestClient_RemovalIsTerminal(t *testing.T) {
	c, rec := newTestClient(t)
	c.seed(t, testRoomSnapshot("", "me", "p2"))

	c.OnMessage(wire.PlayerKickedMsg{RoomCode: "ABC123", Player: wire.Player{ID: "me"}})

	assert.Nil(t, c.Room())
	rec.locked(func() {
		require.Len(t, rec.left, 1)
	})
	// A second leave has nothing to do.
	assert.ErrorIs(t, c.Leave(context.Background()), ErrNotInRoom)
}

func TestClient_OtherPlayerLeavingIsNotTerminal(t *testing.T) {
	c, rec := newTestClient(t)
	c.seed(t, testRoomSnapshot("", "me", "p2"))

	c.OnMessage(wire.PlayerLeftMsg{RoomCode: "ABC123", Player: wire.Player{ID: "p2"}})

	room := c.Room()
	require.NotNil(t, room)
	assert.False(t, room.HasPlayer("p2"))
	rec.locked(func() { assert.Empty(t, rec.left) })
}

func TestClient_GameEndedDeliversFinalScores(t *testing.T) {
	c, rec := newTestClient(t)
	room := testRoomSnapshot("", "me", "p2")
	p := room.Players["p2"]
	p.Score = 500
	room.Players["p2"] = p
	c.seed(t, room)

	c.OnMessage(wire.GameEndedMsg{FinalScores: map[string]uint32{"me": 300, "p2": 500}})

	rec.locked(func() {
		require.Len(t, rec.ended, 1)
		require.Len(t, rec.ended[0].Rows, 2)
		byID := map[string]uint32{}
		for _, row := range rec.ended[0].Rows {
			byID[row.PlayerID] = row.Score
		}
		assert.Equal(t, uint32(300), byID["me"], "final broadcast scores win")
		assert.Equal(t, uint32(500), byID["p2"])
		require.Len(t, rec.left, 1)
	})
	assert.Nil(t, c.Room())
	assert.Equal(t, timer.PhaseIdle, c.TurnPhase())
}

func TestClient_SelfStrokeEchoIsSuppressed(t *testing.T) {
	c, _ := newTestClient(t)
	c.seed(t, testRoomSnapshot("me", "me", "p2"))

	echo := wire.DrawStroke{X: 100, Y: 100, ColorHex: "#ff0000", Alpha: 1, BrushPx: 4}
	c.OnMessage(wire.DrawStrokeInMsg{RoomCode: "ABC123", Stroke: echo})

	ov := c.Canvas().Overlay().RGBAAt(100, 100)
	assert.Zero(t, ov.A, "the drawer's own echo must not paint")
}

func TestClient_ObserverStrokePaints(t *testing.T) {
	c, _ := newTestClient(t)
	c.seed(t, testRoomSnapshot("p2", "me", "p2"))

	s := wire.DrawStroke{X: 100, Y: 100, ColorHex: "#ff0000", Alpha: 1, BrushPx: 4}
	c.OnMessage(wire.DrawStrokeInMsg{RoomCode: "ABC123", Stroke: s})

	ov := c.Canvas().Overlay().RGBAAt(100, 100)
	assert.NotZero(t, ov.A, "a remote stroke must paint the overlay")
}

func TestClient_MidRoundJoinReplaysPaths(t *testing.T) {
	c, _ := newTestClient(t)

	room := testRoomSnapshot("p2", "me", "p2")
	room.DrawingPaths = []wire.DrawPath{{
		ID:       "path-1",
		PlayerID: "p2",
		Strokes: []wire.DrawStroke{
			{X: 300, Y: 300, ColorHex: "#0000ff", Alpha: 1, BrushPx: 4},
			{X: wire.PenLiftX, Y: wire.PenLiftY},
		},
	}}
	c.seed(t, room)

	got := c.Canvas().Committed().RGBAAt(300, 300)
	assert.NotZero(t, got.A, "accumulated paths must replay on join")

	// A later snapshot must not replay the same history again.
	c.Canvas().Reset()
	c.OnMessage(wire.GameStateUpdateMsg{Room: room})
	got = c.Canvas().Committed().RGBAAt(300, 300)
	assert.Zero(t, got.A, "replay happens once per room entry")
}

func TestClient_SnapshotPromptsDrawerSelection(t *testing.T) {
	c, rec := newTestClient(t)

	// Snapshot says: round live, we hold the brush, no word chosen yet.
	c.seed(t, testRoomSnapshot("me", "me", "p2"))

	assert.Equal(t, timer.PhaseWordSelecting, c.TurnPhase())
	rec.locked(func() { require.Len(t, rec.wordOffers, 1) })
}

func TestClient_ServerErrorSurfaces(t *testing.T) {
	c, rec := newTestClient(t)
	c.seed(t, testRoomSnapshot("", "me"))

	c.OnMessage(wire.ErrorMsg{Message: "Only the host can start the game"})
	rec.locked(func() {
		require.Equal(t, []string{"Only the host can start the game"}, rec.serverErrors)
	})
}
