package wire

import "time"

// GameState mirrors the backend's room phase enum. The values are the
// literal variant names the server serializes.
type GameState string

const (
	GameWaiting  GameState = "Waiting"
	GamePlaying  GameState = "Playing"
	GameFinished GameState = "Finished"
)

type PlayerState string

const (
	PlayerSpectator    PlayerState = "Spectator"
	PlayerDrawing      PlayerState = "Drawing"
	PlayerGuessing     PlayerState = "Guessing"
	PlayerDisconnected PlayerState = "Disconnected"
)

type BrushSize string

const (
	BrushSmall  BrushSize = "Small"
	BrushMedium BrushSize = "Medium"
	BrushLarge  BrushSize = "Large"
)

type Player struct {
	ID           string      `json:"id"`
	Username     string      `json:"username"`
	Score        uint32      `json:"score"`
	State        PlayerState `json:"state"`
	IsConnected  bool        `json:"is_connected"`
	IsDrawing    bool        `json:"is_drawing"`
	JoinedAt     time.Time   `json:"joined_at"`
	ArtistStreak uint32      `json:"artist_streak"`
}

// Pen-lift sentinel: a stroke at this reserved off-canvas coordinate marks
// the end of a physical stroke and is never drawn.
const (
	PenLiftX = -1
	PenLiftY = -1
)

// DrawStroke is one point sample as the server broadcasts it.
type DrawStroke struct {
	X         float64   `json:"x"`
	Y         float64   `json:"y"`
	Timestamp uint64    `json:"timestamp"`
	ColorHex  string    `json:"color"`
	Alpha     float64   `json:"alpha"`
	IsEraser  bool      `json:"is_eraser"`
	BrushPx   uint32    `json:"brushPx"`
	BrushSize BrushSize `json:"brushSize"`
}

func (s DrawStroke) IsPenLift() bool {
	return s.X == PenLiftX && s.Y == PenLiftY
}

type DrawPath struct {
	ID        string       `json:"id"`
	PlayerID  string       `json:"playerId"`
	Color     string       `json:"color"`
	ColorHex  string       `json:"colorHex"`
	BrushSize BrushSize    `json:"brushSize"`
	Strokes   []DrawStroke `json:"strokes"`
	CreatedAt time.Time    `json:"createdAt"`
}

type ChatMessage struct {
	ID            string    `json:"id"`
	PlayerID      string    `json:"player_id"`
	Username      string    `json:"username"`
	Message       string    `json:"message"`
	Timestamp     time.Time `json:"timestamp"`
	IsWinnersOnly bool      `json:"is_winners_only"`
}

type Guess struct {
	PlayerID       string    `json:"player_id"`
	Username       string    `json:"username"`
	Word           string    `json:"word"`
	Timestamp      time.Time `json:"timestamp"`
	TimeRemaining  uint32    `json:"time_remaining"`
	NormalizedTime float64   `json:"normalized_time"`
}

// RoundScores is the transient end-of-round result payload. It is rendered
// once and never merged into the room snapshot.
type RoundScores struct {
	RoundNumber     uint32            `json:"round_number"`
	Word            string            `json:"word"`
	GuesserScores   map[string]uint32 `json:"guesser_scores"`
	ArtistScore     uint32            `json:"artist_score"`
	ArtistStreak    uint32            `json:"artist_streak"`
	RoundDuration   uint32            `json:"round_duration"`
	CorrectGuesses  []Guess           `json:"correct_guesses"`
	MedianGuessTime float64           `json:"median_guess_time"`
	FractionGuessed float64           `json:"fraction_guessed"`
}

// Room is the authoritative snapshot the server owns. The client holds a
// local mirror of it behind the reducer and never mutates it elsewhere.
type Room struct {
	ID                  string             `json:"id"`
	Code                string             `json:"code"`
	HostID              string             `json:"host_id"`
	Players             map[string]Player  `json:"players"`
	CurrentDrawer       *string            `json:"current_drawer"`
	Word                *string            `json:"word"`
	RoundNumber         uint32             `json:"round_number"`
	MaxRounds           uint32             `json:"max_rounds"`
	CycleNumber         uint32             `json:"cycle_number"`
	RoundDuration       uint32             `json:"round_duration"`
	GameState           GameState          `json:"game_state"`
	RoundStartTime      *time.Time         `json:"round_start_time"`
	RoundEndTime        *time.Time         `json:"round_end_time"`
	DrawingPaths        []DrawPath         `json:"drawing_paths"`
	ChatMessages        []ChatMessage      `json:"chat_messages"`
	CurrentRoundGuesses []Guess            `json:"current_round_guesses"`
	Winners             []string           `json:"winners"`
	MaxPlayers          uint8              `json:"max_players"`
	CreatedAt           time.Time          `json:"created_at"`
	UpdatedAt           time.Time          `json:"updated_at"`
}

// HasPlayer reports whether id is a key in the player mapping. Used to
// degrade gracefully when host or drawer references would dangle.
func (r *Room) HasPlayer(id string) bool {
	if r == nil {
		return false
	}
	_, ok := r.Players[id]
	return ok
}

func (r *Room) IsWinner(id string) bool {
	if r == nil {
		return false
	}
	for _, w := range r.Winners {
		if w == id {
			return true
		}
	}
	return false
}
