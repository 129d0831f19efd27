package wire

import (
	"encoding/json"
	"errors"
	"fmt"
)

// The channel carries inline-tagged JSON frames: {"type": "...", ...fields}.

type ClientKind string

const (
	CKindJoinRoom       ClientKind = "JoinRoom"
	CKindLeaveRoom      ClientKind = "LeaveRoom"
	CKindDrawUpdate     ClientKind = "DrawUpdate"
	CKindDrawStroke     ClientKind = "DrawStroke"
	CKindChat           ClientKind = "Chat"
	CKindWinnersChat    ClientKind = "WinnersChat"
	CKindGuess          ClientKind = "Guess"
	CKindStartGame      ClientKind = "StartGame"
	CKindEndRound       ClientKind = "EndRound"
	CKindWordSelected   ClientKind = "WordSelected"
	CKindUpdateSettings ClientKind = "UpdateSettings"
)

// ClientStroke is the simplified stroke shape the backend accepts from
// clients; the server re-stamps it with timestamps and enum brush sizes.
type ClientStroke struct {
	X         float64 `json:"x"`
	Y         float64 `json:"y"`
	Color     string  `json:"color"`
	BrushSize uint32  `json:"brush_size"`
	Alpha     float64 `json:"alpha"`
	IsEraser  bool    `json:"is_eraser"`
	BrushPx   uint32  `json:"brush_px"`
}

func (s ClientStroke) IsPenLift() bool {
	return s.X == PenLiftX && s.Y == PenLiftY
}

// PenLift returns the end-of-stroke sentinel with the given paint attributes
// so observers can attribute the commit to the right path.
func PenLift(color string, brushSize uint32, alpha float64) ClientStroke {
	return ClientStroke{X: PenLiftX, Y: PenLiftY, Color: color, BrushSize: brushSize, Alpha: alpha}
}

type ClientPath struct {
	ID      string         `json:"id"`
	Strokes []ClientStroke `json:"strokes"`
}

// ClientMsg is the flat outbound envelope. Exactly the fields the selected
// kind needs are populated; the rest stay omitted on the wire.
type ClientMsg struct {
	Type      ClientKind    `json:"type"`
	RoomCode  string        `json:"room_code"`
	Username  string        `json:"username,omitempty"`
	PlayerID  string        `json:"player_id,omitempty"`
	Path      *ClientPath   `json:"path,omitempty"`
	Stroke    *ClientStroke `json:"stroke,omitempty"`
	Message   string        `json:"message,omitempty"`
	Guess     string        `json:"guess,omitempty"`
	Word      string        `json:"word,omitempty"`
	MaxRounds uint32        `json:"max_rounds,omitempty"`
}

func JoinRoomMsg(roomCode, username string) ClientMsg {
	return ClientMsg{Type: CKindJoinRoom, RoomCode: roomCode, Username: username}
}

func LeaveRoomMsg(roomCode, playerID string) ClientMsg {
	return ClientMsg{Type: CKindLeaveRoom, RoomCode: roomCode, PlayerID: playerID}
}

func DrawStrokeMsg(roomCode string, stroke ClientStroke) ClientMsg {
	return ClientMsg{Type: CKindDrawStroke, RoomCode: roomCode, Stroke: &stroke}
}

func DrawUpdateMsg(roomCode string, path ClientPath) ClientMsg {
	return ClientMsg{Type: CKindDrawUpdate, RoomCode: roomCode, Path: &path}
}

func ChatMsg(roomCode, message string) ClientMsg {
	return ClientMsg{Type: CKindChat, RoomCode: roomCode, Message: message}
}

func WinnersChatMsg(roomCode, message string) ClientMsg {
	return ClientMsg{Type: CKindWinnersChat, RoomCode: roomCode, Message: message}
}

func GuessMsg(roomCode, guess string) ClientMsg {
	return ClientMsg{Type: CKindGuess, RoomCode: roomCode, Guess: guess}
}

func StartGameMsg(roomCode string) ClientMsg {
	return ClientMsg{Type: CKindStartGame, RoomCode: roomCode}
}

func EndRoundMsg(roomCode string) ClientMsg {
	return ClientMsg{Type: CKindEndRound, RoomCode: roomCode}
}

func WordSelectedMsg(roomCode, word string) ClientMsg {
	return ClientMsg{Type: CKindWordSelected, RoomCode: roomCode, Word: word}
}

func UpdateSettingsMsg(roomCode string, maxRounds uint32) ClientMsg {
	return ClientMsg{Type: CKindUpdateSettings, RoomCode: roomCode, MaxRounds: maxRounds}
}

type ServerKind string

const (
	SKindPlayerJoined    ServerKind = "PlayerJoined"
	SKindPlayerLeft      ServerKind = "PlayerLeft"
	SKindDrawUpdate      ServerKind = "DrawUpdate"
	SKindDrawStroke      ServerKind = "DrawStroke"
	SKindChatMessage     ServerKind = "ChatMessage"
	SKindCorrectGuess    ServerKind = "CorrectGuess"
	SKindRoundScores     ServerKind = "RoundScores"
	SKindGameStarted     ServerKind = "GameStarted"
	SKindPlayerKicked    ServerKind = "PlayerKicked"
	SKindRoundEnd        ServerKind = "RoundEnd"
	SKindGameEnded       ServerKind = "GameEnded"
	SKindRoundStart      ServerKind = "RoundStart"
	SKindGameStateUpdate ServerKind = "GameStateUpdate"
	SKindHostChanged     ServerKind = "HostChanged"
	SKindError           ServerKind = "Error"
	SKindWordSelected    ServerKind = "WordSelected"
)

var ErrUnknownKind = errors.New("wire: unknown message kind")

// Msg is one decoded inbound frame.
type Msg interface {
	MsgKind() ServerKind
}

type PlayerJoinedMsg struct {
	RoomCode string `json:"room_code"`
	Player   Player `json:"player"`
}

func (PlayerJoinedMsg) MsgKind() ServerKind { return SKindPlayerJoined }

type PlayerLeftMsg struct {
	RoomCode string `json:"room_code"`
	Player   Player `json:"player"`
}

func (PlayerLeftMsg) MsgKind() ServerKind { return SKindPlayerLeft }

type DrawUpdateInMsg struct {
	RoomCode string   `json:"room_code"`
	Path     DrawPath `json:"path"`
}

func (DrawUpdateInMsg) MsgKind() ServerKind { return SKindDrawUpdate }

type DrawStrokeInMsg struct {
	RoomCode string     `json:"room_code"`
	Stroke   DrawStroke `json:"stroke"`
}

func (DrawStrokeInMsg) MsgKind() ServerKind { return SKindDrawStroke }

type ChatMessageMsg struct {
	Message ChatMessage `json:"message"`
}

func (ChatMessageMsg) MsgKind() ServerKind { return SKindChatMessage }

type CorrectGuessMsg struct {
	Player Player `json:"player"`
	Word   string `json:"word"`
}

func (CorrectGuessMsg) MsgKind() ServerKind { return SKindCorrectGuess }

type RoundScoresMsg struct {
	Scores RoundScores `json:"scores"`
}

func (RoundScoresMsg) MsgKind() ServerKind { return SKindRoundScores }

type GameStartedMsg struct {
	RoomCode string `json:"room_code"`
	Drawer   Player `json:"drawer"`
}

func (GameStartedMsg) MsgKind() ServerKind { return SKindGameStarted }

type PlayerKickedMsg struct {
	RoomCode string `json:"room_code"`
	Player   Player `json:"player"`
}

func (PlayerKickedMsg) MsgKind() ServerKind { return SKindPlayerKicked }

type RoundEndMsg struct {
	Word   string            `json:"word"`
	Scores map[string]uint32 `json:"scores"`
}

func (RoundEndMsg) MsgKind() ServerKind { return SKindRoundEnd }

type GameEndedMsg struct {
	FinalScores map[string]uint32 `json:"final_scores"`
}

func (GameEndedMsg) MsgKind() ServerKind { return SKindGameEnded }

type RoundStartMsg struct {
	RoomCode string `json:"room_code"`
	Drawer   Player `json:"drawer"`
}

func (RoundStartMsg) MsgKind() ServerKind { return SKindRoundStart }

type GameStateUpdateMsg struct {
	Room Room `json:"room"`
}

func (GameStateUpdateMsg) MsgKind() ServerKind { return SKindGameStateUpdate }

type HostChangedMsg struct {
	NewHost Player `json:"new_host"`
}

func (HostChangedMsg) MsgKind() ServerKind { return SKindHostChanged }

type ErrorMsg struct {
	Message string `json:"message"`
}

func (ErrorMsg) MsgKind() ServerKind { return SKindError }

type WordSelectedInMsg struct {
	// Empty for non-winners: the round timer still starts, the word stays masked.
	Word string `json:"word"`
}

func (WordSelectedInMsg) MsgKind() ServerKind { return SKindWordSelected }

// Decode peeks the type tag, then unmarshals the full frame into the
// matching payload struct.
func Decode(data []byte) (Msg, error) {
	var header struct {
		Type ServerKind `json:"type"`
	}
	if err := json.Unmarshal(data, &header); err != nil {
		return nil, fmt.Errorf("wire: bad frame: %w", err)
	}

	var (
		msg Msg
		err error
	)
	switch header.Type {
	case SKindPlayerJoined:
		msg, err = decodeInto[PlayerJoinedMsg](data)
	case SKindPlayerLeft:
		msg, err = decodeInto[PlayerLeftMsg](data)
	case SKindDrawUpdate:
		msg, err = decodeInto[DrawUpdateInMsg](data)
	case SKindDrawStroke:
		msg, err = decodeInto[DrawStrokeInMsg](data)
	case SKindChatMessage:
		msg, err = decodeInto[ChatMessageMsg](data)
	case SKindCorrectGuess:
		msg, err = decodeInto[CorrectGuessMsg](data)
	case SKindRoundScores:
		msg, err = decodeInto[RoundScoresMsg](data)
	case SKindGameStarted:
		msg, err = decodeInto[GameStartedMsg](data)
	case SKindPlayerKicked:
		msg, err = decodeInto[PlayerKickedMsg](data)
	case SKindRoundEnd:
		msg, err = decodeInto[RoundEndMsg](data)
	case SKindGameEnded:
		msg, err = decodeInto[GameEndedMsg](data)
	case SKindRoundStart:
		msg, err = decodeInto[RoundStartMsg](data)
	case SKindGameStateUpdate:
		msg, err = decodeInto[GameStateUpdateMsg](data)
	case SKindHostChanged:
		msg, err = decodeInto[HostChangedMsg](data)
	case SKindError:
		msg, err = decodeInto[ErrorMsg](data)
	case SKindWordSelected:
		msg, err = decodeInto[WordSelectedInMsg](data)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownKind, string(header.Type))
	}
	return msg, err
}

func decodeInto[T Msg](data []byte) (Msg, error) {
	var m T
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("wire: bad %s frame: %w", m.MsgKind(), err)
	}
	return m, nil
}
