package wire

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"
)

func TestDecode_GameStateUpdate(t *testing.T) {
	frame := `{
		"type": "GameStateUpdate",
		"room": {
			"id": "5e0cf2a1-0000-0000-0000-000000000001",
			"code": "ABC123",
			"host_id": "p1",
			"players": {
				"p1": {"id": "p1", "username": "ada", "score": 40, "state": "Guessing", "is_connected": true, "is_drawing": false, "joined_at": "2025-01-01T10:00:00Z", "artist_streak": 1}
			},
			"current_drawer": "p1",
			"word": null,
			"round_number": 2,
			"max_rounds": 3,
			"cycle_number": 1,
			"round_duration": 60,
			"game_state": "Playing",
			"round_start_time": null,
			"round_end_time": null,
			"drawing_paths": [],
			"chat_messages": [],
			"current_round_guesses": [],
			"winners": ["p1"],
			"max_players": 8,
			"created_at": "2025-01-01T10:00:00Z",
			"updated_at": "2025-01-01T10:05:00Z"
		}
	}`

	msg, err := Decode([]byte(frame))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	upd, ok := msg.(GameStateUpdateMsg)
	if !ok {
		t.Fatalf("kind=%T want=GameStateUpdateMsg", msg)
	}
	room := upd.Room
	if room.Code != "ABC123" {
		t.Fatalf("code=%q want=ABC123", room.Code)
	}
	if room.GameState != GamePlaying {
		t.Fatalf("state=%q want=Playing", room.GameState)
	}
	if room.CurrentDrawer == nil || *room.CurrentDrawer != "p1" {
		t.Fatalf("drawer=%v want=p1", room.CurrentDrawer)
	}
	if room.Word != nil {
		t.Fatalf("word=%v want=nil", room.Word)
	}
	p, ok := room.Players["p1"]
	if !ok || p.Username != "ada" || p.Score != 40 {
		t.Fatalf("player=%+v", p)
	}
	if !room.HasPlayer("p1") || room.HasPlayer("p9") {
		t.Fatalf("HasPlayer mismatch")
	}
	if !room.IsWinner("p1") || room.IsWinner("p2") {
		t.Fatalf("IsWinner mismatch")
	}
}

func TestDecode_DrawStrokeAndSentinel(t *testing.T) {
	frame := `{"type":"DrawStroke","room_code":"ABC123","stroke":{"x":-1,"y":-1,"timestamp":1,"color":"#ff0000","alpha":0.5,"is_eraser":false,"brushPx":4,"brushSize":"Small"}}`
	msg, err := Decode([]byte(frame))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	sm, ok := msg.(DrawStrokeInMsg)
	if !ok {
		t.Fatalf("kind=%T want=DrawStrokeInMsg", msg)
	}
	if !sm.Stroke.IsPenLift() {
		t.Fatalf("(-1,-1) should be the pen-lift sentinel")
	}
	if sm.Stroke.ColorHex != "#ff0000" || sm.Stroke.Alpha != 0.5 {
		t.Fatalf("stroke=%+v", sm.Stroke)
	}
}

func TestDecode_ErrorAndChatShareFieldName(t *testing.T) {
	// Error carries a string "message"; ChatMessage carries an object under
	// the same key. Both must decode through the same dispatcher.
	errFrame := `{"type":"Error","message":"Room is full"}`
	msg, err := Decode([]byte(errFrame))
	if err != nil {
		t.Fatalf("decode error frame: %v", err)
	}
	if em, ok := msg.(ErrorMsg); !ok || em.Message != "Room is full" {
		t.Fatalf("got %T %+v", msg, msg)
	}

	chatFrame := `{"type":"ChatMessage","message":{"id":"m1","player_id":"p1","username":"ada","message":"hi","timestamp":"2025-01-01T10:00:00Z","is_winners_only":true}}`
	msg, err = Decode([]byte(chatFrame))
	if err != nil {
		t.Fatalf("decode chat frame: %v", err)
	}
	cm, ok := msg.(ChatMessageMsg)
	if !ok {
		t.Fatalf("kind=%T want=ChatMessageMsg", msg)
	}
	if cm.Message.Message != "hi" || !cm.Message.IsWinnersOnly {
		t.Fatalf("chat=%+v", cm.Message)
	}
}

func TestDecode_RejectsMalformedAndUnknown(t *testing.T) {
	if _, err := Decode([]byte(`{not json`)); err == nil {
		t.Fatalf("malformed frame should error")
	}
	_, err := Decode([]byte(`{"type":"Telemetry"}`))
	if err == nil {
		t.Fatalf("unknown kind should error")
	}
	if !errors.Is(err, ErrUnknownKind) {
		t.Fatalf("err=%v want ErrUnknownKind", err)
	}
}

func TestClientMsg_WireShape(t *testing.T) {
	b, err := json.Marshal(ChatMsg("ABC123", "hello"))
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	s := string(b)
	for _, want := range []string{`"type":"Chat"`, `"room_code":"ABC123"`, `"message":"hello"`} {
		if !strings.Contains(s, want) {
			t.Fatalf("frame %s missing %s", s, want)
		}
	}
	for _, reject := range []string{"word", "stroke", "path", "max_rounds"} {
		if strings.Contains(s, reject) {
			t.Fatalf("frame %s should omit %s", s, reject)
		}
	}

	b, err = json.Marshal(UpdateSettingsMsg("ABC123", 5))
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if !strings.Contains(string(b), `"max_rounds":5`) {
		t.Fatalf("settings frame=%s", b)
	}
}

func TestPenLift_RoundTrip(t *testing.T) {
	lift := PenLift("#000000", 4, 1)
	if !lift.IsPenLift() {
		t.Fatalf("sentinel lost")
	}
	b, err := json.Marshal(DrawStrokeMsg("R", lift))
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var decoded struct {
		Stroke ClientStroke `json:"stroke"`
	}
	if err := json.Unmarshal(b, &decoded); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if !decoded.Stroke.IsPenLift() {
		t.Fatalf("sentinel lost over the wire: %+v", decoded.Stroke)
	}
}
