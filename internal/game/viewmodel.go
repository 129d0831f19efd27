package game

import (
	"sort"
	"time"

	"github.com/drawdash/drawdash-client/internal/wire"
)

// Read-only views derived from the room mirror. Presentation renders these;
// it never touches the snapshot itself.

type ScoreRow struct {
	PlayerID     string
	Username     string
	Score        uint32
	ArtistStreak uint32
	IsHost       bool
	IsDrawer     bool
	IsSelf       bool
	Connected    bool
}

type ScoreboardView struct {
	Rows []ScoreRow
}

type RoomView struct {
	Code          string
	Phase         wire.GameState
	RoundNumber   uint32
	CycleNumber   uint32
	MaxRounds     uint32
	RoundDuration uint32
	MaxPlayers    uint8
	DrawerName    string
	HostName      string
	WordRevealed  string
	Scoreboard    ScoreboardView
}

type ChatEntry struct {
	ID          string
	Username    string
	Message     string
	Timestamp   time.Time
	WinnersOnly bool
	// Visible is false when a winners-only line reaches a player outside the
	// winners group; such lines are never rendered.
	Visible bool
}

type ResultRow struct {
	PlayerID string
	Username string
	Points   uint32
}

type ResultsView struct {
	Word            string
	RoundNumber     uint32
	ArtistScore     uint32
	ArtistStreak    uint32
	MedianGuessTime float64
	FractionGuessed float64
	// Guessers sorted by points awarded, best first.
	Guessers []ResultRow
}

// roomView degrades gracefully on dangling references: a drawer or host id
// that matches no player renders as empty rather than failing.
func roomView(room *wire.Room, selfID string) RoomView {
	view := RoomView{
		Code:          room.Code,
		Phase:         room.GameState,
		RoundNumber:   room.RoundNumber,
		CycleNumber:   room.CycleNumber,
		MaxRounds:     room.MaxRounds,
		RoundDuration: room.RoundDuration,
		MaxPlayers:    room.MaxPlayers,
		Scoreboard:    scoreboard(room, selfID),
	}
	if room.CurrentDrawer != nil {
		if p, ok := room.Players[*room.CurrentDrawer]; ok {
			view.DrawerName = p.Username
		}
	}
	if p, ok := room.Players[room.HostID]; ok {
		view.HostName = p.Username
	}
	if room.Word != nil && (room.IsWinner(selfID) || isDrawer(room, selfID)) {
		view.WordRevealed = *room.Word
	}
	return view
}

// scoreboard orders players by join time; the mapping itself has no order.
func scoreboard(room *wire.Room, selfID string) ScoreboardView {
	if room == nil {
		return ScoreboardView{}
	}
	rows := make([]ScoreRow, 0, len(room.Players))
	for _, p := range room.Players {
		rows = append(rows, ScoreRow{
			PlayerID:     p.ID,
			Username:     p.Username,
			Score:        p.Score,
			ArtistStreak: p.ArtistStreak,
			IsHost:       p.ID == room.HostID,
			IsDrawer:     room.CurrentDrawer != nil && p.ID == *room.CurrentDrawer,
			IsSelf:       p.ID == selfID,
			Connected:    p.IsConnected,
		})
	}
	joined := make(map[string]time.Time, len(room.Players))
	for _, p := range room.Players {
		joined[p.ID] = p.JoinedAt
	}
	sort.Slice(rows, func(i, j int) bool {
		ti, tj := joined[rows[i].PlayerID], joined[rows[j].PlayerID]
		if ti.Equal(tj) {
			return rows[i].Username < rows[j].Username
		}
		return ti.Before(tj)
	})
	return ScoreboardView{Rows: rows}
}

// chatEntry applies the winners-only visibility rule: those lines are shown
// only to the round's winners and the current drawer.
func chatEntry(msg wire.ChatMessage, room *wire.Room, selfID string) ChatEntry {
	entry := ChatEntry{
		ID:          msg.ID,
		Username:    msg.Username,
		Message:     msg.Message,
		Timestamp:   msg.Timestamp,
		WinnersOnly: msg.IsWinnersOnly,
		Visible:     true,
	}
	if msg.IsWinnersOnly {
		entry.Visible = room.IsWinner(selfID) || isDrawer(room, selfID)
	}
	return entry
}

func resultsView(scores wire.RoundScores, room *wire.Room) ResultsView {
	view := ResultsView{
		Word:            scores.Word,
		RoundNumber:     scores.RoundNumber,
		ArtistScore:     scores.ArtistScore,
		ArtistStreak:    scores.ArtistStreak,
		MedianGuessTime: scores.MedianGuessTime,
		FractionGuessed: scores.FractionGuessed,
	}
	for id, pts := range scores.GuesserScores {
		row := ResultRow{PlayerID: id, Points: pts}
		if room != nil {
			if p, ok := room.Players[id]; ok {
				row.Username = p.Username
			}
		}
		view.Guessers = append(view.Guessers, row)
	}
	sort.Slice(view.Guessers, func(i, j int) bool {
		if view.Guessers[i].Points == view.Guessers[j].Points {
			return view.Guessers[i].Username < view.Guessers[j].Username
		}
		return view.Guessers[i].Points > view.Guessers[j].Points
	})
	return view
}

func isDrawer(room *wire.Room, id string) bool {
	return room != nil && room.CurrentDrawer != nil && *room.CurrentDrawer == id
}
