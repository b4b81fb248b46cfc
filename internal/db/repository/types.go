package repository

import (
	"time"

	"github.com/google/uuid"
)

// Player is a community member known to the trivia game. Created lazily on
// first game attempt.
type Player struct {
	ID   uuid.UUID
	Name string
}

// AnswerRecord is one append-only scoring entry. QuestionID is nil for
// synthetic inactivity-decay rows. The current rating of a player is the Elo
// of their most recent record.
type AnswerRecord struct {
	ID             uuid.UUID
	PlayerID       uuid.UUID
	QuestionID     *uuid.UUID
	Date           time.Time
	Correct        bool
	ResponseTimeMs *int64
	Elo            int
	CreatedAt      time.Time
}

// WinStreak tracks consecutive correct answers per player per month.
// Invariant: Max >= Current.
type WinStreak struct {
	PlayerID uuid.UUID
	Month    string // "2006-01"
	Current  int
	Max      int
}

// QuestionRow is one persisted candidate of a daily question slot. The row
// with a non-nil AmmoSlot is the selected answer; the rest are decoys.
type QuestionRow struct {
	ID       uuid.UUID
	Date     time.Time
	Slot     int
	TankID   int
	AmmoSlot *int
}

// PlayerAnswer pairs a player with one of their answer records, used for
// scoreboard and decay scans.
type PlayerAnswer struct {
	Player Player
	Record AnswerRecord
}

// MonthKey formats a time into the win-streak month key.
func MonthKey(t time.Time) string {
	return t.Format("2006-01")
}
