package trivia

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/wotclan/tanktrivia/internal/catalog"
	"github.com/wotclan/tanktrivia/internal/db/repository"
)

// Handle is an opaque reference to the chat interaction that triggered a
// flow. The trivia core never inspects it; it only threads it back to the
// Messenger so replies land on the right message.
type Handle any

// SelectedAnswer marks the answer vehicle of a daily question and which ammo
// slot is the tested stat. QuestionID is the persisted row id of the answer
// candidate, referenced by answer records.
type SelectedAnswer struct {
	QuestionID uuid.UUID
	Vehicle    catalog.Vehicle
	AmmoSlot   int
}

// DailyQuestion is one of the day's question slots: a candidate pool plus the
// selected answer. Immutable after generation.
type DailyQuestion struct {
	Slot   int
	Pool   []catalog.Vehicle
	Answer *SelectedAnswer
}

// Session is one in-flight quiz attempt. In-memory only, keyed by player
// name, at most one per player.
type Session struct {
	PlayerName    string
	Player        repository.Player
	QuestionIndex int
	Handle        Handle
	StartedAt     time.Time
}

// Click is one button press during an open answer window.
type Click struct {
	TankID int
	Handle Handle
}

// PendingAnswer is the player's current choice while the window is open. A
// later click overwrites it; response time is always measured from window
// start.
type PendingAnswer struct {
	TankID       int
	ResponseTime time.Duration
	Handle       Handle
}

// AckKind tells the messaging layer how to acknowledge a click.
type AckKind int

const (
	AckRecorded AckKind = iota
	AckRevised
	AckUnchanged
)

// QuestionView carries everything the messaging layer needs to render a
// question prompt with one button per candidate.
type QuestionView struct {
	Slot     int
	Prompt   string
	ImageURL string
	Pool     []catalog.Vehicle
	Duration time.Duration
}

// ResultView carries the outcome of a scored session for rendering.
type ResultView struct {
	PlayerName   string
	Correct      bool
	Answered     bool
	AnswerName   string
	AmmoSlot     int
	Elo          int
	Streak       int
	ResponseTime time.Duration
}

// Messenger is the abstract interaction layer. SendQuestion delivers the
// prompt and returns the stream of click events for its buttons, bounded by
// the answer window; the returned stop func releases the stream.
type Messenger interface {
	SendQuestion(ctx context.Context, handle Handle, view QuestionView) (<-chan Click, func(), error)
	ClickAck(ctx context.Context, click Click, ack AckKind)
	SendResult(ctx context.Context, handle Handle, view ResultView) error
	Notify(ctx context.Context, handle Handle, text string)
}

// Store interfaces kept narrow so tests can stub them without a database.

type vehicleStore interface {
	Count(ctx context.Context) (int, error)
	Page(ctx context.Context, offset, limit int) ([]catalog.Vehicle, error)
	ByIDs(ctx context.Context, ids []int) ([]catalog.Vehicle, error)
}

type questionStore interface {
	ListForDate(ctx context.Context, date time.Time) ([]repository.QuestionRow, error)
	InsertSlot(ctx context.Context, candidates []repository.QuestionRow) error
	DeleteSlot(ctx context.Context, date time.Time, slot int) error
}

type playerStore interface {
	GetOrCreate(ctx context.Context, name string) (repository.Player, error)
}

type answerStore interface {
	Insert(ctx context.Context, rec repository.AnswerRecord) error
	Latest(ctx context.Context, playerID uuid.UUID) (*repository.AnswerRecord, error)
	CountQuestionsForDate(ctx context.Context, playerID uuid.UUID, date time.Time) (int, error)
	LatestPerPlayer(ctx context.Context) ([]repository.PlayerAnswer, error)
}

type streakStore interface {
	Get(ctx context.Context, playerID uuid.UUID, month string) (*repository.WinStreak, error)
	Upsert(ctx context.Context, s repository.WinStreak) error
}

type featureFlags interface {
	Enabled(ctx context.Context, name string) bool
}

// DateOnly truncates a time to its calendar day in UTC.
func DateOnly(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
