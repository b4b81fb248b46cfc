package report

import (
	"context"
	"io"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"

	"github.com/wotclan/tanktrivia/internal/catalog"
	"github.com/wotclan/tanktrivia/internal/db/repository"
	"github.com/wotclan/tanktrivia/internal/trivia"
)

type stubAnswerSource struct {
	latest []repository.PlayerAnswer
	month  map[uuid.UUID][]repository.AnswerRecord
	top    map[uuid.UUID][]repository.PlayerAnswer
}

func (s *stubAnswerSource) LatestPerPlayer(_ context.Context) ([]repository.PlayerAnswer, error) {
	return s.latest, nil
}

func (s *stubAnswerSource) ListForMonth(_ context.Context, playerID uuid.UUID, _ time.Time) ([]repository.AnswerRecord, error) {
	return s.month[playerID], nil
}

func (s *stubAnswerSource) TopCorrectForQuestion(_ context.Context, questionID uuid.UUID, limit int) ([]repository.PlayerAnswer, error) {
	top := s.top[questionID]
	if len(top) > limit {
		top = top[:limit]
	}
	return top, nil
}

type stubPlayerSource struct {
	players map[string]repository.Player
}

func (s *stubPlayerSource) Get(_ context.Context, name string) (*repository.Player, error) {
	if p, ok := s.players[name]; ok {
		return &p, nil
	}
	return nil, nil
}

type stubQuestionSource struct {
	rows []repository.QuestionRow
}

func (s *stubQuestionSource) ListForDate(_ context.Context, date time.Time) ([]repository.QuestionRow, error) {
	var out []repository.QuestionRow
	for _, r := range s.rows {
		if r.Date.Equal(date) {
			out = append(out, r)
		}
	}
	return out, nil
}

type stubStreakSource struct {
	streaks map[uuid.UUID]*repository.WinStreak
}

func (s *stubStreakSource) Get(_ context.Context, playerID uuid.UUID, _ string) (*repository.WinStreak, error) {
	return s.streaks[playerID], nil
}

type stubVehicleSource struct {
	vehicles map[int]catalog.Vehicle
}

func (s *stubVehicleSource) ByIDs(_ context.Context, ids []int) ([]catalog.Vehicle, error) {
	var out []catalog.Vehicle
	for _, id := range ids {
		if v, ok := s.vehicles[id]; ok {
			out = append(out, v)
		}
	}
	return out, nil
}

type stubDigestSource struct {
	entries []trivia.DecayEntry
}

func (s *stubDigestSource) LoadDigest(_ context.Context, _ time.Time) ([]trivia.DecayEntry, error) {
	return s.entries, nil
}

func latestRecord(name string, elo int, date time.Time) repository.PlayerAnswer {
	return repository.PlayerAnswer{
		Player: repository.Player{ID: uuid.New(), Name: name},
		Record: repository.AnswerRecord{ID: uuid.New(), Elo: elo, Date: date},
	}
}

func newTestBuilder(answers *stubAnswerSource, players *stubPlayerSource, questions *stubQuestionSource, streaks *stubStreakSource, vehicles *stubVehicleSource, digests *stubDigestSource) *Builder {
	if players == nil {
		players = &stubPlayerSource{}
	}
	if questions == nil {
		questions = &stubQuestionSource{}
	}
	if streaks == nil {
		streaks = &stubStreakSource{}
	}
	if vehicles == nil {
		vehicles = &stubVehicleSource{}
	}
	b := NewBuilder(answers, players, questions, streaks, vehicles, digests, nil, time.Minute, zerolog.New(io.Discard))
	b.now = func() time.Time {
		return time.Date(2026, time.August, 28, 15, 0, 0, 0, time.UTC)
	}
	return b
}

func TestScoreboardRanksByRatingWithMarkers(t *testing.T) {
	month := time.Date(2026, time.August, 1, 0, 0, 0, 0, time.UTC)
	answers := &stubAnswerSource{latest: []repository.PlayerAnswer{
		latestRecord("bronze", 900, month.AddDate(0, 0, 3)),
		latestRecord("gold", 1200, month.AddDate(0, 0, 5)),
		latestRecord("silver", 1100, month.AddDate(0, 0, 1)),
		latestRecord("fourth", 700, month.AddDate(0, 0, 9)),
		latestRecord("stale", 2000, month.AddDate(0, -2, 0)),
	}}
	b := newTestBuilder(answers, nil, nil, nil, nil, nil)

	rows, err := b.Scoreboard(context.Background(), month)

	assert.NoError(t, err)
	if assert.Len(t, rows, 4, "records outside the month are excluded") {
		assert.Equal(t, ScoreboardRow{Rank: 1, Marker: "🥇", PlayerName: "gold", Elo: 1200}, rows[0])
		assert.Equal(t, ScoreboardRow{Rank: 2, Marker: "🥈", PlayerName: "silver", Elo: 1100}, rows[1])
		assert.Equal(t, ScoreboardRow{Rank: 3, Marker: "🥉", PlayerName: "bronze", Elo: 900}, rows[2])
		assert.Equal(t, ScoreboardRow{Rank: 4, Marker: "4.", PlayerName: "fourth", Elo: 700}, rows[3])
	}
}

func TestScoreboardTiesKeepInputOrder(t *testing.T) {
	month := time.Date(2026, time.August, 1, 0, 0, 0, 0, time.UTC)
	answers := &stubAnswerSource{latest: []repository.PlayerAnswer{
		latestRecord("first-seen", 1000, month),
		latestRecord("second-seen", 1000, month),
	}}
	b := newTestBuilder(answers, nil, nil, nil, nil, nil)

	rows, err := b.Scoreboard(context.Background(), month)

	assert.NoError(t, err)
	if assert.Len(t, rows, 2) {
		assert.Equal(t, "first-seen", rows[0].PlayerName)
		assert.Equal(t, "second-seen", rows[1].PlayerName)
	}
}

func TestMonthlyStatisticsAggregation(t *testing.T) {
	playerID := uuid.New()
	month := time.Date(2026, time.August, 1, 0, 0, 0, 0, time.UTC)
	qid1, qid2, qid3 := uuid.New(), uuid.New(), uuid.New()
	fast, mid, slow := int64(4200), int64(8000), int64(21000)

	answers := &stubAnswerSource{month: map[uuid.UUID][]repository.AnswerRecord{
		playerID: {
			{QuestionID: &qid1, Correct: true, Elo: 62, ResponseTimeMs: &fast},
			{QuestionID: &qid2, Correct: false, Elo: 37, ResponseTimeMs: &slow},
			{QuestionID: &qid3, Correct: true, Elo: 99, ResponseTimeMs: &mid},
			{Correct: false, Elo: 97}, // decay row, no question
		},
	}}
	players := &stubPlayerSource{players: map[string]repository.Player{
		"sniper": {ID: playerID, Name: "sniper"},
	}}
	streaks := &stubStreakSource{streaks: map[uuid.UUID]*repository.WinStreak{
		playerID: {PlayerID: playerID, Month: "2026-08", Current: 1, Max: 4},
	}}
	b := newTestBuilder(answers, players, nil, streaks, nil, nil)

	stats, err := b.MonthlyStatistics(context.Background(), "sniper", month)

	assert.NoError(t, err)
	if assert.NotNil(t, stats) {
		assert.Equal(t, "2026-08", stats.Month)
		assert.Equal(t, 97, stats.FinalElo)
		assert.Equal(t, 2, stats.CorrectCount)
		assert.Equal(t, 3, stats.QuestionCount, "decay rows do not count as questions")
		assert.Equal(t, 4, stats.MaxStreak)
		if assert.NotNil(t, stats.Fastest) {
			assert.Equal(t, 4200*time.Millisecond, *stats.Fastest)
		}
		if assert.NotNil(t, stats.Slowest) {
			assert.Equal(t, 21*time.Second, *stats.Slowest)
		}
	}
}

func TestMonthlyStatisticsUnknownPlayer(t *testing.T) {
	b := newTestBuilder(&stubAnswerSource{}, nil, nil, nil, nil, nil)

	stats, err := b.MonthlyStatistics(context.Background(), "nobody", time.Now())

	assert.NoError(t, err)
	assert.Nil(t, stats)
}

func TestYesterdayResultsTopThreeAndDecay(t *testing.T) {
	yesterday := time.Date(2026, time.August, 27, 0, 0, 0, 0, time.UTC)
	slot0Answer, slot1Answer := uuid.New(), uuid.New()
	ammo0, ammo1 := 1, 0

	questions := &stubQuestionSource{rows: []repository.QuestionRow{
		{ID: slot1Answer, Date: yesterday, Slot: 1, TankID: 20, AmmoSlot: &ammo1},
		{ID: uuid.New(), Date: yesterday, Slot: 0, TankID: 11},
		{ID: slot0Answer, Date: yesterday, Slot: 0, TankID: 10, AmmoSlot: &ammo0},
		{ID: uuid.New(), Date: yesterday, Slot: 1, TankID: 21},
	}}
	vehicles := &stubVehicleSource{vehicles: map[int]catalog.Vehicle{
		10: {ID: 10, Name: "Maus"},
		20: {ID: 20, Name: "E 50"},
	}}

	rt1, rt2, rt3 := int64(3000), int64(5000), int64(9000)
	answers := &stubAnswerSource{top: map[uuid.UUID][]repository.PlayerAnswer{
		slot0Answer: {
			{Player: repository.Player{Name: "fastest"}, Record: repository.AnswerRecord{ResponseTimeMs: &rt1}},
			{Player: repository.Player{Name: "second"}, Record: repository.AnswerRecord{ResponseTimeMs: &rt2}},
			{Player: repository.Player{Name: "third"}, Record: repository.AnswerRecord{ResponseTimeMs: &rt3}},
			{Player: repository.Player{Name: "fourth"}, Record: repository.AnswerRecord{ResponseTimeMs: &rt3}},
		},
	}}
	digests := &stubDigestSource{entries: []trivia.DecayEntry{
		{PlayerName: "idle", OldElo: 1000, NewElo: 982},
	}}
	b := newTestBuilder(answers, nil, questions, nil, vehicles, digests)

	out, err := b.YesterdayResults(context.Background())

	assert.NoError(t, err)
	assert.True(t, out.Date.Equal(yesterday))
	if assert.Len(t, out.Questions, 2) {
		assert.Equal(t, 0, out.Questions[0].Slot)
		assert.Equal(t, "Maus", out.Questions[0].TankName)
		assert.Equal(t, 1, out.Questions[0].AmmoSlot)
		if assert.Len(t, out.Questions[0].Top, 3) {
			assert.Equal(t, "fastest", out.Questions[0].Top[0].PlayerName)
			assert.Equal(t, 3*time.Second, out.Questions[0].Top[0].ResponseTime)
		}

		assert.Equal(t, 1, out.Questions[1].Slot)
		assert.Equal(t, "E 50", out.Questions[1].TankName)
		assert.Empty(t, out.Questions[1].Top, "no correct answers yesterday")
	}
	assert.Equal(t, digests.entries, out.Decay)
}
