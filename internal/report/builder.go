package report

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/wotclan/tanktrivia/internal/catalog"
	"github.com/wotclan/tanktrivia/internal/db/repository"
	"github.com/wotclan/tanktrivia/internal/trivia"
)

// Rank markers for the top three scoreboard places.
var rankMarkers = []string{"🥇", "🥈", "🥉"}

// ScoreboardRow is one rendered scoreboard line.
type ScoreboardRow struct {
	Rank       int    `json:"rank"`
	Marker     string `json:"marker"`
	PlayerName string `json:"player_name"`
	Elo        int    `json:"elo"`
}

// MonthlyStats aggregates one player's records for a month.
type MonthlyStats struct {
	PlayerName    string         `json:"player_name"`
	Month         string         `json:"month"`
	FinalElo      int            `json:"final_elo"`
	CorrectCount  int            `json:"correct_count"`
	MaxStreak     int            `json:"max_streak"`
	QuestionCount int            `json:"question_count"`
	Fastest       *time.Duration `json:"fastest,omitempty"`
	Slowest       *time.Duration `json:"slowest,omitempty"`
}

// TopAnswer is one entry of a per-question leaderboard.
type TopAnswer struct {
	PlayerName   string        `json:"player_name"`
	ResponseTime time.Duration `json:"response_time"`
}

// QuestionResult is yesterday's outcome for one question slot.
type QuestionResult struct {
	Slot     int         `json:"slot"`
	TankName string      `json:"tank_name"`
	AmmoSlot int         `json:"ammo_slot"`
	Top      []TopAnswer `json:"top"`
}

// YesterdayReport bundles per-question leaderboards with the decay digest of
// the same day.
type YesterdayReport struct {
	Date      time.Time           `json:"date"`
	Questions []QuestionResult    `json:"questions"`
	Decay     []trivia.DecayEntry `json:"decay"`
}

type answerSource interface {
	LatestPerPlayer(ctx context.Context) ([]repository.PlayerAnswer, error)
	ListForMonth(ctx context.Context, playerID uuid.UUID, monthStart time.Time) ([]repository.AnswerRecord, error)
	TopCorrectForQuestion(ctx context.Context, questionID uuid.UUID, limit int) ([]repository.PlayerAnswer, error)
}

type playerSource interface {
	Get(ctx context.Context, name string) (*repository.Player, error)
}

type questionSource interface {
	ListForDate(ctx context.Context, date time.Time) ([]repository.QuestionRow, error)
}

type streakSource interface {
	Get(ctx context.Context, playerID uuid.UUID, month string) (*repository.WinStreak, error)
}

type vehicleSource interface {
	ByIDs(ctx context.Context, ids []int) ([]catalog.Vehicle, error)
}

type digestSource interface {
	LoadDigest(ctx context.Context, coveredDate time.Time) ([]trivia.DecayEntry, error)
}

// Builder assembles the statistical reports from persisted answers.
type Builder struct {
	answers   answerSource
	players   playerSource
	questions questionSource
	streaks   streakSource
	vehicles  vehicleSource
	digests   digestSource
	cache     *redis.Client
	cacheTTL  time.Duration
	logger    zerolog.Logger
	now       func() time.Time
}

func NewBuilder(
	answers answerSource,
	players playerSource,
	questions questionSource,
	streaks streakSource,
	vehicles vehicleSource,
	digests digestSource,
	cache *redis.Client,
	cacheTTL time.Duration,
	logger zerolog.Logger,
) *Builder {
	if cacheTTL <= 0 {
		cacheTTL = time.Minute
	}
	return &Builder{
		answers:   answers,
		players:   players,
		questions: questions,
		streaks:   streaks,
		vehicles:  vehicles,
		digests:   digests,
		cache:     cache,
		cacheTTL:  cacheTTL,
		logger:    logger.With().Str("component", "report").Logger(),
		now:       time.Now,
	}
}

// Scoreboard ranks players by their latest rating within the given month.
// Ties keep input order; there is deliberately no secondary sort key.
func (b *Builder) Scoreboard(ctx context.Context, month time.Time) ([]ScoreboardRow, error) {
	monthStart := time.Date(month.Year(), month.Month(), 1, 0, 0, 0, 0, time.UTC)
	cacheKey := fmt.Sprintf("report:scoreboard:%s", monthStart.Format("2006-01"))

	if b.cache != nil {
		if data, err := b.cache.Get(ctx, cacheKey).Bytes(); err == nil {
			var rows []ScoreboardRow
			if json.Unmarshal(data, &rows) == nil {
				return rows, nil
			}
		}
	}

	latest, err := b.answers.LatestPerPlayer(ctx)
	if err != nil {
		return nil, fmt.Errorf("load latest records: %w", err)
	}

	nextMonth := monthStart.AddDate(0, 1, 0)
	inMonth := latest[:0:0]
	for _, pa := range latest {
		d := pa.Record.Date
		if !d.Before(monthStart) && d.Before(nextMonth) {
			inMonth = append(inMonth, pa)
		}
	}
	sort.SliceStable(inMonth, func(i, j int) bool {
		return inMonth[i].Record.Elo > inMonth[j].Record.Elo
	})

	rows := make([]ScoreboardRow, 0, len(inMonth))
	for i, pa := range inMonth {
		row := ScoreboardRow{
			Rank:       i + 1,
			Marker:     fmt.Sprintf("%d.", i+1),
			PlayerName: pa.Player.Name,
			Elo:        pa.Record.Elo,
		}
		if i < len(rankMarkers) {
			row.Marker = rankMarkers[i]
		}
		rows = append(rows, row)
	}

	if b.cache != nil {
		if data, err := json.Marshal(rows); err == nil {
			if err := b.cache.Set(ctx, cacheKey, data, b.cacheTTL).Err(); err != nil {
				b.logger.Warn().Err(err).Msg("scoreboard cache write failed")
			}
		}
	}
	return rows, nil
}

// MonthlyStatistics aggregates a player's month. Returns nil when the player
// is unknown.
func (b *Builder) MonthlyStatistics(ctx context.Context, playerName string, month time.Time) (*MonthlyStats, error) {
	player, err := b.players.Get(ctx, playerName)
	if err != nil {
		return nil, fmt.Errorf("resolve player: %w", err)
	}
	if player == nil {
		return nil, nil
	}

	monthStart := time.Date(month.Year(), month.Month(), 1, 0, 0, 0, 0, time.UTC)
	records, err := b.answers.ListForMonth(ctx, player.ID, monthStart)
	if err != nil {
		return nil, fmt.Errorf("load month records: %w", err)
	}

	stats := &MonthlyStats{
		PlayerName: player.Name,
		Month:      repository.MonthKey(monthStart),
	}
	for _, rec := range records {
		stats.FinalElo = rec.Elo
		if rec.Correct {
			stats.CorrectCount++
		}
		if rec.QuestionID != nil {
			stats.QuestionCount++
		}
		if rec.ResponseTimeMs != nil {
			rt := time.Duration(*rec.ResponseTimeMs) * time.Millisecond
			if stats.Fastest == nil || rt < *stats.Fastest {
				d := rt
				stats.Fastest = &d
			}
			if stats.Slowest == nil || rt > *stats.Slowest {
				d := rt
				stats.Slowest = &d
			}
		}
	}

	streak, err := b.streaks.Get(ctx, player.ID, repository.MonthKey(monthStart))
	if err != nil {
		return nil, fmt.Errorf("load streak: %w", err)
	}
	if streak != nil {
		stats.MaxStreak = streak.Max
	}
	return stats, nil
}

// YesterdayResults builds per-question top-3 leaderboards for yesterday's
// questions, skipping slots whose generation never set a selected answer,
// plus the decay digest covering the same day.
func (b *Builder) YesterdayResults(ctx context.Context) (*YesterdayReport, error) {
	yesterday := trivia.DateOnly(b.now()).AddDate(0, 0, -1)

	rows, err := b.questions.ListForDate(ctx, yesterday)
	if err != nil {
		return nil, fmt.Errorf("load yesterday's questions: %w", err)
	}

	// Only the selected-answer rows carry an ammo slot; slots without one
	// never had a question and are skipped.
	var selected []repository.QuestionRow
	for _, row := range rows {
		if row.AmmoSlot != nil {
			selected = append(selected, row)
		}
	}
	sort.Slice(selected, func(i, j int) bool { return selected[i].Slot < selected[j].Slot })

	tankNames := make(map[int]string)
	if len(selected) > 0 {
		ids := make([]int, 0, len(selected))
		for _, row := range selected {
			ids = append(ids, row.TankID)
		}
		vehicles, err := b.vehicles.ByIDs(ctx, ids)
		if err != nil {
			return nil, fmt.Errorf("load answer vehicles: %w", err)
		}
		for _, v := range vehicles {
			tankNames[v.ID] = v.Name
		}
	}

	reportOut := &YesterdayReport{Date: yesterday}
	for _, sel := range selected {
		top, err := b.answers.TopCorrectForQuestion(ctx, sel.ID, 3)
		if err != nil {
			return nil, fmt.Errorf("top answers for slot %d: %w", sel.Slot, err)
		}
		result := QuestionResult{Slot: sel.Slot, TankName: tankNames[sel.TankID], AmmoSlot: *sel.AmmoSlot}
		for _, pa := range top {
			if pa.Record.ResponseTimeMs == nil {
				continue
			}
			result.Top = append(result.Top, TopAnswer{
				PlayerName:   pa.Player.Name,
				ResponseTime: time.Duration(*pa.Record.ResponseTimeMs) * time.Millisecond,
			})
		}
		reportOut.Questions = append(reportOut.Questions, result)
	}

	if b.digests != nil {
		digest, err := b.digests.LoadDigest(ctx, yesterday)
		if err != nil {
			b.logger.Warn().Err(err).Msg("decay digest load failed")
		} else {
			reportOut.Decay = digest
		}
	}
	return reportOut, nil
}
