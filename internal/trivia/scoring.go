package trivia

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/wotclan/tanktrivia/internal/db/repository"
)

// ScoringConfig holds the rating-update constants.
type ScoringConfig struct {
	BaseGain       float64       // correct-answer base, default 50
	BasePenalty    float64       // wrong-answer base, default 25
	RatingSlope    float64       // exponent slope, default 0.001
	SpeedBonus     float64       // fraction of the gain, default 0.25
	BonusTimeLimit time.Duration // answer-within for the speed bonus
}

// DefaultScoringConfig returns production defaults.
func DefaultScoringConfig() ScoringConfig {
	return ScoringConfig{
		BaseGain:       50,
		BasePenalty:    25,
		RatingSlope:    0.001,
		SpeedBonus:     0.25,
		BonusTimeLimit: 10 * time.Second,
	}
}

// ScoringEngine computes rating deltas and persists the outcome of a session.
type ScoringEngine struct {
	cfg     ScoringConfig
	answers answerStore
	streaks streakStore
	logger  zerolog.Logger
	now     func() time.Time
}

func NewScoringEngine(cfg ScoringConfig, answers answerStore, streaks streakStore, logger zerolog.Logger) *ScoringEngine {
	if cfg.BaseGain == 0 {
		cfg = DefaultScoringConfig()
	}
	return &ScoringEngine{
		cfg:     cfg,
		answers: answers,
		streaks: streaks,
		logger:  logger.With().Str("component", "scoring").Logger(),
		now:     time.Now,
	}
}

// GainDelta is the rating gain for a correct answer: higher-rated players
// gain less.
func (e *ScoringEngine) GainDelta(oldElo int) int {
	return int(math.Floor(e.cfg.BaseGain * math.Exp(-e.cfg.RatingSlope*float64(oldElo))))
}

// LossDelta is the (negative) rating change for a wrong or missing answer:
// higher-rated players lose more.
func (e *ScoringEngine) LossDelta(oldElo int) int {
	return -int(math.Floor(e.cfg.BasePenalty * math.Exp(e.cfg.RatingSlope*float64(oldElo))))
}

// IsCorrect reports whether the chosen vehicle answers the question: either
// it is the designated answer vehicle, or its ammo at the tested slot has the
// same type and average damage. Several pool members can share the correct
// identity.
func (e *ScoringEngine) IsCorrect(q DailyQuestion, tankID int) bool {
	if q.Answer == nil {
		return false
	}
	if tankID == q.Answer.Vehicle.ID {
		return true
	}
	want := q.Answer.Vehicle.Ammo[q.Answer.AmmoSlot]
	for _, v := range q.Pool {
		if v.ID != tankID {
			continue
		}
		got := v.Ammo[q.Answer.AmmoSlot]
		return got.Type == want.Type && got.Average() == want.Average()
	}
	return false
}

// Score finalizes a session: computes the delta, appends the answer record
// and updates the month's win streak. pending is nil when the window expired
// without a click (scored as incorrect).
func (e *ScoringEngine) Score(ctx context.Context, session *Session, q DailyQuestion, pending *PendingAnswer) (repository.AnswerRecord, error) {
	latest, err := e.answers.Latest(ctx, session.Player.ID)
	if err != nil {
		return repository.AnswerRecord{}, fmt.Errorf("load previous rating: %w", err)
	}
	oldElo := 0
	if latest != nil {
		oldElo = latest.Elo
	}

	correct := pending != nil && e.IsCorrect(q, pending.TankID)

	var delta int
	if correct {
		delta = e.GainDelta(oldElo)
		if pending.ResponseTime <= e.cfg.BonusTimeLimit {
			delta += int(math.Floor(float64(delta) * e.cfg.SpeedBonus))
		}
	} else {
		delta = e.LossDelta(oldElo)
	}

	newElo := oldElo + delta
	if newElo < 0 {
		newElo = 0
	}

	now := e.now()
	rec := repository.AnswerRecord{
		ID:        uuid.New(),
		PlayerID:  session.Player.ID,
		Date:      DateOnly(now),
		Correct:   correct,
		Elo:       newElo,
		CreatedAt: now,
	}
	if q.Answer != nil {
		qid := q.Answer.QuestionID
		rec.QuestionID = &qid
	}
	if pending != nil {
		ms := pending.ResponseTime.Milliseconds()
		rec.ResponseTimeMs = &ms
	}

	if err := e.answers.Insert(ctx, rec); err != nil {
		return repository.AnswerRecord{}, fmt.Errorf("persist answer: %w", err)
	}
	if err := e.updateStreak(ctx, session.Player.ID, rec.Date, correct); err != nil {
		return repository.AnswerRecord{}, err
	}
	return rec, nil
}

func (e *ScoringEngine) updateStreak(ctx context.Context, playerID uuid.UUID, date time.Time, correct bool) error {
	month := repository.MonthKey(date)
	streak, err := e.streaks.Get(ctx, playerID, month)
	if err != nil {
		return fmt.Errorf("load streak: %w", err)
	}
	if streak == nil {
		streak = &repository.WinStreak{PlayerID: playerID, Month: month}
	}
	if correct {
		streak.Current++
		if streak.Current > streak.Max {
			streak.Max = streak.Current
		}
	} else {
		streak.Current = 0
	}
	if err := e.streaks.Upsert(ctx, *streak); err != nil {
		return fmt.Errorf("persist streak: %w", err)
	}
	return nil
}

// CurrentStreak returns the month's streak counter for result rendering.
func (e *ScoringEngine) CurrentStreak(ctx context.Context, playerID uuid.UUID, date time.Time) int {
	streak, err := e.streaks.Get(ctx, playerID, repository.MonthKey(date))
	if err != nil || streak == nil {
		return 0
	}
	return streak.Current
}
