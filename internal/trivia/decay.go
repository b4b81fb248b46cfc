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

// DecayConfig tunes the inactivity rating decay.
type DecayConfig struct {
	Rate  float64       // fraction removed per covered day, default 0.018
	Grace time.Duration // how long a player may idle before decaying
}

// DecayEntry is one line of the decay digest reported after a run.
type DecayEntry struct {
	PlayerName string `json:"player_name"`
	OldElo     int    `json:"old_elo"`
	NewElo     int    `json:"new_elo"`
}

// decayState guards decay runs per day and stores the run's digest for the
// "yesterday's results" report.
type decayState interface {
	AcquireRun(ctx context.Context, runDate time.Time) (bool, error)
	SaveDigest(ctx context.Context, coveredDate time.Time, entries []DecayEntry) error
}

// DecayRunner applies the scheduled inactivity decay.
type DecayRunner struct {
	cfg     DecayConfig
	answers answerStore
	state   decayState
	logger  zerolog.Logger
	now     func() time.Time
}

func NewDecayRunner(cfg DecayConfig, answers answerStore, state decayState, logger zerolog.Logger) *DecayRunner {
	if cfg.Rate <= 0 {
		cfg.Rate = 0.018
	}
	if cfg.Grace <= 0 {
		cfg.Grace = 24 * time.Hour
	}
	return &DecayRunner{
		cfg:     cfg,
		answers: answers,
		state:   state,
		logger:  logger.With().Str("component", "decay").Logger(),
		now:     time.Now,
	}
}

// Run decays every inactive player once and returns the digest. A second
// invocation on the same day is a no-op (nil digest).
func (d *DecayRunner) Run(ctx context.Context) ([]DecayEntry, error) {
	today := DateOnly(d.now())

	// Load before claiming the run marker: a failed load must not consume
	// the day, or decay silently skips until tomorrow.
	latest, err := d.answers.LatestPerPlayer(ctx)
	if err != nil {
		return nil, fmt.Errorf("load latest records: %w", err)
	}

	acquired, err := d.state.AcquireRun(ctx, today)
	if err != nil {
		return nil, fmt.Errorf("acquire decay run: %w", err)
	}
	if !acquired {
		return nil, nil
	}

	covered := today.AddDate(0, 0, -1)
	var digest []DecayEntry
	for _, pa := range latest {
		if !d.inactive(pa.Record, today) {
			continue
		}

		delta := int(math.Round(float64(pa.Record.Elo) * d.cfg.Rate))
		newElo := pa.Record.Elo - delta
		if newElo < 0 {
			newElo = 0
		}

		rec := repository.AnswerRecord{
			ID:        uuid.New(),
			PlayerID:  pa.Player.ID,
			Date:      covered,
			Correct:   false,
			Elo:       newElo,
			CreatedAt: d.now(),
		}
		if err := d.answers.Insert(ctx, rec); err != nil {
			d.logger.Warn().Err(err).Str("player", pa.Player.Name).Msg("decay record insert failed")
			continue
		}
		digest = append(digest, DecayEntry{PlayerName: pa.Player.Name, OldElo: pa.Record.Elo, NewElo: newElo})
	}

	if err := d.state.SaveDigest(ctx, covered, digest); err != nil {
		d.logger.Warn().Err(err).Msg("decay digest save failed")
	}

	d.logger.Info().Int("players", len(digest)).Str("covered", covered.Format("2006-01-02")).Msg("decay applied")
	return digest, nil
}

// inactive: the last record is a decay row with rating still above zero, or
// the last activity is past the grace period. Zero-rated players are left
// alone.
func (d *DecayRunner) inactive(rec repository.AnswerRecord, today time.Time) bool {
	if rec.Elo <= 0 {
		return false
	}
	if rec.QuestionID == nil {
		return true
	}
	return today.Sub(DateOnly(rec.Date)) > d.cfg.Grace
}
