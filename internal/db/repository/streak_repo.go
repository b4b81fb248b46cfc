package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// StreakRepository persists per-player per-month win streaks.
type StreakRepository struct {
	db querier
}

func NewStreakRepository(db querier) *StreakRepository {
	return &StreakRepository{db: db}
}

// Get returns the streak row for a player and month, or nil when the player
// has not been scored that month yet.
func (r *StreakRepository) Get(ctx context.Context, playerID uuid.UUID, month string) (*WinStreak, error) {
	var s WinStreak
	err := r.db.QueryRow(ctx,
		`SELECT player_id, month, current, max FROM win_streaks
		 WHERE player_id = $1 AND month = $2`,
		playerID, month).Scan(&s.PlayerID, &s.Month, &s.Current, &s.Max)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get streak for player %s month %s: %w", playerID, month, err)
	}
	return &s, nil
}

// Upsert writes the streak row, creating it lazily on the first scored answer
// of the month.
func (r *StreakRepository) Upsert(ctx context.Context, s WinStreak) error {
	if _, err := r.db.Exec(ctx,
		`INSERT INTO win_streaks (player_id, month, current, max)
		 VALUES ($1, $2, $3, $4)
		 ON CONFLICT (player_id, month) DO UPDATE SET current = $3, max = $4`,
		s.PlayerID, s.Month, s.Current, s.Max); err != nil {
		return fmt.Errorf("upsert streak for player %s month %s: %w", s.PlayerID, s.Month, err)
	}
	return nil
}
