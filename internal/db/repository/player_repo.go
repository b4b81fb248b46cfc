package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// PlayerRepository exposes typed DB operations for players.
type PlayerRepository struct {
	db querier
}

func NewPlayerRepository(db querier) *PlayerRepository {
	return &PlayerRepository{db: db}
}

// GetOrCreate returns the player with the given name, inserting a fresh row
// on first contact.
func (r *PlayerRepository) GetOrCreate(ctx context.Context, name string) (Player, error) {
	var p Player
	err := r.db.QueryRow(ctx,
		`SELECT id, name FROM players WHERE name = $1`, name).Scan(&p.ID, &p.Name)
	if err == nil {
		return p, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return Player{}, fmt.Errorf("get player %q: %w", name, err)
	}

	p = Player{ID: uuid.New(), Name: name}
	if _, err := r.db.Exec(ctx,
		`INSERT INTO players (id, name) VALUES ($1, $2) ON CONFLICT (name) DO NOTHING`,
		p.ID, p.Name); err != nil {
		return Player{}, fmt.Errorf("create player %q: %w", name, err)
	}
	// Re-read to cover the conflict branch.
	if err := r.db.QueryRow(ctx,
		`SELECT id, name FROM players WHERE name = $1`, name).Scan(&p.ID, &p.Name); err != nil {
		return Player{}, fmt.Errorf("reload player %q: %w", name, err)
	}
	return p, nil
}

// Get returns the named player, or nil when they have never played.
func (r *PlayerRepository) Get(ctx context.Context, name string) (*Player, error) {
	var p Player
	err := r.db.QueryRow(ctx,
		`SELECT id, name FROM players WHERE name = $1`, name).Scan(&p.ID, &p.Name)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get player %q: %w", name, err)
	}
	return &p, nil
}
