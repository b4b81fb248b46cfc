package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/wotclan/tanktrivia/internal/catalog"
)

// VehicleRepository exposes typed access to the tanks table.
type VehicleRepository struct {
	db querier
}

func NewVehicleRepository(db querier) *VehicleRepository {
	return &VehicleRepository{db: db}
}

// Count returns how many vehicles the catalog currently holds.
func (r *VehicleRepository) Count(ctx context.Context) (int, error) {
	var count int
	if err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM tanks`).Scan(&count); err != nil {
		return 0, fmt.Errorf("count tanks: %w", err)
	}
	return count, nil
}

// Page returns a deterministic slice of the catalog ordered by tank id.
func (r *VehicleRepository) Page(ctx context.Context, offset, limit int) ([]catalog.Vehicle, error) {
	rows, err := r.db.Query(ctx,
		`SELECT id, name, image_url, ammo FROM tanks ORDER BY id LIMIT $1 OFFSET $2`,
		limit, offset)
	if err != nil {
		return nil, fmt.Errorf("page tanks: %w", err)
	}
	defer rows.Close()
	return scanVehicles(rows)
}

// ByIDs fetches specific vehicles, preserving no particular order.
func (r *VehicleRepository) ByIDs(ctx context.Context, ids []int) ([]catalog.Vehicle, error) {
	rows, err := r.db.Query(ctx,
		`SELECT id, name, image_url, ammo FROM tanks WHERE id = ANY($1)`, ids)
	if err != nil {
		return nil, fmt.Errorf("tanks by ids: %w", err)
	}
	defer rows.Close()
	return scanVehicles(rows)
}

// Upsert writes a refreshed batch of vehicles from the encyclopedia API.
func (r *VehicleRepository) Upsert(ctx context.Context, vehicles []catalog.Vehicle) error {
	for _, v := range vehicles {
		ammo, err := json.Marshal(v.Ammo)
		if err != nil {
			return fmt.Errorf("marshal ammo for tank %d: %w", v.ID, err)
		}
		if _, err := r.db.Exec(ctx,
			`INSERT INTO tanks (id, name, image_url, ammo)
			 VALUES ($1, $2, $3, $4)
			 ON CONFLICT (id) DO UPDATE SET name = $2, image_url = $3, ammo = $4`,
			v.ID, v.Name, v.ImageURL, ammo); err != nil {
			return fmt.Errorf("upsert tank %d: %w", v.ID, err)
		}
	}
	return nil
}

func scanVehicles(rows pgx.Rows) ([]catalog.Vehicle, error) {
	var vehicles []catalog.Vehicle
	for rows.Next() {
		var (
			v       catalog.Vehicle
			rawAmmo []byte
		)
		if err := rows.Scan(&v.ID, &v.Name, &v.ImageURL, &rawAmmo); err != nil {
			return nil, fmt.Errorf("scan tank: %w", err)
		}
		if err := json.Unmarshal(rawAmmo, &v.Ammo); err != nil {
			return nil, fmt.Errorf("decode ammo for tank %d: %w", v.ID, err)
		}
		vehicles = append(vehicles, v)
	}
	return vehicles, rows.Err()
}
