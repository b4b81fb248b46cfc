package repository

import (
	"context"
	"fmt"
	"time"
)

// QuestionRepository persists daily question candidate rows.
type QuestionRepository struct {
	db querier
}

func NewQuestionRepository(db querier) *QuestionRepository {
	return &QuestionRepository{db: db}
}

// ListForDate returns every candidate row for the given calendar day, ordered
// by slot so callers can regroup them into questions.
func (r *QuestionRepository) ListForDate(ctx context.Context, date time.Time) ([]QuestionRow, error) {
	rows, err := r.db.Query(ctx,
		`SELECT id, question_date, slot, tank_id, ammo_slot
		 FROM daily_questions WHERE question_date = $1 ORDER BY slot, id`,
		date)
	if err != nil {
		return nil, fmt.Errorf("list questions for %s: %w", date.Format("2006-01-02"), err)
	}
	defer rows.Close()

	var result []QuestionRow
	for rows.Next() {
		var q QuestionRow
		if err := rows.Scan(&q.ID, &q.Date, &q.Slot, &q.TankID, &q.AmmoSlot); err != nil {
			return nil, fmt.Errorf("scan question row: %w", err)
		}
		result = append(result, q)
	}
	return result, rows.Err()
}

// InsertSlot persists all candidate rows of one slot. Exactly one row is
// expected to carry a non-nil ammo slot.
func (r *QuestionRepository) InsertSlot(ctx context.Context, candidates []QuestionRow) error {
	for _, c := range candidates {
		if _, err := r.db.Exec(ctx,
			`INSERT INTO daily_questions (id, question_date, slot, tank_id, ammo_slot)
			 VALUES ($1, $2, $3, $4, $5)`,
			c.ID, c.Date, c.Slot, c.TankID, c.AmmoSlot); err != nil {
			return fmt.Errorf("insert question slot %d tank %d: %w", c.Slot, c.TankID, err)
		}
	}
	return nil
}

// DeleteSlot clears a partially written slot so generation can retry it.
func (r *QuestionRepository) DeleteSlot(ctx context.Context, date time.Time, slot int) error {
	if _, err := r.db.Exec(ctx,
		`DELETE FROM daily_questions WHERE question_date = $1 AND slot = $2`,
		date, slot); err != nil {
		return fmt.Errorf("delete question slot %d: %w", slot, err)
	}
	return nil
}
