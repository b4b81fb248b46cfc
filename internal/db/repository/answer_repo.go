package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// AnswerRepository persists append-only scoring records.
type AnswerRepository struct {
	db querier
}

func NewAnswerRepository(db querier) *AnswerRepository {
	return &AnswerRepository{db: db}
}

// Insert appends one answer record.
func (r *AnswerRepository) Insert(ctx context.Context, rec AnswerRecord) error {
	if _, err := r.db.Exec(ctx,
		`INSERT INTO answers (id, player_id, question_id, answer_date, correct, response_time_ms, elo, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		rec.ID, rec.PlayerID, rec.QuestionID, rec.Date, rec.Correct,
		rec.ResponseTimeMs, rec.Elo, rec.CreatedAt); err != nil {
		return fmt.Errorf("insert answer for player %s: %w", rec.PlayerID, err)
	}
	return nil
}

// Latest returns the most recent record for a player, or nil when the player
// has never been scored.
func (r *AnswerRepository) Latest(ctx context.Context, playerID uuid.UUID) (*AnswerRecord, error) {
	var rec AnswerRecord
	err := r.db.QueryRow(ctx,
		`SELECT id, player_id, question_id, answer_date, correct, response_time_ms, elo, created_at
		 FROM answers WHERE player_id = $1 ORDER BY created_at DESC LIMIT 1`,
		playerID).Scan(&rec.ID, &rec.PlayerID, &rec.QuestionID, &rec.Date,
		&rec.Correct, &rec.ResponseTimeMs, &rec.Elo, &rec.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("latest answer for player %s: %w", playerID, err)
	}
	return &rec, nil
}

// CountQuestionsForDate counts question-linked answers a player gave on a day.
// Decay rows do not count against the daily limit.
func (r *AnswerRepository) CountQuestionsForDate(ctx context.Context, playerID uuid.UUID, date time.Time) (int, error) {
	var count int
	if err := r.db.QueryRow(ctx,
		`SELECT COUNT(*) FROM answers
		 WHERE player_id = $1 AND answer_date = $2 AND question_id IS NOT NULL`,
		playerID, date).Scan(&count); err != nil {
		return 0, fmt.Errorf("count answers for player %s: %w", playerID, err)
	}
	return count, nil
}

// LatestPerPlayer returns every player's most recent record.
func (r *AnswerRepository) LatestPerPlayer(ctx context.Context) ([]PlayerAnswer, error) {
	rows, err := r.db.Query(ctx,
		`SELECT DISTINCT ON (a.player_id)
		        p.id, p.name,
		        a.id, a.player_id, a.question_id, a.answer_date, a.correct, a.response_time_ms, a.elo, a.created_at
		 FROM answers a JOIN players p ON p.id = a.player_id
		 ORDER BY a.player_id, a.created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("latest answers per player: %w", err)
	}
	defer rows.Close()
	return scanPlayerAnswers(rows)
}

// ListForMonth returns a player's records inside [monthStart, nextMonth).
func (r *AnswerRepository) ListForMonth(ctx context.Context, playerID uuid.UUID, monthStart time.Time) ([]AnswerRecord, error) {
	rows, err := r.db.Query(ctx,
		`SELECT id, player_id, question_id, answer_date, correct, response_time_ms, elo, created_at
		 FROM answers
		 WHERE player_id = $1 AND answer_date >= $2 AND answer_date < $3
		 ORDER BY created_at`,
		playerID, monthStart, monthStart.AddDate(0, 1, 0))
	if err != nil {
		return nil, fmt.Errorf("answers for month: %w", err)
	}
	defer rows.Close()

	var records []AnswerRecord
	for rows.Next() {
		var rec AnswerRecord
		if err := rows.Scan(&rec.ID, &rec.PlayerID, &rec.QuestionID, &rec.Date,
			&rec.Correct, &rec.ResponseTimeMs, &rec.Elo, &rec.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan answer: %w", err)
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

// TopCorrectForQuestion returns the fastest correct answers for one question.
func (r *AnswerRepository) TopCorrectForQuestion(ctx context.Context, questionID uuid.UUID, limit int) ([]PlayerAnswer, error) {
	rows, err := r.db.Query(ctx,
		`SELECT p.id, p.name,
		        a.id, a.player_id, a.question_id, a.answer_date, a.correct, a.response_time_ms, a.elo, a.created_at
		 FROM answers a JOIN players p ON p.id = a.player_id
		 WHERE a.question_id = $1 AND a.correct AND a.response_time_ms IS NOT NULL
		 ORDER BY a.response_time_ms ASC LIMIT $2`,
		questionID, limit)
	if err != nil {
		return nil, fmt.Errorf("top answers for question %s: %w", questionID, err)
	}
	defer rows.Close()
	return scanPlayerAnswers(rows)
}

func scanPlayerAnswers(rows pgx.Rows) ([]PlayerAnswer, error) {
	var result []PlayerAnswer
	for rows.Next() {
		var pa PlayerAnswer
		if err := rows.Scan(&pa.Player.ID, &pa.Player.Name,
			&pa.Record.ID, &pa.Record.PlayerID, &pa.Record.QuestionID, &pa.Record.Date,
			&pa.Record.Correct, &pa.Record.ResponseTimeMs, &pa.Record.Elo, &pa.Record.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan player answer: %w", err)
		}
		result = append(result, pa)
	}
	return result, rows.Err()
}
