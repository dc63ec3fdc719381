package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"moodadmin/api/internal/models"
)

type MoodSessionRepository struct {
	pool *pgxpool.Pool
}

func NewMoodSessionRepository(pool *pgxpool.Pool) *MoodSessionRepository {
	return &MoodSessionRepository{pool: pool}
}

func (r *MoodSessionRepository) Insert(ctx context.Context, record models.SessionRecord) error {
	const query = `
		INSERT INTO mood_sessions (id, mood, user_id, occurred_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (id) DO NOTHING
	`
	_, err := r.pool.Exec(ctx, query,
		record.ID,
		record.Mood,
		record.UserID,
		record.OccurredAt,
	)
	return err
}

// DistinctMoods lists the moods that currently have any session, in
// first-session order. The aggregator keys its registry off this set and
// relies on the ordering for tie-breaks.
func (r *MoodSessionRepository) DistinctMoods(ctx context.Context) ([]models.Mood, error) {
	const query = `
		SELECT mood FROM mood_sessions
		GROUP BY mood
		ORDER BY MIN(occurred_at), mood
	`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var moods []models.Mood
	for rows.Next() {
		var mood models.Mood
		if err := rows.Scan(&mood); err != nil {
			return nil, err
		}
		moods = append(moods, mood)
	}
	return moods, rows.Err()
}

func (r *MoodSessionRepository) ListByMood(ctx context.Context, mood models.Mood) ([]models.SessionRecord, error) {
	const query = `
		SELECT id, mood, user_id, occurred_at
		FROM mood_sessions
		WHERE mood = $1
		ORDER BY occurred_at DESC
	`

	rows, err := r.pool.Query(ctx, query, mood)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []models.SessionRecord
	for rows.Next() {
		var record models.SessionRecord
		if err := rows.Scan(
			&record.ID,
			&record.Mood,
			&record.UserID,
			&record.OccurredAt,
		); err != nil {
			return nil, err
		}
		records = append(records, record)
	}
	return records, rows.Err()
}
