package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"moodadmin/api/internal/models"
)

var ErrMeditationNotFound = errors.New("meditation not found")

type MeditationRepository struct {
	pool *pgxpool.Pool
}

func NewMeditationRepository(pool *pgxpool.Pool) *MeditationRepository {
	return &MeditationRepository{pool: pool}
}

func (r *MeditationRepository) List(ctx context.Context) ([]models.MeditationEntry, error) {
	const query = `
		SELECT id, heading, body, audio_name, audio_url, updated_at
		FROM meditations
		ORDER BY id
	`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []models.MeditationEntry
	for rows.Next() {
		var entry models.MeditationEntry
		if err := rows.Scan(
			&entry.ID,
			&entry.Heading,
			&entry.Body,
			&entry.AudioName,
			&entry.AudioURL,
			&entry.UpdatedAt,
		); err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}
	return entries, rows.Err()
}

func (r *MeditationRepository) Get(ctx context.Context, id string) (models.MeditationEntry, error) {
	const query = `
		SELECT id, heading, body, audio_name, audio_url, updated_at
		FROM meditations WHERE id = $1
	`

	row := r.pool.QueryRow(ctx, query, id)
	var entry models.MeditationEntry
	if err := row.Scan(
		&entry.ID,
		&entry.Heading,
		&entry.Body,
		&entry.AudioName,
		&entry.AudioURL,
		&entry.UpdatedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.MeditationEntry{}, ErrMeditationNotFound
		}
		return models.MeditationEntry{}, err
	}
	return entry, nil
}

// Update merges heading and body, and replaces the audio reference only
// when a new one is supplied.
func (r *MeditationRepository) Update(ctx context.Context, entry models.MeditationEntry) error {
	const query = `
		UPDATE meditations
		SET heading = $2,
		    body = $3,
		    audio_name = COALESCE(NULLIF($4, ''), audio_name),
		    audio_url = COALESCE(NULLIF($5, ''), audio_url),
		    updated_at = NOW()
		WHERE id = $1
	`
	cmd, err := r.pool.Exec(ctx, query,
		entry.ID,
		entry.Heading,
		entry.Body,
		entry.AudioName,
		entry.AudioURL,
	)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrMeditationNotFound
	}
	return nil
}
