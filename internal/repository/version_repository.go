package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"moodadmin/api/internal/models"
)

var ErrVersionNotFound = errors.New("content version not found")

type VersionRepository struct {
	pool *pgxpool.Pool
}

func NewVersionRepository(pool *pgxpool.Pool) *VersionRepository {
	return &VersionRepository{pool: pool}
}

func (r *VersionRepository) Create(ctx context.Context, v models.ContentVersion) error {
	const query = `
		INSERT INTO content_versions (mood, name, live, created_at, updated_at)
		VALUES ($1, $2, $3, NOW(), NOW())
	`
	_, err := r.pool.Exec(ctx, query, v.Mood, v.Name, v.Live)
	return err
}

func (r *VersionRepository) UpdateLive(ctx context.Context, mood models.Mood, name string, live bool) error {
	const query = `
		UPDATE content_versions
		SET live = $3, updated_at = NOW()
		WHERE mood = $1 AND name = $2
	`
	cmd, err := r.pool.Exec(ctx, query, mood, name, live)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrVersionNotFound
	}
	return nil
}

func (r *VersionRepository) Get(ctx context.Context, mood models.Mood, name string) (models.ContentVersion, error) {
	const query = `
		SELECT mood, name, live, created_at, updated_at
		FROM content_versions
		WHERE mood = $1 AND name = $2
	`

	row := r.pool.QueryRow(ctx, query, mood, name)
	var v models.ContentVersion
	if err := row.Scan(&v.Mood, &v.Name, &v.Live, &v.CreatedAt, &v.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.ContentVersion{}, ErrVersionNotFound
		}
		return models.ContentVersion{}, err
	}
	return v, nil
}

func (r *VersionRepository) ListByMood(ctx context.Context, mood models.Mood) ([]models.ContentVersion, error) {
	const query = `
		SELECT mood, name, live, created_at, updated_at
		FROM content_versions
		WHERE mood = $1
		ORDER BY created_at DESC
	`

	rows, err := r.pool.Query(ctx, query, mood)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var versions []models.ContentVersion
	for rows.Next() {
		var v models.ContentVersion
		if err := rows.Scan(&v.Mood, &v.Name, &v.Live, &v.CreatedAt, &v.UpdatedAt); err != nil {
			return nil, err
		}
		versions = append(versions, v)
	}
	return versions, rows.Err()
}

// Delete removes only the version document. Category rows are deleted first
// by the caller; the two writes are deliberately not transactional.
func (r *VersionRepository) Delete(ctx context.Context, mood models.Mood, name string) error {
	const query = `DELETE FROM content_versions WHERE mood = $1 AND name = $2`
	cmd, err := r.pool.Exec(ctx, query, mood, name)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrVersionNotFound
	}
	return nil
}
