package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"moodadmin/api/internal/models"
)

type CategoryRepository struct {
	pool *pgxpool.Pool
}

func NewCategoryRepository(pool *pgxpool.Pool) *CategoryRepository {
	return &CategoryRepository{pool: pool}
}

// Upsert merges one tab's category document. The tab name is the document
// identifier, so repeated saves overwrite in place.
func (r *CategoryRepository) Upsert(ctx context.Context, c models.Category) error {
	const query = `
		INSERT INTO content_categories (
			mood, version_name, tab, heading, body, texts, voice_url, voice_name, live, updated_at
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9, NOW()
		)
		ON CONFLICT (mood, version_name, tab)
		DO UPDATE SET
			heading = EXCLUDED.heading,
			body = EXCLUDED.body,
			texts = EXCLUDED.texts,
			voice_url = EXCLUDED.voice_url,
			voice_name = EXCLUDED.voice_name,
			live = EXCLUDED.live,
			updated_at = NOW()
	`

	texts := c.Texts
	if texts == nil {
		texts = map[string]string{}
	}

	_, err := r.pool.Exec(ctx, query,
		c.Mood,
		c.VersionName,
		c.Tab,
		c.Heading,
		c.Body,
		texts,
		c.VoiceURL,
		c.VoiceName,
		c.Live,
	)
	return err
}

func (r *CategoryRepository) ListByVersion(ctx context.Context, mood models.Mood, versionName string) ([]models.Category, error) {
	const query = `
		SELECT mood, version_name, tab, heading, body, texts, voice_url, voice_name, live, updated_at
		FROM content_categories
		WHERE mood = $1 AND version_name = $2
		ORDER BY tab
	`

	rows, err := r.pool.Query(ctx, query, mood, versionName)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var categories []models.Category
	for rows.Next() {
		var c models.Category
		if err := rows.Scan(
			&c.Mood,
			&c.VersionName,
			&c.Tab,
			&c.Heading,
			&c.Body,
			&c.Texts,
			&c.VoiceURL,
			&c.VoiceName,
			&c.Live,
			&c.UpdatedAt,
		); err != nil {
			return nil, err
		}
		categories = append(categories, c)
	}
	return categories, rows.Err()
}

// Delete removes one tab's document. Deleting an absent document is a
// no-op, which keeps cascading-delete retries idempotent.
func (r *CategoryRepository) Delete(ctx context.Context, mood models.Mood, versionName string, tab models.Tab) error {
	const query = `
		DELETE FROM content_categories
		WHERE mood = $1 AND version_name = $2 AND tab = $3
	`
	_, err := r.pool.Exec(ctx, query, mood, versionName, tab)
	return err
}

// DeleteOrphans sweeps category rows whose parent version is gone, the
// residue a crash mid-delete can leave behind.
func (r *CategoryRepository) DeleteOrphans(ctx context.Context) (int64, error) {
	const query = `
		DELETE FROM content_categories c
		WHERE NOT EXISTS (
			SELECT 1 FROM content_versions v
			WHERE v.mood = c.mood AND v.name = c.version_name
		)
	`
	cmd, err := r.pool.Exec(ctx, query)
	if err != nil {
		return 0, err
	}
	return cmd.RowsAffected(), nil
}
