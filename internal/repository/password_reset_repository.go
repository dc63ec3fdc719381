package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"moodadmin/api/internal/models"
)

var ErrResetNotFound = errors.New("password reset not found")

type PasswordResetRepository struct {
	pool *pgxpool.Pool
}

func NewPasswordResetRepository(pool *pgxpool.Pool) *PasswordResetRepository {
	return &PasswordResetRepository{pool: pool}
}

// Upsert stores the reset token hash, replacing any outstanding token for
// the same admin. Only the most recently requested token is honored.
func (r *PasswordResetRepository) Upsert(ctx context.Context, reset models.PasswordReset) error {
	const query = `
		INSERT INTO password_resets (admin_id, token_hash, expires_at, created_at)
		VALUES ($1, $2, $3, NOW())
		ON CONFLICT (admin_id)
		DO UPDATE SET
			token_hash = EXCLUDED.token_hash,
			expires_at = EXCLUDED.expires_at,
			created_at = NOW()
	`
	_, err := r.pool.Exec(ctx, query, reset.AdminID, reset.TokenHash, reset.ExpiresAt)
	return err
}

func (r *PasswordResetRepository) FindByTokenHash(ctx context.Context, tokenHash []byte) (models.PasswordReset, error) {
	const query = `
		SELECT admin_id, token_hash, expires_at, created_at
		FROM password_resets WHERE token_hash = $1
	`

	row := r.pool.QueryRow(ctx, query, tokenHash)
	var reset models.PasswordReset
	if err := row.Scan(
		&reset.AdminID,
		&reset.TokenHash,
		&reset.ExpiresAt,
		&reset.CreatedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.PasswordReset{}, ErrResetNotFound
		}
		return models.PasswordReset{}, err
	}
	return reset, nil
}

func (r *PasswordResetRepository) Delete(ctx context.Context, adminID string) error {
	const query = `DELETE FROM password_resets WHERE admin_id = $1`
	_, err := r.pool.Exec(ctx, query, adminID)
	return err
}
