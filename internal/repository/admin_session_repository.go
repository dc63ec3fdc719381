package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"moodadmin/api/internal/models"
)

var ErrAdminSessionNotFound = errors.New("admin session not found")

type AdminSessionRepository struct {
	pool *pgxpool.Pool
}

func NewAdminSessionRepository(pool *pgxpool.Pool) *AdminSessionRepository {
	return &AdminSessionRepository{pool: pool}
}

func (r *AdminSessionRepository) Create(ctx context.Context, session models.AdminSession) error {
	const query = `
		INSERT INTO admin_sessions (
			id, admin_id, refresh_token_hash, ip_address, user_agent, created_at, last_seen_at, expires_at
		) VALUES (
			$1, $2, $3, $4, $5, NOW(), NOW(), $6
		)
		ON CONFLICT (id)
		DO UPDATE SET
			refresh_token_hash = EXCLUDED.refresh_token_hash,
			ip_address = EXCLUDED.ip_address,
			user_agent = EXCLUDED.user_agent,
			last_seen_at = NOW(),
			expires_at = EXCLUDED.expires_at
	`

	_, err := r.pool.Exec(ctx, query,
		session.ID,
		session.AdminID,
		session.RefreshTokenHash,
		session.IPAddress,
		session.UserAgent,
		session.ExpiresAt,
	)
	return err
}

func (r *AdminSessionRepository) GetByID(ctx context.Context, id string) (models.AdminSession, error) {
	const query = `
		SELECT id, admin_id, refresh_token_hash, ip_address, user_agent, created_at, last_seen_at, expires_at
		FROM admin_sessions WHERE id = $1
	`
	return r.scanSession(r.pool.QueryRow(ctx, query, id))
}

func (r *AdminSessionRepository) FindByRefreshHash(ctx context.Context, adminID string, refreshHash []byte) (models.AdminSession, error) {
	const query = `
		SELECT id, admin_id, refresh_token_hash, ip_address, user_agent, created_at, last_seen_at, expires_at
		FROM admin_sessions
		WHERE admin_id = $1 AND refresh_token_hash = $2
	`
	return r.scanSession(r.pool.QueryRow(ctx, query, adminID, refreshHash))
}

func (r *AdminSessionRepository) DeleteByID(ctx context.Context, id string) error {
	const query = `DELETE FROM admin_sessions WHERE id = $1`
	_, err := r.pool.Exec(ctx, query, id)
	return err
}

func (r *AdminSessionRepository) CountByAdmin(ctx context.Context, adminID string) (int, error) {
	const query = `SELECT COUNT(*) FROM admin_sessions WHERE admin_id = $1`
	var count int
	if err := r.pool.QueryRow(ctx, query, adminID).Scan(&count); err != nil {
		return 0, err
	}
	return count, nil
}

func (r *AdminSessionRepository) DeleteOldest(ctx context.Context, adminID string, keepLatest int) error {
	const query = `
		DELETE FROM admin_sessions
		WHERE id IN (
			SELECT id FROM admin_sessions
			WHERE admin_id = $1
			ORDER BY last_seen_at DESC
			OFFSET $2
		)
	`
	_, err := r.pool.Exec(ctx, query, adminID, keepLatest)
	return err
}

func (r *AdminSessionRepository) Touch(ctx context.Context, sessionID string, ip string, userAgent string) error {
	const query = `
		UPDATE admin_sessions
		SET last_seen_at = NOW(),
		    ip_address = COALESCE(NULLIF($2, ''), ip_address),
		    user_agent = COALESCE(NULLIF($3, ''), user_agent)
		WHERE id = $1
	`
	_, err := r.pool.Exec(ctx, query, sessionID, ip, userAgent)
	return err
}

func (r *AdminSessionRepository) scanSession(row pgx.Row) (models.AdminSession, error) {
	var session models.AdminSession
	if err := row.Scan(
		&session.ID,
		&session.AdminID,
		&session.RefreshTokenHash,
		&session.IPAddress,
		&session.UserAgent,
		&session.CreatedAt,
		&session.LastSeenAt,
		&session.ExpiresAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.AdminSession{}, ErrAdminSessionNotFound
		}
		return models.AdminSession{}, err
	}
	return session, nil
}
