package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"moodadmin/api/internal/models"
)

var ErrAdminNotFound = errors.New("admin not found")

type AdminRepository struct {
	pool *pgxpool.Pool
}

func NewAdminRepository(pool *pgxpool.Pool) *AdminRepository {
	return &AdminRepository{pool: pool}
}

func (r *AdminRepository) Create(ctx context.Context, admin models.AdminUser) error {
	const query = `
		INSERT INTO admin_users (id, email, password_hash, display_name, created_at, updated_at)
		VALUES ($1, $2, $3, $4, NOW(), NOW())
	`
	_, err := r.pool.Exec(ctx, query,
		admin.ID,
		admin.Email,
		admin.PasswordHash,
		admin.DisplayName,
	)
	return err
}

func (r *AdminRepository) FindByEmail(ctx context.Context, email string) (models.AdminUser, error) {
	const query = `
		SELECT id, email, password_hash, display_name, created_at, updated_at
		FROM admin_users WHERE email = $1
	`
	return r.scanAdmin(r.pool.QueryRow(ctx, query, email))
}

func (r *AdminRepository) GetByID(ctx context.Context, id string) (models.AdminUser, error) {
	const query = `
		SELECT id, email, password_hash, display_name, created_at, updated_at
		FROM admin_users WHERE id = $1
	`
	return r.scanAdmin(r.pool.QueryRow(ctx, query, id))
}

func (r *AdminRepository) UpdatePassword(ctx context.Context, id string, passwordHash []byte) error {
	const query = `
		UPDATE admin_users SET password_hash = $2, updated_at = NOW() WHERE id = $1
	`
	cmd, err := r.pool.Exec(ctx, query, id, passwordHash)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrAdminNotFound
	}
	return nil
}

func (r *AdminRepository) scanAdmin(row pgx.Row) (models.AdminUser, error) {
	var admin models.AdminUser
	if err := row.Scan(
		&admin.ID,
		&admin.Email,
		&admin.PasswordHash,
		&admin.DisplayName,
		&admin.CreatedAt,
		&admin.UpdatedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.AdminUser{}, ErrAdminNotFound
		}
		return models.AdminUser{}, err
	}
	return admin, nil
}
