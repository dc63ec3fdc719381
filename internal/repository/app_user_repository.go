package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"moodadmin/api/internal/models"
)

var ErrAppUserNotFound = errors.New("app user not found")

type AppUserRepository struct {
	pool *pgxpool.Pool
}

func NewAppUserRepository(pool *pgxpool.Pool) *AppUserRepository {
	return &AppUserRepository{pool: pool}
}

// List returns every user record, reserved counter documents included, in
// insertion order. Exclusion happens in the directory service so that the
// same rule applies to counts and the visible table alike.
func (r *AppUserRepository) List(ctx context.Context) ([]models.AppUser, error) {
	const query = `
		SELECT device_id, last_seen, created_at, status
		FROM app_users
		ORDER BY created_at NULLS LAST, device_id
	`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var users []models.AppUser
	for rows.Next() {
		var user models.AppUser
		if err := rows.Scan(
			&user.DeviceID,
			&user.LastSeen,
			&user.CreatedAt,
			&user.Status,
		); err != nil {
			return nil, err
		}
		users = append(users, user)
	}
	return users, rows.Err()
}

func (r *AppUserRepository) Get(ctx context.Context, deviceID string) (models.AppUser, error) {
	const query = `
		SELECT device_id, last_seen, created_at, status
		FROM app_users WHERE device_id = $1
	`

	row := r.pool.QueryRow(ctx, query, deviceID)
	var user models.AppUser
	if err := row.Scan(
		&user.DeviceID,
		&user.LastSeen,
		&user.CreatedAt,
		&user.Status,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.AppUser{}, ErrAppUserNotFound
		}
		return models.AppUser{}, err
	}
	return user, nil
}

// ToggleStatus flips the status flag in a single partial write. The caller
// observes the change through the next read, not through a returned value.
func (r *AppUserRepository) ToggleStatus(ctx context.Context, deviceID string) error {
	const query = `
		UPDATE app_users SET status = NOT status WHERE device_id = $1
	`
	cmd, err := r.pool.Exec(ctx, query, deviceID)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrAppUserNotFound
	}
	return nil
}
