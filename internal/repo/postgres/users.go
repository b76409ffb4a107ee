package postgres

import (
	"context"
	"errors"

	"github.com/quintalabs/storefront/internal/domain/user"
	"github.com/quintalabs/storefront/internal/observability"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

const uniqueViolation = "23505"

type UsersRepo struct {
	pool    *pgxpool.Pool
	metrics *observability.Prom
}

func NewUsersRepo(pool *pgxpool.Pool, metrics *observability.Prom) *UsersRepo {
	return &UsersRepo{pool: pool, metrics: metrics}
}

func (r *UsersRepo) Create(ctx context.Context, name, email, passwordHash string) (user.User, error) {
	var u user.User

	err := r.metrics.ObserveDB("users.create", func() error {
		return r.pool.QueryRow(
			ctx,
			`INSERT INTO users (name, email, password_hash)
			VALUES ($1, $2, $3)
			RETURNING id, name, email, password_hash, created_at, updated_at`,
			name, email, passwordHash,
		).Scan(
			&u.ID,
			&u.Name,
			&u.Email,
			&u.PasswordHash,
			&u.CreatedAt,
			&u.UpdatedAt,
		)
	})

	if err != nil {
		var pgErr *pgconn.PgError

		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return user.User{}, user.ErrEmailTaken
		}

		return user.User{}, err
	}

	return u, nil
}

func (r *UsersRepo) GetByEmail(ctx context.Context, email string) (user.User, error) {
	var u user.User

	err := r.metrics.ObserveDB("users.get_by_email", func() error {
		return r.pool.QueryRow(
			ctx,
			`SELECT id, name, email, password_hash, created_at, updated_at
			FROM users
			WHERE email = $1`,
			email,
		).Scan(
			&u.ID,
			&u.Name,
			&u.Email,
			&u.PasswordHash,
			&u.CreatedAt,
			&u.UpdatedAt,
		)
	})

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return user.User{}, user.ErrNotFound
		}

		return user.User{}, err
	}

	return u, nil
}
