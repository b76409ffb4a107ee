package postgres

import (
	"context"
	"errors"

	"github.com/quintalabs/storefront/internal/auth"
	"github.com/quintalabs/storefront/internal/domain/user"
	"github.com/quintalabs/storefront/internal/observability"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type AuthTokensRepo struct {
	pool    *pgxpool.Pool
	metrics *observability.Prom
}

func NewAuthTokensRepo(pool *pgxpool.Pool, metrics *observability.Prom) *AuthTokensRepo {
	return &AuthTokensRepo{pool: pool, metrics: metrics}
}

func (r *AuthTokensRepo) Create(ctx context.Context, row auth.TokenRow) error {
	return r.metrics.ObserveDB("tokens.create", func() error {
		_, err := r.pool.Exec(ctx,
			`INSERT INTO auth_tokens (id, user_id, token_hash, created_at)
			VALUES ($1, $2, $3, $4)`,
			row.ID, row.UserID, row.TokenHash, row.CreatedAt,
		)
		return err
	})
}

// UserByTokenHash resolves a presented bearer token to its owner.
func (r *AuthTokensRepo) UserByTokenHash(ctx context.Context, tokenHash string) (user.User, error) {
	var u user.User

	err := r.metrics.ObserveDB("tokens.resolve", func() error {
		return r.pool.QueryRow(ctx,
			`SELECT u.id, u.name, u.email, u.password_hash, u.created_at, u.updated_at
			FROM auth_tokens t
			JOIN users u ON u.id = t.user_id
			WHERE t.token_hash = $1`,
			tokenHash,
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
			return user.User{}, auth.ErrTokenNotFound
		}

		return user.User{}, err
	}

	return u, nil
}

// DeleteAllForUser revokes every token the user holds. Login calls this
// before issuing a fresh token; logout calls it to end all sessions.
func (r *AuthTokensRepo) DeleteAllForUser(ctx context.Context, userID int64) error {
	return r.metrics.ObserveDB("tokens.delete_all", func() error {
		_, err := r.pool.Exec(ctx,
			`DELETE FROM auth_tokens WHERE user_id = $1`,
			userID,
		)
		return err
	})
}
