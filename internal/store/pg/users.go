package pg

import (
	"context"

	"github.com/jackc/pgx/v5"

	"github.com/dropDatabas3/hellochat/internal/store"
)

const userCols = `id, username, display_name, password_hash, email, created_at`

func scanUser(row pgx.Row) (*store.User, error) {
	var u store.User
	if err := row.Scan(&u.ID, &u.Username, &u.DisplayName, &u.PasswordHash, &u.Email, &u.CreatedAt); err != nil {
		return nil, mapErr(err)
	}
	return &u, nil
}

func (s *Store) CreateUser(ctx context.Context, nu store.NewUser) (*store.User, error) {
	const q = `
		INSERT INTO users (username, display_name, email, password_hash)
		VALUES ($1, $2, $3, $4)
		RETURNING ` + userCols
	return scanUser(s.pool.QueryRow(ctx, q, nu.Username, nu.DisplayName, nu.Email, nu.PasswordHash))
}

func (s *Store) GetUserByEmail(ctx context.Context, email string) (*store.User, error) {
	const q = `SELECT ` + userCols + ` FROM users WHERE lower(email) = lower($1) LIMIT 1`
	return scanUser(s.pool.QueryRow(ctx, q, email))
}

func (s *Store) GetUserByID(ctx context.Context, id int64) (*store.User, error) {
	const q = `SELECT ` + userCols + ` FROM users WHERE id = $1`
	return scanUser(s.pool.QueryRow(ctx, q, id))
}
