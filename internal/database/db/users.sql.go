package db

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/n1str/RationX/internal/models"
)

const createUser = `-- name: CreateUser :one
INSERT INTO users (username, password_hash, role, enabled)
VALUES ($1, $2, $3, $4)
RETURNING id, created_at
`

func (q *Queries) CreateUser(ctx context.Context, u *models.User) error {
	return q.db.QueryRow(ctx, createUser,
		u.Username,
		u.PasswordHash,
		u.Role,
		u.Enabled,
	).Scan(&u.ID, &u.CreatedAt)
}

const getUserByUsername = `-- name: GetUserByUsername :one
SELECT id, username, password_hash, role, enabled, created_at
FROM users
WHERE username = $1
`

// GetUserByUsername returns nil when the username is unknown
func (q *Queries) GetUserByUsername(ctx context.Context, username string) (*models.User, error) {
	return scanUser(q.db.QueryRow(ctx, getUserByUsername, username))
}

const getUserByID = `-- name: GetUserByID :one
SELECT id, username, password_hash, role, enabled, created_at
FROM users
WHERE id = $1
`

func (q *Queries) GetUserByID(ctx context.Context, id int64) (*models.User, error) {
	return scanUser(q.db.QueryRow(ctx, getUserByID, id))
}

func scanUser(row pgx.Row) (*models.User, error) {
	var u models.User
	err := row.Scan(&u.ID, &u.Username, &u.PasswordHash, &u.Role, &u.Enabled, &u.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}
