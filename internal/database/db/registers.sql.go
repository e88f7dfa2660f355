package db

import (
	"context"

	"github.com/n1str/RationX/internal/models"
)

const createRegister = `-- name: CreateRegister :one
INSERT INTO reg_transactions (type, amount, entry_date)
VALUES ($1, $2, $3)
RETURNING id
`

func (q *Queries) CreateRegister(ctx context.Context, r *models.RegTransaction) error {
	return q.db.QueryRow(ctx, createRegister,
		string(r.Type),
		r.Amount,
		r.Date,
	).Scan(&r.ID)
}

const updateRegister = `-- name: UpdateRegister :exec
UPDATE reg_transactions
SET type = $2, amount = $3
WHERE id = $1
`

func (q *Queries) UpdateRegister(ctx context.Context, r *models.RegTransaction) error {
	_, err := q.db.Exec(ctx, updateRegister,
		r.ID,
		string(r.Type),
		r.Amount,
	)
	return err
}
