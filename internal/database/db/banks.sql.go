package db

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/n1str/RationX/internal/models"
)

const findBankByAccount = `-- name: FindBankByAccount :one
SELECT id, name, account_number, COALESCE(correspondent_account, ''), COALESCE(subject_id, 0)
FROM banks
WHERE account_number = $1
`

// FindBankByAccount returns nil when the account number is unknown
func (q *Queries) FindBankByAccount(ctx context.Context, accountNumber string) (*models.Bank, error) {
	var b models.Bank
	err := q.db.QueryRow(ctx, findBankByAccount, accountNumber).Scan(
		&b.ID,
		&b.Name,
		&b.AccountNumber,
		&b.CorrespondentAccount,
		&b.SubjectID,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &b, nil
}

const createBank = `-- name: CreateBank :one
INSERT INTO banks (name, account_number, correspondent_account, subject_id)
VALUES ($1, $2, NULLIF($3, ''), NULLIF($4::bigint, 0))
RETURNING id
`

func (q *Queries) CreateBank(ctx context.Context, b *models.Bank) error {
	return q.db.QueryRow(ctx, createBank,
		b.Name,
		b.AccountNumber,
		b.CorrespondentAccount,
		b.SubjectID,
	).Scan(&b.ID)
}

const updateBank = `-- name: UpdateBank :exec
UPDATE banks
SET name = $2, account_number = $3, correspondent_account = NULLIF($4, ''), subject_id = NULLIF($5::bigint, 0)
WHERE id = $1
`

func (q *Queries) UpdateBank(ctx context.Context, b *models.Bank) error {
	_, err := q.db.Exec(ctx, updateBank,
		b.ID,
		b.Name,
		b.AccountNumber,
		b.CorrespondentAccount,
		b.SubjectID,
	)
	return err
}
