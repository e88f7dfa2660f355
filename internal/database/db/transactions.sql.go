package db

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/n1str/RationX/internal/models"
	"github.com/shopspring/decimal"
)

const transactionColumns = `
	t.id, t.user_id, t.status, t.date_time, t.comment,
	r.id, r.type, r.amount, r.entry_date,
	c.id, c.name, c.type,
	s.id, s.name, s.tax_id, s.address, s.phone, s.person_type,
	rs.id, rs.name, rs.tax_id, rs.address, rs.phone, rs.person_type,
	sb.id, sb.name, sb.account_number, sb.correspondent_account, sb.subject_id,
	rb.id, rb.name, rb.account_number, rb.correspondent_account, rb.subject_id
FROM transactions t
JOIN reg_transactions r ON r.id = t.reg_id
LEFT JOIN categories c ON c.id = t.category_id
LEFT JOIN subjects s ON s.id = t.sender_id
LEFT JOIN subjects rs ON rs.id = t.recipient_id
LEFT JOIN banks sb ON sb.id = t.sender_bank_id
LEFT JOIN banks rb ON rb.id = t.recipient_bank_id`

const getTransaction = `-- name: GetTransaction :one
SELECT` + transactionColumns + `
WHERE t.id = $1
`

// GetTransaction loads a transaction with every reference resolved.
// It returns nil when the id is unknown.
func (q *Queries) GetTransaction(ctx context.Context, id int64) (*models.Transaction, error) {
	txn, err := scanTransaction(q.db.QueryRow(ctx, getTransaction, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	return txn, err
}

// ListTransactionsParams filters a user's transactions. Zero values are ignored.
type ListTransactionsParams struct {
	UserID         int64
	Status         models.TransactionStatus
	Type           models.TransactionType
	CategoryID     int64
	RecipientTaxID string
	SenderBank     string
	RecipientBank  string
	From           time.Time
	To             time.Time
	MinAmount      *decimal.Decimal
	MaxAmount      *decimal.Decimal
	Limit          int32
	Offset         int32
}

func (p ListTransactionsParams) where() (string, []interface{}) {
	conds := []string{"t.user_id = $1"}
	args := []interface{}{p.UserID}
	add := func(cond string, arg interface{}) {
		args = append(args, arg)
		conds = append(conds, fmt.Sprintf(cond, len(args)))
	}

	if p.Status != "" {
		add("t.status = $%d", string(p.Status))
	}
	if p.Type != "" {
		add("r.type = $%d", string(p.Type))
	}
	if p.CategoryID != 0 {
		add("t.category_id = $%d", p.CategoryID)
	}
	if p.RecipientTaxID != "" {
		add("rs.tax_id = $%d", p.RecipientTaxID)
	}
	if p.SenderBank != "" {
		add("LOWER(sb.name) = LOWER($%d)", p.SenderBank)
	}
	if p.RecipientBank != "" {
		add("LOWER(rb.name) = LOWER($%d)", p.RecipientBank)
	}
	if !p.From.IsZero() {
		add("t.date_time >= $%d", p.From)
	}
	if !p.To.IsZero() {
		add("t.date_time <= $%d", p.To)
	}
	if p.MinAmount != nil {
		add("r.amount >= $%d", *p.MinAmount)
	}
	if p.MaxAmount != nil {
		add("r.amount <= $%d", *p.MaxAmount)
	}
	return strings.Join(conds, " AND "), args
}

func (q *Queries) ListTransactions(ctx context.Context, arg ListTransactionsParams) ([]models.Transaction, error) {
	where, args := arg.where()
	query := "SELECT" + transactionColumns + "\nWHERE " + where + "\nORDER BY t.date_time DESC, t.id DESC"
	if arg.Limit > 0 {
		args = append(args, arg.Limit, arg.Offset)
		query += fmt.Sprintf("\nLIMIT $%d OFFSET $%d", len(args)-1, len(args))
	}

	rows, err := q.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := []models.Transaction{}
	for rows.Next() {
		txn, err := scanTransaction(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, *txn)
	}
	return items, rows.Err()
}

func (q *Queries) CountTransactions(ctx context.Context, arg ListTransactionsParams) (int64, error) {
	where, args := arg.where()
	query := `SELECT COUNT(*)
FROM transactions t
JOIN reg_transactions r ON r.id = t.reg_id
LEFT JOIN subjects rs ON rs.id = t.recipient_id
LEFT JOIN banks sb ON sb.id = t.sender_bank_id
LEFT JOIN banks rb ON rb.id = t.recipient_bank_id
WHERE ` + where

	var count int64
	err := q.db.QueryRow(ctx, query, args...).Scan(&count)
	return count, err
}

const createTransaction = `-- name: CreateTransaction :one
INSERT INTO transactions (
    user_id, status, date_time, comment, category_id, reg_id,
    sender_id, recipient_id, sender_bank_id, recipient_bank_id
) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
RETURNING id
`

// CreateTransaction inserts t. Its register entry must already be persisted.
func (q *Queries) CreateTransaction(ctx context.Context, t *models.Transaction) error {
	return q.db.QueryRow(ctx, createTransaction,
		t.UserID,
		string(t.Status),
		t.DateTime,
		t.Comment,
		categoryID(t.Category),
		t.Register.ID,
		subjectID(t.Sender),
		subjectID(t.Recipient),
		bankID(t.SenderBank),
		bankID(t.RecipientBank),
	).Scan(&t.ID)
}

const updateTransaction = `-- name: UpdateTransaction :exec
UPDATE transactions
SET status = $2, comment = $3, category_id = $4,
    sender_id = $5, recipient_id = $6, sender_bank_id = $7, recipient_bank_id = $8
WHERE id = $1
`

func (q *Queries) UpdateTransaction(ctx context.Context, t *models.Transaction) error {
	_, err := q.db.Exec(ctx, updateTransaction,
		t.ID,
		string(t.Status),
		t.Comment,
		categoryID(t.Category),
		subjectID(t.Sender),
		subjectID(t.Recipient),
		bankID(t.SenderBank),
		bankID(t.RecipientBank),
	)
	return err
}

const updateTransactionStatus = `-- name: UpdateTransactionStatus :exec
UPDATE transactions SET status = $2 WHERE id = $1
`

func (q *Queries) UpdateTransactionStatus(ctx context.Context, id int64, status models.TransactionStatus) error {
	_, err := q.db.Exec(ctx, updateTransactionStatus, id, string(status))
	return err
}

func categoryID(c *models.Category) *int64 {
	if c == nil {
		return nil
	}
	return &c.ID
}

func subjectID(s *models.Subject) *int64 {
	if s == nil {
		return nil
	}
	return &s.ID
}

func bankID(b *models.Bank) *int64 {
	if b == nil {
		return nil
	}
	return &b.ID
}

type subjectRow struct {
	ID         *int64
	Name       *string
	TaxID      *string
	Address    *string
	Phone      *string
	PersonType *string
}

func (r subjectRow) model() *models.Subject {
	if r.ID == nil {
		return nil
	}
	return &models.Subject{
		ID:         *r.ID,
		Name:       deref(r.Name),
		TaxID:      deref(r.TaxID),
		Address:    deref(r.Address),
		Phone:      deref(r.Phone),
		PersonType: models.PersonType(deref(r.PersonType)),
	}
}

type bankRow struct {
	ID            *int64
	Name          *string
	Account       *string
	Correspondent *string
	SubjectID     *int64
}

func (r bankRow) model() *models.Bank {
	if r.ID == nil {
		return nil
	}
	b := &models.Bank{
		ID:                   *r.ID,
		Name:                 deref(r.Name),
		AccountNumber:        deref(r.Account),
		CorrespondentAccount: deref(r.Correspondent),
	}
	if r.SubjectID != nil {
		b.SubjectID = *r.SubjectID
	}
	return b
}

func scanTransaction(row pgx.Row) (*models.Transaction, error) {
	var (
		t            models.Transaction
		reg          models.RegTransaction
		status       string
		regType      string
		catID        *int64
		catName      *string
		catType      *string
		sender       subjectRow
		recipient    subjectRow
		senderBank   bankRow
		recipientBnk bankRow
	)

	err := row.Scan(
		&t.ID, &t.UserID, &status, &t.DateTime, &t.Comment,
		&reg.ID, &regType, &reg.Amount, &reg.Date,
		&catID, &catName, &catType,
		&sender.ID, &sender.Name, &sender.TaxID, &sender.Address, &sender.Phone, &sender.PersonType,
		&recipient.ID, &recipient.Name, &recipient.TaxID, &recipient.Address, &recipient.Phone, &recipient.PersonType,
		&senderBank.ID, &senderBank.Name, &senderBank.Account, &senderBank.Correspondent, &senderBank.SubjectID,
		&recipientBnk.ID, &recipientBnk.Name, &recipientBnk.Account, &recipientBnk.Correspondent, &recipientBnk.SubjectID,
	)
	if err != nil {
		return nil, err
	}

	reg.Type = models.TransactionType(regType)

	t.Status = models.TransactionStatus(status)
	t.Register = &reg
	if catID != nil {
		t.Category = &models.Category{
			ID:   *catID,
			Name: deref(catName),
			Type: models.TransactionType(deref(catType)),
		}
	}
	t.Sender = sender.model()
	t.Recipient = recipient.model()
	t.SenderBank = senderBank.model()
	t.RecipientBank = recipientBnk.model()

	return &t, nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
