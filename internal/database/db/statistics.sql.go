package db

import (
	"context"
	"time"

	"github.com/n1str/RationX/internal/models"
	"github.com/shopspring/decimal"
)

// soft-deleted transactions never count towards statistics

type GetTotalsRow struct {
	Income  decimal.Decimal
	Expense decimal.Decimal
	Count   int64
}

const getTotals = `-- name: GetTotals :one
SELECT
    COALESCE(SUM(r.amount) FILTER (WHERE r.type = 'DEBIT'), 0),
    COALESCE(SUM(r.amount) FILTER (WHERE r.type = 'CREDIT'), 0),
    COUNT(*)
FROM transactions t
JOIN reg_transactions r ON r.id = t.reg_id
WHERE t.user_id = $1 AND t.status <> 'PAYMENT_DELETED'
`

func (q *Queries) GetTotals(ctx context.Context, userID int64) (GetTotalsRow, error) {
	var row GetTotalsRow
	err := q.db.QueryRow(ctx, getTotals, userID).Scan(&row.Income, &row.Expense, &row.Count)
	return row, err
}

type GetCategoryTotalsRow struct {
	Name string
	Type models.TransactionType
	Sum  decimal.Decimal
}

const getCategoryTotals = `-- name: GetCategoryTotals :many
SELECT c.name, c.type, SUM(r.amount)
FROM transactions t
JOIN reg_transactions r ON r.id = t.reg_id
JOIN categories c ON c.id = t.category_id
WHERE t.user_id = $1 AND t.status <> 'PAYMENT_DELETED'
GROUP BY c.name, c.type
ORDER BY c.name
`

func (q *Queries) GetCategoryTotals(ctx context.Context, userID int64) ([]GetCategoryTotalsRow, error) {
	rows, err := q.db.Query(ctx, getCategoryTotals, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := []GetCategoryTotalsRow{}
	for rows.Next() {
		var i GetCategoryTotalsRow
		var typ string
		if err := rows.Scan(&i.Name, &typ, &i.Sum); err != nil {
			return nil, err
		}
		i.Type = models.TransactionType(typ)
		items = append(items, i)
	}
	return items, rows.Err()
}

type GetDailyTotalsRow struct {
	Day     time.Time
	Income  decimal.Decimal
	Expense decimal.Decimal
	Count   int64
}

const getDailyTotals = `-- name: GetDailyTotals :many
SELECT
    t.date_time::date AS day,
    COALESCE(SUM(r.amount) FILTER (WHERE r.type = 'DEBIT'), 0),
    COALESCE(SUM(r.amount) FILTER (WHERE r.type = 'CREDIT'), 0),
    COUNT(*)
FROM transactions t
JOIN reg_transactions r ON r.id = t.reg_id
WHERE t.user_id = $1
  AND t.status <> 'PAYMENT_DELETED'
  AND t.date_time >= $2
  AND t.date_time < $3
GROUP BY day
ORDER BY day
`

// GetDailyTotals aggregates per calendar day in [from, to)
func (q *Queries) GetDailyTotals(ctx context.Context, userID int64, from, to time.Time) ([]GetDailyTotalsRow, error) {
	rows, err := q.db.Query(ctx, getDailyTotals, userID, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := []GetDailyTotalsRow{}
	for rows.Next() {
		var i GetDailyTotalsRow
		if err := rows.Scan(&i.Day, &i.Income, &i.Expense, &i.Count); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	return items, rows.Err()
}
