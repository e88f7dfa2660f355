package db

import (
	"context"
	"time"

	"github.com/n1str/RationX/internal/models"
)

// Querier is the full data access surface. Find*/Get* lookups return a nil
// entity, not an error, when nothing matches.
type Querier interface {
	FindSubjectByTaxID(ctx context.Context, taxID string) (*models.Subject, error)
	GetSubject(ctx context.Context, id int64) (*models.Subject, error)
	CreateSubject(ctx context.Context, s *models.Subject) error
	UpdateSubject(ctx context.Context, s *models.Subject) error

	FindBankByAccount(ctx context.Context, accountNumber string) (*models.Bank, error)
	CreateBank(ctx context.Context, b *models.Bank) error
	UpdateBank(ctx context.Context, b *models.Bank) error

	GetCategory(ctx context.Context, id int64) (*models.Category, error)
	FindCategoryByName(ctx context.Context, name string) (*models.Category, error)
	ListCategories(ctx context.Context) ([]models.Category, error)
	ListCategoriesByType(ctx context.Context, typ models.TransactionType) ([]models.Category, error)
	CreateCategory(ctx context.Context, c *models.Category) error
	UpdateCategory(ctx context.Context, c *models.Category) error
	DeleteCategory(ctx context.Context, id int64) error
	CountCategoryUsage(ctx context.Context, id int64) (int64, error)

	CreateRegister(ctx context.Context, r *models.RegTransaction) error
	UpdateRegister(ctx context.Context, r *models.RegTransaction) error

	GetTransaction(ctx context.Context, id int64) (*models.Transaction, error)
	ListTransactions(ctx context.Context, arg ListTransactionsParams) ([]models.Transaction, error)
	CountTransactions(ctx context.Context, arg ListTransactionsParams) (int64, error)
	CreateTransaction(ctx context.Context, t *models.Transaction) error
	UpdateTransaction(ctx context.Context, t *models.Transaction) error
	UpdateTransactionStatus(ctx context.Context, id int64, status models.TransactionStatus) error

	GetTotals(ctx context.Context, userID int64) (GetTotalsRow, error)
	GetCategoryTotals(ctx context.Context, userID int64) ([]GetCategoryTotalsRow, error)
	GetDailyTotals(ctx context.Context, userID int64, from, to time.Time) ([]GetDailyTotalsRow, error)

	CreateUser(ctx context.Context, u *models.User) error
	GetUserByUsername(ctx context.Context, username string) (*models.User, error)
	GetUserByID(ctx context.Context, id int64) (*models.User, error)
}

var _ Querier = (*Queries)(nil)
