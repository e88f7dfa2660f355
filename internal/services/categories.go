package services

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/n1str/RationX/internal/database/db"
	"github.com/n1str/RationX/internal/models"
	"github.com/rs/zerolog"
)

// DefaultExpenseCategories are seeded as CREDIT categories
var DefaultExpenseCategories = []string{
	"Groceries",
	"Utilities",
	"Transport",
	"Entertainment",
	"Health",
	"Clothing",
	"Education",
	"Other expenses",
}

// DefaultIncomeCategories are seeded as DEBIT categories
var DefaultIncomeCategories = []string{
	"Salary",
	"Side income",
	"Investments",
	"Gifts",
	"Other income",
}

// CategoryService manages the global category registry
type CategoryService struct {
	store     db.Store
	validator *RequestValidator
	log       zerolog.Logger
}

func NewCategoryService(store db.Store, validator *RequestValidator, log zerolog.Logger) *CategoryService {
	return &CategoryService{
		store:     store,
		validator: validator,
		log:       log.With().Str("service", "categories").Logger(),
	}
}

// FindOrCreate resolves token as a numeric id first, then as a
// case-insensitive name, and finally creates a category named token.
func (s *CategoryService) FindOrCreate(ctx context.Context, q db.Querier, token string, typ models.TransactionType) (*models.Category, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, invalid("category", "category is required")
	}

	if id, err := strconv.ParseInt(token, 10, 64); err == nil {
		category, err := q.GetCategory(ctx, id)
		if err != nil {
			return nil, fmt.Errorf("failed to look up category: %w", err)
		}
		if category != nil {
			return category, nil
		}
	}

	category, err := q.FindCategoryByName(ctx, token)
	if err != nil {
		return nil, fmt.Errorf("failed to look up category: %w", err)
	}
	if category != nil {
		return category, nil
	}

	category = &models.Category{Name: token, Type: typ}
	if err := q.CreateCategory(ctx, category); err != nil {
		return nil, storeError(err, "category")
	}
	s.log.Info().Int64("category_id", category.ID).Str("name", token).Msg("category created on demand")
	return category, nil
}

func (s *CategoryService) List(ctx context.Context) ([]models.Category, error) {
	return s.store.ListCategories(ctx)
}

func (s *CategoryService) ListByType(ctx context.Context, typ models.TransactionType) ([]models.Category, error) {
	if !typ.Valid() {
		return nil, invalid("type", "type must be DEBIT or CREDIT")
	}
	return s.store.ListCategoriesByType(ctx, typ)
}

func (s *CategoryService) Get(ctx context.Context, id int64) (*models.Category, error) {
	category, err := s.store.GetCategory(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get category: %w", err)
	}
	if category == nil {
		return nil, notFound("category %d", id)
	}
	return category, nil
}

// Create adds a category; a name already taken in any case is rejected
func (s *CategoryService) Create(ctx context.Context, name string, typ models.TransactionType) (*models.Category, error) {
	if err := s.validator.ValidateCategory(name, typ); err != nil {
		return nil, err
	}
	name = strings.TrimSpace(name)

	existing, err := s.store.FindCategoryByName(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("failed to look up category: %w", err)
	}
	if existing != nil {
		return nil, invalid("name", "category %q already exists", existing.Name)
	}

	category := &models.Category{Name: name, Type: typ}
	if err := s.store.CreateCategory(ctx, category); err != nil {
		return nil, storeError(err, "category")
	}
	s.log.Info().Int64("category_id", category.ID).Str("name", name).Msg("category created")
	return category, nil
}

// Update renames and retypes a category. Renaming onto a name held by a
// different category fails before anything is written.
func (s *CategoryService) Update(ctx context.Context, id int64, name string, typ models.TransactionType) (*models.Category, error) {
	if err := s.validator.ValidateCategory(name, typ); err != nil {
		return nil, err
	}
	name = strings.TrimSpace(name)

	category, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if !strings.EqualFold(category.Name, name) {
		clash, err := s.store.FindCategoryByName(ctx, name)
		if err != nil {
			return nil, fmt.Errorf("failed to look up category: %w", err)
		}
		if clash != nil && clash.ID != id {
			return nil, invalid("name", "category %q already exists", clash.Name)
		}
	}

	category.Name = name
	category.Type = typ
	if err := s.store.UpdateCategory(ctx, category); err != nil {
		return nil, storeError(err, "category")
	}
	s.log.Info().Int64("category_id", id).Str("name", name).Msg("category updated")
	return category, nil
}

// Delete removes a category that no transaction references
func (s *CategoryService) Delete(ctx context.Context, id int64) error {
	if _, err := s.Get(ctx, id); err != nil {
		return err
	}

	used, err := s.store.CountCategoryUsage(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to check category usage: %w", err)
	}
	if used > 0 {
		return fmt.Errorf("%w: category %d is used by %d transactions", ErrConflict, id, used)
	}

	if err := s.store.DeleteCategory(ctx, id); err != nil {
		return fmt.Errorf("failed to delete category: %w", err)
	}
	s.log.Info().Int64("category_id", id).Msg("category deleted")
	return nil
}

// SeedDefaults creates any missing default category. It is safe to run on
// every startup.
func (s *CategoryService) SeedDefaults(ctx context.Context) (int, error) {
	created := 0
	err := s.store.ExecTx(ctx, func(q db.Querier) error {
		seed := func(names []string, typ models.TransactionType) error {
			for _, name := range names {
				existing, err := q.FindCategoryByName(ctx, name)
				if err != nil {
					return err
				}
				if existing != nil {
					continue
				}
				if err := q.CreateCategory(ctx, &models.Category{Name: name, Type: typ}); err != nil {
					return err
				}
				created++
			}
			return nil
		}
		if err := seed(DefaultExpenseCategories, models.TypeCredit); err != nil {
			return err
		}
		return seed(DefaultIncomeCategories, models.TypeDebit)
	})
	if err != nil {
		return 0, fmt.Errorf("failed to seed default categories: %w", err)
	}
	s.log.Info().Int("created", created).Msg("default categories seeded")
	return created, nil
}
