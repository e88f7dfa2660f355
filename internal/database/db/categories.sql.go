package db

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/n1str/RationX/internal/models"
)

const getCategory = `-- name: GetCategory :one
SELECT id, name, type FROM categories WHERE id = $1
`

func (q *Queries) GetCategory(ctx context.Context, id int64) (*models.Category, error) {
	return scanCategory(q.db.QueryRow(ctx, getCategory, id))
}

const findCategoryByName = `-- name: FindCategoryByName :one
SELECT id, name, type FROM categories WHERE LOWER(name) = LOWER($1)
`

// FindCategoryByName matches case-insensitively and returns nil on a miss
func (q *Queries) FindCategoryByName(ctx context.Context, name string) (*models.Category, error) {
	return scanCategory(q.db.QueryRow(ctx, findCategoryByName, name))
}

func scanCategory(row pgx.Row) (*models.Category, error) {
	var c models.Category
	var typ string
	err := row.Scan(&c.ID, &c.Name, &typ)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	c.Type = models.TransactionType(typ)
	return &c, nil
}

const listCategories = `-- name: ListCategories :many
SELECT id, name, type FROM categories ORDER BY type, name
`

func (q *Queries) ListCategories(ctx context.Context) ([]models.Category, error) {
	return q.queryCategories(ctx, listCategories)
}

const listCategoriesByType = `-- name: ListCategoriesByType :many
SELECT id, name, type FROM categories WHERE type = $1 ORDER BY name
`

func (q *Queries) ListCategoriesByType(ctx context.Context, typ models.TransactionType) ([]models.Category, error) {
	return q.queryCategories(ctx, listCategoriesByType, string(typ))
}

func (q *Queries) queryCategories(ctx context.Context, query string, args ...interface{}) ([]models.Category, error) {
	rows, err := q.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := []models.Category{}
	for rows.Next() {
		var c models.Category
		var typ string
		if err := rows.Scan(&c.ID, &c.Name, &typ); err != nil {
			return nil, err
		}
		c.Type = models.TransactionType(typ)
		items = append(items, c)
	}
	return items, rows.Err()
}

const createCategory = `-- name: CreateCategory :one
INSERT INTO categories (name, type) VALUES ($1, $2) RETURNING id
`

func (q *Queries) CreateCategory(ctx context.Context, c *models.Category) error {
	return q.db.QueryRow(ctx, createCategory, c.Name, string(c.Type)).Scan(&c.ID)
}

const updateCategory = `-- name: UpdateCategory :exec
UPDATE categories SET name = $2, type = $3 WHERE id = $1
`

func (q *Queries) UpdateCategory(ctx context.Context, c *models.Category) error {
	_, err := q.db.Exec(ctx, updateCategory, c.ID, c.Name, string(c.Type))
	return err
}

const deleteCategory = `-- name: DeleteCategory :exec
DELETE FROM categories WHERE id = $1
`

func (q *Queries) DeleteCategory(ctx context.Context, id int64) error {
	_, err := q.db.Exec(ctx, deleteCategory, id)
	return err
}

const countCategoryUsage = `-- name: CountCategoryUsage :one
SELECT COUNT(*) FROM transactions WHERE category_id = $1
`

func (q *Queries) CountCategoryUsage(ctx context.Context, id int64) (int64, error) {
	var count int64
	err := q.db.QueryRow(ctx, countCategoryUsage, id).Scan(&count)
	return count, err
}
