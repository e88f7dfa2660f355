package handlers

import (
	"context"

	"github.com/gofiber/fiber/v3"
	"github.com/n1str/RationX/internal/models"
	"github.com/n1str/RationX/internal/utils"
)

// CategoryService is the category registry used by CategoryHandler
type CategoryService interface {
	List(ctx context.Context) ([]models.Category, error)
	ListByType(ctx context.Context, typ models.TransactionType) ([]models.Category, error)
	Get(ctx context.Context, id int64) (*models.Category, error)
	Create(ctx context.Context, name string, typ models.TransactionType) (*models.Category, error)
	Update(ctx context.Context, id int64, name string, typ models.TransactionType) (*models.Category, error)
	Delete(ctx context.Context, id int64) error
}

type CategoryHandler struct {
	categories CategoryService
}

func NewCategoryHandler(categories CategoryService) *CategoryHandler {
	return &CategoryHandler{categories: categories}
}

type CategoryRequest struct {
	Name string                 `json:"name"`
	Type models.TransactionType `json:"type"`
}

// normalizedType accepts income/expense aliases. Unknown values pass
// through so the service reports them.
func normalizedType(raw models.TransactionType) models.TransactionType {
	if typ, err := models.ParseTransactionType(string(raw)); err == nil {
		return typ
	}
	return raw
}

// GetCategories handles GET /v1/categories
func (h *CategoryHandler) GetCategories(c fiber.Ctx) error {
	categories, err := h.categories.List(c.Context())
	if err != nil {
		return utils.FromError(err)
	}
	return utils.SuccessResponse(c, categories)
}

// GetCategoriesByType handles GET /v1/categories/by-type?type=DEBIT|CREDIT
func (h *CategoryHandler) GetCategoriesByType(c fiber.Ctx) error {
	typ := normalizedType(models.TransactionType(c.Query("type")))
	categories, err := h.categories.ListByType(c.Context(), typ)
	if err != nil {
		return utils.FromError(err)
	}
	return utils.SuccessResponse(c, categories)
}

// GetCategory handles GET /v1/categories/:id
func (h *CategoryHandler) GetCategory(c fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return err
	}
	category, err := h.categories.Get(c.Context(), id)
	if err != nil {
		return utils.FromError(err)
	}
	return utils.SuccessResponse(c, category)
}

// CreateCategory handles POST /v1/categories
func (h *CategoryHandler) CreateCategory(c fiber.Ctx) error {
	var req CategoryRequest
	if err := c.Bind().JSON(&req); err != nil {
		return utils.NewBadRequestError("Invalid request body", nil)
	}

	category, err := h.categories.Create(c.Context(), req.Name, normalizedType(req.Type))
	if err != nil {
		return utils.FromError(err)
	}
	return utils.CreatedResponse(c, category)
}

// UpdateCategory handles PUT /v1/categories/:id
func (h *CategoryHandler) UpdateCategory(c fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return err
	}
	var req CategoryRequest
	if err := c.Bind().JSON(&req); err != nil {
		return utils.NewBadRequestError("Invalid request body", nil)
	}

	category, err := h.categories.Update(c.Context(), id, req.Name, normalizedType(req.Type))
	if err != nil {
		return utils.FromError(err)
	}
	return utils.SuccessResponse(c, category)
}

// DeleteCategory handles DELETE /v1/categories/:id
func (h *CategoryHandler) DeleteCategory(c fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return err
	}
	if err := h.categories.Delete(c.Context(), id); err != nil {
		return utils.FromError(err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}
