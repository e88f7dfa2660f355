package handlers

import (
	"strings"

	"github.com/gofiber/fiber/v3"
	"github.com/n1str/RationX/internal/models"
	"github.com/n1str/RationX/internal/services"
	"github.com/n1str/RationX/internal/utils"
)

// Categorizer suggests categories for imported rows
type Categorizer interface {
	Rules() []services.CategoryRule
	Categorize(description string, direction models.TransactionType) string
}

// RulesHandler exposes the import categorization rules
type RulesHandler struct {
	categorizer Categorizer
}

// NewRulesHandler creates a new rules handler instance
func NewRulesHandler(categorizer Categorizer) *RulesHandler {
	return &RulesHandler{categorizer: categorizer}
}

// CategorizeRequest represents the request body for TestRules
type CategorizeRequest struct {
	Description string                 `json:"description"`
	Direction   models.TransactionType `json:"direction"`
}

// GetRules returns the active rules, optionally only those for one direction
// GET /v1/rules?direction=
func (h *RulesHandler) GetRules(c fiber.Ctx) error {
	rules := h.categorizer.Rules()

	if raw := c.Query("direction"); raw != "" {
		direction, err := models.ParseTransactionType(raw)
		if err != nil {
			return utils.NewBadRequestError(err.Error(), fiber.Map{"field": "direction"})
		}
		filtered := make([]services.CategoryRule, 0, len(rules))
		for _, r := range rules {
			if r.Direction == "" || r.Direction == direction {
				filtered = append(filtered, r)
			}
		}
		rules = filtered
	}

	return c.JSON(fiber.Map{
		"rules": rules,
		"count": len(rules),
	})
}

// TestRules shows which category an import would assign to a description
// POST /v1/rules/test
func (h *RulesHandler) TestRules(c fiber.Ctx) error {
	var req CategorizeRequest
	if err := c.Bind().JSON(&req); err != nil {
		return utils.NewBadRequestError("invalid request body", nil)
	}
	if strings.TrimSpace(req.Description) == "" {
		return utils.NewBadRequestError("description is required", fiber.Map{"field": "description"})
	}
	direction, err := models.ParseTransactionType(string(req.Direction))
	if err != nil {
		return utils.NewBadRequestError(err.Error(), fiber.Map{"field": "direction"})
	}

	category := h.categorizer.Categorize(req.Description, direction)
	matched := category != ""
	if !matched {
		category = services.FallbackExpenseCategory
		if direction == models.TypeDebit {
			category = services.FallbackIncomeCategory
		}
	}

	return utils.SuccessResponse(c, fiber.Map{
		"category":  category,
		"matched":   matched,
		"direction": direction,
	})
}
