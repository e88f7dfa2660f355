package handlers

import (
	"context"

	"github.com/gofiber/fiber/v3"
	"github.com/n1str/RationX/internal/database/db"
	"github.com/n1str/RationX/internal/models"
	"github.com/n1str/RationX/internal/services"
	"github.com/n1str/RationX/internal/utils"
)

// TransactionService is the transaction workflow used by TransactionHandler
type TransactionService interface {
	Get(ctx context.Context, userID, id int64) (*models.Transaction, error)
	List(ctx context.Context, userID int64, filter db.ListTransactionsParams) ([]models.Transaction, int64, error)
	Create(ctx context.Context, userID int64, req services.TransactionRequest) (*models.Transaction, error)
	Update(ctx context.Context, userID, id int64, req services.TransactionRequest) (*models.Transaction, error)
	MarkAsDeleted(ctx context.Context, userID, id int64) (*models.Transaction, error)
}

// TransactionHandler handles transaction-related requests
type TransactionHandler struct {
	transactions TransactionService
}

// NewTransactionHandler creates a new transaction handler
func NewTransactionHandler(transactions TransactionService) *TransactionHandler {
	return &TransactionHandler{transactions: transactions}
}

// GetTransactions returns the caller's transactions, newest first
// GET /v1/transactions?status=&type=&category_id=&recipient_tax_id=&sender_bank=&recipient_bank=&from=&to=&min_amount=&max_amount=&page=&page_size=
func (h *TransactionHandler) GetTransactions(c fiber.Ctx) error {
	userID, err := currentUserID(c)
	if err != nil {
		return err
	}

	filter, err := parseTransactionFilter(c)
	if err != nil {
		return err
	}
	page, pageSize, limit, offset := utils.Pagination(c)
	filter.Limit = limit
	filter.Offset = offset

	transactions, total, err := h.transactions.List(c.Context(), userID, filter)
	if err != nil {
		return utils.FromError(err)
	}

	return utils.PaginatedResponse(c, transactions, page, pageSize, total)
}

// GetTransaction returns one transaction
// GET /v1/transactions/:id
func (h *TransactionHandler) GetTransaction(c fiber.Ctx) error {
	userID, err := currentUserID(c)
	if err != nil {
		return err
	}
	id, err := parseID(c, "id")
	if err != nil {
		return err
	}

	txn, err := h.transactions.Get(c.Context(), userID, id)
	if err != nil {
		return utils.FromError(err)
	}
	return utils.SuccessResponse(c, txn)
}

// CreateTransaction records a new transaction with status NEW
// POST /v1/transactions
func (h *TransactionHandler) CreateTransaction(c fiber.Ctx) error {
	userID, err := currentUserID(c)
	if err != nil {
		return err
	}

	var req services.TransactionRequest
	if err := c.Bind().JSON(&req); err != nil {
		return utils.NewBadRequestError("Invalid request body", nil)
	}

	txn, err := h.transactions.Create(c.Context(), userID, req)
	if err != nil {
		return utils.FromError(err)
	}
	return utils.CreatedResponse(c, txn)
}

// UpdateTransaction edits a NEW transaction. Status and comment change only
// when present in the body.
// PUT /v1/transactions/:id
func (h *TransactionHandler) UpdateTransaction(c fiber.Ctx) error {
	userID, err := currentUserID(c)
	if err != nil {
		return err
	}
	id, err := parseID(c, "id")
	if err != nil {
		return err
	}

	var req services.TransactionRequest
	if err := c.Bind().JSON(&req); err != nil {
		return utils.NewBadRequestError("Invalid request body", nil)
	}

	txn, err := h.transactions.Update(c.Context(), userID, id, req)
	if err != nil {
		return utils.FromError(err)
	}
	return utils.SuccessResponse(c, txn)
}

// DeleteTransaction moves a transaction to PAYMENT_DELETED
// DELETE /v1/transactions/:id
func (h *TransactionHandler) DeleteTransaction(c fiber.Ctx) error {
	userID, err := currentUserID(c)
	if err != nil {
		return err
	}
	id, err := parseID(c, "id")
	if err != nil {
		return err
	}

	txn, err := h.transactions.MarkAsDeleted(c.Context(), userID, id)
	if err != nil {
		return utils.FromError(err)
	}
	return utils.SuccessResponse(c, txn)
}
