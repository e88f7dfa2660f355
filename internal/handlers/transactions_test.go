package handlers

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/gofiber/fiber/v3"
	"github.com/n1str/RationX/internal/database/db"
	"github.com/n1str/RationX/internal/models"
	"github.com/n1str/RationX/internal/services"
	"github.com/n1str/RationX/internal/utils"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTransactionApp(svc TransactionService) *fiber.App {
	h := NewTransactionHandler(svc)
	app := newTestApp()
	app.Get("/v1/transactions", h.GetTransactions)
	app.Get("/v1/transactions/:id", h.GetTransaction)
	app.Post("/v1/transactions", h.CreateTransaction)
	app.Put("/v1/transactions/:id", h.UpdateTransaction)
	app.Delete("/v1/transactions/:id", h.DeleteTransaction)
	return app
}

func sampleTransaction(id int64, status models.TransactionStatus) *models.Transaction {
	return &models.Transaction{
		ID:       id,
		UserID:   testUserID,
		Status:   status,
		DateTime: time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC),
		Register: &models.RegTransaction{
			ID:     id,
			Type:   models.TypeCredit,
			Amount: decimal.RequireFromString("100.50"),
		},
		Category: &models.Category{ID: 1, Name: "Groceries", Type: models.TypeCredit},
	}
}

// TestGetTransactions_Filters tests query parsing and pagination
func TestGetTransactions_Filters(t *testing.T) {
	var got db.ListTransactionsParams
	svc := &MockTransactionService{
		ListFunc: func(ctx context.Context, userID int64, filter db.ListTransactionsParams) ([]models.Transaction, int64, error) {
			assert.Equal(t, testUserID, userID)
			got = filter
			return []models.Transaction{*sampleTransaction(1, models.StatusNew)}, 11, nil
		},
	}

	req := jsonRequest("GET", "/v1/transactions?status=new&type=expense&category_id=3&recipient_tax_id=1234567890"+
		"&sender_bank=Alfa&from=2024-03-01&to=2024-03-31&min_amount=10&max_amount=500.5&page=2&page_size=5", nil)
	status, body := doRequest(t, newTransactionApp(svc), req)

	require.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, models.StatusNew, got.Status)
	assert.Equal(t, models.TypeCredit, got.Type)
	assert.Equal(t, int64(3), got.CategoryID)
	assert.Equal(t, "1234567890", got.RecipientTaxID)
	assert.Equal(t, "Alfa", got.SenderBank)
	assert.Equal(t, time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC), got.From)
	assert.Equal(t, 31, got.To.Day())
	assert.Equal(t, 23, got.To.Hour(), "to covers the whole day")
	require.NotNil(t, got.MinAmount)
	assert.Equal(t, "10", got.MinAmount.String())
	require.NotNil(t, got.MaxAmount)
	assert.Equal(t, "500.5", got.MaxAmount.String())
	assert.Equal(t, int32(5), got.Limit)
	assert.Equal(t, int32(5), got.Offset)

	pagination := body["pagination"].(map[string]interface{})
	assert.Equal(t, float64(11), pagination["total"])
	assert.Equal(t, float64(3), pagination["pages"])
	assert.Len(t, body["data"], 1)
}

// TestGetTransactions_BadFilters tests that malformed filters are rejected
func TestGetTransactions_BadFilters(t *testing.T) {
	tests := []struct {
		name  string
		query string
	}{
		{"unknown status", "status=LOST"},
		{"unknown type", "type=sideways"},
		{"bad category id", "category_id=abc"},
		{"bad date", "from=01-03-2024"},
		{"reversed range", "from=2024-03-10&to=2024-03-01"},
		{"negative amount", "min_amount=-5"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := &MockTransactionService{
				ListFunc: func(ctx context.Context, userID int64, filter db.ListTransactionsParams) ([]models.Transaction, int64, error) {
					t.Error("service must not be called")
					return nil, 0, nil
				},
			}
			status, body := doRequest(t, newTransactionApp(svc), jsonRequest("GET", "/v1/transactions?"+tt.query, nil))
			assert.Equal(t, fiber.StatusBadRequest, status)
			assert.Equal(t, "BAD_REQUEST", body["code"])
		})
	}
}

// TestGetTransaction tests lookup, not found and bad ids
func TestGetTransaction(t *testing.T) {
	svc := &MockTransactionService{
		GetFunc: func(ctx context.Context, userID, id int64) (*models.Transaction, error) {
			if id == 7 {
				return sampleTransaction(7, models.StatusNew), nil
			}
			return nil, fmt.Errorf("%w: transaction %d not found", services.ErrNotFound, id)
		},
	}
	app := newTransactionApp(svc)

	status, body := doRequest(t, app, jsonRequest("GET", "/v1/transactions/7", nil))
	require.Equal(t, fiber.StatusOK, status)
	data := body["data"].(map[string]interface{})
	assert.Equal(t, float64(7), data["id"])

	status, _ = doRequest(t, app, jsonRequest("GET", "/v1/transactions/8", nil))
	assert.Equal(t, fiber.StatusNotFound, status)

	status, _ = doRequest(t, app, jsonRequest("GET", "/v1/transactions/abc", nil))
	assert.Equal(t, fiber.StatusBadRequest, status)
}

// TestCreateTransaction tests request binding and the created response
func TestCreateTransaction(t *testing.T) {
	var got services.TransactionRequest
	svc := &MockTransactionService{
		CreateFunc: func(ctx context.Context, userID int64, req services.TransactionRequest) (*models.Transaction, error) {
			got = req
			return sampleTransaction(1, models.StatusNew), nil
		},
	}

	body := map[string]interface{}{
		"sender":         map[string]interface{}{"name": "Ivan", "tax_id": "1234567890"},
		"recipient":      map[string]interface{}{"name": "Shop", "tax_id": "123456789012", "person_type": "LEGAL_ENTITY"},
		"sender_bank":    map[string]interface{}{"name": "Alfa", "account_number": "40817810000000000001"},
		"recipient_bank": map[string]interface{}{"name": "Sber", "account_number": "40702810000000000002"},
		"category":       "Groceries",
		"direction":      "CREDIT",
		"amount":         "100.50",
		"comment":        "weekly shop",
	}
	status, resp := doRequest(t, newTransactionApp(svc), jsonRequest("POST", "/v1/transactions", body))

	require.Equal(t, fiber.StatusCreated, status)
	assert.Equal(t, true, resp["success"])
	assert.Equal(t, "1234567890", got.Sender.TaxID)
	assert.Equal(t, models.PersonLegalEntity, got.Recipient.PersonType)
	assert.Equal(t, "Groceries", got.Category)
	assert.True(t, decimal.RequireFromString("100.50").Equal(got.Amount))
	comment, ok := got.Comment.Get()
	assert.True(t, ok)
	assert.Equal(t, "weekly shop", comment)
	assert.False(t, got.Status.IsSet())
}

// TestCreateTransaction_Errors tests error mapping for create
func TestCreateTransaction_Errors(t *testing.T) {
	svc := &MockTransactionService{
		CreateFunc: func(ctx context.Context, userID int64, req services.TransactionRequest) (*models.Transaction, error) {
			return nil, &services.ValidationError{Field: "sender.tax_id", Message: "tax id must have 10 or 12 digits"}
		},
	}
	app := newTransactionApp(svc)

	status, body := doRequest(t, app, jsonRequest("POST", "/v1/transactions", map[string]interface{}{"category": "x"}))
	assert.Equal(t, fiber.StatusBadRequest, status)
	assert.Equal(t, "tax id must have 10 or 12 digits", body["message"])

	status, _ = doRequest(t, app, jsonRequest("POST", "/v1/transactions", "not-an-object"))
	assert.Equal(t, fiber.StatusBadRequest, status)
}

// TestUpdateTransaction tests status mapping for the edit guard and passthrough of optional fields
func TestUpdateTransaction(t *testing.T) {
	tests := []struct {
		name       string
		serviceErr error
		wantStatus int
	}{
		{"success", nil, fiber.StatusOK},
		{"not editable", fmt.Errorf("%w: only NEW transactions can be edited", services.ErrPermissionDenied), fiber.StatusForbidden},
		{"not found", fmt.Errorf("%w: transaction not found", services.ErrNotFound), fiber.StatusNotFound},
		{"conflict", fmt.Errorf("%w: account already registered", services.ErrConflict), fiber.StatusConflict},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got services.TransactionRequest
			svc := &MockTransactionService{
				UpdateFunc: func(ctx context.Context, userID, id int64, req services.TransactionRequest) (*models.Transaction, error) {
					assert.Equal(t, int64(5), id)
					got = req
					if tt.serviceErr != nil {
						return nil, tt.serviceErr
					}
					return sampleTransaction(id, models.StatusAccepted), nil
				},
			}

			body := map[string]interface{}{"category": "Groceries", "amount": "10", "status": "ACCEPTED"}
			status, _ := doRequest(t, newTransactionApp(svc), jsonRequest("PUT", "/v1/transactions/5", body))

			assert.Equal(t, tt.wantStatus, status)
			st, ok := got.Status.Get()
			assert.True(t, ok)
			assert.Equal(t, models.StatusAccepted, st)
			assert.False(t, got.Comment.IsSet(), "absent comment stays absent")
		})
	}
}

// TestDeleteTransaction tests soft delete and the locked-status error
func TestDeleteTransaction(t *testing.T) {
	svc := &MockTransactionService{
		MarkAsDeletedFunc: func(ctx context.Context, userID, id int64) (*models.Transaction, error) {
			if id == 2 {
				return nil, fmt.Errorf("%w: deletion is forbidden for transactions with status ACCEPTED", services.ErrIllegalState)
			}
			return sampleTransaction(id, models.StatusPaymentDeleted), nil
		},
	}
	app := newTransactionApp(svc)

	status, body := doRequest(t, app, jsonRequest("DELETE", "/v1/transactions/1", nil))
	require.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, "PAYMENT_DELETED", body["data"].(map[string]interface{})["status"])

	status, body = doRequest(t, app, jsonRequest("DELETE", "/v1/transactions/2", nil))
	assert.Equal(t, fiber.StatusConflict, status)
	assert.Equal(t, "ILLEGAL_STATE", body["code"])
	assert.Contains(t, body["message"], "ACCEPTED")
}

// TestTransactions_Unauthenticated tests that a missing user id is rejected
func TestTransactions_Unauthenticated(t *testing.T) {
	h := NewTransactionHandler(&MockTransactionService{})
	app := fiber.New(fiber.Config{ErrorHandler: utils.ErrorHandler})
	app.Get("/v1/transactions", h.GetTransactions)

	status, _ := doRequest(t, app, jsonRequest("GET", "/v1/transactions", nil))
	assert.Equal(t, fiber.StatusUnauthorized, status)
}
