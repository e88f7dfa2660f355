package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v3"
	"github.com/n1str/RationX/internal/database/db"
	"github.com/n1str/RationX/internal/middleware"
	"github.com/n1str/RationX/internal/models"
	"github.com/n1str/RationX/internal/services"
	"github.com/n1str/RationX/internal/utils"
	"github.com/stretchr/testify/require"
)

const testUserID int64 = 42

// newTestApp returns an app with the production error handler whose
// requests are authenticated as testUserID
func newTestApp() *fiber.App {
	app := fiber.New(fiber.Config{ErrorHandler: utils.ErrorHandler})
	app.Use(func(c fiber.Ctx) error {
		c.Locals(middleware.LocalUserID, testUserID)
		return c.Next()
	})
	return app
}

func jsonRequest(method, target string, body interface{}) *http.Request {
	var reader io.Reader
	if body != nil {
		data, _ := json.Marshal(body)
		reader = bytes.NewReader(data)
	}
	req := httptest.NewRequest(method, target, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return req
}

// doRequest executes req and decodes a JSON body into a map
func doRequest(t *testing.T, app *fiber.App, req *http.Request) (int, map[string]interface{}) {
	t.Helper()
	resp, err := app.Test(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	var result map[string]interface{}
	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	if len(data) > 0 {
		require.NoError(t, json.Unmarshal(data, &result), string(data))
	}
	return resp.StatusCode, result
}

// MockTransactionService is a mock implementation of TransactionService for testing
type MockTransactionService struct {
	GetFunc           func(ctx context.Context, userID, id int64) (*models.Transaction, error)
	ListFunc          func(ctx context.Context, userID int64, filter db.ListTransactionsParams) ([]models.Transaction, int64, error)
	CreateFunc        func(ctx context.Context, userID int64, req services.TransactionRequest) (*models.Transaction, error)
	UpdateFunc        func(ctx context.Context, userID, id int64, req services.TransactionRequest) (*models.Transaction, error)
	MarkAsDeletedFunc func(ctx context.Context, userID, id int64) (*models.Transaction, error)
}

func (m *MockTransactionService) Get(ctx context.Context, userID, id int64) (*models.Transaction, error) {
	if m.GetFunc != nil {
		return m.GetFunc(ctx, userID, id)
	}
	return nil, fmt.Errorf("%w: transaction %d not found", services.ErrNotFound, id)
}

func (m *MockTransactionService) List(ctx context.Context, userID int64, filter db.ListTransactionsParams) ([]models.Transaction, int64, error) {
	if m.ListFunc != nil {
		return m.ListFunc(ctx, userID, filter)
	}
	return []models.Transaction{}, 0, nil
}

func (m *MockTransactionService) Create(ctx context.Context, userID int64, req services.TransactionRequest) (*models.Transaction, error) {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, userID, req)
	}
	return nil, fmt.Errorf("create not configured")
}

func (m *MockTransactionService) Update(ctx context.Context, userID, id int64, req services.TransactionRequest) (*models.Transaction, error) {
	if m.UpdateFunc != nil {
		return m.UpdateFunc(ctx, userID, id, req)
	}
	return nil, fmt.Errorf("update not configured")
}

func (m *MockTransactionService) MarkAsDeleted(ctx context.Context, userID, id int64) (*models.Transaction, error) {
	if m.MarkAsDeletedFunc != nil {
		return m.MarkAsDeletedFunc(ctx, userID, id)
	}
	return nil, fmt.Errorf("delete not configured")
}

// MockCategoryService is a mock implementation of CategoryService for testing
type MockCategoryService struct {
	ListFunc       func(ctx context.Context) ([]models.Category, error)
	ListByTypeFunc func(ctx context.Context, typ models.TransactionType) ([]models.Category, error)
	GetFunc        func(ctx context.Context, id int64) (*models.Category, error)
	CreateFunc     func(ctx context.Context, name string, typ models.TransactionType) (*models.Category, error)
	UpdateFunc     func(ctx context.Context, id int64, name string, typ models.TransactionType) (*models.Category, error)
	DeleteFunc     func(ctx context.Context, id int64) error
}

func (m *MockCategoryService) List(ctx context.Context) ([]models.Category, error) {
	if m.ListFunc != nil {
		return m.ListFunc(ctx)
	}
	return []models.Category{}, nil
}

func (m *MockCategoryService) ListByType(ctx context.Context, typ models.TransactionType) ([]models.Category, error) {
	if m.ListByTypeFunc != nil {
		return m.ListByTypeFunc(ctx, typ)
	}
	return []models.Category{}, nil
}

func (m *MockCategoryService) Get(ctx context.Context, id int64) (*models.Category, error) {
	if m.GetFunc != nil {
		return m.GetFunc(ctx, id)
	}
	return nil, fmt.Errorf("%w: category %d not found", services.ErrNotFound, id)
}

func (m *MockCategoryService) Create(ctx context.Context, name string, typ models.TransactionType) (*models.Category, error) {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, name, typ)
	}
	return &models.Category{ID: 1, Name: name, Type: typ}, nil
}

func (m *MockCategoryService) Update(ctx context.Context, id int64, name string, typ models.TransactionType) (*models.Category, error) {
	if m.UpdateFunc != nil {
		return m.UpdateFunc(ctx, id, name, typ)
	}
	return &models.Category{ID: id, Name: name, Type: typ}, nil
}

func (m *MockCategoryService) Delete(ctx context.Context, id int64) error {
	if m.DeleteFunc != nil {
		return m.DeleteFunc(ctx, id)
	}
	return nil
}

// MockStatisticsService is a mock implementation of StatisticsService for testing
type MockStatisticsService struct {
	GeneralFunc    func(ctx context.Context, userID int64) (*services.GeneralStatistics, error)
	ByCategoryFunc func(ctx context.Context, userID int64) (map[string]services.CategoryStatistic, error)
	ByPeriodFunc   func(ctx context.Context, userID int64, from, to time.Time) ([]services.DailyStatistic, error)
	DashboardFunc  func(ctx context.Context, userID int64, from, to time.Time) (*services.Dashboard, error)
}

func (m *MockStatisticsService) General(ctx context.Context, userID int64) (*services.GeneralStatistics, error) {
	if m.GeneralFunc != nil {
		return m.GeneralFunc(ctx, userID)
	}
	return &services.GeneralStatistics{}, nil
}

func (m *MockStatisticsService) ByCategory(ctx context.Context, userID int64) (map[string]services.CategoryStatistic, error) {
	if m.ByCategoryFunc != nil {
		return m.ByCategoryFunc(ctx, userID)
	}
	return map[string]services.CategoryStatistic{}, nil
}

func (m *MockStatisticsService) ByPeriod(ctx context.Context, userID int64, from, to time.Time) ([]services.DailyStatistic, error) {
	if m.ByPeriodFunc != nil {
		return m.ByPeriodFunc(ctx, userID, from, to)
	}
	return []services.DailyStatistic{}, nil
}

func (m *MockStatisticsService) Dashboard(ctx context.Context, userID int64, from, to time.Time) (*services.Dashboard, error) {
	if m.DashboardFunc != nil {
		return m.DashboardFunc(ctx, userID, from, to)
	}
	return &services.Dashboard{}, nil
}

// MockExporter is a mock implementation of Exporter for testing
type MockExporter struct {
	TransactionsWorkbookFunc func(ctx context.Context, userID int64, filter db.ListTransactionsParams) (*bytes.Buffer, error)
}

func (m *MockExporter) TransactionsWorkbook(ctx context.Context, userID int64, filter db.ListTransactionsParams) (*bytes.Buffer, error) {
	if m.TransactionsWorkbookFunc != nil {
		return m.TransactionsWorkbookFunc(ctx, userID, filter)
	}
	return bytes.NewBufferString("PK-mock-workbook"), nil
}

// MockExportStorage is a mock implementation of ExportStorage for testing
type MockExportStorage struct {
	GenerateExportKeyFunc    func(userID int64, filename string) (string, error)
	UploadFunc               func(ctx context.Context, key, contentType string, body io.Reader) error
	GeneratePresignedURLFunc func(ctx context.Context, key string, expiry time.Duration) (string, error)
}

func (m *MockExportStorage) GenerateExportKey(userID int64, filename string) (string, error) {
	if m.GenerateExportKeyFunc != nil {
		return m.GenerateExportKeyFunc(userID, filename)
	}
	return fmt.Sprintf("exports/%d/mock-%s", userID, filename), nil
}

func (m *MockExportStorage) Upload(ctx context.Context, key, contentType string, body io.Reader) error {
	if m.UploadFunc != nil {
		return m.UploadFunc(ctx, key, contentType, body)
	}
	return nil
}

func (m *MockExportStorage) GeneratePresignedURL(ctx context.Context, key string, expiry time.Duration) (string, error) {
	if m.GeneratePresignedURLFunc != nil {
		return m.GeneratePresignedURLFunc(ctx, key, expiry)
	}
	return fmt.Sprintf("https://s3.amazonaws.com/bucket/%s?X-Amz-Signature=mock", key), nil
}

// MockAuthService is a mock implementation of AuthService for testing
type MockAuthService struct {
	RegisterFunc      func(ctx context.Context, username, password string) (*models.User, error)
	LoginFunc         func(ctx context.Context, username, password string) (*services.LoginResult, error)
	ValidateTokenFunc func(ctx context.Context, token string) (*services.Claims, error)
	LogoutFunc        func(ctx context.Context, jti string, expiresAt time.Time) error
	CurrentUserFunc   func(ctx context.Context, userID int64) (*models.User, error)
}

func (m *MockAuthService) Register(ctx context.Context, username, password string) (*models.User, error) {
	if m.RegisterFunc != nil {
		return m.RegisterFunc(ctx, username, password)
	}
	return &models.User{ID: 1, Username: username, Role: models.RoleUser, Enabled: true}, nil
}

func (m *MockAuthService) Login(ctx context.Context, username, password string) (*services.LoginResult, error) {
	if m.LoginFunc != nil {
		return m.LoginFunc(ctx, username, password)
	}
	return nil, fmt.Errorf("%w: invalid username or password", services.ErrUnauthorized)
}

func (m *MockAuthService) ValidateToken(ctx context.Context, token string) (*services.Claims, error) {
	if m.ValidateTokenFunc != nil {
		return m.ValidateTokenFunc(ctx, token)
	}
	return nil, fmt.Errorf("%w: invalid token", services.ErrUnauthorized)
}

func (m *MockAuthService) Logout(ctx context.Context, jti string, expiresAt time.Time) error {
	if m.LogoutFunc != nil {
		return m.LogoutFunc(ctx, jti, expiresAt)
	}
	return nil
}

func (m *MockAuthService) CurrentUser(ctx context.Context, userID int64) (*models.User, error) {
	if m.CurrentUserFunc != nil {
		return m.CurrentUserFunc(ctx, userID)
	}
	return &models.User{ID: userID, Username: "alice", Role: models.RoleUser, Enabled: true}, nil
}

var (
	_ TransactionService = (*MockTransactionService)(nil)
	_ CategoryService    = (*MockCategoryService)(nil)
	_ StatisticsService  = (*MockStatisticsService)(nil)
	_ Exporter           = (*MockExporter)(nil)
	_ ExportStorage      = (*MockExportStorage)(nil)
	_ AuthService        = (*MockAuthService)(nil)
)
