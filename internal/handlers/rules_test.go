package handlers

import (
	"testing"

	"github.com/gofiber/fiber/v3"
	"github.com/n1str/RationX/internal/services"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRulesApp(t *testing.T) *fiber.App {
	t.Helper()
	categorizer, err := services.NewCategorizer(services.DefaultCategoryRules)
	require.NoError(t, err)

	h := NewRulesHandler(categorizer)
	app := newTestApp()
	app.Get("/v1/rules", h.GetRules)
	app.Post("/v1/rules/test", h.TestRules)
	return app
}

func TestGetRules(t *testing.T) {
	app := newRulesApp(t)

	status, body := doRequest(t, app, jsonRequest("GET", "/v1/rules", nil))
	require.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, float64(len(services.DefaultCategoryRules)), body["count"])

	status, body = doRequest(t, app, jsonRequest("GET", "/v1/rules?direction=income", nil))
	require.Equal(t, fiber.StatusOK, status)
	for _, r := range body["rules"].([]interface{}) {
		direction := r.(map[string]interface{})["direction"]
		assert.Contains(t, []interface{}{nil, "DEBIT"}, direction)
	}
	assert.Less(t, body["count"].(float64), float64(len(services.DefaultCategoryRules)))

	status, _ = doRequest(t, app, jsonRequest("GET", "/v1/rules?direction=sideways", nil))
	assert.Equal(t, fiber.StatusBadRequest, status)
}

func TestTestRules(t *testing.T) {
	tests := []struct {
		name         string
		body         interface{}
		wantStatus   int
		wantCategory string
		wantMatched  bool
	}{
		{"matched", map[string]string{"description": "Taxi home", "direction": "expense"}, fiber.StatusOK, "Transport", true},
		{"fallback income", map[string]string{"description": "refund", "direction": "DEBIT"}, fiber.StatusOK, "Other income", false},
		{"fallback expense", map[string]string{"description": "misc", "direction": "CREDIT"}, fiber.StatusOK, "Other expenses", false},
		{"missing description", map[string]string{"direction": "CREDIT"}, fiber.StatusBadRequest, "", false},
		{"bad direction", map[string]string{"description": "taxi", "direction": "up"}, fiber.StatusBadRequest, "", false},
		{"bad body", "nope", fiber.StatusBadRequest, "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, body := doRequest(t, newRulesApp(t), jsonRequest("POST", "/v1/rules/test", tt.body))
			require.Equal(t, tt.wantStatus, status)
			if status != fiber.StatusOK {
				return
			}
			data := body["data"].(map[string]interface{})
			assert.Equal(t, tt.wantCategory, data["category"])
			assert.Equal(t, tt.wantMatched, data["matched"])
		})
	}
}
