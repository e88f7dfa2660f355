package handlers

import (
	"strconv"
	"strings"
	"time"

	"github.com/gofiber/fiber/v3"
	"github.com/n1str/RationX/internal/database/db"
	"github.com/n1str/RationX/internal/middleware"
	"github.com/n1str/RationX/internal/models"
	"github.com/n1str/RationX/internal/utils"
	"github.com/shopspring/decimal"
)

const dateLayout = "2006-01-02"

// parseTransactionFilter reads the list filters from the query string.
// Dates are YYYY-MM-DD and "to" includes the whole day.
func parseTransactionFilter(c fiber.Ctx) (db.ListTransactionsParams, error) {
	var filter db.ListTransactionsParams

	if v := c.Query("status"); v != "" {
		status, err := models.ParseTransactionStatus(v)
		if err != nil {
			return filter, utils.NewBadRequestError(err.Error(), fiber.Map{"field": "status"})
		}
		filter.Status = status
	}
	if v := c.Query("type"); v != "" {
		typ, err := models.ParseTransactionType(v)
		if err != nil {
			return filter, utils.NewBadRequestError(err.Error(), fiber.Map{"field": "type"})
		}
		filter.Type = typ
	}
	if v := c.Query("category_id"); v != "" {
		id, err := strconv.ParseInt(v, 10, 64)
		if err != nil || id <= 0 {
			return filter, utils.NewBadRequestError("category_id must be a positive integer", fiber.Map{"field": "category_id"})
		}
		filter.CategoryID = id
	}

	filter.RecipientTaxID = strings.TrimSpace(c.Query("recipient_tax_id"))
	filter.SenderBank = strings.TrimSpace(c.Query("sender_bank"))
	filter.RecipientBank = strings.TrimSpace(c.Query("recipient_bank"))

	if v := c.Query("from"); v != "" {
		from, err := time.Parse(dateLayout, v)
		if err != nil {
			return filter, utils.NewBadRequestError("from must be a YYYY-MM-DD date", fiber.Map{"field": "from"})
		}
		filter.From = from
	}
	if v := c.Query("to"); v != "" {
		to, err := time.Parse(dateLayout, v)
		if err != nil {
			return filter, utils.NewBadRequestError("to must be a YYYY-MM-DD date", fiber.Map{"field": "to"})
		}
		filter.To = to.Add(24*time.Hour - time.Nanosecond)
	}
	if !filter.From.IsZero() && !filter.To.IsZero() && filter.From.After(filter.To) {
		return filter, utils.NewBadRequestError("from is after to", nil)
	}

	var err error
	if filter.MinAmount, err = parseAmount(c, "min_amount"); err != nil {
		return filter, err
	}
	if filter.MaxAmount, err = parseAmount(c, "max_amount"); err != nil {
		return filter, err
	}

	return filter, nil
}

func parseAmount(c fiber.Ctx, key string) (*decimal.Decimal, error) {
	v := c.Query(key)
	if v == "" {
		return nil, nil
	}
	amount, err := decimal.NewFromString(v)
	if err != nil || amount.IsNegative() {
		return nil, utils.NewBadRequestError(key+" must be a non-negative number", fiber.Map{"field": key})
	}
	return &amount, nil
}

// parseID reads a positive int64 path parameter
func parseID(c fiber.Ctx, name string) (int64, error) {
	id, err := strconv.ParseInt(c.Params(name), 10, 64)
	if err != nil || id <= 0 {
		return 0, utils.NewBadRequestError("Invalid "+name, nil)
	}
	return id, nil
}

// parseDateRange reads start and end dates, defaulting to the last 30 days
func parseDateRange(c fiber.Ctx, now time.Time) (time.Time, time.Time, error) {
	startStr, endStr := c.Query("start"), c.Query("end")
	if startStr == "" && endStr == "" {
		end := now
		return end.AddDate(0, 0, -29), end, nil
	}

	start, err := time.Parse(dateLayout, startStr)
	if err != nil {
		return time.Time{}, time.Time{}, utils.NewBadRequestError("start must be a YYYY-MM-DD date", fiber.Map{"field": "start"})
	}
	end, err := time.Parse(dateLayout, endStr)
	if err != nil {
		return time.Time{}, time.Time{}, utils.NewBadRequestError("end must be a YYYY-MM-DD date", fiber.Map{"field": "end"})
	}
	return start, end, nil
}

// currentUserID returns the id set by the auth middleware
func currentUserID(c fiber.Ctx) (int64, error) {
	id, ok := middleware.UserID(c)
	if !ok {
		return 0, utils.NewUnauthorizedError("unauthorized - user not authenticated")
	}
	return id, nil
}
