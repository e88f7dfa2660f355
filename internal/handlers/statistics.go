package handlers

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v3"
	"github.com/n1str/RationX/internal/services"
	"github.com/n1str/RationX/internal/utils"
)

// StatisticsService aggregates the caller's transactions
type StatisticsService interface {
	General(ctx context.Context, userID int64) (*services.GeneralStatistics, error)
	ByCategory(ctx context.Context, userID int64) (map[string]services.CategoryStatistic, error)
	ByPeriod(ctx context.Context, userID int64, from, to time.Time) ([]services.DailyStatistic, error)
	Dashboard(ctx context.Context, userID int64, from, to time.Time) (*services.Dashboard, error)
}

type StatisticsHandler struct {
	stats StatisticsService
	now   func() time.Time
}

func NewStatisticsHandler(stats StatisticsService) *StatisticsHandler {
	return &StatisticsHandler{stats: stats, now: time.Now}
}

// GetGeneral handles GET /v1/statistics
func (h *StatisticsHandler) GetGeneral(c fiber.Ctx) error {
	userID, err := currentUserID(c)
	if err != nil {
		return err
	}
	stats, err := h.stats.General(c.Context(), userID)
	if err != nil {
		return utils.FromError(err)
	}
	return utils.SuccessResponse(c, stats)
}

// GetByCategory handles GET /v1/statistics/by-category
func (h *StatisticsHandler) GetByCategory(c fiber.Ctx) error {
	userID, err := currentUserID(c)
	if err != nil {
		return err
	}
	stats, err := h.stats.ByCategory(c.Context(), userID)
	if err != nil {
		return utils.FromError(err)
	}
	return utils.SuccessResponse(c, stats)
}

// GetByPeriod handles GET /v1/statistics/by-period?start=YYYY-MM-DD&end=YYYY-MM-DD
// Both dates are required and inclusive.
func (h *StatisticsHandler) GetByPeriod(c fiber.Ctx) error {
	userID, err := currentUserID(c)
	if err != nil {
		return err
	}
	if c.Query("start") == "" || c.Query("end") == "" {
		return utils.NewBadRequestError("start and end are required", nil)
	}
	from, to, err := parseDateRange(c, h.now())
	if err != nil {
		return err
	}

	stats, err := h.stats.ByPeriod(c.Context(), userID, from, to)
	if err != nil {
		return utils.FromError(err)
	}
	return utils.SuccessResponse(c, stats)
}

// GetDashboard handles GET /v1/statistics/dashboard?start=&end=
// Without dates it covers the last 30 days.
func (h *StatisticsHandler) GetDashboard(c fiber.Ctx) error {
	userID, err := currentUserID(c)
	if err != nil {
		return err
	}
	from, to, err := parseDateRange(c, h.now())
	if err != nil {
		return err
	}

	dashboard, err := h.stats.Dashboard(c.Context(), userID, from, to)
	if err != nil {
		return utils.FromError(err)
	}
	return utils.SuccessResponse(c, dashboard)
}
