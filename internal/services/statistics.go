package services

import (
	"context"
	"fmt"
	"time"

	"github.com/n1str/RationX/internal/database/db"
	"github.com/n1str/RationX/internal/models"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"
)

const dateLayout = "2006-01-02"

type GeneralStatistics struct {
	TotalIncome      decimal.Decimal `json:"total_income"`
	TotalExpense     decimal.Decimal `json:"total_expense"`
	Balance          decimal.Decimal `json:"balance"`
	TransactionCount int64           `json:"transaction_count"`
}

type CategoryStatistic struct {
	Type models.TransactionType `json:"type"`
	Sum  decimal.Decimal        `json:"sum"`
}

type DailyStatistic struct {
	Date             string          `json:"date"`
	Income           decimal.Decimal `json:"income"`
	Expenses         decimal.Decimal `json:"expenses"`
	Balance          decimal.Decimal `json:"balance"`
	TransactionCount int64           `json:"transaction_count"`
}

type Dashboard struct {
	General    GeneralStatistics            `json:"general"`
	ByCategory map[string]CategoryStatistic `json:"by_category"`
	Daily      []DailyStatistic             `json:"daily"`
	From       string                       `json:"from"`
	To         string                       `json:"to"`
}

// StatisticsService aggregates a user's non-deleted transactions
type StatisticsService struct {
	store db.Querier
	log   zerolog.Logger
}

func NewStatisticsService(store db.Querier, log zerolog.Logger) *StatisticsService {
	return &StatisticsService{
		store: store,
		log:   log.With().Str("service", "statistics").Logger(),
	}
}

func (s *StatisticsService) General(ctx context.Context, userID int64) (*GeneralStatistics, error) {
	totals, err := s.store.GetTotals(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to compute totals: %w", err)
	}
	return &GeneralStatistics{
		TotalIncome:      totals.Income,
		TotalExpense:     totals.Expense,
		Balance:          totals.Income.Sub(totals.Expense),
		TransactionCount: totals.Count,
	}, nil
}

// ByCategory maps category name to its type and summed amount
func (s *StatisticsService) ByCategory(ctx context.Context, userID int64) (map[string]CategoryStatistic, error) {
	rows, err := s.store.GetCategoryTotals(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to compute category totals: %w", err)
	}
	stats := make(map[string]CategoryStatistic, len(rows))
	for _, row := range rows {
		stats[row.Name] = CategoryStatistic{Type: row.Type, Sum: row.Sum}
	}
	return stats, nil
}

// ByPeriod returns per-day totals for the inclusive date range, sorted by day.
// Days without transactions are omitted.
func (s *StatisticsService) ByPeriod(ctx context.Context, userID int64, from, to time.Time) ([]DailyStatistic, error) {
	start, end, err := dayRange(from, to)
	if err != nil {
		return nil, err
	}

	rows, err := s.store.GetDailyTotals(ctx, userID, start, end)
	if err != nil {
		return nil, fmt.Errorf("failed to compute daily totals: %w", err)
	}

	stats := make([]DailyStatistic, 0, len(rows))
	for _, row := range rows {
		stats = append(stats, DailyStatistic{
			Date:             row.Day.Format(dateLayout),
			Income:           row.Income,
			Expenses:         row.Expense,
			Balance:          row.Income.Sub(row.Expense),
			TransactionCount: row.Count,
		})
	}
	return stats, nil
}

// Dashboard computes general, per-category and per-day statistics concurrently
func (s *StatisticsService) Dashboard(ctx context.Context, userID int64, from, to time.Time) (*Dashboard, error) {
	if _, _, err := dayRange(from, to); err != nil {
		return nil, err
	}

	var (
		general    *GeneralStatistics
		byCategory map[string]CategoryStatistic
		daily      []DailyStatistic
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		general, err = s.General(gctx, userID)
		return err
	})
	g.Go(func() error {
		var err error
		byCategory, err = s.ByCategory(gctx, userID)
		return err
	})
	g.Go(func() error {
		var err error
		daily, err = s.ByPeriod(gctx, userID, from, to)
		return err
	})
	if err := g.Wait(); err != nil {
		s.log.Error().Err(err).Int64("user_id", userID).Msg("dashboard failed")
		return nil, err
	}

	return &Dashboard{
		General:    *general,
		ByCategory: byCategory,
		Daily:      daily,
		From:       from.Format(dateLayout),
		To:         to.Format(dateLayout),
	}, nil
}

// dayRange turns an inclusive [from, to] date range into a half-open one
func dayRange(from, to time.Time) (time.Time, time.Time, error) {
	if from.IsZero() || to.IsZero() {
		return time.Time{}, time.Time{}, invalid("date", "start and end dates are required")
	}
	start := truncateDay(from)
	end := truncateDay(to)
	if start.After(end) {
		return time.Time{}, time.Time{}, invalid("date", "start date is after end date")
	}
	return start, end.AddDate(0, 0, 1), nil
}

func truncateDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}
