package services

import (
	"context"
	"fmt"
	"time"

	"github.com/n1str/RationX/internal/database/db"
	"github.com/n1str/RationX/internal/models"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// RegisterService owns the amount and direction of each transaction
type RegisterService struct {
	log zerolog.Logger
}

func NewRegisterService(log zerolog.Logger) *RegisterService {
	return &RegisterService{log: log.With().Str("service", "registers").Logger()}
}

// Create persists a new register entry dated today
func (s *RegisterService) Create(ctx context.Context, q db.Querier, amount decimal.Decimal, typ models.TransactionType) (*models.RegTransaction, error) {
	now := time.Now()
	reg := &models.RegTransaction{
		Type:   typ,
		Amount: amount,
		Date:   time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location()),
	}
	if err := q.CreateRegister(ctx, reg); err != nil {
		return nil, fmt.Errorf("failed to create register entry: %w", err)
	}
	return reg, nil
}

// Update overwrites amount and direction of reg in place
func (s *RegisterService) Update(ctx context.Context, q db.Querier, reg *models.RegTransaction, amount decimal.Decimal, typ models.TransactionType) error {
	if reg == nil {
		return notFound("register entry")
	}

	before := *reg
	reg.Amount = amount
	reg.Type = typ
	if err := q.UpdateRegister(ctx, reg); err != nil {
		*reg = before
		return fmt.Errorf("failed to update register entry: %w", err)
	}

	s.log.Info().
		Int64("register_id", reg.ID).
		Str("amount_before", before.Amount.StringFixed(amountScale)).
		Str("type_before", string(before.Type)).
		Str("amount_after", reg.Amount.StringFixed(amountScale)).
		Str("type_after", string(reg.Type)).
		Msg("register entry updated")
	return nil
}
