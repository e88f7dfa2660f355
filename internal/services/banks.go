package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/n1str/RationX/internal/database/db"
	"github.com/n1str/RationX/internal/models"
	"github.com/rs/zerolog"
)

// BankService resolves bank accounts by account number
type BankService struct {
	log zerolog.Logger
}

func NewBankService(log zerolog.Logger) *BankService {
	return &BankService{log: log.With().Str("service", "banks").Logger()}
}

// Create persists a new account owned by owner
func (s *BankService) Create(ctx context.Context, q db.Querier, name, correspondent, account string, owner *models.Subject) (*models.Bank, error) {
	bank := &models.Bank{
		Name:                 strings.TrimSpace(name),
		AccountNumber:        strings.TrimSpace(account),
		CorrespondentAccount: strings.TrimSpace(correspondent),
	}
	if owner != nil {
		bank.SubjectID = owner.ID
	}
	if err := q.CreateBank(ctx, bank); err != nil {
		return nil, storeError(err, "bank account")
	}
	s.log.Info().Int64("bank_id", bank.ID).Str("account", bank.AccountNumber).Msg("bank account created")
	return bank, nil
}

// UpdateOrCreate finds the account by number and overwrites its non-blank
// name and correspondent account, or creates it linked to the patch owner.
func (s *BankService) UpdateOrCreate(ctx context.Context, q db.Querier, patch models.BankPatch) (*models.Bank, error) {
	account := strings.TrimSpace(patch.AccountNumber)
	if account == "" {
		return nil, invalid("account_number", "account number is required")
	}

	existing, err := q.FindBankByAccount(ctx, account)
	if err != nil {
		return nil, fmt.Errorf("failed to look up bank account: %w", err)
	}

	if existing == nil {
		return s.Create(ctx, q,
			patch.Name.OrElse(""),
			patch.CorrespondentAccount.OrElse(""),
			account,
			patch.Owner,
		)
	}

	updated := *existing
	if name, ok := presentString(patch.Name); ok {
		updated.Name = name
	}
	if corr, ok := presentString(patch.CorrespondentAccount); ok {
		updated.CorrespondentAccount = corr
	}
	if updated == *existing {
		return existing, nil
	}

	if err := q.UpdateBank(ctx, &updated); err != nil {
		return nil, storeError(err, "bank account")
	}
	s.log.Info().Int64("bank_id", updated.ID).Str("account", account).Msg("bank account updated")
	return &updated, nil
}

// PatchFromBank builds a lookup-or-create request for a bank payload
func PatchFromBank(b BankRequest, owner *models.Subject) models.BankPatch {
	return models.BankPatch{
		AccountNumber:        b.AccountNumber,
		Name:                 models.Some(b.Name),
		CorrespondentAccount: models.Some(b.CorrespondentAccount),
		Owner:                owner,
	}
}
