package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/n1str/RationX/internal/database/db"
	"github.com/n1str/RationX/internal/metrics"
	"github.com/n1str/RationX/internal/models"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// PartyRequest describes a sender or recipient
type PartyRequest struct {
	Name       string            `json:"name"`
	TaxID      string            `json:"tax_id"`
	Address    string            `json:"address"`
	Phone      string            `json:"phone"`
	PersonType models.PersonType `json:"person_type"`
}

// BankRequest describes the account a party pays from or into
type BankRequest struct {
	Name                 string `json:"name"`
	AccountNumber        string `json:"account_number"`
	CorrespondentAccount string `json:"correspondent_account"`
}

// TransactionRequest is the payload of create and update
type TransactionRequest struct {
	Sender        PartyRequest                              `json:"sender"`
	Recipient     PartyRequest                              `json:"recipient"`
	SenderBank    BankRequest                               `json:"sender_bank"`
	RecipientBank BankRequest                               `json:"recipient_bank"`
	Category      string                                    `json:"category"`
	Direction     models.TransactionType                    `json:"direction"`
	Amount        decimal.Decimal                           `json:"amount"`
	Comment       models.Optional[string]                   `json:"comment"`
	Status        models.Optional[models.TransactionStatus] `json:"status"`
}

// normalize maps accepted aliases onto canonical enum values. Values that
// do not parse are left alone for the validator to report.
func (r *TransactionRequest) normalize() {
	if typ, err := models.ParseTransactionType(string(r.Direction)); err == nil {
		r.Direction = typ
	}
	for _, p := range []*PartyRequest{&r.Sender, &r.Recipient} {
		p.TaxID = strings.TrimSpace(p.TaxID)
		if p.PersonType == "" {
			continue
		}
		if pt, err := models.ParsePersonType(string(p.PersonType)); err == nil {
			p.PersonType = pt
		}
	}
	if status, ok := r.Status.Get(); ok {
		if parsed, err := models.ParseTransactionStatus(string(status)); err == nil {
			r.Status = models.Some(parsed)
		}
	}
}

// TransactionService orchestrates create, update and soft delete. Every
// multi-step write runs inside a single Store.ExecTx.
type TransactionService struct {
	store      db.Store
	subjects   *SubjectService
	banks      *BankService
	categories *CategoryService
	registers  *RegisterService
	validator  *RequestValidator
	metrics    *metrics.Metrics
	log        zerolog.Logger
	now        func() time.Time
}

func NewTransactionService(
	store db.Store,
	subjects *SubjectService,
	banks *BankService,
	categories *CategoryService,
	registers *RegisterService,
	validator *RequestValidator,
	m *metrics.Metrics,
	log zerolog.Logger,
) *TransactionService {
	return &TransactionService{
		store:      store,
		subjects:   subjects,
		banks:      banks,
		categories: categories,
		registers:  registers,
		validator:  validator,
		metrics:    m,
		log:        log.With().Str("service", "transactions").Logger(),
		now:        time.Now,
	}
}

// Get returns a transaction owned by userID
func (s *TransactionService) Get(ctx context.Context, userID, id int64) (*models.Transaction, error) {
	return s.load(ctx, s.store, userID, id)
}

// List returns one page of the user's transactions and the total match count
func (s *TransactionService) List(ctx context.Context, userID int64, filter db.ListTransactionsParams) ([]models.Transaction, int64, error) {
	filter.UserID = userID
	if filter.MinAmount != nil && filter.MaxAmount != nil && filter.MinAmount.GreaterThan(*filter.MaxAmount) {
		return nil, 0, invalid("amount", "min amount exceeds max amount")
	}
	if !filter.From.IsZero() && !filter.To.IsZero() && filter.From.After(filter.To) {
		return nil, 0, invalid("date", "start date is after end date")
	}

	items, err := s.store.ListTransactions(ctx, filter)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list transactions: %w", err)
	}
	total, err := s.store.CountTransactions(ctx, filter)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to count transactions: %w", err)
	}
	return items, total, nil
}

// Create validates req and persists a NEW transaction with all of its
// parties, accounts, category and register entry in one transaction.
func (s *TransactionService) Create(ctx context.Context, userID int64, req TransactionRequest) (*models.Transaction, error) {
	req.normalize()
	if err := s.validator.ValidateTransaction(&req, true); err != nil {
		return nil, err
	}

	var txn *models.Transaction
	err := s.store.ExecTx(ctx, func(q db.Querier) error {
		// 1. Parties
		sender, err := s.subjects.GetOrCreate(ctx, q, req.Sender)
		if err != nil {
			return err
		}
		recipient, err := s.subjects.GetOrCreate(ctx, q, req.Recipient)
		if err != nil {
			return err
		}

		// 2. Accounts, each linked to its party
		senderBank, err := s.banks.UpdateOrCreate(ctx, q, PatchFromBank(req.SenderBank, sender))
		if err != nil {
			return err
		}
		recipientBank, err := s.banks.UpdateOrCreate(ctx, q, PatchFromBank(req.RecipientBank, recipient))
		if err != nil {
			return err
		}

		// 3. Category and register entry
		category, err := s.categories.FindOrCreate(ctx, q, req.Category, req.Direction)
		if err != nil {
			return err
		}
		reg, err := s.registers.Create(ctx, q, req.Amount, req.Direction)
		if err != nil {
			return err
		}

		// 4. Transaction itself, always NEW
		txn = &models.Transaction{
			UserID:        userID,
			Status:        models.StatusNew,
			DateTime:      s.now(),
			Comment:       req.Comment.OrElse(""),
			Category:      category,
			Register:      reg,
			Sender:        sender,
			Recipient:     recipient,
			SenderBank:    senderBank,
			RecipientBank: recipientBank,
		}
		if err := q.CreateTransaction(ctx, txn); err != nil {
			return fmt.Errorf("failed to create transaction: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.metrics.IncrementTransactionsCreated()
	s.log.Info().Int64("transaction_id", txn.ID).Int64("user_id", userID).Msg("transaction created")
	return txn, nil
}

// Update rewrites an editable transaction from req. Only NEW transactions
// are editable. The status changes only when req carries one.
func (s *TransactionService) Update(ctx context.Context, userID, id int64, req TransactionRequest) (*models.Transaction, error) {
	req.normalize()

	var txn *models.Transaction
	err := s.store.ExecTx(ctx, func(q db.Querier) error {
		// 1. Load and guard
		var err error
		txn, err = s.load(ctx, q, userID, id)
		if err != nil {
			return err
		}
		if !txn.IsEditable() {
			return fmt.Errorf("%w: transaction %d has status %s; updates are blocked for statuses %s",
				ErrPermissionDenied, id, txn.Status, blockedForUpdate())
		}
		if err := s.validator.ValidateTransaction(&req, false); err != nil {
			return err
		}

		// 2. Category
		category, err := s.categories.FindOrCreate(ctx, q, req.Category, req.Direction)
		if err != nil {
			return err
		}

		// 3. Parties, then an explicit field-level overwrite of each
		sender, err := s.subjects.GetOrCreate(ctx, q, req.Sender)
		if err != nil {
			return err
		}
		recipient, err := s.subjects.GetOrCreate(ctx, q, req.Recipient)
		if err != nil {
			return err
		}
		if err := s.subjects.Patch(ctx, q, sender, PatchFromParty(req.Sender)); err != nil {
			return err
		}
		if err := s.subjects.Patch(ctx, q, recipient, PatchFromParty(req.Recipient)); err != nil {
			return err
		}

		// 4. Accounts; a payload without an account keeps the current one
		senderBank := txn.SenderBank
		if strings.TrimSpace(req.SenderBank.AccountNumber) != "" {
			if senderBank, err = s.banks.UpdateOrCreate(ctx, q, PatchFromBank(req.SenderBank, sender)); err != nil {
				return err
			}
		}
		recipientBank := txn.RecipientBank
		if strings.TrimSpace(req.RecipientBank.AccountNumber) != "" {
			if recipientBank, err = s.banks.UpdateOrCreate(ctx, q, PatchFromBank(req.RecipientBank, recipient)); err != nil {
				return err
			}
		}

		// 5. Register entry in place
		if err := s.registers.Update(ctx, q, txn.Register, req.Amount, req.Direction); err != nil {
			return err
		}

		// 6. Status and comment only when supplied
		if status, ok := req.Status.Get(); ok {
			txn.Status = status
		}
		if comment, ok := req.Comment.Get(); ok {
			txn.Comment = comment
		}

		// 7. Reattach and persist
		txn.Category = category
		txn.Sender = sender
		txn.Recipient = recipient
		txn.SenderBank = senderBank
		txn.RecipientBank = recipientBank
		if err := q.UpdateTransaction(ctx, txn); err != nil {
			return fmt.Errorf("failed to update transaction: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.metrics.IncrementTransactionsUpdated()
	s.log.Info().Int64("transaction_id", id).Str("status", string(txn.Status)).Msg("transaction updated")
	return txn, nil
}

// MarkAsDeleted soft-deletes a transaction by moving it to PAYMENT_DELETED.
// Repeating the call on a deleted transaction succeeds.
func (s *TransactionService) MarkAsDeleted(ctx context.Context, userID, id int64) (*models.Transaction, error) {
	var txn *models.Transaction
	changed := false
	err := s.store.ExecTx(ctx, func(q db.Querier) error {
		var err error
		txn, err = s.load(ctx, q, userID, id)
		if err != nil {
			return err
		}
		if !txn.IsDeletable() {
			return fmt.Errorf("%w: deletion is forbidden for transactions with status %s", ErrIllegalState, txn.Status)
		}
		if txn.Status == models.StatusPaymentDeleted {
			return nil
		}
		if err := q.UpdateTransactionStatus(ctx, id, models.StatusPaymentDeleted); err != nil {
			return fmt.Errorf("failed to delete transaction: %w", err)
		}
		txn.Status = models.StatusPaymentDeleted
		changed = true
		return nil
	})
	if err != nil {
		return nil, err
	}

	if changed {
		s.metrics.IncrementTransactionsDeleted()
		s.log.Info().Int64("transaction_id", id).Msg("transaction marked as deleted")
	}
	return txn, nil
}

// load returns the transaction when it exists and belongs to userID.
// Another user's transaction is reported as missing.
func (s *TransactionService) load(ctx context.Context, q db.Querier, userID, id int64) (*models.Transaction, error) {
	txn, err := q.GetTransaction(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to load transaction: %w", err)
	}
	if txn == nil || txn.UserID != userID {
		return nil, notFound("transaction %d", id)
	}
	return txn, nil
}

func blockedForUpdate() string {
	var names []string
	for _, status := range models.AllStatuses {
		if status != models.StatusNew {
			names = append(names, string(status))
		}
	}
	return strings.Join(names, ", ")
}
