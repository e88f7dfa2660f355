package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/n1str/RationX/internal/metrics"
	"github.com/n1str/RationX/internal/models"
	"github.com/rs/zerolog"
)

// Fallback categories for rows the categorizer cannot place
const (
	FallbackExpenseCategory = "Other expenses"
	FallbackIncomeCategory  = "Other income"
)

// DateRange is the span of dates found in an imported file
type DateRange struct {
	From string `json:"from"`
	To   string `json:"to"`
}

// ImportSummary describes the outcome of one file import. DateRange reports
// the dates found in the file only; created transactions are stamped with
// the import time like any other new transaction.
type ImportSummary struct {
	FileName       string     `json:"file_name"`
	TotalRows      int        `json:"total_rows"`
	Imported       int        `json:"imported"`
	Failed         int        `json:"failed"`
	Categorized    int        `json:"categorized"`
	Uncategorized  int        `json:"uncategorized"`
	TransactionIDs []int64    `json:"transaction_ids"`
	DateRange      *DateRange `json:"date_range,omitempty"`
	Errors         []RowError `json:"errors"`
}

// ImportService creates NEW transactions from CSV or XLSX files. Each row
// is created through the transaction service in its own database
// transaction, so a bad row never rolls back the good ones.
type ImportService struct {
	transactions *TransactionService
	parser       *Parser
	categorizer  *Categorizer
	metrics      *metrics.Metrics
	log          zerolog.Logger
}

func NewImportService(transactions *TransactionService, parser *Parser, categorizer *Categorizer, m *metrics.Metrics, log zerolog.Logger) *ImportService {
	return &ImportService{
		transactions: transactions,
		parser:       parser,
		categorizer:  categorizer,
		metrics:      m,
		log:          log.With().Str("service", "import").Logger(),
	}
}

// Import parses file and creates one transaction per valid row. Rows
// without a category are categorized from their comment and recipient
// name. Row level problems are reported in the summary; only storage
// failures abort the import.
func (s *ImportService) Import(ctx context.Context, userID int64, filename string, file io.Reader) (*ImportSummary, error) {
	parsed, err := s.parser.ParseFile(file, filename)
	if err != nil {
		return nil, err
	}

	summary := &ImportSummary{
		FileName:       filename,
		TotalRows:      len(parsed.Rows) + len(parsed.Errors),
		TransactionIDs: []int64{},
		Errors:         append([]RowError{}, parsed.Errors...),
		DateRange:      dateRange(parsed.Rows),
	}

	for _, row := range parsed.Rows {
		req := row.Request
		if strings.TrimSpace(req.Category) == "" {
			req.Category = s.suggestCategory(&req)
			if req.Category != fallbackCategory(req.Direction) {
				summary.Categorized++
			} else {
				summary.Uncategorized++
			}
		}

		txn, err := s.transactions.Create(ctx, userID, req)
		if err != nil {
			rowErr, ok := rowError(err)
			if !ok {
				return nil, fmt.Errorf("import aborted at line %d: %w", row.Line, err)
			}
			rowErr.Line = row.Line
			summary.Errors = append(summary.Errors, rowErr)
			continue
		}
		summary.Imported++
		summary.TransactionIDs = append(summary.TransactionIDs, txn.ID)
	}
	summary.Failed = len(summary.Errors)

	s.metrics.RecordImportRows(summary.Imported, summary.Failed)
	s.log.Info().
		Int64("user_id", userID).
		Str("file", filename).
		Int("imported", summary.Imported).
		Int("failed", summary.Failed).
		Msg("transactions imported")
	return summary, nil
}

func (s *ImportService) suggestCategory(req *TransactionRequest) string {
	description := req.Comment.OrElse("") + " " + req.Recipient.Name
	if category := s.categorizer.Categorize(description, req.Direction); category != "" {
		return category
	}
	return fallbackCategory(req.Direction)
}

func fallbackCategory(direction models.TransactionType) string {
	if direction == models.TypeDebit {
		return FallbackIncomeCategory
	}
	return FallbackExpenseCategory
}

// rowError turns request level failures into a row report
func rowError(err error) (RowError, bool) {
	var vErr *ValidationError
	if errors.As(err, &vErr) {
		return RowError{Field: vErr.Field, Message: vErr.Message}, true
	}
	if errors.Is(err, ErrValidation) || errors.Is(err, ErrConflict) {
		return RowError{Message: err.Error()}, true
	}
	return RowError{}, false
}

func dateRange(rows []ImportRow) *DateRange {
	var from, to time.Time
	for _, row := range rows {
		if row.Date.IsZero() {
			continue
		}
		if from.IsZero() || row.Date.Before(from) {
			from = row.Date
		}
		if to.IsZero() || row.Date.After(to) {
			to = row.Date
		}
	}
	if from.IsZero() {
		return nil
	}
	return &DateRange{From: from.Format("2006-01-02"), To: to.Format("2006-01-02")}
}
