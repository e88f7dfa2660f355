package services

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/n1str/RationX/internal/database/db"
	"github.com/n1str/RationX/internal/metrics"
	"github.com/n1str/RationX/internal/models"
	"github.com/rs/zerolog"
	"github.com/xuri/excelize/v2"
)

const (
	transactionsSheet = "Transactions"
	summarySheet      = "Summary"

	// XLSXContentType is the MIME type of generated workbooks
	XLSXContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
)

var transactionHeaders = []string{
	"ID", "Date", "Status", "Direction", "Amount", "Category",
	"Sender", "Sender tax id", "Sender bank", "Sender account",
	"Recipient", "Recipient tax id", "Recipient bank", "Recipient account",
	"Comment",
}

// ExportService renders a user's transactions as an XLSX workbook
type ExportService struct {
	store   db.Querier
	stats   *StatisticsService
	metrics *metrics.Metrics
	log     zerolog.Logger
}

func NewExportService(store db.Querier, stats *StatisticsService, m *metrics.Metrics, log zerolog.Logger) *ExportService {
	return &ExportService{
		store:   store,
		stats:   stats,
		metrics: m,
		log:     log.With().Str("service", "export").Logger(),
	}
}

// TransactionsWorkbook builds a workbook with a Transactions sheet holding
// every transaction matching filter and a Summary sheet with the totals.
func (s *ExportService) TransactionsWorkbook(ctx context.Context, userID int64, filter db.ListTransactionsParams) (*bytes.Buffer, error) {
	start := time.Now()
	defer func() {
		s.metrics.ObserveExportDuration(time.Since(start).Seconds())
	}()

	filter.UserID = userID
	filter.Limit = 0
	filter.Offset = 0
	transactions, err := s.store.ListTransactions(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to list transactions: %w", err)
	}
	general, err := s.stats.General(ctx, userID)
	if err != nil {
		return nil, err
	}

	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", transactionsSheet); err != nil {
		return nil, fmt.Errorf("failed to rename sheet: %w", err)
	}
	headerStyle, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return nil, fmt.Errorf("failed to create header style: %w", err)
	}

	// 1. Transactions sheet
	for i, h := range transactionHeaders {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		f.SetCellValue(transactionsSheet, cell, h)
	}
	lastHeader, _ := excelize.CoordinatesToCellName(len(transactionHeaders), 1)
	f.SetCellStyle(transactionsSheet, "A1", lastHeader, headerStyle)

	for i := range transactions {
		cell, _ := excelize.CoordinatesToCellName(1, i+2)
		if err := f.SetSheetRow(transactionsSheet, cell, transactionRow(&transactions[i])); err != nil {
			return nil, fmt.Errorf("failed to write row %d: %w", i+2, err)
		}
	}
	f.SetColWidth(transactionsSheet, "A", "A", 8)
	f.SetColWidth(transactionsSheet, "B", "O", 18)

	// 2. Summary sheet
	if _, err := f.NewSheet(summarySheet); err != nil {
		return nil, fmt.Errorf("failed to create summary sheet: %w", err)
	}
	summary := [][]interface{}{
		{"Metric", "Value"},
		{"Total income", general.TotalIncome.InexactFloat64()},
		{"Total expense", general.TotalExpense.InexactFloat64()},
		{"Balance", general.Balance.InexactFloat64()},
		{"Transactions", general.TransactionCount},
		{"Generated at", time.Now().UTC().Format(time.RFC3339)},
	}
	for i, row := range summary {
		cell, _ := excelize.CoordinatesToCellName(1, i+1)
		if err := f.SetSheetRow(summarySheet, cell, &row); err != nil {
			return nil, fmt.Errorf("failed to write summary: %w", err)
		}
	}
	f.SetCellStyle(summarySheet, "A1", "B1", headerStyle)
	f.SetColWidth(summarySheet, "A", "B", 20)

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("failed to render workbook: %w", err)
	}

	s.log.Info().Int64("user_id", userID).Int("rows", len(transactions)).Msg("workbook exported")
	return buf, nil
}

func transactionRow(t *models.Transaction) *[]interface{} {
	row := []interface{}{
		t.ID,
		t.DateTime.Format("2006-01-02 15:04"),
		string(t.Status),
		"",
		0.0,
		"",
		"", "", "", "",
		"", "", "", "",
		t.Comment,
	}
	if t.Register != nil {
		row[3] = t.Register.Type.Description()
		row[4] = t.Register.Amount.InexactFloat64()
	}
	if t.Category != nil {
		row[5] = t.Category.Name
	}
	if t.Sender != nil {
		row[6], row[7] = t.Sender.Name, t.Sender.TaxID
	}
	if t.SenderBank != nil {
		row[8], row[9] = t.SenderBank.Name, t.SenderBank.AccountNumber
	}
	if t.Recipient != nil {
		row[10], row[11] = t.Recipient.Name, t.Recipient.TaxID
	}
	if t.RecipientBank != nil {
		row[12], row[13] = t.RecipientBank.Name, t.RecipientBank.AccountNumber
	}
	return &row
}

// ExportFilename names a workbook for userID generated at t
func ExportFilename(userID int64, t time.Time) string {
	return fmt.Sprintf("transactions-%d-%s.xlsx", userID, t.UTC().Format("20060102-150405"))
}
