package services

import (
	"bufio"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"github.com/n1str/RationX/internal/models"
	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"
)

// MaxImportRows caps the data rows accepted from one file
const MaxImportRows = 5000

// Import column keys. Headers are matched case-insensitively against the
// names the export writes plus a few aliases.
const (
	colDate             = "date"
	colDirection        = "direction"
	colAmount           = "amount"
	colCategory         = "category"
	colComment          = "comment"
	colSender           = "sender"
	colSenderTaxID      = "sender tax id"
	colSenderBank       = "sender bank"
	colSenderAccount    = "sender account"
	colRecipient        = "recipient"
	colRecipientTaxID   = "recipient tax id"
	colRecipientBank    = "recipient bank"
	colRecipientAccount = "recipient account"
)

var columnAliases = map[string]string{
	"type":        colDirection,
	"sum":         colAmount,
	"description": colComment,
	"narration":   colComment,
	"date time":   colDate,
}

var requiredColumns = []string{
	colAmount,
	colSenderTaxID,
	colSenderBank,
	colSenderAccount,
	colRecipientTaxID,
	colRecipientBank,
	colRecipientAccount,
}

// ImportRow is one parsed data row. Line is the 1-based line or sheet row.
type ImportRow struct {
	Line    int
	Date    time.Time
	Request TransactionRequest
}

// RowError reports why a row was not imported
type RowError struct {
	Line    int    `json:"line"`
	Field   string `json:"field,omitempty"`
	Message string `json:"message"`
}

// ParseResult holds the rows that parsed and the ones that did not
type ParseResult struct {
	Rows   []ImportRow
	Errors []RowError
}

// Parser reads transaction files laid out like the spreadsheet export
type Parser struct{}

func NewParser() *Parser {
	return &Parser{}
}

// ParseFile dispatches on the file extension
func (p *Parser) ParseFile(file io.Reader, filename string) (*ParseResult, error) {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".csv":
		return p.ParseCSV(file)
	case ".xlsx":
		return p.ParseXLSX(file)
	default:
		return nil, &ValidationError{Field: "file", Message: fmt.Sprintf("unsupported file type %q, use .csv or .xlsx", filepath.Ext(filename))}
	}
}

// ParseCSV parses comma or semicolon separated files
func (p *Parser) ParseCSV(file io.Reader) (*ParseResult, error) {
	br := bufio.NewReader(file)
	firstLine, err := br.Peek(4096)
	if err != nil && !errors.Is(err, io.EOF) && !errors.Is(err, bufio.ErrBufferFull) {
		return nil, fmt.Errorf("failed to read headers: %w", err)
	}

	reader := csv.NewReader(br)
	reader.Comma = detectDelimiter(string(firstLine))
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	var records [][]string
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, &ValidationError{Field: "file", Message: fmt.Sprintf("malformed csv: %v", err)}
		}
		records = append(records, record)
		if len(records) > MaxImportRows+1 {
			return nil, &ValidationError{Field: "file", Message: fmt.Sprintf("file has more than %d rows", MaxImportRows)}
		}
	}
	return p.parseRecords(records)
}

// ParseXLSX parses the Transactions sheet when present, else the first sheet
func (p *Parser) ParseXLSX(file io.Reader) (*ParseResult, error) {
	f, err := excelize.OpenReader(file)
	if err != nil {
		return nil, &ValidationError{Field: "file", Message: "file is not a valid xlsx workbook"}
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, &ValidationError{Field: "file", Message: "workbook has no sheets"}
	}
	sheet := sheets[0]
	for _, name := range sheets {
		if name == transactionsSheet {
			sheet = name
			break
		}
	}

	records, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("failed to read sheet %q: %w", sheet, err)
	}
	if len(records) > MaxImportRows+1 {
		return nil, &ValidationError{Field: "file", Message: fmt.Sprintf("file has more than %d rows", MaxImportRows)}
	}
	return p.parseRecords(records)
}

func (p *Parser) parseRecords(records [][]string) (*ParseResult, error) {
	if len(records) == 0 {
		return nil, &ValidationError{Field: "file", Message: "file is empty"}
	}

	headerIndex := make(map[string]int)
	for i, h := range records[0] {
		key := normalizeHeader(h)
		if alias, ok := columnAliases[key]; ok {
			key = alias
		}
		if _, seen := headerIndex[key]; !seen {
			headerIndex[key] = i
		}
	}
	for _, col := range requiredColumns {
		if _, ok := headerIndex[col]; !ok {
			return nil, &ValidationError{Field: "header", Message: fmt.Sprintf("missing column %q", col)}
		}
	}

	result := &ParseResult{}
	for i, record := range records[1:] {
		line := i + 2
		if isEmptyRow(record) || isSummaryRow(record) {
			continue
		}
		row, rowErr := p.parseRow(record, headerIndex)
		if rowErr != nil {
			rowErr.Line = line
			result.Errors = append(result.Errors, *rowErr)
			continue
		}
		row.Line = line
		result.Rows = append(result.Rows, row)
	}
	return result, nil
}

// parseRow maps one record onto a create request. Field level validation
// beyond parsing is left to the transaction service.
func (p *Parser) parseRow(record []string, headerIndex map[string]int) (ImportRow, *RowError) {
	cell := func(col string) string {
		idx, ok := headerIndex[col]
		if !ok || idx >= len(record) {
			return ""
		}
		return strings.TrimSpace(record[idx])
	}

	var row ImportRow

	if raw := cell(colDate); raw != "" {
		date, err := ParseDate(raw)
		if err != nil {
			return row, &RowError{Field: colDate, Message: err.Error()}
		}
		row.Date = date
	}

	amount, err := ParseAmount(cell(colAmount))
	if err != nil {
		return row, &RowError{Field: colAmount, Message: err.Error()}
	}

	// Without a direction column the sign decides: negative is an expense
	var direction models.TransactionType
	if raw := cell(colDirection); raw != "" {
		direction, err = models.ParseTransactionType(raw)
		if err != nil {
			return row, &RowError{Field: colDirection, Message: err.Error()}
		}
	} else if amount.IsNegative() {
		direction = models.TypeCredit
	} else {
		direction = models.TypeDebit
	}

	row.Request = TransactionRequest{
		Sender: PartyRequest{
			Name:  cell(colSender),
			TaxID: cell(colSenderTaxID),
		},
		Recipient: PartyRequest{
			Name:  cell(colRecipient),
			TaxID: cell(colRecipientTaxID),
		},
		SenderBank: BankRequest{
			Name:          cell(colSenderBank),
			AccountNumber: cell(colSenderAccount),
		},
		RecipientBank: BankRequest{
			Name:          cell(colRecipientBank),
			AccountNumber: cell(colRecipientAccount),
		},
		Category:  cell(colCategory),
		Direction: direction,
		Amount:    amount.Abs(),
	}
	if comment := cell(colComment); comment != "" {
		row.Request.Comment = models.Some(comment)
	}
	return row, nil
}

// ParseDate parses the export format and common day-first formats
func ParseDate(dateStr string) (time.Time, error) {
	dateStr = strings.TrimSpace(dateStr)

	dateFormats := []string{
		"2006-01-02 15:04", // export
		"2006-01-02",
		time.RFC3339,
		"02.01.2006",
		"02.01.2006 15:04",
		"02/01/2006",
		"02-01-2006",
	}

	for _, format := range dateFormats {
		t, err := time.Parse(format, dateStr)
		if err == nil {
			return t, nil
		}
	}

	return time.Time{}, fmt.Errorf("unable to parse date %q", dateStr)
}

// ParseAmount parses amounts with currency marks, spaces as thousands
// separators and either a comma or a dot as the decimal separator
func ParseAmount(amountStr string) (decimal.Decimal, error) {
	cleaned := strings.NewReplacer(
		"₽", "", "руб.", "", "руб", "", "RUB", "", "$", "", "€", "",
		" ", "", "\u00a0", "", "\u202f", "", "'", "",
	).Replace(strings.TrimSpace(amountStr))

	if cleaned == "" || cleaned == "-" {
		return decimal.Decimal{}, fmt.Errorf("amount is required")
	}

	switch strings.Count(cleaned, ",") {
	case 0:
	case 1:
		if strings.Contains(cleaned, ".") {
			cleaned = strings.ReplaceAll(cleaned, ",", "")
		} else {
			cleaned = strings.Replace(cleaned, ",", ".", 1)
		}
	default:
		cleaned = strings.ReplaceAll(cleaned, ",", "")
	}

	amount, err := decimal.NewFromString(cleaned)
	if err != nil {
		return decimal.Decimal{}, fmt.Errorf("invalid amount %q", amountStr)
	}
	return amount, nil
}

func normalizeHeader(h string) string {
	h = strings.TrimPrefix(h, "\ufeff")
	return strings.Join(strings.Fields(strings.ToLower(h)), " ")
}

// detectDelimiter picks ';' when the header line has more semicolons than commas
func detectDelimiter(sample string) rune {
	header, _, _ := strings.Cut(sample, "\n")
	if strings.Count(header, ";") > strings.Count(header, ",") {
		return ';'
	}
	return ','
}

// isEmptyRow checks if all fields in a row are empty
func isEmptyRow(row []string) bool {
	for _, field := range row {
		if strings.TrimSpace(field) != "" {
			return false
		}
	}
	return true
}

// isSummaryRow skips trailing totals some spreadsheets carry
func isSummaryRow(row []string) bool {
	if len(row) == 0 {
		return false
	}

	firstField := strings.ToLower(strings.TrimSpace(row[0]))
	for _, keyword := range []string{"total", "summary", "opening balance", "closing balance"} {
		if strings.HasPrefix(firstField, keyword) {
			return true
		}
	}
	return false
}
