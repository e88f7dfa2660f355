package models

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// TransactionStatus is the lifecycle state of a transaction
type TransactionStatus string

const (
	StatusNew              TransactionStatus = "NEW"
	StatusAccepted         TransactionStatus = "ACCEPTED"
	StatusProcessing       TransactionStatus = "PROCESSING"
	StatusCanceled         TransactionStatus = "CANCELED"
	StatusPaymentCompleted TransactionStatus = "PAYMENT_COMPLETED"
	StatusPaymentDeleted   TransactionStatus = "PAYMENT_DELETED"
	StatusReturn           TransactionStatus = "RETURN"
)

var statusDescriptions = map[TransactionStatus]string{
	StatusNew:              "New",
	StatusAccepted:         "Accepted",
	StatusProcessing:       "Processing",
	StatusCanceled:         "Canceled",
	StatusPaymentCompleted: "Payment completed",
	StatusPaymentDeleted:   "Payment deleted",
	StatusReturn:           "Returned",
}

// AllStatuses lists every status in declaration order
var AllStatuses = []TransactionStatus{
	StatusNew,
	StatusAccepted,
	StatusProcessing,
	StatusCanceled,
	StatusPaymentCompleted,
	StatusPaymentDeleted,
	StatusReturn,
}

// LockedStatuses block both editing and deletion
var LockedStatuses = []TransactionStatus{
	StatusAccepted,
	StatusProcessing,
	StatusCanceled,
	StatusPaymentCompleted,
	StatusReturn,
}

// Valid reports whether s is a known status
func (s TransactionStatus) Valid() bool {
	_, ok := statusDescriptions[s]
	return ok
}

// Description returns the human readable label
func (s TransactionStatus) Description() string {
	return statusDescriptions[s]
}

// ParseTransactionStatus parses a status name, case-insensitively
func ParseTransactionStatus(value string) (TransactionStatus, error) {
	status := TransactionStatus(strings.ToUpper(strings.TrimSpace(value)))
	if !status.Valid() {
		return "", fmt.Errorf("unknown transaction status %q", value)
	}
	return status, nil
}

// TransactionType is the direction of money movement.
// DEBIT is income, CREDIT is expense.
type TransactionType string

const (
	TypeDebit  TransactionType = "DEBIT"
	TypeCredit TransactionType = "CREDIT"
)

// Valid reports whether t is a known direction
func (t TransactionType) Valid() bool {
	return t == TypeDebit || t == TypeCredit
}

// Description returns "income" or "expense"
func (t TransactionType) Description() string {
	switch t {
	case TypeDebit:
		return "income"
	case TypeCredit:
		return "expense"
	}
	return ""
}

// ParseTransactionType accepts DEBIT/CREDIT or income/expense
func ParseTransactionType(value string) (TransactionType, error) {
	switch strings.ToUpper(strings.TrimSpace(value)) {
	case "DEBIT", "INCOME":
		return TypeDebit, nil
	case "CREDIT", "EXPENSE":
		return TypeCredit, nil
	}
	return "", fmt.Errorf("unknown transaction type %q", value)
}

// RegTransaction is the accumulation register entry owned by a transaction
type RegTransaction struct {
	ID     int64           `json:"id"`
	Type   TransactionType `json:"type"`
	Amount decimal.Decimal `json:"amount"`
	Date   time.Time       `json:"date"`
}

// Transaction is a single money movement between two subjects
type Transaction struct {
	ID            int64             `json:"id"`
	UserID        int64             `json:"user_id"`
	Status        TransactionStatus `json:"status"`
	DateTime      time.Time         `json:"date_time"`
	Comment       string            `json:"comment,omitempty"`
	Category      *Category         `json:"category,omitempty"`
	Register      *RegTransaction   `json:"register,omitempty"`
	Sender        *Subject          `json:"sender,omitempty"`
	Recipient     *Subject          `json:"recipient,omitempty"`
	SenderBank    *Bank             `json:"sender_bank,omitempty"`
	RecipientBank *Bank             `json:"recipient_bank,omitempty"`
}

// IsEditable reports whether field-level changes are allowed
func (t *Transaction) IsEditable() bool {
	return t.Status == StatusNew
}

// IsDeletable reports whether the transaction may be soft-deleted
func (t *Transaction) IsDeletable() bool {
	for _, s := range LockedStatuses {
		if t.Status == s {
			return false
		}
	}
	return true
}
