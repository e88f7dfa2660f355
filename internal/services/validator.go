package services

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/n1str/RationX/internal/models"
	"github.com/shopspring/decimal"
)

var (
	taxIDPattern = regexp.MustCompile(`^(\d{10}|\d{12})$`)
	phonePattern = regexp.MustCompile(`^(\+7|8)\d{10}$`)
)

// Amount bounds of a register entry
var (
	MinAmount = decimal.RequireFromString("0.01")
	MaxAmount = decimal.RequireFromString("999999.99")
)

const (
	amountScale      = 2
	maxAccountLength = 32
	maxNameLength    = 255
	minUsernameLen   = 3
	maxUsernameLen   = 64
	minPasswordLen   = 6
)

// RequestValidator checks incoming payloads before any write happens
type RequestValidator struct {
	minAmount decimal.Decimal
	maxAmount decimal.Decimal
}

func NewRequestValidator() *RequestValidator {
	return &RequestValidator{
		minAmount: MinAmount,
		maxAmount: MaxAmount,
	}
}

// ValidateTransaction checks a create or update payload and returns the
// first problem found. Bank details are mandatory only on create.
func (v *RequestValidator) ValidateTransaction(req *TransactionRequest, creating bool) error {
	// 1. Parties
	if err := v.validateParty("sender", &req.Sender); err != nil {
		return err
	}
	if err := v.validateParty("recipient", &req.Recipient); err != nil {
		return err
	}

	// 2. Banks
	if err := v.validateBank("sender_bank", &req.SenderBank, creating); err != nil {
		return err
	}
	if err := v.validateBank("recipient_bank", &req.RecipientBank, creating); err != nil {
		return err
	}

	// 3. Category and direction
	if strings.TrimSpace(req.Category) == "" {
		return invalid("category", "category is required")
	}
	if !req.Direction.Valid() {
		return invalid("direction", "direction must be DEBIT or CREDIT")
	}

	// 4. Amount
	if err := v.ValidateAmount(req.Amount); err != nil {
		return err
	}

	// 5. Status, when supplied
	if status, ok := req.Status.Get(); ok && !status.Valid() {
		return invalid("status", "unknown status %q", status)
	}

	return nil
}

func (v *RequestValidator) validateParty(field string, p *PartyRequest) error {
	if err := v.ValidateTaxID(p.TaxID); err != nil {
		return invalid(field+".tax_id", "%s", err.(*ValidationError).Message)
	}
	if utf8.RuneCountInString(p.Name) > maxNameLength {
		return invalid(field+".name", "name is too long")
	}
	if p.Phone != "" {
		if err := v.ValidatePhone(p.Phone); err != nil {
			return invalid(field+".phone", "%s", err.(*ValidationError).Message)
		}
	}
	if p.PersonType != "" && !p.PersonType.Valid() {
		return invalid(field+".person_type", "unknown person type %q", p.PersonType)
	}
	return nil
}

func (v *RequestValidator) validateBank(field string, b *BankRequest, required bool) error {
	account := strings.TrimSpace(b.AccountNumber)
	if account == "" {
		if required {
			return invalid(field+".account_number", "account number is required")
		}
		return nil
	}
	if len(account) > maxAccountLength || len(b.CorrespondentAccount) > maxAccountLength {
		return invalid(field, "account number is too long")
	}
	if required && strings.TrimSpace(b.Name) == "" {
		return invalid(field+".name", "bank name is required")
	}
	return nil
}

// ValidateTaxID checks the trimmed value against the 10 or 12 digit format
func (v *RequestValidator) ValidateTaxID(taxID string) error {
	taxID = strings.TrimSpace(taxID)
	if taxID == "" {
		return invalid("tax_id", "tax id is required")
	}
	if !taxIDPattern.MatchString(taxID) {
		return invalid("tax_id", "tax id must be 10 or 12 digits")
	}
	return nil
}

// ValidatePhone checks the +7XXXXXXXXXX / 8XXXXXXXXXX format
func (v *RequestValidator) ValidatePhone(phone string) error {
	if !phonePattern.MatchString(strings.TrimSpace(phone)) {
		return invalid("phone", "phone must look like +7XXXXXXXXXX or 8XXXXXXXXXX")
	}
	return nil
}

// ValidateAmount enforces the bounds and at most two fraction digits
func (v *RequestValidator) ValidateAmount(amount decimal.Decimal) error {
	if amount.LessThan(v.minAmount) {
		return invalid("amount", "amount must be at least %s", v.minAmount.StringFixed(amountScale))
	}
	if amount.GreaterThan(v.maxAmount) {
		return invalid("amount", "amount must not exceed %s", v.maxAmount.StringFixed(amountScale))
	}
	if !amount.Equal(amount.Round(amountScale)) {
		return invalid("amount", "amount must have at most %d fraction digits", amountScale)
	}
	return nil
}

// ValidateCredentials checks username and password shape on registration
func (v *RequestValidator) ValidateCredentials(username, password string) error {
	n := utf8.RuneCountInString(strings.TrimSpace(username))
	if n < minUsernameLen || n > maxUsernameLen {
		return invalid("username", "username must be between %d and %d characters", minUsernameLen, maxUsernameLen)
	}
	if utf8.RuneCountInString(password) < minPasswordLen {
		return invalid("password", "password must be at least %d characters", minPasswordLen)
	}
	return nil
}

// ValidateCategory checks a category name and type
func (v *RequestValidator) ValidateCategory(name string, typ models.TransactionType) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return invalid("name", "category name is required")
	}
	if utf8.RuneCountInString(name) > 128 {
		return invalid("name", "category name is too long")
	}
	if !typ.Valid() {
		return invalid("type", "type must be DEBIT or CREDIT")
	}
	return nil
}
