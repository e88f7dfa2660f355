package models

import (
	"fmt"
	"strings"
)

// PersonType distinguishes individuals from organizations
type PersonType string

const (
	PersonIndividual  PersonType = "INDIVIDUAL"
	PersonLegalEntity PersonType = "LEGAL_ENTITY"
)

// Valid reports whether p is a known person type
func (p PersonType) Valid() bool {
	return p == PersonIndividual || p == PersonLegalEntity
}

// ParsePersonType accepts the enum name or the short forms "person" and "legal"
func ParsePersonType(value string) (PersonType, error) {
	switch strings.ToUpper(strings.TrimSpace(value)) {
	case "INDIVIDUAL", "PERSON", "PERSON_TYPE":
		return PersonIndividual, nil
	case "LEGAL_ENTITY", "LEGAL", "LEGAL_TYPE":
		return PersonLegalEntity, nil
	}
	return "", fmt.Errorf("unknown person type %q", value)
}

// Subject is a party to a transaction, identified by its tax id
type Subject struct {
	ID         int64      `json:"id"`
	Name       string     `json:"name"`
	TaxID      string     `json:"tax_id"`
	Address    string     `json:"address,omitempty"`
	Phone      string     `json:"phone,omitempty"`
	PersonType PersonType `json:"person_type"`
}

// SubjectPatch carries the fields of a partial subject update.
// Absent and blank fields leave the stored value untouched.
type SubjectPatch struct {
	Name       Optional[string]     `json:"name"`
	TaxID      Optional[string]     `json:"tax_id"`
	Address    Optional[string]     `json:"address"`
	Phone      Optional[string]     `json:"phone"`
	PersonType Optional[PersonType] `json:"person_type"`
}
