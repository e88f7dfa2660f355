package models

// Category labels a transaction and declares which direction it applies to
type Category struct {
	ID   int64           `json:"id"`
	Name string          `json:"name"`
	Type TransactionType `json:"type"`
}
