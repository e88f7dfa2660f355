package models

// Bank is an account held by a subject
type Bank struct {
	ID                   int64  `json:"id"`
	Name                 string `json:"name"`
	AccountNumber        string `json:"account_number"`
	CorrespondentAccount string `json:"correspondent_account"`
	SubjectID            int64  `json:"subject_id"`
}

// BankPatch describes a lookup-or-create request keyed by account number
type BankPatch struct {
	AccountNumber        string
	Name                 Optional[string]
	CorrespondentAccount Optional[string]
	Owner                *Subject
}
