package db

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/n1str/RationX/internal/models"
)

const findSubjectByTaxID = `-- name: FindSubjectByTaxID :one
SELECT id, name, tax_id, address, phone, person_type
FROM subjects
WHERE tax_id = $1
`

// FindSubjectByTaxID returns nil when no subject holds the tax id
func (q *Queries) FindSubjectByTaxID(ctx context.Context, taxID string) (*models.Subject, error) {
	return scanSubject(q.db.QueryRow(ctx, findSubjectByTaxID, taxID))
}

const getSubject = `-- name: GetSubject :one
SELECT id, name, tax_id, address, phone, person_type
FROM subjects
WHERE id = $1
`

func (q *Queries) GetSubject(ctx context.Context, id int64) (*models.Subject, error) {
	return scanSubject(q.db.QueryRow(ctx, getSubject, id))
}

func scanSubject(row pgx.Row) (*models.Subject, error) {
	var s models.Subject
	var personType string
	err := row.Scan(&s.ID, &s.Name, &s.TaxID, &s.Address, &s.Phone, &personType)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	s.PersonType = models.PersonType(personType)
	return &s, nil
}

const createSubject = `-- name: CreateSubject :one
INSERT INTO subjects (name, tax_id, address, phone, person_type)
VALUES ($1, $2, $3, $4, $5)
RETURNING id
`

// CreateSubject inserts s and sets its ID
func (q *Queries) CreateSubject(ctx context.Context, s *models.Subject) error {
	return q.db.QueryRow(ctx, createSubject,
		s.Name,
		s.TaxID,
		s.Address,
		s.Phone,
		string(s.PersonType),
	).Scan(&s.ID)
}

const updateSubject = `-- name: UpdateSubject :exec
UPDATE subjects
SET name = $2, tax_id = $3, address = $4, phone = $5, person_type = $6
WHERE id = $1
`

func (q *Queries) UpdateSubject(ctx context.Context, s *models.Subject) error {
	_, err := q.db.Exec(ctx, updateSubject,
		s.ID,
		s.Name,
		s.TaxID,
		s.Address,
		s.Phone,
		string(s.PersonType),
	)
	return err
}
