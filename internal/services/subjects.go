package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/n1str/RationX/internal/database/db"
	"github.com/n1str/RationX/internal/models"
	"github.com/rs/zerolog"
)

// SubjectService resolves transaction parties by tax id. Its methods take
// the Querier to run on, so they compose inside a caller's transaction.
type SubjectService struct {
	validator *RequestValidator
	log       zerolog.Logger
}

func NewSubjectService(validator *RequestValidator, log zerolog.Logger) *SubjectService {
	return &SubjectService{
		validator: validator,
		log:       log.With().Str("service", "subjects").Logger(),
	}
}

// GetOrCreate looks the subject up by trimmed tax id. An existing subject
// has its name, address and phone overwritten with the input. Its person
// type is overwritten only when the input carries one.
func (s *SubjectService) GetOrCreate(ctx context.Context, q db.Querier, in PartyRequest) (*models.Subject, error) {
	taxID := strings.TrimSpace(in.TaxID)
	personType := in.PersonType
	if personType == "" {
		personType = models.PersonIndividual
	}

	existing, err := q.FindSubjectByTaxID(ctx, taxID)
	if err != nil {
		return nil, fmt.Errorf("failed to look up subject: %w", err)
	}

	if existing != nil {
		existing.Name = in.Name
		existing.Address = in.Address
		existing.Phone = in.Phone
		if in.PersonType != "" {
			existing.PersonType = in.PersonType
		}
		if err := q.UpdateSubject(ctx, existing); err != nil {
			return nil, storeError(err, "subject")
		}
		s.log.Info().Int64("subject_id", existing.ID).Str("tax_id", taxID).Msg("subject overwritten")
		return existing, nil
	}

	subject := &models.Subject{
		Name:       in.Name,
		TaxID:      taxID,
		Address:    in.Address,
		Phone:      in.Phone,
		PersonType: personType,
	}
	if err := q.CreateSubject(ctx, subject); err != nil {
		return nil, storeError(err, "subject")
	}
	s.log.Info().Int64("subject_id", subject.ID).Str("tax_id", taxID).Msg("subject created")
	return subject, nil
}

// Patch applies the present, non-blank fields of patch to subject and
// persists it. Every field is checked before any is applied.
func (s *SubjectService) Patch(ctx context.Context, q db.Querier, subject *models.Subject, patch models.SubjectPatch) error {
	if subject == nil {
		return notFound("subject")
	}

	taxID, hasTaxID := presentString(patch.TaxID)
	if hasTaxID {
		if err := s.validator.ValidateTaxID(taxID); err != nil {
			s.log.Warn().Int64("subject_id", subject.ID).Str("tax_id", taxID).Msg("rejected tax id")
			return err
		}
	}
	phone, hasPhone := presentString(patch.Phone)
	if hasPhone {
		if err := s.validator.ValidatePhone(phone); err != nil {
			return err
		}
	}
	personType, hasPersonType := patch.PersonType.Get()
	if hasPersonType && personType != "" && !personType.Valid() {
		return invalid("person_type", "unknown person type %q", personType)
	}

	updated := *subject
	if name, ok := presentString(patch.Name); ok {
		updated.Name = name
	}
	if hasTaxID {
		updated.TaxID = taxID
	}
	if address, ok := presentString(patch.Address); ok {
		updated.Address = address
	}
	if hasPhone {
		updated.Phone = phone
	}
	if hasPersonType && personType != "" {
		updated.PersonType = personType
	}

	if updated == *subject {
		return nil
	}
	if err := q.UpdateSubject(ctx, &updated); err != nil {
		return storeError(err, "subject")
	}
	*subject = updated
	s.log.Debug().Int64("subject_id", subject.ID).Msg("subject patched")
	return nil
}

// PatchFromParty builds the patch carrying every field of a party payload
func PatchFromParty(p PartyRequest) models.SubjectPatch {
	patch := models.SubjectPatch{
		Name:    models.Some(p.Name),
		TaxID:   models.Some(p.TaxID),
		Address: models.Some(p.Address),
		Phone:   models.Some(p.Phone),
	}
	if p.PersonType != "" {
		patch.PersonType = models.Some(p.PersonType)
	}
	return patch
}

// presentString returns the trimmed value when it is present and not blank
func presentString(o models.Optional[string]) (string, bool) {
	v, ok := o.Get()
	if !ok {
		return "", false
	}
	v = strings.TrimSpace(v)
	return v, v != ""
}

func storeError(err error, what string) error {
	if db.IsUniqueViolation(err) {
		return fmt.Errorf("%w: %s already exists", ErrConflict, what)
	}
	return fmt.Errorf("failed to save %s: %w", what, err)
}
