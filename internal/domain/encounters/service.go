package encounters

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/chirohq/chiro/pkg/clock"
)

// ErrSigned is returned when a mutation targets a signed encounter.
var ErrSigned = errors.New("encounter is signed and cannot be modified")

type Service struct {
	repo Repository
	clk  clock.Clock
}

func NewService(repo Repository, clk clock.Clock) *Service {
	return &Service{repo: repo, clk: clk}
}

func (s *Service) Create(ctx context.Context, e *Encounter) error {
	if e.PatientID == uuid.Nil {
		return fmt.Errorf("patient_id is required")
	}
	if e.ProviderID == uuid.Nil {
		return fmt.Errorf("provider_id is required")
	}
	if e.EncounterDate.IsZero() {
		e.EncounterDate = s.clk.Now()
	}
	return s.repo.Create(ctx, e)
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*Encounter, error) {
	return s.repo.GetByID(ctx, id)
}

// Update rewrites the SOAP fields of an unsigned encounter.
func (s *Service) Update(ctx context.Context, e *Encounter) error {
	current, err := s.repo.GetByID(ctx, e.ID)
	if err != nil {
		return err
	}
	if current.Signed {
		return ErrSigned
	}
	return s.repo.Update(ctx, e)
}

// Sign locks the encounter. The signing provider is recorded with the
// signature timestamp; further edits are rejected.
func (s *Service) Sign(ctx context.Context, id uuid.UUID, signedBy string) error {
	if signedBy == "" {
		return fmt.Errorf("signer identity is required")
	}
	current, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if current.Signed {
		return ErrSigned
	}
	return s.repo.Sign(ctx, id, signedBy, s.clk.Now())
}

func (s *Service) ListByPatient(ctx context.Context, patientID uuid.UUID, limit, offset int) ([]*Encounter, int, error) {
	return s.repo.ListByPatient(ctx, patientID, limit, offset)
}

func (s *Service) ListByProvider(ctx context.Context, providerID uuid.UUID, from, to time.Time) ([]*Encounter, error) {
	return s.repo.ListByProvider(ctx, providerID, from, to)
}
