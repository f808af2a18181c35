package billing

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/chirohq/chiro/pkg/clock"
)

// ErrBadTransition is returned when a claim status change violates the
// draft -> submitted -> paid/denied lifecycle.
var ErrBadTransition = errors.New("claim status transition not allowed")

type Service struct {
	claims   ClaimRepository
	invoices InvoiceRepository
	clk      clock.Clock
}

func NewService(claims ClaimRepository, invoices InvoiceRepository, clk clock.Clock) *Service {
	return &Service{claims: claims, invoices: invoices, clk: clk}
}

func (s *Service) CreateClaim(ctx context.Context, c *Claim) error {
	if c.PatientID == uuid.Nil {
		return fmt.Errorf("patient_id is required")
	}
	if c.EncounterID == uuid.Nil {
		return fmt.Errorf("encounter_id is required")
	}
	if len(c.Lines) == 0 {
		return fmt.Errorf("at least one service line is required")
	}
	for i, l := range c.Lines {
		if err := validateLine(&l); err != nil {
			return fmt.Errorf("line %d: %w", i, err)
		}
	}
	return s.claims.Create(ctx, c)
}

func validateLine(l *ClaimLine) error {
	if l.CPTCode == "" {
		return fmt.Errorf("cpt_code is required")
	}
	if l.Units <= 0 {
		return fmt.Errorf("units must be positive")
	}
	if l.UnitPriceCents < 0 {
		return fmt.Errorf("unit_price_cents must not be negative")
	}
	return nil
}

// AddLine appends a service line to a draft claim. Submitted and resolved
// claims are immutable.
func (s *Service) AddLine(ctx context.Context, claimID uuid.UUID, line *ClaimLine) error {
	if err := validateLine(line); err != nil {
		return err
	}
	c, err := s.claims.GetByID(ctx, claimID)
	if err != nil {
		return err
	}
	if c.Status != ClaimDraft {
		return fmt.Errorf("lines can only be added to draft claims: %w", ErrBadTransition)
	}
	line.ClaimID = claimID
	return s.claims.AddLine(ctx, line)
}

func (s *Service) Submit(ctx context.Context, id uuid.UUID) error {
	return s.transition(ctx, id, ClaimSubmitted, nil)
}

// MarkPaid resolves the claim and opens a patient invoice for any
// remaining responsibility.
func (s *Service) MarkPaid(ctx context.Context, id uuid.UUID, patientResponsibilityCents int) error {
	if patientResponsibilityCents < 0 {
		return fmt.Errorf("patient responsibility must not be negative")
	}
	c, err := s.claims.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if !c.CanTransition(ClaimPaid) {
		return fmt.Errorf("claim %s cannot move from %s to %s: %w", id, c.Status, ClaimPaid, ErrBadTransition)
	}
	if err := s.claims.UpdateStatus(ctx, id, c.Status, ClaimPaid, s.clk.Now(), nil); err != nil {
		return err
	}
	if patientResponsibilityCents > 0 {
		return s.invoices.Create(ctx, &Invoice{
			ClaimID:     c.ID,
			PatientID:   c.PatientID,
			AmountCents: patientResponsibilityCents,
		})
	}
	return nil
}

func (s *Service) Deny(ctx context.Context, id uuid.UUID, denialCode string) error {
	if denialCode == "" {
		return fmt.Errorf("denial_code is required")
	}
	return s.transition(ctx, id, ClaimDenied, &denialCode)
}

// Resubmit sends a corrected denied claim back to the payer.
func (s *Service) Resubmit(ctx context.Context, id uuid.UUID) error {
	return s.transition(ctx, id, ClaimSubmitted, nil)
}

func (s *Service) transition(ctx context.Context, id uuid.UUID, to string, denialCode *string) error {
	c, err := s.claims.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if !c.CanTransition(to) {
		return fmt.Errorf("claim %s cannot move from %s to %s: %w", id, c.Status, to, ErrBadTransition)
	}
	return s.claims.UpdateStatus(ctx, id, c.Status, to, s.clk.Now(), denialCode)
}

func (s *Service) GetClaim(ctx context.Context, id uuid.UUID) (*Claim, error) {
	return s.claims.GetByID(ctx, id)
}

func (s *Service) ListClaimsByPatient(ctx context.Context, patientID uuid.UUID, limit, offset int) ([]*Claim, int, error) {
	return s.claims.ListByPatient(ctx, patientID, limit, offset)
}

func (s *Service) ListClaimsByStatus(ctx context.Context, status string, limit, offset int) ([]*Claim, int, error) {
	if _, ok := claimTransitions[status]; !ok {
		return nil, 0, fmt.Errorf("unknown claim status %q", status)
	}
	return s.claims.ListByStatus(ctx, status, limit, offset)
}

func (s *Service) GetInvoice(ctx context.Context, id uuid.UUID) (*Invoice, error) {
	return s.invoices.GetByID(ctx, id)
}

func (s *Service) PayInvoice(ctx context.Context, id uuid.UUID) error {
	return s.invoices.MarkPaid(ctx, id, s.clk.Now())
}

func (s *Service) ListInvoicesByPatient(ctx context.Context, patientID uuid.UUID, limit, offset int) ([]*Invoice, int, error) {
	return s.invoices.ListByPatient(ctx, patientID, limit, offset)
}
