package billing

import (
	"context"
	"time"

	"github.com/google/uuid"
)

type ClaimRepository interface {
	Create(ctx context.Context, c *Claim) error
	GetByID(ctx context.Context, id uuid.UUID) (*Claim, error)
	AddLine(ctx context.Context, line *ClaimLine) error
	UpdateStatus(ctx context.Context, id uuid.UUID, from, to string, at time.Time, denialCode *string) error
	ListByPatient(ctx context.Context, patientID uuid.UUID, limit, offset int) ([]*Claim, int, error)
	ListByStatus(ctx context.Context, status string, limit, offset int) ([]*Claim, int, error)
}

type InvoiceRepository interface {
	Create(ctx context.Context, inv *Invoice) error
	GetByID(ctx context.Context, id uuid.UUID) (*Invoice, error)
	MarkPaid(ctx context.Context, id uuid.UUID, at time.Time) error
	ListByPatient(ctx context.Context, patientID uuid.UUID, limit, offset int) ([]*Invoice, int, error)
}
