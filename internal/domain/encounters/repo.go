package encounters

import (
	"context"
	"time"

	"github.com/google/uuid"
)

type Repository interface {
	Create(ctx context.Context, e *Encounter) error
	GetByID(ctx context.Context, id uuid.UUID) (*Encounter, error)
	Update(ctx context.Context, e *Encounter) error
	Sign(ctx context.Context, id uuid.UUID, signedBy string, signedAt time.Time) error
	ListByPatient(ctx context.Context, patientID uuid.UUID, limit, offset int) ([]*Encounter, int, error)
	ListByProvider(ctx context.Context, providerID uuid.UUID, from, to time.Time) ([]*Encounter, error)
}
