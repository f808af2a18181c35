package scheduling

import (
	"context"
	"time"

	"github.com/google/uuid"
)

type AppointmentTypeRepository interface {
	Create(ctx context.Context, at *AppointmentType) error
	GetByID(ctx context.Context, id uuid.UUID) (*AppointmentType, error)
	Update(ctx context.Context, at *AppointmentType) error
	Delete(ctx context.Context, id uuid.UUID) error
	List(ctx context.Context, activeOnly bool) ([]*AppointmentType, error)
}

type AppointmentRepository interface {
	Create(ctx context.Context, a *Appointment) error
	GetByID(ctx context.Context, id uuid.UUID) (*Appointment, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status string) error
	UpdateTimes(ctx context.Context, id uuid.UUID, start, end time.Time) error
	ListByPatient(ctx context.Context, patientID uuid.UUID, limit, offset int) ([]*Appointment, int, error)
	ListByProvider(ctx context.Context, providerID uuid.UUID, from, to time.Time) ([]*Appointment, error)

	// CountOverlapping counts live appointments for the provider whose
	// [start_time, end_time) intersects [start, end). excludeID skips one
	// appointment, so reschedules do not conflict with themselves.
	CountOverlapping(ctx context.Context, providerID uuid.UUID, start, end time.Time, excludeID *uuid.UUID) (int, error)

	// CountBlocksOverlapping counts closure blocks applicable to the
	// provider that intersect [start, end).
	CountBlocksOverlapping(ctx context.Context, providerID uuid.UUID, start, end time.Time) (int, error)
}
