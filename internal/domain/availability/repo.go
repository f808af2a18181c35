package availability

import (
	"context"
	"time"

	"github.com/google/uuid"
)

type ProviderRepository interface {
	Create(ctx context.Context, p *Provider) error
	GetByID(ctx context.Context, id uuid.UUID) (*Provider, error)
	Update(ctx context.Context, p *Provider) error
	Delete(ctx context.Context, id uuid.UUID) error
	List(ctx context.Context, activeOnly bool, limit, offset int) ([]*Provider, int, error)
}

type WeeklyScheduleRepository interface {
	Create(ctx context.Context, ws *WeeklySchedule) error
	Update(ctx context.Context, ws *WeeklySchedule) error
	Delete(ctx context.Context, id uuid.UUID) error
	ListByProvider(ctx context.Context, providerID uuid.UUID) ([]WeeklySchedule, error)
	ListActive(ctx context.Context) ([]WeeklySchedule, error)
}

type ExceptionRepository interface {
	Create(ctx context.Context, exc *ScheduleException) error
	Delete(ctx context.Context, id uuid.UUID) error
	ListInRange(ctx context.Context, from, to time.Time) ([]ScheduleException, error)
}

type BlockRepository interface {
	Create(ctx context.Context, b *ScheduleBlock) error
	Delete(ctx context.Context, id uuid.UUID) error
	ListInRange(ctx context.Context, from, to time.Time) ([]ScheduleBlock, error)
}

// BookedIntervalReader reads existing appointment intervals so the
// calculator can exclude occupied time.
type BookedIntervalReader interface {
	ListInRange(ctx context.Context, from, to time.Time) ([]BookedInterval, error)
}

// DurationResolver maps an appointment type to its service length.
type DurationResolver interface {
	DurationFor(ctx context.Context, appointmentTypeID uuid.UUID) (time.Duration, error)
}
