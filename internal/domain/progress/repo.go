package progress

import (
	"context"

	"github.com/google/uuid"
)

type ActivityRepository interface {
	Create(ctx context.Context, a *Activity) error
	ListByPatient(ctx context.Context, patientID uuid.UUID) ([]*Activity, error)
}

type AchievementRepository interface {
	Create(ctx context.Context, a *Achievement) error
	ListByPatient(ctx context.Context, patientID uuid.UUID) ([]*Achievement, error)
}
