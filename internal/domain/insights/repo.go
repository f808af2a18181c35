package insights

import (
	"context"

	"github.com/google/uuid"
)

type InsightRepository interface {
	Create(ctx context.Context, ins *Insight) error
	List(ctx context.Context, kind string, limit, offset int) ([]*Insight, int, error)
	ListBySubject(ctx context.Context, subjectID uuid.UUID) ([]*Insight, error)
}

type RunRepository interface {
	Create(ctx context.Context, r *Run) error
	List(ctx context.Context, limit, offset int) ([]*Run, int, error)
}
