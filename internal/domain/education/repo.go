package education

import (
	"context"

	"github.com/google/uuid"
)

type ArticleRepository interface {
	Create(ctx context.Context, a *Article) error
	GetBySlug(ctx context.Context, slug string) (*Article, error)
	Update(ctx context.Context, a *Article) error
	Delete(ctx context.Context, id uuid.UUID) error
	ListPublished(ctx context.Context) ([]*Article, error)
}

type ExerciseRepository interface {
	Create(ctx context.Context, e *Exercise) error
	GetBySlug(ctx context.Context, slug string) (*Exercise, error)
	Update(ctx context.Context, e *Exercise) error
	Delete(ctx context.Context, id uuid.UUID) error
	ListPublished(ctx context.Context) ([]*Exercise, error)
}
