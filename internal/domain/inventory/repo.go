package inventory

import (
	"context"

	"github.com/google/uuid"
)

type ProductRepository interface {
	Create(ctx context.Context, p *Product) error
	GetByID(ctx context.Context, id uuid.UUID) (*Product, error)
	Update(ctx context.Context, p *Product) error
	List(ctx context.Context, activeOnly bool, limit, offset int) ([]*Product, int, error)
	// AdjustStock applies a signed delta. The update is refused when it
	// would take stock negative; callers see pgx.ErrNoRows in that case.
	AdjustStock(ctx context.Context, id uuid.UUID, delta int) error
}

type SaleRepository interface {
	Create(ctx context.Context, s *Sale) error
	GetByID(ctx context.Context, id uuid.UUID) (*Sale, error)
	List(ctx context.Context, limit, offset int) ([]*Sale, int, error)
}
