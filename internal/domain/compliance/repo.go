package compliance

import (
	"context"
	"time"

	"github.com/google/uuid"
)

type VendorRepository interface {
	Create(ctx context.Context, v *Vendor) error
	GetByID(ctx context.Context, id uuid.UUID) (*Vendor, error)
	Update(ctx context.Context, v *Vendor) error
	List(ctx context.Context) ([]*Vendor, error)
}

type BAARepository interface {
	Create(ctx context.Context, b *BAA) error
	GetByID(ctx context.Context, id uuid.UUID) (*BAA, error)
	// LatestByVendor returns the most recent agreement for each vendor.
	LatestByVendor(ctx context.Context) (map[uuid.UUID]*BAA, error)
	ListByVendor(ctx context.Context, vendorID uuid.UUID) ([]*BAA, error)
	MarkSigned(ctx context.Context, id uuid.UUID, signedAt time.Time) error
}
