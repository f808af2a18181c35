package compliance

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/chirohq/chiro/pkg/clock"
)

// Factor weights. They sum to 100 so a vendor score reads as a percentage.
const (
	weightSigned = 50.0
	weightExpiry = 30.0
	weightTier   = 20.0
)

// expiryWarningWindow is how far ahead an expiring BAA starts costing points.
const expiryWarningWindow = 90 * 24 * time.Hour

type Service struct {
	vendors VendorRepository
	baas    BAARepository
	clk     clock.Clock
}

func NewService(vendors VendorRepository, baas BAARepository, clk clock.Clock) *Service {
	return &Service{vendors: vendors, baas: baas, clk: clk}
}

func (s *Service) CreateVendor(ctx context.Context, v *Vendor) error {
	if v.Name == "" {
		return fmt.Errorf("name is required")
	}
	if !validTiers[v.RiskTier] {
		return fmt.Errorf("risk_tier must be one of low, medium, high")
	}
	return s.vendors.Create(ctx, v)
}

func (s *Service) UpdateVendor(ctx context.Context, v *Vendor) error {
	if v.Name == "" {
		return fmt.Errorf("name is required")
	}
	if !validTiers[v.RiskTier] {
		return fmt.Errorf("risk_tier must be one of low, medium, high")
	}
	return s.vendors.Update(ctx, v)
}

func (s *Service) GetVendor(ctx context.Context, id uuid.UUID) (*Vendor, error) {
	return s.vendors.GetByID(ctx, id)
}

func (s *Service) ListVendors(ctx context.Context) ([]*Vendor, error) {
	return s.vendors.List(ctx)
}

func (s *Service) CreateBAA(ctx context.Context, b *BAA) error {
	if b.VendorID == uuid.Nil {
		return fmt.Errorf("vendor_id is required")
	}
	if b.ExpiresAt.IsZero() {
		return fmt.Errorf("expires_at is required")
	}
	if _, err := s.vendors.GetByID(ctx, b.VendorID); err != nil {
		return fmt.Errorf("vendor %s: %w", b.VendorID, err)
	}
	return s.baas.Create(ctx, b)
}

func (s *Service) SignBAA(ctx context.Context, id uuid.UUID) error {
	return s.baas.MarkSigned(ctx, id, s.clk.Now())
}

func (s *Service) ListBAAs(ctx context.Context, vendorID uuid.UUID) ([]*BAA, error) {
	return s.baas.ListByVendor(ctx, vendorID)
}

// Report scores every vendor and averages the results. A practice with no
// vendors on record scores 100: there is nothing to be out of compliance with.
func (s *Service) Report(ctx context.Context) (*Report, error) {
	vendors, err := s.vendors.List(ctx)
	if err != nil {
		return nil, err
	}
	latest, err := s.baas.LatestByVendor(ctx)
	if err != nil {
		return nil, err
	}

	now := s.clk.Now()
	rep := &Report{GeneratedAt: now}
	if len(vendors) == 0 {
		rep.OverallScore = 100
		return rep, nil
	}

	var sum float64
	for _, v := range vendors {
		vs := scoreVendor(v, latest[v.ID], now)
		sum += vs.Score
		rep.Vendors = append(rep.Vendors, vs)
	}
	rep.OverallScore = sum / float64(len(vendors))
	return rep, nil
}

func scoreVendor(v *Vendor, baa *BAA, now time.Time) VendorScore {
	vs := VendorScore{VendorID: v.ID, Vendor: v.Name}

	signed := ScoreFactor{Name: "baa_signed", Weight: weightSigned}
	expiry := ScoreFactor{Name: "baa_expiry", Weight: weightExpiry}
	switch {
	case baa == nil:
		signed.Detail = "no BAA on file"
		expiry.Detail = "no BAA on file"
	case !baa.Signed():
		signed.Detail = "BAA drafted but not signed"
		expiry.Detail = "unsigned agreements earn no expiry credit"
	case !baa.ExpiresAt.After(now):
		signed.Earned = weightSigned
		signed.Detail = "signed BAA on file"
		expiry.Detail = fmt.Sprintf("expired %s", baa.ExpiresAt.Format("2006-01-02"))
	case baa.ExpiresAt.Sub(now) < expiryWarningWindow:
		signed.Earned = weightSigned
		signed.Detail = "signed BAA on file"
		expiry.Earned = weightExpiry / 2
		expiry.Detail = fmt.Sprintf("expires soon (%s)", baa.ExpiresAt.Format("2006-01-02"))
	default:
		signed.Earned = weightSigned
		signed.Detail = "signed BAA on file"
		expiry.Earned = weightExpiry
		expiry.Detail = fmt.Sprintf("valid until %s", baa.ExpiresAt.Format("2006-01-02"))
	}

	tier := ScoreFactor{Name: "vendor_risk_tier", Weight: weightTier, Detail: v.RiskTier + " risk tier"}
	switch v.RiskTier {
	case TierLow:
		tier.Earned = weightTier
	case TierMedium:
		tier.Earned = weightTier / 2
	}

	vs.Factors = []ScoreFactor{signed, expiry, tier}
	for _, f := range vs.Factors {
		vs.Score += f.Earned
	}
	return vs
}
