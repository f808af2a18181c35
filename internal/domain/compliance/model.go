package compliance

import (
	"time"

	"github.com/google/uuid"
)

const (
	TierLow    = "low"
	TierMedium = "medium"
	TierHigh   = "high"
)

var validTiers = map[string]bool{TierLow: true, TierMedium: true, TierHigh: true}

// Vendor is a business associate the practice shares PHI with (billing
// clearinghouse, transcription service, cloud host).
type Vendor struct {
	ID        uuid.UUID `db:"id" json:"id"`
	Name      string    `db:"name" json:"name"`
	RiskTier  string    `db:"risk_tier" json:"risk_tier"`
	Contact   string    `db:"contact" json:"contact"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// BAA is a business-associate agreement on file for a vendor.
type BAA struct {
	ID          uuid.UUID  `db:"id" json:"id"`
	VendorID    uuid.UUID  `db:"vendor_id" json:"vendor_id"`
	SignedAt    *time.Time `db:"signed_at" json:"signed_at,omitempty"`
	ExpiresAt   time.Time  `db:"expires_at" json:"expires_at"`
	DocumentURL string     `db:"document_url" json:"document_url"`
	CreatedAt   time.Time  `db:"created_at" json:"created_at"`
}

// Signed reports whether the agreement has been executed.
func (b *BAA) Signed() bool { return b.SignedAt != nil }

// ScoreFactor is one named component of a vendor's compliance score.
type ScoreFactor struct {
	Name   string  `json:"name"`
	Weight float64 `json:"weight"`
	Earned float64 `json:"earned"`
	Detail string  `json:"detail"`
}

// VendorScore is the weighted-sum compliance score for one vendor.
type VendorScore struct {
	VendorID uuid.UUID     `json:"vendor_id"`
	Vendor   string        `json:"vendor"`
	Score    float64       `json:"score"`
	Factors  []ScoreFactor `json:"factors"`
}

// Report aggregates vendor scores for the organization.
type Report struct {
	OverallScore float64       `json:"overall_score"`
	Vendors      []VendorScore `json:"vendors"`
	GeneratedAt  time.Time     `json:"generated_at"`
}
