package billing

import (
	"time"

	"github.com/google/uuid"
)

const (
	ClaimDraft     = "draft"
	ClaimSubmitted = "submitted"
	ClaimPaid      = "paid"
	ClaimDenied    = "denied"
)

// claimTransitions defines the legal claim lifecycle. Denied claims may be
// corrected and resubmitted; paid is terminal.
var claimTransitions = map[string][]string{
	ClaimDraft:     {ClaimSubmitted},
	ClaimSubmitted: {ClaimPaid, ClaimDenied},
	ClaimPaid:      {},
	ClaimDenied:    {ClaimSubmitted},
}

// Claim maps to the claim table. Lines are loaded alongside the claim.
type Claim struct {
	ID          uuid.UUID  `db:"id" json:"id"`
	PatientID   uuid.UUID  `db:"patient_id" json:"patient_id"`
	EncounterID uuid.UUID  `db:"encounter_id" json:"encounter_id"`
	PayerName   string     `db:"payer_name" json:"payer_name"`
	Status      string     `db:"status" json:"status"`
	SubmittedAt *time.Time `db:"submitted_at" json:"submitted_at,omitempty"`
	ResolvedAt  *time.Time `db:"resolved_at" json:"resolved_at,omitempty"`
	DenialCode  *string    `db:"denial_code" json:"denial_code,omitempty"`
	CreatedAt   time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time  `db:"updated_at" json:"updated_at"`

	Lines []ClaimLine `json:"lines"`
}

// TotalCents sums the claim's service lines.
func (c *Claim) TotalCents() int {
	total := 0
	for _, l := range c.Lines {
		total += l.Units * l.UnitPriceCents
	}
	return total
}

// CanTransition reports whether the claim may move to the given status.
func (c *Claim) CanTransition(to string) bool {
	for _, allowed := range claimTransitions[c.Status] {
		if allowed == to {
			return true
		}
	}
	return false
}

// ClaimLine is one billed service on a claim, identified by a CPT-style code.
type ClaimLine struct {
	ID             uuid.UUID `db:"id" json:"id"`
	ClaimID        uuid.UUID `db:"claim_id" json:"claim_id"`
	CPTCode        string    `db:"cpt_code" json:"cpt_code"`
	Description    string    `db:"description" json:"description"`
	Units          int       `db:"units" json:"units"`
	UnitPriceCents int       `db:"unit_price_cents" json:"unit_price_cents"`
}

const (
	InvoiceOpen = "open"
	InvoicePaid = "paid"
	InvoiceVoid = "void"
)

// Invoice is the patient-facing statement for a claim's patient
// responsibility after payer adjudication.
type Invoice struct {
	ID          uuid.UUID  `db:"id" json:"id"`
	ClaimID     uuid.UUID  `db:"claim_id" json:"claim_id"`
	PatientID   uuid.UUID  `db:"patient_id" json:"patient_id"`
	AmountCents int        `db:"amount_cents" json:"amount_cents"`
	Status      string     `db:"status" json:"status"`
	PaidAt      *time.Time `db:"paid_at" json:"paid_at,omitempty"`
	CreatedAt   time.Time  `db:"created_at" json:"created_at"`
}
