package inventory

import (
	"time"

	"github.com/google/uuid"
)

// Product is a retail item sold at the front desk (supports, topicals,
// pillows and the like).
type Product struct {
	ID         uuid.UUID `db:"id" json:"id"`
	SKU        string    `db:"sku" json:"sku"`
	Name       string    `db:"name" json:"name"`
	PriceCents int       `db:"price_cents" json:"price_cents"`
	Stock      int       `db:"stock" json:"stock"`
	Active     bool      `db:"active" json:"active"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
	UpdatedAt  time.Time `db:"updated_at" json:"updated_at"`
}

// Sale is a completed point-of-sale transaction.
type Sale struct {
	ID         uuid.UUID  `db:"id" json:"id"`
	PatientID  *uuid.UUID `db:"patient_id" json:"patient_id,omitempty"`
	TotalCents int        `db:"total_cents" json:"total_cents"`
	SoldAt     time.Time  `db:"sold_at" json:"sold_at"`
	SoldBy     string     `db:"sold_by" json:"sold_by"`

	Items []SaleItem `json:"items"`
}

type SaleItem struct {
	ID             uuid.UUID `db:"id" json:"id"`
	SaleID         uuid.UUID `db:"sale_id" json:"sale_id"`
	ProductID      uuid.UUID `db:"product_id" json:"product_id"`
	Quantity       int       `db:"quantity" json:"quantity"`
	UnitPriceCents int       `db:"unit_price_cents" json:"unit_price_cents"`
}

// SaleRequest is the POS checkout payload. Prices come from the product
// record at sale time, never from the client.
type SaleRequest struct {
	PatientID *uuid.UUID     `json:"patient_id,omitempty"`
	Items     []SaleItemLine `json:"items"`
}

type SaleItemLine struct {
	ProductID uuid.UUID `json:"product_id"`
	Quantity  int       `json:"quantity"`
}
