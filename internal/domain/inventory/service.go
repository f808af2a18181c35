package inventory

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/chirohq/chiro/pkg/clock"
)

// ErrInsufficientStock is returned when a checkout would oversell a product.
var ErrInsufficientStock = errors.New("insufficient stock")

// TxRunner executes fn inside a database transaction carried on the context.
type TxRunner func(ctx context.Context, fn func(ctx context.Context) error) error

type Service struct {
	products ProductRepository
	sales    SaleRepository
	runTx    TxRunner
	clk      clock.Clock
}

func NewService(products ProductRepository, sales SaleRepository, runTx TxRunner, clk clock.Clock) *Service {
	return &Service{products: products, sales: sales, runTx: runTx, clk: clk}
}

func (s *Service) CreateProduct(ctx context.Context, p *Product) error {
	if err := validateProduct(p); err != nil {
		return err
	}
	if p.Stock < 0 {
		return fmt.Errorf("stock must not be negative")
	}
	return s.products.Create(ctx, p)
}

func (s *Service) UpdateProduct(ctx context.Context, p *Product) error {
	if err := validateProduct(p); err != nil {
		return err
	}
	return s.products.Update(ctx, p)
}

func validateProduct(p *Product) error {
	if p.SKU == "" {
		return fmt.Errorf("sku is required")
	}
	if p.Name == "" {
		return fmt.Errorf("name is required")
	}
	if p.PriceCents < 0 {
		return fmt.Errorf("price_cents must not be negative")
	}
	return nil
}

func (s *Service) GetProduct(ctx context.Context, id uuid.UUID) (*Product, error) {
	return s.products.GetByID(ctx, id)
}

func (s *Service) ListProducts(ctx context.Context, activeOnly bool, limit, offset int) ([]*Product, int, error) {
	return s.products.List(ctx, activeOnly, limit, offset)
}

// Restock adds received units to a product's stock.
func (s *Service) Restock(ctx context.Context, id uuid.UUID, quantity int) error {
	if quantity <= 0 {
		return fmt.Errorf("quantity must be positive")
	}
	return s.products.AdjustStock(ctx, id, quantity)
}

// Checkout completes a POS sale. Stock decrements and the sale record
// commit atomically; if any line would oversell, the whole sale rolls
// back with ErrInsufficientStock.
func (s *Service) Checkout(ctx context.Context, req *SaleRequest, soldBy string) (*Sale, error) {
	if len(req.Items) == 0 {
		return nil, fmt.Errorf("at least one item is required")
	}
	for i, it := range req.Items {
		if it.ProductID == uuid.Nil {
			return nil, fmt.Errorf("item %d: product_id is required", i)
		}
		if it.Quantity <= 0 {
			return nil, fmt.Errorf("item %d: quantity must be positive", i)
		}
	}

	sale := &Sale{
		PatientID: req.PatientID,
		SoldAt:    s.clk.Now(),
		SoldBy:    soldBy,
	}

	err := s.runTx(ctx, func(ctx context.Context) error {
		for _, it := range req.Items {
			p, err := s.products.GetByID(ctx, it.ProductID)
			if err != nil {
				return fmt.Errorf("product %s: %w", it.ProductID, err)
			}
			if !p.Active {
				return fmt.Errorf("product %s is not for sale", p.SKU)
			}
			if err := s.products.AdjustStock(ctx, it.ProductID, -it.Quantity); err != nil {
				if errors.Is(err, pgx.ErrNoRows) {
					return fmt.Errorf("product %s: %w", p.SKU, ErrInsufficientStock)
				}
				return err
			}
			sale.Items = append(sale.Items, SaleItem{
				ProductID:      it.ProductID,
				Quantity:       it.Quantity,
				UnitPriceCents: p.PriceCents,
			})
			sale.TotalCents += it.Quantity * p.PriceCents
		}
		return s.sales.Create(ctx, sale)
	})
	if err != nil {
		return nil, err
	}
	return sale, nil
}

func (s *Service) GetSale(ctx context.Context, id uuid.UUID) (*Sale, error) {
	return s.sales.GetByID(ctx, id)
}

func (s *Service) ListSales(ctx context.Context, limit, offset int) ([]*Sale, int, error) {
	return s.sales.List(ctx, limit, offset)
}
