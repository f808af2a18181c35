package inventory

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/chirohq/chiro/pkg/clock"
)

type mockProductRepo struct {
	mu       sync.Mutex
	products map[uuid.UUID]*Product
}

func newMockProductRepo() *mockProductRepo {
	return &mockProductRepo{products: make(map[uuid.UUID]*Product)}
}

func (m *mockProductRepo) Create(_ context.Context, p *Product) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	p.ID = uuid.New()
	cp := *p
	m.products[p.ID] = &cp
	return nil
}

func (m *mockProductRepo) GetByID(_ context.Context, id uuid.UUID) (*Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.products[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	cp := *p
	return &cp, nil
}

func (m *mockProductRepo) Update(_ context.Context, p *Product) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cur, ok := m.products[p.ID]
	if !ok {
		return pgx.ErrNoRows
	}
	cur.SKU, cur.Name, cur.PriceCents, cur.Active = p.SKU, p.Name, p.PriceCents, p.Active
	return nil
}

func (m *mockProductRepo) List(_ context.Context, activeOnly bool, limit, offset int) ([]*Product, int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*Product
	for _, p := range m.products {
		if !activeOnly || p.Active {
			cp := *p
			out = append(out, &cp)
		}
	}
	return out, len(out), nil
}

func (m *mockProductRepo) AdjustStock(_ context.Context, id uuid.UUID, delta int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.products[id]
	if !ok || p.Stock+delta < 0 {
		return pgx.ErrNoRows
	}
	p.Stock += delta
	return nil
}

type mockSaleRepo struct {
	mu    sync.Mutex
	sales map[uuid.UUID]*Sale
}

func newMockSaleRepo() *mockSaleRepo {
	return &mockSaleRepo{sales: make(map[uuid.UUID]*Sale)}
}

func (m *mockSaleRepo) Create(_ context.Context, s *Sale) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	s.ID = uuid.New()
	cp := *s
	cp.Items = append([]SaleItem(nil), s.Items...)
	m.sales[s.ID] = &cp
	return nil
}

func (m *mockSaleRepo) GetByID(_ context.Context, id uuid.UUID) (*Sale, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sales[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	cp := *s
	return &cp, nil
}

func (m *mockSaleRepo) List(_ context.Context, limit, offset int) ([]*Sale, int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*Sale
	for _, s := range m.sales {
		cp := *s
		out = append(out, &cp)
	}
	return out, len(out), nil
}

// serialTx serializes checkouts the way row locks do in postgres. The mock
// repos cannot roll back, so tests only drive it down paths where partial
// writes do not matter.
func serialTx() TxRunner {
	var mu sync.Mutex
	return func(ctx context.Context, fn func(ctx context.Context) error) error {
		mu.Lock()
		defer mu.Unlock()
		return fn(ctx)
	}
}

var saleNow = time.Date(2026, 3, 11, 10, 30, 0, 0, time.UTC)

func newTestService() (*Service, *mockProductRepo, *mockSaleRepo) {
	products := newMockProductRepo()
	sales := newMockSaleRepo()
	return NewService(products, sales, serialTx(), clock.Fixed(saleNow)), products, sales
}

func addProduct(t *testing.T, svc *Service, sku string, price, stock int) *Product {
	t.Helper()
	p := &Product{SKU: sku, Name: "Test " + sku, PriceCents: price, Stock: stock, Active: true}
	if err := svc.CreateProduct(context.Background(), p); err != nil {
		t.Fatal(err)
	}
	return p
}

func TestCreateProduct_Validation(t *testing.T) {
	svc, _, _ := newTestService()
	ctx := context.Background()

	if err := svc.CreateProduct(ctx, &Product{Name: "No SKU"}); err == nil {
		t.Error("expected error for missing sku")
	}
	if err := svc.CreateProduct(ctx, &Product{SKU: "X1"}); err == nil {
		t.Error("expected error for missing name")
	}
	if err := svc.CreateProduct(ctx, &Product{SKU: "X1", Name: "X", PriceCents: -1}); err == nil {
		t.Error("expected error for negative price")
	}
	if err := svc.CreateProduct(ctx, &Product{SKU: "X1", Name: "X", Stock: -5}); err == nil {
		t.Error("expected error for negative stock")
	}
}

func TestCheckout_DecrementsStock(t *testing.T) {
	svc, products, sales := newTestService()
	ctx := context.Background()
	pillow := addProduct(t, svc, "PIL-01", 4500, 10)
	tape := addProduct(t, svc, "TAPE-01", 1200, 20)

	sale, err := svc.Checkout(ctx, &SaleRequest{Items: []SaleItemLine{
		{ProductID: pillow.ID, Quantity: 1},
		{ProductID: tape.ID, Quantity: 3},
	}}, "front-desk-1")
	if err != nil {
		t.Fatalf("checkout: %v", err)
	}

	if sale.TotalCents != 4500+3*1200 {
		t.Errorf("expected total 8100, got %d", sale.TotalCents)
	}
	if !sale.SoldAt.Equal(saleNow) || sale.SoldBy != "front-desk-1" {
		t.Errorf("sale metadata wrong: %+v", sale)
	}
	if got := products.products[pillow.ID].Stock; got != 9 {
		t.Errorf("pillow stock: expected 9, got %d", got)
	}
	if got := products.products[tape.ID].Stock; got != 17 {
		t.Errorf("tape stock: expected 17, got %d", got)
	}
	if len(sales.sales) != 1 {
		t.Errorf("expected one recorded sale, got %d", len(sales.sales))
	}
}

func TestCheckout_RefusesOversell(t *testing.T) {
	svc, products, sales := newTestService()
	ctx := context.Background()
	p := addProduct(t, svc, "PIL-01", 4500, 2)

	_, err := svc.Checkout(ctx, &SaleRequest{Items: []SaleItemLine{
		{ProductID: p.ID, Quantity: 3},
	}}, "front-desk-1")
	if !errors.Is(err, ErrInsufficientStock) {
		t.Fatalf("expected ErrInsufficientStock, got %v", err)
	}
	if got := products.products[p.ID].Stock; got != 2 {
		t.Errorf("stock should be untouched, got %d", got)
	}
	if len(sales.sales) != 0 {
		t.Error("no sale should be recorded")
	}
}

func TestCheckout_ConcurrentSales_NeverOversell(t *testing.T) {
	svc, products, _ := newTestService()
	p := addProduct(t, svc, "PIL-01", 4500, 5)

	const buyers = 8
	results := make(chan error, buyers)
	for i := 0; i < buyers; i++ {
		go func() {
			_, err := svc.Checkout(context.Background(), &SaleRequest{Items: []SaleItemLine{
				{ProductID: p.ID, Quantity: 1},
			}}, "front-desk-1")
			results <- err
		}()
	}

	var ok, conflict int
	for i := 0; i < buyers; i++ {
		switch err := <-results; {
		case err == nil:
			ok++
		case errors.Is(err, ErrInsufficientStock):
			conflict++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if ok != 5 || conflict != 3 {
		t.Errorf("expected 5 sales and 3 conflicts, got %d/%d", ok, conflict)
	}
	if got := products.products[p.ID].Stock; got != 0 {
		t.Errorf("expected stock 0, got %d", got)
	}
}

func TestCheckout_InactiveProductRejected(t *testing.T) {
	svc, products, _ := newTestService()
	p := addProduct(t, svc, "OLD-01", 900, 5)
	products.products[p.ID].Active = false

	_, err := svc.Checkout(context.Background(), &SaleRequest{Items: []SaleItemLine{
		{ProductID: p.ID, Quantity: 1},
	}}, "front-desk-1")
	if err == nil {
		t.Error("expected error selling an inactive product")
	}
}

func TestCheckout_Validation(t *testing.T) {
	svc, _, _ := newTestService()
	ctx := context.Background()

	if _, err := svc.Checkout(ctx, &SaleRequest{}, "u"); err == nil {
		t.Error("expected error for empty cart")
	}
	if _, err := svc.Checkout(ctx, &SaleRequest{Items: []SaleItemLine{{ProductID: uuid.New(), Quantity: 0}}}, "u"); err == nil {
		t.Error("expected error for zero quantity")
	}
	if _, err := svc.Checkout(ctx, &SaleRequest{Items: []SaleItemLine{{Quantity: 1}}}, "u"); err == nil {
		t.Error("expected error for missing product id")
	}
}

func TestRestock(t *testing.T) {
	svc, products, _ := newTestService()
	ctx := context.Background()
	p := addProduct(t, svc, "PIL-01", 4500, 1)

	if err := svc.Restock(ctx, p.ID, 12); err != nil {
		t.Fatal(err)
	}
	if got := products.products[p.ID].Stock; got != 13 {
		t.Errorf("expected stock 13, got %d", got)
	}
	if err := svc.Restock(ctx, p.ID, 0); err == nil {
		t.Error("expected error for non-positive quantity")
	}
}
