package inventory

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/chirohq/chiro/internal/platform/db"
)

type queryable interface {
	Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row
	Exec(ctx context.Context, sql string, args ...interface{}) (pgconn.CommandTag, error)
}

func conn(ctx context.Context, pool *pgxpool.Pool) queryable {
	if tx := db.TxFromContext(ctx); tx != nil {
		return tx
	}
	if c := db.ConnFromContext(ctx); c != nil {
		return c
	}
	return pool
}

type productRepoPG struct{ pool *pgxpool.Pool }

func NewProductRepoPG(pool *pgxpool.Pool) ProductRepository { return &productRepoPG{pool: pool} }

const productCols = `id, sku, name, price_cents, stock, active, created_at, updated_at`

func scanProduct(row pgx.Row) (*Product, error) {
	var p Product
	err := row.Scan(&p.ID, &p.SKU, &p.Name, &p.PriceCents, &p.Stock, &p.Active, &p.CreatedAt, &p.UpdatedAt)
	return &p, err
}

func (r *productRepoPG) Create(ctx context.Context, p *Product) error {
	p.ID = uuid.New()
	_, err := conn(ctx, r.pool).Exec(ctx, `
		INSERT INTO product (id, sku, name, price_cents, stock, active)
		VALUES ($1,$2,$3,$4,$5,$6)`,
		p.ID, p.SKU, p.Name, p.PriceCents, p.Stock, p.Active)
	return err
}

func (r *productRepoPG) GetByID(ctx context.Context, id uuid.UUID) (*Product, error) {
	return scanProduct(conn(ctx, r.pool).QueryRow(ctx,
		`SELECT `+productCols+` FROM product WHERE id = $1`, id))
}

func (r *productRepoPG) Update(ctx context.Context, p *Product) error {
	tag, err := conn(ctx, r.pool).Exec(ctx, `
		UPDATE product SET sku=$2, name=$3, price_cents=$4, active=$5, updated_at=NOW()
		WHERE id = $1`,
		p.ID, p.SKU, p.Name, p.PriceCents, p.Active)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *productRepoPG) List(ctx context.Context, activeOnly bool, limit, offset int) ([]*Product, int, error) {
	q := conn(ctx, r.pool)
	where := `TRUE`
	if activeOnly {
		where = `active`
	}

	var total int
	if err := q.QueryRow(ctx, `SELECT COUNT(*) FROM product WHERE `+where).Scan(&total); err != nil {
		return nil, 0, err
	}

	rows, err := q.Query(ctx, `SELECT `+productCols+` FROM product WHERE `+where+`
		ORDER BY name LIMIT $1 OFFSET $2`, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var items []*Product
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, p)
	}
	return items, total, rows.Err()
}

// AdjustStock is the oversell guard: the WHERE clause keeps stock from
// going negative, so a checkout racing another sale fails instead of
// selling units the practice does not have.
func (r *productRepoPG) AdjustStock(ctx context.Context, id uuid.UUID, delta int) error {
	tag, err := conn(ctx, r.pool).Exec(ctx, `
		UPDATE product SET stock = stock + $2, updated_at = NOW()
		WHERE id = $1 AND stock + $2 >= 0`, id, delta)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

type saleRepoPG struct{ pool *pgxpool.Pool }

func NewSaleRepoPG(pool *pgxpool.Pool) SaleRepository { return &saleRepoPG{pool: pool} }

func (r *saleRepoPG) Create(ctx context.Context, s *Sale) error {
	q := conn(ctx, r.pool)
	s.ID = uuid.New()
	_, err := q.Exec(ctx, `
		INSERT INTO sale (id, patient_id, total_cents, sold_at, sold_by)
		VALUES ($1,$2,$3,$4,$5)`,
		s.ID, s.PatientID, s.TotalCents, s.SoldAt, s.SoldBy)
	if err != nil {
		return err
	}
	for i := range s.Items {
		s.Items[i].ID = uuid.New()
		s.Items[i].SaleID = s.ID
		_, err := q.Exec(ctx, `
			INSERT INTO sale_item (id, sale_id, product_id, quantity, unit_price_cents)
			VALUES ($1,$2,$3,$4,$5)`,
			s.Items[i].ID, s.ID, s.Items[i].ProductID, s.Items[i].Quantity, s.Items[i].UnitPriceCents)
		if err != nil {
			return err
		}
	}
	return nil
}

func (r *saleRepoPG) GetByID(ctx context.Context, id uuid.UUID) (*Sale, error) {
	q := conn(ctx, r.pool)
	var s Sale
	err := q.QueryRow(ctx, `
		SELECT id, patient_id, total_cents, sold_at, sold_by FROM sale WHERE id = $1`, id).
		Scan(&s.ID, &s.PatientID, &s.TotalCents, &s.SoldAt, &s.SoldBy)
	if err != nil {
		return nil, err
	}

	rows, err := q.Query(ctx, `
		SELECT id, sale_id, product_id, quantity, unit_price_cents
		FROM sale_item WHERE sale_id = $1`, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var it SaleItem
		if err := rows.Scan(&it.ID, &it.SaleID, &it.ProductID, &it.Quantity, &it.UnitPriceCents); err != nil {
			return nil, err
		}
		s.Items = append(s.Items, it)
	}
	return &s, rows.Err()
}

func (r *saleRepoPG) List(ctx context.Context, limit, offset int) ([]*Sale, int, error) {
	q := conn(ctx, r.pool)

	var total int
	if err := q.QueryRow(ctx, `SELECT COUNT(*) FROM sale`).Scan(&total); err != nil {
		return nil, 0, err
	}

	rows, err := q.Query(ctx, `
		SELECT id, patient_id, total_cents, sold_at, sold_by FROM sale
		ORDER BY sold_at DESC LIMIT $1 OFFSET $2`, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var items []*Sale
	for rows.Next() {
		var s Sale
		if err := rows.Scan(&s.ID, &s.PatientID, &s.TotalCents, &s.SoldAt, &s.SoldBy); err != nil {
			return nil, 0, err
		}
		items = append(items, &s)
	}
	return items, total, rows.Err()
}
