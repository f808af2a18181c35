package compliance

import (
	"context"
	"time"

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

type vendorRepoPG struct{ pool *pgxpool.Pool }

func NewVendorRepoPG(pool *pgxpool.Pool) VendorRepository { return &vendorRepoPG{pool: pool} }

func (r *vendorRepoPG) Create(ctx context.Context, v *Vendor) error {
	v.ID = uuid.New()
	_, err := conn(ctx, r.pool).Exec(ctx, `
		INSERT INTO vendor (id, name, risk_tier, contact) VALUES ($1,$2,$3,$4)`,
		v.ID, v.Name, v.RiskTier, v.Contact)
	return err
}

func (r *vendorRepoPG) GetByID(ctx context.Context, id uuid.UUID) (*Vendor, error) {
	var v Vendor
	err := conn(ctx, r.pool).QueryRow(ctx, `
		SELECT id, name, risk_tier, contact, created_at, updated_at
		FROM vendor WHERE id = $1`, id).
		Scan(&v.ID, &v.Name, &v.RiskTier, &v.Contact, &v.CreatedAt, &v.UpdatedAt)
	return &v, err
}

func (r *vendorRepoPG) Update(ctx context.Context, v *Vendor) error {
	tag, err := conn(ctx, r.pool).Exec(ctx, `
		UPDATE vendor SET name=$2, risk_tier=$3, contact=$4, updated_at=NOW() WHERE id = $1`,
		v.ID, v.Name, v.RiskTier, v.Contact)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *vendorRepoPG) List(ctx context.Context) ([]*Vendor, error) {
	rows, err := conn(ctx, r.pool).Query(ctx, `
		SELECT id, name, risk_tier, contact, created_at, updated_at
		FROM vendor ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []*Vendor
	for rows.Next() {
		var v Vendor
		if err := rows.Scan(&v.ID, &v.Name, &v.RiskTier, &v.Contact, &v.CreatedAt, &v.UpdatedAt); err != nil {
			return nil, err
		}
		items = append(items, &v)
	}
	return items, rows.Err()
}

type baaRepoPG struct{ pool *pgxpool.Pool }

func NewBAARepoPG(pool *pgxpool.Pool) BAARepository { return &baaRepoPG{pool: pool} }

const baaCols = `id, vendor_id, signed_at, expires_at, document_url, created_at`

func scanBAA(row pgx.Row) (*BAA, error) {
	var b BAA
	err := row.Scan(&b.ID, &b.VendorID, &b.SignedAt, &b.ExpiresAt, &b.DocumentURL, &b.CreatedAt)
	return &b, err
}

func (r *baaRepoPG) Create(ctx context.Context, b *BAA) error {
	b.ID = uuid.New()
	_, err := conn(ctx, r.pool).Exec(ctx, `
		INSERT INTO baa (id, vendor_id, signed_at, expires_at, document_url)
		VALUES ($1,$2,$3,$4,$5)`,
		b.ID, b.VendorID, b.SignedAt, b.ExpiresAt, b.DocumentURL)
	return err
}

func (r *baaRepoPG) GetByID(ctx context.Context, id uuid.UUID) (*BAA, error) {
	return scanBAA(conn(ctx, r.pool).QueryRow(ctx,
		`SELECT `+baaCols+` FROM baa WHERE id = $1`, id))
}

func (r *baaRepoPG) LatestByVendor(ctx context.Context) (map[uuid.UUID]*BAA, error) {
	rows, err := conn(ctx, r.pool).Query(ctx, `
		SELECT DISTINCT ON (vendor_id) `+baaCols+`
		FROM baa ORDER BY vendor_id, expires_at DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make(map[uuid.UUID]*BAA)
	for rows.Next() {
		b, err := scanBAA(rows)
		if err != nil {
			return nil, err
		}
		out[b.VendorID] = b
	}
	return out, rows.Err()
}

func (r *baaRepoPG) ListByVendor(ctx context.Context, vendorID uuid.UUID) ([]*BAA, error) {
	rows, err := conn(ctx, r.pool).Query(ctx,
		`SELECT `+baaCols+` FROM baa WHERE vendor_id = $1 ORDER BY expires_at DESC`, vendorID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []*BAA
	for rows.Next() {
		b, err := scanBAA(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, b)
	}
	return items, rows.Err()
}

func (r *baaRepoPG) MarkSigned(ctx context.Context, id uuid.UUID, signedAt time.Time) error {
	tag, err := conn(ctx, r.pool).Exec(ctx, `
		UPDATE baa SET signed_at = $2 WHERE id = $1 AND signed_at IS NULL`, id, signedAt)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}
