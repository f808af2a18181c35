package billing

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

type claimRepoPG struct{ pool *pgxpool.Pool }

func NewClaimRepoPG(pool *pgxpool.Pool) ClaimRepository { return &claimRepoPG{pool: pool} }

const claimCols = `id, patient_id, encounter_id, payer_name, status,
	submitted_at, resolved_at, denial_code, created_at, updated_at`

func scanClaim(row pgx.Row) (*Claim, error) {
	var c Claim
	err := row.Scan(&c.ID, &c.PatientID, &c.EncounterID, &c.PayerName, &c.Status,
		&c.SubmittedAt, &c.ResolvedAt, &c.DenialCode, &c.CreatedAt, &c.UpdatedAt)
	return &c, err
}

func (r *claimRepoPG) Create(ctx context.Context, c *Claim) error {
	c.ID = uuid.New()
	c.Status = ClaimDraft
	q := conn(ctx, r.pool)
	_, err := q.Exec(ctx, `
		INSERT INTO claim (id, patient_id, encounter_id, payer_name, status)
		VALUES ($1,$2,$3,$4,$5)`,
		c.ID, c.PatientID, c.EncounterID, c.PayerName, c.Status)
	if err != nil {
		return err
	}
	for i := range c.Lines {
		c.Lines[i].ClaimID = c.ID
		if err := r.addLine(ctx, q, &c.Lines[i]); err != nil {
			return err
		}
	}
	return nil
}

func (r *claimRepoPG) addLine(ctx context.Context, q queryable, line *ClaimLine) error {
	line.ID = uuid.New()
	_, err := q.Exec(ctx, `
		INSERT INTO claim_line (id, claim_id, cpt_code, description, units, unit_price_cents)
		VALUES ($1,$2,$3,$4,$5,$6)`,
		line.ID, line.ClaimID, line.CPTCode, line.Description, line.Units, line.UnitPriceCents)
	return err
}

func (r *claimRepoPG) AddLine(ctx context.Context, line *ClaimLine) error {
	return r.addLine(ctx, conn(ctx, r.pool), line)
}

func (r *claimRepoPG) GetByID(ctx context.Context, id uuid.UUID) (*Claim, error) {
	q := conn(ctx, r.pool)
	c, err := scanClaim(q.QueryRow(ctx, `SELECT `+claimCols+` FROM claim WHERE id = $1`, id))
	if err != nil {
		return nil, err
	}
	c.Lines, err = r.lines(ctx, q, c.ID)
	return c, err
}

func (r *claimRepoPG) lines(ctx context.Context, q queryable, claimID uuid.UUID) ([]ClaimLine, error) {
	rows, err := q.Query(ctx, `
		SELECT id, claim_id, cpt_code, description, units, unit_price_cents
		FROM claim_line WHERE claim_id = $1 ORDER BY cpt_code`, claimID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []ClaimLine
	for rows.Next() {
		var l ClaimLine
		if err := rows.Scan(&l.ID, &l.ClaimID, &l.CPTCode, &l.Description, &l.Units, &l.UnitPriceCents); err != nil {
			return nil, err
		}
		out = append(out, l)
	}
	return out, rows.Err()
}

// UpdateStatus is guarded by the expected current status so concurrent
// transitions cannot skip a lifecycle step.
func (r *claimRepoPG) UpdateStatus(ctx context.Context, id uuid.UUID, from, to string, at time.Time, denialCode *string) error {
	var sql string
	switch to {
	case ClaimSubmitted:
		sql = `UPDATE claim SET status=$3, submitted_at=$4, denial_code=NULL, updated_at=NOW()
			WHERE id = $1 AND status = $2`
	default:
		sql = `UPDATE claim SET status=$3, resolved_at=$4, denial_code=$5, updated_at=NOW()
			WHERE id = $1 AND status = $2`
	}
	var tag pgconn.CommandTag
	var err error
	if to == ClaimSubmitted {
		tag, err = conn(ctx, r.pool).Exec(ctx, sql, id, from, to, at)
	} else {
		tag, err = conn(ctx, r.pool).Exec(ctx, sql, id, from, to, at, denialCode)
	}
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *claimRepoPG) ListByPatient(ctx context.Context, patientID uuid.UUID, limit, offset int) ([]*Claim, int, error) {
	return r.list(ctx, `patient_id = $1`, patientID, limit, offset)
}

func (r *claimRepoPG) ListByStatus(ctx context.Context, status string, limit, offset int) ([]*Claim, int, error) {
	return r.list(ctx, `status = $1`, status, limit, offset)
}

func (r *claimRepoPG) list(ctx context.Context, where string, arg interface{}, limit, offset int) ([]*Claim, int, error) {
	q := conn(ctx, r.pool)

	var total int
	if err := q.QueryRow(ctx, `SELECT COUNT(*) FROM claim WHERE `+where, arg).Scan(&total); err != nil {
		return nil, 0, err
	}

	rows, err := q.Query(ctx, `SELECT `+claimCols+` FROM claim WHERE `+where+`
		ORDER BY created_at DESC LIMIT $2 OFFSET $3`, arg, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var items []*Claim
	for rows.Next() {
		c, err := scanClaim(rows)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, c)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}
	for _, c := range items {
		if c.Lines, err = r.lines(ctx, q, c.ID); err != nil {
			return nil, 0, err
		}
	}
	return items, total, nil
}

type invoiceRepoPG struct{ pool *pgxpool.Pool }

func NewInvoiceRepoPG(pool *pgxpool.Pool) InvoiceRepository { return &invoiceRepoPG{pool: pool} }

const invoiceCols = `id, claim_id, patient_id, amount_cents, status, paid_at, created_at`

func scanInvoice(row pgx.Row) (*Invoice, error) {
	var inv Invoice
	err := row.Scan(&inv.ID, &inv.ClaimID, &inv.PatientID, &inv.AmountCents,
		&inv.Status, &inv.PaidAt, &inv.CreatedAt)
	return &inv, err
}

func (r *invoiceRepoPG) Create(ctx context.Context, inv *Invoice) error {
	inv.ID = uuid.New()
	inv.Status = InvoiceOpen
	_, err := conn(ctx, r.pool).Exec(ctx, `
		INSERT INTO invoice (id, claim_id, patient_id, amount_cents, status)
		VALUES ($1,$2,$3,$4,$5)`,
		inv.ID, inv.ClaimID, inv.PatientID, inv.AmountCents, inv.Status)
	return err
}

func (r *invoiceRepoPG) GetByID(ctx context.Context, id uuid.UUID) (*Invoice, error) {
	return scanInvoice(conn(ctx, r.pool).QueryRow(ctx,
		`SELECT `+invoiceCols+` FROM invoice WHERE id = $1`, id))
}

func (r *invoiceRepoPG) MarkPaid(ctx context.Context, id uuid.UUID, at time.Time) error {
	tag, err := conn(ctx, r.pool).Exec(ctx, `
		UPDATE invoice SET status=$2, paid_at=$3 WHERE id = $1 AND status = $4`,
		id, InvoicePaid, at, InvoiceOpen)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *invoiceRepoPG) ListByPatient(ctx context.Context, patientID uuid.UUID, limit, offset int) ([]*Invoice, int, error) {
	q := conn(ctx, r.pool)

	var total int
	if err := q.QueryRow(ctx, `SELECT COUNT(*) FROM invoice WHERE patient_id = $1`, patientID).Scan(&total); err != nil {
		return nil, 0, err
	}

	rows, err := q.Query(ctx, `SELECT `+invoiceCols+` FROM invoice WHERE patient_id = $1
		ORDER BY created_at DESC LIMIT $2 OFFSET $3`, patientID, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var items []*Invoice
	for rows.Next() {
		inv, err := scanInvoice(rows)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, inv)
	}
	return items, total, rows.Err()
}
