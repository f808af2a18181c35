package encounters

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

type repoPG struct{ pool *pgxpool.Pool }

func NewRepoPG(pool *pgxpool.Pool) Repository { return &repoPG{pool: pool} }

func (r *repoPG) conn(ctx context.Context) queryable {
	if tx := db.TxFromContext(ctx); tx != nil {
		return tx
	}
	if c := db.ConnFromContext(ctx); c != nil {
		return c
	}
	return r.pool
}

const cols = `id, patient_id, provider_id, appointment_id, encounter_date,
	subjective, objective, assessment, plan, signed, signed_by, signed_at, created_at, updated_at`

func scan(row pgx.Row) (*Encounter, error) {
	var e Encounter
	err := row.Scan(&e.ID, &e.PatientID, &e.ProviderID, &e.AppointmentID, &e.EncounterDate,
		&e.Subjective, &e.Objective, &e.Assessment, &e.Plan,
		&e.Signed, &e.SignedBy, &e.SignedAt, &e.CreatedAt, &e.UpdatedAt)
	return &e, err
}

func (r *repoPG) Create(ctx context.Context, e *Encounter) error {
	e.ID = uuid.New()
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO encounter (id, patient_id, provider_id, appointment_id, encounter_date,
			subjective, objective, assessment, plan)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)`,
		e.ID, e.PatientID, e.ProviderID, e.AppointmentID, e.EncounterDate,
		e.Subjective, e.Objective, e.Assessment, e.Plan)
	return err
}

func (r *repoPG) GetByID(ctx context.Context, id uuid.UUID) (*Encounter, error) {
	return scan(r.conn(ctx).QueryRow(ctx, `SELECT `+cols+` FROM encounter WHERE id = $1`, id))
}

// Update only touches unsigned encounters; signing freezes the note.
func (r *repoPG) Update(ctx context.Context, e *Encounter) error {
	tag, err := r.conn(ctx).Exec(ctx, `
		UPDATE encounter SET subjective=$2, objective=$3, assessment=$4, plan=$5, updated_at=NOW()
		WHERE id = $1 AND NOT signed`,
		e.ID, e.Subjective, e.Objective, e.Assessment, e.Plan)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *repoPG) Sign(ctx context.Context, id uuid.UUID, signedBy string, signedAt time.Time) error {
	tag, err := r.conn(ctx).Exec(ctx, `
		UPDATE encounter SET signed=TRUE, signed_by=$2, signed_at=$3, updated_at=NOW()
		WHERE id = $1 AND NOT signed`,
		id, signedBy, signedAt)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *repoPG) ListByPatient(ctx context.Context, patientID uuid.UUID, limit, offset int) ([]*Encounter, int, error) {
	var total int
	if err := r.conn(ctx).QueryRow(ctx,
		`SELECT COUNT(*) FROM encounter WHERE patient_id = $1`, patientID).Scan(&total); err != nil {
		return nil, 0, err
	}

	rows, err := r.conn(ctx).Query(ctx,
		`SELECT `+cols+` FROM encounter WHERE patient_id = $1
		 ORDER BY encounter_date DESC LIMIT $2 OFFSET $3`, patientID, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var items []*Encounter
	for rows.Next() {
		e, err := scan(rows)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, e)
	}
	return items, total, rows.Err()
}

func (r *repoPG) ListByProvider(ctx context.Context, providerID uuid.UUID, from, to time.Time) ([]*Encounter, error) {
	rows, err := r.conn(ctx).Query(ctx,
		`SELECT `+cols+` FROM encounter
		 WHERE provider_id = $1 AND encounter_date >= $2 AND encounter_date < $3
		 ORDER BY encounter_date`, providerID, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []*Encounter
	for rows.Next() {
		e, err := scan(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, e)
	}
	return items, rows.Err()
}
