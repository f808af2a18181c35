package scheduling

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

// =========== Appointment Type Repository ===========

type typeRepoPG struct{ pool *pgxpool.Pool }

func NewTypeRepoPG(pool *pgxpool.Pool) AppointmentTypeRepository { return &typeRepoPG{pool: pool} }

const typeCols = `id, name, duration_minutes, price_cents, active, created_at, updated_at`

func scanType(row pgx.Row) (*AppointmentType, error) {
	var at AppointmentType
	err := row.Scan(&at.ID, &at.Name, &at.DurationMinutes, &at.PriceCents, &at.Active,
		&at.CreatedAt, &at.UpdatedAt)
	return &at, err
}

func (r *typeRepoPG) Create(ctx context.Context, at *AppointmentType) error {
	at.ID = uuid.New()
	_, err := conn(ctx, r.pool).Exec(ctx, `
		INSERT INTO appointment_type (id, name, duration_minutes, price_cents, active)
		VALUES ($1, $2, $3, $4, $5)`,
		at.ID, at.Name, at.DurationMinutes, at.PriceCents, at.Active)
	return err
}

func (r *typeRepoPG) GetByID(ctx context.Context, id uuid.UUID) (*AppointmentType, error) {
	return scanType(conn(ctx, r.pool).QueryRow(ctx,
		`SELECT `+typeCols+` FROM appointment_type WHERE id = $1`, id))
}

func (r *typeRepoPG) Update(ctx context.Context, at *AppointmentType) error {
	_, err := conn(ctx, r.pool).Exec(ctx, `
		UPDATE appointment_type SET name=$2, duration_minutes=$3, price_cents=$4, active=$5, updated_at=NOW()
		WHERE id = $1`,
		at.ID, at.Name, at.DurationMinutes, at.PriceCents, at.Active)
	return err
}

func (r *typeRepoPG) Delete(ctx context.Context, id uuid.UUID) error {
	_, err := conn(ctx, r.pool).Exec(ctx, `DELETE FROM appointment_type WHERE id = $1`, id)
	return err
}

func (r *typeRepoPG) List(ctx context.Context, activeOnly bool) ([]*AppointmentType, error) {
	q := `SELECT ` + typeCols + ` FROM appointment_type`
	if activeOnly {
		q += ` WHERE active`
	}
	q += ` ORDER BY name`

	rows, err := conn(ctx, r.pool).Query(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []*AppointmentType
	for rows.Next() {
		at, err := scanType(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, at)
	}
	return items, rows.Err()
}

// =========== Appointment Repository ===========

type appointmentRepoPG struct{ pool *pgxpool.Pool }

func NewAppointmentRepoPG(pool *pgxpool.Pool) AppointmentRepository {
	return &appointmentRepoPG{pool: pool}
}

const apptCols = `id, patient_id, provider_id, appointment_type_id, location_id,
	start_time, end_time, status, chief_complaint, patient_notes, created_at, updated_at`

func scanAppointment(row pgx.Row) (*Appointment, error) {
	var a Appointment
	err := row.Scan(&a.ID, &a.PatientID, &a.ProviderID, &a.AppointmentTypeID, &a.LocationID,
		&a.StartTime, &a.EndTime, &a.Status, &a.ChiefComplaint, &a.PatientNotes,
		&a.CreatedAt, &a.UpdatedAt)
	return &a, err
}

func (r *appointmentRepoPG) Create(ctx context.Context, a *Appointment) error {
	a.ID = uuid.New()
	_, err := conn(ctx, r.pool).Exec(ctx, `
		INSERT INTO appointment (id, patient_id, provider_id, appointment_type_id, location_id,
			start_time, end_time, status, chief_complaint, patient_notes)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)`,
		a.ID, a.PatientID, a.ProviderID, a.AppointmentTypeID, a.LocationID,
		a.StartTime, a.EndTime, a.Status, a.ChiefComplaint, a.PatientNotes)
	return err
}

func (r *appointmentRepoPG) GetByID(ctx context.Context, id uuid.UUID) (*Appointment, error) {
	return scanAppointment(conn(ctx, r.pool).QueryRow(ctx,
		`SELECT `+apptCols+` FROM appointment WHERE id = $1`, id))
}

func (r *appointmentRepoPG) UpdateStatus(ctx context.Context, id uuid.UUID, status string) error {
	tag, err := conn(ctx, r.pool).Exec(ctx,
		`UPDATE appointment SET status=$2, updated_at=NOW() WHERE id = $1`, id, status)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *appointmentRepoPG) UpdateTimes(ctx context.Context, id uuid.UUID, start, end time.Time) error {
	tag, err := conn(ctx, r.pool).Exec(ctx,
		`UPDATE appointment SET start_time=$2, end_time=$3, updated_at=NOW() WHERE id = $1`,
		id, start, end)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *appointmentRepoPG) ListByPatient(ctx context.Context, patientID uuid.UUID, limit, offset int) ([]*Appointment, int, error) {
	var total int
	if err := conn(ctx, r.pool).QueryRow(ctx,
		`SELECT COUNT(*) FROM appointment WHERE patient_id = $1`, patientID).Scan(&total); err != nil {
		return nil, 0, err
	}

	rows, err := conn(ctx, r.pool).Query(ctx,
		`SELECT `+apptCols+` FROM appointment WHERE patient_id = $1
		 ORDER BY start_time DESC LIMIT $2 OFFSET $3`, patientID, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var items []*Appointment
	for rows.Next() {
		a, err := scanAppointment(rows)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, a)
	}
	return items, total, rows.Err()
}

func (r *appointmentRepoPG) ListByProvider(ctx context.Context, providerID uuid.UUID, from, to time.Time) ([]*Appointment, error) {
	rows, err := conn(ctx, r.pool).Query(ctx,
		`SELECT `+apptCols+` FROM appointment
		 WHERE provider_id = $1 AND start_time < $3 AND end_time > $2
		 ORDER BY start_time`, providerID, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []*Appointment
	for rows.Next() {
		a, err := scanAppointment(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, a)
	}
	return items, rows.Err()
}

func (r *appointmentRepoPG) CountOverlapping(ctx context.Context, providerID uuid.UUID, start, end time.Time, excludeID *uuid.UUID) (int, error) {
	q := `SELECT COUNT(*) FROM appointment
		WHERE provider_id = $1
		  AND start_time < $3 AND end_time > $2
		  AND status NOT IN ('cancelled', 'no_show')`
	args := []interface{}{providerID, start, end}
	if excludeID != nil {
		q += ` AND id <> $4`
		args = append(args, *excludeID)
	}

	var count int
	err := conn(ctx, r.pool).QueryRow(ctx, q, args...).Scan(&count)
	return count, err
}

func (r *appointmentRepoPG) CountBlocksOverlapping(ctx context.Context, providerID uuid.UUID, start, end time.Time) (int, error) {
	var count int
	err := conn(ctx, r.pool).QueryRow(ctx, `
		SELECT COUNT(*) FROM schedule_block
		WHERE (provider_id IS NULL OR provider_id = $1)
		  AND start_time < $3 AND end_time > $2`,
		providerID, start, end).Scan(&count)
	return count, err
}
