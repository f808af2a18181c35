package availability

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

// =========== Provider Repository ===========

type providerRepoPG struct{ pool *pgxpool.Pool }

func NewProviderRepoPG(pool *pgxpool.Pool) ProviderRepository { return &providerRepoPG{pool: pool} }

const providerCols = `id, name, active, created_at, updated_at`

func (r *providerRepoPG) scan(row pgx.Row) (*Provider, error) {
	var p Provider
	err := row.Scan(&p.ID, &p.Name, &p.Active, &p.CreatedAt, &p.UpdatedAt)
	return &p, err
}

func (r *providerRepoPG) Create(ctx context.Context, p *Provider) error {
	p.ID = uuid.New()
	_, err := conn(ctx, r.pool).Exec(ctx, `
		INSERT INTO provider (id, name, active) VALUES ($1, $2, $3)`,
		p.ID, p.Name, p.Active)
	return err
}

func (r *providerRepoPG) GetByID(ctx context.Context, id uuid.UUID) (*Provider, error) {
	return r.scan(conn(ctx, r.pool).QueryRow(ctx, `SELECT `+providerCols+` FROM provider WHERE id = $1`, id))
}

func (r *providerRepoPG) Update(ctx context.Context, p *Provider) error {
	_, err := conn(ctx, r.pool).Exec(ctx, `
		UPDATE provider SET name=$2, active=$3, updated_at=NOW() WHERE id = $1`,
		p.ID, p.Name, p.Active)
	return err
}

func (r *providerRepoPG) Delete(ctx context.Context, id uuid.UUID) error {
	_, err := conn(ctx, r.pool).Exec(ctx, `DELETE FROM provider WHERE id = $1`, id)
	return err
}

func (r *providerRepoPG) List(ctx context.Context, activeOnly bool, limit, offset int) ([]*Provider, int, error) {
	where := ``
	if activeOnly {
		where = ` WHERE active`
	}

	var total int
	if err := conn(ctx, r.pool).QueryRow(ctx, `SELECT COUNT(*) FROM provider`+where).Scan(&total); err != nil {
		return nil, 0, err
	}

	rows, err := conn(ctx, r.pool).Query(ctx,
		`SELECT `+providerCols+` FROM provider`+where+` ORDER BY name LIMIT $1 OFFSET $2`, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var items []*Provider
	for rows.Next() {
		p, err := r.scan(rows)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, p)
	}
	return items, total, rows.Err()
}

// =========== Weekly Schedule Repository ===========

type scheduleRepoPG struct{ pool *pgxpool.Pool }

func NewScheduleRepoPG(pool *pgxpool.Pool) WeeklyScheduleRepository { return &scheduleRepoPG{pool: pool} }

const scheduleCols = `id, provider_id, day_of_week, start_time, end_time, is_active, created_at, updated_at`

func scanSchedule(row pgx.Row) (WeeklySchedule, error) {
	var ws WeeklySchedule
	err := row.Scan(&ws.ID, &ws.ProviderID, &ws.DayOfWeek, &ws.StartTime, &ws.EndTime,
		&ws.IsActive, &ws.CreatedAt, &ws.UpdatedAt)
	return ws, err
}

func (r *scheduleRepoPG) Create(ctx context.Context, ws *WeeklySchedule) error {
	ws.ID = uuid.New()
	_, err := conn(ctx, r.pool).Exec(ctx, `
		INSERT INTO weekly_schedule (id, provider_id, day_of_week, start_time, end_time, is_active)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		ws.ID, ws.ProviderID, ws.DayOfWeek, ws.StartTime, ws.EndTime, ws.IsActive)
	return err
}

func (r *scheduleRepoPG) Update(ctx context.Context, ws *WeeklySchedule) error {
	_, err := conn(ctx, r.pool).Exec(ctx, `
		UPDATE weekly_schedule SET day_of_week=$2, start_time=$3, end_time=$4, is_active=$5, updated_at=NOW()
		WHERE id = $1`,
		ws.ID, ws.DayOfWeek, ws.StartTime, ws.EndTime, ws.IsActive)
	return err
}

func (r *scheduleRepoPG) Delete(ctx context.Context, id uuid.UUID) error {
	_, err := conn(ctx, r.pool).Exec(ctx, `DELETE FROM weekly_schedule WHERE id = $1`, id)
	return err
}

func (r *scheduleRepoPG) listWhere(ctx context.Context, where string, args ...interface{}) ([]WeeklySchedule, error) {
	rows, err := conn(ctx, r.pool).Query(ctx,
		`SELECT `+scheduleCols+` FROM weekly_schedule `+where+` ORDER BY day_of_week, start_time`, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []WeeklySchedule
	for rows.Next() {
		ws, err := scanSchedule(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, ws)
	}
	return items, rows.Err()
}

func (r *scheduleRepoPG) ListByProvider(ctx context.Context, providerID uuid.UUID) ([]WeeklySchedule, error) {
	return r.listWhere(ctx, `WHERE provider_id = $1`, providerID)
}

func (r *scheduleRepoPG) ListActive(ctx context.Context) ([]WeeklySchedule, error) {
	return r.listWhere(ctx, `WHERE is_active`)
}

// =========== Exception Repository ===========

type exceptionRepoPG struct{ pool *pgxpool.Pool }

func NewExceptionRepoPG(pool *pgxpool.Pool) ExceptionRepository { return &exceptionRepoPG{pool: pool} }

func (r *exceptionRepoPG) Create(ctx context.Context, exc *ScheduleException) error {
	exc.ID = uuid.New()
	_, err := conn(ctx, r.pool).Exec(ctx, `
		INSERT INTO schedule_exception (id, provider_id, exception_date, is_available, start_time, end_time, reason)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		exc.ID, exc.ProviderID, exc.Date, exc.IsAvailable, exc.StartTime, exc.EndTime, exc.Reason)
	return err
}

func (r *exceptionRepoPG) Delete(ctx context.Context, id uuid.UUID) error {
	_, err := conn(ctx, r.pool).Exec(ctx, `DELETE FROM schedule_exception WHERE id = $1`, id)
	return err
}

func (r *exceptionRepoPG) ListInRange(ctx context.Context, from, to time.Time) ([]ScheduleException, error) {
	rows, err := conn(ctx, r.pool).Query(ctx, `
		SELECT id, provider_id, exception_date, is_available, start_time, end_time, reason, created_at
		FROM schedule_exception
		WHERE exception_date >= $1 AND exception_date <= $2
		ORDER BY exception_date`, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []ScheduleException
	for rows.Next() {
		var exc ScheduleException
		if err := rows.Scan(&exc.ID, &exc.ProviderID, &exc.Date, &exc.IsAvailable,
			&exc.StartTime, &exc.EndTime, &exc.Reason, &exc.CreatedAt); err != nil {
			return nil, err
		}
		items = append(items, exc)
	}
	return items, rows.Err()
}

// =========== Block Repository ===========

type blockRepoPG struct{ pool *pgxpool.Pool }

func NewBlockRepoPG(pool *pgxpool.Pool) BlockRepository { return &blockRepoPG{pool: pool} }

func (r *blockRepoPG) Create(ctx context.Context, b *ScheduleBlock) error {
	b.ID = uuid.New()
	_, err := conn(ctx, r.pool).Exec(ctx, `
		INSERT INTO schedule_block (id, provider_id, start_time, end_time, reason)
		VALUES ($1, $2, $3, $4, $5)`,
		b.ID, b.ProviderID, b.StartTime, b.EndTime, b.Reason)
	return err
}

func (r *blockRepoPG) Delete(ctx context.Context, id uuid.UUID) error {
	_, err := conn(ctx, r.pool).Exec(ctx, `DELETE FROM schedule_block WHERE id = $1`, id)
	return err
}

func (r *blockRepoPG) ListInRange(ctx context.Context, from, to time.Time) ([]ScheduleBlock, error) {
	rows, err := conn(ctx, r.pool).Query(ctx, `
		SELECT id, provider_id, start_time, end_time, reason, created_at
		FROM schedule_block
		WHERE start_time < $2 AND end_time > $1
		ORDER BY start_time`, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []ScheduleBlock
	for rows.Next() {
		var b ScheduleBlock
		if err := rows.Scan(&b.ID, &b.ProviderID, &b.StartTime, &b.EndTime, &b.Reason, &b.CreatedAt); err != nil {
			return nil, err
		}
		items = append(items, b)
	}
	return items, rows.Err()
}

// =========== Booked Interval Reader ===========

type bookedIntervalPG struct{ pool *pgxpool.Pool }

func NewBookedIntervalPG(pool *pgxpool.Pool) BookedIntervalReader { return &bookedIntervalPG{pool: pool} }

func (r *bookedIntervalPG) ListInRange(ctx context.Context, from, to time.Time) ([]BookedInterval, error) {
	rows, err := conn(ctx, r.pool).Query(ctx, `
		SELECT provider_id, start_time, end_time, status
		FROM appointment
		WHERE start_time < $2 AND end_time > $1
		  AND status NOT IN ('cancelled', 'no_show')
		ORDER BY start_time`, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []BookedInterval
	for rows.Next() {
		var b BookedInterval
		if err := rows.Scan(&b.ProviderID, &b.StartTime, &b.EndTime, &b.Status); err != nil {
			return nil, err
		}
		items = append(items, b)
	}
	return items, rows.Err()
}
