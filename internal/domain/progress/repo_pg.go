package progress

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

type activityRepoPG struct{ pool *pgxpool.Pool }

func NewActivityRepoPG(pool *pgxpool.Pool) ActivityRepository { return &activityRepoPG{pool: pool} }

func (r *activityRepoPG) Create(ctx context.Context, a *Activity) error {
	a.ID = uuid.New()
	_, err := conn(ctx, r.pool).Exec(ctx, `
		INSERT INTO patient_activity (id, patient_id, kind, occurred_at)
		VALUES ($1,$2,$3,$4)`,
		a.ID, a.PatientID, a.Kind, a.OccurredAt)
	return err
}

func (r *activityRepoPG) ListByPatient(ctx context.Context, patientID uuid.UUID) ([]*Activity, error) {
	rows, err := conn(ctx, r.pool).Query(ctx, `
		SELECT id, patient_id, kind, occurred_at
		FROM patient_activity WHERE patient_id = $1 ORDER BY occurred_at`, patientID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []*Activity
	for rows.Next() {
		var a Activity
		if err := rows.Scan(&a.ID, &a.PatientID, &a.Kind, &a.OccurredAt); err != nil {
			return nil, err
		}
		items = append(items, &a)
	}
	return items, rows.Err()
}

type achievementRepoPG struct{ pool *pgxpool.Pool }

func NewAchievementRepoPG(pool *pgxpool.Pool) AchievementRepository {
	return &achievementRepoPG{pool: pool}
}

func (r *achievementRepoPG) Create(ctx context.Context, a *Achievement) error {
	a.ID = uuid.New()
	// ON CONFLICT keeps concurrent awards of the same milestone idempotent.
	_, err := conn(ctx, r.pool).Exec(ctx, `
		INSERT INTO achievement (id, patient_id, code, title, earned_at)
		VALUES ($1,$2,$3,$4,$5)
		ON CONFLICT (patient_id, code) DO NOTHING`,
		a.ID, a.PatientID, a.Code, a.Title, a.EarnedAt)
	return err
}

func (r *achievementRepoPG) ListByPatient(ctx context.Context, patientID uuid.UUID) ([]*Achievement, error) {
	rows, err := conn(ctx, r.pool).Query(ctx, `
		SELECT id, patient_id, code, title, earned_at
		FROM achievement WHERE patient_id = $1 ORDER BY earned_at`, patientID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []*Achievement
	for rows.Next() {
		var a Achievement
		if err := rows.Scan(&a.ID, &a.PatientID, &a.Code, &a.Title, &a.EarnedAt); err != nil {
			return nil, err
		}
		items = append(items, &a)
	}
	return items, rows.Err()
}
