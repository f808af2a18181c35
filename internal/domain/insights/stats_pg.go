package insights

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

type statsPG struct{ pool *pgxpool.Pool }

// NewStatsPG reads analyzer inputs straight from the appointment table.
func NewStatsPG(pool *pgxpool.Pool) *statsPG { return &statsPG{pool: pool} }

func (s *statsPG) ProviderNoShowRates(ctx context.Context, since time.Time) ([]ProviderNoShowRate, error) {
	rows, err := conn(ctx, s.pool).Query(ctx, `
		SELECT provider_id,
		       COUNT(*),
		       COUNT(*) FILTER (WHERE status = 'no_show')
		FROM appointment
		WHERE start_time >= $1 AND status IN ('completed', 'no_show')
		GROUP BY provider_id`, since)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []ProviderNoShowRate
	for rows.Next() {
		var r ProviderNoShowRate
		if err := rows.Scan(&r.ProviderID, &r.Total, &r.NoShows); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func (s *statsPG) PatientLastVisits(ctx context.Context, minVisits int) ([]PatientLastVisit, error) {
	rows, err := conn(ctx, s.pool).Query(ctx, `
		SELECT patient_id, MAX(start_time), COUNT(*)
		FROM appointment
		WHERE status = 'completed'
		GROUP BY patient_id
		HAVING COUNT(*) >= $1`, minVisits)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []PatientLastVisit
	for rows.Next() {
		var p PatientLastVisit
		if err := rows.Scan(&p.PatientID, &p.LastVisit, &p.VisitCount); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}
