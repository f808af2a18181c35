package insights

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

type insightRepoPG struct{ pool *pgxpool.Pool }

func NewInsightRepoPG(pool *pgxpool.Pool) InsightRepository { return &insightRepoPG{pool: pool} }

const insightCols = `id, analyzer, kind, subject_id, score, summary, created_at`

func scanInsight(row pgx.Row) (*Insight, error) {
	var ins Insight
	err := row.Scan(&ins.ID, &ins.Analyzer, &ins.Kind, &ins.SubjectID, &ins.Score, &ins.Summary, &ins.CreatedAt)
	return &ins, err
}

func (r *insightRepoPG) Create(ctx context.Context, ins *Insight) error {
	ins.ID = uuid.New()
	_, err := conn(ctx, r.pool).Exec(ctx, `
		INSERT INTO insight (id, analyzer, kind, subject_id, score, summary)
		VALUES ($1,$2,$3,$4,$5,$6)`,
		ins.ID, ins.Analyzer, ins.Kind, ins.SubjectID, ins.Score, ins.Summary)
	return err
}

func (r *insightRepoPG) List(ctx context.Context, kind string, limit, offset int) ([]*Insight, int, error) {
	q := conn(ctx, r.pool)
	where := `TRUE`
	args := []interface{}{limit, offset}
	countArgs := []interface{}{}
	if kind != "" {
		where = `kind = $3`
		args = append(args, kind)
		countArgs = append(countArgs, kind)
	}

	countWhere := `TRUE`
	if kind != "" {
		countWhere = `kind = $1`
	}
	var total int
	if err := q.QueryRow(ctx, `SELECT COUNT(*) FROM insight WHERE `+countWhere, countArgs...).Scan(&total); err != nil {
		return nil, 0, err
	}

	rows, err := q.Query(ctx, `SELECT `+insightCols+` FROM insight WHERE `+where+`
		ORDER BY created_at DESC LIMIT $1 OFFSET $2`, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var items []*Insight
	for rows.Next() {
		ins, err := scanInsight(rows)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, ins)
	}
	return items, total, rows.Err()
}

func (r *insightRepoPG) ListBySubject(ctx context.Context, subjectID uuid.UUID) ([]*Insight, error) {
	rows, err := conn(ctx, r.pool).Query(ctx,
		`SELECT `+insightCols+` FROM insight WHERE subject_id = $1 ORDER BY created_at DESC`, subjectID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []*Insight
	for rows.Next() {
		ins, err := scanInsight(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, ins)
	}
	return items, rows.Err()
}

type runRepoPG struct{ pool *pgxpool.Pool }

func NewRunRepoPG(pool *pgxpool.Pool) RunRepository { return &runRepoPG{pool: pool} }

func (r *runRepoPG) Create(ctx context.Context, run *Run) error {
	run.ID = uuid.New()
	_, err := conn(ctx, r.pool).Exec(ctx, `
		INSERT INTO analyzer_run (id, analyzer, status, error, insight_count, started_at, finished_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7)`,
		run.ID, run.Analyzer, run.Status, run.Error, run.InsightCount, run.StartedAt, run.FinishedAt)
	return err
}

func (r *runRepoPG) List(ctx context.Context, limit, offset int) ([]*Run, int, error) {
	q := conn(ctx, r.pool)

	var total int
	if err := q.QueryRow(ctx, `SELECT COUNT(*) FROM analyzer_run`).Scan(&total); err != nil {
		return nil, 0, err
	}

	rows, err := q.Query(ctx, `
		SELECT id, analyzer, status, error, insight_count, started_at, finished_at
		FROM analyzer_run ORDER BY started_at DESC LIMIT $1 OFFSET $2`, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var items []*Run
	for rows.Next() {
		var run Run
		if err := rows.Scan(&run.ID, &run.Analyzer, &run.Status, &run.Error,
			&run.InsightCount, &run.StartedAt, &run.FinishedAt); err != nil {
			return nil, 0, err
		}
		items = append(items, &run)
	}
	return items, total, rows.Err()
}
