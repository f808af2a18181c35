package education

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

type articleRepoPG struct{ pool *pgxpool.Pool }

func NewArticleRepoPG(pool *pgxpool.Pool) ArticleRepository { return &articleRepoPG{pool: pool} }

const articleCols = `id, slug, title, body, category, published, created_at, updated_at`

func scanArticle(row pgx.Row) (*Article, error) {
	var a Article
	err := row.Scan(&a.ID, &a.Slug, &a.Title, &a.Body, &a.Category, &a.Published, &a.CreatedAt, &a.UpdatedAt)
	return &a, err
}

func (r *articleRepoPG) Create(ctx context.Context, a *Article) error {
	a.ID = uuid.New()
	_, err := conn(ctx, r.pool).Exec(ctx, `
		INSERT INTO article (id, slug, title, body, category, published)
		VALUES ($1,$2,$3,$4,$5,$6)`,
		a.ID, a.Slug, a.Title, a.Body, a.Category, a.Published)
	return err
}

func (r *articleRepoPG) GetBySlug(ctx context.Context, slug string) (*Article, error) {
	return scanArticle(conn(ctx, r.pool).QueryRow(ctx,
		`SELECT `+articleCols+` FROM article WHERE slug = $1`, slug))
}

func (r *articleRepoPG) Update(ctx context.Context, a *Article) error {
	tag, err := conn(ctx, r.pool).Exec(ctx, `
		UPDATE article SET slug=$2, title=$3, body=$4, category=$5, published=$6, updated_at=NOW()
		WHERE id = $1`,
		a.ID, a.Slug, a.Title, a.Body, a.Category, a.Published)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *articleRepoPG) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := conn(ctx, r.pool).Exec(ctx, `DELETE FROM article WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *articleRepoPG) ListPublished(ctx context.Context) ([]*Article, error) {
	rows, err := conn(ctx, r.pool).Query(ctx,
		`SELECT `+articleCols+` FROM article WHERE published ORDER BY title`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []*Article
	for rows.Next() {
		a, err := scanArticle(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, a)
	}
	return items, rows.Err()
}

type exerciseRepoPG struct{ pool *pgxpool.Pool }

func NewExerciseRepoPG(pool *pgxpool.Pool) ExerciseRepository { return &exerciseRepoPG{pool: pool} }

const exerciseCols = `id, slug, name, description, video_url, sets, reps, published, created_at, updated_at`

func scanExercise(row pgx.Row) (*Exercise, error) {
	var e Exercise
	err := row.Scan(&e.ID, &e.Slug, &e.Name, &e.Description, &e.VideoURL,
		&e.Sets, &e.Reps, &e.Published, &e.CreatedAt, &e.UpdatedAt)
	return &e, err
}

func (r *exerciseRepoPG) Create(ctx context.Context, e *Exercise) error {
	e.ID = uuid.New()
	_, err := conn(ctx, r.pool).Exec(ctx, `
		INSERT INTO exercise (id, slug, name, description, video_url, sets, reps, published)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8)`,
		e.ID, e.Slug, e.Name, e.Description, e.VideoURL, e.Sets, e.Reps, e.Published)
	return err
}

func (r *exerciseRepoPG) GetBySlug(ctx context.Context, slug string) (*Exercise, error) {
	return scanExercise(conn(ctx, r.pool).QueryRow(ctx,
		`SELECT `+exerciseCols+` FROM exercise WHERE slug = $1`, slug))
}

func (r *exerciseRepoPG) Update(ctx context.Context, e *Exercise) error {
	tag, err := conn(ctx, r.pool).Exec(ctx, `
		UPDATE exercise SET slug=$2, name=$3, description=$4, video_url=$5, sets=$6, reps=$7, published=$8, updated_at=NOW()
		WHERE id = $1`,
		e.ID, e.Slug, e.Name, e.Description, e.VideoURL, e.Sets, e.Reps, e.Published)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *exerciseRepoPG) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := conn(ctx, r.pool).Exec(ctx, `DELETE FROM exercise WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *exerciseRepoPG) ListPublished(ctx context.Context) ([]*Exercise, error) {
	rows, err := conn(ctx, r.pool).Query(ctx,
		`SELECT `+exerciseCols+` FROM exercise WHERE published ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []*Exercise
	for rows.Next() {
		e, err := scanExercise(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, e)
	}
	return items, rows.Err()
}
