package lookup

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/brandforge/backoffice/internal/shared"
)

// Repository provides PostgreSQL backed persistence for one lookup table.
type Repository interface {
	Get(ctx context.Context, id int64) (Item, error)
	CountByIDs(ctx context.Context, ids []int64) (int, error)
	List(ctx context.Context, q shared.ListQuery, callerID int64) ([]Item, int, error)
	Create(ctx context.Context, item Item) (Item, error)
	Update(ctx context.Context, item Item) (Item, error)
	SoftDelete(ctx context.Context, id, actorID int64) (Item, error)
}

type repository struct {
	pool  *pgxpool.Pool
	table string
}

// NewRepository constructs a repository bound to table. The table name comes
// from the compile-time entity definitions, never from request input.
func NewRepository(pool *pgxpool.Pool, table string) Repository {
	return &repository{pool: pool, table: table}
}

const lookupColumns = `id, name, description, created_by_id, updated_by_id, created_at, updated_at, deleted_at, deleted_by_id`

func scanItem(row pgx.Row) (Item, error) {
	var it Item
	err := row.Scan(&it.ID, &it.Name, &it.Description, &it.CreatedByID, &it.UpdatedByID,
		&it.CreatedAt, &it.UpdatedAt, &it.DeletedAt, &it.DeletedByID)
	return it, err
}

func (r *repository) Get(ctx context.Context, id int64) (Item, error) {
	query := `SELECT ` + lookupColumns + ` FROM ` + r.table + ` WHERE id = $1 AND deleted_at IS NULL`
	return scanItem(r.pool.QueryRow(ctx, query, id))
}

func (r *repository) CountByIDs(ctx context.Context, ids []int64) (int, error) {
	query := `SELECT COUNT(*) FROM ` + r.table + ` WHERE id = ANY($1) AND deleted_at IS NULL`
	var n int
	err := r.pool.QueryRow(ctx, query, ids).Scan(&n)
	return n, err
}

func (r *repository) List(ctx context.Context, q shared.ListQuery, callerID int64) ([]Item, int, error) {
	var where shared.WhereBuilder
	where.Add("deleted_at IS NULL")
	q.ApplyTo(&where, shared.FilterConfig{CallerID: callerID})

	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM `+r.table+where.Clause(), where.Args()...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := `SELECT ` + lookupColumns + ` FROM ` + r.table + where.Clause() + q.OrderLimit("id")
	rows, err := r.pool.Query(ctx, query, where.Args()...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var items []Item
	for rows.Next() {
		it, err := scanItem(rows)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, it)
	}
	return items, total, rows.Err()
}

func (r *repository) Create(ctx context.Context, item Item) (Item, error) {
	now := time.Now()
	query := `INSERT INTO ` + r.table + ` (name, description, created_by_id, updated_by_id, created_at, updated_at)
		VALUES ($1, $2, $3, $3, $4, $4)
		RETURNING ` + lookupColumns
	return scanItem(r.pool.QueryRow(ctx, query, item.Name, item.Description, item.CreatedByID, now))
}

func (r *repository) Update(ctx context.Context, item Item) (Item, error) {
	query := `UPDATE ` + r.table + `
		SET name = $2, description = $3, updated_by_id = $4, updated_at = $5
		WHERE id = $1 AND deleted_at IS NULL
		RETURNING ` + lookupColumns
	return scanItem(r.pool.QueryRow(ctx, query, item.ID, item.Name, item.Description, item.UpdatedByID, time.Now()))
}

func (r *repository) SoftDelete(ctx context.Context, id, actorID int64) (Item, error) {
	query := `UPDATE ` + r.table + `
		SET deleted_at = $3, deleted_by_id = $2
		WHERE id = $1 AND deleted_at IS NULL
		RETURNING ` + lookupColumns
	return scanItem(r.pool.QueryRow(ctx, query, id, actorID, time.Now()))
}
