package membership

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/brandforge/backoffice/internal/platform/db"
	"github.com/brandforge/backoffice/internal/shared"
)

// Repository provides PostgreSQL backed membership persistence.
type Repository interface {
	Get(ctx context.Context, id int64) (Edge, error)
	Upsert(ctx context.Context, staffID, groupID, actorID int64) (Edge, error)
	Delete(ctx context.Context, id int64) (Edge, error)
	ListByStaff(ctx context.Context, staffID int64) ([]Edge, error)
	ListByGroup(ctx context.Context, groupID int64) ([]Edge, error)
	List(ctx context.Context, q shared.ListQuery, callerID int64) ([]Edge, int, error)
}

type repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a membership repository.
func NewRepository(pool *pgxpool.Pool) Repository {
	return &repository{pool: pool}
}

const edgeColumns = `id, staff_id, group_id, created_by_id, created_at, updated_at`

func scanEdge(row pgx.Row) (Edge, error) {
	var e Edge
	err := row.Scan(&e.ID, &e.StaffID, &e.GroupID, &e.CreatedByID, &e.CreatedAt, &e.UpdatedAt)
	return e, err
}

func (r *repository) Get(ctx context.Context, id int64) (Edge, error) {
	return scanEdge(r.pool.QueryRow(ctx, `SELECT `+edgeColumns+` FROM staff_groups WHERE id = $1`, id))
}

// Upsert runs the lookup-and-write inside one transaction so two concurrent
// assigns of the same pair cannot both insert; the unique index on
// (staff_id, group_id) is the backstop.
func (r *repository) Upsert(ctx context.Context, staffID, groupID, actorID int64) (Edge, error) {
	var edge Edge
	err := db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		now := time.Now()
		existing, err := scanEdge(tx.QueryRow(ctx,
			`SELECT `+edgeColumns+` FROM staff_groups WHERE staff_id = $1 AND group_id = $2`, staffID, groupID))
		switch {
		case err == nil:
			edge, err = scanEdge(tx.QueryRow(ctx,
				`UPDATE staff_groups SET created_by_id = $2, updated_at = $3 WHERE id = $1 RETURNING `+edgeColumns,
				existing.ID, actorID, now))
			return err
		case err == pgx.ErrNoRows:
			edge, err = scanEdge(tx.QueryRow(ctx,
				`INSERT INTO staff_groups (staff_id, group_id, created_by_id, created_at, updated_at)
				 VALUES ($1, $2, $3, $4, $4) RETURNING `+edgeColumns,
				staffID, groupID, actorID, now))
			return err
		default:
			return err
		}
	})
	return edge, err
}

func (r *repository) Delete(ctx context.Context, id int64) (Edge, error) {
	return scanEdge(r.pool.QueryRow(ctx,
		`DELETE FROM staff_groups WHERE id = $1 RETURNING `+edgeColumns, id))
}

func (r *repository) ListByStaff(ctx context.Context, staffID int64) ([]Edge, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+edgeColumns+` FROM staff_groups WHERE staff_id = $1 ORDER BY id`, staffID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectEdges(rows)
}

func (r *repository) ListByGroup(ctx context.Context, groupID int64) ([]Edge, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+edgeColumns+` FROM staff_groups WHERE group_id = $1 ORDER BY id`, groupID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectEdges(rows)
}

func (r *repository) List(ctx context.Context, q shared.ListQuery, callerID int64) ([]Edge, int, error) {
	var where shared.WhereBuilder
	q.ApplyTo(&where, shared.FilterConfig{QColumn: "CAST(staff_id AS TEXT)", CallerID: callerID})

	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM staff_groups`+where.Clause(), where.Args()...).Scan(&total); err != nil {
		return nil, 0, err
	}

	rows, err := r.pool.Query(ctx,
		`SELECT `+edgeColumns+` FROM staff_groups`+where.Clause()+q.OrderLimit("id"), where.Args()...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	edges, err := collectEdges(rows)
	if err != nil {
		return nil, 0, err
	}
	return edges, total, nil
}

func collectEdges(rows pgx.Rows) ([]Edge, error) {
	var edges []Edge
	for rows.Next() {
		e, err := scanEdge(rows)
		if err != nil {
			return nil, err
		}
		edges = append(edges, e)
	}
	return edges, rows.Err()
}
