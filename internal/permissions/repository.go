package permissions

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/brandforge/backoffice/internal/shared"
)

// Repository provides read access to the permission catalog.
type Repository interface {
	Get(ctx context.Context, id int64) (Permission, error)
	GetByIDs(ctx context.Context, ids []int64) ([]Permission, error)
	FindByResourceAction(ctx context.Context, resource, action string) (Permission, error)
	List(ctx context.Context, q shared.ListQuery) ([]Permission, int, error)
}

type repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a PostgreSQL backed catalog repository.
func NewRepository(pool *pgxpool.Pool) Repository {
	return &repository{pool: pool}
}

const selectPermission = `
SELECT p.id, p.name, r.id, r.name, t.id, t.name
FROM permissions p
JOIN resources r ON r.id = p.resource_id
JOIN action_types t ON t.id = p.type_id`

func scanPermission(row pgx.Row) (Permission, error) {
	var p Permission
	err := row.Scan(&p.ID, &p.Name, &p.Resource.ID, &p.Resource.Name, &p.Type.ID, &p.Type.Name)
	return p, err
}

func (r *repository) Get(ctx context.Context, id int64) (Permission, error) {
	return scanPermission(r.pool.QueryRow(ctx, selectPermission+` WHERE p.id = $1`, id))
}

func (r *repository) GetByIDs(ctx context.Context, ids []int64) ([]Permission, error) {
	rows, err := r.pool.Query(ctx, selectPermission+` WHERE p.id = ANY($1)`, ids)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectPermissions(rows)
}

func (r *repository) FindByResourceAction(ctx context.Context, resource, action string) (Permission, error) {
	return scanPermission(r.pool.QueryRow(ctx, selectPermission+` WHERE r.name = $1 AND t.name = $2`, resource, action))
}

func (r *repository) List(ctx context.Context, q shared.ListQuery) ([]Permission, int, error) {
	permCols := map[string]string{
		"id":          "p.id",
		"name":        "p.name",
		"resource_id": "p.resource_id",
		"type_id":     "p.type_id",
	}

	var where shared.WhereBuilder
	q.ApplyTo(&where, shared.FilterConfig{
		QColumn:  "p.name",
		IDColumn: "p.id",
		Columns:  permCols,
	})

	var total int
	countQuery := `SELECT COUNT(*) FROM permissions p` + where.Clause()
	if err := r.pool.QueryRow(ctx, countQuery, where.Args()...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := selectPermission + where.Clause() + q.OrderLimitWith(permCols, "p.id")
	rows, err := r.pool.Query(ctx, query, where.Args()...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	perms, err := collectPermissions(rows)
	if err != nil {
		return nil, 0, err
	}
	return perms, total, nil
}

func collectPermissions(rows pgx.Rows) ([]Permission, error) {
	var perms []Permission
	for rows.Next() {
		p, err := scanPermission(rows)
		if err != nil {
			return nil, err
		}
		perms = append(perms, p)
	}
	return perms, rows.Err()
}
