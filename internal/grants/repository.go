package grants

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/brandforge/backoffice/internal/platform/db"
	"github.com/brandforge/backoffice/internal/shared"
)

// Repository provides PostgreSQL backed grant persistence.
type Repository interface {
	Get(ctx context.Context, id int64) (Grant, error)
	// FindActive returns the non-deleted grant for a (subject, permission)
	// pair, or pgx.ErrNoRows.
	FindActive(ctx context.Context, kind SubjectKind, subjectID, permissionID int64) (Grant, error)
	Upsert(ctx context.Context, g Grant) (Grant, error)
	InsertMany(ctx context.Context, kind SubjectKind, subjectID int64, permissionIDs []int64, actorID int64) error
	AssignedPermissionIDs(ctx context.Context, kind SubjectKind, subjectID int64, permissionIDs []int64) ([]int64, error)
	SoftDelete(ctx context.Context, id, actorID int64) (Grant, error)
	ListBySubject(ctx context.Context, kind SubjectKind, subjectID int64) ([]Grant, error)
	ListInheritedByStaff(ctx context.Context, staffID int64) ([]Grant, error)
	List(ctx context.Context, kind SubjectKind, q shared.ListQuery, callerID int64) ([]Grant, int, error)
}

type repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a grant repository.
func NewRepository(pool *pgxpool.Pool) Repository {
	return &repository{pool: pool}
}

const grantColumns = `g.id, g.subject_kind, g.subject_id, g.permission_id, g.is_allowed_all, g.allow_ids,
	g.created_by_id, g.updated_by_id, g.created_at, g.updated_at, g.deleted_at, g.deleted_by_id,
	p.id, p.name, r.id, r.name, t.id, t.name`

const grantJoins = `
FROM grants g
JOIN permissions p ON p.id = g.permission_id
JOIN resources r ON r.id = p.resource_id
JOIN action_types t ON t.id = p.type_id`

func scanGrant(row pgx.Row) (Grant, error) {
	var g Grant
	err := row.Scan(&g.ID, &g.SubjectKind, &g.SubjectID, &g.PermissionID, &g.IsAllowedAll, &g.AllowIDs,
		&g.CreatedByID, &g.UpdatedByID, &g.CreatedAt, &g.UpdatedAt, &g.DeletedAt, &g.DeletedByID,
		&g.Permission.ID, &g.Permission.Name,
		&g.Permission.Resource.ID, &g.Permission.Resource.Name,
		&g.Permission.Type.ID, &g.Permission.Type.Name)
	return g, err
}

func (r *repository) Get(ctx context.Context, id int64) (Grant, error) {
	query := `SELECT ` + grantColumns + grantJoins + ` WHERE g.id = $1 AND g.deleted_at IS NULL`
	return scanGrant(r.pool.QueryRow(ctx, query, id))
}

func (r *repository) FindActive(ctx context.Context, kind SubjectKind, subjectID, permissionID int64) (Grant, error) {
	query := `SELECT ` + grantColumns + grantJoins + `
		WHERE g.subject_kind = $1 AND g.subject_id = $2 AND g.permission_id = $3 AND g.deleted_at IS NULL`
	return scanGrant(r.pool.QueryRow(ctx, query, kind, subjectID, permissionID))
}

// Upsert creates or overwrites the grant for (subject, permission) inside a
// single transaction. A tombstoned grant for the pair is resurrected rather
// than duplicated; the unique index on the pair is the concurrency backstop.
func (r *repository) Upsert(ctx context.Context, g Grant) (Grant, error) {
	var result Grant
	err := db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		now := time.Now()
		var existingID int64
		err := tx.QueryRow(ctx,
			`SELECT id FROM grants WHERE subject_kind = $1 AND subject_id = $2 AND permission_id = $3`,
			g.SubjectKind, g.SubjectID, g.PermissionID).Scan(&existingID)
		switch {
		case err == nil:
			result, err = scanGrant(tx.QueryRow(ctx, `
				WITH updated AS (
					UPDATE grants
					SET is_allowed_all = $2, allow_ids = $3, updated_by_id = $4, updated_at = $5,
						deleted_at = NULL, deleted_by_id = NULL
					WHERE id = $1
					RETURNING *
				)
				SELECT `+grantColumns+`
				FROM updated g
				JOIN permissions p ON p.id = g.permission_id
				JOIN resources r ON r.id = p.resource_id
				JOIN action_types t ON t.id = p.type_id`,
				existingID, g.IsAllowedAll, g.AllowIDs, g.UpdatedByID, now))
			return err
		case errors.Is(err, pgx.ErrNoRows):
			result, err = scanGrant(tx.QueryRow(ctx, `
				WITH inserted AS (
					INSERT INTO grants
						(subject_kind, subject_id, permission_id, is_allowed_all, allow_ids,
						 created_by_id, updated_by_id, created_at, updated_at)
					VALUES ($1, $2, $3, $4, $5, $6, $6, $7, $7)
					RETURNING *
				)
				SELECT `+grantColumns+`
				FROM inserted g
				JOIN permissions p ON p.id = g.permission_id
				JOIN resources r ON r.id = p.resource_id
				JOIN action_types t ON t.id = p.type_id`,
				g.SubjectKind, g.SubjectID, g.PermissionID, g.IsAllowedAll, g.AllowIDs, g.CreatedByID, now))
			return err
		default:
			return err
		}
	})
	return result, err
}

func (r *repository) InsertMany(ctx context.Context, kind SubjectKind, subjectID int64, permissionIDs []int64, actorID int64) error {
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		now := time.Now()
		for _, pid := range permissionIDs {
			_, err := tx.Exec(ctx, `
				INSERT INTO grants
					(subject_kind, subject_id, permission_id, is_allowed_all, allow_ids,
					 created_by_id, updated_by_id, created_at, updated_at)
				VALUES ($1, $2, $3, TRUE, NULL, $4, $4, $5, $5)
				ON CONFLICT (subject_kind, subject_id, permission_id) DO UPDATE
				SET is_allowed_all = TRUE, allow_ids = NULL, updated_by_id = $4, updated_at = $5,
					deleted_at = NULL, deleted_by_id = NULL`,
				kind, subjectID, pid, actorID, now)
			if err != nil {
				return err
			}
		}
		return nil
	})
}

func (r *repository) AssignedPermissionIDs(ctx context.Context, kind SubjectKind, subjectID int64, permissionIDs []int64) ([]int64, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT permission_id FROM grants
		WHERE subject_kind = $1 AND subject_id = $2 AND permission_id = ANY($3) AND deleted_at IS NULL`,
		kind, subjectID, permissionIDs)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func (r *repository) SoftDelete(ctx context.Context, id, actorID int64) (Grant, error) {
	query := `
		WITH deleted AS (
			UPDATE grants SET deleted_at = $3, deleted_by_id = $2
			WHERE id = $1 AND deleted_at IS NULL
			RETURNING *
		)
		SELECT ` + grantColumns + `
		FROM deleted g
		JOIN permissions p ON p.id = g.permission_id
		JOIN resources r ON r.id = p.resource_id
		JOIN action_types t ON t.id = p.type_id`
	return scanGrant(r.pool.QueryRow(ctx, query, id, actorID, time.Now()))
}

func (r *repository) ListBySubject(ctx context.Context, kind SubjectKind, subjectID int64) ([]Grant, error) {
	query := `SELECT ` + grantColumns + grantJoins + `
		WHERE g.subject_kind = $1 AND g.subject_id = $2 AND g.deleted_at IS NULL
		ORDER BY g.id`
	rows, err := r.pool.Query(ctx, query, kind, subjectID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectGrants(rows)
}

// ListInheritedByStaff flattens the group-level grants a staff member
// inherits through every group membership.
func (r *repository) ListInheritedByStaff(ctx context.Context, staffID int64) ([]Grant, error) {
	query := `SELECT ` + grantColumns + grantJoins + `
		JOIN staff_groups sg ON sg.group_id = g.subject_id
		WHERE g.subject_kind = 'group' AND sg.staff_id = $1 AND g.deleted_at IS NULL
		ORDER BY g.id`
	rows, err := r.pool.Query(ctx, query, staffID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectGrants(rows)
}

func (r *repository) List(ctx context.Context, kind SubjectKind, q shared.ListQuery, callerID int64) ([]Grant, int, error) {
	grantCols := map[string]string{
		"id":             "g.id",
		"subject_kind":   "g.subject_kind",
		"subject_id":     "g.subject_id",
		"permission_id":  "g.permission_id",
		"is_allowed_all": "g.is_allowed_all",
		"created_by_id":  "g.created_by_id",
		"updated_by_id":  "g.updated_by_id",
		"created_at":     "g.created_at",
		"updated_at":     "g.updated_at",
	}

	var where shared.WhereBuilder
	where.Add("g.deleted_at IS NULL")
	where.AddEq("g.subject_kind", kind)
	q.ApplyTo(&where, shared.FilterConfig{
		QColumn:     "p.name",
		CallerID:    callerID,
		IDColumn:    "g.id",
		OwnerColumn: "g.created_by_id",
		Columns:     grantCols,
	})

	var total int
	countQuery := `SELECT COUNT(*)` + grantJoins + where.Clause()
	if err := r.pool.QueryRow(ctx, countQuery, where.Args()...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := `SELECT ` + grantColumns + grantJoins + where.Clause() + q.OrderLimitWith(grantCols, "g.id")
	rows, err := r.pool.Query(ctx, query, where.Args()...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	grantsList, err := collectGrants(rows)
	if err != nil {
		return nil, 0, err
	}
	return grantsList, total, nil
}

func collectGrants(rows pgx.Rows) ([]Grant, error) {
	var out []Grant
	for rows.Next() {
		g, err := scanGrant(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, g)
	}
	return out, rows.Err()
}
