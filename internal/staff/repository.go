package staff

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/brandforge/backoffice/internal/shared"
)

// Repository provides PostgreSQL backed staff persistence.
type Repository interface {
	Get(ctx context.Context, id int64) (Staff, error)
	GetByEmail(ctx context.Context, email string) (Staff, error)
	CountByIDs(ctx context.Context, ids []int64) (int, error)
	List(ctx context.Context, q shared.ListQuery, callerID int64) ([]Staff, int, error)
	Create(ctx context.Context, s Staff) (Staff, error)
	Update(ctx context.Context, s Staff) (Staff, error)
	SoftDelete(ctx context.Context, id, actorID int64) (Staff, error)
}

type repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a staff repository.
func NewRepository(pool *pgxpool.Pool) Repository {
	return &repository{pool: pool}
}

const staffColumns = `id, first_name, last_name, email, password_hash, position_id, department_id, is_root,
	created_by_id, updated_by_id, created_at, updated_at, deleted_at, deleted_by_id`

func scanStaff(row pgx.Row) (Staff, error) {
	var s Staff
	err := row.Scan(&s.ID, &s.FirstName, &s.LastName, &s.Email, &s.PasswordHash,
		&s.PositionID, &s.DepartmentID, &s.IsRoot,
		&s.CreatedByID, &s.UpdatedByID, &s.CreatedAt, &s.UpdatedAt, &s.DeletedAt, &s.DeletedByID)
	return s, err
}

func (r *repository) Get(ctx context.Context, id int64) (Staff, error) {
	query := `SELECT ` + staffColumns + ` FROM staff WHERE id = $1 AND deleted_at IS NULL`
	return scanStaff(r.pool.QueryRow(ctx, query, id))
}

func (r *repository) GetByEmail(ctx context.Context, email string) (Staff, error) {
	query := `SELECT ` + staffColumns + ` FROM staff WHERE email = $1 AND deleted_at IS NULL`
	return scanStaff(r.pool.QueryRow(ctx, query, email))
}

func (r *repository) CountByIDs(ctx context.Context, ids []int64) (int, error) {
	var n int
	err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM staff WHERE id = ANY($1) AND deleted_at IS NULL`, ids).Scan(&n)
	return n, err
}

func (r *repository) List(ctx context.Context, q shared.ListQuery, callerID int64) ([]Staff, int, error) {
	var where shared.WhereBuilder
	where.Add("deleted_at IS NULL")
	q.ApplyTo(&where, shared.FilterConfig{
		QColumn:    "email",
		RootColumn: "is_root",
		CallerID:   callerID,
	})

	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM staff`+where.Clause(), where.Args()...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := `SELECT ` + staffColumns + ` FROM staff` + where.Clause() + q.OrderLimit("id")
	rows, err := r.pool.Query(ctx, query, where.Args()...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var staffs []Staff
	for rows.Next() {
		s, err := scanStaff(rows)
		if err != nil {
			return nil, 0, err
		}
		staffs = append(staffs, s)
	}
	return staffs, total, rows.Err()
}

func (r *repository) Create(ctx context.Context, s Staff) (Staff, error) {
	now := time.Now()
	query := `INSERT INTO staff
		(first_name, last_name, email, password_hash, position_id, department_id, is_root, created_by_id, updated_by_id, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, FALSE, $7, $7, $8, $8)
		RETURNING ` + staffColumns
	return scanStaff(r.pool.QueryRow(ctx, query,
		s.FirstName, s.LastName, s.Email, s.PasswordHash, s.PositionID, s.DepartmentID, s.CreatedByID, now))
}

func (r *repository) Update(ctx context.Context, s Staff) (Staff, error) {
	query := `UPDATE staff
		SET first_name = $2, last_name = $3, email = $4, password_hash = $5,
			position_id = $6, department_id = $7, updated_by_id = $8, updated_at = $9
		WHERE id = $1 AND deleted_at IS NULL
		RETURNING ` + staffColumns
	return scanStaff(r.pool.QueryRow(ctx, query,
		s.ID, s.FirstName, s.LastName, s.Email, s.PasswordHash, s.PositionID, s.DepartmentID, s.UpdatedByID, time.Now()))
}

func (r *repository) SoftDelete(ctx context.Context, id, actorID int64) (Staff, error) {
	query := `UPDATE staff SET deleted_at = $3, deleted_by_id = $2
		WHERE id = $1 AND deleted_at IS NULL
		RETURNING ` + staffColumns
	return scanStaff(r.pool.QueryRow(ctx, query, id, actorID, time.Now()))
}
