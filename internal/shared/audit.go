package shared

import "time"

// Audit carries the actor/timestamp trail every mutable entity records.
// Soft-deletable entities stamp DeletedAt/DeletedByID instead of losing rows.
type Audit struct {
	CreatedByID int64      `json:"created_by_id"`
	UpdatedByID int64      `json:"updated_by_id"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
	DeletedAt   *time.Time `json:"deleted_at,omitempty"`
	DeletedByID *int64     `json:"deleted_by_id,omitempty"`
}

// Deleted reports whether the record is tombstoned.
func (a Audit) Deleted() bool {
	return a.DeletedAt != nil
}
