// Package membership maintains the many-to-many association between staff
// and groups. The access engine consults it to pull in group-level grants.
package membership

import "time"

// Edge binds one staff member to one group. At most one edge exists per
// (staff, group) pair; re-assignment upserts. Revocation hard-deletes.
type Edge struct {
	ID          int64     `json:"id"`
	StaffID     int64     `json:"staff_id"`
	GroupID     int64     `json:"group_id"`
	CreatedByID int64     `json:"created_by_id"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

var listFields = []string{"id", "staff_id", "group_id", "created_by_id", "created_at", "updated_at"}
