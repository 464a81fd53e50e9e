package staff

import "github.com/brandforge/backoffice/internal/shared"

// Staff is an employee account. Root staff bypass every access check.
type Staff struct {
	ID           int64  `json:"id"`
	FirstName    string `json:"first_name"`
	LastName     string `json:"last_name"`
	Email        string `json:"email"`
	PasswordHash string `json:"-"`
	PositionID   int64  `json:"position_id"`
	DepartmentID int64  `json:"department_id"`
	IsRoot       bool   `json:"is_root"`
	shared.Audit
}

var listFields = []string{
	"id", "first_name", "last_name", "email", "position_id", "department_id",
	"is_root", "created_by_id", "updated_by_id", "created_at", "updated_at",
}
