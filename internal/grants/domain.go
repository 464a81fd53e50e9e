// Package grants implements the permission grant store and assignment
// engine. A grant binds one subject (a staff member or a group) to one
// catalog permission, either as a wildcard over the whole resource or scoped
// to an explicit allow-list of record ids.
package grants

import (
	"github.com/brandforge/backoffice/internal/permissions"
	"github.com/brandforge/backoffice/internal/shared"
)

// SubjectKind discriminates who a grant is bound to. The staff-level and
// group-level grant tables of earlier designs were structurally identical,
// so they collapse into one relation tagged by kind.
type SubjectKind string

const (
	SubjectStaff SubjectKind = "staff"
	SubjectGroup SubjectKind = "group"
)

// Entity returns the human-readable entity name for error messages.
func (k SubjectKind) Entity() string {
	return string(k) + " permission"
}

// Grant binds a subject to a permission. When IsAllowedAll is true the
// subject may act on every record of the resource and AllowIDs is ignored;
// otherwise AllowIDs lists the record ids the subject may act on.
type Grant struct {
	ID           int64                  `json:"id"`
	SubjectKind  SubjectKind            `json:"subject_kind"`
	SubjectID    int64                  `json:"subject_id"`
	PermissionID int64                  `json:"permission_id"`
	Permission   permissions.Permission `json:"permission"`
	IsAllowedAll bool                   `json:"is_allowed_all"`
	AllowIDs     []int64                `json:"allow_ids"`
	shared.Audit
}

// Matches reports whether the grant covers the requested (resource, action)
// pair. Scoping flags are deliberately not consulted here: the yes/no gate
// answers whether the subject may perform this action type on this resource
// kind at all; which records are visible is a per-query concern.
func (g Grant) Matches(resource, action string) bool {
	return g.Permission.Resource.Name == resource && g.Permission.Type.Name == action
}

var listFields = []string{
	"id", "subject_kind", "subject_id", "permission_id", "is_allowed_all",
	"created_by_id", "updated_by_id", "created_at", "updated_at",
}
