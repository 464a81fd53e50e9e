package permissions

// Resource is a named domain of records permissions are defined against.
// Resources are seeded data, not a compile-time enum; the constants below
// only name the ones the code itself wires validators or routes for.
type Resource struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// ActionType is one of the small closed set of operations a permission can cover.
type ActionType struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// Permission is an immutable catalog entry identifying one
// (resource, action type) pair. Seeded, never created by end users.
type Permission struct {
	ID       int64      `json:"id"`
	Name     string     `json:"name"`
	Resource Resource   `json:"resource"`
	Type     ActionType `json:"type"`
}

// Action type names.
const (
	ActionCreate = "create"
	ActionRead   = "read"
	ActionEdit   = "edit"
	ActionDelete = "delete"
	ActionAssign = "assign"
)

// Resource names referenced directly by code.
const (
	ResourceStaff           = "staff"
	ResourceGroup           = "group"
	ResourceStaffPosition   = "staff-position"
	ResourceStaffDepartment = "staff-department"
	ResourceStaffPermission = "staff-permission"
	ResourceGroupPermission = "group-permission"
	ResourceStaffGroup      = "staff-group"
	ResourcePermission      = "permission"
)

// listFields are the scalar fields list queries may sort and filter on.
var listFields = []string{"id", "name", "resource_id", "type_id"}
