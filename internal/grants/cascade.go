package grants

import "github.com/brandforge/backoffice/internal/permissions"

// CascadePolicy maps an action type to the action types implied by granting
// it. Assigning "create" on a resource also grants "edit" and "read" on it,
// because a subject who can create records must be able to see and amend
// what it created.
type CascadePolicy map[string][]string

// DefaultCascadePolicy returns the platform-wide implication chain.
func DefaultCascadePolicy() CascadePolicy {
	return CascadePolicy{
		permissions.ActionCreate: {permissions.ActionEdit, permissions.ActionRead},
		permissions.ActionEdit:   {permissions.ActionRead},
	}
}

// Implied returns the actions implied by the given action, or nil.
func (p CascadePolicy) Implied(action string) []string {
	return p[action]
}
