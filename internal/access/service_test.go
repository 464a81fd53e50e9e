package access

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/brandforge/backoffice/internal/grants"
	"github.com/brandforge/backoffice/internal/permissions"
)

type stubSource struct {
	direct    map[int64][]grants.Grant
	inherited map[int64][]grants.Grant
}

func (s *stubSource) ListBySubject(ctx context.Context, kind grants.SubjectKind, subjectID int64) ([]grants.Grant, error) {
	return s.direct[subjectID], nil
}

func (s *stubSource) ListInheritedByStaff(ctx context.Context, staffID int64) ([]grants.Grant, error) {
	return s.inherited[staffID], nil
}

func grantFor(resource, action string) grants.Grant {
	return grants.Grant{
		SubjectKind: grants.SubjectStaff,
		Permission: permissions.Permission{
			Name:     action + " " + resource,
			Resource: permissions.Resource{Name: resource},
			Type:     permissions.ActionType{Name: action},
		},
	}
}

func TestCanAccessDirectGrant(t *testing.T) {
	svc := NewService(&stubSource{
		direct:    map[int64][]grants.Grant{7: {grantFor("staff", "read")}},
		inherited: map[int64][]grants.Grant{},
	})

	ok, err := svc.CanAccess(context.Background(), 7, "staff", "read")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestCanAccessInheritedGrant(t *testing.T) {
	svc := NewService(&stubSource{
		direct:    map[int64][]grants.Grant{},
		inherited: map[int64][]grants.Grant{7: {grantFor("group", "edit")}},
	})

	ok, err := svc.CanAccess(context.Background(), 7, "group", "edit")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestCanAccessNoGrants(t *testing.T) {
	svc := NewService(&stubSource{
		direct:    map[int64][]grants.Grant{},
		inherited: map[int64][]grants.Grant{},
	})

	ok, err := svc.CanAccess(context.Background(), 7, "staff", "read")
	require.NoError(t, err)
	assert.False(t, ok, "staff with no grants can do nothing")
}

func TestCanAccessWrongAction(t *testing.T) {
	svc := NewService(&stubSource{
		direct:    map[int64][]grants.Grant{7: {grantFor("staff", "read")}},
		inherited: map[int64][]grants.Grant{},
	})

	ok, err := svc.CanAccess(context.Background(), 7, "staff", "delete")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestCanAccessScopedGrantStillPasses(t *testing.T) {
	scoped := grantFor("staff", "read")
	scoped.AllowIDs = []int64{3}
	svc := NewService(&stubSource{
		direct:    map[int64][]grants.Grant{7: {scoped}},
		inherited: map[int64][]grants.Grant{},
	})

	// Scoping narrows which records list endpoints return; it does not
	// withhold the action itself.
	ok, err := svc.CanAccess(context.Background(), 7, "staff", "read")
	require.NoError(t, err)
	assert.True(t, ok)
}

// memberSource resolves inherited grants through a membership edge set the
// way the SQL join does: a staff member sees a group grant only while an
// edge to that group exists.
type memberSource struct {
	groupGrants map[int64][]grants.Grant
	members     map[int64][]int64
}

func (s *memberSource) ListBySubject(ctx context.Context, kind grants.SubjectKind, subjectID int64) ([]grants.Grant, error) {
	return nil, nil
}

func (s *memberSource) ListInheritedByStaff(ctx context.Context, staffID int64) ([]grants.Grant, error) {
	var out []grants.Grant
	for _, groupID := range s.members[staffID] {
		out = append(out, s.groupGrants[groupID]...)
	}
	return out, nil
}

func (s *memberSource) join(staffID, groupID int64) {
	s.members[staffID] = append(s.members[staffID], groupID)
}

func (s *memberSource) leave(staffID, groupID int64) {
	kept := s.members[staffID][:0]
	for _, id := range s.members[staffID] {
		if id != groupID {
			kept = append(kept, id)
		}
	}
	s.members[staffID] = kept
}

func TestInheritanceFollowsMembership(t *testing.T) {
	groupGrant := grantFor("staff", "edit")
	groupGrant.SubjectKind = grants.SubjectGroup
	source := &memberSource{
		groupGrants: map[int64][]grants.Grant{10: {groupGrant}},
		members:     map[int64][]int64{},
	}
	svc := NewService(source)

	ok, err := svc.CanAccess(context.Background(), 7, "staff", "edit")
	require.NoError(t, err)
	assert.False(t, ok, "grant held by the group alone reaches nobody")

	source.join(7, 10)
	ok, err = svc.CanAccess(context.Background(), 7, "staff", "edit")
	require.NoError(t, err)
	assert.True(t, ok, "joining the group confers its grants")

	source.leave(7, 10)
	ok, err = svc.CanAccess(context.Background(), 7, "staff", "edit")
	require.NoError(t, err)
	assert.False(t, ok, "leaving the group withdraws them")
}

func TestEffectiveOrdersDirectFirst(t *testing.T) {
	svc := NewService(&stubSource{
		direct:    map[int64][]grants.Grant{7: {grantFor("staff", "read")}},
		inherited: map[int64][]grants.Grant{7: {grantFor("group", "read")}},
	})

	held, err := svc.Effective(context.Background(), 7)
	require.NoError(t, err)
	require.Len(t, held, 2)
	assert.Equal(t, "staff", held[0].Permission.Resource.Name)
	assert.Equal(t, "group", held[1].Permission.Resource.Name)
}
