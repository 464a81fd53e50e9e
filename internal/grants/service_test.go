package grants

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/brandforge/backoffice/internal/permissions"
	"github.com/brandforge/backoffice/internal/shared"
)

type mockRepository struct {
	grants map[string]*Grant
	nextID int64

	upsertCalls int
}

func newMockRepository() *mockRepository {
	return &mockRepository{grants: make(map[string]*Grant), nextID: 1}
}

func pairKey(kind SubjectKind, subjectID, permissionID int64) string {
	return fmt.Sprintf("%s/%d/%d", kind, subjectID, permissionID)
}

func (m *mockRepository) Get(ctx context.Context, id int64) (Grant, error) {
	for _, g := range m.grants {
		if g.ID == id && !g.Deleted() {
			return *g, nil
		}
	}
	return Grant{}, pgx.ErrNoRows
}

func (m *mockRepository) FindActive(ctx context.Context, kind SubjectKind, subjectID, permissionID int64) (Grant, error) {
	g, ok := m.grants[pairKey(kind, subjectID, permissionID)]
	if !ok || g.Deleted() {
		return Grant{}, pgx.ErrNoRows
	}
	return *g, nil
}

func (m *mockRepository) Upsert(ctx context.Context, g Grant) (Grant, error) {
	m.upsertCalls++
	key := pairKey(g.SubjectKind, g.SubjectID, g.PermissionID)
	if existing, ok := m.grants[key]; ok {
		existing.IsAllowedAll = g.IsAllowedAll
		existing.AllowIDs = g.AllowIDs
		existing.UpdatedByID = g.UpdatedByID
		existing.DeletedAt = nil
		existing.DeletedByID = nil
		return *existing, nil
	}
	g.ID = m.nextID
	m.nextID++
	m.grants[key] = &g
	return g, nil
}

func (m *mockRepository) InsertMany(ctx context.Context, kind SubjectKind, subjectID int64, permissionIDs []int64, actorID int64) error {
	for _, pid := range permissionIDs {
		_, err := m.Upsert(ctx, Grant{
			SubjectKind: kind, SubjectID: subjectID, PermissionID: pid,
			IsAllowedAll: true,
			Audit:        shared.Audit{CreatedByID: actorID, UpdatedByID: actorID},
		})
		if err != nil {
			return err
		}
	}
	return nil
}

func (m *mockRepository) AssignedPermissionIDs(ctx context.Context, kind SubjectKind, subjectID int64, permissionIDs []int64) ([]int64, error) {
	var out []int64
	for _, pid := range permissionIDs {
		if g, ok := m.grants[pairKey(kind, subjectID, pid)]; ok && !g.Deleted() {
			out = append(out, pid)
		}
	}
	return out, nil
}

func (m *mockRepository) SoftDelete(ctx context.Context, id, actorID int64) (Grant, error) {
	for _, g := range m.grants {
		if g.ID == id && !g.Deleted() {
			now := time.Now()
			g.DeletedAt = &now
			g.DeletedByID = &actorID
			return *g, nil
		}
	}
	return Grant{}, pgx.ErrNoRows
}

func (m *mockRepository) ListBySubject(ctx context.Context, kind SubjectKind, subjectID int64) ([]Grant, error) {
	var out []Grant
	for _, g := range m.grants {
		if g.SubjectKind == kind && g.SubjectID == subjectID && !g.Deleted() {
			out = append(out, *g)
		}
	}
	return out, nil
}

func (m *mockRepository) ListInheritedByStaff(ctx context.Context, staffID int64) ([]Grant, error) {
	return nil, nil
}

func (m *mockRepository) List(ctx context.Context, kind SubjectKind, q shared.ListQuery, callerID int64) ([]Grant, int, error) {
	out, err := m.ListBySubject(ctx, kind, 0)
	return out, len(out), err
}

type mockCatalog struct {
	perms map[int64]permissions.Permission
}

func newMockCatalog(perms ...permissions.Permission) *mockCatalog {
	c := &mockCatalog{perms: make(map[int64]permissions.Permission)}
	for _, p := range perms {
		c.perms[p.ID] = p
	}
	return c
}

func (c *mockCatalog) Get(ctx context.Context, id int64) (permissions.Permission, error) {
	p, ok := c.perms[id]
	if !ok {
		return permissions.Permission{}, shared.NotFound("permission")
	}
	return p, nil
}

func (c *mockCatalog) GetByIDs(ctx context.Context, ids []int64) ([]permissions.Permission, error) {
	out := make([]permissions.Permission, 0, len(ids))
	for _, id := range ids {
		p, ok := c.perms[id]
		if !ok {
			return nil, shared.NotFoundSome("permissions")
		}
		out = append(out, p)
	}
	return out, nil
}

func (c *mockCatalog) FindByResourceAction(ctx context.Context, resource, action string) (permissions.Permission, error) {
	for _, p := range c.perms {
		if p.Resource.Name == resource && p.Type.Name == action {
			return p, nil
		}
	}
	return permissions.Permission{}, shared.NotFound("permission")
}

type mockValidator struct {
	known map[int64]bool
	calls int
}

func (v *mockValidator) ValidateID(ctx context.Context, id int64) error {
	if !v.known[id] {
		return shared.NotFound("staff")
	}
	return nil
}

func (v *mockValidator) ValidateIDs(ctx context.Context, ids []int64) error {
	v.calls++
	for _, id := range ids {
		if !v.known[id] {
			return shared.NotFoundSome("records")
		}
	}
	return nil
}

func perm(id int64, resource, action string) permissions.Permission {
	return permissions.Permission{
		ID:       id,
		Name:     action + " " + resource,
		Resource: permissions.Resource{ID: id, Name: resource},
		Type:     permissions.ActionType{ID: id, Name: action},
	}
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestService(repo *mockRepository, catalog *mockCatalog, registry *ValidatorRegistry) (*Service, *mockValidator, *mockValidator) {
	staffVal := &mockValidator{known: map[int64]bool{1: true, 2: true, 9: true}}
	groupVal := &mockValidator{known: map[int64]bool{10: true}}
	if registry == nil {
		registry = NewValidatorRegistry(testLogger())
	}
	svc := NewService(testLogger(), repo, catalog, staffVal, groupVal, registry, DefaultCascadePolicy())
	return svc, staffVal, groupVal
}

func TestAssignWildcard(t *testing.T) {
	repo := newMockRepository()
	catalog := newMockCatalog(perm(1, "staff", "read"))
	svc, _, _ := newTestService(repo, catalog, nil)

	g, err := svc.Assign(context.Background(), SubjectStaff, AssignInput{
		SubjectID: 2, PermissionID: 1, IsAllowedAll: true,
	}, 9)
	require.NoError(t, err)
	assert.True(t, g.IsAllowedAll)
	assert.Nil(t, g.AllowIDs)
	assert.Equal(t, SubjectStaff, g.SubjectKind)
}

func TestAssignUnknownSubject(t *testing.T) {
	repo := newMockRepository()
	catalog := newMockCatalog(perm(1, "staff", "read"))
	svc, _, _ := newTestService(repo, catalog, nil)

	_, err := svc.Assign(context.Background(), SubjectStaff, AssignInput{
		SubjectID: 404, PermissionID: 1, IsAllowedAll: true,
	}, 9)
	require.Error(t, err)
	assert.Equal(t, shared.KindNotFound, shared.KindOf(err))
	assert.Empty(t, repo.grants)
}

func TestAssignUnknownPermission(t *testing.T) {
	repo := newMockRepository()
	svc, _, _ := newTestService(repo, newMockCatalog(), nil)

	_, err := svc.Assign(context.Background(), SubjectStaff, AssignInput{
		SubjectID: 2, PermissionID: 77, IsAllowedAll: true,
	}, 9)
	require.Error(t, err)
	assert.Equal(t, shared.KindNotFound, shared.KindOf(err))
}

func TestAssignOverwritesScoping(t *testing.T) {
	repo := newMockRepository()
	catalog := newMockCatalog(perm(1, "staff", "read"))
	registry := NewValidatorRegistry(testLogger())
	registry.Register("staff", &mockValidator{known: map[int64]bool{5: true, 6: true}})
	svc, _, _ := newTestService(repo, catalog, registry)

	first, err := svc.Assign(context.Background(), SubjectStaff, AssignInput{
		SubjectID: 2, PermissionID: 1, AllowIDs: []int64{5, 6},
	}, 9)
	require.NoError(t, err)
	assert.Equal(t, []int64{5, 6}, first.AllowIDs)

	second, err := svc.Assign(context.Background(), SubjectStaff, AssignInput{
		SubjectID: 2, PermissionID: 1, IsAllowedAll: true,
	}, 9)
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID, "same pair must stay one row")
	assert.True(t, second.IsAllowedAll)
	assert.Nil(t, second.AllowIDs)
}

func TestAssignScopedAllowListValidated(t *testing.T) {
	repo := newMockRepository()
	catalog := newMockCatalog(perm(1, "staff", "read"))
	val := &mockValidator{known: map[int64]bool{5: true}}
	registry := NewValidatorRegistry(testLogger())
	registry.Register("staff", val)
	svc, _, _ := newTestService(repo, catalog, registry)

	_, err := svc.Assign(context.Background(), SubjectStaff, AssignInput{
		SubjectID: 2, PermissionID: 1, AllowIDs: []int64{5, 404},
	}, 9)
	require.Error(t, err)
	assert.Equal(t, shared.KindNotFound, shared.KindOf(err))
	assert.Equal(t, 1, val.calls)
	assert.Empty(t, repo.grants, "nothing written when allow ids fail validation")
}

func TestAssignUnknownResourcePermissive(t *testing.T) {
	repo := newMockRepository()
	catalog := newMockCatalog(perm(1, "ads-language", "read"))
	svc, _, _ := newTestService(repo, catalog, NewValidatorRegistry(testLogger()))

	g, err := svc.Assign(context.Background(), SubjectStaff, AssignInput{
		SubjectID: 2, PermissionID: 1, AllowIDs: []int64{123, 456},
	}, 9)
	require.NoError(t, err)
	assert.Equal(t, []int64{123, 456}, g.AllowIDs)
}

func TestAssignCascadesCreateToEditAndRead(t *testing.T) {
	repo := newMockRepository()
	catalog := newMockCatalog(
		perm(1, "staff", "create"),
		perm(2, "staff", "edit"),
		perm(3, "staff", "read"),
	)
	svc, _, _ := newTestService(repo, catalog, nil)

	_, err := svc.Assign(context.Background(), SubjectStaff, AssignInput{
		SubjectID: 2, PermissionID: 1, IsAllowedAll: true,
	}, 9)
	require.NoError(t, err)

	held, err := repo.ListBySubject(context.Background(), SubjectStaff, 2)
	require.NoError(t, err)
	assert.Len(t, held, 3)
	for _, g := range held {
		assert.True(t, g.IsAllowedAll)
	}
}

func TestAssignCascadeSkipsMissingCatalogEntry(t *testing.T) {
	repo := newMockRepository()
	// No read permission exists for the resource.
	catalog := newMockCatalog(perm(1, "staff", "edit"))
	svc, _, _ := newTestService(repo, catalog, nil)

	_, err := svc.Assign(context.Background(), SubjectStaff, AssignInput{
		SubjectID: 2, PermissionID: 1, IsAllowedAll: true,
	}, 9)
	require.NoError(t, err)

	held, _ := repo.ListBySubject(context.Background(), SubjectStaff, 2)
	assert.Len(t, held, 1)
}

func TestAssignCascadeLeavesExistingGrantAlone(t *testing.T) {
	repo := newMockRepository()
	catalog := newMockCatalog(
		perm(1, "staff", "edit"),
		perm(2, "staff", "read"),
	)
	registry := NewValidatorRegistry(testLogger())
	registry.Register("staff", &mockValidator{known: map[int64]bool{5: true}})
	svc, _, _ := newTestService(repo, catalog, registry)

	// Subject already holds a scoped read grant.
	_, err := svc.Assign(context.Background(), SubjectStaff, AssignInput{
		SubjectID: 2, PermissionID: 2, AllowIDs: []int64{5},
	}, 9)
	require.NoError(t, err)

	_, err = svc.Assign(context.Background(), SubjectStaff, AssignInput{
		SubjectID: 2, PermissionID: 1, IsAllowedAll: true,
	}, 9)
	require.NoError(t, err)

	read, err := repo.FindActive(context.Background(), SubjectStaff, 2, 2)
	require.NoError(t, err)
	assert.False(t, read.IsAllowedAll, "cascade must not widen an explicit scoped grant")
	assert.Equal(t, []int64{5}, read.AllowIDs)
}

func TestAssignManySkipsExisting(t *testing.T) {
	repo := newMockRepository()
	catalog := newMockCatalog(
		perm(1, "group", "read"),
		perm(2, "group", "delete"),
		perm(3, "group", "assign"),
	)
	svc, _, _ := newTestService(repo, catalog, nil)

	_, err := svc.Assign(context.Background(), SubjectGroup, AssignInput{
		SubjectID: 10, PermissionID: 2, IsAllowedAll: true,
	}, 9)
	require.NoError(t, err)
	writesBefore := repo.upsertCalls

	held, err := svc.AssignMany(context.Background(), SubjectGroup, 10, []int64{1, 2, 3}, 9)
	require.NoError(t, err)
	assert.Len(t, held, 3)
	assert.Equal(t, 2, repo.upsertCalls-writesBefore, "only the two missing pairs are written")
}

func TestAssignManyUnknownPermissionFailsWholeBatch(t *testing.T) {
	repo := newMockRepository()
	catalog := newMockCatalog(perm(1, "group", "read"))
	svc, _, _ := newTestService(repo, catalog, nil)

	_, err := svc.AssignMany(context.Background(), SubjectGroup, 10, []int64{1, 404}, 9)
	require.Error(t, err)
	assert.Equal(t, shared.KindNotFound, shared.KindOf(err))
	assert.Empty(t, repo.grants)
}

func TestRevoke(t *testing.T) {
	repo := newMockRepository()
	catalog := newMockCatalog(perm(1, "staff", "read"))
	svc, _, _ := newTestService(repo, catalog, nil)

	g, err := svc.Assign(context.Background(), SubjectStaff, AssignInput{
		SubjectID: 2, PermissionID: 1, IsAllowedAll: true,
	}, 9)
	require.NoError(t, err)

	_, err = svc.Revoke(context.Background(), SubjectStaff, g.ID, 9)
	require.NoError(t, err)

	_, err = repo.FindActive(context.Background(), SubjectStaff, 2, 1)
	assert.ErrorIs(t, err, pgx.ErrNoRows)
}

func TestRevokeKindMismatch(t *testing.T) {
	repo := newMockRepository()
	catalog := newMockCatalog(perm(1, "group", "read"))
	svc, _, _ := newTestService(repo, catalog, nil)

	g, err := svc.Assign(context.Background(), SubjectGroup, AssignInput{
		SubjectID: 10, PermissionID: 1, IsAllowedAll: true,
	}, 9)
	require.NoError(t, err)

	_, err = svc.Revoke(context.Background(), SubjectStaff, g.ID, 9)
	require.Error(t, err)
	assert.Equal(t, shared.KindNotFound, shared.KindOf(err))
	assert.Contains(t, err.Error(), "staff permission not found")
}

func TestRevokeUnknownID(t *testing.T) {
	repo := newMockRepository()
	svc, _, _ := newTestService(repo, newMockCatalog(), nil)

	_, err := svc.Revoke(context.Background(), SubjectGroup, 999, 9)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "group permission not found")
}

func TestResurrectedGrantGetsNewScoping(t *testing.T) {
	repo := newMockRepository()
	catalog := newMockCatalog(perm(1, "staff", "read"))
	svc, _, _ := newTestService(repo, catalog, nil)

	g, err := svc.Assign(context.Background(), SubjectStaff, AssignInput{
		SubjectID: 2, PermissionID: 1, IsAllowedAll: true,
	}, 9)
	require.NoError(t, err)
	_, err = svc.Revoke(context.Background(), SubjectStaff, g.ID, 9)
	require.NoError(t, err)

	back, err := svc.Assign(context.Background(), SubjectStaff, AssignInput{
		SubjectID: 2, PermissionID: 1, IsAllowedAll: true,
	}, 9)
	require.NoError(t, err)
	assert.Equal(t, g.ID, back.ID, "revoked pair is resurrected, not duplicated")
	assert.False(t, back.Deleted())
}
