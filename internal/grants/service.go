package grants

import (
	"context"
	"errors"
	"log/slog"

	"github.com/jackc/pgx/v5"

	"github.com/brandforge/backoffice/internal/permissions"
	"github.com/brandforge/backoffice/internal/platform/db"
	"github.com/brandforge/backoffice/internal/shared"
)

// SubjectValidator confirms a referenced record exists and is not deleted.
type SubjectValidator interface {
	ValidateID(ctx context.Context, id int64) error
}

// PermissionCatalog is the slice of the permission service the assignment
// engine needs.
type PermissionCatalog interface {
	Get(ctx context.Context, id int64) (permissions.Permission, error)
	GetByIDs(ctx context.Context, ids []int64) ([]permissions.Permission, error)
	FindByResourceAction(ctx context.Context, resource, action string) (permissions.Permission, error)
}

// AssignInput is one grant assignment. When IsAllowedAll is false and
// AllowIDs is non-empty, the grant is scoped to those record ids.
type AssignInput struct {
	SubjectID    int64
	PermissionID int64
	IsAllowedAll bool
	AllowIDs     []int64
}

// Service implements the grant assignment engine.
type Service struct {
	logger   *slog.Logger
	repo     Repository
	catalog  PermissionCatalog
	staff    SubjectValidator
	groups   SubjectValidator
	registry *ValidatorRegistry
	cascade  CascadePolicy
}

// NewService constructs the assignment engine.
func NewService(logger *slog.Logger, repo Repository, catalog PermissionCatalog, staff, groups SubjectValidator, registry *ValidatorRegistry, cascade CascadePolicy) *Service {
	return &Service{
		logger:   logger,
		repo:     repo,
		catalog:  catalog,
		staff:    staff,
		groups:   groups,
		registry: registry,
		cascade:  cascade,
	}
}

func (s *Service) validateSubject(ctx context.Context, kind SubjectKind, subjectID int64) error {
	switch kind {
	case SubjectStaff:
		return s.staff.ValidateID(ctx, subjectID)
	case SubjectGroup:
		return s.groups.ValidateID(ctx, subjectID)
	default:
		return shared.InvalidField("subject_kind", "subject kind must be staff or group")
	}
}

// Assign validates subject, actor, permission, and any scoped allow-list,
// then upserts the grant. Assigning the same (subject, permission) pair
// again overwrites the previous scoping instead of duplicating the row.
// After the primary grant lands, actions implied by the cascade policy are
// granted too, with the same scoping, unless the subject already holds them.
func (s *Service) Assign(ctx context.Context, kind SubjectKind, in AssignInput, actorID int64) (Grant, error) {
	if err := s.validateSubject(ctx, kind, in.SubjectID); err != nil {
		return Grant{}, err
	}
	if err := s.staff.ValidateID(ctx, actorID); err != nil {
		return Grant{}, err
	}
	perm, err := s.catalog.Get(ctx, in.PermissionID)
	if err != nil {
		return Grant{}, err
	}

	allowIDs := in.AllowIDs
	if in.IsAllowedAll {
		allowIDs = nil
	} else if len(allowIDs) > 0 {
		if err := s.registry.Validate(ctx, perm.Resource.Name, allowIDs); err != nil {
			return Grant{}, err
		}
	}

	next := Grant{
		SubjectKind:  kind,
		SubjectID:    in.SubjectID,
		PermissionID: in.PermissionID,
		IsAllowedAll: in.IsAllowedAll,
		AllowIDs:     allowIDs,
		Audit:        shared.Audit{CreatedByID: actorID, UpdatedByID: actorID},
	}
	grant, err := s.repo.Upsert(ctx, next)
	if db.IsUniqueViolation(err, "") {
		// A concurrent assign for the same pair won the insert race; the
		// retry takes the update path.
		grant, err = s.repo.Upsert(ctx, next)
	}
	if err != nil {
		return Grant{}, err
	}

	s.cascadeAssign(ctx, kind, in.SubjectID, perm, in.IsAllowedAll, allowIDs, actorID)
	return grant, nil
}

// cascadeAssign grants the actions implied by the assigned one. Failures
// here never fail the primary assignment: a missing catalog entry for an
// implied action is expected on resources with a partial permission set.
func (s *Service) cascadeAssign(ctx context.Context, kind SubjectKind, subjectID int64, perm permissions.Permission, isAllowedAll bool, allowIDs []int64, actorID int64) {
	for _, action := range s.cascade.Implied(perm.Type.Name) {
		implied, err := s.catalog.FindByResourceAction(ctx, perm.Resource.Name, action)
		if err != nil {
			if shared.KindOf(err) != shared.KindNotFound {
				s.logger.Error("cascade lookup failed",
					"resource", perm.Resource.Name, "action", action, "error", err)
			}
			continue
		}
		_, err = s.repo.FindActive(ctx, kind, subjectID, implied.ID)
		if err == nil {
			// Holder already has an explicit grant; leave its scoping alone.
			continue
		}
		if !errors.Is(err, pgx.ErrNoRows) {
			s.logger.Error("cascade grant check failed", "permission_id", implied.ID, "error", err)
			continue
		}
		_, err = s.repo.Upsert(ctx, Grant{
			SubjectKind:  kind,
			SubjectID:    subjectID,
			PermissionID: implied.ID,
			IsAllowedAll: isAllowedAll,
			AllowIDs:     allowIDs,
			Audit:        shared.Audit{CreatedByID: actorID, UpdatedByID: actorID},
		})
		if err != nil {
			s.logger.Error("cascade grant write failed", "permission_id", implied.ID, "error", err)
		}
	}
}

// AssignMany grants every listed permission as a wildcard, skipping pairs
// the subject already holds. Validation is all-or-nothing: one unknown
// permission id fails the whole batch before anything is written.
func (s *Service) AssignMany(ctx context.Context, kind SubjectKind, subjectID int64, permissionIDs []int64, actorID int64) ([]Grant, error) {
	if err := s.validateSubject(ctx, kind, subjectID); err != nil {
		return nil, err
	}
	if err := s.staff.ValidateID(ctx, actorID); err != nil {
		return nil, err
	}
	if _, err := s.catalog.GetByIDs(ctx, permissionIDs); err != nil {
		return nil, err
	}

	assigned, err := s.repo.AssignedPermissionIDs(ctx, kind, subjectID, permissionIDs)
	if err != nil {
		return nil, err
	}
	have := make(map[int64]bool, len(assigned))
	for _, id := range assigned {
		have[id] = true
	}
	var missing []int64
	for _, id := range permissionIDs {
		if !have[id] {
			have[id] = true
			missing = append(missing, id)
		}
	}
	if len(missing) > 0 {
		if err := s.repo.InsertMany(ctx, kind, subjectID, missing, actorID); err != nil {
			return nil, err
		}
	}
	return s.repo.ListBySubject(ctx, kind, subjectID)
}

// Revoke soft-deletes a grant. The kind guard keeps the staff-facing route
// from revoking group grants and vice versa.
func (s *Service) Revoke(ctx context.Context, kind SubjectKind, id, actorID int64) (Grant, error) {
	grant, err := s.repo.Get(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Grant{}, shared.NotFound(kind.Entity())
		}
		return Grant{}, err
	}
	if grant.SubjectKind != kind {
		return Grant{}, shared.NotFound(kind.Entity())
	}
	deleted, err := s.repo.SoftDelete(ctx, id, actorID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Grant{}, shared.NotFound(kind.Entity())
		}
		return Grant{}, err
	}
	return deleted, nil
}

// ListBySubject returns every active grant held directly by the subject.
func (s *Service) ListBySubject(ctx context.Context, kind SubjectKind, subjectID int64) ([]Grant, error) {
	if err := s.validateSubject(ctx, kind, subjectID); err != nil {
		return nil, err
	}
	return s.repo.ListBySubject(ctx, kind, subjectID)
}

// List returns one kind's grants matching the sort/range/filter triple.
func (s *Service) List(ctx context.Context, kind SubjectKind, sortRaw, rangeRaw, filterRaw string, callerID int64) ([]Grant, int, error) {
	q, err := shared.ParseListQuery(sortRaw, rangeRaw, filterRaw, listFields)
	if err != nil {
		return nil, 0, err
	}
	return s.repo.List(ctx, kind, q, callerID)
}
