package membership

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"

	"github.com/brandforge/backoffice/internal/shared"
)

// SubjectValidator confirms a referenced record exists and is not deleted.
type SubjectValidator interface {
	ValidateID(ctx context.Context, id int64) error
}

// Service implements the group membership registry.
type Service struct {
	repo   Repository
	staff  SubjectValidator
	groups SubjectValidator
}

// NewService constructs a membership service.
func NewService(repo Repository, staff, groups SubjectValidator) *Service {
	return &Service{repo: repo, staff: staff, groups: groups}
}

// Assign upserts the (staff, group) edge, validating staff, group, and the
// acting staff before writing.
func (s *Service) Assign(ctx context.Context, staffID, groupID, actorID int64) (Edge, error) {
	if err := s.staff.ValidateID(ctx, staffID); err != nil {
		return Edge{}, err
	}
	if err := s.staff.ValidateID(ctx, actorID); err != nil {
		return Edge{}, err
	}
	if err := s.groups.ValidateID(ctx, groupID); err != nil {
		return Edge{}, err
	}
	return s.repo.Upsert(ctx, staffID, groupID, actorID)
}

// Revoke hard-deletes a membership edge.
func (s *Service) Revoke(ctx context.Context, id int64) (Edge, error) {
	edge, err := s.repo.Delete(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Edge{}, shared.NotFound("staff group")
		}
		return Edge{}, err
	}
	return edge, nil
}

// ListByStaff returns every group edge for one staff member.
func (s *Service) ListByStaff(ctx context.Context, staffID int64) ([]Edge, error) {
	if err := s.staff.ValidateID(ctx, staffID); err != nil {
		return nil, err
	}
	return s.repo.ListByStaff(ctx, staffID)
}

// ListByGroup returns every staff edge for one group.
func (s *Service) ListByGroup(ctx context.Context, groupID int64) ([]Edge, error) {
	if err := s.groups.ValidateID(ctx, groupID); err != nil {
		return nil, err
	}
	return s.repo.ListByGroup(ctx, groupID)
}

// List returns edges matching the sort/range/filter triple.
func (s *Service) List(ctx context.Context, sortRaw, rangeRaw, filterRaw string, callerID int64) ([]Edge, int, error) {
	q, err := shared.ParseListQuery(sortRaw, rangeRaw, filterRaw, listFields)
	if err != nil {
		return nil, 0, err
	}
	return s.repo.List(ctx, q, callerID)
}
