package permissions

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"

	"github.com/brandforge/backoffice/internal/shared"
)

// Service exposes the read-only permission catalog.
type Service struct {
	repo Repository
}

// NewService constructs a catalog service.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// Get fetches one catalog entry, failing NotFound when it does not exist.
func (s *Service) Get(ctx context.Context, id int64) (Permission, error) {
	p, err := s.repo.Get(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Permission{}, shared.NotFound("permission")
		}
		return Permission{}, err
	}
	return p, nil
}

// GetByIDs fetches a set of catalog entries atomically: if any requested id
// is missing the whole call fails NotFound.
func (s *Service) GetByIDs(ctx context.Context, ids []int64) ([]Permission, error) {
	perms, err := s.repo.GetByIDs(ctx, dedupe(ids))
	if err != nil {
		return nil, err
	}
	if len(perms) != len(dedupe(ids)) {
		return nil, shared.NotFoundSome("permissions")
	}
	return perms, nil
}

// FindByResourceAction resolves the catalog entry for a (resource, action)
// pair, failing NotFound when the catalog has no such entry.
func (s *Service) FindByResourceAction(ctx context.Context, resource, action string) (Permission, error) {
	p, err := s.repo.FindByResourceAction(ctx, resource, action)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Permission{}, shared.NotFound("permission")
		}
		return Permission{}, err
	}
	return p, nil
}

// List returns catalog entries matching the sort/range/filter triple.
func (s *Service) List(ctx context.Context, sortRaw, rangeRaw, filterRaw string) ([]Permission, int, error) {
	q, err := shared.ParseListQuery(sortRaw, rangeRaw, filterRaw, listFields)
	if err != nil {
		return nil, 0, err
	}
	return s.repo.List(ctx, q)
}

func dedupe(ids []int64) []int64 {
	seen := make(map[int64]struct{}, len(ids))
	out := make([]int64, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
