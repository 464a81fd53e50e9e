package lookup

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"

	"github.com/brandforge/backoffice/internal/platform/db"
	"github.com/brandforge/backoffice/internal/shared"
)

// Service implements the shared lookup CRUD contract for one entity.
type Service struct {
	def  Def
	repo Repository
}

// NewService constructs a lookup service for the given definition.
func NewService(def Def, repo Repository) *Service {
	return &Service{def: def, repo: repo}
}

// Def returns the entity definition this service is bound to.
func (s *Service) Def() Def {
	return s.def
}

// Get fetches one record, failing NotFound if missing or tombstoned.
func (s *Service) Get(ctx context.Context, id int64) (Item, error) {
	it, err := s.repo.Get(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Item{}, shared.NotFound(s.def.Entity)
		}
		return Item{}, err
	}
	return it, nil
}

// ValidateIDs confirms every id refers to an existing, non-deleted record.
// Atomic: one missing id fails the whole set.
func (s *Service) ValidateIDs(ctx context.Context, ids []int64) error {
	if len(ids) == 0 {
		return nil
	}
	unique := dedupe(ids)
	n, err := s.repo.CountByIDs(ctx, unique)
	if err != nil {
		return err
	}
	if n != len(unique) {
		return shared.NotFoundSome(s.def.EntityPlural)
	}
	return nil
}

// ValidateID confirms a single id exists.
func (s *Service) ValidateID(ctx context.Context, id int64) error {
	_, err := s.Get(ctx, id)
	return err
}

// List returns records matching the sort/range/filter triple, applying
// ownership scoping for restricted listings.
func (s *Service) List(ctx context.Context, sortRaw, rangeRaw, filterRaw string, callerID int64) ([]Item, int, error) {
	q, err := shared.ParseListQuery(sortRaw, rangeRaw, filterRaw, listFields)
	if err != nil {
		return nil, 0, err
	}
	return s.repo.List(ctx, q, callerID)
}

// Create inserts a record stamped with the acting staff id.
func (s *Service) Create(ctx context.Context, name, description string, actorID int64) (Item, error) {
	item := Item{Name: name, Description: description}
	item.CreatedByID = actorID
	created, err := s.repo.Create(ctx, item)
	if err != nil {
		if db.IsUniqueViolation(err, "") {
			return Item{}, shared.InvalidField("name", "name must be unique")
		}
		return Item{}, err
	}
	return created, nil
}

// Update overwrites name and description on an existing record.
func (s *Service) Update(ctx context.Context, id int64, name, description string, actorID int64) (Item, error) {
	if _, err := s.Get(ctx, id); err != nil {
		return Item{}, err
	}
	item := Item{ID: id, Name: name, Description: description}
	item.UpdatedByID = actorID
	updated, err := s.repo.Update(ctx, item)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Item{}, shared.NotFound(s.def.Entity)
		}
		if db.IsUniqueViolation(err, "") {
			return Item{}, shared.InvalidField("name", "name must be unique")
		}
		return Item{}, err
	}
	return updated, nil
}

// Delete tombstones a record, stamping the acting staff id.
func (s *Service) Delete(ctx context.Context, id, actorID int64) (Item, error) {
	deleted, err := s.repo.SoftDelete(ctx, id, actorID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Item{}, shared.NotFound(s.def.Entity)
		}
		return Item{}, err
	}
	return deleted, nil
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
