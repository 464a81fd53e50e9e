package staff

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"golang.org/x/crypto/bcrypt"

	"github.com/brandforge/backoffice/internal/platform/db"
	"github.com/brandforge/backoffice/internal/shared"
)

// ReferenceValidator confirms a referenced lookup record exists.
type ReferenceValidator interface {
	ValidateID(ctx context.Context, id int64) error
}

// Service implements staff account management.
type Service struct {
	repo        Repository
	positions   ReferenceValidator
	departments ReferenceValidator
}

// NewService constructs a staff service.
func NewService(repo Repository, positions, departments ReferenceValidator) *Service {
	return &Service{repo: repo, positions: positions, departments: departments}
}

// CreateStaff carries the validated input for Create.
type CreateStaff struct {
	FirstName    string
	LastName     string
	Email        string
	Password     string
	PositionID   int64
	DepartmentID int64
}

// UpdateStaff carries the validated input for Update. An empty Password
// keeps the existing credential.
type UpdateStaff struct {
	FirstName    string
	LastName     string
	Email        string
	Password     string
	PositionID   int64
	DepartmentID int64
}

// Get fetches one staff record, failing NotFound if missing or tombstoned.
func (s *Service) Get(ctx context.Context, id int64) (Staff, error) {
	st, err := s.repo.Get(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Staff{}, shared.NotFound("staff")
		}
		return Staff{}, err
	}
	return st, nil
}

// GetByEmail fetches one staff record by email, including the credential
// hash, for login verification.
func (s *Service) GetByEmail(ctx context.Context, email string) (Staff, error) {
	st, err := s.repo.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Staff{}, shared.NotFound("staff")
		}
		return Staff{}, err
	}
	return st, nil
}

// ValidateID confirms a staff id refers to an existing, non-deleted account.
func (s *Service) ValidateID(ctx context.Context, id int64) error {
	_, err := s.Get(ctx, id)
	return err
}

// ValidateIDs confirms every id exists; one missing id fails the whole set.
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
		return shared.NotFoundSome("staff")
	}
	return nil
}

// List returns staff matching the sort/range/filter triple. The exclude
// filter hides root-flagged accounts; ownership scoping applies per the
// restricted-listing contract.
func (s *Service) List(ctx context.Context, sortRaw, rangeRaw, filterRaw string, callerID int64) ([]Staff, int, error) {
	q, err := shared.ParseListQuery(sortRaw, rangeRaw, filterRaw, listFields)
	if err != nil {
		return nil, 0, err
	}
	return s.repo.List(ctx, q, callerID)
}

// Create registers a new staff account.
func (s *Service) Create(ctx context.Context, in CreateStaff, actorID int64) (Staff, error) {
	if err := s.validateEmailUnique(ctx, in.Email); err != nil {
		return Staff{}, err
	}
	if err := s.positions.ValidateID(ctx, in.PositionID); err != nil {
		return Staff{}, err
	}
	if err := s.departments.ValidateID(ctx, in.DepartmentID); err != nil {
		return Staff{}, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return Staff{}, err
	}

	st := Staff{
		FirstName:    in.FirstName,
		LastName:     in.LastName,
		Email:        in.Email,
		PasswordHash: string(hash),
		PositionID:   in.PositionID,
		DepartmentID: in.DepartmentID,
	}
	st.CreatedByID = actorID

	created, err := s.repo.Create(ctx, st)
	if err != nil {
		if db.IsUniqueViolation(err, "") {
			return Staff{}, shared.InvalidField("email", "email must be unique")
		}
		return Staff{}, err
	}
	return created, nil
}

// Update overwrites a staff account's profile. Email changes re-check
// uniqueness; an empty password keeps the stored hash.
func (s *Service) Update(ctx context.Context, id int64, in UpdateStaff, actorID int64) (Staff, error) {
	existing, err := s.Get(ctx, id)
	if err != nil {
		return Staff{}, err
	}
	if existing.Email != in.Email {
		if err := s.validateEmailUnique(ctx, in.Email); err != nil {
			return Staff{}, err
		}
	}
	if err := s.positions.ValidateID(ctx, in.PositionID); err != nil {
		return Staff{}, err
	}
	if err := s.departments.ValidateID(ctx, in.DepartmentID); err != nil {
		return Staff{}, err
	}

	hash := existing.PasswordHash
	if in.Password != "" {
		hashed, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
		if err != nil {
			return Staff{}, err
		}
		hash = string(hashed)
	}

	st := Staff{
		ID:           id,
		FirstName:    in.FirstName,
		LastName:     in.LastName,
		Email:        in.Email,
		PasswordHash: hash,
		PositionID:   in.PositionID,
		DepartmentID: in.DepartmentID,
	}
	st.UpdatedByID = actorID

	updated, err := s.repo.Update(ctx, st)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Staff{}, shared.NotFound("staff")
		}
		if db.IsUniqueViolation(err, "") {
			return Staff{}, shared.InvalidField("email", "email must be unique")
		}
		return Staff{}, err
	}
	return updated, nil
}

// Delete tombstones a staff account.
func (s *Service) Delete(ctx context.Context, id, actorID int64) (Staff, error) {
	deleted, err := s.repo.SoftDelete(ctx, id, actorID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Staff{}, shared.NotFound("staff")
		}
		return Staff{}, err
	}
	return deleted, nil
}

func (s *Service) validateEmailUnique(ctx context.Context, email string) error {
	_, err := s.repo.GetByEmail(ctx, email)
	if err == nil {
		return shared.InvalidField("email", "email must be unique")
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return nil
	}
	return err
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
