package auth

import (
	"context"

	"golang.org/x/crypto/bcrypt"

	"github.com/brandforge/backoffice/internal/shared"
	"github.com/brandforge/backoffice/internal/staff"
)

// StaffDirectory is the slice of the staff service authentication needs.
type StaffDirectory interface {
	Get(ctx context.Context, id int64) (staff.Staff, error)
	GetByEmail(ctx context.Context, email string) (staff.Staff, error)
}

// Session is what a successful login returns.
type Session struct {
	Token string      `json:"token"`
	Staff staff.Staff `json:"staff"`
}

// Service implements credential login and token revocation.
type Service struct {
	directory StaffDirectory
	issuer    *TokenIssuer
	denylist  *Denylist
}

// NewService constructs an auth service.
func NewService(directory StaffDirectory, issuer *TokenIssuer, denylist *Denylist) *Service {
	return &Service{directory: directory, issuer: issuer, denylist: denylist}
}

// Login verifies the credentials and issues a token. Unknown email and
// wrong password are indistinguishable to the caller.
func (s *Service) Login(ctx context.Context, email, password string) (Session, error) {
	account, err := s.directory.GetByEmail(ctx, email)
	if err != nil {
		return Session{}, shared.Unauthenticated("invalid credentials")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(account.PasswordHash), []byte(password)); err != nil {
		return Session{}, shared.Unauthenticated("invalid credentials")
	}
	token, err := s.issuer.Issue(account.ID, account.IsRoot)
	if err != nil {
		return Session{}, shared.Internal(err)
	}
	return Session{Token: token, Staff: account}, nil
}

// Logout deny-lists the presented token until it would have expired.
func (s *Service) Logout(ctx context.Context, claims Claims) error {
	if claims.ExpiresAt == nil {
		return nil
	}
	if err := s.denylist.Revoke(ctx, claims.ID, claims.ExpiresAt.Time); err != nil {
		return shared.Internal(err)
	}
	return nil
}

// Identity returns the account behind a verified token.
func (s *Service) Identity(ctx context.Context, staffID int64) (staff.Staff, error) {
	return s.directory.Get(ctx, staffID)
}
