package auth

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/brandforge/backoffice/internal/shared"
	"github.com/brandforge/backoffice/internal/staff"
)

type stubDirectory struct {
	byEmail map[string]staff.Staff
	byID    map[int64]staff.Staff
}

func (d *stubDirectory) Get(ctx context.Context, id int64) (staff.Staff, error) {
	s, ok := d.byID[id]
	if !ok {
		return staff.Staff{}, shared.NotFound("staff")
	}
	return s, nil
}

func (d *stubDirectory) GetByEmail(ctx context.Context, email string) (staff.Staff, error) {
	s, ok := d.byEmail[email]
	if !ok {
		return staff.Staff{}, shared.NotFound("staff")
	}
	return s, nil
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestAuth(t *testing.T) (*Service, *TokenIssuer, *Denylist) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	hash, err := bcrypt.GenerateFromPassword([]byte("correct horse"), bcrypt.MinCost)
	require.NoError(t, err)

	account := staff.Staff{ID: 7, Email: "ana@example.com", PasswordHash: string(hash), IsRoot: false}
	directory := &stubDirectory{
		byEmail: map[string]staff.Staff{account.Email: account},
		byID:    map[int64]staff.Staff{account.ID: account},
	}

	issuer := NewTokenIssuer("test-secret", time.Hour)
	denylist := NewDenylist(client)
	return NewService(directory, issuer, denylist), issuer, denylist
}

func TestTokenRoundTrip(t *testing.T) {
	issuer := NewTokenIssuer("test-secret", time.Hour)
	raw, err := issuer.Issue(7, true)
	require.NoError(t, err)

	claims, err := issuer.Parse(raw)
	require.NoError(t, err)
	assert.Equal(t, int64(7), claims.StaffID)
	assert.True(t, claims.IsRoot)
	assert.NotEmpty(t, claims.ID)
}

func TestTokenWrongSecret(t *testing.T) {
	raw, err := NewTokenIssuer("secret-a", time.Hour).Issue(7, false)
	require.NoError(t, err)

	_, err = NewTokenIssuer("secret-b", time.Hour).Parse(raw)
	assert.Error(t, err)
}

func TestLogin(t *testing.T) {
	svc, issuer, _ := newTestAuth(t)

	session, err := svc.Login(context.Background(), "ana@example.com", "correct horse")
	require.NoError(t, err)
	assert.Equal(t, int64(7), session.Staff.ID)

	claims, err := issuer.Parse(session.Token)
	require.NoError(t, err)
	assert.Equal(t, int64(7), claims.StaffID)
}

func TestLoginWrongPassword(t *testing.T) {
	svc, _, _ := newTestAuth(t)

	_, err := svc.Login(context.Background(), "ana@example.com", "wrong")
	require.Error(t, err)
	assert.Equal(t, shared.KindUnauthenticated, shared.KindOf(err))
	assert.Contains(t, err.Error(), "invalid credentials")
}

func TestLoginUnknownEmail(t *testing.T) {
	svc, _, _ := newTestAuth(t)

	_, err := svc.Login(context.Background(), "nobody@example.com", "correct horse")
	require.Error(t, err)
	assert.Equal(t, shared.KindUnauthenticated, shared.KindOf(err))
	assert.Contains(t, err.Error(), "invalid credentials", "unknown email must look like a bad password")
}

func TestLogoutRevokesToken(t *testing.T) {
	svc, issuer, denylist := newTestAuth(t)

	session, err := svc.Login(context.Background(), "ana@example.com", "correct horse")
	require.NoError(t, err)
	claims, err := issuer.Parse(session.Token)
	require.NoError(t, err)

	require.NoError(t, svc.Logout(context.Background(), claims))

	revoked, err := denylist.IsRevoked(context.Background(), claims.ID)
	require.NoError(t, err)
	assert.True(t, revoked)
}

func TestVerifierMiddleware(t *testing.T) {
	svc, issuer, denylist := newTestAuth(t)
	verifier := NewVerifier(testLogger(), issuer, denylist)

	var gotCaller shared.Caller
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotCaller, _ = shared.CallerFromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	})
	handler := verifier.Middleware(next)

	session, err := svc.Login(context.Background(), "ana@example.com", "correct horse")
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/auth/me", nil)
	req.Header.Set("Authorization", "Bearer "+session.Token)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, int64(7), gotCaller.StaffID)
}

func TestVerifierRejectsMissingHeader(t *testing.T) {
	_, issuer, denylist := newTestAuth(t)
	verifier := NewVerifier(testLogger(), issuer, denylist)
	handler := verifier.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("must not reach handler")
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/auth/me", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestVerifierRejectsRevokedToken(t *testing.T) {
	svc, issuer, denylist := newTestAuth(t)
	verifier := NewVerifier(testLogger(), issuer, denylist)
	handler := verifier.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("must not reach handler")
	}))

	session, err := svc.Login(context.Background(), "ana@example.com", "correct horse")
	require.NoError(t, err)
	claims, err := issuer.Parse(session.Token)
	require.NoError(t, err)
	require.NoError(t, svc.Logout(context.Background(), claims))

	req := httptest.NewRequest(http.MethodGet, "/auth/me", nil)
	req.Header.Set("Authorization", "Bearer "+session.Token)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestLoginHandler(t *testing.T) {
	svc, _, _ := newTestAuth(t)
	handler := NewHandler(testLogger(), svc)

	body, _ := json.Marshal(map[string]string{
		"email":    "ana@example.com",
		"password": "correct horse",
	})
	req := httptest.NewRequest(http.MethodPost, "/auth/login", bytes.NewReader(body))
	rec := httptest.NewRecorder()
	handler.Login(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var got Session
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.NotEmpty(t, got.Token)
	assert.Equal(t, int64(7), got.Staff.ID)
}

func TestLoginHandlerValidation(t *testing.T) {
	svc, _, _ := newTestAuth(t)
	handler := NewHandler(testLogger(), svc)

	body, _ := json.Marshal(map[string]string{"email": "not-an-email", "password": ""})
	req := httptest.NewRequest(http.MethodPost, "/auth/login", bytes.NewReader(body))
	rec := httptest.NewRecorder()
	handler.Login(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "errors")
}
