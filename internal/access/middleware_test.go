package access

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/brandforge/backoffice/internal/shared"
)

type stubChecker struct {
	allowed bool
	calls   int
}

func (c *stubChecker) CanAccess(ctx context.Context, staffID int64, resource, action string) (bool, error) {
	c.calls++
	return c.allowed, nil
}

func guardRequest(t *testing.T, checker *stubChecker, caller *shared.Caller) *httptest.ResponseRecorder {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	guard := NewGuard(logger, checker)

	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	handler := guard.Require("staff", "read")(next)

	req := httptest.NewRequest(http.MethodGet, "/staff", nil)
	if caller != nil {
		req = req.WithContext(shared.ContextWithCaller(req.Context(), *caller))
	}
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func TestGuardAllows(t *testing.T) {
	checker := &stubChecker{allowed: true}
	rec := guardRequest(t, checker, &shared.Caller{StaffID: 7})
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 1, checker.calls)
}

func TestGuardDenies(t *testing.T) {
	checker := &stubChecker{allowed: false}
	rec := guardRequest(t, checker, &shared.Caller{StaffID: 7})
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestGuardRootBypassesResolution(t *testing.T) {
	checker := &stubChecker{allowed: false}
	rec := guardRequest(t, checker, &shared.Caller{StaffID: 1, IsRoot: true})
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Zero(t, checker.calls, "root must not trigger grant resolution")
}

func TestGuardRequiresCaller(t *testing.T) {
	checker := &stubChecker{allowed: true}
	rec := guardRequest(t, checker, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Zero(t, checker.calls)
}
