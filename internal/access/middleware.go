package access

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/brandforge/backoffice/internal/shared"
)

// Checker is what the route guard needs from the resolver.
type Checker interface {
	CanAccess(ctx context.Context, staffID int64, resource, action string) (bool, error)
}

// Guard builds per-route permission middleware around one resolver.
type Guard struct {
	logger  *slog.Logger
	checker Checker
}

// NewGuard constructs a route guard.
func NewGuard(logger *slog.Logger, checker Checker) *Guard {
	return &Guard{logger: logger, checker: checker}
}

// Require rejects the request unless the authenticated caller may perform
// the action on the resource. Root accounts bypass grant resolution
// entirely.
func (g *Guard) Require(resource, action string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			caller, ok := shared.CallerFromContext(r.Context())
			if !ok {
				shared.WriteError(w, g.logger, shared.Unauthenticated("authentication required"))
				return
			}
			if caller.IsRoot {
				next.ServeHTTP(w, r)
				return
			}
			allowed, err := g.checker.CanAccess(r.Context(), caller.StaffID, resource, action)
			if err != nil {
				shared.WriteError(w, g.logger, err)
				return
			}
			if !allowed {
				shared.WriteError(w, g.logger, shared.PermissionDenied("permission denied"))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
