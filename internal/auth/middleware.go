package auth

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/brandforge/backoffice/internal/shared"
)

type claimsKey struct{}

// ClaimsFromContext returns the verified token claims, if any.
func ClaimsFromContext(ctx context.Context) (Claims, bool) {
	claims, ok := ctx.Value(claimsKey{}).(Claims)
	return claims, ok
}

// Verifier authenticates requests from bearer tokens.
type Verifier struct {
	logger   *slog.Logger
	issuer   *TokenIssuer
	denylist *Denylist
}

// NewVerifier constructs token middleware.
func NewVerifier(logger *slog.Logger, issuer *TokenIssuer, denylist *Denylist) *Verifier {
	return &Verifier{logger: logger, issuer: issuer, denylist: denylist}
}

// Middleware verifies the Authorization header, rejects revoked tokens, and
// stashes the caller identity for downstream guards and handlers.
func (v *Verifier) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw, ok := bearerToken(r)
		if !ok {
			shared.WriteError(w, v.logger, shared.Unauthenticated("authentication required"))
			return
		}
		claims, err := v.issuer.Parse(raw)
		if err != nil {
			shared.WriteError(w, v.logger, shared.Unauthenticated("invalid or expired token"))
			return
		}
		revoked, err := v.denylist.IsRevoked(r.Context(), claims.ID)
		if err != nil {
			shared.WriteError(w, v.logger, shared.Internal(err))
			return
		}
		if revoked {
			shared.WriteError(w, v.logger, shared.Unauthenticated("invalid or expired token"))
			return
		}
		ctx := context.WithValue(r.Context(), claimsKey{}, claims)
		ctx = shared.ContextWithCaller(ctx, shared.Caller{StaffID: claims.StaffID, IsRoot: claims.IsRoot})
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func bearerToken(r *http.Request) (string, bool) {
	header := r.Header.Get("Authorization")
	token, found := strings.CutPrefix(header, "Bearer ")
	if !found || token == "" {
		return "", false
	}
	return token, true
}
