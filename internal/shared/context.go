package shared

import "context"

// Caller identifies the authenticated staff member behind a request. It is
// established by the auth middleware after token verification.
type Caller struct {
	StaffID int64
	IsRoot  bool
}

type callerContextKey struct{}

// ContextWithCaller stores the caller identity on the context.
func ContextWithCaller(ctx context.Context, caller Caller) context.Context {
	return context.WithValue(ctx, callerContextKey{}, caller)
}

// CallerFromContext retrieves the caller identity, if present.
func CallerFromContext(ctx context.Context) (Caller, bool) {
	caller, ok := ctx.Value(callerContextKey{}).(Caller)
	return caller, ok
}
