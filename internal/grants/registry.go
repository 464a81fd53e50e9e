package grants

import (
	"context"
	"log/slog"
)

// AllowIDValidator confirms every id in a scoped allow-list refers to an
// existing record of one resource.
type AllowIDValidator interface {
	ValidateIDs(ctx context.Context, ids []int64) error
}

// ValidatorRegistry dispatches allow-list validation by permission resource
// name. Resources without a registered validator pass unchecked: the
// permission catalog grows ahead of the entities backing it, and an unknown
// resource must not block assignment.
type ValidatorRegistry struct {
	logger     *slog.Logger
	validators map[string]AllowIDValidator
}

// NewValidatorRegistry constructs an empty registry.
func NewValidatorRegistry(logger *slog.Logger) *ValidatorRegistry {
	return &ValidatorRegistry{
		logger:     logger,
		validators: make(map[string]AllowIDValidator),
	}
}

// Register binds a validator to a resource name, replacing any previous one.
func (r *ValidatorRegistry) Register(resource string, v AllowIDValidator) {
	r.validators[resource] = v
}

// Validate checks the allow-list against the validator registered for the
// resource. Unknown resources are logged and accepted.
func (r *ValidatorRegistry) Validate(ctx context.Context, resource string, ids []int64) error {
	v, ok := r.validators[resource]
	if !ok {
		r.logger.Warn("no allow-list validator registered, accepting ids unchecked",
			"resource", resource, "ids", len(ids))
		return nil
	}
	return v.ValidateIDs(ctx, ids)
}
