package access

import (
	"context"

	"dealdesk/internal/domain/models/access"
)

// Evaluator combines the role resolver, the ACL override store, and the
// resource tree into one effective verdict per (user, resource) pair.
// Evaluations are deterministic, side-effect-free, and memoized per request,
// so callers may invoke them freely.
type Evaluator interface {
	// Effective resolves the effective permission level, in strict
	// precedence order: owner override, most-specific ACL grant on the
	// ancestor chain (an explicit none wins over any outer grant),
	// role-based defaults, parent-edit fallback, deny.
	Effective(ctx context.Context, userID, resourceID string) (access.Level, error)

	// CanView reports whether the effective level is view or edit
	CanView(ctx context.Context, userID, resourceID string) (bool, error)

	// CanEdit reports whether the effective level is edit
	CanEdit(ctx context.Context, userID, resourceID string) (bool, error)
}

// Authorizer is the structured-record enforcement surface. Handlers call it
// before every data access instead of relying on storage-level row filters.
type Authorizer interface {
	// RequireView returns a ForbiddenError unless the user can view the resource
	RequireView(ctx context.Context, userID, resourceID string) error

	// RequireEdit returns a ForbiddenError unless the user can edit the resource
	RequireEdit(ctx context.Context, userID, resourceID string) error
}
