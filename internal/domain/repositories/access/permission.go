package access

import (
	"context"

	"dealdesk/internal/domain/models/access"
)

// PermissionRepository defines data access operations for the sparse ACL
// override table
type PermissionRepository interface {
	// Upsert writes the single ACL row for (resource, user), replacing any
	// existing level. Revocation is an upsert of LevelNone, not a delete.
	Upsert(ctx context.Context, perm *access.Permission) error

	// Get retrieves the ACL row for (resource, user), if any
	Get(ctx context.Context, resourceID, userID string) (*access.Permission, error)

	// GetForChain returns the user's ACL entries found on the given ancestor
	// chain, annotated with their depth (0 = the resource itself)
	GetForChain(ctx context.Context, chain []access.Resource, userID string) ([]access.ChainEntry, error)

	// DeleteByResource removes all ACL rows for a resource. Used only when
	// the resource itself is being removed.
	DeleteByResource(ctx context.Context, resourceID string) error
}

// MembershipRepository resolves coarse per-organization roles
type MembershipRepository interface {
	// GetRole returns the user's role in an organization.
	// Returns domain.ErrNotFound if the user is not a member.
	GetRole(ctx context.Context, orgID, userID string) (access.Role, error)

	// ListOwners returns the user IDs holding the owner role in an organization
	ListOwners(ctx context.Context, orgID string) ([]string, error)
}

// GrantRepository manages project entry tickets
type GrantRepository interface {
	// Upsert records that a user has been invited into a project. Re-granting
	// is idempotent (upsert on project_id, user_id).
	Upsert(ctx context.Context, grant *access.ProjectAccessGrant) error

	// Has reports whether a user holds an entry ticket for a project
	Has(ctx context.Context, projectID, userID string) (bool, error)

	// ListByProject lists all entry tickets for a project
	ListByProject(ctx context.Context, projectID string) ([]access.ProjectAccessGrant, error)
}
