package access

import (
	"context"

	"dealdesk/internal/domain/models/access"
)

// ResourceRepository defines data access operations for the resource tree
type ResourceRepository interface {
	// Create inserts a new resource node
	Create(ctx context.Context, res *access.Resource) error

	// GetByID retrieves a resource by ID
	GetByID(ctx context.Context, id string) (*access.Resource, error)

	// GetAncestorChain returns the resource and its ancestors, closest first
	// (index 0 is the resource itself, last entry is the root). The walk is
	// depth-bounded to guard against malformed parent data.
	GetAncestorChain(ctx context.Context, id string) ([]access.Resource, error)

	// GetChildByName finds an immediate child of parentID with the given name
	GetChildByName(ctx context.Context, parentID, name string) (*access.Resource, error)

	// GetProjectRoot finds the root resource of the given type for a project
	GetProjectRoot(ctx context.Context, projectID string, resourceType access.ResourceType) (*access.Resource, error)

	// ListChildren lists immediate children of a resource
	ListChildren(ctx context.Context, parentID string) ([]access.Resource, error)

	// ListByProject lists every resource belonging to a project
	ListByProject(ctx context.Context, projectID string) ([]access.Resource, error)

	// SetCurrentVersion repoints the resource's active-version pointer
	SetCurrentVersion(ctx context.Context, resourceID string, versionID *string) error

	// Delete removes a single resource row. Callers are responsible for
	// deleting descendants first; the row itself must be childless.
	Delete(ctx context.Context, id string) error
}
