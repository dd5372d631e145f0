package access

import (
	"context"

	"dealdesk/internal/domain/models/access"
)

// ResourceService manages the resource tree: node creation, project root
// setup, listings gated by entry tickets, and recursive deletion
type ResourceService interface {
	// CreateResource creates a folder or file node under an existing parent.
	// The actor must hold edit on the parent. Non-root types require a parent.
	CreateResource(ctx context.Context, req *CreateResourceRequest) (*access.Resource, error)

	// EnsureProjectRoots creates the four well-known root resources for a
	// project (idempotent) and grants entry tickets to every org owner
	EnsureProjectRoots(ctx context.Context, req *EnsureProjectRootsRequest) ([]access.Resource, error)

	// GetResource retrieves a resource the user can view
	GetResource(ctx context.Context, userID, resourceID string) (*access.Resource, error)

	// ListProjectResources lists the project's resources the user can view.
	// Users without an entry ticket see nothing, whatever their ACLs say.
	ListProjectResources(ctx context.Context, userID, projectID string) ([]access.Resource, error)

	// DeleteSubtree recursively removes a resource and its descendants,
	// bottom-up, in one transaction. Protected root types are rejected.
	DeleteSubtree(ctx context.Context, userID, resourceID string) error

	// DeleteProjectTree removes every resource of a project including the
	// protected roots. This is the owning-entity cascade; only org owners
	// may invoke it.
	DeleteProjectTree(ctx context.Context, userID, projectID string) error
}

// CreateResourceRequest creates one tree node
type CreateResourceRequest struct {
	OrgID        string              `json:"org_id"`
	ProjectID    *string             `json:"project_id,omitempty"`
	ParentID     string              `json:"parent_id"`
	ResourceType access.ResourceType `json:"resource_type"`
	Name         string              `json:"name"`
	CreatedBy    string              `json:"-"` // Set by handler from auth context
}

// EnsureProjectRootsRequest sets up a project's root resources
type EnsureProjectRootsRequest struct {
	OrgID       string `json:"org_id"`
	ProjectID   string `json:"project_id"`
	ProjectName string `json:"project_name"`
	CreatedBy   string `json:"-"` // Set by handler from auth context
}
