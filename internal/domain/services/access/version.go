package access

import (
	"context"

	"dealdesk/internal/domain/models/access"
)

// VersionService manages the append-only content-version ledger
type VersionService interface {
	// CreateVersion appends a new version to the resource's ledger and makes
	// it active. Numbering continues from the highest number ever issued,
	// serialized per resource, so concurrent uploads never collide.
	CreateVersion(ctx context.Context, req *CreateVersionRequest) (*access.ContentVersion, error)

	// Rollback reactivates a historical version: everything numbered above
	// the target becomes superseded, the target becomes active, and the
	// resource's current-version pointer moves. Nothing is renumbered or
	// deleted.
	Rollback(ctx context.Context, req *RollbackRequest) error

	// ListVersions returns the resource's full ledger, newest first
	ListVersions(ctx context.Context, userID, resourceID string) ([]access.ContentVersion, error)
}

// CreateVersionRequest appends one version
type CreateVersionRequest struct {
	ResourceID string `json:"resource_id"`
	FileName   string `json:"file_name"`
	CreatedBy  string `json:"-"` // Set by handler from auth context
}

// RollbackRequest reactivates a historical version
type RollbackRequest struct {
	ResourceID    string `json:"resource_id"`
	TargetVersion int    `json:"target_version"`
	Actor         string `json:"-"` // Set by handler from auth context
}
