package access

import (
	"context"

	"dealdesk/internal/domain/models/access"
)

// VersionRepository defines data access operations for the append-only
// content-version ledger
type VersionRepository interface {
	// Create inserts a new version row
	Create(ctx context.Context, v *access.ContentVersion) error

	// GetByID retrieves a version by ID
	GetByID(ctx context.Context, id string) (*access.ContentVersion, error)

	// GetByNumber retrieves a version of a resource by its version number
	GetByNumber(ctx context.Context, resourceID string, number int) (*access.ContentVersion, error)

	// MaxNumber returns the highest version number ever issued for a resource
	// (0 if none exist). Must be called with the owning resource row locked.
	MaxNumber(ctx context.Context, resourceID string) (int, error)

	// LockResource takes a row-level lock on the owning resource for the
	// duration of the surrounding transaction, serializing version-number
	// assignment per resource.
	LockResource(ctx context.Context, resourceID string) error

	// SupersedeAbove marks every version of the resource with a number
	// greater than the target as superseded
	SupersedeAbove(ctx context.Context, resourceID string, number int) error

	// SetStatus updates the status of one version row
	SetStatus(ctx context.Context, versionID string, status access.VersionStatus) error

	// ListByResource lists all versions of a resource, newest first
	ListByResource(ctx context.Context, resourceID string) ([]access.ContentVersion, error)

	// DeleteByResource removes the whole ledger of a resource. Used only
	// when the owning resource is being removed; individual superseded
	// versions are never deletable.
	DeleteByResource(ctx context.Context, resourceID string) error
}
