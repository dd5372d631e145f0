package access

import (
	"context"

	"dealdesk/internal/domain/models/access"
)

// PathResolver maps slash-separated storage object paths onto resource IDs.
// Paths look like:
//
//	<project-id>/project-docs/<folder>*/<file>
//	<project-id>/borrower-docs/<existing-file-id>/<filename>   (version upload)
//	<project-id>/borrower-resume
//
// Failure to resolve a segment is reported as domain.ErrNotFound, never as
// an internal error; the enforcement surface decides what deny means.
type PathResolver interface {
	// Resolve maps a full object path to the resource it addresses
	Resolve(ctx context.Context, path string) (*access.Resource, error)

	// ResolveUploadTarget maps an upload path to the resource the permission
	// check must run against: the existing file for a new-version upload,
	// otherwise the nearest resolvable destination folder or root.
	ResolveUploadTarget(ctx context.Context, path string) (*UploadTarget, error)
}

// UploadTarget is the outcome of resolving an upload destination
type UploadTarget struct {
	// Resource is the node the edit check targets
	Resource *access.Resource
	// ExistingFile is set when the path addresses a new version of an
	// already-known file rather than a brand-new object
	ExistingFile bool
	// FileName is the final path segment (the object being written)
	FileName string
}

// StorageAuthz is the binary-object enforcement surface. It resolves a path
// and consults the Evaluator; it never touches object bytes itself.
type StorageAuthz interface {
	// AuthorizeRead checks view access on the object at path.
	// Unresolvable paths are denied.
	AuthorizeRead(ctx context.Context, userID, path string) (*access.Resource, error)

	// AuthorizeMutate checks edit access for overwriting or deleting the
	// existing object at path
	AuthorizeMutate(ctx context.Context, userID, path string) (*access.Resource, error)

	// AuthorizeUpload checks edit access for a new upload: against the
	// existing file's resource for version uploads (falling back to the
	// parent folder), otherwise against the destination folder
	AuthorizeUpload(ctx context.Context, userID, path string) (*UploadTarget, error)
}
