package access

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"dealdesk/internal/domain"
	models "dealdesk/internal/domain/models/access"
	accessSvc "dealdesk/internal/domain/services/access"
)

// storageAuthz implements the StorageAuthz interface: the binary-object
// enforcement surface. It resolves paths and consults the Evaluator; a path
// that does not resolve is a denial, never an internal error.
type storageAuthz struct {
	pathResolver accessSvc.PathResolver
	evaluator    accessSvc.Evaluator
	logger       *slog.Logger
}

// NewStorageAuthz creates a new storage authorization service
func NewStorageAuthz(
	pathResolver accessSvc.PathResolver,
	evaluator accessSvc.Evaluator,
	logger *slog.Logger,
) accessSvc.StorageAuthz {
	return &storageAuthz{
		pathResolver: pathResolver,
		evaluator:    evaluator,
		logger:       logger,
	}
}

// AuthorizeRead checks view access on the existing object at path
func (s *storageAuthz) AuthorizeRead(ctx context.Context, userID, path string) (*models.Resource, error) {
	resource, err := s.pathResolver.Resolve(ctx, path)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			// Unresolvable reads are denied without revealing structure
			return nil, s.deny(userID, path, "read")
		}
		return nil, err
	}

	ok, err := s.evaluator.CanView(ctx, userID, resource.ID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, s.deny(userID, path, "read")
	}

	return resource, nil
}

// AuthorizeMutate checks edit access for overwriting or deleting the
// existing object at path
func (s *storageAuthz) AuthorizeMutate(ctx context.Context, userID, path string) (*models.Resource, error) {
	resource, err := s.pathResolver.Resolve(ctx, path)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, s.deny(userID, path, "mutate")
		}
		return nil, err
	}

	ok, err := s.evaluator.CanEdit(ctx, userID, resource.ID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, s.deny(userID, path, "mutate")
	}

	return resource, nil
}

// AuthorizeUpload checks edit access for an object that may not exist yet.
// Version uploads target the existing file, falling back to the parent
// folder's edit rights; fresh uploads target the destination folder.
func (s *storageAuthz) AuthorizeUpload(ctx context.Context, userID, path string) (*accessSvc.UploadTarget, error) {
	target, err := s.pathResolver.ResolveUploadTarget(ctx, path)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, s.deny(userID, path, "upload")
		}
		return nil, err
	}

	ok, err := s.evaluator.CanEdit(ctx, userID, target.Resource.ID)
	if err != nil {
		return nil, err
	}

	if !ok && target.ExistingFile && target.Resource.ParentID != nil {
		// Fallback: edit on the containing folder covers a new version of
		// a file the uploader cannot edit directly
		ok, err = s.evaluator.CanEdit(ctx, userID, *target.Resource.ParentID)
		if err != nil {
			return nil, err
		}
	}

	if !ok {
		return nil, s.deny(userID, path, "upload")
	}

	return target, nil
}

func (s *storageAuthz) deny(userID, path, op string) error {
	s.logger.Debug("storage access denied",
		"user_id", userID,
		"path", path,
		"operation", op,
	)
	return &domain.ForbiddenError{
		Message: fmt.Sprintf("no %s access to %q", op, path),
	}
}
