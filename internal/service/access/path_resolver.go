package access

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"dealdesk/internal/config"
	"dealdesk/internal/domain"
	models "dealdesk/internal/domain/models/access"
	accessRepo "dealdesk/internal/domain/repositories/access"
	accessSvc "dealdesk/internal/domain/services/access"
)

// Context tokens addressing the well-known roots in storage paths
const (
	projectDocsToken    = ProjectDocsSubdir
	borrowerDocsToken   = BorrowerDocsSubdir
	projectResumeToken  = "project-resume"
	borrowerResumeToken = "borrower-resume"
)

// pathResolver implements the PathResolver interface
type pathResolver struct {
	resourceRepo accessRepo.ResourceRepository
	logger       *slog.Logger
}

// NewPathResolver creates a new storage path resolver
func NewPathResolver(resourceRepo accessRepo.ResourceRepository, logger *slog.Logger) accessSvc.PathResolver {
	return &pathResolver{
		resourceRepo: resourceRepo,
		logger:       logger,
	}
}

// splitPath normalizes and tokenizes an object path. Over-long paths
// tokenize to nothing and fail resolution like any other malformed path.
func splitPath(path string) []string {
	if len(path) > config.MaxStoragePathLength {
		return nil
	}
	trimmed := strings.Trim(path, "/")
	if trimmed == "" {
		return nil
	}
	return strings.Split(trimmed, "/")
}

// contextRoot resolves the first two tokens to a well-known root resource
func (p *pathResolver) contextRoot(ctx context.Context, tokens []string) (*models.Resource, []string, error) {
	if len(tokens) < 2 {
		return nil, nil, &domain.NotFoundError{
			Message: fmt.Sprintf("path %q has no context root", strings.Join(tokens, "/")),
		}
	}

	projectID := tokens[0]
	var rootType models.ResourceType
	switch tokens[1] {
	case projectDocsToken:
		rootType = models.ResourceProjectDocsRoot
	case borrowerDocsToken:
		rootType = models.ResourceBorrowerDocsRoot
	case projectResumeToken:
		rootType = models.ResourceProjectResume
	case borrowerResumeToken:
		rootType = models.ResourceBorrowerResume
	default:
		return nil, nil, &domain.NotFoundError{
			Message: fmt.Sprintf("unknown context %q in path", tokens[1]),
		}
	}

	root, err := p.resourceRepo.GetProjectRoot(ctx, projectID, rootType)
	if err != nil {
		return nil, nil, err
	}

	return root, tokens[2:], nil
}

// directFileReference checks whether token names an existing file directly
// under the root. Supports "new version of file X" upload paths without
// walking folder names.
func (p *pathResolver) directFileReference(ctx context.Context, root *models.Resource, token string) *models.Resource {
	res, err := p.resourceRepo.GetByID(ctx, token)
	if err != nil {
		return nil
	}
	if res.ResourceType != models.ResourceFile {
		return nil
	}
	if res.ParentID == nil || *res.ParentID != root.ID {
		return nil
	}
	return res
}

// Resolve maps a full object path to the resource it addresses.
// Any unresolvable segment yields domain.ErrNotFound.
func (p *pathResolver) Resolve(ctx context.Context, path string) (*models.Resource, error) {
	tokens := splitPath(path)
	root, rest, err := p.contextRoot(ctx, tokens)
	if err != nil {
		return nil, err
	}

	// Resume roots are themselves the addressed object
	if len(rest) == 0 {
		return root, nil
	}

	// Direct file-id reference under the root
	if file := p.directFileReference(ctx, root, rest[0]); file != nil {
		return file, nil
	}

	// Walk remaining tokens as child names; the last one names the object
	node := root
	for _, token := range rest {
		child, err := p.resourceRepo.GetChildByName(ctx, node.ID, token)
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				return nil, &domain.NotFoundError{
					Message: fmt.Sprintf("path %q does not resolve at %q", path, token),
				}
			}
			return nil, err
		}
		node = child
	}

	return node, nil
}

// ResolveUploadTarget maps an upload path to the node the edit check must
// target. The object itself may not exist yet, so the walk stops at the
// deepest resolvable ancestor.
func (p *pathResolver) ResolveUploadTarget(ctx context.Context, path string) (*accessSvc.UploadTarget, error) {
	tokens := splitPath(path)
	root, rest, err := p.contextRoot(ctx, tokens)
	if err != nil {
		return nil, err
	}

	if len(rest) == 0 {
		return nil, &domain.NotFoundError{
			Message: fmt.Sprintf("path %q names no object to upload", path),
		}
	}

	fileName := rest[len(rest)-1]

	// Version upload shape: <context>/<existing-file-id>/<filename>
	if file := p.directFileReference(ctx, root, rest[0]); file != nil {
		return &accessSvc.UploadTarget{
			Resource:     file,
			ExistingFile: true,
			FileName:     fileName,
		}, nil
	}

	// Walk the folder segments as far as they resolve; the nearest
	// resolvable ancestor carries the permission check
	node := root
	for _, token := range rest[:len(rest)-1] {
		child, err := p.resourceRepo.GetChildByName(ctx, node.ID, token)
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				break
			}
			return nil, err
		}
		node = child
	}

	// The final segment may name an existing file (overwrite-as-new-version)
	if existing, err := p.resourceRepo.GetChildByName(ctx, node.ID, fileName); err == nil &&
		existing.ResourceType == models.ResourceFile {
		return &accessSvc.UploadTarget{
			Resource:     existing,
			ExistingFile: true,
			FileName:     fileName,
		}, nil
	}

	return &accessSvc.UploadTarget{
		Resource:     node,
		ExistingFile: false,
		FileName:     fileName,
	}, nil
}
