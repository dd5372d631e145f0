package access

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"dealdesk/internal/config"
	"dealdesk/internal/domain"
	models "dealdesk/internal/domain/models/access"
	"dealdesk/internal/domain/repositories"
	accessRepo "dealdesk/internal/domain/repositories/access"
	accessSvc "dealdesk/internal/domain/services/access"
)

// Storage subdirectory names, part of the object key layout
const (
	BorrowerDocsSubdir = "borrower-docs"
	ProjectDocsSubdir  = "project-docs"
)

// versionService implements the VersionService interface
type versionService struct {
	resourceRepo accessRepo.ResourceRepository
	versionRepo  accessRepo.VersionRepository
	authorizer   accessSvc.Authorizer
	txManager    repositories.TransactionManager
	logger       *slog.Logger
}

// NewVersionService creates a new content version service
func NewVersionService(
	resourceRepo accessRepo.ResourceRepository,
	versionRepo accessRepo.VersionRepository,
	authorizer accessSvc.Authorizer,
	txManager repositories.TransactionManager,
	logger *slog.Logger,
) accessSvc.VersionService {
	return &versionService{
		resourceRepo: resourceRepo,
		versionRepo:  versionRepo,
		authorizer:   authorizer,
		txManager:    txManager,
		logger:       logger,
	}
}

// CreateVersion appends a new active version. The owning resource row is
// locked before the next number is computed, so two concurrent uploads to
// the same resource serialize instead of both reading the same max.
func (s *versionService) CreateVersion(ctx context.Context, req *accessSvc.CreateVersionRequest) (*models.ContentVersion, error) {
	if err := validation.ValidateStruct(req,
		validation.Field(&req.ResourceID, validation.Required),
		validation.Field(&req.FileName, validation.Required, validation.Length(1, config.MaxFileNameLength)),
	); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrValidation, err)
	}

	chain, err := s.resourceRepo.GetAncestorChain(ctx, req.ResourceID)
	if err != nil {
		return nil, err
	}
	resource := &chain[0]

	if resource.ResourceType == models.ResourceFolder || resource.ResourceType == models.ResourceProjectDocsRoot ||
		resource.ResourceType == models.ResourceBorrowerDocsRoot {
		return nil, &domain.StructuralError{
			Message: fmt.Sprintf("resource %s is a container and holds no content versions", resource.ID),
		}
	}

	if err := s.authorizer.RequireEdit(ctx, req.CreatedBy, req.ResourceID); err != nil {
		return nil, err
	}

	var version *models.ContentVersion
	err = s.txManager.ExecTx(ctx, func(txCtx context.Context) error {
		if err := s.versionRepo.LockResource(txCtx, req.ResourceID); err != nil {
			return err
		}

		// Numbering continues from the highest number ever issued, never
		// from the currently active version, so a post-rollback upload gets
		// a fresh number and the audit trail stays gap-free.
		max, err := s.versionRepo.MaxNumber(txCtx, req.ResourceID)
		if err != nil {
			return err
		}
		number := max + 1

		if err := s.versionRepo.SupersedeAbove(txCtx, req.ResourceID, 0); err != nil {
			return err
		}

		version = &models.ContentVersion{
			ResourceID:     req.ResourceID,
			VersionNumber:  number,
			Status:         models.VersionActive,
			StorageLocator: BuildStorageLocator(resource, chain, number, req.FileName),
			CreatedBy:      req.CreatedBy,
		}
		if err := s.versionRepo.Create(txCtx, version); err != nil {
			return err
		}

		return s.resourceRepo.SetCurrentVersion(txCtx, req.ResourceID, &version.ID)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("version created",
		"resource_id", req.ResourceID,
		"version_number", version.VersionNumber,
		"created_by", req.CreatedBy,
	)

	return version, nil
}

// Rollback reactivates a historical version without renumbering anything
func (s *versionService) Rollback(ctx context.Context, req *accessSvc.RollbackRequest) error {
	if err := validation.ValidateStruct(req,
		validation.Field(&req.ResourceID, validation.Required),
		validation.Field(&req.TargetVersion, validation.Required, validation.Min(1)),
	); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrValidation, err)
	}

	if err := s.authorizer.RequireEdit(ctx, req.Actor, req.ResourceID); err != nil {
		return err
	}

	err := s.txManager.ExecTx(ctx, func(txCtx context.Context) error {
		if err := s.versionRepo.LockResource(txCtx, req.ResourceID); err != nil {
			return err
		}

		target, err := s.versionRepo.GetByNumber(txCtx, req.ResourceID, req.TargetVersion)
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				return &domain.InvalidReferenceError{
					Message: fmt.Sprintf("version %d does not belong to resource %s", req.TargetVersion, req.ResourceID),
				}
			}
			return err
		}

		// Supersede the whole ledger, not just numbers above the target:
		// rolling forward to a version above the active one must retire the
		// active row too, so exactly one row ends up active.
		if err := s.versionRepo.SupersedeAbove(txCtx, req.ResourceID, 0); err != nil {
			return err
		}
		if err := s.versionRepo.SetStatus(txCtx, target.ID, models.VersionActive); err != nil {
			return err
		}

		return s.resourceRepo.SetCurrentVersion(txCtx, req.ResourceID, &target.ID)
	})
	if err != nil {
		return err
	}

	s.logger.Info("version rolled back",
		"resource_id", req.ResourceID,
		"target_version", req.TargetVersion,
		"actor", req.Actor,
	)

	return nil
}

// ListVersions returns the resource's full ledger, newest first
func (s *versionService) ListVersions(ctx context.Context, userID, resourceID string) ([]models.ContentVersion, error) {
	if err := s.authorizer.RequireView(ctx, userID, resourceID); err != nil {
		return nil, err
	}
	return s.versionRepo.ListByResource(ctx, resourceID)
}

// BuildStorageLocator builds the object key for one content version:
// {project}/{subdir}/{resource}/v{N}_{name}. The subdir follows the root
// type of the resource's ancestor chain.
func BuildStorageLocator(resource *models.Resource, chain []models.Resource, number int, fileName string) string {
	subdir := ProjectDocsSubdir
	rootType := chain[len(chain)-1].ResourceType
	if rootType == models.ResourceBorrowerDocsRoot || rootType == models.ResourceBorrowerResume {
		subdir = BorrowerDocsSubdir
	}

	projectID := ""
	if resource.ProjectID != nil {
		projectID = *resource.ProjectID
	}

	safeName := strings.ReplaceAll(fileName, "\\", "")
	safeName = strings.ReplaceAll(safeName, "/", "")

	return fmt.Sprintf("%s/%s/%s/v%d_%s", projectID, subdir, resource.ID, number, safeName)
}
