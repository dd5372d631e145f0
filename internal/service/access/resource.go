package access

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"dealdesk/internal/config"
	"dealdesk/internal/domain"
	models "dealdesk/internal/domain/models/access"
	"dealdesk/internal/domain/repositories"
	accessRepo "dealdesk/internal/domain/repositories/access"
	accessSvc "dealdesk/internal/domain/services/access"
)

// resourceService implements the ResourceService interface
type resourceService struct {
	resourceRepo   accessRepo.ResourceRepository
	permissionRepo accessRepo.PermissionRepository
	membershipRepo accessRepo.MembershipRepository
	grantRepo      accessRepo.GrantRepository
	versionRepo    accessRepo.VersionRepository
	evaluator      accessSvc.Evaluator
	authorizer     accessSvc.Authorizer
	txManager      repositories.TransactionManager
	logger         *slog.Logger
}

// NewResourceService creates a new resource tree service
func NewResourceService(
	resourceRepo accessRepo.ResourceRepository,
	permissionRepo accessRepo.PermissionRepository,
	membershipRepo accessRepo.MembershipRepository,
	grantRepo accessRepo.GrantRepository,
	versionRepo accessRepo.VersionRepository,
	evaluator accessSvc.Evaluator,
	authorizer accessSvc.Authorizer,
	txManager repositories.TransactionManager,
	logger *slog.Logger,
) accessSvc.ResourceService {
	return &resourceService{
		resourceRepo:   resourceRepo,
		permissionRepo: permissionRepo,
		membershipRepo: membershipRepo,
		grantRepo:      grantRepo,
		versionRepo:    versionRepo,
		evaluator:      evaluator,
		authorizer:     authorizer,
		txManager:      txManager,
		logger:         logger,
	}
}

// rootDisplayName maps root types to the names created during project setup
func rootDisplayName(projectName string, rootType models.ResourceType) string {
	switch rootType {
	case models.ResourceProjectResume:
		return fmt.Sprintf("%s Resume", projectName)
	case models.ResourceProjectDocsRoot:
		return fmt.Sprintf("%s Documents", projectName)
	case models.ResourceBorrowerResume:
		return fmt.Sprintf("%s Borrower Resume", projectName)
	case models.ResourceBorrowerDocsRoot:
		return fmt.Sprintf("%s Borrower Documents", projectName)
	}
	return projectName
}

// CreateResource creates a folder or file node under an existing parent
func (s *resourceService) CreateResource(ctx context.Context, req *accessSvc.CreateResourceRequest) (*models.Resource, error) {
	if err := validation.ValidateStruct(req,
		validation.Field(&req.ParentID, validation.Required),
		validation.Field(&req.Name, validation.Required, validation.Length(1, config.MaxResourceNameLength)),
		validation.Field(&req.ResourceType, validation.Required),
	); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrValidation, err)
	}

	if req.ResourceType.IsRoot() {
		return nil, &domain.StructuralError{
			Message: fmt.Sprintf("%s resources are created during project setup, not ad hoc", req.ResourceType),
		}
	}
	if req.ResourceType != models.ResourceFolder && req.ResourceType != models.ResourceFile {
		return nil, fmt.Errorf("%w: unknown resource type %q", domain.ErrValidation, req.ResourceType)
	}

	parent, err := s.resourceRepo.GetByID(ctx, req.ParentID)
	if err != nil {
		return nil, err
	}
	if parent.ResourceType == models.ResourceFile {
		return nil, &domain.StructuralError{
			Message: fmt.Sprintf("resource %s is a file and cannot hold children", parent.ID),
		}
	}

	if err := s.authorizer.RequireEdit(ctx, req.CreatedBy, parent.ID); err != nil {
		return nil, err
	}

	// Org and project scope are inherited from the parent, never trusted
	// from the request
	resource := &models.Resource{
		OrgID:        parent.OrgID,
		ProjectID:    parent.ProjectID,
		ParentID:     &parent.ID,
		ResourceType: req.ResourceType,
		Name:         req.Name,
		CreatedBy:    req.CreatedBy,
	}
	if err := s.resourceRepo.Create(ctx, resource); err != nil {
		return nil, err
	}

	s.logger.Info("resource created",
		"resource_id", resource.ID,
		"resource_type", resource.ResourceType,
		"parent_id", parent.ID,
		"created_by", req.CreatedBy,
	)

	return resource, nil
}

// EnsureProjectRoots creates the missing root resources for a project and
// grants entry tickets to every org owner. Safe to call repeatedly.
func (s *resourceService) EnsureProjectRoots(ctx context.Context, req *accessSvc.EnsureProjectRootsRequest) ([]models.Resource, error) {
	if err := validation.ValidateStruct(req,
		validation.Field(&req.OrgID, validation.Required),
		validation.Field(&req.ProjectID, validation.Required),
		validation.Field(&req.ProjectName, validation.Required),
	); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrValidation, err)
	}

	role, err := s.membershipRepo.GetRole(ctx, req.OrgID, req.CreatedBy)
	if err != nil && !errors.Is(err, domain.ErrNotFound) {
		return nil, err
	}
	if role != models.RoleOwner {
		return nil, &domain.ForbiddenError{
			Message: fmt.Sprintf("project setup requires the owner role in org %s", req.OrgID),
		}
	}

	var roots []models.Resource
	err = s.txManager.ExecTx(ctx, func(txCtx context.Context) error {
		for _, rootType := range models.RootTypes() {
			root, err := s.resourceRepo.GetProjectRoot(txCtx, req.ProjectID, rootType)
			if err == nil {
				roots = append(roots, *root)
				continue
			}
			if !errors.Is(err, domain.ErrNotFound) {
				return err
			}

			created := &models.Resource{
				OrgID:        req.OrgID,
				ProjectID:    &req.ProjectID,
				ResourceType: rootType,
				Name:         rootDisplayName(req.ProjectName, rootType),
				CreatedBy:    req.CreatedBy,
			}
			if err := s.resourceRepo.Create(txCtx, created); err != nil {
				return err
			}
			roots = append(roots, *created)
		}

		// Every org owner gets an entry ticket; the creator is an owner too
		owners, err := s.membershipRepo.ListOwners(txCtx, req.OrgID)
		if err != nil {
			return err
		}
		for _, ownerID := range owners {
			ticket := &models.ProjectAccessGrant{
				ProjectID: req.ProjectID,
				OrgID:     req.OrgID,
				UserID:    ownerID,
				GrantedBy: req.CreatedBy,
			}
			if err := s.grantRepo.Upsert(txCtx, ticket); err != nil {
				return err
			}
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("project roots ensured",
		"project_id", req.ProjectID,
		"org_id", req.OrgID,
		"roots", len(roots),
	)

	return roots, nil
}

// GetResource retrieves a resource the user can view
func (s *resourceService) GetResource(ctx context.Context, userID, resourceID string) (*models.Resource, error) {
	if err := s.authorizer.RequireView(ctx, userID, resourceID); err != nil {
		return nil, err
	}
	return s.resourceRepo.GetByID(ctx, resourceID)
}

// ListProjectResources lists the project's resources the user can view.
// The entry ticket gates the listing as a whole.
func (s *resourceService) ListProjectResources(ctx context.Context, userID, projectID string) ([]models.Resource, error) {
	hasTicket, err := s.grantRepo.Has(ctx, projectID, userID)
	if err != nil {
		return nil, err
	}
	if !hasTicket {
		// Owners of the owning org are implicitly ticketed
		orgID, err := s.listingOrg(ctx, projectID)
		if err != nil {
			return nil, err
		}
		role, err := s.membershipRepo.GetRole(ctx, orgID, userID)
		if err != nil && !errors.Is(err, domain.ErrNotFound) {
			return nil, err
		}
		if role != models.RoleOwner {
			return []models.Resource{}, nil
		}
	}

	all, err := s.resourceRepo.ListByProject(ctx, projectID)
	if err != nil {
		return nil, err
	}

	visible := make([]models.Resource, 0, len(all))
	for _, resource := range all {
		ok, err := s.evaluator.CanView(ctx, userID, resource.ID)
		if err != nil {
			return nil, err
		}
		if ok {
			visible = append(visible, resource)
		}
	}

	return visible, nil
}

// DeleteSubtree recursively removes a resource and its descendants in one
// transaction, bottom-up. Protected root types are rejected here; the
// owning-entity cascade goes through DeleteProjectTree instead.
func (s *resourceService) DeleteSubtree(ctx context.Context, userID, resourceID string) error {
	resource, err := s.resourceRepo.GetByID(ctx, resourceID)
	if err != nil {
		return err
	}

	if resource.IsRoot() {
		return &domain.StructuralError{
			Message: fmt.Sprintf("%s is a protected root and can only be removed with its project", resource.ResourceType),
		}
	}

	if err := s.authorizer.RequireEdit(ctx, userID, resourceID); err != nil {
		return err
	}

	err = s.txManager.ExecTx(ctx, func(txCtx context.Context) error {
		return s.deleteNode(txCtx, resourceID, 0)
	})
	if err != nil {
		return err
	}

	s.logger.Info("subtree deleted",
		"resource_id", resourceID,
		"resource_type", resource.ResourceType,
		"deleted_by", userID,
	)

	return nil
}

// DeleteProjectTree removes every resource of a project, roots included.
// This is the cascade path used when the owning project is being deleted;
// the application walks the tree itself, so no guard needs suppressing.
func (s *resourceService) DeleteProjectTree(ctx context.Context, userID, projectID string) error {
	orgID, err := s.listingOrg(ctx, projectID)
	if err != nil {
		return err
	}

	role, err := s.membershipRepo.GetRole(ctx, orgID, userID)
	if err != nil && !errors.Is(err, domain.ErrNotFound) {
		return err
	}
	if role != models.RoleOwner {
		return &domain.ForbiddenError{
			Message: fmt.Sprintf("deleting a project tree requires the owner role in org %s", orgID),
		}
	}

	err = s.txManager.ExecTx(ctx, func(txCtx context.Context) error {
		for _, rootType := range models.RootTypes() {
			root, err := s.resourceRepo.GetProjectRoot(txCtx, projectID, rootType)
			if err != nil {
				if errors.Is(err, domain.ErrNotFound) {
					continue
				}
				return err
			}
			if err := s.deleteNode(txCtx, root.ID, 0); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.logger.Info("project tree deleted",
		"project_id", projectID,
		"deleted_by", userID,
	)

	return nil
}

// deleteNode removes one node and its descendants depth-first: children,
// then the version ledger and ACL rows, then the row itself
func (s *resourceService) deleteNode(ctx context.Context, resourceID string, depth int) error {
	if depth > maxTreeDepth {
		return fmt.Errorf("tree deeper than %d at resource %s: %w", maxTreeDepth, resourceID, domain.ErrStructural)
	}

	children, err := s.resourceRepo.ListChildren(ctx, resourceID)
	if err != nil {
		return err
	}
	for _, child := range children {
		if err := s.deleteNode(ctx, child.ID, depth+1); err != nil {
			return err
		}
	}

	// Release the active-version pointer before the ledger rows go
	if err := s.resourceRepo.SetCurrentVersion(ctx, resourceID, nil); err != nil {
		return err
	}
	if err := s.versionRepo.DeleteByResource(ctx, resourceID); err != nil {
		return err
	}
	if err := s.permissionRepo.DeleteByResource(ctx, resourceID); err != nil {
		return err
	}

	return s.resourceRepo.Delete(ctx, resourceID)
}

// listingOrg finds the owning org of a project from any of its roots
func (s *resourceService) listingOrg(ctx context.Context, projectID string) (string, error) {
	for _, rootType := range models.RootTypes() {
		root, err := s.resourceRepo.GetProjectRoot(ctx, projectID, rootType)
		if err == nil {
			return root.OrgID, nil
		}
		if !errors.Is(err, domain.ErrNotFound) {
			return "", err
		}
	}
	return "", &domain.NotFoundError{
		Message: fmt.Sprintf("project %s has no root resources", projectID),
	}
}

// maxTreeDepth bounds recursive deletion the same way the ancestor walk is
// bounded in the repository layer
const maxTreeDepth = 32
