package access

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"dealdesk/internal/domain"
	models "dealdesk/internal/domain/models/access"
	"dealdesk/internal/domain/repositories"
	accessRepo "dealdesk/internal/domain/repositories/access"
	accessSvc "dealdesk/internal/domain/services/access"
)

// grantService implements the GrantService interface
type grantService struct {
	resourceRepo   accessRepo.ResourceRepository
	permissionRepo accessRepo.PermissionRepository
	membershipRepo accessRepo.MembershipRepository
	grantRepo      accessRepo.GrantRepository
	evaluator      accessSvc.Evaluator
	txManager      repositories.TransactionManager
	logger         *slog.Logger
}

// NewGrantService creates a new grant service
func NewGrantService(
	resourceRepo accessRepo.ResourceRepository,
	permissionRepo accessRepo.PermissionRepository,
	membershipRepo accessRepo.MembershipRepository,
	grantRepo accessRepo.GrantRepository,
	evaluator accessSvc.Evaluator,
	txManager repositories.TransactionManager,
	logger *slog.Logger,
) accessSvc.GrantService {
	return &grantService{
		resourceRepo:   resourceRepo,
		permissionRepo: permissionRepo,
		membershipRepo: membershipRepo,
		grantRepo:      grantRepo,
		evaluator:      evaluator,
		txManager:      txManager,
		logger:         logger,
	}
}

// Grant upserts a single ACL entry after the two-factor authority check:
// the granter must hold edit on the target resource AND the owner role in
// the resource's organization. A merely-delegated editor cannot re-delegate.
func (s *grantService) Grant(ctx context.Context, req *accessSvc.GrantRequest) (*models.Permission, error) {
	if err := validateGrantRequest(req); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrValidation, err)
	}

	resource, err := s.resourceRepo.GetByID(ctx, req.ResourceID)
	if err != nil {
		return nil, err
	}

	if err := s.requireGrantAuthority(ctx, req.GrantedBy, resource); err != nil {
		return nil, err
	}

	perm := &models.Permission{
		ResourceID: req.ResourceID,
		UserID:     req.UserID,
		Permission: req.Permission,
		GrantedBy:  req.GrantedBy,
	}
	if err := s.permissionRepo.Upsert(ctx, perm); err != nil {
		return nil, err
	}

	s.logger.Info("permission granted",
		"resource_id", req.ResourceID,
		"user_id", req.UserID,
		"permission", req.Permission,
		"granted_by", req.GrantedBy,
	)

	return perm, nil
}

// GrantProjectAccess performs the transactional bulk grant: the entry
// ticket first, then ACL rows on whichever root resources already exist,
// then per-file overrides. Re-granting upgrades rather than errors.
func (s *grantService) GrantProjectAccess(ctx context.Context, req *accessSvc.GrantProjectAccessRequest) error {
	if err := validateProjectAccessRequest(req); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrValidation, err)
	}

	// Any root resource tells us which org owns the project
	orgID, err := s.projectOrg(ctx, req.ProjectID)
	if err != nil {
		return err
	}

	// Bulk grants are an owner-only operation; the owner role carries edit
	// on every project resource, so both grant factors are satisfied.
	role, err := s.membershipRepo.GetRole(ctx, orgID, req.GrantedBy)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return &domain.ForbiddenError{
				Message: fmt.Sprintf("granter %s is not a member of org %s", req.GrantedBy, orgID),
			}
		}
		return err
	}
	if role != models.RoleOwner {
		return &domain.ForbiddenError{
			Message: fmt.Sprintf("granting project access requires the owner role in org %s", orgID),
		}
	}

	return s.txManager.ExecTx(ctx, func(txCtx context.Context) error {
		// Entry ticket
		ticket := &models.ProjectAccessGrant{
			ProjectID: req.ProjectID,
			OrgID:     orgID,
			UserID:    req.UserID,
			GrantedBy: req.GrantedBy,
		}
		if err := s.grantRepo.Upsert(txCtx, ticket); err != nil {
			return err
		}

		// Root ACL rows, only for roots that exist already
		for _, rootPerm := range req.RootPermissions {
			root, err := s.resourceRepo.GetProjectRoot(txCtx, req.ProjectID, rootPerm.ResourceType)
			if err != nil {
				if errors.Is(err, domain.ErrNotFound) {
					continue
				}
				return err
			}
			perm := &models.Permission{
				ResourceID: root.ID,
				UserID:     req.UserID,
				Permission: rootPerm.Permission,
				GrantedBy:  req.GrantedBy,
			}
			if err := s.permissionRepo.Upsert(txCtx, perm); err != nil {
				return err
			}
		}

		// Per-file overrides, including legacy exclusions as explicit none
		overrides := make([]accessSvc.FileOverride, 0, len(req.FileOverrides)+len(req.Exclusions))
		overrides = append(overrides, req.FileOverrides...)
		for _, resourceID := range req.Exclusions {
			overrides = append(overrides, accessSvc.FileOverride{
				ResourceID: resourceID,
				Permission: models.LevelNone,
			})
		}

		for _, override := range overrides {
			resource, err := s.resourceRepo.GetByID(txCtx, override.ResourceID)
			if err != nil {
				return err
			}
			if resource.ProjectID == nil || *resource.ProjectID != req.ProjectID {
				return &domain.InvalidReferenceError{
					Message: fmt.Sprintf("resource %s does not belong to project %s", override.ResourceID, req.ProjectID),
				}
			}
			perm := &models.Permission{
				ResourceID: override.ResourceID,
				UserID:     req.UserID,
				Permission: override.Permission,
				GrantedBy:  req.GrantedBy,
			}
			if err := s.permissionRepo.Upsert(txCtx, perm); err != nil {
				return err
			}
		}

		s.logger.Info("project access granted",
			"project_id", req.ProjectID,
			"user_id", req.UserID,
			"root_permissions", len(req.RootPermissions),
			"file_overrides", len(overrides),
			"granted_by", req.GrantedBy,
		)

		return nil
	})
}

// requireGrantAuthority enforces the two-factor check with a message naming
// the factor that failed; misconfigured invitations hit this path routinely.
func (s *grantService) requireGrantAuthority(ctx context.Context, granterID string, resource *models.Resource) error {
	role, err := s.membershipRepo.GetRole(ctx, resource.OrgID, granterID)
	if err != nil && !errors.Is(err, domain.ErrNotFound) {
		return err
	}
	if role != models.RoleOwner {
		return &domain.ForbiddenError{
			Message: fmt.Sprintf("granter %s does not hold the owner role in org %s", granterID, resource.OrgID),
		}
	}

	canEdit, err := s.evaluator.CanEdit(ctx, granterID, resource.ID)
	if err != nil {
		return err
	}
	if !canEdit {
		return &domain.ForbiddenError{
			Message: fmt.Sprintf("granter %s cannot edit resource %s", granterID, resource.ID),
		}
	}

	return nil
}

// projectOrg finds the owning org of a project from any of its roots
func (s *grantService) projectOrg(ctx context.Context, projectID string) (string, error) {
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

func validateGrantRequest(req *accessSvc.GrantRequest) error {
	return validation.ValidateStruct(req,
		validation.Field(&req.ResourceID, validation.Required),
		validation.Field(&req.UserID, validation.Required),
		validation.Field(&req.Permission, validation.Required, validation.By(func(interface{}) error {
			if !req.Permission.Valid() {
				return fmt.Errorf("must be one of none, view, edit")
			}
			return nil
		})),
	)
}

func validateProjectAccessRequest(req *accessSvc.GrantProjectAccessRequest) error {
	if err := validation.ValidateStruct(req,
		validation.Field(&req.ProjectID, validation.Required),
		validation.Field(&req.UserID, validation.Required),
	); err != nil {
		return err
	}
	for _, rootPerm := range req.RootPermissions {
		if !rootPerm.ResourceType.IsRoot() {
			return fmt.Errorf("%s is not a root resource type", rootPerm.ResourceType)
		}
		if !rootPerm.Permission.Valid() {
			return fmt.Errorf("invalid permission %q for %s", rootPerm.Permission, rootPerm.ResourceType)
		}
	}
	for _, override := range req.FileOverrides {
		if override.ResourceID == "" {
			return fmt.Errorf("file override missing resource_id")
		}
		if !override.Permission.Valid() {
			return fmt.Errorf("invalid permission %q for %s", override.Permission, override.ResourceID)
		}
	}
	return nil
}
