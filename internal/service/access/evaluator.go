package access

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"dealdesk/internal/domain"
	models "dealdesk/internal/domain/models/access"
	accessRepo "dealdesk/internal/domain/repositories/access"
	accessSvc "dealdesk/internal/domain/services/access"
)

// evaluator implements the Evaluator interface. It is the only component
// that combines the membership table, the ACL store, and the resource tree;
// every enforcement surface goes through it.
type evaluator struct {
	resourceRepo   accessRepo.ResourceRepository
	permissionRepo accessRepo.PermissionRepository
	membershipRepo accessRepo.MembershipRepository
	rules          *RuleTable
	logger         *slog.Logger
}

// NewEvaluator creates a new permission evaluator
func NewEvaluator(
	resourceRepo accessRepo.ResourceRepository,
	permissionRepo accessRepo.PermissionRepository,
	membershipRepo accessRepo.MembershipRepository,
	rules *RuleTable,
	logger *slog.Logger,
) accessSvc.Evaluator {
	return &evaluator{
		resourceRepo:   resourceRepo,
		permissionRepo: permissionRepo,
		membershipRepo: membershipRepo,
		rules:          rules,
		logger:         logger,
	}
}

// Effective resolves the effective permission level for (user, resource).
// Verdicts are memoized in the request-scoped decision cache when one is
// installed, so repeated checks within a request cost one lookup.
func (e *evaluator) Effective(ctx context.Context, userID, resourceID string) (models.Level, error) {
	cache := cacheFrom(ctx)
	if cache != nil {
		if level, ok := cache.get(userID, resourceID); ok {
			return level, nil
		}
	}

	level, err := e.resolve(ctx, userID, resourceID)
	if err != nil {
		return models.LevelNone, err
	}

	if cache != nil {
		cache.put(userID, resourceID, level)
	}

	return level, nil
}

// resolve applies the precedence order: owner override, most-specific ACL
// entry on the ancestor chain, role-based defaults, parent-edit fallback,
// default deny.
func (e *evaluator) resolve(ctx context.Context, userID, resourceID string) (models.Level, error) {
	chain, err := e.resourceRepo.GetAncestorChain(ctx, resourceID)
	if err != nil {
		return models.LevelNone, err
	}
	resource := &chain[0]

	// 1. Owner override: organization owners can never be locked out of
	//    their own data, so no ACL lookup happens for them at all.
	role, err := e.membershipRepo.GetRole(ctx, resource.OrgID, userID)
	if err != nil && !errors.Is(err, domain.ErrNotFound) {
		return models.LevelNone, fmt.Errorf("resolve role: %w", err)
	}
	if role == models.RoleOwner {
		return models.LevelEdit, nil
	}

	// 2. Most-specific grant wins: the ACL entry closest to the resource
	//    decides, and an explicit none there is a hard denial regardless of
	//    any outer grant.
	entries, err := e.permissionRepo.GetForChain(ctx, chain, userID)
	if err != nil {
		return models.LevelNone, fmt.Errorf("resolve chain grants: %w", err)
	}
	if closest := closestEntry(entries); closest != nil {
		return closest.Permission.Permission, nil
	}

	// 3. Role-based default, keyed by the root type of the chain.
	rootType := chain[len(chain)-1].ResourceType
	if level := e.rules.Lookup(role, rootType); level != models.LevelNone {
		return level, nil
	}

	// 4. Parent-edit fallback: a freshly created resource is visible to
	//    whoever can edit its parent, even before any ACL row exists for it.
	//    An explicit none on the resource itself was already honored above.
	if resource.ParentID != nil {
		parentLevel, err := e.Effective(ctx, userID, *resource.ParentID)
		if err != nil {
			return models.LevelNone, fmt.Errorf("resolve parent fallback: %w", err)
		}
		if parentLevel.CanEdit() {
			return models.LevelView, nil
		}
	}

	// 5. Default deny
	return models.LevelNone, nil
}

// CanView reports whether the effective level is view or edit
func (e *evaluator) CanView(ctx context.Context, userID, resourceID string) (bool, error) {
	level, err := e.Effective(ctx, userID, resourceID)
	if err != nil {
		return false, err
	}
	return level.CanView(), nil
}

// CanEdit reports whether the effective level is edit
func (e *evaluator) CanEdit(ctx context.Context, userID, resourceID string) (bool, error) {
	level, err := e.Effective(ctx, userID, resourceID)
	if err != nil {
		return false, err
	}
	return level.CanEdit(), nil
}

// closestEntry picks the ACL entry at the smallest chain depth
func closestEntry(entries []models.ChainEntry) *models.ChainEntry {
	var closest *models.ChainEntry
	for i := range entries {
		if closest == nil || entries[i].Depth < closest.Depth {
			closest = &entries[i]
		}
	}
	return closest
}
