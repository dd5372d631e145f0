package access

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"dealdesk/internal/domain"
	accessSvc "dealdesk/internal/domain/services/access"
)

// authorizer is the structured-record enforcement surface: an explicit
// check invoked before every data access, instead of storage-level row
// filters. It only consults the Evaluator and converts verdicts to errors.
type authorizer struct {
	evaluator accessSvc.Evaluator
	logger    *slog.Logger
}

// NewAuthorizer creates a new record-access authorizer
func NewAuthorizer(evaluator accessSvc.Evaluator, logger *slog.Logger) accessSvc.Authorizer {
	return &authorizer{
		evaluator: evaluator,
		logger:    logger,
	}
}

// RequireView returns a ForbiddenError unless the user can view the resource.
// An unresolvable resource is reported as denial, not as absence.
func (a *authorizer) RequireView(ctx context.Context, userID, resourceID string) error {
	ok, err := a.evaluator.CanView(ctx, userID, resourceID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return &domain.ForbiddenError{
				Message: fmt.Sprintf("no view access to resource %s", resourceID),
			}
		}
		return err
	}
	if !ok {
		a.logger.Debug("view denied", "user_id", userID, "resource_id", resourceID)
		return &domain.ForbiddenError{
			Message: fmt.Sprintf("no view access to resource %s", resourceID),
		}
	}
	return nil
}

// RequireEdit returns a ForbiddenError unless the user can edit the resource
func (a *authorizer) RequireEdit(ctx context.Context, userID, resourceID string) error {
	ok, err := a.evaluator.CanEdit(ctx, userID, resourceID)
	if err != nil {
		return err
	}
	if !ok {
		a.logger.Debug("edit denied", "user_id", userID, "resource_id", resourceID)
		return &domain.ForbiddenError{
			Message: fmt.Sprintf("no edit access to resource %s", resourceID),
		}
	}
	return nil
}
