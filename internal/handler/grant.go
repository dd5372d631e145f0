package handler

import (
	"log/slog"
	"net/http"

	accessSvc "dealdesk/internal/domain/services/access"
	"dealdesk/internal/httputil"
)

// GrantHandler handles ACL and project access HTTP requests
type GrantHandler struct {
	grantService accessSvc.GrantService
	evaluator    accessSvc.Evaluator
	logger       *slog.Logger
}

// NewGrantHandler creates a new grant handler
func NewGrantHandler(grantService accessSvc.GrantService, evaluator accessSvc.Evaluator, logger *slog.Logger) *GrantHandler {
	return &GrantHandler{
		grantService: grantService,
		evaluator:    evaluator,
		logger:       logger,
	}
}

// Grant upserts a single ACL entry
// POST /api/permissions
func (h *GrantHandler) Grant(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	var req accessSvc.GrantRequest
	if err := httputil.ParseJSON(w, r, &req); err != nil {
		httputil.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	req.GrantedBy = userID

	perm, err := h.grantService.Grant(r.Context(), &req)
	if err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, perm)
}

// GrantProjectAccess performs the transactional bulk grant for one user
// POST /api/projects/{id}/access
func (h *GrantHandler) GrantProjectAccess(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	projectID := r.PathValue("id")
	if projectID == "" {
		httputil.RespondError(w, http.StatusBadRequest, "project ID is required")
		return
	}

	var req accessSvc.GrantProjectAccessRequest
	if err := httputil.ParseJSON(w, r, &req); err != nil {
		httputil.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	req.ProjectID = projectID
	req.GrantedBy = userID

	if err := h.grantService.GrantProjectAccess(r.Context(), &req); err != nil {
		handleError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// EffectivePermission reports the caller's effective level on a resource.
// This is the read-only debugging surface for "why can't I see this".
// GET /api/resources/{id}/effective-permission
func (h *GrantHandler) EffectivePermission(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	id := r.PathValue("id")
	if id == "" {
		httputil.RespondError(w, http.StatusBadRequest, "resource ID is required")
		return
	}

	level, err := h.evaluator.Effective(r.Context(), userID, id)
	if err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, map[string]interface{}{
		"resource_id": id,
		"user_id":     userID,
		"permission":  level,
		"can_view":    level.CanView(),
		"can_edit":    level.CanEdit(),
	})
}
