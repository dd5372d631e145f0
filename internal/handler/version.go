package handler

import (
	"log/slog"
	"net/http"

	accessSvc "dealdesk/internal/domain/services/access"
	"dealdesk/internal/httputil"
)

// VersionHandler handles content version HTTP requests
type VersionHandler struct {
	versionService accessSvc.VersionService
	logger         *slog.Logger
}

// NewVersionHandler creates a new version handler
func NewVersionHandler(versionService accessSvc.VersionService, logger *slog.Logger) *VersionHandler {
	return &VersionHandler{
		versionService: versionService,
		logger:         logger,
	}
}

// CreateVersion appends a version to a file resource's ledger
// POST /api/resources/{id}/versions
func (h *VersionHandler) CreateVersion(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	resourceID := r.PathValue("id")
	if resourceID == "" {
		httputil.RespondError(w, http.StatusBadRequest, "resource ID is required")
		return
	}

	var req accessSvc.CreateVersionRequest
	if err := httputil.ParseJSON(w, r, &req); err != nil {
		httputil.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	req.ResourceID = resourceID
	req.CreatedBy = userID

	version, err := h.versionService.CreateVersion(r.Context(), &req)
	if err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusCreated, version)
}

// ListVersions returns the full version ledger, newest first
// GET /api/resources/{id}/versions
func (h *VersionHandler) ListVersions(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	resourceID := r.PathValue("id")
	if resourceID == "" {
		httputil.RespondError(w, http.StatusBadRequest, "resource ID is required")
		return
	}

	versions, err := h.versionService.ListVersions(r.Context(), userID, resourceID)
	if err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, map[string]interface{}{
		"versions": versions,
		"count":    len(versions),
	})
}

// Rollback reactivates a historical version
// POST /api/resources/{id}/versions/rollback
func (h *VersionHandler) Rollback(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	resourceID := r.PathValue("id")
	if resourceID == "" {
		httputil.RespondError(w, http.StatusBadRequest, "resource ID is required")
		return
	}

	var req accessSvc.RollbackRequest
	if err := httputil.ParseJSON(w, r, &req); err != nil {
		httputil.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	req.ResourceID = resourceID
	req.Actor = userID

	if err := h.versionService.Rollback(r.Context(), &req); err != nil {
		handleError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
