package handler

import (
	"context"
	"log/slog"
	"net/http"

	"dealdesk/internal/domain/models/access"
	accessSvc "dealdesk/internal/domain/services/access"
	"dealdesk/internal/httputil"
)

// StorageHandler is the authorization hook for the object store. The store
// proxy calls one of these endpoints before serving or accepting bytes; the
// response carries the resolved resource so the proxy can log it.
type StorageHandler struct {
	authz  accessSvc.StorageAuthz
	logger *slog.Logger
}

// NewStorageHandler creates a new storage authorization handler
func NewStorageHandler(authz accessSvc.StorageAuthz, logger *slog.Logger) *StorageHandler {
	return &StorageHandler{
		authz:  authz,
		logger: logger,
	}
}

// storageAuthorizeRequest names the object path being checked
type storageAuthorizeRequest struct {
	Path string `json:"path"`
}

// AuthorizeRead checks view access on an existing object
// POST /api/storage/authorize/read
func (h *StorageHandler) AuthorizeRead(w http.ResponseWriter, r *http.Request) {
	h.authorize(w, r, h.authz.AuthorizeRead)
}

// AuthorizeMutate checks edit access for overwriting or deleting an object
// POST /api/storage/authorize/mutate
func (h *StorageHandler) AuthorizeMutate(w http.ResponseWriter, r *http.Request) {
	h.authorize(w, r, h.authz.AuthorizeMutate)
}

// AuthorizeUpload checks edit access for writing a new object or version
// POST /api/storage/authorize/upload
func (h *StorageHandler) AuthorizeUpload(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	path, ok := parseAuthorizePath(w, r)
	if !ok {
		return
	}

	target, err := h.authz.AuthorizeUpload(r.Context(), userID, path)
	if err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, map[string]interface{}{
		"allowed":       true,
		"resource_id":   target.Resource.ID,
		"existing_file": target.ExistingFile,
		"file_name":     target.FileName,
	})
}

func (h *StorageHandler) authorize(
	w http.ResponseWriter,
	r *http.Request,
	check func(ctx context.Context, userID, path string) (*access.Resource, error),
) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	path, ok := parseAuthorizePath(w, r)
	if !ok {
		return
	}

	resource, err := check(r.Context(), userID, path)
	if err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, map[string]interface{}{
		"allowed":     true,
		"resource_id": resource.ID,
	})
}

// parseAuthorizePath reads and validates the request body.
// Returns ok=false when the response has already been written.
func parseAuthorizePath(w http.ResponseWriter, r *http.Request) (string, bool) {
	var req storageAuthorizeRequest
	if err := httputil.ParseJSON(w, r, &req); err != nil {
		httputil.RespondError(w, http.StatusBadRequest, "invalid request body")
		return "", false
	}
	if req.Path == "" {
		httputil.RespondError(w, http.StatusBadRequest, "path is required")
		return "", false
	}
	return req.Path, true
}
