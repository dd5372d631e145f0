package access

import (
	"context"

	"dealdesk/internal/domain/models/access"
)

// GrantService manages ACL entries and project entry tickets
type GrantService interface {
	// Grant upserts an ACL entry. The granter must both hold edit on the
	// target resource and the owner role in the resource's organization.
	// Granting LevelNone is the explicit revocation/hole-punching form.
	Grant(ctx context.Context, req *GrantRequest) (*access.Permission, error)

	// GrantProjectAccess performs the transactional bulk grant: entry
	// ticket plus ACL rows on whichever project root resources exist,
	// plus per-file overrides. Idempotent; re-granting upgrades.
	GrantProjectAccess(ctx context.Context, req *GrantProjectAccessRequest) error
}

// GrantRequest is a single ACL upsert
type GrantRequest struct {
	ResourceID string       `json:"resource_id"`
	UserID     string       `json:"user_id"`
	Permission access.Level `json:"permission"`
	GrantedBy  string       `json:"-"` // Set by handler from auth context
}

// RootPermission names a permission level for one well-known root type
type RootPermission struct {
	ResourceType access.ResourceType `json:"resource_type"`
	Permission   access.Level        `json:"permission"`
}

// FileOverride is a per-resource override applied alongside a bulk grant
type FileOverride struct {
	ResourceID string       `json:"resource_id"`
	Permission access.Level `json:"permission"`
}

// GrantProjectAccessRequest is the bulk "invite into project" operation
type GrantProjectAccessRequest struct {
	ProjectID       string           `json:"project_id"`
	UserID          string           `json:"user_id"`
	RootPermissions []RootPermission `json:"root_permissions,omitempty"`
	FileOverrides   []FileOverride   `json:"file_overrides,omitempty"`
	// Exclusions is the legacy shape: bare resource IDs that map to an
	// explicit none override
	Exclusions []string `json:"exclusions,omitempty"`
	GrantedBy  string   `json:"-"` // Set by handler from auth context
}
