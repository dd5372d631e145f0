package access

import (
	"time"
)

// Role is the coarse per-organization role of a user, independent of any
// specific resource. Role changes are modeled as removal plus re-invitation;
// rows are treated as immutable once written.
type Role string

const (
	RoleOwner          Role = "owner"
	RoleProjectManager Role = "project_manager"
	RoleMember         Role = "member"
)

// Valid reports whether the role is a known one.
func (r Role) Valid() bool {
	switch r {
	case RoleOwner, RoleProjectManager, RoleMember:
		return true
	}
	return false
}

// OrgMembership maps (org, user) to a role.
type OrgMembership struct {
	OrgID     string    `json:"org_id" db:"org_id"`
	UserID    string    `json:"user_id" db:"user_id"`
	Role      Role      `json:"role" db:"role"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// ProjectAccessGrant is the coarse entry ticket recording that a user has
// been invited into a project at all, independent of which resources they
// can see. Checked before per-resource permissions apply to listings.
type ProjectAccessGrant struct {
	ProjectID string    `json:"project_id" db:"project_id"`
	OrgID     string    `json:"org_id" db:"org_id"`
	UserID    string    `json:"user_id" db:"user_id"`
	GrantedBy string    `json:"granted_by" db:"granted_by"`
	GrantedAt time.Time `json:"granted_at" db:"granted_at"`
}
