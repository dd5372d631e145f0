package access

import (
	"time"
)

// Level is an effective or granted permission level. LevelNone is a
// first-class explicit denial, not the absence of a grant.
type Level string

const (
	LevelNone Level = "none"
	LevelView Level = "view"
	LevelEdit Level = "edit"
)

// Valid reports whether the level is one of none/view/edit.
func (l Level) Valid() bool {
	switch l {
	case LevelNone, LevelView, LevelEdit:
		return true
	}
	return false
}

// CanView reports whether the level allows reading.
func (l Level) CanView() bool { return l == LevelView || l == LevelEdit }

// CanEdit reports whether the level allows writing.
func (l Level) CanEdit() bool { return l == LevelEdit }

// Permission is an explicit ACL entry for one user on one resource,
// overriding inherited defaults at that point in the tree. At most one
// row exists per (resource, user).
type Permission struct {
	ResourceID string    `json:"resource_id" db:"resource_id"`
	UserID     string    `json:"user_id" db:"user_id"`
	Permission Level     `json:"permission" db:"permission"`
	GrantedBy  string    `json:"granted_by" db:"granted_by"`
	GrantedAt  time.Time `json:"granted_at" db:"granted_at"`
}

// ChainEntry pairs an ACL entry with its depth on an ancestor chain.
// Depth 0 is the resource itself; larger depths are further ancestors.
type ChainEntry struct {
	Permission Permission
	Depth      int
}
