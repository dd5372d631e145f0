package access

import (
	"time"
)

// ResourceType identifies the kind of node in the permission tree.
type ResourceType string

const (
	ResourceBorrowerResume   ResourceType = "BORROWER_RESUME"
	ResourceBorrowerDocsRoot ResourceType = "BORROWER_DOCS_ROOT"
	ResourceProjectResume    ResourceType = "PROJECT_RESUME"
	ResourceProjectDocsRoot  ResourceType = "PROJECT_DOCS_ROOT"
	ResourceFolder           ResourceType = "FOLDER"
	ResourceFile             ResourceType = "FILE"
)

// IsRoot reports whether the type is permitted to have no parent.
func (t ResourceType) IsRoot() bool {
	switch t {
	case ResourceBorrowerResume, ResourceBorrowerDocsRoot, ResourceProjectResume, ResourceProjectDocsRoot:
		return true
	}
	return false
}

// RootTypes lists every root resource type created during project setup.
func RootTypes() []ResourceType {
	return []ResourceType{
		ResourceProjectResume,
		ResourceProjectDocsRoot,
		ResourceBorrowerResume,
		ResourceBorrowerDocsRoot,
	}
}

// Resource is a permissionable node in the hierarchy. The parent chain is
// acyclic; only root types have a nil ParentID. Sibling names are unique
// under the same parent.
type Resource struct {
	ID               string       `json:"id" db:"id"`
	OrgID            string       `json:"org_id" db:"org_id"`
	ProjectID        *string      `json:"project_id,omitempty" db:"project_id"`
	ParentID         *string      `json:"parent_id,omitempty" db:"parent_id"`
	ResourceType     ResourceType `json:"resource_type" db:"resource_type"`
	Name             string       `json:"name" db:"name"`
	CurrentVersionID *string      `json:"current_version_id,omitempty" db:"current_version_id"`
	CreatedBy        string       `json:"created_by" db:"created_by"`
	CreatedAt        time.Time    `json:"created_at" db:"created_at"`
	UpdatedAt        time.Time    `json:"updated_at" db:"updated_at"`
}

// IsRoot reports whether this resource is a protected root node.
func (r *Resource) IsRoot() bool {
	return r.ParentID == nil && r.ResourceType.IsRoot()
}
