package access

import (
	"time"
)

// VersionStatus marks whether a content version is the one currently served.
type VersionStatus string

const (
	VersionActive     VersionStatus = "active"
	VersionSuperseded VersionStatus = "superseded"
)

// ContentVersion is one row of the append-only version ledger for a
// resource. Version numbers are sequential per resource starting at 1,
// never reused and never reassigned on rollback. Exactly one version per
// resource is active at any time.
type ContentVersion struct {
	ID             string        `json:"id" db:"id"`
	ResourceID     string        `json:"resource_id" db:"resource_id"`
	VersionNumber  int           `json:"version_number" db:"version_number"`
	Status         VersionStatus `json:"status" db:"status"`
	StorageLocator string        `json:"storage_locator" db:"storage_locator"`
	CreatedBy      string        `json:"created_by" db:"created_by"`
	CreatedAt      time.Time     `json:"created_at" db:"created_at"`
}
