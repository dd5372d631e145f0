package access

import (
	"testing"

	models "dealdesk/internal/domain/models/access"
)

func TestRuleTableLookup(t *testing.T) {
	table, err := NewRuleTable()
	if err != nil {
		t.Fatalf("NewRuleTable() error: %v", err)
	}

	tests := []struct {
		name     string
		role     models.Role
		rootType models.ResourceType
		want     models.Level
	}{
		{"pm edits project resume", models.RoleProjectManager, models.ResourceProjectResume, models.LevelEdit},
		{"pm edits project docs", models.RoleProjectManager, models.ResourceProjectDocsRoot, models.LevelEdit},
		{"pm views borrower resume", models.RoleProjectManager, models.ResourceBorrowerResume, models.LevelView},
		{"pm has no borrower docs default", models.RoleProjectManager, models.ResourceBorrowerDocsRoot, models.LevelNone},
		{"member views project resume", models.RoleMember, models.ResourceProjectResume, models.LevelView},
		{"member has no project docs default", models.RoleMember, models.ResourceProjectDocsRoot, models.LevelNone},
		{"owner is never rule-based", models.RoleOwner, models.ResourceProjectResume, models.LevelNone},
		{"unknown role denies", models.Role("auditor"), models.ResourceProjectResume, models.LevelNone},
		{"empty role denies", models.Role(""), models.ResourceProjectDocsRoot, models.LevelNone},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := table.Lookup(tt.role, tt.rootType); got != tt.want {
				t.Errorf("Lookup(%s, %s) = %s, want %s", tt.role, tt.rootType, got, tt.want)
			}
		})
	}
}
