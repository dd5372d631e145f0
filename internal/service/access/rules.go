package access

import (
	"embed"
	"fmt"

	"gopkg.in/yaml.v3"

	models "dealdesk/internal/domain/models/access"
)

//go:embed config/*.yaml
var configFiles embed.FS

// RuleTable holds the role-based default permission levels, keyed by
// (role, root resource type). Loaded once at startup from an embedded
// YAML file; immutable afterwards.
type RuleTable struct {
	defaults map[models.Role]map[models.ResourceType]models.Level
}

// ruleFile mirrors the YAML layout
type ruleFile struct {
	Defaults map[string]map[string]string `yaml:"defaults"`
}

// NewRuleTable loads the embedded role-default rules
func NewRuleTable() (*RuleTable, error) {
	data, err := configFiles.ReadFile("config/roles.yaml")
	if err != nil {
		return nil, fmt.Errorf("read role defaults: %w", err)
	}

	var file ruleFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("unmarshal role defaults: %w", err)
	}

	table := &RuleTable{
		defaults: make(map[models.Role]map[models.ResourceType]models.Level),
	}

	for roleName, byType := range file.Defaults {
		role := models.Role(roleName)
		if !role.Valid() {
			return nil, fmt.Errorf("role defaults: unknown role %q", roleName)
		}
		if role == models.RoleOwner {
			return nil, fmt.Errorf("role defaults: owner access is unconditional, not rule-based")
		}

		levels := make(map[models.ResourceType]models.Level, len(byType))
		for typeName, levelName := range byType {
			resourceType := models.ResourceType(typeName)
			if !resourceType.IsRoot() {
				return nil, fmt.Errorf("role defaults: %q is not a root resource type", typeName)
			}
			level := models.Level(levelName)
			if !level.Valid() {
				return nil, fmt.Errorf("role defaults: unknown level %q for %s/%s", levelName, roleName, typeName)
			}
			levels[resourceType] = level
		}
		table.defaults[role] = levels
	}

	return table, nil
}

// Lookup returns the default level for a role under the given root type.
// Absent entries yield LevelNone (deny by default).
func (t *RuleTable) Lookup(role models.Role, rootType models.ResourceType) models.Level {
	byType, ok := t.defaults[role]
	if !ok {
		return models.LevelNone
	}
	level, ok := byType[rootType]
	if !ok {
		return models.LevelNone
	}
	return level
}
