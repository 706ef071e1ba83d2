// Package schema carries the metadata the session consults when resolving
// field names and walking hierarchies: per-type field aliases, display
// names for Custom* types, parent link fields, and the core fields bulk
// operations request. A Schema can be built in code or loaded from YAML;
// the session falls back to Default() when none is configured.
package schema

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// TypeConfig is the per-type section of the schema document.
type TypeConfig struct {
	// DisplayName overrides how CustomEntity-style types print.
	DisplayName string `yaml:"display_name"`

	// Parent names the field holding this type's parent link. A present
	// but empty value marks a root type with no parent; an absent value
	// means the hierarchy layout for this type is unknown.
	Parent *string `yaml:"parent"`

	// CoreFields are the fields FetchCore requests for this type.
	CoreFields []string `yaml:"core_fields"`

	// Aliases map requested field names to canonical ones.
	Aliases map[string]string `yaml:"aliases"`
}

// Config is the YAML document layout.
type Config struct {
	Root struct {
		Type  string `yaml:"type"`
		Field string `yaml:"field"`
	} `yaml:"root"`
	Types map[string]TypeConfig `yaml:"types"`
}

// Schema resolves field aliases, display names and the hierarchy layout
// for a session. Immutable once constructed.
type Schema struct {
	rootType  string
	rootField string
	types     map[string]TypeConfig
}

var defaultCoreFields = []string{"name", "code", "project"}

// FromConfig builds a Schema, defaulting the root to Project/project.
func FromConfig(cfg Config) *Schema {
	s := &Schema{
		rootType:  cfg.Root.Type,
		rootField: cfg.Root.Field,
		types:     make(map[string]TypeConfig, len(cfg.Types)),
	}
	if s.rootType == "" {
		s.rootType = "Project"
	}
	if s.rootField == "" {
		s.rootField = "project"
	}
	for name, tc := range cfg.Types {
		s.types[name] = tc
	}
	return s
}

// Default returns the stock tracking-service layout: Project at the root
// with Sequence, Shot and Task chained beneath it.
func Default() *Schema {
	str := func(s string) *string { return &s }
	return FromConfig(Config{
		Types: map[string]TypeConfig{
			"Project":  {Parent: str(""), CoreFields: []string{"name"}},
			"Asset":    {Parent: str("project"), CoreFields: []string{"code", "sg_asset_type", "project"}},
			"Sequence": {Parent: str("project"), CoreFields: []string{"code", "project"}},
			"Shot":     {Parent: str("sg_sequence"), CoreFields: []string{"code", "sg_sequence", "project"}},
			"Task":     {Parent: str("entity"), CoreFields: []string{"content", "step", "entity", "project"}},
		},
	})
}

// Parse parses a YAML schema document.
func Parse(data []byte) (*Schema, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse schema: %w", err)
	}
	return FromConfig(cfg), nil
}

// Load reads and parses a YAML schema document from path.
func Load(path string) (*Schema, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("load schema: %w", err)
	}
	return Parse(data)
}

// Root reports the grouping entity type and the field linking entities to
// it.
func (s *Schema) Root() (entityType, field string) {
	return s.rootType, s.rootField
}

// ResolveField maps a requested field name to its canonical name for the
// given type; identity when no alias is configured.
func (s *Schema) ResolveField(entityType, field string) string {
	if tc, ok := s.types[entityType]; ok {
		if canonical, ok := tc.Aliases[field]; ok {
			return canonical
		}
	}
	return field
}

// ParentField reports the field holding the parent link for a type. ok is
// false when the type is absent from the configuration.
func (s *Schema) ParentField(entityType string) (string, bool) {
	tc, ok := s.types[entityType]
	if !ok || tc.Parent == nil {
		return "", false
	}
	return *tc.Parent, true
}

// CoreFields returns the fields bulk operations consider important for a
// type.
func (s *Schema) CoreFields(entityType string) []string {
	if tc, ok := s.types[entityType]; ok && len(tc.CoreFields) > 0 {
		return append([]string(nil), tc.CoreFields...)
	}
	return append([]string(nil), defaultCoreFields...)
}

// DisplayName maps a raw type name to its configured display name, or the
// raw name itself.
func (s *Schema) DisplayName(entityType string) string {
	if tc, ok := s.types[entityType]; ok && tc.DisplayName != "" {
		return tc.DisplayName
	}
	return entityType
}
