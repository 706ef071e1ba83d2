package schema

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	s := Default()

	rootType, rootField := s.Root()
	assert.Equal(t, "Project", rootType)
	assert.Equal(t, "project", rootField)

	field, ok := s.ParentField("Project")
	assert.True(t, ok)
	assert.Equal(t, "", field)

	field, ok = s.ParentField("Shot")
	assert.True(t, ok)
	assert.Equal(t, "sg_sequence", field)

	field, ok = s.ParentField("Task")
	assert.True(t, ok)
	assert.Equal(t, "entity", field)

	_, ok = s.ParentField("PublishEvent")
	assert.False(t, ok)
}

func TestCoreFields(t *testing.T) {
	s := Default()

	assert.Equal(t, []string{"code", "sg_sequence", "project"}, s.CoreFields("Shot"))

	// Unconfigured types get the stock fallback.
	assert.Equal(t, []string{"name", "code", "project"}, s.CoreFields("PublishEvent"))

	// Returned slices are copies.
	fields := s.CoreFields("Shot")
	fields[0] = "mutated"
	assert.Equal(t, []string{"code", "sg_sequence", "project"}, s.CoreFields("Shot"))
}

func TestResolveField(t *testing.T) {
	parent := "sg_sequence"
	s := FromConfig(Config{
		Types: map[string]TypeConfig{
			"Shot": {
				Parent:  &parent,
				Aliases: map[string]string{"shortcode": "sg_shortcode"},
			},
		},
	})

	assert.Equal(t, "sg_shortcode", s.ResolveField("Shot", "shortcode"))
	assert.Equal(t, "code", s.ResolveField("Shot", "code"))
	assert.Equal(t, "shortcode", s.ResolveField("Asset", "shortcode"))
}

func TestDisplayName(t *testing.T) {
	s := FromConfig(Config{
		Types: map[string]TypeConfig{
			"CustomEntity02": {DisplayName: "Delivery"},
		},
	})

	assert.Equal(t, "Delivery", s.DisplayName("CustomEntity02"))
	assert.Equal(t, "CustomEntity03", s.DisplayName("CustomEntity03"))
}

const schemaYAML = `
root:
  type: Show
  field: show
types:
  Show:
    parent: ""
    core_fields: [name]
  Episode:
    parent: show
    core_fields: [code, show]
    aliases:
      number: ep_number
  CustomEntity01:
    display_name: Delivery
`

func TestParse(t *testing.T) {
	s, err := Parse([]byte(schemaYAML))
	require.NoError(t, err)

	rootType, rootField := s.Root()
	assert.Equal(t, "Show", rootType)
	assert.Equal(t, "show", rootField)

	field, ok := s.ParentField("Episode")
	assert.True(t, ok)
	assert.Equal(t, "show", field)

	field, ok = s.ParentField("Show")
	assert.True(t, ok)
	assert.Equal(t, "", field)

	// display_name alone leaves the parent unconfigured.
	_, ok = s.ParentField("CustomEntity01")
	assert.False(t, ok)

	assert.Equal(t, "ep_number", s.ResolveField("Episode", "number"))
	assert.Equal(t, "Delivery", s.DisplayName("CustomEntity01"))
}

func TestParse_Invalid(t *testing.T) {
	_, err := Parse([]byte("types: ["))
	assert.Error(t, err)
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "schema.yml")
	require.NoError(t, os.WriteFile(path, []byte(schemaYAML), 0o644))

	s, err := Load(path)
	require.NoError(t, err)
	rootType, _ := s.Root()
	assert.Equal(t, "Show", rootType)

	_, err = Load(filepath.Join(t.TempDir(), "missing.yml"))
	assert.Error(t, err)
}
