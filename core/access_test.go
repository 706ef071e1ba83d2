package core

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGet_TypeAndID(t *testing.T) {
	e := NewEntity("Shot", 300, nil)

	v, err := e.Get("type")
	require.NoError(t, err)
	assert.Equal(t, "Shot", v)

	v, err = e.Get("id")
	require.NoError(t, err)
	assert.Equal(t, int64(300), v)

	_, err = NewEntity("", 0, nil).Get("type")
	assert.True(t, IsLookup(err))
}

func TestGet_Plain(t *testing.T) {
	e := NewEntity("Shot", 300, nil)
	require.NoError(t, e.Set("code", "AA_001"))

	v, err := e.Get("code")
	require.NoError(t, err)
	assert.Equal(t, "AA_001", v)

	_, err = e.Get("description")
	var le *LookupError
	require.ErrorAs(t, err, &le)
	assert.Equal(t, "description", le.Field)
}

func TestGet_DeepChain(t *testing.T) {
	e := NewEntity("Task", 400, nil)
	require.NoError(t, e.Set("entity", map[string]any{
		"type": "Shot",
		"id":   int64(300),
		"code": "AA_001",
		"sg_sequence": map[string]any{
			"type": "Sequence",
			"id":   int64(200),
			"code": "AA",
		},
	}))

	v, err := e.Get("entity.Shot.code")
	require.NoError(t, err)
	assert.Equal(t, "AA_001", v)

	v, err = e.Get("entity.Shot.sg_sequence.Sequence.code")
	require.NoError(t, err)
	assert.Equal(t, "AA", v)
}

func TestGet_DeepChainThroughEntity(t *testing.T) {
	shot := NewEntity("Shot", 300, nil)
	require.NoError(t, shot.Set("code", "AA_001"))

	task := NewEntity("Task", 400, nil)
	require.NoError(t, task.Set("entity", shot))

	v, err := task.Get("entity.Shot.code")
	require.NoError(t, err)
	assert.Equal(t, "AA_001", v)
}

// A failed deep lookup reports the full originally requested name, not the
// hop that failed.
func TestGet_DeepChainFailures(t *testing.T) {
	e := NewEntity("Task", 400, nil)
	require.NoError(t, e.Set("entity", map[string]any{
		"type": "Shot",
		"id":   int64(300),
	}))

	for _, name := range []string{
		"entity.Asset.code", // type mismatch
		"entity.Shot.code",  // leaf missing
		"step.Step.name",    // hop missing
	} {
		_, err := e.Get(name)
		var le *LookupError
		require.ErrorAs(t, err, &le, name)
		assert.Equal(t, name, le.Field)
	}
}

func TestGet_DeepChainNonRecordIntermediate(t *testing.T) {
	e := NewEntity("Task", 400, nil)
	require.NoError(t, e.Set("entity", "not a record"))

	_, err := e.Get("entity.Shot.code")
	var le *LookupError
	require.ErrorAs(t, err, &le)
	assert.Equal(t, "entity.Shot.code", le.Field)
}

func TestContains(t *testing.T) {
	e := NewEntity("Shot", 300, nil)
	require.NoError(t, e.Set("code", "AA_001"))

	assert.True(t, e.Contains("code"))
	assert.True(t, e.Contains("type"))
	assert.False(t, e.Contains("description"))
}

func TestSet_TimestampCoercion(t *testing.T) {
	e := NewEntity("Shot", 300, nil)
	require.NoError(t, e.Set("updated_at", "2023-04-05T06:07:08Z"))

	v, ok := e.Raw("updated_at")
	require.True(t, ok)
	ts, ok := v.(time.Time)
	require.True(t, ok)
	assert.Equal(t, time.Date(2023, 4, 5, 6, 7, 8, 0, time.UTC), ts)
}

func TestSet_BadTimestampKeptRaw(t *testing.T) {
	e := NewEntity("Shot", 300, nil)
	require.NoError(t, e.Set("updated_at", "not a date"))

	v, _ := e.Raw("updated_at")
	assert.Equal(t, "not a date", v)
}

func TestSet_IDCoercion(t *testing.T) {
	e := NewEntity("Shot", 0, nil)
	require.NoError(t, e.Set("id", float64(300)))
	assert.Equal(t, int64(300), e.ID())
}

func TestSetDefault(t *testing.T) {
	e := NewEntity("Shot", 300, nil)

	v, err := e.SetDefault("code", "AA_001")
	require.NoError(t, err)
	assert.Equal(t, "AA_001", v)

	v, err = e.SetDefault("code", "other")
	require.NoError(t, err)
	assert.Equal(t, "AA_001", v)
}

func TestDelete(t *testing.T) {
	e := NewEntity("Shot", 300, nil)
	require.NoError(t, e.Set("code", "AA_001"))

	e.Delete("code")
	assert.False(t, e.Contains("code"))
}

func TestValueAndValues(t *testing.T) {
	e := NewEntity("Shot", 300, nil)
	require.NoError(t, e.Set("code", "AA_001"))

	assert.Equal(t, "AA_001", e.Value("code", "fallback"))
	assert.Equal(t, "fallback", e.Value("description", "fallback"))
	assert.Equal(t, []any{"AA_001", nil}, e.Values([]string{"code", "description"}, nil))
}

func TestFieldsAndLen(t *testing.T) {
	e := NewEntity("Shot", 300, nil)
	require.NoError(t, e.Set("code", "AA_001"))
	require.NoError(t, e.Set("assets", []any{}))

	assert.Equal(t, []string{"assets", "code", "id", "type"}, e.Fields())
	assert.Equal(t, 4, e.Len())
}

func TestRaw_NoResolution(t *testing.T) {
	e := NewEntity("Shot", 300, nil)
	require.NoError(t, e.Set("code", "AA_001"))

	_, ok := e.Raw("code.Shot.code")
	assert.False(t, ok)

	v, ok := e.Raw("code")
	require.True(t, ok)
	assert.Equal(t, "AA_001", v)
}
