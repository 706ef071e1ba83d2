package core

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAsDict_LinkedEntities(t *testing.T) {
	shot := NewEntity("Shot", 300, nil)
	require.NoError(t, shot.Set("code", "AA_001"))

	task := NewEntity("Task", 400, nil)
	require.NoError(t, task.Set("content", "Animate"))
	require.NoError(t, task.Set("entity", shot))

	out := task.AsDict()
	assert.Equal(t, map[string]any{
		"type":    "Task",
		"id":      int64(400),
		"content": "Animate",
		"entity": map[string]any{
			"type": "Shot",
			"id":   int64(300),
			"code": "AA_001",
		},
	}, out)
}

// The first reference carries the full field set; later references to the
// same instance collapse to the minimal stub, so cycles terminate.
func TestAsDict_Cycle(t *testing.T) {
	a := NewEntity("HumanUser", 1, nil)
	b := NewEntity("HumanUser", 2, nil)
	require.NoError(t, a.Set("name", "Alice"))
	require.NoError(t, b.Set("name", "Bob"))
	require.NoError(t, a.Set("friend", b))
	require.NoError(t, b.Set("friend", a))

	out := a.AsDict()
	friend, ok := out["friend"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "Bob", friend["name"])

	// b's friend link collapses back to a's minimal form.
	assert.Equal(t, map[string]any{"type": "HumanUser", "id": int64(1)}, friend["friend"])
}

func TestAsDict_Sequences(t *testing.T) {
	shot := NewEntity("Shot", 300, nil)
	seq := NewEntity("Sequence", 200, nil)
	require.NoError(t, seq.Set("shots", []any{shot, "note"}))

	out := seq.AsDict()
	shots, ok := out["shots"].([]any)
	require.True(t, ok)
	require.Len(t, shots, 2)
	assert.Equal(t, map[string]any{"type": "Shot", "id": int64(300)}, shots[0])
	assert.Equal(t, "note", shots[1])
}

func TestMarshalJSON(t *testing.T) {
	task := NewEntity("Task", 400, nil)
	require.NoError(t, task.Set("content", "Animate"))

	data, err := json.Marshal(task)
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, "Task", decoded["type"])
	assert.Equal(t, float64(400), decoded["id"])
	assert.Equal(t, "Animate", decoded["content"])
}

func TestFormat_Bare(t *testing.T) {
	e := NewEntity("Shot", 300, nil)
	assert.Equal(t, "Shot:300 at "+entityAddr(e)+"; {}\n", e.Format())
}

func TestFormat_Fields(t *testing.T) {
	e := NewEntity("Shot", 300, nil)
	require.NoError(t, e.Set("code", "AA_001"))
	require.NoError(t, e.Set("description", nil))

	out := e.Format()
	assert.Contains(t, out, "Shot:300 at ")
	assert.Contains(t, out, "\tcode = \"AA_001\"\n")
	assert.Contains(t, out, "\tdescription = None\n")
	assert.True(t, strings.HasSuffix(out, "}\n"))
}

func TestFormat_CycleCollapses(t *testing.T) {
	a := NewEntity("HumanUser", 1, nil)
	b := NewEntity("HumanUser", 2, nil)
	require.NoError(t, a.Set("name", "Alice"))
	require.NoError(t, b.Set("name", "Bob"))
	require.NoError(t, a.Set("friend", b))
	require.NoError(t, b.Set("friend", a))

	out := a.Format()
	assert.Contains(t, out, "friend = HumanUser:2 at ")
	assert.Contains(t, out, "...")
	// Exactly one collapse: a printed once in full, once as a marker.
	assert.Equal(t, 1, strings.Count(out, "..."))
}

func TestFormat_BackrefSections(t *testing.T) {
	shot := NewEntity("Shot", 300, nil)
	require.NoError(t, shot.Set("code", "AA_001"))

	t1 := NewEntity("Task", 401, nil)
	t2 := NewEntity("Task", 402, nil)
	require.NoError(t, t1.Set("entity", shot))
	require.NoError(t, t2.Set("entity", shot))

	// Without the option the section is absent.
	assert.NotContains(t, shot.Format(), "$FROM$")

	// Depth zero prints bare ids, sorted.
	out := shot.Format(WithBackrefs(0))
	assert.Contains(t, out, "$FROM$Task.entity: 401, 402\n")

	// Depth one expands the linking entities.
	out = shot.Format(WithBackrefs(1))
	assert.Contains(t, out, "$FROM$Task.entity: [\n")
	assert.Contains(t, out, "- Task:401 at ")
}

func entityAddr(e *Entity) string {
	parts := strings.SplitN(e.String(), " at ", 2)
	return strings.TrimSuffix(parts[1], ">")
}
