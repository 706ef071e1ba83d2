package core

import "encoding/json"

// AsDict returns the entity and every linked entity as pure data. The first
// reference to an entity carries its full current field set; any later
// reference to the same instance collapses to the minimal {type, id} stub,
// which bounds output size and terminates on cyclic graphs. This is the
// canonical format for transport or re-merging into a fresh session.
func (e *Entity) AsDict() map[string]any {
	return asData(e, make(map[*Entity]struct{})).(map[string]any)
}

func asData(v any, visited map[*Entity]struct{}) any {
	switch t := v.(type) {
	case []any:
		out := make([]any, len(t))
		for i, x := range t {
			out[i] = asData(x, visited)
		}
		return out
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, x := range t {
			out[k] = asData(x, visited)
		}
		return out
	case *Entity:
		if _, ok := visited[t]; ok {
			return t.Minimal()
		}
		visited[t] = struct{}{}
		out := make(map[string]any, len(t.fields))
		for k, x := range t.fields {
			out[k] = asData(x, visited)
		}
		return out
	}
	return v
}

// MarshalJSON encodes the export form. encoding/json emits map keys in
// sorted order, which gives the stable layout the transport contract asks
// for.
func (e *Entity) MarshalJSON() ([]byte, error) {
	return json.Marshal(e.AsDict())
}
