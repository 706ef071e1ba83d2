package core

import (
	"sort"

	"github.com/loftysky/sgsession/internal/util"
)

func (e *Entity) resolveField(field string) string {
	if e.session == nil {
		return field
	}
	return e.session.ResolveField(e.Type(), field)
}

// rawField reads one key from a record-shaped value, either a linked Entity
// or a plain nested mapping.
func rawField(src any, key string) (any, bool) {
	switch t := src.(type) {
	case *Entity:
		v, ok := t.fields[key]
		return v, ok
	case map[string]any:
		v, ok := t[key]
		return v, ok
	}
	return nil, false
}

// Get resolves field and returns its value. A name of the form
// "local.Type.rest" reads the local link, asserts its current type, and
// continues resolving rest on the target; the pattern may repeat across
// hops. Any failure (missing field, non-record intermediate, type mismatch)
// is a *LookupError keyed by the full originally requested name.
//
// type and id are read directly, bypassing alias resolution to avoid
// resolver loops.
func (e *Entity) Get(field string) (any, error) {
	if field == "type" || field == "id" {
		v, ok := e.fields[field]
		if !ok {
			return nil, &LookupError{Field: field}
		}
		return v, nil
	}

	path := parsePath(e.resolveField(field))
	src := any(e)
	for _, hop := range path.hops {
		v, ok := rawField(src, hop.field)
		if !ok {
			return nil, &LookupError{Field: field}
		}
		tv, ok := rawField(v, "type")
		if !ok {
			// Missing hop, or a hop that is not itself a record.
			return nil, &LookupError{Field: field}
		}
		if ts, _ := tv.(string); ts != hop.entityType {
			return nil, &LookupError{Field: field}
		}
		src = v
	}

	v, ok := rawField(src, path.leaf)
	if !ok {
		return nil, &LookupError{Field: field}
	}
	return v, nil
}

// Contains reports whether Get(field) would succeed.
func (e *Entity) Contains(field string) bool {
	_, err := e.Get(field)
	return err == nil
}

// Set stores value under the alias-resolved field name. Timestamp fields
// are coerced to time.Time (an unparsable value is logged and stored
// as-is), ids are normalized to int64, record-shaped values are merged
// through the session so nested records become cache-canonical entities,
// and an entity-valued assignment registers a backref on its target.
//
// type and id stay writable through this path, exactly like any other
// field; the session's identity map keys on the values held at insertion
// and does not rekey afterwards.
func (e *Entity) Set(field string, value any) error {
	return e.set(field, value, MergeState{})
}

func (e *Entity) set(field string, value any, st MergeState) error {
	field = e.resolveField(field)

	switch field {
	case "updated_at", "created_at":
		if value != nil {
			if t, err := util.ParseTime(value); err != nil {
				e.logger().Warn("field is not a timestamp", "field", field, "error", err)
			} else {
				value = t
			}
		}
	case "id":
		if id, ok := util.ToInt64(value); ok {
			value = id
		}
	}

	if e.session != nil {
		merged, err := e.session.Merge(value, st)
		if err != nil {
			return err
		}
		value = merged
	}

	e.fields[field] = value

	if linked, ok := value.(*Entity); ok && linked != nil {
		linked.addBackref(Backref{Type: e.Type(), Field: field}, e)
	}
	return nil
}

// SetDefault stores value only when the field is not already present,
// returning the value now stored.
func (e *Entity) SetDefault(field string, value any) (any, error) {
	field = e.resolveField(field)
	if v, ok := e.fields[field]; ok {
		return v, nil
	}
	if err := e.set(field, value, MergeState{}); err != nil {
		return nil, err
	}
	return e.fields[field], nil
}

// Delete removes a stored field. The backref index is append-only, so a
// deleted link does not retract backrefs already recorded on its target.
func (e *Entity) Delete(field string) {
	delete(e.fields, e.resolveField(field))
}

// Value returns the field's value, or def when it cannot be resolved.
func (e *Entity) Value(field string, def any) any {
	v, err := e.Get(field)
	if err != nil {
		return def
	}
	return v
}

// Values resolves each field in order, substituting def for any that fail.
func (e *Entity) Values(fields []string, def any) []any {
	out := make([]any, len(fields))
	for i, f := range fields {
		out[i] = e.Value(f, def)
	}
	return out
}

// Fields returns the stored field names in sorted order.
func (e *Entity) Fields() []string {
	names := make([]string, 0, len(e.fields))
	for k := range e.fields {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}

// Len returns the number of stored fields.
func (e *Entity) Len() int { return len(e.fields) }

// Raw returns the stored value for exactly name, with no alias resolution
// or deep-key logic.
func (e *Entity) Raw(name string) (any, bool) {
	v, ok := e.fields[name]
	return v, ok
}
