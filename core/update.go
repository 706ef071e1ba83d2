package core

import (
	"fmt"
	"sort"
	"time"

	"github.com/loftysky/sgsession/internal/util"
)

// Update folds an incoming raw record into the entity's current fields with
// automatic override resolution. See UpdateWith.
func (e *Entity) Update(record Record) error {
	return e.UpdateWith(record, MergeState{})
}

// UpdateAt folds record using contextTime as the recency stand-in for
// records carrying no updated_at of their own. contextTime may be a
// time.Time or any parsable timestamp form; an unparsable value is a fatal
// input error.
func (e *Entity) UpdateAt(record Record, contextTime any) error {
	st := MergeState{}
	if contextTime != nil {
		t, err := util.ParseTime(contextTime)
		if err != nil {
			return fmt.Errorf("invalid context timestamp given to update at depth %d: %w", st.Depth, err)
		}
		st.Time = t
	}
	return e.UpdateWith(record, st)
}

// UpdateWith is the merge engine: it reconciles an incoming raw record with
// the entity's cached fields, producing a consistent, deduplicated graph.
//
// The caller's record is never mutated. Timezone-aware timestamps are
// normalized to naive UTC, deep-linked keys are expanded into nested
// records, and then each remaining field is merged through the session (so
// nested records land on their canonical entities) and assigned according
// to the override policy. Entity-valued assignments record a backref on the
// target.
//
// Nested record data is always folded into the cache, even when the
// override policy suppresses the local field assignment.
func (e *Entity) UpdateWith(record Record, st MergeState) error {
	if st.Memo == nil {
		st.Memo = NewMemo()
	}

	data := make(map[string]any, len(record))
	for k, v := range record {
		data[k] = v
	}

	for k, v := range data {
		if t, ok := v.(time.Time); ok {
			data[k] = util.NaiveUTC(t)
		}
	}

	if err := expandDeepKeys(data); err != nil {
		return err
	}

	doOverride := e.shouldOverride(data, st)

	// Deterministic application order.
	fields := make([]string, 0, len(data))
	for k := range data {
		fields = append(fields, k)
	}
	sort.Strings(fields)

	for _, k := range fields {
		v := data[k]
		if e.session != nil {
			merged, err := e.session.Merge(v, st.Child())
			if err != nil {
				return err
			}
			v = merged
		}
		if doOverride || !e.Contains(k) {
			if err := e.set(k, v, st.Child()); err != nil {
				return err
			}
		}
	}
	return nil
}

// shouldOverride decides whether incoming values replace cached ones.
// Under auto resolution the incoming side wins only when it carries a
// strictly newer timestamp than the entity's updated_at; with nothing to
// compare, it wins by default. Unparsable timestamps on either side are
// absorbed in favor of overriding, to tolerate legacy malformed data.
func (e *Entity) shouldOverride(data map[string]any, st MergeState) bool {
	switch st.Override {
	case OverrideAlways:
		return true
	case OverrideNever:
		return false
	}

	cur, ok := e.fields["updated_at"]
	if !ok {
		return true
	}
	incoming, ok := data["updated_at"]
	if !ok {
		if st.Time.IsZero() {
			return true
		}
		incoming = st.Time
	}

	curT, err := util.ParseTime(cur)
	if err != nil {
		return true
	}
	newT, err := util.ParseTime(incoming)
	if err != nil {
		return true
	}
	return newT.After(curT)
}

// expandDeepKeys rewrites "field.Type.rest" keys into nested records,
// applying the null-link rules: a null id nulls the whole link, and any
// sibling deep key of a null id is suppressed along with it. A deep key
// colliding with an existing non-record value is a fatal input error.
func expandDeepKeys(data map[string]any) error {
	keys := make([]string, 0, len(data))
	for k := range data {
		if _, _, _, ok := splitDeepKey(k); ok {
			keys = append(keys, k)
		}
	}
	if len(keys) == 0 {
		return nil
	}
	sort.Strings(keys)

	// First pass: a null or falsy id decides the fate of every deep key
	// sharing its local field.
	idNull := make(map[string]bool)
	idFalsy := make(map[string]bool)
	for _, k := range keys {
		field, _, rest, _ := splitDeepKey(k)
		if rest != "id" {
			continue
		}
		if data[k] == nil {
			idNull[field] = true
		}
		if isFalsy(data[k]) {
			idFalsy[field] = true
		}
	}

	for _, k := range keys {
		field, entityType, rest, _ := splitDeepKey(k)
		v := data[k]
		delete(data, k)

		// Explicit null link: the id is null, so the link itself becomes
		// null and sibling fields are dropped with it.
		if idNull[field] {
			data[field] = nil
			continue
		}

		// A null non-id value rides along with a falsy sibling id.
		if v == nil && rest == "id" {
			data[field] = nil
			continue
		}
		if v == nil && idFalsy[field] {
			continue
		}

		nested, present := data[field]
		if !present {
			nested = map[string]any{}
			data[field] = nested
		}
		switch m := nested.(type) {
		case map[string]any:
			if t, ok := m["type"]; !ok || t == entityType {
				m["type"] = entityType
				if v != nil {
					m[rest] = v
				}
			}
		case *Entity:
			if m.Type() == "" || m.Type() == entityType {
				if v != nil {
					if err := m.Set(rest, v); err != nil {
						return err
					}
				}
			}
		default:
			if v != nil {
				return &DeepKeyError{Key: k, Field: field}
			}
		}
	}
	return nil
}

func isFalsy(v any) bool {
	switch t := v.(type) {
	case nil:
		return true
	case bool:
		return !t
	case string:
		return t == ""
	case int:
		return t == 0
	case int64:
		return t == 0
	case float64:
		return t == 0
	}
	return false
}
