package core

import (
	"time"

	"github.com/loftysky/sgsession/logging"
)

// Override selects the merge engine's conflict policy when incoming data
// disagrees with cached state.
type Override int

const (
	// OverrideAuto resolves by recency: incoming data wins only when its
	// timestamp is strictly newer than the entity's updated_at, and wins by
	// default when either side has no timestamp to compare.
	OverrideAuto Override = iota
	// OverrideAlways makes incoming data replace cached values.
	OverrideAlways
	// OverrideNever keeps cached values, only filling fields not yet set.
	OverrideNever
)

// MergeState carries the merge policy and recursion bookkeeping through a
// recursive merge. The zero value is a fresh auto-override merge.
type MergeState struct {
	Override Override

	// Time optionally stands in for the updated_at of records that carry no
	// timestamp of their own.
	Time time.Time

	// Depth is the current recursion depth, reported in errors.
	Depth int

	// Memo is the visited set shared across the whole recursive merge; nil
	// means the callee allocates a fresh one.
	Memo *Memo
}

// Child returns the state one recursion level deeper, sharing the memo.
func (st MergeState) Child() MergeState {
	if st.Memo == nil {
		st.Memo = NewMemo()
	}
	st.Depth++
	return st
}

// Memo is the visited set threaded through a recursive merge so cyclic
// input terminates. Keys are pointer identities of the raw containers being
// merged; values are the canonical results they resolved to.
type Memo struct {
	seen map[uintptr]any
}

// NewMemo returns an empty memo.
func NewMemo() *Memo {
	return &Memo{seen: make(map[uintptr]any)}
}

// Load returns the canonical value a container already resolved to.
func (m *Memo) Load(key uintptr) (any, bool) {
	v, ok := m.seen[key]
	return v, ok
}

// Store records the canonical value for a container.
func (m *Memo) Store(key uintptr, v any) {
	m.seen[key] = v
}

// Submitter schedules work on a session-owned concurrent-execution
// facility. Ordering between two submissions is whatever the facility
// provides; the core performs no cancellation of its own.
type Submitter interface {
	Submit(fn func())
}

// Session is the cache, identity-map and scheduling collaborator every
// entity belongs to. Implementations own deduplication, schema metadata and
// all remote access; entities only route through this contract.
//
// Implementations MUST:
//   - return the same Entity instance for every record with the same
//     (type, id) passed through Merge
//   - update each entity's existence flag from FilterExists
//   - leave retries, cancellation and I/O policy out of the core's sight
type Session interface {
	Submitter

	// Merge folds an arbitrary value (scalar, slice, record, Entity) into
	// the cache, returning the canonical in-cache representation.
	Merge(value any, st MergeState) (any, error)

	// FilterExists performs a bulk existence/retirement check, updating
	// each entity's existence flag and returning the entities not known to
	// be retired.
	FilterExists(entities []*Entity, check, force bool) ([]*Entity, error)

	// Fetch populates the given fields on all entities, reading from the
	// remote service for whatever is missing (or everything, when force).
	Fetch(entities []*Entity, fields []string, force bool) error

	// FetchCore populates each entity's per-type core fields.
	FetchCore(entities []*Entity) error

	// FetchHierarchy fetches the upward hierarchy of every entity until
	// each chain reaches the root type, returning every entity touched.
	FetchHierarchy(entities []*Entity) ([]*Entity, error)

	// FetchBackrefs populates links pointing at the given entities from
	// entityType via field.
	FetchBackrefs(entities []*Entity, entityType, field string) error

	// ParentField reports the field holding the parent link for a type.
	// ok is false when the type is absent from the hierarchy configuration;
	// an empty field name marks a root type with no parent.
	ParentField(entityType string) (field string, ok bool)

	// Root reports the grouping entity type and the field linking arbitrary
	// entities to it (conventionally "Project" and "project").
	Root() (entityType, field string)

	// ResolveField maps a requested field name to its canonical name for
	// the given type. Identity when no schema is configured.
	ResolveField(entityType, field string) string

	// DisplayType maps a raw type name to its display name.
	DisplayType(entityType string) string

	// BaseURL is the address of the remote service, for detail URLs.
	BaseURL() string

	// Logger is the ambient logger entities report soft failures through.
	Logger() logging.Logger
}
