package core

import (
	"fmt"
	"reflect"
	"sort"

	"github.com/loftysky/sgsession/logging"
)

// Existence records what is known about an entity's presence on the remote
// service. It only changes through an explicit existence check.
type Existence int

const (
	// ExistenceUnknown means no check has been performed yet.
	ExistenceUnknown Existence = iota
	// ExistenceConfirmed means the record was seen alive on the service.
	ExistenceConfirmed
	// ExistenceRetired means the service no longer returns the record.
	ExistenceRetired
)

func (x Existence) String() string {
	switch x {
	case ExistenceConfirmed:
		return "confirmed"
	case ExistenceRetired:
		return "retired"
	default:
		return "unknown"
	}
}

// Ref is the canonical identity of an entity: its remote type plus the id
// unique within that type. It is comparable, making it the map-key form of
// an identified entity, and doubles as the minimal stub the export format
// collapses repeat references to.
type Ref struct {
	Type string `json:"type"`
	ID   int64  `json:"id"`
}

func (r Ref) String() string { return fmt.Sprintf("%s:%d", r.Type, r.ID) }

// CacheKey identifies an entity's slot in the session cache. Identified
// entities key by (Type, ID); entities missing either fall back to a
// process-local token. Local keys must never be persisted or compared
// across processes.
type CacheKey struct {
	Type  string
	ID    int64
	Local string
}

// Backref names an inbound link: entities of Type pointing at this one
// through Field.
type Backref struct {
	Type  string
	Field string
}

// Entity is a locally cached, identity-consistent representation of one
// remote record. It behaves much like the raw field mapping queries return,
// but understands the links between entities in its session: repeated
// queries referencing the same record converge onto one shared,
// progressively enriched instance.
//
// Contract:
//   - one instance per (type, id) within a session; Copy always fails
//   - field access routes through alias resolution and deep-key chains
//   - record-shaped assignments route through the session merge
//   - no internal locking: callers issuing concurrent deferred accessors
//     against one entity serialize through the session or accept
//     last-write-wins
type Entity struct {
	session  Session
	fields   map[string]any
	backrefs map[Backref][]*Entity
	exists   Existence
	local    string
}

// NewEntity creates a bare entity owned by session. Sessions create
// entities when a reference is first seen; calling code normally receives
// them from a merge rather than constructing them.
func NewEntity(entityType string, id int64, session Session) *Entity {
	e := &Entity{
		session:  session,
		fields:   make(map[string]any),
		backrefs: make(map[Backref][]*Entity),
		local:    NewID(),
	}
	if entityType != "" {
		e.fields["type"] = entityType
	}
	if id != 0 {
		e.fields["id"] = id
	}
	return e
}

// Session returns the owning session. Shared, not owned: many entities
// reference the same session.
func (e *Entity) Session() Session { return e.session }

// Type returns the entity type, or "" while unknown.
func (e *Entity) Type() string {
	t, _ := e.fields["type"].(string)
	return t
}

// ID returns the record id, or 0 while unknown.
func (e *Entity) ID() int64 {
	id, _ := e.fields["id"].(int64)
	return id
}

// CacheKey returns the key for this entity's session cache slot. Marker
// types distinguish the detached forms so they can never collide with an
// identified entity.
func (e *Entity) CacheKey() CacheKey {
	t, id := e.Type(), e.ID()
	switch {
	case t != "" && id != 0:
		return CacheKey{Type: t, ID: id}
	case t != "":
		return CacheKey{Type: "Detached-" + t, Local: e.local}
	case id != 0:
		return CacheKey{Type: "Unknown", ID: id}
	default:
		return CacheKey{Type: "Detached-Unknown", Local: e.local}
	}
}

// Ref returns the (type, id) identity, or ErrUnidentified while either is
// missing. Identified entities are frequently used as map keys; entities
// that are not yet identified must fail loudly instead of silently
// colliding.
func (e *Entity) Ref() (Ref, error) {
	t, id := e.Type(), e.ID()
	if t == "" || id == 0 {
		return Ref{}, ErrUnidentified
	}
	return Ref{Type: t, ID: id}, nil
}

// IsSameEntity reports whether other refers to the same remote record.
// Only type and id participate; two instances with wildly different cached
// fields still compare as the same entity.
func (e *Entity) IsSameEntity(other *Entity) bool {
	if other == nil {
		return false
	}
	return e.Type() == other.Type() && e.ID() == other.ID()
}

// Equal reports structural equality: the same stored field values. This is
// the generic mapping equality and is distinct from IsSameEntity.
func (e *Entity) Equal(other *Entity) bool {
	if other == nil {
		return false
	}
	return reflect.DeepEqual(e.fields, other.fields)
}

// Copy always fails with ErrNoCopy. A duplicate would break the
// one-instance-per-identity invariant the session's identity map depends
// on, and would silently fork the backref index.
func (e *Entity) Copy() (*Entity, error) {
	return nil, ErrNoCopy
}

// Minimal returns the {type, id} form of this entity.
func (e *Entity) Minimal() map[string]any {
	return map[string]any{"type": e.Type(), "id": e.ID()}
}

// Minimize returns the minimal form plus the requested extra keys. When
// strict, a missing key is a LookupError; otherwise it is skipped.
func (e *Entity) Minimize(keys []string, strict bool) (map[string]any, error) {
	ret := e.Minimal()
	for _, k := range keys {
		k = e.resolveField(k)
		v, ok := e.fields[k]
		if !ok {
			if strict {
				return nil, &LookupError{Field: k}
			}
			continue
		}
		ret[k] = v
	}
	return ret, nil
}

// Name returns the first of the name, code or content fields, or "".
func (e *Entity) Name() string {
	for _, k := range []string{"name", "code", "content"} {
		if s, ok := e.fields[k].(string); ok && s != "" {
			return s
		}
	}
	return ""
}

// URL returns the record's detail page address on the remote service.
func (e *Entity) URL() string {
	base := ""
	if e.session != nil {
		base = e.session.BaseURL()
	}
	return fmt.Sprintf("%s/detail/%s/%d", base, e.Type(), e.ID())
}

func (e *Entity) String() string {
	if name := e.Name(); name != "" {
		return fmt.Sprintf("<Entity %s:%d %q at %p>", e.displayType(), e.ID(), name, e)
	}
	return fmt.Sprintf("<Entity %s:%d at %p>", e.displayType(), e.ID(), e)
}

func (e *Entity) displayType() string {
	if e.session != nil {
		return e.session.DisplayType(e.Type())
	}
	return e.Type()
}

// Existence returns the current existence flag without remote access.
func (e *Entity) Existence() Existence { return e.exists }

// SetExistence records the outcome of a bulk existence check. For session
// use.
func (e *Entity) SetExistence(x Existence) { e.exists = x }

// Backrefs returns the entities known to link here from entityType through
// field, in registration order. The index is append-only: links removed or
// overwritten on the linking side are never retracted here, so readers
// needing current truth must filter against the forward link.
func (e *Entity) Backrefs(entityType, field string) []*Entity {
	refs := e.backrefs[Backref{Type: entityType, Field: field}]
	out := make([]*Entity, len(refs))
	copy(out, refs)
	return out
}

// BackrefKeys returns the (type, field) pairs with at least one recorded
// backref, sorted.
func (e *Entity) BackrefKeys() []Backref {
	keys := make([]Backref, 0, len(e.backrefs))
	for k := range e.backrefs {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].Type != keys[j].Type {
			return keys[i].Type < keys[j].Type
		}
		return keys[i].Field < keys[j].Field
	})
	return keys
}

func (e *Entity) addBackref(key Backref, owner *Entity) {
	for _, x := range e.backrefs[key] {
		if x == owner {
			return
		}
	}
	e.backrefs[key] = append(e.backrefs[key], owner)
}

func (e *Entity) logger() logging.Logger {
	if e.session != nil {
		if l := e.session.Logger(); l != nil {
			return l
		}
	}
	return logging.NoOpLogger{}
}
