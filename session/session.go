package session

import (
	"context"
	"fmt"
	"reflect"
	"strings"
	"sync"

	"github.com/loftysky/sgsession/core"
	"github.com/loftysky/sgsession/internal/util"
	"github.com/loftysky/sgsession/logging"
	"github.com/loftysky/sgsession/schema"
)

// Options holds dependency and configuration overrides passed to New().
type Options struct {
	// Remote is the transport used for all reads. A session without one
	// serves purely from cache; any operation needing the service fails.
	Remote core.Remote

	// Schema supplies field aliasing, display names and the hierarchy
	// layout. Defaults to schema.Default().
	Schema *schema.Schema

	// BaseURL is the address of the remote service, used for detail URLs.
	BaseURL string

	// MaxConcurrent bounds the workers backing Submit.
	MaxConcurrent int

	// Logger receives soft failures and diagnostics.
	Logger logging.Logger
}

// Session is the identity map and merge authority entities belong to: one
// instance per remote connection. Every record passed through Merge lands
// on its canonical Entity, so two fetches of the same remote record yield
// the same pointer. The identity map only grows; entities live until the
// session itself is discarded.
//
// The map is mutex-guarded; entities themselves are not (see core.Entity).
type Session struct {
	remote  core.Remote
	schema  *schema.Schema
	baseURL string
	logger  logging.Logger

	mu    sync.Mutex
	cache map[core.CacheKey]*core.Entity

	exec *executor
}

var _ core.Session = (*Session)(nil)

// New constructs a Session with optional overrides.
func New(optFns ...func(o *Options)) *Session {
	opts := Options{
		Schema:        schema.Default(),
		MaxConcurrent: 8,
		Logger:        logging.NoOpLogger{},
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	if opts.Schema == nil {
		opts.Schema = schema.Default()
	}
	if opts.Logger == nil {
		opts.Logger = logging.NoOpLogger{}
	}
	return &Session{
		remote:  opts.Remote,
		schema:  opts.Schema,
		baseURL: opts.BaseURL,
		logger:  opts.Logger,
		cache:   make(map[core.CacheKey]*core.Entity),
		exec:    newExecutor(opts.MaxConcurrent),
	}
}

// Close drains all outstanding submitted work.
func (s *Session) Close() { s.exec.close() }

// Get returns the canonical entity for (type, id), creating a bare one the
// first time the identity is seen.
func (s *Session) Get(entityType string, id int64) *core.Entity {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.canonicalLocked(entityType, id)
}

// Size reports how many entities the identity map currently holds.
func (s *Session) Size() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.cache)
}

func (s *Session) canonicalLocked(entityType string, id int64) *core.Entity {
	if entityType != "" && id != 0 {
		if e, ok := s.cache[core.CacheKey{Type: entityType, ID: id}]; ok {
			return e
		}
	}
	e := core.NewEntity(entityType, id, s)
	s.cache[e.CacheKey()] = e
	return e
}

// Merge folds value into the cache, returning the canonical in-cache
// representation. Records carrying an identity become (or fold into) their
// canonical Entity; plain mappings and sequences recurse; scalars pass
// through untouched. Cyclic input terminates via the memo.
func (s *Session) Merge(value any, st core.MergeState) (any, error) {
	if st.Memo == nil {
		st.Memo = core.NewMemo()
	}
	switch v := value.(type) {
	case *core.Entity:
		return v, nil
	case map[string]any:
		return s.mergeRecord(v, st)
	case []any:
		out := make([]any, len(v))
		for i, x := range v {
			m, err := s.Merge(x, st.Child())
			if err != nil {
				return nil, err
			}
			out[i] = m
		}
		return out, nil
	default:
		return value, nil
	}
}

func (s *Session) mergeRecord(rec map[string]any, st core.MergeState) (any, error) {
	key := reflect.ValueOf(rec).Pointer()
	if cached, ok := st.Memo.Load(key); ok {
		return cached, nil
	}

	typeName, _ := rec["type"].(string)
	id, hasID := util.ToInt64(rec["id"])

	if typeName == "" && !hasID {
		// A plain mapping, not a record reference: keep the shape, merge
		// the values.
		out := make(map[string]any, len(rec))
		st.Memo.Store(key, out)
		for k, v := range rec {
			m, err := s.Merge(v, st.Child())
			if err != nil {
				return nil, err
			}
			out[k] = m
		}
		return out, nil
	}

	s.mu.Lock()
	e := s.canonicalLocked(typeName, id)
	s.mu.Unlock()
	st.Memo.Store(key, e)

	if err := e.UpdateWith(rec, st); err != nil {
		return nil, err
	}
	return e, nil
}

// FilterExists checks which of the given entities still exist (non-retired)
// on the remote service, updating each entity's existence flag and
// returning those not known to be retired. Entities missing their identity
// are dropped outright.
func (s *Session) FilterExists(entities []*core.Entity, check, force bool) ([]*core.Entity, error) {
	pending := make(map[string][]*core.Entity)
	for _, e := range entities {
		if e.Type() == "" || e.ID() == 0 {
			continue
		}
		if force || (check && e.Existence() == core.ExistenceUnknown) {
			pending[e.Type()] = append(pending[e.Type()], e)
		}
	}

	for entityType, group := range pending {
		if s.remote == nil {
			return nil, fmt.Errorf("existence check for %s: session has no remote", entityType)
		}
		ids := make([]int64, len(group))
		for i, e := range group {
			ids[i] = e.ID()
		}
		records, err := s.remote.Read(context.Background(), entityType, ids, []string{"id"})
		if err != nil {
			return nil, fmt.Errorf("existence check for %s: %w", entityType, err)
		}
		alive := make(map[int64]bool, len(records))
		for _, rec := range records {
			if id, ok := util.ToInt64(rec["id"]); ok {
				alive[id] = true
			}
		}
		for _, e := range group {
			if alive[e.ID()] {
				e.SetExistence(core.ExistenceConfirmed)
			} else {
				e.SetExistence(core.ExistenceRetired)
			}
		}
	}

	out := make([]*core.Entity, 0, len(entities))
	for _, e := range entities {
		if e.Type() == "" || e.ID() == 0 {
			continue
		}
		if e.Existence() != core.ExistenceRetired {
			out = append(out, e)
		}
	}
	return out, nil
}

// Fetch populates fields on the given entities, reading from the remote
// service for whatever is missing; force refetches everything requested.
// Results merge back through the cache with auto override, so stale
// responses cannot clobber newer local state.
func (s *Session) Fetch(entities []*core.Entity, fields []string, force bool) error {
	byType := make(map[string][]*core.Entity)
	for _, e := range entities {
		if e.Type() == "" || e.ID() == 0 {
			continue
		}
		if !force && hasAll(e, fields) {
			continue
		}
		byType[e.Type()] = append(byType[e.Type()], e)
	}

	for entityType, group := range byType {
		if s.remote == nil {
			return fmt.Errorf("fetch %s: session has no remote", entityType)
		}
		resolved := make([]string, len(fields), len(fields)+1)
		for i, f := range fields {
			resolved[i] = s.ResolveField(entityType, f)
		}
		// Always carry the timestamp so the auto override policy has
		// something to compare against.
		if !contains(resolved, "updated_at") {
			resolved = append(resolved, "updated_at")
		}
		ids := make([]int64, len(group))
		for i, e := range group {
			ids[i] = e.ID()
		}
		records, err := s.remote.Read(context.Background(), entityType, ids, resolved)
		if err != nil {
			return fmt.Errorf("fetch %s: %w", entityType, err)
		}
		for _, rec := range records {
			r := make(core.Record, len(rec)+1)
			r["type"] = entityType
			for k, v := range rec {
				r[k] = v
			}
			if _, err := s.Merge(r, core.MergeState{}); err != nil {
				return err
			}
		}
	}
	return nil
}

func contains(fields []string, name string) bool {
	for _, f := range fields {
		if f == name {
			return true
		}
	}
	return false
}

func hasAll(e *core.Entity, fields []string) bool {
	for _, f := range fields {
		if !e.Contains(f) {
			return false
		}
	}
	return true
}

// FetchCore populates each entity's per-type core fields.
func (s *Session) FetchCore(entities []*core.Entity) error {
	byType := make(map[string][]*core.Entity)
	for _, e := range entities {
		byType[e.Type()] = append(byType[e.Type()], e)
	}
	for entityType, group := range byType {
		if err := s.Fetch(group, s.schema.CoreFields(entityType), false); err != nil {
			return err
		}
	}
	return nil
}

// FetchHierarchy fetches the upward hierarchy of every entity until each
// chain reaches the root type, returning every entity touched. Entities
// whose type has no configured parent terminate their chain quietly.
func (s *Session) FetchHierarchy(entities []*core.Entity) ([]*core.Entity, error) {
	seen := make(map[*core.Entity]struct{})
	var out []*core.Entity

	frontier := append([]*core.Entity(nil), entities...)
	for len(frontier) > 0 {
		var next []*core.Entity
		for _, e := range frontier {
			if _, ok := seen[e]; ok {
				continue
			}
			seen[e] = struct{}{}
			out = append(out, e)

			rootType, _ := s.Root()
			if e.Type() == rootType {
				continue
			}
			field, ok := s.ParentField(e.Type())
			if !ok || field == "" {
				continue
			}
			if _, err := e.Fetch([]string{field}); err != nil {
				return nil, err
			}
			if parent, ok := e.Value(field, nil).(*core.Entity); ok && parent != nil {
				next = append(next, parent)
			}
		}
		frontier = next
	}
	return out, nil
}

// FetchBackrefs pulls in all entities of entityType linking to the given
// entities through field. Merging the results is what registers the
// backrefs on their targets.
func (s *Session) FetchBackrefs(entities []*core.Entity, entityType, field string) error {
	var targets []core.Ref
	for _, e := range entities {
		if ref, err := e.Ref(); err == nil {
			targets = append(targets, ref)
		}
	}
	if len(targets) == 0 {
		return nil
	}
	if s.remote == nil {
		return fmt.Errorf("fetch backrefs %s.%s: session has no remote", entityType, field)
	}

	fields := append(s.schema.CoreFields(entityType), field)
	records, err := s.remote.ReadLinked(context.Background(), entityType, field, targets, fields)
	if err != nil {
		return fmt.Errorf("fetch backrefs %s.%s: %w", entityType, field, err)
	}
	for _, rec := range records {
		r := make(core.Record, len(rec)+1)
		r["type"] = entityType
		for k, v := range rec {
			r[k] = v
		}
		if _, err := s.Merge(r, core.MergeState{}); err != nil {
			return err
		}
	}
	return nil
}

// ParentField reports the field holding the parent link for a type.
func (s *Session) ParentField(entityType string) (string, bool) {
	return s.schema.ParentField(entityType)
}

// Root reports the grouping entity type and its link field.
func (s *Session) Root() (string, string) {
	return s.schema.Root()
}

// ResolveField maps a requested field name to its canonical name.
func (s *Session) ResolveField(entityType, field string) string {
	return s.schema.ResolveField(entityType, field)
}

// DisplayType maps Custom* type names to their configured display names.
func (s *Session) DisplayType(entityType string) string {
	if strings.HasPrefix(entityType, "Custom") {
		return s.schema.DisplayName(entityType)
	}
	return entityType
}

// BaseURL is the address of the remote service.
func (s *Session) BaseURL() string { return s.baseURL }

// Logger is the session's ambient logger.
func (s *Session) Logger() logging.Logger { return s.logger }

// Submit schedules fn on the session's execution facility.
func (s *Session) Submit(fn func()) { s.exec.submit(fn) }
