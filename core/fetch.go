package core

import "errors"

// ExistsOptions configure Exists.
type ExistsOptions struct {
	// Check consults the remote service when the flag is still unknown.
	Check bool
	// Force rechecks with the service even when the flag is already known.
	Force bool
}

// Exists reports whether this entity still exists (non-retired) on the
// remote service. An entity missing its type or id does not exist and
// causes no remote access; otherwise the check is delegated to the
// session's bulk existence filter, which updates the flag this returns.
func (e *Entity) Exists(optFns ...func(*ExistsOptions)) (Existence, error) {
	opts := ExistsOptions{Check: true}
	for _, fn := range optFns {
		fn(&opts)
	}

	if e.Type() == "" || e.ID() == 0 {
		return ExistenceRetired, nil
	}

	if _, err := e.session.FilterExists([]*Entity{e}, opts.Check, opts.Force); err != nil {
		return ExistenceUnknown, err
	}
	return e.exists, nil
}

// ExistsAsync submits Exists to the session's execution facility and
// returns immediately.
func (e *Entity) ExistsAsync(optFns ...func(*ExistsOptions)) *Deferred[Existence] {
	return Defer(e.session, func() (Existence, error) {
		return e.Exists(optFns...)
	})
}

// FetchOptions configure Fetch and FetchOne.
type FetchOptions struct {
	// Default substitutes for any requested field that fails to resolve.
	Default any
	// Force refetches the fields even when they are already cached.
	Force bool
}

// Fetch ensures the given fields are present (or refreshed, when forced)
// via the session, then returns their values in request order with the
// default substituted for any that still fail to resolve.
func (e *Entity) Fetch(fields []string, optFns ...func(*FetchOptions)) ([]any, error) {
	opts := FetchOptions{}
	for _, fn := range optFns {
		fn(&opts)
	}

	if err := e.session.Fetch([]*Entity{e}, fields, opts.Force); err != nil {
		return nil, err
	}
	return e.Values(fields, opts.Default), nil
}

// FetchOne is the single-field form of Fetch.
func (e *Entity) FetchOne(field string, optFns ...func(*FetchOptions)) (any, error) {
	vals, err := e.Fetch([]string{field}, optFns...)
	if err != nil {
		return nil, err
	}
	return vals[0], nil
}

// FetchAsync submits Fetch to the session's execution facility.
func (e *Entity) FetchAsync(fields []string, optFns ...func(*FetchOptions)) *Deferred[[]any] {
	return Defer(e.session, func() ([]any, error) {
		return e.Fetch(fields, optFns...)
	})
}

// FetchOneAsync submits FetchOne to the session's execution facility.
func (e *Entity) FetchOneAsync(field string, optFns ...func(*FetchOptions)) *Deferred[any] {
	return Defer(e.session, func() (any, error) {
		return e.FetchOne(field, optFns...)
	})
}

// FetchCore ensures this entity's per-type core fields are present.
func (e *Entity) FetchCore() error {
	return e.session.FetchCore([]*Entity{e})
}

// FetchCoreAsync submits FetchCore, resolving with the entity itself for
// chaining.
func (e *Entity) FetchCoreAsync() *Deferred[*Entity] {
	return Defer(e.session, func() (*Entity, error) {
		return e, e.FetchCore()
	})
}

// FetchHierarchy fetches the full upward hierarchy (toward the root entity)
// from the remote service, returning every entity touched.
func (e *Entity) FetchHierarchy() ([]*Entity, error) {
	return e.session.FetchHierarchy([]*Entity{e})
}

// FetchHierarchyAsync submits FetchHierarchy to the session's execution
// facility.
func (e *Entity) FetchHierarchyAsync() *Deferred[[]*Entity] {
	return Defer(e.session, func() ([]*Entity, error) {
		return e.FetchHierarchy()
	})
}

// FetchBackrefs fetches all entities of entityType linking to this one
// through field; merging the results registers them in the backref index.
func (e *Entity) FetchBackrefs(entityType, field string) error {
	return e.session.FetchBackrefs([]*Entity{e}, entityType, field)
}

// FetchBackrefsAsync submits FetchBackrefs, resolving with the entity
// itself for chaining.
func (e *Entity) FetchBackrefsAsync(entityType, field string) *Deferred[*Entity] {
	return Defer(e.session, func() (*Entity, error) {
		return e, e.FetchBackrefs(entityType, field)
	})
}

// ParentOptions configure Parent.
type ParentOptions struct {
	// Fetch permits querying the remote service for the parent link.
	Fetch bool
	// Extra names additional fields to request alongside the parent.
	Extra []string
}

// Parent returns this entity's parent link according to the session's
// hierarchy configuration. A type absent from that configuration is a
// *ParentConfigError; a root type (configured with no parent field) returns
// nil without remote access.
func (e *Entity) Parent(optFns ...func(*ParentOptions)) (any, error) {
	opts := ParentOptions{Fetch: true}
	for _, fn := range optFns {
		fn(&opts)
	}

	field, ok := e.session.ParentField(e.Type())
	if !ok {
		return nil, &ParentConfigError{Type: e.Type()}
	}
	if field == "" {
		return nil, nil
	}

	if opts.Fetch {
		fields := append(append([]string{}, opts.Extra...), field)
		if _, err := e.Fetch(fields); err != nil {
			return nil, err
		}
		if _, err := e.SetDefault(field, nil); err != nil {
			return nil, err
		}
	}
	return e.Value(field, nil), nil
}

// ParentAsync submits Parent to the session's execution facility.
func (e *Entity) ParentAsync(optFns ...func(*ParentOptions)) *Deferred[any] {
	return Defer(e.session, func() (any, error) {
		return e.Parent(optFns...)
	})
}

// ProjectOptions configure Project.
type ProjectOptions struct {
	// Fetch permits querying the remote service when no local parent
	// information can resolve the root.
	Fetch bool
}

// Project resolves the owning root/grouping entity. Root-typed entities
// return themselves; a cached root link is returned directly; otherwise the
// parental chain is walked without forcing network access, the discovered
// value is cached on this entity, and only as a last resort (when fetching
// is permitted) is the root link fetched outright.
func (e *Entity) Project(optFns ...func(*ProjectOptions)) (*Entity, error) {
	opts := ProjectOptions{Fetch: true}
	for _, fn := range optFns {
		fn(&opts)
	}

	rootType, rootField := e.session.Root()
	if e.Type() == rootType {
		return e, nil
	}
	if v, err := e.Get(rootField); err == nil {
		proj, _ := v.(*Entity)
		return proj, nil
	}

	// Pass up the parental chain looking for the root.
	var project *Entity
	parentVal, err := e.Parent(func(o *ParentOptions) { o.Fetch = false })
	if err != nil {
		return nil, err
	}
	if parent, ok := parentVal.(*Entity); ok && parent != nil {
		if parent.Type() == rootType {
			project = parent
		} else {
			project, err = parent.Project()
			if err != nil {
				return nil, err
			}
		}
	}

	if project != nil {
		if err := e.Set(rootField, project); err != nil {
			return nil, err
		}
		return project, nil
	}

	if opts.Fetch {
		// This lands on the uppermost entity in a hierarchy that is not
		// itself the root.
		if _, err := e.Fetch([]string{rootField}); err != nil {
			return nil, err
		}
		v, err := e.SetDefault(rootField, nil)
		if err != nil {
			return nil, err
		}
		proj, _ := v.(*Entity)
		return proj, nil
	}
	return nil, nil
}

// ProjectAsync submits Project to the session's execution facility.
func (e *Entity) ProjectAsync(optFns ...func(*ProjectOptions)) *Deferred[*Entity] {
	return Defer(e.session, func() (*Entity, error) {
		return e.Project(optFns...)
	})
}

// IsLookup reports whether err is a field resolution failure.
func IsLookup(err error) bool {
	var le *LookupError
	return errors.As(err, &le)
}
