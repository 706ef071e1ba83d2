// Package core holds the domain contracts of sgsession and the Entity type
// itself: identity and equality rules, field storage with deep-link access,
// the merge engine that reconciles incoming records with cached state, the
// backref index, and the lazy accessors that backfill missing data through
// the owning session.
//
// The Session and Remote interfaces live here so higher level packages can
// depend on the contracts without pulling in a concrete implementation; the
// session package provides the canonical one.
package core
