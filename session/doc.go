// Package session houses the canonical implementation of core.Session: the
// identity map, the recursive merge that deduplicates incoming records onto
// cached entities, the bulk fetch/existence operations, and the bounded
// execution facility backing the deferred accessor variants.
//
// All remote access happens through a core.Remote handed in at
// construction. The decorators in this package (NewBreakerRemote,
// NewRateLimitedRemote) wrap a Remote with a circuit breaker or request
// pacing without the session or the core knowing either exists.
package session
