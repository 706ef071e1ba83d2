// Package sgsession maintains a session-scoped, identity-consistent cache
// of entities fetched from a relational entity-tracking service. Raw
// records returned by queries are plain field mappings; the session folds
// them into a long-lived, link-aware object graph so repeated queries
// referencing the same record converge onto one shared, progressively
// enriched entity instead of duplicate, stale copies.
//
// Most applications interact with this package by:
//  1. Creating a Session via New() around a core.Remote transport
//  2. Merging query results (session.Merge) or addressing records directly
//     (session.Get)
//  3. Reading fields through the returned entities, which lazily backfill
//     missing data through the session, inline or via the *Async variants
//
// The façade only wires the pieces together; the behavior lives in the
// core and session packages.
package sgsession

import (
	"github.com/loftysky/sgsession/core"
	"github.com/loftysky/sgsession/logging"
	"github.com/loftysky/sgsession/schema"
	"github.com/loftysky/sgsession/session"
)

// Options configures the session built by New.
type Options struct {
	// Remote is the transport that talks to the tracking service. Leave
	// nil for a cache-only session (e.g. primed from a shelf snapshot).
	Remote core.Remote

	// Schema supplies field aliases, display names and the hierarchy
	// layout; defaults to schema.Default().
	Schema *schema.Schema

	// BaseURL is the service address, used for entity detail URLs.
	BaseURL string

	// MaxConcurrent bounds the workers serving deferred accessors.
	MaxConcurrent int

	// RequestsPerSecond paces remote reads when > 0; Burst is the token
	// bucket size (minimum 1).
	RequestsPerSecond float64
	Burst             int

	// DisableBreaker turns off the circuit breaker around the remote.
	DisableBreaker bool

	// Logger receives soft failures and diagnostics.
	Logger logging.Logger
}

// New builds a ready-to-use Session. When a Remote is supplied it is
// wrapped with rate limiting (if configured) and a circuit breaker (unless
// disabled) before the session ever sees it.
func New(optFns ...func(o *Options)) *session.Session {
	opts := Options{
		MaxConcurrent: 8,
		Logger:        logging.NoOpLogger{},
	}
	for _, fn := range optFns {
		fn(&opts)
	}

	remote := opts.Remote
	if remote != nil {
		if opts.RequestsPerSecond > 0 {
			remote = session.NewRateLimitedRemote(remote, opts.RequestsPerSecond, opts.Burst)
		}
		if !opts.DisableBreaker {
			remote = session.NewBreakerRemote(remote)
		}
	}

	return session.New(func(o *session.Options) {
		o.Remote = remote
		o.Schema = opts.Schema
		o.BaseURL = opts.BaseURL
		o.MaxConcurrent = opts.MaxConcurrent
		o.Logger = opts.Logger
	})
}
