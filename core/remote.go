package core

import "context"

// Record is the raw field mapping the remote service returns for one
// entity. Values may be scalars, []any sequences, nested Records, or
// time.Time timestamps.
type Record = map[string]any

// Remote is the transport that actually talks to the entity-tracking
// service. The core never performs I/O itself; a session is handed a Remote
// and everything network-shaped happens behind this contract, which keeps
// query construction and retry policy out of the cache entirely.
type Remote interface {
	// Read returns the requested fields for the given ids of one type.
	// Ids absent from the result are taken to be retired.
	Read(ctx context.Context, entityType string, ids []int64, fields []string) ([]Record, error)

	// ReadLinked returns records of entityType whose field links to any of
	// the target identities, including the link field itself in each
	// record.
	ReadLinked(ctx context.Context, entityType, field string, targets []Ref, fields []string) ([]Record, error)
}
