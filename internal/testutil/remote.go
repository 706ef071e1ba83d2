package testutil

import (
	"context"
	"sync"

	"github.com/loftysky/sgsession/core"
	"github.com/loftysky/sgsession/internal/util"
)

// FakeRemote is an in-memory core.Remote backed by per-type record tables.
// Safe for concurrent use; call counts are exposed for assertions.
type FakeRemote struct {
	mu     sync.Mutex
	tables map[string]map[int64]core.Record

	// Err, when set, fails every call.
	Err error

	ReadCalls       int
	ReadLinkedCalls int
}

// NewFakeRemote returns an empty fake remote.
func NewFakeRemote() *FakeRemote {
	return &FakeRemote{tables: make(map[string]map[int64]core.Record)}
}

// Add stores a record under (entityType, id). The type and id keys are
// filled in automatically.
func (r *FakeRemote) Add(entityType string, id int64, fields core.Record) {
	r.mu.Lock()
	defer r.mu.Unlock()
	table, ok := r.tables[entityType]
	if !ok {
		table = make(map[int64]core.Record)
		r.tables[entityType] = table
	}
	rec := core.Record{"type": entityType, "id": id}
	for k, v := range fields {
		rec[k] = v
	}
	table[id] = rec
}

// Remove retires a record.
func (r *FakeRemote) Remove(entityType string, id int64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.tables[entityType], id)
}

// Read implements core.Remote.
func (r *FakeRemote) Read(ctx context.Context, entityType string, ids []int64, fields []string) ([]core.Record, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.ReadCalls++
	if r.Err != nil {
		return nil, r.Err
	}

	var out []core.Record
	for _, id := range ids {
		rec, ok := r.tables[entityType][id]
		if !ok {
			continue
		}
		out = append(out, project(rec, fields))
	}
	return out, nil
}

// ReadLinked implements core.Remote.
func (r *FakeRemote) ReadLinked(ctx context.Context, entityType, field string, targets []core.Ref, fields []string) ([]core.Record, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.ReadLinkedCalls++
	if r.Err != nil {
		return nil, r.Err
	}

	wanted := make(map[core.Ref]bool, len(targets))
	for _, t := range targets {
		wanted[t] = true
	}

	var out []core.Record
	for _, rec := range r.tables[entityType] {
		link, ok := rec[field].(map[string]any)
		if !ok {
			continue
		}
		lt, _ := link["type"].(string)
		lid, _ := util.ToInt64(link["id"])
		if wanted[core.Ref{Type: lt, ID: lid}] {
			out = append(out, project(rec, append([]string{field}, fields...)))
		}
	}
	return out, nil
}

// project copies the requested fields (plus type and id) out of rec.
func project(rec core.Record, fields []string) core.Record {
	out := core.Record{"type": rec["type"], "id": rec["id"]}
	for _, f := range fields {
		if v, ok := rec[f]; ok {
			out[f] = v
		}
	}
	return out
}
