// Package shelf persists entity exports in a local sqlite file so a fresh
// session can be primed without touching the remote service. Snapshots are
// the pure-data export form (core.Entity.AsDict) keyed by (type, id);
// loading re-merges them through the target session, which rebuilds links
// and backrefs exactly as a live fetch would.
package shelf

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	_ "modernc.org/sqlite"

	"github.com/loftysky/sgsession/core"
)

const initSQL = `
CREATE TABLE IF NOT EXISTS entities (
	entity_type TEXT    NOT NULL,
	entity_id   INTEGER NOT NULL,
	payload     TEXT    NOT NULL,
	saved_at    TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
	PRIMARY KEY (entity_type, entity_id)
);`

// Store is a sqlite-backed shelf of entity snapshots.
type Store struct {
	db *sql.DB
}

// Open opens (creating if needed) a shelf at path. Use ":memory:" for an
// ephemeral store.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open shelf: %w", err)
	}
	if _, err := db.Exec(initSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("init shelf: %w", err)
	}
	return &Store{db: db}, nil
}

// Close releases the underlying database.
func (s *Store) Close() error { return s.db.Close() }

// Save writes the export form of each identified entity, upserting by
// (type, id). Detached entities are skipped: their identity is process
// local and must not be persisted.
func (s *Store) Save(ctx context.Context, entities ...*core.Entity) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("save snapshot: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO entities (entity_type, entity_id, payload, saved_at)
		VALUES (?, ?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT (entity_type, entity_id)
		DO UPDATE SET payload = excluded.payload, saved_at = CURRENT_TIMESTAMP`)
	if err != nil {
		return fmt.Errorf("save snapshot: %w", err)
	}
	defer stmt.Close()

	for _, e := range entities {
		ref, err := e.Ref()
		if err != nil {
			continue
		}
		payload, err := json.Marshal(e.AsDict())
		if err != nil {
			return fmt.Errorf("encode %s: %w", ref, err)
		}
		if _, err := stmt.ExecContext(ctx, ref.Type, ref.ID, string(payload)); err != nil {
			return fmt.Errorf("save %s: %w", ref, err)
		}
	}
	return tx.Commit()
}

// LoadInto re-merges every stored snapshot into sess, returning the
// canonical entities restored. Numeric ids survive the JSON round trip via
// the merge's id normalization.
func (s *Store) LoadInto(ctx context.Context, sess core.Session) ([]*core.Entity, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT payload FROM entities ORDER BY entity_type, entity_id`)
	if err != nil {
		return nil, fmt.Errorf("load snapshots: %w", err)
	}
	defer rows.Close()

	var out []*core.Entity
	for rows.Next() {
		var payload string
		if err := rows.Scan(&payload); err != nil {
			return nil, fmt.Errorf("load snapshots: %w", err)
		}
		var rec map[string]any
		if err := json.Unmarshal([]byte(payload), &rec); err != nil {
			return nil, fmt.Errorf("decode snapshot: %w", err)
		}
		merged, err := sess.Merge(rec, core.MergeState{})
		if err != nil {
			return nil, err
		}
		if e, ok := merged.(*core.Entity); ok {
			out = append(out, e)
		}
	}
	return out, rows.Err()
}

// Refs lists the identities currently shelved.
func (s *Store) Refs(ctx context.Context) ([]core.Ref, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT entity_type, entity_id FROM entities ORDER BY entity_type, entity_id`)
	if err != nil {
		return nil, fmt.Errorf("list snapshots: %w", err)
	}
	defer rows.Close()

	var out []core.Ref
	for rows.Next() {
		var ref core.Ref
		if err := rows.Scan(&ref.Type, &ref.ID); err != nil {
			return nil, fmt.Errorf("list snapshots: %w", err)
		}
		out = append(out, ref)
	}
	return out, rows.Err()
}

// Delete removes one snapshot.
func (s *Store) Delete(ctx context.Context, ref core.Ref) error {
	_, err := s.db.ExecContext(ctx,
		`DELETE FROM entities WHERE entity_type = ? AND entity_id = ?`, ref.Type, ref.ID)
	if err != nil {
		return fmt.Errorf("delete %s: %w", ref, err)
	}
	return nil
}
