package shelf

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/loftysky/sgsession/core"
	"github.com/loftysky/sgsession/session"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(filepath.Join(t.TempDir(), "shelf.sqlite"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func TestSaveAndLoad(t *testing.T) {
	ctx := context.Background()
	store := openTestStore(t)

	src := session.New()
	defer src.Close()

	merged, err := src.Merge(map[string]any{
		"type": "Shot", "id": int64(300), "code": "AA_001",
		"project": map[string]any{"type": "Project", "id": int64(100), "name": "Test Project"},
	}, core.MergeState{})
	require.NoError(t, err)
	shot := merged.(*core.Entity)
	project := src.Get("Project", 100)

	require.NoError(t, store.Save(ctx, shot, project))

	refs, err := store.Refs(ctx)
	require.NoError(t, err)
	assert.Equal(t, []core.Ref{
		{Type: "Project", ID: 100},
		{Type: "Shot", ID: 300},
	}, refs)

	// A fresh session rebuilds the same graph from the shelf.
	dst := session.New()
	defer dst.Close()

	restored, err := store.LoadInto(ctx, dst)
	require.NoError(t, err)
	assert.Len(t, restored, 2)

	loaded := dst.Get("Shot", 300)
	assert.Equal(t, "AA_001", loaded.Value("code", nil))
	assert.Same(t, dst.Get("Project", 100), loaded.Value("project", nil))

	name, err := loaded.Get("project.Project.name")
	require.NoError(t, err)
	assert.Equal(t, "Test Project", name)
}

func TestSave_Upserts(t *testing.T) {
	ctx := context.Background()
	store := openTestStore(t)

	src := session.New()
	defer src.Close()

	shot := src.Get("Shot", 300)
	require.NoError(t, shot.Set("code", "AA_001"))
	require.NoError(t, store.Save(ctx, shot))

	require.NoError(t, shot.Set("code", "AA_001_v2"))
	require.NoError(t, store.Save(ctx, shot))

	refs, err := store.Refs(ctx)
	require.NoError(t, err)
	assert.Len(t, refs, 1)

	dst := session.New()
	defer dst.Close()
	_, err = store.LoadInto(ctx, dst)
	require.NoError(t, err)
	assert.Equal(t, "AA_001_v2", dst.Get("Shot", 300).Value("code", nil))
}

func TestSave_SkipsDetached(t *testing.T) {
	ctx := context.Background()
	store := openTestStore(t)

	src := session.New()
	defer src.Close()

	detached := src.Get("Shot", 0)
	require.NoError(t, store.Save(ctx, detached))

	refs, err := store.Refs(ctx)
	require.NoError(t, err)
	assert.Empty(t, refs)
}

func TestDelete(t *testing.T) {
	ctx := context.Background()
	store := openTestStore(t)

	src := session.New()
	defer src.Close()

	require.NoError(t, store.Save(ctx, src.Get("Shot", 300), src.Get("Shot", 301)))
	require.NoError(t, store.Delete(ctx, core.Ref{Type: "Shot", ID: 300}))

	refs, err := store.Refs(ctx)
	require.NoError(t, err)
	assert.Equal(t, []core.Ref{{Type: "Shot", ID: 301}}, refs)
}
