package session

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/loftysky/sgsession/core"
	"github.com/loftysky/sgsession/internal/testutil"
)

func TestRateLimitedRemote_PassesThrough(t *testing.T) {
	remote := testutil.NewFakeRemote()
	testutil.Hierarchy(remote)
	rl := NewRateLimitedRemote(remote, 1000, 10)

	records, err := rl.Read(context.Background(), "Shot", []int64{300}, []string{"code"})
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, 1, remote.ReadCalls)

	targets := []core.Ref{{Type: "Shot", ID: 300}}
	_, err = rl.ReadLinked(context.Background(), "Task", "entity", targets, []string{"content"})
	require.NoError(t, err)
	assert.Equal(t, 1, remote.ReadLinkedCalls)
}

func TestRateLimitedRemote_HonorsContext(t *testing.T) {
	remote := testutil.NewFakeRemote()
	// A tiny budget with its burst already spent forces a long wait.
	rl := NewRateLimitedRemote(remote, 0.001, 1)
	_, err := rl.Read(context.Background(), "Shot", []int64{300}, nil)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err = rl.Read(ctx, "Shot", []int64{300}, nil)
	assert.Error(t, err)
	assert.Equal(t, 1, remote.ReadCalls)
}

func TestRateLimitedRemote_MinimumBurst(t *testing.T) {
	remote := testutil.NewFakeRemote()
	rl := NewRateLimitedRemote(remote, 100, 0)

	_, err := rl.Read(context.Background(), "Shot", []int64{300}, nil)
	assert.NoError(t, err)
}
