package sqlite

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tendant/simple-export/pkg/simpleexport/kvstore"
)

func TestStore(t *testing.T) {
	ctx := context.Background()
	store, err := Open(ctx, filepath.Join(t.TempDir(), "store.db"))
	require.NoError(t, err)
	defer store.Close()

	require.NoError(t, store.Set(ctx, "droids", []string{"artoo", "threepio"}))
	require.NoError(t, store.Set(ctx, "count", 2))
	require.NoError(t, store.Set(ctx, "count", 3))

	v, err := store.Get(ctx, "droids")
	require.NoError(t, err)
	assert.Equal(t, []any{"artoo", "threepio"}, v)

	v, err = store.Get(ctx, "count")
	require.NoError(t, err)
	assert.Equal(t, float64(3), v)

	all, err := store.Get(ctx, "")
	require.NoError(t, err)
	assert.Len(t, all, 2)

	keys, err := store.Keys(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"count", "droids"}, keys)

	require.NoError(t, store.Delete(ctx, "count"))
	_, err = store.Get(ctx, "count")
	assert.True(t, errors.Is(err, kvstore.ErrNotFound))
}

func TestStore_Persistent(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "store.db")

	store, err := Open(ctx, path)
	require.NoError(t, err)
	require.NoError(t, store.Set(ctx, "k", map[string]any{"v": true}))
	require.NoError(t, store.Close())

	store, err = Open(ctx, path)
	require.NoError(t, err)
	defer store.Close()

	v, err := store.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"v": true}, v)
}
