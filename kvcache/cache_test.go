// ABOUTME: Tests for the BadgerDB-backed remote id cache
// ABOUTME: Uses temp-dir caches so no charm server is needed

package kvcache

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/harperreed/leadsync/crm"
	"github.com/harperreed/leadsync/sync"
)

func TestCacheGetMiss(t *testing.T) {
	c := NewTestCache(t)

	v, ok, err := c.Get(context.Background(), "label:warm lead")
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Zero(t, v)
}

func TestCacheSetGetDelete(t *testing.T) {
	ctx := context.Background()
	c := NewTestCache(t)
	key := sync.LabelCacheKey("Warm Lead")

	require.NoError(t, c.Set(ctx, key, 11))

	v, ok, err := c.Get(ctx, key)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, int64(11), v)

	require.NoError(t, c.Set(ctx, key, 12))
	v, _, err = c.Get(ctx, key)
	require.NoError(t, err)
	assert.Equal(t, int64(12), v)

	require.NoError(t, c.Delete(ctx, key))
	_, ok, err = c.Get(ctx, key)
	require.NoError(t, err)
	assert.False(t, ok)

	// Deleting again is fine
	require.NoError(t, c.Delete(ctx, key))
}

func TestCacheCorruptValue(t *testing.T) {
	c := NewTestCache(t)
	require.NoError(t, c.kv.Set([]byte("owner:x"), []byte("not-a-number")))

	_, _, err := c.Get(context.Background(), "owner:x")
	assert.Error(t, err)
}

func TestCacheKeysAndClear(t *testing.T) {
	ctx := context.Background()
	c := NewTestCache(t)

	owner := sync.OwnerCacheKey(uuid.New())
	require.NoError(t, c.Set(ctx, owner, 9))
	require.NoError(t, c.Set(ctx, sync.LabelCacheKey("Warm Lead"), 11))
	require.NoError(t, c.Set(ctx, sync.LabelCacheKey("Customer"), 10))

	labels, err := c.Keys("label:")
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"label:warm lead", "label:customer"}, labels)

	all, err := c.Keys("")
	require.NoError(t, err)
	assert.Len(t, all, 3)

	cleared, err := c.Clear()
	require.NoError(t, err)
	assert.Equal(t, 3, cleared)
	all, err = c.Keys("")
	require.NoError(t, err)
	assert.Empty(t, all)
}

func TestCacheSyncIsNoopForLocal(t *testing.T) {
	c := NewTestCache(t)
	assert.NoError(t, c.Sync())

	id, err := c.CharmID()
	require.NoError(t, err)
	assert.Empty(t, id)
	assert.False(t, c.IsCharm())
}

func TestOpenLocalPersists(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	c, err := OpenLocal(dir)
	require.NoError(t, err)
	require.NoError(t, c.Set(ctx, "owner:abc", 77))
	require.NoError(t, c.Close())

	reopened, err := OpenLocal(dir)
	require.NoError(t, err)
	defer func() { _ = reopened.Close() }()

	v, ok, err := reopened.Get(ctx, "owner:abc")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, int64(77), v)
}

func TestOpenMemoryBackend(t *testing.T) {
	cache, closeFn, err := Open(crm.CacheBackendMemory)
	require.NoError(t, err)
	defer func() { _ = closeFn() }()

	_, isMemory := cache.(*sync.MemoryCache)
	assert.True(t, isMemory)
}

func TestOpenLocalBackendUsesDataHome(t *testing.T) {
	withTempDataHome(t)

	cache, closeFn, err := Open(crm.CacheBackendLocal)
	require.NoError(t, err)
	defer func() { _ = closeFn() }()

	require.NoError(t, cache.Set(context.Background(), "label:x", 1))
	assert.DirExists(t, LocalDir())
}

func TestOpenUnknownBackend(t *testing.T) {
	_, _, err := Open("redis")
	assert.Error(t, err)
}

func TestCacheServesLabelResolver(t *testing.T) {
	ctx := context.Background()
	c := NewTestCache(t)

	// A value written by a previous run is served without a remote call
	require.NoError(t, c.Set(ctx, sync.LabelCacheKey("Warm Lead"), 11))

	resolver := sync.NewLabelResolver(nil, c, nil)
	id, err := resolver.ResolveLabelID(ctx, "warm lead")
	require.NoError(t, err)
	assert.Equal(t, int64(11), id)
}
