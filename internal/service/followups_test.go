package service

import (
	"VaultSync/internal/cache"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReadThrough_InvalidationDuringLoadIsNotCached(t *testing.T) {
	ctx := context.Background()
	mem := cache.NewMemory()
	f := newFollowUps(Collaborators{Cache: mem})
	key := cache.SourcesKey("v-1")

	// запись с инвалидацией успевает между загрузкой и Set
	v, err := readThrough(ctx, f, key, func(context.Context) ([]string, error) {
		var ds []Degradation
		f.invalidate(ctx, &ds, key)
		return []string{"stale"}, nil
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"stale"}, v)
	_, ok, err := mem.Get(ctx, key)
	require.NoError(t, err)
	assert.False(t, ok, "entry loaded across an invalidation must not stay cached")

	// без гонки значение кэшируется
	_, err = readThrough(ctx, f, key, func(context.Context) ([]string, error) {
		return []string{"fresh"}, nil
	})
	require.NoError(t, err)
	raw, ok, err := mem.Get(ctx, key)
	require.NoError(t, err)
	require.True(t, ok)
	assert.JSONEq(t, `["fresh"]`, string(raw))
}

func TestReadThrough_PatternInvalidationDuringLoad(t *testing.T) {
	ctx := context.Background()
	mem := cache.NewMemory()
	f := newFollowUps(Collaborators{Cache: mem})
	key := cache.VaultsKey("u-1")

	_, err := readThrough(ctx, f, key, func(context.Context) ([]string, error) {
		var ds []Degradation
		f.invalidatePattern(ctx, &ds, cache.VaultsPattern("u-1"))
		return []string{"old"}, nil
	})
	require.NoError(t, err)
	_, ok, err := mem.Get(ctx, key)
	require.NoError(t, err)
	assert.False(t, ok)
}
