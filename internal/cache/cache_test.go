// Copyright 2025 AxonFlow
// SPDX-License-Identifier: BUSL-1.1

package cache

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestCache(t *testing.T) *Cache {
	t.Helper()
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return New(client)
}

func TestTotalCountCacheMissThenHit(t *testing.T) {
	c := newTestCache(t)
	ctx := context.Background()

	_, ok, err := c.GetTotalCount(ctx)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, c.SetTotalCount(ctx, 42))

	count, ok, err := c.GetTotalCount(ctx)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, int64(42), count)
}

func TestInvalidateTotalCount(t *testing.T) {
	c := newTestCache(t)
	ctx := context.Background()

	require.NoError(t, c.SetTotalCount(ctx, 5))
	require.NoError(t, c.InvalidateTotalCount(ctx))

	_, ok, err := c.GetTotalCount(ctx)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestInvalidatePattern(t *testing.T) {
	c := newTestCache(t)
	ctx := context.Background()

	require.NoError(t, c.client.Set(ctx, "listing_card:1:thumb", "x", 0).Err())
	require.NoError(t, c.client.Set(ctx, "listing_card:1:full", "x", 0).Err())
	require.NoError(t, c.client.Set(ctx, "listing_card:2:thumb", "x", 0).Err())

	require.NoError(t, c.InvalidatePattern(ctx, "listing_card:1:*"))

	n, err := c.client.Exists(ctx, "listing_card:1:thumb", "listing_card:1:full").Result()
	require.NoError(t, err)
	assert.Equal(t, int64(0), n)

	n, err = c.client.Exists(ctx, "listing_card:2:thumb").Result()
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
}

func TestShouldInvalidateCard(t *testing.T) {
	assert.True(t, ShouldInvalidateCard([]string{"notes", "price_usd"}))
	assert.False(t, ShouldInvalidateCard([]string{"notes", "seller"}))
}
