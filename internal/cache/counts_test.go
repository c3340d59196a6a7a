package cache_test

import (
	"context"
	"testing"
	"time"

	"orderlyflow/internal/board"
	"orderlyflow/internal/cache"
	"orderlyflow/internal/metrics"

	"github.com/alicebob/miniredis/v2"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestRedis(t *testing.T) (*cache.RedisCounts, *miniredis.Miniredis, *metrics.Metrics) {
	t.Helper()
	s := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: s.Addr()})
	t.Cleanup(func() { client.Close() })
	m := metrics.New()
	return cache.NewRedisCounts(client, time.Minute, m), s, m
}

func TestRedisCounts_SetGetInvalidate(t *testing.T) {
	// Arrange
	counts, s, m := setupTestRedis(t)
	ctx := context.Background()

	// Act
	_, ok, tok := counts.Get(ctx, "board-1", "i1", board.EntityItem)
	counts.Set(ctx, "board-1", "i1", board.EntityItem, 4, tok)
	n, hit, _ := counts.Get(ctx, "board-1", "i1", board.EntityItem)

	// Assert
	assert.False(t, ok)
	require.True(t, hit)
	assert.EqualValues(t, 4, n)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.CountCache.WithLabelValues("miss")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.CountCache.WithLabelValues("hit")))

	counts.Invalidate(ctx, "board-1", "i1", board.EntityItem)
	_, ok, _ = counts.Get(ctx, "board-1", "i1", board.EntityItem)
	assert.False(t, ok)
	assert.False(t, s.Exists("updates:count:board-1:item:i1"))
}

func TestRedisCounts_KeysAreTyped(t *testing.T) {
	counts, _, _ := setupTestRedis(t)
	ctx := context.Background()

	_, _, tok := counts.Get(ctx, "board-1", "x", board.EntityGroup)
	counts.Set(ctx, "board-1", "x", board.EntityGroup, 2, tok)

	_, ok, _ := counts.Get(ctx, "board-1", "x", board.EntitySubitem)
	assert.False(t, ok)
}

func TestRedisCounts_Expires(t *testing.T) {
	counts, s, _ := setupTestRedis(t)
	ctx := context.Background()
	_, _, tok := counts.Get(ctx, "board-1", "i1", board.EntityItem)
	counts.Set(ctx, "board-1", "i1", board.EntityItem, 1, tok)

	s.FastForward(2 * time.Minute)

	_, ok, _ := counts.Get(ctx, "board-1", "i1", board.EntityItem)
	assert.False(t, ok)
}

func TestRedisCounts_DownIsMiss(t *testing.T) {
	counts, s, m := setupTestRedis(t)
	s.Close()

	_, ok, tok := counts.Get(context.Background(), "board-1", "i1", board.EntityItem)

	assert.False(t, ok)
	assert.Empty(t, tok)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.CountCache.WithLabelValues("error")))
}

func TestRedisCounts_InvalidateDuringLoadSkipsStaleWrite(t *testing.T) {
	// Arrange
	counts, s, m := setupTestRedis(t)
	ctx := context.Background()
	_, ok, tok := counts.Get(ctx, "board-1", "i1", board.EntityItem)
	require.False(t, ok)

	// Act
	counts.Invalidate(ctx, "board-1", "i1", board.EntityItem)
	counts.Set(ctx, "board-1", "i1", board.EntityItem, 3, tok)

	// Assert
	_, ok, fresh := counts.Get(ctx, "board-1", "i1", board.EntityItem)
	assert.False(t, ok)
	assert.False(t, s.Exists("updates:count:board-1:item:i1"))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.CountCache.WithLabelValues("stale")))

	counts.Set(ctx, "board-1", "i1", board.EntityItem, 4, fresh)
	n, hit, _ := counts.Get(ctx, "board-1", "i1", board.EntityItem)
	require.True(t, hit)
	assert.EqualValues(t, 4, n)
}
