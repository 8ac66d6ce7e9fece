package cache

import (
	"context"
	"testing"
	"time"

	"dzika/model"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newCache(t *testing.T) (*StatsCache, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return NewStatsCache(client, time.Minute), mr
}

func TestStatsCacheRoundTrip(t *testing.T) {
	c, _ := newCache(t)
	ctx := context.Background()

	key := Key("overview", model.Range30d, 0)
	c.Set(ctx, key, &model.StatsOverview{TotalPlays: 42})

	var out model.StatsOverview
	require.True(t, c.Get(ctx, key, &out))
	assert.Equal(t, int64(42), out.TotalPlays)
}

func TestStatsCacheMiss(t *testing.T) {
	c, _ := newCache(t)

	var out model.StatsOverview
	assert.False(t, c.Get(context.Background(), Key("overview", model.Range7d, 0), &out))
}

func TestStatsCacheExpiry(t *testing.T) {
	c, mr := newCache(t)
	ctx := context.Background()

	key := Key("overview", model.Range30d, 0)
	c.Set(ctx, key, &model.StatsOverview{TotalPlays: 42})
	mr.FastForward(2 * time.Minute)

	var out model.StatsOverview
	assert.False(t, c.Get(ctx, key, &out))
}

func TestNilCacheIsMiss(t *testing.T) {
	var c *StatsCache

	var out model.StatsOverview
	assert.False(t, c.Get(context.Background(), "stats:overview:30d:0", &out))
	c.Set(context.Background(), "stats:overview:30d:0", &out) // must not panic
}
