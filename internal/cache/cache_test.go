package cache_test

import (
	"context"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	redis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/discount-store/internal/cache"
)

type payload struct {
	Name  string `json:"name"`
	Price int64  `json:"price"`
}

func TestJSONRoundTripAndExpiry(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	c := cache.New(client, "test:", time.Minute)
	ctx := context.Background()

	var got payload
	ok, err := c.Get(ctx, cache.KeyProduct(1), &got)
	require.NoError(t, err)
	require.False(t, ok)

	require.NoError(t, c.Set(ctx, cache.KeyProduct(1), payload{Name: "Vase", Price: 120}))
	require.True(t, mr.Exists("test:product:1"))

	ok, err = c.Get(ctx, cache.KeyProduct(1), &got)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, payload{Name: "Vase", Price: 120}, got)

	mr.FastForward(2 * time.Minute)
	ok, err = c.Get(ctx, cache.KeyProduct(1), &got)
	require.NoError(t, err)
	require.False(t, ok)
}

func TestJSONDelete(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	c := cache.New(client, "", time.Minute)
	ctx := context.Background()
	require.NoError(t, c.Set(ctx, cache.KeyDiscounts(1), []int{1, 2}))
	require.NoError(t, c.Delete(ctx, cache.KeyDiscounts(1)))
	require.False(t, mr.Exists(cache.KeyDiscounts(1)))
}

func TestDisabledCacheMisses(t *testing.T) {
	c := cache.New(nil, "", time.Minute)
	require.False(t, c.Enabled())
	var got payload
	ok, err := c.Get(context.Background(), "k", &got)
	require.NoError(t, err)
	require.False(t, ok)
	require.NoError(t, c.Set(context.Background(), "k", payload{}))
}
