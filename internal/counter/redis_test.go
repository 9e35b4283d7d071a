package counter

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
)

func testCounter(t *testing.T) (*RedisCounter, *miniredis.Miniredis) {
	t.Helper()

	srv := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: srv.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	return NewRedisCounter(client, "rl:"), srv
}

func TestIncrementWithTTL_Counts(t *testing.T) {
	ctx := context.Background()
	c, _ := testCounter(t)

	for want := int64(1); want <= 5; want++ {
		count, ttl, err := c.IncrementWithTTL(ctx, "client:auth", time.Minute)
		require.NoError(t, err)
		require.Equal(t, want, count)
		require.Greater(t, ttl, time.Duration(0))
		require.LessOrEqual(t, ttl, time.Minute)
	}
}

func TestIncrementWithTTL_WindowSetOnce(t *testing.T) {
	ctx := context.Background()
	c, srv := testCounter(t)

	_, first, err := c.IncrementWithTTL(ctx, "k", time.Minute)
	require.NoError(t, err)
	require.Equal(t, time.Minute, first)

	srv.FastForward(40 * time.Second)

	// Later increments must not extend the window.
	_, remaining, err := c.IncrementWithTTL(ctx, "k", time.Minute)
	require.NoError(t, err)
	require.Equal(t, 20*time.Second, remaining)
}

func TestIncrementWithTTL_WindowExpiryResets(t *testing.T) {
	ctx := context.Background()
	c, srv := testCounter(t)

	for i := 0; i < 3; i++ {
		_, _, err := c.IncrementWithTTL(ctx, "k", time.Minute)
		require.NoError(t, err)
	}

	srv.FastForward(61 * time.Second)

	count, ttl, err := c.IncrementWithTTL(ctx, "k", time.Minute)
	require.NoError(t, err)
	require.Equal(t, int64(1), count, "a new window starts at 1")
	require.Equal(t, time.Minute, ttl)
}

func TestIncrementWithTTL_KeysAreIndependent(t *testing.T) {
	ctx := context.Background()
	c, _ := testCounter(t)

	count, _, err := c.IncrementWithTTL(ctx, "a:standard", time.Minute)
	require.NoError(t, err)
	require.Equal(t, int64(1), count)

	count, _, err = c.IncrementWithTTL(ctx, "a:sensitive", time.Minute)
	require.NoError(t, err)
	require.Equal(t, int64(1), count)
}

func TestIncrementWithTTL_ServerDown(t *testing.T) {
	ctx := context.Background()

	srv := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: srv.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	c := NewRedisCounter(client, "rl:")

	srv.Close()

	_, _, err := c.IncrementWithTTL(ctx, "k", time.Minute)
	require.Error(t, err)
}
