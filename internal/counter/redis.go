package counter

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// incrWithTTLScript performs INCR and TTL attachment in a single atomic step.
// A separate INCR followed by EXPIRE leaves a window where a concurrent
// request that loses the "first increment" race can extend the window; the
// script closes that race server-side.
//
// KEYS[1] = counter key
// ARGV[1] = window in milliseconds
// Returns {count, ttl_ms}.
var incrWithTTLScript = redis.NewScript(`
local count = redis.call('INCR', KEYS[1])
if count == 1 then
  redis.call('PEXPIRE', KEYS[1], ARGV[1])
end
local ttl = redis.call('PTTL', KEYS[1])
if ttl < 0 then
  redis.call('PEXPIRE', KEYS[1], ARGV[1])
  ttl = tonumber(ARGV[1])
end
return {count, ttl}
`)

// RedisCounter implements Counter on a shared Redis instance reachable by
// every server replica.
type RedisCounter struct {
	client redis.UniversalClient
	prefix string
}

func NewRedisCounter(client redis.UniversalClient, prefix string) *RedisCounter {
	if prefix == "" {
		prefix = "rl:"
	}
	return &RedisCounter{client: client, prefix: prefix}
}

func (c *RedisCounter) IncrementWithTTL(ctx context.Context, key string, window time.Duration) (int64, time.Duration, error) {
	raw, err := incrWithTTLScript.Run(ctx, c.client, []string{c.prefix + key}, window.Milliseconds()).Slice()
	if err != nil {
		return 0, 0, fmt.Errorf("increment counter: %w", err)
	}
	if len(raw) != 2 {
		return 0, 0, fmt.Errorf("increment counter: unexpected reply of length %d", len(raw))
	}

	count, ok := raw[0].(int64)
	if !ok {
		return 0, 0, fmt.Errorf("increment counter: unexpected count type %T", raw[0])
	}
	ttlMillis, ok := raw[1].(int64)
	if !ok {
		return 0, 0, fmt.Errorf("increment counter: unexpected ttl type %T", raw[1])
	}

	return count, time.Duration(ttlMillis) * time.Millisecond, nil
}
