// Package counter provides the atomic increment-with-expiry primitive that
// backs the rate limiter. The only cross-instance shared state in the
// security core lives behind this interface.
package counter

import (
	"context"
	"time"
)

// Counter atomically increments the integer at key, attaching window as the
// TTL when the key is created. It returns the post-increment count and the
// remaining window time.
type Counter interface {
	IncrementWithTTL(ctx context.Context, key string, window time.Duration) (count int64, ttlRemaining time.Duration, err error)
}
