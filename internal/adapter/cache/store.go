// Package cache provides key/value stores used to share geocoding results.
// The worker runs once per notification, so only the Redis backend survives
// across invocations; the memory backend suits tests and local runs.
package cache

import (
	"context"
	"time"
)

// Store is a byte-oriented cache with per-entry TTL.
type Store interface {
	Get(ctx context.Context, key string) (value []byte, found bool, err error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Close() error
}
