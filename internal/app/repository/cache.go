package repository

import (
	"context"
	"time"
)

// Cache is the key-value capability the cached repository depends on.
// Get reports a miss with found == false and a nil error.
type Cache interface {
	Get(ctx context.Context, key string) (value []byte, found bool, err error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, keys ...string) error
}
