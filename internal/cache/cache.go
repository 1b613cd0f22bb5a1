package cache

import (
	"context"
	"time"
)

type BytesCache interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
}

// Counter is an atomic integer shared between processes.
type Counter interface {
	Incr(ctx context.Context, key string) (int64, error)
}

// Store is what the day-view cache needs: bytes plus a generation counter.
type Store interface {
	BytesCache
	Counter
}
