package rediscache

import (
	"context"

	"github.com/pkg/errors"
)

// Incr atomically bumps an integer key. The day-view generation lives here,
// so every process sees a mutation as soon as it is counted.
func (r *RedisCache) Incr(ctx context.Context, key string) (int64, error) {
	n, err := r.c.Incr(ctx, key).Result()
	if err != nil {
		return 0, errors.Wrap(err, "redis incr")
	}
	return n, nil
}
