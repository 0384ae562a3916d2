package cache

import (
	"context"
	"time"
)

// BytesCache stores raw bytes with TTL.
type BytesCache interface {
	GetBytes(ctx context.Context, key string) (b []byte, ok bool, err error)
	SetBytes(ctx context.Context, key string, value []byte, ttl time.Duration) error
}

// GetOrLoad returns the cached value for key, or calls load and caches its
// result. Cache errors degrade to a direct load.
func GetOrLoad(ctx context.Context, c BytesCache, key string, ttl time.Duration, load func(context.Context) ([]byte, error)) ([]byte, bool, error) {
	if c == nil || ttl <= 0 {
		b, err := load(ctx)
		return b, false, err
	}
	if b, ok, err := c.GetBytes(ctx, key); err == nil && ok {
		return b, true, nil
	}
	b, err := load(ctx)
	if err != nil {
		return nil, false, err
	}
	_ = c.SetBytes(ctx, key, b, ttl)
	return b, false, nil
}
