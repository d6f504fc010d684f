package service

import (
	"context"
	"time"
)

// Cache is the subset of *cache.Client services rely on. Implementations
// must treat failures as misses.
type Cache interface {
	GetJSON(ctx context.Context, key string, dst interface{}) bool
	SetJSON(ctx context.Context, key string, value interface{}, ttl time.Duration)
	Delete(ctx context.Context, keys ...string) error
}
