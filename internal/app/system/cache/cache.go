// Package cache stores small byte values with a TTL. Redis is used when a
// URL is configured; otherwise an in-process map stands in.
package cache

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Cache is the subset of key/value operations the app needs.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	Close() error
}

// New returns a Redis-backed cache when redisURL is set and a memory cache
// otherwise.
func New(redisURL string, logger *zap.Logger) (Cache, error) {
	if redisURL == "" {
		logger.Info("cache: using in-memory store")
		return NewMemory(), nil
	}
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, err
	}
	logger.Info("cache: using redis", zap.String("addr", opts.Addr), zap.Int("db", opts.DB))
	return &redisCache{client: redis.NewClient(opts)}, nil
}

/* ------------------------------- redis ---------------------------------- */

type redisCache struct {
	client *redis.Client
}

func (c *redisCache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	b, err := c.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return b, true, nil
}

func (c *redisCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	return c.client.Set(ctx, key, value, ttl).Err()
}

func (c *redisCache) Delete(ctx context.Context, key string) error {
	return c.client.Del(ctx, key).Err()
}

func (c *redisCache) Close() error { return c.client.Close() }

/* ------------------------------- memory --------------------------------- */

type item struct {
	value     []byte
	expiresAt time.Time
}

// Memory is a mutex-guarded map. Expired entries are dropped on read.
type Memory struct {
	mu    sync.Mutex
	items map[string]item
	now   func() time.Time
}

// NewMemory returns an empty in-memory cache.
func NewMemory() *Memory {
	return &Memory{items: make(map[string]item), now: time.Now}
}

func (m *Memory) Get(_ context.Context, key string) ([]byte, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	it, ok := m.items[key]
	if !ok {
		return nil, false, nil
	}
	if !it.expiresAt.IsZero() && m.now().After(it.expiresAt) {
		delete(m.items, key)
		return nil, false, nil
	}
	return it.value, true, nil
}

func (m *Memory) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	it := item{value: append([]byte(nil), value...)}
	if ttl > 0 {
		it.expiresAt = m.now().Add(ttl)
	}
	m.items[key] = it
	return nil
}

func (m *Memory) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	delete(m.items, key)
	m.mu.Unlock()
	return nil
}

func (m *Memory) Close() error { return nil }
