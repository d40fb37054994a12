package agent

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/bytedance/sonic"
	"github.com/redis/go-redis/v9"
)

// Cache is a keyed value store with an optional expiry. Add stores only when
// the key is free and reports whether it did.
type Cache[S any] interface {
	Set(ctx context.Context, key string, val S) error
	Add(ctx context.Context, key string, val S) (bool, error)
	Get(ctx context.Context, key string) (S, bool, error)
	Del(ctx context.Context, key string) error
	Exists(ctx context.Context, key string) (bool, error)
}

type memoryEntry[S any] struct {
	val     S
	expires time.Time
}

// MemoryCache keeps values in process. A zero ttl never expires entries.
type MemoryCache[S any] struct {
	mu  sync.RWMutex
	m   map[string]memoryEntry[S]
	ttl time.Duration
	now func() time.Time
}

func NewMemoryCache[S any](ttl time.Duration) *MemoryCache[S] {
	return &MemoryCache[S]{
		m:   map[string]memoryEntry[S]{},
		ttl: ttl,
		now: time.Now,
	}
}

func (m *MemoryCache[S]) entry(val S) memoryEntry[S] {
	e := memoryEntry[S]{val: val}
	if m.ttl > 0 {
		e.expires = m.now().Add(m.ttl)
	}
	return e
}

func (m *MemoryCache[S]) live(e memoryEntry[S]) bool {
	return e.expires.IsZero() || m.now().Before(e.expires)
}

func (m *MemoryCache[S]) Set(ctx context.Context, key string, val S) error {
	m.mu.Lock()
	m.m[key] = m.entry(val)
	m.mu.Unlock()
	return nil
}

func (m *MemoryCache[S]) Add(ctx context.Context, key string, val S) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if e, ok := m.m[key]; ok && m.live(e) {
		return false, nil
	}
	m.m[key] = m.entry(val)
	return true, nil
}

func (m *MemoryCache[S]) Get(ctx context.Context, key string) (S, bool, error) {
	m.mu.RLock()
	e, ok := m.m[key]
	m.mu.RUnlock()
	if !ok || !m.live(e) {
		var zero S
		return zero, false, nil
	}
	return e.val, true, nil
}

func (m *MemoryCache[S]) Del(ctx context.Context, key string) error {
	m.mu.Lock()
	delete(m.m, key)
	m.mu.Unlock()
	return nil
}

func (m *MemoryCache[S]) Exists(ctx context.Context, key string) (bool, error) {
	_, ok, err := m.Get(ctx, key)
	return ok, err
}

// Sweep drops expired entries and returns how many were removed.
func (m *MemoryCache[S]) Sweep() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for k, e := range m.m {
		if !m.live(e) {
			delete(m.m, k)
			n++
		}
	}
	return n
}

// RedisCache stores sonic-encoded values in Redis. A zero ttl keeps keys
// until they are deleted.
type RedisCache[S any] struct {
	client redis.Cmdable
	ttl    time.Duration
}

func NewRedisCache[S any](client redis.Cmdable, ttl time.Duration) *RedisCache[S] {
	return &RedisCache[S]{client: client, ttl: ttl}
}

func (r *RedisCache[S]) Set(ctx context.Context, key string, val S) error {
	data, err := sonic.Marshal(val)
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}
	return r.client.Set(ctx, key, data, r.ttl).Err()
}

func (r *RedisCache[S]) Add(ctx context.Context, key string, val S) (bool, error) {
	data, err := sonic.Marshal(val)
	if err != nil {
		return false, fmt.Errorf("encode %s: %w", key, err)
	}
	return r.client.SetNX(ctx, key, data, r.ttl).Result()
}

func (r *RedisCache[S]) Get(ctx context.Context, key string) (S, bool, error) {
	var val S
	data, err := r.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return val, false, nil
	}
	if err != nil {
		return val, false, err
	}
	if err := sonic.Unmarshal(data, &val); err != nil {
		return val, false, fmt.Errorf("decode %s: %w", key, err)
	}
	return val, true, nil
}

func (r *RedisCache[S]) Del(ctx context.Context, key string) error {
	return r.client.Del(ctx, key).Err()
}

func (r *RedisCache[S]) Exists(ctx context.Context, key string) (bool, error) {
	n, err := r.client.Exists(ctx, key).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

var (
	_ Cache[*State] = (*MemoryCache[*State])(nil)
	_ Cache[*State] = (*RedisCache[*State])(nil)
)
