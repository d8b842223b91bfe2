package ratelimit

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

type windowCounter struct {
	windowStart time.Time
	count       int64
}

type MemoryCounterStore struct {
	mu       sync.Mutex
	counters map[string]*windowCounter
}

func NewMemoryCounterStore() *MemoryCounterStore {
	return &MemoryCounterStore{counters: make(map[string]*windowCounter)}
}

const memorySweepThreshold = 10_000

func (s *MemoryCounterStore) Incr(ctx context.Context, key string, windowStart time.Time, window time.Duration) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.counters[key]
	if !ok || !c.windowStart.Equal(windowStart) {
		if len(s.counters) >= memorySweepThreshold {
			s.sweep(windowStart)
		}
		c = &windowCounter{windowStart: windowStart}
		s.counters[key] = c
	}
	c.count++
	return c.count, nil
}

// sweep drops counters from earlier windows. Caller holds mu.
func (s *MemoryCounterStore) sweep(current time.Time) {
	for key, c := range s.counters {
		if c.windowStart.Before(current) {
			delete(s.counters, key)
		}
	}
}

// RedisCounterStore keeps one key per caller per window so counters are
// shared across replicas and expire with their window.
type RedisCounterStore struct {
	client    *redis.Client
	keyPrefix string
}

func NewRedisCounterStore(client *redis.Client, keyPrefix string) *RedisCounterStore {
	return &RedisCounterStore{client: client, keyPrefix: keyPrefix}
}

func (s *RedisCounterStore) Incr(ctx context.Context, key string, windowStart time.Time, window time.Duration) (int64, error) {
	k := fmt.Sprintf("%s:%s:%d", s.keyPrefix, key, windowStart.Unix())

	pipe := s.client.TxPipeline()
	incr := pipe.Incr(ctx, k)
	pipe.Expire(ctx, k, window+time.Second)
	if _, err := pipe.Exec(ctx); err != nil {
		return 0, err
	}
	return incr.Val(), nil
}
