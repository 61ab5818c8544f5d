// Package engagement counts inbound messages per chat subject. The count
// decides when replies carry a registration call-to-action.
package engagement

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	psync "ezyassist/pkg/platform/sync"
)

// Store holds one counter per subject. Lost increments under contention are
// acceptable; a counter must never read back as anything but a count.
type Store interface {
	Increment(ctx context.Context, subjectID int64) (int, error)
	Get(ctx context.Context, subjectID int64) (int, error)
	Reset(ctx context.Context, subjectID int64) error
}

func key(subjectID int64) string {
	return strconv.FormatInt(subjectID, 10)
}

// MemoryStore keeps counters in process memory, guarded per subject.
type MemoryStore struct {
	locks    *psync.ShardedMutex
	counters sync.Map // subject key -> *int, read and written under the key's shard
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{locks: psync.NewShardedMutex()}
}

func (s *MemoryStore) Increment(_ context.Context, subjectID int64) (int, error) {
	k := key(subjectID)
	s.locks.Lock(k)
	defer s.locks.Unlock(k)
	v, _ := s.counters.LoadOrStore(k, new(int))
	n := v.(*int)
	*n++
	return *n, nil
}

func (s *MemoryStore) Get(_ context.Context, subjectID int64) (int, error) {
	k := key(subjectID)
	s.locks.Lock(k)
	defer s.locks.Unlock(k)
	v, ok := s.counters.Load(k)
	if !ok {
		return 0, nil
	}
	return *v.(*int), nil
}

func (s *MemoryStore) Reset(_ context.Context, subjectID int64) error {
	k := key(subjectID)
	s.locks.Lock(k)
	defer s.locks.Unlock(k)
	s.counters.Delete(k)
	return nil
}

const redisKeyPrefix = "engagement:"

// RedisStore keeps counters in Redis so every bot instance sees the same
// score. INCR is atomic, so no increments are lost.
type RedisStore struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisStore returns a Redis-backed store. A positive ttl expires idle
// counters; zero keeps them until reset.
func NewRedisStore(client *redis.Client, ttl time.Duration) *RedisStore {
	return &RedisStore{client: client, ttl: ttl}
}

func (s *RedisStore) Increment(ctx context.Context, subjectID int64) (int, error) {
	k := redisKeyPrefix + key(subjectID)
	pipe := s.client.TxPipeline()
	incr := pipe.Incr(ctx, k)
	if s.ttl > 0 {
		pipe.Expire(ctx, k, s.ttl)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return 0, fmt.Errorf("increment engagement: %w", err)
	}
	return int(incr.Val()), nil
}

func (s *RedisStore) Get(ctx context.Context, subjectID int64) (int, error) {
	raw, err := s.client.Get(ctx, redisKeyPrefix+key(subjectID)).Result()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("get engagement: %w", err)
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return 0, fmt.Errorf("engagement counter for %d is not a count: %q", subjectID, raw)
	}
	return n, nil
}

func (s *RedisStore) Reset(ctx context.Context, subjectID int64) error {
	if err := s.client.Del(ctx, redisKeyPrefix+key(subjectID)).Err(); err != nil {
		return fmt.Errorf("reset engagement: %w", err)
	}
	return nil
}
