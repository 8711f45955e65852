// Package idempotency remembers the keys of the requests already processed.
package idempotency

import (
	"context"
	"sync"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/pkg/errors"

	"github.com/trezcool/madrasa/core"
)

const keyPrefix = "madrasa:idempotency:"

// Store claims request keys. A key can be claimed once until it expires.
type Store interface {
	// Claim reports whether key was free, in which case it now belongs to the caller.
	Claim(ctx context.Context, key string) (bool, error)
	// Release frees a claimed key so that the request can be retried.
	Release(ctx context.Context, key string) error
}

type redisStore struct {
	rdb *redis.Client
	ttl time.Duration
}

var _ Store = (*redisStore)(nil)

// NewRedisClient connects to redis and checks that it answers.
func NewRedisClient(ctx context.Context, conf core.RedisConfig) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     conf.Addr,
		Password: conf.Password,
		DB:       conf.DB,
	})

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, errors.Wrap(err, "pinging redis")
	}
	return rdb, nil
}

// NewRedisStore claims keys with SETNX. Keys never expire when ttl <= 0.
func NewRedisStore(rdb *redis.Client, ttl time.Duration) Store {
	if ttl < 0 {
		ttl = 0
	}
	return &redisStore{rdb: rdb, ttl: ttl}
}

func (s *redisStore) Claim(ctx context.Context, key string) (bool, error) {
	ok, err := s.rdb.SetNX(ctx, keyPrefix+key, time.Now().UTC().Format(time.RFC3339), s.ttl).Result()
	if err != nil {
		return false, errors.Wrap(err, "claiming idempotency key")
	}
	return ok, nil
}

func (s *redisStore) Release(ctx context.Context, key string) error {
	return errors.Wrap(s.rdb.Del(ctx, keyPrefix+key).Err(), "releasing idempotency key")
}

type memoryStore struct {
	mu    sync.Mutex
	keys  map[string]time.Time // key: expiry, zero when the key never expires
	ttl   time.Duration
	clock core.Clock
}

var _ Store = (*memoryStore)(nil)

// NewMemoryStore keeps the keys in the process. Used when no redis is configured.
// Keys never expire when ttl <= 0, as with redis.
func NewMemoryStore(ttl time.Duration, clock core.Clock) Store {
	return &memoryStore{keys: make(map[string]time.Time), ttl: ttl, clock: clock}
}

func expired(exp, now time.Time) bool {
	return !exp.IsZero() && !now.Before(exp)
}

func (s *memoryStore) Claim(_ context.Context, key string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.clock.Now()
	if exp, ok := s.keys[key]; ok && !expired(exp, now) {
		return false, nil
	}

	var exp time.Time
	if s.ttl > 0 {
		exp = now.Add(s.ttl)
	}
	s.keys[key] = exp

	// drop expired keys
	for k, exp := range s.keys {
		if expired(exp, now) {
			delete(s.keys, k)
		}
	}
	return true, nil
}

func (s *memoryStore) Release(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.keys, key)
	return nil
}
