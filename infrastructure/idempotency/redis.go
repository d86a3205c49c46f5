package idempotency

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"ecommerce/config"

	"github.com/go-redis/redis/v8"
)

// RedisStore keeps keys in Redis; SETNX makes the claim atomic across
// replicas.
type RedisStore struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewRedisStore(rdb *redis.Client, ttl time.Duration) *RedisStore {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &RedisStore{rdb: rdb, ttl: ttl}
}

// NewRedisClient opens and pings a client from the redis config section.
func NewRedisClient(ctx context.Context, cfg config.RedisConfig) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		rdb.Close()
		return nil, fmt.Errorf("redis ping %s: %w", cfg.Addr, err)
	}
	return rdb, nil
}

func (s *RedisStore) Begin(ctx context.Context, key string) (*Entry, bool, error) {
	if key == "" {
		return nil, false, ErrEmptyKey
	}
	claim, err := json.Marshal(Entry{State: StateInProgress})
	if err != nil {
		return nil, false, err
	}

	ok, err := s.rdb.SetNX(ctx, KeyPrefix+key, claim, s.ttl).Result()
	if err != nil {
		return nil, false, fmt.Errorf("idempotency claim: %w", err)
	}
	if ok {
		return nil, true, nil
	}

	raw, err := s.rdb.Get(ctx, KeyPrefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		// expired between SETNX and GET; treat as in progress, the client retries
		return &Entry{State: StateInProgress}, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("idempotency lookup: %w", err)
	}
	var entry Entry
	if err := json.Unmarshal(raw, &entry); err != nil {
		return nil, false, fmt.Errorf("idempotency decode: %w", err)
	}
	return &entry, false, nil
}

func (s *RedisStore) Complete(ctx context.Context, key string, entry Entry) error {
	entry.State = StateCompleted
	raw, err := json.Marshal(entry)
	if err != nil {
		return err
	}
	return s.rdb.Set(ctx, KeyPrefix+key, raw, s.ttl).Err()
}

func (s *RedisStore) Release(ctx context.Context, key string) error {
	return s.rdb.Del(ctx, KeyPrefix+key).Err()
}

var _ Store = (*RedisStore)(nil)
