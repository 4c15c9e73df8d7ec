package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-redsync/redsync/v4"
	"github.com/go-redsync/redsync/v4/redis/goredis/v9"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

// CacheVersion is baked into catalog keys so a payload shape change
// invalidates old entries.
const CacheVersion = "v1"

// CatalogKey is the fixed key holding the aggregated model list.
const CatalogKey = "modellens:catalog:" + CacheVersion

const syncLockName = "modellens:sync:lock"

// RedisCache wraps the shared redis client with the TTL key-value
// contract the catalog needs, plus a distributed sync lock.
type RedisCache struct {
	client redis.UniversalClient
	rs     *redsync.Redsync
}

func NewRedisCache(redisURL string) (*RedisCache, error) {
	if redisURL == "" {
		return nil, fmt.Errorf("Redis URL must be provided")
	}

	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse Redis URL: %w", err)
	}
	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	log.Info().Msg("Successfully connected to Redis cache")
	rs := redsync.New(goredis.NewPool(client))
	return &RedisCache{
		client: client,
		rs:     rs,
	}, nil
}

func (r *RedisCache) Set(ctx context.Context, key string, value string, expiration time.Duration) error {
	return r.client.Set(ctx, key, value, expiration).Err()
}

func (r *RedisCache) Get(ctx context.Context, key string) (string, error) {
	val, err := r.client.Get(ctx, key).Result()
	if err != nil {
		// Cache miss is a normal condition - return redis.Nil as-is so
		// callers can check with errors.Is(err, redis.Nil)
		if err == redis.Nil {
			return "", redis.Nil
		}
		return "", fmt.Errorf("failed to get value from cache: %w", err)
	}
	return val, nil
}

func (r *RedisCache) Exists(ctx context.Context, key string) (bool, error) {
	result, err := r.client.Exists(ctx, key).Result()
	if err != nil {
		return false, fmt.Errorf("failed to check key existence: %w", err)
	}
	return result > 0, nil
}

func (r *RedisCache) Delete(ctx context.Context, key string) error {
	return r.client.Del(ctx, key).Err()
}

// SetJSON marshals a value and stores it under key with a TTL.
func (r *RedisCache) SetJSON(ctx context.Context, key string, value any, expiration time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to marshal value for cache: %w", err)
	}
	return r.Set(ctx, key, string(data), expiration)
}

// GetJSON fetches and unmarshals a cached value.
func GetJSON[T any](ctx context.Context, rdb *RedisCache, key string) (*T, error) {
	val, err := rdb.Get(ctx, key)
	if err != nil {
		return nil, err
	}

	var obj T
	if unmarshalErr := json.Unmarshal([]byte(val), &obj); unmarshalErr != nil {
		return nil, fmt.Errorf("failed to unmarshal JSON from cache: %w", unmarshalErr)
	}
	return &obj, nil
}

// IsMiss reports whether err is a plain cache miss.
func IsMiss(err error) bool {
	return err == redis.Nil
}

// AcquireSyncLock takes the distributed sync lock. The returned release
// func must be called when the run finishes; a held lock surfaces as an
// error so overlapping runs are rejected rather than queued.
func (r *RedisCache) AcquireSyncLock(ctx context.Context, ttl time.Duration) (func(), error) {
	mutex := r.rs.NewMutex(syncLockName, redsync.WithExpiry(ttl), redsync.WithTries(1))
	if err := mutex.TryLockContext(ctx); err != nil {
		return nil, err
	}
	release := func() {
		if _, err := mutex.Unlock(); err != nil {
			log.Error().Err(err).Msg("Failed to unlock sync mutex")
		}
	}
	return release, nil
}

func (r *RedisCache) Close() error {
	return r.client.Close()
}

func (r *RedisCache) HealthCheck(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}
