// internal/adapter/cache/redis_store.go

package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const clusterKeyPrefix = "grid:cluster:"

// NewRedisClient parses redisURL and verifies connectivity.
func NewRedisClient(ctx context.Context, redisURL string) (*redis.Client, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("redis.ParseURL(%q): %w", redisURL, err)
	}

	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}

	return client, nil
}

// RedisStore implements the engine's CacheStore and ClusterTracker contracts
// on a Redis client. Callers treat every returned error as a cache miss; this
// type only reports them.
type RedisStore struct {
	rdb *redis.Client
}

// NewRedisStore creates a RedisStore.
func NewRedisStore(rdb *redis.Client) *RedisStore {
	return &RedisStore{rdb: rdb}
}

// Get returns the cached value, or nil on a miss.
func (s *RedisStore) Get(ctx context.Context, key string) ([]byte, error) {
	data, err := s.rdb.Get(ctx, key).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("redis get: %w", err)
	}
	return data, nil
}

// Set writes a value with a TTL.
func (s *RedisStore) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if err := s.rdb.Set(ctx, key, value, ttl).Err(); err != nil {
		return fmt.Errorf("redis set: %w", err)
	}
	return nil
}

// Delete removes exact keys.
func (s *RedisStore) Delete(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	if err := s.rdb.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("redis del: %w", err)
	}
	return nil
}

// DeleteByPrefix removes every key under a prefix, scanning in batches so a
// large cell never blocks Redis.
func (s *RedisStore) DeleteByPrefix(ctx context.Context, prefix string) error {
	var cursor uint64
	for {
		keys, next, err := s.rdb.Scan(ctx, cursor, prefix+"*", 200).Result()
		if err != nil {
			return fmt.Errorf("redis scan %q: %w", prefix, err)
		}

		if len(keys) > 0 {
			if err := s.rdb.Del(ctx, keys...).Err(); err != nil {
				return fmt.Errorf("redis del batch: %w", err)
			}
		}

		cursor = next
		if cursor == 0 {
			return nil
		}
	}
}

// Touch bumps the activity counter for a grid cell and refreshes its TTL.
func (s *RedisStore) Touch(ctx context.Context, gridKey string, ttl time.Duration) error {
	key := clusterKeyPrefix + gridKey

	pipe := s.rdb.Pipeline()
	pipe.Incr(ctx, key)
	pipe.Expire(ctx, key, ttl)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("redis cluster touch: %w", err)
	}
	return nil
}

// Hottest returns up to n grid keys ordered by their recent activity count.
func (s *RedisStore) Hottest(ctx context.Context, n int) ([]string, error) {
	type cell struct {
		key   string
		count int64
	}

	var (
		cursor uint64
		cells  []cell
	)
	for {
		keys, next, err := s.rdb.Scan(ctx, cursor, clusterKeyPrefix+"*", 200).Result()
		if err != nil {
			return nil, fmt.Errorf("redis cluster scan: %w", err)
		}

		for _, key := range keys {
			count, err := s.rdb.Get(ctx, key).Int64()
			if err != nil {
				continue // expired between scan and get
			}
			cells = append(cells, cell{key: key[len(clusterKeyPrefix):], count: count})
		}

		cursor = next
		if cursor == 0 {
			break
		}
	}

	// Small list; selection by swapping beats pulling in a heap.
	for i := 0; i < len(cells) && i < n; i++ {
		max := i
		for j := i + 1; j < len(cells); j++ {
			if cells[j].count > cells[max].count {
				max = j
			}
		}
		cells[i], cells[max] = cells[max], cells[i]
	}

	if len(cells) > n {
		cells = cells[:n]
	}

	out := make([]string, len(cells))
	for i, c := range cells {
		out[i] = c.key
	}
	return out, nil
}
