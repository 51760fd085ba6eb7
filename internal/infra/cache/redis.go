package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/boddenberg/br-lookup-go/internal/domain"
)

// KeyPrefix namespaces every key written by Redis.
const KeyPrefix = "brlookup:"

type envelope struct {
	Kind      domain.Kind     `json:"kind"`
	Record    json.RawMessage `json:"record"`
	CreatedAt time.Time       `json:"created_at"`
	ExpiresAt time.Time       `json:"expires_at"`
}

// Redis is a Redis-backed record cache for deployments where several
// processes share resolutions. Expiry is delegated to Redis key TTLs, so
// ClearExpired has nothing to do and Stats never reports expired entries.
//
// Redis errors are logged and reported as misses; the cache is never a
// source of truth.
type Redis struct {
	client *redis.Client
	ttl    time.Duration
	logger *zap.Logger
}

// NewRedisClient parses url, connects and pings.
func NewRedisClient(ctx context.Context, url string) (*redis.Client, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis URL: %w", err)
	}

	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}
	return client, nil
}

// NewRedis wraps an existing client. The client lifecycle is managed by the caller.
func NewRedis(client *redis.Client, ttl time.Duration, logger *zap.Logger) *Redis {
	return &Redis{client: client, ttl: ttl, logger: logger}
}

// Get decodes the stored envelope back into a typed record.
func (c *Redis) Get(ctx context.Context, key string) (domain.Record, bool) {
	raw, err := c.client.Get(ctx, KeyPrefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false
	}
	if err != nil {
		c.logger.Warn("redis cache get failed", zap.String("key", key), zap.Error(err))
		return nil, false
	}

	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		c.logger.Warn("redis cache envelope corrupt", zap.String("key", key), zap.Error(err))
		return nil, false
	}
	rec, err := domain.DecodeRecord(env.Kind, env.Record)
	if err != nil {
		c.logger.Warn("redis cache record corrupt", zap.String("key", key), zap.Error(err))
		return nil, false
	}
	return rec, true
}

// Set stores value with a Redis-native TTL. A ttl <= 0 uses the default.
func (c *Redis) Set(ctx context.Context, key string, value domain.Record, ttl time.Duration) {
	if ttl <= 0 {
		ttl = c.ttl
	}

	body, err := json.Marshal(value)
	if err != nil {
		c.logger.Warn("redis cache marshal failed", zap.String("key", key), zap.Error(err))
		return
	}
	now := time.Now().UTC()
	payload, err := json.Marshal(envelope{
		Kind:      value.RecordKind(),
		Record:    body,
		CreatedAt: now,
		ExpiresAt: now.Add(ttl),
	})
	if err != nil {
		c.logger.Warn("redis cache marshal failed", zap.String("key", key), zap.Error(err))
		return
	}

	if err := c.client.Set(ctx, KeyPrefix+key, payload, ttl).Err(); err != nil {
		c.logger.Warn("redis cache set failed", zap.String("key", key), zap.Error(err))
	}
}

// Clear deletes every prefixed key and returns how many were removed.
func (c *Redis) Clear(ctx context.Context) int {
	keys, err := c.keys(ctx)
	if err != nil {
		c.logger.Warn("redis cache scan failed", zap.Error(err))
		return 0
	}
	if len(keys) == 0 {
		return 0
	}

	n, err := c.client.Del(ctx, keys...).Result()
	if err != nil {
		c.logger.Warn("redis cache clear failed", zap.Error(err))
		return 0
	}
	return int(n)
}

// ClearExpired is a no-op: Redis drops expired keys itself.
func (c *Redis) ClearExpired(context.Context) int {
	return 0
}

// Stats counts live prefixed keys.
func (c *Redis) Stats(ctx context.Context) domain.CacheStats {
	keys, err := c.keys(ctx)
	if err != nil {
		c.logger.Warn("redis cache scan failed", zap.Error(err))
		return domain.CacheStats{}
	}
	return domain.CacheStats{Total: len(keys), Active: len(keys)}
}

// Health checks if the Redis connection is healthy.
func (c *Redis) Health(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

func (c *Redis) keys(ctx context.Context) ([]string, error) {
	var keys []string
	iter := c.client.Scan(ctx, 0, KeyPrefix+"*", 100).Iterator()
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	return keys, iter.Err()
}
