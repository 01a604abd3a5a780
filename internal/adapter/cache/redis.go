package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/urjalabs/solatlas/internal/observability/telemetry"
	"github.com/urjalabs/solatlas/internal/ports"
)

// RedisCache backs the estimate response cache with a Redis shared by every
// serving replica.
type RedisCache struct {
	client *redis.Client
	log    *zap.Logger
}

// NewRedisCache dials the Redis at url and verifies the connection before
// handing the cache out.
func NewRedisCache(url string, log *zap.Logger) (ports.Cache, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parsing redis url: %w", err)
	}
	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("connecting to redis at %s: %w", opts.Addr, err)
	}

	log.Info("Connected to Redis", zap.String("addr", opts.Addr))
	return &RedisCache{client: client, log: log}, nil
}

func (c *RedisCache) Get(ctx context.Context, key string) (string, error) {
	value, err := c.client.Get(ctx, key).Result()
	if err != nil {
		// An outage is not a miss; only redis.Nil counts as one.
		if errors.Is(err, redis.Nil) {
			telemetry.CacheRequestsTotal.WithLabelValues("miss").Inc()
		}
		return "", err
	}
	telemetry.CacheRequestsTotal.WithLabelValues("hit").Inc()
	return value, nil
}

func (c *RedisCache) Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error {
	strVal, err := stringValue(value)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, key, strVal, expiration).Err()
}

func (c *RedisCache) Delete(ctx context.Context, key string) error {
	return c.client.Del(ctx, key).Err()
}

func (c *RedisCache) Ping() error {
	return c.client.Ping(context.Background()).Err()
}

func (c *RedisCache) Close() error {
	return c.client.Close()
}
