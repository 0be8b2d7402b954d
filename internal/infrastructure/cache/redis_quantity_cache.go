package cache

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/pos/backend/internal/domain/stock"
	"github.com/pos/backend/internal/infrastructure/config"
)

const defaultQuantityTTL = 60 * time.Second

// RedisQuantityCache implements stock.QuantityCache using Redis.
// This is suitable for distributed deployments where multiple instances
// serve quantity reads against the same database.
type RedisQuantityCache struct {
	client     *redis.Client
	keyPrefix  string
	defaultTTL time.Duration
}

// NewRedisQuantityCache creates a Redis-backed quantity cache and
// verifies the connection before returning.
func NewRedisQuantityCache(cfg config.RedisConfig) (*RedisQuantityCache, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr(),
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return NewRedisQuantityCacheWithClient(client, ""), nil
}

// NewRedisQuantityCacheWithClient creates a cache with an existing Redis client.
// This is useful for testing or when sharing a client across components.
func NewRedisQuantityCacheWithClient(client *redis.Client, keyPrefix string) *RedisQuantityCache {
	if keyPrefix == "" {
		keyPrefix = "stock:quantity:"
	}
	return &RedisQuantityCache{
		client:     client,
		keyPrefix:  keyPrefix,
		defaultTTL: defaultQuantityTTL,
	}
}

func (c *RedisQuantityCache) key(productID uuid.UUID) string {
	return c.keyPrefix + productID.String()
}

// Get retrieves a cached quantity. A missing key is a cache miss, not an error.
func (c *RedisQuantityCache) Get(ctx context.Context, productID uuid.UUID) (int64, bool, error) {
	val, err := c.client.Get(ctx, c.key(productID)).Result()
	if err == redis.Nil {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("failed to read cached quantity: %w", err)
	}

	quantity, err := strconv.ParseInt(val, 10, 64)
	if err != nil {
		// Corrupt entry, drop it and treat as a miss.
		_ = c.client.Del(ctx, c.key(productID)).Err()
		return 0, false, nil
	}

	return quantity, true, nil
}

func (c *RedisQuantityCache) Set(ctx context.Context, productID uuid.UUID, quantity int64, ttl time.Duration) error {
	if ttl <= 0 {
		ttl = c.defaultTTL
	}
	if err := c.client.Set(ctx, c.key(productID), strconv.FormatInt(quantity, 10), ttl).Err(); err != nil {
		return fmt.Errorf("failed to cache quantity: %w", err)
	}
	return nil
}

func (c *RedisQuantityCache) Invalidate(ctx context.Context, productID uuid.UUID) error {
	if err := c.client.Del(ctx, c.key(productID)).Err(); err != nil {
		return fmt.Errorf("failed to invalidate cached quantity: %w", err)
	}
	return nil
}

// Close closes the Redis client.
func (c *RedisQuantityCache) Close() error {
	return c.client.Close()
}

var _ stock.QuantityCache = (*RedisQuantityCache)(nil)
