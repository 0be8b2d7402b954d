package cache

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/pos/backend/internal/domain/stock"
	"github.com/pos/backend/internal/infrastructure/config"
)

// QuantityCacheFactory creates quantity caches based on configuration.
type QuantityCacheFactory struct {
	redisConfig           config.RedisConfig
	logger                *zap.Logger
	allowInMemoryFallback bool
}

// QuantityCacheFactoryOption is a functional option for configuring the factory.
type QuantityCacheFactoryOption func(*QuantityCacheFactory)

// WithLogger sets the logger for the factory.
func WithLogger(logger *zap.Logger) QuantityCacheFactoryOption {
	return func(f *QuantityCacheFactory) {
		f.logger = logger
	}
}

// WithInMemoryFallback controls whether to fall back to an in-memory cache
// when Redis is unavailable. Default is true.
func WithInMemoryFallback(allow bool) QuantityCacheFactoryOption {
	return func(f *QuantityCacheFactory) {
		f.allowInMemoryFallback = allow
	}
}

// NewQuantityCacheFactory creates a new factory.
func NewQuantityCacheFactory(cfg config.RedisConfig, opts ...QuantityCacheFactoryOption) *QuantityCacheFactory {
	f := &QuantityCacheFactory{
		redisConfig:           cfg,
		logger:                zap.NewNop(),
		allowInMemoryFallback: true,
	}

	for _, opt := range opts {
		opt(f)
	}

	return f
}

// CreateCache creates a quantity cache based on the Redis configuration.
// When Redis is disabled in config, a no-op cache is returned and every
// read falls through to the database. When Redis is enabled but
// unreachable, it falls back to an in-memory cache unless the fallback
// has been disabled.
func (f *QuantityCacheFactory) CreateCache() (stock.QuantityCache, error) {
	if !f.redisConfig.Enabled {
		f.logger.Info("quantity cache disabled")
		return stock.NopQuantityCache{}, nil
	}

	cache, err := NewRedisQuantityCache(f.redisConfig)
	if err == nil {
		f.logger.Info("using Redis quantity cache",
			zap.String("addr", f.redisConfig.Addr()),
		)
		return cache, nil
	}

	if !f.allowInMemoryFallback {
		return nil, fmt.Errorf("Redis required for quantity cache but unavailable: %w", err)
	}

	f.logger.Warn("Redis unavailable, falling back to in-memory quantity cache. "+
		"Cached quantities will not be shared across instances.",
		zap.Error(err),
	)
	return NewInMemoryQuantityCache(), nil
}
