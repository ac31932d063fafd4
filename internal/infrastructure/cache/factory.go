package cache

import (
	"fmt"
	"io"

	appcatalog "github.com/erp/stockledger/internal/application/catalog"
	appinv "github.com/erp/stockledger/internal/application/inventory"
	"github.com/erp/stockledger/internal/infrastructure/config"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Components are the coordination pieces built from configuration
type Components struct {
	Locker      appinv.ProductLocker
	SearchCache appcatalog.SearchCache
	closers     []io.Closer
}

// Close releases the Redis client and stops background goroutines
func (c *Components) Close() error {
	var firstErr error
	for _, closer := range c.closers {
		if err := closer.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// Factory creates product lockers and search caches based on configuration
type Factory struct {
	redisConfig           config.RedisConfig
	allocation            config.AllocationConfig
	logger                *zap.Logger
	allowInMemoryFallback bool
	dial                  func(config.RedisConfig) (*redis.Client, error)
}

// FactoryOption is a functional option for configuring the factory
type FactoryOption func(*Factory)

// WithLogger sets the logger for the factory
func WithLogger(logger *zap.Logger) FactoryOption {
	return func(f *Factory) {
		f.logger = logger
	}
}

// WithInMemoryFallback controls whether to fall back to local components when
// Redis is unavailable. Default is true.
func WithInMemoryFallback(allow bool) FactoryOption {
	return func(f *Factory) {
		f.allowInMemoryFallback = allow
	}
}

// NewFactory creates a new factory
func NewFactory(redisCfg config.RedisConfig, allocation config.AllocationConfig, opts ...FactoryOption) *Factory {
	f := &Factory{
		redisConfig:           redisCfg,
		allocation:            allocation,
		logger:                zap.NewNop(),
		allowInMemoryFallback: true,
		dial:                  NewRedisClient,
	}

	for _, opt := range opts {
		opt(f)
	}

	return f
}

// Build creates the locker and search cache. When Redis is enabled the search
// cache is shared through Redis; the locker uses Redis only when the lock
// backend asks for it. If Redis cannot be reached and fallback is allowed,
// process-local components are used instead.
func (f *Factory) Build() (*Components, error) {
	if !f.redisConfig.Enabled {
		return f.local(), nil
	}

	client, err := f.dial(f.redisConfig)
	if err != nil {
		if !f.allowInMemoryFallback {
			return nil, fmt.Errorf("Redis required but unavailable: %w", err)
		}
		f.logger.Warn("Redis unavailable, falling back to in-process lock and search cache. "+
			"Allocation is then only serialized within this instance.",
			zap.Error(err),
		)
		return f.local(), nil
	}

	components := &Components{
		SearchCache: NewRedisSearchCache(client, f.allocation.SearchCacheTTL, f.logger),
		closers:     []io.Closer{client},
	}
	if f.allocation.LockBackend == config.LockBackendRedis {
		components.Locker = NewRedisProductLocker(client, f.allocation.LockTTL, f.allocation.LockTimeout, f.logger)
		f.logger.Info("using Redis product locks")
	} else {
		components.Locker = NewLocalProductLocker(f.allocation.LockTimeout)
		f.logger.Info("using in-process product locks")
	}
	return components, nil
}

func (f *Factory) local() *Components {
	searchCache := NewInMemorySearchCache(f.allocation.SearchCacheTTL)
	return &Components{
		Locker:      NewLocalProductLocker(f.allocation.LockTimeout),
		SearchCache: searchCache,
		closers:     []io.Closer{searchCache},
	}
}
