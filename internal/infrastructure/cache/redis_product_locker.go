package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/bsm/redislock"
	appinv "github.com/erp/stockledger/internal/application/inventory"
	"github.com/erp/stockledger/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const defaultLockKeyPrefix = "stockledger:lock:product:"

// RedisProductLocker serializes allocation per product across every process
// sharing the Redis server
type RedisProductLocker struct {
	client    *redislock.Client
	ttl       time.Duration
	timeout   time.Duration
	backoff   time.Duration
	keyPrefix string
	logger    *zap.Logger
}

// NewRedisProductLocker creates a locker on an existing Redis client.
// Each lock lives for ttl unless released; acquisition gives up after timeout.
func NewRedisProductLocker(client *redis.Client, ttl, timeout time.Duration, logger *zap.Logger) *RedisProductLocker {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RedisProductLocker{
		client:    redislock.New(client),
		ttl:       ttl,
		timeout:   timeout,
		backoff:   50 * time.Millisecond,
		keyPrefix: defaultLockKeyPrefix,
		logger:    logger,
	}
}

// Lock obtains one Redis lock per product in the given order
func (l *RedisProductLocker) Lock(ctx context.Context, productIDs ...uuid.UUID) (func(), error) {
	if l.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, l.timeout)
		defer cancel()
	}

	held := make([]*redislock.Lock, 0, len(productIDs))
	for _, id := range productIDs {
		lock, err := l.client.Obtain(ctx, l.keyPrefix+id.String(), l.ttl, &redislock.Options{
			RetryStrategy: redislock.LinearBackoff(l.backoff),
		})
		if err != nil {
			l.unlock(held)
			if errors.Is(err, redislock.ErrNotObtained) || errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
				l.logger.Warn("product lock not obtained", zap.String("product_id", id.String()))
				return nil, shared.ErrLockTimeout
			}
			return nil, fmt.Errorf("failed to obtain product lock: %w", err)
		}
		held = append(held, lock)
	}

	return func() { l.unlock(held) }, nil
}

// unlock releases held locks in reverse order. Release uses a fresh context so
// locks are freed even after the caller's context is done.
func (l *RedisProductLocker) unlock(held []*redislock.Lock) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	for i := len(held) - 1; i >= 0; i-- {
		if err := held[i].Release(ctx); err != nil && !errors.Is(err, redislock.ErrLockNotHeld) {
			l.logger.Warn("failed to release product lock", zap.String("key", held[i].Key()), zap.Error(err))
		}
	}
}

var _ appinv.ProductLocker = (*RedisProductLocker)(nil)
