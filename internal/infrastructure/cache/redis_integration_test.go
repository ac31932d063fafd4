//go:build integration

package cache

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/erp/stockledger/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

// newTestRedis starts a Redis container and returns a connected client
func newTestRedis(t *testing.T) *redis.Client {
	t.Helper()
	ctx := context.Background()

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "redis:7-alpine",
			ExposedPorts: []string{"6379/tcp"},
			WaitingFor:   wait.ForLog("Ready to accept connections").WithStartupTimeout(60 * time.Second),
		},
		Started: true,
	})
	require.NoError(t, err, "Failed to start Redis container")
	t.Cleanup(func() { _ = container.Terminate(context.Background()) })

	host, err := container.Host(ctx)
	require.NoError(t, err)
	port, err := container.MappedPort(ctx, "6379/tcp")
	require.NoError(t, err)

	client := redis.NewClient(&redis.Options{Addr: fmt.Sprintf("%s:%s", host, port.Port())})
	require.NoError(t, client.Ping(ctx).Err())
	t.Cleanup(func() { _ = client.Close() })
	return client
}

func TestRedisProductLocker(t *testing.T) {
	client := newTestRedis(t)
	ctx := context.Background()

	t.Run("second holder times out until release", func(t *testing.T) {
		first := NewRedisProductLocker(client, 30*time.Second, 200*time.Millisecond, nil)
		second := NewRedisProductLocker(client, 30*time.Second, 200*time.Millisecond, nil)
		id := uuid.New()

		release, err := first.Lock(ctx, id)
		require.NoError(t, err)

		_, err = second.Lock(ctx, id)
		assert.ErrorIs(t, err, shared.ErrLockTimeout)

		release()
		again, err := second.Lock(ctx, id)
		require.NoError(t, err)
		again()
	})

	t.Run("failed multi-product lock releases what it took", func(t *testing.T) {
		locker := NewRedisProductLocker(client, 30*time.Second, 200*time.Millisecond, nil)
		free, busy := uuid.New(), uuid.New()

		release, err := locker.Lock(ctx, busy)
		require.NoError(t, err)
		defer release()

		_, err = locker.Lock(ctx, free, busy)
		require.ErrorIs(t, err, shared.ErrLockTimeout)

		exists, err := client.Exists(ctx, defaultLockKeyPrefix+free.String()).Result()
		require.NoError(t, err)
		assert.Zero(t, exists)
	})
}

func TestRedisSearchCache(t *testing.T) {
	client := newTestRedis(t)
	ctx := context.Background()
	c := NewRedisSearchCache(client, time.Minute, nil)

	_, ok := c.Get(ctx, "wid")
	assert.False(t, ok)

	items := lookups("WID-1", "WID-2")
	c.Set(ctx, "wid", items)

	got, ok := c.Get(ctx, "wid")
	require.True(t, ok)
	assert.Equal(t, items, got)

	c.Invalidate(ctx)
	_, ok = c.Get(ctx, "wid")
	assert.False(t, ok)
}
