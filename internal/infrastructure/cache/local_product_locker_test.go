package cache

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/erp/stockledger/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalProductLocker_Lock(t *testing.T) {
	ctx := context.Background()

	t.Run("locks and releases", func(t *testing.T) {
		locker := NewLocalProductLocker(time.Second)
		a, b := uuid.New(), uuid.New()

		release, err := locker.Lock(ctx, a, b)
		require.NoError(t, err)
		assert.Equal(t, 2, locker.Size())

		release()
		assert.Equal(t, 0, locker.Size(), "released slots should be dropped")
	})

	t.Run("release is idempotent", func(t *testing.T) {
		locker := NewLocalProductLocker(time.Second)
		id := uuid.New()

		release, err := locker.Lock(ctx, id)
		require.NoError(t, err)
		release()
		release()

		release, err = locker.Lock(ctx, id)
		require.NoError(t, err)
		release()
	})

	t.Run("times out while another holder keeps the product", func(t *testing.T) {
		locker := NewLocalProductLocker(20 * time.Millisecond)
		id := uuid.New()

		release, err := locker.Lock(ctx, id)
		require.NoError(t, err)
		defer release()

		_, err = locker.Lock(ctx, id)
		assert.ErrorIs(t, err, shared.ErrLockTimeout)
	})

	t.Run("partial acquisition is rolled back on timeout", func(t *testing.T) {
		locker := NewLocalProductLocker(20 * time.Millisecond)
		free, busy := uuid.New(), uuid.New()

		release, err := locker.Lock(ctx, busy)
		require.NoError(t, err)

		_, err = locker.Lock(ctx, free, busy)
		require.ErrorIs(t, err, shared.ErrLockTimeout)

		other, err := locker.Lock(ctx, free)
		require.NoError(t, err, "free product must not stay locked after a failed attempt")
		other()
		release()
		assert.Equal(t, 0, locker.Size())
	})

	t.Run("respects context cancellation", func(t *testing.T) {
		locker := NewLocalProductLocker(0)
		id := uuid.New()

		release, err := locker.Lock(ctx, id)
		require.NoError(t, err)
		defer release()

		cancelled, cancel := context.WithCancel(ctx)
		cancel()
		_, err = locker.Lock(cancelled, id)
		assert.ErrorIs(t, err, shared.ErrLockTimeout)
	})

	t.Run("different products do not block each other", func(t *testing.T) {
		locker := NewLocalProductLocker(20 * time.Millisecond)

		first, err := locker.Lock(ctx, uuid.New())
		require.NoError(t, err)
		defer first()

		second, err := locker.Lock(ctx, uuid.New())
		require.NoError(t, err)
		second()
	})
}

func TestLocalProductLocker_MutualExclusion(t *testing.T) {
	locker := NewLocalProductLocker(5 * time.Second)
	ctx := context.Background()
	id := uuid.New()

	var inside, maxInside int32
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			release, err := locker.Lock(ctx, id)
			if !assert.NoError(t, err) {
				return
			}
			n := atomic.AddInt32(&inside, 1)
			for {
				m := atomic.LoadInt32(&maxInside)
				if n <= m || atomic.CompareAndSwapInt32(&maxInside, m, n) {
					break
				}
			}
			time.Sleep(time.Millisecond)
			atomic.AddInt32(&inside, -1)
			release()
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), maxInside, "only one holder at a time")
	assert.Equal(t, 0, locker.Size())
}
