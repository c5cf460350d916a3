package keylock_test

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"pizzeria/internal/pkg/keylock"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocker_SerializesSameKey(t *testing.T) {
	locker := keylock.New()
	ctx := t.Context()

	var inside, maxInside atomic.Int32
	var wg sync.WaitGroup
	for range 20 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			unlock, err := locker.Lock(ctx, "order-1")
			if !assert.NoError(t, err) {
				return
			}
			n := inside.Add(1)
			for {
				current := maxInside.Load()
				if n <= current || maxInside.CompareAndSwap(current, n) {
					break
				}
			}
			time.Sleep(time.Millisecond)
			inside.Add(-1)
			unlock()
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), maxInside.Load())
}

func TestLocker_DifferentKeysDoNotBlock(t *testing.T) {
	locker := keylock.New()
	ctx := t.Context()

	unlockA, err := locker.Lock(ctx, "a")
	require.NoError(t, err)
	defer unlockA()

	waitCtx, cancel := context.WithTimeout(ctx, 100*time.Millisecond)
	defer cancel()
	unlockB, err := locker.Lock(waitCtx, "b")
	require.NoError(t, err)
	unlockB()
}

func TestLocker_LockHonoursContext(t *testing.T) {
	locker := keylock.New()

	unlock, err := locker.Lock(t.Context(), "order-1")
	require.NoError(t, err)
	defer unlock()

	ctx, cancel := context.WithTimeout(t.Context(), 20*time.Millisecond)
	defer cancel()

	_, err = locker.Lock(ctx, "order-1")
	require.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestLocker_UnlockIsIdempotent(t *testing.T) {
	locker := keylock.New()

	unlock, err := locker.Lock(t.Context(), "k")
	require.NoError(t, err)
	unlock()
	unlock()

	again, err := locker.Lock(t.Context(), "k")
	require.NoError(t, err)
	again()
}

func TestLocker_Prune(t *testing.T) {
	locker := keylock.New()
	ctx := t.Context()

	held, err := locker.Lock(ctx, "held")
	require.NoError(t, err)
	released, err := locker.Lock(ctx, "released")
	require.NoError(t, err)
	released()

	assert.Equal(t, 2, locker.Len())
	assert.Equal(t, 1, locker.Prune())
	assert.Equal(t, 1, locker.Len())

	held()
	assert.Equal(t, 1, locker.Prune())
	assert.Equal(t, 0, locker.Len())
}
