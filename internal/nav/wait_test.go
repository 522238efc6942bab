package nav

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestWaitUntilImmediatelySatisfied(t *testing.T) {
	start := time.Now()
	outcome := WaitUntil(context.Background(), func() bool { return true }, time.Millisecond, 0)
	assert.Equal(t, SATISFIED, outcome)
	assert.Less(t, time.Since(start), 100*time.Millisecond, "true predicate must not wait a poll interval")
}

func TestWaitUntilSatisfiedAfterPolls(t *testing.T) {
	var calls atomic.Int32
	pred := func() bool {
		return calls.Add(1) >= 3
	}
	outcome := WaitUntil(context.Background(), pred, time.Millisecond, time.Second)
	assert.Equal(t, SATISFIED, outcome)
	assert.GreaterOrEqual(t, calls.Load(), int32(3))
}

func TestWaitUntilTimesOut(t *testing.T) {
	start := time.Now()
	outcome := WaitUntil(context.Background(), func() bool { return false }, time.Millisecond, 20*time.Millisecond)
	elapsed := time.Since(start)

	assert.Equal(t, TIMED_OUT, outcome)
	assert.GreaterOrEqual(t, elapsed, 20*time.Millisecond)
	assert.Less(t, elapsed, 2*time.Second, "timeout must not overshoot wildly")
}

func TestWaitUntilCancelled(t *testing.T) {
	t.Run("cancelled mid wait", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		go func() {
			time.Sleep(5 * time.Millisecond)
			cancel()
		}()
		outcome := WaitUntil(ctx, func() bool { return false }, time.Millisecond, time.Second)
		assert.Equal(t, CANCELLED, outcome)
	})

	t.Run("already cancelled", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		outcome := WaitUntil(ctx, func() bool { return false }, time.Millisecond, time.Second)
		assert.Equal(t, CANCELLED, outcome)
	})

	t.Run("satisfied wins over stale cancellation", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		outcome := WaitUntil(ctx, func() bool { return true }, time.Millisecond, time.Second)
		assert.Equal(t, SATISFIED, outcome)
	})
}
