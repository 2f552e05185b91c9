package cache

import (
	"context"
	"errors"
	"os"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type summary struct {
	Rate int `json:"rate"`
}

func TestNilClientFallsBackToNoop(t *testing.T) {
	ctx := context.Background()

	c := NewReportCache(nil, "presence", time.Minute)
	require.NoError(t, c.Set(ctx, 0, "summary", summary{Rate: 80}))

	var got summary
	_, found, err := c.Get(ctx, "summary", &got)
	require.NoError(t, err)
	assert.False(t, found)
	assert.NoError(t, c.Invalidate(ctx))

	called := false
	err = NewLocker(nil, "presence").WithLock(ctx, "reset-all", time.Second, func(context.Context) error {
		called = true
		return nil
	})
	require.NoError(t, err)
	assert.True(t, called)
}

func TestNopLockerPropagatesError(t *testing.T) {
	boom := errors.New("boom")
	err := NopLocker{}.WithLock(context.Background(), "x", time.Second, func(context.Context) error { return boom })
	assert.ErrorIs(t, err, boom)
}

func connectTestRedis(t *testing.T) ReportCache {
	t.Helper()

	addr := os.Getenv("TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("TEST_REDIS_ADDR not set")
	}

	rdb, err := Connect(context.Background(), addr, os.Getenv("TEST_REDIS_PASSWORD"), 0)
	require.NoError(t, err)
	t.Cleanup(func() { _ = rdb.Close() })

	return NewReportCache(rdb, "presence-test-"+uuid.NewString(), time.Minute)
}

func TestRedisReportCache_InvalidateDropsEntries(t *testing.T) {
	ctx := context.Background()
	c := connectTestRedis(t)

	var got summary
	gen, found, err := c.Get(ctx, "summary", &got)
	require.NoError(t, err)
	require.False(t, found)
	require.NoError(t, c.Set(ctx, gen, "summary", summary{Rate: 75}))

	_, found, err = c.Get(ctx, "summary", &got)
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, 75, got.Rate)

	require.NoError(t, c.Invalidate(ctx))

	_, found, err = c.Get(ctx, "summary", &got)
	require.NoError(t, err)
	assert.False(t, found)
}

func TestRedisReportCache_SetAfterInvalidateStaysInOldGeneration(t *testing.T) {
	ctx := context.Background()
	c := connectTestRedis(t)

	var got summary
	gen, found, err := c.Get(ctx, "summary", &got)
	require.NoError(t, err)
	require.False(t, found)

	// a write lands between the miss and storing the report built before it
	require.NoError(t, c.Invalidate(ctx))
	require.NoError(t, c.Set(ctx, gen, "summary", summary{Rate: 50}))

	next, found, err := c.Get(ctx, "summary", &got)
	require.NoError(t, err)
	assert.False(t, found)
	assert.Equal(t, gen+1, next)
}

func TestRedisLocker_SerializesHolders(t *testing.T) {
	addr := os.Getenv("TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("TEST_REDIS_ADDR not set")
	}
	ctx := context.Background()

	rdb, err := Connect(ctx, addr, os.Getenv("TEST_REDIS_PASSWORD"), 0)
	require.NoError(t, err)
	t.Cleanup(func() { _ = rdb.Close() })

	locker := NewLocker(rdb, "presence-test-"+uuid.NewString())

	var inside, maxInside atomic.Int32
	done := make(chan error, 2)
	for i := 0; i < 2; i++ {
		go func() {
			done <- locker.WithLock(ctx, "reset-all", 5*time.Second, func(context.Context) error {
				n := inside.Add(1)
				if n > maxInside.Load() {
					maxInside.Store(n)
				}
				time.Sleep(200 * time.Millisecond)
				inside.Add(-1)
				return nil
			})
		}()
	}
	require.NoError(t, <-done)
	require.NoError(t, <-done)
	assert.Equal(t, int32(1), maxInside.Load())
}
