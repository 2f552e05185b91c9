// Package cache stores report responses in Redis and serializes bulk operations with
// redislock. A nil Redis client turns every operation into a no-op.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/bsm/redislock"
	"github.com/redis/go-redis/v9"
)

var ErrLockNotObtained = errors.New("operation already in progress")

// Connect opens a Redis client and checks it with PING.
func Connect(ctx context.Context, addr, password string, db int) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
		PoolSize: 50,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("failed to ping redis at %s: %w", addr, err)
	}
	return rdb, nil
}

type ReportCache interface {
	// Get loads key from the current generation into dest; found is false on a miss.
	// The returned generation must be passed to Set for the value built after the miss.
	Get(ctx context.Context, key string, dest any) (gen int64, found bool, err error)
	// Set stores value under generation gen; a value built before an Invalidate lands in the
	// dropped generation and is never served
	Set(ctx context.Context, gen int64, key string, value any) error
	// Invalidate drops every entry written before the call
	Invalidate(ctx context.Context) error
}

type redisReportCache struct {
	rdb    *redis.Client
	prefix string
	ttl    time.Duration
}

// NewReportCache returns a Redis-backed cache, or a no-op cache when rdb is nil.
// Entries are namespaced by a generation counter so invalidation is a single INCR.
func NewReportCache(rdb *redis.Client, prefix string, ttl time.Duration) ReportCache {
	if rdb == nil {
		return NopReportCache{}
	}
	return &redisReportCache{rdb: rdb, prefix: prefix, ttl: ttl}
}

func (c *redisReportCache) versionKey() string {
	return c.prefix + ":version"
}

func (c *redisReportCache) generation(ctx context.Context) (int64, error) {
	gen, err := c.rdb.Get(ctx, c.versionKey()).Int64()
	if err != nil && !errors.Is(err, redis.Nil) {
		return 0, err
	}
	return gen, nil
}

func (c *redisReportCache) entryKey(gen int64, key string) string {
	return fmt.Sprintf("%s:v%d:%s", c.prefix, gen, key)
}

func (c *redisReportCache) Get(ctx context.Context, key string, dest any) (int64, bool, error) {
	gen, err := c.generation(ctx)
	if err != nil {
		return 0, false, err
	}

	val, err := c.rdb.Get(ctx, c.entryKey(gen, key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return gen, false, nil
	}
	if err != nil {
		return gen, false, err
	}

	if err := json.Unmarshal(val, dest); err != nil {
		return gen, false, fmt.Errorf("failed to decode cached %s: %w", key, err)
	}
	return gen, true, nil
}

func (c *redisReportCache) Set(ctx context.Context, gen int64, key string, value any) error {
	b, err := json.Marshal(value)
	if err != nil {
		return err
	}
	return c.rdb.Set(ctx, c.entryKey(gen, key), b, c.ttl).Err()
}

func (c *redisReportCache) Invalidate(ctx context.Context) error {
	return c.rdb.Incr(ctx, c.versionKey()).Err()
}

type NopReportCache struct{}

func (NopReportCache) Get(context.Context, string, any) (int64, bool, error) { return 0, false, nil }
func (NopReportCache) Set(context.Context, int64, string, any) error         { return nil }
func (NopReportCache) Invalidate(context.Context) error                      { return nil }

type Locker interface {
	// WithLock runs fn while holding the named lock
	WithLock(ctx context.Context, name string, ttl time.Duration, fn func(ctx context.Context) error) error
}

type redisLocker struct {
	locker *redislock.Client
	prefix string
}

// NewLocker returns a redislock-backed locker, or one that runs fn directly when rdb is nil.
func NewLocker(rdb *redis.Client, prefix string) Locker {
	if rdb == nil {
		return NopLocker{}
	}
	return &redisLocker{locker: redislock.New(rdb), prefix: prefix}
}

func (l *redisLocker) WithLock(ctx context.Context, name string, ttl time.Duration, fn func(ctx context.Context) error) error {
	key := fmt.Sprintf("%s:lock:%s", l.prefix, name)
	lock, err := l.locker.Obtain(ctx, key, ttl, &redislock.Options{
		RetryStrategy: redislock.LimitRetry(redislock.LinearBackoff(100*time.Millisecond), 20),
	})
	if errors.Is(err, redislock.ErrNotObtained) {
		return fmt.Errorf("%w: %s", ErrLockNotObtained, name)
	}
	if err != nil {
		return fmt.Errorf("failed to obtain lock %s: %w", name, err)
	}
	defer func() {
		if releaseErr := lock.Release(context.WithoutCancel(ctx)); releaseErr != nil && !errors.Is(releaseErr, redislock.ErrLockNotHeld) {
			slog.Warn("failed to release redis lock", "lock", key, "error", releaseErr)
		}
	}()

	return fn(ctx)
}

type NopLocker struct{}

func (NopLocker) WithLock(ctx context.Context, _ string, _ time.Duration, fn func(ctx context.Context) error) error {
	return fn(ctx)
}
