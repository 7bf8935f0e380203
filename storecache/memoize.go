package storecache

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/Davincible/rx-utils/jsonutil"
)

const memoizePrefix = "CacheUtil.onceOfSameParam-"

// MemoizedOnce caches the result of a function without arguments in a Cache.
type MemoizedOnce[R any] struct {
	cache   *Cache
	key     string
	timeout Timeout
	fn      func(ctx context.Context) (R, error)
}

// MemoizeOnce returns fn wrapped so that its result is stored under identity
// for timeout. Failed calls are not cached.
func MemoizeOnce[R any](c *Cache, identity string, timeout Timeout, fn func(ctx context.Context) (R, error)) *MemoizedOnce[R] {
	return &MemoizedOnce[R]{
		cache:   c,
		key:     memoizePrefix + identity,
		timeout: timeout,
		fn:      fn,
	}
}

// Call returns the cached result or runs fn and caches it.
func (m *MemoizedOnce[R]) Call(ctx context.Context) (R, error) {
	return memoized(ctx, m.cache, m.key, m.timeout, func() (R, error) {
		return m.fn(ctx)
	})
}

// Clear drops the cached result.
func (m *MemoizedOnce[R]) Clear(ctx context.Context) error {
	return m.cache.Del(ctx, m.key)
}

// Memoized caches the results of a function per argument in a Cache.
type Memoized[A, R any] struct {
	cache    *Cache
	identity string
	timeout  Timeout
	fn       func(ctx context.Context, arg A) (R, error)
}

// Memoize returns fn wrapped so that results are stored per argument, keyed
// by identity and the JSON text of the argument.
func Memoize[A, R any](c *Cache, identity string, timeout Timeout, fn func(ctx context.Context, arg A) (R, error)) *Memoized[A, R] {
	return &Memoized[A, R]{
		cache:    c,
		identity: identity,
		timeout:  timeout,
		fn:       fn,
	}
}

func (m *Memoized[A, R]) key(arg A) (string, error) {
	k, err := jsonutil.Key(arg)
	if err != nil {
		return "", fmt.Errorf("memoize key: %w", err)
	}
	return memoizePrefix + m.identity + "-" + k, nil
}

// Call returns the cached result for arg or runs fn and caches it.
func (m *Memoized[A, R]) Call(ctx context.Context, arg A) (R, error) {
	key, err := m.key(arg)
	if err != nil {
		var zero R
		return zero, err
	}

	return memoized(ctx, m.cache, key, m.timeout, func() (R, error) {
		return m.fn(ctx, arg)
	})
}

// Clear drops the cached result for arg.
func (m *Memoized[A, R]) Clear(ctx context.Context, arg A) error {
	key, err := m.key(arg)
	if err != nil {
		return err
	}
	return m.cache.Del(ctx, key)
}

// memoized reads key from c, falling back to fn. Storage failures do not fail
// the call, they are logged and fn's result is returned as is.
func memoized[R any](ctx context.Context, c *Cache, key string, timeout Timeout, fn func() (R, error)) (R, error) {
	var cached R

	ok, err := c.Get(ctx, key, &cached)
	if err != nil {
		c.logger.Warn("reading memoized result",
			slog.String("key", key),
			slog.String("error", err.Error()),
		)
	} else if ok {
		return cached, nil
	}

	res, err := fn()
	if err != nil {
		return res, err
	}

	if err := c.Set(ctx, key, res, timeout); err != nil {
		c.logger.Warn("storing memoized result",
			slog.String("key", key),
			slog.String("error", err.Error()),
		)
	}

	return res, nil
}
