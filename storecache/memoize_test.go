package storecache

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoizeOnce(t *testing.T) {
	ctx := context.Background()
	clock := newClock()
	c := newTestCache(t, NewMemoryStorage(), clock, 0)

	calls := 0
	m := MemoizeOnce(c, "config", Timeout(time.Minute), func(context.Context) (string, error) {
		calls++
		return "loaded", nil
	})

	for range 3 {
		v, err := m.Call(ctx)
		require.NoError(t, err)
		assert.Equal(t, "loaded", v)
	}
	assert.Equal(t, 1, calls)

	ok, err := c.Get(ctx, "CacheUtil.onceOfSameParam-config", nil)
	require.NoError(t, err)
	assert.True(t, ok)

	clock.Advance(2 * time.Minute)
	_, err = m.Call(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, calls)

	require.NoError(t, m.Clear(ctx))
	_, err = m.Call(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, calls)
}

func TestMemoizePerArgument(t *testing.T) {
	ctx := context.Background()
	c := newTestCache(t, NewMemoryStorage(), newClock(), 0)

	calls := map[int]int{}
	sum := Memoize(c, "sum", Infinite, func(_ context.Context, xs []int) (int, error) {
		calls[len(xs)]++
		total := 0
		for _, x := range xs {
			total += x
		}
		return total, nil
	})

	v, err := sum.Call(ctx, []int{1, 2})
	require.NoError(t, err)
	assert.Equal(t, 3, v)

	v, err = sum.Call(ctx, []int{1, 2})
	require.NoError(t, err)
	assert.Equal(t, 3, v)

	v, err = sum.Call(ctx, []int{1, 2, 3})
	require.NoError(t, err)
	assert.Equal(t, 6, v)

	assert.Equal(t, map[int]int{2: 1, 3: 1}, calls)

	ok, err := c.Get(ctx, "CacheUtil.onceOfSameParam-sum-[1,2]", nil)
	require.NoError(t, err)
	assert.True(t, ok)

	require.NoError(t, sum.Clear(ctx, []int{1, 2}))
	_, err = sum.Call(ctx, []int{1, 2})
	require.NoError(t, err)
	assert.Equal(t, 2, calls[2])
}

func TestMemoizeDoesNotCacheErrors(t *testing.T) {
	ctx := context.Background()
	c := newTestCache(t, NewMemoryStorage(), newClock(), 0)

	boom := errors.New("boom")
	calls := 0
	m := Memoize(c, "flaky", Infinite, func(_ context.Context, id string) (string, error) {
		calls++
		if calls == 1 {
			return "", boom
		}
		return "ok:" + id, nil
	})

	_, err := m.Call(ctx, "a")
	assert.ErrorIs(t, err, boom)

	v, err := m.Call(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, "ok:a", v)
	assert.Equal(t, 2, calls)
}

func TestMemoizeStorageFailureFallsThrough(t *testing.T) {
	ctx := context.Background()
	boom := errors.New("unavailable")
	c := newTestCache(t, failingStorage{NewMemoryStorage(), boom}, newClock(), 0)

	calls := 0
	m := MemoizeOnce(c, "x", Infinite, func(context.Context) (int, error) {
		calls++
		return 42, nil
	})

	v, err := m.Call(ctx)
	require.NoError(t, err)
	assert.Equal(t, 42, v)

	_, _ = m.Call(ctx)
	assert.Equal(t, 2, calls)
}
