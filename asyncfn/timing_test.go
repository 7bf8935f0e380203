package asyncfn

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Davincible/rx-utils/memcache"
)

func TestOnceSharesFirstOutcome(t *testing.T) {
	var calls atomic.Int32
	o := Once(func(_ context.Context, n int) (int, error) {
		calls.Add(1)
		time.Sleep(20 * time.Millisecond)
		return n * 2, nil
	})

	results, errs := callAll(Func[int, int](o.Call), 1, 1, 1)

	for i := range results {
		require.NoError(t, errs[i])
		assert.Equal(t, 2, results[i])
	}

	v, _ := o.Call(context.Background(), 100)
	assert.Equal(t, 2, v, "later arguments are ignored")
	assert.Equal(t, int32(1), calls.Load())

	o.Reset()
	v, _ = o.Call(context.Background(), 100)
	assert.Equal(t, 200, v)
	assert.Equal(t, int32(2), calls.Load())
}

func TestOnceKeepsError(t *testing.T) {
	boom := errors.New("boom")
	o := Once(func(context.Context, struct{}) (int, error) {
		return 0, boom
	})

	_, err := o.Call(context.Background(), struct{}{})
	assert.ErrorIs(t, err, boom)
	_, err = o.Call(context.Background(), struct{}{})
	assert.ErrorIs(t, err, boom)
}

func TestMemoize(t *testing.T) {
	var calls atomic.Int32
	square := Memoize(func(_ context.Context, n int) (int, error) {
		calls.Add(1)
		time.Sleep(20 * time.Millisecond)
		return n * n, nil
	}, nil)

	results, _ := callAll(square, 3, 3, 3, 4)
	assert.Equal(t, []int{9, 9, 9, 16}, results)
	assert.Equal(t, int32(2), calls.Load())

	v, err := square(context.Background(), 3)
	require.NoError(t, err)
	assert.Equal(t, 9, v)
	assert.Equal(t, int32(2), calls.Load())
}

func TestMemoizeWaiterHonorsContext(t *testing.T) {
	fn := Memoize(func(context.Context, string) (string, error) {
		time.Sleep(100 * time.Millisecond)
		return "slow", nil
	}, nil)

	first := make(chan string, 1)
	go func() {
		v, _ := fn(context.Background(), "k")
		first <- v
	}()
	time.Sleep(10 * time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	start := time.Now()
	_, err := fn(ctx, "k")
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Less(t, time.Since(start), 60*time.Millisecond)

	select {
	case v := <-first:
		assert.Equal(t, "slow", v)
	case <-time.After(time.Second):
		t.Fatal("first caller never returned")
	}
}

func TestMemoizeBoundedCache(t *testing.T) {
	cache, err := memcache.New[string, int](memcache.LRU, memcache.Config[string]{Limit: 1})
	require.NoError(t, err)

	var calls atomic.Int32
	double := Memoize(func(_ context.Context, n int) (int, error) {
		calls.Add(1)
		return n * 2, nil
	}, cache)

	ctx := context.Background()
	_, _ = double(ctx, 1)
	_, _ = double(ctx, 2) // evicts 1
	_, _ = double(ctx, 1)

	assert.Equal(t, int32(3), calls.Load())
	assert.Equal(t, 1, cache.Len())
}

func TestMemoizeSkipsErrors(t *testing.T) {
	var calls atomic.Int32
	fn := Memoize(func(context.Context, string) (string, error) {
		if calls.Add(1) == 1 {
			return "", errors.New("transient")
		}
		return "ok", nil
	}, nil)

	_, err := fn(context.Background(), "k")
	assert.Error(t, err)

	v, err := fn(context.Background(), "k")
	require.NoError(t, err)
	assert.Equal(t, "ok", v)
}

func TestDebounce(t *testing.T) {
	var (
		mu   sync.Mutex
		seen []int
	)

	fn := Debounce(30*time.Millisecond, func(_ context.Context, n int) (int, error) {
		mu.Lock()
		seen = append(seen, n)
		mu.Unlock()
		return n, nil
	}, -1)

	var wg sync.WaitGroup
	results := make([]int, 3)
	for i := range 3 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			results[i], _ = fn(context.Background(), i)
		}()
		time.Sleep(5 * time.Millisecond)
	}
	wg.Wait()

	assert.Equal(t, []int{2}, seen)
	assert.Equal(t, []int{-1, -1, 2}, results)

	v, err := fn(context.Background(), 7)
	require.NoError(t, err)
	assert.Equal(t, 7, v)
}

func TestThrottle(t *testing.T) {
	var calls atomic.Int32
	fn := Throttle(50*time.Millisecond, func(_ context.Context, n int) (int, error) {
		calls.Add(1)
		return n, nil
	})

	ctx := context.Background()

	v, _ := fn(ctx, 1)
	assert.Equal(t, 1, v)

	v, _ = fn(ctx, 2)
	assert.Equal(t, 1, v, "inside the interval the last result is returned")

	time.Sleep(60 * time.Millisecond)

	v, _ = fn(ctx, 3)
	assert.Equal(t, 3, v)
	assert.Equal(t, int32(2), calls.Load())
}

func TestThrottleDoesNotWaitForRunningCall(t *testing.T) {
	var calls atomic.Int32
	fn := Throttle(time.Second, func(_ context.Context, n int) (int, error) {
		calls.Add(1)
		time.Sleep(100 * time.Millisecond)
		return n, nil
	})

	first := make(chan int, 1)
	go func() {
		v, _ := fn(context.Background(), 42)
		first <- v
	}()
	time.Sleep(10 * time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	start := time.Now()
	v, err := fn(ctx, 7)
	require.NoError(t, err)
	assert.Less(t, time.Since(start), 20*time.Millisecond)
	assert.Zero(t, v, "no run has finished yet")

	assert.Equal(t, 42, <-first)

	v, err = fn(context.Background(), 8)
	require.NoError(t, err)
	assert.Equal(t, 42, v)
	assert.Equal(t, int32(1), calls.Load())
}

func TestRetry(t *testing.T) {
	boom := errors.New("boom")

	tests := []struct {
		name      string
		attempts  int
		failFirst int
		check     func(int) bool
		wantCalls int32
		wantErr   error
	}{
		{"first try", 3, 0, nil, 1, nil},
		{"recovers", 3, 2, nil, 3, nil},
		{"gives up", 2, 5, nil, 2, boom},
		{"zero attempts tries once", 0, 5, nil, 1, boom},
		{"check rejects", 3, 0, func(n int) bool { return n > 100 }, 3, ErrRejected},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var calls atomic.Int32
			fn := Retry(func(context.Context, int) (int, error) {
				n := calls.Add(1)
				if int(n) <= tt.failFirst {
					return 0, boom
				}
				return int(n), nil
			}, tt.attempts, tt.check)

			_, err := fn(context.Background(), 0)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			} else {
				assert.NoError(t, err)
			}
			assert.Equal(t, tt.wantCalls, calls.Load())
		})
	}
}

func TestTimeout(t *testing.T) {
	finished := make(chan struct{})
	fn := Timeout(func(context.Context, time.Duration) (string, error) {
		defer close(finished)
		time.Sleep(60 * time.Millisecond)
		return "late", nil
	}, 20*time.Millisecond)

	_, err := fn(context.Background(), 0)
	assert.ErrorIs(t, err, ErrTimeout)

	select {
	case <-finished:
	case <-time.After(time.Second):
		t.Fatal("wrapped call was not left running")
	}

	fast := Timeout(func(context.Context, int) (int, error) { return 5, nil }, time.Second)
	v, err := fast(context.Background(), 0)
	require.NoError(t, err)
	assert.Equal(t, 5, v)
}

func TestWaitFor(t *testing.T) {
	var ready atomic.Bool
	time.AfterFunc(30*time.Millisecond, func() { ready.Store(true) })

	err := WaitFor(context.Background(), ready.Load, 5*time.Millisecond)
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	err = WaitFor(ctx, func() bool { return false }, 5*time.Millisecond)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestWait(t *testing.T) {
	start := time.Now()
	require.NoError(t, Wait(context.Background(), 20*time.Millisecond))
	assert.GreaterOrEqual(t, time.Since(start), 20*time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, Wait(ctx, time.Hour), context.Canceled)
}
