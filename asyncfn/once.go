package asyncfn

import (
	"context"
	"fmt"
	"sync"

	"golang.org/x/sync/singleflight"

	"github.com/Davincible/rx-utils/jsonutil"
	"github.com/Davincible/rx-utils/memcache"
)

// OnceFunc runs a function once and hands its outcome to every call.
type OnceFunc[A, R any] struct {
	fn Func[A, R]

	mu    sync.Mutex
	state *onceState[R]
}

type onceState[R any] struct {
	done chan struct{}
	res  R
	err  error
}

// Once wraps fn so that only the first call runs it. Later calls, whatever
// their argument, wait for that first call and get its result and error.
func Once[A, R any](fn Func[A, R]) *OnceFunc[A, R] {
	return &OnceFunc[A, R]{fn: fn}
}

// Call runs the wrapped function on the first call and returns the stored
// outcome afterwards.
func (o *OnceFunc[A, R]) Call(ctx context.Context, arg A) (R, error) {
	o.mu.Lock()
	st := o.state
	first := st == nil
	if first {
		st = &onceState[R]{done: make(chan struct{})}
		o.state = st
	}
	o.mu.Unlock()

	if first {
		st.res, st.err = o.fn(ctx, arg)
		close(st.done)
		return st.res, st.err
	}

	select {
	case <-st.done:
		return st.res, st.err
	case <-ctx.Done():
		var zero R
		return zero, ctx.Err()
	}
}

// Reset forgets the stored outcome so the next call runs the function again.
func (o *OnceFunc[A, R]) Reset() {
	o.mu.Lock()
	defer o.mu.Unlock()

	o.state = nil
}

// Memoize wraps fn so that results are kept in cache, keyed by the JSON text
// of the argument. Concurrent calls with the same argument share one run,
// and a caller whose ctx ends first stops waiting for it.
// Errors are not cached. A nil cache means an unbounded FIFO cache.
func Memoize[A, R any](fn Func[A, R], cache *memcache.Cache[string, R]) Func[A, R] {
	if cache == nil {
		// Unlimited is always a valid limit
		cache, _ = memcache.New[string, R](memcache.FIFO, memcache.Config[string]{Limit: memcache.Unlimited})
	}

	var group singleflight.Group

	return func(ctx context.Context, arg A) (R, error) {
		var zero R

		key, err := jsonutil.Key(arg)
		if err != nil {
			return zero, fmt.Errorf("memoize key: %w", err)
		}

		if v, ok := cache.Get(key); ok {
			return v, nil
		}

		ch := group.DoChan(key, func() (any, error) {
			res, err := fn(ctx, arg)
			if err != nil {
				return nil, err
			}
			cache.Add(key, res)
			return res, nil
		})

		var v any
		select {
		case r := <-ch:
			if r.Err != nil {
				return zero, r.Err
			}
			v = r.Val
		case <-ctx.Done():
			return zero, ctx.Err()
		}

		res, _ := v.(R)

		return res, nil
	}
}
