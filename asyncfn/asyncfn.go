package asyncfn

import (
	"context"
	"errors"
	"sync"

	"golang.org/x/sync/semaphore"
)

var (
	// ErrLockTimeout is returned by Locker.Lock when no permit became free in time
	ErrLockTimeout = errors.New("lock wait timed out")

	// ErrNotLocked is returned by Locker.Unlock when no permit is held
	ErrNotLocked = errors.New("unlock of unlocked locker")

	// ErrTimeout is returned by functions wrapped with Timeout
	ErrTimeout = errors.New("call timed out")

	// ErrBatchResult indicates a batch handler returned the wrong number of results
	ErrBatchResult = errors.New("batch handler returned mismatched results")
)

// Func is the shape of every function the wrappers in this package accept and return.
type Func[A, R any] func(ctx context.Context, arg A) (R, error)

// Limiting returns fn wrapped so that at most limit calls run at once. Waiting
// calls are admitted in arrival order and give up when their ctx is done.
// A limit below 1 is treated as 1.
func Limiting[A, R any](fn Func[A, R], limit int) Func[A, R] {
	if limit < 1 {
		limit = 1
	}

	sem := semaphore.NewWeighted(int64(limit))

	return func(ctx context.Context, arg A) (R, error) {
		if err := sem.Acquire(ctx, 1); err != nil {
			var zero R
			return zero, err
		}
		defer sem.Release(1)

		return fn(ctx, arg)
	}
}

// MergeMap returns fn wrapped so that calls run concurrently but return in
// the order they were made. A call that finishes early waits for every
// earlier call to return first.
func MergeMap[A, R any](fn Func[A, R]) Func[A, R] {
	var seq sequence

	return func(ctx context.Context, arg A) (R, error) {
		prev, done := seq.next()

		settled := false
		defer func() {
			// fn panicked, later calls must not wait forever
			if !settled {
				seq.release(prev, done)
			}
		}()

		res, err := fn(ctx, arg)
		settled = true

		if werr := seq.await(ctx, prev, done); werr != nil {
			var zero R
			return zero, werr
		}
		close(done)

		return res, err
	}
}

// ConcatMap returns fn wrapped so that calls run one at a time, in the order
// they were made.
func ConcatMap[A, R any](fn Func[A, R]) Func[A, R] {
	var seq sequence

	return func(ctx context.Context, arg A) (R, error) {
		prev, done := seq.next()

		if err := seq.await(ctx, prev, done); err != nil {
			var zero R
			return zero, err
		}
		defer close(done)

		return fn(ctx, arg)
	}
}

// SwitchMap returns fn wrapped so that only the newest result counts. When a
// call finishes after a later call already succeeded, it returns that later
// result instead of its own. Errors are returned as is.
func SwitchMap[A, R any](fn Func[A, R]) Func[A, R] {
	var (
		mu     sync.Mutex
		issued uint64
		last   uint64
		cached R
	)

	return func(ctx context.Context, arg A) (R, error) {
		mu.Lock()
		issued++
		id := issued
		mu.Unlock()

		res, err := fn(ctx, arg)
		if err != nil {
			return res, err
		}

		mu.Lock()
		defer mu.Unlock()

		if id < last {
			return cached, nil
		}

		cached, last = res, id

		return res, nil
	}
}
