package asyncfn

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// ErrRejected is returned by Retry when the last result failed the check.
var ErrRejected = errors.New("result rejected")

// Debounce wraps fn so that a burst of calls runs it once. Each call waits
// delay. If no newer call arrived in the meantime it runs fn with its own
// argument, otherwise it returns the last stored result, starting at init.
func Debounce[A, R any](delay time.Duration, fn Func[A, R], init R) Func[A, R] {
	var (
		mu     sync.Mutex
		gen    uint64
		result = init
	)

	return func(ctx context.Context, arg A) (R, error) {
		mu.Lock()
		gen++
		mine := gen
		mu.Unlock()

		if err := Wait(ctx, delay); err != nil {
			var zero R
			return zero, err
		}

		mu.Lock()
		latest := mine == gen
		cached := result
		mu.Unlock()

		if !latest {
			return cached, nil
		}

		res, err := fn(ctx, arg)
		if err != nil {
			return res, err
		}

		mu.Lock()
		result = res
		mu.Unlock()

		return res, nil
	}
}

// Throttle wraps fn so that it runs at most once per delay. The first call
// always runs. The interval counts from the start of a run, and calls inside
// it return the last successful result right away, without waiting for a run
// still in progress.
func Throttle[A, R any](delay time.Duration, fn Func[A, R]) Func[A, R] {
	if delay <= 0 {
		return fn
	}

	var (
		lim  = rate.NewLimiter(rate.Every(delay), 1)
		mu   sync.Mutex
		last R
	)

	return func(ctx context.Context, arg A) (R, error) {
		if !lim.Allow() {
			mu.Lock()
			defer mu.Unlock()

			return last, nil
		}

		res, err := fn(ctx, arg)
		if err != nil {
			return res, err
		}

		mu.Lock()
		last = res
		mu.Unlock()

		return res, nil
	}
}

// Retry wraps fn so that it is tried up to attempts times. A try succeeds
// when fn returns no error and check, if given, accepts the result. When all
// tries fail the last error is returned.
func Retry[A, R any](fn Func[A, R], attempts int, check func(R) bool) Func[A, R] {
	if attempts < 1 {
		attempts = 1
	}

	return func(ctx context.Context, arg A) (R, error) {
		var (
			res R
			err error
		)

		for i := range attempts {
			if i > 0 {
				if cerr := ctx.Err(); cerr != nil {
					return res, cerr
				}
			}

			res, err = fn(ctx, arg)
			if err != nil {
				continue
			}

			if check == nil || check(res) {
				return res, nil
			}

			err = fmt.Errorf("%w after %d attempts", ErrRejected, i+1)
		}

		return res, err
	}
}

// Timeout wraps fn so that callers stop waiting after d and get ErrTimeout.
// The call itself is not interrupted and its result is dropped.
func Timeout[A, R any](fn Func[A, R], d time.Duration) Func[A, R] {
	type outcome struct {
		res R
		err error
	}

	return func(ctx context.Context, arg A) (R, error) {
		ch := make(chan outcome, 1)

		go func() {
			res, err := fn(ctx, arg)
			ch <- outcome{res, err}
		}()

		timer := time.NewTimer(d)
		defer timer.Stop()

		var zero R

		select {
		case o := <-ch:
			return o.res, o.err
		case <-timer.C:
			return zero, ErrTimeout
		case <-ctx.Done():
			return zero, ctx.Err()
		}
	}
}

// Wait blocks for d or until ctx is done.
func Wait(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// WaitFor polls cond every interval (100ms when not positive) until it holds
// or ctx is done.
func WaitFor(ctx context.Context, cond func() bool, interval time.Duration) error {
	if interval <= 0 {
		interval = 100 * time.Millisecond
	}

	if cond() {
		return nil
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if cond() {
				return nil
			}
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}
