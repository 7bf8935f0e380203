package asyncfn

import (
	"context"
	"errors"
	"sync"
	"time"

	"golang.org/x/sync/semaphore"
)

// LockerConfig configures a Locker.
type LockerConfig struct {
	Limit   int           // Number of permits, 1 when unset
	Timeout time.Duration // Default wait for Lock, 0 waits until ctx is done
}

// Locker is a counting lock. Up to Limit holders may hold a permit at once and
// waiters are served in arrival order.
type Locker struct {
	sem     *semaphore.Weighted
	limit   int
	timeout time.Duration

	mu   sync.Mutex
	held int
}

// NewLocker creates a Locker.
func NewLocker(cfg LockerConfig) *Locker {
	if cfg.Limit < 1 {
		cfg.Limit = 1
	}

	return &Locker{
		sem:     semaphore.NewWeighted(int64(cfg.Limit)),
		limit:   cfg.Limit,
		timeout: cfg.Timeout,
	}
}

// Lock waits for a permit. It returns ErrLockTimeout when the configured
// timeout passes first, and ctx's error when ctx ends first. On error no
// permit is held.
func (l *Locker) Lock(ctx context.Context) error {
	waitCtx := ctx
	if l.timeout > 0 {
		var cancel context.CancelFunc
		waitCtx, cancel = context.WithTimeoutCause(ctx, l.timeout, ErrLockTimeout)
		defer cancel()
	}

	if err := l.sem.Acquire(waitCtx, 1); err != nil {
		if ctx.Err() == nil && errors.Is(context.Cause(waitCtx), ErrLockTimeout) {
			return ErrLockTimeout
		}
		return err
	}

	l.mu.Lock()
	l.held++
	l.mu.Unlock()

	return nil
}

// TryLock takes a permit without waiting and reports whether it did.
func (l *Locker) TryLock() bool {
	if !l.sem.TryAcquire(1) {
		return false
	}

	l.mu.Lock()
	l.held++
	l.mu.Unlock()

	return true
}

// Unlock returns a permit.
func (l *Locker) Unlock() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.held == 0 {
		return ErrNotLocked
	}

	l.held--
	l.sem.Release(1)

	return nil
}

// IsLocked reports whether every permit is taken.
func (l *Locker) IsLocked() bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	return l.held >= l.limit
}

// Held returns the number of permits currently held.
func (l *Locker) Held() int {
	l.mu.Lock()
	defer l.mu.Unlock()

	return l.held
}
