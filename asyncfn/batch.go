package asyncfn

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/Davincible/rx-utils/jsonutil"
)

// BatchFunc handles many arguments at once. It must return one result per
// argument, in the same order.
type BatchFunc[A, R any] func(ctx context.Context, args []A) ([]R, error)

// pendingBatch collects the calls of one coalescing window.
type pendingBatch[A, R any] struct {
	ctx  context.Context
	keys []string
	args map[string]A
	refs map[string]int

	done    chan struct{}
	index   map[string]int
	results []R
	err     error
}

type batcher[A, R any] struct {
	handle BatchFunc[A, R]
	window time.Duration

	mu      sync.Mutex
	pending *pendingBatch[A, R]

	// serializes handler runs, calls made while one runs form the next batch
	run sync.Mutex
}

// Batch returns a function that coalesces the calls made within window into a
// single call to handle. Equal arguments, compared by their JSON text, are
// passed to handle once and share the result. If handle fails every caller of
// that batch receives the error. A window of 0 still gathers the calls made
// before the batch is scheduled.
func Batch[A, R any](handle BatchFunc[A, R], window time.Duration) Func[A, R] {
	b := &batcher[A, R]{
		handle: handle,
		window: window,
	}

	return b.call
}

func (b *batcher[A, R]) call(ctx context.Context, arg A) (R, error) {
	var zero R

	key, err := jsonutil.Key(arg)
	if err != nil {
		return zero, fmt.Errorf("batch key: %w", err)
	}

	b.mu.Lock()
	p := b.pending
	if p == nil {
		p = &pendingBatch[A, R]{
			ctx:  context.WithoutCancel(ctx),
			args: make(map[string]A),
			refs: make(map[string]int),
			done: make(chan struct{}),
		}
		b.pending = p
		time.AfterFunc(b.window, func() { b.flush(p) })
	}
	if _, ok := p.args[key]; !ok {
		p.keys = append(p.keys, key)
		p.args[key] = arg
	}
	p.refs[key]++
	b.mu.Unlock()

	select {
	case <-p.done:
	case <-ctx.Done():
		b.leave(p, key)
		return zero, ctx.Err()
	}

	if p.err != nil {
		return zero, p.err
	}

	return p.results[p.index[key]], nil
}

// leave drops a waiter that gave up. Arguments nobody waits for any more are
// not passed to the handler.
func (b *batcher[A, R]) leave(p *pendingBatch[A, R], key string) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.pending != p {
		return
	}

	p.refs[key]--
}

func (b *batcher[A, R]) flush(p *pendingBatch[A, R]) {
	b.run.Lock()
	defer b.run.Unlock()

	b.mu.Lock()
	if b.pending == p {
		b.pending = nil
	}

	args := make([]A, 0, len(p.keys))
	p.index = make(map[string]int, len(p.keys))
	for _, key := range p.keys {
		if p.refs[key] <= 0 {
			continue
		}
		p.index[key] = len(args)
		args = append(args, p.args[key])
	}
	b.mu.Unlock()

	defer close(p.done)

	if len(args) == 0 {
		return
	}

	results, err := b.handle(p.ctx, args)
	switch {
	case err != nil:
		p.err = err
	case len(results) != len(args):
		p.err = fmt.Errorf("%w: %d results for %d arguments", ErrBatchResult, len(results), len(args))
	default:
		p.results = results
	}
}
