package asyncfn

import (
	"context"
	"sync"
)

// sequence hands out call slots in call order. Each slot is a channel closed
// when the call is finished, and each call knows its predecessor's channel.
type sequence struct {
	mu   sync.Mutex
	tail chan struct{}
}

func (s *sequence) next() (prev <-chan struct{}, done chan struct{}) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.tail == nil {
		s.tail = make(chan struct{})
		close(s.tail)
	}

	prev, done = s.tail, make(chan struct{})
	s.tail = done

	return prev, done
}

// await blocks until prev is closed. When ctx ends first, done is closed on
// the caller's behalf as soon as prev is, so later slots still proceed in order.
func (s *sequence) await(ctx context.Context, prev <-chan struct{}, done chan struct{}) error {
	select {
	case <-prev:
		return nil
	default:
	}

	select {
	case <-prev:
		return nil
	case <-ctx.Done():
		s.release(prev, done)
		return ctx.Err()
	}
}

// release closes done once prev is closed, without blocking the caller.
func (s *sequence) release(prev <-chan struct{}, done chan struct{}) {
	go func() {
		<-prev
		close(done)
	}()
}
