package event

import (
	"context"
	"sync"
)

// Runner is the queue of the single processing thread. Any goroutine may
// Post; only the processing thread may Drain, Wait or Run.
type Runner struct {
	mux    sync.Mutex
	queue  []func()
	signal chan struct{}
}

func NewRunner() *Runner {
	return &Runner{
		signal: make(chan struct{}, 1),
	}
}

func (s *Runner) Post(fn func()) {
	s.mux.Lock()
	s.queue = append(s.queue, fn)
	s.mux.Unlock()

	select {
	case s.signal <- struct{}{}:
	default:
	}
}

func (s *Runner) Pending() int {
	s.mux.Lock()
	defer s.mux.Unlock()
	return len(s.queue)
}

// Drain runs everything queued, including work queued by the work itself,
// and returns the number of functions run.
func (s *Runner) Drain() int {
	total := 0
	for {
		s.mux.Lock()
		queue := s.queue
		s.queue = nil
		s.mux.Unlock()

		if len(queue) == 0 {
			return total
		}
		for _, fn := range queue {
			fn()
		}
		total += len(queue)
	}
}

// Wait blocks until something is posted or the context ends, then drains.
func (s *Runner) Wait(ctx context.Context) (int, error) {
	if count := s.Drain(); count > 0 {
		return count, nil
	}
	select {
	case <-ctx.Done():
		return 0, ctx.Err()
	case <-s.signal:
		return s.Drain(), nil
	}
}

func (s *Runner) Run(ctx context.Context) error {
	for {
		if _, err := s.Wait(ctx); err != nil {
			return err
		}
	}
}
