package store

import (
	"context"
	"sync"

	"github.com/AdarshMishraIndia/SyncMart-WebApp/pkg/metrics"
)

// Subscription delivers events of one live listener. Producers never block:
// events queue in an unbounded mailbox drained by a pump goroutine. Events()
// is closed after Close or after a terminal error, which Err then reports.
type Subscription[T any] struct {
	kind   string
	events chan T
	done   chan struct{}
	signal chan struct{}

	mu       sync.Mutex
	queue    []T
	err      error
	terminal bool

	closeOnce sync.Once
	stop      func()
	wg        sync.WaitGroup
}

func newSubscription[T any](ctx context.Context, kind string, stop func()) *Subscription[T] {
	s := &Subscription[T]{
		kind:   kind,
		events: make(chan T),
		done:   make(chan struct{}),
		signal: make(chan struct{}, 1),
		stop:   stop,
	}
	metrics.OpenSubscriptions.WithLabelValues(kind).Inc()
	s.wg.Add(1)
	go s.pump()
	go func() {
		select {
		case <-ctx.Done():
			s.Close()
		case <-s.done:
		}
	}()
	return s
}

func (s *Subscription[T]) Events() <-chan T { return s.events }

// Err returns the terminal error, nil while healthy or after a plain Close.
func (s *Subscription[T]) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

// Close stops delivery and waits until no further event can be sent.
func (s *Subscription[T]) Close() {
	s.closeOnce.Do(func() {
		close(s.done)
		if s.stop != nil {
			s.stop()
		}
		metrics.OpenSubscriptions.WithLabelValues(s.kind).Dec()
	})
	s.wg.Wait()
}

// spawn runs a producer goroutine that Close waits for.
func (s *Subscription[T]) spawn(fn func()) {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		fn()
	}()
}

func (s *Subscription[T]) push(ev T) {
	s.mu.Lock()
	if s.terminal {
		s.mu.Unlock()
		return
	}
	s.queue = append(s.queue, ev)
	s.mu.Unlock()
	s.wake()
}

// fail records a terminal error; queued events are still delivered first.
func (s *Subscription[T]) fail(err error) {
	s.mu.Lock()
	if !s.terminal {
		s.terminal = true
		s.err = err
	}
	s.mu.Unlock()
	s.wake()
}

func (s *Subscription[T]) wake() {
	select {
	case s.signal <- struct{}{}:
	default:
	}
}

func (s *Subscription[T]) closed() bool {
	select {
	case <-s.done:
		return true
	default:
		return false
	}
}

func (s *Subscription[T]) pump() {
	defer s.wg.Done()
	defer close(s.events)
	for {
		s.mu.Lock()
		batch := s.queue
		s.queue = nil
		terminal := s.terminal
		s.mu.Unlock()

		for _, ev := range batch {
			select {
			case s.events <- ev:
			case <-s.done:
				return
			}
		}
		if len(batch) > 0 {
			continue
		}
		if terminal {
			return
		}
		select {
		case <-s.signal:
		case <-s.done:
			return
		}
	}
}
