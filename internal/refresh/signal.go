package refresh

import (
	"context"
	"sync"
	"time"
)

// Signal is the coalescing wake-up flag between producers and the render
// consumer. Any number of producers may raise it concurrently; repeated raises
// before a drain collapse into a single pending wake-up. It is level-triggered:
// once raised it stays raised until the consumer drains it.
type Signal struct {
	mu     sync.Mutex
	raised bool
	wake   chan struct{}
}

// NewSignal creates a lowered Signal.
func NewSignal() *Signal {
	return &Signal{wake: make(chan struct{}, 1)}
}

// Raise marks the signal raised. Safe for concurrent use; a raise while
// already raised is a no-op.
func (s *Signal) Raise() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.raised {
		return
	}
	s.raised = true

	select {
	case s.wake <- struct{}{}:
	default:
	}
}

// Wait blocks until the signal is raised, the timeout elapses, or ctx ends.
// It reports whether the signal was raised. Wait does not lower the signal;
// the consumer drains it explicitly so that raises landing during a render
// are deferred to the next cycle, never lost.
func (s *Signal) Wait(ctx context.Context, timeout time.Duration) bool {
	s.mu.Lock()
	if s.raised {
		s.mu.Unlock()
		return true
	}
	s.mu.Unlock()

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case <-s.wake:
		return true
	case <-timer.C:
		return false
	case <-ctx.Done():
		return false
	}
}

// Drain lowers the signal and discards any pending wake-up token. It reports
// whether the signal was raised.
func (s *Signal) Drain() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	was := s.raised
	s.raised = false

	select {
	case <-s.wake:
	default:
	}

	return was
}
