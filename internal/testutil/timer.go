package testutil

import (
	"sync"

	"github.com/udisondev/soundzones/internal/tick"
)

// CountingScheduler wraps tick.Loop and counts scheduled and cancelled tasks,
// so tests can assert that timers neither leak nor duplicate.
type CountingScheduler struct {
	*tick.Loop

	mu        sync.Mutex
	repeating int
	oneShot   int
	cancelled int
}

// NewCountingScheduler creates a scheduler stepped manually by the test.
func NewCountingScheduler() *CountingScheduler {
	return &CountingScheduler{Loop: tick.NewLoop(tick.DefaultRate)}
}

// After counts and delegates.
func (s *CountingScheduler) After(ticks int, fn func()) tick.Handle {
	s.mu.Lock()
	s.oneShot++
	s.mu.Unlock()
	return s.Loop.After(ticks, fn)
}

// Every counts and delegates.
func (s *CountingScheduler) Every(delay, period int, fn func()) tick.Handle {
	s.mu.Lock()
	s.repeating++
	s.mu.Unlock()
	return s.Loop.Every(delay, period, fn)
}

// Cancel counts and delegates.
func (s *CountingScheduler) Cancel(h tick.Handle) {
	s.mu.Lock()
	s.cancelled++
	s.mu.Unlock()
	s.Loop.Cancel(h)
}

// Counts returns (repeating scheduled, one-shot scheduled, cancel calls).
func (s *CountingScheduler) Counts() (repeating, oneShot, cancelled int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.repeating, s.oneShot, s.cancelled
}
