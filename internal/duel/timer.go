package duel

import (
	"sync"
	"time"
)

// TimerHandle is the ownership token for one scheduled callback.
type TimerHandle struct {
	timer      *time.Timer
	generation uint64
}

// Generation returns the session generation the handle was issued for.
func (h *TimerHandle) Generation() uint64 {
	return h.generation
}

// Supervisor issues cancellable delayed callbacks. Cancellation is
// best-effort: a callback racing its own cancellation may still fire, so
// every callback must re-validate its generation against the registry
// before acting.
type Supervisor struct {
	mu      sync.Mutex
	pending map[*TimerHandle]struct{}
	closed  bool
}

// NewSupervisor creates a Supervisor with no pending timers.
func NewSupervisor() *Supervisor {
	return &Supervisor{
		pending: make(map[*TimerHandle]struct{}),
	}
}

// Schedule runs fn(generation) after delay and returns the handle that
// cancels it. After Close, Schedule returns a handle that never fires.
func (s *Supervisor) Schedule(delay time.Duration, generation uint64, fn func(generation uint64)) *TimerHandle {
	h := &TimerHandle{generation: generation}

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return h
	}
	h.timer = time.AfterFunc(delay, func() {
		s.mu.Lock()
		delete(s.pending, h)
		s.mu.Unlock()
		fn(generation)
	})
	s.pending[h] = struct{}{}
	s.mu.Unlock()

	return h
}

// Cancel stops the handle's timer. Cancelling an already-fired or
// already-cancelled handle is a no-op.
func (s *Supervisor) Cancel(h *TimerHandle) {
	if h == nil || h.timer == nil {
		return
	}
	h.timer.Stop()
	s.mu.Lock()
	delete(s.pending, h)
	s.mu.Unlock()
}

// Close cancels every pending timer and rejects new schedules. Used on
// shutdown; callbacks already past their generation check may still run.
func (s *Supervisor) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.closed = true
	for h := range s.pending {
		if h.timer != nil {
			h.timer.Stop()
		}
		delete(s.pending, h)
	}
}

// PendingCount returns the number of scheduled, not yet fired timers.
func (s *Supervisor) PendingCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.pending)
}
