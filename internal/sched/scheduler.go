// Package sched provides a small scheduled-task abstraction. Timers are
// centrally tracked and cancellable, so a delayed retry never outlives the
// component that asked for it.
package sched

import (
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
)

// Handle identifies one scheduled task.
type Handle uint64

// Scheduler runs functions after a delay on an injected clock.
type Scheduler struct {
	clock clockwork.Clock

	mu      sync.Mutex
	timers  map[Handle]clockwork.Timer
	nextID  Handle
	stopped bool
}

// New creates a Scheduler using the given clock.
func New(clock clockwork.Clock) *Scheduler {
	return &Scheduler{
		clock:  clock,
		timers: make(map[Handle]clockwork.Timer),
	}
}

// Schedule runs fn once after delay. The returned handle cancels it.
// Scheduling on a stopped scheduler is a no-op and returns a dead handle.
func (s *Scheduler) Schedule(delay time.Duration, fn func()) Handle {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stopped {
		return 0
	}

	s.nextID++
	id := s.nextID
	s.timers[id] = s.clock.AfterFunc(delay, func() {
		s.mu.Lock()
		_, live := s.timers[id]
		delete(s.timers, id)
		s.mu.Unlock()
		if live {
			fn()
		}
	})
	return id
}

// Cancel stops the scheduled task for h. Cancelling a settled or unknown
// handle is a no-op.
func (s *Scheduler) Cancel(h Handle) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if t, ok := s.timers[h]; ok {
		t.Stop()
		delete(s.timers, h)
	}
}

// Pending returns the number of outstanding tasks.
func (s *Scheduler) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.timers)
}

// Stop cancels every outstanding task. Further Schedule calls are no-ops.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stopped = true
	for id, t := range s.timers {
		t.Stop()
		delete(s.timers, id)
	}
}
