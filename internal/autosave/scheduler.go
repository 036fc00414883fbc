// Package autosave debounces draft writes.
package autosave

import (
	"sync"
	"time"
)

// Scheduler runs fn once after a quiet period with no further Schedule
// calls. Each Schedule replaces the pending timer; it never queues.
type Scheduler struct {
	quiet time.Duration
	fn    func()

	mu      sync.Mutex
	timer   *time.Timer
	gen     uint64
	stopped bool
}

// New returns a Scheduler that calls fn quiet after the last Schedule.
func New(quiet time.Duration, fn func()) *Scheduler {
	return &Scheduler{quiet: quiet, fn: fn}
}

// Quiet returns the debounce period.
func (s *Scheduler) Quiet() time.Duration { return s.quiet }

// Schedule cancels any pending run and arms a new one. It is a no-op after
// Stop.
func (s *Scheduler) Schedule() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stopped {
		return
	}
	s.cancelLocked()
	gen := s.gen
	s.timer = time.AfterFunc(s.quiet, func() { s.fire(gen) })
}

// Arm schedules a run unless one is already pending. Unlike Schedule it
// never pushes a pending run back, so a steady stream of calls still fires
// once per period.
func (s *Scheduler) Arm() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stopped || s.timer != nil {
		return
	}
	gen := s.gen
	s.timer = time.AfterFunc(s.quiet, func() { s.fire(gen) })
}

// Flush runs a pending save now, on the caller's goroutine. It reports
// whether anything was pending.
func (s *Scheduler) Flush() bool {
	s.mu.Lock()
	if s.timer == nil {
		s.mu.Unlock()
		return false
	}
	s.cancelLocked()
	s.mu.Unlock()
	s.fn()
	return true
}

// Cancel drops the pending save, if any.
func (s *Scheduler) Cancel() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cancelLocked()
}

// Stop cancels the pending save and refuses further scheduling. A save
// already running is left to finish.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cancelLocked()
	s.stopped = true
}

// Pending reports whether a save is armed.
func (s *Scheduler) Pending() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.timer != nil
}

func (s *Scheduler) cancelLocked() {
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
	// A timer that already fired but has not taken the lock yet sees a newer
	// generation and does nothing.
	s.gen++
}

func (s *Scheduler) fire(gen uint64) {
	s.mu.Lock()
	if gen != s.gen || s.stopped {
		s.mu.Unlock()
		return
	}
	s.timer = nil
	s.mu.Unlock()
	s.fn()
}
