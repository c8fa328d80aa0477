// File: timer/sleep.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package timer

import (
	"sync"
	"time"

	"github.com/momentics/hioload-runtime/api"
)

// Sleep is a future that resolves once its deadline has passed. Each poll
// re-arms the wheel entry with the waker it was polled with, so a task that
// migrates between workers is still woken correctly.
type Sleep struct {
	wheel    *Wheel
	deadline time.Time

	mu    sync.Mutex
	timer *Timer
	done  bool
}

var _ api.Future = (*Sleep)(nil)

// Poll reports Ready once the deadline has passed and otherwise registers w
// to be woken by the wheel.
func (s *Sleep) Poll(w api.Waker) api.Poll {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.done {
		return api.Ready
	}
	if !time.Now().Before(s.deadline) {
		s.done = true
		if s.timer != nil {
			s.timer.Cancel()
			s.timer = nil
		}
		return api.Ready
	}
	// Replace any stale registration so only the latest waker fires.
	if s.timer != nil {
		s.timer.Cancel()
	}
	s.timer = s.wheel.schedule(s.deadline, w)
	return api.Pending
}

// Cancel abandons the sleep before it fires. The pending wheel entry is
// removed without side effects and any later Poll reports Ready.
func (s *Sleep) Cancel() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.done = true
	if s.timer != nil {
		s.timer.Cancel()
		s.timer = nil
	}
}
