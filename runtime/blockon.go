// File: runtime/blockon.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package runtime

import (
	"sync"

	"github.com/momentics/hioload-runtime/api"
)

// parker is the waker used by BlockOn: Wake unparks the blocked caller, so
// the driving thread sleeps between polls instead of spinning.
type parker struct {
	mu       sync.Mutex
	cond     *sync.Cond
	notified bool
}

var _ api.Waker = (*parker)(nil)

func newParker() *parker {
	p := &parker{}
	p.cond = sync.NewCond(&p.mu)
	return p
}

// Wake releases a parked thread. A wake delivered before the park is
// consumed by the next park call, so no wakeup is ever lost.
func (p *parker) Wake() {
	p.mu.Lock()
	p.notified = true
	p.cond.Signal()
	p.mu.Unlock()
}

func (p *parker) park() {
	p.mu.Lock()
	for !p.notified {
		p.cond.Wait()
	}
	p.notified = false
	p.mu.Unlock()
}

// BlockOn drives fut to completion on the calling goroutine, parking it
// between polls until the future's waker fires. Intended for a program's
// outermost entry point; inside a task, spawn instead.
func BlockOn(fut api.Future) {
	p := newParker()
	for fut.Poll(p) != api.Ready {
		p.park()
	}
}
