// File: api/task.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Poll-driven task model. A Future makes progress only when polled; when it
// cannot complete it stashes the Waker it was polled with and returns Pending.
// Invoking that Waker tells the executor to poll the future again.

package api

// Poll is the outcome of a single call to Future.Poll.
type Poll int

const (
	// Pending means the future cannot complete yet. The future must arrange
	// for the supplied Waker to be invoked once it can make progress.
	Pending Poll = iota
	// Ready means the future has completed and must not be polled again.
	Ready
)

// Waker re-schedules the suspended task it belongs to. Wake is safe to call
// from any goroutine and is idempotent: waking an already-scheduled or
// completed task is a no-op.
type Waker interface {
	Wake()
}

// Future is a unit of asynchronous work driven by repeated polling.
//
// Poll is never invoked concurrently: a future is exclusively owned by
// whichever worker currently polls it.
type Future interface {
	Poll(w Waker) Poll
}

// FutureFunc adapts a plain function to the Future interface.
type FutureFunc func(w Waker) Poll

// Poll calls f.
func (f FutureFunc) Poll(w Waker) Poll { return f(w) }
