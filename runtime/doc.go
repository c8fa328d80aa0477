// File: runtime/doc.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

// Package runtime composes the reactor, the timer wheel, and a fixed worker
// pool behind Spawn, BlockOn, and Sleep. A Runtime is an explicitly
// constructed object owned by the application entry point; nothing in this
// module relies on a process-global or per-thread singleton, so multiple
// isolated runtimes can coexist in one process.
//
// One dedicated goroutine, locked to its OS thread, drives the reactor:
// it blocks in Wait for up to one tick interval, dispatches readiness
// tokens to the wakers registered for them, then advances the timer wheel.
// Workers drain a shared FIFO run queue and poll each task once per
// dequeue; a task that returns Pending is re-enqueued only when its waker
// fires.
package runtime
