// File: runtime/executor.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Fixed worker pool draining one shared FIFO run queue guarded by a mutex
// and condition variable. Each dequeue polls the task exactly once; a task
// that reports Pending is re-enqueued by its waker when the reactor, timer,
// or a channel fires it. The task state machine below makes a wake that
// races with an in-progress poll lossless without ever double-enqueuing.

package runtime

import (
	goruntime "runtime"
	"sync"
	"sync/atomic"

	"github.com/eapache/queue"

	"github.com/momentics/hioload-runtime/api"
)

const (
	taskIdle int32 = iota // waiting for its waker
	taskScheduled         // in the run queue
	taskRunning           // being polled by a worker
	taskWoken             // woken while being polled; re-enqueue after
	taskDone              // completed; all wakes are no-ops
)

// task pairs a future with its scheduling state. It is its own waker.
type task struct {
	fut   api.Future
	state atomic.Int32
	exec  *executor
}

var _ api.Waker = (*task)(nil)

// Wake transitions the task toward the run queue. Idempotent: waking a
// scheduled, already-woken, or completed task does nothing.
func (t *task) Wake() {
	for {
		switch s := t.state.Load(); s {
		case taskIdle:
			if t.state.CompareAndSwap(taskIdle, taskScheduled) {
				t.exec.enqueue(t)
				return
			}
		case taskRunning:
			if t.state.CompareAndSwap(taskRunning, taskWoken) {
				return
			}
		default: // taskScheduled, taskWoken, taskDone
			return
		}
	}
}

type executor struct {
	mu     sync.Mutex
	cond   *sync.Cond
	runq   *queue.Queue
	closed bool

	workers int
	pin     bool
	wg      sync.WaitGroup

	submitted atomic.Int64
	completed atomic.Int64
	panicked  atomic.Int64
}

func newExecutor(workers int, pin bool) *executor {
	if workers <= 0 {
		workers = goruntime.NumCPU()
	}
	e := &executor{
		runq:    queue.New(),
		workers: workers,
		pin:     pin,
	}
	e.cond = sync.NewCond(&e.mu)
	for i := 0; i < workers; i++ {
		e.wg.Add(1)
		go e.worker(i)
	}
	return e
}

// spawn wraps fut in a task and schedules its first poll. The closed check
// and the queue insert happen under one lock hold, so a task is never
// silently dropped by a concurrent close.
func (e *executor) spawn(fut api.Future) error {
	t := &task{fut: fut, exec: e}
	t.state.Store(taskScheduled)
	if !e.enqueue(t) {
		return api.ErrClosed
	}
	e.submitted.Add(1)
	return nil
}

// enqueue reports whether t was accepted; false means the executor closed.
func (e *executor) enqueue(t *task) bool {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return false
	}
	e.runq.Add(t)
	e.cond.Signal()
	e.mu.Unlock()
	return true
}

func (e *executor) worker(id int) {
	defer e.wg.Done()
	if e.pin {
		goruntime.LockOSThread()
		pinWorker(id)
	}
	for {
		e.mu.Lock()
		for e.runq.Length() == 0 && !e.closed {
			e.cond.Wait()
		}
		if e.runq.Length() == 0 && e.closed {
			e.mu.Unlock()
			return
		}
		t := e.runq.Remove().(*task)
		e.mu.Unlock()

		e.poll(t)
	}
}

// poll runs one task poll and settles the post-poll state.
func (e *executor) poll(t *task) {
	t.state.Store(taskRunning)

	if e.safePoll(t) == api.Ready {
		t.state.Store(taskDone)
		e.completed.Add(1)
		return
	}

	for {
		switch s := t.state.Load(); s {
		case taskRunning:
			if t.state.CompareAndSwap(taskRunning, taskIdle) {
				return
			}
		case taskWoken:
			// The waker fired mid-poll; the readiness it signals might not
			// have been observed, so poll again via the queue.
			if t.state.CompareAndSwap(taskWoken, taskScheduled) {
				e.enqueue(t)
				return
			}
		default:
			return
		}
	}
}

// safePoll keeps a panicking task from taking its worker down; the task is
// treated as completed.
func (e *executor) safePoll(t *task) (p api.Poll) {
	defer func() {
		if r := recover(); r != nil {
			e.panicked.Add(1)
			p = api.Ready
		}
	}()
	return t.fut.Poll(t)
}

func (e *executor) close() {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return
	}
	e.closed = true
	e.cond.Broadcast()
	e.mu.Unlock()
	e.wg.Wait()
}

// stats mirrors the executor counters.
func (e *executor) stats() map[string]int64 {
	return map[string]int64{
		"submitted_tasks": e.submitted.Load(),
		"completed_tasks": e.completed.Load(),
		"panicked_tasks":  e.panicked.Load(),
		"num_workers":     int64(e.workers),
	}
}
