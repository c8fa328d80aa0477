// File: runtime/runtime_test.go
// Runtime contract: spawn/poll-once semantics, waker-driven re-poll,
// parking BlockOn, sleep resolution, shutdown behavior.

package runtime

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/momentics/hioload-runtime/api"
)

func newTestRuntime(t *testing.T) *Runtime {
	t.Helper()
	rt, err := New(nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	t.Cleanup(rt.Shutdown)
	return rt
}

func TestBlockOnImmediate(t *testing.T) {
	got := 0
	BlockOn(api.FutureFunc(func(w api.Waker) api.Poll {
		got = 42
		return api.Ready
	}))
	if got != 42 {
		t.Fatalf("future body never ran")
	}
}

func TestBlockOnParksUntilWoken(t *testing.T) {
	var polls atomic.Int32
	start := time.Now()
	BlockOn(api.FutureFunc(func(w api.Waker) api.Poll {
		if polls.Add(1) == 1 {
			time.AfterFunc(30*time.Millisecond, w.Wake)
			return api.Pending
		}
		return api.Ready
	}))

	if elapsed := time.Since(start); elapsed < 30*time.Millisecond {
		t.Errorf("BlockOn returned after %v, before the waker could fire", elapsed)
	}
	// A parking driver polls once per wake, not in a spin loop.
	if n := polls.Load(); n != 2 {
		t.Errorf("future polled %d times, want 2", n)
	}
}

func TestSpawnRunsEveryTask(t *testing.T) {
	rt := newTestRuntime(t)

	const n = 50
	var wg sync.WaitGroup
	wg.Add(n)
	for i := 0; i < n; i++ {
		err := rt.Spawn(api.FutureFunc(func(w api.Waker) api.Poll {
			wg.Done()
			return api.Ready
		}))
		if err != nil {
			t.Fatalf("Spawn: %v", err)
		}
	}

	done := make(chan struct{})
	go func() { wg.Wait(); close(done) }()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("not every spawned task ran")
	}
}

func TestWakerReenqueuesPendingTask(t *testing.T) {
	rt := newTestRuntime(t)

	const needed = 3
	var polls atomic.Int32
	completed := make(chan struct{})

	err := rt.Spawn(api.FutureFunc(func(w api.Waker) api.Poll {
		if polls.Add(1) < needed {
			time.AfterFunc(5*time.Millisecond, w.Wake)
			return api.Pending
		}
		close(completed)
		return api.Ready
	}))
	if err != nil {
		t.Fatalf("Spawn: %v", err)
	}

	select {
	case <-completed:
	case <-time.After(5 * time.Second):
		t.Fatal("pending task was never re-polled by its waker")
	}
	if n := polls.Load(); n != needed {
		t.Errorf("task polled %d times, want %d", n, needed)
	}
}

func TestTaskPanicDoesNotKillWorker(t *testing.T) {
	rt := newTestRuntime(t)

	if err := rt.Spawn(api.FutureFunc(func(w api.Waker) api.Poll {
		panic("task panic")
	})); err != nil {
		t.Fatalf("Spawn: %v", err)
	}

	ran := make(chan struct{})
	if err := rt.Spawn(api.FutureFunc(func(w api.Waker) api.Poll {
		close(ran)
		return api.Ready
	})); err != nil {
		t.Fatalf("Spawn: %v", err)
	}

	select {
	case <-ran:
	case <-time.After(5 * time.Second):
		t.Fatal("worker died after a task panic")
	}

	deadline := time.Now().Add(time.Second)
	for rt.Stats()["panicked_tasks"] != 1 {
		if time.Now().After(deadline) {
			t.Fatalf("panicked_tasks = %d, want 1", rt.Stats()["panicked_tasks"])
		}
		time.Sleep(time.Millisecond)
	}
}

func TestSleepThroughRuntime(t *testing.T) {
	rt := newTestRuntime(t)

	start := time.Now()
	rt.BlockOn(rt.Sleep(40 * time.Millisecond))
	if elapsed := time.Since(start); elapsed < 40*time.Millisecond {
		t.Errorf("Sleep resolved after %v, before the 40ms deadline", elapsed)
	}
}

func TestScheduleOnReactorThread(t *testing.T) {
	rt := newTestRuntime(t)

	fired := make(chan struct{})
	rt.Schedule(20*time.Millisecond, func() { close(fired) })

	select {
	case <-fired:
	case <-time.After(5 * time.Second):
		t.Fatal("scheduled callback never ran")
	}
}

func TestShutdownRejectsSpawn(t *testing.T) {
	rt, err := New(nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	rt.Shutdown()
	rt.Shutdown() // idempotent

	if err := rt.Spawn(api.FutureFunc(func(w api.Waker) api.Poll {
		return api.Ready
	})); err != api.ErrClosed {
		t.Fatalf("Spawn after Shutdown = %v, want ErrClosed", err)
	}
}

func TestMultipleIsolatedRuntimes(t *testing.T) {
	a := newTestRuntime(t)
	b := newTestRuntime(t)

	var wg sync.WaitGroup
	wg.Add(2)
	for _, rt := range []*Runtime{a, b} {
		if err := rt.Spawn(api.FutureFunc(func(w api.Waker) api.Poll {
			wg.Done()
			return api.Ready
		})); err != nil {
			t.Fatalf("Spawn: %v", err)
		}
	}

	done := make(chan struct{})
	go func() { wg.Wait(); close(done) }()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("tasks on isolated runtimes did not both run")
	}
}
