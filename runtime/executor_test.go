// File: runtime/executor_test.go
// Executor contract: an accepted task is never dropped, even when submission
// races shutdown.

package runtime

import (
	"sync"
	"sync/atomic"
	"testing"

	"github.com/momentics/hioload-runtime/api"
)

func TestSpawnAfterCloseReportsClosed(t *testing.T) {
	e := newExecutor(2, false)
	e.close()

	err := e.spawn(api.FutureFunc(func(w api.Waker) api.Poll {
		return api.Ready
	}))
	if err != api.ErrClosed {
		t.Fatalf("spawn after close = %v, want ErrClosed", err)
	}
}

// Submissions race close. Every spawn that returned nil was accepted into
// the queue, the queue is drained before workers exit, so the ran counter
// must equal the accepted count exactly: no task vanishes with a nil error.
func TestSpawnCloseRaceNeverDropsAccepted(t *testing.T) {
	e := newExecutor(4, false)

	var ran atomic.Int64
	var accepted atomic.Int64

	const spawners = 8
	var wg sync.WaitGroup
	start := make(chan struct{})
	for s := 0; s < spawners; s++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			for i := 0; i < 1000; i++ {
				err := e.spawn(api.FutureFunc(func(w api.Waker) api.Poll {
					ran.Add(1)
					return api.Ready
				}))
				if err == api.ErrClosed {
					return
				}
				if err != nil {
					t.Errorf("spawn: %v", err)
					return
				}
				accepted.Add(1)
			}
		}()
	}

	close(start)
	e.close() // races the spawners; close drains whatever was accepted
	wg.Wait()

	if got, want := ran.Load(), accepted.Load(); got != want {
		t.Fatalf("%d tasks ran but %d spawns returned nil", got, want)
	}
}
