// File: timer/wheel_test.go
// Wheel contract: lower bound, one-tick upper bound, exactly-once firing,
// cancellation, hierarchical cascade.

package timer

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/momentics/hioload-runtime/api"
)

// tickUntil drives the wheel from a helper goroutine until stop is closed.
func tickUntil(w *Wheel, stop chan struct{}) {
	for {
		select {
		case <-stop:
			return
		default:
			w.Tick()
			time.Sleep(time.Millisecond)
		}
	}
}

type chanWaker chan struct{}

func (c chanWaker) Wake() {
	select {
	case c <- struct{}{}:
	default:
	}
}

func TestScheduleFiresAfterDelay(t *testing.T) {
	w := New()
	stop := make(chan struct{})
	defer close(stop)
	go tickUntil(w, stop)

	var count int32
	start := time.Now()
	fired := make(chan struct{})
	w.Schedule(30*time.Millisecond, func() {
		atomic.AddInt32(&count, 1)
		close(fired)
	})

	select {
	case <-fired:
	case <-time.After(2 * time.Second):
		t.Fatal("timer never fired")
	}
	if elapsed := time.Since(start); elapsed < 30*time.Millisecond {
		t.Errorf("fired after %v, before the 30ms deadline", elapsed)
	}

	time.Sleep(20 * time.Millisecond)
	if n := atomic.LoadInt32(&count); n != 1 {
		t.Errorf("fired %d times, want exactly 1", n)
	}
}

func TestCancelPreventsFiring(t *testing.T) {
	w := New()
	stop := make(chan struct{})
	defer close(stop)
	go tickUntil(w, stop)

	var count int32
	tm := w.Schedule(30*time.Millisecond, func() { atomic.AddInt32(&count, 1) })
	if !tm.Cancel() {
		t.Fatal("Cancel returned false for a pending timer")
	}

	time.Sleep(60 * time.Millisecond)
	if n := atomic.LoadInt32(&count); n != 0 {
		t.Errorf("cancelled timer fired %d times", n)
	}
	if tm.Cancel() {
		t.Error("second Cancel reported success")
	}
}

func TestCascadeAcrossLevels(t *testing.T) {
	// 400ms lands in the second wheel level and must cascade down.
	w := New()
	stop := make(chan struct{})
	defer close(stop)
	go tickUntil(w, stop)

	start := time.Now()
	fired := make(chan struct{})
	w.Schedule(400*time.Millisecond, func() { close(fired) })

	select {
	case <-fired:
	case <-time.After(5 * time.Second):
		t.Fatal("cascaded timer never fired")
	}
	if elapsed := time.Since(start); elapsed < 400*time.Millisecond {
		t.Errorf("fired after %v, before the 400ms deadline", elapsed)
	}
}

func TestSleepNeverEarly(t *testing.T) {
	w := New()
	stop := make(chan struct{})
	defer close(stop)
	go tickUntil(w, stop)

	s := w.Sleep(40 * time.Millisecond)
	wk := make(chanWaker, 1)
	start := time.Now()

	for s.Poll(wk) == api.Pending {
		select {
		case <-wk:
		case <-time.After(2 * time.Second):
			t.Fatal("sleep waker never invoked")
		}
	}
	if elapsed := time.Since(start); elapsed < 40*time.Millisecond {
		t.Errorf("sleep resolved after %v, before the 40ms deadline", elapsed)
	}
}

func TestSleepCancelZeroFirings(t *testing.T) {
	w := New()
	stop := make(chan struct{})
	defer close(stop)
	go tickUntil(w, stop)

	s := w.Sleep(30 * time.Millisecond)
	wk := make(chanWaker, 1)
	if got := s.Poll(wk); got != api.Pending {
		t.Fatalf("fresh sleep polled Ready")
	}
	s.Cancel()

	select {
	case <-wk:
		t.Error("cancelled sleep still woke its waker")
	case <-time.After(80 * time.Millisecond):
	}
	if got := s.Poll(wk); got != api.Ready {
		t.Errorf("cancelled sleep did not report Ready on later poll")
	}
}
