// File: runtime/runtime.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package runtime

import (
	"fmt"
	"log"
	goruntime "runtime"
	"sync/atomic"
	"time"

	"github.com/momentics/hioload-runtime/api"
	"github.com/momentics/hioload-runtime/reactor"
	"github.com/momentics/hioload-runtime/synx"
	"github.com/momentics/hioload-runtime/timer"
)

// Runtime owns a reactor, a timer wheel, and a worker pool. Create one with
// New and pass it to every component that spawns tasks or registers I/O.
type Runtime struct {
	cfg     *Config
	reactor *reactor.Reactor
	wheel   *timer.Wheel
	exec    *executor

	// registry maps registration tokens to the wakers of suspended tasks;
	// the reactor loop reads it on every cycle while registrations come and
	// go from task goroutines.
	registry  *synx.RWLock[map[uint64]api.Waker]
	nextToken atomic.Uint64

	done     chan struct{}
	loopDone chan struct{}
	closed   atomic.Bool
}

// New builds a runtime from cfg (nil means DefaultConfig). A reactor
// creation failure is returned as-is and leaves nothing running: without a
// reactor there are no I/O wakeups, so the error is fatal for I/O-driven
// work.
func New(cfg *Config) (*Runtime, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	r, err := reactor.New()
	if err != nil {
		return nil, fmt.Errorf("runtime: %w", err)
	}
	rt := &Runtime{
		cfg:      cfg,
		reactor:  r,
		wheel:    timer.New(),
		exec:     newExecutor(cfg.Workers, cfg.PinWorkers),
		registry: synx.New(make(map[uint64]api.Waker)),
		done:     make(chan struct{}),
		loopDone: make(chan struct{}),
	}
	go rt.reactorLoop()
	return rt, nil
}

// reactorLoop runs on a dedicated OS thread: wait for readiness or one tick
// interval, wake the tasks behind the ready tokens, advance the wheel.
func (rt *Runtime) reactorLoop() {
	goruntime.LockOSThread()
	defer close(rt.loopDone)

	events := make([]reactor.Event, rt.cfg.MaxEvents)
	timeoutMs := int(time.Duration(rt.cfg.TickInterval) / time.Millisecond)
	if timeoutMs < 1 {
		timeoutMs = 1
	}

	for {
		select {
		case <-rt.done:
			return
		default:
		}

		n, err := rt.reactor.Wait(events, timeoutMs)
		if err != nil {
			log.Printf("hioload-runtime: reactor wait: %v", err)
			continue
		}
		for i := 0; i < n; i++ {
			rt.wakeToken(events[i].Token)
		}
		rt.wheel.Tick()
	}
}

func (rt *Runtime) wakeToken(token uint64) {
	g := rt.registry.Read()
	w := (*g.Get())[token]
	g.Release()
	if w != nil {
		w.Wake()
	}
}

// Spawn submits fut to the worker pool. The task is polled at least once;
// after a Pending poll it is re-polled whenever its waker fires.
func (rt *Runtime) Spawn(fut api.Future) error {
	if rt.closed.Load() {
		return api.ErrClosed
	}
	return rt.exec.spawn(fut)
}

// BlockOn drives fut to completion on the calling goroutine.
func (rt *Runtime) BlockOn(fut api.Future) {
	BlockOn(fut)
}

// Sleep returns a future resolving no earlier than d from now. Resolution
// is bounded by the configured tick interval.
func (rt *Runtime) Sleep(d time.Duration) *timer.Sleep {
	return rt.wheel.Sleep(d)
}

// Schedule runs fn once after delay on the reactor thread. The handle
// cancels it.
func (rt *Runtime) Schedule(delay time.Duration, fn func()) *timer.Timer {
	return rt.wheel.Schedule(delay, fn)
}

// RegisterIO ties fd's readiness to w: whenever the reactor reports the
// descriptor ready, w.Wake re-enqueues the suspended task. The returned
// token identifies the registration. A registration failure is per
// descriptor and recoverable; the caller decides whether to drop the
// connection.
func (rt *Runtime) RegisterIO(fd int, interest reactor.Interest, w api.Waker) (uint64, error) {
	if rt.closed.Load() {
		return 0, api.ErrClosed
	}
	token := rt.nextToken.Add(1)

	g := rt.registry.Write()
	(*g.Get())[token] = w
	g.Release()

	if err := rt.reactor.Register(fd, token, interest); err != nil {
		g := rt.registry.Write()
		delete(*g.Get(), token)
		g.Release()
		return 0, err
	}
	return token, nil
}

// DeregisterIO removes fd and its token. Safe to call after the descriptor
// was already removed.
func (rt *Runtime) DeregisterIO(fd int, token uint64) error {
	err := rt.reactor.Deregister(fd)

	g := rt.registry.Write()
	delete(*g.Get(), token)
	g.Release()
	return err
}

// Stats exposes executor counters.
func (rt *Runtime) Stats() map[string]int64 {
	return rt.exec.stats()
}

// Shutdown stops the reactor loop, closes the reactor, and drains the
// worker pool. Idempotent.
func (rt *Runtime) Shutdown() {
	if !rt.closed.CompareAndSwap(false, true) {
		return
	}
	close(rt.done)
	_ = rt.reactor.Wake()
	<-rt.loopDone
	_ = rt.reactor.Close()
	rt.exec.close()
}
