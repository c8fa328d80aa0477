// File: timer/wheel.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Hierarchical timer wheel. Entries live in FIFO slot queues; an entry fires
// at most once and a cancelled entry is skipped when its slot drains.

package timer

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/eapache/queue"

	"github.com/momentics/hioload-runtime/api"
)

const (
	tickDuration = time.Millisecond
	wheelSize    = 256
	wheelLevels  = 3
)

const (
	statePending uint32 = iota
	stateFired
	stateCancelled
)

// entry is one scheduled deadline. Either waker or fn is set, never both.
type entry struct {
	deadline time.Time
	waker    api.Waker
	fn       func()
	state    atomic.Uint32
}

// Timer is a cancellation handle for a scheduled entry.
type Timer struct {
	e *entry
}

// Cancel removes the timer before it fires. It reports whether cancellation
// won the race: false means the timer already fired (or was cancelled). A
// cancelled timer produces zero firings.
func (t *Timer) Cancel() bool {
	return t.e.state.CompareAndSwap(statePending, stateCancelled)
}

// level is one wheel of 256 slots at a fixed tick granularity.
type level struct {
	slots [wheelSize]*queue.Queue
	tick  time.Duration
	cur   uint64
}

func newLevel(tick time.Duration) *level {
	l := &level{tick: tick}
	for i := range l.slots {
		l.slots[i] = queue.New()
	}
	return l
}

// add places e into the slot matching its deadline, or reports false when
// the deadline is beyond this level's horizon.
func (l *level) add(e *entry, now time.Time) bool {
	delay := e.deadline.Sub(now)
	if delay < 0 {
		delay = 0
	}
	ticks := uint64(delay / l.tick)
	if ticks >= wheelSize {
		return false
	}
	l.slots[(l.cur+ticks)%wheelSize].Add(e)
	return true
}

// drain empties the current slot, advances the cursor, and returns the
// drained entries.
func (l *level) drain() []*entry {
	q := l.slots[l.cur%wheelSize]
	l.cur++
	if q.Length() == 0 {
		return nil
	}
	out := make([]*entry, 0, q.Length())
	for q.Length() > 0 {
		out = append(out, q.Remove().(*entry))
	}
	return out
}

// Wheel is a thread-safe hierarchical timer wheel.
type Wheel struct {
	mu      sync.Mutex
	levels  [wheelLevels]*level
	pending []*entry // beyond the top level's horizon
	start   time.Time
	ticked  uint64 // L0 ticks performed so far
}

// New creates an empty wheel anchored at the current time.
func New() *Wheel {
	w := &Wheel{start: time.Now()}
	tick := tickDuration
	for i := 0; i < wheelLevels; i++ {
		w.levels[i] = newLevel(tick)
		tick *= wheelSize
	}
	return w
}

// Schedule runs fn once, no earlier than delay from now and within one tick
// interval afterwards. The returned handle cancels the callback.
func (w *Wheel) Schedule(delay time.Duration, fn func()) *Timer {
	e := &entry{deadline: time.Now().Add(delay), fn: fn}
	w.mu.Lock()
	w.addLocked(e, time.Now())
	w.mu.Unlock()
	return &Timer{e: e}
}

// schedule registers a waker-firing entry for an absolute deadline. Used by
// Sleep futures.
func (w *Wheel) schedule(deadline time.Time, waker api.Waker) *Timer {
	e := &entry{deadline: deadline, waker: waker}
	w.mu.Lock()
	w.addLocked(e, time.Now())
	w.mu.Unlock()
	return &Timer{e: e}
}

func (w *Wheel) addLocked(e *entry, now time.Time) {
	for _, l := range w.levels {
		if l.add(e, now) {
			return
		}
	}
	w.pending = append(w.pending, e)
}

// Sleep returns a future that resolves no earlier than d from now, with
// granularity bounded by how often Tick runs.
func (w *Wheel) Sleep(d time.Duration) *Sleep {
	return &Sleep{wheel: w, deadline: time.Now().Add(d)}
}

// Tick advances the wheel cursor up to the current wall clock, cascading
// coarser levels into finer ones, and fires every due entry exactly once.
// It returns the number of entries fired.
func (w *Wheel) Tick() int {
	now := time.Now()

	w.mu.Lock()
	target := uint64(now.Sub(w.start) / tickDuration)
	var due []*entry
	for w.ticked < target {
		w.ticked++
		due = w.advanceLocked(due, now)
	}
	w.mu.Unlock()

	fired := 0
	for _, e := range due {
		if !e.state.CompareAndSwap(statePending, stateFired) {
			continue
		}
		if e.waker != nil {
			e.waker.Wake()
		}
		if e.fn != nil {
			e.fn()
		}
		fired++
	}
	return fired
}

// advanceLocked moves L0 by one tick and cascades higher levels on their
// boundaries. Entries whose deadline has not arrived yet (cascaded early)
// are re-slotted instead of fired.
func (w *Wheel) advanceLocked(due []*entry, now time.Time) []*entry {
	due = w.collectLocked(due, w.levels[0].drain(), now)

	if w.levels[0].cur%wheelSize == 0 {
		due = w.collectLocked(due, w.levels[1].drain(), now)

		if w.levels[1].cur%wheelSize == 0 {
			due = w.collectLocked(due, w.levels[2].drain(), now)

			// Entries parked beyond the top horizon get another chance to
			// land in a wheel each full L2 revolution.
			parked := w.pending
			w.pending = nil
			for _, e := range parked {
				w.addLocked(e, now)
			}
		}
	}
	return due
}

func (w *Wheel) collectLocked(due, drained []*entry, now time.Time) []*entry {
	for _, e := range drained {
		if e.state.Load() == stateCancelled {
			continue
		}
		if e.deadline.After(now) {
			w.addLocked(e, now)
			continue
		}
		due = append(due, e)
	}
	return due
}
