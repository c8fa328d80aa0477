// File: channel/broadcast.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Many-producer/many-consumer broadcast ring. Producers claim positions on
// an atomic head counter and publish each value as an immutable heap cell
// through an atomic pointer; consumers keep private cursors into the shared
// ring and copy values out without coordinating with producers. A reader
// can therefore never observe a torn or reclaimed value: a cell stays alive
// for as long as any reader still holds it, and its embedded position tells
// a reader whether its cursor was overrun.

package channel

import (
	"sync"
	"sync/atomic"

	"github.com/momentics/hioload-runtime/api"
)

// DefaultBroadcastCapacity is the ring size used when NewBroadcast is given
// a non-positive capacity.
const DefaultBroadcastCapacity = 1024

// bcell is one published value. Immutable after the atomic store that
// publishes it.
type bcell[T any] struct {
	pos uint64
	val T
}

type bslot[T any] struct {
	cell atomic.Pointer[bcell[T]]
}

type broadcastState[T any] struct {
	slots []bslot[T]
	mask  uint64
	head  atomic.Uint64 // next position to claim

	producers atomic.Int64
	receivers atomic.Int64
	closed    atomic.Bool // all producers gone

	mu   sync.Mutex // serializes blocked receivers
	cond *sync.Cond
}

// notifyAll wakes every receiver blocked in Recv.
func (st *broadcastState[T]) notifyAll() {
	st.mu.Lock()
	st.cond.Broadcast()
	st.mu.Unlock()
}

// NewBroadcast creates a broadcast channel with the given ring capacity
// (rounded up to a power of two; DefaultBroadcastCapacity when capacity
// <= 0) and returns the initial producer and consumer handles. The consumer
// starts at the current head: it sees every message sent after creation.
func NewBroadcast[T any](capacity int) (*BroadcastSender[T], *BroadcastReceiver[T]) {
	if capacity <= 0 {
		capacity = DefaultBroadcastCapacity
	}
	size := 1
	for size < capacity {
		size <<= 1
	}
	st := &broadcastState[T]{
		slots: make([]bslot[T], size),
		mask:  uint64(size - 1),
	}
	st.cond = sync.NewCond(&st.mu)
	st.producers.Store(1)
	st.receivers.Store(1)
	return &BroadcastSender[T]{st: st}, &BroadcastReceiver[T]{st: st}
}

// BroadcastSender is a cloneable producer handle.
type BroadcastSender[T any] struct {
	st     *broadcastState[T]
	closed atomic.Bool
}

// Send publishes v to every consumer. It fails with a *SendError carrying v
// once no consumer handles remain.
func (s *BroadcastSender[T]) Send(v T) error {
	if s.closed.Load() {
		return api.ErrClosed
	}
	if s.st.receivers.Load() == 0 {
		return &SendError[T]{Value: v}
	}

	pos := s.st.head.Add(1) - 1
	s.st.slots[pos&s.st.mask].cell.Store(&bcell[T]{pos: pos, val: v})

	s.st.notifyAll()
	return nil
}

// Clone returns a new producer handle sharing the same ring.
func (s *BroadcastSender[T]) Clone() *BroadcastSender[T] {
	s.st.producers.Add(1)
	return &BroadcastSender[T]{st: s.st}
}

// Close releases this handle; the last close disconnects the channel.
// Idempotent per handle.
func (s *BroadcastSender[T]) Close() {
	if !s.closed.CompareAndSwap(false, true) {
		return
	}
	if s.st.producers.Add(-1) == 0 {
		s.st.closed.Store(true)
		s.st.notifyAll()
	}
}

// BroadcastReceiver is a consumer handle with a private read cursor.
// Independent receivers may run on different goroutines, but a single
// receiver must not be shared without external synchronization.
type BroadcastReceiver[T any] struct {
	st     *broadcastState[T]
	pos    uint64
	closed bool
}

// TryRecv is the non-blocking receive. Beyond values and api.ErrEmpty /
// api.ErrDisconnected, it can report a *LagError when producers overran this
// consumer's cursor; the cursor is then repositioned to the oldest retained
// message so the next call resumes from there.
func (r *BroadcastReceiver[T]) TryRecv() (T, error) {
	var zero T
	if r.closed {
		return zero, api.ErrClosed
	}

	head := r.st.head.Load()
	if r.pos >= head {
		if r.st.closed.Load() && r.pos >= r.st.head.Load() {
			return zero, api.ErrDisconnected
		}
		return zero, api.ErrEmpty
	}

	capacity := uint64(len(r.st.slots))
	if head-r.pos > capacity {
		oldest := head - capacity
		skipped := oldest - r.pos
		r.pos = oldest
		return zero, &LagError{Skipped: skipped}
	}

	c := r.st.slots[r.pos&r.st.mask].cell.Load()
	if c == nil || c.pos < r.pos {
		// Position claimed but the value is not published yet.
		return zero, api.ErrEmpty
	}
	if c.pos > r.pos {
		// The slot was overwritten while we were catching up.
		oldest := r.st.head.Load() - capacity
		skipped := oldest - r.pos
		r.pos = oldest
		return zero, &LagError{Skipped: skipped}
	}

	r.pos++
	return c.val, nil
}

// Recv blocks until a value is available, the consumer lags (reported, not
// silently skipped), or every producer handle is closed.
func (r *BroadcastReceiver[T]) Recv() (T, error) {
	for {
		v, err := r.TryRecv()
		if err != api.ErrEmpty {
			return v, err
		}
		r.st.mu.Lock()
		v, err = r.TryRecv()
		if err != api.ErrEmpty {
			r.st.mu.Unlock()
			return v, err
		}
		r.st.cond.Wait()
		r.st.mu.Unlock()
	}
}

// Clone returns a new consumer handle at exactly this receiver's current
// read position: both copies will observe anything neither has consumed yet.
func (r *BroadcastReceiver[T]) Clone() *BroadcastReceiver[T] {
	r.st.receivers.Add(1)
	return &BroadcastReceiver[T]{st: r.st, pos: r.pos}
}

// Close releases this consumer handle. Idempotent.
func (r *BroadcastReceiver[T]) Close() {
	if r.closed {
		return
	}
	r.closed = true
	r.st.receivers.Add(-1)
}
