// File: channel/mpsc.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Many-producer/single-consumer unbounded FIFO. Producers enqueue at the
// tail of a Michael-Scott lock-free linked queue (CAS on tail.next, then
// swing tail), the sole consumer dequeues at the head, so delivery order is
// true cross-producer arrival order. Node ownership transfers from the
// producer that allocates it to the consumer; the garbage collector frees a
// node once the consumer's head cursor has moved past it.

package channel

import (
	"sync/atomic"

	"github.com/momentics/hioload-runtime/api"
)

type node[T any] struct {
	value T
	next  atomic.Pointer[node[T]]
}

// mpscState is shared by every Sender clone and the Receiver.
type mpscState[T any] struct {
	head atomic.Pointer[node[T]] // dummy node; only the consumer advances it
	tail atomic.Pointer[node[T]]

	producers   atomic.Int64 // live Sender handles
	sendersGone atomic.Bool  // producers reached zero
	recvClosed  atomic.Bool  // receiver handle closed

	signal chan struct{} // capacity 1; nudges a blocked Recv
}

func (st *mpscState[T]) notify() {
	select {
	case st.signal <- struct{}{}:
	default:
	}
}

// NewMPSC creates an unbounded single-consumer channel and returns the
// initial producer handle and the exclusive consumer handle.
func NewMPSC[T any]() (*Sender[T], *Receiver[T]) {
	dummy := &node[T]{}
	st := &mpscState[T]{signal: make(chan struct{}, 1)}
	st.head.Store(dummy)
	st.tail.Store(dummy)
	st.producers.Store(1)
	return &Sender[T]{st: st}, &Receiver[T]{st: st}
}

// Sender is a cloneable producer handle.
type Sender[T any] struct {
	st     *mpscState[T]
	closed atomic.Bool
}

// Send enqueues v. It fails only when the receiver handle has been closed,
// in which case v is handed back inside a *SendError.
func (s *Sender[T]) Send(v T) error {
	if s.closed.Load() {
		return api.ErrClosed
	}
	if s.st.recvClosed.Load() {
		return &SendError[T]{Value: v}
	}

	n := &node[T]{value: v}
	for {
		tail := s.st.tail.Load()
		if tail.next.CompareAndSwap(nil, n) {
			// Swing tail; losing this CAS means another producer already
			// helped it forward.
			s.st.tail.CompareAndSwap(tail, n)
			break
		}
		// Tail is stale: help it forward and retry.
		s.st.tail.CompareAndSwap(tail, tail.next.Load())
	}

	s.st.notify()
	return nil
}

// Clone returns a new producer handle sharing the same channel.
func (s *Sender[T]) Clone() *Sender[T] {
	s.st.producers.Add(1)
	return &Sender[T]{st: s.st}
}

// Close releases this handle. Closing the last live handle disconnects the
// channel: the receiver drains what remains and then observes
// api.ErrDisconnected. Close is idempotent per handle.
func (s *Sender[T]) Close() {
	if !s.closed.CompareAndSwap(false, true) {
		return
	}
	if s.st.producers.Add(-1) == 0 {
		s.st.sendersGone.Store(true)
		s.st.notify()
	}
}

// Receiver is the exclusive consumer handle. Its methods must not be called
// concurrently with each other.
type Receiver[T any] struct {
	st *mpscState[T]
}

func (r *Receiver[T]) tryPop() (T, bool) {
	var zero T
	head := r.st.head.Load()
	next := head.next.Load()
	if next == nil {
		return zero, false
	}
	r.st.head.Store(next)
	v := next.value
	next.value = zero // drop the payload reference early
	return v, true
}

// TryRecv is the non-blocking receive. It reports api.ErrEmpty while the
// channel is open but has no value, and api.ErrDisconnected once every
// producer handle is closed and the queue is drained.
func (r *Receiver[T]) TryRecv() (T, error) {
	if v, ok := r.tryPop(); ok {
		return v, nil
	}
	var zero T
	if r.st.sendersGone.Load() {
		// A producer may have pushed between the failed pop and the flag
		// load; one more pop keeps no value stranded.
		if v, ok := r.tryPop(); ok {
			return v, nil
		}
		return zero, api.ErrDisconnected
	}
	return zero, api.ErrEmpty
}

// Recv blocks until a value arrives or every producer handle is closed, in
// which case it reports api.ErrDisconnected after the queue drains.
func (r *Receiver[T]) Recv() (T, error) {
	for {
		v, err := r.TryRecv()
		if err != api.ErrEmpty {
			return v, err
		}
		// Producers notify after every push, so a stale wakeup only costs
		// one more loop iteration.
		<-r.st.signal
	}
}

// Close drops the consumer side. Subsequent sends fail with *SendError
// carrying the rejected value.
func (r *Receiver[T]) Close() {
	r.st.recvClosed.Store(true)
}
