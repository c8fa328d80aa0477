// File: synx/rwmutex.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package synx

import (
	"runtime"
	"sync/atomic"
)

const (
	writerBit  uint32 = 1 << 31
	writerWait uint32 = 1 << 30
	readerMask uint32 = writerWait - 1
	maxReaders uint32 = readerMask

	spinLimit = 100
)

// RWMutex is a reader-writer mutual exclusion lock encoded in one atomic
// word. The zero value is an unlocked mutex. Unlike sync.RWMutex it never
// poisons: a panic while the lock is held leaves the state word consistent,
// and whether the protected data is, is the caller's concern.
type RWMutex struct {
	state atomic.Uint32
}

// RLock acquires a shared read lock. It blocks while a writer holds the
// lock or is queued, and panics on reader-count overflow.
func (m *RWMutex) RLock() {
	for {
		s := m.state.Load()
		if s&(writerBit|writerWait) != 0 {
			m.park(s)
			continue
		}
		if s&readerMask == maxReaders {
			panic("synx: reader count overflow")
		}
		if m.state.CompareAndSwap(s, s+1) {
			return
		}
	}
}

// RUnlock releases one read share. The last reader out wakes any queued
// writer.
func (m *RWMutex) RUnlock() {
	s := m.state.Add(^uint32(0)) // -1
	if s&readerMask == readerMask {
		panic("synx: RUnlock of unlocked RWMutex")
	}
	if s&readerMask == 0 && s&writerWait != 0 {
		futexWakeAll(&m.state)
	}
}

// Lock acquires the exclusive write lock. While blocked it keeps the
// queued-writer bit set so new readers cannot overtake it.
func (m *RWMutex) Lock() {
	for {
		s := m.state.Load()
		if s&^writerWait == 0 {
			// No readers, no writer. Claiming clears the queued bit; any
			// other queued writer re-sets it on its next spin.
			if m.state.CompareAndSwap(s, writerBit) {
				return
			}
			continue
		}
		if s&writerWait == 0 {
			if !m.state.CompareAndSwap(s, s|writerWait) {
				continue
			}
			s |= writerWait
		}
		m.park(s)
	}
}

// Unlock releases the write lock and wakes every parked waiter; readers and
// queued writers then race for the word again.
func (m *RWMutex) Unlock() {
	s := m.state.Swap(0)
	if s&writerBit == 0 {
		panic("synx: Unlock of unlocked RWMutex")
	}
	futexWakeAll(&m.state)
}

// park spins a bounded number of iterations waiting for the state word to
// move off seen, then blocks in the OS until it changes.
func (m *RWMutex) park(seen uint32) {
	for i := 0; i < spinLimit; i++ {
		if m.state.Load() != seen {
			return
		}
		if i%16 == 15 {
			runtime.Gosched()
		}
	}
	futexWait(&m.state, seen)
}
