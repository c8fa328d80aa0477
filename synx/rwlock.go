// File: synx/rwlock.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Value-guarding wrapper around RWMutex. Every access to the protected
// value goes through a guard obtained from Read or Write; the state word of
// the embedded mutex is the single source of truth for who holds access.

package synx

// RWLock protects one value of type T with an RWMutex. Guards must be
// released exactly once; Release is idempotent so deferred releases compose
// with early ones.
type RWLock[T any] struct {
	mu    RWMutex
	value T
}

// New creates an RWLock owning value.
func New[T any](value T) *RWLock[T] {
	return &RWLock[T]{value: value}
}

// Read acquires a shared guard. Multiple readers hold guards concurrently;
// the call blocks while a writer holds the lock or is queued.
func (l *RWLock[T]) Read() *ReadGuard[T] {
	l.mu.RLock()
	return &ReadGuard[T]{l: l}
}

// Write acquires the exclusive guard, blocking until all readers and any
// writer are gone.
func (l *RWLock[T]) Write() *WriteGuard[T] {
	l.mu.Lock()
	return &WriteGuard[T]{l: l}
}

// ReadGuard is a shared handle on the protected value.
type ReadGuard[T any] struct {
	l        *RWLock[T]
	released bool
}

// Get returns the protected value. The pointer must not outlive the guard.
func (g *ReadGuard[T]) Get() *T {
	if g.released {
		panic("synx: use of released read guard")
	}
	return &g.l.value
}

// Release returns the read share and wakes queued writers when it was the
// last one. Safe to call more than once.
func (g *ReadGuard[T]) Release() {
	if g.released {
		return
	}
	g.released = true
	g.l.mu.RUnlock()
}

// WriteGuard is the exclusive handle on the protected value.
type WriteGuard[T any] struct {
	l        *RWLock[T]
	released bool
}

// Get returns the protected value for mutation. The pointer must not
// outlive the guard.
func (g *WriteGuard[T]) Get() *T {
	if g.released {
		panic("synx: use of released write guard")
	}
	return &g.l.value
}

// Release drops exclusivity and wakes all parked waiters. Safe to call more
// than once.
func (g *WriteGuard[T]) Release() {
	if g.released {
		return
	}
	g.released = true
	g.l.mu.Unlock()
}
