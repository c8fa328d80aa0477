//go:build !linux
// +build !linux

// File: synx/park_other.go
// Author: momentics <momentics@gmail.com>
//
// Portable futex emulation for non-Linux platforms: a fixed table of
// mutex/condvar buckets hashed by the state word's address. The value check
// happens under the bucket lock and wakers broadcast under the same lock,
// so a waiter cannot miss a wake between checking and sleeping.

package synx

import (
	"sync"
	"sync/atomic"
	"unsafe"
)

const parkBuckets = 64

type parkBucket struct {
	mu   sync.Mutex
	cond *sync.Cond
}

var parkTable [parkBuckets]parkBucket

func init() {
	for i := range parkTable {
		parkTable[i].cond = sync.NewCond(&parkTable[i].mu)
	}
}

func bucketFor(addr *atomic.Uint32) *parkBucket {
	return &parkTable[(uintptr(unsafe.Pointer(addr))>>4)%parkBuckets]
}

// futexWait blocks until the word at addr moves off val. May return
// spuriously; callers always re-check.
func futexWait(addr *atomic.Uint32, val uint32) {
	b := bucketFor(addr)
	b.mu.Lock()
	if addr.Load() == val {
		b.cond.Wait()
	}
	b.mu.Unlock()
}

// futexWakeAll wakes every waiter parked on addr's bucket. Waking unrelated
// waiters sharing the bucket is harmless: they re-check and re-park.
func futexWakeAll(addr *atomic.Uint32) {
	b := bucketFor(addr)
	b.mu.Lock()
	b.cond.Broadcast()
	b.mu.Unlock()
}
