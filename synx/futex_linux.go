//go:build linux
// +build linux

// File: synx/futex_linux.go
// Author: momentics <momentics@gmail.com>
//
// Futex-backed parking. The kernel sleeps the thread only while the state
// word still holds the value the caller observed, which closes the window
// between deciding to sleep and actually sleeping.

package synx

import (
	"sync/atomic"
	"unsafe"

	"golang.org/x/sys/unix"
)

// Futex ops from <linux/futex.h>; x/sys/unix exports the syscall number but
// not the op constants. PRIVATE restricts matching to this process.
const (
	futexWaitPrivate = 0 | 128 // FUTEX_WAIT | FUTEX_PRIVATE_FLAG
	futexWakePrivate = 1 | 128 // FUTEX_WAKE | FUTEX_PRIVATE_FLAG
)

// futexWait blocks the calling thread until the word at addr no longer
// holds val. Returns spuriously on signals; callers always re-check.
func futexWait(addr *atomic.Uint32, val uint32) {
	_, _, _ = unix.Syscall6(
		unix.SYS_FUTEX,
		uintptr(unsafe.Pointer(addr)),
		uintptr(futexWaitPrivate),
		uintptr(val),
		0, 0, 0,
	)
}

// futexWakeAll wakes every thread parked on addr.
func futexWakeAll(addr *atomic.Uint32) {
	_, _, _ = unix.Syscall6(
		unix.SYS_FUTEX,
		uintptr(unsafe.Pointer(addr)),
		uintptr(futexWakePrivate),
		uintptr(^uint32(0)>>1),
		0, 0, 0,
	)
}
