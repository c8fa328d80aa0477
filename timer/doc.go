// File: timer/doc.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

// Package timer implements a hierarchical timer wheel: three levels of 256
// slots at 1ms, 256ms and ~65s granularity. Insertion and cancellation are
// O(1); expiration is linear in the number of due entries. The wheel is
// advanced by Tick, which the runtime calls once per reactor cycle, so timer
// resolution is bounded by the reactor's wait timeout rather than by a
// syscall per timer.
package timer
