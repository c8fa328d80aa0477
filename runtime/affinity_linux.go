//go:build linux
// +build linux

// File: runtime/affinity_linux.go
// Author: momentics <momentics@gmail.com>
//
// Best-effort worker pinning via sched_setaffinity. Failure is ignored:
// affinity is a locality optimization, never a correctness requirement.

package runtime

import (
	goruntime "runtime"

	"golang.org/x/sys/unix"
)

func pinWorker(id int) {
	var set unix.CPUSet
	set.Zero()
	set.Set(id % goruntime.NumCPU())
	_ = unix.SchedSetaffinity(0, &set)
}
