//go:build !linux
// +build !linux

// File: runtime/affinity_other.go
// Author: momentics <momentics@gmail.com>

package runtime

// pinWorker is a no-op where no portable pinning primitive exists.
func pinWorker(id int) {}
