// File: reactor/reactor.go
// Author: momentics <momentics@gmail.com>
//
// Platform-neutral types shared by the epoll and kqueue backends.

package reactor

// Interest selects which readiness transitions a registration reports.
type Interest struct {
	Readable bool
	Writable bool
}

// Event is one readiness report returned by Wait. Token is the correlation
// value supplied at registration time; it is how callers map an event back to
// the waker of the suspended task that owns the descriptor.
type Event struct {
	Fd    int
	Token uint64
}
