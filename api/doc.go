// File: api/doc.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

// Package api defines the shared contracts of hioload-runtime: the
// poll-driven task model (Future, Waker, Poll) and the sentinel errors
// surfaced by channels, the executor, and the reactor.
package api
