// File: synx/doc.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

// Package synx provides a reader-writer lock built on a single atomic state
// word: bit 31 marks the writer, bit 30 marks a queued writer, and the
// remaining bits count live readers. The writer bit and a nonzero reader
// count are never set together. Contended acquisition spins briefly and
// then parks the thread: on Linux via a futex wait/wake pair tied to the
// state word, elsewhere via a hashed table of mutex/condvar buckets keyed
// by the word's address.
//
// The queued-writer bit blocks new readers once a writer is waiting, so a
// steady stream of readers cannot starve writers.
package synx
