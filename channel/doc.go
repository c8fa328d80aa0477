// File: channel/doc.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

// Package channel provides the two inter-task message primitives of
// hioload-runtime: an unbounded many-producer/single-consumer FIFO built on
// a Michael-Scott lock-free queue, and a fixed-capacity broadcast ring that
// fans one stream out to many independent readers, each with its own cursor.
//
// Both kinds track live producer handles with an explicit atomic count, so
// the consumer observes a deterministic disconnection once the last producer
// closes.
package channel
