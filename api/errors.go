// File: api/errors.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package api

import "errors"

var (
	// ErrEmpty reports that a non-blocking receive found no value; the
	// channel is still open and a later attempt may succeed.
	ErrEmpty = errors.New("channel: empty")

	// ErrDisconnected reports that the other side of a channel is gone for
	// good: every producer handle was closed, so no value will ever arrive.
	ErrDisconnected = errors.New("channel: disconnected")

	// ErrClosed reports use of a handle, executor, or runtime after it was
	// shut down.
	ErrClosed = errors.New("hioload-runtime: closed")
)
