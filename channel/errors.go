// File: channel/errors.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package channel

import "fmt"

// SendError is returned when a value cannot be delivered because the
// receiving side is gone. The rejected value is handed back to the caller,
// which decides whether to reroute or discard it.
type SendError[T any] struct {
	Value T
}

func (e *SendError[T]) Error() string {
	return "channel: send on disconnected channel"
}

// LagError reports that a slow broadcast consumer was overrun by producers.
// Skipped is the number of messages overwritten before the consumer read
// them; the consumer has been repositioned to the oldest retained message.
type LagError struct {
	Skipped uint64
}

func (e *LagError) Error() string {
	return fmt.Sprintf("channel: consumer lagged, %d messages skipped", e.Skipped)
}
