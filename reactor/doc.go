// Copyright (c) 2025
// Author: momentics <momentics@gmail.com>

// Package reactor wraps the OS readiness-notification facility behind one
// minimal surface: register a descriptor, wait for events, wake a blocked
// waiter. Linux builds use epoll(7) with an eventfd wake descriptor;
// BSD/macOS builds use kqueue(2) with a non-blocking self-pipe. All
// registrations are edge-triggered, so callers must drain a descriptor
// completely on every readiness report or miss the next transition.
package reactor
