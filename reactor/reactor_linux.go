//go:build linux
// +build linux

// File: reactor/reactor_linux.go
// Author: momentics <momentics@gmail.com>
//
// Linux epoll(7) backend. An eventfd registered alongside user descriptors
// carries cross-thread wakeups, so a blocked Wait can always be interrupted
// without resorting to process signals.

package reactor

import (
	"fmt"
	"sync"
	"unsafe"

	"golang.org/x/sys/unix"
)

// Reactor is an edge-triggered epoll event demultiplexer.
type Reactor struct {
	epfd   int
	wakefd int

	mu     sync.Mutex // guards tokens
	tokens map[int]uint64

	raw []unix.EpollEvent
}

// New creates the epoll instance and its internal wake descriptor. Failure
// here is fatal for readiness-driven work: without a reactor there are no
// I/O wakeups, so callers should treat the error as unrecoverable.
func New() (*Reactor, error) {
	epfd, err := unix.EpollCreate1(unix.EPOLL_CLOEXEC)
	if err != nil {
		return nil, fmt.Errorf("epoll create: %w", err)
	}
	wakefd, err := unix.Eventfd(0, unix.EFD_CLOEXEC|unix.EFD_NONBLOCK)
	if err != nil {
		unix.Close(epfd)
		return nil, fmt.Errorf("eventfd: %w", err)
	}
	ev := unix.EpollEvent{
		Events: unix.EPOLLIN | unix.EPOLLET,
		Fd:     int32(wakefd),
	}
	if err := unix.EpollCtl(epfd, unix.EPOLL_CTL_ADD, wakefd, &ev); err != nil {
		unix.Close(epfd)
		unix.Close(wakefd)
		return nil, fmt.Errorf("register wake descriptor: %w", err)
	}
	return &Reactor{
		epfd:   epfd,
		wakefd: wakefd,
		tokens: make(map[int]uint64),
	}, nil
}

// Register adds fd in edge-triggered mode. Registering an fd that is already
// present modifies the existing registration in place.
func (r *Reactor) Register(fd int, token uint64, interest Interest) error {
	events := uint32(unix.EPOLLET)
	if interest.Readable {
		events |= unix.EPOLLIN
	}
	if interest.Writable {
		events |= unix.EPOLLOUT
	}
	ev := unix.EpollEvent{Events: events, Fd: int32(fd)}

	err := unix.EpollCtl(r.epfd, unix.EPOLL_CTL_ADD, fd, &ev)
	if err == unix.EEXIST {
		err = unix.EpollCtl(r.epfd, unix.EPOLL_CTL_MOD, fd, &ev)
	}
	if err != nil {
		return fmt.Errorf("epoll ctl add fd %d: %w", fd, err)
	}

	r.mu.Lock()
	r.tokens[fd] = token
	r.mu.Unlock()
	return nil
}

// Deregister removes fd. Removing an fd that is not registered is not an
// error.
func (r *Reactor) Deregister(fd int) error {
	err := unix.EpollCtl(r.epfd, unix.EPOLL_CTL_DEL, fd, nil)

	r.mu.Lock()
	delete(r.tokens, fd)
	r.mu.Unlock()

	if err != nil && err != unix.ENOENT && err != unix.EBADF {
		return fmt.Errorf("epoll ctl del fd %d: %w", fd, err)
	}
	return nil
}

// Wait blocks until at least one registered descriptor is ready, the timeout
// elapses, or Wake is called from another thread. timeoutMs < 0 blocks
// indefinitely. The number of events written into events is returned; wake
// notifications are drained internally and never reported.
func (r *Reactor) Wait(events []Event, timeoutMs int) (int, error) {
	if len(r.raw) < len(events) {
		r.raw = make([]unix.EpollEvent, len(events))
	}
	n, err := unix.EpollWait(r.epfd, r.raw[:len(events)], timeoutMs)
	if err != nil {
		if err == unix.EINTR {
			return 0, nil
		}
		return 0, fmt.Errorf("epoll wait: %w", err)
	}

	out := 0
	for i := 0; i < n; i++ {
		fd := int(r.raw[i].Fd)
		if fd == r.wakefd {
			r.drainWake()
			continue
		}
		r.mu.Lock()
		token, ok := r.tokens[fd]
		r.mu.Unlock()
		if !ok {
			// Deregistered between the kernel report and dispatch.
			continue
		}
		events[out] = Event{Fd: fd, Token: token}
		out++
	}
	return out, nil
}

// Wake makes a concurrently blocked Wait return promptly. Callable from any
// goroutine.
func (r *Reactor) Wake() error {
	var one uint64 = 1
	buf := (*[8]byte)(unsafe.Pointer(&one))[:]
	_, err := unix.Write(r.wakefd, buf)
	if err == unix.EAGAIN {
		// Counter saturated: a wakeup is already pending.
		return nil
	}
	return err
}

func (r *Reactor) drainWake() {
	var buf [8]byte
	for {
		if _, err := unix.Read(r.wakefd, buf[:]); err != nil {
			return
		}
	}
}

// Close releases the epoll instance and the wake descriptor.
func (r *Reactor) Close() error {
	err := unix.Close(r.epfd)
	if cerr := unix.Close(r.wakefd); err == nil {
		err = cerr
	}
	return err
}
