//go:build darwin || dragonfly || freebsd || netbsd || openbsd
// +build darwin dragonfly freebsd netbsd openbsd

// File: reactor/reactor_bsd.go
// Author: momentics <momentics@gmail.com>
//
// kqueue(2) backend for BSD-family systems including macOS. Wakeups travel
// through a non-blocking self-pipe whose read end is registered on the
// kqueue; this works on every BSD variant, unlike EVFILT_USER.

package reactor

import (
	"fmt"
	"sync"

	"golang.org/x/sys/unix"
)

// Reactor is an edge-triggered (EV_CLEAR) kqueue event demultiplexer.
type Reactor struct {
	kq    int
	wakeR int
	wakeW int

	mu     sync.Mutex // guards tokens
	tokens map[int]uint64

	raw []unix.Kevent_t
}

// New creates the kqueue instance and its internal wake pipe. Failure here
// is fatal for readiness-driven work.
func New() (*Reactor, error) {
	kq, err := unix.Kqueue()
	if err != nil {
		return nil, fmt.Errorf("kqueue: %w", err)
	}
	unix.CloseOnExec(kq)

	var p [2]int
	if err := unix.Pipe(p[:]); err != nil {
		unix.Close(kq)
		return nil, fmt.Errorf("wake pipe: %w", err)
	}
	for _, fd := range p {
		unix.CloseOnExec(fd)
		if err := unix.SetNonblock(fd, true); err != nil {
			unix.Close(kq)
			unix.Close(p[0])
			unix.Close(p[1])
			return nil, fmt.Errorf("wake pipe nonblock: %w", err)
		}
	}

	var ev unix.Kevent_t
	unix.SetKevent(&ev, p[0], unix.EVFILT_READ, unix.EV_ADD|unix.EV_CLEAR)
	if _, err := unix.Kevent(kq, []unix.Kevent_t{ev}, nil, nil); err != nil {
		unix.Close(kq)
		unix.Close(p[0])
		unix.Close(p[1])
		return nil, fmt.Errorf("register wake descriptor: %w", err)
	}

	return &Reactor{
		kq:     kq,
		wakeR:  p[0],
		wakeW:  p[1],
		tokens: make(map[int]uint64),
	}, nil
}

// Register adds fd with EV_CLEAR (edge-triggered) semantics. kqueue treats
// EV_ADD of an existing ident as a modification, so re-registering updates
// the interest set in place; a filter dropped from the interest set is
// deleted explicitly.
func (r *Reactor) Register(fd int, token uint64, interest Interest) error {
	var changes []unix.Kevent_t
	var drops []unix.Kevent_t

	var ev unix.Kevent_t
	if interest.Readable {
		unix.SetKevent(&ev, fd, unix.EVFILT_READ, unix.EV_ADD|unix.EV_ENABLE|unix.EV_CLEAR)
		changes = append(changes, ev)
	} else {
		unix.SetKevent(&ev, fd, unix.EVFILT_READ, unix.EV_DELETE)
		drops = append(drops, ev)
	}
	if interest.Writable {
		unix.SetKevent(&ev, fd, unix.EVFILT_WRITE, unix.EV_ADD|unix.EV_ENABLE|unix.EV_CLEAR)
		changes = append(changes, ev)
	} else {
		unix.SetKevent(&ev, fd, unix.EVFILT_WRITE, unix.EV_DELETE)
		drops = append(drops, ev)
	}

	if len(changes) > 0 {
		if _, err := unix.Kevent(r.kq, changes, nil, nil); err != nil {
			return fmt.Errorf("kevent add fd %d: %w", fd, err)
		}
	}
	// Stale filters from a previous registration; absent ones are fine.
	for _, d := range drops {
		_, _ = unix.Kevent(r.kq, []unix.Kevent_t{d}, nil, nil)
	}

	r.mu.Lock()
	r.tokens[fd] = token
	r.mu.Unlock()
	return nil
}

// Deregister removes fd. Removing an fd that is not registered is not an
// error.
func (r *Reactor) Deregister(fd int) error {
	var rd, wr unix.Kevent_t
	unix.SetKevent(&rd, fd, unix.EVFILT_READ, unix.EV_DELETE)
	unix.SetKevent(&wr, fd, unix.EVFILT_WRITE, unix.EV_DELETE)
	_, _ = unix.Kevent(r.kq, []unix.Kevent_t{rd}, nil, nil)
	_, _ = unix.Kevent(r.kq, []unix.Kevent_t{wr}, nil, nil)

	r.mu.Lock()
	delete(r.tokens, fd)
	r.mu.Unlock()
	return nil
}

// Wait blocks until at least one registered descriptor is ready, the timeout
// elapses, or Wake is called from another thread. timeoutMs < 0 blocks
// indefinitely. Wake notifications are drained internally and never
// reported.
func (r *Reactor) Wait(events []Event, timeoutMs int) (int, error) {
	if len(r.raw) < len(events) {
		r.raw = make([]unix.Kevent_t, len(events))
	}
	var ts *unix.Timespec
	if timeoutMs >= 0 {
		t := unix.NsecToTimespec(int64(timeoutMs) * 1e6)
		ts = &t
	}
	n, err := unix.Kevent(r.kq, nil, r.raw[:len(events)], ts)
	if err != nil {
		if err == unix.EINTR {
			return 0, nil
		}
		return 0, fmt.Errorf("kevent wait: %w", err)
	}

	out := 0
	for i := 0; i < n; i++ {
		fd := int(r.raw[i].Ident)
		if fd == r.wakeR {
			r.drainWake()
			continue
		}
		r.mu.Lock()
		token, ok := r.tokens[fd]
		r.mu.Unlock()
		if !ok {
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
	_, err := unix.Write(r.wakeW, []byte{0})
	if err == unix.EAGAIN {
		// Pipe full: a wakeup is already pending.
		return nil
	}
	return err
}

func (r *Reactor) drainWake() {
	var buf [64]byte
	for {
		if _, err := unix.Read(r.wakeR, buf[:]); err != nil {
			return
		}
	}
}

// Close releases the kqueue instance and both ends of the wake pipe.
func (r *Reactor) Close() error {
	err := unix.Close(r.kq)
	if cerr := unix.Close(r.wakeR); err == nil {
		err = cerr
	}
	if cerr := unix.Close(r.wakeW); err == nil {
		err = cerr
	}
	return err
}
