//go:build darwin

package reactor

import (
	"sync"
	"time"

	"golang.org/x/sys/unix"
)

// Darwin has no timerfd(7) equivalent, and kqueue's EVFILT_TIMER is keyed
// on an arbitrary ident rather than a pollable descriptor, so it can't
// produce the plain readable fd the rest of this package's Channel model
// expects. Instead this backend reuses the self-pipe waker: a time.Timer
// fires in the background and writes a byte to the pipe's write end on
// expiry, waking kevent the same way any other readable fd would.
const timerFDUsesChannel = true

// minTimerFDDelta is the smallest delta ever scheduled on the background
// timer: a zero or negative delta is clamped up to this floor, the same
// floor the Linux timerfd backend uses.
const minTimerFDDelta = 100 * time.Microsecond

type platformTimerFD struct {
	readFD, writeFD int
	mu              sync.Mutex
	timer           *time.Timer
}

func newTimerFDState() (*platformTimerFD, error) {
	r, w, err := newWaker() // self-pipe, identical mechanism
	if err != nil {
		return nil, err
	}
	return &platformTimerFD{readFD: r, writeFD: w}, nil
}

func newTimerFD() (int, error) {
	state, err := newTimerFDState()
	if err != nil {
		return -1, err
	}
	darwinTimerStates.Lock()
	darwinTimerStates.m[state.readFD] = state
	darwinTimerStates.Unlock()
	return state.readFD, nil
}

var darwinTimerStates = struct {
	sync.Mutex
	m map[int]*platformTimerFD
}{m: make(map[int]*platformTimerFD)}

func armTimerFD(fd int, delta time.Duration) error {
	darwinTimerStates.Lock()
	state := darwinTimerStates.m[fd]
	darwinTimerStates.Unlock()
	if state == nil {
		return nil
	}

	if delta <= 0 {
		delta = minTimerFDDelta
	}

	state.mu.Lock()
	defer state.mu.Unlock()
	if state.timer != nil {
		state.timer.Stop()
	}
	writeFD := state.writeFD
	state.timer = time.AfterFunc(delta, func() {
		_ = signalWaker(writeFD)
	})
	return nil
}

func drainTimerFD(fd int) error {
	return drainWaker(fd)
}

// closeTimerFD releases both pipe ends and stops any pending timer.
func closeTimerFD(fd int) error {
	darwinTimerStates.Lock()
	state, ok := darwinTimerStates.m[fd]
	if ok {
		delete(darwinTimerStates.m, fd)
	}
	darwinTimerStates.Unlock()
	if !ok {
		return nil
	}
	state.mu.Lock()
	if state.timer != nil {
		state.timer.Stop()
	}
	state.mu.Unlock()
	unix.Close(state.readFD)
	if state.writeFD != state.readFD {
		unix.Close(state.writeFD)
	}
	return nil
}
