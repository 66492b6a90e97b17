//go:build !linux && !darwin && !windows

package reactor

import (
	"sync"
	"time"

	"golang.org/x/sys/unix"
)

// Generic Unix fallback, identical in approach to timerfd_darwin.go: a
// self-pipe plus a background time.Timer, for platforms with neither
// timerfd(7) nor a usable kqueue timer filter.
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

var darwinTimerStates = struct {
	sync.Mutex
	m map[int]*platformTimerFD
}{m: make(map[int]*platformTimerFD)}

func newTimerFD() (int, error) {
	r, w, err := newWaker()
	if err != nil {
		return -1, err
	}
	state := &platformTimerFD{readFD: r, writeFD: w}
	darwinTimerStates.Lock()
	darwinTimerStates.m[r] = state
	darwinTimerStates.Unlock()
	return r, nil
}

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
