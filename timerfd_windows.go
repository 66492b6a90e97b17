//go:build windows

package reactor

import (
	"sync"
	"time"
)

// Windows has no timerfd and the IOCP poller has no pollable fd to tie a
// timer to, so the timer pool's "descriptor" is a synthetic handle: an
// integer key into a table of background time.Timer state, the same
// bookkeeping choice timerfd_darwin.go makes but without a backing pipe -
// wakeups post directly into the IOCP port via iocpPoller.wake.
const timerFDUsesChannel = false

// minTimerFDDelta is the smallest delta ever scheduled on the background
// timer: a zero or negative delta is clamped up to this floor, the same
// floor the Linux timerfd backend uses.
const minTimerFDDelta = 100 * time.Microsecond

type platformTimerFD struct {
	key   int
	mu    sync.Mutex
	timer *time.Timer
	wake  func() error
}

var windowsTimerStates = struct {
	sync.Mutex
	next int
	m    map[int]*platformTimerFD
}{m: make(map[int]*platformTimerFD)}

// newTimerFD allocates a synthetic handle; wake is supplied later via
// bindTimerFDWaker by newTimerPool.
func newTimerFD() (int, error) {
	windowsTimerStates.Lock()
	defer windowsTimerStates.Unlock()
	windowsTimerStates.next++
	key := windowsTimerStates.next
	windowsTimerStates.m[key] = &platformTimerFD{key: key}
	return key, nil
}

// bindTimerFDWaker installs the function that wakes the owning Loop's
// poll call, called once by newTimerPool right after creating the fd.
func bindTimerFDWaker(fd int, wake func() error) {
	windowsTimerStates.Lock()
	state := windowsTimerStates.m[fd]
	windowsTimerStates.Unlock()
	if state != nil {
		state.wake = wake
	}
}

func armTimerFD(fd int, delta time.Duration) error {
	windowsTimerStates.Lock()
	state := windowsTimerStates.m[fd]
	windowsTimerStates.Unlock()
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
	state.timer = time.AfterFunc(delta, func() {
		if state.wake != nil {
			_ = state.wake()
		}
	})
	return nil
}

func drainTimerFD(fd int) error { return nil }

func closeTimerFD(fd int) error {
	windowsTimerStates.Lock()
	state, ok := windowsTimerStates.m[fd]
	if ok {
		delete(windowsTimerStates.m, fd)
	}
	windowsTimerStates.Unlock()
	if ok {
		state.mu.Lock()
		if state.timer != nil {
			state.timer.Stop()
		}
		state.mu.Unlock()
	}
	return nil
}
