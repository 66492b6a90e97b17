//go:build linux

package reactor

import (
	"time"

	"golang.org/x/sys/unix"
)

// timerFDUsesChannel reports whether the timer pool should register its
// fd with the poller via a Channel. True everywhere except Windows.
const timerFDUsesChannel = true

// newTimerFD creates a monotonic, non-blocking, close-on-exec timerfd.
func newTimerFD() (int, error) {
	return unix.TimerfdCreate(unix.CLOCK_MONOTONIC, unix.TFD_NONBLOCK|unix.TFD_CLOEXEC)
}

// minTimerFDDelta is the smallest delta ever passed to timerfd_settime: a
// zero or negative delta would disarm the timer instead of firing it almost
// immediately, so it gets clamped up to this floor.
const minTimerFDDelta = 100 * time.Microsecond

// armTimerFD schedules the next expiry. A non-positive delta disarms the
// timer, so it is clamped to minTimerFDDelta instead.
func armTimerFD(fd int, delta time.Duration) error {
	if delta <= 0 {
		delta = minTimerFDDelta
	}
	spec := unix.ItimerSpec{
		Value: unix.NsecToTimespec(delta.Nanoseconds()),
	}
	return unix.TimerfdSettime(fd, 0, &spec, nil)
}

// drainTimerFD consumes the expiry counter so the fd stops reporting
// ready until the next arm.
func drainTimerFD(fd int) error {
	var buf [8]byte
	_, err := unix.Read(fd, buf[:])
	if err == unix.EAGAIN {
		return nil
	}
	return err
}

// closeTimerFD closes a timerfd; on Linux it is a plain descriptor with
// no extra state to release.
func closeTimerFD(fd int) error {
	return unix.Close(fd)
}
