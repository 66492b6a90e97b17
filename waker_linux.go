//go:build linux

package reactor

import "golang.org/x/sys/unix"

// newWaker creates an eventfd-backed waker: one fd serves as both read
// and write end.
func newWaker() (readFD, writeFD int, err error) {
	fd, err := unix.Eventfd(0, unix.EFD_CLOEXEC|unix.EFD_NONBLOCK)
	if err != nil {
		return -1, -1, err
	}
	return fd, fd, nil
}

// signalWaker writes one 64-bit counter increment, waking a goroutine
// blocked in epoll_wait on readFD.
func signalWaker(writeFD int) error {
	var buf [8]byte
	buf[0] = 1
	_, err := unix.Write(writeFD, buf[:])
	if err == unix.EAGAIN {
		return nil // already pending, no need to coalesce further
	}
	return err
}

// drainWaker consumes the eventfd counter so the next signalWaker call
// triggers a fresh readiness edge.
func drainWaker(readFD int) error {
	var buf [8]byte
	for {
		_, err := unix.Read(readFD, buf[:])
		if err != nil {
			if err == unix.EAGAIN {
				return nil
			}
			return err
		}
	}
}
