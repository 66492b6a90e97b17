//go:build darwin

package reactor

import "golang.org/x/sys/unix"

// newWaker creates a self-pipe waker: Darwin has no eventfd, so a
// non-blocking pipe stands in for it.
func newWaker() (readFD, writeFD int, err error) {
	var fds [2]int
	if err := unix.Pipe(fds[:]); err != nil {
		return -1, -1, err
	}
	unix.CloseOnExec(fds[0])
	unix.CloseOnExec(fds[1])
	if err := unix.SetNonblock(fds[0], true); err != nil {
		unix.Close(fds[0])
		unix.Close(fds[1])
		return -1, -1, err
	}
	if err := unix.SetNonblock(fds[1], true); err != nil {
		unix.Close(fds[0])
		unix.Close(fds[1])
		return -1, -1, err
	}
	return fds[0], fds[1], nil
}

// signalWaker writes a single byte, waking a goroutine blocked in
// kevent on readFD.
func signalWaker(writeFD int) error {
	_, err := unix.Write(writeFD, []byte{1})
	if err == unix.EAGAIN {
		return nil // pipe buffer already has a pending wake byte
	}
	return err
}

// drainWaker empties the pipe so the next signalWaker call triggers a
// fresh readiness edge.
func drainWaker(readFD int) error {
	var buf [64]byte
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
