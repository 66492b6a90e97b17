//go:build !linux && !darwin && !windows

package reactor

import "golang.org/x/sys/unix"

// newWaker creates a self-pipe waker for poll(2)-based Unix platforms,
// the same mechanism as waker_darwin.go.
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

func signalWaker(writeFD int) error {
	_, err := unix.Write(writeFD, []byte{1})
	if err == unix.EAGAIN {
		return nil
	}
	return err
}

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
