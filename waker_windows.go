//go:build windows

package reactor

// newWaker is a stub on Windows: IOCP wakes via PostQueuedCompletionStatus
// (see iocpPoller.wake in poller_windows.go), not a pipe or eventfd, so
// there are no read/write fds to hand the Loop. Returning -1, -1 tells the
// Loop to route wakeups through the poller's wake method instead.
func newWaker() (readFD, writeFD int, err error) {
	return -1, -1, nil
}

func signalWaker(writeFD int) error { return nil }

func drainWaker(readFD int) error { return nil }
