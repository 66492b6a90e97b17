//go:build windows

package reactor

import (
	"fmt"
	"syscall"
	"time"

	"golang.org/x/sys/windows"
)

// iocpPoller is the Windows Poller backend: CreateIoCompletionPort/
// GetQueuedCompletionStatus/PostQueuedCompletionStatus.
//
// IOCP is a completion API, not a readiness API: it reports that a
// previously posted overlapped I/O finished, not that a handle is
// currently readable. Faithfully emulating epoll/kqueue-style level-
// triggered readiness on top of it needs a per-handle overlapped-read
// pump this package does not have sockets to drive, so update/poll here
// only track registration and wake the completion port; actual
// per-Channel revents still come from whatever overlapped operation the
// caller associates with the handle.
type iocpPoller struct {
	iocp     windows.Handle
	channels map[int]*Channel
}

func newPoller() (Poller, error) {
	iocp, err := windows.CreateIoCompletionPort(windows.InvalidHandle, 0, 0, 0)
	if err != nil {
		return nil, fmt.Errorf("reactor: CreateIoCompletionPort: %w", err)
	}
	return &iocpPoller{iocp: iocp, channels: make(map[int]*Channel)}, nil
}

func (p *iocpPoller) poll(timeoutMs int) ([]*Channel, time.Time, error) {
	var timeout *uint32
	if timeoutMs >= 0 {
		t := uint32(timeoutMs)
		timeout = &t
	}

	var bytes uint32
	var key uintptr
	var overlapped *windows.Overlapped

	err := windows.GetQueuedCompletionStatus(p.iocp, &bytes, &key, &overlapped, timeout)
	pollTime := time.Now()
	if err != nil {
		if errno, ok := err.(syscall.Errno); ok {
			if errno == windows.WAIT_TIMEOUT {
				return nil, pollTime, nil
			}
			if errno == windows.ERROR_ABANDONED_WAIT_0 || errno == windows.ERROR_INVALID_HANDLE {
				return nil, pollTime, fmt.Errorf("reactor: GetQueuedCompletionStatus: %w", ErrPollerClosed)
			}
		}
		return nil, pollTime, fmt.Errorf("reactor: GetQueuedCompletionStatus: %w", err)
	}
	if overlapped == nil {
		return nil, pollTime, nil // explicit wake, no Channel work
	}

	ch, ok := p.channels[int(key)]
	if !ok {
		return nil, pollTime, nil
	}
	ch.SetRevents(ch.events &^ EventWrite | EventRead)
	return []*Channel{ch}, pollTime, nil
}

func (p *iocpPoller) update(ch *Channel) error {
	switch ch.state {
	case stateNew, stateDeleted:
		if ch.state == stateNew {
			if _, exists := p.channels[ch.fd]; exists {
				return fmt.Errorf("reactor: iocp update fd=%d: %w", ch.fd, ErrChannelAlreadyAdded)
			}
			p.channels[ch.fd] = ch
			if _, err := windows.CreateIoCompletionPort(windows.Handle(ch.fd), p.iocp, uintptr(ch.fd), 0); err != nil {
				delete(p.channels, ch.fd)
				return fmt.Errorf("reactor: CreateIoCompletionPort fd=%d: %w", ch.fd, err)
			}
		}
		ch.state = stateAdded
	default:
		if ch.IsNoneEvent() {
			ch.state = stateDeleted
		}
	}
	return nil
}

func (p *iocpPoller) remove(ch *Channel) error {
	if !ch.IsNoneEvent() {
		return fmt.Errorf("reactor: iocp remove fd=%d: %w", ch.fd, ErrChannelNotRemovable)
	}
	delete(p.channels, ch.fd)
	ch.state = stateNew
	return nil
}

func (p *iocpPoller) close() error {
	return windows.CloseHandle(p.iocp)
}

// wake posts an empty completion packet to unblock a pending poll.
func (p *iocpPoller) wake() error {
	return windows.PostQueuedCompletionStatus(p.iocp, 0, 0, nil)
}
