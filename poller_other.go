//go:build !linux && !darwin && !windows

package reactor

import (
	"fmt"
	"time"

	"golang.org/x/sys/unix"
)

// pollPoller is the portable poll(2) fallback Poller, used on every
// Unix other than Linux and Darwin. It scans its whole
// registration list every call, matching poll(2)'s own O(n) contract;
// there is no way to do better without an OS-specific readiness API.
type pollPoller struct {
	channels map[int]*Channel
	fds      []unix.PollFd
}

func newPoller() (Poller, error) {
	return &pollPoller{channels: make(map[int]*Channel)}, nil
}

func (p *pollPoller) poll(timeoutMs int) ([]*Channel, time.Time, error) {
	p.fds = p.fds[:0]
	order := make([]int, 0, len(p.channels))
	for fd, ch := range p.channels {
		p.fds = append(p.fds, unix.PollFd{Fd: int32(fd), Events: eventsToPoll(ch.events)})
		order = append(order, fd)
	}

	n, err := unix.Poll(p.fds, timeoutMs)
	pollTime := time.Now()
	if err != nil {
		if err == unix.EINTR {
			return nil, pollTime, nil
		}
		return nil, pollTime, fmt.Errorf("reactor: poll: %w", err)
	}

	active := make([]*Channel, 0, n)
	for i, pfd := range p.fds {
		if pfd.Revents == 0 {
			continue
		}
		ch := p.channels[order[i]]
		ch.SetRevents(pollToEvents(pfd.Revents))
		active = append(active, ch)
	}
	return active, pollTime, nil
}

func (p *pollPoller) update(ch *Channel) error {
	switch ch.state {
	case stateNew, stateDeleted:
		if ch.state == stateNew {
			if _, exists := p.channels[ch.fd]; exists {
				return fmt.Errorf("reactor: poll update fd=%d: %w", ch.fd, ErrChannelAlreadyAdded)
			}
			p.channels[ch.fd] = ch
		}
		ch.state = stateAdded
	default:
		if ch.IsNoneEvent() {
			ch.state = stateDeleted
		}
	}
	return nil
}

func (p *pollPoller) remove(ch *Channel) error {
	if !ch.IsNoneEvent() {
		return fmt.Errorf("reactor: poll remove fd=%d: %w", ch.fd, ErrChannelNotRemovable)
	}
	delete(p.channels, ch.fd)
	ch.state = stateNew
	return nil
}

func (p *pollPoller) close() error {
	return nil
}

func eventsToPoll(e Events) int16 {
	var out int16
	if e&EventRead != 0 {
		out |= unix.POLLIN
	}
	if e&EventPri != 0 {
		out |= unix.POLLPRI
	}
	if e&EventWrite != 0 {
		out |= unix.POLLOUT
	}
	return out
}

func pollToEvents(e int16) Events {
	var out Events
	if e&unix.POLLIN != 0 {
		out |= EventRead
	}
	if e&unix.POLLPRI != 0 {
		out |= EventPri
	}
	if e&unix.POLLOUT != 0 {
		out |= EventWrite
	}
	if e&unix.POLLERR != 0 {
		out |= EventErr
	}
	if e&unix.POLLHUP != 0 {
		out |= EventHup
	}
	if e&unix.POLLNVAL != 0 {
		out |= EventNval
	}
	return out
}
