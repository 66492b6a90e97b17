//go:build linux

package reactor

import (
	"fmt"
	"time"

	"golang.org/x/sys/unix"
)

const initEventListSize = 16

// epollPoller is the Linux Poller backend: EpollCreate1/EpollCtl/EpollWait
// keyed on *Channel (a map from fd to Channel) and driven by the
// New/Added/Deleted state machine, the same transition table muduo's
// EPollPoller implements.
type epollPoller struct {
	epfd     int
	channels map[int]*Channel
	eventBuf []unix.EpollEvent
}

func newPoller() (Poller, error) {
	epfd, err := unix.EpollCreate1(unix.EPOLL_CLOEXEC)
	if err != nil {
		return nil, fmt.Errorf("reactor: epoll_create1: %w", err)
	}
	return &epollPoller{
		epfd:     epfd,
		channels: make(map[int]*Channel),
		eventBuf: make([]unix.EpollEvent, initEventListSize),
	}, nil
}

func (p *epollPoller) poll(timeoutMs int) ([]*Channel, time.Time, error) {
	n, err := unix.EpollWait(p.epfd, p.eventBuf, timeoutMs)
	pollTime := time.Now()
	if err != nil {
		if err == unix.EINTR {
			return nil, pollTime, nil
		}
		return nil, pollTime, fmt.Errorf("reactor: epoll_wait: %w", err)
	}

	active := make([]*Channel, 0, n)
	for i := 0; i < n; i++ {
		ev := p.eventBuf[i]
		ch, ok := p.channels[int(ev.Fd)]
		if !ok {
			continue
		}
		ch.SetRevents(epollToEvents(ev.Events))
		active = append(active, ch)
	}

	if n == len(p.eventBuf) && n < 1<<16 {
		p.eventBuf = make([]unix.EpollEvent, len(p.eventBuf)*2)
	}
	return active, pollTime, nil
}

func (p *epollPoller) update(ch *Channel) error {
	switch ch.state {
	case stateNew, stateDeleted:
		if ch.state == stateNew {
			if _, exists := p.channels[ch.fd]; exists {
				return fmt.Errorf("reactor: epoll update fd=%d: %w", ch.fd, ErrChannelAlreadyAdded)
			}
			p.channels[ch.fd] = ch
		}
		ch.state = stateAdded
		return p.ctl(unix.EPOLL_CTL_ADD, ch)
	default: // stateAdded
		if ch.IsNoneEvent() {
			if err := p.ctl(unix.EPOLL_CTL_DEL, ch); err != nil {
				return err
			}
			ch.state = stateDeleted
			return nil
		}
		return p.ctl(unix.EPOLL_CTL_MOD, ch)
	}
}

func (p *epollPoller) remove(ch *Channel) error {
	if !ch.IsNoneEvent() {
		return fmt.Errorf("reactor: epoll remove fd=%d: %w", ch.fd, ErrChannelNotRemovable)
	}
	delete(p.channels, ch.fd)
	if ch.state == stateAdded {
		if err := p.ctl(unix.EPOLL_CTL_DEL, ch); err != nil {
			return err
		}
	}
	ch.state = stateNew
	return nil
}

func (p *epollPoller) close() error {
	return unix.Close(p.epfd)
}

func (p *epollPoller) ctl(op int, ch *Channel) error {
	ev := unix.EpollEvent{
		Events: eventsToEpoll(ch.events),
		Fd:     int32(ch.fd),
	}
	if err := unix.EpollCtl(p.epfd, op, ch.fd, &ev); err != nil {
		return fmt.Errorf("reactor: epoll_ctl(op=%d, fd=%d): %w", op, ch.fd, err)
	}
	return nil
}

func eventsToEpoll(e Events) uint32 {
	var out uint32
	if e&EventRead != 0 {
		out |= unix.EPOLLIN
	}
	if e&EventPri != 0 {
		out |= unix.EPOLLPRI
	}
	if e&EventWrite != 0 {
		out |= unix.EPOLLOUT
	}
	return out
}

func epollToEvents(e uint32) Events {
	var out Events
	if e&unix.EPOLLIN != 0 {
		out |= EventRead
	}
	if e&unix.EPOLLPRI != 0 {
		out |= EventPri
	}
	if e&unix.EPOLLOUT != 0 {
		out |= EventWrite
	}
	if e&unix.EPOLLERR != 0 {
		out |= EventErr
	}
	if e&unix.EPOLLHUP != 0 {
		out |= EventHup
	}
	if e&unix.EPOLLRDHUP != 0 {
		out |= EventRDHup
	}
	return out
}
