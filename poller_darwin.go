//go:build darwin

package reactor

import (
	"fmt"
	"time"

	"golang.org/x/sys/unix"
)

// kqueuePoller is the Darwin Poller backend: Kqueue/Kevent keyed on
// *Channel and driven by the New/Added/Deleted membership state machine.
//
// kqueue has separate read and write filters rather than a single combined
// interest mask, so update must add/delete each filter independently when
// the Channel's interest bits change.
type kqueuePoller struct {
	kq       int
	channels map[int]*Channel
	eventBuf []unix.Kevent_t
}

func newPoller() (Poller, error) {
	kq, err := unix.Kqueue()
	if err != nil {
		return nil, fmt.Errorf("reactor: kqueue: %w", err)
	}
	unix.CloseOnExec(kq)
	return &kqueuePoller{
		kq:       kq,
		channels: make(map[int]*Channel),
		eventBuf: make([]unix.Kevent_t, initEventListSize),
	}, nil
}

func (p *kqueuePoller) poll(timeoutMs int) ([]*Channel, time.Time, error) {
	var ts *unix.Timespec
	if timeoutMs >= 0 {
		ts = &unix.Timespec{
			Sec:  int64(timeoutMs / 1000),
			Nsec: int64((timeoutMs % 1000) * 1000000),
		}
	}

	n, err := unix.Kevent(p.kq, nil, p.eventBuf, ts)
	pollTime := time.Now()
	if err != nil {
		if err == unix.EINTR {
			return nil, pollTime, nil
		}
		return nil, pollTime, fmt.Errorf("reactor: kevent wait: %w", err)
	}

	byFD := make(map[int]Events, n)
	for i := 0; i < n; i++ {
		kev := &p.eventBuf[i]
		fd := int(kev.Ident)
		byFD[fd] |= keventToEvents(kev)
	}

	active := make([]*Channel, 0, len(byFD))
	for fd, ev := range byFD {
		ch, ok := p.channels[fd]
		if !ok {
			continue
		}
		ch.SetRevents(ev)
		active = append(active, ch)
	}

	if n == len(p.eventBuf) && n < 1<<16 {
		p.eventBuf = make([]unix.Kevent_t, len(p.eventBuf)*2)
	}
	return active, pollTime, nil
}

func (p *kqueuePoller) update(ch *Channel) error {
	var prev Events
	switch ch.state {
	case stateNew, stateDeleted:
		if ch.state == stateNew {
			if _, exists := p.channels[ch.fd]; exists {
				return fmt.Errorf("reactor: kqueue update fd=%d: %w", ch.fd, ErrChannelAlreadyAdded)
			}
			p.channels[ch.fd] = ch
		}
		ch.state = stateAdded
	default:
		prev = ch.prevInterest
	}

	want := ch.events
	if want == prev {
		ch.prevInterest = want
		return nil
	}

	var changes []unix.Kevent_t
	if want&EventRead != 0 && prev&EventRead == 0 {
		changes = append(changes, kevent(ch.fd, unix.EVFILT_READ, unix.EV_ADD|unix.EV_ENABLE))
	} else if want&EventRead == 0 && prev&EventRead != 0 {
		changes = append(changes, kevent(ch.fd, unix.EVFILT_READ, unix.EV_DELETE))
	}
	if want&EventWrite != 0 && prev&EventWrite == 0 {
		changes = append(changes, kevent(ch.fd, unix.EVFILT_WRITE, unix.EV_ADD|unix.EV_ENABLE))
	} else if want&EventWrite == 0 && prev&EventWrite != 0 {
		changes = append(changes, kevent(ch.fd, unix.EVFILT_WRITE, unix.EV_DELETE))
	}

	ch.prevInterest = want
	if want == EventNone {
		ch.state = stateDeleted
	}
	if len(changes) == 0 {
		return nil
	}
	if _, err := unix.Kevent(p.kq, changes, nil, nil); err != nil {
		return fmt.Errorf("reactor: kevent ctl fd=%d: %w", ch.fd, err)
	}
	return nil
}

func (p *kqueuePoller) remove(ch *Channel) error {
	if !ch.IsNoneEvent() {
		return fmt.Errorf("reactor: kqueue remove fd=%d: %w", ch.fd, ErrChannelNotRemovable)
	}
	delete(p.channels, ch.fd)
	ch.state = stateNew
	ch.prevInterest = EventNone
	return nil
}

func (p *kqueuePoller) close() error {
	return unix.Close(p.kq)
}

func kevent(fd int, filter int16, flags uint16) unix.Kevent_t {
	return unix.Kevent_t{Ident: uint64(fd), Filter: filter, Flags: flags}
}

func keventToEvents(kev *unix.Kevent_t) Events {
	var ev Events
	switch kev.Filter {
	case unix.EVFILT_READ:
		ev |= EventRead
	case unix.EVFILT_WRITE:
		ev |= EventWrite
	}
	if kev.Flags&unix.EV_ERROR != 0 {
		ev |= EventErr
	}
	if kev.Flags&unix.EV_EOF != 0 {
		ev |= EventHup
	}
	return ev
}
