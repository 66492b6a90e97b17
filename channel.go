package reactor

import (
	"fmt"
	"sync/atomic"
	"time"
)

// Events is a platform-independent readiness bitmask. Channels deal only
// in Events; each Poller implementation translates to/from the OS-native
// encoding (epoll_event.events, kqueue filter+flags, poll.events, ...).
type Events uint32

// Readiness bits, named after their epoll/poll counterparts. Not every
// Poller implementation can distinguish all of them (e.g. kqueue has no
// direct RDHUP equivalent); implementations fold what they can't
// distinguish into the nearest bit.
const (
	EventNone  Events = 0
	EventRead  Events = 1 << iota
	EventPri
	EventWrite
	EventErr
	EventHup
	EventRDHup
	EventNval
)

func (e Events) String() string {
	if e == EventNone {
		return "NONE"
	}
	names := []struct {
		bit  Events
		name string
	}{
		{EventRead, "READ"}, {EventPri, "PRI"}, {EventWrite, "WRITE"},
		{EventErr, "ERR"}, {EventHup, "HUP"}, {EventRDHup, "RDHUP"}, {EventNval, "NVAL"},
	}
	s := ""
	for _, n := range names {
		if e&n.bit != 0 {
			if s != "" {
				s += "|"
			}
			s += n.name
		}
	}
	return s
}

// pollerState is a Channel's membership state machine in its Poller, per
// the spec: New -> Added -> Deleted -> Added -> ...
type pollerState int

const (
	stateNew pollerState = iota
	stateAdded
	stateDeleted
)

// Generation is a back-reference a Channel owner uses to invalidate its
// own Channel callbacks after the owner is logically destroyed (e.g. a
// connection object shut down but not yet garbage collected). This is the
// Go re-expression of a weak-pointer "tie": the owner bumps its
// Generation on shutdown, and any Channel tied to it before that point
// will see a mismatched snapshot and skip dispatch — the generation-
// counter approach DESIGN NOTES calls for in place of std::weak_ptr.
type Generation struct {
	v atomic.Uint64
}

// Snapshot returns the current generation value.
func (g *Generation) Snapshot() uint64 { return g.v.Load() }

// Bump invalidates every Channel previously tied to this generation.
func (g *Generation) Bump() { g.v.Add(1) }

// Channel binds one file descriptor to one Loop for the descriptor's
// lifetime, translating OS readiness into read/write/close/error
// callbacks. A Channel must be mutated only from its owning Loop's
// goroutine; it does not own the underlying fd (the fd's lifetime belongs
// to whatever created it, typically a *descriptor).
type Channel struct {
	loop *Loop
	fd   int

	events  Events // interest mask
	revents Events // last reported bits, set by the poller before dispatch

	state pollerState // poller membership

	readCB  func(receiveTime time.Time)
	writeCB func()
	closeCB func()
	errorCB func()

	tieGen      *Generation
	tieSnapshot uint64

	// index is poller-implementation-private bookkeeping (e.g. an epoll
	// interest-list slot); the poller is the only code that touches it.
	index int

	// prevInterest is poller-implementation-private bookkeeping for
	// backends (kqueue) that must diff the interest mask themselves rather
	// than overwrite it in one call.
	prevInterest Events
}

// NewChannel creates a Channel for fd, owned by loop. The Channel starts
// with no interest bits and state New; it is not registered with the
// poller until EnableRead/EnableWrite is called.
func NewChannel(loop *Loop, fd int) *Channel {
	return &Channel{loop: loop, fd: fd, state: stateNew, index: -1}
}

// FD returns the bound file descriptor.
func (c *Channel) FD() int { return c.fd }

// Events returns the current interest mask.
func (c *Channel) Events() Events { return c.events }

// SetRevents records the readiness bits reported by the poller for this
// dispatch round. Only the poller should call this.
func (c *Channel) SetRevents(ev Events) { c.revents = ev }

// SetReadCallback installs the read callback, invoked with the poll
// return time when a read-ready/urgent/read-half-closed bit fires.
func (c *Channel) SetReadCallback(cb func(receiveTime time.Time)) {
	c.loop.assertInLoop()
	c.readCB = cb
}

// SetWriteCallback installs the write callback, invoked when the
// write-ready bit fires.
func (c *Channel) SetWriteCallback(cb func()) {
	c.loop.assertInLoop()
	c.writeCB = cb
}

// SetCloseCallback installs the close callback, invoked when the
// hang-up bit fires without a simultaneous read-ready bit.
func (c *Channel) SetCloseCallback(cb func()) {
	c.loop.assertInLoop()
	c.closeCB = cb
}

// SetErrorCallback installs the error callback, invoked when the
// invalid-fd or error bit fires.
func (c *Channel) SetErrorCallback(cb func()) {
	c.loop.assertInLoop()
	c.errorCB = cb
}

// Tie attaches gen as this Channel's tie: at dispatch time, if gen's
// generation no longer matches the value captured here, the entire
// dispatch for this event is skipped (the owning object has been
// destroyed).
func (c *Channel) Tie(gen *Generation) {
	c.loop.assertInLoop()
	c.tieGen = gen
	c.tieSnapshot = gen.Snapshot()
}

// tieAlive reports whether the tie (if any) is still upgradable.
func (c *Channel) tieAlive() bool {
	if c.tieGen == nil {
		return true
	}
	return c.tieGen.Snapshot() == c.tieSnapshot
}

// EnableRead adds the read interest bit and asks the poller to update.
func (c *Channel) EnableRead() {
	c.loop.assertInLoop()
	c.events |= EventRead
	c.loop.updateChannel(c)
}

// DisableRead clears the read interest bit.
func (c *Channel) DisableRead() {
	c.loop.assertInLoop()
	c.events &^= EventRead
	c.loop.updateChannel(c)
}

// EnableWrite adds the write interest bit.
func (c *Channel) EnableWrite() {
	c.loop.assertInLoop()
	c.events |= EventWrite
	c.loop.updateChannel(c)
}

// DisableWrite clears the write interest bit.
func (c *Channel) DisableWrite() {
	c.loop.assertInLoop()
	c.events &^= EventWrite
	c.loop.updateChannel(c)
}

// DisableAll clears every interest bit; must precede Remove.
func (c *Channel) DisableAll() {
	c.loop.assertInLoop()
	c.events = EventNone
	c.loop.updateChannel(c)
}

// IsNoneEvent reports whether the Channel currently has no interest bits.
func (c *Channel) IsNoneEvent() bool { return c.events == EventNone }

// IsWriting reports whether the write interest bit is set.
func (c *Channel) IsWriting() bool { return c.events&EventWrite != 0 }

// IsReading reports whether the read interest bit is set.
func (c *Channel) IsReading() bool { return c.events&EventRead != 0 }

// Remove deregisters the Channel from the poller. DisableAll must have
// been called first (the Channel must currently have no interest bits).
func (c *Channel) Remove() error {
	c.loop.assertInLoop()
	if !c.IsNoneEvent() {
		return fmt.Errorf("reactor: Channel.Remove fd=%d: %w", c.fd, ErrChannelNotRemovable)
	}
	return c.loop.removeChannel(c)
}

// HandleEvent dispatches revents against the installed callbacks, in the
// order the spec mandates:
//
//  1. hang-up without read-ready -> close callback
//  2. invalid-fd or error        -> error callback
//  3. read-ready/urgent/rdhup    -> read callback
//  4. write-ready                -> write callback
//
// If a tie is attached and no longer upgradable, the whole dispatch is
// skipped.
func (c *Channel) HandleEvent(receiveTime time.Time) {
	if !c.tieAlive() {
		return
	}
	c.handleEventWithGuard(receiveTime)
}

func (c *Channel) handleEventWithGuard(receiveTime time.Time) {
	defer func() {
		if r := recover(); r != nil {
			logf(LevelError, "channel", fmt.Errorf("%v", r),
				"recovered panic in channel callback fd=%d", c.fd)
		}
	}()

	ev := c.revents
	if ev&EventHup != 0 && ev&EventRead == 0 {
		if c.closeCB != nil {
			c.closeCB()
		}
	}
	if ev&(EventErr|EventNval) != 0 {
		if c.errorCB != nil {
			c.errorCB()
		}
	}
	if ev&(EventRead|EventPri|EventRDHup) != 0 {
		if c.readCB != nil {
			c.readCB(receiveTime)
		}
	}
	if ev&EventWrite != 0 {
		if c.writeCB != nil {
			c.writeCB()
		}
	}
}
