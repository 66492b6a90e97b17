package reactor

import (
	"fmt"
	"time"
)

// TimerPool owns every timer scheduled on one Loop, grounded nearly
// line-for-line on annety's TimerPool (TimerPool.h/.cc): a timerfd-backed
// Channel wakes the loop at the earliest expiry, handle_read fires every
// timer due by then, and repeating timers are reinserted with their
// expiry advanced past now.
//
// The raw Timer* pointers annety keys its two containers on (TimerList,
// ActiveTimerSet) become timer sequence numbers here: timers is a
// timerHeap ordered by expiry, active is the sequence -> *timer arena
// that both answers cancellation lookups and proves a TimerHandle still
// refers to a live timer. See DESIGN NOTES (a) for why: a Go *timer is
// never reused by the allocator the way a freed C++ Timer* can be, so a
// stale handle simply misses in the arena instead of aliasing a new
// timer with the same address.
type TimerPool struct {
	loop *Loop

	fd   *descriptor
	ch   *Channel // nil when timerFDUsesChannel is false (Windows)
	wake func() error

	timers timerHeap
	active map[uint64]*timer

	callingExpired  bool
	cancelingExpired map[uint64]bool
}

func newTimerPool(loop *Loop) (*TimerPool, error) {
	fd, err := newTimerFD()
	if err != nil {
		return nil, fmt.Errorf("reactor: new timer pool: %w", err)
	}

	p := &TimerPool{
		loop:             loop,
		fd:               newDescriptor(fd, closeTimerFD),
		active:           make(map[uint64]*timer),
		cancelingExpired: make(map[uint64]bool),
	}

	if timerFDUsesChannel {
		p.ch = NewChannel(loop, fd)
		p.ch.SetReadCallback(func(time.Time) { p.handleRead() })
		p.ch.EnableRead()
	} else {
		bindTimerFDWaker(fd, func() error { return loop.wakeup() })
		p.wake = func() error { return loop.wakeup() }
	}

	logf(LevelTrace, "timer", nil, "TimerPool constructing fd=%d", fd)
	return p, nil
}

// AddTimer schedules cb to run at when, repeating every interval if
// interval > 0. Safe to call from any goroutine; the actual bookkeeping
// always happens on the owning Loop's goroutine, same as annety's
// add_timer marshalling through run_in_own_loop.
func (p *TimerPool) AddTimer(cb func(), when time.Time, interval time.Duration) TimerHandle {
	t := newTimer(cb, when, interval)
	p.loop.runInLoop(func() { p.addTimerInLoop(t) })
	return TimerHandle{seq: t.seq}
}

// CancelTimer cancels a previously scheduled timer. Canceling an
// already-fired one-shot timer, or an unknown handle, is a silent no-op.
func (p *TimerPool) CancelTimer(handle TimerHandle) {
	p.loop.runInLoop(func() { p.cancelTimerInLoop(handle.seq) })
}

func (p *TimerPool) addTimerInLoop(t *timer) {
	p.loop.assertInLoop()
	earliestChanged := p.save(t)
	if earliestChanged {
		p.rearm()
	}
}

func (p *TimerPool) cancelTimerInLoop(seq uint64) {
	p.loop.assertInLoop()
	t, ok := p.active[seq]
	if ok {
		p.timers.removeBySeq(seq)
		delete(p.active, seq)
		_ = t
		return
	}
	if p.callingExpired {
		p.cancelingExpired[seq] = true
	}
}

// handleRead is the timerfd Channel's read callback on platforms that
// register one (everywhere except Windows).
func (p *TimerPool) handleRead() {
	p.loop.assertInLoop()
	if err := drainTimerFD(p.fd.FD()); err != nil {
		logf(LevelWarn, "timer", err, "timer fd drain failed fd=%d", p.fd.FD())
	}
	p.processExpired(time.Now())
}

// processExpired runs every timer due at or before now and reschedules
// repeating ones. Safe to call even when nothing is due (it is the
// portable-fallback path's per-iteration safety net on Windows, see
// timerFDUsesChannel).
func (p *TimerPool) processExpired(now time.Time) {
	p.loop.assertInLoop()

	expired := p.popExpired(now)
	if len(expired) == 0 {
		return
	}

	p.callingExpired = true
	clear(p.cancelingExpired)

	for _, t := range expired {
		t.cb()
	}
	p.callingExpired = false

	for _, t := range expired {
		if t.repeats() && !p.cancelingExpired[t.seq] {
			t.restart(now)
			p.save(t)
		}
	}

	p.rearm()
}

func (p *TimerPool) popExpired(now time.Time) []*timer {
	var expired []*timer
	for {
		next := p.timers.peekMin()
		if next == nil || next.expires.After(now) {
			break
		}
		p.timers.popMin()
		delete(p.active, next.seq)
		expired = append(expired, next)
	}
	return expired
}

func (p *TimerPool) save(t *timer) bool {
	earliestChanged := false
	if next := p.timers.peekMin(); next == nil || t.expires.Before(next.expires) {
		earliestChanged = true
	}
	p.timers.push(t)
	p.active[t.seq] = t
	return earliestChanged
}

func (p *TimerPool) rearm() {
	next := p.timers.peekMin()
	if next == nil {
		return
	}
	delta := next.expires.Sub(time.Now())
	if err := armTimerFD(p.fd.FD(), delta); err != nil {
		logf(LevelWarn, "timer", err, "timer fd arm failed fd=%d", p.fd.FD())
	}
	if p.wake != nil {
		_ = p.wake()
	}
}

// nextExpiry reports the earliest pending expiry, used by the Loop on
// every platform to cap its poll timeout.
func (p *TimerPool) nextExpiry() (time.Time, bool) {
	t := p.timers.peekMin()
	if t == nil {
		return time.Time{}, false
	}
	return t.expires, true
}

func (p *TimerPool) Close() error {
	if p.ch != nil {
		p.ch.DisableAll()
		_ = p.ch.Remove()
	}
	return p.fd.Close()
}
