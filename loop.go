package reactor

import (
	"fmt"
	"runtime"
	"sync"
	"sync/atomic"
	"time"
)

// loop states. An atomic int32 rather than a mutex-guarded enum, since
// Quit and Submit must flip or read it from arbitrary goroutines without
// blocking on whatever the loop goroutine is doing.
type loopState int32

const (
	stateIdle loopState = iota
	stateRunning
	stateQuitting
	stateClosed
)

var loopIDCounter atomic.Uint64

// Loop is a single-goroutine reactor: one poller, one timer pool, one
// cross-goroutine task queue. Every Channel it owns, every timer it
// schedules, and every call to Submit's task body runs on the same
// goroutine — the one that calls Run. This mirrors muduo/annety's
// EventLoop exactly: an EventLoop is bound to the thread that
// constructs it, and every method that is not explicitly documented
// thread-safe must be called from that thread.
type Loop struct {
	_ [0]func() // anti-copy marker: Loop must always be passed as *Loop

	id   uint64
	name string

	state atomic.Int32

	// goroutineID is captured at construction time (the constructing
	// goroutine becomes the loop's permanent owner) and compared against
	// on every in-loop-only call, the Go analogue of annety's
	// check_in_own_loop() thread-id assertion.
	goroutineID uint64

	poller Poller

	wakeReadFD, wakeWriteFD int
	wakeChannel             *Channel
	wakePending             atomic.Bool

	pendingMu    sync.Mutex
	pending      []func()
	pendingSpare []func()

	timers *TimerPool

	pollTimeout time.Duration

	done         chan struct{}
	closeFDsOnce sync.Once
}

// NewLoop constructs a Loop bound to the calling goroutine. Run must
// later be called from this same goroutine.
func NewLoop(opts ...LoopOption) (*Loop, error) {
	o := resolveLoopOptions(opts)

	poller, err := newPoller()
	if err != nil {
		return nil, fmt.Errorf("reactor: new loop: %w", err)
	}

	l := &Loop{
		id:          loopIDCounter.Add(1),
		name:        o.name,
		goroutineID: getGoroutineID(),
		poller:      poller,
		pollTimeout: o.pollTimeout,
		done:        make(chan struct{}),
	}

	readFD, writeFD, err := newWaker()
	if err != nil {
		_ = poller.close()
		return nil, fmt.Errorf("reactor: new loop wakeup: %w", err)
	}
	l.wakeReadFD, l.wakeWriteFD = readFD, writeFD

	if readFD >= 0 {
		l.wakeChannel = NewChannel(l, readFD)
		l.wakeChannel.SetReadCallback(func(time.Time) { l.handleWakeup() })
		l.wakeChannel.EnableRead()
	}

	timers, err := newTimerPool(l)
	if err != nil {
		_ = poller.close()
		return nil, err
	}
	l.timers = timers

	logf(LevelTrace, "loop", nil, "Loop %q constructing id=%d", l.name, l.id)
	return l, nil
}

// Name returns the loop's diagnostic name (see WithName).
func (l *Loop) Name() string { return l.name }

func (l *Loop) isLoopGoroutine() bool {
	return getGoroutineID() == l.goroutineID
}

// assertInLoop panics if called from any goroutine other than the one
// that owns this Loop, the Go re-expression of annety's
// check_in_own_loop() DCHECK.
func (l *Loop) assertInLoop() {
	if !l.isLoopGoroutine() {
		panic(fmt.Sprintf("reactor: Loop %q method called from outside its owning goroutine", l.name))
	}
}

// Run blocks, dispatching I/O, timers, and submitted tasks until Quit is
// called or the Loop is closed. It must be called from the goroutine
// that constructed the Loop; calling it again while already running, or
// from a different goroutine than the constructor's, is an error.
func (l *Loop) Run() error {
	if !l.isLoopGoroutine() {
		return ErrReentrantRun
	}
	if !l.state.CompareAndSwap(int32(stateIdle), int32(stateRunning)) {
		switch loopState(l.state.Load()) {
		case stateClosed:
			return ErrLoopClosed
		default:
			return ErrLoopAlreadyRunning
		}
	}
	defer close(l.done)

	runtime.LockOSThread()
	defer runtime.UnlockOSThread()

	for loopState(l.state.Load()) == stateRunning {
		l.runPendingTasks()

		timeout := l.pollTimeout
		if next, ok := l.timers.nextExpiry(); ok {
			if d := time.Until(next); d < timeout {
				if d < 0 {
					d = 0
				}
				timeout = d
			}
		}

		active, pollTime, err := l.poller.poll(int(timeout.Milliseconds()))
		if err != nil {
			logf(LevelError, "loop", err, "Loop %q poll failed, aborting", l.name)
			l.state.Store(int32(stateClosed))
			l.closeFDsOnce.Do(func() { _ = l.closeResources() })
			return fmt.Errorf("reactor: Loop %q poll: %w", l.name, err)
		}
		for _, ch := range active {
			ch.HandleEvent(pollTime)
		}

		if !timerFDUsesChannel {
			l.timers.processExpired(time.Now())
		}

		l.runPendingTasks()
	}

	l.state.Store(int32(stateClosed))
	l.closeFDsOnce.Do(func() { _ = l.closeResources() })
	return nil
}

// Quit asks the Loop to return from Run at the next opportunity. Safe to
// call from any goroutine.
func (l *Loop) Quit() {
	if loopState(l.state.Load()) == stateRunning {
		l.state.CompareAndSwap(int32(stateRunning), int32(stateQuitting))
	}
	_ = l.wakeup()
}

// Submit queues fn to run on the Loop's goroutine and wakes the loop if
// it is blocked in poll. Safe to call from any goroutine, including the
// loop's own (fn then simply runs on the next iteration, never inline).
func (l *Loop) Submit(fn func()) {
	l.pendingMu.Lock()
	l.pending = append(l.pending, fn)
	l.pendingMu.Unlock()
	if l.wakePending.CompareAndSwap(false, true) {
		_ = l.wakeup()
	}
}

// SubmitSync queues fn and blocks until it has run. Called from the
// Loop's own goroutine, it runs fn inline instead of queueing it.
func (l *Loop) SubmitSync(fn func()) {
	if l.isLoopGoroutine() {
		fn()
		return
	}
	done := make(chan struct{})
	l.Submit(func() {
		defer close(done)
		fn()
	})
	<-done
}

// runInLoop runs fn immediately if called from the owning goroutine,
// otherwise marshals it through Submit — the Go shape of annety's
// run_in_own_loop, used internally by TimerPool.
func (l *Loop) runInLoop(fn func()) {
	if l.isLoopGoroutine() {
		fn()
		return
	}
	l.Submit(fn)
}

// runPendingTasks drains every task queued via Submit since the last
// drain. It swaps the live and spare slices under one lock acquisition
// and runs the batch outside the lock, rather than draining one task per
// acquisition, so Submit from other goroutines is never blocked behind a
// long-running task.
func (l *Loop) runPendingTasks() {
	l.pendingMu.Lock()
	l.pending, l.pendingSpare = l.pendingSpare, l.pending
	batch := l.pendingSpare
	l.pendingSpare = nil
	l.wakePending.Store(false)
	l.pendingMu.Unlock()

	if len(batch) == 0 {
		return
	}
	for _, fn := range batch {
		l.safeRun(fn)
	}

	l.pendingMu.Lock()
	l.pendingSpare = batch[:0]
	l.pendingMu.Unlock()
}

func (l *Loop) safeRun(fn func()) {
	defer func() {
		if r := recover(); r != nil {
			logf(LevelError, "loop", fmt.Errorf("%v", r), "Loop %q recovered panic in submitted task", l.name)
		}
	}()
	fn()
}

func (l *Loop) handleWakeup() {
	if err := drainWaker(l.wakeReadFD); err != nil {
		logf(LevelWarn, "loop", err, "Loop %q wake drain failed", l.name)
	}
}

// wakeup interrupts a blocked poll call. Safe from any goroutine.
func (l *Loop) wakeup() error {
	if l.wakeWriteFD < 0 {
		if p, ok := l.poller.(interface{ wake() error }); ok {
			return p.wake()
		}
		return nil
	}
	return signalWaker(l.wakeWriteFD)
}

// updateChannel registers ch's current interest mask with the poller.
// Only callable from the Loop's goroutine.
func (l *Loop) updateChannel(ch *Channel) {
	l.assertInLoop()
	if err := l.poller.update(ch); err != nil {
		logf(LevelError, "loop", err, "Loop %q update channel fd=%d failed", l.name, ch.fd)
	}
}

// removeChannel deregisters ch from the poller.
func (l *Loop) removeChannel(ch *Channel) error {
	l.assertInLoop()
	return l.poller.remove(ch)
}

// RunAt schedules fn to run once at the given time.
func (l *Loop) RunAt(when time.Time, fn func()) TimerHandle {
	return l.timers.AddTimer(fn, when, 0)
}

// RunAfter schedules fn to run once after delay.
func (l *Loop) RunAfter(delay time.Duration, fn func()) TimerHandle {
	return l.timers.AddTimer(fn, time.Now().Add(delay), 0)
}

// RunEvery schedules fn to run repeatedly every interval, starting one
// interval from now.
func (l *Loop) RunEvery(interval time.Duration, fn func()) TimerHandle {
	return l.timers.AddTimer(fn, time.Now().Add(interval), interval)
}

// CancelTimer cancels a timer previously returned by RunAt/RunAfter/
// RunEvery. Canceling from within the timer's own callback is safe
// (matches annety's canceling_timers_ guard in TimerPool).
func (l *Loop) CancelTimer(handle TimerHandle) {
	l.timers.CancelTimer(handle)
}

// Close stops the Loop and releases its OS resources, blocking until
// shutdown completes. Safe to call before Run, after Run has returned,
// or concurrently with Run to request shutdown.
func (l *Loop) Close() error {
	l.Quit()
	if l.state.CompareAndSwap(int32(stateIdle), int32(stateClosed)) {
		l.closeFDsOnce.Do(func() { _ = l.closeResources() })
		return nil
	}
	<-l.done
	return nil
}

func (l *Loop) closeResources() error {
	var firstErr error
	if err := l.timers.Close(); err != nil && firstErr == nil {
		firstErr = err
	}
	if l.wakeChannel != nil {
		l.wakeChannel.DisableAll()
		_ = l.wakeChannel.Remove()
	}
	if l.wakeReadFD >= 0 {
		if err := closeFD(l.wakeReadFD); err != nil && firstErr == nil {
			firstErr = err
		}
		if l.wakeWriteFD != l.wakeReadFD {
			if err := closeFD(l.wakeWriteFD); err != nil && firstErr == nil {
				firstErr = err
			}
		}
	}
	if err := l.poller.close(); err != nil && firstErr == nil {
		firstErr = err
	}
	return firstErr
}

// getGoroutineID parses the calling goroutine's id out of a runtime
// stack trace, used to bind a Loop to its constructing goroutine — Go
// has no supported, faster way to get a goroutine identity.
func getGoroutineID() uint64 {
	var buf [64]byte
	n := runtime.Stack(buf[:], false)
	var id uint64
	for i := len("goroutine "); i < n; i++ {
		if buf[i] >= '0' && buf[i] <= '9' {
			id = id*10 + uint64(buf[i]-'0')
		} else {
			break
		}
	}
	return id
}
