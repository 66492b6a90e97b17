package reactor

import (
	"fmt"
	"sync"
	"sync/atomic"
)

// countDownLatch is a one-shot gate a goroutine can wait on until some
// other goroutine has signalled readiness, the Go re-expression of
// annety's CountDownLatch (a condition-variable-guarded counter used
// here, as there, purely as a start-of-day handshake with count 1).
type countDownLatch struct {
	once sync.Once
	done chan struct{}
}

func newCountDownLatch() *countDownLatch {
	return &countDownLatch{done: make(chan struct{})}
}

func (c *countDownLatch) countDown() { c.once.Do(func() { close(c.done) }) }

func (c *countDownLatch) await() { <-c.done }

// ThreadOptions configures a Thread. The zero value is non-joinable;
// NewThread without options uses DefaultThreadOptions, which is
// joinable, the same default annety's Thread::Options carries.
type ThreadOptions struct {
	// Joinable, when false, means Join must never be called; the
	// goroutine runs detached and the Thread is not tracked for
	// shutdown. Matches annety's non-joinable PlatformThread path used
	// for fire-and-forget worker threads.
	Joinable bool
}

// DefaultThreadOptions returns joinable Options, annety's Options().
func DefaultThreadOptions() ThreadOptions { return ThreadOptions{Joinable: true} }

// Thread runs a single function on its own goroutine, grounded on
// annety's Thread (Thread.h/.cc): Start blocks until the goroutine has
// begun running (via a CountDownLatch-equivalent handshake),
// StartAsync returns immediately, and a joinable Thread must be joined
// exactly once before it is discarded.
type Thread struct {
	namePrefix string
	options    ThreadOptions
	fn         func()

	startCalled atomic.Bool
	started     atomic.Bool
	joined      atomic.Bool

	latch *countDownLatch
	done  chan struct{}
}

// NewThread creates a Thread that will run fn under name, joinable by
// default.
func NewThread(fn func(), namePrefix string, opts ...ThreadOptions) *Thread {
	o := DefaultThreadOptions()
	if len(opts) > 0 {
		o = opts[0]
	}
	return &Thread{
		namePrefix: namePrefix,
		options:    o,
		fn:         fn,
		latch:      newCountDownLatch(),
		done:       make(chan struct{}),
	}
}

// Start launches the thread and blocks until fn has begun running.
func (t *Thread) Start() error {
	if err := t.StartAsync(); err != nil {
		return err
	}
	t.latch.await()
	t.started.Store(true)
	return nil
}

// StartAsync launches the thread without waiting for fn to begin.
func (t *Thread) StartAsync() error {
	if !t.startCalled.CompareAndSwap(false, true) {
		return fmt.Errorf("reactor: thread %q: %w", t.namePrefix, ErrThreadAlreadyStarted)
	}
	go t.run()
	return nil
}

func (t *Thread) run() {
	defer close(t.done)
	t.started.Store(true)
	t.latch.countDown()
	t.fn()
}

// Join waits for the thread to return. Only valid on a joinable Thread
// that has been started; joining twice panics, matching annety's
// DCHECK(!has_been_joined()).
func (t *Thread) Join() {
	if !t.options.Joinable {
		panic(fmt.Sprintf("reactor: thread %q: a non-joinable thread can't be joined", t.namePrefix))
	}
	if !t.startCalled.Load() {
		panic(fmt.Sprintf("reactor: thread %q: joined before being started", t.namePrefix))
	}
	if !t.joined.CompareAndSwap(false, true) {
		panic(fmt.Sprintf("reactor: thread %q: joined more than once", t.namePrefix))
	}
	<-t.done
}

// HasBeenStarted reports whether Start has completed (or, for
// StartAsync, whether fn has begun running).
func (t *Thread) HasBeenStarted() bool { return t.started.Load() }

// HasBeenJoined reports whether Join has been called.
func (t *Thread) HasBeenJoined() bool { return t.joined.Load() }

// HasStartBeenAttempted reports whether Start or StartAsync has been
// called, regardless of whether fn has begun running yet.
func (t *Thread) HasStartBeenAttempted() bool { return t.startCalled.Load() }
