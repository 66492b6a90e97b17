package reactor

import "errors"

// Sentinel errors returned by Loop, Pool, Poller and the timer/signal
// machinery. Invariant violations (wrong-goroutine access, double
// registration) panic instead of returning an error, matching annety's
// DCHECK/CHECK convention — these are programmer errors, not recoverable
// runtime conditions.
var (
	// ErrLoopClosed is returned when an operation is attempted against a
	// Loop that has already run Close.
	ErrLoopClosed = errors.New("reactor: loop is closed")

	// ErrLoopAlreadyRunning is returned by Run when it is called on the
	// owning goroutine while the loop is already running (a nested Run).
	ErrLoopAlreadyRunning = errors.New("reactor: loop is already running")

	// ErrLoopNotRunning names the not-yet-running condition. No Loop
	// method returns it: in-loop-only operations called from the wrong
	// goroutine panic instead.
	ErrLoopNotRunning = errors.New("reactor: loop is not running")

	// ErrReentrantRun is returned by Run when it is called from a
	// goroutine other than the one that constructed the Loop.
	ErrReentrantRun = errors.New("reactor: Run called from a goroutine other than the loop's owner")

	// ErrPollerClosed is returned by Poller operations after Close.
	ErrPollerClosed = errors.New("reactor: poller is closed")

	// ErrFDOutOfRange names a descriptor beyond a direct-indexed poller's
	// capacity. The pollers in this package key channels by a map, have
	// no such limit, and never return it.
	ErrFDOutOfRange = errors.New("reactor: fd out of range")

	// ErrChannelAlreadyAdded is returned by Poller.update when a channel's
	// fd is already registered under a different *Channel.
	ErrChannelAlreadyAdded = errors.New("reactor: channel already registered")

	// ErrChannelNotRemovable is returned by Poller.remove when the channel
	// still has interest bits set.
	ErrChannelNotRemovable = errors.New("reactor: channel must disable all events before removal")

	// ErrInvalidTimerHandle names a timer handle that refers to no live
	// timer. TimerPool never returns it: CancelTimer on an unknown, fired
	// or already cancelled handle is a silent no-op.
	ErrInvalidTimerHandle = errors.New("reactor: invalid timer handle")

	// ErrPoolAlreadyStarted is returned by Pool.Start called twice.
	ErrPoolAlreadyStarted = errors.New("reactor: pool already started")

	// ErrThreadPoolStopped names the stopped-pool condition. ThreadPool
	// does not return it: Submit on a pool that is not running panics.
	ErrThreadPoolStopped = errors.New("reactor: thread pool is stopped")

	// ErrThreadAlreadyStarted is returned by Thread.Start/StartAsync called
	// more than once.
	ErrThreadAlreadyStarted = errors.New("reactor: thread already started")

	// ErrSignalDispatcherExists is returned by NewSignalDispatcher when one
	// already exists process-wide; annety's own fallback signal handler
	// enforces the same one-instance rule (SignalFD.cc: g_signal_fd).
	ErrSignalDispatcherExists = errors.New("reactor: a signal dispatcher already exists")
)
