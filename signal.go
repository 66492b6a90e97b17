package reactor

import (
	"fmt"
	"sync"
)

// SignalHandler is invoked on the owning Loop's goroutine when signo is
// delivered.
type SignalHandler func(signo int)

// signalBackend is the platform-specific signal delivery mechanism: a
// real signalfd on Linux (signalfd_linux.go), a process-wide
// os/signal.Notify pump everywhere else (signal_fallback.go) — the same
// split annety's own SignalFD makes between Linux signalfd and a
// sigaction-based fallback (SignalFD.cc).
type signalBackend interface {
	add(signo int) error
	remove(signo int) error
	clear() error
	close() error
}

// SignalDispatcher delivers OS signals as ordinary Loop-affine
// callbacks, grounded on annety's SignalFD plus the SignalPoller wrapper
// in signal.cc: signals are blocked from their default disposition and
// instead turned into read-ready events the reactor can dispatch like
// any other Channel, so a handler never runs on a true asynchronous
// signal stack.
//
// Only one SignalDispatcher may exist per process — the same
// restriction annety's non-Linux fallback enforces via its g_signal_fd
// global, because a signal handler has nowhere else to route a
// delivered signal.
type SignalDispatcher struct {
	loop *Loop

	mu       sync.Mutex
	handlers map[int]SignalHandler

	backend signalBackend
}

var (
	globalSignalMu         sync.Mutex
	globalSignalDispatcher *SignalDispatcher
)

// NewSignalDispatcher creates the process's SignalDispatcher, bound to
// loop. Its handlers run on loop's goroutine.
func NewSignalDispatcher(loop *Loop) (*SignalDispatcher, error) {
	globalSignalMu.Lock()
	defer globalSignalMu.Unlock()
	if globalSignalDispatcher != nil {
		return nil, ErrSignalDispatcherExists
	}

	d := &SignalDispatcher{loop: loop, handlers: make(map[int]SignalHandler)}
	backend, err := newSignalBackend(loop, d.dispatch)
	if err != nil {
		return nil, fmt.Errorf("reactor: new signal dispatcher: %w", err)
	}
	d.backend = backend

	globalSignalDispatcher = d
	return d, nil
}

// Add registers handler for signo, replacing any existing handler for
// that signal. Safe to call from any goroutine.
func (d *SignalDispatcher) Add(signo int, handler SignalHandler) error {
	d.mu.Lock()
	d.handlers[signo] = handler
	d.mu.Unlock()
	return d.backend.add(signo)
}

// Remove deregisters signo, reverting it to its default disposition.
func (d *SignalDispatcher) Remove(signo int) error {
	d.mu.Lock()
	delete(d.handlers, signo)
	d.mu.Unlock()
	return d.backend.remove(signo)
}

// Clear removes every registered handler.
func (d *SignalDispatcher) Clear() error {
	d.mu.Lock()
	for signo := range d.handlers {
		delete(d.handlers, signo)
	}
	d.mu.Unlock()
	return d.backend.clear()
}

// Close releases the dispatcher's OS resources and frees the process-
// wide singleton slot for a future NewSignalDispatcher call.
func (d *SignalDispatcher) Close() error {
	globalSignalMu.Lock()
	if globalSignalDispatcher == d {
		globalSignalDispatcher = nil
	}
	globalSignalMu.Unlock()
	return d.backend.close()
}

// dispatch looks up and runs signo's handler. Always called on the
// dispatcher's Loop goroutine by the active backend.
func (d *SignalDispatcher) dispatch(signo int) {
	d.mu.Lock()
	handler := d.handlers[signo]
	d.mu.Unlock()
	if handler == nil {
		return
	}
	func() {
		defer func() {
			if r := recover(); r != nil {
				logf(LevelError, "signal", fmt.Errorf("%v", r), "recovered panic in signal handler signo=%d", signo)
			}
		}()
		handler(signo)
	}()
}
