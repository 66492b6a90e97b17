//go:build !linux

package reactor

import (
	"os"
	"os/signal"
	"sync"
	"syscall"
)

// fallbackSignalBackend delivers signals on platforms without
// signalfd(2), grounded on the same constraint annety documents for its
// own non-Linux SignalFD: there is exactly one process-wide handler, so
// every signal registered goes through a single os/signal.Notify
// channel pumped onto the owning Loop via Submit. No third-party
// alternative to os/signal exists anywhere in the retrieved pack for
// catching OS signals portably, so this one backend stays on the
// standard library (see DESIGN.md).
type fallbackSignalBackend struct {
	loop     *Loop
	dispatch func(signo int)

	mu      sync.Mutex
	current []os.Signal

	sigCh chan os.Signal
	stop  chan struct{}
}

func newSignalBackend(loop *Loop, dispatch func(signo int)) (signalBackend, error) {
	b := &fallbackSignalBackend{
		loop:     loop,
		dispatch: dispatch,
		sigCh:    make(chan os.Signal, 16),
		stop:     make(chan struct{}),
	}
	go b.pump()
	return b, nil
}

func (b *fallbackSignalBackend) pump() {
	for {
		select {
		case sig, ok := <-b.sigCh:
			if !ok {
				return
			}
			signo := int(sig.(syscall.Signal))
			b.loop.Submit(func() { b.dispatch(signo) })
		case <-b.stop:
			return
		}
	}
}

func (b *fallbackSignalBackend) add(signo int) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	sig := syscall.Signal(signo)
	for _, s := range b.current {
		if s == sig {
			return nil
		}
	}
	b.current = append(b.current, sig)
	signal.Notify(b.sigCh, b.current...)
	return nil
}

func (b *fallbackSignalBackend) remove(signo int) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	sig := syscall.Signal(signo)
	out := b.current[:0]
	for _, s := range b.current {
		if s != sig {
			out = append(out, s)
		}
	}
	b.current = out
	signal.Stop(b.sigCh)
	if len(b.current) > 0 {
		signal.Notify(b.sigCh, b.current...)
	}
	return nil
}

func (b *fallbackSignalBackend) clear() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.current = nil
	signal.Stop(b.sigCh)
	return nil
}

func (b *fallbackSignalBackend) close() error {
	signal.Stop(b.sigCh)
	close(b.stop)
	return nil
}
