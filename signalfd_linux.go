//go:build linux

package reactor

import (
	"fmt"
	"time"
	"unsafe"

	"golang.org/x/sys/unix"
)

// linuxSignalBackend delivers signals via signalfd(2), grounded on
// annety's internal::signalfd (SignalFD.cc): a process-wide sigset_t is
// built up incrementally as signals are added, blocked from their
// default disposition via sigprocmask, and re-applied to the signalfd
// with signalfd(fd, &mask, flags) on every change.
type linuxSignalBackend struct {
	fd       *descriptor
	ch       *Channel
	mask     unix.Sigset_t
	dispatch func(signo int)
}

func newSignalBackend(loop *Loop, dispatch func(signo int)) (signalBackend, error) {
	var mask unix.Sigset_t // empty
	fd, err := unix.Signalfd(-1, &mask, unix.SFD_NONBLOCK|unix.SFD_CLOEXEC)
	if err != nil {
		return nil, fmt.Errorf("reactor: signalfd: %w", err)
	}

	b := &linuxSignalBackend{fd: newDescriptor(fd, closeFD), mask: mask, dispatch: dispatch}
	b.ch = NewChannel(loop, fd)
	b.ch.SetReadCallback(func(time.Time) { b.handleRead() })
	b.ch.EnableRead()
	return b, nil
}

func (b *linuxSignalBackend) add(signo int) error {
	addSignal(&b.mask, signo)
	if err := unix.PthreadSigmask(unix.SIG_BLOCK, &b.mask, nil); err != nil {
		return fmt.Errorf("reactor: sigprocmask block signo=%d: %w", signo, err)
	}
	return b.apply()
}

func (b *linuxSignalBackend) remove(signo int) error {
	delSignal(&b.mask, signo)
	if err := unix.PthreadSigmask(unix.SIG_SETMASK, &b.mask, nil); err != nil {
		return fmt.Errorf("reactor: sigprocmask setmask signo=%d: %w", signo, err)
	}
	return b.apply()
}

func (b *linuxSignalBackend) clear() error {
	b.mask = unix.Sigset_t{}
	if err := unix.PthreadSigmask(unix.SIG_SETMASK, &b.mask, nil); err != nil {
		return fmt.Errorf("reactor: sigprocmask clear: %w", err)
	}
	return b.apply()
}

func (b *linuxSignalBackend) apply() error {
	_, err := unix.Signalfd(b.fd.FD(), &b.mask, unix.SFD_NONBLOCK|unix.SFD_CLOEXEC)
	if err != nil {
		return fmt.Errorf("reactor: signalfd update: %w", err)
	}
	return nil
}

func (b *linuxSignalBackend) close() error {
	b.ch.DisableAll()
	_ = b.ch.Remove()
	return b.fd.Close()
}

func (b *linuxSignalBackend) handleRead() {
	var info unix.SignalfdSiginfo
	buf := (*[unsafe.Sizeof(info)]byte)(unsafe.Pointer(&info))[:]
	n, err := unix.Read(b.fd.FD(), buf)
	if err != nil || n != len(buf) {
		return
	}
	b.dispatch(int(info.Signo))
}

func addSignal(set *unix.Sigset_t, signo int) {
	set.Val[(signo-1)/64] |= 1 << uint((signo-1)%64)
}

func delSignal(set *unix.Sigset_t, signo int) {
	set.Val[(signo-1)/64] &^= 1 << uint((signo-1)%64)
}
