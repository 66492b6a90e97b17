package reactor

import "sync"

// descriptor is a uniform, move-only handle for any pollable OS resource
// (socket, eventfd, timerfd, signalfd, pipe end). It owns the underlying fd
// exclusively and closes it exactly once.
//
// descriptor must not be copied; always pass it as *descriptor. This
// mirrors annety's SelectableFD, which holds the lifetime of the wrapped
// file descriptor and closes it on destruction.
type descriptor struct {
	_ [0]func() // anti-copy marker, the same zero-size-field idiom Loop uses

	fd       int
	closeFn  func(int) error
	closeOne sync.Once
}

// newDescriptor wraps fd, to be closed via closeFn (defaulting to the
// platform's raw close(2) if closeFn is nil).
func newDescriptor(fd int, closeFn func(int) error) *descriptor {
	if closeFn == nil {
		closeFn = closeFD
	}
	return &descriptor{fd: fd, closeFn: closeFn}
}

// FD returns the raw file descriptor.
func (d *descriptor) FD() int {
	return d.fd
}

// Close closes the underlying descriptor exactly once; subsequent calls
// are no-ops that return nil.
func (d *descriptor) Close() error {
	var err error
	d.closeOne.Do(func() {
		err = d.closeFn(d.fd)
	})
	return err
}
