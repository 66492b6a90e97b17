package reactor

import "time"

// Poller is the OS readiness multiplexer contract every platform backend
// implements: epoll on Linux, kqueue on Darwin, IOCP on Windows, and
// poll(2) on every other Unix. A Poller is created with its Loop and destroyed with it; it is not
// safe for concurrent use from multiple goroutines (only the owning
// Loop's goroutine calls it).
type Poller interface {
	// poll blocks up to timeoutMs (-1 = forever, 0 = non-blocking) and
	// returns the Channels whose descriptors are ready, each already
	// carrying its fired bits (Channel.revents). Returns an empty slice on
	// timeout or benign interruption (EINTR); any other error is fatal to
	// the loop.
	poll(timeoutMs int) (active []*Channel, pollTime time.Time, err error)

	// update synchronises the OS state with ch's interest mask and
	// membership state, following New -> Added -> Deleted -> Added.
	update(ch *Channel) error

	// remove deregisters ch. ch must have no interest bits and must
	// currently be Added or Deleted.
	remove(ch *Channel) error

	// close releases the poller's own OS resources (e.g. the epoll fd).
	close() error
}
