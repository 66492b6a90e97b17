//go:build linux

package reactor

import (
	"testing"

	"golang.org/x/sys/unix"
)

func TestEpollPollerReportsReadReady(t *testing.T) {
	p, err := newPoller()
	if err != nil {
		t.Fatalf("newPoller: %v", err)
	}
	t.Cleanup(func() { p.close() })

	var fds [2]int
	if err := unix.Pipe2(fds[:], unix.O_NONBLOCK); err != nil {
		t.Fatalf("pipe2: %v", err)
	}
	t.Cleanup(func() { unix.Close(fds[0]); unix.Close(fds[1]) })

	ch := NewChannel(nil, fds[0])
	ch.events = EventRead
	if err := p.update(ch); err != nil {
		t.Fatalf("update: %v", err)
	}

	active, _, err := p.poll(0)
	if err != nil {
		t.Fatalf("poll before write: %v", err)
	}
	if len(active) != 0 {
		t.Fatalf("poll reported %d active channels before any write, want 0", len(active))
	}

	if _, err := unix.Write(fds[1], []byte("x")); err != nil {
		t.Fatalf("write: %v", err)
	}

	active, _, err = p.poll(1000)
	if err != nil {
		t.Fatalf("poll after write: %v", err)
	}
	if len(active) != 1 || active[0] != ch {
		t.Fatalf("poll after write = %v, want [%v]", active, ch)
	}
	if active[0].revents&EventRead == 0 {
		t.Fatal("reported channel is missing the read-ready bit")
	}
}

func TestEpollPollerUpdateStateMachine(t *testing.T) {
	p, err := newPoller()
	if err != nil {
		t.Fatalf("newPoller: %v", err)
	}
	t.Cleanup(func() { p.close() })

	var fds [2]int
	if err := unix.Pipe2(fds[:], unix.O_NONBLOCK); err != nil {
		t.Fatalf("pipe2: %v", err)
	}
	t.Cleanup(func() { unix.Close(fds[0]); unix.Close(fds[1]) })

	ch := NewChannel(nil, fds[0])
	if ch.state != stateNew {
		t.Fatalf("new channel state = %v, want stateNew", ch.state)
	}

	ch.events = EventRead
	if err := p.update(ch); err != nil {
		t.Fatalf("update (add): %v", err)
	}
	if ch.state != stateAdded {
		t.Fatalf("state after add = %v, want stateAdded", ch.state)
	}

	ch.events = EventNone
	if err := p.update(ch); err != nil {
		t.Fatalf("update (none-event del): %v", err)
	}
	if ch.state != stateDeleted {
		t.Fatalf("state after clearing interest = %v, want stateDeleted", ch.state)
	}

	ch.events = EventRead
	if err := p.update(ch); err != nil {
		t.Fatalf("update (re-add from deleted): %v", err)
	}
	if ch.state != stateAdded {
		t.Fatalf("state after re-add = %v, want stateAdded", ch.state)
	}

	ch.events = EventNone
	if err := p.remove(ch); err != nil {
		t.Fatalf("remove: %v", err)
	}
	if ch.state != stateNew {
		t.Fatalf("state after remove = %v, want stateNew", ch.state)
	}
}
