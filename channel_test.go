//go:build !windows

package reactor

import (
	"testing"
	"time"
)

func TestEventsString(t *testing.T) {
	cases := []struct {
		ev   Events
		want string
	}{
		{EventNone, "NONE"},
		{EventRead, "READ"},
		{EventRead | EventWrite, "READ|WRITE"},
		{EventHup, "HUP"},
	}
	for _, c := range cases {
		if got := c.ev.String(); got != c.want {
			t.Errorf("Events(%d).String() = %q, want %q", c.ev, got, c.want)
		}
	}
}

func TestGenerationTieInvalidatesDispatch(t *testing.T) {
	l := startTestLoop(t)

	var gen Generation
	var readFired, closeFired int

	r, w, err := newWaker()
	if err != nil {
		t.Fatalf("newWaker: %v", err)
	}
	t.Cleanup(func() { closeFD(r); closeFD(w) })

	l.SubmitSync(func() {
		ch := NewChannel(l, r)
		ch.SetReadCallback(func(time.Time) { readFired++ })
		ch.SetCloseCallback(func() { closeFired++ })
		ch.Tie(&gen)
		ch.EnableRead()

		// generation still matches: dispatch runs.
		ch.SetRevents(EventRead)
		ch.HandleEvent(time.Now())

		// bump invalidates the tie: dispatch is skipped entirely.
		gen.Bump()
		ch.SetRevents(EventRead)
		ch.HandleEvent(time.Now())
	})

	if readFired != 1 {
		t.Fatalf("readFired = %d, want 1 (second dispatch should have been skipped by the stale tie)", readFired)
	}
}

func TestChannelRemoveRequiresNoInterest(t *testing.T) {
	l := startTestLoop(t)

	r, w, err := newWaker()
	if err != nil {
		t.Fatalf("newWaker: %v", err)
	}
	t.Cleanup(func() { closeFD(r); closeFD(w) })

	l.SubmitSync(func() {
		ch := NewChannel(l, r)
		ch.EnableRead()
		if err := ch.Remove(); err == nil {
			t.Error("Remove should fail while interest bits are still set")
		}
		ch.DisableAll()
		if err := ch.Remove(); err != nil {
			t.Errorf("Remove after DisableAll: %v", err)
		}
	})
}

func TestChannelDispatchOrderCloseBeforeError(t *testing.T) {
	l := startTestLoop(t)
	r, w, err := newWaker()
	if err != nil {
		t.Fatalf("newWaker: %v", err)
	}
	t.Cleanup(func() { closeFD(r); closeFD(w) })

	l.SubmitSync(func() {
		var order []string
		ch := NewChannel(l, r)
		ch.SetCloseCallback(func() { order = append(order, "close") })
		ch.SetErrorCallback(func() { order = append(order, "error") })
		ch.SetReadCallback(func(time.Time) { order = append(order, "read") })
		ch.SetWriteCallback(func() { order = append(order, "write") })

		ch.SetRevents(EventHup | EventErr | EventWrite)
		ch.HandleEvent(time.Now())

		want := []string{"close", "error", "write"}
		if len(order) != len(want) {
			t.Fatalf("dispatch order = %v, want %v", order, want)
		}
		for i := range want {
			if order[i] != want[i] {
				t.Fatalf("dispatch order = %v, want %v", order, want)
			}
		}
	})
}
