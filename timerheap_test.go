package reactor

import (
	"testing"
	"time"
)

func TestTimerHeapOrdersByExpiryThenSequence(t *testing.T) {
	base := time.Now()
	var h timerHeap

	a := newTimer(nil, base.Add(30*time.Millisecond), 0)
	b := newTimer(nil, base.Add(10*time.Millisecond), 0)
	c := newTimer(nil, base.Add(20*time.Millisecond), 0)
	// d shares an expiry with b but was created later, so it must sort
	// after b despite the tied expiry.
	d := newTimer(nil, base.Add(10*time.Millisecond), 0)

	for _, tm := range []*timer{a, b, c, d} {
		h.push(tm)
	}

	want := []*timer{b, d, c, a}
	for i, exp := range want {
		got := h.popMin()
		if got != exp {
			t.Fatalf("pop %d = seq %d, want seq %d", i, got.seq, exp.seq)
		}
	}
}

func TestTimerHeapRemoveBySeq(t *testing.T) {
	base := time.Now()
	var h timerHeap
	a := newTimer(nil, base.Add(10*time.Millisecond), 0)
	b := newTimer(nil, base.Add(20*time.Millisecond), 0)
	h.push(a)
	h.push(b)

	if !h.removeBySeq(a.seq) {
		t.Fatal("removeBySeq(a) = false, want true")
	}
	if h.removeBySeq(a.seq) {
		t.Fatal("removeBySeq(a) a second time should be a no-op false")
	}
	if got := h.peekMin(); got != b {
		t.Fatalf("peekMin = seq %d, want seq %d", got.seq, b.seq)
	}
}

func TestTimerRestartOneShotClearsExpiry(t *testing.T) {
	tm := newTimer(nil, time.Now(), 0)
	tm.restart(time.Now())
	if !tm.expires.IsZero() {
		t.Fatalf("one-shot restart left a non-zero expiry: %v", tm.expires)
	}
	if tm.repeats() {
		t.Fatal("zero-interval timer reports repeats() == true")
	}
}

func TestTimerRestartRepeatingAdvances(t *testing.T) {
	now := time.Now()
	tm := newTimer(nil, now, 50*time.Millisecond)
	tm.restart(now)
	want := now.Add(50 * time.Millisecond)
	if !tm.expires.Equal(want) {
		t.Fatalf("restart expiry = %v, want %v", tm.expires, want)
	}
	if !tm.repeats() {
		t.Fatal("timer with positive interval should repeat")
	}
}
