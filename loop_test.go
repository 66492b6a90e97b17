package reactor

import (
	"testing"
	"time"
)

// startTestLoop constructs and runs a Loop on its own goroutine (Loop
// binds permanently to its constructing goroutine, so construction and
// Run must happen together there) and returns it once Run has begun.
func startTestLoop(t *testing.T, opts ...LoopOption) *Loop {
	t.Helper()
	ready := make(chan *Loop, 1)
	errCh := make(chan error, 1)
	runDone := make(chan struct{})
	go func() {
		defer close(runDone)
		l, err := NewLoop(opts...)
		if err != nil {
			errCh <- err
			return
		}
		ready <- l
		_ = l.Run()
	}()

	select {
	case l := <-ready:
		t.Cleanup(func() {
			l.Close()
			<-runDone
		})
		return l
	case err := <-errCh:
		t.Fatalf("new loop: %v", err)
		return nil
	case <-time.After(5 * time.Second):
		t.Fatal("timed out starting loop")
		return nil
	}
}

func TestLoopSubmitRunsOnLoopGoroutine(t *testing.T) {
	l := startTestLoop(t)

	done := make(chan uint64, 1)
	l.Submit(func() {
		done <- getGoroutineID()
	})

	select {
	case gid := <-done:
		if gid != l.goroutineID {
			t.Fatalf("task ran on goroutine %d, want %d", gid, l.goroutineID)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("submitted task never ran")
	}
}

func TestLoopSubmitSyncBlocksUntilDone(t *testing.T) {
	l := startTestLoop(t)

	var ran bool
	l.SubmitSync(func() { ran = true })
	if !ran {
		t.Fatal("SubmitSync returned before task ran")
	}
}

func TestLoopAssertInLoopPanicsOffLoop(t *testing.T) {
	l := startTestLoop(t)

	defer func() {
		if recover() == nil {
			t.Fatal("expected panic calling assertInLoop from a foreign goroutine")
		}
	}()
	l.assertInLoop()
}

func TestLoopRunAfterFiresTimer(t *testing.T) {
	l := startTestLoop(t)

	fired := make(chan struct{})
	l.Submit(func() {
		l.RunAfter(20*time.Millisecond, func() { close(fired) })
	})

	select {
	case <-fired:
	case <-time.After(2 * time.Second):
		t.Fatal("RunAfter timer never fired")
	}
}

func TestLoopRunEveryRepeatsAndCancel(t *testing.T) {
	l := startTestLoop(t)

	fireCount := make(chan int, 10)
	var handle TimerHandle
	count := 0
	l.SubmitSync(func() {
		handle = l.RunEvery(10*time.Millisecond, func() {
			count++
			fireCount <- count
		})
	})

	// wait for at least two fires.
	for i := 0; i < 2; i++ {
		select {
		case <-fireCount:
		case <-time.After(2 * time.Second):
			t.Fatal("repeating timer never fired twice")
		}
	}

	l.SubmitSync(func() { l.CancelTimer(handle) })
}

func TestLoopCloseIdempotent(t *testing.T) {
	l := startTestLoop(t)
	if err := l.Close(); err != nil {
		t.Fatalf("first close: %v", err)
	}
	if err := l.Close(); err != nil {
		t.Fatalf("second close: %v", err)
	}
}

func TestLoopRunTwiceReturnsError(t *testing.T) {
	l := startTestLoop(t)
	if err := l.Run(); err == nil {
		t.Fatal("expected error calling Run a second time while already running")
	}
}
