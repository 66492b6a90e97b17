package reactor

import (
	"sync/atomic"
	"testing"
	"time"
)

func TestThreadStartBlocksUntilRunning(t *testing.T) {
	var running atomic.Bool
	th := NewThread(func() {
		running.Store(true)
		time.Sleep(10 * time.Millisecond)
	}, "worker")

	if err := th.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if !running.Load() {
		t.Fatal("Start returned before the thread body began running")
	}
	th.Join()
}

func TestThreadStartAsyncDoesNotBlock(t *testing.T) {
	started := make(chan struct{})
	th := NewThread(func() {
		<-started
	}, "worker")

	if err := th.StartAsync(); err != nil {
		t.Fatalf("StartAsync: %v", err)
	}
	close(started)
	th.Join()
}

func TestThreadDoubleStartErrors(t *testing.T) {
	th := NewThread(func() {}, "worker")
	if err := th.Start(); err != nil {
		t.Fatalf("first Start: %v", err)
	}
	th.Join()
	if err := th.StartAsync(); err == nil {
		t.Fatal("expected an error starting a Thread twice")
	}
}

func TestThreadDoubleJoinPanics(t *testing.T) {
	th := NewThread(func() {}, "worker")
	if err := th.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	th.Join()

	defer func() {
		if recover() == nil {
			t.Fatal("expected a panic joining a Thread twice")
		}
	}()
	th.Join()
}

func TestThreadNonJoinableJoinPanics(t *testing.T) {
	th := NewThread(func() {}, "worker", ThreadOptions{Joinable: false})
	if err := th.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}

	defer func() {
		if recover() == nil {
			t.Fatal("expected a panic joining a non-joinable Thread")
		}
	}()
	th.Join()
}

func TestThreadHasBeenStartedAndJoined(t *testing.T) {
	th := NewThread(func() {}, "worker")
	if th.HasBeenStarted() {
		t.Fatal("HasBeenStarted should be false before Start")
	}
	th.Start()
	if !th.HasBeenStarted() {
		t.Fatal("HasBeenStarted should be true after Start")
	}
	if th.HasBeenJoined() {
		t.Fatal("HasBeenJoined should be false before Join")
	}
	th.Join()
	if !th.HasBeenJoined() {
		t.Fatal("HasBeenJoined should be true after Join")
	}
}
