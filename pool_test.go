package reactor

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPoolRoundRobinsAcrossWorkers(t *testing.T) {
	owner := startTestLoop(t)

	var pool *Pool
	var loops []*Loop
	owner.SubmitSync(func() {
		pool = NewPool(owner, WithNamePrefix("w"))
		require.NoError(t, pool.Start(3, nil))
		t.Cleanup(pool.Stop)

		for i := 0; i < 6; i++ {
			loops = append(loops, pool.NextLoop())
		}
	})

	seen := make(map[*Loop]int)
	for _, l := range loops {
		seen[l]++
	}
	require.Len(t, seen, 3, "round-robin should have touched 3 distinct loops")
	for l, count := range seen {
		assert.Equalf(t, 2, count, "loop %q got an uneven share of 6 calls over 3 workers", l.Name())
	}
}

func TestPoolZeroThreadsDelegatesToOwner(t *testing.T) {
	owner := startTestLoop(t)

	var pool *Pool
	var initCalled *Loop
	owner.SubmitSync(func() {
		pool = NewPool(owner)
		require.NoError(t, pool.Start(0, func(l *Loop) { initCalled = l }))
	})
	assert.Same(t, owner, initCalled, "numThreads == 0 should run init on the owner loop")

	owner.SubmitSync(func() {
		assert.Same(t, owner, pool.NextLoop(), "NextLoop with no workers should return the owner loop")
		assert.Same(t, owner, pool.LoopForHash(42), "LoopForHash with no workers should return the owner loop")
		all := pool.AllLoops()
		if assert.Len(t, all, 1) {
			assert.Same(t, owner, all[0])
		}
	})
}

func TestPoolStartTwiceErrors(t *testing.T) {
	owner := startTestLoop(t)

	owner.SubmitSync(func() {
		pool := NewPool(owner)
		require.NoError(t, pool.Start(1, nil))
		t.Cleanup(pool.Stop)
		assert.Error(t, pool.Start(1, nil), "starting a Pool twice should error")
	})
}

func TestPoolStopJoinsWorkers(t *testing.T) {
	owner := startTestLoop(t)

	var worker *Loop
	owner.SubmitSync(func() {
		pool := NewPool(owner)
		require.NoError(t, pool.Start(1, nil))
		worker = pool.NextLoop()
		pool.Stop()
	})

	select {
	case <-worker.done:
	case <-time.After(2 * time.Second):
		t.Fatal("worker loop goroutine never exited after Pool.Stop")
	}
}
