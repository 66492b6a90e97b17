// Package reactor is a muduo/netty-style reactor networking core: an event
// loop dispatching OS readiness notifications over channels, a timer pool
// driven by a single timer descriptor, cross-goroutine task posting via a
// self-pipe/eventfd waker, a pool of sibling loops on dedicated threads, a
// process-wide signal dispatcher, and small thread/thread-pool helpers.
//
// # Architecture
//
// A [Loop] owns exactly one [Poller], one wakeup descriptor pair, one
// [TimerPool] and a queue of pending closures. All of that state — except
// the pending queue and the wakeup write — is touched only by the
// goroutine that calls [Loop.Run]; see the Thread Safety section below.
//
// [Channel] binds one file descriptor to one Loop for the descriptor's
// lifetime, translating raw readiness bits into read/write/close/error
// callback invocations.
//
// [Pool] runs N sibling Loops on dedicated [Thread]s, handing out loops to
// callers round-robin ([Pool.NextLoop]) or by sticky hash
// ([Pool.LoopForHash]), the way a single-acceptor/many-workers TCP server
// assigns accepted connections to worker loops.
//
// [Pool] (the worker-loop pool) should not be confused with [ThreadPool],
// a much simpler fixed-size set of worker goroutines draining a bounded
// FIFO of stateless tasks — useful for blocking work (e.g. DNS lookups)
// that must never run on a Loop's own goroutine.
//
// # Thread Safety
//
//   - [Loop.Submit] and [Loop.SubmitSync] are safe to call from any
//     goroutine, as are [Loop.RunAt], [Loop.RunAfter], [Loop.RunEvery]
//     and [Loop.CancelTimer], which hand their work to the owning
//     goroutine.
//   - [Channel] methods and direct poller access must only be called
//     from the owning Loop's goroutine — call them via Submit/SubmitSync
//     from anywhere else.
//   - [Pool.NextLoop], [Pool.LoopForHash] and [Pool.AllLoops] must be
//     called from the pool owner's loop goroutine, matching annety's
//     `check_in_own_loop()` assertions.
//
// # Usage
//
//	loop, err := reactor.NewLoop()
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer loop.Close()
//
//	loop.Submit(func() {
//	    loop.RunAfter(100*time.Millisecond, func() {
//	        fmt.Println("fired")
//	        loop.Quit()
//	    })
//	})
//
//	if err := loop.Run(); err != nil {
//	    log.Fatal(err)
//	}
package reactor
