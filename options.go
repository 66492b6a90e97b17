package reactor

import "time"

// defaultPollTimeout bounds Poller.Poll so Loop.Quit called from a foreign
// goroutine is observed within one wakeup cycle even if the waker somehow
// fails to fire.
const defaultPollTimeout = 10 * time.Second

// loopOptions holds Loop construction configuration.
type loopOptions struct {
	name        string
	pollTimeout time.Duration
}

// LoopOption configures a Loop constructed by NewLoop.
type LoopOption interface {
	applyLoop(*loopOptions)
}

type loopOptionFunc func(*loopOptions)

func (f loopOptionFunc) applyLoop(o *loopOptions) { f(o) }

// WithName sets the loop's name, used in log output and worker-pool thread
// names.
func WithName(name string) LoopOption {
	return loopOptionFunc(func(o *loopOptions) { o.name = name })
}

// WithPollTimeout overrides the default 10s poll timeout. Mainly useful in
// tests that want to observe Quit latency without waiting on the waker.
func WithPollTimeout(d time.Duration) LoopOption {
	return loopOptionFunc(func(o *loopOptions) { o.pollTimeout = d })
}

func resolveLoopOptions(opts []LoopOption) *loopOptions {
	cfg := &loopOptions{pollTimeout: defaultPollTimeout}
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		opt.applyLoop(cfg)
	}
	return cfg
}

// poolOptions holds Pool construction configuration.
type poolOptions struct {
	namePrefix string
}

// PoolOption configures a Pool constructed by NewPool.
type PoolOption interface {
	applyPool(*poolOptions)
}

type poolOptionFunc func(*poolOptions)

func (f poolOptionFunc) applyPool(o *poolOptions) { f(o) }

// WithNamePrefix sets the name prefix given to each worker loop's thread
// (suffixed with its index), e.g. "worker" -> "worker0", "worker1", ...
func WithNamePrefix(prefix string) PoolOption {
	return poolOptionFunc(func(o *poolOptions) { o.namePrefix = prefix })
}

func resolvePoolOptions(opts []PoolOption) *poolOptions {
	cfg := &poolOptions{namePrefix: "loop"}
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		opt.applyPool(cfg)
	}
	return cfg
}

// threadPoolOptions holds ThreadPool construction configuration.
type threadPoolOptions struct {
	maxQueueSize int // 0 means unbounded
	initCB       func()
}

// ThreadPoolOption configures a ThreadPool constructed by NewThreadPool.
type ThreadPoolOption interface {
	applyThreadPool(*threadPoolOptions)
}

type threadPoolOptionFunc func(*threadPoolOptions)

func (f threadPoolOptionFunc) applyThreadPool(o *threadPoolOptions) { f(o) }

// WithMaxQueueSize bounds the pending-task queue; Submit blocks while the
// queue is full. Zero (the default) means unbounded.
func WithMaxQueueSize(n int) ThreadPoolOption {
	return threadPoolOptionFunc(func(o *threadPoolOptions) { o.maxQueueSize = n })
}

// WithThreadInit registers a callback run once on each worker goroutine
// before it starts draining tasks.
func WithThreadInit(cb func()) ThreadPoolOption {
	return threadPoolOptionFunc(func(o *threadPoolOptions) { o.initCB = cb })
}

func resolveThreadPoolOptions(opts []ThreadPoolOption) *threadPoolOptions {
	cfg := &threadPoolOptions{}
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		opt.applyThreadPool(cfg)
	}
	return cfg
}
