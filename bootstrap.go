package thread

import (
	"runtime"
	"sync"
	"sync/atomic"
	"time"
)

const (
	// defaultStackSize is large enough to avoid the common case while
	// staying bounded per instance; 2 MiB is the glibc pthread default
	// this library's guarded stacks stand in for.
	defaultStackSize = 2 << 20
	// defaultQuantum is the many-many preemption time slice.
	defaultQuantum = 10 * time.Millisecond
)

// defaultCarrierCount sizes the carrier pool to the host's available
// parallelism.
func defaultCarrierCount() int {
	n := runtime.GOMAXPROCS(0)
	if n < 1 {
		return 1
	}
	return n
}

// Runtime is the library's global scheduling state: the ready
// queue every many-many thread flows through, the carrier pool
// dispatching it, and process-wide configuration. Exactly one may be
// active at a time, installed by [Init] and torn down by [Deinit].
type Runtime struct {
	ids   *idAllocator
	ready *readyQueue

	carriers []*carrier

	scheduling atomic.Bool

	quantum   time.Duration
	stackSize int
	metrics   *Metrics

	wg sync.WaitGroup
}

var globalRuntime atomic.Pointer[Runtime]

// Init brings up the runtime: allocates the ready queue and id
// allocator, and starts one carrier goroutine per [WithCarriers] (or
// GOMAXPROCS by default). Calling Init while already initialized
// returns [ErrBusy].
func Init(opts ...InitOption) error {
	if globalRuntime.Load() != nil {
		return newStatusError("Init", StatusBusy)
	}
	cfg, err := resolveInitOptions(opts)
	if err != nil {
		return err
	}

	rt := &Runtime{
		ids:       newIDAllocator(),
		ready:     newReadyQueue(),
		quantum:   cfg.quantum,
		stackSize: cfg.stackSize,
	}
	if cfg.metricsEnable {
		rt.metrics = newMetrics()
	}
	rt.scheduling.Store(true)

	if !globalRuntime.CompareAndSwap(nil, rt) {
		return newStatusError("Init", StatusBusy)
	}

	rt.carriers = make([]*carrier, cfg.carriers)
	for i := range rt.carriers {
		c := newCarrier(i, rt)
		rt.carriers[i] = c
		rt.wg.Add(1)
		go func() {
			defer rt.wg.Done()
			c.run()
		}()
	}

	logInfo(CategoryBootstrap, "runtime initialized", withCarrierCount(cfg.carriers))
	return nil
}

// Deinit stops scheduling and waits for every carrier's dispatcher loop
// to return. Each carrier first finishes the install it is currently
// blocked in, so a many-many thread that never suspends again keeps its
// carrier, and Deinit with it, waiting. Many-many threads still parked
// in the ready queue or on a wait structure are abandoned rather than
// force-killed; shutdown is cooperative and non-destructive. Calling
// Deinit when not initialized is a no-op.
func Deinit() error {
	rt := globalRuntime.Load()
	if rt == nil {
		return nil
	}
	if !globalRuntime.CompareAndSwap(rt, nil) {
		return nil
	}

	rt.scheduling.Store(false)
	for _, c := range rt.carriers {
		close(c.stopCh)
	}
	rt.wg.Wait()
	logInfo(CategoryBootstrap, "runtime deinitialized")
	return nil
}

// RunMain is the common entry-point idiom: [Init] the runtime, run main
// as a one-one thread to completion, [Join] it, then [Deinit]. The
// process's original kernel task is itself a one-one thread.
func RunMain(main StartFunc, arg any, opts ...InitOption) (any, error) {
	if err := Init(opts...); err != nil {
		return nil, err
	}
	defer Deinit()

	t, err := Create(main, arg, OneOne)
	if err != nil {
		return nil, err
	}
	// Join's caller is whatever goroutine called RunMain; Self lazily
	// adopts it as the implicit root thread (see api.go).
	return Join(t)
}
