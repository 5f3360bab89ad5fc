package thread

import "sync/atomic"

// carrier is a kernel-backed executor: a goroutine running the
// dispatcher loop, installing ready many-many threads one at a time
// and reacting to how each one suspends.
type carrier struct {
	id    int
	rt    *Runtime
	timer *carrierTimer

	// current is written by this carrier's dispatcher goroutine on every
	// install and read by its own timer goroutine on every tick;
	// padding keeps it off a cache line shared with the colder fields
	// above and below.
	_       [sizeOfCacheLine]byte
	current atomic.Pointer[Thread]
	_       [sizeOfCacheLine - sizeOfAtomicUint64]byte

	stopCh chan struct{}
	done   chan struct{}
}

func newCarrier(id int, rt *Runtime) *carrier {
	c := &carrier{
		id:     id,
		rt:     rt,
		timer:  newCarrierTimer(),
		stopCh: make(chan struct{}),
		done:   make(chan struct{}),
	}
	c.timer.set(c.yieldCurrent)
	return c
}

// run is the dispatcher loop. It masks signals conceptually by
// never running user code on this goroutine directly; everything
// between install() and its return happens on the installed thread's
// own fiber goroutine, so there is nothing here that the preemption
// timer could itself be interrupted by.
func (c *carrier) run() {
	defer close(c.done)
	logDebug(CategoryCarrier, "dispatcher started", withCarrierID(c.id))
	defer logDebug(CategoryCarrier, "dispatcher stopped", withCarrierID(c.id))
	for c.rt.scheduling.Load() {
		t, ok := c.rt.ready.take()
		if !ok {
			c.rt.ready.waitForWork(c.stopCh)
			continue
		}

		// Signals queued by Kill() while t floated between carriers
		// are delivered at t's own next resume point, on t's own
		// goroutine (see deliverPendingSignals), never here.
		for {
			c.current.Store(t)
			c.timer.start(c.rt.quantum)
			t.fiber.install()
			c.timer.stop()
			c.current.Store(nil)
			c.rt.metrics.contextSwitch()

			st := State(t.state.Load())
			if st == StateRunning {
				if t.pendingSigs.Load() != 0 {
					// Keep t on this carrier until its pending
					// signals are drained, so their handlers run
					// where the signals were queued.
					continue
				}
				c.rt.ready.add(t)
				break
			}

			switch st {
			case StateWaitJoin:
				t.waitThread.memberLock.release()
			case StateWaitMutex:
				t.waitMutex.memberLock.release()
			case StateExited:
				logDebug(CategoryDispatch, "thread exited", withThreadID(t.id))
				t.memberLock.acquire()
				t.wait.Store(0)
				futexWakeAll(&t.wait)
				c.rt.metrics.threadExited()
				// A one-one joiner is already woken by the futex above;
				// only a many-many joiner parks on its fiber and needs
				// re-enqueueing.
				if j := t.joiner.Load(); j != nil && j.mapping == ManyMany {
					c.rt.ready.add(j)
				}
				t.memberLock.release()
			}
			break
		}
	}
}

// yieldCurrent is the preemption handler. It runs on the carrier's
// timer goroutine, never on the installed thread's own goroutine, so it
// can only ever set a flag; the installed thread observes and acts on
// it at its own next safepoint (see checkPreempt), a cooperative
// substitute for an asynchronous signal.
func (c *carrier) yieldCurrent() {
	t := c.current.Load()
	if t == nil {
		return
	}
	if t.timerDisabled.Load() {
		// Deferred preemption: re-arm and let the critical section
		// finish on this same carrier.
		c.timer.start(c.rt.quantum)
		return
	}
	t.preemptRequested.Store(true)
	c.rt.metrics.preemption()
}

// checkPreempt is called at the library safepoints on the executing
// many-many thread's own goroutine (mutex lock/unlock, sigmask, join);
// Yield parks unconditionally and clears the flag itself. It is the
// cooperative half of preemption: a busy loop that
// never calls back into the library is never preempted by this
// implementation, an accepted limitation of timer-driven cooperative
// scheduling.
func checkPreempt(t *Thread) {
	if t == nil || t.mapping != ManyMany {
		return
	}
	if !t.preemptRequested.CompareAndSwap(true, false) {
		return
	}
	if t.timerDisabled.Load() {
		t.preemptRequested.Store(true)
		return
	}
	t.fiber.park()
	deliverPendingSignals(t)
}
