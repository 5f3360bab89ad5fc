package thread

import (
	"runtime"
	"sync"
)

var selfRegistry sync.Map // goroutine id (uint64) -> *Thread

// registerSelf installs t as the descriptor recoverable from the
// calling goroutine, the Go-native substitute for writing the
// descriptor address into a hardware thread-pointer slot.
func registerSelf(t *Thread) {
	selfRegistry.Store(goroutineID(), t)
}

func unregisterSelf() {
	selfRegistry.Delete(goroutineID())
}

// Self returns the descriptor for the calling goroutine. A goroutine
// seen for the first time, the bootstrap caller of [Init] or [RunMain],
// a test, any external entry point, is lazily adopted as an implicit
// root OneOne thread, the same way POSIX treats a process's original
// kernel task as a thread in its own right even though nothing ever
// called create() for it.
func Self() (*Thread, error) {
	gid := goroutineID()
	if v, ok := selfRegistry.Load(gid); ok {
		return v.(*Thread), nil
	}
	rt := globalRuntime.Load()
	if rt == nil {
		return nil, newStatusError("Self", StatusNotInitialized)
	}
	t := &Thread{id: rt.ids.allocate(), mapping: OneOne, runtime: rt}
	t.state.Store(int32(StateRunning))
	t.wait.Store(1)
	t.memberLock.init()
	registerSelf(t)
	return t, nil
}

// goroutineID recovers the runtime-assigned id of the calling goroutine
// by parsing the leading "goroutine N" line of its own stack trace.
func goroutineID() uint64 {
	var buf [64]byte
	n := runtime.Stack(buf[:], false)
	var id uint64
	for i := len("goroutine "); i < n; i++ {
		if buf[i] >= '0' && buf[i] <= '9' {
			id = id*10 + uint64(buf[i]-'0')
		} else {
			break
		}
	}
	return id
}

// Create allocates and starts a new thread. OneOne threads get their
// own goroutine, locked for life to its carrying OS thread via
// [runtime.LockOSThread]; ManyMany threads get a fiber goroutine and
// are appended to the ready queue for a carrier to pick up.
func Create(start StartFunc, arg any, mapping Mapping) (*Thread, error) {
	rt := globalRuntime.Load()
	if rt == nil {
		return nil, newStatusError("Create", StatusNotInitialized)
	}
	if start == nil {
		return nil, newStatusError("Create", StatusInvalidArgument)
	}
	if mapping != OneOne && mapping != ManyMany {
		return nil, newStatusError("Create", StatusInvalidArgument)
	}

	stack, err := allocGuardedStack(rt.stackSize)
	if err != nil {
		logErr(CategoryCarrier, "stack allocation failed", err)
		return nil, newStatusError("Create", StatusTryAgain)
	}

	t := &Thread{
		id:      rt.ids.allocate(),
		mapping: mapping,
		start:   start,
		arg:     arg,
		runtime: rt,
		stack:   stack,
	}
	t.state.Store(int32(StateInit))
	t.wait.Store(1)
	t.memberLock.init()

	switch mapping {
	case OneOne:
		readyCh := make(chan error, 1)
		go runOneOneThread(t, readyCh)
		if err := <-readyCh; err != nil {
			releaseGuardedStack(stack)
			return nil, err
		}
	case ManyMany:
		t.fiber = newFiberContext()
		go runManyManyFiber(t)
		rt.ready.add(t)
	}

	rt.metrics.threadCreated(mapping)
	logDebug(CategoryBootstrap, "thread created", withThreadID(t.id))
	return t, nil
}

// runOneOneThread is the one-one entry wrapper: lock to the OS thread,
// install the thread pointer, run the start function, and never call
// [runtime.UnlockOSThread]. A goroutine
// that exits while its OS thread is locked takes that OS thread down
// with it, the Go-native analogue of a direct exit(2) terminating just
// the one kernel task.
func runOneOneThread(t *Thread, ready chan<- error) {
	runtime.LockOSThread()
	t.ktid = gettid()
	registerSelf(t)

	defer func() {
		if r := recover(); r != nil {
			finalizeExit(t, nil, &PanicError{ThreadID: t.id, Value: r})
		}
		unregisterSelf()
		// The kernel-exit analogue of CHILD_CLEARTID: clear the wait
		// word and wake futex waiters. A many-many joiner is parked on
		// its fiber rather than a futex, so it is re-enqueued here; the
		// member lock is held across its park, so acquiring it first
		// guarantees the joiner has fully suspended before the enqueue.
		t.memberLock.acquire()
		t.wait.Store(0)
		futexWakeAll(&t.wait)
		t.runtime.metrics.threadExited()
		if j := t.joiner.Load(); j != nil && j.mapping == ManyMany {
			t.runtime.ready.add(j)
		}
		t.memberLock.release()
	}()

	ready <- nil
	t.state.Store(int32(StateRunning))
	ret := t.start(t.arg)
	finalizeExit(t, ret, nil)
}

// runManyManyFiber is the many-many fiber body. It waits for its first
// install, runs the start function, and on any return path, natural,
// explicit [Exit], or panic, parks one last time to hand control back
// to the dispatcher.
func runManyManyFiber(t *Thread) {
	registerSelf(t)
	defer func() {
		if r := recover(); r != nil {
			finalizeExit(t, nil, &PanicError{ThreadID: t.id, Value: r})
		}
		unregisterSelf()
		t.fiber.finished()
	}()

	t.fiber.start()
	deliverPendingSignals(t)
	if State(t.state.Load()) == StateExited {
		return
	}
	t.state.Store(int32(StateRunning))
	ret := t.start(t.arg)
	finalizeExit(t, ret, nil)
}

// Exit terminates the calling thread, storing value as its join
// result. If the library is not initialized it returns without effect;
// otherwise it never returns: the goroutine unwinds through its deferred
// calls via [runtime.Goexit], which lands back in the thread's entry
// wrapper and hands control to the dispatcher (many-many) or tears
// down the kernel task (one-one).
func Exit(value any) {
	self, err := Self()
	if err != nil {
		return
	}
	finalizeExit(self, value, nil)
	runtime.Goexit()
}

// Join blocks until target has exited, then reports its return value.
// Joining self, or a target already claimed by another joiner, or
// already Joined, is refused. Two threads joining each other
// concurrently both suspend indefinitely; only the self-join case is
// detected as a deadlock.
func Join(target *Thread) (any, error) {
	if target == nil {
		return nil, newStatusError("Join", StatusInvalidArgument)
	}
	caller, err := Self()
	if err != nil {
		return nil, err
	}
	if caller == target {
		caller.setLastError(ErrDeadlock)
		return nil, newStatusError("Join", StatusDeadlock)
	}
	checkPreempt(caller)

	target.memberLock.acquire()
	switch State(target.state.Load()) {
	case StateJoined:
		target.memberLock.release()
		caller.setLastError(ErrInvalidArgument)
		return nil, newStatusError("Join", StatusInvalidArgument)
	case StateExited:
		// Already retired; no rendezvous needed, and the joiner slot is
		// deliberately left empty so the target's exit path, if it has
		// not run yet, has nothing to wake.
		if target.joiner.Load() != nil {
			target.memberLock.release()
			caller.setLastError(ErrInvalidArgument)
			return nil, newStatusError("Join", StatusInvalidArgument)
		}
		target.memberLock.release()
	default:
		if target.joiner.Load() != nil {
			target.memberLock.release()
			caller.setLastError(ErrInvalidArgument)
			return nil, newStatusError("Join", StatusInvalidArgument)
		}
		target.joiner.Store(caller)
		// The caller's own fields need no lock here: they are mutated
		// by their owning thread and published to the dispatcher
		// by the park handoff.
		caller.waitThread = target
		caller.state.Store(int32(StateWaitJoin))
		if caller.mapping == ManyMany {
			caller.timerDisabled.Store(true)
			// The dispatcher releases target.memberLock on observing
			// WaitJoin, after this park hands control to it;
			// resumption happens only when the exit path enqueues
			// this caller.
			caller.fiber.park()
			deliverPendingSignals(caller)
			caller.timerDisabled.Store(false)
		} else {
			target.memberLock.release()
			caller.runtime.metrics.futexWaitRecorded()
			futexWait(&target.wait, 1)
		}
		caller.state.Store(int32(StateRunning))
		caller.waitThread = nil
	}

	target.memberLock.acquire()
	if State(target.state.Load()) == StateJoined {
		// Lost a race against another joiner that also observed the
		// target already Exited.
		target.memberLock.release()
		caller.setLastError(ErrInvalidArgument)
		return nil, newStatusError("Join", StatusInvalidArgument)
	}
	target.state.Store(int32(StateJoined))
	retVal := target.ret
	target.wait.Store(0)
	releaseGuardedStack(target.stack)
	target.stack = nil
	target.memberLock.release()

	caller.runtime.metrics.threadJoined()
	logDebug(CategoryJoin, "thread joined", withThreadID(target.id))
	return retVal, nil
}

// Yield voluntarily suspends the calling thread, disabling preemption
// for the duration of the handoff and re-enabling it on resume.
// OneOne threads delegate to the kernel scheduler.
func Yield() error {
	self, err := Self()
	if err != nil {
		return err
	}
	if self.mapping == OneOne {
		runtime.Gosched()
		return nil
	}
	self.timerDisabled.Store(true)
	self.preemptRequested.Store(false)
	self.fiber.park()
	deliverPendingSignals(self)
	self.timerDisabled.Store(false)
	return nil
}
