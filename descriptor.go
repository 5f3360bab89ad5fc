package thread

import (
	"fmt"
	"sync"
	"sync/atomic"
)

// State is a thread's position in its lifecycle.
type State int32

const (
	StateInit State = iota
	StateRunning
	StateWaitJoin
	StateWaitMutex
	StateExited
	StateJoined
)

func (s State) String() string {
	switch s {
	case StateInit:
		return "init"
	case StateRunning:
		return "running"
	case StateWaitJoin:
		return "wait-join"
	case StateWaitMutex:
		return "wait-mutex"
	case StateExited:
		return "exited"
	case StateJoined:
		return "joined"
	default:
		return fmt.Sprintf("state(%d)", int32(s))
	}
}

// Mapping selects a thread's scheduling discipline.
type Mapping int

const (
	// OneOne threads are bound for life to one kernel-scheduled task.
	OneOne Mapping = iota
	// ManyMany threads are multiplexed cooperatively over a fixed pool
	// of carriers.
	ManyMany
)

func (m Mapping) String() string {
	if m == OneOne {
		return "one-one"
	}
	return "many-many"
}

// StartFunc is a thread's entry point: opaque argument in, opaque
// return value out.
type StartFunc func(arg any) any

// Thread is the canonical descriptor shared by both mappings. The
// zero value is not usable; obtain one from [Create].
type Thread struct {
	id      int
	mapping Mapping
	start   StartFunc
	arg     any
	runtime *Runtime

	state atomic.Int32

	retMu sync.Mutex
	ret   any

	// The dispatcher touches wait, memberLock and pendingSigs on every
	// install and every safepoint; padding isolates them on their own
	// cache line so they don't false-share with the colder fields
	// around them.
	_ [sizeOfCacheLine]byte

	// wait is the futex-compatible word: nonzero while the thread has
	// not fully retired.
	wait atomic.Uint32

	// memberLock is the short spinlock protecting the mutable fields
	// below.
	memberLock atomicLock

	pendingSigs atomic.Uint32

	_ [sizeOfCacheLine - sizeOfAtomicUint64]byte

	joiner atomic.Pointer[Thread]

	// waiting-on references, written by the owning thread while it is
	// running and read by the dispatcher only after the park handoff
	// publishes them.
	waitThread *Thread // join target
	waitMutex  *Mutex  // blocked-on mutex

	timerDisabled    atomic.Bool
	preemptRequested atomic.Bool

	maskMu      sync.Mutex
	blockedMask SigSet

	lastErrMu sync.Mutex
	lastErr   error

	link queueLink // ready-queue / mutex-waiter intrusive link

	// ManyMany-only.
	fiber *fiberContext

	// OneOne-only.
	ktid int

	stack *guardedStack
}

// ID returns the thread's globally unique identifier.
func (t *Thread) ID() int { return t.id }

// Mapping reports which scheduling discipline created this thread.
func (t *Thread) Mapping() Mapping { return t.mapping }

// State reports the thread's current lifecycle state.
func (t *Thread) State() State { return State(t.state.Load()) }

// LastError mirrors POSIX errno: the most recent error this thread's
// own calls into the library produced, or nil.
func (t *Thread) LastError() error {
	t.lastErrMu.Lock()
	defer t.lastErrMu.Unlock()
	return t.lastErr
}

func (t *Thread) setLastError(err error) {
	t.lastErrMu.Lock()
	t.lastErr = err
	t.lastErrMu.Unlock()
}

// finalizeExit stores ret (or the panic-wrapped err) exactly once and
// transitions the descriptor to Exited. Calling it
// twice, once from an explicit [Exit] and again from the fiber/thread
// wrapper's recover, is safe; only the first call has an effect.
func finalizeExit(t *Thread, ret any, err error) {
	t.retMu.Lock()
	defer t.retMu.Unlock()
	if State(t.state.Load()) == StateExited || State(t.state.Load()) == StateJoined {
		return
	}
	if err != nil {
		t.ret = err
	} else {
		t.ret = ret
	}
	t.state.Store(int32(StateExited))
}
