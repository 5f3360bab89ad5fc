package thread

import "sync/atomic"

// Mutex is an ownership-tracking mutual-exclusion primitive. It
// supports contention between either mapping against the other: a
// one-one contender spins-then-futex-waits on lockWord, while a
// many-many contender parks on the intrusive waiter queue and is handed
// ownership directly by whichever thread releases it. Recursive
// acquisition by the current owner succeeds without blocking.
type Mutex struct {
	lockWord   atomic.Uint32 // Free=1, Held=0; the one-one fast path
	memberLock atomicLock    // guards owner/waiters
	owner      atomic.Pointer[Thread]
	waiters    threadQueue
}

// NewMutex returns an initialized, unheld [Mutex].
func NewMutex() *Mutex {
	m := &Mutex{}
	m.lockWord.Store(lockFree)
	m.memberLock.init()
	return m
}

// Lock blocks until the calling thread owns m. Locking a mutex already
// held by the caller succeeds immediately (recursive tolerance).
func (m *Mutex) Lock() error {
	self, err := Self()
	if err != nil {
		return err
	}
	checkPreempt(self)
	if m.owner.Load() == self {
		return nil
	}

	if self.mapping == OneOne {
		for {
			if m.lockWord.CompareAndSwap(lockFree, lockHeld) {
				m.owner.Store(self)
				return nil
			}
			self.runtime.metrics.mutexContentionRecorded()
			self.runtime.metrics.futexWaitRecorded()
			futexWait(&m.lockWord, lockHeld)
		}
	}

	m.memberLock.acquire()
	// The lock word is the single source of truth for held-ness; a
	// one-one contender CASes it without taking the member lock, so an
	// owner-is-nil check here would race it.
	if m.lockWord.CompareAndSwap(lockFree, lockHeld) {
		m.owner.Store(self)
		m.memberLock.release()
		return nil
	}

	// The caller's own fields need no lock; the park handoff publishes
	// them to the dispatcher.
	self.state.Store(int32(StateWaitMutex))
	self.waitMutex = m
	self.timerDisabled.Store(true)
	m.waiters.pushBack(self)
	self.runtime.metrics.mutexContentionRecorded()
	logDebug(CategoryMutex, "lock contended", withThreadID(self.id))

	// The dispatcher releases m.memberLock on observing WaitMutex,
	// after this park hands control back to it. On resume the
	// unlocking thread has already made this thread the owner.
	self.fiber.park()
	deliverPendingSignals(self)

	self.state.Store(int32(StateRunning))
	self.waitMutex = nil
	self.timerDisabled.Store(false)
	return nil
}

// TryLock attempts to acquire m without blocking.
func (m *Mutex) TryLock() (bool, error) {
	self, err := Self()
	if err != nil {
		return false, err
	}
	if m.owner.Load() == self {
		return true, nil
	}
	if m.lockWord.CompareAndSwap(lockFree, lockHeld) {
		m.owner.Store(self)
		return true, nil
	}
	return false, nil
}

// Unlock releases m. Unlocking a mutex the caller does not own returns
// [ErrInvalidArgument].
func (m *Mutex) Unlock() error {
	self, err := Self()
	if err != nil {
		return err
	}
	checkPreempt(self)
	if m.owner.Load() != self {
		self.setLastError(ErrInvalidArgument)
		return newStatusError("Unlock", StatusInvalidArgument)
	}

	m.memberLock.acquire()
	if next := m.waiters.popFront(); next != nil {
		m.owner.Store(next)
		m.memberLock.release()
		self.runtime.ready.add(next)
		return nil
	}
	m.owner.Store(nil)
	m.lockWord.Store(lockFree)
	m.memberLock.release()
	self.runtime.metrics.futexWakeRecorded()
	futexWake(&m.lockWord, 1)
	return nil
}

// Destroy reports an error if m is still held; Go reclaims the
// underlying memory itself once unreferenced.
func (m *Mutex) Destroy() error {
	if m.owner.Load() != nil {
		return newStatusError("Destroy", StatusBusy)
	}
	return nil
}

// SpinLock is the raw spinlock surfaced through the thread API with
// ownership tracking layered on top, for callers' short critical
// sections. Unlike [Mutex] it never causes
// a descriptor-level state transition; waiters simply spin.
type SpinLock struct {
	lock  atomicLock
	owner atomic.Pointer[Thread]
}

// NewSpinLock returns an initialized, unheld [SpinLock].
func NewSpinLock() *SpinLock {
	s := &SpinLock{}
	s.lock.init()
	return s
}

func (s *SpinLock) Lock() error {
	self, err := Self()
	if err != nil {
		return err
	}
	if s.owner.Load() == self {
		return nil
	}
	s.lock.acquire()
	s.owner.Store(self)
	self.runtime.metrics.spinAcquireRecorded()
	return nil
}

func (s *SpinLock) TryLock() (bool, error) {
	self, err := Self()
	if err != nil {
		return false, err
	}
	if s.owner.Load() == self {
		return true, nil
	}
	if s.lock.tryAcquire() {
		s.owner.Store(self)
		self.runtime.metrics.spinAcquireRecorded()
		return true, nil
	}
	return false, nil
}

// Unlock releases s. Unlock by a non-owner is a silent no-op rather
// than an error.
func (s *SpinLock) Unlock() error {
	self, err := Self()
	if err != nil {
		return err
	}
	if s.owner.Load() != self {
		return nil
	}
	s.owner.Store(nil)
	s.lock.release()
	return nil
}

// Destroy reports an error if s is still held; Go reclaims the
// underlying memory itself once unreferenced.
func (s *SpinLock) Destroy() error {
	if s.owner.Load() != nil {
		return newStatusError("Destroy", StatusBusy)
	}
	return nil
}
