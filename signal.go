package thread

import "sync"

// maxSignal is the highest accepted signal number.
const maxSignal = 31

// preemptSignal is the library-reserved preemption signal (SIGALRM's
// number). It is never deliverable through [Kill] and is always
// stripped from user-supplied sigmask changes.
const preemptSignal = 14

// SignalHandler is invoked, on the target thread's own goroutine, when
// a pending signal set by [Kill] is delivered.
type SignalHandler func(sig int)

var (
	handlerMu sync.RWMutex
	handlers  = map[int]SignalHandler{}
)

// SetSignalHandler installs (or, with a nil handler, removes) the
// handler run when sig is delivered to a many-many thread. One-one
// threads receive sig as a real kernel signal via tgkill and are
// governed by the host's own sigaction, not this registry.
func SetSignalHandler(sig int, h SignalHandler) error {
	if sig < 1 || sig > maxSignal || sig == preemptSignal {
		return newStatusError("SetSignalHandler", StatusInvalidArgument)
	}
	handlerMu.Lock()
	defer handlerMu.Unlock()
	if h == nil {
		delete(handlers, sig)
	} else {
		handlers[sig] = h
	}
	return nil
}

func lookupSignalHandler(sig int) SignalHandler {
	handlerMu.RLock()
	defer handlerMu.RUnlock()
	return handlers[sig]
}

// deliverPendingSignals runs on the owning many-many thread's own
// goroutine, immediately after it resumes from a park. Signals set by
// [Kill] are only ever observed, and their handlers only ever run, on
// the user thread itself, never on whichever carrier happens to be
// dispatching it.
//
// Signals the thread has blocked via [SigMask] stay pending; the
// dispatcher keeps a thread with pending signals on its current
// carrier, so a blocked signal pins the thread there until unblocked
// or delivered. Delivery order is ascending signal number, re-checking
// the thread's state after every handler so a handler that exits the
// thread stops the drain.
func deliverPendingSignals(t *Thread) {
	if t == nil || t.mapping != ManyMany {
		return
	}
	for {
		t.maskMu.Lock()
		blocked := uint32(t.blockedMask)
		t.maskMu.Unlock()
		deliverable := t.pendingSigs.Load() &^ blocked
		if deliverable == 0 {
			return
		}
		var sig int
		for i := 1; i <= maxSignal; i++ {
			if deliverable&(1<<uint(i)) != 0 {
				sig = i
				break
			}
		}
		t.pendingSigs.And(^uint32(1 << uint(sig)))
		if h := lookupSignalHandler(sig); h != nil {
			t.runtime.metrics.signalDelivered()
			h(sig)
			if State(t.state.Load()) == StateExited {
				return
			}
		}
	}
}

// Kill sends signo to h. One-one targets receive a genuine targeted
// kernel signal via tgkill; many-many targets have the bit set in
// their pending-signal mask, delivered at their next dispatch.
func Kill(h *Thread, signo int) error {
	if h == nil {
		return newStatusError("Kill", StatusInvalidArgument)
	}
	if signo < 1 || signo > maxSignal || signo == preemptSignal {
		return newStatusError("Kill", StatusInvalidArgument)
	}
	if h.mapping == OneOne {
		if err := killOneOne(h, signo); err != nil {
			return err
		}
		h.runtime.metrics.signalKilled()
		return nil
	}
	h.memberLock.acquire()
	h.pendingSigs.Or(1 << uint(signo))
	h.memberLock.release()
	h.runtime.metrics.signalKilled()
	logDebug(CategorySignal, "signal pended", withThreadID(h.id), withSignal(signo))
	return nil
}

// SigSet is a simplified sigset_t: one bit per signal number 1..31.
// Go's runtime owns real process signal delivery, so this does not
// reach into the host's sigprocmask; it tracks each thread's logical
// blocked-set, which defers pending-signal delivery while a signal is
// blocked, has no observable effect on preemption timing, and keeps
// the reserved preemption bit out of caller-visible state.
type SigSet uint32

// How values for [SigMask].
const (
	SigBlock = iota
	SigUnblock
	SigSetMask
)

// SigMask applies how to the calling thread's blocked-signal set,
// always stripping the reserved preemption signal from both the
// requested set and the returned oldset.
func SigMask(how int, set *SigSet, oldset *SigSet) error {
	self, err := Self()
	if err != nil {
		return err
	}
	if how != SigBlock && how != SigUnblock && how != SigSetMask {
		self.setLastError(ErrInvalidArgument)
		return newStatusError("SigMask", StatusInvalidArgument)
	}
	checkPreempt(self)
	if self.mapping == ManyMany {
		self.timerDisabled.Store(true)
		defer self.timerDisabled.Store(false)
	}

	self.maskMu.Lock()
	old := self.blockedMask
	if set != nil {
		s := *set &^ (1 << preemptSignal)
		switch how {
		case SigBlock:
			self.blockedMask |= s
		case SigUnblock:
			self.blockedMask &^= s
		case SigSetMask:
			self.blockedMask = s
		}
	}
	self.maskMu.Unlock()

	if oldset != nil {
		*oldset = old &^ (1 << preemptSignal)
	}
	// Unblocking may have made already-pending signals deliverable;
	// drain them before returning, the way sigprocmask delivers newly
	// unblocked pending signals before the caller resumes.
	deliverPendingSignals(self)
	return nil
}
