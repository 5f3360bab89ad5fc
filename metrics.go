package thread

import "sync/atomic"

// Metrics is a set of low-overhead atomic counters describing a
// running [Runtime]: thread lifecycle per mapping, context switches,
// preemptions, signal and futex traffic, and lock contention. All
// methods are safe to call
// on a nil *Metrics (collection disabled) and are safe for concurrent
// use from every carrier and thread.
type Metrics struct {
	threadsCreatedOneOne   atomic.Int64
	threadsCreatedManyMany atomic.Int64
	threadsJoined          atomic.Int64
	threadsExited          atomic.Int64

	contextSwitches atomic.Int64
	preemptions     atomic.Int64

	signalsKilled    atomic.Int64
	signalsDelivered atomic.Int64

	futexWaits atomic.Int64
	futexWakes atomic.Int64

	mutexContended atomic.Int64
	spinAcquires   atomic.Int64
}

func newMetrics() *Metrics { return &Metrics{} }

func (m *Metrics) threadCreated(mapping Mapping) {
	if m == nil {
		return
	}
	if mapping == OneOne {
		m.threadsCreatedOneOne.Add(1)
	} else {
		m.threadsCreatedManyMany.Add(1)
	}
}

func (m *Metrics) threadJoined() {
	if m != nil {
		m.threadsJoined.Add(1)
	}
}

func (m *Metrics) threadExited() {
	if m != nil {
		m.threadsExited.Add(1)
	}
}

func (m *Metrics) contextSwitch() {
	if m != nil {
		m.contextSwitches.Add(1)
	}
}

func (m *Metrics) preemption() {
	if m != nil {
		m.preemptions.Add(1)
	}
}

func (m *Metrics) signalKilled() {
	if m != nil {
		m.signalsKilled.Add(1)
	}
}

func (m *Metrics) signalDelivered() {
	if m != nil {
		m.signalsDelivered.Add(1)
	}
}

func (m *Metrics) futexWaitRecorded() {
	if m != nil {
		m.futexWaits.Add(1)
	}
}

func (m *Metrics) futexWakeRecorded() {
	if m != nil {
		m.futexWakes.Add(1)
	}
}

func (m *Metrics) mutexContentionRecorded() {
	if m != nil {
		m.mutexContended.Add(1)
	}
}

func (m *Metrics) spinAcquireRecorded() {
	if m != nil {
		m.spinAcquires.Add(1)
	}
}

// Snapshot is a point-in-time copy of a [Metrics], safe to retain after
// the live runtime continues mutating its counters.
type Snapshot struct {
	ThreadsCreatedOneOne   int64
	ThreadsCreatedManyMany int64
	ThreadsJoined          int64
	ThreadsExited          int64

	ContextSwitches int64
	Preemptions     int64

	SignalsKilled    int64
	SignalsDelivered int64

	FutexWaits int64
	FutexWakes int64

	MutexContended int64
	SpinAcquires   int64
}

// Snapshot copies the current counter values.
func (m *Metrics) Snapshot() Snapshot {
	if m == nil {
		return Snapshot{}
	}
	return Snapshot{
		ThreadsCreatedOneOne:   m.threadsCreatedOneOne.Load(),
		ThreadsCreatedManyMany: m.threadsCreatedManyMany.Load(),
		ThreadsJoined:          m.threadsJoined.Load(),
		ThreadsExited:          m.threadsExited.Load(),
		ContextSwitches:        m.contextSwitches.Load(),
		Preemptions:            m.preemptions.Load(),
		SignalsKilled:          m.signalsKilled.Load(),
		SignalsDelivered:       m.signalsDelivered.Load(),
		FutexWaits:             m.futexWaits.Load(),
		FutexWakes:             m.futexWakes.Load(),
		MutexContended:         m.mutexContended.Load(),
		SpinAcquires:           m.spinAcquires.Load(),
	}
}

// RuntimeMetrics returns a snapshot of the current [Runtime]'s
// counters, or a zero Snapshot if the library has not been [Init]ed or
// [WithMetrics] was never enabled.
func RuntimeMetrics() Snapshot {
	rt := globalRuntime.Load()
	if rt == nil {
		return Snapshot{}
	}
	return rt.metrics.Snapshot()
}
