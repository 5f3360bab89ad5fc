//go:build !linux

package thread

import (
	"sync"
	"sync/atomic"
)

// futexWait/futexWake substitute the Linux futex syscall with a
// condition-variable-backed wait/wake on hosts without it, preserving
// the same wait-while-equal value semantics. The shared condition
// variable is coarser
// than per-address futex queues, every wake broadcasts, but waiters
// re-check their own addr/val under the lock, so no waiter can miss a
// wake or wake for the wrong reason.
var (
	futexMu   sync.Mutex
	futexCond = sync.NewCond(&futexMu)
)

func futexWait(addr *atomic.Uint32, val uint32) {
	futexMu.Lock()
	for addr.Load() == val {
		futexCond.Wait()
	}
	futexMu.Unlock()
}

func futexWake(addr *atomic.Uint32, n int) {
	_ = n
	futexMu.Lock()
	futexCond.Broadcast()
	futexMu.Unlock()
}

func futexWakeAll(addr *atomic.Uint32) {
	futexWake(addr, 0)
}
