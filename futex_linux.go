//go:build linux

package thread

import (
	"sync/atomic"
	"unsafe"

	"golang.org/x/sys/unix"
)

// Linux futex(2) operation codes. golang.org/x/sys/unix does not export
// these (only the FUTEX_WAIT/FUTEX_WAKE syscall-number constants for an
// unrelated syscall variant), so they are defined here per the kernel ABI.
const (
	_FUTEX_WAIT = 0
	_FUTEX_WAKE = 1
)

// futexWait blocks while *addr == val, using the real Linux futex
// syscall.
func futexWait(addr *atomic.Uint32, val uint32) {
	for addr.Load() == val {
		_, _, errno := unix.Syscall6(
			unix.SYS_FUTEX,
			uintptr(unsafe.Pointer(addr)),
			uintptr(_FUTEX_WAIT),
			uintptr(val),
			0, 0, 0,
		)
		if errno != 0 && errno != unix.EAGAIN && errno != unix.EINTR {
			return
		}
	}
}

// futexWake wakes up to n waiters blocked on addr.
func futexWake(addr *atomic.Uint32, n int) {
	unix.Syscall6(
		unix.SYS_FUTEX,
		uintptr(unsafe.Pointer(addr)),
		uintptr(_FUTEX_WAKE),
		uintptr(n),
		0, 0, 0,
	)
}

// futexWakeAll wakes every waiter blocked on addr (one-one exit: the
// kernel's CHILD_CLEARTID semantics we substitute in runOneOneThread
// may have more than one joiner's futex waiting simultaneously, though
// at most one is ever the registered joiner).
func futexWakeAll(addr *atomic.Uint32) {
	futexWake(addr, 1<<30)
}
