// Package thread provides a POSIX-flavored user-space threading library
// supporting two coexisting thread-mapping disciplines in a single
// address space: one-one threads, bound for life to their own kernel
// task, and many-many threads, cooperatively multiplexed over a fixed
// pool of carriers with preemptive timer-driven scheduling.
//
// # Architecture
//
// A carrier runs a dispatcher loop that pulls ready many-many [Thread]
// values off a shared ready queue and installs each in turn, exactly like
// a kernel scheduler runs processes on a CPU. One-one threads carry their
// own dedicated goroutine, pinned to its OS thread via
// [runtime.LockOSThread], so the host kernel schedules them directly.
//
// Both mappings share the same descriptor shape, join/wakeup protocol,
// and signal-pending bitmask; [Create], [Join], [Exit], [Self], [Yield],
// [Kill] and [SigMask] operate uniformly across both.
//
// # Context switching
//
// Many-many threads are driven by a per-thread goroutine parked on a
// pair of rendezvous channels (see context.go). A carrier "installs" a
// thread by unparking its goroutine and blocking until it parks again,
// the channel-handoff equivalent of saving and restoring a register
// context, without resorting to cgo or hand-written assembly.
//
// # Preemption
//
// Each carrier owns a one-shot interval [time.Timer]. When it fires, the
// currently installed thread's pending-preempt flag is set; the flag is
// consumed at the library's own safepoints (yield, mutex lock/unlock,
// sigmask, join). A thread that never calls back into the library is not
// preemptable; equivalent semantics are simulated where the host gives
// no stronger guarantee.
//
// # Synchronization
//
// [Mutex] and [SpinLock] track ownership explicitly; contended
// one-one acquisition blocks on the mutex's lock word, on Linux via
// the real futex syscall, elsewhere via a condition-variable-backed
// substitute with identical semantics. Contended many-many
// acquisition parks the thread on the mutex's waiter queue until the
// releasing thread hands it ownership.
//
// # Error handling
//
// Operations report failure as an error wrapping a [Status] (see
// [StatusError]); [Thread.LastError] mirrors POSIX errno for the
// calling thread.
//
// # Logging
//
// Structured logging runs through [github.com/joeycumines/logiface],
// backed by [github.com/joeycumines/stumpy]; set a logger with
// [SetLogger] before calling [Init].
package thread
