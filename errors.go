package thread

import (
	"errors"
	"fmt"
)

// Status is the result code returned by thread operations, mirroring the
// small fixed vocabulary POSIX thread calls report via errno.
type Status int

const (
	// StatusOK indicates the operation succeeded.
	StatusOK Status = iota
	// StatusInvalidArgument indicates a malformed argument (nil start
	// function, unknown mapping, joining an already-joined thread or one
	// that already has a joiner, and similar caller errors).
	StatusInvalidArgument
	// StatusDeadlock indicates an operation was refused because it would
	// deadlock the caller (self-join).
	StatusDeadlock
	// StatusBusy indicates the target is in use: [Init] while already
	// initialized, or Destroy of a held lock. TryLock reports a held lock
	// by returning false, not this status.
	StatusBusy
	// StatusWouldBlock indicates a non-blocking call would otherwise have
	// had to block.
	StatusWouldBlock
	// StatusTryAgain indicates a transient resource shortage (stack or
	// descriptor allocation failure); the caller may retry.
	StatusTryAgain
	// StatusNotInitialized indicates the library was used before [Init].
	StatusNotInitialized
)

func (s Status) String() string {
	switch s {
	case StatusOK:
		return "ok"
	case StatusInvalidArgument:
		return "invalid argument"
	case StatusDeadlock:
		return "deadlock"
	case StatusBusy:
		return "busy"
	case StatusWouldBlock:
		return "would block"
	case StatusTryAgain:
		return "try again"
	case StatusNotInitialized:
		return "not initialized"
	default:
		return fmt.Sprintf("status(%d)", int(s))
	}
}

// StatusError adapts a [Status] to the error interface, so callers that
// only want an error can use errors.Is against the sentinels below.
type StatusError struct {
	Status Status
	Op     string
}

func (e *StatusError) Error() string {
	if e.Op == "" {
		return e.Status.String()
	}
	return e.Op + ": " + e.Status.String()
}

// Is reports whether target is a *StatusError with the same Status, or
// one of the package sentinel errors matching that Status.
func (e *StatusError) Is(target error) bool {
	var other *StatusError
	if errors.As(target, &other) {
		return e.Status == other.Status
	}
	if sentinel, ok := statusSentinels[e.Status]; ok {
		return errors.Is(sentinel, target)
	}
	return false
}

func newStatusError(op string, status Status) error {
	if status == StatusOK {
		return nil
	}
	return &StatusError{Status: status, Op: op}
}

// Sentinel errors, one per non-OK [Status], for errors.Is matching
// without needing to reach into a *StatusError.
var (
	ErrInvalidArgument = errors.New("thread: invalid argument")
	ErrDeadlock        = errors.New("thread: deadlock")
	ErrBusy            = errors.New("thread: busy")
	ErrWouldBlock      = errors.New("thread: would block")
	ErrTryAgain        = errors.New("thread: try again")
	ErrNotInitialized  = errors.New("thread: not initialized")

	statusSentinels = map[Status]error{
		StatusInvalidArgument: ErrInvalidArgument,
		StatusDeadlock:        ErrDeadlock,
		StatusBusy:            ErrBusy,
		StatusWouldBlock:      ErrWouldBlock,
		StatusTryAgain:        ErrTryAgain,
		StatusNotInitialized:  ErrNotInitialized,
	}
)

// PanicError wraps a value recovered from a panicking thread start
// function, so it can be reported through [Join] instead of crashing the
// carrier goroutine that was running the thread.
type PanicError struct {
	ThreadID int
	Value    any
}

func (e *PanicError) Error() string {
	return fmt.Sprintf("thread %d panicked: %v", e.ThreadID, e.Value)
}

// Unwrap returns the recovered value if it is itself an error, enabling
// [errors.Is] / [errors.As] through the panic's cause chain.
func (e *PanicError) Unwrap() error {
	if err, ok := e.Value.(error); ok {
		return err
	}
	return nil
}
