//go:build !linux

package thread

import "golang.org/x/sys/unix"

// killOneOne falls back to a process-wide signal on hosts without a
// per-task tgkill equivalent.
func killOneOne(t *Thread, signo int) error {
	if err := unix.Kill(unix.Getpid(), unix.Signal(signo)); err != nil {
		return newStatusError("Kill", StatusInvalidArgument)
	}
	return nil
}
