//go:build linux

package thread

import "golang.org/x/sys/unix"

// killOneOne delivers signo to exactly the one-one thread's kernel
// task via tgkill.
func killOneOne(t *Thread, signo int) error {
	if err := unix.Tgkill(unix.Getpid(), t.ktid, unix.Signal(signo)); err != nil {
		return newStatusError("Kill", StatusInvalidArgument)
	}
	return nil
}
